package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
)

// GetCartByPhone loads a customer's cart with items and their products.
// Returns ErrNotFound when the customer has no cart.
func GetCartByPhone(ctx context.Context, db *gorm.DB, phone string) (*domain.Cart, error) {
	var c domain.Cart
	err := db.WithContext(ctx).
		Preload("Items.Product").
		First(&c, "user_phone = ?", phone).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreateCart returns the customer's cart, creating an empty one if none
// exists. Creation races on the unique user_phone index resolve by re-reading.
func GetOrCreateCart(ctx context.Context, db *gorm.DB, phone string) (*domain.Cart, error) {
	c, err := GetCartByPhone(ctx, db, phone)
	if err == nil {
		return c, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	fresh := domain.Cart{ID: uuid.NewString(), UserPhone: phone}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_phone"}}, DoNothing: true}).
		Create(&fresh)
	if res.Error != nil {
		return nil, res.Error
	}
	return GetCartByPhone(ctx, db, phone)
}

// UpsertCartItem adds qty units of a product to a cart. If the product is
// already in the cart the existing row's quantity is incremented, so repeated
// adds accumulate instead of duplicating lines.
func UpsertCartItem(ctx context.Context, db *gorm.DB, cartID string, productID uint, qty int) error {
	item := domain.CartItem{
		ID:        uuid.NewString(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  qty,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"quantity": gorm.Expr("quantity + ?", qty)}),
		}).
		Create(&item).Error
}

// DeleteCart removes a cart and, via the cascade constraint, its items.
func DeleteCart(ctx context.Context, db *gorm.DB, cartID string) error {
	if err := db.WithContext(ctx).Delete(&domain.CartItem{}, "cart_id = ?", cartID).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Delete(&domain.Cart{}, "id = ?", cartID).Error
}

// DeleteCartByPhone removes the customer's cart if one exists. Missing carts
// are not an error; clearing an empty cart is a no-op.
func DeleteCartByPhone(ctx context.Context, db *gorm.DB, phone string) error {
	c, err := GetCartByPhone(ctx, db, phone)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	return DeleteCart(ctx, db, c.ID)
}
