// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Product
// and Category models, including the guarded stock decrement used by order
// creation.
//
// Error semantics:
//   - Missing rows surface as ErrNotFound (gorm.ErrRecordNotFound).
//   - ErrStockConflict means a decrement would have driven stock negative;
//     the row is left untouched.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
)

// ErrStockConflict indicates a stock decrement was refused because fewer
// units remained than requested. The guarded UPDATE leaves the row unchanged.
var ErrStockConflict = errors.New("insufficient stock")

// GetProduct fetches a product by ID regardless of active flag.
func GetProduct(ctx context.Context, db *gorm.DB, id uint) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetActiveProduct fetches a product by ID, requiring is_active = true.
func GetActiveProduct(ctx context.Context, db *gorm.DB, id uint) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).First(&p, "id = ? AND is_active = ?", id, true).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActiveProducts returns all active products ordered by name.
func ListActiveProducts(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC, id ASC").
		Find(&out).Error
	return out, err
}

// ListActiveProductsPage returns a page of active products ordered by name.
func ListActiveProductsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountActiveProducts returns the number of active products.
func CountActiveProducts(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Product{}).Where("is_active = ?", true).Count(&total).Error
	return total, err
}

// DecrementStock subtracts qty units from a product's stock, but only when
// at least qty units remain. The availability check and the decrement are a
// single UPDATE so two concurrent orders can never both consume the same
// unit:
//
//	UPDATE products SET stock_quantity = stock_quantity - ?
//	WHERE id = ? AND stock_quantity >= ?
//
// RowsAffected = 0 means the guard failed and ErrStockConflict is returned.
func DecrementStock(ctx context.Context, db *gorm.DB, productID uint, qty int) error {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockConflict
	}
	return nil
}
