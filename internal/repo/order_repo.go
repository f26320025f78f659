package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
)

// CreateOrder inserts an order together with its line items. Callers are
// expected to run this inside the same transaction as the stock decrements.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	return db.WithContext(ctx).Create(o).Error
}

// GetOrder loads an order with its items by ID.
func GetOrder(ctx context.Context, db *gorm.DB, id uint) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// FindLatestPendingByPhone returns the customer's most recently created
// PENDING order. Ties on created_at break toward the higher ID so the result
// is deterministic even with second-granularity timestamps.
func FindLatestPendingByPhone(ctx context.Context, db *gorm.DB, phone string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Preload("Items").
		Where("customer_phone = ? AND status = ?", phone, domain.StatusPending).
		Order("created_at DESC, id DESC").
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderStatus persists a status change. Transition legality is the
// service layer's concern; this only writes the column.
func UpdateOrderStatus(ctx context.Context, db *gorm.DB, id uint, to domain.OrderStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPaymentRef records the customer-supplied payment reference.
func SetPaymentRef(ctx context.Context, db *gorm.DB, id uint, ref string) error {
	return db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("payment_ref", ref).Error
}

// SetReceiptURL records where an uploaded payment receipt was stored.
func SetReceiptURL(ctx context.Context, db *gorm.DB, id uint, url string) error {
	return db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("payment_receipt_url", url).Error
}
