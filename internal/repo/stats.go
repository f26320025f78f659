package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
)

// DashboardStats holds the admin dashboard aggregates.
type DashboardStats struct {
	TotalOrders   int64   `json:"total_orders"`
	PendingOrders int64   `json:"pending_orders"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalProducts int64   `json:"total_products"`
	TotalUsers    int64   `json:"total_users"`
}

// LoadDashboardStats computes the admin aggregates in one pass per table.
// Revenue counts orders that reached PAID, SHIPPED or COMPLETED.
func LoadDashboardStats(ctx context.Context, db *gorm.DB) (*DashboardStats, error) {
	var s DashboardStats

	if err := db.WithContext(ctx).Model(&domain.Order{}).Count(&s.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.Order{}).
		Where("status = ?", domain.StatusPending).
		Count(&s.PendingOrders).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.Order{}).
		Where("status IN ?", []domain.OrderStatus{domain.StatusPaid, domain.StatusShipped, domain.StatusCompleted}).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&s.TotalRevenue).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.Product{}).
		Where("is_active = ?", true).
		Count(&s.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.User{}).Count(&s.TotalUsers).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
