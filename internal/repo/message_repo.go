package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
)

// AppendMessage stores one transcript entry for a customer conversation.
func AppendMessage(ctx context.Context, db *gorm.DB, phone, role, content string) error {
	m := domain.Message{
		ID:        uuid.NewString(),
		UserPhone: phone,
		Role:      role,
		Content:   content,
	}
	return db.WithContext(ctx).Create(&m).Error
}

// ListMessages returns the most recent transcript entries for a phone in
// chronological order. limit <= 0 returns the whole transcript.
func ListMessages(ctx context.Context, db *gorm.DB, phone string, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.WithContext(ctx).
		Where("user_phone = ?", phone).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ClearMessages deletes the whole transcript for a phone.
func ClearMessages(ctx context.Context, db *gorm.DB, phone string) error {
	return db.WithContext(ctx).Delete(&domain.Message{}, "user_phone = ?", phone).Error
}
