// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the redelivery guard for inbound
// webhook messages: the messaging platform retries deliveries it considers
// unacknowledged, so every message ID is claimed exactly once per TTL window.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
)

// ClaimInboundMessage records messageID as processed and reports whether
// this call was the first to claim it within the TTL window. A false result
// means the message is a redelivery and must be acknowledged without
// reprocessing.
//
// Expired claims for the same ID are reclaimed, so a genuinely new message
// that happens to reuse an old ID after the window is processed normally.
func ClaimInboundMessage(ctx context.Context, db *gorm.DB, messageID string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()

	// Reclaim an expired row first so the insert below can win.
	if err := db.WithContext(ctx).
		Where("id = ? AND expires_at <= ?", messageID, now).
		Delete(&domain.WebhookEvent{}).Error; err != nil {
		return false, err
	}

	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.WebhookEvent{
			ID:         messageID,
			ReceivedAt: now,
			ExpiresAt:  now.Add(ttl),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// PurgeExpiredWebhookEvents deletes claims past their expiry. Called
// periodically so the table stays bounded.
func PurgeExpiredWebhookEvents(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", time.Now().UTC()).
		Delete(&domain.WebhookEvent{})
	return res.RowsAffected, res.Error
}
