// Package services – MessageService
//
// This file implements the MessageService, a thin layer over the
// conversational transcript. Entries are append-only; the only deletion is
// wholesale clear-history for one customer.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
	"github.com/AI-Automated-Ecommerce/Backend/internal/repo"
)

// Transcript roles.
const (
	RoleCustomer  = "customer"
	RoleAssistant = "assistant"
)

// MessageService records and retrieves conversation transcripts.
type MessageService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// HistoryLimit caps how many entries History returns. Zero means all.
	HistoryLimit int
}

// NewMessageService constructs a MessageService with a default history cap.
func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{DB: db, HistoryLimit: 50}
}

// Append stores one transcript entry. Blank content is dropped silently; the
// transcript records what was said, and nothing was.
func (s *MessageService) Append(ctx context.Context, phone, role, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	return repo.AppendMessage(ctx, s.DB, phone, role, content)
}

// History returns the most recent transcript entries in chronological order.
func (s *MessageService) History(ctx context.Context, phone string) ([]domain.Message, error) {
	return repo.ListMessages(ctx, s.DB, phone, s.HistoryLimit)
}

// Clear deletes the whole transcript for one customer.
func (s *MessageService) Clear(ctx context.Context, phone string) error {
	return repo.ClearMessages(ctx, s.DB, phone)
}
