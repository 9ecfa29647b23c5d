package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thib420/AI-Table-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertBatchSize bounds the rows per INSERT when mirroring large folders
const upsertBatchSize = 100

// MessageFilter narrows message listings
type MessageFilter struct {
	FolderKey   string
	UnreadOnly  bool
	StarredOnly bool
	Limit       int
	Offset      int
}

// StatusPatch carries the mutable message status flags. Nil fields are left
// untouched.
type StatusPatch struct {
	IsRead    *bool
	IsStarred *bool
}

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	// UpsertBatch inserts or refreshes messages keyed by
	// (owner, provider-message-id). Repeated calls with overlapping data
	// never create duplicates.
	UpsertBatch(ctx context.Context, owner, folderKey string, messages []models.Message) error

	// GetByProviderID retrieves one message by its provider id
	GetByProviderID(ctx context.Context, owner, providerMessageID string) (*models.Message, error)

	// List retrieves messages newest-first with pagination and optional filters
	List(ctx context.Context, owner string, filter MessageFilter) ([]models.Message, int64, error)

	// UpdateStatus applies a read/starred patch to one message
	UpdateStatus(ctx context.Context, owner, providerMessageID string, patch StatusPatch) error

	// Delete removes a message row by provider id
	Delete(ctx context.Context, owner, providerMessageID string) error

	// Search performs a case-insensitive substring match across sender name,
	// sender address, subject, and preview
	Search(ctx context.Context, owner, query string, limit int) ([]models.Message, error)

	// CountByOwner returns the number of messages stored for the owner
	CountByOwner(ctx context.Context, owner string) (int64, error)
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// UpsertBatch inserts or refreshes messages by natural key
func (r *messageRepository) UpsertBatch(ctx context.Context, owner, folderKey string, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	for i := range messages {
		messages[i].OwnerID = owner
		messages[i].FolderKey = folderKey
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "provider_message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"folder_key", "sender_name", "sender_email", "subject", "preview",
			"to_addresses", "cc_addresses", "bcc_addresses",
			"is_read", "is_starred", "has_attachments", "raw_payload",
			"received_at", "updated_at",
		}),
	}).CreateInBatches(&messages, upsertBatchSize)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert messages: %w", result.Error)
	}
	return nil
}

// GetByProviderID retrieves one message by its provider id
func (r *messageRepository) GetByProviderID(ctx context.Context, owner, providerMessageID string) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND provider_message_id = ?", owner, providerMessageID).
		First(&message)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by provider id: %w", result.Error)
	}
	return &message, nil
}

// List retrieves messages newest-first with pagination and optional filters
func (r *messageRepository) List(ctx context.Context, owner string, filter MessageFilter) ([]models.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Message{}).Where("owner_id = ?", owner)

	if filter.FolderKey != "" {
		query = query.Where("folder_key = ?", filter.FolderKey)
	}
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if filter.StarredOnly {
		query = query.Where("is_starred = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []models.Message
	result := query.Order("received_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&messages)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", result.Error)
	}

	return messages, total, nil
}

// UpdateStatus applies a read/starred patch to one message
func (r *messageRepository) UpdateStatus(ctx context.Context, owner, providerMessageID string, patch StatusPatch) error {
	updates := make(map[string]interface{}, 2)
	if patch.IsRead != nil {
		updates["is_read"] = *patch.IsRead
	}
	if patch.IsStarred != nil {
		updates["is_starred"] = *patch.IsStarred
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("owner_id = ? AND provider_message_id = ?", owner, providerMessageID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update message status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a message row by provider id
func (r *messageRepository) Delete(ctx context.Context, owner, providerMessageID string) error {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND provider_message_id = ?", owner, providerMessageID).
		Delete(&models.Message{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Search performs a case-insensitive substring match across sender name,
// sender address, subject, and preview. LOWER + LIKE keeps the query portable
// across the postgres and sqlite dialects.
func (r *messageRepository) Search(ctx context.Context, owner, query string, limit int) ([]models.Message, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	var messages []models.Message
	result := r.db.WithContext(ctx).
		Where("owner_id = ?", owner).
		Where(
			"LOWER(sender_name) LIKE ? OR LOWER(sender_email) LIKE ? OR LOWER(subject) LIKE ? OR LOWER(preview) LIKE ?",
			pattern, pattern, pattern, pattern,
		).
		Order("received_at DESC").
		Limit(limit).
		Find(&messages)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to search messages: %w", result.Error)
	}
	return messages, nil
}

// CountByOwner returns the number of messages stored for the owner
func (r *messageRepository) CountByOwner(ctx context.Context, owner string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("owner_id = ?", owner).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count messages: %w", result.Error)
	}
	return count, nil
}
