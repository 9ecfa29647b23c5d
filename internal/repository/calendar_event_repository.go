package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/thib420/AI-Table-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CalendarEventRepository defines the interface for calendar event data access
type CalendarEventRepository interface {
	// UpsertBatch inserts or refreshes events keyed by
	// (owner, provider-event-id)
	UpsertBatch(ctx context.Context, owner string, events []models.CalendarEvent) error

	// ListWindow returns events overlapping the [from, to) window, ordered
	// by start time
	ListWindow(ctx context.Context, owner string, from, to time.Time) ([]models.CalendarEvent, error)

	// CountByOwner returns the number of events stored for the owner
	CountByOwner(ctx context.Context, owner string) (int64, error)
}

// calendarEventRepository implements CalendarEventRepository using GORM
type calendarEventRepository struct {
	db *gorm.DB
}

// NewCalendarEventRepository creates a new CalendarEventRepository instance
func NewCalendarEventRepository(db *gorm.DB) CalendarEventRepository {
	return &calendarEventRepository{db: db}
}

// UpsertBatch inserts or refreshes events by natural key
func (r *calendarEventRepository) UpsertBatch(ctx context.Context, owner string, events []models.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}

	for i := range events {
		events[i].OwnerID = owner
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "provider_event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"subject", "location", "organizer", "starts_at", "ends_at",
			"is_all_day", "attendee_count", "raw_payload", "updated_at",
		}),
	}).CreateInBatches(&events, upsertBatchSize)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert calendar events: %w", result.Error)
	}
	return nil
}

// ListWindow returns events overlapping the [from, to) window
func (r *calendarEventRepository) ListWindow(ctx context.Context, owner string, from, to time.Time) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND starts_at < ? AND ends_at > ?", owner, to, from).
		Order("starts_at ASC").
		Find(&events)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", result.Error)
	}
	return events, nil
}

// CountByOwner returns the number of events stored for the owner
func (r *calendarEventRepository) CountByOwner(ctx context.Context, owner string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.CalendarEvent{}).
		Where("owner_id = ?", owner).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count calendar events: %w", result.Error)
	}
	return count, nil
}
