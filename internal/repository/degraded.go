package repository

import (
	"context"
	"time"

	"github.com/thib420/AI-Table-sub000/internal/logger"
	"github.com/thib420/AI-Table-sub000/internal/models"
)

// Degraded repository implementations. Every write logs the dropped records
// and reports success; every list read returns an empty collection; every
// single-row read reports ErrNotFound. The in-memory cache layer stays the
// sole source of data while the database is away.

type degradedFolderRepository struct {
	log *logger.SyncLogger
}

func (r *degradedFolderRepository) UpsertAll(_ context.Context, _ string, folders []models.Folder) error {
	r.log.DegradedWrite("folders", len(folders))
	return nil
}

func (r *degradedFolderRepository) ListByOwner(context.Context, string) ([]models.Folder, error) {
	return []models.Folder{}, nil
}

func (r *degradedFolderRepository) GetByProviderID(context.Context, string, string) (*models.Folder, error) {
	return nil, ErrNotFound
}

func (r *degradedFolderRepository) FindTrash(context.Context, string) (*models.Folder, error) {
	return nil, ErrNotFound
}

func (r *degradedFolderRepository) CountByOwner(context.Context, string) (int64, error) {
	return 0, nil
}

type degradedMessageRepository struct {
	log *logger.SyncLogger
}

func (r *degradedMessageRepository) UpsertBatch(_ context.Context, _, _ string, messages []models.Message) error {
	r.log.DegradedWrite("messages", len(messages))
	return nil
}

func (r *degradedMessageRepository) GetByProviderID(context.Context, string, string) (*models.Message, error) {
	return nil, ErrNotFound
}

func (r *degradedMessageRepository) List(context.Context, string, MessageFilter) ([]models.Message, int64, error) {
	return []models.Message{}, 0, nil
}

func (r *degradedMessageRepository) UpdateStatus(_ context.Context, _, _ string, _ StatusPatch) error {
	r.log.DegradedWrite("messages", 1)
	return nil
}

func (r *degradedMessageRepository) Delete(_ context.Context, _, _ string) error {
	r.log.DegradedWrite("messages", 1)
	return nil
}

func (r *degradedMessageRepository) Search(context.Context, string, string, int) ([]models.Message, error) {
	return []models.Message{}, nil
}

func (r *degradedMessageRepository) CountByOwner(context.Context, string) (int64, error) {
	return 0, nil
}

type degradedContactRepository struct {
	log *logger.SyncLogger
}

func (r *degradedContactRepository) UpsertBatch(_ context.Context, _ string, contacts []models.Contact) error {
	r.log.DegradedWrite("contacts", len(contacts))
	return nil
}

func (r *degradedContactRepository) GetByEmail(context.Context, string, string) (*models.Contact, error) {
	return nil, ErrNotFound
}

func (r *degradedContactRepository) GetByEmails(context.Context, string, []string) (map[string]models.Contact, error) {
	return map[string]models.Contact{}, nil
}

func (r *degradedContactRepository) List(context.Context, string, ContactFilter) ([]models.Contact, int64, error) {
	return []models.Contact{}, 0, nil
}

func (r *degradedContactRepository) ListSparse(context.Context, string, int) ([]models.Contact, error) {
	return []models.Contact{}, nil
}

func (r *degradedContactRepository) RefreshStatuses(context.Context, string, time.Time) (int64, error) {
	return 0, nil
}

func (r *degradedContactRepository) CountByOwner(context.Context, string) (int64, error) {
	return 0, nil
}

type degradedCalendarEventRepository struct {
	log *logger.SyncLogger
}

func (r *degradedCalendarEventRepository) UpsertBatch(_ context.Context, _ string, events []models.CalendarEvent) error {
	r.log.DegradedWrite("calendar_events", len(events))
	return nil
}

func (r *degradedCalendarEventRepository) ListWindow(context.Context, string, time.Time, time.Time) ([]models.CalendarEvent, error) {
	return []models.CalendarEvent{}, nil
}

func (r *degradedCalendarEventRepository) CountByOwner(context.Context, string) (int64, error) {
	return 0, nil
}

type degradedSyncStateRepository struct {
	log *logger.SyncLogger
}

// GetOrCreate hands out a transient state so the engine can keep its
// bookkeeping in memory for the current process lifetime.
func (r *degradedSyncStateRepository) GetOrCreate(_ context.Context, owner string) (*models.SyncState, bool, error) {
	return &models.SyncState{OwnerID: owner, Enabled: true}, true, nil
}

func (r *degradedSyncStateRepository) Get(context.Context, string) (*models.SyncState, error) {
	return nil, ErrNotFound
}

func (r *degradedSyncStateRepository) Update(_ context.Context, _ *models.SyncState) error {
	r.log.DegradedWrite("sync_states", 1)
	return nil
}
