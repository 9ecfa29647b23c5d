package repository

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thib420/AI-Table-sub000/internal/logger"
	"github.com/thib420/AI-Table-sub000/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newDegradedStore(t *testing.T) (*Store, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := logger.NewSyncLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	return NewStore(nil, log), &buf
}

func TestNewStore_WithDatabaseIsNotDegraded(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Folder{}))

	log := logger.NewSyncLogger(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))
	store := NewStore(db, log)

	assert.False(t, store.Degraded())

	err = store.Folders.UpsertAll(context.Background(), "owner-1", []models.Folder{
		{ProviderFolderID: "f-1", DisplayName: "Inbox", TypeTag: models.FolderInbox, IsSystem: true},
	})
	require.NoError(t, err)
	count, err := store.Folders.CountByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNewStore_NilDatabaseIsDegraded(t *testing.T) {
	store, _ := newDegradedStore(t)

	assert.True(t, store.Degraded())
}

func TestDegradedStore_WritesSucceedAndLog(t *testing.T) {
	store, buf := newDegradedStore(t)

	err := store.Messages.UpsertBatch(context.Background(), "owner-1", "inbox", []models.Message{
		{ProviderMessageID: "msg-1", SenderEmail: "ada@example.com"},
	})
	assert.NoError(t, err)

	err = store.Contacts.UpsertBatch(context.Background(), "owner-1", []models.Contact{
		{Email: "ada@example.com"},
	})
	assert.NoError(t, err)

	err = store.Folders.UpsertAll(context.Background(), "owner-1", []models.Folder{
		{ProviderFolderID: "f-1", DisplayName: "Inbox"},
	})
	assert.NoError(t, err)

	logged := buf.String()
	assert.Contains(t, logged, "degraded_store_write_dropped")
	assert.Contains(t, logged, `"table":"messages"`)
	assert.Contains(t, logged, `"table":"contacts"`)
	assert.Contains(t, logged, `"table":"folders"`)
}

func TestDegradedStore_ReadsReturnEmpty(t *testing.T) {
	store, _ := newDegradedStore(t)
	ctx := context.Background()

	folders, err := store.Folders.ListByOwner(ctx, "owner-1")
	assert.NoError(t, err)
	assert.Empty(t, folders)

	messages, total, err := store.Messages.List(ctx, "owner-1", MessageFilter{Limit: 10})
	assert.NoError(t, err)
	assert.Empty(t, messages)
	assert.Zero(t, total)

	hits, err := store.Messages.Search(ctx, "owner-1", "anything", 10)
	assert.NoError(t, err)
	assert.Empty(t, hits)

	contacts, total, err := store.Contacts.List(ctx, "owner-1", ContactFilter{Limit: 10})
	assert.NoError(t, err)
	assert.Empty(t, contacts)
	assert.Zero(t, total)

	events, err := store.Events.ListWindow(ctx, "owner-1", time.Now(), time.Now().Add(time.Hour))
	assert.NoError(t, err)
	assert.Empty(t, events)
}

func TestDegradedStore_SingleRowLookupsReportNotFound(t *testing.T) {
	store, _ := newDegradedStore(t)
	ctx := context.Background()

	_, err := store.Messages.GetByProviderID(ctx, "owner-1", "msg-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Contacts.GetByEmail(ctx, "owner-1", "ada@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Folders.FindTrash(ctx, "owner-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDegradedStore_SyncStateIsTransient(t *testing.T) {
	store, _ := newDegradedStore(t)
	ctx := context.Background()

	state, created, err := store.SyncState.GetOrCreate(ctx, "owner-1")
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, state)
	assert.Equal(t, "owner-1", state.OwnerID)
	assert.True(t, state.Enabled)

	// Updates are accepted so the engine can finish its run bookkeeping
	now := time.Now().UTC()
	state.LastFullSyncAt = &now
	assert.NoError(t, store.SyncState.Update(ctx, state))
}
