//go:build integration

package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/thib420/AI-Table-sub000/internal/logger"
	"github.com/thib420/AI-Table-sub000/internal/models"
	"github.com/thib420/AI-Table-sub000/internal/repository"
	"github.com/thib420/AI-Table-sub000/tests/fixtures"
)

const integrationOwner = "owner@example.com"

// DatabaseIntegrationTestSuite exercises the repositories against real
// PostgreSQL. The upserts and the status-refresh SQL behave subtly
// differently there than on sqlite, so this tier runs them on the dialect
// production uses.
type DatabaseIntegrationTestSuite struct {
	suite.Suite
	container testcontainers.Container
	db        *gorm.DB
	store     *repository.Store
}

// SetupSuite starts a PostgreSQL container and migrates the schema
func (s *DatabaseIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "mailmirror_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(ctx)
	require.NoError(s.T(), err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(s.T(), err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=mailmirror_test sslmode=disable",
		host, port.Port())

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(s.T(), err)
	s.db = db

	err = db.AutoMigrate(
		&models.Folder{},
		&models.Message{},
		&models.Contact{},
		&models.CalendarEvent{},
		&models.SyncState{},
	)
	require.NoError(s.T(), err)

	log := logger.NewSyncLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.store = repository.NewStore(db, log)
}

// TearDownSuite stops the PostgreSQL container
func (s *DatabaseIntegrationTestSuite) TearDownSuite() {
	if s.container != nil {
		s.container.Terminate(context.Background())
	}
}

// SetupTest cleans up data before each test
func (s *DatabaseIntegrationTestSuite) SetupTest() {
	s.db.Exec("TRUNCATE TABLE calendar_events, contacts, messages, folders, sync_states RESTART IDENTITY CASCADE")
}

// TestDatabaseIntegrationTestSuite runs the test suite
func TestDatabaseIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(DatabaseIntegrationTestSuite))
}

// ==================== Folder Tests ====================

func (s *DatabaseIntegrationTestSuite) TestFolders_UpsertIsIdempotent() {
	ctx := context.Background()

	folders := []models.Folder{
		fixtures.NewFolderBuilder().WithOwner(integrationOwner).WithProviderID("f-1").
			WithDisplayName("Inbox").WithTypeTag(models.FolderInbox).WithCounts(5, 20).BuildValue(),
		fixtures.NewFolderBuilder().WithOwner(integrationOwner).WithProviderID("f-2").
			WithDisplayName("Archive").WithTypeTag(models.FolderArchive).BuildValue(),
	}
	err := s.store.Folders.UpsertAll(ctx, integrationOwner, folders)
	require.NoError(s.T(), err)

	// A second sync delivers the same folders with fresh counters
	folders[0].UnreadCount = 2
	folders[0].TotalCount = 22
	folders[0].ID = 0
	folders[1].ID = 0
	err = s.store.Folders.UpsertAll(ctx, integrationOwner, folders)
	require.NoError(s.T(), err)

	all, err := s.store.Folders.ListByOwner(ctx, integrationOwner)
	assert.NoError(s.T(), err)
	assert.Len(s.T(), all, 2)

	inbox, err := s.store.Folders.GetByProviderID(ctx, integrationOwner, "f-1")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), 2, inbox.UnreadCount)
	assert.Equal(s.T(), 22, inbox.TotalCount)
}

func (s *DatabaseIntegrationTestSuite) TestFolders_FindTrash() {
	ctx := context.Background()

	folders := []models.Folder{
		fixtures.NewFolderBuilder().WithOwner(integrationOwner).WithProviderID("f-1").
			WithDisplayName("Inbox").WithTypeTag(models.FolderInbox).BuildValue(),
		fixtures.NewFolderBuilder().WithOwner(integrationOwner).WithProviderID("f-9").
			WithDisplayName("Deleted Items").WithTypeTag(models.FolderTrash).BuildValue(),
	}
	require.NoError(s.T(), s.store.Folders.UpsertAll(ctx, integrationOwner, folders))

	trash, err := s.store.Folders.FindTrash(ctx, integrationOwner)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "f-9", trash.ProviderFolderID)

	// A different owner has no trash folder yet
	_, err = s.store.Folders.FindTrash(ctx, "someone-else@example.com")
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

// ==================== Message Tests ====================

func (s *DatabaseIntegrationTestSuite) TestMessages_UpsertRefreshesExistingRows() {
	ctx := context.Background()

	first := fixtures.NewMessageBuilder().WithOwner(integrationOwner).WithProviderID("m-1").
		WithFolderKey("f-inbox").WithSubject("Draft thoughts").WithRead(false).BuildValue()
	err := s.store.Messages.UpsertBatch(ctx, integrationOwner, "f-inbox", []models.Message{first})
	require.NoError(s.T(), err)

	// The provider re-delivers the message, now read with a final subject
	second := fixtures.NewMessageBuilder().WithOwner(integrationOwner).WithProviderID("m-1").
		WithFolderKey("f-inbox").WithSubject("Final thoughts").WithRead(true).BuildValue()
	err = s.store.Messages.UpsertBatch(ctx, integrationOwner, "f-inbox", []models.Message{second})
	require.NoError(s.T(), err)

	count, err := s.store.Messages.CountByOwner(ctx, integrationOwner)
	assert.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, count)

	stored, err := s.store.Messages.GetByProviderID(ctx, integrationOwner, "m-1")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "Final thoughts", stored.Subject)
	assert.True(s.T(), stored.IsRead)
}

func (s *DatabaseIntegrationTestSuite) TestMessages_ListFilters() {
	ctx := context.Background()

	inbox := []models.Message{
		fixtures.NewMessageBuilder().WithOwner(integrationOwner).WithProviderID("m-1").
			WithRead(true).WithReceivedAt(time.Now().Add(-3 * time.Hour)).BuildValue(),
		fixtures.NewMessageBuilder().WithOwner(integrationOwner).WithProviderID("m-2").
			WithStarred(true).WithReceivedAt(time.Now().Add(-2 * time.Hour)).BuildValue(),
	}
	require.NoError(s.T(), s.store.Messages.UpsertBatch(ctx, integrationOwner, "f-inbox", inbox))

	archived := []models.Message{
		fixtures.NewMessageBuilder().WithOwner(integrationOwner).WithProviderID("m-3").
			WithReceivedAt(time.Now().Add(-time.Hour)).BuildValue(),
	}
	require.NoError(s.T(), s.store.Messages.UpsertBatch(ctx, integrationOwner, "f-archive", archived))

	// Unfiltered, newest first
	all, total, err := s.store.Messages.List(ctx, integrationOwner, repository.MessageFilter{Limit: 10})
	assert.NoError(s.T(), err)
	assert.EqualValues(s.T(), 3, total)
	require.Len(s.T(), all, 3)
	assert.Equal(s.T(), "m-3", all[0].ProviderMessageID)

	unread, total, err := s.store.Messages.List(ctx, integrationOwner, repository.MessageFilter{UnreadOnly: true, Limit: 10})
	assert.NoError(s.T(), err)
	assert.EqualValues(s.T(), 2, total)
	assert.Len(s.T(), unread, 2)

	starred, total, err := s.store.Messages.List(ctx, integrationOwner, repository.MessageFilter{StarredOnly: true, Limit: 10})
	assert.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, total)
	require.Len(s.T(), starred, 1)
	assert.Equal(s.T(), "m-2", starred[0].ProviderMessageID)

	inArchive, total, err := s.store.Messages.List(ctx, integrationOwner, repository.MessageFilter{FolderKey: "f-archive", Limit: 10})
	assert.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, total)
	assert.Len(s.T(), inArchive, 1)

	// Pagination window
	window, total, err := s.store.Messages.List(ctx, integrationOwner, repository.MessageFilter{Limit: 2, Offset: 2})
	assert.NoError(s.T(), err)
	assert.EqualValues(s.T(), 3, total)
	assert.Len(s.T(), window, 1)
}

func (s *DatabaseIntegrationTestSuite) TestMessages_UpdateStatusLeavesOtherFlagsAlone() {
	ctx := context.Background()

	msg := fixtures.NewMessageBuilder().WithOwner(integrationOwner).WithProviderID("m-1").
		WithFolderKey("f-inbox").WithStarred(true).BuildValue()
	require.NoError(s.T(), s.store.Messages.UpsertBatch(ctx, integrationOwner, "f-inbox", []models.Message{msg}))

	read := true
	err := s.store.Messages.UpdateStatus(ctx, integrationOwner, "m-1", repository.StatusPatch{IsRead: &read})
	assert.NoError(s.T(), err)

	stored, err := s.store.Messages.GetByProviderID(ctx, integrationOwner, "m-1")
	assert.NoError(s.T(), err)
	assert.True(s.T(), stored.IsRead)
	assert.True(s.T(), stored.IsStarred, "starred flag must survive a read-state patch")
}

func (s *DatabaseIntegrationTestSuite) TestMessages_DeleteRemovesRow() {
	ctx := context.Background()

	msg := fixtures.NewMessageBuilder().WithOwner(integrationOwner).WithProviderID("m-1").
		WithFolderKey("f-inbox").BuildValue()
	require.NoError(s.T(), s.store.Messages.UpsertBatch(ctx, integrationOwner, "f-inbox", []models.Message{msg}))

	err := s.store.Messages.Delete(ctx, integrationOwner, "m-1")
	assert.NoError(s.T(), err)

	_, err = s.store.Messages.GetByProviderID(ctx, integrationOwner, "m-1")
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)

	err = s.store.Messages.Delete(ctx, integrationOwner, "m-1")
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *DatabaseIntegrationTestSuite) TestMessages_SearchIsCaseInsensitive() {
	ctx := context.Background()

	messages := []models.Message{
		fixtures.NewMessageBuilder().WithOwner(integrationOwner).WithProviderID("m-1").
			WithSubject("Quarterly Report Q3").
			WithSender("ada@example.com", "Ada Lovelace").BuildValue(),
		fixtures.NewMessageBuilder().WithOwner(integrationOwner).WithProviderID("m-2").
			WithSubject("Lunch plans").
			WithSender("grace@example.com", "Grace Hopper").BuildValue(),
	}
	require.NoError(s.T(), s.store.Messages.UpsertBatch(ctx, integrationOwner, "f-inbox", messages))

	bySubject, err := s.store.Messages.Search(ctx, integrationOwner, "quarterly", 10)
	assert.NoError(s.T(), err)
	require.Len(s.T(), bySubject, 1)
	assert.Equal(s.T(), "m-1", bySubject[0].ProviderMessageID)

	bySender, err := s.store.Messages.Search(ctx, integrationOwner, "GRACE@", 10)
	assert.NoError(s.T(), err)
	require.Len(s.T(), bySender, 1)
	assert.Equal(s.T(), "m-2", bySender[0].ProviderMessageID)

	none, err := s.store.Messages.Search(ctx, integrationOwner, "absent", 10)
	assert.NoError(s.T(), err)
	assert.Empty(s.T(), none)
}

// ==================== Contact Tests ====================

func (s *DatabaseIntegrationTestSuite) TestContacts_UpsertKeyedByOwnerAndEmail() {
	ctx := context.Background()

	contact := fixtures.NewContactBuilder().WithOwner(integrationOwner).
		WithEmail("ada@example.com").WithDisplayName("Ada").BuildValue()
	require.NoError(s.T(), s.store.Contacts.UpsertBatch(ctx, integrationOwner, []models.Contact{contact}))

	// Same address for another owner is a separate row
	other := fixtures.NewContactBuilder().WithOwner("other@example.com").
		WithEmail("ada@example.com").BuildValue()
	require.NoError(s.T(), s.store.Contacts.UpsertBatch(ctx, "other@example.com", []models.Contact{other}))

	// Re-upserting for the first owner enriches in place
	updated := fixtures.NewContactBuilder().WithOwner(integrationOwner).
		WithEmail("ada@example.com").WithDisplayName("Ada Lovelace").
		WithCompany("Analytical Engines", "Engineer").BuildValue()
	require.NoError(s.T(), s.store.Contacts.UpsertBatch(ctx, integrationOwner, []models.Contact{updated}))

	count, err := s.store.Contacts.CountByOwner(ctx, integrationOwner)
	assert.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, count)

	stored, err := s.store.Contacts.GetByEmail(ctx, integrationOwner, "ada@example.com")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "Ada Lovelace", stored.DisplayName)
	assert.Equal(s.T(), "Analytical Engines", stored.Company)
}

func (s *DatabaseIntegrationTestSuite) TestContacts_RefreshStatuses() {
	ctx := context.Background()
	now := time.Now().UTC()

	contacts := []models.Contact{
		fixtures.NewContactBuilder().WithOwner(integrationOwner).WithEmail("fresh@example.com").
			WithStatus(models.StatusLead).WithLastInteractionAt(now.Add(-24 * time.Hour)).BuildValue(),
		fixtures.NewContactBuilder().WithOwner(integrationOwner).WithEmail("warm@example.com").
			WithStatus(models.StatusLead).WithLastInteractionAt(now.Add(-10 * 24 * time.Hour)).BuildValue(),
		fixtures.NewContactBuilder().WithOwner(integrationOwner).WithEmail("cool@example.com").
			WithStatus(models.StatusCustomer).WithLastInteractionAt(now.Add(-40 * 24 * time.Hour)).BuildValue(),
		fixtures.NewContactBuilder().WithOwner(integrationOwner).WithEmail("cold@example.com").
			WithStatus(models.StatusCustomer).WithLastInteractionAt(now.Add(-100 * 24 * time.Hour)).BuildValue(),
		fixtures.NewContactBuilder().WithOwner(integrationOwner).WithEmail("manual@example.com").
			WithStatus(models.StatusProspect).BuildValue(),
	}
	require.NoError(s.T(), s.store.Contacts.UpsertBatch(ctx, integrationOwner, contacts))

	affected, err := s.store.Contacts.RefreshStatuses(ctx, integrationOwner, now)
	assert.NoError(s.T(), err)
	assert.EqualValues(s.T(), 4, affected, "only contacts with a recorded interaction are touched")

	expected := map[string]string{
		"fresh@example.com":  models.StatusCustomer,
		"warm@example.com":   models.StatusProspect,
		"cool@example.com":   models.StatusLead,
		"cold@example.com":   models.StatusInactive,
		"manual@example.com": models.StatusProspect,
	}
	for email, want := range expected {
		stored, err := s.store.Contacts.GetByEmail(ctx, integrationOwner, email)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), want, stored.Status, email)
	}
}

func (s *DatabaseIntegrationTestSuite) TestContacts_GetByEmails() {
	ctx := context.Background()

	require.NoError(s.T(), s.store.Contacts.UpsertBatch(ctx, integrationOwner,
		fixtures.CreateContacts(integrationOwner, 3)))

	known, err := s.store.Contacts.GetByEmails(ctx, integrationOwner,
		[]string{"contact1@example.com", "CONTACT2@EXAMPLE.COM", "missing@example.com"})
	assert.NoError(s.T(), err)
	assert.Len(s.T(), known, 2)
	assert.Contains(s.T(), known, "contact1@example.com")
	assert.Contains(s.T(), known, "contact2@example.com")
	assert.NotContains(s.T(), known, "missing@example.com")
}

func (s *DatabaseIntegrationTestSuite) TestContacts_ListFiltersAndQuery() {
	ctx := context.Background()

	contacts := []models.Contact{
		fixtures.NewContactBuilder().WithOwner(integrationOwner).WithEmail("ada@example.com").
			WithDisplayName("Ada Lovelace").WithStatus(models.StatusCustomer).BuildValue(),
		fixtures.NewContactBuilder().WithOwner(integrationOwner).WithEmail("grace@example.com").
			WithDisplayName("Grace Hopper").WithCompany("Navy Systems", "").
			WithStatus(models.StatusLead).BuildValue(),
	}
	require.NoError(s.T(), s.store.Contacts.UpsertBatch(ctx, integrationOwner, contacts))

	customers, total, err := s.store.Contacts.List(ctx, integrationOwner,
		repository.ContactFilter{Status: models.StatusCustomer, Limit: 10})
	assert.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, total)
	require.Len(s.T(), customers, 1)
	assert.Equal(s.T(), "ada@example.com", customers[0].Email)

	// Company name matches through the free-text query
	byQuery, total, err := s.store.Contacts.List(ctx, integrationOwner,
		repository.ContactFilter{Query: "navy", Limit: 10})
	assert.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, total)
	require.Len(s.T(), byQuery, 1)
	assert.Equal(s.T(), "grace@example.com", byQuery[0].Email)
}

// ==================== Calendar Event Tests ====================

func (s *DatabaseIntegrationTestSuite) TestEvents_ListWindowReturnsOverlapping() {
	ctx := context.Background()
	now := time.Now().UTC()

	events := []models.CalendarEvent{
		fixtures.NewEventBuilder().WithOwner(integrationOwner).WithProviderID("ev-past").
			WithWindow(now.Add(-72*time.Hour), now.Add(-71*time.Hour)).BuildValue(),
		fixtures.NewEventBuilder().WithOwner(integrationOwner).WithProviderID("ev-spanning").
			WithWindow(now.Add(-time.Hour), now.Add(48*time.Hour)).BuildValue(),
		fixtures.NewEventBuilder().WithOwner(integrationOwner).WithProviderID("ev-inside").
			WithWindow(now.Add(2*time.Hour), now.Add(3*time.Hour)).BuildValue(),
		fixtures.NewEventBuilder().WithOwner(integrationOwner).WithProviderID("ev-future").
			WithWindow(now.Add(30*24*time.Hour), now.Add(31*24*time.Hour)).BuildValue(),
	}
	require.NoError(s.T(), s.store.Events.UpsertBatch(ctx, integrationOwner, events))

	window, err := s.store.Events.ListWindow(ctx, integrationOwner, now, now.Add(7*24*time.Hour))
	assert.NoError(s.T(), err)
	require.Len(s.T(), window, 2)
	assert.Equal(s.T(), "ev-spanning", window[0].ProviderEventID)
	assert.Equal(s.T(), "ev-inside", window[1].ProviderEventID)
}

func (s *DatabaseIntegrationTestSuite) TestEvents_UpsertIsIdempotent() {
	ctx := context.Background()
	now := time.Now().UTC()

	event := fixtures.NewEventBuilder().WithOwner(integrationOwner).WithProviderID("ev-1").
		WithSubject("Planning").WithWindow(now, now.Add(time.Hour)).BuildValue()
	require.NoError(s.T(), s.store.Events.UpsertBatch(ctx, integrationOwner, []models.CalendarEvent{event}))

	// Rescheduled upstream
	moved := fixtures.NewEventBuilder().WithOwner(integrationOwner).WithProviderID("ev-1").
		WithSubject("Planning (moved)").WithWindow(now.Add(24*time.Hour), now.Add(25*time.Hour)).BuildValue()
	require.NoError(s.T(), s.store.Events.UpsertBatch(ctx, integrationOwner, []models.CalendarEvent{moved}))

	count, err := s.store.Events.CountByOwner(ctx, integrationOwner)
	assert.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, count)

	window, err := s.store.Events.ListWindow(ctx, integrationOwner, now.Add(23*time.Hour), now.Add(26*time.Hour))
	assert.NoError(s.T(), err)
	require.Len(s.T(), window, 1)
	assert.Equal(s.T(), "Planning (moved)", window[0].Subject)
}

// ==================== Sync State Tests ====================

func (s *DatabaseIntegrationTestSuite) TestSyncState_GetOrCreate() {
	ctx := context.Background()

	state1, created1, err := s.store.SyncState.GetOrCreate(ctx, integrationOwner)
	assert.NoError(s.T(), err)
	assert.True(s.T(), created1)
	assert.NotZero(s.T(), state1.ID)
	assert.True(s.T(), state1.Enabled)

	state2, created2, err := s.store.SyncState.GetOrCreate(ctx, integrationOwner)
	assert.NoError(s.T(), err)
	assert.False(s.T(), created2)
	assert.Equal(s.T(), state1.ID, state2.ID)
}

func (s *DatabaseIntegrationTestSuite) TestSyncState_UpdatePersistsRunOutcome() {
	ctx := context.Background()

	state, _, err := s.store.SyncState.GetOrCreate(ctx, integrationOwner)
	require.NoError(s.T(), err)

	syncedAt := time.Now().UTC().Truncate(time.Second)
	state.LastFullSyncAt = &syncedAt
	state.LastDurationMs = 1250
	state.ConsecutiveFailures = 0
	err = s.store.SyncState.Update(ctx, state)
	assert.NoError(s.T(), err)

	stored, err := s.store.SyncState.Get(ctx, integrationOwner)
	assert.NoError(s.T(), err)
	require.NotNil(s.T(), stored.LastFullSyncAt)
	assert.WithinDuration(s.T(), syncedAt, *stored.LastFullSyncAt, time.Second)
	assert.EqualValues(s.T(), 1250, stored.LastDurationMs)
}
