package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/thib420/AI-Table-sub000/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CalendarEventRepositoryTestSuite is the test suite for CalendarEventRepository
type CalendarEventRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	repo  CalendarEventRepository
	owner string
}

// SetupSuite runs once before all tests
func (s *CalendarEventRepositoryTestSuite) SetupSuite() {
	// Use in-memory SQLite for testing
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	err = db.AutoMigrate(&models.CalendarEvent{})
	require.NoError(s.T(), err)

	s.db = db
	s.repo = NewCalendarEventRepository(db)
	s.owner = "owner-1"
}

// TearDownSuite runs once after all tests
func (s *CalendarEventRepositoryTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SetupTest runs before each test - clean up data
func (s *CalendarEventRepositoryTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM calendar_events")
}

// TestCalendarEventRepositoryTestSuite runs the test suite
func TestCalendarEventRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(CalendarEventRepositoryTestSuite))
}

func newTestEvent(providerID, subject string, startsAt time.Time, duration time.Duration) models.CalendarEvent {
	return models.CalendarEvent{
		ProviderEventID: providerID,
		Subject:         subject,
		StartsAt:        startsAt,
		EndsAt:          startsAt.Add(duration),
	}
}

// ==================== UpsertBatch Tests ====================

func (s *CalendarEventRepositoryTestSuite) TestUpsertBatch_RepeatCreatesNoDuplicates() {
	// Arrange
	start := time.Now().UTC().Add(24 * time.Hour)
	batch := []models.CalendarEvent{newTestEvent("ev-1", "Demo call", start, time.Hour)}
	err := s.repo.UpsertBatch(context.Background(), s.owner, batch)
	require.NoError(s.T(), err)

	// Act - same event, rescheduled
	moved := newTestEvent("ev-1", "Demo call", start.Add(2*time.Hour), time.Hour)
	err = s.repo.UpsertBatch(context.Background(), s.owner, []models.CalendarEvent{moved})

	// Assert
	assert.NoError(s.T(), err)
	count, err := s.repo.CountByOwner(context.Background(), s.owner)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), count)
}

// ==================== ListWindow Tests ====================

func (s *CalendarEventRepositoryTestSuite) TestListWindow_ReturnsOverlappingEvents() {
	// Arrange - one event inside the window, one before, one spanning the edge
	base := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	err := s.repo.UpsertBatch(context.Background(), s.owner, []models.CalendarEvent{
		newTestEvent("ev-inside", "Inside", base.Add(2*time.Hour), time.Hour),
		newTestEvent("ev-before", "Before", base.Add(-48*time.Hour), time.Hour),
		newTestEvent("ev-spanning", "Spanning", base.Add(-time.Hour), 3*time.Hour),
	})
	require.NoError(s.T(), err)

	// Act - window covering the day
	result, err := s.repo.ListWindow(context.Background(), s.owner, base, base.Add(8*time.Hour))

	// Assert - ordered by start time
	assert.NoError(s.T(), err)
	require.Len(s.T(), result, 2)
	assert.Equal(s.T(), "ev-spanning", result[0].ProviderEventID)
	assert.Equal(s.T(), "ev-inside", result[1].ProviderEventID)
}

func (s *CalendarEventRepositoryTestSuite) TestListWindow_EmptyWindow() {
	// Arrange
	base := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	err := s.repo.UpsertBatch(context.Background(), s.owner, []models.CalendarEvent{
		newTestEvent("ev-1", "Far away", base.Add(30*24*time.Hour), time.Hour),
	})
	require.NoError(s.T(), err)

	// Act
	result, err := s.repo.ListWindow(context.Background(), s.owner, base, base.Add(8*time.Hour))

	// Assert
	assert.NoError(s.T(), err)
	assert.Empty(s.T(), result)
}
