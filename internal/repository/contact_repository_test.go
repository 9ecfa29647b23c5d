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

// ContactRepositoryTestSuite is the test suite for ContactRepository
type ContactRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	repo  ContactRepository
	owner string
}

// SetupSuite runs once before all tests
func (s *ContactRepositoryTestSuite) SetupSuite() {
	// Use in-memory SQLite for testing
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	err = db.AutoMigrate(&models.Contact{})
	require.NoError(s.T(), err)

	s.db = db
	s.repo = NewContactRepository(db)
	s.owner = "owner-1"
}

// TearDownSuite runs once after all tests
func (s *ContactRepositoryTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SetupTest runs before each test - clean up data
func (s *ContactRepositoryTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM contacts")
}

// TestContactRepositoryTestSuite runs the test suite
func TestContactRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(ContactRepositoryTestSuite))
}

func newTestContact(email, displayName string) models.Contact {
	return models.Contact{
		Email:       email,
		DisplayName: displayName,
		Status:      models.StatusLead,
	}
}

// ==================== UpsertBatch Tests ====================

func (s *ContactRepositoryTestSuite) TestUpsertBatch_CreatesContacts() {
	// Arrange
	batch := []models.Contact{
		newTestContact("ada@example.com", "Ada Lovelace"),
		newTestContact("grace@example.com", "Grace Hopper"),
	}

	// Act
	err := s.repo.UpsertBatch(context.Background(), s.owner, batch)

	// Assert
	assert.NoError(s.T(), err)
	count, err := s.repo.CountByOwner(context.Background(), s.owner)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), count)
}

func (s *ContactRepositoryTestSuite) TestUpsertBatch_MixedCaseAddressesShareOneRow() {
	// Arrange - same person reported with different address casing
	err := s.repo.UpsertBatch(context.Background(), s.owner, []models.Contact{
		newTestContact("a@x.com", "A"),
	})
	require.NoError(s.T(), err)

	// Act
	merged := newTestContact("A@X.COM", "A")
	merged.Company = "Acme"
	err = s.repo.UpsertBatch(context.Background(), s.owner, []models.Contact{merged})

	// Assert - one row, refreshed with the merged fields
	assert.NoError(s.T(), err)
	count, err := s.repo.CountByOwner(context.Background(), s.owner)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), count)

	contact, err := s.repo.GetByEmail(context.Background(), s.owner, "a@x.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "a@x.com", contact.Email)
	assert.Equal(s.T(), "Acme", contact.Company)
}

func (s *ContactRepositoryTestSuite) TestUpsertBatch_RefreshesMergedFields() {
	// Arrange
	first := newTestContact("ada@example.com", "Ada Lovelace")
	first.SetProvenanceList([]string{models.SourceEmailDerived})
	err := s.repo.UpsertBatch(context.Background(), s.owner, []models.Contact{first})
	require.NoError(s.T(), err)

	// Act - the merge layer produced a richer row for the same address
	lastSeen := time.Now().UTC().Add(-24 * time.Hour)
	richer := newTestContact("ada@example.com", "Ada Lovelace")
	richer.Company = "Analytical Engines Ltd"
	richer.Position = "Chief Mathematician"
	richer.DealValue = 12000
	richer.LastInteractionAt = &lastSeen
	richer.SetProvenanceList([]string{models.SourceAddressBook, models.SourceEmailDerived})
	err = s.repo.UpsertBatch(context.Background(), s.owner, []models.Contact{richer})

	// Assert
	assert.NoError(s.T(), err)
	contact, err := s.repo.GetByEmail(context.Background(), s.owner, "ada@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Analytical Engines Ltd", contact.Company)
	assert.Equal(s.T(), float64(12000), contact.DealValue)
	assert.NotNil(s.T(), contact.LastInteractionAt)
	assert.ElementsMatch(s.T(),
		[]string{models.SourceAddressBook, models.SourceEmailDerived},
		contact.ProvenanceList(),
	)
}

func (s *ContactRepositoryTestSuite) TestUpsertBatch_EmptyIsNoOp() {
	// Act
	err := s.repo.UpsertBatch(context.Background(), s.owner, nil)

	// Assert
	assert.NoError(s.T(), err)
}

// ==================== GetByEmail Tests ====================

func (s *ContactRepositoryTestSuite) TestGetByEmail_CaseInsensitiveLookup() {
	// Arrange
	err := s.repo.UpsertBatch(context.Background(), s.owner, []models.Contact{
		newTestContact("ada@example.com", "Ada Lovelace"),
	})
	require.NoError(s.T(), err)

	// Act
	contact, err := s.repo.GetByEmail(context.Background(), s.owner, "ADA@Example.COM")

	// Assert
	assert.NoError(s.T(), err)
	require.NotNil(s.T(), contact)
	assert.Equal(s.T(), "Ada Lovelace", contact.DisplayName)
}

func (s *ContactRepositoryTestSuite) TestGetByEmail_NotFound() {
	// Act
	contact, err := s.repo.GetByEmail(context.Background(), s.owner, "missing@example.com")

	// Assert
	assert.Error(s.T(), err)
	assert.ErrorIs(s.T(), err, ErrNotFound)
	assert.Nil(s.T(), contact)
}

// ==================== GetByEmails Tests ====================

func (s *ContactRepositoryTestSuite) TestGetByEmails_ReturnsMatchingSubset() {
	// Arrange
	err := s.repo.UpsertBatch(context.Background(), s.owner, []models.Contact{
		newTestContact("ada@example.com", "Ada Lovelace"),
		newTestContact("grace@example.com", "Grace Hopper"),
	})
	require.NoError(s.T(), err)

	// Act
	result, err := s.repo.GetByEmails(context.Background(), s.owner,
		[]string{"ADA@example.com", "unknown@example.com"})

	// Assert
	assert.NoError(s.T(), err)
	require.Len(s.T(), result, 1)
	assert.Contains(s.T(), result, "ada@example.com")
}

func (s *ContactRepositoryTestSuite) TestGetByEmails_EmptyInput() {
	// Act
	result, err := s.repo.GetByEmails(context.Background(), s.owner, nil)

	// Assert
	assert.NoError(s.T(), err)
	assert.Empty(s.T(), result)
}

// ==================== List Tests ====================

func (s *ContactRepositoryTestSuite) TestList_FiltersByStatus() {
	// Arrange
	customer := newTestContact("ada@example.com", "Ada Lovelace")
	customer.Status = models.StatusCustomer
	err := s.repo.UpsertBatch(context.Background(), s.owner, []models.Contact{
		customer,
		newTestContact("grace@example.com", "Grace Hopper"),
	})
	require.NoError(s.T(), err)

	// Act
	result, total, err := s.repo.List(context.Background(), s.owner,
		ContactFilter{Status: models.StatusCustomer, Limit: 10})

	// Assert
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)
	require.Len(s.T(), result, 1)
	assert.Equal(s.T(), "ada@example.com", result[0].Email)
}

func (s *ContactRepositoryTestSuite) TestList_SearchesNameEmailCompany() {
	// Arrange
	atAcme := newTestContact("ada@example.com", "Ada Lovelace")
	atAcme.Company = "Acme Corp"
	err := s.repo.UpsertBatch(context.Background(), s.owner, []models.Contact{
		atAcme,
		newTestContact("grace@example.com", "Grace Hopper"),
	})
	require.NoError(s.T(), err)

	// Act
	result, total, err := s.repo.List(context.Background(), s.owner,
		ContactFilter{Query: "ACME", Limit: 10})

	// Assert
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)
	require.Len(s.T(), result, 1)
	assert.Equal(s.T(), "Acme Corp", result[0].Company)
}

func (s *ContactRepositoryTestSuite) TestList_WithPagination() {
	// Arrange
	batch := []models.Contact{
		newTestContact("a@example.com", "A"),
		newTestContact("b@example.com", "B"),
		newTestContact("c@example.com", "C"),
	}
	err := s.repo.UpsertBatch(context.Background(), s.owner, batch)
	require.NoError(s.T(), err)

	// Act
	page, total, err := s.repo.List(context.Background(), s.owner, ContactFilter{Limit: 2})

	// Assert
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(3), total)
	assert.Len(s.T(), page, 2)
}

// ==================== ListSparse Tests ====================

func (s *ContactRepositoryTestSuite) TestListSparse_ReturnsContactsMissingFields() {
	// Arrange
	complete := newTestContact("ada@example.com", "Ada Lovelace")
	complete.Company = "Analytical Engines Ltd"
	complete.Position = "Chief Mathematician"
	sparse := newTestContact("grace@example.com", "Grace Hopper")
	enrichedSparse := newTestContact("alan@example.com", "Alan Turing")
	enrichedSparse.Enriched = true
	err := s.repo.UpsertBatch(context.Background(), s.owner, []models.Contact{
		complete, sparse, enrichedSparse,
	})
	require.NoError(s.T(), err)

	// Act
	result, err := s.repo.ListSparse(context.Background(), s.owner, 10)

	// Assert - only the un-enriched contact with missing fields
	assert.NoError(s.T(), err)
	require.Len(s.T(), result, 1)
	assert.Equal(s.T(), "grace@example.com", result[0].Email)
}

// ==================== RefreshStatuses Tests ====================

func (s *ContactRepositoryTestSuite) TestRefreshStatuses_DecaysByRecency() {
	// Arrange - interactions at 3, 10, 45, and 95 days ago
	now := time.Now().UTC()
	recent := now.Add(-3 * 24 * time.Hour)
	lastWeek := now.Add(-10 * 24 * time.Hour)
	lastQuarter := now.Add(-45 * 24 * time.Hour)
	longAgo := now.Add(-95 * 24 * time.Hour)

	contacts := []models.Contact{
		newTestContact("recent@example.com", "Recent"),
		newTestContact("lastweek@example.com", "Last Week"),
		newTestContact("quarter@example.com", "Last Quarter"),
		newTestContact("longago@example.com", "Long Ago"),
	}
	contacts[0].LastInteractionAt = &recent
	contacts[1].LastInteractionAt = &lastWeek
	contacts[2].LastInteractionAt = &lastQuarter
	contacts[3].LastInteractionAt = &longAgo
	err := s.repo.UpsertBatch(context.Background(), s.owner, contacts)
	require.NoError(s.T(), err)

	// Act
	touched, err := s.repo.RefreshStatuses(context.Background(), s.owner, now)

	// Assert
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(4), touched)

	expected := map[string]string{
		"recent@example.com":   models.StatusCustomer,
		"lastweek@example.com": models.StatusProspect,
		"quarter@example.com":  models.StatusLead,
		"longago@example.com":  models.StatusInactive,
	}
	for email, want := range expected {
		contact, err := s.repo.GetByEmail(context.Background(), s.owner, email)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), want, contact.Status, "status for %s", email)
	}
}

func (s *ContactRepositoryTestSuite) TestRefreshStatuses_SkipsContactsWithoutInteractions() {
	// Arrange - never-contacted lead
	err := s.repo.UpsertBatch(context.Background(), s.owner, []models.Contact{
		newTestContact("quiet@example.com", "Quiet"),
	})
	require.NoError(s.T(), err)

	// Act
	touched, err := s.repo.RefreshStatuses(context.Background(), s.owner, time.Now().UTC())

	// Assert - untouched, keeps its default status
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(0), touched)
	contact, err := s.repo.GetByEmail(context.Background(), s.owner, "quiet@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusLead, contact.Status)
}

func (s *ContactRepositoryTestSuite) TestRefreshStatuses_IsolatesOwners() {
	// Arrange
	longAgo := time.Now().UTC().Add(-120 * 24 * time.Hour)
	other := newTestContact("other@example.com", "Other")
	other.LastInteractionAt = &longAgo
	err := s.repo.UpsertBatch(context.Background(), "owner-2", []models.Contact{other})
	require.NoError(s.T(), err)

	// Act - refresh for owner-1 only
	touched, err := s.repo.RefreshStatuses(context.Background(), s.owner, time.Now().UTC())

	// Assert
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(0), touched)
	contact, err := s.repo.GetByEmail(context.Background(), "owner-2", "other@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusLead, contact.Status)
}
