package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thib420/AI-Table-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContactFilter narrows contact listings
type ContactFilter struct {
	Status string
	Query  string
	Limit  int
	Offset int
}

// ContactRepository defines the interface for contact data access
type ContactRepository interface {
	// UpsertBatch inserts or refreshes contacts keyed by (owner, email).
	// Rows carry already-merged field values; the upsert replaces whole rows.
	UpsertBatch(ctx context.Context, owner string, contacts []models.Contact) error

	// GetByEmail retrieves a contact by its normalized email address
	GetByEmail(ctx context.Context, owner, email string) (*models.Contact, error)

	// GetByEmails retrieves the subset of contacts matching the given
	// normalized addresses, keyed by email
	GetByEmails(ctx context.Context, owner string, emails []string) (map[string]models.Contact, error)

	// List retrieves contacts with pagination and optional filters
	List(ctx context.Context, owner string, filter ContactFilter) ([]models.Contact, int64, error)

	// ListSparse returns contacts missing company or position, oldest first,
	// for enrichment
	ListSparse(ctx context.Context, owner string, limit int) ([]models.Contact, error)

	// RefreshStatuses recomputes the lifecycle status of every contact from
	// its last-interaction recency. Returns the number of rows touched.
	RefreshStatuses(ctx context.Context, owner string, now time.Time) (int64, error)

	// CountByOwner returns the number of contacts stored for the owner
	CountByOwner(ctx context.Context, owner string) (int64, error)
}

// contactRepository implements ContactRepository using GORM
type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new ContactRepository instance
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

// UpsertBatch inserts or refreshes contacts by natural key
func (r *contactRepository) UpsertBatch(ctx context.Context, owner string, contacts []models.Contact) error {
	if len(contacts) == 0 {
		return nil
	}

	for i := range contacts {
		contacts[i].OwnerID = owner
		contacts[i].Email = strings.ToLower(contacts[i].Email)
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "phone", "company", "position", "location",
			"status", "last_interaction_at", "tags", "provenance",
			"deal_value", "notes", "enriched", "updated_at",
		}),
	}).CreateInBatches(&contacts, upsertBatchSize)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert contacts: %w", result.Error)
	}
	return nil
}

// GetByEmail retrieves a contact by its normalized email address
func (r *contactRepository) GetByEmail(ctx context.Context, owner, email string) (*models.Contact, error) {
	var contact models.Contact
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND email = ?", owner, strings.ToLower(email)).
		First(&contact)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact by email: %w", result.Error)
	}
	return &contact, nil
}

// GetByEmails retrieves the subset of contacts matching the given addresses
func (r *contactRepository) GetByEmails(ctx context.Context, owner string, emails []string) (map[string]models.Contact, error) {
	if len(emails) == 0 {
		return map[string]models.Contact{}, nil
	}

	lowered := make([]string, len(emails))
	for i, e := range emails {
		lowered[i] = strings.ToLower(e)
	}

	var contacts []models.Contact
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND email IN ?", owner, lowered).
		Find(&contacts)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get contacts by emails: %w", result.Error)
	}

	byEmail := make(map[string]models.Contact, len(contacts))
	for _, c := range contacts {
		byEmail[c.Email] = c
	}
	return byEmail, nil
}

// List retrieves contacts with pagination and optional filters
func (r *contactRepository) List(ctx context.Context, owner string, filter ContactFilter) ([]models.Contact, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Contact{}).Where("owner_id = ?", owner)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where(
			"LOWER(display_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	var contacts []models.Contact
	result := query.Order("updated_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&contacts)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", result.Error)
	}

	return contacts, total, nil
}

// ListSparse returns contacts missing company or position, oldest first
func (r *contactRepository) ListSparse(ctx context.Context, owner string, limit int) ([]models.Contact, error) {
	var contacts []models.Contact
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND enriched = ?", owner, false).
		Where("company = '' OR position = ''").
		Order("updated_at ASC").
		Limit(limit).
		Find(&contacts)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list sparse contacts: %w", result.Error)
	}
	return contacts, nil
}

// RefreshStatuses recomputes lifecycle statuses from interaction recency.
// Contacts without any recorded interaction keep their current status.
func (r *contactRepository) RefreshStatuses(ctx context.Context, owner string, now time.Time) (int64, error) {
	query := `
		UPDATE contacts SET status = CASE
			WHEN last_interaction_at >= ? THEN ?
			WHEN last_interaction_at >= ? THEN ?
			WHEN last_interaction_at >= ? THEN ?
			ELSE ?
		END,
		updated_at = ?
		WHERE owner_id = ? AND last_interaction_at IS NOT NULL
	`

	result := r.db.WithContext(ctx).Exec(query,
		now.Add(-models.CustomerWindow), models.StatusCustomer,
		now.Add(-models.ProspectWindow), models.StatusProspect,
		now.Add(-models.LeadWindow), models.StatusLead,
		models.StatusInactive,
		now,
		owner,
	)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to refresh contact statuses: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CountByOwner returns the number of contacts stored for the owner
func (r *contactRepository) CountByOwner(ctx context.Context, owner string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Contact{}).
		Where("owner_id = ?", owner).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", result.Error)
	}
	return count, nil
}
