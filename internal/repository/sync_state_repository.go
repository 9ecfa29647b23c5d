package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/thib420/AI-Table-sub000/internal/models"
	"gorm.io/gorm"
)

// SyncStateRepository defines the interface for sync bookkeeping access
type SyncStateRepository interface {
	// GetOrCreate retrieves the owner's sync state, creating the row lazily
	// on first use. Returns the state and whether it was created.
	GetOrCreate(ctx context.Context, owner string) (*models.SyncState, bool, error)

	// Get retrieves the owner's sync state
	Get(ctx context.Context, owner string) (*models.SyncState, error)

	// Update persists the given sync state
	Update(ctx context.Context, state *models.SyncState) error
}

// syncStateRepository implements SyncStateRepository using GORM
type syncStateRepository struct {
	db *gorm.DB
}

// NewSyncStateRepository creates a new SyncStateRepository instance
func NewSyncStateRepository(db *gorm.DB) SyncStateRepository {
	return &syncStateRepository{db: db}
}

// Get retrieves the owner's sync state
func (r *syncStateRepository) Get(ctx context.Context, owner string) (*models.SyncState, error) {
	var state models.SyncState
	result := r.db.WithContext(ctx).Where("owner_id = ?", owner).First(&state)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sync state: %w", result.Error)
	}
	return &state, nil
}

// GetOrCreate retrieves the owner's sync state or creates it lazily.
// Returns the state, a boolean indicating if it was created, and any error.
func (r *syncStateRepository) GetOrCreate(ctx context.Context, owner string) (*models.SyncState, bool, error) {
	// Try to find existing state
	state, err := r.Get(ctx, owner)
	if err == nil {
		return state, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	// Create new state with defaults
	state = &models.SyncState{
		OwnerID: owner,
		Enabled: true,
	}

	result := r.db.WithContext(ctx).Create(state)
	if result.Error != nil {
		// Handle race condition - a concurrent caller might have created it
		if isDuplicateKeyError(result.Error) {
			state, err = r.Get(ctx, owner)
			if err != nil {
				return nil, false, err
			}
			return state, false, nil
		}
		return nil, false, fmt.Errorf("failed to create sync state: %w", result.Error)
	}

	return state, true, nil
}

// Update persists the given sync state
func (r *syncStateRepository) Update(ctx context.Context, state *models.SyncState) error {
	result := r.db.WithContext(ctx).Save(state)
	if result.Error != nil {
		return fmt.Errorf("failed to update sync state: %w", result.Error)
	}
	return nil
}
