package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/thib420/AI-Table-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FolderRepository defines the interface for folder data access
type FolderRepository interface {
	// UpsertAll inserts or refreshes the given folders keyed by
	// (owner, provider-folder-id). Safe to call repeatedly with
	// overlapping data.
	UpsertAll(ctx context.Context, owner string, folders []models.Folder) error

	// ListByOwner returns all folders for the owner, system folders first
	ListByOwner(ctx context.Context, owner string) ([]models.Folder, error)

	// GetByProviderID retrieves a folder by its provider id
	GetByProviderID(ctx context.Context, owner, providerFolderID string) (*models.Folder, error)

	// FindTrash returns the owner's trash folder, or ErrNotFound when the
	// mailbox has none
	FindTrash(ctx context.Context, owner string) (*models.Folder, error)

	// CountByOwner returns the number of folders stored for the owner
	CountByOwner(ctx context.Context, owner string) (int64, error)
}

// folderRepository implements FolderRepository using GORM
type folderRepository struct {
	db *gorm.DB
}

// NewFolderRepository creates a new FolderRepository instance
func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &folderRepository{db: db}
}

// UpsertAll inserts or refreshes folders by natural key
func (r *folderRepository) UpsertAll(ctx context.Context, owner string, folders []models.Folder) error {
	if len(folders) == 0 {
		return nil
	}

	for i := range folders {
		folders[i].OwnerID = owner
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "provider_folder_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "type_tag", "is_system", "unread_count", "total_count", "updated_at",
		}),
	}).Create(&folders)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert folders: %w", result.Error)
	}
	return nil
}

// ListByOwner returns all folders for the owner
func (r *folderRepository) ListByOwner(ctx context.Context, owner string) ([]models.Folder, error) {
	var folders []models.Folder
	result := r.db.WithContext(ctx).
		Where("owner_id = ?", owner).
		Order("is_system DESC, display_name ASC").
		Find(&folders)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list folders: %w", result.Error)
	}
	return folders, nil
}

// GetByProviderID retrieves a folder by its provider id
func (r *folderRepository) GetByProviderID(ctx context.Context, owner, providerFolderID string) (*models.Folder, error) {
	var folder models.Folder
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND provider_folder_id = ?", owner, providerFolderID).
		First(&folder)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get folder by provider id: %w", result.Error)
	}
	return &folder, nil
}

// FindTrash returns the owner's trash folder
func (r *folderRepository) FindTrash(ctx context.Context, owner string) (*models.Folder, error) {
	var folder models.Folder
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND type_tag = ?", owner, models.FolderTrash).
		First(&folder)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find trash folder: %w", result.Error)
	}
	return &folder, nil
}

// CountByOwner returns the number of folders stored for the owner
func (r *folderRepository) CountByOwner(ctx context.Context, owner string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Folder{}).
		Where("owner_id = ?", owner).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count folders: %w", result.Error)
	}
	return count, nil
}
