package models

import (
	"strings"
	"time"
)

// Canonical folder type tags assigned during folder sync
const (
	FolderInbox   = "inbox"
	FolderSent    = "sent"
	FolderDrafts  = "drafts"
	FolderTrash   = "trash"
	FolderArchive = "archive"
	FolderSpam    = "spam"
	FolderCustom  = "custom"
)

// systemFolderLabels maps well-known provider display names to canonical tags.
// Matching is case-insensitive on the trimmed display name.
var systemFolderLabels = map[string]string{
	"inbox":         FolderInbox,
	"sent":          FolderSent,
	"sent items":    FolderSent,
	"sent mail":     FolderSent,
	"drafts":        FolderDrafts,
	"draft":         FolderDrafts,
	"trash":         FolderTrash,
	"deleted items": FolderTrash,
	"bin":           FolderTrash,
	"archive":       FolderArchive,
	"junk":          FolderSpam,
	"junk email":    FolderSpam,
	"spam":          FolderSpam,
}

// Folder mirrors one provider mail folder for an owner
type Folder struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	OwnerID          string    `gorm:"not null;size:255;uniqueIndex:idx_folders_owner_provider" json:"owner_id"`
	ProviderFolderID string    `gorm:"not null;size:255;uniqueIndex:idx_folders_owner_provider" json:"provider_folder_id"`
	DisplayName      string    `gorm:"not null;size:255" json:"display_name"`
	TypeTag          string    `gorm:"not null;size:32;default:custom" json:"type_tag"`
	IsSystem         bool      `gorm:"default:false" json:"is_system"`
	UnreadCount      int       `gorm:"default:0" json:"unread_count"`
	TotalCount       int       `gorm:"default:0" json:"total_count"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Folder
func (Folder) TableName() string {
	return "folders"
}

// ClassifyFolderType maps a provider display name to a canonical type tag.
// Unmatched names fall back to the custom tag.
func ClassifyFolderType(displayName string) string {
	if tag, ok := systemFolderLabels[strings.ToLower(strings.TrimSpace(displayName))]; ok {
		return tag
	}
	return FolderCustom
}

// ClientKey returns the identifier consumers address this folder by. System
// folders use their canonical tag; custom folders carry a namespaced id so
// they can never shadow a system tag.
func (f *Folder) ClientKey() string {
	if f.TypeTag != FolderCustom {
		return f.TypeTag
	}
	return FolderCustom + ":" + f.ProviderFolderID
}

// IsTrash reports whether this folder is the mailbox trash
func (f *Folder) IsTrash() bool {
	return f.TypeTag == FolderTrash
}
