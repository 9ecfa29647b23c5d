package repository

import (
	"github.com/thib420/AI-Table-sub000/internal/logger"
	"gorm.io/gorm"
)

// Store bundles the repositories behind one construction point. When the
// database connection failed at startup (db == nil) the store runs in
// degraded mode: writes become logged no-ops and reads return empty
// collections, so the rest of the system keeps serving from memory instead
// of crashing.
type Store struct {
	Folders   FolderRepository
	Messages  MessageRepository
	Contacts  ContactRepository
	Events    CalendarEventRepository
	SyncState SyncStateRepository

	degraded bool
}

// NewStore creates a Store over the given database connection. Pass a nil db
// to construct the store in degraded mode.
func NewStore(db *gorm.DB, log *logger.SyncLogger) *Store {
	if db == nil {
		return &Store{
			Folders:   &degradedFolderRepository{log: log},
			Messages:  &degradedMessageRepository{log: log},
			Contacts:  &degradedContactRepository{log: log},
			Events:    &degradedCalendarEventRepository{log: log},
			SyncState: &degradedSyncStateRepository{log: log},
			degraded:  true,
		}
	}

	return &Store{
		Folders:   NewFolderRepository(db),
		Messages:  NewMessageRepository(db),
		Contacts:  NewContactRepository(db),
		Events:    NewCalendarEventRepository(db),
		SyncState: NewSyncStateRepository(db),
	}
}

// Degraded reports whether the store is running without a database
func (s *Store) Degraded() bool {
	return s.degraded
}
