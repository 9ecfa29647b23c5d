package models

import (
	"time"
)

// SyncState tracks sync bookkeeping for one owner. Exactly one row per owner,
// created lazily on the first engine run and updated at the end of every sync
// attempt, success or failure.
type SyncState struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	OwnerID             string     `gorm:"uniqueIndex;not null;size:255" json:"owner_id"`
	Enabled             bool       `gorm:"default:true" json:"enabled"`
	IntervalSeconds     int        `gorm:"default:300" json:"interval_seconds"`
	LastFullSyncAt      *time.Time `json:"last_full_sync_at,omitempty"`
	LastIncrementalAt   *time.Time `json:"last_incremental_sync_at,omitempty"`
	NextDueAt           *time.Time `json:"next_due_at,omitempty"`
	LastDurationMs      int64      `json:"last_duration_ms"`
	LastError           string     `gorm:"type:text" json:"last_error,omitempty"`
	ConsecutiveFailures int        `gorm:"default:0" json:"consecutive_failures"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for SyncState
func (SyncState) TableName() string {
	return "sync_states"
}

// Watermark returns the most recent successful sync time of either mode.
// Incremental fetches use it as their received-after cutoff.
func (s *SyncState) Watermark() *time.Time {
	switch {
	case s.LastFullSyncAt == nil:
		return s.LastIncrementalAt
	case s.LastIncrementalAt == nil:
		return s.LastFullSyncAt
	case s.LastIncrementalAt.After(*s.LastFullSyncAt):
		return s.LastIncrementalAt
	default:
		return s.LastFullSyncAt
	}
}

// Due reports whether a scheduled sync should run at the given time
func (s *SyncState) Due(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if s.NextDueAt == nil {
		return true
	}
	return !now.Before(*s.NextDueAt)
}

// Interval returns the configured sync interval as a duration
func (s *SyncState) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}
