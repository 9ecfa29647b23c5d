package models

import (
	"time"
)

// CalendarEvent mirrors one provider calendar event for an owner. Events are
// read-only on this side; there is no local mutation path.
type CalendarEvent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OwnerID         string    `gorm:"not null;size:255;uniqueIndex:idx_events_owner_provider" json:"owner_id"`
	ProviderEventID string    `gorm:"not null;size:255;uniqueIndex:idx_events_owner_provider" json:"provider_event_id"`
	Subject         string    `gorm:"size:255" json:"subject,omitempty"`
	Location        string    `gorm:"size:255" json:"location,omitempty"`
	Organizer       string    `gorm:"size:255" json:"organizer,omitempty"`
	StartsAt        time.Time `gorm:"index" json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	IsAllDay        bool      `gorm:"default:false" json:"is_all_day"`
	AttendeeCount   int       `gorm:"default:0" json:"attendee_count"`
	RawPayload      []byte    `json:"-"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for CalendarEvent
func (CalendarEvent) TableName() string {
	return "calendar_events"
}
