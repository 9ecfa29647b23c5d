package provider

import "time"

// EmailAddress is a name/address pair as it appears on a message envelope
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// FolderRecord is one mail folder as returned by the provider
type FolderRecord struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	UnreadCount int    `json:"unreadItemCount"`
	TotalCount  int    `json:"totalItemCount"`
}

// MessageRecord is one message as returned by the provider. MimeContent is
// optional raw MIME; when the provider omits the parsed header fields the
// normalizer falls back to it.
type MessageRecord struct {
	ID             string         `json:"id"`
	Subject        string         `json:"subject"`
	Preview        string         `json:"preview,omitempty"`
	From           EmailAddress   `json:"from"`
	To             []EmailAddress `json:"to,omitempty"`
	Cc             []EmailAddress `json:"cc,omitempty"`
	Bcc            []EmailAddress `json:"bcc,omitempty"`
	IsRead         bool           `json:"isRead"`
	IsStarred      bool           `json:"isStarred"`
	HasAttachments bool           `json:"hasAttachments"`
	ReceivedAt     time.Time      `json:"receivedAt"`
	MimeContent    []byte         `json:"mimeContent,omitempty"`
}

// ContactRecord is one address-book contact as returned by the provider
type ContactRecord struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Emails      []string `json:"emails"`
	Phone       string   `json:"phone,omitempty"`
	Company     string   `json:"company,omitempty"`
	Position    string   `json:"position,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// PersonRecord is one relevance-ranked person from the provider's people
// graph
type PersonRecord struct {
	ID              string     `json:"id"`
	DisplayName     string     `json:"displayName"`
	Email           string     `json:"email"`
	Company         string     `json:"company,omitempty"`
	Position        string     `json:"position,omitempty"`
	Relevance       float64    `json:"relevanceScore,omitempty"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`
}

// DirectoryRecord is one user from the organization directory
type DirectoryRecord struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Position    string `json:"position,omitempty"`
	Department  string `json:"department,omitempty"`
	Location    string `json:"officeLocation,omitempty"`
}

// EventRecord is one calendar event as returned by the provider
type EventRecord struct {
	ID            string    `json:"id"`
	Subject       string    `json:"subject"`
	Location      string    `json:"location,omitempty"`
	Organizer     string    `json:"organizer,omitempty"`
	StartsAt      time.Time `json:"startsAt"`
	EndsAt        time.Time `json:"endsAt"`
	IsAllDay      bool      `json:"isAllDay"`
	AttendeeCount int       `json:"attendeeCount"`
}

// MessageQuery narrows a folder's message listing. A zero ReceivedAfter
// fetches from the beginning; a non-zero one drives incremental sync.
type MessageQuery struct {
	Limit         int
	ReceivedAfter time.Time
}

// EventWindow bounds a calendar listing to [From, To)
type EventWindow struct {
	From time.Time
	To   time.Time
}

// MessagePatch carries the remotely mutable message flags. Nil fields are
// left untouched.
type MessagePatch struct {
	IsRead    *bool `json:"isRead,omitempty"`
	IsStarred *bool `json:"isStarred,omitempty"`
}

// NewContact is the payload for creating a contact remotely
type NewContact struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	Company     string `json:"company,omitempty"`
}
