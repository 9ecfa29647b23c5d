package fixtures

import (
	"fmt"
	"time"

	"github.com/thib420/AI-Table-sub000/internal/models"
)

// FolderBuilder creates test Folder instances with fluent API
type FolderBuilder struct {
	folder models.Folder
}

// NewFolderBuilder creates a new FolderBuilder with sensible defaults
func NewFolderBuilder() *FolderBuilder {
	now := time.Now().UTC()
	return &FolderBuilder{
		folder: models.Folder{
			ID:               1,
			OwnerID:          "owner@example.com",
			ProviderFolderID: "folder-1",
			DisplayName:      "Inbox",
			TypeTag:          models.FolderInbox,
			IsSystem:         true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}
}

// WithID sets the folder ID
func (b *FolderBuilder) WithID(id uint) *FolderBuilder {
	b.folder.ID = id
	return b
}

// WithOwner sets the owning account
func (b *FolderBuilder) WithOwner(owner string) *FolderBuilder {
	b.folder.OwnerID = owner
	return b
}

// WithProviderID sets the provider folder id
func (b *FolderBuilder) WithProviderID(id string) *FolderBuilder {
	b.folder.ProviderFolderID = id
	return b
}

// WithDisplayName sets the display name
func (b *FolderBuilder) WithDisplayName(name string) *FolderBuilder {
	b.folder.DisplayName = name
	return b
}

// WithTypeTag sets the folder classification
func (b *FolderBuilder) WithTypeTag(tag string) *FolderBuilder {
	b.folder.TypeTag = tag
	b.folder.IsSystem = tag != models.FolderCustom
	return b
}

// WithCounts sets the unread and total counters
func (b *FolderBuilder) WithCounts(unread, total int) *FolderBuilder {
	b.folder.UnreadCount = unread
	b.folder.TotalCount = total
	return b
}

// Build returns the constructed Folder
func (b *FolderBuilder) Build() *models.Folder {
	return &b.folder
}

// BuildValue returns the constructed Folder as a value (not pointer)
func (b *FolderBuilder) BuildValue() models.Folder {
	return b.folder
}

// MessageBuilder creates test Message instances with fluent API
type MessageBuilder struct {
	message models.Message
}

// NewMessageBuilder creates a new MessageBuilder with sensible defaults
func NewMessageBuilder() *MessageBuilder {
	now := time.Now().UTC()
	return &MessageBuilder{
		message: models.Message{
			ID:                1,
			OwnerID:           "owner@example.com",
			ProviderMessageID: "msg-1",
			FolderKey:         "folder-1",
			SenderName:        "Test Sender",
			SenderEmail:       "sender@example.com",
			Subject:           "Test Subject",
			Preview:           "Test preview text",
			ReceivedAt:        now.Add(-time.Hour),
			CreatedAt:         now,
			UpdatedAt:         now,
		},
	}
}

// WithID sets the message ID
func (b *MessageBuilder) WithID(id uint) *MessageBuilder {
	b.message.ID = id
	return b
}

// WithOwner sets the owning account
func (b *MessageBuilder) WithOwner(owner string) *MessageBuilder {
	b.message.OwnerID = owner
	return b
}

// WithProviderID sets the provider message id
func (b *MessageBuilder) WithProviderID(id string) *MessageBuilder {
	b.message.ProviderMessageID = id
	return b
}

// WithFolderKey sets the containing folder key
func (b *MessageBuilder) WithFolderKey(key string) *MessageBuilder {
	b.message.FolderKey = key
	return b
}

// WithSender sets the sender email and display name
func (b *MessageBuilder) WithSender(email, name string) *MessageBuilder {
	b.message.SenderEmail = email
	b.message.SenderName = name
	return b
}

// WithSubject sets the subject line
func (b *MessageBuilder) WithSubject(subject string) *MessageBuilder {
	b.message.Subject = subject
	return b
}

// WithPreview sets the preview text
func (b *MessageBuilder) WithPreview(preview string) *MessageBuilder {
	b.message.Preview = preview
	return b
}

// WithRecipients sets the to/cc/bcc address lists
func (b *MessageBuilder) WithRecipients(to, cc, bcc []string) *MessageBuilder {
	b.message.SetRecipients(to, cc, bcc)
	return b
}

// WithRead sets the read flag
func (b *MessageBuilder) WithRead(isRead bool) *MessageBuilder {
	b.message.IsRead = isRead
	return b
}

// WithStarred sets the starred flag
func (b *MessageBuilder) WithStarred(isStarred bool) *MessageBuilder {
	b.message.IsStarred = isStarred
	return b
}

// WithReceivedAt sets the received timestamp
func (b *MessageBuilder) WithReceivedAt(t time.Time) *MessageBuilder {
	b.message.ReceivedAt = t
	return b
}

// Build returns the constructed Message
func (b *MessageBuilder) Build() *models.Message {
	return &b.message
}

// BuildValue returns the constructed Message as a value (not pointer)
func (b *MessageBuilder) BuildValue() models.Message {
	return b.message
}

// ContactBuilder creates test Contact instances with fluent API
type ContactBuilder struct {
	contact models.Contact
}

// NewContactBuilder creates a new ContactBuilder with sensible defaults
func NewContactBuilder() *ContactBuilder {
	now := time.Now().UTC()
	return &ContactBuilder{
		contact: models.Contact{
			ID:          1,
			OwnerID:     "owner@example.com",
			Email:       "contact@example.com",
			DisplayName: "Test Contact",
			Status:      models.StatusLead,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// WithID sets the contact ID
func (b *ContactBuilder) WithID(id uint) *ContactBuilder {
	b.contact.ID = id
	return b
}

// WithOwner sets the owning account
func (b *ContactBuilder) WithOwner(owner string) *ContactBuilder {
	b.contact.OwnerID = owner
	return b
}

// WithEmail sets the contact email
func (b *ContactBuilder) WithEmail(email string) *ContactBuilder {
	b.contact.Email = email
	return b
}

// WithDisplayName sets the display name
func (b *ContactBuilder) WithDisplayName(name string) *ContactBuilder {
	b.contact.DisplayName = name
	return b
}

// WithCompany sets the company and position
func (b *ContactBuilder) WithCompany(company, position string) *ContactBuilder {
	b.contact.Company = company
	b.contact.Position = position
	return b
}

// WithStatus sets the lifecycle status
func (b *ContactBuilder) WithStatus(status string) *ContactBuilder {
	b.contact.Status = status
	return b
}

// WithLastInteractionAt sets the last interaction timestamp
func (b *ContactBuilder) WithLastInteractionAt(t time.Time) *ContactBuilder {
	b.contact.LastInteractionAt = &t
	return b
}

// WithEnriched sets the enriched flag
func (b *ContactBuilder) WithEnriched(enriched bool) *ContactBuilder {
	b.contact.Enriched = enriched
	return b
}

// Build returns the constructed Contact
func (b *ContactBuilder) Build() *models.Contact {
	return &b.contact
}

// BuildValue returns the constructed Contact as a value (not pointer)
func (b *ContactBuilder) BuildValue() models.Contact {
	return b.contact
}

// EventBuilder creates test CalendarEvent instances with fluent API
type EventBuilder struct {
	event models.CalendarEvent
}

// NewEventBuilder creates a new EventBuilder with sensible defaults
func NewEventBuilder() *EventBuilder {
	now := time.Now().UTC()
	return &EventBuilder{
		event: models.CalendarEvent{
			ID:              1,
			OwnerID:         "owner@example.com",
			ProviderEventID: "event-1",
			Subject:         "Test Meeting",
			StartsAt:        now.Add(24 * time.Hour),
			EndsAt:          now.Add(25 * time.Hour),
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}
}

// WithOwner sets the owning account
func (b *EventBuilder) WithOwner(owner string) *EventBuilder {
	b.event.OwnerID = owner
	return b
}

// WithProviderID sets the provider event id
func (b *EventBuilder) WithProviderID(id string) *EventBuilder {
	b.event.ProviderEventID = id
	return b
}

// WithSubject sets the subject
func (b *EventBuilder) WithSubject(subject string) *EventBuilder {
	b.event.Subject = subject
	return b
}

// WithWindow sets the start and end times
func (b *EventBuilder) WithWindow(start, end time.Time) *EventBuilder {
	b.event.StartsAt = start
	b.event.EndsAt = end
	return b
}

// WithAllDay marks the event as all-day
func (b *EventBuilder) WithAllDay() *EventBuilder {
	b.event.IsAllDay = true
	return b
}

// Build returns the constructed CalendarEvent
func (b *EventBuilder) Build() *models.CalendarEvent {
	return &b.event
}

// BuildValue returns the constructed CalendarEvent as a value (not pointer)
func (b *EventBuilder) BuildValue() models.CalendarEvent {
	return b.event
}

// CreateFolders generates a list of test folders for bulk operations
func CreateFolders(owner string, count int) []models.Folder {
	folders := make([]models.Folder, count)
	for i := 0; i < count; i++ {
		folders[i] = NewFolderBuilder().
			WithID(uint(i + 1)).
			WithOwner(owner).
			WithProviderID(fmt.Sprintf("folder-%d", i+1)).
			WithDisplayName(fmt.Sprintf("Folder %d", i+1)).
			WithTypeTag(models.FolderCustom).
			BuildValue()
	}
	return folders
}

// CreateMessages generates a list of test messages in the given folder
func CreateMessages(owner, folderKey string, count int) []models.Message {
	now := time.Now().UTC()
	messages := make([]models.Message, count)
	for i := 0; i < count; i++ {
		messages[i] = NewMessageBuilder().
			WithID(uint(i + 1)).
			WithOwner(owner).
			WithProviderID(fmt.Sprintf("msg-%d", i+1)).
			WithFolderKey(folderKey).
			WithSender(fmt.Sprintf("sender%d@example.com", i+1), fmt.Sprintf("Sender %d", i+1)).
			WithSubject(fmt.Sprintf("Message %d", i+1)).
			WithReceivedAt(now.Add(-time.Duration(i) * time.Hour)).
			BuildValue()
	}
	return messages
}

// CreateContacts generates a list of test contacts for bulk operations
func CreateContacts(owner string, count int) []models.Contact {
	contacts := make([]models.Contact, count)
	for i := 0; i < count; i++ {
		contacts[i] = NewContactBuilder().
			WithID(uint(i + 1)).
			WithOwner(owner).
			WithEmail(fmt.Sprintf("contact%d@example.com", i+1)).
			WithDisplayName(fmt.Sprintf("Contact %d", i+1)).
			BuildValue()
	}
	return contacts
}
