package models

import (
	"encoding/json"
	"time"
)

// Message represents one mirrored provider email message
type Message struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	OwnerID           string    `gorm:"not null;size:255;uniqueIndex:idx_messages_owner_provider" json:"owner_id"`
	ProviderMessageID string    `gorm:"not null;size:255;uniqueIndex:idx_messages_owner_provider" json:"provider_message_id"`
	FolderKey         string    `gorm:"not null;size:255;index" json:"folder_key"`
	SenderName        string    `gorm:"size:255" json:"sender_name,omitempty"`
	SenderEmail       string    `gorm:"not null;size:255;index" json:"sender_email"`
	Subject           string    `json:"subject,omitempty"`
	Preview           string    `gorm:"size:255" json:"preview,omitempty"`
	ToAddresses       string    `gorm:"type:text" json:"to_addresses,omitempty"`
	CcAddresses       string    `gorm:"type:text" json:"cc_addresses,omitempty"`
	BccAddresses      string    `gorm:"type:text" json:"bcc_addresses,omitempty"`
	IsRead            bool      `gorm:"default:false" json:"is_read"`
	IsStarred         bool      `gorm:"default:false" json:"is_starred"`
	HasAttachments    bool      `gorm:"default:false" json:"has_attachments"`
	RawPayload        []byte    `json:"-"`
	ReceivedAt        time.Time `gorm:"index" json:"received_at"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// SetRecipients stores the recipient lists as JSON-encoded text columns
func (m *Message) SetRecipients(to, cc, bcc []string) {
	m.ToAddresses = encodeAddressList(to)
	m.CcAddresses = encodeAddressList(cc)
	m.BccAddresses = encodeAddressList(bcc)
}

// RecipientAddresses returns the decoded union of the to/cc/bcc lists
func (m *Message) RecipientAddresses() []string {
	var all []string
	for _, col := range []string{m.ToAddresses, m.CcAddresses, m.BccAddresses} {
		all = append(all, decodeAddressList(col)...)
	}
	return all
}

func encodeAddressList(addrs []string) string {
	if len(addrs) == 0 {
		return ""
	}
	data, err := json.Marshal(addrs)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeAddressList(encoded string) []string {
	if encoded == "" {
		return nil
	}
	var addrs []string
	if err := json.Unmarshal([]byte(encoded), &addrs); err != nil {
		return nil
	}
	return addrs
}
