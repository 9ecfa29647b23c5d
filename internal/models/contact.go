package models

import (
	"encoding/json"
	"sort"
	"time"
)

// Contact lifecycle statuses, recomputed from interaction recency
const (
	StatusLead     = "lead"
	StatusProspect = "prospect"
	StatusCustomer = "customer"
	StatusInactive = "inactive"
)

// Interaction recency windows driving status decay, measured back from the
// evaluation time
const (
	CustomerWindow = 7 * 24 * time.Hour
	ProspectWindow = 30 * 24 * time.Hour
	LeadWindow     = 90 * 24 * time.Hour
)

// Provenance source kinds. EmailDerived marks low-confidence contacts
// harvested from message sender/recipient fields.
const (
	SourceAddressBook  = "address_book"
	SourcePeopleGraph  = "people_graph"
	SourceDirectory    = "directory"
	SourceEmailDerived = "email_derived"
)

// Contact is the canonical merged contact record. Identity is the normalized
// email address per owner; every source record for the same address merges
// into this one row.
type Contact struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	OwnerID           string     `gorm:"not null;size:255;uniqueIndex:idx_contacts_owner_email" json:"owner_id"`
	Email             string     `gorm:"not null;size:255;uniqueIndex:idx_contacts_owner_email" json:"email"`
	DisplayName       string     `gorm:"size:255" json:"display_name,omitempty"`
	Phone             string     `gorm:"size:64" json:"phone,omitempty"`
	Company           string     `gorm:"size:255" json:"company,omitempty"`
	Position          string     `gorm:"size:255" json:"position,omitempty"`
	Location          string     `gorm:"size:255" json:"location,omitempty"`
	Status            string     `gorm:"not null;size:32;default:lead" json:"status"`
	LastInteractionAt *time.Time `json:"last_interaction_at,omitempty"`
	Tags              string     `gorm:"type:text" json:"tags,omitempty"`
	Provenance        string     `gorm:"type:text" json:"provenance,omitempty"`
	DealValue         float64    `gorm:"default:0" json:"deal_value"`
	Notes             string     `gorm:"type:text" json:"notes,omitempty"`
	Enriched          bool       `gorm:"default:false" json:"enriched"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Contact
func (Contact) TableName() string {
	return "contacts"
}

// TagList returns the decoded tag set
func (c *Contact) TagList() []string {
	return decodeStringSet(c.Tags)
}

// SetTagList stores the tag set sorted and deduplicated
func (c *Contact) SetTagList(tags []string) {
	c.Tags = encodeStringSet(tags)
}

// ProvenanceList returns the decoded provenance set
func (c *Contact) ProvenanceList() []string {
	return decodeStringSet(c.Provenance)
}

// SetProvenanceList stores the provenance set sorted and deduplicated
func (c *Contact) SetProvenanceList(sources []string) {
	c.Provenance = encodeStringSet(sources)
}

// HasProvenance reports whether the given source kind produced this contact
func (c *Contact) HasProvenance(kind string) bool {
	for _, s := range c.ProvenanceList() {
		if s == kind {
			return true
		}
	}
	return false
}

// encodeStringSet JSON-encodes a sorted, deduplicated string set. Sets are
// stored canonically so repeated merges stay byte-stable.
func encodeStringSet(values []string) string {
	if len(values) == 0 {
		return ""
	}
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	if len(unique) == 0 {
		return ""
	}
	sort.Strings(unique)
	data, err := json.Marshal(unique)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeStringSet(encoded string) []string {
	if encoded == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(encoded), &values); err != nil {
		return nil
	}
	return values
}
