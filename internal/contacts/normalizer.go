// Package contacts normalizes and merges contact observations arriving from
// the provider's independent surfaces: the address book, the people graph,
// the organization directory, and addresses harvested from messages. Every
// observation funnels through one canonical form keyed by normalized email.
package contacts

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/thib420/AI-Table-sub000/internal/errors"
	"github.com/thib420/AI-Table-sub000/internal/models"
	"github.com/thib420/AI-Table-sub000/internal/provider"
	"github.com/thib420/AI-Table-sub000/internal/validator"
)

// SourceRecord is one pre-normalization contact observation from any source
type SourceRecord struct {
	Email           string
	DisplayName     string
	Phone           string
	Company         string
	Position        string
	Location        string
	LastInteraction *time.Time
}

// Normalize converts a source observation into the canonical contact form.
// The email is validated and lowered into the dedup key; provenance is
// seeded with the source kind. Invalid addresses yield ErrValidation.
func Normalize(record SourceRecord, kind string) (models.Contact, error) {
	email, err := validator.NormalizeEmail(record.Email)
	if err != nil {
		return models.Contact{}, fmt.Errorf("invalid contact address %q: %w", record.Email, apperrors.ErrValidation)
	}

	contact := models.Contact{
		Email:             email,
		DisplayName:       strings.TrimSpace(record.DisplayName),
		Phone:             strings.TrimSpace(record.Phone),
		Company:           strings.TrimSpace(record.Company),
		Position:          strings.TrimSpace(record.Position),
		Location:          strings.TrimSpace(record.Location),
		Status:            models.StatusLead,
		LastInteractionAt: record.LastInteraction,
	}
	contact.SetProvenanceList([]string{kind})

	if record.LastInteraction != nil {
		contact.Status = ComputeStatus(*record.LastInteraction, time.Now().UTC())
	}

	return contact, nil
}

// FromAddressBook maps one address-book record to source records, one per
// listed address
func FromAddressBook(record provider.ContactRecord) []SourceRecord {
	records := make([]SourceRecord, 0, len(record.Emails))
	for _, email := range record.Emails {
		records = append(records, SourceRecord{
			Email:       email,
			DisplayName: record.DisplayName,
			Phone:       record.Phone,
			Company:     record.Company,
			Position:    record.Position,
			Location:    record.Location,
		})
	}
	return records
}

// FromPerson maps one people-graph record to a source record
func FromPerson(record provider.PersonRecord) SourceRecord {
	return SourceRecord{
		Email:           record.Email,
		DisplayName:     record.DisplayName,
		Company:         record.Company,
		Position:        record.Position,
		LastInteraction: record.LastContactedAt,
	}
}

// FromDirectory maps one directory user to a source record
func FromDirectory(record provider.DirectoryRecord) SourceRecord {
	return SourceRecord{
		Email:       record.Email,
		DisplayName: record.DisplayName,
		Position:    record.Position,
		Location:    record.Location,
	}
}

// FromAddress maps one harvested message address to a source record. The
// observation time of the address becomes the interaction timestamp.
func FromAddress(addr Address) SourceRecord {
	record := SourceRecord{
		Email:       addr.Email,
		DisplayName: addr.Name,
	}
	if !addr.LastSeenAt.IsZero() {
		seen := addr.LastSeenAt
		record.LastInteraction = &seen
	}
	return record
}
