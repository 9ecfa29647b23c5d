package contacts

import (
	"time"

	"github.com/thib420/AI-Table-sub000/internal/models"
)

// Merge folds an incoming observation into an existing contact for the same
// normalized address. Set-valued fields union, deal value keeps the maximum,
// scalar fields keep the first non-empty value, and the interaction timestamp
// keeps the most recent observation. Status is always recomputed from the
// merged timestamp, never copied across.
func Merge(existing, incoming models.Contact) models.Contact {
	merged := existing

	merged.SetTagList(append(existing.TagList(), incoming.TagList()...))
	merged.SetProvenanceList(append(existing.ProvenanceList(), incoming.ProvenanceList()...))

	if incoming.DealValue > merged.DealValue {
		merged.DealValue = incoming.DealValue
	}

	merged.DisplayName = firstNonEmpty(existing.DisplayName, incoming.DisplayName)
	merged.Phone = firstNonEmpty(existing.Phone, incoming.Phone)
	merged.Company = firstNonEmpty(existing.Company, incoming.Company)
	merged.Position = firstNonEmpty(existing.Position, incoming.Position)
	merged.Location = firstNonEmpty(existing.Location, incoming.Location)
	merged.Notes = firstNonEmpty(existing.Notes, incoming.Notes)

	merged.LastInteractionAt = mostRecent(existing.LastInteractionAt, incoming.LastInteractionAt)
	merged.Enriched = existing.Enriched || incoming.Enriched

	if merged.LastInteractionAt != nil {
		merged.Status = ComputeStatus(*merged.LastInteractionAt, time.Now().UTC())
	} else {
		merged.Status = firstNonEmpty(existing.Status, models.StatusLead)
	}

	return merged
}

// ComputeStatus derives the lifecycle status from the last interaction time.
// Recent interactions keep a contact hot; long silence decays it to inactive.
func ComputeStatus(lastInteraction, now time.Time) string {
	age := now.Sub(lastInteraction)
	switch {
	case age <= models.CustomerWindow:
		return models.StatusCustomer
	case age <= models.ProspectWindow:
		return models.StatusProspect
	case age <= models.LeadWindow:
		return models.StatusLead
	default:
		return models.StatusInactive
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func mostRecent(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}
