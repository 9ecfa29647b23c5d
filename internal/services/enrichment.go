package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thib420/AI-Table-sub000/internal/ai"
	apperrors "github.com/thib420/AI-Table-sub000/internal/errors"
	"github.com/thib420/AI-Table-sub000/internal/logger"
	"github.com/thib420/AI-Table-sub000/internal/models"
	"github.com/thib420/AI-Table-sub000/internal/repository"
)

// Enricher fills missing company/position fields on stored contacts through
// the completion client. Per-contact failures are logged and skipped; only an
// unconfigured completer or a store failure stops a pass.
type Enricher struct {
	contacts  repository.ContactRepository
	completer ai.Completer
	log       *logger.SyncLogger
}

// NewEnricher creates an enricher over the given contact repository and
// completion client
func NewEnricher(contacts repository.ContactRepository, completer ai.Completer, log *logger.SyncLogger) *Enricher {
	return &Enricher{
		contacts:  contacts,
		completer: completer,
		log:       log,
	}
}

// enrichmentFields is the strict-JSON reply shape requested from the model
type enrichmentFields struct {
	Company  string `json:"company"`
	Position string `json:"position"`
}

// EnrichContacts selects up to limit contacts missing company or position,
// asks the model for both fields, and persists the ones where something was
// filled. Returns the number of contacts enriched. ErrNotConfigured from the
// completer is returned as-is so callers can skip enrichment silently.
func (e *Enricher) EnrichContacts(ctx context.Context, owner string, limit int) (int, error) {
	sparse, err := e.contacts.ListSparse(ctx, owner, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list sparse contacts: %w", err)
	}
	if len(sparse) == 0 {
		return 0, nil
	}

	enriched := 0
	updates := make([]models.Contact, 0, len(sparse))
	for i := range sparse {
		contact := sparse[i]

		reply, err := e.completer.Complete(ctx, enrichmentPrompt(&contact))
		if err != nil {
			if apperrors.IsNotConfigured(err) {
				return enriched, err
			}
			e.log.Error("enrichment completion failed", "email", contact.Email, "error", err)
			continue
		}

		fields, err := parseEnrichmentReply(reply)
		if err != nil {
			e.log.Error("enrichment reply not parseable", "email", contact.Email, "error", err)
			continue
		}

		changed := false
		if contact.Company == "" && fields.Company != "" {
			contact.Company = fields.Company
			changed = true
		}
		if contact.Position == "" && fields.Position != "" {
			contact.Position = fields.Position
			changed = true
		}
		if !changed {
			continue
		}

		contact.Enriched = true
		updates = append(updates, contact)
		enriched++
	}

	if len(updates) > 0 {
		if err := e.contacts.UpsertBatch(ctx, owner, updates); err != nil {
			return 0, fmt.Errorf("failed to store enriched contacts: %w", err)
		}
	}

	return enriched, nil
}

// enrichmentPrompt builds the completion prompt for one contact
func enrichmentPrompt(contact *models.Contact) string {
	var b strings.Builder
	b.WriteString("Infer the company and job position of this professional contact from the details below.\n\n")
	fmt.Fprintf(&b, "Email: %s\n", contact.Email)
	if contact.DisplayName != "" {
		fmt.Fprintf(&b, "Name: %s\n", contact.DisplayName)
	}
	if contact.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", contact.Company)
	}
	if contact.Position != "" {
		fmt.Fprintf(&b, "Position: %s\n", contact.Position)
	}
	if contact.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", contact.Location)
	}
	b.WriteString("\nRespond with ONLY a JSON object of the form")
	b.WriteString(` {"company": "...", "position": "..."}.`)
	b.WriteString(" Use an empty string for anything you cannot infer. No explanations.")
	return b.String()
}

// parseEnrichmentReply decodes the model reply, tolerating a fenced code
// block around the JSON
func parseEnrichmentReply(reply string) (*enrichmentFields, error) {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var fields enrichmentFields
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode enrichment reply: %w", err)
	}
	fields.Company = strings.TrimSpace(fields.Company)
	fields.Position = strings.TrimSpace(fields.Position)
	return &fields, nil
}
