package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thib420/AI-Table-sub000/internal/contacts"
	apperrors "github.com/thib420/AI-Table-sub000/internal/errors"
	"github.com/thib420/AI-Table-sub000/internal/logger"
	"github.com/thib420/AI-Table-sub000/internal/models"
	"github.com/thib420/AI-Table-sub000/internal/provider"
	"github.com/thib420/AI-Table-sub000/internal/retry"
)

// Defaults for contact propagation
const (
	DefaultContactBatchSize  = 10
	DefaultContactBatchDelay = time.Second
)

// PropagatorConfig holds configuration for contact propagation
type PropagatorConfig struct {
	// BatchSize is how many addresses are processed between delays
	BatchSize int
	// BatchDelay is the pause between batches, spreading provider load
	BatchDelay time.Duration
	// Retry is the backoff policy applied per address on throttled calls
	Retry retry.Policy
}

// PropagationResult carries the counts of one propagation run. When the
// provider keeps throttling past the retry budget the run stops early and
// Aborted is set; the counts then cover only the processed prefix.
type PropagationResult struct {
	Created  int  `json:"created"`
	Existing int  `json:"existing"`
	Failed   int  `json:"failed"`
	Aborted  bool `json:"aborted"`
}

// ContactPropagator pushes message-derived addresses back into the provider's
// address book so they exist on the remote side too. Addresses are checked
// for existence first; only unknown ones are created.
type ContactPropagator struct {
	client    provider.Client
	exclusion *contacts.ExclusionPolicy
	config    PropagatorConfig
	log       *logger.SyncLogger
}

// NewContactPropagator creates a propagator over the given provider client
func NewContactPropagator(
	client provider.Client,
	exclusion *contacts.ExclusionPolicy,
	config PropagatorConfig,
	log *logger.SyncLogger,
) *ContactPropagator {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultContactBatchSize
	}
	if config.BatchDelay <= 0 {
		config.BatchDelay = DefaultContactBatchDelay
	}

	return &ContactPropagator{
		client:    client,
		exclusion: exclusion,
		config:    config,
		log:       log,
	}
}

// PropagateContacts extracts the unique valid addresses from the given
// messages, filters them through the exclusion policy, and ensures each one
// exists in the provider's address book. Work proceeds in fixed-size batches
// separated by a delay. A single address exhausting its rate-limit retries
// aborts the remaining batches; any other per-address failure is counted and
// skipped.
func (p *ContactPropagator) PropagateContacts(ctx context.Context, owner string, messages []models.Message) (*PropagationResult, error) {
	var addresses []contacts.Address
	for _, addr := range contacts.ExtractAddresses(messages) {
		if p.exclusion.Excluded(addr.Email) {
			continue
		}
		addresses = append(addresses, addr)
	}

	result := &PropagationResult{}
	if len(addresses) == 0 {
		return result, nil
	}

	for start := 0; start < len(addresses); start += p.config.BatchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(p.config.BatchDelay):
			}
		}

		end := start + p.config.BatchSize
		if end > len(addresses) {
			end = len(addresses)
		}

		for _, addr := range addresses[start:end] {
			created, err := p.propagateOne(ctx, addr)
			switch {
			case err == nil && created:
				result.Created++
			case err == nil:
				result.Existing++
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				return result, err
			case apperrors.IsRateLimited(err):
				result.Aborted = true
				p.log.PropagationAborted(owner, result.Created, result.Existing, result.Failed, err)
				return result, fmt.Errorf("contact propagation aborted: %w", err)
			default:
				result.Failed++
				p.log.Error("failed to propagate contact", "owner", owner, "email", addr.Email, "error", err)
			}
		}
	}

	p.log.Info("contact propagation completed",
		"owner", owner,
		"created", result.Created,
		"existing", result.Existing,
		"failed", result.Failed)
	return result, nil
}

// propagateOne ensures a single address exists remotely, retrying the
// check-then-create pair under the configured backoff policy. Reports whether
// a contact was created.
func (p *ContactPropagator) propagateOne(ctx context.Context, addr contacts.Address) (bool, error) {
	created := false
	err := p.config.Retry.Do(ctx, func(ctx context.Context) error {
		exists, err := p.client.FindContactByEmail(ctx, addr.Email)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		if _, err := p.client.CreateContact(ctx, provider.NewContact{
			Email:       addr.Email,
			DisplayName: addr.Name,
		}); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}
