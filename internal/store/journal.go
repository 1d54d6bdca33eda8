package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sharehub/sharehub/internal/adapter"
	"github.com/sharehub/sharehub/internal/domain"
	"github.com/sharehub/sharehub/internal/messaging"
	"github.com/sharehub/sharehub/internal/store/schema"
)

// journalPublisher journals hub events into the durable store, retrying
// transient failures with exponential backoff.
type journalPublisher struct {
	store      Store
	json       adapter.JSON
	maxElapsed time.Duration
}

// NewJournalPublisher wraps an event journal as a publisher. maxElapsed
// bounds the retry window per event; zero uses the backoff default.
func NewJournalPublisher(st Store, jsonAdapter adapter.JSON, maxElapsed time.Duration) messaging.Publisher {
	return &journalPublisher{store: st, json: jsonAdapter, maxElapsed: maxElapsed}
}

// PublishEvent journals one hub event
func (p *journalPublisher) PublishEvent(ctx context.Context, event *domain.HubEvent) error {
	payload, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	row := &schema.HubEvent{
		ID:        event.ID,
		Type:      event.Type,
		EmittedAt: event.Timestamp,
		TokenID:   (*uint64)(event.TokenID),
		ListingID: (*uint64)(event.ListingID),
		Payload:   payload,
	}

	policy := backoff.NewExponentialBackOff()
	if p.maxElapsed > 0 {
		policy.MaxElapsedTime = p.maxElapsed
	}

	return backoff.Retry(func() error {
		return p.store.AppendEvent(ctx, row)
	}, backoff.WithContext(policy, ctx))
}

// Close is a no-op; the underlying database handle is owned by the caller.
func (p *journalPublisher) Close() {}
