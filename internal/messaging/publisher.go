package messaging

import (
	"context"

	"github.com/sharehub/sharehub/internal/domain"
)

// Publisher delivers hub events to off-chain observers and indexers.
type Publisher interface {
	// PublishEvent publishes one hub state transition
	PublishEvent(ctx context.Context, event *domain.HubEvent) error
	// Close closes the publisher and releases its resources
	Close()
}

// Fanout delivers every event to each wrapped publisher in order. The first
// failure is returned; later publishers still receive the event.
type Fanout []Publisher

// PublishEvent publishes the event to every wrapped publisher.
func (f Fanout) PublishEvent(ctx context.Context, event *domain.HubEvent) error {
	var firstErr error
	for _, p := range f {
		if err := p.PublishEvent(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every wrapped publisher.
func (f Fanout) Close() {
	for _, p := range f {
		p.Close()
	}
}
