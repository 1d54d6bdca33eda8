package store

import (
	"context"

	"github.com/sharehub/sharehub/internal/domain"
	"github.com/sharehub/sharehub/internal/store/schema"
)

// Store defines the interface for the durable event journal
type Store interface {
	// AppendEvent journals one hub event
	AppendEvent(ctx context.Context, event *schema.HubEvent) error
	// ListEventsAfter returns up to limit events with an id strictly greater
	// than afterID, in id order. An empty afterID starts from the beginning.
	ListEventsAfter(ctx context.Context, afterID string, limit int) ([]schema.HubEvent, error)
	// ListEventsByType returns up to limit events of one type, newest first
	ListEventsByType(ctx context.Context, eventType domain.HubEventType, limit int) ([]schema.HubEvent, error)
}
