package schema

import (
	"time"

	"github.com/sharehub/sharehub/internal/domain"
)

// HubEvent represents the hub_events table - the durable journal of every
// hub state transition, replayable by off-chain indexers.
type HubEvent struct {
	// ID is the event's ULID, sortable by emission time
	ID string `gorm:"column:id;primaryKey;type:char(26)"`
	// Type is the state transition kind
	Type domain.HubEventType `gorm:"column:type;not null;index"`
	// EmittedAt is the hub-side emission timestamp
	EmittedAt time.Time `gorm:"column:emitted_at;not null;index;type:timestamptz"`
	// TokenID references the asset involved, if any
	TokenID *uint64 `gorm:"column:token_id;index"`
	// ListingID references the listing involved, if any
	ListingID *uint64 `gorm:"column:listing_id;index"`
	// Payload is the full event envelope as emitted
	Payload []byte `gorm:"column:payload;not null;type:jsonb"`
	// CreatedAt is the timestamp when the row was journaled
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the HubEvent model
func (HubEvent) TableName() string {
	return "hub_events"
}
