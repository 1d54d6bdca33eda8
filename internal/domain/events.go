package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/oklog/ulid/v2"
)

// HubEventType represents the type of hub state transition
type HubEventType string

const (
	EventTypeAssetRegistered     HubEventType = "asset_registered"
	EventTypeOwnershipUpdated    HubEventType = "ownership_updated"
	EventTypeListingCreated      HubEventType = "listing_created"
	EventTypeListingCancelled    HubEventType = "listing_cancelled"
	EventTypeListingPurchased    HubEventType = "listing_purchased"
	EventTypeFeeUpdated          HubEventType = "fee_updated"
	EventTypeFeeRecipientUpdated HubEventType = "fee_recipient_updated"
	EventTypeShareTokenUpdated   HubEventType = "share_token_updated"
	EventTypePaused              HubEventType = "paused"
	EventTypeUnpaused            HubEventType = "unpaused"
)

// HubEvent is the normalized event published on every hub state transition.
// Exactly one event is emitted per transition, after the hub's own state is
// consistent. Monetary amounts are decimal strings in the smallest currency
// unit to survive JSON round-trips without precision loss.
type HubEvent struct {
	ID        string       `json:"id"` // ULID, sortable by emission time
	Type      HubEventType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`

	TokenID   *TokenID        `json:"token_id,omitempty"`
	ListingID *ListingID      `json:"listing_id,omitempty"`
	From      *common.Address `json:"from,omitempty"`
	To        *common.Address `json:"to,omitempty"`
	Seller    *common.Address `json:"seller,omitempty"`
	Buyer     *common.Address `json:"buyer,omitempty"`

	Shares        uint64 `json:"shares,omitempty"`
	PricePerShare string `json:"price_per_share,omitempty"`
	TotalPrice    string `json:"total_price,omitempty"`
	Fee           string `json:"fee,omitempty"`
	SellerPayment string `json:"seller_payment,omitempty"`

	MetadataURI string `json:"metadata_uri,omitempty"`
	FeeBps      uint64 `json:"fee_bps,omitempty"`
	Address     string `json:"address,omitempty"` // new recipient/collaborator for admin events
}

// NewHubEvent creates an event envelope with a fresh ULID and timestamp.
func NewHubEvent(eventType HubEventType, now time.Time) *HubEvent {
	return &HubEvent{
		ID:        ulid.MustNewDefault(now).String(),
		Type:      eventType,
		Timestamp: now,
	}
}
