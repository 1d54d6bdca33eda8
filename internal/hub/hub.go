// Package hub implements the ownership registry and marketplace engine for
// fractional shares of tokenized assets. The hub mirrors who owns what from
// the external share ledger into bidirectional O(1) indexes, and runs
// peer-to-peer sale transactions that move value and shares atomically.
//
// The hub is a single owned instance: one mutex serializes all mutation the
// way the ledger substrate serializes transactions. A call-scoped guard
// rejects mutating calls that arrive while another is still settling; that
// covers both a synchronous callback from a collaborator mid-transfer and an
// overlapping caller, either of which must resubmit.
package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/sharehub/sharehub/internal/adapter"
	"github.com/sharehub/sharehub/internal/domain"
	"github.com/sharehub/sharehub/internal/ledger"
	"github.com/sharehub/sharehub/internal/logger"
	"github.com/sharehub/sharehub/internal/messaging"
)

// Config holds the initial hub configuration.
type Config struct {
	// Owner is the administrative account
	Owner common.Address
	// Account is the hub's own settlement account, holding in-flight
	// payments and receiving stray balances
	Account common.Address
	// ShareToken is the authorized share-token collaborator address
	ShareToken common.Address
	// FeeRecipient receives the platform fee
	FeeRecipient common.Address
	// FeeBps is the platform fee in basis points (default 250, max 1000)
	FeeBps uint64
}

// Hub is the ownership registry and marketplace engine.
type Hub struct {
	mu     sync.RWMutex
	inCall atomic.Bool

	owner        common.Address
	account      common.Address
	shareToken   common.Address
	feeRecipient common.Address
	feeBps       uint64
	paused       bool

	shares    ledger.ShareLedger
	bank      ledger.Settlement
	publisher messaging.Publisher
	clock     adapter.Clock

	// asset registry
	assets   map[domain.TokenID]*domain.AssetInfo
	assetIDs []domain.TokenID

	// ownership index: per-asset owner array + per-owner asset array, each
	// with a membership flag and a position map enabling O(1) swap-remove
	assetOwners map[domain.TokenID][]common.Address
	ownerPos    map[domain.TokenID]map[common.Address]int
	isOwner     map[domain.TokenID]map[common.Address]bool
	ownerAssets map[common.Address][]domain.TokenID
	assetPos    map[common.Address]map[domain.TokenID]int
	holdsAsset  map[common.Address]map[domain.TokenID]bool

	// listing store + active-listing index, same swap-remove discipline
	listings      map[domain.ListingID]*domain.Listing
	activeListing []domain.ListingID
	activePos     map[domain.ListingID]int
	nextListingID domain.ListingID
}

// New creates a hub backed by the given collaborators. publisher may be nil
// when no observers are attached.
func New(cfg Config, shares ledger.ShareLedger, bank ledger.Settlement, publisher messaging.Publisher, clock adapter.Clock) (*Hub, error) {
	if domain.IsZeroAddress(cfg.Owner) {
		return nil, domain.NewValidationError("owner address is zero")
	}
	if domain.IsZeroAddress(cfg.Account) {
		return nil, domain.NewValidationError("hub account address is zero")
	}
	if cfg.FeeBps > domain.MaxPlatformFeeBps {
		return nil, domain.NewValidationError("platform fee above cap")
	}

	feeBps := cfg.FeeBps
	if feeBps == 0 {
		feeBps = domain.DefaultPlatformFeeBps
	}
	feeRecipient := cfg.FeeRecipient
	if domain.IsZeroAddress(feeRecipient) {
		feeRecipient = cfg.Owner
	}

	return &Hub{
		owner:        cfg.Owner,
		account:      cfg.Account,
		shareToken:   cfg.ShareToken,
		feeRecipient: feeRecipient,
		feeBps:       feeBps,
		shares:       shares,
		bank:         bank,
		publisher:    publisher,
		clock:        clock,
		assets:       make(map[domain.TokenID]*domain.AssetInfo),
		assetOwners:  make(map[domain.TokenID][]common.Address),
		ownerPos:     make(map[domain.TokenID]map[common.Address]int),
		isOwner:      make(map[domain.TokenID]map[common.Address]bool),
		ownerAssets:  make(map[common.Address][]domain.TokenID),
		assetPos:     make(map[common.Address]map[domain.TokenID]int),
		holdsAsset:   make(map[common.Address]map[domain.TokenID]bool),
		listings:     make(map[domain.ListingID]*domain.Listing),
		activePos:    make(map[domain.ListingID]int),
	}, nil
}

// enterCall acquires the call-scoped guard that every mutating entry point
// holds from first check to last settlement leg. Checked before the mutex so
// a synchronous callback fails fast instead of deadlocking.
func (h *Hub) enterCall() error {
	if !h.inCall.CompareAndSwap(false, true) {
		return domain.NewStateError("mutation already in flight, resubmit", domain.ErrReentrantCall)
	}
	return nil
}

func (h *Hub) exitCall() {
	h.inCall.Store(false)
}

// requireNotPaused must be called with the lock held.
func (h *Hub) requireNotPaused() error {
	if h.paused {
		return domain.NewStateError("mutation is paused", domain.ErrPaused)
	}
	return nil
}

// emit publishes events after the originating mutation has settled. Publish
// failures are logged, never surfaced: the event surface is for observers
// and must not fail a committed state transition.
func (h *Hub) emit(ctx context.Context, events ...*domain.HubEvent) {
	if h.publisher == nil {
		return
	}
	for _, event := range events {
		if err := h.publisher.PublishEvent(ctx, event); err != nil {
			logger.Error(err, zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
		}
	}
}

func (h *Hub) newEvent(eventType domain.HubEventType) *domain.HubEvent {
	return domain.NewHubEvent(eventType, h.clock.Now())
}
