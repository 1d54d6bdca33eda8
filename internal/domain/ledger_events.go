package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// LedgerEventType represents the type of share-ledger event consumed from
// the token collaborator
type LedgerEventType string

const (
	// LedgerEventMinted is the initial supply mint of a newly tokenized asset
	LedgerEventMinted LedgerEventType = "minted"
	// LedgerEventTransferred is a share transfer between accounts
	LedgerEventTransferred LedgerEventType = "transferred"
)

// LedgerEvent is the normalized share-ledger event published by the token
// collaborator. Mints carry the asset's metadata and total supply; transfers
// carry the moving accounts and amount.
type LedgerEvent struct {
	Type        LedgerEventType `json:"type"`
	TokenID     TokenID         `json:"token_id"`
	From        *common.Address `json:"from,omitempty"`
	To          *common.Address `json:"to,omitempty"`
	Amount      uint64          `json:"amount"`
	TotalShares uint64          `json:"total_shares,omitempty"`
	MetadataURI string          `json:"metadata_uri,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Valid checks the structural invariants of the event.
func (e *LedgerEvent) Valid() bool {
	if e.Amount == 0 {
		return false
	}
	switch e.Type {
	case LedgerEventMinted:
		return e.To != nil && !IsZeroAddress(*e.To) && e.TotalShares > 0
	case LedgerEventTransferred:
		return e.From != nil || e.To != nil
	default:
		return false
	}
}
