package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sharehub/sharehub/internal/domain"
)

// ShareLedger is the external fungible-share token contract. It is the
// source of truth for actual holdings; the hub only mirrors membership.
type ShareLedger interface {
	// BalanceOf returns the current share balance of owner for a token
	BalanceOf(ctx context.Context, owner common.Address, tokenID domain.TokenID) (uint64, error)
	// TotalSupply returns the total number of shares minted for a token
	TotalSupply(ctx context.Context, tokenID domain.TokenID) (uint64, error)
	// IsApprovedForAll reports whether operator may move owner's shares
	IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error)
	// SafeTransferFrom moves amount shares of tokenID from one account to
	// another. It fails if the balance is insufficient or the caller lacks
	// approval, which is how escrow-less listings get re-validated.
	SafeTransferFrom(ctx context.Context, from, to common.Address, tokenID domain.TokenID, amount uint64) error
}

// Settlement is the native value-transfer rail. The hub is the rail's
// payment operator: every leg is initiated by the hub, and the hub may
// reverse a leg it previously initiated by issuing the opposite transfer
// (refund semantics). Amounts are in the smallest currency unit.
type Settlement interface {
	// Transfer moves amount from one account to another
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
	// BalanceOf returns the current balance of an account
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
}
