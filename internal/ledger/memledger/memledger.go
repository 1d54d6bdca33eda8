// Package memledger provides in-memory implementations of the share ledger
// and settlement rail. They back local development and the hub test suite;
// both expose a BeforeTransfer hook so tests can inject transfer failures or
// synchronous callbacks into the hub mid-transfer.
package memledger

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sharehub/sharehub/internal/domain"
	"github.com/sharehub/sharehub/internal/ledger"
)

var (
	// ErrInsufficientShares is returned when a transfer exceeds the sender's balance
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrNotApproved is returned when the operator lacks transfer approval
	ErrNotApproved = errors.New("operator not approved")

	// ErrInsufficientFunds is returned when a value transfer exceeds the sender's balance
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// ShareLedger is an in-memory multi-token share ledger.
type ShareLedger struct {
	mu        sync.Mutex
	operator  common.Address
	balances  map[domain.TokenID]map[common.Address]uint64
	supply    map[domain.TokenID]uint64
	approvals map[common.Address]map[common.Address]bool

	// BeforeTransfer, if set, runs before a transfer is applied. Returning an
	// error fails the transfer without touching balances.
	BeforeTransfer func(ctx context.Context, from, to common.Address, tokenID domain.TokenID, amount uint64) error
}

// NewShareLedger creates an empty share ledger. Transfers issued through the
// ledger interface are initiated by operator (the hub), which must hold the
// seller's approval.
func NewShareLedger(operator common.Address) *ShareLedger {
	return &ShareLedger{
		operator:  operator,
		balances:  make(map[domain.TokenID]map[common.Address]uint64),
		supply:    make(map[domain.TokenID]uint64),
		approvals: make(map[common.Address]map[common.Address]bool),
	}
}

// Mint credits amount new shares of tokenID to an account.
func (l *ShareLedger) Mint(tokenID domain.TokenID, to common.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(tokenID, to, amount)
	l.supply[tokenID] += amount
}

// SetApprovalForAll grants or revokes operator's right to move owner's shares.
func (l *ShareLedger) SetApprovalForAll(owner, operator common.Address, approved bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.approvals[owner] == nil {
		l.approvals[owner] = make(map[common.Address]bool)
	}
	l.approvals[owner][operator] = approved
}

// BalanceOf returns the current share balance of owner for a token.
func (l *ShareLedger) BalanceOf(_ context.Context, owner common.Address, tokenID domain.TokenID) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[tokenID][owner], nil
}

// TotalSupply returns the total number of shares minted for a token.
func (l *ShareLedger) TotalSupply(_ context.Context, tokenID domain.TokenID) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.supply[tokenID], nil
}

// IsApprovedForAll reports whether operator may move owner's shares.
func (l *ShareLedger) IsApprovedForAll(_ context.Context, owner, operator common.Address) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.approvals[owner][operator], nil
}

// SafeTransferFrom moves amount shares from one account to another. The
// sender must either be the operator-approved hub or transfer its own shares.
func (l *ShareLedger) SafeTransferFrom(ctx context.Context, from, to common.Address, tokenID domain.TokenID, amount uint64) error {
	if hook := l.BeforeTransfer; hook != nil {
		if err := hook(ctx, from, to, tokenID, amount); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if from != l.operator && !l.approvals[from][l.operator] {
		return ErrNotApproved
	}
	if l.balances[tokenID][from] < amount {
		return ErrInsufficientShares
	}

	l.balances[tokenID][from] -= amount
	l.credit(tokenID, to, amount)
	return nil
}

func (l *ShareLedger) credit(tokenID domain.TokenID, to common.Address, amount uint64) {
	if l.balances[tokenID] == nil {
		l.balances[tokenID] = make(map[common.Address]uint64)
	}
	l.balances[tokenID][to] += amount
}

// Bank is an in-memory settlement rail. It trusts the hub as payment
// operator: any transfer issued through the interface is honored as long as
// the source account has funds.
type Bank struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int

	// BeforeTransfer, if set, runs before a transfer is applied. Returning an
	// error fails the transfer without touching balances.
	BeforeTransfer func(ctx context.Context, from, to common.Address, amount *big.Int) error
}

// NewBank creates an empty settlement rail.
func NewBank() *Bank {
	return &Bank{balances: make(map[common.Address]*big.Int)}
}

// Deposit credits an account with amount.
func (b *Bank) Deposit(account common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balance(account).Add(b.balance(account), amount)
}

// Transfer moves amount from one account to another.
func (b *Bank) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if hook := b.BeforeTransfer; hook != nil {
		if err := hook(ctx, from, to, amount); err != nil {
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balance(from).Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}

	b.balance(from).Sub(b.balance(from), amount)
	b.balance(to).Add(b.balance(to), amount)
	return nil
}

// BalanceOf returns a copy of the current balance of an account.
func (b *Bank) BalanceOf(_ context.Context, account common.Address) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.balance(account)), nil
}

func (b *Bank) balance(account common.Address) *big.Int {
	if b.balances[account] == nil {
		b.balances[account] = new(big.Int)
	}
	return b.balances[account]
}

var (
	_ ledger.ShareLedger = (*ShareLedger)(nil)
	_ ledger.Settlement  = (*Bank)(nil)
)
