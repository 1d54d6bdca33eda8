package hub

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sharehub/sharehub/internal/domain"
)

// SetShareToken points the hub at a new share-token collaborator address.
func (h *Hub) SetShareToken(ctx context.Context, caller, shareToken common.Address) error {
	if err := h.enterCall(); err != nil {
		return err
	}
	defer h.exitCall()

	h.mu.Lock()

	if caller != h.owner {
		h.mu.Unlock()
		return domain.NewAuthorizationError("caller is not the owner")
	}
	if domain.IsZeroAddress(shareToken) {
		h.mu.Unlock()
		return domain.NewValidationError("share token address is zero")
	}

	h.shareToken = shareToken

	event := h.newEvent(domain.EventTypeShareTokenUpdated)
	event.Address = shareToken.Hex()

	h.mu.Unlock()

	h.emit(ctx, event)
	return nil
}

// SetPlatformFee updates the platform fee, capped at MaxPlatformFeeBps.
func (h *Hub) SetPlatformFee(ctx context.Context, caller common.Address, feeBps uint64) error {
	if err := h.enterCall(); err != nil {
		return err
	}
	defer h.exitCall()

	h.mu.Lock()

	if caller != h.owner {
		h.mu.Unlock()
		return domain.NewAuthorizationError("caller is not the owner")
	}
	if feeBps > domain.MaxPlatformFeeBps {
		h.mu.Unlock()
		return domain.NewValidationError("platform fee above cap")
	}

	h.feeBps = feeBps

	event := h.newEvent(domain.EventTypeFeeUpdated)
	event.FeeBps = feeBps

	h.mu.Unlock()

	h.emit(ctx, event)
	return nil
}

// SetFeeRecipient updates the address receiving the platform fee.
func (h *Hub) SetFeeRecipient(ctx context.Context, caller, feeRecipient common.Address) error {
	if err := h.enterCall(); err != nil {
		return err
	}
	defer h.exitCall()

	h.mu.Lock()

	if caller != h.owner {
		h.mu.Unlock()
		return domain.NewAuthorizationError("caller is not the owner")
	}
	if domain.IsZeroAddress(feeRecipient) {
		h.mu.Unlock()
		return domain.NewValidationError("fee recipient address is zero")
	}

	h.feeRecipient = feeRecipient

	event := h.newEvent(domain.EventTypeFeeRecipientUpdated)
	event.Address = feeRecipient.Hex()

	h.mu.Unlock()

	h.emit(ctx, event)
	return nil
}

// Pause stops all mutation until Unpause. Reads stay available.
func (h *Hub) Pause(ctx context.Context, caller common.Address) error {
	if err := h.enterCall(); err != nil {
		return err
	}
	defer h.exitCall()

	h.mu.Lock()

	if caller != h.owner {
		h.mu.Unlock()
		return domain.NewAuthorizationError("caller is not the owner")
	}
	if h.paused {
		h.mu.Unlock()
		return domain.NewStateError("already paused", domain.ErrPaused)
	}

	h.paused = true
	event := h.newEvent(domain.EventTypePaused)

	h.mu.Unlock()

	h.emit(ctx, event)
	return nil
}

// Unpause re-enables mutation.
func (h *Hub) Unpause(ctx context.Context, caller common.Address) error {
	if err := h.enterCall(); err != nil {
		return err
	}
	defer h.exitCall()

	h.mu.Lock()

	if caller != h.owner {
		h.mu.Unlock()
		return domain.NewAuthorizationError("caller is not the owner")
	}
	if !h.paused {
		h.mu.Unlock()
		return domain.NewStateError("not paused", nil)
	}

	h.paused = false
	event := h.newEvent(domain.EventTypeUnpaused)

	h.mu.Unlock()

	h.emit(ctx, event)
	return nil
}

// EmergencyWithdraw sweeps any balance sitting on the hub settlement account
// to the owner and returns the amount moved. Purchases leave the account at
// net zero; anything on it arrived by mistake or from a failed leg reversal.
func (h *Hub) EmergencyWithdraw(ctx context.Context, caller common.Address) (*big.Int, error) {
	if err := h.enterCall(); err != nil {
		return nil, err
	}
	defer h.exitCall()

	h.mu.RLock()
	owner := h.owner
	account := h.account
	h.mu.RUnlock()

	if caller != owner {
		return nil, domain.NewAuthorizationError("caller is not the owner")
	}

	balance, err := h.bank.BalanceOf(ctx, account)
	if err != nil {
		return nil, domain.NewTransferError("balance query failed", fmt.Errorf("balance of hub account: %w", err))
	}
	if balance.Sign() == 0 {
		return balance, nil
	}
	if err := h.bank.Transfer(ctx, account, owner, balance); err != nil {
		return nil, domain.NewTransferError("withdrawal failed", err)
	}
	return balance, nil
}

// Owner returns the administrative account.
func (h *Hub) Owner() common.Address {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.owner
}

// ShareToken returns the authorized share-token collaborator address.
func (h *Hub) ShareToken() common.Address {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.shareToken
}

// PlatformFeeBps returns the current platform fee in basis points.
func (h *Hub) PlatformFeeBps() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.feeBps
}

// FeeRecipient returns the address receiving the platform fee.
func (h *Hub) FeeRecipient() common.Address {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.feeRecipient
}

// Paused reports whether mutation is currently stopped.
func (h *Hub) Paused() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.paused
}
