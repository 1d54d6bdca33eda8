package hub

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sharehub/sharehub/internal/domain"
)

// UpdateOwnership mirrors a share transfer into the ownership index. Only the
// share-token collaborator may call it, once per transfer it executes.
//
// The hub keeps no share counters of its own: whether `from` is still an
// owner is decided by re-querying the collaborator's post-transfer balance,
// so the index converges under any ordering of transfers.
func (h *Hub) UpdateOwnership(ctx context.Context, caller common.Address, tokenID domain.TokenID, from, to *common.Address, amount uint64) error {
	if err := h.enterCall(); err != nil {
		return err
	}
	defer h.exitCall()

	h.mu.Lock()

	if err := h.requireNotPaused(); err != nil {
		h.mu.Unlock()
		return err
	}
	if caller != h.shareToken {
		h.mu.Unlock()
		return domain.NewAuthorizationError("caller is not the share token")
	}
	if _, ok := h.assets[tokenID]; !ok || amount == 0 {
		// Transfers of unregistered tokens and zero-amount notifications are
		// ignored rather than rejected, matching the collaborator contract.
		h.mu.Unlock()
		return nil
	}

	if from != nil && !domain.IsZeroAddress(*from) {
		balance, err := h.shares.BalanceOf(ctx, *from, tokenID)
		if err != nil {
			h.mu.Unlock()
			return domain.NewTransferError("balance query failed", fmt.Errorf("balance of %s for token %d: %w", from, tokenID, err))
		}
		if balance == 0 {
			h.removeOwner(tokenID, *from)
		}
	}
	if to != nil && !domain.IsZeroAddress(*to) {
		h.addOwner(tokenID, *to)
	}

	event := h.newEvent(domain.EventTypeOwnershipUpdated)
	event.TokenID = &tokenID
	event.From = from
	event.To = to
	event.Shares = amount

	h.mu.Unlock()

	h.emit(ctx, event)
	return nil
}

// GetAssetOwners returns the current owner set of an asset.
func (h *Hub) GetAssetOwners(tokenID domain.TokenID) []common.Address {
	h.mu.RLock()
	defer h.mu.RUnlock()

	owners := make([]common.Address, len(h.assetOwners[tokenID]))
	copy(owners, h.assetOwners[tokenID])
	return owners
}

// GetOwnerAssets returns the tokens an address currently holds shares of.
func (h *Hub) GetOwnerAssets(owner common.Address) []domain.TokenID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	tokens := make([]domain.TokenID, len(h.ownerAssets[owner]))
	copy(tokens, h.ownerAssets[owner])
	return tokens
}

// addOwner adds an address to an asset's owner set. O(1); no-op if already a
// member. Must be called with the lock held.
func (h *Hub) addOwner(tokenID domain.TokenID, owner common.Address) {
	if h.isOwner[tokenID][owner] {
		return
	}

	if h.isOwner[tokenID] == nil {
		h.isOwner[tokenID] = make(map[common.Address]bool)
		h.ownerPos[tokenID] = make(map[common.Address]int)
	}
	h.isOwner[tokenID][owner] = true
	h.ownerPos[tokenID][owner] = len(h.assetOwners[tokenID])
	h.assetOwners[tokenID] = append(h.assetOwners[tokenID], owner)

	if !h.holdsAsset[owner][tokenID] {
		if h.holdsAsset[owner] == nil {
			h.holdsAsset[owner] = make(map[domain.TokenID]bool)
			h.assetPos[owner] = make(map[domain.TokenID]int)
		}
		h.holdsAsset[owner][tokenID] = true
		h.assetPos[owner][tokenID] = len(h.ownerAssets[owner])
		h.ownerAssets[owner] = append(h.ownerAssets[owner], tokenID)
	}
}

// removeOwner removes an address from an asset's owner set by swapping the
// array's last element into the vacated slot. O(1); no-op if not a member.
// Must be called with the lock held.
func (h *Hub) removeOwner(tokenID domain.TokenID, owner common.Address) {
	if !h.isOwner[tokenID][owner] {
		return
	}

	owners := h.assetOwners[tokenID]
	pos := h.ownerPos[tokenID][owner]
	last := len(owners) - 1
	if pos != last {
		moved := owners[last]
		owners[pos] = moved
		h.ownerPos[tokenID][moved] = pos
	}
	h.assetOwners[tokenID] = owners[:last]
	delete(h.ownerPos[tokenID], owner)
	delete(h.isOwner[tokenID], owner)

	tokens := h.ownerAssets[owner]
	pos = h.assetPos[owner][tokenID]
	last = len(tokens) - 1
	if pos != last {
		moved := tokens[last]
		tokens[pos] = moved
		h.assetPos[owner][moved] = pos
	}
	h.ownerAssets[owner] = tokens[:last]
	delete(h.assetPos[owner], tokenID)
	delete(h.holdsAsset[owner], tokenID)
}
