package hub

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sharehub/sharehub/internal/domain"
)

// RegisterAsset records a newly tokenized asset and its initial owner.
// Only the configured share-token collaborator may call it; the collaborator
// invokes it when the initial share supply is minted.
func (h *Hub) RegisterAsset(ctx context.Context, caller common.Address, tokenID domain.TokenID, owner common.Address, totalShares uint64, metadataURI string) error {
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
	if _, ok := h.assets[tokenID]; ok {
		h.mu.Unlock()
		return domain.NewStateError("asset already registered", domain.ErrAssetAlreadyRegistered)
	}
	if domain.IsZeroAddress(owner) {
		h.mu.Unlock()
		return domain.NewValidationError("owner address is zero")
	}
	if totalShares == 0 {
		h.mu.Unlock()
		return domain.NewValidationError("total shares is zero")
	}

	h.assets[tokenID] = &domain.AssetInfo{
		TokenID:     tokenID,
		MetadataURI: metadataURI,
		TotalShares: totalShares,
		CreatedAt:   h.clock.Now(),
		Exists:      true,
	}
	h.assetIDs = append(h.assetIDs, tokenID)
	h.addOwner(tokenID, owner)

	event := h.newEvent(domain.EventTypeAssetRegistered)
	event.TokenID = &tokenID
	event.To = &owner
	event.Shares = totalShares
	event.MetadataURI = metadataURI

	h.mu.Unlock()

	h.emit(ctx, event)
	return nil
}

// GetAsset returns the registered metadata for a token.
func (h *Hub) GetAsset(tokenID domain.TokenID) (domain.AssetInfo, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	asset, ok := h.assets[tokenID]
	if !ok {
		return domain.AssetInfo{}, domain.NewStateError("asset not registered", domain.ErrAssetNotRegistered)
	}
	return *asset, nil
}

// GetAllAssets returns every registered asset in registration order.
func (h *Hub) GetAllAssets() []domain.AssetInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	assets := make([]domain.AssetInfo, 0, len(h.assetIDs))
	for _, id := range h.assetIDs {
		assets = append(assets, *h.assets[id])
	}
	return assets
}

// GetTotalAssets returns the number of registered assets.
func (h *Hub) GetTotalAssets() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.assetIDs)
}
