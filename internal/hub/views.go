package hub

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sharehub/sharehub/internal/domain"
)

// Batched read views composing the registry, the listing store and the share
// ledger, so external callers do not have to issue one read per related
// field. Ledger queries run outside the storage lock.

// GetListing returns a listing by id.
func (h *Hub) GetListing(listingID domain.ListingID) (domain.Listing, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	listing, ok := h.listings[listingID]
	if !ok {
		return domain.Listing{}, domain.NewStateError("listing not found", domain.ErrListingNotFound)
	}
	return cloneListing(listing), nil
}

// GetActiveListings returns every active listing.
func (h *Hub) GetActiveListings() []domain.Listing {
	h.mu.RLock()
	defer h.mu.RUnlock()

	listings := make([]domain.Listing, 0, len(h.activeListing))
	for _, id := range h.activeListing {
		listings = append(listings, cloneListing(h.listings[id]))
	}
	return listings
}

// GetActiveListingsDetailed returns every active listing joined with its
// asset's metadata and total share count.
func (h *Hub) GetActiveListingsDetailed() []domain.ListingDetail {
	h.mu.RLock()
	defer h.mu.RUnlock()

	details := make([]domain.ListingDetail, 0, len(h.activeListing))
	for _, id := range h.activeListing {
		listing := h.listings[id]
		asset := h.assets[listing.TokenID]
		details = append(details, domain.ListingDetail{
			Listing:     cloneListing(listing),
			MetadataURI: asset.MetadataURI,
			TotalShares: asset.TotalShares,
		})
	}
	return details
}

// GetListingsBySeller returns every listing, active or not, created by a
// seller, in listing-id order.
func (h *Hub) GetListingsBySeller(seller common.Address) []domain.Listing {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var listings []domain.Listing
	for id := domain.ListingID(1); id <= h.nextListingID; id++ {
		if listing := h.listings[id]; listing != nil && listing.Seller == seller {
			listings = append(listings, cloneListing(listing))
		}
	}
	return listings
}

// GetAssetsWithBalances returns every asset the owner holds shares of,
// joined with the owner's current ledger balance.
func (h *Hub) GetAssetsWithBalances(ctx context.Context, owner common.Address) ([]domain.OwnedAsset, error) {
	h.mu.RLock()
	assets := make([]domain.AssetInfo, 0, len(h.ownerAssets[owner]))
	for _, tokenID := range h.ownerAssets[owner] {
		assets = append(assets, *h.assets[tokenID])
	}
	h.mu.RUnlock()

	owned := make([]domain.OwnedAsset, 0, len(assets))
	for _, asset := range assets {
		balance, err := h.shares.BalanceOf(ctx, owner, asset.TokenID)
		if err != nil {
			return nil, domain.NewTransferError("balance query failed", fmt.Errorf("balance of %s for token %d: %w", owner, asset.TokenID, err))
		}
		owned = append(owned, domain.OwnedAsset{Asset: asset, Balance: balance})
	}
	return owned, nil
}

// GetOwnershipPercentage returns the owner's stake in an asset in basis
// points, measured against the ledger's current total supply.
func (h *Hub) GetOwnershipPercentage(ctx context.Context, owner common.Address, tokenID domain.TokenID) (uint64, error) {
	h.mu.RLock()
	_, ok := h.assets[tokenID]
	h.mu.RUnlock()
	if !ok {
		return 0, domain.NewStateError("asset not registered", domain.ErrAssetNotRegistered)
	}

	supply, err := h.shares.TotalSupply(ctx, tokenID)
	if err != nil {
		return 0, domain.NewTransferError("supply query failed", err)
	}
	if supply == 0 {
		return 0, nil
	}
	balance, err := h.shares.BalanceOf(ctx, owner, tokenID)
	if err != nil {
		return 0, domain.NewTransferError("balance query failed", err)
	}
	return balance * domain.BpsDenominator / supply, nil
}

// GetTopShareholder returns the current owner with the largest share balance
// for an asset, with its balance.
func (h *Hub) GetTopShareholder(ctx context.Context, tokenID domain.TokenID) (common.Address, uint64, error) {
	h.mu.RLock()
	_, ok := h.assets[tokenID]
	owners := make([]common.Address, len(h.assetOwners[tokenID]))
	copy(owners, h.assetOwners[tokenID])
	h.mu.RUnlock()
	if !ok {
		return common.Address{}, 0, domain.NewStateError("asset not registered", domain.ErrAssetNotRegistered)
	}

	var top common.Address
	var topBalance uint64
	for _, owner := range owners {
		balance, err := h.shares.BalanceOf(ctx, owner, tokenID)
		if err != nil {
			return common.Address{}, 0, domain.NewTransferError("balance query failed", err)
		}
		if balance > topBalance {
			top = owner
			topBalance = balance
		}
	}
	return top, topBalance, nil
}

func cloneListing(l *domain.Listing) domain.Listing {
	c := *l
	c.PricePerShare = new(big.Int).Set(l.PricePerShare)
	return c
}
