package hub

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/sharehub/sharehub/internal/domain"
	"github.com/sharehub/sharehub/internal/logger"
)

// CreateListing puts sharesForSale shares of a registered asset up for sale
// at a fixed per-share price and returns the new listing id.
//
// Listings are escrow-less: the seller keeps the shares and may move them
// elsewhere at any time. The hub only verifies here that the seller currently
// holds enough shares and has approved the hub to transfer them; a purchase
// re-validates both by actually attempting the transfer.
func (h *Hub) CreateListing(ctx context.Context, seller common.Address, tokenID domain.TokenID, sharesForSale uint64, pricePerShare *big.Int) (domain.ListingID, error) {
	if err := h.enterCall(); err != nil {
		return 0, err
	}
	defer h.exitCall()

	h.mu.Lock()

	if err := h.requireNotPaused(); err != nil {
		h.mu.Unlock()
		return 0, err
	}
	if _, ok := h.assets[tokenID]; !ok {
		h.mu.Unlock()
		return 0, domain.NewStateError("asset not registered", domain.ErrAssetNotRegistered)
	}
	if sharesForSale == 0 {
		h.mu.Unlock()
		return 0, domain.NewValidationError("shares for sale is zero")
	}
	if pricePerShare == nil || pricePerShare.Sign() <= 0 {
		h.mu.Unlock()
		return 0, domain.NewValidationError("price per share is zero")
	}

	balance, err := h.shares.BalanceOf(ctx, seller, tokenID)
	if err != nil {
		h.mu.Unlock()
		return 0, domain.NewTransferError("balance query failed", fmt.Errorf("balance of %s for token %d: %w", seller, tokenID, err))
	}
	if balance < sharesForSale {
		h.mu.Unlock()
		return 0, domain.NewValidationError("insufficient shares")
	}
	approved, err := h.shares.IsApprovedForAll(ctx, seller, h.account)
	if err != nil {
		h.mu.Unlock()
		return 0, domain.NewTransferError("approval query failed", fmt.Errorf("approval of %s: %w", seller, err))
	}
	if !approved {
		h.mu.Unlock()
		return 0, domain.NewValidationError("hub is not approved to transfer seller shares")
	}

	h.nextListingID++
	id := h.nextListingID
	h.listings[id] = &domain.Listing{
		ID:              id,
		TokenID:         tokenID,
		Seller:          seller,
		SharesForSale:   sharesForSale,
		SharesRemaining: sharesForSale,
		PricePerShare:   new(big.Int).Set(pricePerShare),
		Active:          true,
		CreatedAt:       h.clock.Now(),
	}
	h.addActive(id)

	event := h.newEvent(domain.EventTypeListingCreated)
	event.ListingID = &id
	event.TokenID = &tokenID
	event.Seller = &seller
	event.Shares = sharesForSale
	event.PricePerShare = pricePerShare.String()

	h.mu.Unlock()

	h.emit(ctx, event)
	return id, nil
}

// CancelListing deactivates a listing. Only the listing's seller may cancel;
// cancellation is terminal.
func (h *Hub) CancelListing(ctx context.Context, caller common.Address, listingID domain.ListingID) error {
	if err := h.enterCall(); err != nil {
		return err
	}
	defer h.exitCall()

	h.mu.Lock()

	if err := h.requireNotPaused(); err != nil {
		h.mu.Unlock()
		return err
	}
	listing, ok := h.listings[listingID]
	if !ok {
		h.mu.Unlock()
		return domain.NewStateError("listing not found", domain.ErrListingNotFound)
	}
	if caller != listing.Seller {
		h.mu.Unlock()
		return domain.NewAuthorizationError("caller is not the listing seller")
	}
	if !listing.Active {
		h.mu.Unlock()
		return domain.NewStateError("listing not active", domain.ErrListingNotActive)
	}

	listing.Active = false
	h.removeActive(listingID)

	event := h.newEvent(domain.EventTypeListingCancelled)
	event.ListingID = &listingID
	event.TokenID = &listing.TokenID
	event.Seller = &listing.Seller

	h.mu.Unlock()

	h.emit(ctx, event)
	return nil
}

// valueLeg is one settlement transfer of a purchase.
type valueLeg struct {
	from, to common.Address
	amount   *big.Int
}

// BuyFromListing purchases sharesToBuy shares from an active listing.
// payment is the value attached by the buyer and must cover the total price;
// any excess is refunded.
//
// Effects precede interactions: the listing is decremented (and deactivated
// if fully sold) before any external call. The settlement legs run first —
// buyer to hub for the attached value, hub to seller, hub to fee recipient,
// hub to buyer for the excess — followed by the share transfer. If any leg
// fails, the completed legs are reversed and the listing restored, so the
// purchase is all-or-nothing.
func (h *Hub) BuyFromListing(ctx context.Context, buyer common.Address, listingID domain.ListingID, sharesToBuy uint64, payment *big.Int) error {
	if err := h.enterCall(); err != nil {
		return err
	}
	defer h.exitCall()

	h.mu.Lock()

	if err := h.requireNotPaused(); err != nil {
		h.mu.Unlock()
		return err
	}
	listing, ok := h.listings[listingID]
	if !ok {
		h.mu.Unlock()
		return domain.NewStateError("listing not found", domain.ErrListingNotFound)
	}
	if !listing.Active {
		h.mu.Unlock()
		return domain.NewStateError("listing not active", domain.ErrListingNotActive)
	}
	if sharesToBuy == 0 {
		h.mu.Unlock()
		return domain.NewValidationError("shares to buy is zero")
	}
	if sharesToBuy > listing.SharesRemaining {
		h.mu.Unlock()
		return domain.NewValidationError("not enough shares remaining")
	}
	if buyer == listing.Seller {
		h.mu.Unlock()
		return domain.NewValidationError("buyer is the seller")
	}

	totalPrice := listing.TotalPrice(sharesToBuy)
	if payment == nil || payment.Cmp(totalPrice) < 0 {
		h.mu.Unlock()
		return domain.NewValidationError("insufficient payment")
	}
	fee, sellerPayment := domain.SplitFee(totalPrice, h.feeBps)
	refund := new(big.Int).Sub(payment, totalPrice)

	seller := listing.Seller
	tokenID := listing.TokenID
	feeRecipient := h.feeRecipient

	// Effects: restore every invariant the hub owns before any outbound call.
	listing.SharesRemaining -= sharesToBuy
	soldOut := listing.SharesRemaining == 0
	if soldOut {
		listing.Active = false
		h.removeActive(listingID)
	}

	event := h.newEvent(domain.EventTypeListingPurchased)
	h.mu.Unlock()

	legs := []valueLeg{
		{from: buyer, to: h.account, amount: new(big.Int).Set(payment)},
		{from: h.account, to: seller, amount: sellerPayment},
		{from: h.account, to: feeRecipient, amount: fee},
		{from: h.account, to: buyer, amount: refund},
	}

	var done []valueLeg
	for _, leg := range legs {
		if leg.amount.Sign() == 0 {
			continue
		}
		if err := h.bank.Transfer(ctx, leg.from, leg.to, leg.amount); err != nil {
			h.unwind(ctx, done, listingID, sharesToBuy, soldOut)
			return domain.NewTransferError("payment failed", fmt.Errorf("transfer %s -> %s: %w", leg.from, leg.to, err))
		}
		done = append(done, leg)
	}

	if err := h.shares.SafeTransferFrom(ctx, seller, buyer, tokenID, sharesToBuy); err != nil {
		h.unwind(ctx, done, listingID, sharesToBuy, soldOut)
		return domain.NewTransferError("share transfer failed", fmt.Errorf("transfer %d shares of token %d: %w", sharesToBuy, tokenID, err))
	}

	event.ListingID = &listingID
	event.TokenID = &tokenID
	event.Seller = &seller
	event.Buyer = &buyer
	event.Shares = sharesToBuy
	event.TotalPrice = totalPrice.String()
	event.Fee = fee.String()
	event.SellerPayment = sellerPayment.String()

	h.emit(ctx, event)
	return nil
}

// unwind reverses completed settlement legs in reverse order and restores the
// listing effects after a failed purchase.
func (h *Hub) unwind(ctx context.Context, done []valueLeg, listingID domain.ListingID, sharesToBuy uint64, wasSoldOut bool) {
	for i := len(done) - 1; i >= 0; i-- {
		leg := done[i]
		if err := h.bank.Transfer(ctx, leg.to, leg.from, leg.amount); err != nil {
			// Funds stay on the hub-side account and are recoverable by the
			// operator; the purchase itself still fails cleanly.
			logger.Error(err,
				zap.String("message", "failed to reverse settlement leg"),
				zap.Uint64("listing_id", uint64(listingID)),
				zap.String("amount", leg.amount.String()))
		}
	}

	h.mu.Lock()
	listing := h.listings[listingID]
	listing.SharesRemaining += sharesToBuy
	if wasSoldOut {
		listing.Active = true
		h.addActive(listingID)
	}
	h.mu.Unlock()
}

// addActive appends a listing to the active-listing index. Must be called
// with the lock held.
func (h *Hub) addActive(id domain.ListingID) {
	h.activePos[id] = len(h.activeListing)
	h.activeListing = append(h.activeListing, id)
}

// removeActive swap-removes a listing from the active-listing index. Must be
// called with the lock held.
func (h *Hub) removeActive(id domain.ListingID) {
	pos, ok := h.activePos[id]
	if !ok {
		return
	}
	last := len(h.activeListing) - 1
	if pos != last {
		moved := h.activeListing[last]
		h.activeListing[pos] = moved
		h.activePos[moved] = pos
	}
	h.activeListing = h.activeListing[:last]
	delete(h.activePos, id)
}
