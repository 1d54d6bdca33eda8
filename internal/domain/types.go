package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TokenID identifies a tokenized asset on the share ledger.
type TokenID uint64

// ListingID identifies a marketplace listing. IDs are assigned strictly
// increasing from 1 and are never reused.
type ListingID uint64

// ZeroAddress is the null account address.
var ZeroAddress = common.Address{}

// IsZeroAddress checks if an address is the null account
func IsZeroAddress(addr common.Address) bool {
	return addr == ZeroAddress
}

// AssetInfo holds the registered metadata of a tokenized asset.
// It is created once at registration and immutable afterwards; share
// transfers change the ownership index, never the AssetInfo itself.
type AssetInfo struct {
	TokenID     TokenID   `json:"token_id"`
	MetadataURI string    `json:"metadata_uri"`
	TotalShares uint64    `json:"total_shares"`
	CreatedAt   time.Time `json:"created_at"`
	Exists      bool      `json:"exists"`
}

// Listing is a seller's standing offer to sell up to SharesForSale shares of
// an asset at a fixed per-share price. Shares are not escrowed: the seller
// keeps them until purchase time, and a purchase re-validates against the
// share ledger by actually attempting the transfer.
//
// Invariant: 0 <= SharesRemaining <= SharesForSale. Once Active turns false
// (cancelled or fully sold) the listing is terminal.
type Listing struct {
	ID              ListingID      `json:"id"`
	TokenID         TokenID        `json:"token_id"`
	Seller          common.Address `json:"seller"`
	SharesForSale   uint64         `json:"shares_for_sale"`
	SharesRemaining uint64         `json:"shares_remaining"`
	PricePerShare   *big.Int       `json:"price_per_share"`
	Active          bool           `json:"active"`
	CreatedAt       time.Time      `json:"created_at"`
}

// TotalPrice returns the cost of buying n shares at the listing price.
func (l *Listing) TotalPrice(n uint64) *big.Int {
	return new(big.Int).Mul(l.PricePerShare, new(big.Int).SetUint64(n))
}

// OwnedAsset is an asset joined with the caller's current share balance,
// so clients do not need one ledger read per asset.
type OwnedAsset struct {
	Asset   AssetInfo `json:"asset"`
	Balance uint64    `json:"balance"`
}

// ListingDetail is an active listing joined with its asset's metadata.
type ListingDetail struct {
	Listing     Listing `json:"listing"`
	MetadataURI string  `json:"metadata_uri"`
	TotalShares uint64  `json:"total_shares"`
}

// BpsDenominator is the basis-point denominator for fee and ownership math.
const BpsDenominator = 10000

// MaxPlatformFeeBps caps the platform fee at 10%.
const MaxPlatformFeeBps = 1000

// DefaultPlatformFeeBps is the initial platform fee (2.5%).
const DefaultPlatformFeeBps = 250

// SplitFee splits a total price into the platform fee and the seller payment.
// fee + sellerPayment == totalPrice for every input.
func SplitFee(totalPrice *big.Int, feeBps uint64) (fee, sellerPayment *big.Int) {
	fee = new(big.Int).Mul(totalPrice, new(big.Int).SetUint64(feeBps))
	fee.Div(fee, big.NewInt(BpsDenominator))
	sellerPayment = new(big.Int).Sub(totalPrice, fee)
	return fee, sellerPayment
}
