package rest

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/sharehub/sharehub/internal/domain"
	"github.com/sharehub/sharehub/internal/hub"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// GetAsset retrieves a single registered asset
	// GET /api/v1/assets/:token_id
	GetAsset(c *gin.Context)

	// ListAssets retrieves every registered asset in registration order
	// GET /api/v1/assets
	ListAssets(c *gin.Context)

	// GetAssetOwners retrieves the current owner set of an asset
	// GET /api/v1/assets/:token_id/owners
	GetAssetOwners(c *gin.Context)

	// GetTopShareholder retrieves the owner with the largest share balance
	// GET /api/v1/assets/:token_id/owners/top
	GetTopShareholder(c *gin.Context)

	// GetOwnerAssets retrieves the assets an address holds, with balances
	// GET /api/v1/owners/:address/assets
	GetOwnerAssets(c *gin.Context)

	// GetOwnershipStake retrieves an owner's stake in an asset in basis points
	// GET /api/v1/owners/:address/assets/:token_id/stake
	GetOwnershipStake(c *gin.Context)

	// GetListing retrieves a single listing by id
	// GET /api/v1/listings/:listing_id
	GetListing(c *gin.Context)

	// ListListings retrieves active listings, or all of a seller's listings
	// GET /api/v1/listings?seller=<address>
	ListListings(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	hub *hub.Hub
}

// NewHandler creates a new REST API handler over the hub's read views
func NewHandler(h *hub.Hub) Handler {
	return &handler{hub: h}
}

func parseTokenID(c *gin.Context) (domain.TokenID, bool) {
	id, err := strconv.ParseUint(c.Param("token_id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Invalid token id")
		return 0, false
	}
	return domain.TokenID(id), true
}

func parseAddress(c *gin.Context) (common.Address, bool) {
	raw := c.Param("address")
	if !common.IsHexAddress(raw) {
		respondBadRequest(c, "Invalid address")
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// GetAsset retrieves a single registered asset
func (h *handler) GetAsset(c *gin.Context) {
	tokenID, ok := parseTokenID(c)
	if !ok {
		return
	}

	asset, err := h.hub.GetAsset(tokenID)
	if err != nil {
		respondHubError(c, err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

// ListAssets retrieves every registered asset
func (h *handler) ListAssets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"assets": h.hub.GetAllAssets(),
		"total":  h.hub.GetTotalAssets(),
	})
}

// GetAssetOwners retrieves the current owner set of an asset
func (h *handler) GetAssetOwners(c *gin.Context) {
	tokenID, ok := parseTokenID(c)
	if !ok {
		return
	}
	if _, err := h.hub.GetAsset(tokenID); err != nil {
		respondHubError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"owners": h.hub.GetAssetOwners(tokenID)})
}

// GetTopShareholder retrieves the owner with the largest share balance
func (h *handler) GetTopShareholder(c *gin.Context) {
	tokenID, ok := parseTokenID(c)
	if !ok {
		return
	}

	owner, balance, err := h.hub.GetTopShareholder(c.Request.Context(), tokenID)
	if err != nil {
		respondHubError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"owner": owner, "balance": balance})
}

// GetOwnerAssets retrieves the assets an address holds, with balances
func (h *handler) GetOwnerAssets(c *gin.Context) {
	owner, ok := parseAddress(c)
	if !ok {
		return
	}

	owned, err := h.hub.GetAssetsWithBalances(c.Request.Context(), owner)
	if err != nil {
		respondHubError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assets": owned})
}

// GetOwnershipStake retrieves an owner's stake in an asset in basis points
func (h *handler) GetOwnershipStake(c *gin.Context) {
	owner, ok := parseAddress(c)
	if !ok {
		return
	}
	tokenID, ok := parseTokenID(c)
	if !ok {
		return
	}

	stake, err := h.hub.GetOwnershipPercentage(c.Request.Context(), owner, tokenID)
	if err != nil {
		respondHubError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stake_bps": stake})
}

// GetListing retrieves a single listing by id
func (h *handler) GetListing(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("listing_id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Invalid listing id")
		return
	}

	listing, err := h.hub.GetListing(domain.ListingID(id))
	if err != nil {
		respondHubError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// ListListings retrieves active listings, or all of a seller's listings when
// the seller query parameter is present
func (h *handler) ListListings(c *gin.Context) {
	if raw := c.Query("seller"); raw != "" {
		if !common.IsHexAddress(raw) {
			respondBadRequest(c, "Invalid seller address")
			return
		}
		listings := h.hub.GetListingsBySeller(common.HexToAddress(raw))
		if listings == nil {
			listings = []domain.Listing{}
		}
		c.JSON(http.StatusOK, gin.H{"listings": listings})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": h.hub.GetActiveListingsDetailed()})
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"paused": h.hub.Paused(),
		"assets": h.hub.GetTotalAssets(),
	})
}
