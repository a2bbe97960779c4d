package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-ticket-market/internal/api/middleware"
	"github.com/feral-file/ff-ticket-market/internal/api/rest/dto"
	"github.com/feral-file/ff-ticket-market/internal/domain"
)

// Market is the settlement engine surface served over REST
type Market interface {
	CreateListing(ctx context.Context, seller domain.Address, ref domain.AssetRef, price uint64, royaltyBp uint16, royaltyRecipient domain.Address) (*domain.Listing, error)
	CancelListing(ctx context.Context, id uint64, caller domain.Address) error
	BuyListing(ctx context.Context, id uint64, caller domain.Address, paid uint64) (*domain.Sale, error)

	CreateAuction(ctx context.Context, seller domain.Address, ref domain.AssetRef, startPrice uint64, duration time.Duration, royaltyBp uint16, royaltyRecipient domain.Address) (*domain.Auction, error)
	PlaceBid(ctx context.Context, id uint64, caller domain.Address, amount uint64) (*domain.Auction, error)
	EndAuction(ctx context.Context, id uint64, caller domain.Address) (*domain.Sale, error)

	MakeOffer(ctx context.Context, buyer domain.Address, ref domain.AssetRef, amount uint64, duration time.Duration) (*domain.Offer, error)
	AcceptOffer(ctx context.Context, id uint64, caller domain.Address) (*domain.Sale, error)
	CancelOffer(ctx context.Context, id uint64, caller domain.Address) error

	SetPlatformFeeRate(ctx context.Context, caller domain.Address, bp uint16) error
	SetPlatformContract(ctx context.Context, caller domain.Address, contract domain.Address) error
	WithdrawFees(ctx context.Context, caller domain.Address) (uint64, error)
	Deposit(ctx context.Context, caller domain.Address, to domain.Address, amount uint64) error

	Listing(ctx context.Context, id uint64) (*domain.Listing, error)
	Auction(ctx context.Context, id uint64) (*domain.Auction, error)
	Offer(ctx context.Context, id uint64) (*domain.Offer, error)
	Sale(ctx context.Context, id uint64) (*domain.Sale, error)
	SalesByAsset(ctx context.Context, ref domain.AssetRef) ([]domain.Sale, error)
	Stats(ctx context.Context) (*domain.Stats, error)
	Settings(ctx context.Context) (*domain.Settings, error)
}

// Balances reads the custodial balance book behind the payment boundary
type Balances interface {
	BalanceOf(ctx context.Context, addr domain.Address) (uint64, error)
}

// Handler defines the interface for REST API handlers
type Handler interface {
	// GET /api/v1/listings/:id
	GetListing(c *gin.Context)
	// POST /api/v1/listings
	CreateListing(c *gin.Context)
	// DELETE /api/v1/listings/:id
	CancelListing(c *gin.Context)
	// POST /api/v1/listings/:id/buy
	BuyListing(c *gin.Context)

	// GET /api/v1/auctions/:id
	GetAuction(c *gin.Context)
	// POST /api/v1/auctions
	CreateAuction(c *gin.Context)
	// POST /api/v1/auctions/:id/bids
	PlaceBid(c *gin.Context)
	// POST /api/v1/auctions/:id/end
	EndAuction(c *gin.Context)

	// GET /api/v1/offers/:id
	GetOffer(c *gin.Context)
	// POST /api/v1/offers
	MakeOffer(c *gin.Context)
	// POST /api/v1/offers/:id/accept
	AcceptOffer(c *gin.Context)
	// DELETE /api/v1/offers/:id
	CancelOffer(c *gin.Context)

	// GET /api/v1/sales/:id
	GetSale(c *gin.Context)
	// GET /api/v1/assets/:contract/:token_id/sales
	ListAssetSales(c *gin.Context)
	// GET /api/v1/stats
	GetStats(c *gin.Context)
	// GET /api/v1/settings
	GetSettings(c *gin.Context)
	// GET /api/v1/balances/:address
	GetBalance(c *gin.Context)

	// PUT /api/v1/admin/platform-fee
	SetPlatformFee(c *gin.Context)
	// PUT /api/v1/admin/platform-contract
	SetPlatformContract(c *gin.Context)
	// POST /api/v1/admin/withdraw
	WithdrawFees(c *gin.Context)
	// POST /api/v1/admin/deposits
	Deposit(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	market   Market
	balances Balances
}

// NewHandler creates a new REST API handler
func NewHandler(market Market, balances Balances) Handler {
	return &handler{
		market:   market,
		balances: balances,
	}
}

// bindJSON decodes the request body, responding with a validation error on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	return true
}

// paramID parses a numeric record id from the path
func paramID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondBadRequest(c, "Invalid id", c.Param("id"))
		return 0, false
	}
	return id, true
}

// caller returns the authenticated caller set by the auth middleware
func caller(c *gin.Context) (domain.Address, bool) {
	addr, ok := middleware.Caller(c)
	if !ok {
		respondUnauthorized(c, "Authentication required")
	}
	return addr, ok
}

// GetListing retrieves a listing by id
func (h *handler) GetListing(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	listing, err := h.market.Listing(c.Request.Context(), id)
	if err != nil {
		respondMarketError(c, err, "Failed to get listing")
		return
	}

	c.JSON(http.StatusOK, listing)
}

// CreateListing lists the caller's asset at a fixed price
func (h *handler) CreateListing(c *gin.Context) {
	seller, ok := caller(c)
	if !ok {
		return
	}

	var req dto.CreateListingRequest
	if !bindJSON(c, &req) {
		return
	}
	ref, recipient, err := req.Parse()
	if err != nil {
		respondMarketError(c, err, "Invalid listing request")
		return
	}

	listing, err := h.market.CreateListing(c.Request.Context(), seller, ref, req.Price, req.RoyaltyBp, recipient)
	if err != nil {
		respondMarketError(c, err, "Failed to create listing")
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// CancelListing withdraws the caller's listing
func (h *handler) CancelListing(c *gin.Context) {
	addr, ok := caller(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.market.CancelListing(c.Request.Context(), id, addr); err != nil {
		respondMarketError(c, err, "Failed to cancel listing")
		return
	}

	c.Status(http.StatusNoContent)
}

// BuyListing purchases a listing, paying the amount from the caller's balance
func (h *handler) BuyListing(c *gin.Context) {
	buyer, ok := caller(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req dto.AmountRequest
	if !bindJSON(c, &req) {
		return
	}

	sale, err := h.market.BuyListing(c.Request.Context(), id, buyer, req.Amount)
	if err != nil {
		respondMarketError(c, err, "Failed to buy listing")
		return
	}

	c.JSON(http.StatusOK, sale)
}

// GetAuction retrieves an auction by id
func (h *handler) GetAuction(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	auction, err := h.market.Auction(c.Request.Context(), id)
	if err != nil {
		respondMarketError(c, err, "Failed to get auction")
		return
	}

	c.JSON(http.StatusOK, dto.NewAuctionResponse(auction))
}

// CreateAuction starts an auction on the caller's asset
func (h *handler) CreateAuction(c *gin.Context) {
	seller, ok := caller(c)
	if !ok {
		return
	}

	var req dto.CreateAuctionRequest
	if !bindJSON(c, &req) {
		return
	}
	ref, recipient, err := req.Parse()
	if err != nil {
		respondMarketError(c, err, "Invalid auction request")
		return
	}

	auction, err := h.market.CreateAuction(c.Request.Context(), seller, ref, req.StartPrice, req.Duration(), req.RoyaltyBp, recipient)
	if err != nil {
		respondMarketError(c, err, "Failed to create auction")
		return
	}

	c.JSON(http.StatusCreated, dto.NewAuctionResponse(auction))
}

// PlaceBid bids on an auction as the caller
func (h *handler) PlaceBid(c *gin.Context) {
	bidder, ok := caller(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req dto.AmountRequest
	if !bindJSON(c, &req) {
		return
	}

	auction, err := h.market.PlaceBid(c.Request.Context(), id, bidder, req.Amount)
	if err != nil {
		respondMarketError(c, err, "Failed to place bid")
		return
	}

	c.JSON(http.StatusOK, dto.NewAuctionResponse(auction))
}

// EndAuction settles an auction past its end time. The sale is null when no bid was placed.
func (h *handler) EndAuction(c *gin.Context) {
	addr, ok := caller(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	sale, err := h.market.EndAuction(c.Request.Context(), id, addr)
	if err != nil {
		respondMarketError(c, err, "Failed to end auction")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sale": sale})
}

// GetOffer retrieves an offer by id
func (h *handler) GetOffer(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	offer, err := h.market.Offer(c.Request.Context(), id)
	if err != nil {
		respondMarketError(c, err, "Failed to get offer")
		return
	}

	c.JSON(http.StatusOK, offer)
}

// MakeOffer escrows an offer from the caller on an asset
func (h *handler) MakeOffer(c *gin.Context) {
	buyer, ok := caller(c)
	if !ok {
		return
	}

	var req dto.MakeOfferRequest
	if !bindJSON(c, &req) {
		return
	}
	ref, err := req.Asset.Ref()
	if err != nil {
		respondMarketError(c, err, "Invalid offer request")
		return
	}

	offer, err := h.market.MakeOffer(c.Request.Context(), buyer, ref, req.Amount, req.Duration())
	if err != nil {
		respondMarketError(c, err, "Failed to make offer")
		return
	}

	c.JSON(http.StatusCreated, offer)
}

// AcceptOffer sells the caller's asset to the offer's buyer
func (h *handler) AcceptOffer(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	sale, err := h.market.AcceptOffer(c.Request.Context(), id, owner)
	if err != nil {
		respondMarketError(c, err, "Failed to accept offer")
		return
	}

	c.JSON(http.StatusOK, sale)
}

// CancelOffer withdraws the caller's offer and refunds the escrow
func (h *handler) CancelOffer(c *gin.Context) {
	addr, ok := caller(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.market.CancelOffer(c.Request.Context(), id, addr); err != nil {
		respondMarketError(c, err, "Failed to cancel offer")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSale retrieves a sale by id
func (h *handler) GetSale(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	sale, err := h.market.Sale(c.Request.Context(), id)
	if err != nil {
		respondMarketError(c, err, "Failed to get sale")
		return
	}

	c.JSON(http.StatusOK, sale)
}

// ListAssetSales retrieves the sale history of an asset
func (h *handler) ListAssetSales(c *gin.Context) {
	ref, err := domain.NewAssetRef(c.Param("contract"), c.Param("token_id"))
	if err != nil {
		respondMarketError(c, err, "Invalid asset")
		return
	}

	sales, err := h.market.SalesByAsset(c.Request.Context(), ref)
	if err != nil {
		respondMarketError(c, err, "Failed to list sales")
		return
	}
	if sales == nil {
		sales = []domain.Sale{}
	}

	c.JSON(http.StatusOK, dto.SalesResponse{Asset: ref, Sales: sales})
}

// GetStats returns the aggregate counters
func (h *handler) GetStats(c *gin.Context) {
	stats, err := h.market.Stats(c.Request.Context())
	if err != nil {
		respondMarketError(c, err, "Failed to get stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetSettings returns the operator settings
func (h *handler) GetSettings(c *gin.Context) {
	settings, err := h.market.Settings(c.Request.Context())
	if err != nil {
		respondMarketError(c, err, "Failed to get settings")
		return
	}

	c.JSON(http.StatusOK, settings)
}

// GetBalance returns the custodial balance of an address
func (h *handler) GetBalance(c *gin.Context) {
	addr, err := domain.ParseAddress(c.Param("address"))
	if err != nil {
		respondMarketError(c, err, "Invalid address")
		return
	}

	h.respondBalance(c, addr)
}

func (h *handler) respondBalance(c *gin.Context, addr domain.Address) {
	balance, err := h.balances.BalanceOf(c.Request.Context(), addr)
	if err != nil {
		respondMarketError(c, err, "Failed to get balance")
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{Address: addr, Balance: balance})
}

// SetPlatformFee updates the platform fee rate
func (h *handler) SetPlatformFee(c *gin.Context) {
	operator, ok := caller(c)
	if !ok {
		return
	}

	var req dto.SetPlatformFeeRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.market.SetPlatformFeeRate(c.Request.Context(), operator, req.FeeBp); err != nil {
		respondMarketError(c, err, "Failed to set platform fee")
		return
	}

	h.GetSettings(c)
}

// SetPlatformContract updates the contract notified of sales
func (h *handler) SetPlatformContract(c *gin.Context) {
	operator, ok := caller(c)
	if !ok {
		return
	}

	var req dto.SetPlatformContractRequest
	if !bindJSON(c, &req) {
		return
	}
	contract, err := domain.ParseAddress(req.Contract)
	if err != nil {
		respondMarketError(c, err, "Invalid platform contract")
		return
	}

	if err := h.market.SetPlatformContract(c.Request.Context(), operator, contract); err != nil {
		respondMarketError(c, err, "Failed to set platform contract")
		return
	}

	h.GetSettings(c)
}

// WithdrawFees pays the accumulated platform fees to the operator
func (h *handler) WithdrawFees(c *gin.Context) {
	operator, ok := caller(c)
	if !ok {
		return
	}

	amount, err := h.market.WithdrawFees(c.Request.Context(), operator)
	if err != nil {
		respondMarketError(c, err, "Failed to withdraw fees")
		return
	}

	c.JSON(http.StatusOK, dto.WithdrawFeesResponse{Recipient: operator, Amount: amount})
}

// Deposit credits a custodial balance
func (h *handler) Deposit(c *gin.Context) {
	operator, ok := caller(c)
	if !ok {
		return
	}

	var req dto.DepositRequest
	if !bindJSON(c, &req) {
		return
	}
	addr, err := req.Parse()
	if err != nil {
		respondMarketError(c, err, "Invalid deposit request")
		return
	}

	if err := h.market.Deposit(c.Request.Context(), operator, addr, req.Amount); err != nil {
		respondMarketError(c, err, "Failed to deposit")
		return
	}

	h.respondBalance(c, addr)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ff-ticket-market",
	})
}
