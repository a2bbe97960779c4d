package domain

import (
	"time"
)

// Listing is a fixed-price sale offer for one asset by its owner
type Listing struct {
	ID               uint64    `json:"id"`
	Seller           Address   `json:"seller"`
	Asset            AssetRef  `json:"asset"`
	Price            uint64    `json:"price"`
	RoyaltyBp        uint16    `json:"royalty_bp"`
	RoyaltyRecipient Address   `json:"royalty_recipient"`
	Active           bool      `json:"active"`
	ListedAt         time.Time `json:"listed_at"`
}

// Auction is a time-bounded English auction for one asset
type Auction struct {
	ID               uint64    `json:"id"`
	Seller           Address   `json:"seller"`
	Asset            AssetRef  `json:"asset"`
	StartPrice       uint64    `json:"start_price"`
	CurrentBid       uint64    `json:"current_bid"`
	CurrentBidder    *Address  `json:"current_bidder,omitempty"`
	EndTime          time.Time `json:"end_time"`
	RoyaltyBp        uint16    `json:"royalty_bp"`
	RoyaltyRecipient Address   `json:"royalty_recipient"`
	Active           bool      `json:"active"`
	Ended            bool      `json:"ended"`
	CreatedAt        time.Time `json:"created_at"`
}

// HasBid reports whether a bid has been accepted
func (a *Auction) HasBid() bool {
	return a.CurrentBidder != nil && a.CurrentBid > 0
}

// MinimumBid returns the lowest acceptable next bid. The increment never
// drops below one unit so bids strictly increase even for tiny amounts.
func (a *Auction) MinimumBid() uint64 {
	if a.CurrentBid == 0 {
		return a.StartPrice
	}
	increment := a.CurrentBid / MinBidIncrementDivisor
	if increment == 0 {
		increment = 1
	}
	return a.CurrentBid + increment
}

// Offer is a buyer-initiated bid with funds held in escrow
type Offer struct {
	ID        uint64    `json:"id"`
	Buyer     Address   `json:"buyer"`
	Asset     AssetRef  `json:"asset"`
	Price     uint64    `json:"price"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// SaleSource names the flow that produced a sale
type SaleSource string

const (
	SaleSourceListing SaleSource = "listing"
	SaleSourceAuction SaleSource = "auction"
	SaleSourceOffer   SaleSource = "offer"
)

// Sale is the immutable record of a completed transfer-for-payment
type Sale struct {
	ID               uint64     `json:"id"`
	Seller           Address    `json:"seller"`
	Buyer            Address    `json:"buyer"`
	Asset            AssetRef   `json:"asset"`
	Price            uint64     `json:"price"`
	PlatformFee      uint64     `json:"platform_fee"`
	RoyaltyFee       uint64     `json:"royalty_fee"`
	RoyaltyRecipient Address    `json:"royalty_recipient"`
	SellerProceeds   uint64     `json:"seller_proceeds"`
	Source           SaleSource `json:"source"`
	SourceID         uint64     `json:"source_id"`
	Timestamp        time.Time  `json:"timestamp"`
}

// Stats holds the global aggregate counters of the ledger
type Stats struct {
	TotalListings           uint64 `json:"total_listings"`
	TotalAuctions           uint64 `json:"total_auctions"`
	TotalOffers             uint64 `json:"total_offers"`
	TotalSales              uint64 `json:"total_sales"`
	TotalVolume             uint64 `json:"total_volume"`
	AccumulatedPlatformFees uint64 `json:"accumulated_platform_fees"`
}

// Settings holds operator-controlled parameters
type Settings struct {
	PlatformFeeBp    uint16  `json:"platform_fee_bp"`
	PlatformContract Address `json:"platform_contract"`
}

// DefaultSettings returns the settings of a fresh ledger
func DefaultSettings() Settings {
	return Settings{PlatformFeeBp: DefaultPlatformFeeBp, PlatformContract: ZeroAddress}
}

// ValidateDuration checks an auction or offer duration
func ValidateDuration(d time.Duration) error {
	if d < MinDuration || d > MaxDuration {
		return ErrInvalidDuration
	}
	return nil
}

// ValidateRoyalty checks royalty rate and recipient
func ValidateRoyalty(bp uint16, recipient Address) error {
	if bp > MaxRoyaltyBp {
		return ErrInvalidRoyalty
	}
	if !recipient.Valid() {
		return ErrInvalidRecipient
	}
	return nil
}
