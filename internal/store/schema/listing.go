package schema

import (
	"time"
)

// Listing represents the listings table - fixed-price sale offers
type Listing struct {
	// ID is the listing id, assigned from the table sequence
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Seller is the checksummed address of the lister
	Seller string `gorm:"column:seller;not null;type:text"`
	// ContractAddress is the asset contract
	ContractAddress string `gorm:"column:contract_address;not null;type:text;index:idx_listings_asset,priority:1"`
	// TokenNumber is the token id within the contract (up to 78 digits)
	TokenNumber string `gorm:"column:token_number;not null;type:text;index:idx_listings_asset,priority:2"`
	// Price in the smallest native unit
	Price uint64 `gorm:"column:price;not null;type:numeric(20,0)"`
	// RoyaltyBp is the royalty rate in basis points
	RoyaltyBp uint16 `gorm:"column:royalty_bp;not null;type:integer"`
	// RoyaltyRecipient receives the royalty fee
	RoyaltyRecipient string `gorm:"column:royalty_recipient;not null;type:text"`
	// Active is flipped to false exactly once
	Active bool `gorm:"column:active;not null"`
	// ListedAt is the creation time of the listing
	ListedAt time.Time `gorm:"column:listed_at;not null;type:timestamptz"`
	// UpdatedAt is the timestamp of the last mutation
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz;autoUpdateTime"`
}

// TableName specifies the table name for the Listing model
func (Listing) TableName() string {
	return "listings"
}
