package schema

import (
	"time"
)

// Auction represents the auctions table - single-item English auctions
type Auction struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Seller           string    `gorm:"column:seller;not null;type:text"`
	ContractAddress  string    `gorm:"column:contract_address;not null;type:text;index:idx_auctions_asset,priority:1"`
	TokenNumber      string    `gorm:"column:token_number;not null;type:text;index:idx_auctions_asset,priority:2"`
	StartPrice       uint64    `gorm:"column:start_price;not null;type:numeric(20,0)"`
	CurrentBid       uint64    `gorm:"column:current_bid;not null;type:numeric(20,0)"`
	CurrentBidder    *string   `gorm:"column:current_bidder;type:text"`
	EndTime          time.Time `gorm:"column:end_time;not null;type:timestamptz"`
	RoyaltyBp        uint16    `gorm:"column:royalty_bp;not null;type:integer"`
	RoyaltyRecipient string    `gorm:"column:royalty_recipient;not null;type:text"`
	Active           bool      `gorm:"column:active;not null"`
	Ended            bool      `gorm:"column:ended;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;not null;type:timestamptz"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz;autoUpdateTime"`
}

// TableName specifies the table name for the Auction model
func (Auction) TableName() string {
	return "auctions"
}
