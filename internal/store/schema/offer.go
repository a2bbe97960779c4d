package schema

import (
	"time"
)

// Offer represents the offers table - escrowed buyer offers
type Offer struct {
	ID              uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Buyer           string    `gorm:"column:buyer;not null;type:text"`
	ContractAddress string    `gorm:"column:contract_address;not null;type:text;index:idx_offers_asset,priority:1"`
	TokenNumber     string    `gorm:"column:token_number;not null;type:text;index:idx_offers_asset,priority:2"`
	Price           uint64    `gorm:"column:price;not null;type:numeric(20,0)"`
	ExpiresAt       time.Time `gorm:"column:expires_at;not null;type:timestamptz"`
	Active          bool      `gorm:"column:active;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;type:timestamptz"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz;autoUpdateTime"`
}

// TableName specifies the table name for the Offer model
func (Offer) TableName() string {
	return "offers"
}
