package schema

import (
	"time"
)

// Sale represents the sales table - append-only settlement history
type Sale struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Seller           string    `gorm:"column:seller;not null;type:text"`
	Buyer            string    `gorm:"column:buyer;not null;type:text"`
	ContractAddress  string    `gorm:"column:contract_address;not null;type:text;index:idx_sales_asset,priority:1"`
	TokenNumber      string    `gorm:"column:token_number;not null;type:text;index:idx_sales_asset,priority:2"`
	Price            uint64    `gorm:"column:price;not null;type:numeric(20,0)"`
	PlatformFee      uint64    `gorm:"column:platform_fee;not null;type:numeric(20,0)"`
	RoyaltyFee       uint64    `gorm:"column:royalty_fee;not null;type:numeric(20,0)"`
	RoyaltyRecipient string    `gorm:"column:royalty_recipient;not null;type:text"`
	SellerProceeds   uint64    `gorm:"column:seller_proceeds;not null;type:numeric(20,0)"`
	Source           string    `gorm:"column:source;not null;type:text"`
	SourceID         uint64    `gorm:"column:source_id;not null"`
	Timestamp        time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
}

// TableName specifies the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}
