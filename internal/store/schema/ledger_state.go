package schema

import "time"

// LedgerState is the single-row ledger_state table holding aggregate counters,
// the market escrow and operator settings. The row is locked FOR UPDATE by every settling transaction.
type LedgerState struct {
	ID                      int       `gorm:"column:id;primaryKey"`
	TotalListings           uint64    `gorm:"column:total_listings;not null;default:0"`
	TotalAuctions           uint64    `gorm:"column:total_auctions;not null;default:0"`
	TotalOffers             uint64    `gorm:"column:total_offers;not null;default:0"`
	TotalSales              uint64    `gorm:"column:total_sales;not null;default:0"`
	TotalVolume             uint64    `gorm:"column:total_volume;not null;default:0;type:numeric(20,0)"`
	AccumulatedPlatformFees uint64    `gorm:"column:accumulated_platform_fees;not null;default:0;type:numeric(20,0)"`
	Escrow                  uint64    `gorm:"column:escrow;not null;default:0;type:numeric(20,0)"`
	PlatformFeeBp           uint16    `gorm:"column:platform_fee_bp;not null;type:integer"`
	PlatformContract        string    `gorm:"column:platform_contract;not null;type:text"`
	UpdatedAt               time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz;autoUpdateTime"`
}

// LedgerStateID is the primary key of the only ledger_state row
const LedgerStateID = 1

// TableName specifies the table name for the LedgerState model
func (LedgerState) TableName() string {
	return "ledger_state"
}
