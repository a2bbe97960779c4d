package schema

import "time"

// Balance represents the balances table - custodial funds spendable by an account
type Balance struct {
	// Address is the checksummed account address
	Address   string    `gorm:"column:address;primaryKey;type:text"`
	Amount    uint64    `gorm:"column:amount;not null;default:0;type:numeric(20,0)"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz;autoUpdateTime"`
}

// TableName specifies the table name for the Balance model
func (Balance) TableName() string {
	return "balances"
}
