package schema

// ActiveRecord represents the active_records table - the per-asset index of the
// one active listing and the one active auction
type ActiveRecord struct {
	// Kind is either "listing" or "auction"
	Kind string `gorm:"column:kind;primaryKey;type:text"`
	// AssetKey is contract:tokenNumber
	AssetKey string `gorm:"column:asset_key;primaryKey;type:text"`
	// RecordID is the id of the active listing or auction
	RecordID uint64 `gorm:"column:record_id;not null"`
}

// TableName specifies the table name for the ActiveRecord model
func (ActiveRecord) TableName() string {
	return "active_records"
}
