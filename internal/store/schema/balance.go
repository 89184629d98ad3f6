package schema

import (
	"time"
)

// Balance represents the balances table - the settlement asset balance of each account
type Balance struct {
	// Account is the account identifier
	Account string `gorm:"column:account;primaryKey;type:text"`
	// Amount is the signed balance
	Amount int64 `gorm:"column:amount;not null"`
	// UpdatedAt is the timestamp when this balance was last written
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime;type:timestamptz"`
}

// TableName specifies the table name for the Balance model
func (Balance) TableName() string {
	return "balances"
}
