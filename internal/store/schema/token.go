package schema

import (
	"time"
)

// Token represents the tokens table - the tier info of every live token
type Token struct {
	// ID is the token id assigned at mint time
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement:false"`
	// Tier is the access level (1..3)
	Tier int16 `gorm:"column:tier;not null;check:tier BETWEEN 1 AND 3"`
	// Expiry is the optional expiry time reference; nil when no expiry is set
	Expiry *int64 `gorm:"column:expiry"`
	// Metadata is the owner supplied metadata string
	Metadata string `gorm:"column:metadata;not null;type:text"`
	// UpdatedAt is the timestamp when this row was last written
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime;type:timestamptz"`
}

// TableName specifies the table name for the Token model
func (Token) TableName() string {
	return "tokens"
}
