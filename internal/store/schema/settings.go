package schema

import (
	"time"
)

// SettingsRowID is the primary key of the single settings row
const SettingsRowID = 1

// Settings represents the settings table - a single row of scalar admin configuration
type Settings struct {
	// ID is always SettingsRowID
	ID int `gorm:"column:id;primaryKey;autoIncrement:false"`
	// Admin is the admin account fixed at genesis
	Admin string `gorm:"column:admin;not null;type:text"`
	// Authority is the optional authority reference for external collaborators
	Authority *string `gorm:"column:authority;type:text"`
	// Paused indicates whether minting is halted
	Paused bool `gorm:"column:paused;not null;default:false"`
	// MintFee is the configured mint fee
	MintFee int64 `gorm:"column:mint_fee;not null;default:0"`
	// BaseURI is the prefix of token URIs
	BaseURI string `gorm:"column:base_uri;not null;type:text;default:''"`
	// MaxTokens is the stored, unenforced token cap
	MaxTokens uint64 `gorm:"column:max_tokens;not null;default:0"`
	// NextTokenID is the id the next mint will assign
	NextTokenID uint64 `gorm:"column:next_token_id;not null"`
	// Clock is the time reference of the last committed operation
	Clock int64 `gorm:"column:clock;not null;default:0"`
	// UpdatedAt is the timestamp when this row was last written
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime;type:timestamptz"`
}

// TableName specifies the table name for the Settings model
func (Settings) TableName() string {
	return "settings"
}
