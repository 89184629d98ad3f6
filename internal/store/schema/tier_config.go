package schema

// TierConfig represents the tier_configs table - price and active flag per tier
type TierConfig struct {
	// Tier is the tier number (1..3)
	Tier int16 `gorm:"column:tier;primaryKey;autoIncrement:false"`
	// Price is the mint price; only meaningful when Priced is true
	Price int64 `gorm:"column:price;not null;default:0"`
	// Priced indicates whether a price has been configured
	Priced bool `gorm:"column:priced;not null;default:false"`
	// Active indicates whether the tier is open for minting
	Active bool `gorm:"column:active;not null;default:false"`
}

// TableName specifies the table name for the TierConfig model
func (TierConfig) TableName() string {
	return "tier_configs"
}
