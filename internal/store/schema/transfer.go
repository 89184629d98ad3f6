package schema

// Transfer represents the transfers table - the append-only settlement transfer log
type Transfer struct {
	// Seq is the zero based position in the transfer log
	Seq int64 `gorm:"column:seq;primaryKey;autoIncrement:false"`
	// Amount is the signed amount moved
	Amount int64 `gorm:"column:amount;not null"`
	// FromAccount is the payer
	FromAccount string `gorm:"column:from_account;not null;type:text"`
	// ToAccount is the payee
	ToAccount string `gorm:"column:to_account;not null;type:text"`
}

// TableName specifies the table name for the Transfer model
func (Transfer) TableName() string {
	return "transfers"
}
