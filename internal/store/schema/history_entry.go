package schema

// HistoryEntry represents the history_entries table - the retained audit entries of a token
type HistoryEntry struct {
	// TokenID references the token
	TokenID uint64 `gorm:"column:token_id;primaryKey;autoIncrement:false"`
	// Position is the zero based position in the log, oldest first
	Position int `gorm:"column:position;primaryKey;autoIncrement:false"`
	// Action is the operation that produced the entry
	Action string `gorm:"column:action;not null;type:text"`
	// Timestamp is the time reference of the operation
	Timestamp int64 `gorm:"column:timestamp;not null"`
	// Actor is the account recorded for the operation
	Actor string `gorm:"column:actor;not null;type:text"`
}

// TableName specifies the table name for the HistoryEntry model
func (HistoryEntry) TableName() string {
	return "history_entries"
}
