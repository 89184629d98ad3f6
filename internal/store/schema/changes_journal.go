package schema

import (
	"time"

	"gorm.io/datatypes"
)

// ChangesJournal represents the changes_journal table - append-only audit log with one row per committed operation.
// Unlike the per-token history it is never truncated.
type ChangesJournal struct {
	// Cursor is an auto-incrementing sequence number for efficient pagination and ordering
	Cursor int64 `gorm:"column:\"cursor\";primaryKey;autoIncrement"`
	// Operation is the lifecycle event type of the committed operation
	Operation string `gorm:"column:operation;not null;type:text;index"`
	// TokenID is the affected token, nil for configuration changes
	TokenID *uint64 `gorm:"column:token_id;index"`
	// Actor is the caller of the operation
	Actor string `gorm:"column:actor;not null;type:text"`
	// Timestamp is the time reference the operation ran at
	Timestamp int64 `gorm:"column:timestamp;not null"`
	// ChangedAt is the wall clock time when the row was written
	ChangedAt time.Time `gorm:"column:changed_at;not null;default:now();type:timestamptz"`
	// Meta contains the canonical JSON of the lifecycle event
	Meta datatypes.JSON `gorm:"column:meta;type:jsonb"`
}

// TableName specifies the table name for the ChangesJournal model
func (ChangesJournal) TableName() string {
	return "changes_journal"
}
