package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-tier-pass/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates every table the store uses
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&schema.Settings{},
		&schema.TierConfig{},
		&schema.Token{},
		&schema.TokenOwner{},
		&schema.OwnerToken{},
		&schema.HistoryEntry{},
		&schema.Balance{},
		&schema.Transfer{},
		&schema.ChangesJournal{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// calculateSafeBatchSize computes the batch size for bulk inserts that stays below
// PostgreSQL's limit of 65535 parameters per statement.
func calculateSafeBatchSize(totalRecords int, fieldsPerRecord int) int {
	const maxParams = 65535
	const totalHeadroom = 1000 // Total parameter headroom for batch-level overhead

	availableParams := maxParams - totalHeadroom
	safeBatchSize := max(availableParams/fieldsPerRecord, 1)

	if safeBatchSize > totalRecords {
		return max(totalRecords, 1)
	}

	return safeBatchSize
}

// LoadState reads every table and rebuilds the state
func (s *pgStore) LoadState(ctx context.Context) (*State, error) {
	db := s.db.WithContext(ctx)

	var r rows
	if err := db.Where("id = ?", schema.SettingsRowID).First(&r.settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if err := db.Order("tier ASC").Find(&r.tiers).Error; err != nil {
		return nil, fmt.Errorf("failed to get tier configs: %w", err)
	}
	if err := db.Order("id ASC").Find(&r.tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}
	if err := db.Order("token_id ASC").Find(&r.tokenOwners).Error; err != nil {
		return nil, fmt.Errorf("failed to get token owners: %w", err)
	}
	if err := db.Order("owner ASC").Find(&r.ownerTokens).Error; err != nil {
		return nil, fmt.Errorf("failed to get owner tokens: %w", err)
	}
	if err := db.Order("token_id ASC, position ASC").Find(&r.history).Error; err != nil {
		return nil, fmt.Errorf("failed to get history entries: %w", err)
	}
	if err := db.Order("account ASC").Find(&r.balances).Error; err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}
	if err := db.Order("seq ASC").Find(&r.transfers).Error; err != nil {
		return nil, fmt.Errorf("failed to get transfers: %w", err)
	}

	return r.state()
}

// SaveState writes the touched rows and journals the change in a single transaction.
// Without a change every state table is rewritten.
func (s *pgStore) SaveState(ctx context.Context, state State, change *ChangeInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if change == nil {
			return rewriteState(tx, toRows(state))
		}

		if err := saveChangedRows(tx, toChangedRows(state, change.Delta)); err != nil {
			return err
		}

		journal := schema.ChangesJournal{
			Operation: string(change.Operation),
			Actor:     change.Actor.String(),
			Timestamp: int64(change.Timestamp), //nolint:gosec,G115
			Meta:      datatypes.JSON(change.Meta),
		}
		if change.TokenID != nil {
			id := uint64(*change.TokenID)
			journal.TokenID = &id
		}
		if err := tx.Create(&journal).Error; err != nil {
			return fmt.Errorf("failed to create change journal: %w", err)
		}

		return nil
	})
}

// rewriteState replaces the content of every state table
func rewriteState(tx *gorm.DB, r rows) error {
	if err := tx.Save(&r.settings).Error; err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if err := upsertTiers(tx, r.tiers); err != nil {
		return err
	}
	if err := replaceAll(tx, &schema.Token{}, r.tokens, 4); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}
	if err := replaceAll(tx, &schema.TokenOwner{}, r.tokenOwners, 2); err != nil {
		return fmt.Errorf("failed to save token owners: %w", err)
	}
	if err := replaceAll(tx, &schema.OwnerToken{}, r.ownerTokens, 2); err != nil {
		return fmt.Errorf("failed to save owner tokens: %w", err)
	}
	if err := replaceAll(tx, &schema.HistoryEntry{}, r.history, 5); err != nil {
		return fmt.Errorf("failed to save history entries: %w", err)
	}
	if err := replaceAll(tx, &schema.Balance{}, r.balances, 2); err != nil {
		return fmt.Errorf("failed to save balances: %w", err)
	}
	if err := replaceAll(tx, &schema.Transfer{}, r.transfers, 4); err != nil {
		return fmt.Errorf("failed to save transfers: %w", err)
	}
	return nil
}

// saveChangedRows upserts the touched rows and deletes the removed ones
func saveChangedRows(tx *gorm.DB, c changedRows) error {
	// 1. Settings and tiers
	if err := tx.Save(&c.settings).Error; err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if len(c.tiers) > 0 {
		if err := upsertTiers(tx, c.tiers); err != nil {
			return err
		}
	}

	// 2. Tokens and the token to owner index
	if len(c.removedTokens) > 0 {
		if err := tx.Where("id IN ?", c.removedTokens).Delete(&schema.Token{}).Error; err != nil {
			return fmt.Errorf("failed to delete tokens: %w", err)
		}
	}
	if len(c.tokens) > 0 {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tier", "expiry", "metadata", "updated_at"}),
		}).Create(&c.tokens).Error; err != nil {
			return fmt.Errorf("failed to save tokens: %w", err)
		}
	}
	if len(c.removedTokenOwners) > 0 {
		if err := tx.Where("token_id IN ?", c.removedTokenOwners).Delete(&schema.TokenOwner{}).Error; err != nil {
			return fmt.Errorf("failed to delete token owners: %w", err)
		}
	}
	if len(c.tokenOwners) > 0 {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"owner"}),
		}).Create(&c.tokenOwners).Error; err != nil {
			return fmt.Errorf("failed to save token owners: %w", err)
		}
	}

	// 3. History positions shift when the log is full, so the touched logs are replaced
	if len(c.tokenIDs) > 0 {
		if err := tx.Where("token_id IN ?", c.tokenIDs).Delete(&schema.HistoryEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete history entries: %w", err)
		}
	}
	if len(c.history) > 0 {
		if err := tx.CreateInBatches(c.history, calculateSafeBatchSize(len(c.history), 5)).Error; err != nil {
			return fmt.Errorf("failed to save history entries: %w", err)
		}
	}

	// 4. The owner to token index
	if len(c.removedOwners) > 0 {
		if err := tx.Where("owner IN ?", c.removedOwners).Delete(&schema.OwnerToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete owner tokens: %w", err)
		}
	}
	if len(c.ownerTokens) > 0 {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner"}},
			DoUpdates: clause.AssignmentColumns([]string{"token_id"}),
		}).Create(&c.ownerTokens).Error; err != nil {
			return fmt.Errorf("failed to save owner tokens: %w", err)
		}
	}

	// 5. Balances and the transfer log tail
	if len(c.removedAccounts) > 0 {
		if err := tx.Where("account IN ?", c.removedAccounts).Delete(&schema.Balance{}).Error; err != nil {
			return fmt.Errorf("failed to delete balances: %w", err)
		}
	}
	if len(c.balances) > 0 {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).Create(&c.balances).Error; err != nil {
			return fmt.Errorf("failed to save balances: %w", err)
		}
	}
	if len(c.transfers) > 0 {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "seq"}},
			DoNothing: true,
		}).CreateInBatches(c.transfers, calculateSafeBatchSize(len(c.transfers), 4)).Error; err != nil {
			return fmt.Errorf("failed to save transfers: %w", err)
		}
	}

	return nil
}

func upsertTiers(tx *gorm.DB, tiers []schema.TierConfig) error {
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tier"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "priced", "active"}),
	}).Create(&tiers).Error; err != nil {
		return fmt.Errorf("failed to save tier configs: %w", err)
	}
	return nil
}

// replaceAll deletes every row of model's table and inserts records in batches
func replaceAll[T any](tx *gorm.DB, model interface{}, records []T, fieldsPerRecord int) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	return tx.CreateInBatches(records, calculateSafeBatchSize(len(records), fieldsPerRecord)).Error
}

// GetChanges retrieves changes with optional filters and cursor pagination
func (s *pgStore) GetChanges(ctx context.Context, filter ChangesQueryFilter) ([]*schema.ChangesJournal, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.ChangesJournal{})

	if filter.Anchor != nil {
		query = query.Where("\"cursor\" > ?", *filter.Anchor)
	}
	if len(filter.Operations) > 0 {
		ops := make([]string, len(filter.Operations))
		for i, op := range filter.Operations {
			ops[i] = string(op)
		}
		query = query.Where("operation IN ?", ops)
	}
	if len(filter.TokenIDs) > 0 {
		ids := make([]uint64, len(filter.TokenIDs))
		for i, id := range filter.TokenIDs {
			ids[i] = uint64(id)
		}
		query = query.Where("token_id IN ?", ids)
	}

	// Count total matching records
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count changes: %w", err)
	}

	query = query.Order("\"cursor\" ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var changes []schema.ChangesJournal
	if err := query.Find(&changes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query changes: %w", err)
	}

	results := make([]*schema.ChangesJournal, 0, len(changes))
	for i := range changes {
		results = append(results, &changes[i])
	}

	return results, uint64(total), nil //nolint:gosec,G115
}
