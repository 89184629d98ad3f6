package store

import (
	"context"
	"errors"

	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/engine"
	"github.com/feral-file/ff-tier-pass/internal/ledger"
	"github.com/feral-file/ff-tier-pass/internal/store/schema"
)

// ErrNoState is returned by LoadState when nothing has been saved yet
var ErrNoState = errors.New("no saved state")

// State is everything needed to rebuild the engine and its ledger
type State struct {
	Engine    engine.Snapshot
	Balances  map[domain.Account]domain.Amount
	Transfers []ledger.Transfer
	// Now is the time reference of the last committed operation
	Now domain.Timestamp
}

// ChangeInput describes the committed operation journaled together with a state write
type ChangeInput struct {
	Operation domain.EventType
	TokenID   *domain.TokenID
	Actor     domain.Account
	Timestamp domain.Timestamp
	// Meta is the canonical JSON of the lifecycle event
	Meta []byte
	// Delta names the rows the operation touched; only those are written
	Delta Delta
}

// ChangesQueryFilter represents filters for the changes journal query
type ChangesQueryFilter struct {
	// Anchor is a cursor; only changes with a greater cursor are returned
	Anchor *uint64
	// Operations limits the result to the given operation types
	Operations []domain.EventType
	// TokenIDs limits the result to changes of the given tokens
	TokenIDs []domain.TokenID
	// Limit is the maximum number of changes returned, zero for no limit
	Limit int
}

// Store defines the interface for persisting the tier pass state
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// LoadState reads the saved state, returning ErrNoState when none exists
	LoadState(ctx context.Context) (*State, error)
	// SaveState writes the rows of state named by change.Delta and appends a change journal row
	// in the same transaction. A nil change rewrites the whole state.
	SaveState(ctx context.Context, state State, change *ChangeInput) error
	// GetChanges retrieves journal rows in cursor order together with the total matching count
	GetChanges(ctx context.Context, filter ChangesQueryFilter) ([]*schema.ChangesJournal, uint64, error)
}
