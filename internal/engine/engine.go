// Package engine implements the token lifecycle state machine.
//
// Every operation runs in two phases: all preconditions are checked against the
// current state first, then the mutation is committed in full. A rejected
// operation returns before the commit phase and leaves every map, the ledger and
// the history book untouched.
package engine

import (
	"maps"

	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/history"
	"github.com/feral-file/ff-tier-pass/internal/ledger"
	"github.com/feral-file/ff-tier-pass/internal/registry"
)

// Context carries the ambient parameters of one call
type Context struct {
	// Caller is the account invoking the operation
	Caller domain.Account
	// Now is the time reference, read once per operation
	Now domain.Timestamp
}

// Engine owns the token table, the ownership index and the history book,
// and reads configuration from the registry and balances from the ledger.
// Engine is not safe for concurrent use; callers serialize operations.
type Engine struct {
	registry *registry.Registry
	ledger   ledger.Ledger

	tokens       map[domain.TokenID]domain.TokenInfo
	ownerByToken map[domain.TokenID]domain.Account
	tokenByOwner map[domain.Account]domain.TokenID
	history      *history.Book
	nextID       domain.TokenID
}

// New creates an engine with no tokens
func New(reg *registry.Registry, l ledger.Ledger) *Engine {
	return &Engine{
		registry:     reg,
		ledger:       l,
		tokens:       make(map[domain.TokenID]domain.TokenInfo),
		ownerByToken: make(map[domain.TokenID]domain.Account),
		tokenByOwner: make(map[domain.Account]domain.TokenID),
		history:      history.NewBook(),
		nextID:       domain.FirstTokenID,
	}
}

// Snapshot is a deep copy of the engine state, including the registry
type Snapshot struct {
	Registry     registry.State                      `json:"registry"`
	Tokens       map[domain.TokenID]domain.TokenInfo `json:"tokens"`
	OwnerByToken map[domain.TokenID]domain.Account   `json:"owner_by_token"`
	TokenByOwner map[domain.Account]domain.TokenID   `json:"token_by_owner"`
	History      map[domain.TokenID][]history.Entry  `json:"history"`
	NextID       domain.TokenID                      `json:"next_id"`
}

// Snapshot captures the current state
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Registry:     e.registry.State(),
		Tokens:       maps.Clone(e.tokens),
		OwnerByToken: maps.Clone(e.ownerByToken),
		TokenByOwner: maps.Clone(e.tokenByOwner),
		History:      e.history.All(),
		NextID:       e.nextID,
	}
}

// Restore replaces the engine state with a snapshot
func (e *Engine) Restore(s Snapshot) {
	e.registry.Restore(s.Registry)
	e.tokens = make(map[domain.TokenID]domain.TokenInfo, len(s.Tokens))
	maps.Copy(e.tokens, s.Tokens)
	e.ownerByToken = make(map[domain.TokenID]domain.Account, len(s.OwnerByToken))
	maps.Copy(e.ownerByToken, s.OwnerByToken)
	e.tokenByOwner = make(map[domain.Account]domain.TokenID, len(s.TokenByOwner))
	maps.Copy(e.tokenByOwner, s.TokenByOwner)

	e.history = history.NewBook()
	for id, entries := range s.History {
		e.history.Put(id, entries)
	}

	e.nextID = s.NextID
	if e.nextID < domain.FirstTokenID {
		e.nextID = domain.FirstTokenID
	}
}
