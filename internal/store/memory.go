package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"gorm.io/datatypes"

	"github.com/feral-file/ff-tier-pass/internal/adapter"
	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/store/schema"
)

// memoryTables mirrors the PostgreSQL tables keyed by primary key
type memoryTables struct {
	settings    schema.Settings
	tiers       map[int16]schema.TierConfig
	tokens      map[uint64]schema.Token
	tokenOwners map[uint64]schema.TokenOwner
	ownerTokens map[string]schema.OwnerToken
	history     map[uint64][]schema.HistoryEntry
	balances    map[string]schema.Balance
	transfers   map[int64]schema.Transfer
}

func newMemoryTables(r rows) *memoryTables {
	t := &memoryTables{
		settings:    r.settings,
		tiers:       make(map[int16]schema.TierConfig),
		tokens:      make(map[uint64]schema.Token),
		tokenOwners: make(map[uint64]schema.TokenOwner),
		ownerTokens: make(map[string]schema.OwnerToken),
		history:     make(map[uint64][]schema.HistoryEntry),
		balances:    make(map[string]schema.Balance),
		transfers:   make(map[int64]schema.Transfer),
	}
	for _, row := range r.tiers {
		t.tiers[row.Tier] = row
	}
	for _, row := range r.tokens {
		t.tokens[row.ID] = row
	}
	for _, row := range r.tokenOwners {
		t.tokenOwners[row.TokenID] = row
	}
	for _, row := range r.ownerTokens {
		t.ownerTokens[row.Owner] = row
	}
	for _, row := range r.history {
		t.history[row.TokenID] = append(t.history[row.TokenID], row)
	}
	for _, row := range r.balances {
		t.balances[row.Account] = row
	}
	for _, row := range r.transfers {
		t.transfers[row.Seq] = row
	}
	return t
}

// apply writes the same rows as the PostgreSQL store does for c
func (t *memoryTables) apply(c changedRows) {
	t.settings = c.settings
	for _, row := range c.tiers {
		t.tiers[row.Tier] = row
	}

	for _, id := range c.removedTokens {
		delete(t.tokens, id)
	}
	for _, row := range c.tokens {
		t.tokens[row.ID] = row
	}
	for _, id := range c.removedTokenOwners {
		delete(t.tokenOwners, id)
	}
	for _, row := range c.tokenOwners {
		t.tokenOwners[row.TokenID] = row
	}
	for _, id := range c.tokenIDs {
		delete(t.history, id)
	}
	for _, row := range c.history {
		t.history[row.TokenID] = append(t.history[row.TokenID], row)
	}

	for _, owner := range c.removedOwners {
		delete(t.ownerTokens, owner)
	}
	for _, row := range c.ownerTokens {
		t.ownerTokens[row.Owner] = row
	}

	for _, account := range c.removedAccounts {
		delete(t.balances, account)
	}
	for _, row := range c.balances {
		t.balances[row.Account] = row
	}
	for _, row := range c.transfers {
		if _, ok := t.transfers[row.Seq]; !ok {
			t.transfers[row.Seq] = row
		}
	}
}

// rows returns the table content in the order LoadState reads it
func (t *memoryTables) rows() rows {
	r := rows{settings: t.settings}
	for _, tier := range slices.Sorted(maps.Keys(t.tiers)) {
		r.tiers = append(r.tiers, t.tiers[tier])
	}
	for _, id := range slices.Sorted(maps.Keys(t.tokens)) {
		r.tokens = append(r.tokens, t.tokens[id])
	}
	for _, id := range slices.Sorted(maps.Keys(t.tokenOwners)) {
		r.tokenOwners = append(r.tokenOwners, t.tokenOwners[id])
	}
	for _, owner := range slices.Sorted(maps.Keys(t.ownerTokens)) {
		r.ownerTokens = append(r.ownerTokens, t.ownerTokens[owner])
	}
	for _, id := range slices.Sorted(maps.Keys(t.history)) {
		r.history = append(r.history, t.history[id]...)
	}
	for _, account := range slices.Sorted(maps.Keys(t.balances)) {
		r.balances = append(r.balances, t.balances[account])
	}
	for _, seq := range slices.Sorted(maps.Keys(t.transfers)) {
		r.transfers = append(r.transfers, t.transfers[seq])
	}
	return r
}

// memoryStore keeps the table rows in process. It backs deployments without a database,
// and keeps nothing across restarts.
type memoryStore struct {
	mu      sync.RWMutex
	clock   adapter.Clock
	tables  *memoryTables
	changes []schema.ChangesJournal
}

// NewMemoryStore creates an in-process store; clock stamps the journal rows
func NewMemoryStore(clock adapter.Clock) Store {
	return &memoryStore{clock: clock}
}

func (s *memoryStore) LoadState(_ context.Context) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tables == nil {
		return nil, ErrNoState
	}
	return s.tables.rows().state()
}

func (s *memoryStore) SaveState(_ context.Context, state State, change *ChangeInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if change == nil {
		s.tables = newMemoryTables(toRows(state))
		return nil
	}

	if s.tables == nil {
		s.tables = newMemoryTables(rows{})
	}
	s.tables.apply(toChangedRows(state, change.Delta))

	journal := schema.ChangesJournal{
		Cursor:    int64(len(s.changes)) + 1,
		Operation: string(change.Operation),
		Actor:     change.Actor.String(),
		Timestamp: int64(change.Timestamp), //nolint:gosec,G115
		ChangedAt: s.clock.Now().UTC(),
		Meta:      datatypes.JSON(slices.Clone(change.Meta)),
	}
	if change.TokenID != nil {
		id := uint64(*change.TokenID)
		journal.TokenID = &id
	}
	s.changes = append(s.changes, journal)
	return nil
}

func (s *memoryStore) GetChanges(_ context.Context, filter ChangesQueryFilter) ([]*schema.ChangesJournal, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*schema.ChangesJournal
	for i := range s.changes {
		c := s.changes[i]
		if filter.Anchor != nil && uint64(c.Cursor) <= *filter.Anchor { //nolint:gosec,G115
			continue
		}
		if len(filter.Operations) > 0 && !slices.ContainsFunc(filter.Operations, func(op domain.EventType) bool {
			return string(op) == c.Operation
		}) {
			continue
		}
		if len(filter.TokenIDs) > 0 && (c.TokenID == nil || !slices.ContainsFunc(filter.TokenIDs, func(id domain.TokenID) bool {
			return uint64(id) == *c.TokenID
		})) {
			continue
		}
		matched = append(matched, &c)
	}

	total := uint64(len(matched))
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	if matched == nil {
		matched = []*schema.ChangesJournal{}
	}
	return matched, total, nil
}
