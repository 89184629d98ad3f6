package store

import (
	"fmt"
	"sort"

	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/engine"
	"github.com/feral-file/ff-tier-pass/internal/history"
	"github.com/feral-file/ff-tier-pass/internal/ledger"
	"github.com/feral-file/ff-tier-pass/internal/registry"
	"github.com/feral-file/ff-tier-pass/internal/store/schema"
)

// rows is the table representation of a State
type rows struct {
	settings    schema.Settings
	tiers       []schema.TierConfig
	tokens      []schema.Token
	tokenOwners []schema.TokenOwner
	ownerTokens []schema.OwnerToken
	history     []schema.HistoryEntry
	balances    []schema.Balance
	transfers   []schema.Transfer
}

func toRows(s State) rows {
	snap := s.Engine

	r := rows{
		settings: settingsRow(s),
		tiers:    tierRows(s),
	}

	for id, info := range snap.Tokens {
		r.tokens = append(r.tokens, tokenRow(id, info))
	}
	sort.Slice(r.tokens, func(i, j int) bool { return r.tokens[i].ID < r.tokens[j].ID })

	for id, owner := range snap.OwnerByToken {
		r.tokenOwners = append(r.tokenOwners, schema.TokenOwner{TokenID: uint64(id), Owner: owner.String()})
	}
	sort.Slice(r.tokenOwners, func(i, j int) bool { return r.tokenOwners[i].TokenID < r.tokenOwners[j].TokenID })

	for owner, id := range snap.TokenByOwner {
		r.ownerTokens = append(r.ownerTokens, schema.OwnerToken{Owner: owner.String(), TokenID: uint64(id)})
	}
	sort.Slice(r.ownerTokens, func(i, j int) bool { return r.ownerTokens[i].Owner < r.ownerTokens[j].Owner })

	for id, entries := range snap.History {
		r.history = append(r.history, historyRows(id, entries)...)
	}
	sort.Slice(r.history, func(i, j int) bool {
		if r.history[i].TokenID != r.history[j].TokenID {
			return r.history[i].TokenID < r.history[j].TokenID
		}
		return r.history[i].Position < r.history[j].Position
	})

	for account, amount := range s.Balances {
		r.balances = append(r.balances, schema.Balance{Account: account.String(), Amount: int64(amount)})
	}
	sort.Slice(r.balances, func(i, j int) bool { return r.balances[i].Account < r.balances[j].Account })

	r.transfers = transferRows(s.Transfers, 0)

	return r
}

// changedRows holds the rows named by a Delta. Keys named by the delta
// without a row in the new state are listed as removed.
type changedRows struct {
	settings           schema.Settings
	tiers              []schema.TierConfig
	tokenIDs           []uint64
	tokens             []schema.Token
	removedTokens      []uint64
	tokenOwners        []schema.TokenOwner
	removedTokenOwners []uint64
	history            []schema.HistoryEntry
	ownerTokens        []schema.OwnerToken
	removedOwners      []string
	balances           []schema.Balance
	removedAccounts    []string
	transfers          []schema.Transfer
}

func toChangedRows(s State, d Delta) changedRows {
	snap := s.Engine

	c := changedRows{settings: settingsRow(s)}
	if d.Tiers {
		c.tiers = tierRows(s)
	}

	for _, id := range d.Tokens {
		c.tokenIDs = append(c.tokenIDs, uint64(id))
		if info, ok := snap.Tokens[id]; ok {
			c.tokens = append(c.tokens, tokenRow(id, info))
		} else {
			c.removedTokens = append(c.removedTokens, uint64(id))
		}
		if owner, ok := snap.OwnerByToken[id]; ok {
			c.tokenOwners = append(c.tokenOwners, schema.TokenOwner{TokenID: uint64(id), Owner: owner.String()})
		} else {
			c.removedTokenOwners = append(c.removedTokenOwners, uint64(id))
		}
		c.history = append(c.history, historyRows(id, snap.History[id])...)
	}

	for _, owner := range d.Owners {
		if id, ok := snap.TokenByOwner[owner]; ok {
			c.ownerTokens = append(c.ownerTokens, schema.OwnerToken{Owner: owner.String(), TokenID: uint64(id)})
		} else {
			c.removedOwners = append(c.removedOwners, owner.String())
		}
	}

	for _, account := range d.Accounts {
		if amount, ok := s.Balances[account]; ok {
			c.balances = append(c.balances, schema.Balance{Account: account.String(), Amount: int64(amount)})
		} else {
			c.removedAccounts = append(c.removedAccounts, account.String())
		}
	}

	if d.TransfersFrom < len(s.Transfers) {
		c.transfers = transferRows(s.Transfers[d.TransfersFrom:], d.TransfersFrom)
	}

	return c
}

func settingsRow(s State) schema.Settings {
	settings := s.Engine.Registry.Settings
	row := schema.Settings{
		ID:          schema.SettingsRowID,
		Admin:       settings.Admin.String(),
		Paused:      settings.Paused,
		MintFee:     int64(settings.MintFee),
		BaseURI:     settings.BaseURI,
		MaxTokens:   settings.MaxTokens,
		NextTokenID: uint64(s.Engine.NextID),
		Clock:       int64(s.Now), //nolint:gosec,G115
	}
	if settings.Authority != nil {
		authority := settings.Authority.String()
		row.Authority = &authority
	}
	return row
}

func tierRows(s State) []schema.TierConfig {
	tiers := make([]schema.TierConfig, 0, len(domain.Tiers))
	for _, t := range domain.Tiers {
		tc := s.Engine.Registry.Tiers[t.Index()]
		tiers = append(tiers, schema.TierConfig{
			Tier:   int16(t),
			Price:  int64(tc.Price),
			Priced: tc.Priced,
			Active: tc.Active,
		})
	}
	return tiers
}

func tokenRow(id domain.TokenID, info domain.TokenInfo) schema.Token {
	token := schema.Token{ID: uint64(id), Tier: int16(info.Tier), Metadata: info.Metadata}
	if at, ok := info.Expiry.Get(); ok {
		expiry := int64(at) //nolint:gosec,G115
		token.Expiry = &expiry
	}
	return token
}

func historyRows(id domain.TokenID, entries []history.Entry) []schema.HistoryEntry {
	out := make([]schema.HistoryEntry, 0, len(entries))
	for pos, e := range entries {
		out = append(out, schema.HistoryEntry{
			TokenID:   uint64(id),
			Position:  pos,
			Action:    string(e.Action),
			Timestamp: int64(e.Timestamp), //nolint:gosec,G115
			Actor:     e.Actor.String(),
		})
	}
	return out
}

// transferRows converts transfers whose first element sits at position from in the log
func transferRows(transfers []ledger.Transfer, from int) []schema.Transfer {
	out := make([]schema.Transfer, 0, len(transfers))
	for i, t := range transfers {
		out = append(out, schema.Transfer{
			Seq:         int64(from + i),
			Amount:      int64(t.Amount),
			FromAccount: t.From.String(),
			ToAccount:   t.To.String(),
		})
	}
	return out
}

func (r rows) state() (*State, error) {
	snap := engine.Snapshot{
		Registry: registry.State{
			Settings: registry.Settings{
				Admin:     domain.Account(r.settings.Admin),
				Paused:    r.settings.Paused,
				MintFee:   domain.Amount(r.settings.MintFee),
				BaseURI:   r.settings.BaseURI,
				MaxTokens: r.settings.MaxTokens,
			},
		},
		Tokens:       make(map[domain.TokenID]domain.TokenInfo, len(r.tokens)),
		OwnerByToken: make(map[domain.TokenID]domain.Account, len(r.tokenOwners)),
		TokenByOwner: make(map[domain.Account]domain.TokenID, len(r.ownerTokens)),
		History:      make(map[domain.TokenID][]history.Entry),
		NextID:       domain.TokenID(r.settings.NextTokenID),
	}
	if r.settings.Authority != nil {
		authority := domain.Account(*r.settings.Authority)
		snap.Registry.Settings.Authority = &authority
	}

	for _, tc := range r.tiers {
		t, err := domain.ParseTier(uint64(tc.Tier)) //nolint:gosec,G115
		if err != nil {
			return nil, fmt.Errorf("failed to load tier config: %w", err)
		}
		snap.Registry.Tiers[t.Index()] = registry.TierConfig{
			Price:  domain.Amount(tc.Price),
			Priced: tc.Priced,
			Active: tc.Active,
		}
	}

	for _, token := range r.tokens {
		t, err := domain.ParseTier(uint64(token.Tier)) //nolint:gosec,G115
		if err != nil {
			return nil, fmt.Errorf("failed to load token %d: %w", token.ID, err)
		}
		info := domain.TokenInfo{Tier: t, Expiry: domain.NoExpiry, Metadata: token.Metadata}
		if token.Expiry != nil {
			info.Expiry = domain.ExpiresAt(domain.Timestamp(*token.Expiry)) //nolint:gosec,G115
		}
		snap.Tokens[domain.TokenID(token.ID)] = info
	}

	for _, o := range r.tokenOwners {
		snap.OwnerByToken[domain.TokenID(o.TokenID)] = domain.Account(o.Owner)
	}
	for _, o := range r.ownerTokens {
		snap.TokenByOwner[domain.Account(o.Owner)] = domain.TokenID(o.TokenID)
	}

	// rows are ordered by token and position
	for _, h := range r.history {
		id := domain.TokenID(h.TokenID)
		snap.History[id] = append(snap.History[id], history.Entry{
			Action:    domain.HistoryAction(h.Action),
			Timestamp: domain.Timestamp(h.Timestamp), //nolint:gosec,G115
			Actor:     domain.Account(h.Actor),
		})
	}

	balances := make(map[domain.Account]domain.Amount, len(r.balances))
	for _, b := range r.balances {
		balances[domain.Account(b.Account)] = domain.Amount(b.Amount)
	}

	transfers := make([]ledger.Transfer, 0, len(r.transfers))
	for _, t := range r.transfers {
		transfers = append(transfers, ledger.Transfer{
			Amount: domain.Amount(t.Amount),
			From:   domain.Account(t.FromAccount),
			To:     domain.Account(t.ToAccount),
		})
	}

	return &State{
		Engine:    snap,
		Balances:  balances,
		Transfers: transfers,
		Now:       domain.Timestamp(r.settings.Clock), //nolint:gosec,G115
	}, nil
}
