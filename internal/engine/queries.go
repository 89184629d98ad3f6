package engine

import (
	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/history"
	"github.com/feral-file/ff-tier-pass/internal/ledger"
	"github.com/feral-file/ff-tier-pass/internal/registry"
)

// OwnerOf returns the owner of a token
func (e *Engine) OwnerOf(id domain.TokenID) (domain.Account, bool) {
	owner, ok := e.ownerByToken[id]
	return owner, ok
}

// TokenOf returns the token bound to an account
func (e *Engine) TokenOf(account domain.Account) (domain.TokenID, bool) {
	id, ok := e.tokenByOwner[account]
	return id, ok
}

// TokenInfo returns the tier info of a token
func (e *Engine) TokenInfo(id domain.TokenID) (domain.TokenInfo, bool) {
	info, ok := e.tokens[id]
	return info, ok
}

// TierPrice returns the configured price of a raw tier number.
// Out of range tiers report no price.
func (e *Engine) TierPrice(tier uint64) (domain.Amount, bool) {
	t, err := domain.ParseTier(tier)
	if err != nil {
		return 0, false
	}
	return e.registry.TierPrice(t)
}

// IsTierActive reports whether a raw tier number is open for minting
func (e *Engine) IsTierActive(tier uint64) bool {
	t, err := domain.ParseTier(tier)
	if err != nil {
		return false
	}
	return e.registry.TierActive(t)
}

// History returns the retained history of a token, empty for an unknown id
func (e *Engine) History(id domain.TokenID) []history.Entry {
	return e.history.Get(id)
}

// NextTokenID returns the id the next mint will assign
func (e *Engine) NextTokenID() domain.TokenID {
	return e.nextID
}

// TokenURI returns the base URI followed by the token id
func (e *Engine) TokenURI(id domain.TokenID) (string, bool) {
	if _, ok := e.tokens[id]; !ok {
		return "", false
	}
	return e.registry.Settings().BaseURI + id.String(), true
}

// Settings returns the scalar admin configuration
func (e *Engine) Settings() registry.Settings {
	return e.registry.Settings()
}

// Balance returns the ledger balance of an account
func (e *Engine) Balance(account domain.Account) domain.Amount {
	return e.ledger.Balance(account)
}

// Transfers returns the settlement transfer log
func (e *Engine) Transfers() []ledger.Transfer {
	return e.ledger.Transfers()
}
