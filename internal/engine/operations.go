package engine

import (
	"fmt"

	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/history"
	"github.com/feral-file/ff-tier-pass/internal/ledger"
	"github.com/feral-file/ff-tier-pass/internal/settlement"
)

// Mint creates a token of the given tier for the caller, paying the tier price to the admin
func (e *Engine) Mint(ctx Context, tier uint64, metadata string) (domain.TokenID, error) {
	if e.registry.Paused() {
		return 0, domain.ErrPaused
	}
	if id, ok := e.tokenByOwner[ctx.Caller]; ok {
		return 0, fmt.Errorf("%w: %s holds token %d", domain.ErrAlreadyOwned, ctx.Caller, id)
	}
	t, err := domain.ParseTier(tier)
	if err != nil {
		return 0, err
	}
	if !e.registry.TierActive(t) {
		return 0, fmt.Errorf("%w: tier %d", domain.ErrTierNotActive, t)
	}
	if !domain.MetadataFits(metadata) {
		return 0, domain.ErrMetadataTooLong
	}
	price, ok := e.registry.TierPrice(t)
	if !ok {
		return 0, fmt.Errorf("%w: tier %d has no price", domain.ErrInvalidTier, t)
	}
	if err := settlement.Check(e.ledger, ctx.Caller, price); err != nil {
		return 0, err
	}

	settlement.Settle(e.ledger, ctx.Caller, e.registry.Admin(), price)
	return e.create(ctx.Caller, domain.TokenInfo{Tier: t, Expiry: domain.NoExpiry, Metadata: metadata},
		history.Entry{Action: domain.HistoryActionMint, Timestamp: ctx.Now, Actor: ctx.Caller}), nil
}

// AdminMint creates a token for recipient without payment.
// It skips the pause and ownership checks and rebinds the recipient to the new token;
// a token the recipient held before keeps its owner record.
func (e *Engine) AdminMint(ctx Context, recipient domain.Account, tier uint64, metadata string, expiry domain.Expiry) (domain.TokenID, error) {
	if !e.registry.IsAdmin(ctx.Caller) {
		return 0, fmt.Errorf("%w: %s is not the admin", domain.ErrNotAuthorized, ctx.Caller)
	}
	t, err := domain.ParseTier(tier)
	if err != nil {
		return 0, err
	}
	if !domain.MetadataFits(metadata) {
		return 0, domain.ErrMetadataTooLong
	}
	if expiry.IsSet() && !expiry.After(ctx.Now) {
		return 0, fmt.Errorf("%w: %s is not after %d", domain.ErrInvalidExpiry, expiry, ctx.Now)
	}

	return e.create(recipient, domain.TokenInfo{Tier: t, Expiry: expiry, Metadata: metadata},
		history.Entry{Action: domain.HistoryActionAdminMint, Timestamp: ctx.Now, Actor: ctx.Caller}), nil
}

func (e *Engine) create(owner domain.Account, info domain.TokenInfo, first history.Entry) domain.TokenID {
	id := e.nextID
	e.tokens[id] = info
	e.ownerByToken[id] = owner
	e.tokenByOwner[owner] = id
	e.history.Seed(id, first)
	e.nextID++
	return id
}

// owned returns the token if it exists and belongs to the caller
func (e *Engine) owned(ctx Context, id domain.TokenID) (domain.TokenInfo, error) {
	info, ok := e.tokens[id]
	if !ok {
		return domain.TokenInfo{}, fmt.Errorf("%w: %d", domain.ErrNotFound, id)
	}
	owner, ok := e.ownerByToken[id]
	if !ok {
		return domain.TokenInfo{}, fmt.Errorf("%w: %d has no owner", domain.ErrNotFound, id)
	}
	if owner != ctx.Caller {
		return domain.TokenInfo{}, fmt.Errorf("%w: %s does not own token %d", domain.ErrNotOwner, ctx.Caller, id)
	}
	return info, nil
}

// UpgradeTier raises the tier of a token, settling the price difference with the admin.
// The difference is signed; a non-positive difference always passes the balance check
// and is settled as it is.
func (e *Engine) UpgradeTier(ctx Context, id domain.TokenID, newTier uint64, newExpiry domain.Expiry) (ledger.Transfer, error) {
	info, err := e.owned(ctx, id)
	if err != nil {
		return ledger.Transfer{}, err
	}
	t, err := domain.ParseTier(newTier)
	if err != nil {
		return ledger.Transfer{}, err
	}
	if t <= info.Tier {
		return ledger.Transfer{}, fmt.Errorf("%w: tier %d is not above %d", domain.ErrInvalidTier, t, info.Tier)
	}
	if newExpiry.IsSet() && !newExpiry.After(ctx.Now) {
		return ledger.Transfer{}, fmt.Errorf("%w: %s is not after %d", domain.ErrInvalidExpiry, newExpiry, ctx.Now)
	}
	currentPrice, ok := e.registry.TierPrice(info.Tier)
	if !ok {
		return ledger.Transfer{}, fmt.Errorf("%w: tier %d has no price", domain.ErrInvalidTier, info.Tier)
	}
	newPrice, ok := e.registry.TierPrice(t)
	if !ok {
		return ledger.Transfer{}, fmt.Errorf("%w: tier %d has no price", domain.ErrInvalidTier, t)
	}
	delta := newPrice - currentPrice
	if err := settlement.Check(e.ledger, ctx.Caller, delta); err != nil {
		return ledger.Transfer{}, err
	}

	transfer := settlement.Settle(e.ledger, ctx.Caller, e.registry.Admin(), delta)
	info.Tier = t
	info.Expiry = newExpiry
	e.tokens[id] = info
	e.history.Append(id, history.Entry{Action: domain.HistoryActionUpgrade, Timestamp: ctx.Now, Actor: ctx.Caller})
	return transfer, nil
}

// Burn destroys a token together with its ownership records and history
func (e *Engine) Burn(ctx Context, id domain.TokenID) error {
	if _, err := e.owned(ctx, id); err != nil {
		return err
	}

	delete(e.tokens, id)
	delete(e.ownerByToken, id)
	e.unbindOwner(ctx.Caller, id)
	e.history.Delete(id)
	return nil
}

// Transfer moves a token to recipient. A token with an expiry set cannot move,
// whether or not the expiry has passed.
func (e *Engine) Transfer(ctx Context, id domain.TokenID, recipient domain.Account) error {
	info, err := e.owned(ctx, id)
	if err != nil {
		return err
	}
	if info.Expiry.IsSet() {
		return fmt.Errorf("%w: token %d expires at %s", domain.ErrLocked, id, info.Expiry)
	}
	if held, ok := e.tokenByOwner[recipient]; ok {
		return fmt.Errorf("%w: %s holds token %d", domain.ErrAlreadyOwned, recipient, held)
	}

	e.unbindOwner(ctx.Caller, id)
	e.ownerByToken[id] = recipient
	e.tokenByOwner[recipient] = id
	e.history.Append(id, history.Entry{Action: domain.HistoryActionTransfer, Timestamp: ctx.Now, Actor: recipient})
	return nil
}

// unbindOwner drops the owner to token entry only while it still points at id.
// After an admin mint the owner may already be bound to a newer token.
func (e *Engine) unbindOwner(owner domain.Account, id domain.TokenID) {
	if e.tokenByOwner[owner] == id {
		delete(e.tokenByOwner, owner)
	}
}

// UpdateMetadata replaces the metadata of a token
func (e *Engine) UpdateMetadata(ctx Context, id domain.TokenID, metadata string) error {
	info, err := e.owned(ctx, id)
	if err != nil {
		return err
	}
	if !domain.MetadataFits(metadata) {
		return domain.ErrMetadataTooLong
	}

	info.Metadata = metadata
	e.tokens[id] = info
	e.history.Append(id, history.Entry{Action: domain.HistoryActionMetadataUpdate, Timestamp: ctx.Now, Actor: ctx.Caller})
	return nil
}

// ExtendExpiry sets or pushes back the expiry of a token.
// The new expiry must be in the future and, when one is set, strictly after it.
func (e *Engine) ExtendExpiry(ctx Context, id domain.TokenID, newExpiry domain.Timestamp) error {
	info, err := e.owned(ctx, id)
	if err != nil {
		return err
	}
	if newExpiry <= ctx.Now {
		return fmt.Errorf("%w: %d is not after %d", domain.ErrInvalidExpiry, newExpiry, ctx.Now)
	}
	if current, ok := info.Expiry.Get(); ok && newExpiry <= current {
		return fmt.Errorf("%w: %d does not extend %d", domain.ErrInvalidExpiry, newExpiry, current)
	}

	info.Expiry = domain.ExpiresAt(newExpiry)
	e.tokens[id] = info
	e.history.Append(id, history.Entry{Action: domain.HistoryActionExpiryExtend, Timestamp: ctx.Now, Actor: ctx.Caller})
	return nil
}

// SetAuthorityContract stores the authority reference
func (e *Engine) SetAuthorityContract(ctx Context, ref domain.Account) error {
	return e.registry.SetAuthority(ctx.Caller, ref)
}

// SetMintFee stores the mint fee
func (e *Engine) SetMintFee(ctx Context, fee domain.Amount) error {
	return e.registry.SetMintFee(ctx.Caller, fee)
}

// PauseContract stores the pause flag
func (e *Engine) PauseContract(ctx Context, paused bool) error {
	return e.registry.SetPaused(ctx.Caller, paused)
}

// SetTierPrice stores the price of a tier
func (e *Engine) SetTierPrice(ctx Context, tier uint64, price domain.Amount) error {
	return e.registry.SetTierPrice(ctx.Caller, tier, price)
}

// SetTierActive stores the active flag of a tier
func (e *Engine) SetTierActive(ctx Context, tier uint64, active bool) error {
	return e.registry.SetTierActive(ctx.Caller, tier, active)
}

// SetBaseURI stores the base metadata URI
func (e *Engine) SetBaseURI(ctx Context, uri string) error {
	return e.registry.SetBaseURI(ctx.Caller, uri)
}
