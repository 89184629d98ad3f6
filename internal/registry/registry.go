// Package registry holds the administrative configuration of the tier pass:
// admin account, authority reference, pause flag, mint fee, base URI and the tier table.
package registry

import (
	"fmt"

	"github.com/feral-file/ff-tier-pass/internal/domain"
)

// TierConfig is the price and availability of a tier.
// A tier without a price does not exist for minting purposes even when active.
type TierConfig struct {
	Price  domain.Amount `json:"price"`
	Priced bool          `json:"priced"`
	Active bool          `json:"active"`
}

// Settings holds the scalar admin configuration
type Settings struct {
	Admin     domain.Account  `json:"admin"`
	Authority *domain.Account `json:"authority,omitempty"`
	Paused    bool            `json:"paused"`
	MintFee   domain.Amount   `json:"mint_fee"`
	BaseURI   string          `json:"base_uri"`
	// MaxTokens is stored configuration only; no operation enforces it
	MaxTokens uint64 `json:"max_tokens"`
}

// State is a copyable image of the registry
type State struct {
	Settings Settings                     `json:"settings"`
	Tiers    [domain.TierCount]TierConfig `json:"tiers"`
}

// Registry is the configuration store. Every mutator is gated on the admin account.
type Registry struct {
	state State
}

// New creates a registry with the given admin and token cap
func New(admin domain.Account, maxTokens uint64) *Registry {
	return &Registry{state: State{Settings: Settings{Admin: admin, MaxTokens: maxTokens}}}
}

// FromState creates a registry from a previously captured state
func FromState(s State) *Registry {
	r := &Registry{}
	r.Restore(s)
	return r
}

// State returns a copy of the registry contents
func (r *Registry) State() State {
	s := r.state
	if s.Settings.Authority != nil {
		a := *s.Settings.Authority
		s.Settings.Authority = &a
	}
	return s
}

// Restore replaces the registry contents
func (r *Registry) Restore(s State) {
	r.state = s
	if s.Settings.Authority != nil {
		a := *s.Settings.Authority
		r.state.Settings.Authority = &a
	}
}

// Settings returns a copy of the scalar configuration
func (r *Registry) Settings() Settings {
	return r.State().Settings
}

// Admin returns the admin account
func (r *Registry) Admin() domain.Account {
	return r.state.Settings.Admin
}

// IsAdmin reports whether account is the admin
func (r *Registry) IsAdmin(account domain.Account) bool {
	return account == r.state.Settings.Admin
}

// Paused reports whether minting is halted
func (r *Registry) Paused() bool {
	return r.state.Settings.Paused
}

// Tier returns the configuration of a tier
func (r *Registry) Tier(t domain.Tier) TierConfig {
	return r.state.Tiers[t.Index()]
}

// TierPrice returns the price of a tier and whether one is configured
func (r *Registry) TierPrice(t domain.Tier) (domain.Amount, bool) {
	tc := r.Tier(t)
	return tc.Price, tc.Priced
}

// TierActive reports whether a tier is open for minting
func (r *Registry) TierActive(t domain.Tier) bool {
	return r.Tier(t).Active
}

func (r *Registry) authorize(caller domain.Account) error {
	if !r.IsAdmin(caller) {
		return fmt.Errorf("%w: %s is not the admin", domain.ErrNotAuthorized, caller)
	}
	return nil
}

// SetAuthority stores the reference used by external collaborators
func (r *Registry) SetAuthority(caller, ref domain.Account) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.state.Settings.Authority = &ref
	return nil
}

// SetMintFee stores a positive mint fee
func (r *Registry) SetMintFee(caller domain.Account, fee domain.Amount) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	if fee <= 0 {
		return fmt.Errorf("%w: mint fee %d", domain.ErrInvalidAmount, fee)
	}
	r.state.Settings.MintFee = fee
	return nil
}

// SetPaused stores the pause flag
func (r *Registry) SetPaused(caller domain.Account, paused bool) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.state.Settings.Paused = paused
	return nil
}

// SetTierPrice stores a positive price for a tier
func (r *Registry) SetTierPrice(caller domain.Account, tier uint64, price domain.Amount) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	t, err := domain.ParseTier(tier)
	if err != nil {
		return err
	}
	if price <= 0 {
		return fmt.Errorf("%w: tier price %d", domain.ErrInvalidAmount, price)
	}
	tc := &r.state.Tiers[t.Index()]
	tc.Price = price
	tc.Priced = true
	return nil
}

// SetTierActive stores the active flag of a tier
func (r *Registry) SetTierActive(caller domain.Account, tier uint64, active bool) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	t, err := domain.ParseTier(tier)
	if err != nil {
		return err
	}
	r.state.Tiers[t.Index()].Active = active
	return nil
}

// SetBaseURI stores the base metadata URI
func (r *Registry) SetBaseURI(caller domain.Account, uri string) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.state.Settings.BaseURI = uri
	return nil
}
