package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-tier-pass/internal/domain"
)

const (
	admin    domain.Account = "0xadmin"
	stranger domain.Account = "0xstranger"
)

func TestRegistry_AdminGating(t *testing.T) {
	tests := []struct {
		name string
		call func(r *Registry, caller domain.Account) error
	}{
		{"SetAuthority", func(r *Registry, c domain.Account) error { return r.SetAuthority(c, "0xauthority") }},
		{"SetMintFee", func(r *Registry, c domain.Account) error { return r.SetMintFee(c, 10) }},
		{"SetPaused", func(r *Registry, c domain.Account) error { return r.SetPaused(c, true) }},
		{"SetTierPrice", func(r *Registry, c domain.Account) error { return r.SetTierPrice(c, 1, 1000) }},
		{"SetTierActive", func(r *Registry, c domain.Account) error { return r.SetTierActive(c, 1, true) }},
		{"SetBaseURI", func(r *Registry, c domain.Account) error { return r.SetBaseURI(c, "ipfs://base/") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(admin, 100)
			before := r.State()

			err := tt.call(r, stranger)
			assert.ErrorIs(t, err, domain.ErrNotAuthorized)
			assert.Equal(t, before, r.State(), "rejected call must not change state")

			assert.NoError(t, tt.call(r, admin))
		})
	}
}

func TestRegistry_SetTierPrice(t *testing.T) {
	tests := []struct {
		name    string
		tier    uint64
		price   domain.Amount
		wantErr error
	}{
		{name: "tier 1", tier: 1, price: 1000},
		{name: "tier 3", tier: 3, price: 5000},
		{name: "tier 0", tier: 0, price: 1000, wantErr: domain.ErrInvalidTier},
		{name: "tier 4", tier: 4, price: 1000, wantErr: domain.ErrInvalidTier},
		{name: "zero price", tier: 2, price: 0, wantErr: domain.ErrInvalidAmount},
		{name: "negative price", tier: 2, price: -1, wantErr: domain.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(admin, 0)
			err := r.SetTierPrice(admin, tt.tier, tt.price)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				for _, tier := range domain.Tiers {
					_, ok := r.TierPrice(tier)
					assert.False(t, ok)
				}
				return
			}

			require.NoError(t, err)
			tier, _ := domain.ParseTier(tt.tier)
			price, ok := r.TierPrice(tier)
			assert.True(t, ok)
			assert.Equal(t, tt.price, price)
		})
	}
}

func TestRegistry_SetTierActive(t *testing.T) {
	r := New(admin, 0)

	assert.ErrorIs(t, r.SetTierActive(admin, 4, true), domain.ErrInvalidTier)

	require.NoError(t, r.SetTierActive(admin, 2, true))
	once := r.State()
	require.NoError(t, r.SetTierActive(admin, 2, true))
	require.NoError(t, r.SetTierActive(admin, 2, true))
	assert.Equal(t, once, r.State(), "repeated activation converges")

	assert.True(t, r.TierActive(domain.Tier2))
	assert.False(t, r.TierActive(domain.Tier1))

	// active without price is not mintable, but the flag is still stored
	_, priced := r.TierPrice(domain.Tier2)
	assert.False(t, priced)
}

func TestRegistry_SetMintFee(t *testing.T) {
	r := New(admin, 0)

	assert.ErrorIs(t, r.SetMintFee(admin, 0), domain.ErrInvalidAmount)
	assert.ErrorIs(t, r.SetMintFee(admin, -5), domain.ErrInvalidAmount)
	assert.Equal(t, domain.Amount(0), r.Settings().MintFee)

	require.NoError(t, r.SetMintFee(admin, 25))
	assert.Equal(t, domain.Amount(25), r.Settings().MintFee)
}

func TestRegistry_ScalarSetters(t *testing.T) {
	r := New(admin, 500)

	require.NoError(t, r.SetPaused(admin, true))
	assert.True(t, r.Paused())
	require.NoError(t, r.SetPaused(admin, false))
	assert.False(t, r.Paused())

	require.NoError(t, r.SetBaseURI(admin, "https://pass.example/"))
	require.NoError(t, r.SetAuthority(admin, "0xescalation"))
	require.NoError(t, r.SetAuthority(admin, "0xescalation2"))

	s := r.Settings()
	assert.Equal(t, "https://pass.example/", s.BaseURI)
	require.NotNil(t, s.Authority)
	assert.Equal(t, domain.Account("0xescalation2"), *s.Authority)
	assert.Equal(t, uint64(500), s.MaxTokens)
	assert.Equal(t, admin, s.Admin)
	assert.True(t, r.IsAdmin(admin))
	assert.False(t, r.IsAdmin(stranger))
}

func TestRegistry_StateIsCopied(t *testing.T) {
	r := New(admin, 0)
	require.NoError(t, r.SetAuthority(admin, "0xa"))

	s := r.State()
	*s.Settings.Authority = "0xmutated"
	assert.Equal(t, domain.Account("0xa"), *r.Settings().Authority)

	restored := FromState(s)
	*s.Settings.Authority = "0xagain"
	assert.Equal(t, domain.Account("0xmutated"), *restored.Settings().Authority)
}
