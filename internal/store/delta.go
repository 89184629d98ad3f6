package store

import (
	"cmp"
	"slices"

	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/history"
)

// Delta names the rows an operation touched. Keys present in a set but
// missing from the new state were removed. The settings row is always written.
type Delta struct {
	// Tiers is set when the tier table changed
	Tiers bool
	// Tokens are the tokens whose info, owner or history changed
	Tokens []domain.TokenID
	// Owners are the accounts whose token binding changed
	Owners []domain.Account
	// Accounts are the accounts whose balance changed
	Accounts []domain.Account
	// TransfersFrom is the position of the first transfer that is not stored yet
	TransfersFrom int
}

// Diff computes the delta that turns before into after
func Diff(before, after State) Delta {
	d := Delta{
		Tiers:         before.Engine.Registry.Tiers != after.Engine.Registry.Tiers,
		TransfersFrom: min(len(before.Transfers), len(after.Transfers)),
	}

	tokens := make(map[domain.TokenID]struct{})
	collect(tokens, before.Engine.Tokens, after.Engine.Tokens, func(a, b domain.TokenInfo) bool { return a == b })
	collect(tokens, before.Engine.OwnerByToken, after.Engine.OwnerByToken, func(a, b domain.Account) bool { return a == b })
	collect(tokens, before.Engine.History, after.Engine.History, slices.Equal[[]history.Entry])
	d.Tokens = sortedKeys(tokens)

	owners := make(map[domain.Account]struct{})
	collect(owners, before.Engine.TokenByOwner, after.Engine.TokenByOwner, func(a, b domain.TokenID) bool { return a == b })
	d.Owners = sortedKeys(owners)

	accounts := make(map[domain.Account]struct{})
	collect(accounts, before.Balances, after.Balances, func(a, b domain.Amount) bool { return a == b })
	d.Accounts = sortedKeys(accounts)

	return d
}

// collect adds to set every key that was added, removed or changed between before and after
func collect[K comparable, V any](set map[K]struct{}, before, after map[K]V, equal func(a, b V) bool) {
	for k, v := range after {
		if old, ok := before[k]; !ok || !equal(old, v) {
			set[k] = struct{}{}
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			set[k] = struct{}{}
		}
	}
}

func sortedKeys[K cmp.Ordered](set map[K]struct{}) []K {
	if len(set) == 0 {
		return nil
	}
	keys := make([]K, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
