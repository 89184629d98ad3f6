package registry

import (
	"errors"
	"fmt"

	"github.com/feral-file/ff-tier-pass/internal/adapter"
	"github.com/feral-file/ff-tier-pass/internal/domain"
)

// GenesisTier is the initial configuration of one tier
type GenesisTier struct {
	Tier   uint64        `json:"tier"`
	Price  domain.Amount `json:"price"`
	Active bool          `json:"active"`
}

// Genesis is the initial registry configuration and opening balances, read from a JSON file
type Genesis struct {
	Admin     domain.Account                   `json:"admin"`
	MaxTokens uint64                           `json:"max_tokens"`
	MintFee   domain.Amount                    `json:"mint_fee"`
	BaseURI   string                           `json:"base_uri"`
	Tiers     []GenesisTier                    `json:"tiers"`
	Balances  map[domain.Account]domain.Amount `json:"balances"`
}

// Validate checks the genesis document
func (g *Genesis) Validate() error {
	if g.Admin.IsZero() {
		return errors.New("genesis admin is required")
	}
	if g.MintFee < 0 {
		return fmt.Errorf("%w: genesis mint fee %d", domain.ErrInvalidAmount, g.MintFee)
	}

	seen := make(map[domain.Tier]bool, len(g.Tiers))
	for _, gt := range g.Tiers {
		t, err := domain.ParseTier(gt.Tier)
		if err != nil {
			return fmt.Errorf("genesis tier: %w", err)
		}
		if seen[t] {
			return fmt.Errorf("genesis tier %d configured twice", gt.Tier)
		}
		seen[t] = true
		if gt.Price < 0 {
			return fmt.Errorf("%w: genesis tier %d price %d", domain.ErrInvalidAmount, gt.Tier, gt.Price)
		}
	}
	return nil
}

// normalize converts the accounts of the document to the form authenticated callers arrive in
func (g *Genesis) normalize() {
	g.Admin = domain.NormalizeAccount(g.Admin.String())
	if len(g.Balances) == 0 {
		return
	}
	balances := make(map[domain.Account]domain.Amount, len(g.Balances))
	for account, amount := range g.Balances {
		balances[domain.NormalizeAccount(account.String())] += amount
	}
	g.Balances = balances
}

// Registry builds a registry from the genesis document. A zero tier price leaves the tier unpriced.
func (g *Genesis) Registry() (*Registry, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	s := State{Settings: Settings{
		Admin:     g.Admin,
		MintFee:   g.MintFee,
		BaseURI:   g.BaseURI,
		MaxTokens: g.MaxTokens,
	}}
	for _, gt := range g.Tiers {
		t, _ := domain.ParseTier(gt.Tier)
		s.Tiers[t.Index()] = TierConfig{
			Price:  gt.Price,
			Priced: gt.Price > 0,
			Active: gt.Active,
		}
	}
	return FromState(s), nil
}

// GenesisLoader reads genesis documents
//
//go:generate mockgen -source=genesis.go -destination=../mocks/genesis_loader.go -package=mocks -mock_names=GenesisLoader=MockGenesisLoader
type GenesisLoader interface {
	// Load reads and validates the genesis document at path
	Load(path string) (*Genesis, error)
}

type genesisLoader struct {
	fs   adapter.FileSystem
	json adapter.JSON
}

// NewGenesisLoader creates a loader backed by the given file system and JSON adapters
func NewGenesisLoader(fs adapter.FileSystem, json adapter.JSON) GenesisLoader {
	return &genesisLoader{fs: fs, json: json}
}

// Load reads and validates the genesis document at path
func (l *genesisLoader) Load(path string) (*Genesis, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}

	var g Genesis
	if err := l.json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse genesis JSON: %w", err)
	}

	g.normalize()
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}

	return &g, nil
}
