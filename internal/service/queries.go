package service

import (
	"context"
	"fmt"

	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/history"
	"github.com/feral-file/ff-tier-pass/internal/ledger"
	"github.com/feral-file/ff-tier-pass/internal/registry"
	"github.com/feral-file/ff-tier-pass/internal/store"
	"github.com/feral-file/ff-tier-pass/internal/store/schema"
)

// TierView is the configuration of one tier as seen by queries
type TierView struct {
	Tier   uint64        `json:"tier"`
	Price  domain.Amount `json:"price"`
	Priced bool          `json:"priced"`
	Active bool          `json:"active"`
}

func (s *Service) OwnerOf(id domain.TokenID) (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.OwnerOf(id)
}

func (s *Service) TokenOf(account domain.Account) (domain.TokenID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.TokenOf(account)
}

func (s *Service) TokenInfo(id domain.TokenID) (domain.TokenInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.TokenInfo(id)
}

// Tier reports price and availability of a raw tier number
func (s *Service) Tier(tier uint64) TierView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, priced := s.engine.TierPrice(tier)
	return TierView{Tier: tier, Price: price, Priced: priced, Active: s.engine.IsTierActive(tier)}
}

func (s *Service) History(id domain.TokenID) []history.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.History(id)
}

func (s *Service) NextTokenID() domain.TokenID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.NextTokenID()
}

func (s *Service) TokenURI(id domain.TokenID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.TokenURI(id)
}

func (s *Service) Settings() registry.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Settings()
}

func (s *Service) Balance(account domain.Account) domain.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Balance(account)
}

func (s *Service) Transfers() []ledger.Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Transfers()
}

// Now returns the time reference of the last committed operation
func (s *Service) Now() domain.Timestamp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

// Changes reads the operation journal
func (s *Service) Changes(ctx context.Context, filter store.ChangesQueryFilter) ([]*schema.ChangesJournal, uint64, error) {
	changes, total, err := s.store.GetChanges(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get changes: %w", err)
	}
	return changes, total, nil
}
