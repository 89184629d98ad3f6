package service

import (
	"context"

	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/engine"
	"github.com/feral-file/ff-tier-pass/internal/ledger"
)

func tokenRef(id domain.TokenID) *domain.TokenID {
	return &id
}

func expiryRef(e domain.Expiry) *domain.Timestamp {
	at, ok := e.Get()
	if !ok {
		return nil
	}
	return &at
}

// Mint creates a token of the given tier for the caller
func (s *Service) Mint(ctx context.Context, caller domain.Account, tier uint64, metadata string) (domain.TokenID, error) {
	var id domain.TokenID
	_, err := s.execute(ctx, caller, "mint", func(ectx engine.Context) (*domain.LifecycleEvent, error) {
		var err error
		id, err = s.engine.Mint(ectx, tier, metadata)
		if err != nil {
			return nil, err
		}
		t, _ := domain.ParseTier(tier)
		price, _ := s.engine.TierPrice(tier)
		return &domain.LifecycleEvent{
			Type:    domain.EventTypeMint,
			TokenID: tokenRef(id),
			Tier:    &t,
			Amount:  &price,
		}, nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AdminMint creates a token for recipient without payment
func (s *Service) AdminMint(ctx context.Context, caller, recipient domain.Account, tier uint64, metadata string, expiry domain.Expiry) (domain.TokenID, error) {
	var id domain.TokenID
	_, err := s.execute(ctx, caller, "admin_mint", func(ectx engine.Context) (*domain.LifecycleEvent, error) {
		var err error
		id, err = s.engine.AdminMint(ectx, recipient, tier, metadata, expiry)
		if err != nil {
			return nil, err
		}
		t, _ := domain.ParseTier(tier)
		return &domain.LifecycleEvent{
			Type:      domain.EventTypeAdminMint,
			TokenID:   tokenRef(id),
			Recipient: &recipient,
			Tier:      &t,
			Expiry:    expiryRef(expiry),
		}, nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpgradeTier moves the caller's token to a higher tier and returns the settlement transfer
func (s *Service) UpgradeTier(ctx context.Context, caller domain.Account, id domain.TokenID, tier uint64, expiry domain.Expiry) (ledger.Transfer, error) {
	var transfer ledger.Transfer
	_, err := s.execute(ctx, caller, "upgrade", func(ectx engine.Context) (*domain.LifecycleEvent, error) {
		var err error
		transfer, err = s.engine.UpgradeTier(ectx, id, tier, expiry)
		if err != nil {
			return nil, err
		}
		t, _ := domain.ParseTier(tier)
		return &domain.LifecycleEvent{
			Type:    domain.EventTypeUpgrade,
			TokenID: tokenRef(id),
			Tier:    &t,
			Amount:  &transfer.Amount,
			Expiry:  expiryRef(expiry),
		}, nil
	})
	if err != nil {
		return ledger.Transfer{}, err
	}
	return transfer, nil
}

// Burn destroys the caller's token
func (s *Service) Burn(ctx context.Context, caller domain.Account, id domain.TokenID) error {
	_, err := s.execute(ctx, caller, "burn", func(ectx engine.Context) (*domain.LifecycleEvent, error) {
		if err := s.engine.Burn(ectx, id); err != nil {
			return nil, err
		}
		return &domain.LifecycleEvent{Type: domain.EventTypeBurn, TokenID: tokenRef(id)}, nil
	})
	return err
}

// Transfer hands the caller's token to recipient
func (s *Service) Transfer(ctx context.Context, caller domain.Account, id domain.TokenID, recipient domain.Account) error {
	_, err := s.execute(ctx, caller, "transfer", func(ectx engine.Context) (*domain.LifecycleEvent, error) {
		if err := s.engine.Transfer(ectx, id, recipient); err != nil {
			return nil, err
		}
		return &domain.LifecycleEvent{
			Type:      domain.EventTypeTransfer,
			TokenID:   tokenRef(id),
			Recipient: &recipient,
		}, nil
	})
	return err
}

// UpdateMetadata replaces the metadata of the caller's token
func (s *Service) UpdateMetadata(ctx context.Context, caller domain.Account, id domain.TokenID, metadata string) error {
	_, err := s.execute(ctx, caller, "metadata_update", func(ectx engine.Context) (*domain.LifecycleEvent, error) {
		if err := s.engine.UpdateMetadata(ectx, id, metadata); err != nil {
			return nil, err
		}
		return &domain.LifecycleEvent{Type: domain.EventTypeMetadataUpdate, TokenID: tokenRef(id)}, nil
	})
	return err
}

// ExtendExpiry pushes the expiry of the caller's token later
func (s *Service) ExtendExpiry(ctx context.Context, caller domain.Account, id domain.TokenID, expiry domain.Timestamp) error {
	_, err := s.execute(ctx, caller, "expiry_extend", func(ectx engine.Context) (*domain.LifecycleEvent, error) {
		if err := s.engine.ExtendExpiry(ectx, id, expiry); err != nil {
			return nil, err
		}
		return &domain.LifecycleEvent{
			Type:    domain.EventTypeExpiryExtend,
			TokenID: tokenRef(id),
			Expiry:  &expiry,
		}, nil
	})
	return err
}

// configure runs an admin setter and reports it as a config_update event for setting
func (s *Service) configure(ctx context.Context, caller domain.Account, setting string, apply func(engine.Context) error) error {
	_, err := s.execute(ctx, caller, "config_update:"+setting, func(ectx engine.Context) (*domain.LifecycleEvent, error) {
		if err := apply(ectx); err != nil {
			return nil, err
		}
		return &domain.LifecycleEvent{Type: domain.EventTypeConfigUpdate, Setting: setting}, nil
	})
	return err
}

// SetAuthorityContract records the authority reference
func (s *Service) SetAuthorityContract(ctx context.Context, caller, ref domain.Account) error {
	return s.configure(ctx, caller, "authority", func(ectx engine.Context) error {
		return s.engine.SetAuthorityContract(ectx, ref)
	})
}

// SetMintFee records the mint fee
func (s *Service) SetMintFee(ctx context.Context, caller domain.Account, fee domain.Amount) error {
	return s.configure(ctx, caller, "mint_fee", func(ectx engine.Context) error {
		return s.engine.SetMintFee(ectx, fee)
	})
}

// PauseContract sets the pause flag
func (s *Service) PauseContract(ctx context.Context, caller domain.Account, paused bool) error {
	return s.configure(ctx, caller, "paused", func(ectx engine.Context) error {
		return s.engine.PauseContract(ectx, paused)
	})
}

// SetTierPrice sets the price of a tier
func (s *Service) SetTierPrice(ctx context.Context, caller domain.Account, tier uint64, price domain.Amount) error {
	return s.configure(ctx, caller, "tier_price", func(ectx engine.Context) error {
		return s.engine.SetTierPrice(ectx, tier, price)
	})
}

// SetTierActive opens or closes a tier for minting
func (s *Service) SetTierActive(ctx context.Context, caller domain.Account, tier uint64, active bool) error {
	return s.configure(ctx, caller, "tier_active", func(ectx engine.Context) error {
		return s.engine.SetTierActive(ectx, tier, active)
	})
}

// SetBaseURI sets the token URI prefix
func (s *Service) SetBaseURI(ctx context.Context, caller domain.Account, uri string) error {
	return s.configure(ctx, caller, "base_uri", func(ectx engine.Context) error {
		return s.engine.SetBaseURI(ectx, uri)
	})
}
