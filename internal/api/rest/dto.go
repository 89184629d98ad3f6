package rest

import (
	"encoding/json"
	"time"

	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/history"
	"github.com/feral-file/ff-tier-pass/internal/ledger"
	"github.com/feral-file/ff-tier-pass/internal/registry"
	"github.com/feral-file/ff-tier-pass/internal/store/schema"
)

// Requests

type MintRequest struct {
	Tier     *uint64 `json:"tier" binding:"required"`
	Metadata string  `json:"metadata"`
}

type AdminMintRequest struct {
	Recipient string        `json:"recipient" binding:"required"`
	Tier      *uint64       `json:"tier" binding:"required"`
	Metadata  string        `json:"metadata"`
	Expiry    domain.Expiry `json:"expiry"`
}

type UpgradeRequest struct {
	Tier   *uint64       `json:"tier" binding:"required"`
	Expiry domain.Expiry `json:"expiry"`
}

type TransferRequest struct {
	Recipient string `json:"recipient" binding:"required"`
}

type MetadataRequest struct {
	Metadata *string `json:"metadata" binding:"required"`
}

type ExpiryRequest struct {
	Expiry *domain.Timestamp `json:"expiry" binding:"required"`
}

type AuthorityRequest struct {
	Ref string `json:"ref" binding:"required"`
}

type MintFeeRequest struct {
	Fee *domain.Amount `json:"fee" binding:"required"`
}

type PauseRequest struct {
	Paused *bool `json:"paused" binding:"required"`
}

type TierPriceRequest struct {
	Price *domain.Amount `json:"price" binding:"required"`
}

type TierActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type BaseURIRequest struct {
	URI *string `json:"uri" binding:"required"`
}

// Responses

type TokenIDResponse struct {
	TokenID domain.TokenID `json:"token_id"`
}

type TokenResponse struct {
	TokenID  domain.TokenID  `json:"token_id"`
	Owner    *domain.Account `json:"owner"`
	Tier     domain.Tier     `json:"tier"`
	Expiry   domain.Expiry   `json:"expiry"`
	Metadata string          `json:"metadata"`
	URI      string          `json:"uri"`
}

type UpgradeResponse struct {
	TokenID  domain.TokenID  `json:"token_id"`
	Transfer ledger.Transfer `json:"transfer"`
}

type OwnerResponse struct {
	TokenID domain.TokenID `json:"token_id"`
	Owner   domain.Account `json:"owner"`
}

type AccountTokenResponse struct {
	Account domain.Account `json:"account"`
	TokenID domain.TokenID `json:"token_id"`
}

type HistoryResponse struct {
	TokenID domain.TokenID  `json:"token_id"`
	Entries []history.Entry `json:"entries"`
}

type NextTokenIDResponse struct {
	NextTokenID domain.TokenID `json:"next_token_id"`
}

type ConfigResponse struct {
	registry.Settings
	NextTokenID   domain.TokenID   `json:"next_token_id"`
	TimeReference domain.Timestamp `json:"time_reference"`
}

type BalanceResponse struct {
	Account domain.Account `json:"account"`
	Balance domain.Amount  `json:"balance"`
}

type TransferListResponse struct {
	Transfers []ledger.Transfer `json:"items"`
	Total     int               `json:"total"`
}

// ChangeResponse represents a change journal entry
type ChangeResponse struct {
	Cursor    uint64          `json:"cursor"`
	Operation string          `json:"operation"`
	TokenID   *uint64         `json:"token_id,omitempty"`
	Actor     string          `json:"actor"`
	Timestamp uint64          `json:"timestamp"`
	ChangedAt time.Time       `json:"changed_at"`
	Meta      json.RawMessage `json:"meta,omitempty"`
}

// ChangeListResponse represents a paginated list of changes
type ChangeListResponse struct {
	Changes    []ChangeResponse `json:"items"`
	NextAnchor *uint64          `json:"next_anchor,omitempty"` // cursor of the last item when more changes follow
	Total      uint64           `json:"total"`
}

// MapChangeToDTO maps a schema.ChangesJournal to ChangeResponse
func MapChangeToDTO(change *schema.ChangesJournal) ChangeResponse {
	dto := ChangeResponse{
		Cursor:    uint64(change.Cursor), //nolint:gosec,G115
		Operation: change.Operation,
		TokenID:   change.TokenID,
		Actor:     change.Actor,
		Timestamp: uint64(change.Timestamp), //nolint:gosec,G115
		ChangedAt: change.ChangedAt,
	}

	if change.Meta != nil {
		dto.Meta = json.RawMessage(change.Meta)
	}

	return dto
}
