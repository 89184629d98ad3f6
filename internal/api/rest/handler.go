package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-tier-pass/internal/api/middleware"
	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/history"
	"github.com/feral-file/ff-tier-pass/internal/ledger"
	"github.com/feral-file/ff-tier-pass/internal/registry"
	"github.com/feral-file/ff-tier-pass/internal/service"
	"github.com/feral-file/ff-tier-pass/internal/store"
	"github.com/feral-file/ff-tier-pass/internal/store/schema"
)

// Service is the tier pass surface the handlers drive
type Service interface {
	Mint(ctx context.Context, caller domain.Account, tier uint64, metadata string) (domain.TokenID, error)
	AdminMint(ctx context.Context, caller, recipient domain.Account, tier uint64, metadata string, expiry domain.Expiry) (domain.TokenID, error)
	UpgradeTier(ctx context.Context, caller domain.Account, id domain.TokenID, tier uint64, expiry domain.Expiry) (ledger.Transfer, error)
	Burn(ctx context.Context, caller domain.Account, id domain.TokenID) error
	Transfer(ctx context.Context, caller domain.Account, id domain.TokenID, recipient domain.Account) error
	UpdateMetadata(ctx context.Context, caller domain.Account, id domain.TokenID, metadata string) error
	ExtendExpiry(ctx context.Context, caller domain.Account, id domain.TokenID, expiry domain.Timestamp) error

	SetAuthorityContract(ctx context.Context, caller, ref domain.Account) error
	SetMintFee(ctx context.Context, caller domain.Account, fee domain.Amount) error
	PauseContract(ctx context.Context, caller domain.Account, paused bool) error
	SetTierPrice(ctx context.Context, caller domain.Account, tier uint64, price domain.Amount) error
	SetTierActive(ctx context.Context, caller domain.Account, tier uint64, active bool) error
	SetBaseURI(ctx context.Context, caller domain.Account, uri string) error

	OwnerOf(id domain.TokenID) (domain.Account, bool)
	TokenOf(account domain.Account) (domain.TokenID, bool)
	TokenInfo(id domain.TokenID) (domain.TokenInfo, bool)
	Tier(tier uint64) service.TierView
	History(id domain.TokenID) []history.Entry
	NextTokenID() domain.TokenID
	TokenURI(id domain.TokenID) (string, bool)
	Settings() registry.Settings
	Balance(account domain.Account) domain.Amount
	Transfers() []ledger.Transfer
	Now() domain.Timestamp
	Changes(ctx context.Context, filter store.ChangesQueryFilter) ([]*schema.ChangesJournal, uint64, error)
}

// Handler defines the REST API handlers
type Handler interface {
	// Mint creates a token for the caller
	// POST /api/v1/tokens
	Mint(c *gin.Context)
	// UpgradeTier raises the tier of the caller's token
	// POST /api/v1/tokens/:id/upgrade
	UpgradeTier(c *gin.Context)
	// Burn destroys the caller's token
	// DELETE /api/v1/tokens/:id
	Burn(c *gin.Context)
	// Transfer moves the caller's token to a recipient
	// POST /api/v1/tokens/:id/transfer
	Transfer(c *gin.Context)
	// UpdateMetadata replaces the metadata of the caller's token
	// PUT /api/v1/tokens/:id/metadata
	UpdateMetadata(c *gin.Context)
	// ExtendExpiry pushes the expiry of the caller's token later
	// POST /api/v1/tokens/:id/expiry
	ExtendExpiry(c *gin.Context)

	// AdminMint creates a token for a recipient without payment
	// POST /api/v1/admin/tokens
	AdminMint(c *gin.Context)
	// SetAuthority records the authority reference
	// POST /api/v1/admin/authority
	SetAuthority(c *gin.Context)
	// SetMintFee records the mint fee
	// POST /api/v1/admin/mint-fee
	SetMintFee(c *gin.Context)
	// Pause sets the pause flag
	// POST /api/v1/admin/pause
	Pause(c *gin.Context)
	// SetTierPrice sets the price of a tier
	// PUT /api/v1/admin/tiers/:tier/price
	SetTierPrice(c *gin.Context)
	// SetTierActive opens or closes a tier
	// PUT /api/v1/admin/tiers/:tier/active
	SetTierActive(c *gin.Context)
	// SetBaseURI sets the token URI prefix
	// POST /api/v1/admin/base-uri
	SetBaseURI(c *gin.Context)

	// GetToken returns tier info, owner and URI of a token
	// GET /api/v1/tokens/:id
	GetToken(c *gin.Context)
	// GetOwner returns the owner of a token
	// GET /api/v1/tokens/:id/owner
	GetOwner(c *gin.Context)
	// GetHistory returns the retained history of a token
	// GET /api/v1/tokens/:id/history
	GetHistory(c *gin.Context)
	// GetNextTokenID returns the id the next mint assigns
	// GET /api/v1/tokens/next-id
	GetNextTokenID(c *gin.Context)
	// GetAccountToken returns the token bound to an account
	// GET /api/v1/owners/:account/token
	GetAccountToken(c *gin.Context)
	// GetTier returns price and availability of a tier
	// GET /api/v1/tiers/:tier
	GetTier(c *gin.Context)
	// GetConfig returns the admin configuration
	// GET /api/v1/config
	GetConfig(c *gin.Context)
	// GetBalance returns the ledger balance of an account
	// GET /api/v1/balances/:account
	GetBalance(c *gin.Context)
	// ListTransfers returns the settlement transfer log
	// GET /api/v1/transfers?limit=<limit>&offset=<offset>
	ListTransfers(c *gin.Context)
	// GetChanges returns the operation journal in cursor order
	// GET /api/v1/changes?token_id=<id>&operation=<type>&anchor=<cursor>&limit=<limit>
	GetChanges(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	service Service
}

// NewHandler creates a new REST API handler
func NewHandler(svc Service) Handler {
	return &handler{service: svc}
}

// caller returns the authenticated account, responding 401 when there is none
func caller(c *gin.Context) (domain.Account, bool) {
	account, ok := middleware.Caller(c)
	if !ok {
		respondUnauthorized(c, "Authentication required")
		return "", false
	}
	return account, true
}

// tokenParam parses the :id path parameter
func tokenParam(c *gin.Context) (domain.TokenID, bool) {
	id, err := domain.ParseTokenID(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid token id", err.Error())
		return 0, false
	}
	return id, true
}

// tierParam parses the :tier path parameter. Range checks are left to the operations.
func tierParam(c *gin.Context) (uint64, bool) {
	tier, err := strconv.ParseUint(c.Param("tier"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Invalid tier", err.Error())
		return 0, false
	}
	return tier, true
}

// accountParam parses the :account path parameter
func accountParam(c *gin.Context) (domain.Account, bool) {
	account := domain.NormalizeAccount(c.Param("account"))
	if account.IsZero() {
		respondBadRequest(c, "Account is required")
		return "", false
	}
	return account, true
}

// bodyAccount normalizes an account from the request body; blank values are rejected
func bodyAccount(c *gin.Context, field, value string) (domain.Account, bool) {
	account := domain.NormalizeAccount(value)
	if account.IsZero() {
		respondBadRequest(c, "Invalid request body", field+" must not be blank")
		return "", false
	}
	return account, true
}

// bind decodes the JSON body into req
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return false
	}
	return true
}

// Mint creates a token for the caller
func (h *handler) Mint(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	var req MintRequest
	if !bind(c, &req) {
		return
	}

	id, err := h.service.Mint(c.Request.Context(), account, *req.Tier, req.Metadata)
	if err != nil {
		respondOperationError(c, err, "mint token")
		return
	}

	c.JSON(http.StatusCreated, TokenIDResponse{TokenID: id})
}

// UpgradeTier raises the tier of the caller's token
func (h *handler) UpgradeTier(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	var req UpgradeRequest
	if !bind(c, &req) {
		return
	}

	transfer, err := h.service.UpgradeTier(c.Request.Context(), account, id, *req.Tier, req.Expiry)
	if err != nil {
		respondOperationError(c, err, "upgrade token")
		return
	}

	c.JSON(http.StatusOK, UpgradeResponse{TokenID: id, Transfer: transfer})
}

// Burn destroys the caller's token
func (h *handler) Burn(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	id, ok := tokenParam(c)
	if !ok {
		return
	}

	if err := h.service.Burn(c.Request.Context(), account, id); err != nil {
		respondOperationError(c, err, "burn token")
		return
	}

	c.Status(http.StatusNoContent)
}

// Transfer moves the caller's token to a recipient
func (h *handler) Transfer(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	var req TransferRequest
	if !bind(c, &req) {
		return
	}
	recipient, ok := bodyAccount(c, "recipient", req.Recipient)
	if !ok {
		return
	}

	if err := h.service.Transfer(c.Request.Context(), account, id, recipient); err != nil {
		respondOperationError(c, err, "transfer token")
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateMetadata replaces the metadata of the caller's token
func (h *handler) UpdateMetadata(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	var req MetadataRequest
	if !bind(c, &req) {
		return
	}

	if err := h.service.UpdateMetadata(c.Request.Context(), account, id, *req.Metadata); err != nil {
		respondOperationError(c, err, "update metadata")
		return
	}

	c.Status(http.StatusNoContent)
}

// ExtendExpiry pushes the expiry of the caller's token later
func (h *handler) ExtendExpiry(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	var req ExpiryRequest
	if !bind(c, &req) {
		return
	}

	if err := h.service.ExtendExpiry(c.Request.Context(), account, id, *req.Expiry); err != nil {
		respondOperationError(c, err, "extend expiry")
		return
	}

	c.Status(http.StatusNoContent)
}

// AdminMint creates a token for a recipient without payment
func (h *handler) AdminMint(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	var req AdminMintRequest
	if !bind(c, &req) {
		return
	}

	recipient, ok := bodyAccount(c, "recipient", req.Recipient)
	if !ok {
		return
	}

	id, err := h.service.AdminMint(c.Request.Context(), account, recipient, *req.Tier, req.Metadata, req.Expiry)
	if err != nil {
		respondOperationError(c, err, "admin mint token")
		return
	}

	c.JSON(http.StatusCreated, TokenIDResponse{TokenID: id})
}

// SetAuthority records the authority reference
func (h *handler) SetAuthority(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	var req AuthorityRequest
	if !bind(c, &req) {
		return
	}
	ref, ok := bodyAccount(c, "ref", req.Ref)
	if !ok {
		return
	}

	if err := h.service.SetAuthorityContract(c.Request.Context(), account, ref); err != nil {
		respondOperationError(c, err, "set authority")
		return
	}

	c.Status(http.StatusNoContent)
}

// SetMintFee records the mint fee
func (h *handler) SetMintFee(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	var req MintFeeRequest
	if !bind(c, &req) {
		return
	}

	if err := h.service.SetMintFee(c.Request.Context(), account, *req.Fee); err != nil {
		respondOperationError(c, err, "set mint fee")
		return
	}

	c.Status(http.StatusNoContent)
}

// Pause sets the pause flag
func (h *handler) Pause(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	var req PauseRequest
	if !bind(c, &req) {
		return
	}

	if err := h.service.PauseContract(c.Request.Context(), account, *req.Paused); err != nil {
		respondOperationError(c, err, "set pause flag")
		return
	}

	c.Status(http.StatusNoContent)
}

// SetTierPrice sets the price of a tier
func (h *handler) SetTierPrice(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	tier, ok := tierParam(c)
	if !ok {
		return
	}
	var req TierPriceRequest
	if !bind(c, &req) {
		return
	}

	if err := h.service.SetTierPrice(c.Request.Context(), account, tier, *req.Price); err != nil {
		respondOperationError(c, err, "set tier price")
		return
	}

	c.Status(http.StatusNoContent)
}

// SetTierActive opens or closes a tier
func (h *handler) SetTierActive(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	tier, ok := tierParam(c)
	if !ok {
		return
	}
	var req TierActiveRequest
	if !bind(c, &req) {
		return
	}

	if err := h.service.SetTierActive(c.Request.Context(), account, tier, *req.Active); err != nil {
		respondOperationError(c, err, "set tier active")
		return
	}

	c.Status(http.StatusNoContent)
}

// SetBaseURI sets the token URI prefix
func (h *handler) SetBaseURI(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	var req BaseURIRequest
	if !bind(c, &req) {
		return
	}

	if err := h.service.SetBaseURI(c.Request.Context(), account, *req.URI); err != nil {
		respondOperationError(c, err, "set base uri")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetToken returns tier info, owner and URI of a token
func (h *handler) GetToken(c *gin.Context) {
	id, ok := tokenParam(c)
	if !ok {
		return
	}

	info, ok := h.service.TokenInfo(id)
	if !ok {
		respondNotFound(c, "Token not found")
		return
	}
	uri, _ := h.service.TokenURI(id)

	resp := TokenResponse{
		TokenID:  id,
		Tier:     info.Tier,
		Expiry:   info.Expiry,
		Metadata: info.Metadata,
		URI:      uri,
	}
	if owner, ok := h.service.OwnerOf(id); ok {
		resp.Owner = &owner
	}

	c.JSON(http.StatusOK, resp)
}

// GetOwner returns the owner of a token
func (h *handler) GetOwner(c *gin.Context) {
	id, ok := tokenParam(c)
	if !ok {
		return
	}

	owner, ok := h.service.OwnerOf(id)
	if !ok {
		respondNotFound(c, "Token not found")
		return
	}

	c.JSON(http.StatusOK, OwnerResponse{TokenID: id, Owner: owner})
}

// GetHistory returns the retained history of a token. Unknown tokens have an empty history.
func (h *handler) GetHistory(c *gin.Context) {
	id, ok := tokenParam(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{TokenID: id, Entries: h.service.History(id)})
}

// GetNextTokenID returns the id the next mint assigns
func (h *handler) GetNextTokenID(c *gin.Context) {
	c.JSON(http.StatusOK, NextTokenIDResponse{NextTokenID: h.service.NextTokenID()})
}

// GetAccountToken returns the token bound to an account
func (h *handler) GetAccountToken(c *gin.Context) {
	account, ok := accountParam(c)
	if !ok {
		return
	}

	id, ok := h.service.TokenOf(account)
	if !ok {
		respondNotFound(c, "Account holds no token", account.String())
		return
	}

	c.JSON(http.StatusOK, AccountTokenResponse{Account: account, TokenID: id})
}

// GetTier returns price and availability of a tier
func (h *handler) GetTier(c *gin.Context) {
	tier, ok := tierParam(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.service.Tier(tier))
}

// GetConfig returns the admin configuration
func (h *handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, ConfigResponse{
		Settings:      h.service.Settings(),
		NextTokenID:   h.service.NextTokenID(),
		TimeReference: h.service.Now(),
	})
}

// GetBalance returns the ledger balance of an account
func (h *handler) GetBalance(c *gin.Context) {
	account, ok := accountParam(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{Account: account, Balance: h.service.Balance(account)})
}

// ListTransfers returns a page of the settlement transfer log in insertion order
func (h *handler) ListTransfers(c *gin.Context) {
	params, err := ParseListTransfersQuery(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}

	transfers := h.service.Transfers()
	total := len(transfers)
	start := min(params.Offset, total)
	end := min(start+params.Limit, total)

	c.JSON(http.StatusOK, TransferListResponse{Transfers: transfers[start:end], Total: total})
}

// GetChanges returns the operation journal in cursor order
func (h *handler) GetChanges(c *gin.Context) {
	params, err := ParseGetChangesQuery(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}
	filter, err := params.Filter()
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}

	changes, total, err := h.service.Changes(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, err, "Failed to get changes")
		return
	}

	resp := ChangeListResponse{
		Changes: make([]ChangeResponse, 0, len(changes)),
		Total:   total,
	}
	for _, change := range changes {
		resp.Changes = append(resp.Changes, MapChangeToDTO(change))
	}
	if n := len(resp.Changes); n > 0 && uint64(n) < total {
		anchor := resp.Changes[n-1].Cursor
		resp.NextAnchor = &anchor
	}

	c.JSON(http.StatusOK, resp)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "tier-pass-api",
	})
}

var _ Service = (*service.Service)(nil)
