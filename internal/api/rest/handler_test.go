package rest_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-tier-pass/internal/adapter"
	"github.com/feral-file/ff-tier-pass/internal/api/middleware"
	"github.com/feral-file/ff-tier-pass/internal/api/rest"
	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/logger"
	"github.com/feral-file/ff-tier-pass/internal/mocks"
	"github.com/feral-file/ff-tier-pass/internal/registry"
	"github.com/feral-file/ff-tier-pass/internal/service"
	"github.com/feral-file/ff-tier-pass/internal/store"
)

func init() {
	_ = logger.Initialize(logger.Config{Debug: true})
	gin.SetMode(gin.TestMode)
}

const (
	admin = "admin"
	alice = "alice"
	bob   = "bob"
	carol = "carol"
)

type testAPI struct {
	router  *gin.Engine
	key     *rsa.PrivateKey
	service *service.Service
}

func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	ctrl := gomock.NewController(t)
	loader := mocks.NewMockGenesisLoader(ctrl)
	loader.EXPECT().Load("genesis.json").Return(&registry.Genesis{
		Admin:   admin,
		BaseURI: "https://pass.example/",
		Tiers: []registry.GenesisTier{
			{Tier: 1, Price: 1000, Active: true},
			{Tier: 2, Price: 2000, Active: true},
			{Tier: 3, Price: 3000, Active: false},
		},
		Balances: map[domain.Account]domain.Amount{alice: 10000, bob: 10000},
	}, nil)

	svc, err := service.New(context.Background(),
		service.Config{GenesisPath: "genesis.json"},
		store.NewMemoryStore(adapter.NewClock()), loader, nil, adapter.NewClock(), adapter.NewJSON())
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	router := gin.New()
	rest.SetupRoutes(router, rest.NewHandler(svc), middleware.AuthConfig{JWTPublicKey: publicPEM}, middleware.RateLimitConfig{})

	return &testAPI{router: router, key: key, service: svc}
}

// do sends a request as caller; an empty caller sends no Authorization header
func (a *testAPI) do(t *testing.T, method, path, caller string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
			Subject:   caller,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString(a.key)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

// assertRejected checks the status and the failure kind carried in the error message
func assertRejected(t *testing.T, w *httptest.ResponseRecorder, status int, kind domain.ErrorKind) {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	decode(t, w, &body)
	assert.Equal(t, string(kind), body.Message)
}

func TestTokenLifecycle(t *testing.T) {
	api := setupTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/tokens", alice, gin.H{"tier": 1, "metadata": "alice pass"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"token_id": 1}`, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/tokens/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"token_id": 1,
		"owner": "alice",
		"tier": 1,
		"expiry": null,
		"metadata": "alice pass",
		"uri": "https://pass.example/1"
	}`, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/v1/tokens/1/upgrade", alice, gin.H{"tier": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"token_id": 1, "transfer": {"amount": 1000, "from": "alice", "to": "admin"}}`, w.Body.String())

	w = api.do(t, http.MethodPut, "/api/v1/tokens/1/metadata", alice, gin.H{"metadata": ""})
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/v1/tokens/1/transfer", alice, gin.H{"recipient": carol})
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/owners/carol/token", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"account": "carol", "token_id": 1}`, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/v1/tokens/1/expiry", carol, gin.H{"expiry": 1000})
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	// expiring tokens cannot move
	w = api.do(t, http.MethodPost, "/api/v1/tokens/1/transfer", carol, gin.H{"recipient": alice})
	assertRejected(t, w, http.StatusConflict, domain.KindLocked)

	w = api.do(t, http.MethodGet, "/api/v1/tokens/1/history", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history rest.HistoryResponse
	decode(t, w, &history)
	actions := make([]domain.HistoryAction, 0, len(history.Entries))
	for _, e := range history.Entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []domain.HistoryAction{
		domain.HistoryActionMint,
		domain.HistoryActionUpgrade,
		domain.HistoryActionMetadataUpdate,
		domain.HistoryActionTransfer,
		domain.HistoryActionExpiryExtend,
	}, actions)

	w = api.do(t, http.MethodDelete, "/api/v1/tokens/1", carol, nil)
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/tokens/1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/tokens/1/history", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token_id": 1, "entries": []}`, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/tokens/next-id", "", nil)
	assert.JSONEq(t, `{"next_token_id": 2}`, w.Body.String())
}

func TestMintRejections(t *testing.T) {
	api := setupTestAPI(t)

	tests := []struct {
		name   string
		caller string
		body   interface{}
		status int
		kind   domain.ErrorKind
	}{
		{name: "inactive tier", caller: alice, body: gin.H{"tier": 3}, status: http.StatusConflict, kind: domain.KindTierNotActive},
		{name: "tier out of range", caller: alice, body: gin.H{"tier": 0}, status: http.StatusUnprocessableEntity, kind: domain.KindInvalidTier},
		{name: "metadata too long", caller: alice, body: gin.H{"tier": 1, "metadata": strings.Repeat("x", 257)}, status: http.StatusUnprocessableEntity, kind: domain.KindMetadataTooLong},
		{name: "no balance", caller: carol, body: gin.H{"tier": 1}, status: http.StatusPaymentRequired, kind: domain.KindInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/v1/tokens", tt.caller, tt.body)
			assertRejected(t, w, tt.status, tt.kind)
		})
	}

	t.Run("unauthenticated", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/tokens", "", gin.H{"tier": 1})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing tier", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/tokens", alice, gin.H{"metadata": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("second mint", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/tokens", bob, gin.H{"tier": 1})
		require.Equal(t, http.StatusCreated, w.Code)
		w = api.do(t, http.MethodPost, "/api/v1/tokens", bob, gin.H{"tier": 2})
		assertRejected(t, w, http.StatusConflict, domain.KindAlreadyOwned)
	})

	t.Run("not owner", func(t *testing.T) {
		w := api.do(t, http.MethodDelete, "/api/v1/tokens/1", alice, nil)
		assertRejected(t, w, http.StatusForbidden, domain.KindNotOwner)
	})

	t.Run("unknown token", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/tokens/99/upgrade", alice, gin.H{"tier": 2})
		assertRejected(t, w, http.StatusNotFound, domain.KindNotFound)
	})

	t.Run("malformed token id", func(t *testing.T) {
		w := api.do(t, http.MethodDelete, "/api/v1/tokens/abc", alice, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	// none of the rejections moved funds
	assert.Equal(t, domain.Amount(10000), api.service.Balance(alice))
	assert.Equal(t, domain.Amount(0), api.service.Balance(carol))
}

func TestAdminEndpoints(t *testing.T) {
	api := setupTestAPI(t)

	t.Run("non admin is rejected", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/admin/pause", alice, gin.H{"paused": true})
		assertRejected(t, w, http.StatusForbidden, domain.KindNotAuthorized)
	})

	t.Run("configuration round trip", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, api.do(t, http.MethodPost, "/api/v1/admin/authority", admin, gin.H{"ref": "council"}).Code)
		require.Equal(t, http.StatusNoContent, api.do(t, http.MethodPost, "/api/v1/admin/mint-fee", admin, gin.H{"fee": 25}).Code)
		require.Equal(t, http.StatusNoContent, api.do(t, http.MethodPost, "/api/v1/admin/base-uri", admin, gin.H{"uri": "ipfs://pass/"}).Code)
		require.Equal(t, http.StatusNoContent, api.do(t, http.MethodPut, "/api/v1/admin/tiers/3/price", admin, gin.H{"price": 3500}).Code)
		require.Equal(t, http.StatusNoContent, api.do(t, http.MethodPut, "/api/v1/admin/tiers/3/active", admin, gin.H{"active": true}).Code)

		w := api.do(t, http.MethodGet, "/api/v1/tiers/3", "", nil)
		assert.JSONEq(t, `{"tier": 3, "price": 3500, "priced": true, "active": true}`, w.Body.String())

		w = api.do(t, http.MethodGet, "/api/v1/config", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"admin": "admin",
			"authority": "council",
			"paused": false,
			"mint_fee": 25,
			"base_uri": "ipfs://pass/",
			"max_tokens": 0,
			"next_token_id": 1,
			"time_reference": 5
		}`, w.Body.String())
	})

	t.Run("invalid amounts", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/admin/mint-fee", admin, gin.H{"fee": 0})
		assertRejected(t, w, http.StatusUnprocessableEntity, domain.KindInvalidAmount)

		w = api.do(t, http.MethodPut, "/api/v1/admin/tiers/1/price", admin, gin.H{"price": -5})
		assertRejected(t, w, http.StatusUnprocessableEntity, domain.KindInvalidAmount)
	})

	t.Run("invalid tier path", func(t *testing.T) {
		w := api.do(t, http.MethodPut, "/api/v1/admin/tiers/abc/active", admin, gin.H{"active": true})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = api.do(t, http.MethodPut, "/api/v1/admin/tiers/4/active", admin, gin.H{"active": true})
		assertRejected(t, w, http.StatusUnprocessableEntity, domain.KindInvalidTier)
	})

	t.Run("pause blocks mint but not admin mint", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, api.do(t, http.MethodPost, "/api/v1/admin/pause", admin, gin.H{"paused": true}).Code)

		w := api.do(t, http.MethodPost, "/api/v1/tokens", alice, gin.H{"tier": 1})
		assertRejected(t, w, http.StatusConflict, domain.KindPaused)

		w = api.do(t, http.MethodPost, "/api/v1/admin/tokens", admin, gin.H{"recipient": alice, "tier": 2, "metadata": "gift", "expiry": 100})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.JSONEq(t, `{"token_id": 1}`, w.Body.String())

		w = api.do(t, http.MethodGet, "/api/v1/tokens/1", "", nil)
		var token rest.TokenResponse
		decode(t, w, &token)
		assert.Equal(t, domain.ExpiresAt(100), token.Expiry)
		assert.Equal(t, domain.Amount(10000), api.service.Balance(alice))
	})
}

func TestBlankAccountsRejected(t *testing.T) {
	api := setupTestAPI(t)
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/tokens", alice, gin.H{"tier": 1}).Code)

	tests := []struct {
		name   string
		method string
		path   string
		caller string
		body   gin.H
	}{
		{name: "transfer recipient", method: http.MethodPost, path: "/api/v1/tokens/1/transfer", caller: alice, body: gin.H{"recipient": "   "}},
		{name: "admin mint recipient", method: http.MethodPost, path: "/api/v1/admin/tokens", caller: admin, body: gin.H{"recipient": "  ", "tier": 1}},
		{name: "authority ref", method: http.MethodPost, path: "/api/v1/admin/authority", caller: admin, body: gin.H{"ref": "\t "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, tt.method, tt.path, tt.caller, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	owner, ok := api.service.OwnerOf(1)
	assert.True(t, ok)
	assert.Equal(t, domain.Account(alice), owner)
	assert.Equal(t, domain.TokenID(2), api.service.NextTokenID())
	assert.Nil(t, api.service.Settings().Authority)
}

func TestLedgerQueries(t *testing.T) {
	api := setupTestAPI(t)

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/tokens", alice, gin.H{"tier": 1}).Code)
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/tokens", bob, gin.H{"tier": 2}).Code)

	w := api.do(t, http.MethodGet, "/api/v1/balances/admin", "", nil)
	assert.JSONEq(t, `{"account": "admin", "balance": 3000}`, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/transfers?limit=1&offset=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items": [{"amount": 2000, "from": "bob", "to": "admin"}], "total": 2}`, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/transfers?offset=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/owners/dave/token", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/tokens/2/owner", "", nil)
	assert.JSONEq(t, `{"token_id": 2, "owner": "bob"}`, w.Body.String())
}

func TestGetChanges(t *testing.T) {
	api := setupTestAPI(t)

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/tokens", alice, gin.H{"tier": 1}).Code)
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/tokens", bob, gin.H{"tier": 1}).Code)
	require.Equal(t, http.StatusNoContent, api.do(t, http.MethodPost, "/api/v1/admin/pause", admin, gin.H{"paused": true}).Code)

	w := api.do(t, http.MethodGet, "/api/v1/changes?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page rest.ChangeListResponse
	decode(t, w, &page)
	assert.Equal(t, uint64(3), page.Total)
	require.Len(t, page.Changes, 2)
	require.NotNil(t, page.NextAnchor)
	assert.Equal(t, page.Changes[1].Cursor, *page.NextAnchor)
	assert.Equal(t, "mint", page.Changes[0].Operation)
	assert.Equal(t, "alice", page.Changes[0].Actor)

	w = api.do(t, http.MethodGet, "/api/v1/changes?anchor="+jsonNumber(*page.NextAnchor), "", nil)
	var remaining rest.ChangeListResponse
	decode(t, w, &remaining)
	require.Len(t, remaining.Changes, 1)
	assert.Equal(t, "config_update", remaining.Changes[0].Operation)
	assert.Equal(t, uint64(1), remaining.Total)
	assert.Nil(t, remaining.NextAnchor)

	w = api.do(t, http.MethodGet, "/api/v1/changes?operation=mint&token_id=2", "", nil)
	var filtered rest.ChangeListResponse
	decode(t, w, &filtered)
	require.Len(t, filtered.Changes, 1)
	require.NotNil(t, filtered.Changes[0].TokenID)
	assert.Equal(t, uint64(2), *filtered.Changes[0].TokenID)

	w = api.do(t, http.MethodGet, "/api/v1/changes?operation=teleport", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func jsonNumber(v uint64) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func TestHealthCheck(t *testing.T) {
	api := setupTestAPI(t)
	w := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok", "service": "tier-pass-api"}`, w.Body.String())
}
