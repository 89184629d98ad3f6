package graphql_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-tier-pass/internal/adapter"
	"github.com/feral-file/ff-tier-pass/internal/api/graphql"
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
)

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Path       []any          `json:"path"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func setupTestAPI(t *testing.T) (*gin.Engine, *service.Service) {
	t.Helper()

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
	graphql.SetupRoutes(router, graphql.NewHandler(svc))
	return router, svc
}

func query(t *testing.T, router *gin.Engine, document string, variables map[string]any) (int, response) {
	t.Helper()

	body, err := json.Marshal(map[string]any{"query": document, "variables": variables})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func TestQueryToken(t *testing.T) {
	router, svc := setupTestAPI(t)
	ctx := context.Background()

	_, err := svc.Mint(ctx, alice, 1, "alice pass")
	require.NoError(t, err)

	status, resp := query(t, router, `
		query Token($id: Uint64!) {
			token(id: $id) { id owner tier expiry metadata uri history { action actor } }
			missing: token(id: "9") { id }
			tokenOf(account: " alice ") { id }
		}`, map[string]any{"id": "1"})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{
		"token": {
			"id": "1",
			"owner": "alice",
			"tier": 1,
			"expiry": null,
			"metadata": "alice pass",
			"uri": "https://pass.example/1",
			"history": [{"action": "mint", "actor": "alice"}]
		},
		"missing": null,
		"tokenOf": {"id": "1"}
	}`, string(resp.Data))

	// field order follows the document
	_, resp = query(t, router, `{ token(id: 1) { uri id } }`, nil)
	assert.Equal(t, `{"token":{"uri":"https://pass.example/1","id":"1"}}`, string(resp.Data))
}

func TestQueryConfigAndTiers(t *testing.T) {
	router, svc := setupTestAPI(t)
	require.NoError(t, svc.SetAuthorityContract(context.Background(), admin, "registry"))

	document := `
		query Overview($skipTiers: Boolean!) {
			config { ...settings }
			tiers @skip(if: $skipTiers) { tier price active }
			unknown: tier(tier: 9) { __typename tier price active }
			nextTokenID
			balance(account: "alice")
		}
		fragment settings on Config { admin authority paused mintFee baseURI }`

	status, resp := query(t, router, document, map[string]any{"skipTiers": false})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{
		"config": {"admin": "admin", "authority": "registry", "paused": false, "mintFee": "0", "baseURI": "https://pass.example/"},
		"tiers": [
			{"tier": 1, "price": "1000", "active": true},
			{"tier": 2, "price": "2000", "active": true},
			{"tier": 3, "price": "3000", "active": false}
		],
		"unknown": {"__typename": "Tier", "tier": 9, "price": null, "active": false},
		"nextTokenID": "1",
		"balance": "10000"
	}`, string(resp.Data))

	_, resp = query(t, router, document, map[string]any{"skipTiers": true})
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.NotContains(t, data, "tiers")
	assert.Contains(t, data, "config")
}

func TestQueryLedgerAndChanges(t *testing.T) {
	router, svc := setupTestAPI(t)
	ctx := context.Background()

	_, err := svc.Mint(ctx, alice, 1, "")
	require.NoError(t, err)
	_, err = svc.Mint(ctx, bob, 2, "")
	require.NoError(t, err)
	require.NoError(t, svc.PauseContract(ctx, admin, true))

	status, resp := query(t, router, `{
		transfers(offset: 1, limit: 1) { items { amount from to } total }
		changes(limit: 2) { items { cursor operation actor tokenID } total nextAnchor }
	}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{
		"transfers": {"items": [{"amount": "2000", "from": "bob", "to": "admin"}], "total": 2},
		"changes": {
			"items": [
				{"cursor": "1", "operation": "mint", "actor": "alice", "tokenID": "1"},
				{"cursor": "2", "operation": "mint", "actor": "bob", "tokenID": "2"}
			],
			"total": "3",
			"nextAnchor": "2"
		}
	}`, string(resp.Data))

	_, resp = query(t, router, `query Rest($anchor: Uint64) {
		changes(anchor: $anchor) { items { operation tokenID } total nextAnchor }
	}`, map[string]any{"anchor": "2"})
	assert.JSONEq(t, `{"changes": {"items": [{"operation": "config_update", "tokenID": null}], "total": "1", "nextAnchor": null}}`, string(resp.Data))

	_, resp = query(t, router, `{ changes(operations: ["mint"], tokenIDs: ["2"]) { items { tokenID } total } }`, nil)
	assert.JSONEq(t, `{"changes": {"items": [{"tokenID": "2"}], "total": "1"}}`, string(resp.Data))
}

func TestQueryErrors(t *testing.T) {
	router, _ := setupTestAPI(t)

	tests := []struct {
		name      string
		document  string
		variables map[string]any
		status    int
		code      string
		path      []any
	}{
		{name: "syntax error", document: `{ token(`, status: http.StatusUnprocessableEntity},
		{name: "unknown field", document: `{ owners }`, status: http.StatusUnprocessableEntity},
		{name: "mutation", document: `mutation { mint }`, status: http.StatusUnprocessableEntity},
		{
			name:     "missing variable",
			document: `query($id: Uint64!) { token(id: $id) { id } }`,
			status:   http.StatusUnprocessableEntity,
			code:     "bad_request",
		},
		{
			name:     "blank account",
			document: `{ balance(account: "  ") }`,
			status:   http.StatusOK,
			code:     "validation_failed",
			path:     []any{"balance"},
		},
		{
			name:     "unknown operation filter",
			document: `{ changes(operations: ["teleport"]) { total } }`,
			status:   http.StatusOK,
			code:     "validation_failed",
			path:     []any{"changes"},
		},
		{
			name:     "introspection",
			document: `{ __schema { queryType { name } } }`,
			status:   http.StatusOK,
			code:     "bad_request",
			path:     []any{"__schema"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := query(t, router, tt.document, tt.variables)
			assert.Equal(t, tt.status, status)
			require.NotEmpty(t, resp.Errors)
			if tt.code != "" {
				assert.Equal(t, tt.code, resp.Errors[0].Extensions["code"])
			}
			if tt.path != nil {
				assert.Equal(t, tt.path, resp.Errors[0].Path)
				// a null non-null root field nulls the whole result
				assert.Equal(t, "null", string(resp.Data))
			}
		})
	}
}

func TestQueryOverGet(t *testing.T) {
	router, _ := setupTestAPI(t)

	params := url.Values{}
	params.Set("query", `query Next { nextTokenID }`)
	params.Set("operationName", "Next")

	req := httptest.NewRequest(http.MethodGet, "/graphql?"+params.Encode(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"nextTokenID": "1"}`, string(resp.Data))

	req = httptest.NewRequest(http.MethodGet, "/graphql", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
