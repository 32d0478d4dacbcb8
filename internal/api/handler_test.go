package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenFaucet/internal/claim"
	"tokenFaucet/internal/model"
	"tokenFaucet/internal/registry"
	"tokenFaucet/internal/storage/memory"
)

type fakeClaimer struct {
	mu     sync.Mutex
	ips    []string
	err    error
	status model.DistributionStatus
}

func (c *fakeClaimer) Claim(_ context.Context, ip, wallet string) (*model.DistributionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ips = append(c.ips, ip)
	if c.err != nil {
		return nil, c.err
	}
	return &model.DistributionResult{
		Wallet: strings.ToLower(wallet),
		Status: c.status,
		Outcomes: []model.TransactionOutcome{
			{ChainID: 1, Token: "0x1111111111111111111111111111111111111111", Amount: "1000000000000000000", State: model.OutcomeConfirmed, TxHash: "0xabc"},
		},
	}, nil
}

type testEnv struct {
	router  http.Handler
	claimer *fakeClaimer
	guard   *claim.Guard
}

func setupTestHandler(opts Options) *testEnv {
	store := memory.NewStore()
	reg := registry.NewService(store, nil, "http://127.0.0.1:8545", nil)
	claimer := &fakeClaimer{status: model.FullSuccess}
	guard := claim.NewGuard(store, nil)
	handler := NewHandler(reg, claimer, guard, opts.TrustProxy, nil)
	return &testEnv{router: NewRouter(handler, opts), claimer: claimer, guard: guard}
}

func (e *testEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestHealthCheck(t *testing.T) {
	env := setupTestHandler(Options{})

	rr := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = env.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/request-tokens (POST)")
}

func TestPreflight(t *testing.T) {
	env := setupTestHandler(Options{})
	rr := env.do(http.MethodOptions, "/request-tokens", "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestAddChain(t *testing.T) {
	env := setupTestHandler(Options{})

	rr := env.do(http.MethodPost, "/add-chain", `{"name":"Sepolia","chainId":11155111,"rpcUrl":"https://rpc.sepolia.org"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = env.do(http.MethodPost, "/add-chain", `{"name":"Sepolia again","chainId":11155111}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, registry.ErrChainExists.Error(), errorMessage(t, rr))

	rr = env.do(http.MethodPost, "/add-chain", `{"name":"Local","chainId":31337}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(http.MethodGet, "/chains", "", nil)
	var chains []model.ChainConfig
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &chains))
	require.Len(t, chains, 2)
	assert.Equal(t, "http://127.0.0.1:8545", chains[1].RPCURL)
}

func TestAddChainRejectsMalformedBodies(t *testing.T) {
	env := setupTestHandler(Options{})

	bodies := []string{
		``,
		`{"chainId":5}`,
		`{"name":"x","chainId":"five"}`,
		`{"name":"x","chainId":5,"extra":true}`,
		`{"name":"x","chainId":5} {}`,
	}
	for _, body := range bodies {
		rr := env.do(http.MethodPost, "/add-chain", body, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestAddTokenAndLookup(t *testing.T) {
	env := setupTestHandler(Options{})
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/add-chain", `{"name":"Local","chainId":31337}`, nil).Code)

	rr := env.do(http.MethodPost, "/add-token",
		`{"name":"Test","tokenAddress":"0xAbCdEf0123456789aBcDeF0123456789AbCdEf01","decimals":18,"chainId":31337,"amount":"10"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var token model.TokenConfig
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &token))
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", token.Address)
	assert.Equal(t, "10000000000000000000", token.DistributionAmount)

	rr = env.do(http.MethodPost, "/add-token",
		`{"name":"Test","tokenAddress":"0xABCDEF0123456789ABCDEF0123456789ABCDEF01","decimals":18,"chainId":31337,"amount":"1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, registry.ErrTokenExists.Error(), errorMessage(t, rr))

	rr = env.do(http.MethodGet, "/tokens/31337/0xABCDEF0123456789ABCDEF0123456789ABCDEF01", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var found model.TokenConfig
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &found))
	assert.Equal(t, token, found)

	rr = env.do(http.MethodGet, "/tokens/1/0xABCDEF0123456789ABCDEF0123456789ABCDEF01", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(http.MethodPost, "/add-token", `{"tokenAddress":"0x12","decimals":18,"chainId":31337,"amount":"1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminToken(t *testing.T) {
	env := setupTestHandler(Options{AdminToken: "s3cret"})
	body := `{"name":"Local","chainId":31337}`

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/add-chain", body, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/add-chain", body,
		map[string]string{"Authorization": "Bearer wrong"}).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/add-chain", body,
		map[string]string{"Authorization": "Bearer s3cret"}).Code)
}

func TestRequestTokens(t *testing.T) {
	env := setupTestHandler(Options{TrustProxy: true})
	body := `{"walletAddress":"0x1111111111111111111111111111111111111111"}`

	rr := env.do(http.MethodPost, "/request-tokens", body, map[string]string{"X-Real-IP": "1.2.3.4"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result model.DistributionResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, model.FullSuccess, result.Status)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "0xabc", result.Outcomes[0].TxHash)
	assert.Equal(t, []string{"1.2.3.4"}, env.claimer.ips)
}

func TestRequestTokensIgnoresProxyHeaderWhenUntrusted(t *testing.T) {
	env := setupTestHandler(Options{TrustProxy: false})
	body := `{"walletAddress":"0x1111111111111111111111111111111111111111"}`

	rr := env.do(http.MethodPost, "/request-tokens", body, map[string]string{"X-Real-IP": "1.2.3.4"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"192.0.2.1"}, env.claimer.ips)
}

func TestRequestTokensErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"missing wallet", `{}`, nil, http.StatusBadRequest},
		{"already claimed", `{"walletAddress":"0x1111111111111111111111111111111111111111"}`, model.ErrAlreadyClaimed, http.StatusBadRequest},
		{"invalid wallet", `{"walletAddress":"0x11"}`, model.ErrInvalidWallet, http.StatusBadRequest},
		{"nothing to distribute", `{"walletAddress":"0x1111111111111111111111111111111111111111"}`, model.ErrNothingToDistribute, http.StatusBadRequest},
		{"store down", `{"walletAddress":"0x1111111111111111111111111111111111111111"}`, context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupTestHandler(Options{})
			env.claimer.err = tc.err
			rr := env.do(http.MethodPost, "/request-tokens", tc.body, nil)
			assert.Equal(t, tc.status, rr.Code)
			assert.NotEmpty(t, errorMessage(t, rr))
		})
	}
}

func TestAlreadyClaimedMessage(t *testing.T) {
	env := setupTestHandler(Options{})
	env.claimer.err = model.ErrAlreadyClaimed
	rr := env.do(http.MethodPost, "/request-tokens", `{"walletAddress":"0x1111111111111111111111111111111111111111"}`, nil)
	assert.Equal(t, "you have already claimed from the testnet faucet", errorMessage(t, rr))
}

func TestGetClaim(t *testing.T) {
	env := setupTestHandler(Options{})
	wallet := "0x1111111111111111111111111111111111111111"

	rr := env.do(http.MethodGet, "/claims/"+wallet, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"wallet":"`+wallet+`","claimed":false}`, rr.Body.String())

	_, err := env.guard.Reserve(context.Background(), "1.2.3.4", wallet)
	require.NoError(t, err)

	rr = env.do(http.MethodGet, "/claims/"+strings.ToUpper(wallet[2:]), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var status claimStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.True(t, status.Claimed)
	assert.Equal(t, wallet, status.Wallet)
	assert.NotNil(t, status.ClaimedAt)

	rr = env.do(http.MethodGet, "/claims/nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRateLimit(t *testing.T) {
	env := setupTestHandler(Options{RateLimit: 2, RateWindow: time.Hour, TrustProxy: true})
	headers := map[string]string{"X-Real-IP": "9.9.9.9"}

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health", "", headers).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health", "", headers).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(http.MethodGet, "/health", "", headers).Code)

	other := map[string]string{"X-Real-IP": "8.8.8.8"}
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health", "", other).Code)
}
