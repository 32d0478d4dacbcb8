package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tokenFaucet/internal/model"
	"tokenFaucet/internal/registry"
)

const welcome = "Welcome to the token faucet API.\n\nTry one of the following routes:\n" +
	"\t/chains (GET)\n\t/tokens (GET)\n\t/add-chain (POST)\n\t/add-token (POST)\n\t/request-tokens (POST)\n"

// Registry is the chain and token registry the handlers manage.
type Registry interface {
	AddChain(ctx context.Context, req registry.AddChainRequest) (model.ChainConfig, error)
	AddToken(ctx context.Context, req registry.AddTokenRequest) (model.TokenConfig, error)
	Chains(ctx context.Context) ([]model.ChainConfig, error)
	Tokens(ctx context.Context) ([]model.TokenConfig, error)
	Token(ctx context.Context, address string, chainID uint64) (model.TokenConfig, error)
}

// Claimer runs a claim end to end.
type Claimer interface {
	Claim(ctx context.Context, ip, wallet string) (*model.DistributionResult, error)
}

// ClaimLookup reports past claims.
type ClaimLookup interface {
	Lookup(ctx context.Context, wallet string) (model.ClaimRecord, bool, error)
}

type Handler struct {
	registry   Registry
	claims     Claimer
	lookup     ClaimLookup
	trustProxy bool
	logger     *zap.Logger
}

func NewHandler(reg Registry, claims Claimer, lookup ClaimLookup, trustProxy bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		registry:   reg,
		claims:     claims,
		lookup:     lookup,
		trustProxy: trustProxy,
		logger:     logger,
	}
}

func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(welcome))
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListChains(w http.ResponseWriter, r *http.Request) {
	chains, err := h.registry.Chains(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if chains == nil {
		chains = []model.ChainConfig{}
	}
	writeJSON(w, http.StatusOK, chains)
}

func (h *Handler) ListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.registry.Tokens(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if tokens == nil {
		tokens = []model.TokenConfig{}
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chainID, err := strconv.ParseUint(vars["chainId"], 10, 64)
	if err != nil {
		writeError(w, h.logger, model.ErrInvalidRequest)
		return
	}
	token, err := h.registry.Token(r.Context(), vars["address"], chainID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *Handler) AddChain(w http.ResponseWriter, r *http.Request) {
	var body addChainRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req, err := body.validate()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	chainCfg, err := h.registry.AddChain(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, chainCfg)
}

func (h *Handler) AddToken(w http.ResponseWriter, r *http.Request) {
	var body addTokenRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req, err := body.validate()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	token, err := h.registry.AddToken(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *Handler) RequestTokens(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r, h.trustProxy)
	h.logger.Info("tokens requested", zap.String("ip", ip))

	var body requestTokensRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := body.validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.claims.Claim(r.Context(), ip, body.WalletAddress)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type claimStatus struct {
	Wallet    string     `json:"wallet"`
	Claimed   bool       `json:"claimed"`
	ClaimedAt *time.Time `json:"claimedAt,omitempty"`
}

func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	wallet := mux.Vars(r)["wallet"]
	record, found, err := h.lookup.Lookup(r.Context(), wallet)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	status := claimStatus{Wallet: wallet, Claimed: found}
	if found {
		status.Wallet = record.WalletAddress
		status.ClaimedAt = &record.CreatedAt
	}
	writeJSON(w, http.StatusOK, status)
}
