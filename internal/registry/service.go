package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"tokenFaucet/internal/chain"
	"tokenFaucet/internal/model"
	"tokenFaucet/internal/storage"
)

var (
	ErrChainExists = errors.New("this chain has already been added")
	ErrTokenExists = errors.New("this token on this chain has already been added")
)

// DecimalsSource reads decimals() from a token contract.
type DecimalsSource interface {
	TokenDecimals(ctx context.Context, chainCfg model.ChainConfig, token common.Address) (uint8, error)
}

// AddChainRequest is the input for AddChain.
type AddChainRequest struct {
	Name    string
	ChainID uint64
	RPCURL  string
}

// AddTokenRequest is the input for AddToken. A nil Decimals is read from the contract.
type AddTokenRequest struct {
	Name         string
	TokenAddress string
	Decimals     *uint8
	ChainID      uint64
	Amount       string
}

// Service manages the chain and token registry.
type Service struct {
	store      storage.RegistryStore
	decimals   DecimalsSource
	defaultRPC string
	logger     *zap.Logger
}

func NewService(store storage.RegistryStore, decimals DecimalsSource, defaultRPC string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		decimals:   decimals,
		defaultRPC: defaultRPC,
		logger:     logger,
	}
}

// AddChain validates and inserts a chain. Chains are unique by chain id.
func (s *Service) AddChain(ctx context.Context, req AddChainRequest) (model.ChainConfig, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.ChainConfig{}, fmt.Errorf("%w: chain name is required", model.ErrInvalidConfiguration)
	}
	if req.ChainID == 0 {
		return model.ChainConfig{}, fmt.Errorf("%w: chain id is required", model.ErrInvalidConfiguration)
	}
	rpcURL := strings.TrimSpace(req.RPCURL)
	if rpcURL == "" {
		rpcURL = s.defaultRPC
	}
	if err := chain.ValidateRPCURL(rpcURL); err != nil {
		return model.ChainConfig{}, fmt.Errorf("%w: %v", model.ErrInvalidConfiguration, err)
	}

	chainCfg := model.ChainConfig{Name: name, ChainID: req.ChainID, RPCURL: rpcURL}
	if err := s.store.InsertChain(ctx, chainCfg); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return model.ChainConfig{}, ErrChainExists
		}
		return model.ChainConfig{}, err
	}

	s.logger.Info("chain added",
		zap.String("name", chainCfg.Name),
		zap.Uint64("chain_id", chainCfg.ChainID),
	)
	return chainCfg, nil
}

// AddToken validates, normalizes and inserts a token. Tokens are unique by (address, chain id).
func (s *Service) AddToken(ctx context.Context, req AddTokenRequest) (model.TokenConfig, error) {
	address, err := NormalizeAddress(req.TokenAddress)
	if err != nil {
		return model.TokenConfig{}, fmt.Errorf("%w: invalid token address", model.ErrInvalidConfiguration)
	}

	chainCfg, err := s.store.GetChain(ctx, req.ChainID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.TokenConfig{}, fmt.Errorf("%w: chain %d is not registered", model.ErrInvalidConfiguration, req.ChainID)
		}
		return model.TokenConfig{}, err
	}

	if _, err := s.store.GetToken(ctx, address, req.ChainID); err == nil {
		return model.TokenConfig{}, ErrTokenExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return model.TokenConfig{}, err
	}

	decimals, err := s.resolveDecimals(ctx, chainCfg, address, req.Decimals)
	if err != nil {
		return model.TokenConfig{}, err
	}

	amount, err := ParseUnits(req.Amount, decimals)
	if err != nil {
		return model.TokenConfig{}, fmt.Errorf("%w: %v", model.ErrInvalidConfiguration, err)
	}
	if amount.Sign() <= 0 {
		return model.TokenConfig{}, fmt.Errorf("%w: amount must be positive", model.ErrInvalidConfiguration)
	}

	token := model.TokenConfig{
		Name:               strings.TrimSpace(req.Name),
		Address:            address,
		ChainID:            req.ChainID,
		DistributionAmount: amount.String(),
	}
	if err := s.store.InsertToken(ctx, token); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return model.TokenConfig{}, ErrTokenExists
		}
		return model.TokenConfig{}, err
	}

	s.logger.Info("token added",
		zap.String("name", token.Name),
		zap.String("address", token.Address),
		zap.Uint64("chain_id", token.ChainID),
		zap.String("amount", token.DistributionAmount),
	)
	return token, nil
}

func (s *Service) resolveDecimals(ctx context.Context, chainCfg model.ChainConfig, address string, given *uint8) (uint8, error) {
	if given != nil {
		return *given, nil
	}
	if s.decimals == nil {
		return 0, fmt.Errorf("%w: decimals are required", model.ErrInvalidConfiguration)
	}
	decimals, err := s.decimals.TokenDecimals(ctx, chainCfg, common.HexToAddress(address))
	if err != nil {
		return 0, fmt.Errorf("%w: read token decimals: %v", model.ErrInvalidConfiguration, err)
	}
	return decimals, nil
}

// Chains lists every registered chain.
func (s *Service) Chains(ctx context.Context) ([]model.ChainConfig, error) {
	return s.store.ListChains(ctx)
}

// Tokens lists every registered token.
func (s *Service) Tokens(ctx context.Context) ([]model.TokenConfig, error) {
	return s.store.ListTokens(ctx)
}

// Token looks a token up by address in any letter case.
func (s *Service) Token(ctx context.Context, address string, chainID uint64) (model.TokenConfig, error) {
	normalized, err := NormalizeAddress(address)
	if err != nil {
		return model.TokenConfig{}, fmt.Errorf("%w: invalid token address", model.ErrInvalidRequest)
	}
	return s.store.GetToken(ctx, normalized, chainID)
}
