package storage

import (
	"context"

	"tokenFaucet/internal/model"
)

// RegistryStore holds the chains and tokens the faucet distributes.
// Listings are returned in insertion order.
type RegistryStore interface {
	InsertChain(ctx context.Context, chain model.ChainConfig) error
	GetChain(ctx context.Context, chainID uint64) (model.ChainConfig, error)
	ListChains(ctx context.Context) ([]model.ChainConfig, error)
	InsertToken(ctx context.Context, token model.TokenConfig) error
	GetToken(ctx context.Context, address string, chainID uint64) (model.TokenConfig, error)
	ListTokens(ctx context.Context) ([]model.TokenConfig, error)
	ListTokensByChain(ctx context.Context, chainID uint64) ([]model.TokenConfig, error)
}

// ClaimLedger holds claim records. InsertClaim must fail with ErrDuplicateKey,
// atomically, when the IP address or the wallet address is already present.
type ClaimLedger interface {
	InsertClaim(ctx context.Context, claim model.ClaimRecord) error
	DeleteClaim(ctx context.Context, id string) error
	FindClaim(ctx context.Context, ipAddress, walletAddress string) (model.ClaimRecord, error)
}

// Store is a backend providing both the registry and the ledger.
type Store interface {
	RegistryStore
	ClaimLedger
	Close() error
}

// ResultSink receives finished distributions.
type ResultSink interface {
	PutResult(result *model.DistributionResult) error
}
