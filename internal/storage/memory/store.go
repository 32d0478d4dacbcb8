package memory

import (
	"context"
	"fmt"
	"sync"

	"tokenFaucet/internal/model"
	"tokenFaucet/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu sync.RWMutex

	chains       []model.ChainConfig
	chainIndex   map[uint64]int
	tokens       []model.TokenConfig
	tokenIndex   map[string]int
	claims       map[string]model.ClaimRecord
	claimsIP     map[string]string
	claimsWallet map[string]string
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		chainIndex:   make(map[uint64]int),
		tokenIndex:   make(map[string]int),
		claims:       make(map[string]model.ClaimRecord),
		claimsIP:     make(map[string]string),
		claimsWallet: make(map[string]string),
	}
}

func (s *Store) Close() error { return nil }

func tokenKey(address string, chainID uint64) string {
	return fmt.Sprintf("%d:%s", chainID, address)
}

func (s *Store) InsertChain(_ context.Context, chain model.ChainConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.chainIndex[chain.ChainID]; exists {
		return storage.ErrDuplicateKey
	}
	s.chainIndex[chain.ChainID] = len(s.chains)
	s.chains = append(s.chains, chain)
	return nil
}

func (s *Store) GetChain(_ context.Context, chainID uint64) (model.ChainConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.chainIndex[chainID]
	if !ok {
		return model.ChainConfig{}, storage.ErrNotFound
	}
	return s.chains[idx], nil
}

func (s *Store) ListChains(_ context.Context) ([]model.ChainConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ChainConfig{}, s.chains...), nil
}

func (s *Store) InsertToken(_ context.Context, token model.TokenConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chainIndex[token.ChainID]; !ok {
		return fmt.Errorf("chain %d: %w", token.ChainID, storage.ErrNotFound)
	}
	key := tokenKey(token.Address, token.ChainID)
	if _, exists := s.tokenIndex[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.tokenIndex[key] = len(s.tokens)
	s.tokens = append(s.tokens, token)
	return nil
}

func (s *Store) GetToken(_ context.Context, address string, chainID uint64) (model.TokenConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.tokenIndex[tokenKey(address, chainID)]
	if !ok {
		return model.TokenConfig{}, storage.ErrNotFound
	}
	return s.tokens[idx], nil
}

func (s *Store) ListTokens(_ context.Context) ([]model.TokenConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.TokenConfig{}, s.tokens...), nil
}

func (s *Store) ListTokensByChain(_ context.Context, chainID uint64) ([]model.TokenConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TokenConfig, 0)
	for _, token := range s.tokens {
		if token.ChainID == chainID {
			out = append(out, token)
		}
	}
	return out, nil
}

func (s *Store) InsertClaim(_ context.Context, claim model.ClaimRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.claimsIP[claim.IPAddress]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.claimsWallet[claim.WalletAddress]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.claims[claim.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.claims[claim.ID] = claim
	s.claimsIP[claim.IPAddress] = claim.ID
	s.claimsWallet[claim.WalletAddress] = claim.ID
	return nil
}

func (s *Store) DeleteClaim(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.claims, id)
	delete(s.claimsIP, claim.IPAddress)
	delete(s.claimsWallet, claim.WalletAddress)
	return nil
}

func (s *Store) FindClaim(_ context.Context, ipAddress, walletAddress string) (model.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.claimsWallet[walletAddress]; ok && walletAddress != "" {
		return s.claims[id], nil
	}
	if id, ok := s.claimsIP[ipAddress]; ok && ipAddress != "" {
		return s.claims[id], nil
	}
	return model.ClaimRecord{}, storage.ErrNotFound
}
