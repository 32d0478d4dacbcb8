// Package bolt is an embedded, single-process storage backend on bbolt.
// Every write runs in one bbolt read-write transaction, which bbolt serializes.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"tokenFaucet/internal/model"
	"tokenFaucet/internal/storage"
)

var (
	bucketChains       = []byte("chains")
	bucketChainsByID   = []byte("chains_by_id")
	bucketTokens       = []byte("tokens")
	bucketTokensByKey  = []byte("tokens_by_key")
	bucketClaims       = []byte("claims")
	bucketClaimsIP     = []byte("claims_by_ip")
	bucketClaimsWallet = []byte("claims_by_wallet")
)

// Store implements storage.Store on a bbolt file.
type Store struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("bolt: create directory: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("bolt: open: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketChains, bucketChainsByID, bucketTokens, bucketTokensByKey, bucketClaims, bucketClaimsIP, bucketClaimsWallet} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt: create buckets: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func seqKey(n uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, n)
	return k
}

func tokenKey(address string, chainID uint64) []byte {
	return []byte(fmt.Sprintf("%d:%s", chainID, address))
}

func (s *Store) InsertChain(_ context.Context, chain model.ChainConfig) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		byID := tx.Bucket(bucketChainsByID)
		if byID.Get(seqKey(chain.ChainID)) != nil {
			return storage.ErrDuplicateKey
		}
		chains := tx.Bucket(bucketChains)
		seq, err := chains.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(chain)
		if err != nil {
			return fmt.Errorf("marshal chain: %w", err)
		}
		if err := chains.Put(seqKey(seq), data); err != nil {
			return err
		}
		return byID.Put(seqKey(chain.ChainID), seqKey(seq))
	})
}

func (s *Store) GetChain(_ context.Context, chainID uint64) (model.ChainConfig, error) {
	var chain model.ChainConfig
	err := s.db.View(func(tx *bbolt.Tx) error {
		seq := tx.Bucket(bucketChainsByID).Get(seqKey(chainID))
		if seq == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(tx.Bucket(bucketChains).Get(seq), &chain)
	})
	return chain, err
}

func (s *Store) ListChains(_ context.Context) ([]model.ChainConfig, error) {
	out := make([]model.ChainConfig, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChains).ForEach(func(_, v []byte) error {
			var chain model.ChainConfig
			if err := json.Unmarshal(v, &chain); err != nil {
				return fmt.Errorf("decode chain: %w", err)
			}
			out = append(out, chain)
			return nil
		})
	})
	return out, err
}

func (s *Store) InsertToken(_ context.Context, token model.TokenConfig) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketChainsByID).Get(seqKey(token.ChainID)) == nil {
			return fmt.Errorf("chain %d: %w", token.ChainID, storage.ErrNotFound)
		}
		byKey := tx.Bucket(bucketTokensByKey)
		key := tokenKey(token.Address, token.ChainID)
		if byKey.Get(key) != nil {
			return storage.ErrDuplicateKey
		}
		tokens := tx.Bucket(bucketTokens)
		seq, err := tokens.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(token)
		if err != nil {
			return fmt.Errorf("marshal token: %w", err)
		}
		if err := tokens.Put(seqKey(seq), data); err != nil {
			return err
		}
		return byKey.Put(key, seqKey(seq))
	})
}

func (s *Store) GetToken(_ context.Context, address string, chainID uint64) (model.TokenConfig, error) {
	var token model.TokenConfig
	err := s.db.View(func(tx *bbolt.Tx) error {
		seq := tx.Bucket(bucketTokensByKey).Get(tokenKey(address, chainID))
		if seq == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(tx.Bucket(bucketTokens).Get(seq), &token)
	})
	return token, err
}

func (s *Store) ListTokens(ctx context.Context) ([]model.TokenConfig, error) {
	return s.listTokens(func(model.TokenConfig) bool { return true })
}

func (s *Store) ListTokensByChain(_ context.Context, chainID uint64) ([]model.TokenConfig, error) {
	return s.listTokens(func(t model.TokenConfig) bool { return t.ChainID == chainID })
}

func (s *Store) listTokens(keep func(model.TokenConfig) bool) ([]model.TokenConfig, error) {
	out := make([]model.TokenConfig, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTokens).ForEach(func(_, v []byte) error {
			var token model.TokenConfig
			if err := json.Unmarshal(v, &token); err != nil {
				return fmt.Errorf("decode token: %w", err)
			}
			if keep(token) {
				out = append(out, token)
			}
			return nil
		})
	})
	return out, err
}

func (s *Store) InsertClaim(_ context.Context, claim model.ClaimRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		claims := tx.Bucket(bucketClaims)
		byIP := tx.Bucket(bucketClaimsIP)
		byWallet := tx.Bucket(bucketClaimsWallet)
		if byIP.Get([]byte(claim.IPAddress)) != nil ||
			byWallet.Get([]byte(claim.WalletAddress)) != nil ||
			claims.Get([]byte(claim.ID)) != nil {
			return storage.ErrDuplicateKey
		}
		data, err := json.Marshal(claim)
		if err != nil {
			return fmt.Errorf("marshal claim: %w", err)
		}
		if err := claims.Put([]byte(claim.ID), data); err != nil {
			return err
		}
		if err := byIP.Put([]byte(claim.IPAddress), []byte(claim.ID)); err != nil {
			return err
		}
		return byWallet.Put([]byte(claim.WalletAddress), []byte(claim.ID))
	})
}

func (s *Store) DeleteClaim(_ context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		claims := tx.Bucket(bucketClaims)
		data := claims.Get([]byte(id))
		if data == nil {
			return storage.ErrNotFound
		}
		var claim model.ClaimRecord
		if err := json.Unmarshal(data, &claim); err != nil {
			return fmt.Errorf("decode claim: %w", err)
		}
		if err := tx.Bucket(bucketClaimsIP).Delete([]byte(claim.IPAddress)); err != nil {
			return err
		}
		if err := tx.Bucket(bucketClaimsWallet).Delete([]byte(claim.WalletAddress)); err != nil {
			return err
		}
		return claims.Delete([]byte(id))
	})
}

func (s *Store) FindClaim(_ context.Context, ipAddress, walletAddress string) (model.ClaimRecord, error) {
	var claim model.ClaimRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		var id []byte
		if walletAddress != "" {
			id = tx.Bucket(bucketClaimsWallet).Get([]byte(walletAddress))
		}
		if id == nil && ipAddress != "" {
			id = tx.Bucket(bucketClaimsIP).Get([]byte(ipAddress))
		}
		if id == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(tx.Bucket(bucketClaims).Get(id), &claim)
	})
	return claim, err
}
