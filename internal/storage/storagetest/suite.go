// Package storagetest holds behavior checks shared by every storage backend.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenFaucet/internal/model"
	"tokenFaucet/internal/storage"
)

// Run exercises store. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("chains", func(t *testing.T) { testChains(t, newStore(t)) })
	t.Run("tokens", func(t *testing.T) { testTokens(t, newStore(t)) })
	t.Run("claims", func(t *testing.T) { testClaims(t, newStore(t)) })
	t.Run("concurrent_claims", func(t *testing.T) { testConcurrentClaims(t, newStore(t)) })
}

func testChains(t *testing.T, store storage.Store) {
	ctx := context.Background()

	require.NoError(t, store.InsertChain(ctx, model.ChainConfig{Name: "Sepolia", ChainID: 11155111, RPCURL: "https://sepolia.example"}))
	require.NoError(t, store.InsertChain(ctx, model.ChainConfig{Name: "Holesky", ChainID: 17000, RPCURL: "https://holesky.example"}))

	err := store.InsertChain(ctx, model.ChainConfig{Name: "again", ChainID: 17000, RPCURL: "https://other.example"})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	chains, err := store.ListChains(ctx)
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, uint64(11155111), chains[0].ChainID)
	assert.Equal(t, uint64(17000), chains[1].ChainID)

	got, err := store.GetChain(ctx, 17000)
	require.NoError(t, err)
	assert.Equal(t, "https://holesky.example", got.RPCURL)

	_, err = store.GetChain(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testTokens(t *testing.T, store storage.Store) {
	ctx := context.Background()

	require.NoError(t, store.InsertChain(ctx, model.ChainConfig{Name: "one", ChainID: 1, RPCURL: "http://one"}))
	require.NoError(t, store.InsertChain(ctx, model.ChainConfig{Name: "two", ChainID: 2, RPCURL: "http://two"}))

	tokenA := model.TokenConfig{Name: "A", Address: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", ChainID: 1, DistributionAmount: "1000000000000000000"}
	tokenB := model.TokenConfig{Name: "B", Address: "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", ChainID: 1, DistributionAmount: "5"}
	tokenA2 := model.TokenConfig{Name: "A", Address: tokenA.Address, ChainID: 2, DistributionAmount: "7"}

	require.NoError(t, store.InsertToken(ctx, tokenA))
	require.NoError(t, store.InsertToken(ctx, tokenB))
	require.NoError(t, store.InsertToken(ctx, tokenA2))
	assert.ErrorIs(t, store.InsertToken(ctx, tokenA), storage.ErrDuplicateKey)

	all, err := store.ListTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.TokenConfig{tokenA, tokenB, tokenA2}, all)

	onOne, err := store.ListTokensByChain(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.TokenConfig{tokenA, tokenB}, onOne)

	got, err := store.GetToken(ctx, tokenA.Address, 2)
	require.NoError(t, err)
	assert.Equal(t, tokenA2, got)

	_, err = store.GetToken(ctx, tokenB.Address, 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testClaims(t *testing.T, store storage.Store) {
	ctx := context.Background()
	claim := model.ClaimRecord{
		ID:            uuid.NewString(),
		IPAddress:     "1.2.3.4",
		WalletAddress: "0x1111111111111111111111111111111111111111",
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.InsertClaim(ctx, claim))

	sameIP := model.ClaimRecord{ID: uuid.NewString(), IPAddress: "1.2.3.4", WalletAddress: "0x2222222222222222222222222222222222222222", CreatedAt: time.Now().UTC()}
	assert.ErrorIs(t, store.InsertClaim(ctx, sameIP), storage.ErrDuplicateKey)

	sameWallet := model.ClaimRecord{ID: uuid.NewString(), IPAddress: "5.6.7.8", WalletAddress: claim.WalletAddress, CreatedAt: time.Now().UTC()}
	assert.ErrorIs(t, store.InsertClaim(ctx, sameWallet), storage.ErrDuplicateKey)

	found, err := store.FindClaim(ctx, "", claim.WalletAddress)
	require.NoError(t, err)
	assert.Equal(t, claim.ID, found.ID)
	assert.True(t, claim.CreatedAt.Equal(found.CreatedAt))

	found, err = store.FindClaim(ctx, "1.2.3.4", "")
	require.NoError(t, err)
	assert.Equal(t, claim.ID, found.ID)

	require.NoError(t, store.DeleteClaim(ctx, claim.ID))
	assert.ErrorIs(t, store.DeleteClaim(ctx, claim.ID), storage.ErrNotFound)

	_, err = store.FindClaim(ctx, "1.2.3.4", claim.WalletAddress)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.InsertClaim(ctx, sameIP))
}

func testConcurrentClaims(t *testing.T, store storage.Store) {
	ctx := context.Background()
	const callers = 16

	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.InsertClaim(ctx, model.ClaimRecord{
				ID:            uuid.NewString(),
				IPAddress:     "10.0.0.1",
				WalletAddress: uuid.NewString(),
				CreatedAt:     time.Now().UTC(),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	}
	assert.Equal(t, 1, succeeded)
}
