package distribution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenFaucet/internal/chain"
	"tokenFaucet/internal/chain/chaintest"
	"tokenFaucet/internal/model"
)

func TestDistributeThroughChainPool(t *testing.T) {
	store, _ := seed(t, 2, 1)
	backend := chaintest.NewBackend(1)
	dialer := &chaintest.Dialer{Backends: map[string]*chaintest.Backend{
		"http://chain-1.local": backend,
	}}
	pool := chain.NewPool(chain.PoolConfig{
		Key:         chaintest.Key(t),
		Dial:        dialer.Dial,
		DialTimeout: time.Second,
		Settings:    chain.Settings{PollInterval: 10 * time.Millisecond, ConfirmTimeout: time.Second},
	}, nil)
	defer pool.Close()

	engine := NewEngine(store, FromPool(pool), nil)
	result, err := engine.Distribute(context.Background(), wallet)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	assert.Equal(t, model.PartialSuccess, result.Status)

	confirmed := result.Outcomes[0]
	assert.Equal(t, uint64(1), confirmed.ChainID)
	assert.Equal(t, model.OutcomeConfirmed, confirmed.State)
	require.Len(t, backend.Sent(), 1)
	assert.Equal(t, backend.Sent()[0].Hash().Hex(), confirmed.TxHash)

	failed := result.Outcomes[1]
	assert.Equal(t, uint64(2), failed.ChainID)
	assert.Equal(t, model.OutcomeFailed, failed.State)
	assert.Equal(t, model.ReasonClientUnavailable, failed.Reason)
	assert.ErrorIs(t, failed.Err, model.ErrClientUnavailable)
}

func TestFromPoolReturnsNilClientOnError(t *testing.T) {
	pool := chain.NewPool(chain.PoolConfig{
		Key:  chaintest.Key(t),
		Dial: (&chaintest.Dialer{}).Dial,
	}, nil)

	client, err := FromPool(pool).Client(context.Background(), model.ChainConfig{ChainID: 9, RPCURL: "http://down.local"})
	assert.ErrorIs(t, err, model.ErrClientUnavailable)
	assert.Nil(t, client)
}
