package monitor

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenFaucet/internal/model"
)

type staticChains []model.ChainConfig

func (c staticChains) ListChains(context.Context) ([]model.ChainConfig, error) {
	return c, nil
}

type fakeBalances struct {
	mu       sync.Mutex
	calls    int
	balances map[uint64]*big.Int
}

func (f *fakeBalances) Balance(_ context.Context, chainCfg model.ChainConfig) (common.Address, *big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	balance, ok := f.balances[chainCfg.ChainID]
	if !ok {
		return common.Address{}, nil, errors.New("connection refused")
	}
	return common.HexToAddress("0x01"), balance, nil
}

func (f *fakeBalances) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestCheck(t *testing.T) {
	chains := staticChains{
		{Name: "rich", ChainID: 1},
		{Name: "poor", ChainID: 2},
		{Name: "down", ChainID: 3},
	}
	balances := &fakeBalances{balances: map[uint64]*big.Int{
		1: big.NewInt(5_000_000_000_000_000_000),
		2: big.NewInt(1000),
	}}
	m := NewBalanceMonitor(chains, balances, big.NewInt(1_000_000_000_000_000_000), nil)

	reports, err := m.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, uint64(1), reports[0].ChainID)
	assert.False(t, reports[0].Low)
	assert.True(t, reports[1].Low)
	assert.Error(t, reports[2].Err)
}

func TestStartRunsSchedule(t *testing.T) {
	balances := &fakeBalances{balances: map[uint64]*big.Int{1: big.NewInt(1)}}
	m := NewBalanceMonitor(staticChains{{Name: "a", ChainID: 1}}, balances, nil, nil)

	require.NoError(t, m.Start("@every 1s"))
	assert.Error(t, m.Start("@every 1s"))

	assert.Eventually(t, func() bool { return balances.count() > 0 }, 3*time.Second, 50*time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestStartRejectsBadSchedule(t *testing.T) {
	m := NewBalanceMonitor(staticChains{}, &fakeBalances{}, nil, nil)
	assert.Error(t, m.Start("every now and then"))
}
