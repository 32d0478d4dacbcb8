package distribution

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"tokenFaucet/internal/chain"
	"tokenFaucet/internal/model"
)

// ChainClient is the part of chain.Client the engine drives.
type ChainClient interface {
	Submit(ctx context.Context, token common.Address, recipient common.Address, amount *big.Int) (*chain.PendingTx, error)
	AwaitConfirmation(ctx context.Context, pending *chain.PendingTx) (*types.Receipt, error)
}

// ClientPool hands out one ChainClient per chain.
type ClientPool interface {
	Client(ctx context.Context, chainCfg model.ChainConfig) (ChainClient, error)
}

type chainPool struct {
	pool *chain.Pool
}

// FromPool adapts a chain.Pool to ClientPool.
func FromPool(pool *chain.Pool) ClientPool {
	return chainPool{pool: pool}
}

func (p chainPool) Client(ctx context.Context, chainCfg model.ChainConfig) (ChainClient, error) {
	client, err := p.pool.Client(ctx, chainCfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}
