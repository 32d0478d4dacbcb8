package chain

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tokenFaucet/internal/model"
)

// Dialer opens a backend for an RPC endpoint.
type Dialer func(ctx context.Context, rpcURL string) (Backend, error)

// PoolConfig configures a Pool.
type PoolConfig struct {
	Key         *Key
	Settings    Settings
	Dial        Dialer
	DialTimeout time.Duration
}

// Pool owns one Client per chain, created on first use. Concurrent callers
// for the same chain share a single in-flight dial.
type Pool struct {
	cfg    PoolConfig
	logger *zap.Logger
	group  singleflight.Group

	mu      sync.Mutex
	clients map[uint64]*Client
}

func NewPool(cfg PoolConfig, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Dial == nil {
		cfg.Dial = Dial
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &Pool{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[uint64]*Client),
	}
}

// Client returns the chain's client, connecting on first use. A failed
// connection is not cached, so the next call retries.
func (p *Pool) Client(ctx context.Context, chainCfg model.ChainConfig) (*Client, error) {
	if client := p.cached(chainCfg.ChainID); client != nil {
		return client, nil
	}

	// The dial outlives any single caller; DialTimeout bounds it.
	dialCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan(strconv.FormatUint(chainCfg.ChainID, 10), func() (interface{}, error) {
		if client := p.cached(chainCfg.ChainID); client != nil {
			return client, nil
		}
		client, err := p.connect(dialCtx, chainCfg)
		if err != nil {
			p.logger.Warn("chain client unavailable",
				zap.Uint64("chain_id", chainCfg.ChainID),
				zap.String("chain", chainCfg.Name),
				zap.Error(err),
			)
			return nil, err
		}
		p.mu.Lock()
		p.clients[chainCfg.ChainID] = client
		p.mu.Unlock()
		return client, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: chain %d: %v", model.ErrClientUnavailable, chainCfg.ChainID, res.Err)
		}
		return res.Val.(*Client), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: chain %d: %v", model.ErrClientUnavailable, chainCfg.ChainID, ctx.Err())
	}
}

// Close closes every connected client.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, client := range p.clients {
		client.Close()
		delete(p.clients, id)
	}
}

func (p *Pool) cached(chainID uint64) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clients[chainID]
}

func (p *Pool) connect(ctx context.Context, chainCfg model.ChainConfig) (*Client, error) {
	if p.cfg.Key == nil {
		return nil, fmt.Errorf("signing key not configured")
	}
	if err := ValidateRPCURL(chainCfg.RPCURL); err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.cfg.DialTimeout)
	defer cancel()

	backend, err := p.cfg.Dial(dialCtx, chainCfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	var remoteID *big.Int
	err = retry(dialCtx, p.cfg.Settings, func(ctx context.Context) error {
		var err error
		remoteID, err = backend.ChainID(ctx)
		return err
	})
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	if !remoteID.IsUint64() || remoteID.Uint64() != chainCfg.ChainID {
		backend.Close()
		return nil, fmt.Errorf("endpoint reports chain id %s, registered %d", remoteID, chainCfg.ChainID)
	}

	signer := p.cfg.Key.ForChain(remoteID)
	logger := p.logger.With(zap.Uint64("chain_id", chainCfg.ChainID), zap.String("chain", chainCfg.Name))
	logger.Info("chain client connected", zap.String("signer", signer.Address().Hex()))

	return NewClient(backend, signer, p.cfg.Settings, logger), nil
}

// ValidateRPCURL checks that rpcURL is an absolute http(s) or ws(s) URL.
func ValidateRPCURL(rpcURL string) error {
	u, err := url.Parse(rpcURL)
	if err != nil {
		return fmt.Errorf("parse rpc url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported rpc url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("rpc url has no host")
	}
	return nil
}

// TokenDecimals reads decimals() of token on the given chain.
func (p *Pool) TokenDecimals(ctx context.Context, chainCfg model.ChainConfig, token common.Address) (uint8, error) {
	client, err := p.Client(ctx, chainCfg)
	if err != nil {
		return 0, err
	}
	return client.TokenDecimals(ctx, token)
}

// Balance returns the faucet account and its native balance on the given chain.
func (p *Pool) Balance(ctx context.Context, chainCfg model.ChainConfig) (common.Address, *big.Int, error) {
	client, err := p.Client(ctx, chainCfg)
	if err != nil {
		return common.Address{}, nil, err
	}
	balance, err := client.Balance(ctx)
	if err != nil {
		return client.Address(), nil, fmt.Errorf("balance on chain %d: %w", chainCfg.ChainID, err)
	}
	return client.Address(), balance, nil
}
