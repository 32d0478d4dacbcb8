package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// Backend is the subset of ethclient.Client the faucet uses.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// Settings controls submission and confirmation behavior of a Client.
type Settings struct {
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	GasLimit       uint64
}

func (s Settings) withDefaults() Settings {
	if s.ConfirmTimeout <= 0 {
		s.ConfirmTimeout = 30 * time.Second
	}
	if s.PollInterval <= 0 {
		s.PollInterval = 2 * time.Second
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
	if s.GasLimit == 0 {
		s.GasLimit = 150000
	}
	return s
}

// Client is one chain's RPC connection plus the faucet signer for that chain.
// Submissions through a Client are serialized so nonces are assigned in order.
type Client struct {
	backend  Backend
	signer   *Signer
	settings Settings
	logger   *zap.Logger

	submitMu   sync.Mutex
	nextNonce  uint64
	nonceKnown bool
}

// Dial connects to rpcURL.
func Dial(ctx context.Context, rpcURL string) (Backend, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return ethclient.NewClient(rpcClient), nil
}

// NewClient builds a Client over an established backend.
func NewClient(backend Backend, signer *Signer, settings Settings, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		backend:  backend,
		signer:   signer,
		settings: settings.withDefaults(),
		logger:   logger,
	}
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.backend != nil {
		c.backend.Close()
	}
}

// ChainID returns the chain the client signs for.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.signer.ChainID())
}

// Address returns the faucet account on this chain.
func (c *Client) Address() common.Address {
	return c.signer.Address()
}

// Balance returns the faucet account's native balance at the latest block.
func (c *Client) Balance(ctx context.Context) (*big.Int, error) {
	return c.backend.BalanceAt(ctx, c.signer.Address(), nil)
}

// TokenDecimals reads decimals() from an ERC20 contract.
func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	tokenABI, err := FaucetTokenABI()
	if err != nil {
		return 0, fmt.Errorf("parse token abi: %w", err)
	}
	data, err := tokenABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("pack decimals: %w", err)
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("call decimals: %w", err)
	}
	values, err := tokenABI.Unpack("decimals", out)
	if err != nil {
		return 0, fmt.Errorf("unpack decimals: %w", err)
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("decimals: empty result")
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected type %T", values[0])
	}
	return decimals, nil
}
