// Package chaintest provides an in-memory chain.Backend for tests outside the
// chain package. Every sent transaction is mined at once with a successful receipt.
package chaintest

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"tokenFaucet/internal/chain"
)

var _ chain.Backend = (*Backend)(nil)

type Backend struct {
	mu       sync.Mutex
	chainID  *big.Int
	nonce    uint64
	block    uint64
	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
	closed   bool
}

func NewBackend(chainID int64) *Backend {
	return &Backend{
		chainID:  big.NewInt(chainID),
		block:    100,
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonce, nil
}

func (b *Backend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &types.Header{Number: new(big.Int).SetUint64(b.block), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (b *Backend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 60000, nil
}

func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tx.Nonce() != b.nonce {
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), b.nonce)
	}
	b.nonce++
	b.block++
	b.sent = append(b.sent, tx)
	b.receipts[tx.Hash()] = &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(b.block),
		GasUsed:     51000,
	}
	return nil
}

func (b *Backend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	receipt, ok := b.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (b *Backend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return big.NewInt(1_000_000_000_000_000_000), nil
}

func (b *Backend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, fmt.Errorf("execution reverted")
}

func (b *Backend) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Sent returns the transactions accepted so far.
func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

// Dialer serves Backends by RPC URL. Unknown URLs fail to dial.
type Dialer struct {
	mu       sync.Mutex
	Backends map[string]*Backend
}

func (d *Dialer) Dial(_ context.Context, rpcURL string) (chain.Backend, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	backend, ok := d.Backends[rpcURL]
	if !ok {
		return nil, fmt.Errorf("dial %s: connection refused", rpcURL)
	}
	return backend, nil
}

// Key returns a fresh faucet signing key.
func Key(t testing.TB) *chain.Key {
	t.Helper()
	private, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := chain.ParseKey("0x" + hex.EncodeToString(crypto.FromECDSA(private)))
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	return key
}
