package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"tokenFaucet/internal/model"
)

func fastSettings() Settings {
	return Settings{ConfirmTimeout: 200 * time.Millisecond, PollInterval: 5 * time.Millisecond}
}

func TestAwaitConfirmationMined(t *testing.T) {
	backend := newFakeBackend(5)
	client := NewClient(backend, testKey(t).ForChain(big.NewInt(5)), fastSettings(), nil)

	pending, err := client.Submit(context.Background(), testToken, testRecipient, big.NewInt(1))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		backend.setReceipt(pending.Hash, types.ReceiptStatusSuccessful)
	}()

	receipt, err := client.AwaitConfirmation(context.Background(), pending)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if receipt.TxHash != pending.Hash {
		t.Fatalf("receipt hash mismatch")
	}
}

func TestAwaitConfirmationReverted(t *testing.T) {
	backend := newFakeBackend(5)
	client := NewClient(backend, testKey(t).ForChain(big.NewInt(5)), fastSettings(), nil)

	pending, err := client.Submit(context.Background(), testToken, testRecipient, big.NewInt(1))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	backend.setReceipt(pending.Hash, types.ReceiptStatusFailed)

	_, err = client.AwaitConfirmation(context.Background(), pending)
	if !errors.Is(err, model.ErrReverted) {
		t.Fatalf("expected revert, got %v", err)
	}
}

func TestAwaitConfirmationTimeout(t *testing.T) {
	backend := newFakeBackend(5)
	settings := Settings{ConfirmTimeout: 30 * time.Millisecond, PollInterval: 5 * time.Millisecond}
	client := NewClient(backend, testKey(t).ForChain(big.NewInt(5)), settings, nil)

	pending, err := client.Submit(context.Background(), testToken, testRecipient, big.NewInt(1))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	start := time.Now()
	_, err = client.AwaitConfirmation(context.Background(), pending)
	if !errors.Is(err, model.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout took too long: %s", elapsed)
	}
}
