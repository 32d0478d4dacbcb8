package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"tokenFaucet/internal/model"
)

// AwaitConfirmation polls for the receipt of pending until it is mined or the
// confirmation timeout elapses. A reverted receipt is returned with model.ErrReverted.
func (c *Client) AwaitConfirmation(ctx context.Context, pending *PendingTx) (*types.Receipt, error) {
	if pending == nil {
		return nil, fmt.Errorf("pending transaction is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, c.settings.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.settings.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, pending.Hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("%w: %s", model.ErrReverted, pending.Hash.Hex())
			}
			c.logger.Info("transaction confirmed",
				zap.String("tx_hash", pending.Hash.Hex()),
				zap.Uint64("block_number", receipt.BlockNumber.Uint64()),
				zap.Duration("elapsed", time.Since(pending.SubmittedAt)),
			)
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil:
			c.logger.Debug("receipt poll failed", zap.Error(err), zap.String("tx_hash", pending.Hash.Hex()))
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s not mined within %s", model.ErrTimeout, pending.Hash.Hex(), c.settings.ConfirmTimeout)
		case <-ticker.C:
		}
	}
}
