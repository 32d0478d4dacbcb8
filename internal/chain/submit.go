package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"tokenFaucet/internal/model"
)

// SubmissionKind tells apart the ways a submission can fail.
type SubmissionKind string

const (
	KindEncode            SubmissionKind = "encode"
	KindNonce             SubmissionKind = "nonce"
	KindFees              SubmissionKind = "fees"
	KindSigning           SubmissionKind = "signing"
	KindInsufficientFunds SubmissionKind = "insufficient_funds"
	KindRejected          SubmissionKind = "rejected"
)

// SubmissionError is returned by Submit. It matches model.ErrSubmission.
type SubmissionError struct {
	Kind SubmissionKind
	Err  error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s (%s): %v", model.ErrSubmission, e.Kind, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func (e *SubmissionError) Is(target error) bool { return target == model.ErrSubmission }

// PendingTx is a transaction accepted into a chain's pending pool.
type PendingTx struct {
	ChainID     uint64
	Hash        common.Hash
	Nonce       uint64
	Token       common.Address
	Recipient   common.Address
	SubmittedAt time.Time
}

// Submit builds, signs and sends mint(recipient, amount) to token.
// It returns once the node accepted the transaction; it does not wait for mining.
func (c *Client) Submit(ctx context.Context, token common.Address, recipient common.Address, amount *big.Int) (*PendingTx, error) {
	// abi.Pack would wrap these silently.
	if amount == nil || amount.Sign() < 0 || amount.BitLen() > 256 {
		return nil, &SubmissionError{Kind: KindEncode, Err: fmt.Errorf("amount %v is not a uint256", amount)}
	}
	tokenABI, err := FaucetTokenABI()
	if err != nil {
		return nil, &SubmissionError{Kind: KindEncode, Err: err}
	}
	data, err := tokenABI.Pack("mint", recipient, amount)
	if err != nil {
		return nil, &SubmissionError{Kind: KindEncode, Err: err}
	}

	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	nonce, err := c.currentNonce(ctx)
	if err != nil {
		return nil, &SubmissionError{Kind: KindNonce, Err: err}
	}

	tx, err := c.buildTx(ctx, token, data, nonce)
	if err != nil {
		return nil, &SubmissionError{Kind: KindFees, Err: err}
	}

	signed, err := c.signer.Sign(tx)
	if err != nil {
		return nil, &SubmissionError{Kind: KindSigning, Err: err}
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		// The node's view of our nonce may differ from ours now; resync on next submit.
		c.nonceKnown = false
		return nil, &SubmissionError{Kind: classifySendError(err), Err: err}
	}
	c.nextNonce = nonce + 1

	pending := &PendingTx{
		ChainID:     c.signer.ChainID().Uint64(),
		Hash:        signed.Hash(),
		Nonce:       nonce,
		Token:       token,
		Recipient:   recipient,
		SubmittedAt: time.Now().UTC(),
	}
	c.logger.Info("transaction submitted",
		zap.String("tx_hash", pending.Hash.Hex()),
		zap.Uint64("nonce", nonce),
		zap.String("token", token.Hex()),
		zap.String("recipient", recipient.Hex()),
		zap.String("amount", amount.String()),
	)
	return pending, nil
}

func (c *Client) currentNonce(ctx context.Context) (uint64, error) {
	if c.nonceKnown {
		return c.nextNonce, nil
	}
	var nonce uint64
	err := retry(ctx, c.settings, func(ctx context.Context) error {
		var err error
		nonce, err = c.backend.PendingNonceAt(ctx, c.signer.Address())
		if err != nil {
			c.logger.Warn("pending nonce fetch failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	c.nextNonce = nonce
	c.nonceKnown = true
	return nonce, nil
}

func (c *Client) buildTx(ctx context.Context, token common.Address, data []byte, nonce uint64) (*types.Transaction, error) {
	var head *types.Header
	err := retry(ctx, c.settings, func(ctx context.Context) error {
		var err error
		head, err = c.backend.HeaderByNumber(ctx, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("latest header: %w", err)
	}

	gas := c.estimateGas(ctx, token, data)

	if head.BaseFee == nil {
		gasPrice, err := c.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggest gas price: %w", err)
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       &token,
			Value:    big.NewInt(0),
			Data:     data,
		}), nil
	}

	tipCap, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas tip cap: %w", err)
	}
	feeCap := new(big.Int).Add(tipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.signer.ChainID(),
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &token,
		Value:     big.NewInt(0),
		Data:      data,
	}), nil
}

func (c *Client) estimateGas(ctx context.Context, token common.Address, data []byte) uint64 {
	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: c.signer.Address(),
		To:   &token,
		Data: data,
	})
	if err != nil || gas == 0 {
		c.logger.Warn("gas estimation failed, using fallback",
			zap.Error(err),
			zap.String("token", token.Hex()),
			zap.Uint64("gas_limit", c.settings.GasLimit),
		)
		return c.settings.GasLimit
	}
	return gas
}

func classifySendError(err error) SubmissionKind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return KindInsufficientFunds
	case strings.Contains(msg, "nonce too low"),
		strings.Contains(msg, "nonce too high"),
		strings.Contains(msg, "already known"),
		strings.Contains(msg, "replacement transaction underpriced"):
		return KindNonce
	default:
		return KindRejected
	}
}
