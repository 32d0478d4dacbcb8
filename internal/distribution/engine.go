package distribution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"tokenFaucet/internal/model"
	"tokenFaucet/internal/registry"
	"tokenFaucet/internal/storage"
)

// Engine turns one claim into mint transactions across every registered
// (chain, token) pair and reports one outcome per pair.
type Engine struct {
	registry storage.RegistryStore
	pool     ClientPool
	logger   *zap.Logger
	now      func() time.Time
}

func NewEngine(registry storage.RegistryStore, pool ClientPool, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry: registry,
		pool:     pool,
		logger:   logger,
		now:      time.Now,
	}
}

// Plan lists the obligations for a claim: chains in registry order, and each
// chain's tokens in registry order.
func (e *Engine) Plan(ctx context.Context) ([]model.Obligation, error) {
	chains, err := e.registry.ListChains(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}

	var plan []model.Obligation
	for _, chainCfg := range chains {
		tokens, err := e.registry.ListTokensByChain(ctx, chainCfg.ChainID)
		if err != nil {
			return nil, fmt.Errorf("list tokens for chain %d: %w", chainCfg.ChainID, err)
		}
		for _, token := range tokens {
			if !common.IsHexAddress(token.Address) {
				return nil, fmt.Errorf("%w: token %q on chain %d has an invalid address",
					model.ErrInvalidConfiguration, token.Address, chainCfg.ChainID)
			}
			amount, err := registry.ParseBaseUnits(token.DistributionAmount)
			if err != nil {
				return nil, fmt.Errorf("%w: token %s on chain %d: %v",
					model.ErrInvalidConfiguration, token.Address, chainCfg.ChainID, err)
			}
			if amount.Sign() <= 0 {
				return nil, fmt.Errorf("%w: token %s on chain %d has a zero amount",
					model.ErrInvalidConfiguration, token.Address, chainCfg.ChainID)
			}
			if amount.BitLen() > registry.MaxAmountBits {
				return nil, fmt.Errorf("%w: token %s on chain %d amount exceeds uint%d",
					model.ErrInvalidConfiguration, token.Address, chainCfg.ChainID, registry.MaxAmountBits)
			}
			plan = append(plan, model.Obligation{Chain: chainCfg, Token: token, Amount: amount})
		}
	}

	if len(plan) == 0 {
		return nil, model.ErrNothingToDistribute
	}
	return plan, nil
}

// Distribute plans and executes a distribution to wallet. Chains run in
// parallel; within a chain, submissions are sequential and confirmations are
// awaited concurrently. It returns only after every obligation has an outcome.
func (e *Engine) Distribute(ctx context.Context, wallet string) (*model.DistributionResult, error) {
	normalized, err := registry.NormalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	plan, err := e.Plan(ctx)
	if err != nil {
		return nil, err
	}

	result := &model.DistributionResult{
		Wallet:    normalized,
		Outcomes:  make([]model.TransactionOutcome, len(plan)),
		StartedAt: e.now().UTC(),
	}
	for i, o := range plan {
		result.Outcomes[i] = model.NewOutcome(o)
	}

	// Each chain's worker writes only its own outcome slots.
	byChain, order := groupByChain(plan)
	recipient := common.HexToAddress(normalized)

	var wg sync.WaitGroup
	for _, chainID := range order {
		indexes := byChain[chainID]
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.runChain(ctx, plan, indexes, recipient, result.Outcomes)
		}()
	}
	wg.Wait()

	result.Status = model.StatusOf(result.Outcomes)
	result.FinishedAt = e.now().UTC()

	e.logger.Info("distribution finished",
		zap.String("wallet", normalized),
		zap.String("status", string(result.Status)),
		zap.Int("obligations", len(plan)),
		zap.Int("confirmed", result.Confirmed()),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	)
	return result, nil
}

func (e *Engine) runChain(ctx context.Context, plan []model.Obligation, indexes []int, recipient common.Address, outcomes []model.TransactionOutcome) {
	chainCfg := plan[indexes[0]].Chain
	logger := e.logger.With(zap.Uint64("chain_id", chainCfg.ChainID), zap.String("chain", chainCfg.Name))

	client, err := e.pool.Client(ctx, chainCfg)
	if err != nil {
		if !errors.Is(err, model.ErrClientUnavailable) {
			err = fmt.Errorf("%w: %v", model.ErrClientUnavailable, err)
		}
		for _, i := range indexes {
			outcomes[i].Fail(err)
		}
		logger.Warn("skipping chain", zap.Int("obligations", len(indexes)), zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	for _, i := range indexes {
		o := plan[i]
		token := common.HexToAddress(o.Token.Address)

		pending, err := client.Submit(ctx, token, recipient, o.Amount)
		if err != nil {
			outcomes[i].Fail(err)
			logger.Warn("submission failed", zap.String("token", o.Token.Address), zap.Error(err))
			continue
		}
		outcomes[i].TxHash = pending.Hash.Hex()

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			receipt, err := client.AwaitConfirmation(ctx, pending)
			if err != nil {
				outcomes[i].Fail(err)
				logger.Warn("transaction not confirmed",
					zap.String("tx_hash", pending.Hash.Hex()),
					zap.Error(err),
				)
				return
			}
			outcomes[i].Confirm(receipt)
		}(i)
	}
	wg.Wait()
}

// groupByChain returns plan indexes per chain id and the chain ids in first-seen order.
func groupByChain(plan []model.Obligation) (map[uint64][]int, []uint64) {
	byChain := make(map[uint64][]int)
	var order []uint64
	for i, o := range plan {
		id := o.Chain.ChainID
		if _, seen := byChain[id]; !seen {
			order = append(order, id)
		}
		byChain[id] = append(byChain[id], i)
	}
	return byChain, order
}
