package monitor

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tokenFaucet/internal/model"
	"tokenFaucet/internal/registry"
)

// ChainLister lists the registered chains.
type ChainLister interface {
	ListChains(ctx context.Context) ([]model.ChainConfig, error)
}

// BalanceSource reports the faucet account's native balance on a chain.
type BalanceSource interface {
	Balance(ctx context.Context, chainCfg model.ChainConfig) (common.Address, *big.Int, error)
}

// Report is one chain's balance at check time.
type Report struct {
	ChainID uint64
	Chain   string
	Address common.Address
	Balance *big.Int
	Low     bool
	Err     error
}

// BalanceMonitor periodically logs the faucet's balance on every chain and
// warns when it drops below a threshold.
type BalanceMonitor struct {
	chains     ChainLister
	balances   BalanceSource
	minBalance *big.Int
	timeout    time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewBalanceMonitor(chains ChainLister, balances BalanceSource, minBalance *big.Int, logger *zap.Logger) *BalanceMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceMonitor{
		chains:     chains,
		balances:   balances,
		minBalance: minBalance,
		timeout:    30 * time.Second,
		logger:     logger,
		cron:       cron.New(),
	}
}

// Check reads every chain's balance once.
func (m *BalanceMonitor) Check(ctx context.Context) ([]Report, error) {
	chains, err := m.chains.ListChains(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}

	reports := make([]Report, len(chains))
	var wg sync.WaitGroup
	for i, chainCfg := range chains {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = m.checkChain(ctx, chainCfg)
		}()
	}
	wg.Wait()
	return reports, nil
}

func (m *BalanceMonitor) checkChain(ctx context.Context, chainCfg model.ChainConfig) Report {
	report := Report{ChainID: chainCfg.ChainID, Chain: chainCfg.Name}
	logger := m.logger.With(zap.Uint64("chain_id", chainCfg.ChainID), zap.String("chain", chainCfg.Name))

	address, balance, err := m.balances.Balance(ctx, chainCfg)
	if err != nil {
		report.Err = err
		logger.Warn("balance check failed", zap.Error(err))
		return report
	}
	report.Address = address
	report.Balance = balance
	report.Low = m.minBalance != nil && m.minBalance.Sign() > 0 && balance.Cmp(m.minBalance) < 0

	fields := []zap.Field{
		zap.String("address", address.Hex()),
		zap.String("balance", registry.FormatUnits(balance, 18)),
	}
	if report.Low {
		logger.Warn("faucet balance low", append(fields, zap.String("min_balance", registry.FormatUnits(m.minBalance, 18)))...)
	} else {
		logger.Info("faucet balance", fields...)
	}
	return report
}

// Start schedules Check on schedule, a robfig/cron expression such as "@every 5m".
func (m *BalanceMonitor) Start(schedule string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("balance monitor already running")
	}

	_, err := m.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		start := time.Now()
		reports, err := m.Check(ctx)
		if err != nil {
			m.logger.Error("balance check", zap.Error(err))
			return
		}
		m.logger.Debug("balance check finished",
			zap.Int("chains", len(reports)),
			zap.Duration("duration", time.Since(start)),
		)
	})
	if err != nil {
		return fmt.Errorf("schedule balance check %q: %w", schedule, err)
	}

	m.cron.Start()
	m.running = true
	m.logger.Info("balance monitor started", zap.String("schedule", schedule))
	return nil
}

// Stop halts the schedule and waits for a running check to finish.
func (m *BalanceMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	<-m.cron.Stop().Done()
	m.running = false
}
