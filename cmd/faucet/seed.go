package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tokenFaucet/internal/chain"
	"tokenFaucet/internal/config"
	"tokenFaucet/internal/registry"
)

func runSeed(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSeed(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	file, err := config.LoadRegistryFile(cfg.File)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store, cfg.DBDSN, cfg.BoltPath, cfg.Store == config.StorePostgres, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var decimals registry.DecimalsSource
	if cfg.PrivateKey != "" {
		key, err := chain.ParseKey(cfg.PrivateKey)
		if err != nil {
			return err
		}
		pool := chain.NewPool(chain.PoolConfig{Key: key, DialTimeout: cfg.DialTimeout}, logger.Named("chain"))
		defer pool.Close()
		decimals = pool
	}

	svc := registry.NewService(store, decimals, cfg.RPCURL, logger.Named("registry"))
	return seedRegistry(ctx, svc, file, logger)
}

// seedRegistry adds every chain then every token, skipping entries that
// already exist so the command can be rerun.
func seedRegistry(ctx context.Context, svc *registry.Service, file config.RegistryFile, logger *zap.Logger) error {
	var added, skipped int
	for _, c := range file.Chains {
		_, err := svc.AddChain(ctx, registry.AddChainRequest{Name: c.Name, ChainID: c.ChainID, RPCURL: c.RPCURL})
		switch {
		case errors.Is(err, registry.ErrChainExists):
			skipped++
		case err != nil:
			return fmt.Errorf("chain %d: %w", c.ChainID, err)
		default:
			added++
		}
	}
	for _, t := range file.Tokens {
		_, err := svc.AddToken(ctx, registry.AddTokenRequest{
			Name:         t.Name,
			TokenAddress: t.Address,
			Decimals:     t.Decimals,
			ChainID:      t.ChainID,
			Amount:       t.Amount,
		})
		switch {
		case errors.Is(err, registry.ErrTokenExists):
			skipped++
		case err != nil:
			return fmt.Errorf("token %s on chain %d: %w", t.Address, t.ChainID, err)
		default:
			added++
		}
	}
	logger.Info("registry seeded", zap.Int("added", added), zap.Int("skipped", skipped))
	return nil
}
