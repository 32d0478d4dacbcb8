package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dimiro1/banner"
	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tokenFaucet/internal/api"
	"tokenFaucet/internal/chain"
	"tokenFaucet/internal/claim"
	"tokenFaucet/internal/config"
	"tokenFaucet/internal/distribution"
	"tokenFaucet/internal/faucet"
	"tokenFaucet/internal/monitor"
	"tokenFaucet/internal/registry"
	"tokenFaucet/internal/storage"
)

const bannerText = `
{{ .Title "Token Faucet" "" 0 }}
{{ .AnsiColor.BrightCyan }}Go: {{ .GoVersion }}  Started: {{ .Now "2006-01-02 15:04:05" }}
{{ .AnsiReset }}
`

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	key, err := chain.ParseKey(cfg.PrivateKey)
	if err != nil {
		return err
	}

	banner.Init(colorable.NewColorableStdout(), true, true, strings.NewReader(bannerText))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store, cfg.DBDSN, cfg.BoltPath, cfg.Migrate, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	pool := chain.NewPool(chain.PoolConfig{
		Key: key,
		Settings: chain.Settings{
			ConfirmTimeout: cfg.ConfirmTimeout,
			PollInterval:   cfg.PollInterval,
			MaxRetries:     cfg.MaxRetries,
			RetryBackoff:   cfg.RetryBackoff,
			GasLimit:       cfg.GasLimit,
		},
	}, logger.Named("chain"))
	defer pool.Close()

	registrySvc := registry.NewService(store, pool, cfg.RPCURL, logger.Named("registry"))
	guard := claim.NewGuard(store, logger.Named("claim"))
	engine := distribution.NewEngine(store, distribution.FromPool(pool), logger.Named("distribution"))

	var sink storage.ResultSink
	if cfg.AuditLog != "" {
		sink = storage.NewJsonlSink(cfg.AuditLog)
	}
	claims := faucet.NewService(guard, engine, sink, logger.Named("faucet"))

	if cfg.BalanceSchedule != "" {
		balances := monitor.NewBalanceMonitor(store, pool, cfg.MinBalance, logger.Named("monitor"))
		if err := balances.Start(cfg.BalanceSchedule); err != nil {
			return err
		}
		defer balances.Stop()
	}

	handler := api.NewHandler(registrySvc, claims, guard, cfg.TrustProxy, logger.Named("api"))
	server := api.NewServer(handler, api.Options{
		Listen:     cfg.Listen,
		TrustProxy: cfg.TrustProxy,
		AdminToken: cfg.AdminToken,
		RateLimit:  cfg.RateLimit,
		RateWindow: cfg.RateWindow,
		// A claim answers only after every receipt is in.
		WriteTimeout: cfg.ConfirmTimeout + 30*time.Second,
	})

	logger.Info("faucet start",
		zap.String("listen", cfg.Listen),
		zap.String("store", cfg.Store),
		zap.String("signer", key.Address().Hex()),
		zap.Duration("confirm_timeout", cfg.ConfirmTimeout),
		zap.Bool("trust_proxy", cfg.TrustProxy),
		zap.Int("rate_limit", cfg.RateLimit),
		zap.Duration("rate_window", cfg.RateWindow),
		zap.Bool("admin_token", cfg.AdminToken != ""),
		zap.String("audit_log", cfg.AuditLog),
	)

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("faucet stopped")
	return nil
}
