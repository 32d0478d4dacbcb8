package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		}
	}

	root := &cobra.Command{
		Use:          "faucet",
		Short:        "Multi-chain testnet token faucet",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the faucet HTTP API",
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen", ":3000", "HTTP listen address")
	serveCmd.Flags().String("store", "", "storage backend (postgres, bolt, memory); defaults to postgres when a dsn is set, else bolt")
	serveCmd.Flags().String("db-dsn", "", "Postgres DSN (env DATABASE_URL)")
	serveCmd.Flags().String("bolt-path", "./data/faucet.db", "bolt database file")
	serveCmd.Flags().Bool("migrate", false, "apply Postgres migrations before serving")
	serveCmd.Flags().String("rpc", "", "default RPC URL for chains added without one (env RPC_URL)")
	serveCmd.Flags().String("private-key", "", "faucet signing key, hex (env PRIVATE_KEY)")
	serveCmd.Flags().Duration("confirm-timeout", 30*time.Second, "maximum wait for a transaction receipt")
	serveCmd.Flags().Duration("poll-interval", 2*time.Second, "receipt polling interval")
	serveCmd.Flags().Int("max-retries", 3, "maximum retry attempts for RPC reads")
	serveCmd.Flags().Duration("retry-backoff", 250*time.Millisecond, "initial retry backoff")
	serveCmd.Flags().Uint64("gas-limit", 150000, "gas limit used when estimation fails")
	serveCmd.Flags().Bool("trust-proxy", true, "take the client IP from X-Real-IP")
	serveCmd.Flags().Int("rate-limit", 100, "requests per rate window per IP, 0 disables")
	serveCmd.Flags().Duration("rate-window", 15*time.Minute, "rate limit window")
	serveCmd.Flags().String("admin-token", "", "bearer token required by add-chain and add-token")
	serveCmd.Flags().String("audit-log", "", "JSONL file receiving every distribution result")
	serveCmd.Flags().String("balance-schedule", "@every 5m", "cron schedule of the balance check, empty disables")
	serveCmd.Flags().String("min-balance", "", "warn when the faucet balance (wei) drops below this")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		RunE:  runMigrate,
	}

	migrateCmd.Flags().String("db-dsn", "", "Postgres DSN (env DATABASE_URL)")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Register chains and tokens from a YAML file",
		RunE:  runSeed,
	}

	seedCmd.Flags().String("file", "./registry.yaml", "registry YAML file")
	seedCmd.Flags().String("store", "", "storage backend (postgres, bolt)")
	seedCmd.Flags().String("db-dsn", "", "Postgres DSN (env DATABASE_URL)")
	seedCmd.Flags().String("bolt-path", "./data/faucet.db", "bolt database file")
	seedCmd.Flags().String("rpc", "", "default RPC URL for chains without one (env RPC_URL)")
	seedCmd.Flags().String("private-key", "", "signing key, used to read token decimals when omitted (env PRIVATE_KEY)")
	seedCmd.Flags().Duration("dial-timeout", 10*time.Second, "RPC dial timeout")
	seedCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(seedCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
