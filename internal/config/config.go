package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "FAUCET"

// Store backends.
const (
	StorePostgres = "postgres"
	StoreBolt     = "bolt"
	StoreMemory   = "memory"
)

// envAliases are the environment names the faucet has always read, honoured
// alongside the FAUCET_ prefixed ones.
var envAliases = map[string]string{
	"db-dsn":      "DATABASE_URL",
	"rpc":         "RPC_URL",
	"private-key": "PRIVATE_KEY",
}

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	Listen          string
	Store           string
	DBDSN           string
	BoltPath        string
	Migrate         bool
	RPCURL          string
	PrivateKey      string
	ConfirmTimeout  time.Duration
	PollInterval    time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	GasLimit        uint64
	TrustProxy      bool
	RateLimit       int
	RateWindow      time.Duration
	AdminToken      string
	AuditLog        string
	BalanceSchedule string
	MinBalance      *big.Int
	LogLevel        string
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("listen", ":3000")
		v.SetDefault("bolt-path", "./data/faucet.db")
		v.SetDefault("confirm-timeout", 30*time.Second)
		v.SetDefault("poll-interval", 2*time.Second)
		v.SetDefault("max-retries", 3)
		v.SetDefault("retry-backoff", 250*time.Millisecond)
		v.SetDefault("gas-limit", uint64(150000))
		v.SetDefault("trust-proxy", true)
		v.SetDefault("rate-limit", 100)
		v.SetDefault("rate-window", 15*time.Minute)
		v.SetDefault("balance-schedule", "@every 5m")
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return ServeConfig{}, err
	}

	minBalance, err := parseWei(v.GetString("min-balance"))
	if err != nil {
		return ServeConfig{}, fmt.Errorf("min-balance: %w", err)
	}

	cfg := ServeConfig{
		Listen:          v.GetString("listen"),
		Store:           strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		DBDSN:           v.GetString("db-dsn"),
		BoltPath:        v.GetString("bolt-path"),
		Migrate:         v.GetBool("migrate"),
		RPCURL:          v.GetString("rpc"),
		PrivateKey:      v.GetString("private-key"),
		ConfirmTimeout:  v.GetDuration("confirm-timeout"),
		PollInterval:    v.GetDuration("poll-interval"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		GasLimit:        v.GetUint64("gas-limit"),
		TrustProxy:      v.GetBool("trust-proxy"),
		RateLimit:       v.GetInt("rate-limit"),
		RateWindow:      v.GetDuration("rate-window"),
		AdminToken:      v.GetString("admin-token"),
		AuditLog:        v.GetString("audit-log"),
		BalanceSchedule: v.GetString("balance-schedule"),
		MinBalance:      minBalance,
		LogLevel:        v.GetString("log-level"),
	}
	cfg.Store = resolveStore(cfg.Store, cfg.DBDSN)

	return cfg, nil
}

// Validate reports the first setting that prevents the server from starting.
func (c ServeConfig) Validate() error {
	if c.PrivateKey == "" {
		return fmt.Errorf("private key is required")
	}
	if err := validateStore(c.Store, c.DBDSN, c.BoltPath); err != nil {
		return err
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("confirm-timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be positive")
	}
	if c.RateLimit < 0 || (c.RateLimit > 0 && c.RateWindow <= 0) {
		return fmt.Errorf("rate-limit needs a positive rate-window")
	}
	return nil
}

// newViper builds a viper instance reading, in increasing priority, defaults,
// the config file, FAUCET_* environment variables and changed flags.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults func(v *viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, alias := range envAliases {
		envName := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := v.BindEnv(key, envName, alias); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

// resolveStore picks postgres when a DSN is configured and no store is named,
// and the embedded bolt store otherwise.
func resolveStore(store, dsn string) string {
	if store != "" {
		return store
	}
	if dsn != "" {
		return StorePostgres
	}
	return StoreBolt
}

func validateStore(store, dsn, boltPath string) error {
	switch store {
	case StorePostgres:
		if dsn == "" {
			return fmt.Errorf("db-dsn is required for the postgres store")
		}
	case StoreBolt:
		if boltPath == "" {
			return fmt.Errorf("bolt-path is required for the bolt store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want postgres, bolt or memory)", store)
	}
	return nil
}

func parseWei(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	value, ok := new(big.Int).SetString(input, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid wei amount %q", input)
	}
	return value, nil
}
