package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// SeedConfig holds configuration for the seed command.
type SeedConfig struct {
	File        string
	Store       string
	DBDSN       string
	BoltPath    string
	RPCURL      string
	PrivateKey  string
	DialTimeout time.Duration
	LogLevel    string
}

// LoadSeed merges config file, environment variables, and flags into SeedConfig.
func LoadSeed(cfgFile string, flags *pflag.FlagSet) (SeedConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("file", "./registry.yaml")
		v.SetDefault("bolt-path", "./data/faucet.db")
		v.SetDefault("dial-timeout", 10*time.Second)
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return SeedConfig{}, err
	}

	cfg := SeedConfig{
		File:        v.GetString("file"),
		Store:       strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		DBDSN:       v.GetString("db-dsn"),
		BoltPath:    v.GetString("bolt-path"),
		RPCURL:      v.GetString("rpc"),
		PrivateKey:  v.GetString("private-key"),
		DialTimeout: v.GetDuration("dial-timeout"),
		LogLevel:    v.GetString("log-level"),
	}
	cfg.Store = resolveStore(cfg.Store, cfg.DBDSN)
	if cfg.Store == StoreMemory {
		return SeedConfig{}, fmt.Errorf("seeding the memory store has no effect")
	}
	if err := validateStore(cfg.Store, cfg.DBDSN, cfg.BoltPath); err != nil {
		return SeedConfig{}, err
	}
	return cfg, nil
}

// RegistryFile is the YAML document read by the seed command.
type RegistryFile struct {
	Chains []SeedChain `yaml:"chains"`
	Tokens []SeedToken `yaml:"tokens"`
}

type SeedChain struct {
	Name    string `yaml:"name"`
	ChainID uint64 `yaml:"chainId"`
	RPCURL  string `yaml:"rpcUrl"`
}

// SeedToken mirrors the add-token request. Amount is in whole tokens.
type SeedToken struct {
	Name     string `yaml:"name"`
	Address  string `yaml:"address"`
	ChainID  uint64 `yaml:"chainId"`
	Decimals *uint8 `yaml:"decimals"`
	Amount   string `yaml:"amount"`
}

// LoadRegistryFile parses a registry seed file. Unknown keys are rejected.
func LoadRegistryFile(path string) (RegistryFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return RegistryFile{}, fmt.Errorf("open registry file: %w", err)
	}
	defer f.Close()
	return DecodeRegistryFile(f)
}

func DecodeRegistryFile(r io.Reader) (RegistryFile, error) {
	var file RegistryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return RegistryFile{}, fmt.Errorf("registry file is empty")
		}
		return RegistryFile{}, fmt.Errorf("decode registry file: %w", err)
	}
	for i, token := range file.Tokens {
		if token.Address == "" || token.ChainID == 0 || token.Amount == "" {
			return RegistryFile{}, fmt.Errorf("token #%d: address, chainId and amount are required", i+1)
		}
	}
	return file, nil
}
