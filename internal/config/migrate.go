package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// MigrateConfig holds configuration for the migrate command.
type MigrateConfig struct {
	DBDSN    string
	LogLevel string
}

// LoadMigrate merges config file, environment variables, and flags into MigrateConfig.
func LoadMigrate(cfgFile string, flags *pflag.FlagSet) (MigrateConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return MigrateConfig{}, err
	}
	return MigrateConfig{
		DBDSN:    v.GetString("db-dsn"),
		LogLevel: v.GetString("log-level"),
	}, nil
}
