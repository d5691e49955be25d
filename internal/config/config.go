package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL       string
	ChainID      uint64
	PrivateKey   string
	SlippageBps  int64
	Deadline     time.Duration
	Debounce     time.Duration
	Out          string
	PgDSN        string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
// The private key is only ever read from the environment (DESK_PRIVATE_KEY)
// or a config file, never from a flag.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DESK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain-id", uint64(1))
	v.SetDefault("slippage-bps", int64(50))
	v.SetDefault("deadline", 20*time.Minute)
	v.SetDefault("debounce", 400*time.Millisecond)
	v.SetDefault("out", "./data/positions.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:       v.GetString("rpc"),
		ChainID:      v.GetUint64("chain-id"),
		PrivateKey:   v.GetString("private-key"),
		SlippageBps:  v.GetInt64("slippage-bps"),
		Deadline:     v.GetDuration("deadline"),
		Debounce:     v.GetDuration("debounce"),
		Out:          v.GetString("out"),
		PgDSN:        v.GetString("pg-dsn"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	if cfg.SlippageBps < 0 || cfg.SlippageBps > 10000 {
		return Config{}, fmt.Errorf("slippage-bps must be in [0, 10000], got %d", cfg.SlippageBps)
	}

	return cfg, nil
}
