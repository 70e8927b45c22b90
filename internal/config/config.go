// Package config defines the top-level configuration for the mirror bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MIRROR_* environment variables.
type Config struct {
	Leader     LeaderConfig     `toml:"leader"`
	Wallet     WalletConfig     `toml:"wallet"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Sizing     SizingConfig     `toml:"sizing"`
	Executor   ExecutorConfig   `toml:"executor"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	Notify     NotifyConfig     `toml:"notify"`
	LogLevel   string           `toml:"log_level"`
}

// LeaderConfig identifies the account being mirrored and how it is watched.
type LeaderConfig struct {
	// UserAddress is the leader wallet to mirror. Required; startup fails
	// without it.
	UserAddress string `toml:"user_address"`
	// FetchIntervalSeconds is the delay between activity polls.
	FetchIntervalSeconds int `toml:"fetch_interval_seconds"`
	// TooOldHours is the age gate: feed entries older than this many hours
	// are never mirrored.
	TooOldHours float64 `toml:"too_old_hours"`
}

// FetchInterval returns the poll delay as a time.Duration.
func (l LeaderConfig) FetchInterval() time.Duration {
	return time.Duration(l.FetchIntervalSeconds) * time.Second
}

// WalletConfig holds the operator's Ethereum wallet credentials.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
	Address          string `toml:"address"`
}

// PolymarketConfig holds Polymarket API endpoints and chain parameters.
type PolymarketConfig struct {
	ClobHost      string `toml:"clob_host"`
	DataHost      string `toml:"data_host"`
	ChainID       int    `toml:"chain_id"`
	SignatureType int    `toml:"signature_type"`
}

// SizingConfig selects and parameterizes the buy-side position sizer.
type SizingConfig struct {
	// Strategy is one of: "ratio", "fixed", "percent", "historical_max".
	Strategy string `toml:"strategy"`
	// FixedUSD is the constant notional for the "fixed" strategy.
	FixedUSD float64 `toml:"fixed_usd"`
	// Percent is the balance fraction for the "percent" strategy (0.01 = 1%).
	Percent float64 `toml:"percent"`
	// MaxTradeUSD is the leader's historical-max trade size for the
	// "historical_max" strategy.
	MaxTradeUSD float64 `toml:"max_trade_usd"`
	// CapPercent is the balance-fraction ceiling for "historical_max".
	CapPercent float64 `toml:"cap_percent"`
}

// ExecutorConfig bounds the order retry loop.
type ExecutorConfig struct {
	// RetryLimit is the maximum number of consecutive order rejections
	// before an execution aborts.
	RetryLimit int `toml:"retry_limit"`
	// SlippageTolerance is the max divergence between the best ask and the
	// leader's executed price before a buy is refused.
	SlippageTolerance float64 `toml:"slippage_tolerance"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr              string `toml:"addr"`
	Password          string `toml:"password"`
	DB                int    `toml:"db"`
	PoolSize          int    `toml:"pool_size"`
	MaxRetries        int    `toml:"max_retries"`
	TLSEnabled        bool   `toml:"tls_enabled"`
	BalanceTTLSeconds int    `toml:"balance_ttl_seconds"`
}

// BalanceTTL returns how long cached account values stay fresh.
func (r RedisConfig) BalanceTTL() time.Duration {
	return time.Duration(r.BalanceTTLSeconds) * time.Second
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Leader: LeaderConfig{
			FetchIntervalSeconds: 1,
			TooOldHours:          24,
		},
		Polymarket: PolymarketConfig{
			ClobHost:      "https://clob.polymarket.com",
			DataHost:      "https://data-api.polymarket.com",
			ChainID:       137,
			SignatureType: 0,
		},
		Sizing: SizingConfig{
			Strategy:    "percent",
			FixedUSD:    10,
			Percent:     0.01,
			MaxTradeUSD: 1300,
			CapPercent:  0.05,
		},
		Executor: ExecutorConfig{
			RetryLimit:        3,
			SlippageTolerance: 0.05,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "mirrorbot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:              "localhost:6379",
			DB:                0,
			PoolSize:          10,
			MaxRetries:        3,
			BalanceTTLSeconds: 30,
		},
		Notify: NotifyConfig{
			Events: []string{"trade_detected", "trade_executed", "trade_aborted", "error"},
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validSizingStrategies enumerates the accepted values for Sizing.Strategy.
var validSizingStrategies = map[string]bool{
	"ratio":          true,
	"fixed":          true,
	"percent":        true,
	"historical_max": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Leader — the whole bot is meaningless without one.
	if strings.TrimSpace(c.Leader.UserAddress) == "" {
		errs = append(errs, "leader: user_address must be set")
	}
	if c.Leader.FetchIntervalSeconds <= 0 {
		errs = append(errs, "leader: fetch_interval_seconds must be > 0")
	}
	if c.Leader.TooOldHours <= 0 {
		errs = append(errs, "leader: too_old_hours must be > 0")
	}

	// Wallet — at least one credential source must be specified.
	if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
		errs = append(errs, "wallet: either private_key or encrypted_key_path must be set")
	}
	if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
		errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
	}

	// Polymarket endpoints
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.DataHost == "" {
		errs = append(errs, "polymarket: data_host must not be empty")
	}
	if c.Polymarket.ChainID <= 0 {
		errs = append(errs, "polymarket: chain_id must be positive")
	}

	// Sizing
	if !validSizingStrategies[c.Sizing.Strategy] {
		errs = append(errs, fmt.Sprintf("sizing: unknown strategy %q (valid: ratio, fixed, percent, historical_max)", c.Sizing.Strategy))
	}
	if c.Sizing.Strategy == "fixed" && c.Sizing.FixedUSD <= 0 {
		errs = append(errs, "sizing: fixed_usd must be > 0 for the fixed strategy")
	}
	if c.Sizing.Strategy == "percent" && (c.Sizing.Percent <= 0 || c.Sizing.Percent > 1) {
		errs = append(errs, "sizing: percent must be in (0, 1]")
	}
	if c.Sizing.Strategy == "historical_max" {
		if c.Sizing.MaxTradeUSD <= 0 {
			errs = append(errs, "sizing: max_trade_usd must be > 0 for the historical_max strategy")
		}
		if c.Sizing.CapPercent <= 0 || c.Sizing.CapPercent > 1 {
			errs = append(errs, "sizing: cap_percent must be in (0, 1]")
		}
	}

	// Executor
	if c.Executor.RetryLimit < 1 {
		errs = append(errs, "executor: retry_limit must be >= 1")
	}
	if c.Executor.SlippageTolerance < 0 {
		errs = append(errs, "executor: slippage_tolerance must be >= 0")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
