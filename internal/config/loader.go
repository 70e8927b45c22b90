package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MIRROR_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MIRROR_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file. USER_ADDRESS, TOO_OLD_TIMESTAMP, FETCH_INTERVAL, and RETRY_LIMIT are
// also honored bare for compatibility with older deployments.
func applyEnvOverrides(cfg *Config) {
	// ── Leader ── (bare names first so the prefixed forms win)
	setStr(&cfg.Leader.UserAddress, "USER_ADDRESS")
	setStr(&cfg.Leader.UserAddress, "MIRROR_LEADER_USER_ADDRESS")
	setInt(&cfg.Leader.FetchIntervalSeconds, "FETCH_INTERVAL")
	setInt(&cfg.Leader.FetchIntervalSeconds, "MIRROR_LEADER_FETCH_INTERVAL_SECONDS")
	setFloat64(&cfg.Leader.TooOldHours, "TOO_OLD_TIMESTAMP")
	setFloat64(&cfg.Leader.TooOldHours, "MIRROR_LEADER_TOO_OLD_HOURS")

	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "MIRROR_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "MIRROR_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "MIRROR_WALLET_KEY_PASSWORD")
	setStr(&cfg.Wallet.Address, "MIRROR_WALLET_ADDRESS")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.ClobHost, "MIRROR_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.DataHost, "MIRROR_POLYMARKET_DATA_HOST")
	setInt(&cfg.Polymarket.ChainID, "MIRROR_POLYMARKET_CHAIN_ID")
	setInt(&cfg.Polymarket.SignatureType, "MIRROR_POLYMARKET_SIGNATURE_TYPE")

	// ── Sizing ──
	setStr(&cfg.Sizing.Strategy, "MIRROR_SIZING_STRATEGY")
	setFloat64(&cfg.Sizing.FixedUSD, "MIRROR_SIZING_FIXED_USD")
	setFloat64(&cfg.Sizing.Percent, "MIRROR_SIZING_PERCENT")
	setFloat64(&cfg.Sizing.MaxTradeUSD, "MIRROR_SIZING_MAX_TRADE_USD")
	setFloat64(&cfg.Sizing.CapPercent, "MIRROR_SIZING_CAP_PERCENT")

	// ── Executor ──
	setInt(&cfg.Executor.RetryLimit, "RETRY_LIMIT")
	setInt(&cfg.Executor.RetryLimit, "MIRROR_EXECUTOR_RETRY_LIMIT")
	setFloat64(&cfg.Executor.SlippageTolerance, "MIRROR_EXECUTOR_SLIPPAGE_TOLERANCE")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "MIRROR_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "MIRROR_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "MIRROR_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "MIRROR_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "MIRROR_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "MIRROR_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "MIRROR_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "MIRROR_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "MIRROR_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "MIRROR_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "MIRROR_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MIRROR_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MIRROR_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MIRROR_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MIRROR_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MIRROR_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.BalanceTTLSeconds, "MIRROR_REDIS_BALANCE_TTL_SECONDS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MIRROR_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MIRROR_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MIRROR_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "MIRROR_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "MIRROR_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
