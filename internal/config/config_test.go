package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Leader.UserAddress = "0xleader"
	cfg.Wallet.PrivateKey = "abc123"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 1, cfg.Leader.FetchIntervalSeconds)
	assert.Equal(t, 24.0, cfg.Leader.TooOldHours)
	assert.Equal(t, 3, cfg.Executor.RetryLimit)
	assert.Equal(t, 0.05, cfg.Executor.SlippageTolerance)
	assert.Equal(t, "percent", cfg.Sizing.Strategy)
	assert.Equal(t, 137, cfg.Polymarket.ChainID)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresLeader(t *testing.T) {
	cfg := validConfig()
	cfg.Leader.UserAddress = "  "

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_address")
}

func TestValidateRequiresKeySource(t *testing.T) {
	cfg := validConfig()
	cfg.Wallet.PrivateKey = ""
	cfg.Wallet.EncryptedKeyPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private_key or encrypted_key_path")
}

func TestValidateRejectsUnknownStrategy(t *testing.T) {
	cfg := validConfig()
	cfg.Sizing.Strategy = "martingale"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Leader.UserAddress = ""
	cfg.Executor.RetryLimit = 0
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_address")
	assert.Contains(t, err.Error(), "retry_limit")
	assert.Contains(t, err.Error(), "redis")
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[leader]
user_address = "0xleader"
fetch_interval_seconds = 5
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0xleader", cfg.Leader.UserAddress)
	assert.Equal(t, 5, cfg.Leader.FetchIntervalSeconds)
	// Untouched sections keep their defaults.
	assert.Equal(t, "https://clob.polymarket.com", cfg.Polymarket.ClobHost)
	assert.Equal(t, 3, cfg.Executor.RetryLimit)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MIRROR_LEADER_USER_ADDRESS", "0xfromenv")
	t.Setenv("MIRROR_EXECUTOR_RETRY_LIMIT", "7")
	t.Setenv("MIRROR_LEADER_TOO_OLD_HOURS", "12.5")
	t.Setenv("MIRROR_POSTGRES_RUN_MIGRATIONS", "false")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, "0xfromenv", cfg.Leader.UserAddress)
	assert.Equal(t, 7, cfg.Executor.RetryLimit)
	assert.Equal(t, 12.5, cfg.Leader.TooOldHours)
	assert.False(t, cfg.Postgres.RunMigrations)
}

func TestBareEnvCompatibility(t *testing.T) {
	t.Setenv("USER_ADDRESS", "0xbare")
	t.Setenv("RETRY_LIMIT", "5")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, "0xbare", cfg.Leader.UserAddress)
	assert.Equal(t, 5, cfg.Executor.RetryLimit)
}
