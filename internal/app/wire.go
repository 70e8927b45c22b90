package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/averyls/mirrorbot/internal/cache/redis"
	"github.com/averyls/mirrorbot/internal/config"
	"github.com/averyls/mirrorbot/internal/crypto"
	"github.com/averyls/mirrorbot/internal/domain"
	"github.com/averyls/mirrorbot/internal/executor"
	"github.com/averyls/mirrorbot/internal/monitor"
	"github.com/averyls/mirrorbot/internal/notify"
	"github.com/averyls/mirrorbot/internal/platform/polymarket"
	"github.com/averyls/mirrorbot/internal/service"
	"github.com/averyls/mirrorbot/internal/sizing"
	"github.com/averyls/mirrorbot/internal/store/postgres"
)

// Dependencies bundles everything the application needs at runtime. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	ActivityStore domain.ActivityStore
	SnapshotStore domain.SnapshotStore
	LockManager   domain.LockManager

	Clob *polymarket.ClobClient
	Data *polymarket.DataClient

	Notifier *notify.Notifier
	Poller   *monitor.Poller

	// SelfAddress is the operator wallet derived from the signing key.
	SelfAddress string
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them with a cleanup function for shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.ActivityStore = postgres.NewActivityStore(pool)
	deps.SnapshotStore = postgres.NewSnapshotStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	seenCache := redis.NewSeenCache(redisClient)
	balanceCache := redis.NewBalanceCache(redisClient, cfg.Redis.BalanceTTL())
	deps.LockManager = redis.NewLockManager(redisClient)

	// --- Signing and exchange clients ---
	privateKey, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: load key: %w", err)
	}

	signer, err := crypto.NewSigner(privateKey, cfg.Polymarket.ChainID)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: signer: %w", err)
	}
	deps.SelfAddress = signer.Address().Hex()

	deps.Clob = polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, cfg.Polymarket.ChainID, cfg.Polymarket.SignatureType)
	deps.Data = polymarket.NewDataClient(cfg.Polymarket.DataHost)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Sizing, execution, orchestration ---
	sizer, err := sizing.FromConfig(cfg.Sizing)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: sizing: %w", err)
	}

	exec := executor.New(deps.Clob, deps.ActivityStore,
		cfg.Executor.RetryLimit, cfg.Executor.SlippageTolerance, logger)

	copySvc := service.NewCopyService(
		deps.Data, exec, sizer,
		balanceCache, deps.SnapshotStore, deps.Notifier,
		deps.SelfAddress, cfg.Leader.UserAddress,
		logger,
	)

	deps.Poller = monitor.New(monitor.Config{
		LeaderAddress: cfg.Leader.UserAddress,
		Interval:      cfg.Leader.FetchInterval(),
		TooOldHours:   cfg.Leader.TooOldHours,
	}, deps.Data, deps.ActivityStore, seenCache, copySvc, logger)

	return deps, cleanup, nil
}
