// Package monitor watches a leader wallet's activity feed and hands fresh
// trades to a handler. Dedup is by transaction hash; the known-hash set is
// rebuilt from the database on startup so restarts never replay old trades.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/averyls/mirrorbot/internal/domain"
)

// defaultFetchLimit is how many feed entries each poll requests. The feed is
// newest-first; one page is ample for poll intervals measured in seconds.
const defaultFetchLimit = 100

// Feed supplies a wallet's recent activity, newest first.
type Feed interface {
	GetUserActivity(ctx context.Context, user string, limit, offset int) ([]domain.TradeActivity, error)
}

// TradeHandler receives each fresh trade exactly once, in feed order
// (oldest first within a poll).
type TradeHandler interface {
	HandleTrade(ctx context.Context, trade domain.TradeActivity) error
}

// Config parameterizes a Poller.
type Config struct {
	LeaderAddress string
	Interval      time.Duration
	TooOldHours   float64
	FetchLimit    int
}

// Poller periodically fetches the leader's activity feed, filters it down to
// fresh trades, persists them, and dispatches them to the handler.
type Poller struct {
	cfg     Config
	feed    Feed
	store   domain.ActivityStore
	seen    domain.SeenCache
	handler TradeHandler
	known   *KnownHashes
	logger  *slog.Logger
	nowFn   func() time.Time
}

// New creates a Poller. seen may be nil to disable the Redis dedup assist.
func New(cfg Config, feed Feed, store domain.ActivityStore, seen domain.SeenCache, handler TradeHandler, logger *slog.Logger) *Poller {
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = defaultFetchLimit
	}
	return &Poller{
		cfg:     cfg,
		feed:    feed,
		store:   store,
		seen:    seen,
		handler: handler,
		known:   NewKnownHashes(),
		logger:  logger.With(slog.String("component", "monitor")),
		nowFn:   time.Now,
	}
}

// Initialize rebuilds the known-hash set from the database. It must be
// called once before Run.
func (p *Poller) Initialize(ctx context.Context) error {
	trades, err := p.store.ListAll(ctx)
	if err != nil {
		return err
	}

	for i := range trades {
		p.known.Add(trades[i].TxHash)
	}

	p.logger.Info("known-hash set restored",
		slog.Int("hashes", p.known.Len()),
		slog.String("leader", p.cfg.LeaderAddress))

	return nil
}

// Run polls the feed on the configured interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started",
		slog.String("leader", p.cfg.LeaderAddress),
		slog.Duration("interval", p.cfg.Interval))

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-ticker.C:
			if err := p.PollOnce(ctx); err != nil {
				if ctx.Err() != nil {
					p.logger.Info("poller stopped")
					return nil
				}
				p.logger.Error("poll failed", slog.String("error", err.Error()))
			}
		}
	}
}

// PollOnce fetches one page of the feed and processes it oldest-first. Each
// fresh trade is persisted and dispatched before the next entry is examined,
// so mirrored executions happen in the leader's order.
func (p *Poller) PollOnce(ctx context.Context) error {
	entries, err := p.feed.GetUserActivity(ctx, p.cfg.LeaderAddress, p.cfg.FetchLimit, 0)
	if err != nil {
		return err
	}

	// The feed is newest-first; walk backwards to replay in event order.
	for i := len(entries) - 1; i >= 0; i-- {
		trade := entries[i]

		if trade.Type != domain.ActivityTypeTrade {
			continue
		}
		if p.isKnown(ctx, trade.TxHash) {
			continue
		}

		if age := trade.AgeHours(p.nowFn()); age > p.cfg.TooOldHours {
			p.markKnown(ctx, trade.TxHash)
			p.logger.Debug("trade too old, skipping",
				slog.String("tx_hash", trade.TxHash),
				slog.Float64("age_hours", age))
			continue
		}

		// The storage ID travels with the trade through execution, so it is
		// assigned here rather than inside the store.
		trade.ID = uuid.NewString()

		// Marked known only after the entry is durable; a transient create
		// failure leaves the hash unknown so the next poll retries it.
		if err := p.store.Create(ctx, trade); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				p.markKnown(ctx, trade.TxHash)
				continue
			}
			return err
		}
		p.markKnown(ctx, trade.TxHash)

		p.logger.Info("leader trade detected",
			slog.String("tx_hash", trade.TxHash),
			slog.String("side", string(trade.Side)),
			slog.String("title", trade.Title),
			slog.String("outcome", trade.Outcome),
			slog.Float64("size", trade.Size),
			slog.Float64("usdc_size", trade.UsdcSize),
			slog.Float64("price", trade.Price))

		if err := p.handler.HandleTrade(ctx, trade); err != nil {
			if ctx.Err() != nil {
				return err
			}
			p.logger.Error("trade handling failed",
				slog.String("tx_hash", trade.TxHash),
				slog.String("error", err.Error()))
		}
	}

	return nil
}

// isKnown checks the in-memory set first, then the shared seen-set. A hit in
// Redis back-fills the memory set so the next check is local.
func (p *Poller) isKnown(ctx context.Context, txHash string) bool {
	if p.known.Contains(txHash) {
		return true
	}
	if p.seen != nil {
		ok, err := p.seen.Contains(ctx, txHash)
		if err != nil {
			p.logger.Warn("seen-set lookup failed", slog.String("error", err.Error()))
			return false
		}
		if ok {
			p.known.Add(txHash)
			return true
		}
	}
	return false
}

// markKnown records a hash in the memory set and, best effort, in the shared
// seen-set.
func (p *Poller) markKnown(ctx context.Context, txHash string) {
	p.known.Add(txHash)
	if p.seen != nil {
		if err := p.seen.Add(ctx, txHash); err != nil {
			p.logger.Warn("seen-set update failed", slog.String("error", err.Error()))
		}
	}
}
