// Package executor turns a detected leader trade into orders against the
// CLOB. It walks the top of book with fill-or-kill orders until the target
// amount is filled or an abort condition stops it, and records the terminal
// outcome durably.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/averyls/mirrorbot/internal/domain"
)

// Mode selects how a leader trade is mirrored.
type Mode string

const (
	// ModeBuy mirrors a leader buy by spending a sized USD amount.
	ModeBuy Mode = "buy"
	// ModeSell mirrors a partial leader sell proportionally.
	ModeSell Mode = "sell"
	// ModeMerge liquidates the own position entirely, used when the leader
	// exited theirs.
	ModeMerge Mode = "merge"
)

// Residual fill targets below these thresholds count as fully executed.
const (
	minRemainderUSD    = 0.01
	minRemainderTokens = 1e-4
)

// Exchange is what the executor needs from the CLOB: a book to read and a
// way to sign and submit marketable orders.
type Exchange interface {
	GetOrderBook(ctx context.Context, tokenID string) (domain.OrderbookSnapshot, error)
	CreateMarketOrder(args domain.MarketOrderArgs) (domain.SignedOrder, error)
	PostOrder(ctx context.Context, order domain.SignedOrder, tif domain.OrderType) (domain.OrderResult, error)
}

// Request describes one execution.
type Request struct {
	Trade domain.TradeActivity
	Mode  Mode

	// BuyAmountUSD is the sized notional to spend. Buy mode only.
	BuyAmountUSD float64

	// OwnPosition is the follower's current holding of the asset. Required
	// for sell and merge modes.
	OwnPosition *domain.PositionSnapshot

	// LeaderPosition is the leader's holding after their sell settled. Sell
	// mode only; nil means the leader retains nothing.
	LeaderPosition *domain.PositionSnapshot
}

// Executor executes mirror requests against the exchange with a bounded
// retry budget and records every terminal outcome in the activity store.
type Executor struct {
	exchange   Exchange
	store      domain.ActivityStore
	retryLimit int
	slippage   float64
	retryDelay time.Duration
	logger     *slog.Logger
}

// New creates an Executor. retryLimit bounds consecutive order rejections;
// slippage is the max divergence between the best ask and the leader's price
// on buys.
func New(exchange Exchange, store domain.ActivityStore, retryLimit int, slippage float64, logger *slog.Logger) *Executor {
	return &Executor{
		exchange:   exchange,
		store:      store,
		retryLimit: retryLimit,
		slippage:   slippage,
		retryDelay: time.Second,
		logger:     logger.With(slog.String("component", "executor")),
	}
}

// Execute runs a request to its terminal state and records the outcome. The
// returned outcome is what was written to the store. An error is returned
// only when the outcome could not be recorded or the context was cancelled;
// in the cancellation case the entry keeps its execution stamp and is
// finalized as interrupted on the next startup.
func (e *Executor) Execute(ctx context.Context, req Request) (domain.ExecutionOutcome, error) {
	executionID := uuid.NewString()
	if err := e.store.BeginExecution(ctx, req.Trade.ID, executionID); err != nil {
		return domain.ExecutionOutcome{}, fmt.Errorf("executor: stamp execution: %w", err)
	}

	logger := e.logger.With(
		slog.String("tx_hash", req.Trade.TxHash),
		slog.String("execution_id", executionID),
		slog.String("mode", string(req.Mode)))

	var outcome domain.ExecutionOutcome
	var err error
	switch req.Mode {
	case ModeBuy:
		outcome, err = e.runBuy(ctx, req, logger)
	case ModeSell, ModeMerge:
		outcome, err = e.runSell(ctx, req, logger)
	default:
		return domain.ExecutionOutcome{}, fmt.Errorf("executor: unknown mode %q", req.Mode)
	}
	if err != nil {
		return domain.ExecutionOutcome{}, err
	}

	if err := e.store.MarkExecuted(ctx, req.Trade.ID, outcome); err != nil {
		return outcome, fmt.Errorf("executor: record outcome: %w", err)
	}

	logger.Info("execution finished",
		slog.String("result", string(outcome.State)),
		slog.String("abort_reason", string(outcome.Reason)),
		slog.Int("retries", outcome.Retries))

	return outcome, nil
}

// runBuy spends req.BuyAmountUSD walking the ask side of the book. Each
// iteration buys whatever the best ask can absorb, priced at that ask, as a
// fill-or-kill order.
func (e *Executor) runBuy(ctx context.Context, req Request, logger *slog.Logger) (domain.ExecutionOutcome, error) {
	remaining := req.BuyAmountUSD
	retry := 0

	for remaining > minRemainderUSD {
		book, err := e.exchange.GetOrderBook(ctx, req.Trade.Asset)
		if err != nil {
			if ctx.Err() != nil {
				return domain.ExecutionOutcome{}, ctx.Err()
			}
			retry++
			logger.Warn("order book fetch failed",
				slog.Int("retry", retry), slog.String("error", err.Error()))
			if retry >= e.retryLimit {
				return domain.Aborted(domain.AbortRetryExhausted, retry), nil
			}
			if err := e.wait(ctx); err != nil {
				return domain.ExecutionOutcome{}, err
			}
			continue
		}

		ask, ok := book.BestAsk()
		if !ok {
			return domain.Aborted(domain.AbortNoLiquidity, retry), nil
		}

		// Refuse to chase a market that ran away from the leader's entry.
		if ask.Price-e.slippage > req.Trade.Price {
			logger.Warn("ask diverged beyond slippage tolerance",
				slog.Float64("ask", ask.Price),
				slog.Float64("leader_price", req.Trade.Price))
			return domain.Aborted(domain.AbortSlippage, retry), nil
		}

		amount := min(remaining, ask.Size*ask.Price)

		result, err := e.submit(ctx, domain.MarketOrderArgs{
			Side:    domain.OrderSideBuy,
			TokenID: req.Trade.Asset,
			Amount:  amount,
			Price:   ask.Price,
		}, logger)
		if err != nil {
			return domain.ExecutionOutcome{}, err
		}

		if result.Success {
			remaining -= amount
			retry = 0
			logger.Info("buy fill",
				slog.Float64("usd", amount),
				slog.Float64("price", ask.Price),
				slog.Float64("remaining_usd", remaining))
			continue
		}

		retry++
		logger.Warn("buy order rejected",
			slog.Int("retry", retry), slog.String("message", result.Message))
		if retry >= e.retryLimit {
			return domain.Aborted(domain.AbortRetryExhausted, retry), nil
		}
		if err := e.wait(ctx); err != nil {
			return domain.ExecutionOutcome{}, err
		}
	}

	return domain.Done(), nil
}

// runSell liquidates tokens against the bid side of the book. Merge mode
// sells the whole position; sell mode sells the proportional target.
func (e *Executor) runSell(ctx context.Context, req Request, logger *slog.Logger) (domain.ExecutionOutcome, error) {
	if req.OwnPosition == nil || req.OwnPosition.Size <= 0 {
		return domain.Aborted(domain.AbortMissingPosition, 0), nil
	}

	remaining := sellTarget(req)
	if remaining <= minRemainderTokens {
		return domain.Done(), nil
	}

	retry := 0
	for remaining > minRemainderTokens {
		book, err := e.exchange.GetOrderBook(ctx, req.Trade.Asset)
		if err != nil {
			if ctx.Err() != nil {
				return domain.ExecutionOutcome{}, ctx.Err()
			}
			retry++
			logger.Warn("order book fetch failed",
				slog.Int("retry", retry), slog.String("error", err.Error()))
			if retry >= e.retryLimit {
				return domain.Aborted(domain.AbortRetryExhausted, retry), nil
			}
			if err := e.wait(ctx); err != nil {
				return domain.ExecutionOutcome{}, err
			}
			continue
		}

		bid, ok := book.BestBid()
		if !ok {
			return domain.Aborted(domain.AbortNoLiquidity, retry), nil
		}

		amount := min(remaining, bid.Size)

		result, err := e.submit(ctx, domain.MarketOrderArgs{
			Side:    domain.OrderSideSell,
			TokenID: req.Trade.Asset,
			Amount:  amount,
			Price:   bid.Price,
		}, logger)
		if err != nil {
			return domain.ExecutionOutcome{}, err
		}

		if result.Success {
			remaining -= amount
			retry = 0
			logger.Info("sell fill",
				slog.Float64("tokens", amount),
				slog.Float64("price", bid.Price),
				slog.Float64("remaining_tokens", remaining))
			continue
		}

		retry++
		logger.Warn("sell order rejected",
			slog.Int("retry", retry), slog.String("message", result.Message))
		if retry >= e.retryLimit {
			return domain.Aborted(domain.AbortRetryExhausted, retry), nil
		}
		if err := e.wait(ctx); err != nil {
			return domain.ExecutionOutcome{}, err
		}
	}

	return domain.Done(), nil
}

// sellTarget returns how many tokens to sell. A merge liquidates everything.
// A proportional sell reduces the own position by the share the leader sold:
// trade.Size out of their pre-sell holding (post-sell size plus trade.Size).
func sellTarget(req Request) float64 {
	own := req.OwnPosition.Size
	if req.Mode == ModeMerge {
		return own
	}

	leaderAfter := 0.0
	if req.LeaderPosition != nil {
		leaderAfter = req.LeaderPosition.Size
	}
	leaderBefore := leaderAfter + req.Trade.Size
	if leaderBefore <= 0 {
		return own
	}

	target := own * req.Trade.Size / leaderBefore
	return min(target, own)
}

// submit signs and posts one fill-or-kill order. Transport errors are
// reported as rejections so they consume retry budget instead of leaving the
// execution without a terminal state.
func (e *Executor) submit(ctx context.Context, args domain.MarketOrderArgs, logger *slog.Logger) (domain.OrderResult, error) {
	if ctx.Err() != nil {
		return domain.OrderResult{}, ctx.Err()
	}

	order, err := e.exchange.CreateMarketOrder(args)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("executor: create order: %w", err)
	}

	result, err := e.exchange.PostOrder(ctx, order, domain.OrderTypeFOK)
	if err != nil {
		if ctx.Err() != nil {
			return domain.OrderResult{}, ctx.Err()
		}
		logger.Warn("order submission failed", slog.String("error", err.Error()))
		return domain.OrderResult{Success: false, Message: err.Error()}, nil
	}

	return result, nil
}

// wait sleeps the retry delay, returning early if ctx is cancelled.
func (e *Executor) wait(ctx context.Context) error {
	if e.retryDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.retryDelay):
		return nil
	}
}
