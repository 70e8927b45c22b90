// Package service holds the copy-trading orchestration: deciding how each
// leader trade is mirrored and gathering the inputs execution needs.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/averyls/mirrorbot/internal/domain"
	"github.com/averyls/mirrorbot/internal/executor"
	"github.com/averyls/mirrorbot/internal/notify"
	"github.com/averyls/mirrorbot/internal/sizing"
)

// DataAPI supplies per-wallet portfolio data from the data API.
type DataAPI interface {
	GetPositions(ctx context.Context, user string, owner domain.PositionOwner) ([]domain.PositionSnapshot, error)
	GetValue(ctx context.Context, user string) (float64, error)
}

// TradeExecutor runs a mirror request to a terminal outcome.
type TradeExecutor interface {
	Execute(ctx context.Context, req executor.Request) (domain.ExecutionOutcome, error)
}

// CopyService decides the mirroring mode for each leader trade and drives the
// executor. Leader buys become sized buys. Leader sells become proportional
// sells, or a full merge when the leader exited the position entirely.
type CopyService struct {
	data      DataAPI
	exec      TradeExecutor
	sizer     sizing.Strategy
	balances  domain.BalanceCache
	snapshots domain.SnapshotStore
	notifier  *notify.Notifier
	logger    *slog.Logger

	selfAddress   string
	leaderAddress string
}

// NewCopyService creates a CopyService. balances and snapshots may be nil;
// the service then reads values straight from the data API and skips
// snapshot recording.
func NewCopyService(
	data DataAPI,
	exec TradeExecutor,
	sizer sizing.Strategy,
	balances domain.BalanceCache,
	snapshots domain.SnapshotStore,
	notifier *notify.Notifier,
	selfAddress, leaderAddress string,
	logger *slog.Logger,
) *CopyService {
	return &CopyService{
		data:          data,
		exec:          exec,
		sizer:         sizer,
		balances:      balances,
		snapshots:     snapshots,
		notifier:      notifier,
		selfAddress:   selfAddress,
		leaderAddress: leaderAddress,
		logger:        logger.With(slog.String("component", "copy_service")),
	}
}

// HandleTrade mirrors one fresh leader trade. It always drives the trade to
// a terminal state unless an infrastructure error prevents that; those are
// returned to the poller for logging.
func (s *CopyService) HandleTrade(ctx context.Context, trade domain.TradeActivity) error {
	s.notify(ctx, notify.EventTradeDetected, "Leader trade detected",
		fmt.Sprintf("%s %s %q (%s) size=%.2f @ %.3f ($%.2f)",
			trade.Side, trade.Outcome, trade.Title, trade.TxHash,
			trade.Size, trade.Price, trade.UsdcSize))

	var req executor.Request
	var err error
	switch trade.Side {
	case domain.ActivitySideBuy:
		req, err = s.buildBuy(ctx, trade)
	case domain.ActivitySideSell:
		req, err = s.buildSell(ctx, trade)
	default:
		return fmt.Errorf("service: trade %s has unknown side %q", trade.TxHash, trade.Side)
	}
	if err != nil {
		s.notify(ctx, notify.EventError, "Mirroring failed",
			fmt.Sprintf("%s: %v", trade.TxHash, err))
		return err
	}

	outcome, err := s.exec.Execute(ctx, req)
	if err != nil {
		s.notify(ctx, notify.EventError, "Execution failed",
			fmt.Sprintf("%s: %v", trade.TxHash, err))
		return err
	}

	switch outcome.State {
	case domain.ExecutionStateDone:
		s.notify(ctx, notify.EventTradeExecuted, "Trade mirrored",
			fmt.Sprintf("%s %s %q (%s)", req.Mode, trade.Outcome, trade.Title, trade.TxHash))
	case domain.ExecutionStateAborted:
		s.notify(ctx, notify.EventTradeAborted, "Trade aborted",
			fmt.Sprintf("%s %q (%s): %v after %d retries",
				req.Mode, trade.Title, trade.TxHash, outcome.Err(), outcome.Retries))
	}

	return nil
}

// buildBuy sizes a mirrored buy from both parties' portfolio values.
func (s *CopyService) buildBuy(ctx context.Context, trade domain.TradeActivity) (executor.Request, error) {
	myBalance, err := s.balanceOf(ctx, s.selfAddress)
	if err != nil {
		return executor.Request{}, fmt.Errorf("service: own balance: %w", err)
	}
	leaderBalance, err := s.balanceOf(ctx, s.leaderAddress)
	if err != nil {
		return executor.Request{}, fmt.Errorf("service: leader balance: %w", err)
	}

	amount := s.sizer.Size(trade, myBalance, leaderBalance)
	s.logger.Info("buy sized",
		slog.String("tx_hash", trade.TxHash),
		slog.String("strategy", s.sizer.Name()),
		slog.Float64("own_balance", myBalance),
		slog.Float64("leader_balance", leaderBalance),
		slog.Float64("amount_usd", amount))

	return executor.Request{
		Trade:        trade,
		Mode:         executor.ModeBuy,
		BuyAmountUSD: amount,
	}, nil
}

// buildSell decides between a proportional sell and a full merge by checking
// whether the leader still holds the asset, and gathers both positions.
func (s *CopyService) buildSell(ctx context.Context, trade domain.TradeActivity) (executor.Request, error) {
	ownPos, err := s.positionOf(ctx, s.selfAddress, domain.OwnerSelf, trade.Asset)
	if err != nil {
		return executor.Request{}, fmt.Errorf("service: own position: %w", err)
	}
	leaderPos, err := s.positionOf(ctx, s.leaderAddress, domain.OwnerLeader, trade.Asset)
	if err != nil {
		return executor.Request{}, fmt.Errorf("service: leader position: %w", err)
	}

	req := executor.Request{
		Trade:          trade,
		OwnPosition:    ownPos,
		LeaderPosition: leaderPos,
	}
	if leaderPos == nil || leaderPos.Size <= 0 {
		req.Mode = executor.ModeMerge
	} else {
		req.Mode = executor.ModeSell
	}

	s.logger.Info("sell mode decided",
		slog.String("tx_hash", trade.TxHash),
		slog.String("mode", string(req.Mode)),
		slog.Float64("own_size", sizeOf(ownPos)),
		slog.Float64("leader_size", sizeOf(leaderPos)))

	return req, nil
}

// balanceOf returns a wallet's portfolio value, served from the cache when
// fresh.
func (s *CopyService) balanceOf(ctx context.Context, wallet string) (float64, error) {
	if s.balances != nil {
		usd, ok, err := s.balances.Get(ctx, wallet)
		if err != nil {
			s.logger.Warn("balance cache read failed", slog.String("error", err.Error()))
		} else if ok {
			return usd, nil
		}
	}

	usd, err := s.data.GetValue(ctx, wallet)
	if err != nil {
		return 0, err
	}

	if s.balances != nil {
		if err := s.balances.Set(ctx, wallet, usd); err != nil {
			s.logger.Warn("balance cache write failed", slog.String("error", err.Error()))
		}
	}
	return usd, nil
}

// positionOf fetches a wallet's positions, records them as snapshots, and
// returns the holding of the given asset, or nil when there is none.
func (s *CopyService) positionOf(ctx context.Context, wallet string, owner domain.PositionOwner, asset string) (*domain.PositionSnapshot, error) {
	positions, err := s.data.GetPositions(ctx, wallet, owner)
	if err != nil {
		return nil, err
	}

	var match *domain.PositionSnapshot
	for i := range positions {
		if positions[i].Asset == asset {
			match = &positions[i]
			break
		}
	}

	if s.snapshots != nil && match != nil {
		if err := s.snapshots.Record(ctx, *match); err != nil {
			s.logger.Warn("snapshot record failed", slog.String("error", err.Error()))
		}
	}

	return match, nil
}

func (s *CopyService) notify(ctx context.Context, event, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event, title, message); err != nil {
		s.logger.Warn("notification failed", slog.String("error", err.Error()))
	}
}

func sizeOf(p *domain.PositionSnapshot) float64 {
	if p == nil {
		return 0
	}
	return p.Size
}
