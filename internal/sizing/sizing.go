// Package sizing decides how many dollars a mirrored buy commits, given the
// leader's trade and both parties' portfolio values. Strategies are pluggable
// and selected by name from configuration.
package sizing

import (
	"fmt"
	"math"

	"github.com/averyls/mirrorbot/internal/config"
	"github.com/averyls/mirrorbot/internal/domain"
)

// Strategy computes the USD notional to spend mirroring a leader buy.
// Implementations return 0 or a positive amount. The $1 floor can exceed a
// near-empty balance; the exchange rejects orders the wallet cannot cover
// and the executor's retry budget handles that.
type Strategy interface {
	// Name returns the config identifier of the strategy.
	Name() string

	// Size returns the USD amount to spend for the given leader trade.
	// myBalance and leaderBalance are the parties' total portfolio values.
	Size(trade domain.TradeActivity, myBalance, leaderBalance float64) float64
}

// FromConfig builds the strategy named in cfg.
func FromConfig(cfg config.SizingConfig) (Strategy, error) {
	switch cfg.Strategy {
	case "ratio":
		return &RatioStrategy{}, nil
	case "fixed":
		return &FixedStrategy{USD: cfg.FixedUSD}, nil
	case "percent":
		return &PercentStrategy{Percent: cfg.Percent}, nil
	case "historical_max":
		return &HistoricalMaxStrategy{MaxTradeUSD: cfg.MaxTradeUSD, CapPercent: cfg.CapPercent}, nil
	default:
		return nil, fmt.Errorf("sizing: unknown strategy %q", cfg.Strategy)
	}
}

// RatioStrategy spends the same fraction of the follower's balance that the
// leader committed of theirs. The leader's pre-trade balance is their current
// value plus the trade notional, since the feed reports the balance after the
// buy settled. Results are floored at $1 and capped at 5% of the follower's
// balance.
type RatioStrategy struct{}

func (s *RatioStrategy) Name() string { return "ratio" }

func (s *RatioStrategy) Size(trade domain.TradeActivity, myBalance, leaderBalance float64) float64 {
	denom := leaderBalance + trade.UsdcSize
	if denom <= 0 || myBalance <= 0 {
		return 0
	}

	raw := myBalance / denom * trade.UsdcSize
	return clamp(raw, 1, 0.05*myBalance)
}

// FixedStrategy spends a constant notional per mirrored buy, regardless of
// how large the leader's trade was. The amount is floored at $1 and capped
// at 5% of the follower's balance, same bounds as the ratio strategy.
type FixedStrategy struct {
	USD float64
}

func (s *FixedStrategy) Name() string { return "fixed" }

func (s *FixedStrategy) Size(_ domain.TradeActivity, myBalance, _ float64) float64 {
	if myBalance <= 0 {
		return 0
	}
	return clamp(s.USD, 1, 0.05*myBalance)
}

// PercentStrategy spends a fixed fraction of the follower's balance, floored
// at $1.
type PercentStrategy struct {
	Percent float64
}

func (s *PercentStrategy) Name() string { return "percent" }

func (s *PercentStrategy) Size(_ domain.TradeActivity, myBalance, _ float64) float64 {
	if myBalance <= 0 {
		return 0
	}
	return math.Max(s.Percent*myBalance, 1)
}

// HistoricalMaxStrategy scales the spend by how large the leader's trade is
// relative to the largest trade they have ever placed. A trade at the
// historical max commits the full cap (CapPercent of balance); smaller trades
// commit proportionally less, floored at $1.
type HistoricalMaxStrategy struct {
	MaxTradeUSD float64
	CapPercent  float64
}

func (s *HistoricalMaxStrategy) Name() string { return "historical_max" }

func (s *HistoricalMaxStrategy) Size(trade domain.TradeActivity, myBalance, _ float64) float64 {
	if myBalance <= 0 || s.MaxTradeUSD <= 0 {
		return 0
	}

	factor := math.Min(trade.UsdcSize, s.MaxTradeUSD) / s.MaxTradeUSD
	return math.Max(factor*s.CapPercent*myBalance, 1)
}

// clamp bounds v to [floor, cap]. The cap is applied after the floor, so a
// cap below the floor wins.
func clamp(v, floor, cap float64) float64 {
	if v < floor {
		v = floor
	}
	if v > cap {
		v = cap
	}
	return v
}
