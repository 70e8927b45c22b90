package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averyls/mirrorbot/internal/config"
	"github.com/averyls/mirrorbot/internal/domain"
)

func trade(usdcSize float64) domain.TradeActivity {
	return domain.TradeActivity{
		Side:     domain.ActivitySideBuy,
		UsdcSize: usdcSize,
		Price:    0.5,
	}
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		strategy string
		want     string
	}{
		{"ratio", "ratio"},
		{"fixed", "fixed"},
		{"percent", "percent"},
		{"historical_max", "historical_max"},
	}
	for _, tt := range tests {
		s, err := FromConfig(config.SizingConfig{
			Strategy:    tt.strategy,
			FixedUSD:    10,
			Percent:     0.01,
			MaxTradeUSD: 1000,
			CapPercent:  0.05,
		})
		require.NoError(t, err)
		assert.Equal(t, tt.want, s.Name())
	}

	_, err := FromConfig(config.SizingConfig{Strategy: "martingale"})
	assert.Error(t, err)
}

func TestRatioStrategy(t *testing.T) {
	s := &RatioStrategy{}

	// Leader spends 100 of a 10100 pre-trade balance (~0.99%); follower with
	// 1000 mirrors the same fraction.
	got := s.Size(trade(100), 1000, 10000)
	assert.InDelta(t, 1000.0/10100.0*100, got, 1e-9)

	// Tiny proportional amounts floor at $1.
	got = s.Size(trade(1), 1000, 100000)
	assert.Equal(t, 1.0, got)

	// Huge leader trades cap at 5% of the follower's balance.
	got = s.Size(trade(50000), 1000, 10000)
	assert.Equal(t, 50.0, got)

	// Degenerate balances size to zero.
	assert.Zero(t, s.Size(trade(100), 0, 10000))
	assert.Zero(t, s.Size(trade(0), 1000, 0))
}

func TestFixedStrategy(t *testing.T) {
	s := &FixedStrategy{USD: 25}

	assert.Equal(t, 25.0, s.Size(trade(500), 1000, 10000))

	// Capped at 5% of balance, like the ratio strategy.
	assert.Equal(t, 5.0, s.Size(trade(500), 100, 10000))

	// A tiny balance shrinks the cap below the $1 floor; the cap wins.
	assert.InDelta(t, 0.025, s.Size(trade(500), 0.5, 10000), 1e-9)
	assert.Zero(t, s.Size(trade(500), 0, 10000))
}

func TestPercentStrategy(t *testing.T) {
	s := &PercentStrategy{Percent: 0.02}

	assert.Equal(t, 20.0, s.Size(trade(500), 1000, 10000))

	// Small balances floor at $1 even when that exceeds the balance; an
	// unaffordable order is the exchange's rejection to make.
	assert.Equal(t, 1.0, s.Size(trade(500), 40, 10000))
	assert.Equal(t, 1.0, s.Size(trade(500), 0.5, 10000))
	assert.Zero(t, s.Size(trade(500), 0, 10000))
}

func TestHistoricalMaxStrategy(t *testing.T) {
	s := &HistoricalMaxStrategy{MaxTradeUSD: 1000, CapPercent: 0.05}

	// A trade at the historical max commits the full cap.
	assert.Equal(t, 50.0, s.Size(trade(1000), 1000, 10000))

	// Half-size trades commit half the cap.
	assert.Equal(t, 25.0, s.Size(trade(500), 1000, 10000))

	// Trades beyond the historical max are treated as max-size.
	assert.Equal(t, 50.0, s.Size(trade(5000), 1000, 10000))

	// Tiny factors floor at $1.
	assert.Equal(t, 1.0, s.Size(trade(1), 1000, 10000))

	assert.Zero(t, s.Size(trade(100), 0, 10000))
}
