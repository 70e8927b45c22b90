package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averyls/mirrorbot/internal/domain"
)

type fakeFeed struct {
	entries []domain.TradeActivity
	err     error
}

func (f *fakeFeed) GetUserActivity(_ context.Context, _ string, _, _ int) ([]domain.TradeActivity, error) {
	return f.entries, f.err
}

type fakeStore struct {
	domain.ActivityStore
	trades         []domain.TradeActivity
	createFailures int // Create returns a transient error this many times
}

func (s *fakeStore) Create(_ context.Context, trade domain.TradeActivity) error {
	if s.createFailures > 0 {
		s.createFailures--
		return fmt.Errorf("fake: connection reset")
	}
	for _, t := range s.trades {
		if t.TxHash == trade.TxHash {
			return fmt.Errorf("fake: %w", domain.ErrAlreadyExists)
		}
	}
	// Like the real store, a missing ID is filled in on the local copy
	// only; the caller keeps whatever ID it passed.
	if trade.ID == "" {
		trade.ID = "db-" + trade.TxHash
	}
	s.trades = append(s.trades, trade)
	return nil
}

func (s *fakeStore) ListAll(_ context.Context) ([]domain.TradeActivity, error) {
	return s.trades, nil
}

type fakeHandler struct {
	handled []string
	trades  []domain.TradeActivity
}

func (h *fakeHandler) HandleTrade(_ context.Context, trade domain.TradeActivity) error {
	h.handled = append(h.handled, trade.TxHash)
	h.trades = append(h.trades, trade)
	return nil
}

func newTestPoller(feed Feed, store domain.ActivityStore, handler TradeHandler) *Poller {
	return New(Config{
		LeaderAddress: "0xleader",
		Interval:      time.Second,
		TooOldHours:   1,
	}, feed, store, nil, handler, slog.Default())
}

func tradeAt(hash string, age time.Duration) domain.TradeActivity {
	return domain.TradeActivity{
		TxHash:    hash,
		Type:      domain.ActivityTypeTrade,
		Side:      domain.ActivitySideBuy,
		Asset:     "token-1",
		Size:      10,
		UsdcSize:  5,
		Price:     0.5,
		Timestamp: time.Now().Add(-age),
	}
}

func TestPollOnceDispatchesOldestFirst(t *testing.T) {
	// Feed order is newest-first; execution must replay oldest-first.
	feed := &fakeFeed{entries: []domain.TradeActivity{
		tradeAt("0xccc", 1*time.Minute),
		tradeAt("0xbbb", 2*time.Minute),
		tradeAt("0xaaa", 3*time.Minute),
	}}
	store := &fakeStore{}
	handler := &fakeHandler{}
	p := newTestPoller(feed, store, handler)

	require.NoError(t, p.PollOnce(context.Background()))
	assert.Equal(t, []string{"0xaaa", "0xbbb", "0xccc"}, handler.handled)
	assert.Len(t, store.trades, 3)
}

func TestPollOnceDedupsAcrossPolls(t *testing.T) {
	feed := &fakeFeed{entries: []domain.TradeActivity{tradeAt("0xaaa", time.Minute)}}
	store := &fakeStore{}
	handler := &fakeHandler{}
	p := newTestPoller(feed, store, handler)

	require.NoError(t, p.PollOnce(context.Background()))
	require.NoError(t, p.PollOnce(context.Background()))

	assert.Equal(t, []string{"0xaaa"}, handler.handled)
	assert.Len(t, store.trades, 1)
}

func TestPollOnceFiltersNonTrades(t *testing.T) {
	redeem := tradeAt("0xredeem", time.Minute)
	redeem.Type = "REDEEM"

	feed := &fakeFeed{entries: []domain.TradeActivity{
		tradeAt("0xtrade", time.Minute),
		redeem,
	}}
	store := &fakeStore{}
	handler := &fakeHandler{}
	p := newTestPoller(feed, store, handler)

	require.NoError(t, p.PollOnce(context.Background()))
	assert.Equal(t, []string{"0xtrade"}, handler.handled)
}

func TestPollOnceAgeGate(t *testing.T) {
	feed := &fakeFeed{entries: []domain.TradeActivity{
		tradeAt("0xfresh", 30*time.Minute),
		tradeAt("0xstale", 2*time.Hour),
	}}
	store := &fakeStore{}
	handler := &fakeHandler{}
	p := newTestPoller(feed, store, handler)

	require.NoError(t, p.PollOnce(context.Background()))

	// The stale trade is never mirrored, but it is remembered so later polls
	// skip it immediately.
	assert.Equal(t, []string{"0xfresh"}, handler.handled)
	assert.True(t, p.known.Contains("0xstale"))
	assert.Len(t, store.trades, 1)
}

func TestPollOnceHandsStoreIDDownstream(t *testing.T) {
	feed := &fakeFeed{entries: []domain.TradeActivity{tradeAt("0xaaa", time.Minute)}}
	store := &fakeStore{}
	handler := &fakeHandler{}
	p := newTestPoller(feed, store, handler)

	require.NoError(t, p.PollOnce(context.Background()))

	// The handler's trade carries the same ID the store persisted, so the
	// executor can update the entry it came from.
	require.Len(t, handler.trades, 1)
	require.NotEmpty(t, handler.trades[0].ID)
	require.Len(t, store.trades, 1)
	assert.Equal(t, store.trades[0].ID, handler.trades[0].ID)
}

func TestPollOnceRetriesAfterStoreFailure(t *testing.T) {
	feed := &fakeFeed{entries: []domain.TradeActivity{tradeAt("0xaaa", time.Minute)}}
	store := &fakeStore{createFailures: 1}
	handler := &fakeHandler{}
	p := newTestPoller(feed, store, handler)

	// First poll hits the transient store error; the trade must not be
	// remembered as seen.
	require.Error(t, p.PollOnce(context.Background()))
	assert.Empty(t, handler.handled)
	assert.False(t, p.known.Contains("0xaaa"))

	// The next poll picks it up.
	require.NoError(t, p.PollOnce(context.Background()))
	assert.Equal(t, []string{"0xaaa"}, handler.handled)
	assert.Len(t, store.trades, 1)
}

func TestInitializeRestoresKnownHashes(t *testing.T) {
	store := &fakeStore{trades: []domain.TradeActivity{
		tradeAt("0xold1", time.Minute),
		tradeAt("0xold2", time.Minute),
	}}
	feed := &fakeFeed{entries: []domain.TradeActivity{
		tradeAt("0xold1", time.Minute),
		tradeAt("0xnew", time.Minute),
	}}
	handler := &fakeHandler{}
	p := newTestPoller(feed, store, handler)

	require.NoError(t, p.Initialize(context.Background()))
	assert.Equal(t, 2, p.known.Len())

	// After a restart only the genuinely new trade is dispatched.
	require.NoError(t, p.PollOnce(context.Background()))
	assert.Equal(t, []string{"0xnew"}, handler.handled)
}

func TestRunStopsOnCancel(t *testing.T) {
	feed := &fakeFeed{}
	store := &fakeStore{}
	handler := &fakeHandler{}
	p := newTestPoller(feed, store, handler)
	p.cfg.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
