package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averyls/mirrorbot/internal/domain"
)

func TestGetUserActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activity", r.URL.Path)
		assert.Equal(t, "0xleader", r.URL.Query().Get("user"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"proxyWallet": "0xleader",
				"timestamp": 1756300000,
				"conditionId": "0xcond",
				"type": "TRADE",
				"size": 200,
				"usdcSize": 100,
				"transactionHash": "0xnew",
				"price": 0.5,
				"asset": "123456",
				"side": "BUY",
				"outcome": "Yes",
				"title": "Will it happen?"
			},
			{
				"proxyWallet": "0xleader",
				"timestamp": 1756200000,
				"type": "REDEEM",
				"transactionHash": "0xredeem",
				"asset": "123456"
			}
		]`))
	}))
	defer srv.Close()

	c := NewDataClient(srv.URL)
	trades, err := c.GetUserActivity(context.Background(), "0xleader", 100, 0)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	trade := trades[0]
	assert.Equal(t, "0xnew", trade.TxHash)
	assert.Equal(t, domain.ActivityTypeTrade, trade.Type)
	assert.Equal(t, domain.ActivitySideBuy, trade.Side)
	assert.Equal(t, "123456", trade.Asset)
	assert.Equal(t, 200.0, trade.Size)
	assert.Equal(t, 100.0, trade.UsdcSize)
	assert.Equal(t, 0.5, trade.Price)
	assert.Equal(t, int64(1756300000), trade.Timestamp.Unix())

	// Non-trade entries survive conversion with their type intact so the
	// monitor can filter them.
	assert.Equal(t, domain.ActivityType("REDEEM"), trades[1].Type)
}

func TestGetPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions", r.URL.Path)
		assert.Equal(t, "0xself", r.URL.Query().Get("user"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"proxyWallet": "0xself", "asset": "123456", "conditionId": "0xcond", "size": 80, "avgPrice": 0.45, "title": "Will it happen?", "outcome": "Yes"}
		]`))
	}))
	defer srv.Close()

	c := NewDataClient(srv.URL)
	snaps, err := c.GetPositions(context.Background(), "0xself", domain.OwnerSelf)
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	assert.Equal(t, domain.OwnerSelf, snaps[0].Owner)
	assert.Equal(t, "123456", snaps[0].Asset)
	assert.Equal(t, 80.0, snaps[0].Size)
	assert.Equal(t, 0.45, snaps[0].AvgPrice)
	assert.False(t, snaps[0].CapturedAt.IsZero())
}

func TestGetValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/value", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"user": "0xself", "value": 1234.56}]`))
	}))
	defer srv.Close()

	c := NewDataClient(srv.URL)
	usd, err := c.GetValue(context.Background(), "0xself")
	require.NoError(t, err)
	assert.Equal(t, 1234.56, usd)
}

func TestGetValueEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewDataClient(srv.URL)
	_, err := c.GetValue(context.Background(), "0xself")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetActivityHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewDataClient(srv.URL)
	_, err := c.GetActivity(context.Background(), "0xleader", 100, 0)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
