package polymarket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averyls/mirrorbot/internal/crypto"
	"github.com/averyls/mirrorbot/internal/domain"
)

// Throwaway key for signature plumbing in tests.
const testKey = "0000000000000000000000000000000000000000000000000000000000000001"

func newTestClob(t *testing.T, url string) *ClobClient {
	t.Helper()
	signer, err := crypto.NewSigner(testKey, 137)
	require.NoError(t, err)
	return NewClobClient(url, signer, 137, 0)
}

func TestGetOrderBook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/book", r.URL.Path)
		assert.Equal(t, "123456", r.URL.Query().Get("token_id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"market": "0xcond",
			"asset_id": "123456",
			"timestamp": "1756300000000",
			"bids": [{"price": "0.47", "size": "120"}, {"price": "0.48", "size": "50"}],
			"asks": [{"price": "0.53", "size": "80"}, {"price": "0.52", "size": "30"}]
		}`))
	}))
	defer srv.Close()

	c := newTestClob(t, srv.URL)
	book, err := c.GetOrderBook(context.Background(), "123456")
	require.NoError(t, err)

	assert.Equal(t, "123456", book.AssetID)
	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 2)

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, 0.48, bid.Price)

	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, 0.52, ask.Price)
}

func TestCreateMarketOrderBuy(t *testing.T) {
	c := newTestClob(t, "http://unused")

	order, err := c.CreateMarketOrder(domain.MarketOrderArgs{
		Side:    domain.OrderSideBuy,
		TokenID: "123456",
		Amount:  20, // USD
		Price:   0.50,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderSideBuy, order.Side)
	assert.Equal(t, "20000000", order.MakerAmount) // $20 in 1e6 units
	assert.Equal(t, "40000000", order.TakerAmount) // 40 tokens in 1e6 units
	assert.Equal(t, order.Maker, order.Signer)
	assert.Equal(t, zeroAddress, order.Taker)
	assert.NotEmpty(t, order.Salt)
	assert.NotEmpty(t, order.Signature)
}

func TestCreateMarketOrderSell(t *testing.T) {
	c := newTestClob(t, "http://unused")

	order, err := c.CreateMarketOrder(domain.MarketOrderArgs{
		Side:    domain.OrderSideSell,
		TokenID: "123456",
		Amount:  40, // tokens
		Price:   0.50,
	})
	require.NoError(t, err)

	assert.Equal(t, "40000000", order.MakerAmount) // 40 tokens
	assert.Equal(t, "20000000", order.TakerAmount) // $20
}

func TestCreateMarketOrderValidation(t *testing.T) {
	c := newTestClob(t, "http://unused")

	_, err := c.CreateMarketOrder(domain.MarketOrderArgs{Side: domain.OrderSideBuy, TokenID: "1", Amount: 10, Price: 0})
	assert.Error(t, err)

	_, err = c.CreateMarketOrder(domain.MarketOrderArgs{Side: domain.OrderSideBuy, TokenID: "1", Amount: 0, Price: 0.5})
	assert.Error(t, err)
}

func TestPostOrderRequiresCredentials(t *testing.T) {
	c := newTestClob(t, "http://unused")

	_, err := c.PostOrder(context.Background(), domain.SignedOrder{}, domain.OrderTypeFOK)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestDeriveAPIKeyThenPostOrder(t *testing.T) {
	var sawAuth, sawOrder bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/derive-api-key":
			sawAuth = true
			assert.NotEmpty(t, r.Header.Get("POLY_ADDRESS"))
			assert.NotEmpty(t, r.Header.Get("POLY_SIGNATURE"))
			assert.NotEmpty(t, r.Header.Get("POLY_TIMESTAMP"))
			_, _ = w.Write([]byte(`{"apiKey": "key-1", "secret": "c2VjcmV0", "passphrase": "pass"}`))
		case "/order":
			sawOrder = true
			assert.Equal(t, "key-1", r.Header.Get("POLY_API_KEY"))
			assert.NotEmpty(t, r.Header.Get("POLY_SIGNATURE"))
			assert.NotEmpty(t, r.Header.Get("POLY_PASSPHRASE"))

			var body struct {
				Order     map[string]any `json:"order"`
				Owner     string         `json:"owner"`
				OrderType string         `json:"orderType"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "key-1", body.Owner)
			assert.Equal(t, "FOK", body.OrderType)
			assert.Equal(t, "BUY", body.Order["side"])

			_, _ = w.Write([]byte(`{"success": true, "orderID": "ord-1", "status": "matched"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClob(t, srv.URL)
	require.NoError(t, c.DeriveAPIKey(context.Background()))

	order, err := c.CreateMarketOrder(domain.MarketOrderArgs{
		Side:    domain.OrderSideBuy,
		TokenID: "123456",
		Amount:  20,
		Price:   0.50,
	})
	require.NoError(t, err)

	result, err := c.PostOrder(context.Background(), order, domain.OrderTypeFOK)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ord-1", result.OrderID)
	assert.Equal(t, "matched", result.Status)

	assert.True(t, sawAuth)
	assert.True(t, sawOrder)
}

func TestPostOrderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/derive-api-key" {
			_, _ = w.Write([]byte(`{"apiKey": "key-1", "secret": "c2VjcmV0", "passphrase": "pass"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success": false, "errorMsg": "not enough balance"}`))
	}))
	defer srv.Close()

	c := newTestClob(t, srv.URL)
	require.NoError(t, c.DeriveAPIKey(context.Background()))

	result, err := c.PostOrder(context.Background(), domain.SignedOrder{Side: domain.OrderSideBuy}, domain.OrderTypeFOK)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "not enough balance", result.Message)
}
