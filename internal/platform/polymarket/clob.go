// Package polymarket provides REST clients for the Polymarket CLOB and data
// APIs: order book queries, authenticated order placement, and the public
// per-wallet activity, positions, and value feeds.
package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/averyls/mirrorbot/internal/crypto"
	"github.com/averyls/mirrorbot/internal/domain"
)

// zeroAddress is the taker for publicly fillable orders.
const zeroAddress = "0x0000000000000000000000000000000000000000"

// ClobClient is the REST client for the Polymarket CLOB (Central Limit
// Order Book) API. It signs orders with EIP-712 and authenticates private
// endpoints with derived HMAC credentials.
type ClobClient struct {
	baseURL       string
	chainID       int
	signatureType int
	httpClient    *http.Client
	signer        *crypto.Signer
	creds         *crypto.APICreds
}

// NewClobClient creates a CLOB client. baseURL is the API root, e.g.
// "https://clob.polymarket.com". Call DeriveAPIKey before using any
// authenticated endpoint.
func NewClobClient(baseURL string, signer *crypto.Signer, chainID, signatureType int) *ClobClient {
	return &ClobClient{
		baseURL:       baseURL,
		chainID:       chainID,
		signatureType: signatureType,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		signer: signer,
	}
}

// DeriveAPIKey performs the CLOB auth flow to obtain HMAC credentials. It
// signs a ClobAuth EIP-712 message and sends it with L1 headers
// (POLY_ADDRESS, POLY_SIGNATURE, POLY_TIMESTAMP, POLY_NONCE) to the
// derive-api-key endpoint. On success the credentials are retained for all
// subsequent authenticated requests.
func (c *ClobClient) DeriveAPIKey(ctx context.Context) error {
	address := c.signer.Address().Hex()
	timestamp := time.Now().Unix()
	nonce := int64(0)

	sig, err := c.signer.SignAuthMessage(timestamp, nonce)
	if err != nil {
		return fmt.Errorf("polymarket/clob: sign auth message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/derive-api-key", nil)
	if err != nil {
		return fmt.Errorf("polymarket/clob: create auth request: %w", err)
	}
	req.Header.Set("POLY_ADDRESS", address)
	req.Header.Set("POLY_SIGNATURE", sig)
	req.Header.Set("POLY_TIMESTAMP", strconv.FormatInt(timestamp, 10))
	req.Header.Set("POLY_NONCE", strconv.FormatInt(nonce, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("polymarket/clob: auth request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("polymarket/clob: read auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("polymarket/clob: auth failed (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var authResp struct {
		APIKey     string `json:"apiKey"`
		Secret     string `json:"secret"`
		Passphrase string `json:"passphrase"`
	}
	if err := json.Unmarshal(respBody, &authResp); err != nil {
		return fmt.Errorf("polymarket/clob: decode auth response: %w", err)
	}

	c.creds = &crypto.APICreds{
		Key:        authResp.APIKey,
		Secret:     authResp.Secret,
		Passphrase: authResp.Passphrase,
	}

	return nil
}

// GetOrderBook fetches the current order book for a token. The endpoint is
// public; no credentials are needed.
func (c *ClobClient) GetOrderBook(ctx context.Context, tokenID string) (domain.OrderbookSnapshot, error) {
	path := "/book?token_id=" + tokenID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("polymarket/clob: create book request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("polymarket/clob: read book response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err)
	}

	var book APIBook
	if err := json.Unmarshal(respBody, &book); err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("polymarket/clob: decode book: %w", err)
	}

	return book.ToDomainSnapshot(), nil
}

// CreateMarketOrder builds and signs a marketable order priced at the given
// level. For BUY, args.Amount is the USD notional to spend; for SELL it is
// the number of tokens to sell. Amounts are encoded in 1e6 fixed-point units
// as the exchange contract expects.
func (c *ClobClient) CreateMarketOrder(args domain.MarketOrderArgs) (domain.SignedOrder, error) {
	if args.Price <= 0 {
		return domain.SignedOrder{}, fmt.Errorf("polymarket/clob: market order needs a positive price, got %v", args.Price)
	}
	if args.Amount <= 0 {
		return domain.SignedOrder{}, fmt.Errorf("polymarket/clob: market order needs a positive amount, got %v", args.Amount)
	}

	var makerAmount, takerAmount int64
	var side int
	switch args.Side {
	case domain.OrderSideBuy:
		// Maker gives USD, taker delivers tokens.
		side = 0
		makerAmount = toFixed(args.Amount)
		takerAmount = toFixed(args.Amount / args.Price)
	case domain.OrderSideSell:
		// Maker gives tokens, taker delivers USD.
		side = 1
		makerAmount = toFixed(args.Amount)
		takerAmount = toFixed(args.Amount * args.Price)
	default:
		return domain.SignedOrder{}, fmt.Errorf("polymarket/clob: unknown order side %q", args.Side)
	}

	address := c.signer.Address().Hex()

	payload := crypto.OrderPayload{
		Salt:          newSalt(),
		Maker:         address,
		Signer:        address,
		Taker:         zeroAddress,
		TokenID:       args.TokenID,
		MakerAmount:   strconv.FormatInt(makerAmount, 10),
		TakerAmount:   strconv.FormatInt(takerAmount, 10),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          side,
		SignatureType: c.signatureType,
	}

	sig, err := c.signer.SignOrder(payload)
	if err != nil {
		return domain.SignedOrder{}, fmt.Errorf("polymarket/clob: sign order: %w", err)
	}

	return domain.SignedOrder{
		Salt:          payload.Salt,
		Maker:         payload.Maker,
		Signer:        payload.Signer,
		Taker:         payload.Taker,
		TokenID:       payload.TokenID,
		MakerAmount:   payload.MakerAmount,
		TakerAmount:   payload.TakerAmount,
		Expiration:    payload.Expiration,
		Nonce:         payload.Nonce,
		FeeRateBps:    payload.FeeRateBps,
		Side:          args.Side,
		SignatureType: payload.SignatureType,
		Signature:     sig,
	}, nil
}

// PostOrder submits a signed order with the given time-in-force. An order
// the exchange rejects comes back as a result with Success false and the
// rejection message; the error return is reserved for transport and
// decoding failures.
func (c *ClobClient) PostOrder(ctx context.Context, order domain.SignedOrder, tif domain.OrderType) (domain.OrderResult, error) {
	body := map[string]any{
		"order": map[string]any{
			"salt":          order.Salt,
			"maker":         order.Maker,
			"signer":        order.Signer,
			"taker":         order.Taker,
			"tokenId":       order.TokenID,
			"makerAmount":   order.MakerAmount,
			"takerAmount":   order.TakerAmount,
			"expiration":    order.Expiration,
			"nonce":         order.Nonce,
			"feeRateBps":    order.FeeRateBps,
			"side":          string(order.Side),
			"signatureType": order.SignatureType,
			"signature":     order.Signature,
		},
		"owner":     c.apiKey(),
		"orderType": string(tif),
	}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodPost, "/order", body)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: post order: %w", err)
	}

	var apiResult APIOrderResult
	if err := json.Unmarshal(respBody, &apiResult); err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: decode order result: %w", err)
	}

	return apiResult.ToDomainResult(), nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func (c *ClobClient) apiKey() string {
	if c.creds == nil {
		return ""
	}
	return c.creds.Key
}

// doAuthenticatedRequest builds, signs (HMAC), sends, and reads an HTTP
// request against the CLOB API. It returns the raw response body.
func (c *ClobClient) doAuthenticatedRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.creds == nil {
		return nil, fmt.Errorf("%w: no API credentials (call DeriveAPIKey first)", domain.ErrUnauthorized)
	}

	var bodyReader io.Reader
	var bodyStr string

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	address := c.signer.Address().Hex()
	for k, v := range c.creds.L2Headers(address, method, path, bodyStr) {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

// toFixed converts a float amount to the contract's 1e6 fixed-point units.
func toFixed(v float64) int64 {
	return int64(math.Round(v * 1e6))
}

// newSalt returns a random decimal salt derived from a UUID, unique per
// order so identical orders never collide on the exchange.
func newSalt() string {
	u := uuid.New()
	return new(big.Int).SetBytes(u[:8]).String()
}
