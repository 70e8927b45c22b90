package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/averyls/mirrorbot/internal/domain"
)

// DataClient is the REST client for the Polymarket data API, which serves
// public per-wallet information: the activity feed, open positions, and
// total portfolio value. No authentication is required.
type DataClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDataClient creates a data API client. baseURL is the API root, e.g.
// "https://data-api.polymarket.com".
func NewDataClient(baseURL string) *DataClient {
	return &DataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetActivity returns up to limit entries of user's activity feed, newest
// first, skipping offset entries. All activity types are returned; the
// caller filters trades.
func (c *DataClient) GetActivity(ctx context.Context, user string, limit, offset int) ([]APIActivity, error) {
	q := url.Values{}
	q.Set("user", user)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var entries []APIActivity
	if err := c.getJSON(ctx, "/activity", q, &entries); err != nil {
		return nil, fmt.Errorf("polymarket/data: get activity for %s: %w", user, err)
	}

	return entries, nil
}

// GetUserActivity is like GetActivity but converts entries to domain trades.
// All activity types are still present; callers filter on Type.
func (c *DataClient) GetUserActivity(ctx context.Context, user string, limit, offset int) ([]domain.TradeActivity, error) {
	entries, err := c.GetActivity(ctx, user, limit, offset)
	if err != nil {
		return nil, err
	}

	trades := make([]domain.TradeActivity, 0, len(entries))
	for i := range entries {
		trades = append(trades, entries[i].ToDomainTrade())
	}
	return trades, nil
}

// GetPositions returns user's current open positions, converted to snapshots
// owned by the given party and stamped with the current time.
func (c *DataClient) GetPositions(ctx context.Context, user string, owner domain.PositionOwner) ([]domain.PositionSnapshot, error) {
	q := url.Values{}
	q.Set("user", user)

	var positions []APIPosition
	if err := c.getJSON(ctx, "/positions", q, &positions); err != nil {
		return nil, fmt.Errorf("polymarket/data: get positions for %s: %w", user, err)
	}

	now := time.Now().UTC()
	snaps := make([]domain.PositionSnapshot, 0, len(positions))
	for i := range positions {
		snaps = append(snaps, positions[i].ToDomainSnapshot(owner, now))
	}

	return snaps, nil
}

// GetValue returns the total USD value of user's holdings.
func (c *DataClient) GetValue(ctx context.Context, user string) (float64, error) {
	q := url.Values{}
	q.Set("user", user)

	var values []APIValue
	if err := c.getJSON(ctx, "/value", q, &values); err != nil {
		return 0, fmt.Errorf("polymarket/data: get value for %s: %w", user, err)
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("polymarket/data: get value for %s: %w", user, domain.ErrNotFound)
	}

	return values[0].Value, nil
}

// getJSON performs a GET request against the data API and decodes the JSON
// response into out.
func (c *DataClient) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
