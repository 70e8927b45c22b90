package polymarket

import (
	"strconv"
	"time"

	"github.com/averyls/mirrorbot/internal/domain"
)

// --------------------------------------------------------------------------
// Data API DTOs
// --------------------------------------------------------------------------

// APIActivity is one entry of the data API's /activity feed. The feed mixes
// trades with splits, merges, redeems, and reward payouts; Type tells them
// apart. Timestamps are Unix epoch seconds.
type APIActivity struct {
	ProxyWallet     string  `json:"proxyWallet"`
	Timestamp       int64   `json:"timestamp"`
	ConditionID     string  `json:"conditionId"`
	Type            string  `json:"type"` // "TRADE", "SPLIT", "MERGE", "REDEEM", "REWARD"
	Size            float64 `json:"size"`
	UsdcSize        float64 `json:"usdcSize"`
	TransactionHash string  `json:"transactionHash"`
	Price           float64 `json:"price"`
	Asset           string  `json:"asset"`
	Side            string  `json:"side"` // "BUY" or "SELL"
	Outcome         string  `json:"outcome"`
	OutcomeIndex    int     `json:"outcomeIndex"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
}

// ToDomainTrade converts an activity entry to a domain.TradeActivity. The
// caller is responsible for filtering on Type first; conversion does not
// validate it.
func (a *APIActivity) ToDomainTrade() domain.TradeActivity {
	t := domain.TradeActivity{
		TxHash:      a.TransactionHash,
		Type:        domain.ActivityType(a.Type),
		Asset:       a.Asset,
		ConditionID: a.ConditionID,
		Size:        a.Size,
		UsdcSize:    a.UsdcSize,
		Price:       a.Price,
		Title:       a.Title,
		Outcome:     a.Outcome,
		Timestamp:   time.Unix(a.Timestamp, 0).UTC(),
	}

	switch a.Side {
	case "BUY":
		t.Side = domain.ActivitySideBuy
	case "SELL":
		t.Side = domain.ActivitySideSell
	}

	return t
}

// APIPosition is one entry of the data API's /positions response.
type APIPosition struct {
	ProxyWallet  string  `json:"proxyWallet"`
	Asset        string  `json:"asset"`
	ConditionID  string  `json:"conditionId"`
	Size         float64 `json:"size"`
	AvgPrice     float64 `json:"avgPrice"`
	InitialValue float64 `json:"initialValue"`
	CurrentValue float64 `json:"currentValue"`
	Title        string  `json:"title"`
	Outcome      string  `json:"outcome"`
	OutcomeIndex int     `json:"outcomeIndex"`
	Redeemable   bool    `json:"redeemable"`
}

// ToDomainSnapshot converts a position to a domain.PositionSnapshot owned by
// the given party, captured at the given time.
func (p *APIPosition) ToDomainSnapshot(owner domain.PositionOwner, at time.Time) domain.PositionSnapshot {
	return domain.PositionSnapshot{
		Owner:       owner,
		Wallet:      p.ProxyWallet,
		Asset:       p.Asset,
		ConditionID: p.ConditionID,
		Size:        p.Size,
		AvgPrice:    p.AvgPrice,
		Title:       p.Title,
		CapturedAt:  at,
	}
}

// APIValue is one entry of the data API's /value response, the total USD
// value of a wallet's holdings.
type APIValue struct {
	User  string  `json:"user"`
	Value float64 `json:"value"`
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIPriceLevel is a single bid/ask level in the /book response. Prices and
// sizes are decimal strings.
type APIPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// APIBook is the /book response for a single token.
type APIBook struct {
	Market    string          `json:"market"`
	AssetID   string          `json:"asset_id"`
	Timestamp string          `json:"timestamp"` // Unix millis as string
	Hash      string          `json:"hash"`
	Bids      []APIPriceLevel `json:"bids"`
	Asks      []APIPriceLevel `json:"asks"`
}

// ToDomainSnapshot converts an APIBook to a domain.OrderbookSnapshot.
// Unparseable levels are dropped rather than surfaced as zeros.
func (b *APIBook) ToDomainSnapshot() domain.OrderbookSnapshot {
	snap := domain.OrderbookSnapshot{
		AssetID: b.AssetID,
	}

	for _, lvl := range b.Bids {
		p, errP := strconv.ParseFloat(lvl.Price, 64)
		s, errS := strconv.ParseFloat(lvl.Size, 64)
		if errP != nil || errS != nil {
			continue
		}
		snap.Bids = append(snap.Bids, domain.PriceLevel{Price: p, Size: s})
	}
	for _, lvl := range b.Asks {
		p, errP := strconv.ParseFloat(lvl.Price, 64)
		s, errS := strconv.ParseFloat(lvl.Size, 64)
		if errP != nil || errS != nil {
			continue
		}
		snap.Asks = append(snap.Asks, domain.PriceLevel{Price: p, Size: s})
	}

	if ms, err := strconv.ParseInt(b.Timestamp, 10, 64); err == nil {
		snap.Timestamp = time.UnixMilli(ms).UTC()
	} else {
		snap.Timestamp = time.Now().UTC()
	}

	return snap
}

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success    bool   `json:"success"`
	ErrorMsg   string `json:"errorMsg,omitempty"`
	OrderID    string `json:"orderID,omitempty"`
	Status     string `json:"status,omitempty"`
	TransactID string `json:"transactID,omitempty"`
}

// ToDomainResult converts an APIOrderResult to a domain.OrderResult.
func (r *APIOrderResult) ToDomainResult() domain.OrderResult {
	return domain.OrderResult{
		Success: r.Success,
		OrderID: r.OrderID,
		Status:  r.Status,
		Message: r.ErrorMsg,
	}
}
