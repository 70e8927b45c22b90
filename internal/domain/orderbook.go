package domain

import "time"

// PriceLevel is a single price+size entry in an orderbook.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderbookSnapshot is a full snapshot of bids and asks for an asset as
// returned by the CLOB /book endpoint. Levels are not guaranteed to be
// sorted; use BestBid/BestAsk to pick the top of book.
type OrderbookSnapshot struct {
	AssetID   string
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// BestBid returns the highest-priced bid level, or false if there are no
// bids. Sell-side executions consume liquidity from this level first.
func (b *OrderbookSnapshot) BestBid() (PriceLevel, bool) {
	if len(b.Bids) == 0 {
		return PriceLevel{}, false
	}
	best := b.Bids[0]
	for _, lvl := range b.Bids[1:] {
		if lvl.Price > best.Price {
			best = lvl
		}
	}
	return best, true
}

// BestAsk returns the lowest-priced ask level, or false if there are no asks.
func (b *OrderbookSnapshot) BestAsk() (PriceLevel, bool) {
	if len(b.Asks) == 0 {
		return PriceLevel{}, false
	}
	best := b.Asks[0]
	for _, lvl := range b.Asks[1:] {
		if lvl.Price < best.Price {
			best = lvl
		}
	}
	return best, true
}
