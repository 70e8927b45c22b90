package domain

// OrderSide indicates whether an order buys or sells outcome tokens. The
// values match the CLOB wire format.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType indicates the time-in-force policy.
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good-Till-Cancelled
	OrderTypeFOK OrderType = "FOK" // Fill-Or-Kill
	OrderTypeFAK OrderType = "FAK" // Fill-And-Kill
)

// MarketOrderArgs describes a marketable order against the top of book.
// For BUY orders Amount is the USD notional to spend; for SELL orders it is
// the number of tokens to sell. Price is the level the order is priced at.
type MarketOrderArgs struct {
	Side    OrderSide
	TokenID string
	Amount  float64
	Price   float64
}

// SignedOrder is an EIP-712-signed order payload ready for submission.
type SignedOrder struct {
	Salt          string
	Maker         string
	Signer        string
	Taker         string
	TokenID       string
	MakerAmount   string
	TakerAmount   string
	Expiration    string
	Nonce         string
	FeeRateBps    string
	Side          OrderSide
	SignatureType int
	Signature     string
}

// OrderResult wraps the API response after order submission. A FOK order
// either fills entirely (Success true) or not at all, so callers can treat
// Success as "the full amount executed".
type OrderResult struct {
	Success bool
	OrderID string
	Status  string
	Message string
}
