package notify

// Event types emitted by the mirror bot. The notify.events config list
// selects which of these reach the configured channels.
const (
	EventTradeDetected = "trade_detected"
	EventTradeExecuted = "trade_executed"
	EventTradeAborted  = "trade_aborted"
	EventError         = "error"
)
