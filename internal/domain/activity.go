// Package domain defines the core types and store/cache contracts for the
// mirror bot: leader activity, positions, order books, orders, and execution
// outcomes.
package domain

import "time"

// ActivityType classifies a leader activity entry. Only trades are mirrored;
// everything else (splits, merges, redeems, rewards) is ignored by the poller.
type ActivityType string

const (
	ActivityTypeTrade ActivityType = "TRADE"
)

// ActivitySide is the direction of the leader's trade.
type ActivitySide string

const (
	ActivitySideBuy  ActivitySide = "BUY"
	ActivitySideSell ActivitySide = "SELL"
)

// ExecutionState is the terminal state of a mirrored trade. The empty string
// means execution has not finished yet.
type ExecutionState string

const (
	ExecutionStateNone    ExecutionState = ""
	ExecutionStateDone    ExecutionState = "done"
	ExecutionStateAborted ExecutionState = "aborted"
)

// AbortReason explains why an execution ended in ExecutionStateAborted.
type AbortReason string

const (
	AbortNone            AbortReason = ""
	AbortNoLiquidity     AbortReason = "no_liquidity"
	AbortSlippage        AbortReason = "slippage_exceeded"
	AbortMissingPosition AbortReason = "missing_position"
	AbortRetryExhausted  AbortReason = "retry_exhausted"
	AbortInterrupted     AbortReason = "interrupted"
)

// TradeActivity is a single leader trade event detected by the poller.
// TxHash is globally unique within the known-trade set and is the dedup key;
// ID is the storage key. The execution-tracking fields are written exactly
// once, by the executor, when the trade reaches a terminal state.
type TradeActivity struct {
	ID          string
	TxHash      string
	Type        ActivityType
	Side        ActivitySide
	Asset       string // CLOB token ID
	ConditionID string
	Size        float64 // token units
	UsdcSize    float64 // USD notional
	Price       float64
	Title       string
	Outcome     string
	Timestamp   time.Time // event time reported by the feed

	// Execution tracking. Executed flips false->true exactly once and never
	// reverts. ExecutionID is stamped before the first order submission so a
	// crash mid-execution is detectable on restart. RetriesUsed is the
	// consecutive-rejection count at the moment execution gave up; it stays 0
	// on success.
	Executed    bool
	ExecutionID string
	Result      ExecutionState
	AbortReason AbortReason
	RetriesUsed int

	CreatedAt time.Time
}

// AgeHours returns how many hours before now the trade happened.
func (t *TradeActivity) AgeHours(now time.Time) float64 {
	return now.Sub(t.Timestamp).Hours()
}

// ExecutionOutcome is the terminal result the executor records for a trade.
type ExecutionOutcome struct {
	State   ExecutionState
	Reason  AbortReason
	Retries int
}

// Done is the outcome of a fully filled execution.
func Done() ExecutionOutcome {
	return ExecutionOutcome{State: ExecutionStateDone}
}

// Aborted is the outcome of an execution that gave up. retries is the number
// of consecutive rejections consumed; it is 0 for immediate aborts
// (no liquidity, slippage, missing position).
func Aborted(reason AbortReason, retries int) ExecutionOutcome {
	return ExecutionOutcome{State: ExecutionStateAborted, Reason: reason, Retries: retries}
}

// Err returns the sentinel error behind an aborted outcome, or nil for a
// successful one, so callers can report aborts with errors.Is semantics.
func (o ExecutionOutcome) Err() error {
	switch o.Reason {
	case AbortNoLiquidity:
		return ErrNoLiquidity
	case AbortSlippage:
		return ErrSlippageExceeded
	case AbortMissingPosition:
		return ErrMissingPosition
	case AbortRetryExhausted:
		return ErrRetryExhausted
	case AbortInterrupted:
		return ErrInterrupted
	}
	return nil
}
