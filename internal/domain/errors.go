package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRateLimited   = errors.New("rate limited")
	ErrLockHeld      = errors.New("lock already held")

	// Execution aborts, surfaced through ExecutionOutcome.Err. These
	// terminate a single trade's execution; they never crash the process.
	ErrNoLiquidity      = errors.New("no usable order book levels")
	ErrSlippageExceeded = errors.New("best quote diverges from leader price beyond tolerance")
	ErrMissingPosition  = errors.New("no own position to act on")
	ErrRetryExhausted   = errors.New("consecutive order rejections exhausted retry budget")
	ErrInterrupted      = errors.New("execution interrupted before a terminal state")
)
