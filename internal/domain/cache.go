package domain

import (
	"context"
	"time"
)

// SeenCache is a shared record of transaction hashes already processed. It
// backs the poller's in-memory known-hash set so dedup survives a cold cache
// and is visible to operational tooling.
type SeenCache interface {
	Add(ctx context.Context, txHash string) error
	Contains(ctx context.Context, txHash string) (bool, error)
}

// BalanceCache caches account USD values between polls so sizing does not
// hit the data API for both parties on every detected trade.
type BalanceCache interface {
	// Get returns the cached balance and whether a cached value existed.
	Get(ctx context.Context, wallet string) (float64, bool, error)
	Set(ctx context.Context, wallet string, usd float64) error
}

// LockManager provides a process-wide mutual exclusion primitive. The bot
// takes a lock per operator wallet at startup so two mirroring processes
// never race on the same account.
type LockManager interface {
	// Acquire obtains the named lock for ttl and returns an unlock function,
	// or ErrLockHeld if another process holds it. The unlock function is safe
	// to call more than once.
	Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error)
}
