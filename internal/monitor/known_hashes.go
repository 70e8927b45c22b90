package monitor

import "sync"

// KnownHashes is the in-memory set of transaction hashes the bot has already
// seen. It is the poller's primary dedup check; the Redis seen-set and the
// database back it across restarts.
type KnownHashes struct {
	mu     sync.RWMutex
	hashes map[string]struct{}
}

// NewKnownHashes returns an empty set.
func NewKnownHashes() *KnownHashes {
	return &KnownHashes{hashes: make(map[string]struct{})}
}

// Add records a hash. Adding an existing hash is a no-op.
func (k *KnownHashes) Add(txHash string) {
	k.mu.Lock()
	k.hashes[txHash] = struct{}{}
	k.mu.Unlock()
}

// Contains reports whether a hash has been seen.
func (k *KnownHashes) Contains(txHash string) bool {
	k.mu.RLock()
	_, ok := k.hashes[txHash]
	k.mu.RUnlock()
	return ok
}

// Len returns the number of known hashes.
func (k *KnownHashes) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.hashes)
}
