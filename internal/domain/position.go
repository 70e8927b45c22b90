package domain

import "time"

// PositionOwner distinguishes whose holding a snapshot describes.
type PositionOwner string

const (
	OwnerSelf   PositionOwner = "self"
	OwnerLeader PositionOwner = "leader"
)

// PositionSnapshot is a party's current holding of an asset at a point in
// time. Snapshots are read-only inputs to execution targeting; the store also
// keeps them for observability and post-trade reconciliation.
type PositionSnapshot struct {
	ID          string
	Owner       PositionOwner
	Wallet      string
	Asset       string // CLOB token ID
	ConditionID string
	Size        float64 // token units held
	AvgPrice    float64
	Title       string
	CapturedAt  time.Time
}
