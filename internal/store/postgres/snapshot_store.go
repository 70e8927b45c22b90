package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/averyls/mirrorbot/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

var _ domain.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a SnapshotStore backed by the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

const snapshotSelectCols = `id, owner, wallet, asset, condition_id, size, avg_price, title, captured_at`

func scanSnapshot(row pgx.Row) (domain.PositionSnapshot, error) {
	var p domain.PositionSnapshot
	err := row.Scan(
		&p.ID, &p.Owner, &p.Wallet, &p.Asset, &p.ConditionID,
		&p.Size, &p.AvgPrice, &p.Title, &p.CapturedAt,
	)
	return p, err
}

// Record inserts a position snapshot. If snap.ID is empty a fresh UUID is
// assigned.
func (s *SnapshotStore) Record(ctx context.Context, snap domain.PositionSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO position_snapshots (
			id, owner, wallet, asset, condition_id, size, avg_price, title, captured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		snap.ID, snap.Owner, snap.Wallet, snap.Asset, snap.ConditionID,
		snap.Size, snap.AvgPrice, snap.Title, snap.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: record snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot for an owner and asset.
func (s *SnapshotStore) Latest(ctx context.Context, owner domain.PositionOwner, asset string) (domain.PositionSnapshot, error) {
	query := `SELECT ` + snapshotSelectCols + `
		FROM position_snapshots
		WHERE owner = $1 AND asset = $2
		ORDER BY captured_at DESC
		LIMIT 1`

	p, err := scanSnapshot(s.pool.QueryRow(ctx, query, owner, asset))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PositionSnapshot{}, fmt.Errorf("postgres: snapshot %s/%s: %w", owner, asset, domain.ErrNotFound)
		}
		return domain.PositionSnapshot{}, fmt.Errorf("postgres: latest snapshot: %w", err)
	}
	return p, nil
}

// ListSince returns an owner's snapshots captured at or after since, oldest
// first.
func (s *SnapshotStore) ListSince(ctx context.Context, owner domain.PositionOwner, since time.Time) ([]domain.PositionSnapshot, error) {
	query := `SELECT ` + snapshotSelectCols + `
		FROM position_snapshots
		WHERE owner = $1 AND captured_at >= $2
		ORDER BY captured_at ASC`

	rows, err := s.pool.Query(ctx, query, owner, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.PositionSnapshot
	for rows.Next() {
		p, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot: %w", err)
		}
		snaps = append(snaps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list snapshots: %w", err)
	}
	return snaps, nil
}
