package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/averyls/mirrorbot/internal/domain"
)

// ActivityStore implements domain.ActivityStore using PostgreSQL.
type ActivityStore struct {
	pool *pgxpool.Pool
}

var _ domain.ActivityStore = (*ActivityStore)(nil)

// NewActivityStore creates an ActivityStore backed by the given pool.
func NewActivityStore(pool *pgxpool.Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

const tradeSelectCols = `id, tx_hash, type, side, asset, condition_id,
	size, usdc_size, price, title, outcome, event_time,
	executed, execution_id, result, abort_reason, retries_used, created_at`

func scanTrade(row pgx.Row) (domain.TradeActivity, error) {
	var t domain.TradeActivity
	err := row.Scan(
		&t.ID, &t.TxHash, &t.Type, &t.Side, &t.Asset, &t.ConditionID,
		&t.Size, &t.UsdcSize, &t.Price, &t.Title, &t.Outcome, &t.Timestamp,
		&t.Executed, &t.ExecutionID, &t.Result, &t.AbortReason, &t.RetriesUsed, &t.CreatedAt,
	)
	return t, err
}

// Create inserts a new trade entry. If trade.ID is empty a fresh UUID is
// assigned. Inserting a duplicate tx_hash returns domain.ErrAlreadyExists.
func (s *ActivityStore) Create(ctx context.Context, trade domain.TradeActivity) error {
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}

	const query = `
		INSERT INTO leader_trades (
			id, tx_hash, type, side, asset, condition_id,
			size, usdc_size, price, title, outcome, event_time
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12
		)`

	_, err := s.pool.Exec(ctx, query,
		trade.ID, trade.TxHash, trade.Type, trade.Side, trade.Asset, trade.ConditionID,
		trade.Size, trade.UsdcSize, trade.Price, trade.Title, trade.Outcome, trade.Timestamp,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("postgres: create trade %s: %w", trade.TxHash, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: create trade %s: %w", trade.TxHash, err)
	}
	return nil
}

// ListAll returns every stored trade entry, oldest first.
func (s *ActivityStore) ListAll(ctx context.Context) ([]domain.TradeActivity, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM leader_trades ORDER BY event_time ASC, created_at ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.TradeActivity
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list trades: %w", err)
	}
	return trades, nil
}

// GetByTxHash returns the entry with the given transaction hash.
func (s *ActivityStore) GetByTxHash(ctx context.Context, txHash string) (domain.TradeActivity, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM leader_trades WHERE tx_hash = $1`

	t, err := scanTrade(s.pool.QueryRow(ctx, query, txHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TradeActivity{}, fmt.Errorf("postgres: trade %s: %w", txHash, domain.ErrNotFound)
		}
		return domain.TradeActivity{}, fmt.Errorf("postgres: get trade %s: %w", txHash, err)
	}
	return t, nil
}

// BeginExecution stamps the entry with the execution ID. It refuses entries
// that already reached a terminal state.
func (s *ActivityStore) BeginExecution(ctx context.Context, id, executionID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leader_trades SET execution_id = $2 WHERE id = $1 AND NOT executed`,
		id, executionID,
	)
	if err != nil {
		return fmt.Errorf("postgres: begin execution for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: begin execution for %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// MarkExecuted records the terminal outcome. The executed flag flips true
// exactly once; a second call for the same id returns ErrAlreadyExists.
func (s *ActivityStore) MarkExecuted(ctx context.Context, id string, outcome domain.ExecutionOutcome) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leader_trades
		 SET executed = TRUE, result = $2, abort_reason = $3, retries_used = $4
		 WHERE id = $1 AND NOT executed`,
		id, outcome.State, outcome.Reason, outcome.Retries,
	)
	if err != nil {
		return fmt.Errorf("postgres: mark executed %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: mark executed %s: %w", id, domain.ErrAlreadyExists)
	}
	return nil
}

// AbortInterrupted finalizes entries that were stamped with an execution ID
// but never reached a terminal state, marking them aborted. Runs once at
// startup before polling begins.
func (s *ActivityStore) AbortInterrupted(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leader_trades
		 SET executed = TRUE, result = $1, abort_reason = $2
		 WHERE execution_id <> '' AND NOT executed`,
		domain.ExecutionStateAborted, domain.AbortInterrupted,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: abort interrupted executions: %w", err)
	}
	return tag.RowsAffected(), nil
}
