package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quickbet-platform/internal/model"
)

// HistoryRepository handles the append-only settled-round history used for
// trend display.
type HistoryRepository struct {
	db DBTX
}

// NewHistoryRepository creates a new HistoryRepository instance.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: pool}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *HistoryRepository) WithTx(tx pgx.Tx) *HistoryRepository {
	return &HistoryRepository{db: tx}
}

const historyColumns = `id, session_id, game, table_no, result_code, category, dice_sum, created_at`

func scanHistory(row pgx.Row) (*model.ResultHistory, error) {
	var h model.ResultHistory
	err := row.Scan(
		&h.ID,
		&h.SessionID,
		&h.Game,
		&h.TableNo,
		&h.ResultCode,
		&h.Category,
		&h.DiceSum,
		&h.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan result history: %w", err)
	}
	return &h, nil
}

// Insert appends one settled-round record. A round is recorded at most once:
// the session-keyed conflict clause makes a repeat insert a no-op.
func (r *HistoryRepository) Insert(ctx context.Context, h *model.ResultHistory) error {
	const query = `
		INSERT INTO result_history
			(session_id, game, table_no, result_code, category, dice_sum, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (session_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query,
		h.SessionID, h.Game, h.TableNo, h.ResultCode, h.Category, h.DiceSum,
	); err != nil {
		return fmt.Errorf("failed to insert result history: %w", err)
	}
	return nil
}

// ListRecent retrieves a table's most recent settled rounds, newest first.
func (r *HistoryRepository) ListRecent(ctx context.Context, game string, tableNo int, limit int) ([]*model.ResultHistory, error) {
	const query = `
		SELECT ` + historyColumns + `
		FROM result_history
		WHERE game = $1 AND table_no = $2
		ORDER BY id DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, game, tableNo, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list result history: %w", err)
	}
	defer rows.Close()

	var entries []*model.ResultHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result history: %w", err)
	}

	return entries, nil
}
