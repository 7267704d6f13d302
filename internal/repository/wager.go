package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"quickbet-platform/internal/model"
)

// WagerRepository handles wager persistence. Wagers are inserted PENDING at
// placement and resolved exactly once by settlement or the force-refund path.
type WagerRepository struct {
	db DBTX
}

// NewWagerRepository creates a new WagerRepository instance.
func NewWagerRepository(pool *pgxpool.Pool) *WagerRepository {
	return &WagerRepository{db: pool}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *WagerRepository) WithTx(tx pgx.Tx) *WagerRepository {
	return &WagerRepository{db: tx}
}

// Multipliers travel as text so their fixed-point value survives the trip
// through NUMERIC unchanged.
const wagerColumns = `id, user_id, session_id, code, stake, multiplier::text,
	status, win_amount, result_code, placed_at, settled_at`

func scanWager(row pgx.Row) (*model.Wager, error) {
	var w model.Wager
	var mult string
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.SessionID,
		&w.Code,
		&w.Stake,
		&mult,
		&w.Status,
		&w.WinAmount,
		&w.ResultCode,
		&w.PlacedAt,
		&w.SettledAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan wager: %w", err)
	}
	w.Multiplier, err = decimal.NewFromString(mult)
	if err != nil {
		return nil, fmt.Errorf("failed to parse wager multiplier %q: %w", mult, err)
	}
	return &w, nil
}

// InsertBatch inserts the placement batch, one PENDING row per item, in a
// single round trip.
func (r *WagerRepository) InsertBatch(ctx context.Context, wagers []*model.Wager) ([]*model.Wager, error) {
	const query = `
		INSERT INTO wagers
			(user_id, session_id, code, stake, multiplier, status, placed_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, NOW())
		RETURNING ` + wagerColumns

	batch := &pgx.Batch{}
	for _, w := range wagers {
		batch.Queue(query, w.UserID, w.SessionID, w.Code, w.Stake,
			w.Multiplier.String(), model.WagerPending)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	inserted := make([]*model.Wager, 0, len(wagers))
	for range wagers {
		w, err := scanWager(results.QueryRow())
		if err != nil {
			return nil, fmt.Errorf("failed to insert wager: %w", err)
		}
		inserted = append(inserted, w)
	}

	return inserted, nil
}

// ListPendingForUpdate loads every PENDING wager of a session under row
// locks. The status filter is what makes settlement idempotent: a second
// invocation finds no rows and becomes a no-op.
func (r *WagerRepository) ListPendingForUpdate(ctx context.Context, sessionID int64) ([]*model.Wager, error) {
	const query = `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE session_id = $1 AND status = $2
		ORDER BY id
		FOR UPDATE
	`

	rows, err := r.db.Query(ctx, query, sessionID, model.WagerPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*model.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		wagers = append(wagers, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending wagers: %w", err)
	}

	return wagers, nil
}

// SettleBatch persists resolved wagers in one round trip. The PENDING guard
// in the WHERE clause keeps the PENDING -> terminal transition single-shot
// even if a row was resolved by a concurrent writer.
func (r *WagerRepository) SettleBatch(ctx context.Context, wagers []*model.Wager) error {
	const query = `
		UPDATE wagers
		SET status = $2, win_amount = $3, result_code = $4, settled_at = NOW()
		WHERE id = $1 AND status = $5
	`

	batch := &pgx.Batch{}
	for _, w := range wagers {
		batch.Queue(query, w.ID, w.Status, w.WinAmount, w.ResultCode, model.WagerPending)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range wagers {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to settle wager: %w", err)
		}
	}

	return nil
}

// ListByUser retrieves a user's wagers, newest first.
func (r *WagerRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*model.Wager, error) {
	const query = `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*model.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		wagers = append(wagers, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wagers: %w", err)
	}

	return wagers, nil
}

// ListBySession retrieves every wager of a session.
func (r *WagerRepository) ListBySession(ctx context.Context, sessionID int64) ([]*model.Wager, error) {
	const query = `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE session_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*model.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		wagers = append(wagers, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session wagers: %w", err)
	}

	return wagers, nil
}
