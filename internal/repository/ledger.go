package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quickbet-platform/internal/model"
)

// LedgerRepository handles the append-only ledger transaction log.
type LedgerRepository struct {
	db DBTX
}

// NewLedgerRepository creates a new LedgerRepository instance.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: pool}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *LedgerRepository) WithTx(tx pgx.Tx) *LedgerRepository {
	return &LedgerRepository{db: tx}
}

const ledgerColumns = `id, user_id, amount, balance_before, balance_after,
	type, description, ref_type, ref_id, actor_id, created_at`

func scanLedgerTx(row pgx.Row) (*model.LedgerTransaction, error) {
	var tx model.LedgerTransaction
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Amount,
		&tx.BalanceBefore,
		&tx.BalanceAfter,
		&tx.Type,
		&tx.Description,
		&tx.RefType,
		&tx.RefID,
		&tx.ActorID,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger transaction: %w", err)
	}
	return &tx, nil
}

// Insert appends one ledger transaction record with before/after snapshots.
func (r *LedgerRepository) Insert(ctx context.Context, tx *model.LedgerTransaction) (*model.LedgerTransaction, error) {
	const query = `
		INSERT INTO ledger_transactions
			(user_id, amount, balance_before, balance_after, type, description, ref_type, ref_id, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING ` + ledgerColumns

	row := r.db.QueryRow(ctx, query,
		tx.UserID,
		tx.Amount,
		tx.BalanceBefore,
		tx.BalanceAfter,
		tx.Type,
		tx.Description,
		tx.RefType,
		tx.RefID,
		tx.ActorID,
	)

	inserted, err := scanLedgerTx(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger transaction: %w", err)
	}
	return inserted, nil
}

// ListByUser retrieves a user's ledger transactions, newest first.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*model.LedgerTransaction, error) {
	const query = `
		SELECT ` + ledgerColumns + `
		FROM ledger_transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger transactions: %w", err)
	}
	defer rows.Close()

	var txs []*model.LedgerTransaction
	for rows.Next() {
		tx, err := scanLedgerTx(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger transactions: %w", err)
	}

	return txs, nil
}

// CountByRef counts ledger rows with the given reference and type. Used to
// audit placement and settlement idempotence.
func (r *LedgerRepository) CountByRef(ctx context.Context, refType string, refID int64, txType string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM ledger_transactions
		WHERE ref_type = $1 AND ref_id = $2 AND type = $3
	`

	var count int
	err := r.db.QueryRow(ctx, query, refType, refID, txType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger transactions: %w", err)
	}
	return count, nil
}
