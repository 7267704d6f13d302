package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quickbet-platform/internal/model"
)

// UserRepository handles user account persistence. Accounts are created by
// the external identity system; the ledger only reads and mutates balances.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: pool}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

const userColumns = `id, username, balance, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// Create provisions a user account with an opening balance. Exposed for the
// identity boundary and for tests; the core itself never calls it.
func (r *UserRepository) Create(ctx context.Context, id int64, username string, balance int64) (*model.User, error) {
	const query = `
		INSERT INTO users (id, username, balance, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id, username, balance))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetForUpdate loads a user row under a row lock. Must run inside a
// transaction; the lock serializes concurrent balance mutations so two
// placements can never pass the funds check against a stale balance.
func (r *UserRepository) GetForUpdate(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// SetBalance writes the user's balance to an exact value. Only the ledger
// calls this, after computing before/after under the row lock.
func (r *UserRepository) SetBalance(ctx context.Context, id int64, balance int64) error {
	const query = `
		UPDATE users
		SET balance = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, balance)
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
