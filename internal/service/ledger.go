package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quickbet-platform/internal/model"
	"quickbet-platform/internal/pkg/lock"
	"quickbet-platform/internal/repository"
)

// LedgerEntry carries the audit fields of one balance mutation.
type LedgerEntry struct {
	Type        string
	Description string
	RefType     string
	RefID       int64
	ActorID     *int64
}

// Ledger is the single point of truth for balance mutation. Both primitives
// row-lock the user, snapshot balance-before/after and append exactly one
// transaction record, inside the caller's database transaction so they
// commit or roll back together with the caller's side effects.
type Ledger struct {
	users  *repository.UserRepository
	txs    *repository.LedgerRepository
	pool   *pgxpool.Pool
	keysMu *lock.KeyedLock
}

// NewLedger creates the ledger service.
func NewLedger(pool *pgxpool.Pool, users *repository.UserRepository, txs *repository.LedgerRepository, keys *lock.KeyedLock) *Ledger {
	return &Ledger{users: users, txs: txs, pool: pool, keysMu: keys}
}

// Credit adds amount to the user's balance. Callers guarantee amount > 0.
func (l *Ledger) Credit(ctx context.Context, tx pgx.Tx, userID, amount int64, entry LedgerEntry) (*model.LedgerTransaction, error) {
	return l.apply(ctx, tx, userID, amount, entry)
}

// Debit subtracts amount from the user's balance. Fails with
// ErrInsufficientFunds before writing anything if the balance cannot cover
// the amount.
func (l *Ledger) Debit(ctx context.Context, tx pgx.Tx, userID, amount int64, entry LedgerEntry) (*model.LedgerTransaction, error) {
	return l.apply(ctx, tx, userID, -amount, entry)
}

func (l *Ledger) apply(ctx context.Context, tx pgx.Tx, userID, delta int64, entry LedgerEntry) (*model.LedgerTransaction, error) {
	users := l.users.WithTx(tx)

	user, err := users.GetForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	after := user.Balance + delta
	if after < 0 {
		return nil, fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, user.Balance, -delta)
	}

	if err := users.SetBalance(ctx, userID, after); err != nil {
		return nil, err
	}

	record := &model.LedgerTransaction{
		UserID:        userID,
		Amount:        delta,
		BalanceBefore: user.Balance,
		BalanceAfter:  after,
		Type:          entry.Type,
		ActorID:       entry.ActorID,
	}
	if entry.Description != "" {
		record.Description = &entry.Description
	}
	if entry.RefType != "" {
		record.RefType = &entry.RefType
		record.RefID = &entry.RefID
	}

	inserted, err := l.txs.WithTx(tx).Insert(ctx, record)
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// AdminAdjust applies an operator-attributed balance change in its own
// transaction. A negative amount debits and is still bounded at zero.
func (l *Ledger) AdminAdjust(ctx context.Context, userID, amount, actorID int64, reason string) (*model.LedgerTransaction, error) {
	var result *model.LedgerTransaction

	err := l.keysMu.WithLock(lock.UserKey(userID), func() error {
		return pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
			entry := LedgerEntry{
				Type:        model.TxTypeAdminAdjust,
				Description: reason,
				ActorID:     &actorID,
			}
			var err error
			result, err = l.apply(ctx, tx, userID, amount, entry)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Balance returns the user's current point balance.
func (l *Ledger) Balance(ctx context.Context, userID int64) (int64, error) {
	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Balance, nil
}

// History returns the user's ledger transactions, newest first.
func (l *Ledger) History(ctx context.Context, userID int64, limit, offset int) ([]*model.LedgerTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return l.txs.ListByUser(ctx, userID, limit, offset)
}
