package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"quickbet-platform/internal/model"
	"quickbet-platform/internal/pkg/lock"
	"quickbet-platform/internal/repository"
)

// BetItem is one requested wager of a placement batch.
type BetItem struct {
	Code   string `json:"code"`
	Amount int64  `json:"amount"`
}

// PlacedWager is one admitted wager with its resolved display metadata.
type PlacedWager struct {
	WagerID     int64           `json:"wager_id"`
	Code        string          `json:"code"`
	DisplayName string          `json:"display_name"`
	Stake       int64           `json:"stake"`
	Multiplier  decimal.Decimal `json:"multiplier"`
}

// PlacementResult is returned for an admitted batch: the wager list plus the
// user's before/after balance.
type PlacementResult struct {
	SessionID     int64         `json:"session_id"`
	Wagers        []PlacedWager `json:"wagers"`
	Total         int64         `json:"total"`
	BalanceBefore int64         `json:"balance_before"`
	BalanceAfter  int64         `json:"balance_after"`
}

// Placement validates and records a batch of wagers as one atomic unit:
// one ledger debit for the batch total, then one PENDING wager row per item.
// Any rejection leaves the ledger and wager table untouched.
type Placement struct {
	pool     *pgxpool.Pool
	sessions *repository.SessionRepository
	wagers   *repository.WagerRepository
	catalog  *Catalog
	ledger   *Ledger
	keysMu   *lock.KeyedLock
	now      func() time.Time
}

// NewPlacement creates the placement service.
func NewPlacement(pool *pgxpool.Pool, sessions *repository.SessionRepository, wagers *repository.WagerRepository, catalog *Catalog, ledger *Ledger, keys *lock.KeyedLock) *Placement {
	return &Placement{
		pool:     pool,
		sessions: sessions,
		wagers:   wagers,
		catalog:  catalog,
		ledger:   ledger,
		keysMu:   keys,
		now:      time.Now,
	}
}

// ValidateItems rejects an empty batch or any non-positive stake.
func ValidateItems(items []BetItem) error {
	if len(items) == 0 {
		return ErrEmptyBatch
	}
	for _, item := range items {
		if item.Amount <= 0 {
			return fmt.Errorf("%w: %q staked %d", ErrInvalidStake, item.Code, item.Amount)
		}
	}
	return nil
}

// Place admits the batch against the target session.
//
// The session row is locked and lazily advanced before the phase check, so a
// wager is rejected the instant countdown has passed even if no other
// request observed the boundary yet. The declared table guards against stale
// client state.
func (p *Placement) Place(ctx context.Context, userID int64, gameCode string, tableNo int, sessionID int64, items []BetItem) (*PlacementResult, error) {
	if err := ValidateItems(items); err != nil {
		return nil, err
	}

	var result *PlacementResult
	err := p.keysMu.WithLock(lock.UserKey(userID), func() error {
		return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
			session, err := p.sessions.WithTx(tx).GetByIDForUpdate(ctx, sessionID)
			if err != nil {
				if errors.Is(err, repository.ErrSessionNotFound) {
					return ErrSessionNotRunning
				}
				return err
			}
			if session.Game != gameCode || session.TableNo != tableNo {
				return fmt.Errorf("%w: session %d belongs to %s table %d",
					ErrWrongTable, sessionID, session.Game, session.TableNo)
			}
			if !session.IsRunning() {
				return ErrSessionNotRunning
			}

			// Admission must observe the real phase as of now, not the
			// last persisted one.
			if Advance(session, p.now()) {
				if err := p.sessions.WithTx(tx).UpdatePhase(ctx, session.ID, session.Phase, session.PhaseStartedAt, session.ResultCode); err != nil {
					return err
				}
			}
			if session.Phase == nil || !session.Phase.AdmitsBets() {
				phase := "none"
				if session.Phase != nil {
					phase = string(*session.Phase)
				}
				return fmt.Errorf("%w: phase %s", ErrPhaseLocked, phase)
			}

			// Resolve every code before touching the ledger; one
			// unresolvable code rejects the whole batch. Lookups run on
			// this transaction so they see the same snapshot the debit
			// and inserts will.
			var total int64
			catalog := p.catalog.WithTx(tx)
			resolved := make([]*model.QuickBetConfig, len(items))
			for i, item := range items {
				cfg, err := catalog.Resolve(ctx, gameCode, item.Code)
				if err != nil {
					return err
				}
				resolved[i] = cfg
				total += item.Amount
			}

			entry := LedgerEntry{
				Type:        model.TxTypeBetPlaced,
				Description: fmt.Sprintf("%s round %s: %d wager(s)", gameCode, session.RoundCode, len(items)),
				RefType:     model.RefTypeSession,
				RefID:       session.ID,
			}
			debit, err := p.ledger.Debit(ctx, tx, userID, total, entry)
			if err != nil {
				return err
			}

			toInsert := make([]*model.Wager, len(items))
			for i, item := range items {
				toInsert[i] = &model.Wager{
					UserID:     userID,
					SessionID:  session.ID,
					Code:       resolved[i].Code,
					Stake:      item.Amount,
					Multiplier: resolved[i].Multiplier,
				}
			}
			inserted, err := p.wagers.WithTx(tx).InsertBatch(ctx, toInsert)
			if err != nil {
				return err
			}

			placed := make([]PlacedWager, len(inserted))
			for i, w := range inserted {
				placed[i] = PlacedWager{
					WagerID:     w.ID,
					Code:        w.Code,
					DisplayName: resolved[i].DisplayName,
					Stake:       w.Stake,
					Multiplier:  w.Multiplier,
				}
			}
			result = &PlacementResult{
				SessionID:     session.ID,
				Wagers:        placed,
				Total:         total,
				BalanceBefore: debit.BalanceBefore,
				BalanceAfter:  debit.BalanceAfter,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int64("user_id", userID).
		Str("game", gameCode).
		Int("table", tableNo).
		Int64("session_id", result.SessionID).
		Int("wagers", len(result.Wagers)).
		Int64("total", result.Total).
		Msg("Placement admitted")

	return result, nil
}

// UserWagers returns a user's wagers, newest first.
func (p *Placement) UserWagers(ctx context.Context, userID int64, limit, offset int) ([]*model.Wager, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return p.wagers.ListByUser(ctx, userID, limit, offset)
}
