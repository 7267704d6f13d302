package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"quickbet-platform/internal/game"
	"quickbet-platform/internal/model"
	"quickbet-platform/internal/repository"
)

// Settlement resolves every PENDING wager of a finished session against its
// result. It holds no lock of its own: idempotency comes from the
// status-filtered query, so a second invocation finds no PENDING rows and
// becomes a no-op. It always runs inside the session mutation's transaction.
type Settlement struct {
	games   *game.Registry
	wagers  *repository.WagerRepository
	history *repository.HistoryRepository
	ledger  *Ledger
}

// NewSettlement creates the settlement engine.
func NewSettlement(games *game.Registry, wagers *repository.WagerRepository, history *repository.HistoryRepository, ledger *Ledger) *Settlement {
	return &Settlement{games: games, wagers: wagers, history: history, ledger: ledger}
}

// WinAmount computes the total return of a winning wager:
// stake x (multiplier + 1), the multiplier being the additional ratio won.
// Paid in whole points, fractions truncated.
func WinAmount(stake int64, multiplier decimal.Decimal) int64 {
	return decimal.NewFromInt(stake).
		Mul(multiplier.Add(decimal.NewFromInt(1))).
		IntPart()
}

// Settle resolves all PENDING wagers of the session against the raw result.
//
// An unparsable result is a data-quality warning, not a fatal error: the
// winning set is empty, no history row is written, and wagers still resolve
// so none is left PENDING forever. Returns the number of wagers resolved.
func (s *Settlement) Settle(ctx context.Context, tx pgx.Tx, session *model.Session, raw string) (int, error) {
	rules, ok := s.games.Get(session.Game)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownGame, session.Game)
	}

	resolution, err := rules.Resolve(raw)
	if err != nil {
		log.Warn().Err(err).
			Str("game", session.Game).
			Int("table", session.TableNo).
			Int64("session_id", session.ID).
			Str("result", raw).
			Msg("Unparsable result, settling with empty winning set")
		resolution = nil
	}

	pending, err := s.wagers.WithTx(tx).ListPendingForUpdate(ctx, session.ID)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, s.record(ctx, tx, session, raw, resolution)
	}

	for _, w := range pending {
		w.ResultCode = &raw
		switch resolution.Classify(w.Code) {
		case game.OutcomeWon:
			win := WinAmount(w.Stake, w.Multiplier)
			w.Status = model.WagerWon
			w.WinAmount = &win
			entry := LedgerEntry{
				Type:        model.TxTypeBetWon,
				Description: fmt.Sprintf("%s round %s: %s won", session.Game, session.RoundCode, w.Code),
				RefType:     model.RefTypeWager,
				RefID:       w.ID,
			}
			if _, err := s.ledger.Credit(ctx, tx, w.UserID, win, entry); err != nil {
				return 0, fmt.Errorf("failed to credit winnings for wager %d: %w", w.ID, err)
			}

		case game.OutcomeRefunded:
			stake := w.Stake
			w.Status = model.WagerRefunded
			w.WinAmount = &stake
			entry := LedgerEntry{
				Type:        model.TxTypeBetRefunded,
				Description: fmt.Sprintf("%s round %s: %s pushed", session.Game, session.RoundCode, w.Code),
				RefType:     model.RefTypeWager,
				RefID:       w.ID,
			}
			if _, err := s.ledger.Credit(ctx, tx, w.UserID, stake, entry); err != nil {
				return 0, fmt.Errorf("failed to refund wager %d: %w", w.ID, err)
			}

		default:
			zero := int64(0)
			w.Status = model.WagerLost
			w.WinAmount = &zero
		}
	}

	if err := s.wagers.WithTx(tx).SettleBatch(ctx, pending); err != nil {
		return 0, err
	}

	if err := s.record(ctx, tx, session, raw, resolution); err != nil {
		return 0, err
	}

	return len(pending), nil
}

// record appends the round's history row, only for a full parseable result.
// The insert is session-keyed, so re-running settlement on an already settled
// round never duplicates the row.
func (s *Settlement) record(ctx context.Context, tx pgx.Tx, session *model.Session, raw string, resolution *game.Resolution) error {
	if resolution == nil {
		return nil
	}
	return s.history.WithTx(tx).Insert(ctx, &model.ResultHistory{
		SessionID:  session.ID,
		Game:       session.Game,
		TableNo:    session.TableNo,
		ResultCode: raw,
		Category:   resolution.Category,
		DiceSum:    resolution.DiceSum,
	})
}

// ForceRefund marks every PENDING wager of the session REFUNDED, crediting
// back each exact stake. Triggered when a RUNNING session is superseded
// before settlement, or by administrative cancellation. Uses the same
// per-wager credit primitive as settlement to keep the audit trail uniform.
func (s *Settlement) ForceRefund(ctx context.Context, tx pgx.Tx, session *model.Session, reason string) (int, error) {
	pending, err := s.wagers.WithTx(tx).ListPendingForUpdate(ctx, session.ID)
	if err != nil {
		return 0, err
	}

	for _, w := range pending {
		stake := w.Stake
		w.Status = model.WagerRefunded
		w.WinAmount = &stake
		entry := LedgerEntry{
			Type:        model.TxTypeBetRefunded,
			Description: fmt.Sprintf("%s round %s: %s refunded (%s)", session.Game, session.RoundCode, w.Code, reason),
			RefType:     model.RefTypeWager,
			RefID:       w.ID,
		}
		if _, err := s.ledger.Credit(ctx, tx, w.UserID, stake, entry); err != nil {
			return 0, fmt.Errorf("failed to refund wager %d: %w", w.ID, err)
		}
	}

	if len(pending) > 0 {
		if err := s.wagers.WithTx(tx).SettleBatch(ctx, pending); err != nil {
			return 0, err
		}
	}

	return len(pending), nil
}
