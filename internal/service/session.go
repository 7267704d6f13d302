package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"quickbet-platform/internal/game"
	"quickbet-platform/internal/model"
	"quickbet-platform/internal/pkg/event"
	"quickbet-platform/internal/pkg/lock"
	"quickbet-platform/internal/repository"
)

// maxPhaseCatchUp bounds the lazy-advance loop so a pathological clock jump
// cannot spin a request through thousands of phases.
const maxPhaseCatchUp = 12

// SessionView is the snapshot polled by presentation layers.
type SessionView struct {
	Game        string     `json:"game"`
	TableNo     int        `json:"table_no"`
	Active      bool       `json:"active"`
	SessionID   int64      `json:"session_id,omitempty"`
	RoundCode   string     `json:"round_code,omitempty"`
	Phase       string     `json:"phase,omitempty"`
	RemainingMs int64      `json:"remaining_ms"`
	ResultCode  *string    `json:"result_code,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
}

// Sessions owns the per-table session state machine. There is no background
// scheduler: phase advancement is computed and persisted lazily on whichever
// request first observes that a phase boundary has passed, so every write
// path re-runs the advance step before acting.
type Sessions struct {
	pool       *pgxpool.Pool
	repo       *repository.SessionRepository
	settlement *Settlement
	games      *game.Registry
	publisher  event.Publisher
	keysMu     *lock.KeyedLock
	now        func() time.Time
}

// NewSessions creates the session state machine service.
func NewSessions(pool *pgxpool.Pool, repo *repository.SessionRepository, settlement *Settlement, games *game.Registry, publisher event.Publisher, keys *lock.KeyedLock) *Sessions {
	return &Sessions{
		pool:       pool,
		repo:       repo,
		settlement: settlement,
		games:      games,
		publisher:  publisher,
		keysMu:     keys,
		now:        time.Now,
	}
}

// Advance applies lazy phase advancement to the session in memory, as of
// now. Phase start times move by whole phase durations rather than jumping
// to the wall clock, so drift never accumulates. Entering countdown clears
// the prior result. Reports whether anything changed.
func Advance(s *model.Session, now time.Time) bool {
	if !s.IsRunning() {
		return false
	}

	changed := false
	if s.Phase == nil || s.PhaseStartedAt == nil {
		p := model.PhaseCountdown
		t := s.StartedAt
		s.Phase = &p
		s.PhaseStartedAt = &t
		changed = true
	}

	for i := 0; i < maxPhaseCatchUp; i++ {
		d := s.Phase.Duration()
		if d <= 0 {
			break
		}
		boundary := s.PhaseStartedAt.Add(d)
		if boundary.After(now) {
			break
		}
		next := s.Phase.Next()
		s.Phase = &next
		s.PhaseStartedAt = &boundary
		if next == model.PhaseCountdown {
			s.ResultCode = nil
		}
		changed = true
	}

	return changed
}

// checkTable validates the game code and table number against the registry.
func (s *Sessions) checkTable(gameCode string, tableNo int) error {
	rules, ok := s.games.Get(gameCode)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGame, gameCode)
	}
	if tableNo < 1 || tableNo > rules.Tables() {
		return fmt.Errorf("%w: %s table %d", ErrUnknownTable, gameCode, tableNo)
	}
	return nil
}

// idleView is the synthetic "no active round" snapshot.
func idleView(gameCode string, tableNo int) *SessionView {
	return &SessionView{Game: gameCode, TableNo: tableNo, Active: false}
}

// view builds the snapshot for a running session as of now.
func view(s *model.Session, now time.Time) *SessionView {
	v := &SessionView{
		Game:       s.Game,
		TableNo:    s.TableNo,
		Active:     true,
		SessionID:  s.ID,
		RoundCode:  s.RoundCode,
		ResultCode: s.ResultCode,
		StartedAt:  &s.StartedAt,
	}
	if s.Phase != nil {
		v.Phase = string(*s.Phase)
		if d := s.Phase.Duration(); d > 0 && s.PhaseStartedAt != nil {
			remaining := s.PhaseStartedAt.Add(d).Sub(now)
			if remaining > 0 {
				v.RemainingMs = remaining.Milliseconds()
			}
		}
	}
	return v
}

// GetCurrent answers "what is the current session and phase, as of now" for
// a table, persisting any lazy phase advancement it computed. Returns an
// idle view rather than an error when the table has no running round.
func (s *Sessions) GetCurrent(ctx context.Context, gameCode string, tableNo int) (*SessionView, error) {
	if err := s.checkTable(gameCode, tableNo); err != nil {
		return nil, err
	}

	var result *SessionView
	err := s.keysMu.WithLock(lock.TableKey(gameCode, tableNo), func() error {
		return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			session, err := s.repo.WithTx(tx).GetLatestForUpdate(ctx, gameCode, tableNo)
			if err != nil {
				if errors.Is(err, repository.ErrSessionNotFound) {
					result = idleView(gameCode, tableNo)
					return nil
				}
				return err
			}
			if !session.IsRunning() {
				result = idleView(gameCode, tableNo)
				return nil
			}

			now := s.now()
			if Advance(session, now) {
				if err := s.repo.WithTx(tx).UpdatePhase(ctx, session.ID, session.Phase, session.PhaseStartedAt, session.ResultCode); err != nil {
					return err
				}
			}
			result = view(session, now)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StartNew starts a new round on the table, first force-refunding and ending
// any still-running prior session. The new session enters countdown now.
func (s *Sessions) StartNew(ctx context.Context, gameCode string, tableNo int) (*SessionView, error) {
	if err := s.checkTable(gameCode, tableNo); err != nil {
		return nil, err
	}

	var (
		result   *SessionView
		refunded int
		ended    *model.Session
	)
	err := s.keysMu.WithLock(lock.TableKey(gameCode, tableNo), func() error {
		return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			refunded = 0
			ended = nil
			now := s.now()

			prior, err := s.repo.WithTx(tx).GetLatestForUpdate(ctx, gameCode, tableNo)
			if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
				return err
			}
			if err == nil && prior.IsRunning() {
				refunded, err = s.settlement.ForceRefund(ctx, tx, prior, "superseded by new round")
				if err != nil {
					return err
				}
				if err := s.repo.WithTx(tx).End(ctx, prior.ID, now); err != nil {
					return err
				}
				ended = prior
			}

			phase := model.PhaseCountdown
			session := &model.Session{
				RoundCode:      uuid.NewString(),
				Game:           gameCode,
				TableNo:        tableNo,
				Status:         model.SessionRunning,
				Phase:          &phase,
				PhaseStartedAt: &now,
				StartedAt:      now,
			}
			created, err := s.repo.WithTx(tx).Create(ctx, session)
			if err != nil {
				return err
			}

			result = view(created, now)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if ended != nil {
		log.Info().
			Str("game", gameCode).
			Int("table", tableNo).
			Int64("session_id", ended.ID).
			Int("refunded", refunded).
			Msg("Superseded running session refunded")
		s.publisher.Publish(ctx, event.Event{
			Kind:      event.KindSessionRefunded,
			Game:      gameCode,
			TableNo:   tableNo,
			SessionID: ended.ID,
			RoundCode: ended.RoundCode,
			Wagers:    refunded,
			At:        s.now(),
		})
	}

	return result, nil
}

// SubmitResult records the operator-supplied result for the table's current
// round. The session must be exactly in show-result after lazy advancement;
// the round then moves to payout and settles synchronously in the same
// transaction before the updated view is returned.
func (s *Sessions) SubmitResult(ctx context.Context, gameCode string, tableNo int, resultCode string) (*SessionView, error) {
	if err := s.checkTable(gameCode, tableNo); err != nil {
		return nil, err
	}

	var (
		result  *SessionView
		settled int
		session *model.Session
	)
	err := s.keysMu.WithLock(lock.TableKey(gameCode, tableNo), func() error {
		return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			var err error
			session, err = s.repo.WithTx(tx).GetLatestForUpdate(ctx, gameCode, tableNo)
			if err != nil {
				if errors.Is(err, repository.ErrSessionNotFound) {
					return ErrSessionNotRunning
				}
				return err
			}
			if !session.IsRunning() {
				return ErrSessionNotRunning
			}

			// The operator may submit slightly late; catch the phase up
			// before insisting on show-result.
			now := s.now()
			Advance(session, now)
			if session.Phase == nil || *session.Phase != model.PhaseShowResult {
				return fmt.Errorf("%w: phase %v", ErrNotAwaitingResult, session.Phase)
			}

			phase := model.PhasePayout
			session.Phase = &phase
			session.PhaseStartedAt = &now
			session.ResultCode = &resultCode
			if err := s.repo.WithTx(tx).UpdatePhase(ctx, session.ID, session.Phase, session.PhaseStartedAt, session.ResultCode); err != nil {
				return err
			}

			settled, err = s.settlement.Settle(ctx, tx, session, resultCode)
			if err != nil {
				return err
			}

			result = view(session, now)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("game", gameCode).
		Int("table", tableNo).
		Int64("session_id", session.ID).
		Str("result", resultCode).
		Int("settled", settled).
		Msg("Round settled")
	s.publisher.Publish(ctx, event.Event{
		Kind:       event.KindSessionSettled,
		Game:       gameCode,
		TableNo:    tableNo,
		SessionID:  session.ID,
		RoundCode:  session.RoundCode,
		ResultCode: resultCode,
		Wagers:     settled,
		At:         s.now(),
	})

	return result, nil
}

// Cancel administratively ends the table's running session, refunding every
// pending wager.
func (s *Sessions) Cancel(ctx context.Context, gameCode string, tableNo int, reason string) (*SessionView, error) {
	if err := s.checkTable(gameCode, tableNo); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "administrative cancellation"
	}

	var (
		refunded int
		session  *model.Session
	)
	err := s.keysMu.WithLock(lock.TableKey(gameCode, tableNo), func() error {
		return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			var err error
			session, err = s.repo.WithTx(tx).GetLatestForUpdate(ctx, gameCode, tableNo)
			if err != nil {
				if errors.Is(err, repository.ErrSessionNotFound) {
					return ErrSessionNotRunning
				}
				return err
			}
			if !session.IsRunning() {
				return ErrSessionNotRunning
			}

			refunded, err = s.settlement.ForceRefund(ctx, tx, session, reason)
			if err != nil {
				return err
			}
			return s.repo.WithTx(tx).End(ctx, session.ID, s.now())
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("game", gameCode).
		Int("table", tableNo).
		Int64("session_id", session.ID).
		Int("refunded", refunded).
		Str("reason", reason).
		Msg("Session cancelled")
	s.publisher.Publish(ctx, event.Event{
		Kind:      event.KindSessionRefunded,
		Game:      gameCode,
		TableNo:   tableNo,
		SessionID: session.ID,
		RoundCode: session.RoundCode,
		Wagers:    refunded,
		At:        s.now(),
	})

	return idleView(gameCode, tableNo), nil
}
