package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quickbet-platform/internal/model"
)

// SessionRepository handles game session persistence. Sessions are never
// physically deleted; superseded rounds are marked ENDED.
type SessionRepository struct {
	db DBTX
}

// NewSessionRepository creates a new SessionRepository instance.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: pool}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *SessionRepository) WithTx(tx pgx.Tx) *SessionRepository {
	return &SessionRepository{db: tx}
}

const sessionColumns = `id, round_code, game, table_no, status, phase,
	phase_started_at, result_code, started_at, ended_at`

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	var phase *string
	err := row.Scan(
		&s.ID,
		&s.RoundCode,
		&s.Game,
		&s.TableNo,
		&s.Status,
		&phase,
		&s.PhaseStartedAt,
		&s.ResultCode,
		&s.StartedAt,
		&s.EndedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	if phase != nil {
		p := model.Phase(*phase)
		s.Phase = &p
	}
	return &s, nil
}

// Create inserts a new session row.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) (*model.Session, error) {
	const query = `
		INSERT INTO sessions
			(round_code, game, table_no, status, phase, phase_started_at, result_code, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + sessionColumns

	var phase *string
	if s.Phase != nil {
		p := string(*s.Phase)
		phase = &p
	}

	created, err := scanSession(r.db.QueryRow(ctx, query,
		s.RoundCode, s.Game, s.TableNo, s.Status,
		phase, s.PhaseStartedAt, s.ResultCode, s.StartedAt, s.EndedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return created, nil
}

// GetLatest loads the most recently started session for a table.
// Returns ErrSessionNotFound if the table never ran a round.
func (r *SessionRepository) GetLatest(ctx context.Context, game string, tableNo int) (*model.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE game = $1 AND table_no = $2
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`
	return scanSession(r.db.QueryRow(ctx, query, game, tableNo))
}

// GetLatestForUpdate loads the most recently started session for a table
// under a row lock. Must run inside a transaction; phase advancement and
// mutation are applied to this same locked row so an in-memory advancement
// is never lost to a concurrent writer.
func (r *SessionRepository) GetLatestForUpdate(ctx context.Context, game string, tableNo int) (*model.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE game = $1 AND table_no = $2
		ORDER BY started_at DESC, id DESC
		LIMIT 1
		FOR UPDATE
	`
	return scanSession(r.db.QueryRow(ctx, query, game, tableNo))
}

// GetByIDForUpdate loads a session by ID under a row lock.
func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = $1
		FOR UPDATE
	`
	return scanSession(r.db.QueryRow(ctx, query, id))
}

// UpdatePhase persists a session's phase, phase start time and result code.
func (r *SessionRepository) UpdatePhase(ctx context.Context, id int64, phase *model.Phase, phaseStartedAt *time.Time, resultCode *string) error {
	const query = `
		UPDATE sessions
		SET phase = $2, phase_started_at = $3, result_code = $4
		WHERE id = $1
	`

	var p *string
	if phase != nil {
		v := string(*phase)
		p = &v
	}

	tag, err := r.db.Exec(ctx, query, id, p, phaseStartedAt, resultCode)
	if err != nil {
		return fmt.Errorf("failed to update session phase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// End marks a session ENDED at the given time.
func (r *SessionRepository) End(ctx context.Context, id int64, endedAt time.Time) error {
	const query = `
		UPDATE sessions
		SET status = $2, ended_at = $3
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, model.SessionEnded, endedAt)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// CountRunning counts RUNNING sessions for a table. The invariant is that
// this never exceeds one.
func (r *SessionRepository) CountRunning(ctx context.Context, game string, tableNo int) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM sessions
		WHERE game = $1 AND table_no = $2 AND status = $3
	`

	var count int
	err := r.db.QueryRow(ctx, query, game, tableNo, model.SessionRunning).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count running sessions: %w", err)
	}
	return count, nil
}
