// Package repository data access tests.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"quickbet-platform/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool.
// Skips the test if Docker is not available.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	err = applyTestSchema(ctx, pool)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// applyTestSchema creates the tables the repositories expect.
func applyTestSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			amount BIGINT NOT NULL,
			balance_before BIGINT NOT NULL,
			balance_after BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			ref_type VARCHAR(50),
			ref_id BIGINT,
			actor_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id BIGSERIAL PRIMARY KEY,
			round_code UUID NOT NULL UNIQUE,
			game VARCHAR(30) NOT NULL,
			table_no INT NOT NULL,
			status VARCHAR(20) NOT NULL,
			phase VARCHAR(30),
			phase_started_at TIMESTAMPTZ,
			result_code VARCHAR(100),
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ,
			CHECK ((phase IS NULL) = (phase_started_at IS NULL))
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_running
			ON sessions(game, table_no) WHERE status = 'RUNNING'`,
		`CREATE TABLE IF NOT EXISTS wagers (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			session_id BIGINT NOT NULL REFERENCES sessions(id),
			code VARCHAR(100) NOT NULL,
			stake BIGINT NOT NULL CHECK (stake > 0),
			multiplier NUMERIC(12,2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			win_amount BIGINT,
			result_code VARCHAR(100),
			placed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			settled_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS quick_bet_configs (
			id BIGSERIAL PRIMARY KEY,
			game VARCHAR(30) NOT NULL,
			code VARCHAR(100) NOT NULL,
			display_name VARCHAR(255) NOT NULL,
			multiplier NUMERIC(12,2) NOT NULL,
			layout_group VARCHAR(50) NOT NULL DEFAULT '',
			sort_order INT NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (game, code)
		)`,
		`CREATE TABLE IF NOT EXISTS result_history (
			id BIGSERIAL PRIMARY KEY,
			session_id BIGINT NOT NULL UNIQUE REFERENCES sessions(id),
			game VARCHAR(30) NOT NULL,
			table_no INT NOT NULL,
			result_code VARCHAR(100) NOT NULL,
			category VARCHAR(30) NOT NULL,
			dice_sum INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// mustCreateSession inserts a running session for wager and history tests.
func mustCreateSession(t *testing.T, pool *pgxpool.Pool, game string, tableNo int) *model.Session {
	t.Helper()
	repo := NewSessionRepository(pool)
	phase := model.PhaseCountdown
	now := time.Now().UTC().Truncate(time.Millisecond)
	s, err := repo.Create(context.Background(), &model.Session{
		RoundCode:      uuid.NewString(),
		Game:           game,
		TableNo:        tableNo,
		Status:         model.SessionRunning,
		Phase:          &phase,
		PhaseStartedAt: &now,
		StartedAt:      now,
	})
	require.NoError(t, err)
	return s
}

// ============================================================================
// UserRepository Tests
// ============================================================================

func TestUserRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, err := repo.Create(ctx, 12345, "player", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.ID)
	assert.Equal(t, "player", user.Username)
	assert.Equal(t, int64(1000), user.Balance)
	assert.False(t, user.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Balance, got.Balance)

	_, err = repo.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_SetBalance(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 1, "player", 500)
	require.NoError(t, err)

	require.NoError(t, repo.SetBalance(ctx, 1, 750))
	user, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(750), user.Balance)

	assert.ErrorIs(t, repo.SetBalance(ctx, 404, 100), ErrUserNotFound)
}

// ============================================================================
// LedgerRepository Tests
// ============================================================================

func TestLedgerRepository_InsertAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	users := NewUserRepository(pool)
	ledger := NewLedgerRepository(pool)
	ctx := context.Background()

	_, err := users.Create(ctx, 1, "player", 1000)
	require.NoError(t, err)

	desc := "stake for round"
	refType := model.RefTypeSession
	refID := int64(7)
	rec, err := ledger.Insert(ctx, &model.LedgerTransaction{
		UserID:        1,
		Amount:        -300,
		BalanceBefore: 1000,
		BalanceAfter:  700,
		Type:          model.TxTypeBetPlaced,
		Description:   &desc,
		RefType:       &refType,
		RefID:         &refID,
	})
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, rec.BalanceBefore+rec.Amount, rec.BalanceAfter)

	_, err = ledger.Insert(ctx, &model.LedgerTransaction{
		UserID:        1,
		Amount:        600,
		BalanceBefore: 700,
		BalanceAfter:  1300,
		Type:          model.TxTypeBetWon,
	})
	require.NoError(t, err)

	list, err := ledger.ListByUser(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Newest first
	assert.Equal(t, model.TxTypeBetWon, list[0].Type)
	assert.Equal(t, model.TxTypeBetPlaced, list[1].Type)

	count, err := ledger.CountByRef(ctx, model.RefTypeSession, 7, model.TxTypeBetPlaced)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = ledger.CountByRef(ctx, model.RefTypeSession, 7, model.TxTypeBetRefunded)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// ============================================================================
// SessionRepository Tests
// ============================================================================

func TestSessionRepository_Lifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	_, err := repo.GetLatest(ctx, "sicbo", 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s := mustCreateSession(t, pool, "sicbo", 1)
	assert.Equal(t, model.SessionRunning, s.Status)
	require.NotNil(t, s.Phase)
	assert.Equal(t, model.PhaseCountdown, *s.Phase)

	latest, err := repo.GetLatest(ctx, "sicbo", 1)
	require.NoError(t, err)
	assert.Equal(t, s.ID, latest.ID)

	// Advance to payout with a result
	phase := model.PhasePayout
	at := time.Now().UTC()
	result := "2,3,5"
	require.NoError(t, repo.UpdatePhase(ctx, s.ID, &phase, &at, &result))

	latest, err = repo.GetLatest(ctx, "sicbo", 1)
	require.NoError(t, err)
	require.NotNil(t, latest.Phase)
	assert.Equal(t, model.PhasePayout, *latest.Phase)
	require.NotNil(t, latest.ResultCode)
	assert.Equal(t, "2,3,5", *latest.ResultCode)

	count, err := repo.CountRunning(ctx, "sicbo", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.End(ctx, s.ID, time.Now().UTC()))
	count, err = repo.CountRunning(ctx, "sicbo", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// The ended round is still the latest row for the table.
	latest, err = repo.GetLatest(ctx, "sicbo", 1)
	require.NoError(t, err)
	assert.Equal(t, model.SessionEnded, latest.Status)
}

func TestSessionRepository_OneRunningPerTable(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	mustCreateSession(t, pool, "sicbo", 1)

	// The partial unique index rejects a second RUNNING row on the table.
	phase := model.PhaseCountdown
	now := time.Now().UTC()
	_, err := repo.Create(ctx, &model.Session{
		RoundCode:      uuid.NewString(),
		Game:           "sicbo",
		TableNo:        1,
		Status:         model.SessionRunning,
		Phase:          &phase,
		PhaseStartedAt: &now,
		StartedAt:      now,
	})
	assert.Error(t, err)

	// Other tables are unaffected.
	mustCreateSession(t, pool, "sicbo", 2)
	mustCreateSession(t, pool, "xocdia", 1)
}

// ============================================================================
// WagerRepository Tests
// ============================================================================

func TestWagerRepository_InsertBatchAndSettle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	users := NewUserRepository(pool)
	wagers := NewWagerRepository(pool)
	ctx := context.Background()

	_, err := users.Create(ctx, 1, "player", 1000)
	require.NoError(t, err)
	s := mustCreateSession(t, pool, "sicbo", 1)

	batch := []*model.Wager{
		{UserID: 1, SessionID: s.ID, Code: "sicbo_primary_big", Stake: 100, Multiplier: decimal.NewFromInt(1)},
		{UserID: 1, SessionID: s.ID, Code: "sicbo_sum_11", Stake: 50, Multiplier: decimal.RequireFromString("6")},
		{UserID: 1, SessionID: s.ID, Code: "sicbo_parity_odd", Stake: 200, Multiplier: decimal.RequireFromString("0.95")},
	}
	inserted, err := wagers.InsertBatch(ctx, batch)
	require.NoError(t, err)
	require.Len(t, inserted, 3)
	for i, w := range inserted {
		assert.NotZero(t, w.ID)
		assert.Equal(t, model.WagerPending, w.Status)
		assert.True(t, w.Multiplier.Equal(batch[i].Multiplier),
			"multiplier round-trip: got %s want %s", w.Multiplier, batch[i].Multiplier)
	}

	pending, err := wagers.ListPendingForUpdate(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	// Resolve all three
	win := int64(200)
	zero := int64(0)
	result := "4,3,4"
	pending[0].Status = model.WagerWon
	pending[0].WinAmount = &win
	pending[0].ResultCode = &result
	pending[1].Status = model.WagerWon
	eleven := int64(350)
	pending[1].WinAmount = &eleven
	pending[1].ResultCode = &result
	pending[2].Status = model.WagerLost
	pending[2].WinAmount = &zero
	pending[2].ResultCode = &result
	require.NoError(t, wagers.SettleBatch(ctx, pending))

	// Nothing pending remains; a second settlement pass sees no rows.
	pending, err = wagers.ListPendingForUpdate(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := wagers.ListBySession(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, w := range all {
		assert.NotEqual(t, model.WagerPending, w.Status)
		assert.NotNil(t, w.SettledAt)
	}

	mine, err := wagers.ListByUser(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestWagerRepository_SettleBatchIgnoresResolved(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	users := NewUserRepository(pool)
	wagers := NewWagerRepository(pool)
	ctx := context.Background()

	_, err := users.Create(ctx, 1, "player", 1000)
	require.NoError(t, err)
	s := mustCreateSession(t, pool, "sicbo", 1)

	inserted, err := wagers.InsertBatch(ctx, []*model.Wager{
		{UserID: 1, SessionID: s.ID, Code: "sicbo_primary_big", Stake: 100, Multiplier: decimal.NewFromInt(1)},
	})
	require.NoError(t, err)
	w := inserted[0]

	win := int64(200)
	w.Status = model.WagerWon
	w.WinAmount = &win
	require.NoError(t, wagers.SettleBatch(ctx, []*model.Wager{w}))

	// A second settle attempt with a different outcome must not touch the row.
	stale := *w
	stale.Status = model.WagerLost
	zero := int64(0)
	stale.WinAmount = &zero
	require.NoError(t, wagers.SettleBatch(ctx, []*model.Wager{&stale}))

	all, err := wagers.ListBySession(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.WagerWon, all[0].Status)
	require.NotNil(t, all[0].WinAmount)
	assert.Equal(t, int64(200), *all[0].WinAmount)
}

// ============================================================================
// CatalogRepository Tests
// ============================================================================

func TestCatalogRepository_CRUD(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCatalogRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.QuickBetConfig{
		Game:        "sicbo",
		Code:        "sicbo_sum_11",
		DisplayName: "Sum 11",
		Multiplier:  decimal.RequireFromString("6"),
		LayoutGroup: "sum",
		SortOrder:   11,
		Active:      true,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := repo.GetByCode(ctx, "sicbo", "sicbo_sum_11")
	require.NoError(t, err)
	assert.Equal(t, "Sum 11", got.DisplayName)
	assert.True(t, got.Multiplier.Equal(decimal.RequireFromString("6")))

	// Deactivate: GetByCode stops seeing it, ListByGame(false) still does.
	got.Active = false
	got.Multiplier = decimal.RequireFromString("6.5")
	_, err = repo.Update(ctx, got)
	require.NoError(t, err)

	_, err = repo.GetByCode(ctx, "sicbo", "sicbo_sum_11")
	assert.ErrorIs(t, err, ErrCatalogNotFound)

	active, err := repo.ListByGame(ctx, "sicbo", true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.ListByGame(ctx, "sicbo", false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Multiplier.Equal(decimal.RequireFromString("6.5")))

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrCatalogNotFound)
}

// ============================================================================
// HistoryRepository Tests
// ============================================================================

func TestHistoryRepository_InsertAndListRecent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHistoryRepository(pool)
	ctx := context.Background()

	results := []struct {
		code     string
		category string
		sum      int
	}{
		{"1,2,3", "small", 6},
		{"4,5,6", "big", 15},
		{"2,2,2", "triple", 6},
	}
	var lastID int64
	for _, r := range results {
		s := mustCreateSession(t, pool, "sicbo", 1)
		require.NoError(t, NewSessionRepository(pool).End(ctx, s.ID, time.Now().UTC()))
		require.NoError(t, repo.Insert(ctx, &model.ResultHistory{
			SessionID:  s.ID,
			Game:       "sicbo",
			TableNo:    1,
			ResultCode: r.code,
			Category:   r.category,
			DiceSum:    r.sum,
		}))
		lastID = s.ID
	}

	// A repeat insert for an already recorded session is a no-op.
	require.NoError(t, repo.Insert(ctx, &model.ResultHistory{
		SessionID:  lastID,
		Game:       "sicbo",
		TableNo:    1,
		ResultCode: "6,6,6",
		Category:   "triple",
		DiceSum:    18,
	}))
	all, err := repo.ListRecent(ctx, "sicbo", 1, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2,2,2", all[0].ResultCode)

	recent, err := repo.ListRecent(ctx, "sicbo", 1, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// Newest first
	assert.Equal(t, "2,2,2", recent[0].ResultCode)
	assert.Equal(t, "triple", recent[0].Category)
	assert.Equal(t, "4,5,6", recent[1].ResultCode)

	other, err := repo.ListRecent(ctx, "sicbo", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}
