// Package model defines the data models for the quick-game wagering platform.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a player account with its point balance.
// Accounts are provisioned by the external identity system; this core only
// reads them and mutates the balance through the ledger.
type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Session status values.
const (
	SessionRunning = "RUNNING"
	SessionEnded   = "ENDED"
)

// Session represents one timed round of a game on a table.
// At most one RUNNING session exists per table at any time.
type Session struct {
	ID             int64      `db:"id"`
	RoundCode      string     `db:"round_code"`
	Game           string     `db:"game"`
	TableNo        int        `db:"table_no"`
	Status         string     `db:"status"`
	Phase          *Phase     `db:"phase"`
	PhaseStartedAt *time.Time `db:"phase_started_at"`
	ResultCode     *string    `db:"result_code"`
	StartedAt      time.Time  `db:"started_at"`
	EndedAt        *time.Time `db:"ended_at"`
}

// IsRunning reports whether the session is the table's active round.
func (s *Session) IsRunning() bool {
	return s != nil && s.Status == SessionRunning
}

// Wager status values. A wager transitions PENDING -> {WON, LOST, REFUNDED}
// exactly once and never moves again.
const (
	WagerPending  = "PENDING"
	WagerWon      = "WON"
	WagerLost     = "LOST"
	WagerRefunded = "REFUNDED"
)

// Wager represents a single stake placed against a session.
// The payout multiplier is snapshotted at placement time so later catalog
// edits never change the price of an already-placed bet.
type Wager struct {
	ID         int64           `db:"id"`
	UserID     int64           `db:"user_id"`
	SessionID  int64           `db:"session_id"`
	Code       string          `db:"code"`
	Stake      int64           `db:"stake"`
	Multiplier decimal.Decimal `db:"multiplier"`
	Status     string          `db:"status"`
	WinAmount  *int64          `db:"win_amount"`
	ResultCode *string         `db:"result_code"`
	PlacedAt   time.Time       `db:"placed_at"`
	SettledAt  *time.Time      `db:"settled_at"`
}

// QuickBetConfig is one row of the wager-code catalog: display metadata,
// payout multiplier (additional ratio won, exclusive of principal) and
// layout grouping for the client.
type QuickBetConfig struct {
	ID          int64           `db:"id"`
	Game        string          `db:"game"`
	Code        string          `db:"code"`
	DisplayName string          `db:"display_name"`
	Multiplier  decimal.Decimal `db:"multiplier"`
	LayoutGroup string          `db:"layout_group"`
	SortOrder   int             `db:"sort_order"`
	Active      bool            `db:"active"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// LedgerTransaction is one append-only balance mutation record.
// Invariant: BalanceAfter = BalanceBefore + Amount.
type LedgerTransaction struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	Amount        int64     `db:"amount"`
	BalanceBefore int64     `db:"balance_before"`
	BalanceAfter  int64     `db:"balance_after"`
	Type          string    `db:"type"`
	Description   *string   `db:"description"`
	RefType       *string   `db:"ref_type"`
	RefID         *int64    `db:"ref_id"`
	ActorID       *int64    `db:"actor_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// ResultHistory is one denormalized record per settled round, kept for
// trend display. Written once, never mutated.
type ResultHistory struct {
	ID         int64     `db:"id"`
	SessionID  int64     `db:"session_id"`
	Game       string    `db:"game"`
	TableNo    int       `db:"table_no"`
	ResultCode string    `db:"result_code"`
	Category   string    `db:"category"`
	DiceSum    int       `db:"dice_sum"`
	CreatedAt  time.Time `db:"created_at"`
}

// Ledger transaction types for categorizing balance changes.
const (
	TxTypeBetPlaced   = "bet_placed"   // Stake debit for a placement batch
	TxTypeBetWon      = "bet_won"      // Winnings credit for a settled wager
	TxTypeBetRefunded = "bet_refunded" // Stake returned on a push or cancel
	TxTypeAdminAdjust = "admin_adjust" // Operator-attributed balance change
)

// Ledger reference types linking a transaction back to its origin.
const (
	RefTypeSession = "session"
	RefTypeWager   = "wager"
)
