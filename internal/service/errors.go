// Package service provides business logic implementations.
package service

import "errors"

// Validation errors: rejected synchronously with no state change, safe to
// retry after correcting input.
var (
	ErrEmptyBatch     = errors.New("placement batch is empty")
	ErrInvalidStake   = errors.New("stake must be positive")
	ErrUnknownBetCode = errors.New("unknown bet code")
	ErrWrongTable     = errors.New("session does not belong to the declared table")
	ErrUnknownGame    = errors.New("unknown game")
	ErrUnknownTable   = errors.New("unknown table")
)

// State-conflict errors: the client acted on a stale snapshot; retryable
// after refreshing.
var (
	ErrSessionNotRunning = errors.New("session is not running")
	ErrPhaseLocked       = errors.New("wagers are not accepted in the current phase")
	ErrNotAwaitingResult = errors.New("session is not awaiting a result")
)

// Funds errors: the whole batch is rejected before any debit occurs.
var (
	ErrInsufficientFunds = errors.New("insufficient balance")
)
