// Package game defines the rule interface and registry for the quick games.
// Settlement is data-driven: a game resolves a raw result string into sets of
// winning and refunded codes, and the settlement engine only does membership
// checks. Adding a wager type never touches settlement control flow.
package game

import "github.com/shopspring/decimal"

// Outcome is the settlement classification of a single wager code.
type Outcome int

const (
	// OutcomeLost means the code is not in the winning or refund set.
	OutcomeLost Outcome = iota
	// OutcomeWon means the code pays stake x (multiplier + 1).
	OutcomeWon
	// OutcomeRefunded means the stake is returned without profit or loss.
	OutcomeRefunded
)

// Resolution is the full set of settlement facts implied by one result.
type Resolution struct {
	Raw      string
	Winning  map[string]struct{}
	Refund   map[string]struct{}
	Category string
	// DiceSum is the numeric sum of the three faces for the dice game,
	// zero for games without one.
	DiceSum int
}

// Classify resolves one wager code against the resolution. Refund conditions
// take priority over wins.
func (r *Resolution) Classify(code string) Outcome {
	if r == nil {
		return OutcomeLost
	}
	if _, ok := r.Refund[code]; ok {
		return OutcomeRefunded
	}
	if _, ok := r.Winning[code]; ok {
		return OutcomeWon
	}
	return OutcomeLost
}

// FallbackEntry is a built-in catalog default for games that ship day-one
// wager codes without requiring database rows.
type FallbackEntry struct {
	DisplayName string
	Multiplier  decimal.Decimal
	LayoutGroup string
	SortOrder   int
}

// Rules defines the interface every quick game implements.
type Rules interface {
	// Code returns the game identifier (e.g. "sicbo", "xocdia").
	Code() string

	// Name returns the game's display name.
	Name() string

	// Tables returns the number of numbered tables the game runs.
	// A single-table game returns 1.
	Tables() int

	// Resolve parses a raw categorical result and computes the winning and
	// refund code sets. An unparsable result returns an error; callers treat
	// that as a data-quality warning and settle with an empty resolution.
	Resolve(raw string) (*Resolution, error)

	// Fallback returns the built-in catalog entry for a code, if the game
	// ships one. Games without built-in defaults always return false.
	Fallback(code string) (FallbackEntry, bool)
}
