// Package xocdia implements the four-disc toss quick game. The result is one
// token from a fixed red/white pattern vocabulary; winning codes are the
// exact pattern plus its parity class.
package xocdia

import (
	"errors"
	"fmt"
	"strings"

	"quickbet-platform/internal/game"
)

// GameCode identifies the disc-toss game. It runs a single implicit table.
const GameCode = "xocdia"

// Pattern codes: the number of red and white faces showing among the four
// discs. These double as the result vocabulary supplied by the operator.
const (
	CodeFourRed          = "four-red"
	CodeFourWhite        = "four-white"
	CodeThreeRedOneWhite = "three-red-one-white"
	CodeThreeWhiteOneRed = "three-white-one-red"
	CodeTwoRedTwoWhite   = "two-red-two-white"
)

// Parity codes: even wins on 4-0, 0-4 and 2-2 splits, odd on 3-1 splits.
const (
	CodeEven = "even"
	CodeOdd  = "odd"
)

// redCounts maps each pattern to its number of red faces.
var redCounts = map[string]int{
	CodeFourRed:          4,
	CodeFourWhite:        0,
	CodeThreeRedOneWhite: 3,
	CodeThreeWhiteOneRed: 1,
	CodeTwoRedTwoWhite:   2,
}

// ErrBadResult is returned for a result token outside the pattern vocabulary.
var ErrBadResult = errors.New("xocdia: result is not a known disc pattern")

// Game implements game.Rules for the disc-toss game.
type Game struct{}

// New creates the disc-toss game.
func New() *Game { return &Game{} }

// Code returns the game identifier.
func (g *Game) Code() string { return GameCode }

// Name returns the game's display name.
func (g *Game) Name() string { return "Xoc Dia" }

// Tables returns 1: the toss game runs a single implicit table.
func (g *Game) Tables() int { return 1 }

// Normalize canonicalizes a result token or wager code: trimmed, lowered,
// underscores and spaces collapsed to hyphens.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.Join(strings.Fields(s), "-")
	return s
}

// Resolve computes the winning code set for a result token. The toss game
// has no push rule, so the refund set is always empty.
func (g *Game) Resolve(raw string) (*game.Resolution, error) {
	pattern := Normalize(raw)
	reds, ok := redCounts[pattern]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBadResult, raw)
	}

	winning := map[string]struct{}{pattern: {}}
	category := CodeEven
	if reds%2 == 1 {
		category = CodeOdd
	}
	winning[category] = struct{}{}

	return &game.Resolution{
		Raw:      raw,
		Winning:  winning,
		Refund:   map[string]struct{}{},
		Category: category,
	}, nil
}

// Fallback returns false: the toss game's catalog is database-managed only.
func (g *Game) Fallback(string) (game.FallbackEntry, bool) {
	return game.FallbackEntry{}, false
}
