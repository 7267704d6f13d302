// Package sicbo implements the three-dice quick game: result parsing and the
// data-driven winning/refund code sets consumed by settlement.
package sicbo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"quickbet-platform/internal/game"
)

// GameCode identifies the three-dice game.
const GameCode = "sicbo"

// Wager code vocabulary. Multipliers live in the catalog (or the built-in
// fallback table); these constants only name the codes.
const (
	CodePrimarySmall = "sicbo_primary_small"
	CodePrimaryBig   = "sicbo_primary_big"
	CodeParityOdd    = "sicbo_parity_odd"
	CodeParityEven   = "sicbo_parity_even"
	CodeAnyTriple    = "sicbo_combo_any_triple"
)

// Result categories recorded in round history.
const (
	CategorySmall  = "small"
	CategoryBig    = "big"
	CategoryTriple = "triple"
)

// ErrBadResult is returned for a result string that is not three faces 1-6.
var ErrBadResult = errors.New("sicbo: result is not three faces 1-6")

// SingleCode returns the single-number code for a face.
func SingleCode(face int) string {
	return fmt.Sprintf("sicbo_single_%d", face)
}

// SumCode returns the total-sum bucket code for a sum (4-17).
func SumCode(sum int) string {
	return fmt.Sprintf("sicbo_sum_%d", sum)
}

// TripleCode returns the specific-triple code for a face.
func TripleCode(face int) string {
	return fmt.Sprintf("sicbo_combo_triple_%d", face)
}

// Game implements game.Rules for the three-dice game.
type Game struct {
	tables int
}

// New creates the dice game with the given number of numbered tables.
func New(tables int) *Game {
	if tables < 1 {
		tables = 1
	}
	return &Game{tables: tables}
}

// Code returns the game identifier.
func (g *Game) Code() string { return GameCode }

// Name returns the game's display name.
func (g *Game) Name() string { return "Sic Bo" }

// Tables returns the number of numbered tables.
func (g *Game) Tables() int { return g.tables }

// ParseResult parses a raw result into three face values. It accepts
// comma-separated faces ("2,2,2") as well as a bare three-digit form ("222").
func ParseResult(raw string) ([3]int, error) {
	cleaned := strings.TrimSpace(raw)
	var parts []string
	if strings.Contains(cleaned, ",") {
		parts = strings.Split(cleaned, ",")
	} else {
		for _, r := range cleaned {
			parts = append(parts, string(r))
		}
	}
	if len(parts) != 3 {
		return [3]int{}, fmt.Errorf("%w: %q", ErrBadResult, raw)
	}

	var faces [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 || n > 6 {
			return [3]int{}, fmt.Errorf("%w: %q", ErrBadResult, raw)
		}
		faces[i] = n
	}
	return faces, nil
}

// IsTriple checks if all three faces show the same value.
func IsTriple(faces [3]int) bool {
	return faces[0] == faces[1] && faces[1] == faces[2]
}

// Resolve computes the winning and refund code sets for a result.
//
// Winning membership: the sum bucket (4-17), parity of the sum, every face
// that appears as a single, and on a triple the specific and any-triple
// codes. Small/big win only on non-triples. On a triple the primary bet on
// the side the triple's sum falls into is refunded (house push rule), the
// opposite side loses.
func (g *Game) Resolve(raw string) (*game.Resolution, error) {
	faces, err := ParseResult(raw)
	if err != nil {
		return nil, err
	}

	sum := faces[0] + faces[1] + faces[2]
	triple := IsTriple(faces)

	winning := make(map[string]struct{})
	refund := make(map[string]struct{})

	if sum >= 4 && sum <= 17 {
		winning[SumCode(sum)] = struct{}{}
	}
	if sum%2 == 0 {
		winning[CodeParityEven] = struct{}{}
	} else {
		winning[CodeParityOdd] = struct{}{}
	}
	for _, f := range faces {
		winning[SingleCode(f)] = struct{}{}
	}

	category := CategorySmall
	if sum >= 11 {
		category = CategoryBig
	}

	if triple {
		winning[TripleCode(faces[0])] = struct{}{}
		winning[CodeAnyTriple] = struct{}{}
		category = CategoryTriple
		if sum <= 10 {
			refund[CodePrimarySmall] = struct{}{}
		} else {
			refund[CodePrimaryBig] = struct{}{}
		}
	} else {
		if sum >= 4 && sum <= 10 {
			winning[CodePrimarySmall] = struct{}{}
		} else {
			winning[CodePrimaryBig] = struct{}{}
		}
	}

	return &game.Resolution{
		Raw:      raw,
		Winning:  winning,
		Refund:   refund,
		Category: category,
		DiceSum:  sum,
	}, nil
}

// Fallback returns the built-in catalog entry for a code. This covers the
// day-one defaults when the database catalog lacks an entry.
func (g *Game) Fallback(code string) (game.FallbackEntry, bool) {
	entry, ok := fallbackCatalog[code]
	return entry, ok
}
