// Package sicbo tests for the three-dice result resolution.
package sicbo

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// TestParseResult tests result string parsing.
func TestParseResult(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    [3]int
		wantErr bool
	}{
		{"comma separated", "2,3,5", [3]int{2, 3, 5}, false},
		{"comma separated with spaces", " 1, 6, 4 ", [3]int{1, 6, 4}, false},
		{"bare digits", "222", [3]int{2, 2, 2}, false},
		{"bare digits mixed", "136", [3]int{1, 3, 6}, false},
		{"face zero", "0,1,2", [3]int{}, true},
		{"face seven", "7,1,2", [3]int{}, true},
		{"two faces", "1,2", [3]int{}, true},
		{"four faces", "1,2,3,4", [3]int{}, true},
		{"garbage", "abc", [3]int{}, true},
		{"empty", "", [3]int{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResult(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseResult(%q) = %v, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseResult(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseResult(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

// TestIsTriple tests the triple detection function.
func TestIsTriple(t *testing.T) {
	tests := []struct {
		name     string
		faces    [3]int
		expected bool
	}{
		{"triple 1s", [3]int{1, 1, 1}, true},
		{"triple 6s", [3]int{6, 6, 6}, true},
		{"not triple - first different", [3]int{2, 1, 1}, false},
		{"not triple - middle different", [3]int{1, 2, 1}, false},
		{"not triple - last different", [3]int{1, 1, 2}, false},
		{"all different", [3]int{1, 2, 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTriple(tt.faces); got != tt.expected {
				t.Errorf("IsTriple(%v) = %v, want %v", tt.faces, got, tt.expected)
			}
		})
	}
}

// TestResolve tests winning and refund set membership for fixed results.
func TestResolve(t *testing.T) {
	g := New(3)

	tests := []struct {
		name       string
		raw        string
		category   string
		diceSum    int
		winning    []string
		notWinning []string
		refund     []string
	}{
		{
			name:     "small non-triple",
			raw:      "1,2,3",
			category: CategorySmall,
			diceSum:  6,
			winning: []string{
				CodePrimarySmall, CodeParityEven, SumCode(6),
				SingleCode(1), SingleCode(2), SingleCode(3),
			},
			notWinning: []string{CodePrimaryBig, CodeParityOdd, CodeAnyTriple, SingleCode(4)},
		},
		{
			name:     "big non-triple",
			raw:      "4,5,6",
			category: CategoryBig,
			diceSum:  15,
			winning: []string{
				CodePrimaryBig, CodeParityOdd, SumCode(15),
				SingleCode(4), SingleCode(5), SingleCode(6),
			},
			notWinning: []string{CodePrimarySmall, CodeParityEven, CodeAnyTriple},
		},
		{
			name:     "low triple refunds small",
			raw:      "2,2,2",
			category: CategoryTriple,
			diceSum:  6,
			winning: []string{
				CodeAnyTriple, TripleCode(2), SumCode(6), CodeParityEven, SingleCode(2),
			},
			notWinning: []string{CodePrimarySmall, CodePrimaryBig, TripleCode(3)},
			refund:     []string{CodePrimarySmall},
		},
		{
			name:       "triple six refunds big",
			raw:        "6,6,6",
			category:   CategoryTriple,
			diceSum:    18,
			winning:    []string{CodeAnyTriple, TripleCode(6), CodeParityEven, SingleCode(6)},
			notWinning: []string{CodePrimaryBig, CodePrimarySmall, SumCode(18), SumCode(17)},
			refund:     []string{CodePrimaryBig},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.Resolve(tt.raw)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.raw, err)
			}
			if res.Category != tt.category {
				t.Errorf("category = %q, want %q", res.Category, tt.category)
			}
			if res.DiceSum != tt.diceSum {
				t.Errorf("dice sum = %d, want %d", res.DiceSum, tt.diceSum)
			}
			for _, code := range tt.winning {
				if _, ok := res.Winning[code]; !ok {
					t.Errorf("code %q missing from winning set", code)
				}
			}
			for _, code := range tt.notWinning {
				if _, ok := res.Winning[code]; ok {
					t.Errorf("code %q unexpectedly in winning set", code)
				}
			}
			for _, code := range tt.refund {
				if _, ok := res.Refund[code]; !ok {
					t.Errorf("code %q missing from refund set", code)
				}
			}
			if len(res.Refund) != len(tt.refund) {
				t.Errorf("refund set size = %d, want %d", len(res.Refund), len(tt.refund))
			}
		})
	}
}

// TestResolveBadResult tests that malformed results are rejected.
func TestResolveBadResult(t *testing.T) {
	g := New(3)
	for _, raw := range []string{"", "7,7,7", "1,2", "red"} {
		if _, err := g.Resolve(raw); err == nil {
			t.Errorf("Resolve(%q) succeeded, want error", raw)
		}
	}
}

// TestFallbackCatalog tests the built-in multiplier table.
func TestFallbackCatalog(t *testing.T) {
	g := New(3)

	tests := []struct {
		code       string
		multiplier string
	}{
		{CodePrimarySmall, "1"},
		{CodePrimaryBig, "1"},
		{CodeParityOdd, "1"},
		{SingleCode(4), "1"},
		{CodeAnyTriple, "30"},
		{TripleCode(5), "150"},
		{SumCode(4), "60"},
		{SumCode(10), "6"},
		{SumCode(11), "6"},
		{SumCode(17), "60"},
	}

	for _, tt := range tests {
		entry, ok := g.Fallback(tt.code)
		if !ok {
			t.Errorf("Fallback(%q) missing", tt.code)
			continue
		}
		if entry.Multiplier.String() != tt.multiplier {
			t.Errorf("Fallback(%q) multiplier = %s, want %s", tt.code, entry.Multiplier, tt.multiplier)
		}
	}

	if _, ok := g.Fallback("sicbo_sum_3"); ok {
		t.Error("Fallback(sicbo_sum_3) should not exist")
	}
	if _, ok := g.Fallback("unknown"); ok {
		t.Error("Fallback(unknown) should not exist")
	}
}

// TestResolveProperty checks resolution invariants for any valid dice result.
func TestResolveProperty(t *testing.T) {
	g := New(3)

	rapid.Check(t, func(t *rapid.T) {
		d1 := rapid.IntRange(1, 6).Draw(t, "d1")
		d2 := rapid.IntRange(1, 6).Draw(t, "d2")
		d3 := rapid.IntRange(1, 6).Draw(t, "d3")
		faces := [3]int{d1, d2, d3}
		sum := d1 + d2 + d3
		triple := d1 == d2 && d2 == d3

		raw := fmt.Sprintf("%d,%d,%d", d1, d2, d3)
		res, err := g.Resolve(raw)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", raw, err)
		}

		if res.DiceSum != sum {
			t.Fatalf("dice sum = %d, want %d", res.DiceSum, sum)
		}

		// Parity follows the sum, exactly one of odd/even wins.
		_, oddWins := res.Winning[CodeParityOdd]
		_, evenWins := res.Winning[CodeParityEven]
		if oddWins == evenWins {
			t.Fatalf("dice %v: odd=%v even=%v, exactly one must win", faces, oddWins, evenWins)
		}
		if oddWins != (sum%2 == 1) {
			t.Fatalf("dice %v (sum=%d): parity winner wrong", faces, sum)
		}

		// Each shown face wins as a single; no other face does.
		for f := 1; f <= 6; f++ {
			shown := f == d1 || f == d2 || f == d3
			_, wins := res.Winning[SingleCode(f)]
			if wins != shown {
				t.Fatalf("dice %v: single %d wins=%v shown=%v", faces, f, wins, shown)
			}
		}

		_, smallWins := res.Winning[CodePrimarySmall]
		_, bigWins := res.Winning[CodePrimaryBig]
		if triple {
			// Triples push one primary side and never win either.
			if smallWins || bigWins {
				t.Fatalf("triple %v: primary bets must not win", faces)
			}
			if _, ok := res.Winning[CodeAnyTriple]; !ok {
				t.Fatalf("triple %v: any-triple must win", faces)
			}
			if _, ok := res.Winning[TripleCode(d1)]; !ok {
				t.Fatalf("triple %v: specific triple must win", faces)
			}
			wantRefund := CodePrimarySmall
			if sum >= 11 {
				wantRefund = CodePrimaryBig
			}
			if _, ok := res.Refund[wantRefund]; !ok || len(res.Refund) != 1 {
				t.Fatalf("triple %v: refund set = %v, want only %q", faces, res.Refund, wantRefund)
			}
			if res.Category != CategoryTriple {
				t.Fatalf("triple %v: category = %q", faces, res.Category)
			}
		} else {
			// Non-triple sums land in [4,17]: exactly one primary side wins.
			if smallWins == bigWins {
				t.Fatalf("dice %v (sum=%d): small=%v big=%v", faces, sum, smallWins, bigWins)
			}
			if smallWins != (sum <= 10) {
				t.Fatalf("dice %v (sum=%d): wrong primary side", faces, sum)
			}
			if _, ok := res.Winning[SumCode(sum)]; !ok {
				t.Fatalf("dice %v: sum bucket %d must win", faces, sum)
			}
			if len(res.Refund) != 0 {
				t.Fatalf("dice %v: refund set must be empty, got %v", faces, res.Refund)
			}
		}
	})
}
