// Package xocdia tests for the disc-toss result resolution.
package xocdia

import "testing"

// TestNormalize tests result token canonicalization.
func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"four-red", "four-red"},
		{"FOUR-RED", "four-red"},
		{"four_red", "four-red"},
		{"  three red one white  ", "three-red-one-white"},
		{"Two_Red_Two_White", "two-red-two-white"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

// TestResolve tests winning-set membership per pattern.
func TestResolve(t *testing.T) {
	g := New()

	tests := []struct {
		name     string
		raw      string
		winning  []string
		losing   []string
		category string
	}{
		{
			name:     "four red is even",
			raw:      "four-red",
			winning:  []string{CodeFourRed, CodeEven},
			losing:   []string{CodeFourWhite, CodeOdd, CodeTwoRedTwoWhite},
			category: CodeEven,
		},
		{
			name:     "four white is even",
			raw:      "four-white",
			winning:  []string{CodeFourWhite, CodeEven},
			losing:   []string{CodeFourRed, CodeOdd},
			category: CodeEven,
		},
		{
			name:     "three red one white is odd",
			raw:      "three-red-one-white",
			winning:  []string{CodeThreeRedOneWhite, CodeOdd},
			losing:   []string{CodeThreeWhiteOneRed, CodeEven, CodeFourRed},
			category: CodeOdd,
		},
		{
			name:     "three white one red is odd",
			raw:      "three_white_one_red",
			winning:  []string{CodeThreeWhiteOneRed, CodeOdd},
			losing:   []string{CodeThreeRedOneWhite, CodeEven},
			category: CodeOdd,
		},
		{
			name:     "two and two is even",
			raw:      "Two-Red-Two-White",
			winning:  []string{CodeTwoRedTwoWhite, CodeEven},
			losing:   []string{CodeOdd},
			category: CodeEven,
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
			for _, code := range tt.winning {
				if _, ok := res.Winning[code]; !ok {
					t.Errorf("code %q missing from winning set", code)
				}
			}
			for _, code := range tt.losing {
				if _, ok := res.Winning[code]; ok {
					t.Errorf("code %q unexpectedly in winning set", code)
				}
			}
			if len(res.Refund) != 0 {
				t.Errorf("refund set must be empty, got %v", res.Refund)
			}
		})
	}
}

// TestResolveBadResult tests that unknown tokens are rejected.
func TestResolveBadResult(t *testing.T) {
	g := New()
	for _, raw := range []string{"", "five-red", "even", "1,2,3"} {
		if _, err := g.Resolve(raw); err == nil {
			t.Errorf("Resolve(%q) succeeded, want error", raw)
		}
	}
}
