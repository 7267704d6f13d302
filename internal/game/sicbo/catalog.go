package sicbo

import (
	"fmt"

	"github.com/shopspring/decimal"

	"quickbet-platform/internal/game"
)

// Layout groups for the client betting board.
const (
	GroupPrimary = "primary"
	GroupParity  = "parity"
	GroupSingle  = "single"
	GroupSum     = "sum"
	GroupCombo   = "combo"
)

// fallbackCatalog is the built-in wager-code table used when the database
// catalog has no entry for a code. Multipliers follow standard sic bo odds
// and state the additional ratio won, exclusive of principal.
var fallbackCatalog = buildFallbackCatalog()

// sumMultipliers maps each total-sum bucket to its payout multiplier.
var sumMultipliers = map[int]int64{
	4: 60, 5: 30, 6: 17, 7: 12, 8: 8, 9: 6,
	10: 6, 11: 6, 12: 6, 13: 8, 14: 12, 15: 17, 16: 30, 17: 60,
}

func buildFallbackCatalog() map[string]game.FallbackEntry {
	catalog := map[string]game.FallbackEntry{
		CodePrimarySmall: {DisplayName: "Small (4-10)", Multiplier: decimal.NewFromInt(1), LayoutGroup: GroupPrimary, SortOrder: 1},
		CodePrimaryBig:   {DisplayName: "Big (11-17)", Multiplier: decimal.NewFromInt(1), LayoutGroup: GroupPrimary, SortOrder: 2},
		CodeParityOdd:    {DisplayName: "Odd", Multiplier: decimal.NewFromInt(1), LayoutGroup: GroupParity, SortOrder: 1},
		CodeParityEven:   {DisplayName: "Even", Multiplier: decimal.NewFromInt(1), LayoutGroup: GroupParity, SortOrder: 2},
		CodeAnyTriple:    {DisplayName: "Any Triple", Multiplier: decimal.NewFromInt(30), LayoutGroup: GroupCombo, SortOrder: 7},
	}

	for face := 1; face <= 6; face++ {
		catalog[SingleCode(face)] = game.FallbackEntry{
			DisplayName: fmt.Sprintf("Single %d", face),
			Multiplier:  decimal.NewFromInt(1),
			LayoutGroup: GroupSingle,
			SortOrder:   face,
		}
		catalog[TripleCode(face)] = game.FallbackEntry{
			DisplayName: fmt.Sprintf("Triple %d", face),
			Multiplier:  decimal.NewFromInt(150),
			LayoutGroup: GroupCombo,
			SortOrder:   face,
		}
	}

	for sum := 4; sum <= 17; sum++ {
		catalog[SumCode(sum)] = game.FallbackEntry{
			DisplayName: fmt.Sprintf("Sum %d", sum),
			Multiplier:  decimal.NewFromInt(sumMultipliers[sum]),
			LayoutGroup: GroupSum,
			SortOrder:   sum,
		}
	}

	return catalog
}
