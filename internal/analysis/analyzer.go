// Package analysis turns bookmaker odds into tiered value picks.
//
// For every fixture the 1X2 market gives the baseline distribution, three tiers of heuristic
// adjustments are applied to it, and the factor pick of every tier is classified against the
// baseline. Fixtures without a usable 1X2 market are skipped.
package analysis

import "github.com/Vodeneev/easepick/internal/pkg/models"

// Result is the analysis of one batch of fixtures.
// Picks and Flags count the tier 3 (mode D) classification only.
type Result struct {
	B     []Row `json:"B"`
	C     []Row `json:"C"`
	D     []Row `json:"D"`
	Picks int   `json:"picks"`
	Flags int   `json:"flags"`
}

// Rows returns the rows of a mode.
func (r *Result) Rows(m Mode) []Row {
	switch m {
	case ModeB:
		return r.B
	case ModeC:
		return r.C
	case ModeD:
		return r.D
	}
	return nil
}

// Len is the number of analysed fixtures.
func (r *Result) Len() int {
	return len(r.D)
}

// AnalyzeFixtures analyses the entries matching filters.
func AnalyzeFixtures(entries []models.Entry, filters Filters) *Result {
	res := &Result{B: []Row{}, C: []Row{}, D: []Row{}}

	for _, e := range entries {
		if !filters.Match(e.Fixture) {
			continue
		}
		baseline, ok := ExtractMarketProbabilities(e.Markets)
		if !ok {
			continue
		}
		marketPick := baseline.Argmax()
		ctx := DeriveContext(e.Fixture, e.Markets)

		var tier3 Outcome
		for _, mode := range []Mode{ModeB, ModeC, ModeD} {
			adj := ApplyAdjustments(mode.Tier(), baseline, e.Markets, ctx)
			out := ClassifyPick(adj.Probabilities.Argmax(), baseline, adj.Probabilities, ctx)
			row := buildRow(mode, e.Fixture, marketPick, baseline, adj, out)
			switch mode {
			case ModeB:
				res.B = append(res.B, row)
			case ModeC:
				res.C = append(res.C, row)
			case ModeD:
				res.D = append(res.D, row)
				tier3 = out
			}
		}

		if tier3.Status == StatusPick {
			res.Picks++
		} else {
			res.Flags++
		}
	}
	return res
}
