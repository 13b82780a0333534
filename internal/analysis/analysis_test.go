package analysis

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Vodeneev/easepick/internal/pkg/models"
)

const eps = 1e-9

func matchWinner(home, draw, away float64) []models.MarketQuote {
	return []models.MarketQuote{
		{Label: "Home", Odd: home},
		{Label: "Draw", Odd: draw},
		{Label: "Away", Odd: away},
	}
}

// saturday is a non-midweek kickoff.
var saturday = time.Date(2024, 5, 18, 15, 30, 0, 0, time.UTC)

// wednesday is a midweek kickoff.
var wednesday = time.Date(2024, 5, 15, 19, 0, 0, 0, time.UTC)

func fixture(id int64, venue string, kickoff time.Time) models.Fixture {
	return models.Fixture{
		ID:     id,
		Date:   kickoff,
		Venue:  models.Venue{Name: venue},
		League: models.League{ID: 78, Name: "Bundesliga", Country: "Germany"},
		Home:   models.Team{Name: "FC Bayern"},
		Away:   models.Team{Name: "Borussia Dortmund"},
	}
}

// awayValueMarkets triggers enough away rules for a tier 3 PICK on a midweek kickoff.
func awayValueMarkets() models.Markets {
	return models.Markets{
		models.MarketMatchWinner: matchWinner(2.6, 3.4, 2.7),
		models.MarketBTTS:        {{Label: "Yes", Odd: 1.85}, {Label: "No", Odd: 1.95}},
		models.MarketOverUnder25: {{Label: "Over 2.5", Odd: 1.9}, {Label: "Under 2.5", Odd: 1.9}},
		models.MarketDoubleChance: {
			{Label: "1X", Odd: 1.6},
			{Label: "12", Odd: 1.3},
			{Label: "X2", Odd: 1.4},
		},
		models.MarketDrawNoBet: {{Label: "Home", Odd: 1.9}, {Label: "Away", Odd: 1.8}},
	}
}

func TestExtractMarketProbabilities(t *testing.T) {
	d, ok := ExtractMarketProbabilities(models.Markets{
		models.MarketMatchWinner: matchWinner(1.65, 4.20, 4.60),
	})
	if !ok {
		t.Fatalf("ExtractMarketProbabilities() ok = false, want true")
	}

	sum := 1/1.65 + 1/4.20 + 1/4.60
	want := Distribution{Home: (1 / 1.65) / sum, Draw: (1 / 4.20) / sum, Away: (1 / 4.60) / sum}
	if math.Abs(d.Home-want.Home) > eps || math.Abs(d.Draw-want.Draw) > eps || math.Abs(d.Away-want.Away) > eps {
		t.Errorf("ExtractMarketProbabilities() = %+v, want %+v", d, want)
	}
	if math.Abs(d.Home-0.5709) > 1e-4 || math.Abs(d.Draw-0.2243) > 1e-4 || math.Abs(d.Away-0.2048) > 1e-4 {
		t.Errorf("ExtractMarketProbabilities() = %+v, want about {0.5709 0.2243 0.2048}", d)
	}
}

func TestExtractMarketProbabilities_SumsToOne(t *testing.T) {
	triples := [][3]float64{
		{1.65, 4.2, 4.6},
		{2.55, 3.4, 2.65},
		{1.01, 21, 51},
		{7.5, 4.8, 1.35},
		{2, 2, 2},
		{1000, 1.001, 1000},
	}

	for _, tr := range triples {
		d, ok := ExtractMarketProbabilities(models.Markets{
			models.MarketMatchWinner: matchWinner(tr[0], tr[1], tr[2]),
		})
		if !ok {
			t.Errorf("ExtractMarketProbabilities(%v) ok = false", tr)
			continue
		}
		if math.Abs(d.Sum()-1) > eps {
			t.Errorf("ExtractMarketProbabilities(%v) sum = %v, want 1", tr, d.Sum())
		}
	}
}

func TestExtractMarketProbabilities_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		markets models.Markets
	}{
		{"no 1X2 market", models.Markets{models.MarketBTTS: {{Label: "Yes", Odd: 1.7}}}},
		{"missing away", models.Markets{models.MarketMatchWinner: {
			{Label: "Home", Odd: 1.8},
			{Label: "Draw", Odd: 3.5},
		}}},
		{"invalid odd", models.Markets{models.MarketMatchWinner: matchWinner(1.8, 1.0, 4.2)}},
		{"empty market", models.Markets{models.MarketMatchWinner: {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ExtractMarketProbabilities(tt.markets); ok {
				t.Errorf("ExtractMarketProbabilities() ok = true, want false")
			}
		})
	}
}

func TestExtractMarketProbabilities_LabelPrefix(t *testing.T) {
	d, ok := ExtractMarketProbabilities(models.Markets{
		models.MarketMatchWinner: {
			{Label: "HOME team", Odd: 2},
			{Label: "X", Odd: 4},
			{Label: "away side", Odd: 4},
		},
	})
	if !ok {
		t.Fatalf("ExtractMarketProbabilities() ok = false")
	}
	if math.Abs(d.Home-0.5) > eps || math.Abs(d.Draw-0.25) > eps || math.Abs(d.Away-0.25) > eps {
		t.Errorf("ExtractMarketProbabilities() = %+v, want {0.5 0.25 0.25}", d)
	}
}

func TestDistributionArgmax(t *testing.T) {
	tests := []struct {
		d    Distribution
		want Side
	}{
		{Distribution{0.5, 0.3, 0.2}, Home},
		{Distribution{0.2, 0.5, 0.3}, Draw},
		{Distribution{0.2, 0.3, 0.5}, Away},
		{Distribution{0.4, 0.4, 0.2}, Home},
		{Distribution{0.2, 0.4, 0.4}, Draw},
	}

	for _, tt := range tests {
		if got := tt.d.Argmax(); got != tt.want {
			t.Errorf("Argmax(%+v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}

func TestDeriveContext(t *testing.T) {
	tests := []struct {
		name    string
		fixture models.Fixture
		markets models.Markets
		want    Context
	}{
		{
			name:    "quiet weekend",
			fixture: fixture(1, "Allianz Arena", saturday),
			markets: models.Markets{},
			want:    Context{},
		},
		{
			name:    "derby keyword is case-insensitive",
			fixture: fixture(1, "Stadio del DERBY", saturday),
			want:    Context{IsDerby: true},
		},
		{
			name:    "el clasico",
			fixture: fixture(1, "Clasico Ground", saturday),
			want:    Context{IsDerby: true},
		},
		{
			name:    "midweek",
			fixture: fixture(1, "Arena", wednesday),
			want:    Context{IsMidweek: true},
		},
		{
			name: "weak data league",
			fixture: func() models.Fixture {
				f := fixture(1, "Arena", saturday)
				f.League.ID = 253
				return f
			}(),
			want: Context{LeagueWeakData: true},
		},
		{
			name:    "form trend away at exact gap",
			fixture: fixture(1, "Arena", saturday),
			markets: models.Markets{models.MarketDoubleChance: {{Label: "1X", Odd: 1.65}, {Label: "X2", Odd: 1.50}}},
			want:    Context{FormTrend: Away},
		},
		{
			name:    "form trend home",
			fixture: fixture(1, "Arena", saturday),
			markets: models.Markets{models.MarketDoubleChance: {{Label: "1X", Odd: 1.18}, {Label: "X2", Odd: 2.15}}},
			want:    Context{FormTrend: Home},
		},
		{
			name:    "form trend below gap",
			fixture: fixture(1, "Arena", saturday),
			markets: models.Markets{models.MarketDoubleChance: {{Label: "1X", Odd: 1.52}, {Label: "X2", Odd: 1.5}}},
			want:    Context{},
		},
		{
			name:    "form trend needs both quotes",
			fixture: fixture(1, "Arena", saturday),
			markets: models.Markets{models.MarketDoubleChance: {{Label: "1X", Odd: 1.1}}},
			want:    Context{},
		},
		{
			name:    "counter vs press",
			fixture: fixture(1, "Arena", saturday),
			markets: models.Markets{
				models.MarketBTTS:        {{Label: "Yes", Odd: 1.81}},
				models.MarketOverUnder25: {{Label: "Over 2.5", Odd: 1.86}},
			},
			want: Context{CounterVsPress: Away},
		},
		{
			name:    "counter vs press needs both thresholds",
			fixture: fixture(1, "Arena", saturday),
			markets: models.Markets{
				models.MarketBTTS:        {{Label: "Yes", Odd: 1.81}},
				models.MarketOverUnder25: {{Label: "Over 2.5", Odd: 1.85}},
			},
			want: Context{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveContext(tt.fixture, tt.markets); got != tt.want {
				t.Errorf("DeriveContext() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestApplyAdjustments_TierOneIsBaseline(t *testing.T) {
	markets := awayValueMarkets()
	base, _ := ExtractMarketProbabilities(markets)
	ctx := Context{IsDerby: true, IsMidweek: true, FormTrend: Away}

	adj := ApplyAdjustments(TierBaseline, base, markets, ctx)
	if adj.Probabilities != base.Normalize() {
		t.Errorf("tier 1 = %+v, want %+v", adj.Probabilities, base.Normalize())
	}
	if len(adj.Notes) != 0 {
		t.Errorf("tier 1 notes = %v, want none", adj.Notes)
	}
}

func TestApplyAdjustments_TierTwoOverlay(t *testing.T) {
	markets := models.Markets{
		models.MarketMatchWinner: matchWinner(1.65, 4.20, 4.60),
		models.MarketBTTS:        {{Label: "Yes", Odd: 1.72}, {Label: "No", Odd: 2.05}},
		models.MarketOverUnder25: {{Label: "Over 2.5", Odd: 1.68}, {Label: "Under 2.5", Odd: 2.10}},
	}
	base, _ := ExtractMarketProbabilities(markets)

	adj := ApplyAdjustments(TierOverlay, base, markets, Context{})

	wantNotes := []string{
		"Draw +2.0% – High BTTS yes suggests both score",
		"Home +2.0% – Over 2.5 favours proactive favourite",
		"Away +1.0% – Higher tempo helps underdog goals",
	}
	if !reflect.DeepEqual(adj.Notes, wantNotes) {
		t.Errorf("notes = %q, want %q", adj.Notes, wantNotes)
	}

	want := Distribution{Home: base.Home + 0.02, Draw: base.Draw + 0.02, Away: base.Away + 0.01}.Normalize()
	if math.Abs(adj.Probabilities.Home-want.Home) > eps ||
		math.Abs(adj.Probabilities.Draw-want.Draw) > eps ||
		math.Abs(adj.Probabilities.Away-want.Away) > eps {
		t.Errorf("tier 2 = %+v, want %+v", adj.Probabilities, want)
	}
}

func TestApplyAdjustments_TierTwoDrawNoBetAndDoubleChance(t *testing.T) {
	markets := models.Markets{
		models.MarketMatchWinner:  matchWinner(1.65, 4.2, 4.6),
		models.MarketDoubleChance: {{Label: "1X", Odd: 1.18}, {Label: "12", Odd: 1.25}, {Label: "X2", Odd: 1.45}},
		models.MarketDrawNoBet:    {{Label: "Home", Odd: 1.28}, {Label: "Away", Odd: 3.25}},
	}
	base, _ := ExtractMarketProbabilities(markets)

	adj := ApplyAdjustments(TierOverlay, base, markets, Context{})
	wantNotes := []string{
		"Home +3.0% – Bookmakers protecting home/draw double chance",
		"Away +2.0% – Market respects away resilience",
		"Home +1.5% – Draw No Bet leans home",
	}
	if !reflect.DeepEqual(adj.Notes, wantNotes) {
		t.Errorf("notes = %q, want %q", adj.Notes, wantNotes)
	}

	// One DNB quote only: no DNB rule.
	delete(markets, models.MarketDoubleChance)
	markets[models.MarketDrawNoBet] = []models.MarketQuote{{Label: "Home", Odd: 1.28}}
	adj = ApplyAdjustments(TierOverlay, base, markets, Context{})
	if len(adj.Notes) != 0 {
		t.Errorf("notes with a single DNB quote = %q, want none", adj.Notes)
	}

	// Three DNB quotes: not a two-way market, no DNB rule.
	markets[models.MarketDrawNoBet] = []models.MarketQuote{
		{Label: "Home", Odd: 1.28}, {Label: "Away", Odd: 3.25}, {Label: "Home (Asian)", Odd: 1.3},
	}
	adj = ApplyAdjustments(TierOverlay, base, markets, Context{})
	if len(adj.Notes) != 0 {
		t.Errorf("notes with three DNB quotes = %q, want none", adj.Notes)
	}
}

func TestApplyAdjustments_TierThreeSupersetOfTierTwo(t *testing.T) {
	cases := []models.Markets{
		awayValueMarkets(),
		{
			models.MarketMatchWinner:  matchWinner(1.65, 4.2, 4.6),
			models.MarketBTTS:         {{Label: "Yes", Odd: 1.72}, {Label: "No", Odd: 2.05}},
			models.MarketOverUnder25:  {{Label: "Over 2.5", Odd: 1.68}, {Label: "Under 2.5", Odd: 2.1}},
			models.MarketDoubleChance: {{Label: "1X", Odd: 1.18}, {Label: "X2", Odd: 2.15}},
			models.MarketDrawNoBet:    {{Label: "Home", Odd: 1.28}, {Label: "Away", Odd: 3.25}},
		},
	}
	contexts := []Context{
		{},
		{IsDerby: true, IsMidweek: true, LeagueWeakData: true},
		{FormTrend: Away, CounterVsPress: Away},
		{FormTrend: Home},
	}

	for i, markets := range cases {
		base, ok := ExtractMarketProbabilities(markets)
		if !ok {
			t.Fatalf("case %d: no baseline", i)
		}
		for _, ctx := range contexts {
			tier2 := ApplyAdjustments(TierOverlay, base, markets, ctx)
			tier3 := ApplyAdjustments(TierComprehensive, base, markets, ctx)
			if len(tier3.Notes) < len(tier2.Notes) {
				t.Fatalf("case %d ctx %+v: tier 3 has fewer notes than tier 2", i, ctx)
			}
			if !reflect.DeepEqual(tier3.Notes[:len(tier2.Notes)], tier2.Notes) {
				t.Errorf("case %d ctx %+v: tier 3 notes %q do not start with tier 2 notes %q", i, ctx, tier3.Notes, tier2.Notes)
			}
		}
	}
}

func TestApplyAdjustments_StaysNormalized(t *testing.T) {
	base := Distribution{Home: 0.97, Draw: 0.02, Away: 0.01}
	markets := awayValueMarkets()
	ctxs := []Context{{}, {IsDerby: true, IsMidweek: true, LeagueWeakData: true, FormTrend: Away, CounterVsPress: Away}}

	for _, tier := range []Tier{TierBaseline, TierOverlay, TierComprehensive} {
		for _, ctx := range ctxs {
			adj := ApplyAdjustments(tier, base, markets, ctx)
			p := adj.Probabilities
			if math.Abs(p.Sum()-1) > eps {
				t.Errorf("tier %d sum = %v, want 1", tier, p.Sum())
			}
			if p.Home <= 0 || p.Draw <= 0 || p.Away <= 0 {
				t.Errorf("tier %d has non-positive mass: %+v", tier, p)
			}
		}
	}
}

func TestApplyAdjustments_FloorKeepsMassPositive(t *testing.T) {
	base := Distribution{Home: 0.00001, Draw: 0.5, Away: 0.49999}
	ctx := Context{FormTrend: Away}

	adj := ApplyAdjustments(TierComprehensive, base, models.Markets{}, ctx)
	if adj.Probabilities.Home <= 0 {
		t.Errorf("Home = %v, want > 0", adj.Probabilities.Home)
	}
}

func TestClassifyPick(t *testing.T) {
	base := Distribution{Home: 0.5, Draw: 0.3, Away: 0.2}
	adjusted := Distribution{Home: 0.4, Draw: 0.3, Away: 0.3}

	out := ClassifyPick(Away, base, adjusted, Context{})
	if out.Status != StatusPick {
		t.Errorf("status = %s, want PICK", out.Status)
	}
	if out.FlagThreshold != "Edge 10.00 ≥ 4.89" {
		t.Errorf("flag threshold = %q", out.FlagThreshold)
	}

	out = ClassifyPick(Away, base, adjusted, Context{IsDerby: true})
	if out.Status != StatusFlag || out.FlagThreshold != "Derby safeguard" {
		t.Errorf("derby outcome = %+v, want FLAG Derby safeguard", out)
	}

	out = ClassifyPick(Home, base, base, Context{})
	if out.Status != StatusFlag || out.FlagThreshold != "Edge 0.00 < 4.89" {
		t.Errorf("zero edge outcome = %+v", out)
	}

	out = ClassifyPick(Side("Nobody"), base, adjusted, Context{})
	if out.Status != StatusFlag || out.FlagThreshold != "Missing odds" || out.Edge != nil {
		t.Errorf("undefined edge outcome = %+v", out)
	}
}

func TestClassifyEdge_Boundary(t *testing.T) {
	tests := []struct {
		edge   float64
		status Status
		reason string
	}{
		{4.89, StatusPick, "Edge 4.89 ≥ 4.89"},
		{4.8899, StatusFlag, "Edge 4.89 < 4.89"},
		{-1.234, StatusFlag, "Edge -1.23 < 4.89"},
		{12.5, StatusPick, "Edge 12.50 ≥ 4.89"},
	}

	for _, tt := range tests {
		edge := tt.edge
		out := classifyEdge(&edge)
		if out.Status != tt.status || out.FlagThreshold != tt.reason {
			t.Errorf("classifyEdge(%v) = %s %q, want %s %q", tt.edge, out.Status, out.FlagThreshold, tt.status, tt.reason)
		}
	}
}

func TestAnalyzeFixtures_NoTriggers(t *testing.T) {
	entries := []models.Entry{{
		Fixture: fixture(1, "Allianz Arena", saturday),
		Markets: models.Markets{models.MarketMatchWinner: matchWinner(1.65, 4.20, 4.60)},
	}}

	res := AnalyzeFixtures(entries, nil)
	if len(res.B) != 1 || len(res.C) != 1 || len(res.D) != 1 {
		t.Fatalf("rows = %d/%d/%d, want 1/1/1", len(res.B), len(res.C), len(res.D))
	}

	for _, row := range []Row{res.B[0], res.D[0]} {
		if row.MarketPick != Home || row.FactorPick != Home {
			t.Errorf("mode %s picks = %s/%s, want Home/Home", row.Mode, row.MarketPick, row.FactorPick)
		}
		if row.Outcome.Status != StatusFlag || row.Outcome.FlagThreshold != "Edge 0.00 < 4.89" {
			t.Errorf("mode %s outcome = %+v", row.Mode, row.Outcome)
		}
		if row.TeamFavour != "FC Bayern" {
			t.Errorf("mode %s team favour = %q", row.Mode, row.TeamFavour)
		}
	}
	if res.B[0].Reason != "Market efficiency baseline" {
		t.Errorf("B reason = %q", res.B[0].Reason)
	}
	if res.B[0].ChecklistTag != "Baseline" {
		t.Errorf("B checklist tag = %q, want Baseline", res.B[0].ChecklistTag)
	}
	if res.C[0].Reason != "Fundamental + technical overlay" {
		t.Errorf("C reason = %q", res.C[0].Reason)
	}
	if res.C[0].WinnerModePct != "57.1" || res.C[0].ValueModePct != "57.1" {
		t.Errorf("C winner/value = %s/%s, want 57.1/57.1", res.C[0].WinnerModePct, res.C[0].ValueModePct)
	}
	if res.Picks != 0 || res.Flags != 1 {
		t.Errorf("picks/flags = %d/%d, want 0/1", res.Picks, res.Flags)
	}
}

func TestAnalyzeFixtures_TierThreePick(t *testing.T) {
	entries := []models.Entry{{
		Fixture: fixture(7, "Westfalenstadion", wednesday),
		Markets: awayValueMarkets(),
	}}

	res := AnalyzeFixtures(entries, nil)
	if res.Picks != 1 || res.Flags != 0 {
		t.Fatalf("picks/flags = %d/%d, want 1/0", res.Picks, res.Flags)
	}

	d := res.D[0]
	if d.MarketPick != Home || d.FactorPick != Away {
		t.Errorf("D picks = %s/%s, want Home/Away", d.MarketPick, d.FactorPick)
	}
	if d.Outcome.FlagThreshold != "Edge 5.61 ≥ 4.89" {
		t.Errorf("D flag threshold = %q", d.Outcome.FlagThreshold)
	}
	if d.TeamFavour != "Borussia Dortmund" {
		t.Errorf("D team favour = %q", d.TeamFavour)
	}
	wantReason := "Comprehensive bias + situational filters | " + strings.Join([]string{
		"Away +2.0% – Market respects away resilience",
		"Away +1.5% – Draw No Bet hedges to away",
		"Away +1.0% – Possible midweek rotation",
		"Draw +1.0% – European hangover hedge",
		"Away +2.5% – Form momentum override",
		"Home -2.0% – Downgrade inflated favourite",
		"Away +1.8% – Counter v high press exposure",
	}, " · ")
	if d.Reason != wantReason {
		t.Errorf("D reason = %q\nwant %q", d.Reason, wantReason)
	}
	if d.ChecklistTag != "" {
		t.Errorf("D should carry no checklist tag, got %q", d.ChecklistTag)
	}

	c := res.C[0]
	if c.FactorPick != Away || c.Outcome.Status != StatusFlag {
		t.Errorf("C = %s %s, want Away FLAG", c.FactorPick, c.Outcome.Status)
	}
	if c.WinnerModePct != "36.7" || c.ValueModePct != "37.5" {
		t.Errorf("C winner/value = %s/%s, want 36.7/37.5", c.WinnerModePct, c.ValueModePct)
	}
}

func TestAnalyzeFixtures_DerbyAlwaysFlag(t *testing.T) {
	entries := []models.Entry{{
		Fixture: fixture(7, "Derby della Madonnina", wednesday),
		Markets: awayValueMarkets(),
	}}

	res := AnalyzeFixtures(entries, nil)
	for _, rows := range [][]Row{res.B, res.C, res.D} {
		if rows[0].Outcome.Status != StatusFlag || rows[0].Outcome.FlagThreshold != "Derby safeguard" {
			t.Errorf("mode %s outcome = %+v, want FLAG Derby safeguard", rows[0].Mode, rows[0].Outcome)
		}
	}
	if res.Picks != 0 || res.Flags != 1 {
		t.Errorf("picks/flags = %d/%d, want 0/1", res.Picks, res.Flags)
	}
}

func TestAnalyzeFixtures_SkipsAndFilters(t *testing.T) {
	other := fixture(2, "Arena", saturday)
	other.Home.Name = "Eintracht Frankfurt"
	other.Away.Name = "RB Leipzig"

	entries := []models.Entry{
		{Fixture: fixture(1, "Arena", saturday), Markets: models.Markets{models.MarketMatchWinner: matchWinner(1.65, 4.2, 4.6)}},
		{Fixture: other, Markets: models.Markets{models.MarketMatchWinner: matchWinner(2.55, 3.4, 2.65)}},
		{Fixture: fixture(3, "Arena", saturday), Error: "upstream failed"},
	}

	res := AnalyzeFixtures(entries, nil)
	if res.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (entry without odds skipped)", res.Len())
	}

	res = AnalyzeFixtures(entries, ParseAnalyzeCommand("analyze: rb leipzig vs eintracht"))
	if res.Len() != 1 || res.D[0].FixtureID != 2 {
		t.Errorf("reverse filter rows = %+v, want fixture 2 only", res.D)
	}

	res = AnalyzeFixtures(entries, Filters{"nobody"})
	if res.Len() != 0 || res.Picks+res.Flags != 0 {
		t.Errorf("unmatched filter produced %d rows", res.Len())
	}
}

func TestChecklistTag(t *testing.T) {
	notes := []string{
		"Draw +2.0% – High BTTS yes suggests both score",
		"Home -3.0% – Home bias correction",
		"garbage",
	}
	want := "High BTTS yes suggests both score, Home bias correction"
	if got := checklistTag(notes); got != want {
		t.Errorf("checklistTag() = %q, want %q", got, want)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeB, "b": ModeB, " C ": ModeC, "d": ModeD} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseMode("E"); err == nil {
		t.Errorf("ParseMode(%q) should fail", "E")
	}
}

func TestHeaders(t *testing.T) {
	b, d := Headers(ModeB), Headers(ModeD)
	if len(b) != 10 || b[len(b)-1] != ColChecklistTag {
		t.Errorf("Headers(B) = %v", b)
	}
	if !reflect.DeepEqual(b[:len(b)-1], d) {
		t.Errorf("Headers(D) = %v, want B without checklist tag", d)
	}
	if got := Headers(ModeC); !reflect.DeepEqual(got, []string{"Winner mode %", "Value mode %", "Remark", "Reason"}) {
		t.Errorf("Headers(C) = %v", got)
	}
}

func TestRowValues(t *testing.T) {
	res := AnalyzeFixtures([]models.Entry{{
		Fixture: fixture(1, "Arena", saturday),
		Markets: models.Markets{models.MarketMatchWinner: matchWinner(2, 4, 4)},
	}}, nil)

	got := res.B[0].Values(Headers(ModeB), Formatter{Timezone: "utc", Missing: "—"})
	want := []string{
		"Bundesliga (Germany)",
		"2024-05-18 15:30 UTC",
		"Home",
		"Home",
		"Market efficiency baseline",
		"FC Bayern",
		"50.00%",
		"Edge 0.00 < 4.89",
		"0.00%",
		"Baseline",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %q\nwant %q", got, want)
	}

	got = res.C[0].Values(Headers(ModeC), Formatter{Missing: ""})
	want = []string{"50.0", "50.0", "FLAG", "Fundamental + technical overlay"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("C Values() = %q, want %q", got, want)
	}
}
