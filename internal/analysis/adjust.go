package analysis

import (
	"fmt"
	"math"

	"github.com/Vodeneev/easepick/internal/pkg/models"
)

// Tier selects how many heuristic layers are applied on top of the market baseline.
type Tier int

const (
	TierBaseline      Tier = 1 // market efficiency baseline
	TierOverlay       Tier = 2 // secondary markets
	TierComprehensive Tier = 3 // secondary markets + situational context
)

const probabilityFloor = 0.0001

// Adjustment is a tier's adjusted distribution with the notes in application order.
type Adjustment struct {
	Probabilities Distribution `json:"probabilities"`
	Notes         []string     `json:"notes"`
}

// secondaryOdds are the non-1X2 quotes the rules look at. Zero means absent.
type secondaryOdds struct {
	bttsYes, bttsNo  float64
	over, under      float64
	dc1X, dcX2       float64
	dnbHome, dnbAway float64
}

func readSecondaryOdds(m models.Markets) secondaryOdds {
	var o secondaryOdds
	o.bttsYes, _ = m.Odd(models.MarketBTTS, models.LabelContains("yes"))
	o.bttsNo, _ = m.Odd(models.MarketBTTS, models.LabelContains("no"))
	o.over, _ = m.Odd(models.MarketOverUnder25, models.LabelContains("over"))
	o.under, _ = m.Odd(models.MarketOverUnder25, models.LabelContains("under"))
	o.dc1X, _ = m.Odd(models.MarketDoubleChance, models.LabelEquals("1X"))
	o.dcX2, _ = m.Odd(models.MarketDoubleChance, models.LabelEquals("X2"))
	// Draw no bet is read only as a two-way market.
	if len(m[models.MarketDrawNoBet]) == 2 {
		o.dnbHome, _ = m.Odd(models.MarketDrawNoBet, models.LabelContains("home"))
		o.dnbAway, _ = m.Odd(models.MarketDrawNoBet, models.LabelContains("away"))
	}
	return o
}

type adjuster struct {
	deltas map[Side]float64
	notes  []string
}

func (a *adjuster) boost(side Side, value float64, reason string) {
	a.deltas[side] += value
	a.notes = append(a.notes, fmt.Sprintf("%s %+.1f%% – %s", side, value*100, reason))
}

// ApplyAdjustments runs the rules of the given tier against the base distribution.
// Every tier starts from base; tier 3 evaluates all tier 2 rules first, so its notes
// always begin with tier 2's notes.
func ApplyAdjustments(tier Tier, base Distribution, markets models.Markets, ctx Context) Adjustment {
	a := &adjuster{deltas: map[Side]float64{}}
	odds := readSecondaryOdds(markets)

	if tier >= TierOverlay {
		overlayRules(a, odds)
	}
	if tier >= TierComprehensive {
		situationalRules(a, base, odds, ctx)
	}

	adjusted := Distribution{
		Home: math.Max(base.Home+a.deltas[Home], probabilityFloor),
		Draw: math.Max(base.Draw+a.deltas[Draw], probabilityFloor),
		Away: math.Max(base.Away+a.deltas[Away], probabilityFloor),
	}
	notes := a.notes
	if notes == nil {
		notes = []string{}
	}
	return Adjustment{Probabilities: adjusted.Normalize(), Notes: notes}
}

func overlayRules(a *adjuster, o secondaryOdds) {
	if o.bttsYes > 0 && o.bttsYes < 1.75 {
		a.boost(Draw, 0.02, "High BTTS yes suggests both score")
	}
	if o.over > 0 && o.under > 0 && o.over < o.under {
		a.boost(Home, 0.02, "Over 2.5 favours proactive favourite")
		a.boost(Away, 0.01, "Higher tempo helps underdog goals")
	}
	if o.dc1X > 0 && o.dc1X < 1.4 {
		a.boost(Home, 0.03, "Bookmakers protecting home/draw double chance")
	}
	if o.dcX2 > 0 && o.dcX2 < 1.5 {
		a.boost(Away, 0.02, "Market respects away resilience")
	}
	if o.dnbHome > 0 && o.dnbAway > 0 {
		switch {
		case o.dnbHome < o.dnbAway:
			a.boost(Home, 0.015, "Draw No Bet leans home")
		case o.dnbAway < o.dnbHome:
			a.boost(Away, 0.015, "Draw No Bet hedges to away")
		}
	}
}

func situationalRules(a *adjuster, base Distribution, o secondaryOdds, ctx Context) {
	if ctx.IsDerby {
		a.boost(Draw, 0.015, "Derby volatility")
	}
	if base.Home > 0.62 {
		a.boost(Home, -0.03, "Home bias correction")
	}
	if base.Away > 0.5 {
		a.boost(Away, -0.02, "Away block adjustment")
	}
	if ctx.IsMidweek {
		a.boost(Away, 0.01, "Possible midweek rotation")
		a.boost(Draw, 0.01, "European hangover hedge")
	}
	if ctx.LeagueWeakData {
		a.boost(Draw, 0.015, "Weak data league precaution")
	}
	if o.over > 0 && o.under > 0 && o.under < o.over {
		a.boost(Draw, 0.018, "Low score undervaluation")
	}
	if o.bttsYes > 0 && o.bttsNo > 0 && o.bttsNo < o.bttsYes {
		a.boost(Away, 0.012, "BTTS No suits counter approach")
	}
	if o.dcX2 > 0 && o.dcX2 < 1.65 && base.Home > 0.45 {
		a.boost(Home, -0.02, "Reverse upset trap")
	}
	switch ctx.FormTrend {
	case Away:
		a.boost(Away, 0.025, "Form momentum override")
		a.boost(Home, -0.02, "Downgrade inflated favourite")
	case Home:
		a.boost(Home, 0.02, "Positive home form trend")
	}
	if ctx.CounterVsPress == Away {
		a.boost(Away, 0.018, "Counter v high press exposure")
	}
}
