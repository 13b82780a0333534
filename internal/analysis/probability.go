package analysis

import (
	"math"
	"strings"

	"github.com/Vodeneev/easepick/internal/pkg/models"
)

// Side is one outcome of the three-way match result market.
type Side string

const (
	Home Side = "Home"
	Draw Side = "Draw"
	Away Side = "Away"
)

// Sides lists outcomes in tie-break order.
var Sides = [3]Side{Home, Draw, Away}

// Distribution holds probabilities for Home/Draw/Away.
type Distribution struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// Get returns the probability of a side, NaN for an unknown side.
func (d Distribution) Get(s Side) float64 {
	switch s {
	case Home:
		return d.Home
	case Draw:
		return d.Draw
	case Away:
		return d.Away
	}
	return math.NaN()
}

func (d Distribution) Sum() float64 {
	return d.Home + d.Draw + d.Away
}

// Normalize scales the values so they sum to 1. A zero sum is returned unchanged.
func (d Distribution) Normalize() Distribution {
	sum := d.Sum()
	if sum == 0 {
		return d
	}
	return Distribution{Home: d.Home / sum, Draw: d.Draw / sum, Away: d.Away / sum}
}

// Argmax returns the most likely side. Ties go to the earlier side in Sides.
func (d Distribution) Argmax() Side {
	best := Home
	for _, s := range Sides[1:] {
		if d.Get(s) > d.Get(best) {
			best = s
		}
	}
	return best
}

// ImpliedProbability converts a decimal odd into 1/odd. Invalid odds report false.
func ImpliedProbability(odd float64) (float64, bool) {
	if !models.IsValidOdd(odd) {
		return 0, false
	}
	return 1 / odd, true
}

// ExtractMarketProbabilities derives the normalized market baseline from the 1X2 market.
// Labels starting with "home" map to Home, "away" to Away, anything else to Draw.
// A later quote for the same side replaces an earlier one.
func ExtractMarketProbabilities(markets models.Markets) (Distribution, bool) {
	quotes, ok := markets[models.MarketMatchWinner]
	if !ok {
		return Distribution{}, false
	}

	var (
		d    Distribution
		seen = map[Side]bool{}
	)
	for _, q := range quotes {
		side := sideFromLabel(q.Label)
		p, valid := ImpliedProbability(q.Odd)
		seen[side] = valid
		switch side {
		case Home:
			d.Home = p
		case Away:
			d.Away = p
		default:
			d.Draw = p
		}
	}
	if !seen[Home] || !seen[Draw] || !seen[Away] {
		return Distribution{}, false
	}
	return d.Normalize(), true
}

func sideFromLabel(label string) Side {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(l, "home"):
		return Home
	case strings.HasPrefix(l, "away"):
		return Away
	default:
		return Draw
	}
}
