package analysis

import (
	"math"
	"strings"
	"time"

	"github.com/Vodeneev/easepick/internal/pkg/models"
)

const (
	formTrendGap      = 0.15
	counterBTTSYesOdd = 1.8
	counterOverOdd    = 1.85
	comparePrecision  = 1e9
)

var derbyKeywords = []string{"derby", "clasico", "classic", "rivalry"}

// Low-liquidity leagues where the market is less informative.
var weakDataLeagues = map[int]struct{}{
	239: {},
	253: {},
	272: {},
	302: {},
}

// Context holds situational signals derived once per fixture.
// FormTrend and CounterVsPress are empty when no signal fired.
type Context struct {
	IsDerby        bool `json:"is_derby"`
	IsMidweek      bool `json:"is_midweek"`
	LeagueWeakData bool `json:"league_weak_data"`
	FormTrend      Side `json:"form_trend,omitempty"`
	CounterVsPress Side `json:"counter_vs_press,omitempty"`
}

// IsDerby reports whether the venue name carries a rivalry keyword.
func IsDerby(f models.Fixture) bool {
	venue := strings.ToLower(f.Venue.Name)
	for _, word := range derbyKeywords {
		if strings.Contains(venue, word) {
			return true
		}
	}
	return false
}

// DeriveContext computes the situational signals for a fixture.
func DeriveContext(f models.Fixture, markets models.Markets) Context {
	return Context{
		IsDerby:        IsDerby(f),
		IsMidweek:      isMidweek(f.Date),
		LeagueWeakData: isWeakDataLeague(f.League.ID),
		FormTrend:      deriveFormTrend(markets),
		CounterVsPress: deriveCounterPress(markets),
	}
}

func isMidweek(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	switch t.UTC().Weekday() {
	case time.Tuesday, time.Wednesday, time.Thursday:
		return true
	}
	return false
}

func isWeakDataLeague(id int) bool {
	_, ok := weakDataLeagues[id]
	return ok
}

// deriveFormTrend compares double chance 1X against X2.
// The side whose double chance is at least 0.15 cheaper carries the trend.
func deriveFormTrend(markets models.Markets) Side {
	oneX, ok1 := markets.Odd(models.MarketDoubleChance, models.LabelEquals("1X"))
	xTwo, ok2 := markets.Odd(models.MarketDoubleChance, models.LabelEquals("X2"))
	if !ok1 || !ok2 {
		return ""
	}
	switch {
	case roundGap(oneX-xTwo) >= formTrendGap:
		return Away
	case roundGap(xTwo-oneX) >= formTrendGap:
		return Home
	}
	return ""
}

func deriveCounterPress(markets models.Markets) Side {
	yes, ok1 := markets.Odd(models.MarketBTTS, models.LabelContains("yes"))
	over, ok2 := markets.Odd(models.MarketOverUnder25, models.LabelContains("over"))
	if ok1 && ok2 && yes > counterBTTSYesOdd && over > counterOverOdd {
		return Away
	}
	return ""
}

// roundGap drops float noise so that 1.65-1.50 compares equal to 0.15.
func roundGap(v float64) float64 {
	return math.Round(v*comparePrecision) / comparePrecision
}
