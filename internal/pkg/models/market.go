package models

import (
	"math"
	"strings"
)

// MarketKey is the internal name of a bookmaker market.
type MarketKey string

const (
	MarketMatchWinner  MarketKey = "1X2"
	MarketBTTS         MarketKey = "BTTS"
	MarketOverUnder25  MarketKey = "OU25"
	MarketDoubleChance MarketKey = "DC"
	MarketCorrectScore MarketKey = "CS" // display only
	MarketDrawNoBet    MarketKey = "DNB"
)

// AllMarkets lists markets in display order.
var AllMarkets = []MarketKey{
	MarketMatchWinner,
	MarketBTTS,
	MarketOverUnder25,
	MarketDoubleChance,
	MarketCorrectScore,
	MarketDrawNoBet,
}

var marketLabels = map[MarketKey]string{
	MarketMatchWinner:  "Match Result",
	MarketBTTS:         "Both Teams To Score",
	MarketOverUnder25:  "Total Goals 2.5",
	MarketDoubleChance: "Double Chance",
	MarketCorrectScore: "Correct Score",
	MarketDrawNoBet:    "Draw No Bet",
}

// MarketLabel returns a human-readable market name, or the key itself for unknown markets.
func MarketLabel(key MarketKey) string {
	if label, ok := marketLabels[key]; ok {
		return label
	}
	return string(key)
}

// ParseMarketKeys parses a comma-separated market list ("1X2,BTTS").
// Unknown names are ignored; an empty input selects every market.
func ParseMarketKeys(raw string) []MarketKey {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AllMarkets
	}
	var keys []MarketKey
	for _, part := range strings.Split(raw, ",") {
		key := MarketKey(strings.ToUpper(strings.TrimSpace(part)))
		if _, ok := marketLabels[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// MarketQuote is a single selection of a market with its decimal odd.
type MarketQuote struct {
	Label string  `json:"label"`
	Odd   float64 `json:"odd"`
}

// Markets groups quotes by market key for one fixture.
type Markets map[MarketKey][]MarketQuote

// IsValidOdd reports whether a decimal odd can be priced (finite and above 1).
func IsValidOdd(odd float64) bool {
	return odd > 1 && !math.IsInf(odd, 1)
}

// Find returns the first quote of the market whose label satisfies match.
func (m Markets) Find(key MarketKey, match func(label string) bool) (MarketQuote, bool) {
	for _, q := range m[key] {
		if match(q.Label) {
			return q, true
		}
	}
	return MarketQuote{}, false
}

// Odd returns the odd of the first matching quote. Invalid odds are reported as absent.
func (m Markets) Odd(key MarketKey, match func(label string) bool) (float64, bool) {
	q, ok := m.Find(key, match)
	if !ok || !IsValidOdd(q.Odd) {
		return 0, false
	}
	return q.Odd, true
}

// LabelContains matches labels containing sub, case-insensitively.
func LabelContains(sub string) func(string) bool {
	sub = strings.ToLower(sub)
	return func(label string) bool {
		return strings.Contains(strings.ToLower(label), sub)
	}
}

// LabelEquals matches labels exactly.
func LabelEquals(want string) func(string) bool {
	return func(label string) bool {
		return label == want
	}
}
