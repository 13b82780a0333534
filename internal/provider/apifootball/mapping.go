package apifootball

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/easepick/internal/pkg/models"
)

const overUnderLine = "2.5"

// betMarkets maps bookmaker bet names to market keys.
var betMarkets = map[string]models.MarketKey{
	"Match Winner":        models.MarketMatchWinner,
	"Both Teams To Score": models.MarketBTTS,
	"Goals Over/Under":    models.MarketOverUnder25,
	"Double Chance":       models.MarketDoubleChance,
	"Correct Score":       models.MarketCorrectScore,
	"Draw No Bet":         models.MarketDrawNoBet,
}

// MapOddsResponse converts the bets of the first odds item into markets.
// Unknown bets are ignored; selections with a non-numeric odd are dropped.
// A later bookmaker overrides an earlier one for the same market.
func MapOddsResponse(items []OddsItem) models.Markets {
	markets := models.Markets{}
	if len(items) == 0 {
		return markets
	}

	for _, bm := range items[0].Bookmakers {
		for _, bet := range bm.Bets {
			key, ok := betMarkets[strings.TrimSpace(bet.Name)]
			if !ok {
				continue
			}
			if key == models.MarketOverUnder25 {
				if quotes := mapOverUnder(bet.Values); quotes != nil {
					markets[key] = quotes
				}
				continue
			}

			var quotes []models.MarketQuote
			for _, v := range bet.Values {
				label := v.Value.String()
				if h := v.Handicap.String(); h != "" {
					label = strings.TrimSpace(label + " " + h)
				}
				odd, ok := parseOdd(v.Odd.String())
				if label == "" || !ok {
					continue
				}
				quotes = append(quotes, models.MarketQuote{Label: label, Odd: odd})
			}
			if len(quotes) > 0 {
				markets[key] = quotes
			}
		}
	}
	return markets
}

// mapOverUnder keeps only the 2.5 line, and only when both sides are quoted.
// The line comes either as handicap "2.5" or as a value like "Over 2.5".
func mapOverUnder(values []BetValue) []models.MarketQuote {
	var over, under *models.MarketQuote
	for _, v := range values {
		selection := strings.ToLower(v.Value.String())
		handicap := v.Handicap.String()
		if handicap != overUnderLine && !strings.HasSuffix(selection, " "+overUnderLine) {
			continue
		}
		odd, ok := parseOdd(v.Odd.String())
		if !ok {
			continue
		}
		label := strings.TrimSpace(v.Value.String() + " " + handicap)
		q := &models.MarketQuote{Label: label, Odd: odd}
		switch {
		case over == nil && strings.Contains(selection, "over"):
			over = q
		case under == nil && strings.Contains(selection, "under"):
			under = q
		}
	}
	if over == nil || under == nil {
		return nil
	}
	return []models.MarketQuote{*over, *under}
}

func parseOdd(raw string) (float64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}
