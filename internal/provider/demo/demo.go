// Package demo is an offline provider serving two canned Bundesliga fixtures.
package demo

import (
	"context"
	"time"

	"github.com/Vodeneev/easepick/internal/pkg/models"
	"github.com/Vodeneev/easepick/internal/provider"
)

// BundesligaLogo is returned for every league logo lookup.
const BundesligaLogo = "https://media.api-sports.io/football/leagues/78.png"

// Provider serves fixed fixtures and odds regardless of the query.
type Provider struct {
	now func() time.Time
}

// Option configures the demo provider.
type Option func(*Provider)

// WithClock sets the clock used for kickoff times.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

func New(opts ...Option) *Provider {
	p := &Provider{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return "demo" }

// Fixtures returns the two demo fixtures: one kicking off now and one in two hours.
func (p *Provider) Fixtures(ctx context.Context, q provider.Query) ([]models.Fixture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := p.now().UTC().Truncate(time.Second)
	league := models.League{
		ID:      78,
		Name:    "Bundesliga",
		Country: "Germany",
		Logo:    BundesligaLogo,
	}
	return []models.Fixture{
		{
			ID:     12345,
			Date:   now,
			Venue:  models.Venue{Name: "Allianz Arena", City: "Munich"},
			League: league,
			Home:   models.Team{ID: 157, Name: "FC Bayern"},
			Away:   models.Team{ID: 165, Name: "Borussia Dortmund"},
		},
		{
			ID:     12346,
			Date:   now.Add(2 * time.Hour),
			Venue:  models.Venue{Name: "Deutsche Bank Park", City: "Frankfurt"},
			League: league,
			Home:   models.Team{ID: 169, Name: "Eintracht Frankfurt"},
			Away:   models.Team{ID: 172, Name: "RB Leipzig"},
		},
	}, nil
}

// Odds returns the canned markets of a demo fixture, or empty markets for any other id.
func (p *Provider) Odds(ctx context.Context, fixtureID int64) (models.Markets, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	markets := models.Markets{}
	for key, quotes := range cannedOdds[fixtureID] {
		markets[key] = append([]models.MarketQuote(nil), quotes...)
	}
	return markets, nil
}

func (p *Provider) LeagueLogo(ctx context.Context, league models.League) string {
	if league.Logo != "" {
		return league.Logo
	}
	if league.ID == 0 {
		return ""
	}
	return BundesligaLogo
}

var cannedOdds = map[int64]models.Markets{
	12345: {
		models.MarketMatchWinner: {
			{Label: "Home", Odd: 1.65},
			{Label: "Draw", Odd: 4.2},
			{Label: "Away", Odd: 4.6},
		},
		models.MarketBTTS: {
			{Label: "Yes", Odd: 1.72},
			{Label: "No", Odd: 2.05},
		},
		models.MarketOverUnder25: {
			{Label: "Over 2.5", Odd: 1.68},
			{Label: "Under 2.5", Odd: 2.1},
		},
		models.MarketDoubleChance: {
			{Label: "1X", Odd: 1.18},
			{Label: "12", Odd: 1.25},
			{Label: "X2", Odd: 2.15},
		},
		models.MarketCorrectScore: {
			{Label: "2-1", Odd: 8.5},
			{Label: "3-1", Odd: 12},
			{Label: "1-1", Odd: 9.5},
			{Label: "2-2", Odd: 13},
			{Label: "1-0", Odd: 11},
		},
		models.MarketDrawNoBet: {
			{Label: "Home", Odd: 1.28},
			{Label: "Away", Odd: 3.25},
		},
	},
	12346: {
		models.MarketMatchWinner: {
			{Label: "Home", Odd: 2.55},
			{Label: "Draw", Odd: 3.4},
			{Label: "Away", Odd: 2.65},
		},
		models.MarketBTTS: {
			{Label: "Yes", Odd: 1.65},
			{Label: "No", Odd: 2.2},
		},
		models.MarketOverUnder25: {
			{Label: "Over 2.5", Odd: 1.78},
			{Label: "Under 2.5", Odd: 1.98},
		},
		models.MarketDoubleChance: {
			{Label: "1X", Odd: 1.52},
			{Label: "12", Odd: 1.35},
			{Label: "X2", Odd: 1.5},
		},
		models.MarketCorrectScore: {
			{Label: "2-2", Odd: 12},
			{Label: "1-1", Odd: 7.5},
			{Label: "2-1", Odd: 9.5},
			{Label: "1-2", Odd: 10.5},
			{Label: "0-1", Odd: 11.5},
		},
		models.MarketDrawNoBet: {
			{Label: "Home", Odd: 1.85},
			{Label: "Away", Odd: 1.87},
		},
	},
}
