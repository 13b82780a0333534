// Package provider defines the source of fixtures and odds and the batch loader on top of it.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Vodeneev/easepick/internal/pkg/models"
)

// ErrUpstream marks failures reported by the odds provider itself.
var ErrUpstream = errors.New("upstream error")

// StatusError is a non-success HTTP response from the provider.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("Request failed: %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUpstream }

// Query selects the fixtures to load. Zero values are omitted from the request.
type Query struct {
	Date   string `json:"date" yaml:"date"` // YYYY-MM-DD
	League int    `json:"league" yaml:"league"`
	Season int    `json:"season" yaml:"season"`
}

const dateLayout = "2006-01-02"

// Validate checks the query fields that the provider would otherwise reject.
func (q Query) Validate() error {
	if q.Date != "" {
		if _, err := time.Parse(dateLayout, q.Date); err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", q.Date)
		}
	}
	if q.League < 0 {
		return fmt.Errorf("invalid league %d", q.League)
	}
	if q.Season < 0 {
		return fmt.Errorf("invalid season %d", q.Season)
	}
	return nil
}

// Params returns the non-empty query fields as request parameters.
func (q Query) Params() map[string]string {
	params := map[string]string{}
	if q.Date != "" {
		params["date"] = q.Date
	}
	if q.League > 0 {
		params["league"] = strconv.Itoa(q.League)
	}
	if q.Season > 0 {
		params["season"] = strconv.Itoa(q.Season)
	}
	return params
}

// Provider is a source of fixtures and odds.
type Provider interface {
	// Name identifies the provider in logs and diagnostics.
	Name() string
	Fixtures(ctx context.Context, q Query) ([]models.Fixture, error)
	Odds(ctx context.Context, fixtureID int64) (models.Markets, error)
	// LeagueLogo returns the logo URL of a league, or "" when unknown.
	LeagueLogo(ctx context.Context, league models.League) string
}
