package models

import (
	"strconv"
	"strings"
	"time"
)

// Fixture is a scheduled football match as returned by the provider.
type Fixture struct {
	ID     int64     `json:"id"`
	Date   time.Time `json:"date"`
	Venue  Venue     `json:"venue"`
	League League    `json:"league"`
	Home   Team      `json:"home"`
	Away   Team      `json:"away"`
}

type Venue struct {
	Name string `json:"name"`
	City string `json:"city"`
}

type League struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Logo    string `json:"logo"`
	Season  int    `json:"season"`
}

type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Entry is a fixture together with its mapped markets.
// Error is set when odds could not be fetched; Markets is empty in that case.
type Entry struct {
	Fixture Fixture `json:"fixture"`
	Markets Markets `json:"markets"`
	Error   string  `json:"error,omitempty"`
}

// LeagueTitle renders "Name (Country)", falling back to "League" when the name is empty.
func (f Fixture) LeagueTitle() string {
	name := f.League.Name
	if name == "" {
		name = "League"
	}
	if f.League.Country == "" {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(name + " (" + f.League.Country + ")")
}

// Slug returns the normalized "home vs away" matchup.
func (f Fixture) Slug() string {
	return normalizeKeyPart(f.Home.Name) + " vs " + normalizeKeyPart(f.Away.Name)
}

// ReverseSlug returns the normalized "away vs home" matchup.
func (f Fixture) ReverseSlug() string {
	return normalizeKeyPart(f.Away.Name) + " vs " + normalizeKeyPart(f.Home.Name)
}

// MatchKey builds a stable identifier for journaling a fixture.
// Format: id|home|away|time
func (f Fixture) MatchKey() string {
	ts := "unknown-time"
	if !f.Date.IsZero() {
		ts = f.Date.UTC().Format(time.RFC3339)
	}
	return strings.Join([]string{
		strconv.FormatInt(f.ID, 10),
		normalizeKeyPart(f.Home.Name),
		normalizeKeyPart(f.Away.Name),
		ts,
	}, "|")
}

func normalizeKeyPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "|", " ")
	return strings.Join(strings.Fields(s), " ")
}
