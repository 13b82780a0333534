// Package format renders probabilities, odds and kickoff times for tables, CSV and summaries.
package format

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Missing is shown in tables and summaries for absent values.
const Missing = "—"

const (
	utcLayout   = "2006-01-02 15:04 UTC"
	localLayout = "2006-01-02 15:04"
)

// Percentage renders a probability in [0,1] as "57.24%".
func Percentage(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return Missing
	}
	return decimal.NewFromFloat(p).Shift(2).StringFixed(2) + "%"
}

// PercentagePtr is Percentage for optional values.
func PercentagePtr(p *float64) string {
	if p == nil {
		return Missing
	}
	return Percentage(*p)
}

// Odd renders a decimal odd with two decimals.
func Odd(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return Missing
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Edge renders an edge in percentage points as "5.12%".
func Edge(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// DateTime renders a kickoff time. tz is "utc" (default), "local", or an IANA zone name;
// unknown zones fall back to UTC.
func DateTime(t time.Time, tz string) string {
	if t.IsZero() {
		return ""
	}
	switch tz = strings.TrimSpace(tz); strings.ToLower(tz) {
	case "", "utc":
		return t.UTC().Format(utcLayout)
	case "local":
		return t.Local().Format(localLayout)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return t.UTC().Format(utcLayout)
	}
	return t.In(loc).Format(localLayout)
}

// ValidTimezone reports whether DateTime understands tz without falling back.
func ValidTimezone(tz string) bool {
	switch strings.ToLower(strings.TrimSpace(tz)) {
	case "", "utc", "local":
		return true
	}
	_, err := time.LoadLocation(strings.TrimSpace(tz))
	return err == nil
}
