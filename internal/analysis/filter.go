package analysis

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Vodeneev/easepick/internal/pkg/models"
)

const analyzePrefix = "analyze:"

// Filters is a list of normalized matchup fragments ("team a vs team b").
// An empty list matches every fixture.
type Filters []string

// ParseAnalyzeCommand parses "analyze:Team A vs Team B, Team C vs Team D".
// Input without the prefix yields an empty list; it never fails.
func ParseAnalyzeCommand(command string) Filters {
	normalized := strings.ToLower(strings.TrimSpace(command))
	rest, ok := strings.CutPrefix(normalized, analyzePrefix)
	if !ok {
		return Filters{}
	}

	filters := Filters{}
	for _, part := range strings.Split(rest, ",") {
		part = strings.Join(strings.Fields(part), " ")
		if part != "" {
			filters = append(filters, part)
		}
	}
	return filters
}

// Match reports whether any filter is a substring of "home vs away" or "away vs home".
func (fs Filters) Match(f models.Fixture) bool {
	if len(fs) == 0 {
		return true
	}
	slug := foldAccents(f.Slug())
	rev := foldAccents(f.ReverseSlug())
	for _, filter := range fs {
		filter = foldAccents(filter)
		if strings.Contains(slug, filter) || strings.Contains(rev, filter) {
			return true
		}
	}
	return false
}

// foldAccents lowercases and strips diacritics, so "atlético" matches "atletico".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}
