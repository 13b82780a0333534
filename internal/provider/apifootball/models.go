package apifootball

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// envelope is the common API-Football response wrapper.
// errors is [] on success and an object or a non-empty array on failure.
type envelope[T any] struct {
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response []T             `json:"response"`
}

type fixtureItem struct {
	Fixture struct {
		ID    int64     `json:"id"`
		Date  time.Time `json:"date"`
		Venue struct {
			Name string `json:"name"`
			City string `json:"city"`
		} `json:"venue"`
	} `json:"fixture"`
	League struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Country string `json:"country"`
		Logo    string `json:"logo"`
		Season  int    `json:"season"`
	} `json:"league"`
	Teams struct {
		Home teamItem `json:"home"`
		Away teamItem `json:"away"`
	} `json:"teams"`
}

type teamItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// OddsItem is one entry of the /odds response.
type OddsItem struct {
	Fixture struct {
		ID int64 `json:"id"`
	} `json:"fixture"`
	Bookmakers []Bookmaker `json:"bookmakers"`
}

type Bookmaker struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Bets []Bet  `json:"bets"`
}

type Bet struct {
	ID     int        `json:"id"`
	Name   string     `json:"name"`
	Values []BetValue `json:"values"`
}

// BetValue is a single selection. The API sends odd as a string and handicap
// as a string, a number or null depending on the market.
type BetValue struct {
	Value    flexString `json:"value"`
	Odd      flexString `json:"odd"`
	Handicap flexString `json:"handicap"`
}

type leagueItem struct {
	League struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Logo string `json:"logo"`
	} `json:"league"`
}

// flexString accepts a JSON string, number or null.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

func (s flexString) String() string {
	return strings.TrimSpace(string(s))
}

// apiErrors extracts messages from the errors field.
func apiErrors(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var obj map[string]string
	if err := json.Unmarshal(raw, &obj); err == nil {
		msgs := make([]string, 0, len(obj))
		for k, v := range obj {
			msgs = append(msgs, k+": "+v)
		}
		sort.Strings(msgs)
		return msgs
	}
	return []string{string(raw)}
}
