// Package apifootball is the live provider backed by the API-Football v3 REST API.
package apifootball

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/time/rate"

	"github.com/Vodeneev/easepick/internal/pkg/metrics"
	"github.com/Vodeneev/easepick/internal/pkg/models"
	"github.com/Vodeneev/easepick/internal/provider"
)

const (
	// DefaultHost is the API-Football base URL.
	DefaultHost = "https://v3.football.api-sports.io"
	// DefaultBookmaker is Bet365.
	DefaultBookmaker = 8

	rapidAPIHost = "v3.football.api-sports.io"

	defaultRateLimit = 5.0 // requests per second
	defaultBurst     = 5
	maxErrorBody     = 4 << 10
)

// Client is an API-Football client.
type Client struct {
	host        string
	apiKey      string
	rapidAPIKey string
	bookmaker   int
	httpClient  *http.Client
	limiter     *rate.Limiter
	metrics     *metrics.Metrics
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHost sets a custom base URL.
func WithHost(host string) ClientOption {
	return func(c *Client) {
		if host = strings.TrimSuffix(strings.TrimSpace(host), "/"); host != "" {
			c.host = host
		}
	}
}

// WithRapidAPIKey routes requests through the RapidAPI gateway headers.
func WithRapidAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.rapidAPIKey = strings.TrimSpace(key)
	}
}

// WithBookmaker selects the bookmaker whose odds are requested.
func WithBookmaker(id int) ClientOption {
	return func(c *Client) {
		if id > 0 {
			c.bookmaker = id
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new API-Football client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		host:      DefaultHost,
		apiKey:    strings.TrimSpace(apiKey),
		bookmaker: DefaultBookmaker,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Name() string { return "api-football" }

// Fixtures fetches the fixtures matching q.
func (c *Client) Fixtures(ctx context.Context, q provider.Query) ([]models.Fixture, error) {
	params := url.Values{}
	for k, v := range q.Params() {
		params.Set(k, v)
	}

	var env envelope[fixtureItem]
	if err := c.get(ctx, "/fixtures", params, &env); err != nil {
		return nil, err
	}

	fixtures := make([]models.Fixture, 0, len(env.Response))
	for _, item := range env.Response {
		fixtures = append(fixtures, models.Fixture{
			ID:   item.Fixture.ID,
			Date: item.Fixture.Date,
			Venue: models.Venue{
				Name: item.Fixture.Venue.Name,
				City: item.Fixture.Venue.City,
			},
			League: models.League{
				ID:      item.League.ID,
				Name:    item.League.Name,
				Country: item.League.Country,
				Logo:    item.League.Logo,
				Season:  item.League.Season,
			},
			Home: models.Team{ID: item.Teams.Home.ID, Name: item.Teams.Home.Name},
			Away: models.Team{ID: item.Teams.Away.ID, Name: item.Teams.Away.Name},
		})
	}
	return fixtures, nil
}

// Odds fetches and maps the odds of one fixture for the configured bookmaker.
func (c *Client) Odds(ctx context.Context, fixtureID int64) (models.Markets, error) {
	params := url.Values{}
	params.Set("fixture", strconv.FormatInt(fixtureID, 10))
	params.Set("bookmaker", strconv.Itoa(c.bookmaker))

	var env envelope[OddsItem]
	if err := c.get(ctx, "/odds", params, &env); err != nil {
		return nil, err
	}
	return MapOddsResponse(env.Response), nil
}

// LeagueLogo returns the league logo, looking it up when the league carries none.
// Lookup failures are logged and reported as "".
func (c *Client) LeagueLogo(ctx context.Context, league models.League) string {
	if league.Logo != "" {
		return league.Logo
	}
	if league.ID == 0 {
		return ""
	}

	params := url.Values{}
	params.Set("id", strconv.Itoa(league.ID))

	var env envelope[leagueItem]
	if err := c.get(ctx, "/leagues", params, &env); err != nil {
		slog.Debug("League logo lookup failed", "league_id", league.ID, "error", err)
		return ""
	}
	if len(env.Response) == 0 {
		return ""
	}
	return env.Response[0].League.Logo
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.host + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRequest(path, "error", time.Since(start))
		return fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordRequest(path, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readBodyDecode(resp)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &provider.StatusError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	body, err := readBodyDecode(resp)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var probe struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if msgs := apiErrors(probe.Errors); len(msgs) > 0 {
		return fmt.Errorf("%w: %s", provider.ErrUpstream, strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br, zstd")
	req.Header.Set("x-apisports-key", c.apiKey)
	if c.rapidAPIKey != "" {
		req.Header.Set("x-rapidapi-key", c.rapidAPIKey)
		req.Header.Set("x-rapidapi-host", rapidAPIHost)
	}
}

// readBodyDecode reads response body and decompresses it based on Content-Encoding (gzip, br, zstd).
func readBodyDecode(resp *http.Response) ([]byte, error) {
	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch {
	case enc == "br":
		return io.ReadAll(brotli.NewReader(resp.Body))
	case enc == "zstd":
		r, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case enc == "gzip":
		r, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read gzip body: %w", err)
		}
		return b, nil
	default:
		return io.ReadAll(resp.Body)
	}
}
