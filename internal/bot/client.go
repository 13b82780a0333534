package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Vodeneev/easepick/internal/analysis"
	"github.com/Vodeneev/easepick/internal/pkg/storage"
)

// Client calls the analyzer HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError is an error response of the analyzer.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("analyzer service returned status %d", e.StatusCode)
}

type Summary struct {
	Loaded   bool   `json:"loaded"`
	Provider string `json:"provider"`
	Command  string `json:"command"`
	Fixtures int    `json:"fixtures"`
	Analysed int    `json:"analysed"`
	Picks    int    `json:"picks"`
	Flags    int    `json:"flags"`
	Banner   string `json:"banner"`
}

type LoadResult struct {
	Message      string `json:"message"`
	Fixtures     int    `json:"fixtures"`
	OddsFailures int    `json:"odds_failures"`
	Picks        int    `json:"picks"`
	Flags        int    `json:"flags"`
}

type FiltersResult struct {
	Filters  analysis.Filters `json:"filters"`
	Analysed int              `json:"analysed"`
	Picks    int              `json:"picks"`
	Flags    int              `json:"flags"`
}

func (c *Client) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := c.do(ctx, http.MethodGet, "/api/v1/summary", nil, &s)
	return s, err
}

// Load loads the fixtures of date; an empty date means today on the analyzer.
func (c *Client) Load(ctx context.Context, date string) (LoadResult, error) {
	var res LoadResult
	err := c.do(ctx, http.MethodPost, "/api/v1/load", map[string]string{"date": date}, &res)
	return res, err
}

// ApplyFilters replaces the analyzer filters without debouncing.
func (c *Client) ApplyFilters(ctx context.Context, command string) (FiltersResult, error) {
	var res FiltersResult
	body := map[string]any{"command": command, "immediate": true}
	err := c.do(ctx, http.MethodPut, "/api/v1/filters", body, &res)
	return res, err
}

// AnalysisSummary returns the text summary of a mode, or "" when there are no rows.
func (c *Client) AnalysisSummary(ctx context.Context, mode analysis.Mode) (string, error) {
	var text string
	err := c.do(ctx, http.MethodGet, "/api/v1/analysis/summary?mode="+url.QueryEscape(string(mode)), nil, &text)
	return text, err
}

func (c *Client) RecentPicks(ctx context.Context, limit int) ([]storage.PickRecord, error) {
	var res struct {
		Picks []storage.PickRecord `json:"picks"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/journal?limit="+strconv.Itoa(limit), nil, &res)
	return res.Picks, err
}

// do sends a JSON request. A *string result receives the raw body.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to analyzer service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var errResp map[string]string
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(data, &errResp) == nil {
			apiErr.Message = errResp["error"]
		}
		return apiErr
	}

	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}
	if text, ok := result.(*string); ok {
		*text = string(data)
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
