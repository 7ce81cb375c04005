// Package websearch fetches a few web results to ground an LLM reply.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/acgn-assistant/acgn-assistant/pkg/config"
)

const (
	SerperURL = "https://google.serper.dev/search"

	contextHeader   = "【联网搜索结果（仅供参考）】"
	contextMaxRunes = 1800
)

// ErrMissingAPIKey is returned by a provider created without a key
var ErrMissingAPIKey = errors.New("WEB_SEARCH_API_KEY 未配置")

// Result is one organic search hit
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher runs a query against a search provider
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}

// NewFromConfig returns the configured provider, or nil when web search is
// not configured.
func NewFromConfig(cfg *config.Config) Searcher {
	if !cfg.WebSearchConfigured() {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.WebSearchProvider)) {
	case "serper":
		return NewSerper(cfg.WebSearchAPIKey, cfg.WebSearchTimeout())
	default:
		return nil
	}
}

// Serper queries google.serper.dev
type Serper struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewSerper creates a Serper client with the given request timeout
func NewSerper(apiKey string, timeout time.Duration) *Serper {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Serper{
		apiKey:   strings.TrimSpace(apiKey),
		endpoint: SerperURL,
		client:   &http.Client{Timeout: timeout},
	}
}

// WithEndpoint points the client at another URL
func (s *Serper) WithEndpoint(endpoint string) *Serper {
	s.endpoint = endpoint
	return s
}

func (s *Serper) Name() string { return "serper" }

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search returns up to limit organic results. Whitespace in the query is
// collapsed and an empty query returns nothing without calling the API.
func (s *Serper) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	query = NormalizeQuery(query)
	if query == "" {
		return nil, nil
	}
	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	limit = clamp(limit, 1, 10)

	body, err := json.Marshal(map[string]interface{}{"q": query, "num": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("serper returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var data serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode serper response: %w", err)
	}

	results := make([]Result, 0, limit)
	for _, item := range data.Organic {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}
		results = append(results, Result{Title: title, URL: link, Snippet: strings.TrimSpace(item.Snippet)})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// NormalizeQuery collapses runs of whitespace and trims the query
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

// FormatContext renders results as a numbered block for the LLM prompt. It
// returns "" for no results.
func FormatContext(results []Result) string {
	if len(results) == 0 {
		return ""
	}
	lines := []string{contextHeader}
	for i, r := range results {
		lines = append(lines, fmt.Sprintf("%d. %s\n%s", i+1, r.Title, r.URL))
		if r.Snippet != "" {
			lines = append(lines, r.Snippet)
		}
		lines = append(lines, "")
	}
	text := strings.TrimSpace(strings.Join(lines, "\n"))

	runes := []rune(text)
	if len(runes) > contextMaxRunes {
		text = string(runes[:contextMaxRunes-1]) + "…"
	}
	return text
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
