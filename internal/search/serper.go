package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"briefly/internal/logger"
)

// SerperProvider implements Provider over serper.dev's Google-results API.
// Grounded on the teacher's GoogleProvider (rate-limited http.Client,
// context-aware request, domain extraction) re-pointed at Serper's POST
// JSON endpoint instead of Google Custom Search's GET query string.
type SerperProvider struct {
	apiKey    string
	client    *http.Client
	rateLimit time.Duration
	lastCall  time.Time
}

func NewSerperProvider(apiKey string) *SerperProvider {
	return &SerperProvider{
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 30 * time.Second},
		rateLimit: 100 * time.Millisecond,
	}
}

func (s *SerperProvider) GetName() string { return "serper" }

func (s *SerperProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if elapsed := time.Since(s.lastCall); elapsed < s.rateLimit {
		time.Sleep(s.rateLimit - elapsed)
	}
	s.lastCall = time.Now()

	maxResults := config.MaxResults
	if maxResults <= 0 || maxResults > 20 {
		maxResults = 10
	}
	body, err := json.Marshal(map[string]any{"q": query, "num": maxResults})
	if err != nil {
		return nil, fmt.Errorf("failed to encode serper request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://google.serper.dev/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create serper request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute serper request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, ErrProviderUnavailable
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("serper request failed with status: %d", resp.StatusCode)
	}

	var apiResponse struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
			Date    string `json:"date"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse serper response: %w", err)
	}

	results := make([]Result, 0, len(apiResponse.Organic))
	for i, item := range apiResponse.Organic {
		var published time.Time
		if item.Date != "" {
			if t, err := time.Parse("Jan 2, 2006", item.Date); err == nil {
				published = t
			}
		}
		results = append(results, Result{
			URL:         item.Link,
			Title:       item.Title,
			Snippet:     item.Snippet,
			Domain:      domainOf(item.Link),
			PublishedAt: published,
			Source:      "serper",
			Rank:        i + 1,
		})
	}

	if len(results) == 0 {
		return nil, ErrNoResults
	}

	logger.Info("serper search completed", "query", query, "results_found", len(results))
	return results, nil
}

func domainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return extractDomain(parsed.Hostname())
}
