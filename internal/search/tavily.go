package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"briefly/internal/logger"
)

// TavilyProvider implements Provider over the Tavily search API, which is
// purpose-built for LLM research agents and returns a relevance score per
// result — used directly as the provider-supplied score averaged in by
// the Researcher's ranking step (spec 4.1).
type TavilyProvider struct {
	apiKey string
	client *http.Client
}

func NewTavilyProvider(apiKey string) *TavilyProvider {
	return &TavilyProvider{apiKey: apiKey, client: &http.Client{Timeout: 30 * time.Second}}
}

func (t *TavilyProvider) GetName() string { return "tavily" }

func (t *TavilyProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	if t.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	maxResults := config.MaxResults
	if maxResults <= 0 || maxResults > 20 {
		maxResults = 10
	}
	payload := map[string]any{
		"api_key":     t.apiKey,
		"query":       query,
		"max_results": maxResults,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.tavily.com/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute tavily request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, ErrProviderUnavailable
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("tavily request failed with status: %d", resp.StatusCode)
	}

	var apiResponse struct {
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse tavily response: %w", err)
	}

	results := make([]Result, 0, len(apiResponse.Results))
	for i, item := range apiResponse.Results {
		score := item.Score
		results = append(results, Result{
			URL:           item.URL,
			Title:         item.Title,
			Snippet:       item.Content,
			Domain:        domainOf(item.URL),
			Source:        "tavily",
			Rank:          i + 1,
			ProviderScore: &score,
		})
	}

	if len(results) == 0 {
		return nil, ErrNoResults
	}

	logger.Info("tavily search completed", "query", query, "results_found", len(results))
	return results, nil
}
