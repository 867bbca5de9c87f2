package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"briefly/internal/logger"
)

// BraveProvider implements Provider over the Brave Search API.
type BraveProvider struct {
	apiKey string
	client *http.Client
}

func NewBraveProvider(apiKey string) *BraveProvider {
	return &BraveProvider{apiKey: apiKey, client: &http.Client{Timeout: 30 * time.Second}}
}

func (b *BraveProvider) GetName() string { return "brave" }

func (b *BraveProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	if b.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	maxResults := config.MaxResults
	if maxResults <= 0 || maxResults > 20 {
		maxResults = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, "GET", "https://api.search.brave.com/res/v1/web/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create brave request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute brave request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, ErrProviderUnavailable
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("brave request failed with status: %d", resp.StatusCode)
	}

	var apiResponse struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
				Age         string `json:"age"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse brave response: %w", err)
	}

	results := make([]Result, 0, len(apiResponse.Web.Results))
	for i, item := range apiResponse.Web.Results {
		results = append(results, Result{
			URL:     item.URL,
			Title:   item.Title,
			Snippet: item.Description,
			Domain:  domainOf(item.URL),
			Source:  "brave",
			Rank:    i + 1,
		})
	}

	if len(results) == 0 {
		return nil, ErrNoResults
	}

	logger.Info("brave search completed", "query", query, "results_found", len(results))
	return results, nil
}
