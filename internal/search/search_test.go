package search

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"briefly/internal/core"
)

func TestConfigCreation(t *testing.T) {
	config := Config{MaxResults: 10, SinceTime: 24 * time.Hour, Language: "en"}
	if config.MaxResults != 10 {
		t.Errorf("Expected MaxResults to be 10, got %d", config.MaxResults)
	}
}

func TestResultCreation(t *testing.T) {
	result := Result{
		URL:         "https://example.com/article",
		Title:       "Test Article",
		Snippet:     "This is a test snippet",
		Domain:      "example.com",
		PublishedAt: time.Now(),
		Source:      "test",
		Rank:        1,
	}
	if result.Rank != 1 {
		t.Errorf("Expected Rank to be 1, got %d", result.Rank)
	}
}

func TestMockProviderSearch(t *testing.T) {
	provider := NewMockProvider()
	ctx := context.Background()
	config := Config{MaxResults: 2, Language: "en"}

	results, err := provider.Search(ctx, "test query", config)
	if err != nil {
		t.Fatalf("Expected no error from mock search, got %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 results, got %d", len(results))
	}
	for _, result := range results {
		if result.Title == "" || result.URL == "" || result.Snippet == "" {
			t.Error("expected non-empty title/url/snippet")
		}
	}
}

func TestMockProviderCustomization(t *testing.T) {
	provider := NewMockProvider()
	provider.SetName("CustomMock")
	if provider.GetName() != "CustomMock" {
		t.Errorf("Expected provider name to be 'CustomMock', got %s", provider.GetName())
	}

	provider.SetResults([]Result{{URL: "https://custom.com/article", Title: "Custom Article", Domain: "custom.com", Source: "Custom", Rank: 1}})

	results, err := provider.Search(context.Background(), "test", Config{MaxResults: 5})
	if err != nil {
		t.Fatalf("Expected no error from mock search, got %v", err)
	}
	if len(results) != 1 || results[0].Domain != "custom.com" {
		t.Errorf("expected one custom result, got %+v", results)
	}
}

func TestRegistryPrefersDesignatedProvider(t *testing.T) {
	preferred := NewMockProvider()
	preferred.SetName("preferred")
	secondary := NewMockProvider()
	secondary.SetName("secondary")

	r := NewRegistry()
	r.Register(secondary)
	r.Register(preferred)
	r.SetPreferred("preferred")

	_, used, err := r.Search(context.Background(), "q", Config{MaxResults: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if used != "preferred" {
		t.Errorf("expected preferred provider to be used first, got %s", used)
	}
}

type failingProvider struct{ name string }

func (f *failingProvider) GetName() string { return f.name }
func (f *failingProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	return nil, errors.New("boom")
}

func TestRegistryFailsOverToNextProvider(t *testing.T) {
	secondary := NewMockProvider()
	secondary.SetName("secondary")

	r := NewRegistry()
	r.Register(&failingProvider{name: "preferred"})
	r.Register(secondary)
	r.SetPreferred("preferred")

	results, used, err := r.Search(context.Background(), "q", Config{MaxResults: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if used != "secondary" {
		t.Errorf("expected failover to secondary, got %s", used)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestRegistryFailsOnlyWhenAllProvidersFail(t *testing.T) {
	r := NewRegistry()
	r.Register(&failingProvider{name: "a"})
	r.Register(&failingProvider{name: "b"})

	_, _, err := r.Search(context.Background(), "q", Config{MaxResults: 1})
	if err == nil {
		t.Fatal("expected SearchFailure when every provider fails")
	}
	var searchFailure *core.SearchFailure
	if !errors.As(err, &searchFailure) {
		t.Errorf("expected *core.SearchFailure, got %T", err)
	}
}

func TestSerperProviderMissingAPIKey(t *testing.T) {
	provider := NewSerperProvider("")
	_, err := provider.Search(context.Background(), "q", Config{MaxResults: 1})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestTavilyProviderMissingAPIKey(t *testing.T) {
	provider := NewTavilyProvider("")
	_, err := provider.Search(context.Background(), "q", Config{MaxResults: 1})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestBraveProviderMissingAPIKey(t *testing.T) {
	provider := NewBraveProvider("")
	_, err := provider.Search(context.Background(), "q", Config{MaxResults: 1})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

type statusRoundTripper struct{ status int }

func (s statusRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader(`{}`)),
		Header:     make(http.Header),
	}, nil
}

func TestSerperProviderClassifiesRateLimitAndUnavailable(t *testing.T) {
	rateLimited := &SerperProvider{apiKey: "k", client: &http.Client{Transport: statusRoundTripper{status: http.StatusTooManyRequests}}}
	if _, err := rateLimited.Search(context.Background(), "q", Config{MaxResults: 1}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	unavailable := &SerperProvider{apiKey: "k", client: &http.Client{Transport: statusRoundTripper{status: http.StatusServiceUnavailable}}}
	if _, err := unavailable.Search(context.Background(), "q", Config{MaxResults: 1}); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestSerperProviderNoResultsReturnsErrNoResults(t *testing.T) {
	provider := &SerperProvider{apiKey: "k", client: &http.Client{Transport: statusRoundTripper{status: http.StatusOK}}}
	_, err := provider.Search(context.Background(), "q", Config{MaxResults: 1})
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}
