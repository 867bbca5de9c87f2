package research

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"briefly/internal/core"
	"briefly/internal/llm"
	"briefly/internal/search"
)

// fakeAdapter satisfies llm.Adapter with canned responses.
type fakeAdapter struct {
	completionText string
	completionErr  error
}

func (f *fakeAdapter) Completion(ctx context.Context, prompt, systemPrompt string, params llm.CompletionParams) (string, error) {
	return f.completionText, f.completionErr
}
func (f *fakeAdapter) Batch(ctx context.Context, prompts []string, params llm.CompletionParams) ([]string, error) {
	out := make([]string, len(prompts))
	for i := range prompts {
		out[i] = f.completionText
	}
	return out, nil
}
func (f *fakeAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

var _ llm.Adapter = (*fakeAdapter)(nil)

func TestComposeQueryAppendsNonOverlappingKeywords(t *testing.T) {
	got := composeQuery("machine learning", []string{"neural networks", "machine"}, core.SearchDepthBasic)
	want := "machine learning neural networks"
	if got != want {
		t.Errorf("composeQuery() = %q, want %q", got, want)
	}
}

func TestComposeQueryAppendsRecencyHintForAdvancedDepth(t *testing.T) {
	got := composeQuery("quantum computing", nil, core.SearchDepthAdvanced)
	now := time.Now()
	if !strings.Contains(got, strconv.Itoa(now.Year())) || !strings.Contains(got, strconv.Itoa(now.Year()-1)) {
		t.Errorf("expected recency hint in %q", got)
	}
}

func TestFallbackKeywordsDropsStopWordsAndShortTokens(t *testing.T) {
	got := fallbackKeywords("the rise of AI in modern healthcare systems")
	for _, kw := range got {
		if stopWords[kw] || len(kw) < 3 {
			t.Errorf("fallback keyword %q should have been filtered", kw)
		}
	}
	if len(got) == 0 {
		t.Error("expected at least one fallback keyword")
	}
}

func TestRankDropsResultsBelowThresholdAndSortsDescending(t *testing.T) {
	results := []search.Result{
		{Title: "Irrelevant", Snippet: "nothing related", Domain: "x.com"},
		{Title: "quantum computing breakthrough", Snippet: "quantum computing research", Domain: "y.com"},
	}
	ranked := rank(results, []string{"quantum computing"})
	if len(ranked) != 1 {
		t.Fatalf("expected 1 result to survive threshold filter, got %d", len(ranked))
	}
	if ranked[0].Title != "quantum computing breakthrough" {
		t.Errorf("unexpected surviving result: %+v", ranked[0])
	}
}

func TestRankAveragesProviderScore(t *testing.T) {
	score := 1.0
	results := []search.Result{
		{Title: "quantum computing", Snippet: "quantum computing", Domain: "y.com", ProviderScore: &score},
	}
	ranked := rank(results, []string{"quantum computing"})
	if len(ranked) != 1 {
		t.Fatalf("expected one result, got %d", len(ranked))
	}
	if ranked[0].Score <= 0.9 {
		t.Errorf("expected averaging with a perfect provider score to push score high, got %f", ranked[0].Score)
	}
}

func TestIsWeakDetectsEmptyAndTrivialKeywordSets(t *testing.T) {
	if !isWeak(nil) {
		t.Error("nil keywords should be weak")
	}
	if !isWeak([]string{"a"}) {
		t.Error("single-char keyword should be weak")
	}
	if isWeak([]string{"renewable energy"}) {
		t.Error("non-trivial keyword should not be weak")
	}
}

func TestStageRunFailsOverAndRanks(t *testing.T) {
	reg := search.NewRegistry()
	failing := &alwaysFailProvider{name: "primary"}
	mock := search.NewMockProvider()
	mock.SetName("secondary")
	mock.SetResults([]search.Result{
		{URL: "https://example.com/a", Title: "renewable energy policy", Snippet: "renewable energy trends", Domain: "example.com", Rank: 1},
	})
	reg.Register(failing)
	reg.Register(mock)
	reg.SetPreferred("primary")

	stage := NewStage(reg, &fakeAdapter{completionText: "renewable, energy, policy"})
	query, err := core.NewResearchQuery("renewable energy policy", nil, 5, core.SearchDepthBasic)
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	out, err := stage.Run(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.SearchEngine != "secondary" {
		t.Errorf("expected failover to secondary provider, got %s", out.SearchEngine)
	}
	if len(out.Results) == 0 {
		t.Error("expected at least one ranked result")
	}
}

func TestStageRunFailsWhenAllProvidersFail(t *testing.T) {
	reg := search.NewRegistry()
	reg.Register(&alwaysFailProvider{name: "a"})
	reg.Register(&alwaysFailProvider{name: "b"})

	stage := NewStage(reg, &fakeAdapter{completionText: "a, b, c"})
	query, _ := core.NewResearchQuery("renewable energy policy", nil, 5, core.SearchDepthBasic)

	_, err := stage.Run(context.Background(), query)
	if err == nil {
		t.Fatal("expected error when all providers fail")
	}
	var searchFailure *core.SearchFailure
	if !errors.As(err, &searchFailure) {
		t.Errorf("expected *core.SearchFailure, got %T", err)
	}
}

type alwaysFailProvider struct{ name string }

func (a *alwaysFailProvider) GetName() string { return a.name }
func (a *alwaysFailProvider) Search(ctx context.Context, query string, config search.Config) ([]search.Result, error) {
	return nil, errors.New("provider down")
}
