package pipeline

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"briefly/internal/extract"
	"briefly/internal/llm"
	"briefly/internal/memory"
	"briefly/internal/research"
	"briefly/internal/search"
	"briefly/internal/summarize"
	"briefly/internal/synthesize"
)

type fakeAdapter struct{}

func (fakeAdapter) Completion(_ context.Context, prompt, _ string, _ llm.CompletionParams) (string, error) {
	switch {
	case strings.Contains(prompt, "Write a 1-3 sentence"):
		return "This source discusses renewable energy adoption.", nil
	case strings.Contains(prompt, "Analyze this source"):
		return "DETAILED ANALYSIS:\nRenewables are expanding quickly across markets.\n\nKEY POINTS:\n- Solar grew fastest\n- Storage lags behind", nil
	case strings.Contains(prompt, "Assess the overall tone"):
		return "TONE: positive\ncredibility: 7", nil
	case strings.Contains(prompt, "Write a structured research report body"):
		return "## Market Growth\nRenewables grew across every region surveyed.", nil
	case strings.Contains(prompt, "Write one section of thematic analysis"):
		return "Themes converge on accelerating adoption.", nil
	case strings.Contains(prompt, "Write an executive summary"):
		return "KEY FINDINGS:\n- Adoption is accelerating\n\nMAIN INSIGHTS:\n- Storage is the bottleneck\n\nRECOMMENDATIONS:\n- Expand grid storage", nil
	}
	return "", nil
}

func (f fakeAdapter) Batch(ctx context.Context, prompts []string, params llm.CompletionParams) ([]string, error) {
	out := make([]string, len(prompts))
	for i, p := range prompts {
		out[i], _ = f.Completion(ctx, p, "", params)
	}
	return out, nil
}

func (fakeAdapter) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type fakeSearchProvider struct{}

func (fakeSearchProvider) GetName() string { return "fake" }
func (fakeSearchProvider) Search(_ context.Context, query string, _ search.Config) ([]search.Result, error) {
	return []search.Result{
		{URL: "https://example.com/a", Title: "Renewable Energy Report A", Snippet: query, Source: "fake", Rank: 1},
		{URL: "https://example.com/b", Title: "Renewable Energy Report B", Snippet: query, Source: "fake", Rank: 2},
	}, nil
}

type fakeHTTPFetcher struct{}

func (fakeHTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	body := `<html><head><title>Renewable Energy Report</title></head><body><article>` +
		strings.Repeat("Renewable energy adoption continues to accelerate worldwide. ", 60) +
		`</article></body></html>`
	return &http.Response{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	adapter := fakeAdapter{}

	registry := search.NewRegistry()
	registry.Register(fakeSearchProvider{})

	researcher := research.NewStage(registry, adapter)
	extractor := extract.NewStage(fakeHTTPFetcher{}, extract.DefaultConfig())
	summarizer := summarize.NewStage(adapter, summarize.DefaultOptions())
	synthesizer := synthesize.NewStage(adapter)

	store, err := memory.Open(filepath.Join(t.TempDir(), "memory.db"), NewEmbedder(adapter))
	if err != nil {
		t.Fatalf("memory.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return New(researcher, extractor, summarizer, synthesizer, store, DefaultOptions())
}

func TestRunCompleteProducesMarkdownReport(t *testing.T) {
	p := newTestPipeline(t)
	out := p.RunComplete(context.Background(), "renewable energy", 2, true)
	if strings.HasPrefix(out, "ValidationError") || strings.HasPrefix(out, "ExtractionFailure") || strings.HasPrefix(out, "LLMFailure") {
		t.Fatalf("expected a markdown report, got error: %s", out)
	}
	if !strings.Contains(out, "# Research Report: renewable energy") {
		t.Fatalf("expected report title in output:\n%s", out)
	}
}

func TestRunCompleteCacheHitSkipsPipeline(t *testing.T) {
	p := newTestPipeline(t)
	first := p.RunComplete(context.Background(), "renewable energy", 2, true)
	second := p.RunComplete(context.Background(), "renewable energy", 2, true)
	if first != second {
		t.Fatalf("expected cache hit to return identical report, got different outputs")
	}
}

func TestToolOperations(t *testing.T) {
	p := newTestPipeline(t)
	p.RunComplete(context.Background(), "renewable energy", 2, true)

	if got := p.SearchInMemory("renewable", 3); got == "" {
		t.Fatalf("expected non-empty search_in_memory result")
	}
	if got := p.GetResearchHistory(5); !strings.Contains(got, "renewable energy") {
		t.Fatalf("expected conversation history to mention topic, got %q", got)
	}
	if got := p.ClearMemory(false); !strings.Contains(got, "No action taken") {
		t.Fatalf("expected clear_memory no-op without confirm, got %q", got)
	}
	if got := p.ClearMemory(true); !strings.Contains(got, "cleared") {
		t.Fatalf("expected clear_memory confirmation, got %q", got)
	}
}

func TestMaxResultsClamped(t *testing.T) {
	if got := clampMaxResults(1); got != 2 {
		t.Errorf("clampMaxResults(1) = %d, want 2", got)
	}
	if got := clampMaxResults(50); got != 10 {
		t.Errorf("clampMaxResults(50) = %d, want 10", got)
	}
}
