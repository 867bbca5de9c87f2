package summarize

import (
	"context"
	"strings"
	"testing"

	"briefly/internal/core"
	"briefly/internal/llm"
)

// scriptedAdapter returns canned completions keyed by a substring of the
// prompt, so each stage of a Stage.Run can be exercised independently.
type scriptedAdapter struct {
	responses map[string]string
}

func (s scriptedAdapter) Completion(_ context.Context, prompt, _ string, _ llm.CompletionParams) (string, error) {
	for key, resp := range s.responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return "a short summary.", nil
}

func (s scriptedAdapter) Batch(ctx context.Context, prompts []string, params llm.CompletionParams) ([]string, error) {
	out := make([]string, len(prompts))
	for i, p := range prompts {
		out[i], _ = s.Completion(ctx, p, "", params)
	}
	return out, nil
}

func (s scriptedAdapter) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func TestSummarizerStandardPath(t *testing.T) {
	adapter := scriptedAdapter{responses: map[string]string{
		"Write a 1-3 sentence": "A concise executive summary.",
		"Analyze this source": "DETAILED ANALYSIS:\nSome paragraph of analysis.\n\nKEY POINTS:\n- First point\n- Second point",
		"Assess the overall tone": "TONE: positive\ncredibility: 8",
	}}
	stage := NewStage(adapter, DefaultOptions())

	doc := core.Document{URL: "https://example.com/a", Title: "Example", Content: "some article content about a topic"}
	out, err := stage.Run(context.Background(), []core.Document{doc})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.Summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(out.Summaries))
	}
	s := out.Summaries[0]
	if s.ExecutiveSummary == "" {
		t.Fatalf("expected executive summary")
	}
	if len(s.KeyPoints) != 2 {
		t.Fatalf("expected 2 key points, got %d: %+v", len(s.KeyPoints), s.KeyPoints)
	}
	if s.Sentiment == nil || *s.Sentiment != core.SentimentPositive {
		t.Fatalf("expected positive sentiment, got %v", s.Sentiment)
	}
	if s.CredibilityScore == nil || *s.CredibilityScore < 0.7 {
		t.Fatalf("expected credibility near 0.8, got %v", s.CredibilityScore)
	}
	if out.AverageCredibility == nil {
		t.Fatalf("expected average credibility")
	}
}

func TestSummarizerCrossDocumentAnalysis(t *testing.T) {
	adapter := scriptedAdapter{responses: map[string]string{
		"Write a 1-3 sentence": "summary.",
		"Analyze these detailed summaries": "THÈME COMMUN:\n- shared topic\n\nCONSENSUS:\n- agree here\n\nCONFLIT:\n- disagreement here",
	}}
	stage := NewStage(adapter, Options{MaxKeyPoints: 5})

	docs := []core.Document{
		{URL: "https://example.com/a", Title: "A", Content: "content a"},
		{URL: "https://example.com/b", Title: "B", Content: "content b"},
	}
	out, err := stage.Run(context.Background(), docs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.CommonThemes) != 1 || out.CommonThemes[0] != "shared topic" {
		t.Fatalf("expected one common theme, got %v", out.CommonThemes)
	}
	if len(out.ConsensusPoints) != 1 {
		t.Fatalf("expected one consensus point, got %v", out.ConsensusPoints)
	}
	if len(out.ConflictingViews) != 1 {
		t.Fatalf("expected one conflicting view, got %v", out.ConflictingViews)
	}
}

func TestSummarizerRejectsEmptyContent(t *testing.T) {
	stage := NewStage(scriptedAdapter{}, DefaultOptions())
	_, err := stage.Run(context.Background(), []core.Document{{URL: "u", Title: "t", Content: "  "}})
	if err == nil {
		t.Fatalf("expected validation error for empty content")
	}
}

func TestSummarizerLargeDocumentChunksAndSynthesizes(t *testing.T) {
	adapter := scriptedAdapter{responses: map[string]string{
		"Summarize part": "partial summary.",
		"Combine these sequential": "EXECUTIVE SUMMARY:\nBig doc summary.\n\nDETAILED SUMMARY:\nLong analysis paragraph.\n\nKEY POINTS:\n- a\n- b\n\nSENTIMENT:\nTONE: neutral\ncredibility: 6",
	}}
	opts := DefaultOptions()
	opts.ChunkThreshold = 100
	stage := NewStage(adapter, opts)

	longContent := strings.Repeat("This is a sentence about the topic. ", 400)
	doc := core.Document{URL: "https://example.com/big", Title: "Big Doc", Content: longContent}
	out, err := stage.Run(context.Background(), []core.Document{doc})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := out.Summaries[0]
	if s.ExecutiveSummary != "Big doc summary." {
		t.Fatalf("expected synthesized executive summary, got %q", s.ExecutiveSummary)
	}
	if len(s.KeyPoints) != 2 {
		t.Fatalf("expected 2 key points, got %+v", s.KeyPoints)
	}
}
