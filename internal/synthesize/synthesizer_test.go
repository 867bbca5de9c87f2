package synthesize

import (
	"context"
	"strings"
	"testing"

	"briefly/internal/core"
	"briefly/internal/llm"
)

type scriptedAdapter struct {
	responses map[string]string
}

func (s scriptedAdapter) Completion(_ context.Context, prompt, _ string, _ llm.CompletionParams) (string, error) {
	for key, resp := range s.responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return "", nil
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

func sampleSummarization() core.SummarizationOutput {
	cred1, cred2 := 0.8, 0.6
	return core.SummarizationOutput{
		Summaries: []core.DocumentSummary{
			{DocumentID: "doc_a", Title: "A", URL: "https://example.com/a", ExecutiveSummary: "summary a", DetailedSummary: "detailed analysis a", CredibilityScore: &cred1},
			{DocumentID: "doc_b", Title: "B", URL: "https://example.com/b", ExecutiveSummary: "summary b", DetailedSummary: "detailed analysis b", CredibilityScore: &cred2},
		},
		CommonThemes:       []string{"automation"},
		ConsensusPoints:    []string{"adoption is growing"},
		ConflictingViews:   []string{"pace of growth"},
		AverageCredibility: func() *float64 { v := 0.7; return &v }(),
	}
}

func TestSynthesizerProducesSectionsAndScores(t *testing.T) {
	adapter := scriptedAdapter{responses: map[string]string{
		"Write a structured research report body": "## Market Landscape\nThe market is expanding.\n\n## Key Players\nSeveral firms lead adoption.",
		"Write one section of thematic analysis":   "Themes converge around automation and adoption pace.",
		"Write an executive summary":               "KEY FINDINGS:\n- Adoption accelerated\n\nMAIN INSIGHTS:\n- Automation dominates\n\nRECOMMENDATIONS:\n- Invest further",
	}}
	stage := NewStage(adapter)

	out, err := stage.Run(context.Background(), "workplace automation", sampleSummarization())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	report := out.Report

	if len(report.MainSections) != 3 {
		t.Fatalf("expected 3 sections (2 parsed + thematic), got %d: %+v", len(report.MainSections), report.MainSections)
	}
	if report.MainSections[2].Title != "Thematic Analysis" {
		t.Fatalf("expected thematic analysis appended last, got %q", report.MainSections[2].Title)
	}
	if len(report.ExecutiveSummary.KeyFindings) != 1 || report.ExecutiveSummary.KeyFindings[0] != "Adoption accelerated" {
		t.Fatalf("unexpected key findings: %v", report.ExecutiveSummary.KeyFindings)
	}

	wantCompleteness := 2.0 / 5
	if report.CompletenessScore != wantCompleteness {
		t.Fatalf("expected completeness %v, got %v", wantCompleteness, report.CompletenessScore)
	}
	wantConfidence := 0.4*wantCompleteness + 0.4*0.7 + 0.2*1.0
	if diff := report.ConfidenceScore - wantConfidence; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected confidence %v, got %v", wantConfidence, report.ConfidenceScore)
	}
	if len(report.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(report.Sources))
	}
	if !strings.HasPrefix(report.ReportID, "rpt_") {
		t.Fatalf("expected report id with rpt_ prefix, got %q", report.ReportID)
	}
	if report.FormattedOutputs["markdown"] == "" || report.FormattedOutputs["text"] == "" || report.FormattedOutputs["html"] == "" {
		t.Fatalf("expected all three formatted outputs populated")
	}
}

func TestSynthesizerFallsBackToGeneralAnalysisSection(t *testing.T) {
	adapter := scriptedAdapter{responses: map[string]string{
		"Write a structured research report body": "No headings here, just plain prose about the topic.",
	}}
	stage := NewStage(adapter)

	out, err := stage.Run(context.Background(), "topic without headings", sampleSummarization())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Report.MainSections[0].Title != "General Analysis" {
		t.Fatalf("expected General Analysis fallback section, got %q", out.Report.MainSections[0].Title)
	}
}

func TestSynthesizerRejectsEmptyTopic(t *testing.T) {
	stage := NewStage(scriptedAdapter{})
	_, err := stage.Run(context.Background(), "  ", sampleSummarization())
	if err == nil {
		t.Fatalf("expected validation error for empty topic")
	}
}
