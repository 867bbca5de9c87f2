package render

import (
	"strings"
	"testing"

	"briefly/internal/core"
)

func sampleReport() core.FinalReport {
	return core.FinalReport{
		Title: "State of Renewable Energy",
		Topic: "renewable energy",
		ExecutiveSummary: core.ExecutiveSummary{
			KeyFindings:     []string{"Solar capacity doubled"},
			MainInsights:    []string{"Storage is the bottleneck"},
			Recommendations: []string{"Invest in grid-scale batteries"},
			SummaryText:     "Renewable adoption accelerated in 2025.",
		},
		Introduction: "This report surveys recent developments.",
		MainSections: []core.ReportSection{
			{Title: "Market Trends", Content: "Solar and wind both grew.", Order: 1},
		},
		Conclusion: "Momentum is expected to continue.",
		KeyThemes:  []string{"decarbonization"},
		Methodology: core.Methodology{
			ResearchApproach:       "Automated multi-source synthesis.",
			SourcesCount:           2,
			AnalysisMethods:        []string{"LLM summarization"},
			DataQualityAssessment:  "Based on 2 sources with average credibility 0.70.",
		},
		Sources: []core.SourceReference{
			{Title: "Energy Outlook", URL: "https://example.com/outlook", CitationCount: 1},
		},
	}
}

func TestMarkdownContainsFixedSections(t *testing.T) {
	out := Markdown(sampleReport())
	for _, want := range []string{"# State of Renewable Energy", "## Executive Summary", "## Introduction", "## Market Trends", "## Key Themes", "## Conclusion", "## Methodology", "## Sources", "[Energy Outlook](https://example.com/outlook)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("markdown missing %q in:\n%s", want, out)
		}
	}
}

func TestTextUsesDashUnderlines(t *testing.T) {
	out := Text(sampleReport())
	if !strings.Contains(out, "Executive Summary\n-----------------") {
		t.Fatalf("text output missing underlined heading:\n%s", out)
	}
}

func TestHTMLEscapesAndLinksSources(t *testing.T) {
	out := HTML(sampleReport())
	if !strings.Contains(out, `<a href="https://example.com/outlook">Energy Outlook</a>`) {
		t.Fatalf("html missing source anchor:\n%s", out)
	}
	if !strings.Contains(out, "<style>") {
		t.Fatalf("html missing embedded style block")
	}
}

func TestAllReturnsThreeFormats(t *testing.T) {
	outputs := All(sampleReport())
	for _, key := range []string{"markdown", "text", "html"} {
		if outputs[key] == "" {
			t.Fatalf("expected non-empty %s output", key)
		}
	}
}
