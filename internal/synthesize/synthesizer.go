package synthesize

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"briefly/internal/core"
	"briefly/internal/llm"
	"briefly/internal/logger"
	"briefly/internal/render"
)

var (
	fixedAnalysisMethods = []string{
		"automated multi-source retrieval",
		"LLM-based document summarization",
		"cross-document thematic synthesis",
	}
	fixedLimitations = []string{
		"Coverage is limited to sources returned by the configured search providers.",
		"Summaries are produced by a language model and may omit nuance present in the original sources.",
	}
)

// Stage is the Global Synthesizer capability: a SummarizationOutput plus
// the original topic in, a GlobalSynthesisOutput out (spec 4.4).
type Stage struct {
	llmClient llm.Adapter
}

// NewStage builds a Global Synthesizer stage over an LLM adapter.
func NewStage(llmClient llm.Adapter) *Stage {
	return &Stage{llmClient: llmClient}
}

// Run produces a fully populated FinalReport from a Summarizer output.
func (s *Stage) Run(ctx context.Context, topic string, summarization core.SummarizationOutput) (core.GlobalSynthesisOutput, error) {
	if strings.TrimSpace(topic) == "" {
		return core.GlobalSynthesisOutput{}, &core.ValidationError{Field: "topic", Reason: "must not be empty"}
	}
	if len(summarization.Summaries) == 0 {
		return core.GlobalSynthesisOutput{}, &core.ValidationError{Field: "summaries", Reason: "must supply at least one document summary"}
	}

	start := time.Now()
	detailed := detailedSummaries(summarization.Summaries)

	var mainBody, thematic string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		mainBody, _ = s.llmClient.Completion(ctx, mainSynthesisPrompt(topic, detailed, summarization.CommonThemes, summarization.ConsensusPoints, summarization.ConflictingViews), "", llm.DefaultCompletionParams())
	}()
	go func() {
		defer wg.Done()
		thematic, _ = s.llmClient.Completion(ctx, thematicAnalysisPrompt(topic, detailed), "", llm.DefaultCompletionParams())
	}()
	wg.Wait()

	sections := splitIntoSections(mainBody)
	sections = appendThematicSection(sections, thematic)

	execRaw, err := s.llmClient.Completion(ctx, executiveSummaryPrompt(topic, detailed, summarization.CommonThemes), "", llm.DefaultCompletionParams())
	var execSummary core.ExecutiveSummary
	if err == nil {
		execSummary = parseExecutiveSummary(execRaw)
	}

	methodology := buildMethodology(summarization)
	sources := buildSourceReferences(summarization.Summaries)

	completeness := min1(float64(len(summarization.Summaries)) / 5)
	reliability := 0.5
	if summarization.AverageCredibility != nil {
		reliability = *summarization.AverageCredibility
	}
	coherence := min1(float64(len(sections)) / 3)
	confidence := 0.4*completeness + 0.4*reliability + 0.2*coherence

	introduction := fmt.Sprintf("This report synthesizes %d source(s) gathered on %q into a structured analysis of the current landscape, key themes, and open questions.", len(summarization.Summaries), topic)
	conclusion := buildConclusion(topic, summarization)

	report := core.FinalReport{
		ReportID:              reportID(topic),
		Title:                 fmt.Sprintf("Research Report: %s", topic),
		Topic:                 topic,
		ReportType:            "research_synthesis",
		ReportFormat:          "markdown",
		ExecutiveSummary:      execSummary,
		Introduction:          introduction,
		MainSections:          sections,
		Conclusion:            conclusion,
		KeyThemes:             summarization.CommonThemes,
		ConsensusPoints:       summarization.ConsensusPoints,
		ConflictingViewpoints: summarization.ConflictingViews,
		EmergingTrends:        extractEmergingTrends(thematic),
		Methodology:           methodology,
		Sources:               sources,
		ConfidenceScore:       confidence,
		CompletenessScore:     completeness,
		GeneratedAt:           time.Now(),
	}
	report.WordCount = wordCount(introduction) + wordCount(conclusion) + wordCount(execSummary.SummaryText) + sumSectionWords(sections)
	report.FormattedOutputs = render.All(report)

	logger.Info("synthesizer stage completed", "topic", topic, "sources", len(sources), "confidence", confidence)

	return core.GlobalSynthesisOutput{Report: report, ElapsedTime: time.Since(start)}, nil
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func detailedSummaries(summaries []core.DocumentSummary) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if s.DetailedSummary != "" {
			out = append(out, s.DetailedSummary)
		} else {
			out = append(out, s.ExecutiveSummary)
		}
	}
	return out
}

func buildMethodology(summarization core.SummarizationOutput) core.Methodology {
	avgCred := "not available"
	if summarization.AverageCredibility != nil {
		avgCred = fmt.Sprintf("%.2f", *summarization.AverageCredibility)
	}
	return core.Methodology{
		ResearchApproach:      "Automated retrieval and multi-document LLM synthesis across independently gathered sources.",
		SourcesCount:          len(summarization.Summaries),
		AnalysisMethods:       fixedAnalysisMethods,
		Limitations:           fixedLimitations,
		DataQualityAssessment: fmt.Sprintf("Based on %d source(s) with average credibility %s.", len(summarization.Summaries), avgCred),
	}
}

func buildSourceReferences(summaries []core.DocumentSummary) []core.SourceReference {
	out := make([]core.SourceReference, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, core.SourceReference{
			Title:            s.Title,
			URL:              s.URL,
			CredibilityScore: s.CredibilityScore,
			CitationCount:    1,
		})
	}
	return out
}

// buildConclusion produces a short deterministic closing statement rather
// than an additional LLM call, templated with the themes already derived
// during summarization.
func buildConclusion(topic string, summarization core.SummarizationOutput) string {
	if len(summarization.CommonThemes) == 0 {
		return fmt.Sprintf("Continued monitoring of developments around %q is warranted as the landscape evolves.", topic)
	}
	return fmt.Sprintf("The sources examined converge on %s as the defining themes for %q; continued monitoring is warranted as the landscape evolves.", strings.Join(summarization.CommonThemes, ", "), topic)
}

func sumSectionWords(sections []core.ReportSection) int {
	total := 0
	for _, s := range sections {
		total += wordCount(s.Content)
		total += sumSectionWords(s.Subsections)
	}
	return total
}

func reportID(topic string) string {
	sum := md5.Sum([]byte(topic))
	return fmt.Sprintf("rpt_%s_%s", time.Now().Format("20060102_1504"), hex.EncodeToString(sum[:])[:8])
}
