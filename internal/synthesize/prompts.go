// Package synthesize implements the Global Synthesizer stage (spec 4.4):
// a SummarizationOutput plus the original topic in, a fully populated
// FinalReport out. Prompt shapes follow the Summarizer package's
// labeled-section convention (itself grounded on the teacher's
// internal/summarize prompt style), re-pointed at the spec's
// report-level synthesis/thematic/executive-summary prompt kinds.
package synthesize

import (
	"fmt"
	"strings"
)

func truncate(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	return s[:maxChars] + "..."
}

func joinDetailedSummaries(summaries []string) string {
	var b strings.Builder
	for i, s := range summaries {
		fmt.Fprintf(&b, "Source %d:\n%s\n\n", i+1, truncate(s, 2000))
	}
	return b.String()
}

func mainSynthesisPrompt(topic string, detailedSummaries []string, themes, consensus, conflicts []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a structured research report body on the topic %q, drawing only on the sources below.\n\n", topic)
	b.WriteString(joinDetailedSummaries(detailedSummaries))
	if len(themes) > 0 {
		fmt.Fprintf(&b, "Known common themes: %s\n", strings.Join(themes, "; "))
	}
	if len(consensus) > 0 {
		fmt.Fprintf(&b, "Known consensus points: %s\n", strings.Join(consensus, "; "))
	}
	if len(conflicts) > 0 {
		fmt.Fprintf(&b, "Known conflicting views: %s\n", strings.Join(conflicts, "; "))
	}
	b.WriteString(`
**Instructions:**
Organize the body into two or more sections, each introduced by a "## " markdown heading followed by the section's prose content. Do not include a title line or executive summary; those are produced separately.`)
	return b.String()
}

func thematicAnalysisPrompt(topic string, detailedSummaries []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write one section of thematic analysis for a research report on %q.\n\n", topic)
	b.WriteString(joinDetailedSummaries(detailedSummaries))
	b.WriteString(`
Discuss how the themes relate, any trends emerging across sources, and their broader significance. Write only the section's prose content, no heading.`)
	return b.String()
}

func executiveSummaryPrompt(topic string, detailedSummaries []string, themes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write an executive summary for a research report on %q.\n\n", topic)
	b.WriteString(joinDetailedSummaries(detailedSummaries))
	if len(themes) > 0 {
		fmt.Fprintf(&b, "Themes: %s\n", strings.Join(themes, "; "))
	}
	b.WriteString(`
**Output Format (all three sections required):**
KEY FINDINGS:
- [finding 1]

MAIN INSIGHTS:
- [insight 1]

RECOMMENDATIONS:
- [recommendation 1]`)
	return b.String()
}
