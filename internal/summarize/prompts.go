// Package summarize implements the Summarizer stage (spec 4.3):
// documents in, one DocumentSummary each plus cross-document analysis
// out. Prompt shapes are grounded on the teacher's
// internal/summarize/prompts.go fact-extraction style (labeled
// sections, truncateContent helper), re-pointed at the spec's own
// executive/detailed/sentiment/chunk/cross-document prompt kinds
// instead of the teacher's newsletter digest prompt.
package summarize

import (
	"fmt"
	"strings"
)

func truncateContent(content string, maxChars int) string {
	if len(content) <= maxChars {
		return content
	}
	truncated := content[:maxChars]
	if idx := strings.LastIndex(truncated, ". "); idx > maxChars/2 {
		truncated = truncated[:idx+1]
	} else if idx := strings.LastIndex(truncated, " "); idx > 0 {
		truncated = truncated[:idx]
	}
	return truncated + "..."
}

func executiveSummaryPrompt(title, content string) string {
	return fmt.Sprintf(`Write a 1-3 sentence executive summary of this source.

**Title:** %s

**Content:**
%s

Return only the summary text, no preamble.`, title, truncateContent(content, 4000))
}

func detailedAnalysisPrompt(title, content string, maxKeyPoints int) string {
	return fmt.Sprintf(`Analyze this source in detail.

**Title:** %s

**Content:**
%s

**Instructions:**
1. Write one or more paragraphs of detailed analysis.
2. Then list up to %d key points as a bulleted list ("- " prefix), each a single concrete fact or insight.

**Output Format:**
DETAILED ANALYSIS:
[your paragraphs here]

KEY POINTS:
- [point 1]
- [point 2]`, title, truncateContent(content, 6000), maxKeyPoints)
}

func sentimentPrompt(content string) string {
	return fmt.Sprintf(`Assess the overall tone and source credibility of this content.

**Content:**
%s

**Instructions:**
1. State whether the overall tone is positive, negative, or neutral.
2. Rate the source's credibility from 0 to 10 as "credibility: X".

**Output Format:**
TONE: [positive|negative|neutral]
credibility: [0-10]`, truncateContent(content, 3000))
}

func chunkSummaryPrompt(chunkContent string, chunkID, totalChunks int) string {
	return fmt.Sprintf(`Summarize part %d of %d of a longer document. Capture its key facts concisely.

**Content:**
%s

Return only the summary.`, chunkID, totalChunks, truncateContent(chunkContent, 4000))
}

func chunkSynthesisPrompt(title string, chunkSummaries []string, maxKeyPoints int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Combine these sequential part-summaries of one document (%q) into one unified analysis.\n\n", title)
	for i, s := range chunkSummaries {
		fmt.Fprintf(&b, "Part %d: %s\n\n", i+1, s)
	}
	fmt.Fprintf(&b, `**Output Format (all four sections required):**
EXECUTIVE SUMMARY:
[1-3 sentences]

DETAILED SUMMARY:
[one or more paragraphs]

KEY POINTS:
- [up to %d bullet points]

SENTIMENT:
TONE: [positive|negative|neutral]
credibility: [0-10]`, maxKeyPoints)
	return b.String()
}

func crossDocumentPrompt(detailedSummaries []string) string {
	var b strings.Builder
	b.WriteString("Analyze these detailed summaries from multiple sources on the same topic.\n\n")
	for i, s := range detailedSummaries {
		fmt.Fprintf(&b, "Source %d:\n%s\n\n", i+1, truncateContent(s, 1500))
	}
	b.WriteString(`**Output Format (all three sections required):**
COMMON THEMES:
- [theme 1]

CONSENSUS POINTS:
- [point 1]

CONFLICTING VIEWS:
- [view 1]`)
	return b.String()
}
