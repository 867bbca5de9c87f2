package synthesize

import (
	"strings"

	"briefly/internal/core"
)

// splitIntoSections splits body on "## " markdown headings into ordered
// ReportSections; if none are found, the whole body becomes one
// "General Analysis" section, per spec 4.4.
func splitIntoSections(body string) []core.ReportSection {
	lines := strings.Split(body, "\n")
	var sections []core.ReportSection
	var title string
	var content strings.Builder
	flush := func() {
		if title == "" && content.Len() == 0 {
			return
		}
		sections = append(sections, core.ReportSection{
			Title:   title,
			Content: strings.TrimSpace(content.String()),
			Order:   len(sections) + 1,
		})
		content.Reset()
	}

	found := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "## ") {
			if found {
				flush()
			}
			found = true
			title = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "## "))
			continue
		}
		if found {
			content.WriteString(line)
			content.WriteString("\n")
		}
	}
	if found {
		flush()
	}

	if len(sections) == 0 {
		trimmed := strings.TrimSpace(body)
		if trimmed == "" {
			return nil
		}
		return []core.ReportSection{{Title: "General Analysis", Content: trimmed, Order: 1}}
	}
	return sections
}

func appendThematicSection(sections []core.ReportSection, thematic string) []core.ReportSection {
	thematic = strings.TrimSpace(thematic)
	if thematic == "" {
		return sections
	}
	return append(sections, core.ReportSection{
		Title:   "Thematic Analysis",
		Content: thematic,
		Order:   len(sections) + 1,
	})
}

var executiveSectionMarkers = []string{"key findings", "main insights", "recommendations"}

// parseExecutiveSummary parses the labeled bullet sections from an
// executiveSummaryPrompt response; if no findings bullets are found it
// falls back to the first three sentences of the response as findings.
func parseExecutiveSummary(response string) core.ExecutiveSummary {
	findings := extractBulletSection(response, "key findings")
	insights := extractBulletSection(response, "main insights")
	recommendations := extractBulletSection(response, "recommendations")

	if len(findings) == 0 {
		findings = firstNSentences(response, 3)
	}

	return core.ExecutiveSummary{
		KeyFindings:     findings,
		MainInsights:    insights,
		Recommendations: recommendations,
		SummaryText:     strings.TrimSpace(response),
	}
}

func extractBulletSection(response, marker string) []string {
	lines := strings.Split(response, "\n")
	var inSection bool
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if strings.HasSuffix(trimmed, ":") {
			inSection = containsMarker(lower, marker) || (inSection && !matchesOtherMarker(lower, marker))
			if containsMarker(lower, marker) {
				continue
			}
			if !inSection {
				continue
			}
		}
		if inSection {
			if content, ok := stripBullet(trimmed); ok && content != "" {
				out = append(out, content)
			}
		}
	}
	return out
}

func containsMarker(lower, marker string) bool {
	return strings.Contains(lower, marker)
}

func matchesOtherMarker(lower, current string) bool {
	for _, m := range executiveSectionMarkers {
		if m != current && strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func stripBullet(line string) (string, bool) {
	for _, prefix := range []string{"- ", "• "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}

// firstNSentences splits on ". " as a simple sentence boundary, returning
// up to n non-empty trimmed sentences.
func firstNSentences(text string, n int) []string {
	parts := strings.Split(strings.TrimSpace(text), ". ")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimRight(p, "."))
		if p == "" {
			continue
		}
		out = append(out, p+".")
		if len(out) >= n {
			break
		}
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// extractEmergingTrends pulls sentences mentioning "trend" out of the
// thematic-analysis response rather than issuing a dedicated trends
// LLM call.
func extractEmergingTrends(thematic string) []string {
	var out []string
	for _, sentence := range strings.Split(thematic, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if strings.Contains(strings.ToLower(sentence), "trend") {
			out = append(out, sentence+".")
		}
	}
	return out
}
