package summarize

import (
	"strings"

	"briefly/internal/core"
)

const defaultMaxKeyPoints = 5

// parseKeyPoints pulls "- " / "• " bullet lines out of a detailed-analysis
// response into KeyPoints with the spec's default importance, capped at max.
func parseKeyPoints(response string, max int) []core.KeyPoint {
	var points []core.KeyPoint
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		content, ok := stripBullet(line)
		if !ok || content == "" {
			continue
		}
		points = append(points, core.KeyPoint{
			Title:      firstClause(content),
			Content:    content,
			Importance: 0.8,
		})
		if len(points) >= max {
			break
		}
	}
	return points
}

func stripBullet(line string) (string, bool) {
	for _, prefix := range []string{"- ", "• "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}

func firstClause(s string) string {
	if idx := strings.IndexAny(s, ".;"); idx > 0 && idx < 80 {
		return s[:idx]
	}
	if len(s) > 60 {
		return s[:60]
	}
	return s
}

// splitDetailedAnalysis separates the "DETAILED ANALYSIS:" prose from the
// "KEY POINTS:" bullet section in a detailedAnalysisPrompt response.
func splitDetailedAnalysis(response string) (prose string, bullets string) {
	upper := strings.ToUpper(response)
	keyIdx := strings.Index(upper, "KEY POINTS:")
	if keyIdx < 0 {
		return strings.TrimSpace(response), ""
	}
	prose = response[:keyIdx]
	bullets = response[keyIdx:]
	prose = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(prose), "DETAILED ANALYSIS:"))
	return prose, bullets
}

var positiveKeywords = []string{"positive", "growth", "success", "improve", "benefit", "gain", "strong", "opportunity"}
var negativeKeywords = []string{"negative", "decline", "failure", "risk", "concern", "loss", "weak", "crisis", "threat"}

// classifySentiment classifies positive/negative/neutral by keyword
// presence in the model's stated tone line, grounded on the teacher's
// internal/sentiment keyword-weighted classifier, trimmed to a simple
// presence count per spec 4.3.
func classifySentiment(response string) core.Sentiment {
	lower := strings.ToLower(response)
	if idx := strings.Index(lower, "tone:"); idx >= 0 {
		lower = lower[idx:]
	}
	var pos, neg int
	for _, kw := range positiveKeywords {
		if strings.Contains(lower, kw) {
			pos++
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return core.SentimentPositive
	case neg > pos:
		return core.SentimentNegative
	default:
		return core.SentimentNeutral
	}
}

// allSectionKeys lists every section label this parser recognizes across
// both prompt kinds, so a line naming one of these (but not the section
// currently being matched) ends the current section rather than being
// swallowed as a bullet. Keyword lists carry French and English synonyms
// per spec open question 4.4/13.2: the Summarizer's own prompts ask for
// English headers, but an upstream LLM may still answer in French.
var allSectionKeys = [][]string{
	{"thème", "theme"},
	{"consensus"},
	{"conflit", "contradictoire", "conflict"},
}

// splitSection extracts the bullet lines under a labeled section whose
// header line contains any of keys (case-insensitive), stopping once a
// line naming a different recognized section label is seen.
func splitSection(response string, keys ...string) []string {
	lines := strings.Split(response, "\n")
	var inSection bool
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if isSectionHeader(trimmed) {
			if containsAny(lower, keys) {
				inSection = true
			} else if matchesAnyOtherSection(lower, keys) {
				inSection = false
			}
			continue
		}
		if inSection {
			if content, ok := stripBullet(trimmed); ok && content != "" {
				out = append(out, content)
			}
		}
	}
	return out
}

func matchesAnyOtherSection(lower string, current []string) bool {
	for _, group := range allSectionKeys {
		if containsAny(lower, group) && !containsAny(lower, current) {
			return true
		}
	}
	return false
}

func isSectionHeader(line string) bool {
	return strings.HasSuffix(line, ":") && len(line) > 1
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
