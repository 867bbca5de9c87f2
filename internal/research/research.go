// Package research implements the Researcher stage (spec 4.1): topic in,
// ranked search results out. Keyword augmentation and the weighted
// relevance scoring are grounded on the teacher's
// internal/deepresearch/ranker.go EmbeddingRanker — reimplemented against
// the new ResearchQuery/SearchResult domain types and the search.Registry
// failover adapter instead of the teacher's single-provider Source slice.
package research

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"briefly/internal/core"
	"briefly/internal/llm"
	"briefly/internal/logger"
	"briefly/internal/search"
)

const (
	minKeywords         = 3
	maxKeywords         = 7
	fallbackMaxKeywords = 5
	minScoreThreshold   = 0.1
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "been": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
}

var numberedPrefix = regexp.MustCompile(`^[\s\-\*\d\.\)]+`)

// Stage is the Researcher capability: a ResearchQuery in, a ranked
// ResearchOutput out.
type Stage struct {
	providers *search.Registry
	llmClient llm.Adapter
}

// NewStage builds a Researcher stage over a provider registry and an LLM
// adapter used for keyword augmentation.
func NewStage(providers *search.Registry, llmClient llm.Adapter) *Stage {
	return &Stage{providers: providers, llmClient: llmClient}
}

// Run executes one Researcher pass per spec 4.1.
func (s *Stage) Run(ctx context.Context, query core.ResearchQuery) (core.ResearchOutput, error) {
	start := time.Now()

	keywords := query.Keywords
	if isWeak(keywords) {
		keywords = s.augmentKeywords(ctx, query.Topic)
	}

	composedQuery := composeQuery(query.Topic, keywords, query.SearchDepth)

	rawResults, providerName, err := s.providers.Search(ctx, composedQuery, search.Config{
		MaxResults: query.MaxResults,
		Language:   "en",
	})
	if err != nil {
		return core.ResearchOutput{}, err
	}

	scoringTerms := scoringTerms(query.Topic, keywords)
	ranked := rank(rawResults, scoringTerms)

	if len(ranked) > query.MaxResults {
		ranked = ranked[:query.MaxResults]
	}

	logger.Info("researcher stage completed", "topic", query.Topic, "provider", providerName, "results", len(ranked))

	return core.ResearchOutput{
		Query:        query,
		Results:      ranked,
		SearchEngine: providerName,
		ElapsedTime:  time.Since(start),
	}, nil
}

func isWeak(keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	nonTrivial := 0
	for _, k := range keywords {
		if len(strings.TrimSpace(k)) >= 2 {
			nonTrivial++
		}
	}
	return nonTrivial == 0
}

// augmentKeywords derives 3-7 keywords from the topic via one low-temperature
// LLM call, falling back to a stop-word-filtered topic split on failure.
func (s *Stage) augmentKeywords(ctx context.Context, topic string) []string {
	prompt := fmt.Sprintf("List 3 to 7 concise search keywords for the research topic %q, separated by commas. Respond with only the keyword list, no commentary.", topic)
	params := llm.DefaultCompletionParams()
	params.Temperature = 0.1

	text, err := s.llmClient.Completion(ctx, prompt, "", params)
	if err != nil {
		logger.Warn("keyword augmentation LLM call failed, falling back", "error", err.Error())
		return fallbackKeywords(topic)
	}

	var keywords []string
	for _, part := range strings.Split(text, ",") {
		part = numberedPrefix.ReplaceAllString(strings.TrimSpace(part), "")
		part = strings.TrimSpace(part)
		lower := strings.ToLower(part)
		if len(part) < 2 || stopWords[lower] {
			continue
		}
		keywords = append(keywords, part)
		if len(keywords) >= maxKeywords {
			break
		}
	}
	if len(keywords) < minKeywords {
		return fallbackKeywords(topic)
	}
	return keywords
}

func fallbackKeywords(topic string) []string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(topic)) {
		word = strings.Trim(word, ".,!?;:")
		if len(word) < 3 || stopWords[word] {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) >= fallbackMaxKeywords {
			break
		}
	}
	return keywords
}

// composeQuery concatenates topic with keywords not already present in the
// topic (case-insensitive substring), appending a recency hint for advanced
// search depth.
func composeQuery(topic string, keywords []string, depth core.SearchDepth) string {
	parts := []string{topic}
	topicLower := strings.ToLower(topic)
	for _, kw := range keywords {
		if !strings.Contains(topicLower, strings.ToLower(kw)) {
			parts = append(parts, kw)
		}
	}
	if depth == core.SearchDepthAdvanced {
		now := time.Now()
		parts = append(parts, fmt.Sprintf("%d", now.Year()), fmt.Sprintf("%d", now.Year()-1))
	}
	return strings.Join(parts, " ")
}

func scoringTerms(topic string, keywords []string) []string {
	terms := []string{strings.ToLower(topic)}
	for _, kw := range keywords {
		terms = append(terms, strings.ToLower(kw))
	}
	return terms
}

// rank scores each result per spec 4.1's weighted formula, drops results
// below the minimum threshold, and sorts descending (ties keep provider order).
func rank(results []search.Result, terms []string) []core.SearchResult {
	scored := make([]core.SearchResult, 0, len(results))
	for _, r := range results {
		score := relevanceScore(r, terms)
		if score < minScoreThreshold {
			continue
		}
		var published *time.Time
		if !r.PublishedAt.IsZero() {
			t := r.PublishedAt
			published = &t
		}
		scored = append(scored, core.SearchResult{
			Title:         r.Title,
			URL:           r.URL,
			Snippet:       r.Snippet,
			PublishedDate: published,
			Source:        r.Domain,
			Score:         score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

func relevanceScore(r search.Result, terms []string) float64 {
	titleLower := strings.ToLower(r.Title)
	combinedLower := strings.ToLower(r.Title + " " + r.Snippet)

	combinedFrac := fractionPresent(terms, combinedLower)
	titleFrac := fractionPresent(terms, titleLower)

	score := combinedFrac*0.6 + titleFrac*0.3

	if !r.PublishedAt.IsZero() {
		daysOld := time.Since(r.PublishedAt).Hours() / 24
		recency := math.Max(0, 1-daysOld/365)
		score += recency * 0.1
	}

	if r.ProviderScore != nil {
		score = (score + *r.ProviderScore) / 2
	}

	return clamp01(score)
}

func fractionPresent(terms []string, haystack string) float64 {
	if len(terms) == 0 {
		return 0
	}
	matched := 0
	for _, term := range terms {
		if term != "" && strings.Contains(haystack, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
