package summarize

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"briefly/internal/chunker"
	"briefly/internal/core"
	"briefly/internal/llm"
	"briefly/internal/logger"

	"github.com/sourcegraph/conc/pool"
)

const (
	maxDocuments         = 20
	defaultChunkThreshold = 6000
	maxConcurrentSummaries = 3
)

// Options configures one Summarizer run (spec 4.3).
type Options struct {
	DetailedAnalysis bool
	IncludeSentiment bool
	MaxKeyPoints     int
	ChunkThreshold   int
	ChunkingEnabled  bool
	MaxWorkers       int
}

// DefaultOptions returns the spec's documented defaults.
func DefaultOptions() Options {
	return Options{
		DetailedAnalysis: true,
		IncludeSentiment: true,
		MaxKeyPoints:     defaultMaxKeyPoints,
		ChunkThreshold:   defaultChunkThreshold,
		ChunkingEnabled:  true,
		MaxWorkers:       maxConcurrentSummaries,
	}
}

// Stage is the Summarizer capability: Documents in, a SummarizationOutput out.
type Stage struct {
	llmClient llm.Adapter
	opts      Options
}

// NewStage builds a Summarizer stage over an LLM adapter.
func NewStage(llmClient llm.Adapter, opts Options) *Stage {
	if opts.MaxKeyPoints <= 0 {
		opts.MaxKeyPoints = defaultMaxKeyPoints
	}
	if opts.ChunkThreshold <= 0 {
		opts.ChunkThreshold = defaultChunkThreshold
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = maxConcurrentSummaries
	}
	return &Stage{llmClient: llmClient, opts: opts}
}

// Run summarizes each document and, for two or more, derives
// cross-document analysis, per spec 4.3.
func (s *Stage) Run(ctx context.Context, docs []core.Document) (core.SummarizationOutput, error) {
	if len(docs) == 0 || len(docs) > maxDocuments {
		return core.SummarizationOutput{}, &core.ValidationError{Field: "documents", Reason: "must supply 1..20 documents"}
	}
	for _, d := range docs {
		if strings.TrimSpace(d.Content) == "" {
			return core.SummarizationOutput{}, &core.ValidationError{Field: "documents", Reason: "document content must not be empty"}
		}
	}

	start := time.Now()
	summaries := make([]core.DocumentSummary, len(docs))

	p := pool.New().WithMaxGoroutines(s.opts.MaxWorkers)
	for i, doc := range docs {
		i, doc := i, doc
		p.Go(func() {
			summaries[i] = s.summarizeOne(ctx, doc)
		})
	}
	p.Wait()

	output := core.SummarizationOutput{
		Summaries:          summaries,
		TotalDocuments:      len(summaries),
		TotalProcessingTime: time.Since(start),
	}
	output.AverageCredibility = averageCredibility(summaries)

	if len(summaries) >= 2 {
		themes, consensus, conflicts := s.crossDocumentAnalysis(ctx, summaries)
		output.CommonThemes = themes
		output.ConsensusPoints = consensus
		output.ConflictingViews = conflicts
	}

	logger.Info("summarizer stage completed", "documents", len(docs), "elapsed", output.TotalProcessingTime.String())
	return output, nil
}

func documentID(url, title string) string {
	sum := md5.Sum([]byte(url + "|" + title))
	return "doc_" + hex.EncodeToString(sum[:])[:16]
}

func (s *Stage) summarizeOne(ctx context.Context, doc core.Document) core.DocumentSummary {
	start := time.Now()
	id := documentID(doc.URL, doc.Title)

	var summary core.DocumentSummary
	var err error
	if s.opts.ChunkingEnabled && len(doc.Content) > s.opts.ChunkThreshold {
		summary, err = s.summarizeLarge(ctx, doc)
	} else {
		summary, err = s.summarizeStandard(ctx, doc)
	}

	summary.DocumentID = id
	summary.Title = doc.Title
	summary.URL = doc.URL
	summary.ProcessedAt = time.Now()
	summary.ProcessingTime = time.Since(start)
	if len(summary.KeyPoints) > s.opts.MaxKeyPoints {
		summary.KeyPoints = summary.KeyPoints[:s.opts.MaxKeyPoints]
	}

	if err != nil {
		summary.Error = err.Error()
		logger.Warn("summarizer: document failed", "url", doc.URL, "error", err.Error())
	}
	return summary
}

// summarizeStandard issues up to three concurrent LLM calls per spec 4.3.
func (s *Stage) summarizeStandard(ctx context.Context, doc core.Document) (core.DocumentSummary, error) {
	var (
		wg                                    sync.WaitGroup
		executive, detailedRaw, sentimentRaw string
		executiveErr                          error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		executive, executiveErr = s.llmClient.Completion(ctx, executiveSummaryPrompt(doc.Title, doc.Content), "", llm.DefaultCompletionParams())
	}()

	if s.opts.DetailedAnalysis {
		wg.Add(1)
		go func() {
			defer wg.Done()
			detailedRaw, _ = s.llmClient.Completion(ctx, detailedAnalysisPrompt(doc.Title, doc.Content, s.opts.MaxKeyPoints), "", llm.DefaultCompletionParams())
		}()
	}
	if s.opts.IncludeSentiment {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sentimentRaw, _ = s.llmClient.Completion(ctx, sentimentPrompt(doc.Content), "", llm.DefaultCompletionParams())
		}()
	}
	wg.Wait()

	if executiveErr != nil {
		return core.DocumentSummary{}, fmt.Errorf("executive summary: %w", executiveErr)
	}

	summary := core.DocumentSummary{ExecutiveSummary: strings.TrimSpace(executive)}

	if detailedRaw != "" {
		prose, bullets := splitDetailedAnalysis(detailedRaw)
		summary.DetailedSummary = prose
		summary.KeyPoints = parseKeyPoints(bullets, s.opts.MaxKeyPoints)
	}
	if sentimentRaw != "" {
		sentiment := classifySentiment(sentimentRaw)
		summary.Sentiment = &sentiment
		score := llm.ParseScore(sentimentRaw, 0.5)
		summary.CredibilityScore = &score
	}
	return summary, nil
}

// summarizeLarge chunks the content, summarizes chunks in parallel, then
// synthesizes one unified DocumentSummary, per spec 4.3.
func (s *Stage) summarizeLarge(ctx context.Context, doc core.Document) (core.DocumentSummary, error) {
	chunks := chunker.Chunk(doc.Content, chunker.StrategyDefault)
	if len(chunks) == 0 {
		return s.summarizeStandard(ctx, doc)
	}

	chunkSummaries := make([]string, len(chunks))
	p := pool.New()
	for i, c := range chunks {
		i, c := i, c
		p.Go(func() {
			text, err := s.llmClient.Completion(ctx, chunkSummaryPrompt(c.Content, c.ChunkID, c.TotalChunks), "", llm.DefaultCompletionParams())
			if err != nil {
				logger.Warn("summarizer: chunk summary failed", "chunk", c.ChunkID, "error", err.Error())
				return
			}
			chunkSummaries[i] = text
		})
	}
	p.Wait()

	synthesis, err := s.llmClient.Completion(ctx, chunkSynthesisPrompt(doc.Title, chunkSummaries, s.opts.MaxKeyPoints), "", llm.DefaultCompletionParams())
	if err != nil {
		return fallbackFromChunks(chunkSummaries), nil
	}

	summary, ok := parseSynthesis(synthesis, s.opts.MaxKeyPoints)
	if !ok {
		return fallbackFromChunks(chunkSummaries), nil
	}
	return summary, nil
}

func fallbackFromChunks(chunkSummaries []string) core.DocumentSummary {
	joined := strings.TrimSpace(strings.Join(chunkSummaries, " "))
	exec := joined
	if len(exec) > 300 {
		exec = exec[:300] + "..."
	}
	return core.DocumentSummary{ExecutiveSummary: exec, DetailedSummary: joined}
}

// parseSynthesis parses a chunkSynthesisPrompt response's four labeled
// sections; ok is false if the required headers are missing, signaling
// the caller to fall back to concatenated chunk summaries.
func parseSynthesis(response string, maxKeyPoints int) (core.DocumentSummary, bool) {
	upper := strings.ToUpper(response)
	if !strings.Contains(upper, "EXECUTIVE SUMMARY:") || !strings.Contains(upper, "DETAILED SUMMARY:") {
		return core.DocumentSummary{}, false
	}

	exec := sectionBetween(response, "EXECUTIVE SUMMARY:", "DETAILED SUMMARY:")
	detailed := sectionBetween(response, "DETAILED SUMMARY:", "KEY POINTS:")
	bullets := sectionBetween(response, "KEY POINTS:", "SENTIMENT:")
	sentimentBlock := ""
	if idx := indexOfInsensitive(response, "SENTIMENT:"); idx >= 0 {
		sentimentBlock = response[idx:]
	}

	summary := core.DocumentSummary{
		ExecutiveSummary: strings.TrimSpace(exec),
		DetailedSummary:  strings.TrimSpace(detailed),
		KeyPoints:        parseKeyPoints(bullets, maxKeyPoints),
	}
	if sentimentBlock != "" {
		sentiment := classifySentiment(sentimentBlock)
		summary.Sentiment = &sentiment
		score := llm.ParseScore(sentimentBlock, 0.5)
		summary.CredibilityScore = &score
	}
	return summary, true
}

func sectionBetween(text, startMarker, endMarker string) string {
	startIdx := indexOfInsensitive(text, startMarker)
	if startIdx < 0 {
		return ""
	}
	startIdx += len(startMarker)
	rest := text[startIdx:]
	endIdx := indexOfInsensitive(rest, endMarker)
	if endIdx < 0 {
		return rest
	}
	return rest[:endIdx]
}

func indexOfInsensitive(text, marker string) int {
	return strings.Index(strings.ToUpper(text), strings.ToUpper(marker))
}

func averageCredibility(summaries []core.DocumentSummary) *float64 {
	var sum float64
	var count int
	for _, s := range summaries {
		if s.CredibilityScore != nil {
			sum += *s.CredibilityScore
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}

// crossDocumentAnalysis issues one additional LLM call over all detailed
// summaries, per spec 4.3. A call failure yields three empty lists.
func (s *Stage) crossDocumentAnalysis(ctx context.Context, summaries []core.DocumentSummary) (themes, consensus, conflicts []string) {
	detailed := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if s.DetailedSummary != "" {
			detailed = append(detailed, s.DetailedSummary)
		} else {
			detailed = append(detailed, s.ExecutiveSummary)
		}
	}

	response, err := s.llmClient.Completion(ctx, crossDocumentPrompt(detailed), "", llm.DefaultCompletionParams())
	if err != nil {
		logger.Warn("summarizer: cross-document analysis failed", "error", err.Error())
		return nil, nil, nil
	}

	themes = splitSection(response, "thème", "theme")
	consensus = splitSection(response, "consensus")
	conflicts = splitSection(response, "conflit", "contradictoire", "conflict")
	return themes, consensus, conflicts
}
