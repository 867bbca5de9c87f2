// Package pipeline implements the orchestrator (spec 4.8): it sequences
// the Researcher, Extractor, Summarizer, and Synthesizer stages around
// the Memory subsystem's cache/dedup/persist operations, and exposes
// the four tool operations of spec 6. Grounded on the teacher's
// internal/pipeline orchestration style (sequential stage calls wrapped
// in one top-level error path, structured logging at each boundary).
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"briefly/internal/core"
	"briefly/internal/extract"
	"briefly/internal/llm"
	"briefly/internal/logger"
	"briefly/internal/memory"
	"briefly/internal/research"
	"briefly/internal/summarize"
	"briefly/internal/synthesize"
)

// Pipeline wires the four stages around a shared Memory store.
type Pipeline struct {
	researcher  *research.Stage
	extractor   *extract.Stage
	summarizer  *summarize.Stage
	synthesizer *synthesize.Stage
	store       *memory.Store

	useCache bool
}

// Options configures one Pipeline instance.
type Options struct {
	UseCache bool
}

// DefaultOptions returns the spec's documented default (cache enabled).
func DefaultOptions() Options {
	return Options{UseCache: true}
}

// New builds a Pipeline over already-constructed stages and a Memory store.
func New(researcher *research.Stage, extractor *extract.Stage, summarizer *summarize.Stage, synthesizer *synthesize.Stage, store *memory.Store, opts Options) *Pipeline {
	return &Pipeline{
		researcher:  researcher,
		extractor:   extractor,
		summarizer:  summarizer,
		synthesizer: synthesizer,
		store:       store,
		useCache:    opts.UseCache,
	}
}

// embedderAdapter bridges llm.Adapter's context-carrying Embed to the
// Memory subsystem's context-free Embedder capability.
type embedderAdapter struct {
	client llm.Adapter
}

func (a embedderAdapter) Embed(text string) ([]float32, error) {
	return a.client.Embed(context.Background(), text)
}

// NewEmbedder wraps an LLM adapter as a memory.Embedder.
func NewEmbedder(client llm.Adapter) memory.Embedder {
	return embedderAdapter{client: client}
}

// RunComplete implements research_complete_pipeline_with_memory (spec 6.1):
// topic in, a markdown report out, or a structured one-line error string.
func (p *Pipeline) RunComplete(ctx context.Context, topic string, maxResults int, useCache bool) string {
	report, err := p.run(ctx, topic, maxResults, useCache)
	if err != nil {
		p.recordFailure(topic, err)
		return errorString(err)
	}
	return report.FormattedOutputs["markdown"]
}

func clampMaxResults(maxResults int) int {
	if maxResults < 2 {
		return 2
	}
	if maxResults > 10 {
		return 10
	}
	return maxResults
}

func (p *Pipeline) run(ctx context.Context, topic string, maxResults int, useCache bool) (core.FinalReport, error) {
	maxResults = clampMaxResults(maxResults)

	// Step 1: cache lookup.
	if useCache && p.store != nil {
		cached, err := p.store.CacheGet(topic, memory.DefaultCacheTTL)
		if err != nil {
			logger.Warn("pipeline: cache lookup failed", "topic", topic, "error", err.Error())
		} else if cached != nil {
			logger.Info("pipeline: cache hit", "topic", topic)
			return *cached, nil
		}
	}

	// Step 2: context gathering (informational only).
	if p.store != nil {
		if related, err := p.store.RelatedTopics(topic, 0.5); err == nil && len(related) > 0 {
			logger.Info("pipeline: related topics found", "topic", topic, "related", strings.Join(related, "; "))
		}
	}

	query, err := core.NewResearchQuery(topic, nil, maxResults, core.SearchDepthBasic)
	if err != nil {
		return core.FinalReport{}, err
	}

	// Step 3: Researcher.
	researchOutput, err := p.researcher.Run(ctx, query)
	if err != nil {
		return core.FinalReport{}, err
	}

	urls := make([]string, 0, len(researchOutput.Results))
	for _, r := range researchOutput.Results {
		urls = append(urls, r.URL)
	}

	// Step 4: Extractor, then dedup within the batch and against memory.
	extraction, err := p.extractor.Run(ctx, urls, nil)
	if err != nil {
		return core.FinalReport{}, err
	}
	docs := extraction.Documents
	if p.store != nil {
		docs = p.dropDuplicates(docs)
	}
	if len(docs) == 0 {
		return core.FinalReport{}, &core.ExtractionFailure{Reason: "no documents remained after deduplication"}
	}

	// Step 5: Summarizer.
	summarization, err := p.summarizer.Run(ctx, docs)
	if err != nil {
		return core.FinalReport{}, err
	}

	// Step 6: Synthesizer.
	synthesis, err := p.synthesizer.Run(ctx, topic, summarization)
	if err != nil {
		return core.FinalReport{}, err
	}
	report := synthesis.Report

	// Step 7: persist.
	if p.store != nil {
		p.persist(docs, summarization, report, topic)
	}

	return report, nil
}

func (p *Pipeline) dropDuplicates(docs []core.Document) []core.Document {
	out := make([]core.Document, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		if seen[d.Content] {
			logger.Info("pipeline: dropped duplicate document", "url", d.URL)
			continue
		}
		seen[d.Content] = true
		dup, err := p.store.IsDuplicate(d.Content)
		if err != nil {
			logger.Warn("pipeline: duplicate check failed", "url", d.URL, "error", err.Error())
			out = append(out, d)
			continue
		}
		if dup {
			logger.Info("pipeline: dropped duplicate document", "url", d.URL)
			continue
		}
		out = append(out, d)
	}
	return out
}

func (p *Pipeline) persist(docs []core.Document, summarization core.SummarizationOutput, report core.FinalReport, topic string) {
	researchItems := make([]memory.NewItem, 0, len(docs))
	for _, d := range docs {
		researchItems = append(researchItems, memory.NewItem{Content: d.Content, Title: d.Title, URL: d.URL})
	}
	if _, err := p.store.AddItems(researchItems, memory.SourceResearch, true); err != nil {
		logger.Warn("pipeline: persist documents failed", "error", err.Error())
	}

	summaryItems := make([]memory.NewItem, 0, len(summarization.Summaries))
	for _, s := range summarization.Summaries {
		content := s.ExecutiveSummary
		if s.DetailedSummary != "" {
			content = s.DetailedSummary
		}
		summaryItems = append(summaryItems, memory.NewItem{Content: content, Title: s.Title, URL: s.URL})
	}
	if _, err := p.store.AddItems(summaryItems, memory.SourceSummary, true); err != nil {
		logger.Warn("pipeline: persist summaries failed", "error", err.Error())
	}

	synthesisContent := fmt.Sprintf("Synthèse: %s\n\n%s", topic, report.ExecutiveSummary.SummaryText)
	if _, err := p.store.AddItems([]memory.NewItem{{Content: synthesisContent, Title: "Synthèse: " + topic, URL: ""}}, memory.SourceSynthesis, true); err != nil {
		logger.Warn("pipeline: persist synthesis record failed", "error", err.Error())
	}

	if err := p.store.CachePut(topic, report); err != nil {
		logger.Warn("pipeline: cache_put failed", "error", err.Error())
	}

	if err := p.store.AppendConversation(memory.ConversationEntry{
		Timestamp: time.Now(),
		User:      topic,
		Assistant: fmt.Sprintf("Generated report %s with %d sources.", report.ReportID, len(report.Sources)),
		Metadata:  map[string]string{"report_id": report.ReportID},
	}); err != nil {
		logger.Warn("pipeline: conversation append failed", "error", err.Error())
	}
}

func (p *Pipeline) recordFailure(topic string, err error) {
	if p.store == nil {
		return
	}
	if appendErr := p.store.AppendConversation(memory.ConversationEntry{
		Timestamp: time.Now(),
		User:      topic,
		Assistant: errorString(err),
		Metadata:  map[string]string{"failed": "true"},
	}); appendErr != nil {
		logger.Warn("pipeline: failed to record failure in conversation log", "error", appendErr.Error())
	}
}

// errorString renders err as the single-line, error-kind-prefixed string
// spec 7 requires tool callers to receive on failure.
func errorString(err error) string {
	kind := "Error"
	switch err.(type) {
	case *core.ValidationError:
		kind = "ValidationError"
	case *core.SearchFailure:
		kind = "SearchFailure"
	case *core.ExtractionFailure:
		kind = "ExtractionFailure"
	case *core.LLMFailure:
		kind = "LLMFailure"
	case *core.RateLimitExceeded:
		kind = "RateLimitExceeded"
	case *core.TimeoutError:
		kind = "TimeoutError"
	case *core.MemoryError:
		kind = "MemoryError"
	case *core.ConfigError:
		kind = "ConfigError"
	}
	return fmt.Sprintf("%s: %s", kind, err.Error())
}
