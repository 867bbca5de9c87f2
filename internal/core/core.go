// Package core holds the domain entities shared across every pipeline
// stage: queries in, documents and summaries in flight, and the final
// report out. Stages receive these by value and return new values; none
// of them mutate state owned by an earlier stage.
package core

import (
	"strings"
	"time"
)

// SearchDepth controls how aggressively the Researcher stage widens its query.
type SearchDepth string

const (
	SearchDepthBasic    SearchDepth = "basic"
	SearchDepthAdvanced SearchDepth = "advanced"
)

// ResearchQuery is the immutable input to a pipeline run. Topic and
// Keywords together determine the cache fingerprint used for memoization.
type ResearchQuery struct {
	Topic       string      `json:"topic"`        // non-empty, >= 3 characters
	Keywords    []string    `json:"keywords"`      // ordered, deduplicated case-insensitively against Topic
	MaxResults  int         `json:"max_results"`   // 1..20
	SearchDepth SearchDepth `json:"search_depth"`  // basic | advanced
}

// NewResearchQuery validates and constructs a ResearchQuery.
func NewResearchQuery(topic string, keywords []string, maxResults int, depth SearchDepth) (ResearchQuery, error) {
	if len(topic) < 3 {
		return ResearchQuery{}, &ValidationError{Field: "topic", Reason: "must be at least 3 characters"}
	}
	if maxResults < 1 || maxResults > 20 {
		return ResearchQuery{}, &ValidationError{Field: "max_results", Reason: "must be between 1 and 20"}
	}
	if depth != SearchDepthBasic && depth != SearchDepthAdvanced {
		return ResearchQuery{}, &ValidationError{Field: "search_depth", Reason: "must be basic or advanced"}
	}
	return ResearchQuery{
		Topic:       topic,
		Keywords:    dedupeKeywordsAgainstTopic(topic, keywords),
		MaxResults:  maxResults,
		SearchDepth: depth,
	}, nil
}

func dedupeKeywordsAgainstTopic(topic string, keywords []string) []string {
	topicLower := strings.ToLower(topic)
	seen := map[string]bool{}
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kwLower := strings.ToLower(kw)
		if kwLower == "" || seen[kwLower] || strings.Contains(topicLower, kwLower) {
			continue
		}
		seen[kwLower] = true
		out = append(out, kw)
	}
	return out
}

// SearchResult is one candidate source surfaced by the Researcher stage.
type SearchResult struct {
	Title         string     `json:"title"`
	URL           string     `json:"url"`      // absolute http/https
	Snippet       string     `json:"snippet"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	Source        string     `json:"source"` // host
	Score         float64    `json:"score"`  // 0..1
}

// ResearchOutput is the Researcher stage's result: ranked SearchResults
// plus which provider ultimately served them.
type ResearchOutput struct {
	Query       ResearchQuery  `json:"query"`
	Results     []SearchResult `json:"results"`
	SearchEngine string        `json:"search_engine"` // name of the provider that served the results
	ElapsedTime time.Duration  `json:"elapsed_time"`
}

// DocType classifies a fetched and cleaned source.
type DocType string

const (
	DocTypeArticle        DocType = "article"
	DocTypeBlogPost       DocType = "blog_post"
	DocTypeAcademicPaper  DocType = "academic_paper"
	DocTypeNews           DocType = "news"
	DocTypeReport         DocType = "report"
	DocTypeOther          DocType = "other"
)

// Document is a fetched and cleaned source, produced by the Extractor and
// consumed by the Summarizer.
type Document struct {
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	Content       string     `json:"content"` // plain text, cleaned
	DocType       DocType    `json:"doc_type"`
	Author        string     `json:"author,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	WordCount     int        `json:"word_count"`
	Language      string     `json:"language"` // default "fr"
}

// KeyPoint is one bullet of analytic output from the Summarizer.
type KeyPoint struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Importance float64 `json:"importance"` // 0..1
	Category   string  `json:"category,omitempty"`
}

// Sentiment classifies a document's overall tone.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// DocumentSummary is the per-document analytic output of the Summarizer stage.
type DocumentSummary struct {
	DocumentID       string     `json:"document_id"` // deterministic hash of URL+Title
	Title            string     `json:"title"`
	URL              string     `json:"url"`
	ExecutiveSummary string     `json:"executive_summary"` // 1-3 sentences
	DetailedSummary  string     `json:"detailed_summary"`  // one or more paragraphs
	KeyPoints        []KeyPoint `json:"key_points"`
	Sentiment        *Sentiment `json:"sentiment,omitempty"`
	CredibilityScore *float64   `json:"credibility_score,omitempty"` // 0..1
	ProcessedAt      time.Time  `json:"processed_at"`
	ProcessingTime   time.Duration `json:"processing_time"`
	Error            string     `json:"error,omitempty"` // set for document-level failures
}

// ExtractionStats are aggregate diagnostics over one Extractor run.
type ExtractionStats struct {
	AverageQualityScore float64 `json:"average_quality_score"`
	AverageWordCount    float64 `json:"average_word_count"`
	DocTypeCounts       map[DocType]int `json:"doc_type_counts"`
}

// ExtractionResult is the Content Extractor stage's result.
type ExtractionResult struct {
	Documents            []Document      `json:"documents"`
	FailedURLs           []string        `json:"failed_urls"`
	TotalURLs            int             `json:"total_urls"`
	SuccessfulExtractions int            `json:"successful_extractions"`
	FailedExtractions    int             `json:"failed_extractions"`
	ElapsedTime          time.Duration   `json:"elapsed_time"`
	Stats                ExtractionStats `json:"stats"`
}

// SummarizationOutput aggregates per-document summaries with cross-document analysis.
type SummarizationOutput struct {
	Summaries             []DocumentSummary `json:"summaries"`
	TotalDocuments         int              `json:"total_documents"`
	TotalProcessingTime    time.Duration    `json:"total_processing_time"`
	AverageCredibility     *float64         `json:"average_credibility,omitempty"`
	CommonThemes           []string         `json:"common_themes"`
	ConsensusPoints        []string         `json:"consensus_points"`
	ConflictingViews       []string         `json:"conflicting_views"`
}

// ReportSection is one ordered section of the main body of a FinalReport.
type ReportSection struct {
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	Order        int             `json:"order"`
	Subsections  []ReportSection `json:"subsections,omitempty"`
}

// ExecutiveSummary is the structured summary block at the top of a FinalReport.
type ExecutiveSummary struct {
	KeyFindings     []string `json:"key_findings"`
	MainInsights    []string `json:"main_insights"`
	Recommendations []string `json:"recommendations"`
	SummaryText     string   `json:"summary_text"`
}

// Methodology documents how a FinalReport was produced.
type Methodology struct {
	ResearchApproach      string   `json:"research_approach"`
	SourcesCount          int      `json:"sources_count"`
	AnalysisMethods       []string `json:"analysis_methods"`
	Limitations           []string `json:"limitations"`
	DataQualityAssessment string   `json:"data_quality_assessment"`
}

// SourceReference is one citable source backing a FinalReport.
type SourceReference struct {
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	CredibilityScore *float64 `json:"credibility_score,omitempty"`
	CitationCount int        `json:"citation_count"`
}

// FinalReport is the terminal artifact produced by the Global Synthesizer.
type FinalReport struct {
	ReportID              string           `json:"report_id"` // rpt_<YYYYMMDD_HHMM>_<md5(topic)[:8]>
	Title                 string           `json:"title"`
	Topic                 string           `json:"topic"`
	ReportType            string           `json:"report_type"`
	ReportFormat          string           `json:"report_format"`
	ExecutiveSummary      ExecutiveSummary `json:"executive_summary"`
	Introduction          string           `json:"introduction"`
	MainSections          []ReportSection  `json:"main_sections"`
	Conclusion            string           `json:"conclusion"`
	KeyThemes             []string         `json:"key_themes"`
	ConsensusPoints       []string         `json:"consensus_points"`
	ConflictingViewpoints []string         `json:"conflicting_viewpoints"`
	EmergingTrends        []string         `json:"emerging_trends"`
	Methodology           Methodology      `json:"methodology"`
	Sources               []SourceReference `json:"sources"`
	ConfidenceScore       float64          `json:"confidence_score"`
	CompletenessScore     float64          `json:"completeness_score"`
	WordCount             int              `json:"word_count"`
	FormattedOutputs      map[string]string `json:"formatted_outputs"` // markdown, text, html
	GeneratedAt           time.Time        `json:"generated_at"`
}

// GlobalSynthesisOutput is the Global Synthesizer stage's result.
type GlobalSynthesisOutput struct {
	Report      FinalReport   `json:"report"`
	ElapsedTime time.Duration `json:"elapsed_time"`
}

