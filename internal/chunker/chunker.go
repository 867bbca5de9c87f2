// Package chunker splits oversized documents into overlapping,
// structure-aware chunks so the Summarizer can stay within an LLM's
// context window. Grounded on the paragraph-boundary splitter of
// bachir00/ai-research-assistant's src/services/text_chunking.py,
// reimplemented with Go's regexp/strings rather than a third-party
// text-splitting library — none of the retrieved example repos reach
// for one, they all hand-roll paragraph/sentence splitting.
package chunker

import (
	"regexp"
	"strings"
)

// Strategy names a fixed entry in the chunk-sizing registry.
type Strategy string

const (
	StrategyDefault  Strategy = "default"
	StrategySmall    Strategy = "small"
	StrategyLarge    Strategy = "large"
	StrategyPrecise  Strategy = "precise"
)

// sizing is the (max_chunk, overlap, min_chunk) tuple for a Strategy.
type sizing struct {
	maxChunk int
	overlap  int
	minChunk int
}

var registry = map[Strategy]sizing{
	StrategyDefault: {maxChunk: 4000, overlap: 200, minChunk: 500},
	StrategySmall:   {maxChunk: 2000, overlap: 100, minChunk: 500},
	StrategyLarge:   {maxChunk: 20000, overlap: 300, minChunk: 500},
	StrategyPrecise: {maxChunk: 3000, overlap: 150, minChunk: 800},
}

// AutoSelect picks a Strategy from input size, per spec 4.6.
func AutoSelect(text string) Strategy {
	n := len(text)
	switch {
	case n < 5000:
		return StrategySmall
	case n > 20000:
		return StrategyLarge
	case len(strings.Fields(text)) > 3000:
		return StrategyPrecise
	default:
		return StrategyDefault
	}
}

// TextChunk is one ordered, possibly overlapping slice of a document.
type TextChunk struct {
	Content      string
	StartIndex   int
	EndIndex     int
	ChunkID      int // 1-based
	TotalChunks  int
	WordCount    int
	HasHeading   bool
	HeadingText  string
}

var (
	whitespaceRun   = regexp.MustCompile(`[ \t]+`)
	tripleNewline   = regexp.MustCompile(`\n{3,}`)
	paragraphBreak  = regexp.MustCompile(`\n\s*\n`)
	sentenceEnd     = regexp.MustCompile(`[.!?]+(?:\s|$)`)

	headingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^#{1,6}\s+.+$`),
		regexp.MustCompile(`^\d+\.\s+.+$`),
		regexp.MustCompile(`^[A-Z\s]{5,}$`),
		regexp.MustCompile(`^\w+:$`),
	}
)

func normalize(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = tripleNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Chunk splits text according to the named strategy. It always returns at
// least one chunk for non-empty input.
func Chunk(text string, strategy Strategy) []TextChunk {
	cfg, ok := registry[strategy]
	if !ok {
		cfg = registry[StrategyDefault]
	}
	text = normalize(text)
	if text == "" {
		return nil
	}
	if len(text) <= cfg.maxChunk {
		return []TextChunk{{
			Content:     text,
			StartIndex:  0,
			EndIndex:    len(text),
			ChunkID:     1,
			TotalChunks: 1,
			WordCount:   len(strings.Fields(text)),
		}}
	}

	paragraphs := paragraphBreak.Split(text, -1)
	var chunks []TextChunk
	var current strings.Builder
	currentStart := 0
	position := 0

	flush := func(endPos int) {
		content := strings.TrimSpace(current.String())
		if content == "" {
			return
		}
		heading, headingText := detectHeading(content)
		chunks = append(chunks, TextChunk{
			Content:     content,
			StartIndex:  currentStart,
			EndIndex:    endPos,
			ChunkID:     len(chunks) + 1,
			WordCount:   len(strings.Fields(content)),
			HasHeading:  heading,
			HeadingText: headingText,
		})
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len()+len(para) > cfg.maxChunk && current.Len() > 0 {
			flush(position)
			overlap := overlapTail(current.String(), cfg.overlap)
			current.Reset()
			current.WriteString(overlap)
			if overlap != "" {
				current.WriteString("\n\n")
			}
			current.WriteString(para)
			currentStart = position - len(overlap)
		} else {
			if current.Len() > 0 {
				current.WriteString("\n\n")
			} else {
				currentStart = position
			}
			current.WriteString(para)
		}
		position += len(para) + 2
	}
	flush(len(text))

	chunks = mergeSmallChunks(chunks, cfg)
	renumber(chunks)
	return chunks
}

// overlapTail returns up to maxChars of the previous chunk's tail,
// preferring whole trailing sentences, else trailing words.
func overlapTail(content string, maxChars int) string {
	if maxChars <= 0 || content == "" {
		return ""
	}
	tail := content
	if len(tail) > maxChars {
		tail = tail[len(tail)-maxChars:]
	}
	sentences := sentenceEnd.Split(tail, -1)
	if len(sentences) > 1 {
		// drop the first, likely-partial sentence
		joined := strings.TrimSpace(strings.Join(sentences[1:], ". "))
		if joined != "" && len(joined) <= maxChars {
			return joined
		}
	}
	words := strings.Fields(tail)
	for len(strings.Join(words, " ")) > maxChars && len(words) > 0 {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

func detectHeading(paragraph string) (bool, string) {
	firstLine := paragraph
	if idx := strings.IndexByte(paragraph, '\n'); idx >= 0 {
		firstLine = paragraph[:idx]
	}
	firstLine = strings.TrimSpace(firstLine)
	for _, pattern := range headingPatterns {
		if pattern.MatchString(firstLine) {
			return true, firstLine
		}
	}
	return false, ""
}

func mergeSmallChunks(chunks []TextChunk, cfg sizing) []TextChunk {
	var merged []TextChunk
	for i := 0; i < len(chunks); i++ {
		c := chunks[i]
		if len(c.Content) < cfg.minChunk && i+1 < len(chunks) {
			next := chunks[i+1]
			if len(c.Content)+len(next.Content) <= cfg.maxChunk {
				combined := c.Content + "\n\n" + next.Content
				merged = append(merged, TextChunk{
					Content:     combined,
					StartIndex:  c.StartIndex,
					EndIndex:    next.EndIndex,
					WordCount:   len(strings.Fields(combined)),
					HasHeading:  c.HasHeading || next.HasHeading,
					HeadingText: firstNonEmpty(c.HeadingText, next.HeadingText),
				})
				i++ // skip the merged successor
				continue
			}
		}
		merged = append(merged, c)
	}
	return merged
}

func renumber(chunks []TextChunk) {
	for i := range chunks {
		chunks[i].ChunkID = i + 1
		chunks[i].TotalChunks = len(chunks)
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
