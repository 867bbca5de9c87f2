package extract

import (
	"io"
	"regexp"
	"strings"
	"time"

	"briefly/internal/core"

	"github.com/PuerkitoBio/goquery"
)

// mainContentSelectors is the spec 4.2 fixed selector priority list.
var mainContentSelectors = []string{
	"article", "[role=main]", "main", ".content", ".post-content",
	".entry-content", ".article-content", "#content", ".main-content",
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"02 Jan 2006",
}

func extractHTML(body io.Reader, sourceURL string) (*core.Document, float64, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, 0, err
	}

	// Strip boilerplate per spec 4.2 before any text extraction.
	doc.Find("script, style, nav, header, footer, aside, form").Remove()
	doc.Find("*").Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#comment" {
			s.Remove()
		}
	})

	content := mainContentText(doc)
	title := extractDocTitle(doc)
	author := extractAuthor(doc)
	published := extractDate(doc)

	cleaned := cleanContent(content)
	wordCount := len(strings.Fields(cleaned))

	d := &core.Document{
		Title:         title,
		URL:           sourceURL,
		Content:       cleaned,
		DocType:       classifyDocType(sourceURL, title, cleaned),
		Author:        author,
		PublishedDate: published,
		WordCount:     wordCount,
		Language:      "fr",
	}

	q := qualityScore(*d, title != "", author != "", published != nil)
	return d, q, nil
}

func mainContentText(doc *goquery.Document) string {
	for _, selector := range mainContentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := blockText(sel)
		if strings.TrimSpace(text) != "" {
			return text
		}
	}
	return blockText(doc.Find("body"))
}

func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre").Each(func(_ int, item *goquery.Selection) {
		t := strings.TrimSpace(item.Text())
		if t == "" {
			return
		}
		b.WriteString(t)
		b.WriteString("\n\n")
	})
	if b.Len() == 0 {
		return strings.TrimSpace(sel.Text())
	}
	return b.String()
}

func extractDocTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return ""
}

func extractAuthor(doc *goquery.Document) string {
	if a, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok && strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	if a := strings.TrimSpace(doc.Find(`[itemprop="author"]`).First().Text()); a != "" {
		return a
	}
	for _, sel := range []string{".author", ".byline", ".post-author", ".article-author"} {
		if a := strings.TrimSpace(doc.Find(sel).First().Text()); a != "" {
			return a
		}
	}
	return ""
}

func extractDate(doc *goquery.Document) *time.Time {
	var raw string
	if v, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
		raw = v
	} else if v, ok := doc.Find(`[itemprop="datePublished"]`).Attr("content"); ok {
		raw = v
	} else if v := strings.TrimSpace(doc.Find(`[itemprop="datePublished"]`).First().Text()); v != "" {
		raw = v
	}
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func classifyDocType(sourceURL, title, content string) core.DocType {
	lowerURL := strings.ToLower(sourceURL)
	lowerContent := strings.ToLower(content)
	switch {
	case strings.Contains(lowerURL, "arxiv") || strings.Contains(lowerContent, "abstract") && strings.Contains(lowerContent, "references"):
		return core.DocTypeAcademicPaper
	case strings.Contains(lowerURL, "/news/") || strings.Contains(lowerURL, "news."):
		return core.DocTypeNews
	case strings.Contains(lowerURL, "blog"):
		return core.DocTypeBlogPost
	case strings.Contains(lowerURL, "report") || strings.Contains(lowerContent, "executive summary"):
		return core.DocTypeReport
	case title != "":
		return core.DocTypeArticle
	default:
		return core.DocTypeOther
	}
}

var (
	controlChars  = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
	spaceTabRun   = regexp.MustCompile(`[ \t]+`)
	threeNewlines = regexp.MustCompile(`\n{3,}`)
)

const maxContentLength = 50000
const truncationMarker = "\n\n[... content truncated ...]"

// cleanContent applies spec 4.2's cleaning rules: strip control
// characters (except tab/newline), collapse space/tab runs, collapse
// 3+ newlines to two, trim line whitespace, then overall trim, then
// truncate with an explicit marker if still too long.
func cleanContent(raw string) string {
	cleaned := controlChars.ReplaceAllString(raw, "")
	cleaned = spaceTabRun.ReplaceAllString(cleaned, " ")
	cleaned = threeNewlines.ReplaceAllString(cleaned, "\n\n")

	lines := strings.Split(cleaned, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	cleaned = strings.TrimSpace(strings.Join(lines, "\n"))

	if len(cleaned) > maxContentLength {
		cleaned = cleaned[:maxContentLength] + truncationMarker
	}
	return cleaned
}
