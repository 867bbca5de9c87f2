package extract

import (
	"bytes"
	"io"
	"strings"

	"briefly/internal/core"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates text from each page, per spec 4.2. Grounded
// on the teacher's ProcessPDFContent (internal/fetch/pdf.go), adapted
// to read the already-fetched response body and to return a
// core.Document instead of core.Article.
func extractPDF(body io.Reader, sourceURL string) (*core.Document, float64, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, 0, err
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, err
	}

	var b strings.Builder
	pageCount := reader.NumPage()
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	cleaned := cleanContent(b.String())
	title := pdfTitle(cleaned, sourceURL)
	wordCount := len(strings.Fields(cleaned))

	d := &core.Document{
		Title:     title,
		URL:       sourceURL,
		Content:   cleaned,
		DocType:   core.DocTypeAcademicPaper,
		WordCount: wordCount,
		Language:  "fr",
	}
	return d, qualityScore(*d, title != "", false, false), nil
}

func pdfTitle(content, sourceURL string) string {
	for _, line := range strings.Split(content, "\n") {
		l := strings.TrimSpace(line)
		if len(l) > 10 && len(l) < 200 && !strings.Contains(l, "http") {
			return l
		}
	}
	return sourceURL
}
