package extract

import (
	"io"
	"strings"

	"briefly/internal/core"
)

// extractGeneric treats the body as plain text, per spec 4.2.
func extractGeneric(body io.Reader, sourceURL string) (*core.Document, float64, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, 0, err
	}
	cleaned := cleanContent(string(data))
	wordCount := len(strings.Fields(cleaned))

	title := sourceURL
	if lines := strings.SplitN(cleaned, "\n", 2); len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
		title = strings.TrimSpace(lines[0])
	}

	d := &core.Document{
		Title:     title,
		URL:       sourceURL,
		Content:   cleaned,
		DocType:   core.DocTypeOther,
		WordCount: wordCount,
		Language:  "fr",
	}
	return d, qualityScore(*d, false, false, false), nil
}
