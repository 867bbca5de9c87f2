// Package render produces the three deterministic FinalReport renderings
// required by spec 4.4 (markdown, text, html), in a fixed section order,
// grounded on the teacher's internal/render digest-writing style
// (string-builder assembly, no template engine for the structural
// skeleton) re-pointed at the report's own section shape.
package render

import (
	"fmt"
	"html"
	"strings"

	"briefly/internal/core"
)

const fixedSectionOrder = "title, executive summary, introduction, main sections, key themes, conclusion, methodology, sources"

// All renders every format spec 4.4 requires, keyed markdown/text/html.
func All(report core.FinalReport) map[string]string {
	return map[string]string{
		"markdown": Markdown(report),
		"text":     Text(report),
		"html":     HTML(report),
	}
}

// Markdown renders report in the fixed section order spec 4.4 requires.
func Markdown(report core.FinalReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", report.Title)
	fmt.Fprintf(&b, "*Topic: %s*\n\n", report.Topic)

	b.WriteString("## Executive Summary\n\n")
	if report.ExecutiveSummary.SummaryText != "" {
		fmt.Fprintf(&b, "%s\n\n", report.ExecutiveSummary.SummaryText)
	}
	writeMarkdownList(&b, "### Key Findings", report.ExecutiveSummary.KeyFindings)
	writeMarkdownList(&b, "### Main Insights", report.ExecutiveSummary.MainInsights)
	writeMarkdownList(&b, "### Recommendations", report.ExecutiveSummary.Recommendations)

	if report.Introduction != "" {
		fmt.Fprintf(&b, "## Introduction\n\n%s\n\n", report.Introduction)
	}

	for _, section := range report.MainSections {
		writeMarkdownSection(&b, section, 2)
	}

	writeMarkdownList(&b, "## Key Themes", report.KeyThemes)

	if report.Conclusion != "" {
		fmt.Fprintf(&b, "## Conclusion\n\n%s\n\n", report.Conclusion)
	}

	b.WriteString("## Methodology\n\n")
	fmt.Fprintf(&b, "%s\n\n", report.Methodology.ResearchApproach)
	fmt.Fprintf(&b, "- Sources analyzed: %d\n", report.Methodology.SourcesCount)
	for _, m := range report.Methodology.AnalysisMethods {
		fmt.Fprintf(&b, "- %s\n", m)
	}
	if len(report.Methodology.Limitations) > 0 {
		b.WriteString("\n**Limitations:**\n\n")
		for _, l := range report.Methodology.Limitations {
			fmt.Fprintf(&b, "- %s\n", l)
		}
	}
	fmt.Fprintf(&b, "\n%s\n\n", report.Methodology.DataQualityAssessment)

	b.WriteString("## Sources\n\n")
	for i, src := range report.Sources {
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, src.Title, src.URL)
	}

	return b.String()
}

func writeMarkdownSection(b *strings.Builder, section core.ReportSection, level int) {
	fmt.Fprintf(b, "%s %s\n\n%s\n\n", strings.Repeat("#", level), section.Title, section.Content)
	for _, sub := range section.Subsections {
		writeMarkdownSection(b, sub, level+1)
	}
}

func writeMarkdownList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// Text renders report in the same section order as Markdown, with plain
// headings underlined with dashes instead of "#" markers.
func Text(report core.FinalReport) string {
	var b strings.Builder
	writeTextHeading(&b, report.Title)
	fmt.Fprintf(&b, "Topic: %s\n\n", report.Topic)

	writeTextHeading(&b, "Executive Summary")
	if report.ExecutiveSummary.SummaryText != "" {
		fmt.Fprintf(&b, "%s\n\n", report.ExecutiveSummary.SummaryText)
	}
	writeTextList(&b, "Key Findings", report.ExecutiveSummary.KeyFindings)
	writeTextList(&b, "Main Insights", report.ExecutiveSummary.MainInsights)
	writeTextList(&b, "Recommendations", report.ExecutiveSummary.Recommendations)

	if report.Introduction != "" {
		writeTextHeading(&b, "Introduction")
		fmt.Fprintf(&b, "%s\n\n", report.Introduction)
	}

	for _, section := range report.MainSections {
		writeTextHeading(&b, section.Title)
		fmt.Fprintf(&b, "%s\n\n", section.Content)
		for _, sub := range section.Subsections {
			writeTextHeading(&b, sub.Title)
			fmt.Fprintf(&b, "%s\n\n", sub.Content)
		}
	}

	writeTextList(&b, "Key Themes", report.KeyThemes)

	if report.Conclusion != "" {
		writeTextHeading(&b, "Conclusion")
		fmt.Fprintf(&b, "%s\n\n", report.Conclusion)
	}

	writeTextHeading(&b, "Methodology")
	fmt.Fprintf(&b, "%s\n", report.Methodology.ResearchApproach)
	fmt.Fprintf(&b, "Sources analyzed: %d\n", report.Methodology.SourcesCount)
	for _, m := range report.Methodology.AnalysisMethods {
		fmt.Fprintf(&b, "- %s\n", m)
	}
	fmt.Fprintf(&b, "%s\n\n", report.Methodology.DataQualityAssessment)

	writeTextHeading(&b, "Sources")
	for i, src := range report.Sources {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, src.Title, src.URL)
	}

	return b.String()
}

func writeTextHeading(b *strings.Builder, title string) {
	fmt.Fprintf(b, "%s\n%s\n\n", title, strings.Repeat("-", len(title)))
}

func writeTextList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	writeTextHeading(b, heading)
	for _, item := range items {
		fmt.Fprintf(b, "* %s\n", item)
	}
	b.WriteString("\n")
}

const htmlStyle = `<style>
body { font-family: -apple-system, sans-serif; max-width: 860px; margin: 2rem auto; line-height: 1.5; }
h1, h2, h3 { color: #1a1a2e; }
.source-list li { margin-bottom: 0.4em; }
</style>`

// HTML renders report with a minimal embedded style block, the same
// structural order as Markdown/Text, and anchor tags for source URLs.
func HTML(report core.FinalReport) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	b.WriteString(htmlStyle)
	b.WriteString("</head><body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n<p><em>Topic: %s</em></p>\n", html.EscapeString(report.Title), html.EscapeString(report.Topic))

	b.WriteString("<h2>Executive Summary</h2>\n")
	if report.ExecutiveSummary.SummaryText != "" {
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(report.ExecutiveSummary.SummaryText))
	}
	writeHTMLList(&b, "Key Findings", report.ExecutiveSummary.KeyFindings)
	writeHTMLList(&b, "Main Insights", report.ExecutiveSummary.MainInsights)
	writeHTMLList(&b, "Recommendations", report.ExecutiveSummary.Recommendations)

	if report.Introduction != "" {
		fmt.Fprintf(&b, "<h2>Introduction</h2>\n<p>%s</p>\n", html.EscapeString(report.Introduction))
	}

	for _, section := range report.MainSections {
		writeHTMLSection(&b, section, 2)
	}

	writeHTMLList(&b, "Key Themes", report.KeyThemes)

	if report.Conclusion != "" {
		fmt.Fprintf(&b, "<h2>Conclusion</h2>\n<p>%s</p>\n", html.EscapeString(report.Conclusion))
	}

	b.WriteString("<h2>Methodology</h2>\n")
	fmt.Fprintf(&b, "<p>%s</p>\n<p>Sources analyzed: %d</p>\n<ul>\n", html.EscapeString(report.Methodology.ResearchApproach), report.Methodology.SourcesCount)
	for _, m := range report.Methodology.AnalysisMethods {
		fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(m))
	}
	b.WriteString("</ul>\n")
	fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(report.Methodology.DataQualityAssessment))

	b.WriteString("<h2>Sources</h2>\n<ul class=\"source-list\">\n")
	for _, src := range report.Sources {
		fmt.Fprintf(&b, "<li><a href=\"%s\">%s</a></li>\n", html.EscapeString(src.URL), html.EscapeString(src.Title))
	}
	b.WriteString("</ul>\n</body></html>\n")

	return b.String()
}

func writeHTMLSection(b *strings.Builder, section core.ReportSection, level int) {
	fmt.Fprintf(b, "<h%d>%s</h%d>\n<p>%s</p>\n", level, html.EscapeString(section.Title), level, html.EscapeString(section.Content))
	for _, sub := range section.Subsections {
		writeHTMLSection(b, sub, level+1)
	}
}

func writeHTMLList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "<h3>%s</h3>\n<ul>\n", html.EscapeString(heading))
	for _, item := range items {
		fmt.Fprintf(b, "<li>%s</li>\n", html.EscapeString(item))
	}
	b.WriteString("</ul>\n")
}
