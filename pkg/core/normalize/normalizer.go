// Package normalize strips SEC EDGAR filing markup down to plain text with
// stable paragraph boundaries. The output is deterministic for identical
// input, which is what makes stage caching by filing identifier safe.
package normalize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"risk_analyzer/pkg/models"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	pageNumberRe = regexp.MustCompile(`^(?:Page\s*)?\d+$|^-\s*\d+\s*-$|^[A-Z]?-\d+$`)
	letterRe     = regexp.MustCompile(`[A-Za-z]`)
	htmlTagRe    = regexp.MustCompile(`(?i)<(?:html|body|div|p|span|table|ix:)`)
)

// blockSelector lists the elements treated as paragraph boundaries.
// Filings from different eras use different containers; <font>-era filings
// mostly rely on <p> and <div>, iXBRL-era ones on <div> and <span> soup.
const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, tr"

// Normalize converts raw filing markup (HTML/iXBRL) or plain text into a
// NormalizedDocument. It fails with models.ErrMalformedDocument when no
// prose survives stripping, e.g. an empty or purely tabular filing.
//
// Normalize is idempotent: feeding its own output back yields the same
// document.
func Normalize(raw []byte) (*models.NormalizedDocument, error) {
	content := string(raw)

	var paragraphs []string
	if htmlTagRe.MatchString(content) {
		var err error
		paragraphs, err = extractHTMLParagraphs(content)
		if err != nil {
			return nil, err
		}
	} else {
		paragraphs = extractPlainParagraphs(content)
	}

	paragraphs = dropNoise(paragraphs)
	if len(paragraphs) == 0 {
		return nil, models.ErrMalformedDocument
	}

	return assemble(paragraphs), nil
}

// extractHTMLParagraphs parses the markup with goquery, removes noise
// elements, and collects the text of block-level elements in document order.
func extractHTMLParagraphs(content string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, models.ErrMalformedDocument
	}

	removeNoise(doc)

	var paragraphs []string
	doc.Find(blockSelector).Each(func(i int, sel *goquery.Selection) {
		// Skip containers that themselves hold block children; their text
		// is collected from the children to avoid duplication.
		if sel.Find(blockSelector).Length() > 0 {
			return
		}
		text := collapse(blockText(sel))
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	// Some older filings are a single <div> (or bare <body>) of text with
	// no block structure at all. Fall back to line-based splitting.
	if len(paragraphs) == 0 {
		paragraphs = extractPlainParagraphs(doc.Text())
	}

	return paragraphs, nil
}

// blockText renders a block element as a single line. Table rows join
// their cells with a space so column values stay separated.
func blockText(sel *goquery.Selection) string {
	if goquery.NodeName(sel) != "tr" {
		return sel.Text()
	}
	var cells []string
	sel.Find("td, th").Each(func(i int, cell *goquery.Selection) {
		if t := strings.TrimSpace(cell.Text()); t != "" {
			cells = append(cells, t)
		}
	})
	return strings.Join(cells, " ")
}

// removeNoise strips elements that carry no prose: scripts, styles, hidden
// nodes, spacer images, and inline XBRL wrappers (their visible text is
// kept).
func removeNoise(doc *goquery.Document) {
	doc.Find("script, style, noscript").Remove()
	doc.Find("[hidden], [style*='display:none'], [style*='display: none']").Remove()

	doc.Find("img").Each(func(i int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		width, _ := sel.Attr("width")
		height, _ := sel.Attr("height")
		if src == "" || strings.Contains(src, "spacer") || strings.Contains(src, "blank") ||
			width == "1" || height == "1" {
			sel.Remove()
		}
	})

	// Inline XBRL facts wrap visible text; unwrap rather than delete.
	doc.Find("ix\\:nonFraction, ix\\:nonNumeric, ix\\:fraction").Each(func(i int, sel *goquery.Selection) {
		sel.ReplaceWithHtml(sel.Text())
	})
}

// extractPlainParagraphs splits already-plain text on blank lines.
func extractPlainParagraphs(content string) []string {
	var paragraphs []string
	for _, block := range strings.Split(content, "\n\n") {
		text := collapse(block)
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return paragraphs
}

// dropNoise removes paragraphs that are page-number artifacts or contain no
// letters (rule lines, stray punctuation).
func dropNoise(paragraphs []string) []string {
	kept := paragraphs[:0:0]
	for _, p := range paragraphs {
		if pageNumberRe.MatchString(p) {
			continue
		}
		if !letterRe.MatchString(p) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// assemble joins paragraphs with "\n\n" and records their spans.
func assemble(paragraphs []string) *models.NormalizedDocument {
	var b strings.Builder
	spans := make([]models.ParagraphSpan, 0, len(paragraphs))
	for i, p := range paragraphs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		start := b.Len()
		b.WriteString(p)
		spans = append(spans, models.ParagraphSpan{Start: start, End: b.Len()})
	}
	return &models.NormalizedDocument{Text: b.String(), Paragraphs: spans}
}

// collapse squeezes runs of whitespace into single spaces and trims.
func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
