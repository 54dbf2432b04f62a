// Package section locates the Item 1A "Risk Factors" section inside a
// normalized 10-K document. The locator is a pure function over text and
// paragraph offsets so it can be tested against a fixed corpus of heading
// variants without any I/O.
package section

import (
	"regexp"
	"strings"

	"risk_analyzer/pkg/models"
)

// headingRe matches a top-level item heading at the start of a paragraph,
// tolerating "Item 1A.", "ITEM 1A – Risk Factors", "Item 1A: ..." and
// missing whitespace between "Item" and the number.
var headingRe = regexp.MustCompile(`(?i)^item\s*(\d{1,2}[a-c]?)\s*(?:[.:\-–—]|\s|$)`)

// pageTokenRe matches page-number-like tokens that betray a table of
// contents entry, e.g. "Risk Factors 14" or a bare "14" paragraph.
var pageTokenRe = regexp.MustCompile(`\b\d{1,3}$`)

type heading struct {
	item     string // uppercased item number, e.g. "1A"
	para     int    // paragraph index
	offset   int    // byte offset of the paragraph start
	tocEntry bool
}

// Locate finds the Item 1A section of doc. The section starts at the
// heading paragraph and ends at the start of the next top-level heading
// ("Item 1B" or "Item 2", whichever comes first), or at the document end
// when neither follows. When the filing lists headings twice (cover index
// plus body), the last Item 1A match before the first valid end heading
// wins.
//
// Returns models.ErrSectionNotFound when no valid heading is present.
func Locate(doc *models.NormalizedDocument, fiscalYear int) (*models.RiskSection, error) {
	headings := scanHeadings(doc)

	var starts, ends []heading
	for _, h := range headings {
		if h.tocEntry {
			continue
		}
		switch h.item {
		case "1A":
			starts = append(starts, h)
		case "1B", "2":
			ends = append(ends, h)
		}
	}
	if len(starts) == 0 {
		return nil, models.ErrSectionNotFound
	}

	start := pickStart(starts, ends)

	end := len(doc.Text)
	for _, h := range ends {
		if h.offset > start.offset {
			end = h.offset
			break
		}
	}

	return &models.RiskSection{
		FiscalYear: fiscalYear,
		Start:      start.offset,
		End:        end,
		Text:       doc.Text[start.offset:end],
	}, nil
}

// pickStart prefers the last Item 1A match before the first valid end
// heading: 10-Ks often reference the heading once on the cover index and
// once in the body, and the body occurrence is the later one.
func pickStart(starts, ends []heading) heading {
	limit := -1
	for _, e := range ends {
		// The first end heading that has at least one start before it.
		for _, s := range starts {
			if s.offset < e.offset {
				limit = e.offset
				break
			}
		}
		if limit >= 0 {
			break
		}
	}

	chosen := starts[0]
	for _, s := range starts {
		if limit >= 0 && s.offset >= limit {
			break
		}
		chosen = s
	}
	return chosen
}

// scanHeadings walks paragraph boundaries collecting item headings and
// flagging table-of-contents entries.
func scanHeadings(doc *models.NormalizedDocument) []heading {
	var headings []heading
	for i := range doc.Paragraphs {
		m := headingRe.FindStringSubmatch(doc.Paragraph(i))
		if m == nil {
			continue
		}
		headings = append(headings, heading{
			item:   strings.ToUpper(m[1]),
			para:   i,
			offset: doc.Paragraphs[i].Start,
		})
	}

	for idx := range headings {
		headings[idx].tocEntry = looksLikeTOC(doc, headings, idx)
	}
	return headings
}

// looksLikeTOC rejects matches that sit inside a table of contents: the
// heading paragraph (or the one right after it) carries a page-number-like
// token, and another item heading follows immediately.
func looksLikeTOC(doc *models.NormalizedDocument, headings []heading, idx int) bool {
	h := headings[idx]

	hasPageToken := pageTokenRe.MatchString(doc.Paragraph(h.para))
	if !hasPageToken && h.para+1 < len(doc.Paragraphs) {
		next := strings.TrimSpace(doc.Paragraph(h.para + 1))
		hasPageToken = pageTokenRe.MatchString(next) && len(next) <= 8
	}
	if !hasPageToken {
		return false
	}

	// Immediately followed by another item heading (within two paragraphs).
	for _, other := range headings {
		if other.para > h.para && other.para <= h.para+2 {
			return true
		}
	}
	return false
}
