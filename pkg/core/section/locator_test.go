package section

import (
	"errors"
	"strings"
	"testing"

	"risk_analyzer/pkg/models"
)

// makeDoc builds a NormalizedDocument from paragraphs the way the
// normalizer assembles them: joined by "\n\n" with content-only spans.
func makeDoc(paragraphs ...string) *models.NormalizedDocument {
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

func TestLocate_BasicSection(t *testing.T) {
	doc := makeDoc(
		"PART I",
		"Item 1. Business",
		"We design and sell products worldwide.",
		"Item 1A. Risk Factors",
		"Our business depends on consumer demand.",
		"Supply chain disruption could harm results.",
		"Item 1B. Unresolved Staff Comments",
		"None.",
	)

	sec, err := Locate(doc, 2023)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}

	if sec.Start != doc.Paragraphs[3].Start {
		t.Errorf("section start %d, want heading paragraph start %d", sec.Start, doc.Paragraphs[3].Start)
	}
	if sec.End != doc.Paragraphs[6].Start {
		t.Errorf("section end %d, want next heading start %d", sec.End, doc.Paragraphs[6].Start)
	}
	if sec.Text != doc.Text[sec.Start:sec.End] {
		t.Errorf("section text does not match its offsets")
	}
	if !strings.Contains(sec.Text, "Supply chain disruption") {
		t.Errorf("section body missing: %q", sec.Text)
	}
	if strings.Contains(sec.Text, "Unresolved Staff Comments") {
		t.Errorf("section leaked into Item 1B: %q", sec.Text)
	}
	if sec.FiscalYear != 2023 {
		t.Errorf("fiscal year = %d, want 2023", sec.FiscalYear)
	}
}

func TestLocate_HeadingVariants(t *testing.T) {
	variants := []struct {
		start string
		end   string
	}{
		{"Item 1A. Risk Factors", "Item 1B. Unresolved Staff Comments"},
		{"ITEM 1A. RISK FACTORS", "ITEM 1B. UNRESOLVED STAFF COMMENTS"},
		{"Item 1A – Risk Factors", "Item 2 – Properties"},
		{"ITEM 1A: RISK FACTORS", "ITEM 2. PROPERTIES"},
		{"item 1a. risk factors", "item 1b. unresolved staff comments"},
		{"Item  1A.  Risk  Factors", "Item  1B.  Unresolved  Staff  Comments"},
	}

	for _, v := range variants {
		t.Run(v.start, func(t *testing.T) {
			doc := makeDoc(
				"Introductory text about the company.",
				v.start,
				"Body of the risk section.",
				v.end,
				"Following section body.",
			)
			sec, err := Locate(doc, 2023)
			if err != nil {
				t.Fatalf("Locate failed: %v", err)
			}
			if sec.Start != doc.Paragraphs[1].Start {
				t.Errorf("start %d, want %d", sec.Start, doc.Paragraphs[1].Start)
			}
			if sec.End != doc.Paragraphs[3].Start {
				t.Errorf("end %d, want %d", sec.End, doc.Paragraphs[3].Start)
			}
		})
	}
}

func TestLocate_RejectsTableOfContents(t *testing.T) {
	doc := makeDoc(
		"TABLE OF CONTENTS",
		"Item 1. Business 5",
		"Item 1A. Risk Factors 14",
		"Item 1B. Unresolved Staff Comments 30",
		"Item 2. Properties 31",
		"Item 1. Business",
		"We operate retail stores.",
		"Item 1A. Risk Factors",
		"The real risk disclosure lives here.",
		"Item 1B. Unresolved Staff Comments",
		"None.",
	)

	sec, err := Locate(doc, 2024)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if sec.Start != doc.Paragraphs[7].Start {
		t.Errorf("picked offset %d, want body heading at %d (TOC entry must be rejected)",
			sec.Start, doc.Paragraphs[7].Start)
	}
	if sec.End != doc.Paragraphs[9].Start {
		t.Errorf("end %d, want %d", sec.End, doc.Paragraphs[9].Start)
	}
	if !strings.Contains(sec.Text, "real risk disclosure") {
		t.Errorf("wrong section captured: %q", sec.Text)
	}
}

func TestLocate_TieBreakPrefersLastMatchBeforeEnd(t *testing.T) {
	// Cover page references the heading in prose, without page numbers, so
	// TOC rejection does not apply; the tie-break must still pick the body
	// occurrence.
	doc := makeDoc(
		"Item 1A of this report discusses the risks we face.",
		"Item 1. Business",
		"Business description.",
		"Item 1A. Risk Factors",
		"Actual risk factors.",
		"Item 1B. Unresolved Staff Comments",
	)

	sec, err := Locate(doc, 2024)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if sec.Start != doc.Paragraphs[3].Start {
		t.Errorf("start %d, want body heading %d", sec.Start, doc.Paragraphs[3].Start)
	}
}

func TestLocate_RunsToDocumentEnd(t *testing.T) {
	doc := makeDoc(
		"Item 1. Business",
		"Business text.",
		"Item 1A. Risk Factors",
		"Risks continue to the end of the filing.",
	)

	sec, err := Locate(doc, 2022)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if sec.End != len(doc.Text) {
		t.Errorf("end %d, want document end %d", sec.End, len(doc.Text))
	}
}

func TestLocate_SectionNotFound(t *testing.T) {
	doc := makeDoc(
		"Item 1. Business",
		"Smaller reporting companies may omit risk factors.",
		"Item 2. Properties",
	)

	_, err := Locate(doc, 2022)
	if !errors.Is(err, models.ErrSectionNotFound) {
		t.Errorf("expected ErrSectionNotFound, got %v", err)
	}
}

func TestLocate_EndsAtItem2WhenNo1B(t *testing.T) {
	doc := makeDoc(
		"Item 1A. Risk Factors",
		"Risk body.",
		"Item 2. Properties",
		"Property list.",
	)

	sec, err := Locate(doc, 2021)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if sec.End != doc.Paragraphs[2].Start {
		t.Errorf("end %d, want Item 2 start %d", sec.End, doc.Paragraphs[2].Start)
	}
}
