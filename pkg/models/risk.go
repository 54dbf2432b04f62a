// Package models defines the shared data model for the risk factor pipeline.
// Each stage of the pipeline produces a new immutable value; nothing here is
// mutated after creation, which keeps stage outputs safe to cache by filing.
package models

import "time"

// RawFiling is a 10-K document exactly as fetched from SEC EDGAR.
type RawFiling struct {
	Ticker          string    `json:"ticker"`
	CIK             string    `json:"cik"` // zero-padded to 10 digits
	FiscalYear      int       `json:"fiscal_year"`
	FilingDate      time.Time `json:"filing_date"`
	AccessionNumber string    `json:"accession_number"` // e.g. "0000320193-23-000070"
	SourceURL       string    `json:"source_url"`
	Content         []byte    `json:"-"`
}

// ParagraphSpan marks a paragraph as a half-open [Start, End) byte range
// into NormalizedDocument.Text.
type ParagraphSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NormalizedDocument is the plain-text form of a filing with stable
// paragraph boundaries. Paragraphs are joined by "\n\n" in Text and the
// spans cover only the paragraph content, never the separators.
type NormalizedDocument struct {
	Text       string          `json:"text"`
	Paragraphs []ParagraphSpan `json:"paragraphs"`
}

// Paragraph returns the text of paragraph i.
func (d *NormalizedDocument) Paragraph(i int) string {
	span := d.Paragraphs[i]
	return d.Text[span.Start:span.End]
}

// RiskSection is the Item 1A slice of a normalized document.
// Invariant: Start < End, and End is either the document end or the start
// offset of the next top-level item heading.
type RiskSection struct {
	FiscalYear int    `json:"fiscal_year"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Text       string `json:"text"` // NormalizedDocument.Text[Start:End]
}

// Chunk is one bounded-size piece of a risk section. Overlap is the length
// of the prefix duplicated from the previous chunk's unique content, so
// concatenating Text[Overlap:] across all chunks reconstructs the section
// exactly.
type Chunk struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Overlap int    `json:"overlap"`
}

// Unique returns the chunk text with the duplicated overlap prefix removed.
func (c Chunk) Unique() string {
	return c.Text[c.Overlap:]
}

// ChunkJudgment is the structured verdict for one aligned chunk pair.
// SeverityDelta is an integer in [-5, 5]; 0 means no material change.
type ChunkJudgment struct {
	SeverityDelta int      `json:"severity_delta"`
	Added         []string `json:"added"`
	Removed       []string `json:"removed"`
	Rationale     string   `json:"rationale"`
}

// PairScore records the outcome for one aligned chunk pair. A pair whose
// analysis call failed is marked Unknown rather than scored zero, so the
// aggregate can distinguish "no change" from "no answer".
type PairScore struct {
	PriorIndex   int            `json:"prior_index"`   // -1 when the pair is addition-only
	CurrentIndex int            `json:"current_index"` // -1 when the pair is removal-only
	Weight       int            `json:"weight"`        // combined text length of both sides
	Judgment     *ChunkJudgment `json:"judgment,omitempty"`
	Unknown      bool           `json:"unknown"`
	Error        string         `json:"error,omitempty"`
}

// ChangeRecord is the year-over-year comparison result for one company.
type ChangeRecord struct {
	Ticker        string      `json:"ticker"`
	CIK           string      `json:"cik"`
	PriorYear     int         `json:"prior_year"`
	CurrentYear   int         `json:"current_year"`
	SeverityDelta float64     `json:"severity_delta"`
	Added         []string    `json:"added"`
	Removed       []string    `json:"removed"`
	Rationale     string      `json:"rationale"`
	Similarity    float64     `json:"similarity"` // Jaccard word overlap of the two sections
	Pairs         []PairScore `json:"pairs"`
	Partial       bool        `json:"partial"` // true when any pair is Unknown
	CreatedAt     time.Time   `json:"created_at"`
}
