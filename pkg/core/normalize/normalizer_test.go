package normalize

import (
	"errors"
	"strings"
	"testing"

	"risk_analyzer/pkg/models"
)

func TestNormalize_StripsMarkup(t *testing.T) {
	html := `<html>
<head><title>FORM 10-K</title><style>p { color: red; }</style><script>var x = 1;</script></head>
<body>
<p>Item 1A. Risk Factors</p>
<div><p>We face   significant <b>competition</b> in all markets.</p></div>
<p>   Our results    depend on demand.   </p>
<span style="display:none">checksum-9f8a</span>
<p>14</p>
<img src="spacer.gif"/>
</body></html>`

	doc, err := Normalize([]byte(html))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	want := []string{
		"Item 1A. Risk Factors",
		"We face significant competition in all markets.",
		"Our results depend on demand.",
	}
	if len(doc.Paragraphs) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d: %q", len(want), len(doc.Paragraphs), doc.Text)
	}
	for i, w := range want {
		if got := doc.Paragraph(i); got != w {
			t.Errorf("paragraph %d: got %q, want %q", i, got, w)
		}
	}
	if strings.Contains(doc.Text, "var x") || strings.Contains(doc.Text, "color: red") {
		t.Errorf("script/style content leaked into output: %q", doc.Text)
	}
	if strings.Contains(doc.Text, "checksum-9f8a") {
		t.Errorf("hidden element content leaked into output")
	}
}

func TestNormalize_InlineXBRLUnwrapped(t *testing.T) {
	html := `<html><body><p>Revenue was <ix:nonFraction name="us-gaap:Revenues">394,328</ix:nonFraction> million in the period.</p></body></html>`

	doc, err := Normalize([]byte(html))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if got := doc.Paragraph(0); got != "Revenue was 394,328 million in the period." {
		t.Errorf("unexpected paragraph: %q", got)
	}
}

func TestNormalize_TableRowsJoinCells(t *testing.T) {
	html := `<html><body>
<table><tr><td>Segment revenue</td><td>100</td><td>200</td></tr></table>
<p>Prose continues here.</p>
</body></html>`

	doc, err := Normalize([]byte(html))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if got := doc.Paragraph(0); got != "Segment revenue 100 200" {
		t.Errorf("unexpected row paragraph: %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	html := `<html><body><p>First paragraph with  odd   spacing.</p><p>Second paragraph.</p></body></html>`

	first, err := Normalize([]byte(html))
	if err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	second, err := Normalize([]byte(first.Text))
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}

	if first.Text != second.Text {
		t.Errorf("not idempotent:\nfirst:  %q\nsecond: %q", first.Text, second.Text)
	}
	if len(first.Paragraphs) != len(second.Paragraphs) {
		t.Fatalf("paragraph count changed: %d vs %d", len(first.Paragraphs), len(second.Paragraphs))
	}
	for i := range first.Paragraphs {
		if first.Paragraphs[i] != second.Paragraphs[i] {
			t.Errorf("paragraph span %d changed: %+v vs %+v", i, first.Paragraphs[i], second.Paragraphs[i])
		}
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	html := `<html><body><p>Alpha</p><p>Beta</p><tr><td>a</td><td>b</td></tr></body></html>`
	a, err := Normalize([]byte(html))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	b, err := Normalize([]byte(html))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if a.Text != b.Text {
		t.Errorf("same input produced different output")
	}
}

func TestNormalize_MalformedDocument(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"markup only", `<html><body><img src="spacer.gif"/><script>x</script></body></html>`},
		{"numbers only", "123 456\n\n789"},
		{"page numbers only", `<html><body><p>1</p><p>F-2</p></body></html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize([]byte(tc.input))
			if !errors.Is(err, models.ErrMalformedDocument) {
				t.Errorf("expected ErrMalformedDocument, got %v", err)
			}
		})
	}
}

func TestNormalize_ParagraphSpansCoverText(t *testing.T) {
	doc, err := Normalize([]byte("Para one.\n\nPara two.\n\nPara three."))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	for i, span := range doc.Paragraphs {
		if span.Start >= span.End {
			t.Errorf("span %d not ascending: %+v", i, span)
		}
		if i > 0 {
			sep := doc.Text[doc.Paragraphs[i-1].End:span.Start]
			if sep != "\n\n" {
				t.Errorf("separator between %d and %d is %q", i-1, i, sep)
			}
		}
	}
	last := doc.Paragraphs[len(doc.Paragraphs)-1]
	if last.End != len(doc.Text) {
		t.Errorf("last span end %d != text length %d", last.End, len(doc.Text))
	}
}
