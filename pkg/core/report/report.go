// Package report renders a batch run as a ranked Markdown document. It is
// the report consumer for the pipeline: it receives outcomes plus
// ChangeRecords and owns all formatting and ranking.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"risk_analyzer/pkg/core/pipeline"
	"risk_analyzer/pkg/core/utils"
)

// Render produces the Markdown batch report: summary counts, a ranking of
// companies by severity delta magnitude, and per-company detail for
// successes and partials.
func Render(summary *pipeline.BatchSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Risk Factor Change Report\n\n")
	fmt.Fprintf(&b, "Run `%s` — %d companies: %d succeeded (%d partial), %d skipped, %d failed.\n\n",
		summary.RunID, len(summary.Outcomes), summary.Succeeded, summary.Partial,
		summary.Skipped, summary.Failed)

	ranked := rankedRecords(summary)

	if len(ranked) > 0 {
		b.WriteString("## Ranking\n\n")
		b.WriteString("| Rank | Ticker | Severity Δ | Similarity | Coverage |\n")
		b.WriteString("|-----:|--------|-----------:|-----------:|----------|\n")
		for i, out := range ranked {
			coverage := "complete"
			if out.Record.Partial {
				coverage = "partial"
			}
			fmt.Fprintf(&b, "| %d | %s | %+.2f | %.2f | %s |\n",
				i+1, out.Ticker, out.Record.SeverityDelta, out.Record.Similarity, coverage)
		}
		b.WriteString("\n")
	}

	for _, out := range ranked {
		rec := out.Record
		fmt.Fprintf(&b, "## %s (FY%d vs FY%d)\n\n", out.Ticker, rec.PriorYear, rec.CurrentYear)
		fmt.Fprintf(&b, "Severity delta: %+.2f", rec.SeverityDelta)
		if rec.Partial {
			b.WriteString(" — incomplete: one or more chunk pairs could not be analyzed")
		}
		b.WriteString("\n\n")

		if len(rec.Added) > 0 {
			fmt.Fprintf(&b, "**New risk themes:** %s\n\n", strings.Join(rec.Added, "; "))
		}
		if len(rec.Removed) > 0 {
			fmt.Fprintf(&b, "**Removed risk themes:** %s\n\n", strings.Join(rec.Removed, "; "))
		}
		if rec.Rationale != "" {
			fmt.Fprintf(&b, "%s\n\n", utils.CleanMarkdown(rec.Rationale))
		}
	}

	if summary.Skipped+summary.Failed > 0 {
		b.WriteString("## Skipped / Failed\n\n")
		for _, out := range summary.Outcomes {
			if out.Status == pipeline.StatusSuccess {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s", out.Ticker, out.Status)
			if out.Reason != "" {
				fmt.Fprintf(&b, " — %s", out.Reason)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// rankedRecords returns the successful outcomes ordered by severity delta
// magnitude, largest first; ties keep input order.
func rankedRecords(summary *pipeline.BatchSummary) []pipeline.Outcome {
	var ranked []pipeline.Outcome
	for _, out := range summary.Outcomes {
		if out.Status == pipeline.StatusSuccess && out.Record != nil {
			ranked = append(ranked, out)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].Record.SeverityDelta) > math.Abs(ranked[j].Record.SeverityDelta)
	})
	return ranked
}
