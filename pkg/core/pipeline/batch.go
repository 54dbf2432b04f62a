package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BatchSummary aggregates the per-company outcomes of one batch run.
type BatchSummary struct {
	RunID     string
	Succeeded int
	Partial   int // successes whose ChangeRecord is incomplete
	Skipped   int
	Failed    int
	Elapsed   time.Duration
	Outcomes  []Outcome // in input company order
}

// RunBatch processes every company through RunForPair using a bounded
// worker pool. Companies are independent units of work with no shared
// mutable state; workers should be sized to the external rate limits, not
// to CPU count. Individual failures never stop the batch.
func (o *Orchestrator) RunBatch(ctx context.Context, tickers []string, priorYear, currentYear, workers int) *BatchSummary {
	if workers <= 0 {
		workers = 1
	}

	summary := &BatchSummary{
		RunID:    uuid.New().String(),
		Outcomes: make([]Outcome, len(tickers)),
	}
	start := time.Now()
	fmt.Printf("Batch %s: %d companies, FY%d vs FY%d, %d workers\n",
		summary.RunID, len(tickers), priorYear, currentYear, workers)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				summary.Outcomes[i] = o.RunForPair(ctx, tickers[i], priorYear, currentYear)
			}
		}()
	}

	for i := range tickers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, out := range summary.Outcomes {
		switch out.Status {
		case StatusSuccess:
			summary.Succeeded++
			if out.Record != nil && out.Record.Partial {
				summary.Partial++
			}
		case StatusSkippedNoSection:
			summary.Skipped++
		default:
			summary.Failed++
		}
		fmt.Printf("  %-6s %s", out.Ticker, out.Status)
		if out.Reason != "" {
			fmt.Printf(" (%s)", out.Reason)
		}
		fmt.Println()
	}

	summary.Elapsed = time.Since(start)
	fmt.Printf("Batch %s done in %v: %d ok (%d partial), %d skipped, %d failed\n",
		summary.RunID, summary.Elapsed, summary.Succeeded, summary.Partial,
		summary.Skipped, summary.Failed)
	return summary
}
