// Package pipeline sequences Normalizer -> Locator -> Chunker -> Scorer for
// one company/year pair and drives batches of companies through a bounded
// worker pool. No condition here is process-fatal: every unit of work ends
// in a typed Outcome so a batch of hundreds of companies completes even
// when individual companies fail.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"risk_analyzer/pkg/core/chunk"
	"risk_analyzer/pkg/core/normalize"
	"risk_analyzer/pkg/core/section"
	"risk_analyzer/pkg/core/store"
	"risk_analyzer/pkg/models"
)

// FilingFetcher is the filing retrieval collaborator (live EDGAR client,
// local fixture, or test mock).
type FilingFetcher interface {
	LookupCIK(ctx context.Context, ticker string) (string, error)
	FetchRawFiling(ctx context.Context, ticker, cik string, fiscalYear int) (*models.RawFiling, error)
}

// SectionScorer compares two years' sections into a ChangeRecord.
type SectionScorer interface {
	Compare(ctx context.Context, ticker string, prior, current *models.RiskSection, priorChunks, currentChunks []models.Chunk) (*models.ChangeRecord, error)
}

// Status is the typed per-unit result of a pipeline run.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusSkippedNoSection Status = "skipped-no-section"
	StatusFailedMalformed  Status = "failed-malformed"
	StatusFailedRetrieval  Status = "failed-retrieval"
	StatusFailedAnalysis   Status = "failed-analysis"
	StatusFailed           Status = "failed" // fault outside the taxonomy
)

// Outcome reports how one company/year pair fared. Record is non-nil only
// for StatusSuccess (and may be marked Partial).
type Outcome struct {
	Ticker      string
	PriorYear   int
	CurrentYear int
	Status      Status
	Reason      string
	Record      *models.ChangeRecord
}

// Orchestrator wires the stages together. The stage cache is optional; a
// nil cache just recomputes.
type Orchestrator struct {
	fetcher FilingFetcher
	scorer  SectionScorer
	chunker *chunk.Chunker
	cache   store.StageCache
}

// NewOrchestrator creates an orchestrator without a cache.
func NewOrchestrator(fetcher FilingFetcher, scorer SectionScorer, chunker *chunk.Chunker) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, scorer: scorer, chunker: chunker}
}

// SetCache installs a stage cache. Stage outputs are read before
// recomputing and written once after computing.
func (o *Orchestrator) SetCache(cache store.StageCache) {
	o.cache = cache
}

// RunForPair drives one company through the full pipeline for two adjacent
// fiscal years. Recoverable conditions short-circuit into a typed outcome
// rather than propagating a fault.
func (o *Orchestrator) RunForPair(ctx context.Context, ticker string, priorYear, currentYear int) Outcome {
	outcome := Outcome{Ticker: ticker, PriorYear: priorYear, CurrentYear: currentYear}

	cik, err := o.fetcher.LookupCIK(ctx, ticker)
	if err != nil {
		return o.fail(outcome, err)
	}

	prior, err := o.riskSection(ctx, ticker, cik, priorYear)
	if err != nil {
		return o.fail(outcome, err)
	}
	current, err := o.riskSection(ctx, ticker, cik, currentYear)
	if err != nil {
		return o.fail(outcome, err)
	}

	record, err := o.scorer.Compare(ctx, ticker,
		prior, current,
		o.chunker.Split(prior), o.chunker.Split(current))
	if err != nil {
		return o.fail(outcome, err)
	}
	record.CIK = cik

	outcome.Status = StatusSuccess
	outcome.Record = record
	return outcome
}

// riskSection produces the Item 1A section for one fiscal year, consulting
// the stage cache first.
func (o *Orchestrator) riskSection(ctx context.Context, ticker, cik string, fiscalYear int) (*models.RiskSection, error) {
	key := store.Key{CIK: cik, FiscalYear: fiscalYear, Stage: "section"}
	if o.cache != nil {
		if blob, ok := o.cache.Get(ctx, key); ok {
			var sec models.RiskSection
			if err := json.Unmarshal(blob, &sec); err == nil {
				return &sec, nil
			}
			// Unreadable cache entries are recomputed, not fatal.
		}
	}

	doc, err := o.normalizedDoc(ctx, ticker, cik, fiscalYear)
	if err != nil {
		return nil, err
	}

	sec, err := section.Locate(doc, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("fiscal year %d: %w", fiscalYear, err)
	}

	if o.cache != nil {
		if blob, err := json.Marshal(sec); err == nil {
			_ = o.cache.Put(ctx, key, blob)
		}
	}
	return sec, nil
}

// normalizedDoc produces the normalized document for one fiscal year, its
// own cached stage so a missing section blob never forces a refetch.
func (o *Orchestrator) normalizedDoc(ctx context.Context, ticker, cik string, fiscalYear int) (*models.NormalizedDocument, error) {
	key := store.Key{CIK: cik, FiscalYear: fiscalYear, Stage: "normalized"}
	if o.cache != nil {
		if blob, ok := o.cache.Get(ctx, key); ok {
			var doc models.NormalizedDocument
			if err := json.Unmarshal(blob, &doc); err == nil {
				return &doc, nil
			}
		}
	}

	filing, err := o.fetcher.FetchRawFiling(ctx, ticker, cik, fiscalYear)
	if err != nil {
		return nil, err
	}

	doc, err := normalize.Normalize(filing.Content)
	if err != nil {
		return nil, fmt.Errorf("fiscal year %d: %w", fiscalYear, err)
	}

	if o.cache != nil {
		if blob, err := json.Marshal(doc); err == nil {
			_ = o.cache.Put(ctx, key, blob)
		}
	}
	return doc, nil
}

// fail classifies err into the outcome taxonomy. Cancellation and timeouts
// from collaborators count as retrieval failures for this unit of work,
// never as process-fatal conditions.
func (o *Orchestrator) fail(outcome Outcome, err error) Outcome {
	outcome.Reason = err.Error()

	var re *models.RetrievalError
	switch {
	case errors.Is(err, models.ErrSectionNotFound):
		outcome.Status = StatusSkippedNoSection
	case errors.Is(err, models.ErrMalformedDocument):
		outcome.Status = StatusFailedMalformed
	case errors.Is(err, models.ErrAnalysisUnavailable):
		outcome.Status = StatusFailedAnalysis
	case errors.As(err, &re),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		outcome.Status = StatusFailedRetrieval
	default:
		outcome.Status = StatusFailed
	}
	return outcome
}
