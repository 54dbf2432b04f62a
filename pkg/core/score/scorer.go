package score

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"risk_analyzer/pkg/models"
)

// AggregationRule names the deterministic rule that folds pair-level
// severity deltas into one section-level score. The rule is explicit
// configuration, never a hidden heuristic.
type AggregationRule string

const (
	// AggregateWeighted averages pair deltas weighted by pair text length.
	AggregateWeighted AggregationRule = "weighted"
	// AggregateMax takes the delta with the largest magnitude
	// (earliest pair wins ties).
	AggregateMax AggregationRule = "max"
)

// DefaultConcurrency bounds in-flight analysis calls per comparison when
// the caller does not supply a ceiling.
const DefaultConcurrency = 4

// Scorer compares two years' risk sections and produces a ChangeRecord.
type Scorer struct {
	analyzer    Analyzer
	Rule        AggregationRule
	Concurrency int // max in-flight analysis calls, caller-supplied ceiling
}

// NewScorer creates a scorer with the weighted aggregation rule.
func NewScorer(analyzer Analyzer) *Scorer {
	return &Scorer{
		analyzer:    analyzer,
		Rule:        AggregateWeighted,
		Concurrency: DefaultConcurrency,
	}
}

// Compare aligns the two chunk sequences, requests a judgment per pair, and
// aggregates. Pairs whose analysis call fails are marked unknown rather
// than zero and flip the record to Partial; only when every pair fails does
// Compare return models.ErrAnalysisUnavailable.
//
// Identical pair texts short-circuit to a zero judgment without an analysis
// call, so two identical sections always aggregate to the no-change
// baseline of 0.
func (s *Scorer) Compare(ctx context.Context, ticker string, prior, current *models.RiskSection, priorChunks, currentChunks []models.Chunk) (*models.ChangeRecord, error) {
	pairs := alignChunks(priorChunks, currentChunks)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("nothing to compare: both sections produced zero chunks")
	}

	scores := make([]models.PairScore, len(pairs))

	limit := s.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, p := range pairs {
		wg.Add(1)
		go func(i int, p pairing) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			scores[i] = s.scorePair(ctx, ticker, prior, current, priorChunks, currentChunks, p)
		}(i, p)
	}
	wg.Wait()

	record := &models.ChangeRecord{
		Ticker:      ticker,
		PriorYear:   prior.FiscalYear,
		CurrentYear: current.FiscalYear,
		Similarity:  jaccard(prior.Text, current.Text),
		Pairs:       scores,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.aggregate(record); err != nil {
		return nil, err
	}
	return record, nil
}

// scorePair produces the PairScore for one alignment entry. Each goroutine
// writes only its own slot, so no lock is needed.
func (s *Scorer) scorePair(ctx context.Context, ticker string, prior, current *models.RiskSection, priorChunks, currentChunks []models.Chunk, p pairing) models.PairScore {
	var priorText, currentText string
	if p.priorIdx >= 0 {
		priorText = priorChunks[p.priorIdx].Unique()
	}
	if p.currentIdx >= 0 {
		currentText = currentChunks[p.currentIdx].Unique()
	}

	ps := models.PairScore{
		PriorIndex:   p.priorIdx,
		CurrentIndex: p.currentIdx,
		Weight:       len(priorText) + len(currentText),
	}

	if priorText == currentText {
		ps.Judgment = &models.ChunkJudgment{Rationale: "unchanged"}
		return ps
	}

	judgment, err := s.analyzer.JudgePair(ctx, PairRequest{
		Ticker:      ticker,
		PriorYear:   prior.FiscalYear,
		CurrentYear: current.FiscalYear,
		PriorText:   priorText,
		CurrentText: currentText,
	})
	if err != nil {
		ps.Unknown = true
		ps.Error = err.Error()
		return ps
	}

	ps.Judgment = judgment
	return ps
}

// aggregate folds pair scores into the record-level delta, theme sets and
// rationale, and marks the record Partial when any pair is unknown.
func (s *Scorer) aggregate(record *models.ChangeRecord) error {
	var (
		weightedSum float64
		totalWeight float64
		maxDelta    float64
		known       int
		rationale   string
		maxAbs      = -1.0
	)
	added := make(map[string]bool)
	removed := make(map[string]bool)

	for _, ps := range record.Pairs {
		if ps.Unknown {
			record.Partial = true
			continue
		}
		known++

		delta := float64(ps.Judgment.SeverityDelta)
		weightedSum += delta * float64(ps.Weight)
		totalWeight += float64(ps.Weight)

		if abs := math.Abs(delta); abs > maxAbs {
			maxAbs = abs
			maxDelta = delta
			rationale = ps.Judgment.Rationale
		}

		for _, t := range ps.Judgment.Added {
			added[t] = true
		}
		for _, t := range ps.Judgment.Removed {
			removed[t] = true
		}
	}

	if known == 0 {
		return fmt.Errorf("%w: every chunk pair failed", models.ErrAnalysisUnavailable)
	}

	switch s.Rule {
	case AggregateMax:
		record.SeverityDelta = maxDelta
	default:
		if totalWeight > 0 {
			record.SeverityDelta = weightedSum / totalWeight
		}
	}

	record.Added = sortedKeys(added)
	record.Removed = sortedKeys(removed)
	record.Rationale = rationale
	return nil
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
