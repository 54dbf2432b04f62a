// Package score compares risk sections between adjacent fiscal years and
// produces a ChangeRecord. The semantic judgment is delegated to an
// external analysis capability behind the Analyzer interface; this package
// owns the comparison protocol: chunk alignment, the rubric, and the
// aggregation of pair-level deltas.
package score

import (
	"context"
	"fmt"

	"risk_analyzer/pkg/core/llm"
	"risk_analyzer/pkg/core/utils"
	"risk_analyzer/pkg/models"
)

// PairRequest carries one aligned chunk pair plus the rubric context the
// analysis capability needs. An empty PriorText means the material is new
// this year; an empty CurrentText means it was removed.
type PairRequest struct {
	Ticker      string
	PriorYear   int
	CurrentYear int
	PriorText   string
	CurrentText string
}

// Analyzer is the narrow judgment interface: rubric request in, structured
// judgment out. Tests substitute a deterministic stub for the live call.
type Analyzer interface {
	JudgePair(ctx context.Context, req PairRequest) (*models.ChunkJudgment, error)
}

const systemPrompt = `You are an expert financial analyst specializing in SEC risk factor analysis.
You compare excerpts of the Item 1A "Risk Factors" section from two consecutive 10-K filings
and report how the disclosed risk changed. Respond with JSON only, using this schema:
{
  "severity_delta": integer from -5 (risk greatly reduced) to 5 (risk greatly intensified), 0 = no material change,
  "added": ["risk themes newly present in the current year"],
  "removed": ["risk themes present last year but gone now"],
  "rationale": "one or two sentences of justification"
}
Focus on material shifts in strategic, operational, financial, regulatory, market,
technology and competitive risks. Ignore pure wording or formatting changes.`

const userPromptTemplate = `Company: %s

Previous year (%d) risk factor excerpt:
%s

Current year (%d) risk factor excerpt:
%s

Compare the two excerpts and return the JSON judgment.`

// LLMAnalyzer implements Analyzer on top of an llm.Provider.
type LLMAnalyzer struct {
	provider llm.Provider
}

// NewLLMAnalyzer wraps provider as an analysis capability.
func NewLLMAnalyzer(provider llm.Provider) *LLMAnalyzer {
	return &LLMAnalyzer{provider: provider}
}

// JudgePair requests a structured judgment for one chunk pair. The raw
// model output goes through the repair/hjson cascade before failing.
func (a *LLMAnalyzer) JudgePair(ctx context.Context, req PairRequest) (*models.ChunkJudgment, error) {
	if a.provider == nil {
		return nil, fmt.Errorf("no analysis provider configured: %w", models.ErrAnalysisUnavailable)
	}

	prior := req.PriorText
	if prior == "" {
		prior = "(no corresponding disclosure in the previous year)"
	}
	current := req.CurrentText
	if current == "" {
		current = "(no corresponding disclosure in the current year)"
	}

	prompt := fmt.Sprintf(userPromptTemplate, req.Ticker, req.PriorYear, prior, req.CurrentYear, current)
	options := map[string]interface{}{
		"response_format": map[string]interface{}{"type": "json_object"},
	}

	resp, err := a.provider.GenerateResponse(ctx, prompt, systemPrompt, options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAnalysisUnavailable, err)
	}

	var judgment models.ChunkJudgment
	if err := utils.SmartParse(resp, &judgment); err != nil {
		return nil, fmt.Errorf("%w: unparseable judgment: %v", models.ErrAnalysisUnavailable, err)
	}

	if judgment.SeverityDelta < -5 || judgment.SeverityDelta > 5 {
		return nil, fmt.Errorf("%w: severity %d outside [-5, 5]", models.ErrAnalysisUnavailable, judgment.SeverityDelta)
	}

	return &judgment, nil
}
