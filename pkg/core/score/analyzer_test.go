package score

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"risk_analyzer/pkg/models"
)

type MockProvider struct {
	GenerateResponseFunc func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error)
	lastPrompt           string
}

func (m *MockProvider) GenerateResponse(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	m.lastPrompt = prompt
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemPrompt, options)
	}
	return `{"severity_delta": 0, "rationale": "no change"}`, nil
}

func TestJudgePair_ParsesCleanResponse(t *testing.T) {
	provider := &MockProvider{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			return `{"severity_delta": 3, "added": ["cybersecurity"], "removed": [], "rationale": "New breach disclosure."}`, nil
		},
	}
	analyzer := NewLLMAnalyzer(provider)

	judgment, err := analyzer.JudgePair(context.Background(), PairRequest{
		Ticker: "ACME", PriorYear: 2022, CurrentYear: 2023,
		PriorText: "old text", CurrentText: "new text",
	})
	if err != nil {
		t.Fatalf("JudgePair failed: %v", err)
	}
	if judgment.SeverityDelta != 3 {
		t.Errorf("severity = %d, want 3", judgment.SeverityDelta)
	}
	if len(judgment.Added) != 1 || judgment.Added[0] != "cybersecurity" {
		t.Errorf("added = %v", judgment.Added)
	}
}

func TestJudgePair_RepairsFencedResponse(t *testing.T) {
	provider := &MockProvider{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			return "```json\n{\"severity_delta\": -2, \"rationale\": \"Litigation risk resolved.\"}\n```", nil
		},
	}
	analyzer := NewLLMAnalyzer(provider)

	judgment, err := analyzer.JudgePair(context.Background(), PairRequest{
		PriorText: "a", CurrentText: "b",
	})
	if err != nil {
		t.Fatalf("JudgePair failed: %v", err)
	}
	if judgment.SeverityDelta != -2 {
		t.Errorf("severity = %d, want -2", judgment.SeverityDelta)
	}
}

func TestJudgePair_SeverityOutOfRange(t *testing.T) {
	provider := &MockProvider{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			return `{"severity_delta": 9, "rationale": "overenthusiastic"}`, nil
		},
	}
	analyzer := NewLLMAnalyzer(provider)

	_, err := analyzer.JudgePair(context.Background(), PairRequest{PriorText: "a", CurrentText: "b"})
	if !errors.Is(err, models.ErrAnalysisUnavailable) {
		t.Errorf("expected ErrAnalysisUnavailable for out-of-range severity, got %v", err)
	}
}

func TestJudgePair_ProviderFailure(t *testing.T) {
	provider := &MockProvider{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			return "", fmt.Errorf("429 too many requests")
		},
	}
	analyzer := NewLLMAnalyzer(provider)

	_, err := analyzer.JudgePair(context.Background(), PairRequest{PriorText: "a", CurrentText: "b"})
	if !errors.Is(err, models.ErrAnalysisUnavailable) {
		t.Errorf("expected ErrAnalysisUnavailable, got %v", err)
	}
}

func TestJudgePair_EmptySidesGetPlaceholders(t *testing.T) {
	provider := &MockProvider{}
	analyzer := NewLLMAnalyzer(provider)

	_, err := analyzer.JudgePair(context.Background(), PairRequest{
		Ticker: "ACME", PriorYear: 2022, CurrentYear: 2023,
		PriorText: "", CurrentText: "entirely new disclosure",
	})
	if err != nil {
		t.Fatalf("JudgePair failed: %v", err)
	}
	if !strings.Contains(provider.lastPrompt, "no corresponding disclosure in the previous year") {
		t.Errorf("empty prior side not surfaced in prompt:\n%s", provider.lastPrompt)
	}
	if !strings.Contains(provider.lastPrompt, "entirely new disclosure") {
		t.Errorf("current text missing from prompt")
	}
}

func TestJudgePair_NilProvider(t *testing.T) {
	analyzer := NewLLMAnalyzer(nil)
	_, err := analyzer.JudgePair(context.Background(), PairRequest{PriorText: "a", CurrentText: "b"})
	if !errors.Is(err, models.ErrAnalysisUnavailable) {
		t.Errorf("expected ErrAnalysisUnavailable for nil provider, got %v", err)
	}
}
