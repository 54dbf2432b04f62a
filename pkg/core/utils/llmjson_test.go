package utils

import "testing"

type judgmentPayload struct {
	SeverityDelta int      `json:"severity_delta"`
	Added         []string `json:"added"`
	Rationale     string   `json:"rationale"`
}

func TestSmartParse_StrictJSON(t *testing.T) {
	var out judgmentPayload
	input := `{"severity_delta": 2, "added": ["regulatory"], "rationale": "expanded"}`
	if err := SmartParse(input, &out); err != nil {
		t.Fatalf("SmartParse failed: %v", err)
	}
	if out.SeverityDelta != 2 || len(out.Added) != 1 || out.Rationale != "expanded" {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestSmartParse_RepairsCommonDamage(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"code fence", "```json\n{\"severity_delta\": 3, \"rationale\": \"worse\"}\n```"},
		{"trailing comma", `{"severity_delta": 3, "rationale": "worse",}`},
		{"unclosed brace", `{"severity_delta": 3, "rationale": "worse"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out judgmentPayload
			if err := SmartParse(tc.input, &out); err != nil {
				t.Fatalf("SmartParse failed: %v", err)
			}
			if out.SeverityDelta != 3 {
				t.Errorf("severity_delta = %d, want 3", out.SeverityDelta)
			}
		})
	}
}

func TestSmartParse_HjsonFallback(t *testing.T) {
	var out judgmentPayload
	input := `{
  # model added a comment
  severity_delta: -1
  rationale: softened language
}`
	if err := SmartParse(input, &out); err != nil {
		t.Fatalf("SmartParse failed: %v", err)
	}
	if out.SeverityDelta != -1 {
		t.Errorf("severity_delta = %d, want -1", out.SeverityDelta)
	}
}

func TestSmartParse_Hopeless(t *testing.T) {
	var out judgmentPayload
	if err := SmartParse("I cannot produce JSON for this request.", &out); err == nil {
		t.Errorf("expected failure for prose output")
	}
}

func TestCleanMarkdown(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "No fences here.", "No fences here."},
		{"markdown fence", "```markdown\n# Title\nBody.\n```", "# Title\nBody."},
		{"bare fence", "```\nBody only.\n```", "Body only."},
		{"whitespace", "  padded  ", "padded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanMarkdown(tc.input); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateMarkdown(t *testing.T) {
	if !ValidateMarkdown("# Report\n\n| a | b |\n|---|---|\n| 1 | 2 |\n") {
		t.Errorf("well-formed markdown rejected")
	}
}
