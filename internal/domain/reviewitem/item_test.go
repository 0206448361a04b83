package reviewitem

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/brandloom/brandloom/internal/domain"
)

func TestValidate(t *testing.T) {
	base := ReviewItem{
		ID:      "item-1",
		BrandID: "brand-1",
		Output:  json.RawMessage(`{"caption":"hello"}`),
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*ReviewItem)
	}{
		{"missing id", func(it *ReviewItem) { it.ID = "" }},
		{"missing brand", func(it *ReviewItem) { it.BrandID = "" }},
		{"unknown agent kind", func(it *ReviewItem) { it.AgentKind = "video_generation" }},
		{"no output no error", func(it *ReviewItem) { it.Output = nil }},
	}
	for _, tc := range cases {
		it := base
		tc.mutate(&it)
		if err := it.Validate(); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestValidateFailedGenerationNeedsNoOutput(t *testing.T) {
	it := ReviewItem{ID: "item-1", BrandID: "brand-1", GenerationError: "model timeout"}
	if err := it.Validate(); err != nil {
		t.Fatalf("failed-generation item should still be queueable: %v", err)
	}
}

func TestParseResultDiscardsMalformedScores(t *testing.T) {
	res := &GeneratorResult{
		ID:        "item-1",
		AgentKind: AgentCopyGeneration,
		Output:    json.RawMessage(`{"caption":"hi"}`),
		BFS:       json.RawMessage(`{"overall":9.0}`),
		LinterResults: json.RawMessage(
			`{"passed":true,"toxicity_score":0.1}`),
	}

	it, warnings, err := ParseResult("brand-1", res, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if it.FidelityScore != nil {
		t.Errorf("out-of-range fidelity score should be discarded, got %+v", it.FidelityScore)
	}
	if it.ComplianceResult == nil {
		t.Errorf("valid linter result should be kept")
	}
	if len(warnings) != 1 {
		t.Errorf("expected one warning for the discarded score, got %v", warnings)
	}
}

func TestParseResultCarriesGeneratorError(t *testing.T) {
	res := &GeneratorResult{ID: "item-2", Error: "provider 500"}

	it, warnings, err := ParseResult("brand-1", res, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if it.GenerationError != "provider 500" {
		t.Errorf("generation error not carried: %+v", it)
	}
	if it.FidelityScore != nil || it.ComplianceResult != nil {
		t.Errorf("failed generation should have no scores")
	}
}
