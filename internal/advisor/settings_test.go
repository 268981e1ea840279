package advisor

import (
	"testing"

	"github.com/shopspring/decimal"
)

func weight(name, v string) CriterionWeight {
	return CriterionWeight{Criterion: name, Weight: decimal.RequireFromString(v)}
}

func TestValidateWeights_SumMustBeOne(t *testing.T) {
	ok := []CriterionWeight{
		weight("expense_ratio", "0.3"),
		weight("tracking_error", "0.3"),
		weight("liquidity", "0.4"),
	}
	if err := ValidateWeights(ok); err != nil {
		t.Fatalf("valid weights rejected: %v", err)
	}

	bad := []CriterionWeight{
		weight("expense_ratio", "0.3"),
		weight("liquidity", "0.3"),
	}
	if err := ValidateWeights(bad); err == nil {
		t.Fatalf("sum 0.6 accepted")
	}
}

func TestValidateWeights_NoFloatDrift(t *testing.T) {
	// 0.1 + 0.2 + 0.7 is exactly 1 in decimal; float64 arithmetic drifts.
	weights := []CriterionWeight{
		weight("a", "0.1"),
		weight("b", "0.2"),
		weight("c", "0.7"),
	}
	if err := ValidateWeights(weights); err != nil {
		t.Fatalf("decimal sum drifted: %v", err)
	}
}

func TestValidateWeights_Bounds(t *testing.T) {
	if err := ValidateWeights([]CriterionWeight{weight("a", "1.5"), weight("b", "-0.5")}); err == nil {
		t.Fatalf("out-of-range weight accepted")
	}
	if err := ValidateWeights(nil); err == nil {
		t.Fatalf("empty weight set accepted")
	}
	if err := ValidateWeights([]CriterionWeight{weight("a", "0.5"), weight("a", "0.5")}); err == nil {
		t.Fatalf("duplicate criterion accepted")
	}
}

func TestSettingsValidate(t *testing.T) {
	s := Settings{
		Weights:       []CriterionWeight{weight("expense_ratio", "1.0")},
		RiskTolerance: "moderate",
		RebalanceDays: 30,
		UniverseSize:  200,
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}
	s.RiskTolerance = "yolo"
	if err := s.Validate(); err == nil {
		t.Fatalf("unknown risk tolerance accepted")
	}
}
