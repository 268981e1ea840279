package advisor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Settings is the ETF-advisor admin configuration: a set of MCDA criteria
// weights plus the knobs shown on the settings page. The backend owns the
// stored copy; the console validates before any mutation goes out.
type Settings struct {
	Weights       []CriterionWeight `json:"weights"`
	RiskTolerance string            `json:"risk_tolerance"`
	RebalanceDays int               `json:"rebalance_days"`
	UniverseSize  int               `json:"universe_size"`
}

type CriterionWeight struct {
	Criterion string          `json:"criterion"`
	Weight    decimal.Decimal `json:"weight"`
}

var weightTolerance = decimal.New(1, -9) // 1e-9

// ValidateWeights rejects a weight set whose sum differs from 1.0. This is
// a pre-network check: a failing set must never reach the backend.
func ValidateWeights(weights []CriterionWeight) error {
	if len(weights) == 0 {
		return errors.New("at least one criterion weight is required")
	}
	sum := decimal.Zero
	seen := map[string]struct{}{}
	for _, w := range weights {
		name := strings.TrimSpace(w.Criterion)
		if name == "" {
			return errors.New("criterion name is required")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate criterion %q", name)
		}
		seen[name] = struct{}{}
		if w.Weight.IsNegative() || w.Weight.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("weight for %q must be within [0, 1], got %s", name, w.Weight)
		}
		sum = sum.Add(w.Weight)
	}
	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(weightTolerance) {
		return fmt.Errorf("weights must sum to 1.0, got %s", sum)
	}
	return nil
}

// Validate covers the whole settings form.
func (s Settings) Validate() error {
	if err := ValidateWeights(s.Weights); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s.RiskTolerance)) {
	case "conservative", "moderate", "aggressive":
	default:
		return fmt.Errorf("unknown risk tolerance %q", s.RiskTolerance)
	}
	if s.RebalanceDays <= 0 {
		return errors.New("rebalance interval must be positive")
	}
	if s.UniverseSize <= 0 {
		return errors.New("universe size must be positive")
	}
	return nil
}
