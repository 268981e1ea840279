package logview

import (
	"strings"

	"github.com/shopspring/decimal"
)

const criticalSentinel = "CRITICAL"

// Stats are the aggregate counters shown on each log page's summary cards.
type Stats struct {
	Total    int    `json:"total"`
	Success  int    `json:"success"`
	Failure  int    `json:"failure"`
	Critical int    `json:"critical"`
	// SuccessRate is a percentage with one decimal place; "0" when there
	// are no rows at all.
	SuccessRate string `json:"success_rate"`
}

// ComputeStats aggregates over the currently filtered set.
func ComputeStats(records []LogRecord) Stats {
	s := Stats{Total: len(records)}
	for _, r := range records {
		if r.Success {
			s.Success++
		}
		if strings.EqualFold(r.Severity, criticalSentinel) || strings.EqualFold(r.ThreatLevel, criticalSentinel) {
			s.Critical++
		}
	}
	s.Failure = s.Total - s.Success
	if s.Total == 0 {
		s.SuccessRate = "0"
		return s
	}
	rate := decimal.NewFromInt(int64(s.Success) * 100).
		Div(decimal.NewFromInt(int64(s.Total)))
	s.SuccessRate = rate.StringFixed(1)
	return s
}
