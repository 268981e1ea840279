package logview

import (
	"strconv"
	"strings"
	"time"

	"finconsole/internal/query"
)

const dateLayout = "2006-01-02"

// Filter narrows records by a free-text query plus the page's discrete
// filter fields. It is pure and preserves input order: display order is
// whatever the backend returned.
func Filter(records []LogRecord, search string, filters query.FilterState) []LogRecord {
	search = strings.TrimSpace(strings.ToLower(search))
	out := make([]LogRecord, 0, len(records))
	for _, r := range records {
		if !matchesSearch(r, search) {
			continue
		}
		if !matchesFilters(r, filters) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// matchesSearch is a case-insensitive substring check over the enumerated
// searchable fields. An empty search matches everything.
func matchesSearch(r LogRecord, search string) bool {
	if search == "" {
		return true
	}
	for _, field := range []string{
		r.EventType,
		r.Action,
		r.Username,
		r.ResourceType,
		r.ResourceID,
		r.ErrorMessage,
		r.SourceIP,
		r.Message,
	} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func matchesFilters(r LogRecord, filters query.FilterState) bool {
	if filters.Active("event_type") && !strings.EqualFold(r.EventType, filters["event_type"]) {
		return false
	}
	if filters.Active("severity") && !strings.EqualFold(r.Severity, filters["severity"]) {
		return false
	}
	if filters.Active("threat_level") && !strings.EqualFold(r.ThreatLevel, filters["threat_level"]) {
		return false
	}
	if filters.Active("username") && !strings.EqualFold(r.Username, filters["username"]) {
		return false
	}
	if filters.Active("success") {
		want, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(filters["success"])))
		if err == nil && r.Success != want {
			return false
		}
	}
	if filters.Active("start_date") {
		if start, ok := parseDay(filters["start_date"]); ok && r.Timestamp.Before(start) {
			return false
		}
	}
	if filters.Active("end_date") {
		// Inclusive: a bare date covers its whole day.
		if end, ok := parseDay(filters["end_date"]); ok && !r.Timestamp.Before(end.AddDate(0, 0, 1)) {
			return false
		}
	}
	return true
}

func parseDay(v string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
