package logview

import (
	"testing"
	"time"

	"finconsole/internal/query"
)

func sampleRecords() []LogRecord {
	base := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	return []LogRecord{
		{ID: "1", Timestamp: base, EventType: "LOGIN", Severity: "INFO", Action: "user.login", Username: "alice", SourceIP: "10.0.0.1", Success: true},
		{ID: "2", Timestamp: base.Add(time.Hour), EventType: "LOGIN", Severity: "CRITICAL", Action: "user.login", Username: "bob", SourceIP: "10.0.0.2", Success: false, ErrorMessage: "bad password"},
		{ID: "3", Timestamp: base.Add(48 * time.Hour), EventType: "QUERY", Severity: "HIGH", Action: "sql.execute", Username: "alice", ResourceType: "table", ResourceID: "holdings", Success: true},
		{ID: "4", Timestamp: base.Add(72 * time.Hour), EventType: "EXPORT", Severity: "INFO", ThreatLevel: "CRITICAL", Action: "report.export", Username: "carol", Success: true},
	}
}

func defaultFilters() query.FilterState {
	return query.FilterState{
		"event_type": "all",
		"severity":   "all",
		"username":   "",
		"start_date": "",
		"end_date":   "",
		"success":    "all",
	}
}

func TestFilter_IdentityWhenInactive(t *testing.T) {
	records := sampleRecords()
	got := Filter(records, "", defaultFilters())
	if len(got) != len(records) {
		t.Fatalf("len = %d, want %d", len(got), len(records))
	}
	for i := range got {
		if got[i].ID != records[i].ID {
			t.Fatalf("order changed at %d: %s vs %s", i, got[i].ID, records[i].ID)
		}
	}
}

func TestFilter_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	got := Filter(sampleRecords(), "BAD PASS", defaultFilters())
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("got %v, want record 2 only", got)
	}
	// Resource id is a searchable field.
	got = Filter(sampleRecords(), "holdings", defaultFilters())
	if len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("got %v, want record 3 only", got)
	}
}

func TestFilter_DiscreteFields(t *testing.T) {
	f := defaultFilters()
	f["severity"] = "CRITICAL"
	got := Filter(sampleRecords(), "", f)
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("severity filter: got %v", got)
	}

	f = defaultFilters()
	f["username"] = "alice"
	f["success"] = "true"
	got = Filter(sampleRecords(), "", f)
	if len(got) != 2 {
		t.Fatalf("username+success filter: got %v", got)
	}
}

func TestFilter_DateRangeInclusive(t *testing.T) {
	f := defaultFilters()
	f["start_date"] = "2026-08-10"
	f["end_date"] = "2026-08-12"
	got := Filter(sampleRecords(), "", f)
	// Records 1, 2 (Aug 10) and 3 (Aug 12) are in range; 4 (Aug 13) is not.
	if len(got) != 3 {
		t.Fatalf("date range: got %d records %v", len(got), got)
	}
	for _, r := range got {
		if r.ID == "4" {
			t.Fatalf("record 4 is outside the inclusive range")
		}
	}
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(sampleRecords())
	if s.Total != 4 || s.Success != 3 || s.Failure != 1 {
		t.Fatalf("stats = %+v", s)
	}
	// Severity CRITICAL and threat-level CRITICAL both count.
	if s.Critical != 2 {
		t.Fatalf("critical = %d, want 2", s.Critical)
	}
	if s.SuccessRate != "75.0" {
		t.Fatalf("success rate = %q, want 75.0", s.SuccessRate)
	}
}

func TestComputeStats_EmptySet(t *testing.T) {
	s := ComputeStats(nil)
	if s.Total != 0 || s.SuccessRate != "0" {
		t.Fatalf("stats = %+v, want total 0 and rate \"0\"", s)
	}
}

func TestParseRecords_BareArrayAndEnvelope(t *testing.T) {
	bare := []byte(`[{"id":"a","success":true}]`)
	records, err := ParseRecords(bare)
	if err != nil || len(records) != 1 || records[0].ID != "a" {
		t.Fatalf("bare: %v %v", records, err)
	}
	wrapped := []byte(`{"code":0,"data":[{"id":"b"},{"id":"c"}]}`)
	records, err = ParseRecords(wrapped)
	if err != nil || len(records) != 2 || records[1].ID != "c" {
		t.Fatalf("wrapped: %v %v", records, err)
	}
}
