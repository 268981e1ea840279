package query

import "testing"

func TestQueryString_AllSentinelsEmpty(t *testing.T) {
	f := FilterState{
		"event_type": "all",
		"severity":   "all",
		"username":   "",
		"start_date": "",
		"end_date":   "",
		"success":    "all",
	}
	if got := f.QueryString(); got != "" {
		t.Fatalf("QueryString() = %q, want empty", got)
	}
	if got := CacheKey("audit_logs", f); got != "audit_logs" {
		t.Fatalf("CacheKey() = %q, want bare resource", got)
	}
}

func TestQueryString_OmitsOnlySentinels(t *testing.T) {
	f := FilterState{
		"event_type": "all",
		"severity":   "CRITICAL",
		"username":   "  ",
	}
	if got := f.QueryString(); got != "severity=CRITICAL" {
		t.Fatalf("QueryString() = %q, want severity=CRITICAL", got)
	}
}

func TestQueryString_FieldOrderIndependent(t *testing.T) {
	a := FilterState{"severity": "HIGH", "username": "bob", "event_type": "LOGIN"}
	b := FilterState{}
	// Populate in a different order.
	b["event_type"] = "LOGIN"
	b["username"] = "bob"
	b["severity"] = "HIGH"
	if a.QueryString() != b.QueryString() {
		t.Fatalf("key mismatch: %q vs %q", a.QueryString(), b.QueryString())
	}
}

func TestCacheKey_IncludesDateBounds(t *testing.T) {
	f := FilterState{"start_date": "2026-01-01", "end_date": "2026-01-31"}
	want := "access_logs?end_date=2026-01-31&start_date=2026-01-01"
	if got := CacheKey("access_logs", f); got != want {
		t.Fatalf("CacheKey() = %q, want %q", got, want)
	}
}

func TestFiltersFromKey_RoundTrip(t *testing.T) {
	f := FilterState{"severity": "CRITICAL", "username": "alice"}
	key := CacheKey("audit_logs", f)
	got := filtersFromKey(key)
	if got["severity"] != "CRITICAL" || got["username"] != "alice" {
		t.Fatalf("filtersFromKey(%q) = %v", key, got)
	}
}
