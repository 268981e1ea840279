package query

import (
	"net/url"
	"strings"
)

// Sentinel marks a filter field as inactive; empty values mean the same.
const Sentinel = "all"

// FilterState is the named field→value mapping a console page holds: discrete
// filters (event_type, severity, success), free identifiers (username) and
// date bounds (start_date, end_date). It doubles as the cache key for the
// remote data cache, so serialization must not depend on field order.
type FilterState map[string]string

func (f FilterState) Clone() FilterState {
	out := make(FilterState, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Active reports whether a field narrows the result set.
func (f FilterState) Active(field string) bool {
	v := strings.TrimSpace(f[field])
	return v != "" && !strings.EqualFold(v, Sentinel)
}

// Values serializes the active fields as query parameters. Fields equal to
// the "all"/empty sentinel are omitted entirely.
func (f FilterState) Values() url.Values {
	out := url.Values{}
	for k, v := range f {
		if !f.Active(k) {
			continue
		}
		out.Set(k, strings.TrimSpace(v))
	}
	return out
}

// QueryString is the canonical serialized form: url.Values.Encode sorts by
// key, so two states with the same active fields produce the same string
// regardless of insertion order. An all-sentinel state yields "".
func (f FilterState) QueryString() string {
	return f.Values().Encode()
}

// CacheKey combines resource and filter state into the cache's map key.
func CacheKey(resource string, f FilterState) string {
	qs := f.QueryString()
	if qs == "" {
		return resource
	}
	return resource + "?" + qs
}
