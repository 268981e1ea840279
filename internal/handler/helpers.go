package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"finconsole/internal/query"
)

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func strQueryPtr(c *gin.Context, key string) *string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return &val
	}
	return nil
}

func boolQueryDefault(c *gin.Context, key string, def bool) bool {
	if val := c.Query(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return def
}

// filterState collects the allowed filter fields off the query string.
// Missing fields stay absent; the sentinel passes through and is dropped
// when the state is serialized.
func filterState(c *gin.Context, fields ...string) query.FilterState {
	f := query.FilterState{}
	for _, field := range fields {
		if val := strings.TrimSpace(c.Query(field)); val != "" {
			f[field] = val
		}
	}
	return f
}

// guard prepends an optional middleware so mutating routes can require a
// role while read routes stay open to any authenticated caller.
func guard(g gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if g == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{g, h}
}

func paginationMeta(limit, offset int, total int64) map[string]any {
	if limit <= 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	hasNext := int64(offset+limit) < total
	return map[string]any{
		"limit":    limit,
		"offset":   offset,
		"total":    total,
		"has_next": hasNext,
	}
}
