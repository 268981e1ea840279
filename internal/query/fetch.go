package query

import (
	"context"

	"finconsole/internal/config"
	"finconsole/internal/upstream"
)

// UpstreamFetch adapts the upstream client to the cache's fetch contract:
// active filter fields become query parameters on the resource path.
func UpstreamFetch(client *upstream.Client) FetchFunc {
	return func(ctx context.Context, res config.ResourceConfig, filters FilterState) ([]byte, error) {
		return client.Get(ctx, res.Path, filters.Values())
	}
}
