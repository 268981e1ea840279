package query

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"finconsole/internal/cache"
	"finconsole/internal/config"
)

type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

var ErrUnknownResource = errors.New("unknown resource")

// FetchFunc retrieves one page of a resource with the given filters applied.
type FetchFunc func(ctx context.Context, res config.ResourceConfig, filters FilterState) ([]byte, error)

// Result is what a page sees for a (resource, filters) key. On a failed
// refresh Data still holds the prior successful payload when one exists;
// the error replaces data only for keys that never resolved.
type Result struct {
	State     State
	Data      []byte
	FetchedAt time.Time
	Err       error
}

type entry struct {
	data        []byte
	fetchedAt   time.Time
	lastErr     error
	lastAttempt time.Time
	fetching    bool
	done        chan struct{}
}

// Cache is the remote data cache: one entry per (resource, serialized
// filters) key, with per-resource staleness windows, fixed-delay retries and
// retained-on-error values. All entries are independent; concurrent fetches
// for different keys interleave freely and only ever touch their own entry.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	resources map[string]config.ResourceConfig
	fetch     FetchFunc

	mirror    cache.Store
	mirrorTTL time.Duration
	keyPrefix string

	retryAttempts int
	retryDelay    time.Duration

	logger *zap.Logger
}

func NewCache(cfg config.QueryConfig, fetch FetchFunc, logger *zap.Logger) *Cache {
	resources := make(map[string]config.ResourceConfig, len(cfg.Resources))
	for _, r := range cfg.Resources {
		resources[r.Name] = r
	}
	return &Cache{
		entries:       map[string]*entry{},
		resources:     resources,
		fetch:         fetch,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
		logger:        logger,
	}
}

// WithMirror attaches a shared byte store; successful fetches are written
// through and cold keys are warmed from it before hitting the network.
func (c *Cache) WithMirror(store cache.Store, keyPrefix string, ttl time.Duration) *Cache {
	c.mirror = store
	c.keyPrefix = keyPrefix
	c.mirrorTTL = ttl
	return c
}

func (c *Cache) Resource(name string) (config.ResourceConfig, bool) {
	r, ok := c.resources[name]
	return r, ok
}

// Get returns the cached value for the key, fetching when the entry is cold
// or stale. A disabled query (resource switched off, or the caller's enabled
// predicate false) never issues a network call: whatever is cached is
// returned as-is.
func (c *Cache) Get(ctx context.Context, resource string, filters FilterState, enabled bool) (Result, error) {
	res, ok := c.resources[resource]
	if !ok {
		return Result{State: StateFailed, Err: ErrUnknownResource}, ErrUnknownResource
	}
	key := CacheKey(resource, filters)

	for {
		c.mu.Lock()
		e := c.entries[key]
		if e == nil {
			e = &entry{}
			c.entries[key] = e
			c.warmFromMirror(ctx, key, e)
		}

		if !enabled || !res.Enabled {
			out := snapshot(e)
			c.mu.Unlock()
			return out, nil
		}

		if e.fetching {
			done := e.done
			c.mu.Unlock()
			select {
			case <-ctx.Done():
				return Result{State: StatePending, Err: ctx.Err()}, ctx.Err()
			case <-done:
			}
			continue
		}

		if c.fresh(e, res) {
			out := snapshot(e)
			c.mu.Unlock()
			return out, nil
		}

		// A fetch that just failed is not repeated until the retry delay has
		// passed; waiters get the failed result instead of piling on.
		if e.lastErr != nil && time.Since(e.lastAttempt) < c.retryDelay {
			out := snapshot(e)
			c.mu.Unlock()
			return out, e.lastErr
		}

		e.fetching = true
		e.done = make(chan struct{})
		c.mu.Unlock()

		data, err := c.fetchWithRetry(ctx, res, filters)

		c.mu.Lock()
		e.fetching = false
		e.lastAttempt = time.Now()
		close(e.done)
		if err == nil {
			e.data = data
			e.fetchedAt = time.Now()
			e.lastErr = nil
			c.writeMirror(ctx, key, e)
		} else {
			e.lastErr = err
			if c.logger != nil {
				c.logger.Warn("resource fetch failed",
					zap.String("resource", resource),
					zap.String("filters", filters.QueryString()),
					zap.Error(err),
				)
			}
		}
		out := snapshot(e)
		c.mu.Unlock()
		return out, err
	}
}

// Peek reports the entry state without triggering a fetch.
func (c *Cache) Peek(resource string, filters FilterState) Result {
	key := CacheKey(resource, filters)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Result{State: StateIdle}
	}
	if e.fetching {
		out := snapshot(e)
		out.State = StatePending
		return out
	}
	return snapshot(e)
}

// Invalidate drops one key so the next Get refetches.
func (c *Cache) Invalidate(ctx context.Context, resource string, filters FilterState) {
	key := CacheKey(resource, filters)
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	if c.mirror != nil {
		_ = c.mirror.Delete(ctx, c.keyPrefix+key)
	}
}

// Refresh refetches every known key of a resource regardless of staleness.
// The cron runner calls this on the resource's refresh interval.
func (c *Cache) Refresh(ctx context.Context, resource string) {
	res, ok := c.resources[resource]
	if !ok || !res.Enabled {
		return
	}
	c.mu.Lock()
	keys := make([]string, 0)
	for key := range c.entries {
		if key == resource || strings.HasPrefix(key, resource+"?") {
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()

	for _, key := range keys {
		filters := filtersFromKey(key)
		// Zero the freshness so Get goes to the network.
		c.mu.Lock()
		if e := c.entries[key]; e != nil && !e.fetching {
			e.fetchedAt = time.Time{}
			e.lastAttempt = time.Time{}
		}
		c.mu.Unlock()
		if _, err := c.Get(ctx, resource, filters, true); err != nil && c.logger != nil {
			c.logger.Warn("resource refresh failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (c *Cache) fetchWithRetry(ctx context.Context, res config.ResourceConfig, filters FilterState) ([]byte, error) {
	attempts := c.retryAttempts + 1
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			timer := time.NewTimer(c.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
		data, err := c.fetch(ctx, res, filters)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Cache) fresh(e *entry, res config.ResourceConfig) bool {
	if e.fetchedAt.IsZero() {
		return false
	}
	if res.Staleness <= 0 {
		return true
	}
	return time.Since(e.fetchedAt) < res.Staleness
}

func snapshot(e *entry) Result {
	out := Result{FetchedAt: e.fetchedAt, Err: e.lastErr}
	if len(e.data) > 0 || !e.fetchedAt.IsZero() {
		out.Data = append([]byte(nil), e.data...)
		out.State = StateReady
	} else if e.lastErr != nil {
		out.State = StateFailed
	} else {
		out.State = StateIdle
	}
	return out
}

type mirrorEnvelope struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Data      json.RawMessage `json:"data"`
}

func (c *Cache) warmFromMirror(ctx context.Context, key string, e *entry) {
	if c.mirror == nil {
		return
	}
	b, found, err := c.mirror.Get(ctx, c.keyPrefix+key)
	if err != nil || !found {
		return
	}
	var env mirrorEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return
	}
	e.data = env.Data
	e.fetchedAt = env.FetchedAt
}

func (c *Cache) writeMirror(ctx context.Context, key string, e *entry) {
	if c.mirror == nil {
		return
	}
	b, err := json.Marshal(mirrorEnvelope{FetchedAt: e.fetchedAt, Data: e.data})
	if err != nil {
		return
	}
	if err := c.mirror.Set(ctx, c.keyPrefix+key, b, c.mirrorTTL); err != nil && c.logger != nil {
		c.logger.Warn("cache mirror write failed", zap.String("key", key), zap.Error(err))
	}
}

func filtersFromKey(key string) FilterState {
	idx := strings.Index(key, "?")
	if idx < 0 {
		return FilterState{}
	}
	out := FilterState{}
	for _, pair := range strings.Split(key[idx+1:], "&") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		k, errK := url.QueryUnescape(kv[0])
		v, errV := url.QueryUnescape(kv[1])
		if errK != nil || errV != nil {
			continue
		}
		out[k] = v
	}
	return out
}
