package suggest

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"finconsole/internal/config"
)

// Item is an ephemeral suggestion; superseded items are discarded wholesale,
// never merged into a newer set.
type Item struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

type State string

const (
	StateIdle       State = "idle"
	StateDebouncing State = "debouncing"
	StateInFlight   State = "in_flight"
)

// Result is pushed to the fetcher's sink on every settled transition.
type Result struct {
	Query    string
	Items    []Item
	Resolved bool
	Aborted  bool
	Failed   bool
	Err      error
}

// FetchFunc performs the suggestion lookup. Implementations must honor ctx.
type FetchFunc func(ctx context.Context, query string) ([]Item, error)

// Fetcher turns a rapid keystroke stream into at most one in-flight lookup.
// Every keystroke resets the debounce timer; a keystroke during an in-flight
// request cancels it. A response is applied only when its request tag still
// equals the latest issued tag and its context was not cancelled; a request
// can be superseded after it resolves but before the result is applied, so
// the tag check alone is not enough.
type Fetcher struct {
	mu     sync.Mutex
	state  State
	seq    uint64
	cancel context.CancelFunc
	timer  *time.Timer

	debounce time.Duration
	minChars int
	timeout  time.Duration

	fetch    FetchFunc
	onResult func(Result)
	logger   *zap.Logger
}

func NewFetcher(cfg config.SuggestConfig, fetch FetchFunc, onResult func(Result), logger *zap.Logger) *Fetcher {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	minChars := cfg.MinChars
	if minChars <= 0 {
		minChars = 2
	}
	return &Fetcher{
		state:    StateIdle,
		debounce: debounce,
		minChars: minChars,
		timeout:  cfg.Timeout,
		fetch:    fetch,
		onResult: onResult,
		logger:   logger,
	}
}

func (f *Fetcher) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Input registers one keystroke's worth of text.
func (f *Fetcher) Input(query string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	// Invalidate any outstanding request tag.
	f.seq++

	trimmed := strings.TrimSpace(query)
	if len([]rune(trimmed)) < f.minChars {
		f.state = StateIdle
		f.emit(Result{Query: trimmed, Items: nil, Resolved: true})
		return
	}

	f.state = StateDebouncing
	armed := f.seq
	f.timer = time.AfterFunc(f.debounce, func() { f.fire(trimmed, armed) })
}

// Close cancels any outstanding timer and request.
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.seq++
	f.state = StateIdle
}

func (f *Fetcher) fire(query string, armed uint64) {
	f.mu.Lock()
	// The state check alone is not enough: an expired timer whose callback
	// lost the lock race with a newer Input would observe that keystroke's
	// Debouncing state. The generation captured at arming time tells the
	// two cycles apart.
	if f.state != StateDebouncing || f.seq != armed {
		f.mu.Unlock()
		return
	}
	f.seq++
	tag := f.seq
	base := context.Background()
	var ctx context.Context
	var cancel context.CancelFunc
	if f.timeout > 0 {
		ctx, cancel = context.WithTimeout(base, f.timeout)
	} else {
		ctx, cancel = context.WithCancel(base)
	}
	f.cancel = cancel
	f.state = StateInFlight
	f.mu.Unlock()

	go func() {
		items, err := f.fetch(ctx, query)
		cancelled := ctx.Err() == context.Canceled

		f.mu.Lock()
		defer f.mu.Unlock()
		if tag != f.seq {
			// Stale response: a newer request was issued. Never applied.
			return
		}
		f.cancel = nil
		f.state = StateIdle
		switch {
		case cancelled:
			f.emit(Result{Query: query, Aborted: true})
		case err != nil:
			// Failures are logged only; the panel just stays empty.
			if f.logger != nil {
				f.logger.Warn("suggestion fetch failed", zap.String("query", query), zap.Error(err))
			}
			f.emit(Result{Query: query, Failed: true, Err: err})
		default:
			f.emit(Result{Query: query, Items: items, Resolved: true})
		}
	}()
}

func (f *Fetcher) emit(r Result) {
	if f.onResult != nil {
		f.onResult(r)
	}
}
