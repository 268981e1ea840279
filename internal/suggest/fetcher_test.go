package suggest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"finconsole/internal/config"
)

func testSuggestConfig(debounce time.Duration) config.SuggestConfig {
	return config.SuggestConfig{Debounce: debounce, MinChars: 2}
}

type resultSink struct {
	mu      sync.Mutex
	results []Result
	ch      chan Result
}

func newResultSink() *resultSink {
	return &resultSink{ch: make(chan Result, 16)}
}

func (s *resultSink) push(r Result) {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
	s.ch <- r
}

func (s *resultSink) wait(t *testing.T) Result {
	t.Helper()
	select {
	case r := <-s.ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for result")
		return Result{}
	}
}

func TestBurstIssuesOneRequestForFinalInput(t *testing.T) {
	var calls int32
	var lastQuery atomic.Value
	fetch := func(ctx context.Context, q string) ([]Item, error) {
		atomic.AddInt32(&calls, 1)
		lastQuery.Store(q)
		return []Item{{ID: "1", Text: q}}, nil
	}
	sink := newResultSink()
	f := NewFetcher(testSuggestConfig(20*time.Millisecond), fetch, sink.push, nil)
	defer f.Close()

	// Keystrokes faster than the debounce interval.
	f.Input("po")
	f.Input("por")
	f.Input("port")
	f.Input("portfolio")

	r := sink.wait(t)
	if !r.Resolved {
		t.Fatalf("result = %+v, want resolved", r)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("fetch calls = %d, want 1", n)
	}
	if q := lastQuery.Load(); q != "portfolio" {
		t.Fatalf("query = %v, want portfolio", q)
	}
}

func TestShortInputGoesIdleWithoutRequest(t *testing.T) {
	var calls int32
	fetch := func(ctx context.Context, q string) ([]Item, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}
	sink := newResultSink()
	f := NewFetcher(testSuggestConfig(5*time.Millisecond), fetch, sink.push, nil)
	defer f.Close()

	f.Input("a")
	r := sink.wait(t)
	if len(r.Items) != 0 || !r.Resolved {
		t.Fatalf("result = %+v, want empty resolved set", r)
	}
	if got := f.State(); got != StateIdle {
		t.Fatalf("state = %s, want idle", got)
	}
	time.Sleep(20 * time.Millisecond)
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("fetch calls = %d, want 0", n)
	}
}

func TestExpiredTimerFromSupersededKeystrokeNeverFires(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	fetch := func(ctx context.Context, q string) ([]Item, error) {
		mu.Lock()
		queries = append(queries, q)
		mu.Unlock()
		return []Item{{ID: "1", Text: q}}, nil
	}
	sink := newResultSink()
	f := NewFetcher(testSuggestConfig(30*time.Millisecond), fetch, sink.push, nil)
	defer f.Close()

	f.Input("older text")
	f.mu.Lock()
	supersededArm := f.seq
	f.mu.Unlock()

	f.Input("final text")

	// The first timer expired but its callback lost the lock race with the
	// second Input, so Stop returned false and the callback runs only now,
	// while the newer keystroke is debouncing.
	f.fire("older text", supersededArm)

	r := sink.wait(t)
	if !r.Resolved || r.Query != "final text" {
		t.Fatalf("settled result = %+v, want resolved for the final keystroke", r)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(queries) != 1 || queries[0] != "final text" {
		t.Fatalf("requests issued = %v, want only the final keystroke's", queries)
	}
}

func TestStaleResponseNeverOverwritesNewerState(t *testing.T) {
	// Request for "first" blocks until released; "second" resolves
	// immediately. The late first response must be discarded.
	releaseFirst := make(chan struct{})
	fetch := func(ctx context.Context, q string) ([]Item, error) {
		if q == "first" {
			<-releaseFirst
			return []Item{{ID: "stale", Text: "first"}}, nil
		}
		return []Item{{ID: "live", Text: "second"}}, nil
	}
	sink := newResultSink()
	f := NewFetcher(testSuggestConfig(5*time.Millisecond), fetch, sink.push, nil)
	defer f.Close()

	f.Input("first")
	time.Sleep(20 * time.Millisecond) // let "first" go in flight

	f.Input("second")
	r := sink.wait(t)
	if !r.Resolved || len(r.Items) != 1 || r.Items[0].ID != "live" {
		t.Fatalf("result = %+v, want live items", r)
	}

	close(releaseFirst)
	time.Sleep(20 * time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, got := range sink.results {
		for _, it := range got.Items {
			if it.ID == "stale" {
				t.Fatalf("stale response was applied: %+v", sink.results)
			}
		}
	}
}

func TestKeystrokeDuringFlightCancelsRequest(t *testing.T) {
	inFlight := make(chan struct{}, 1)
	fetch := func(ctx context.Context, q string) ([]Item, error) {
		if q == "slow query" {
			inFlight <- struct{}{}
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []Item{{ID: "2", Text: q}}, nil
	}
	sink := newResultSink()
	f := NewFetcher(testSuggestConfig(5*time.Millisecond), fetch, sink.push, nil)
	defer f.Close()

	f.Input("slow query")
	select {
	case <-inFlight:
	case <-time.After(2 * time.Second):
		t.Fatalf("first request never started")
	}

	f.Input("fast query")
	r := sink.wait(t)
	if !r.Resolved || r.Query != "fast query" {
		t.Fatalf("result = %+v, want resolution of the second query", r)
	}
}

func TestFailureClearsItemsWithoutSurfacing(t *testing.T) {
	fetch := func(ctx context.Context, q string) ([]Item, error) {
		return nil, errors.New("boom")
	}
	sink := newResultSink()
	f := NewFetcher(testSuggestConfig(5*time.Millisecond), fetch, sink.push, nil)
	defer f.Close()

	f.Input("query")
	r := sink.wait(t)
	if !r.Failed || len(r.Items) != 0 {
		t.Fatalf("result = %+v, want failed with empty items", r)
	}
	if got := f.State(); got != StateIdle {
		t.Fatalf("state = %s, want idle after failure", got)
	}
}
