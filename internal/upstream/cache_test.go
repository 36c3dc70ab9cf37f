package upstream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leoprim/ranked-tracker-web/internal/release"
)

type countingSource struct {
	calls    atomic.Int32
	releases []release.Release
	err      error
	gate     chan struct{}
}

func (s *countingSource) ListReleases(ctx context.Context, project string, pageSize int) ([]release.Release, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.releases, nil
}

var sampleReleases = []release.Release{
	{Tag: "obs-plugin-v1.0", Assets: []release.Asset{{Name: "setup.exe", URL: "https://host/a.exe"}}},
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(next release.Source, ttl time.Duration) (*CachedSource, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCachedSource(next, ttl, nil)
	c.now = clock.Now
	return c, clock
}

func TestCachedSource_HitWithinTTL(t *testing.T) {
	src := &countingSource{releases: sampleReleases}
	cache, clock := newTestCache(src, 5*time.Minute)

	for i := 0; i < 3; i++ {
		rels, err := cache.ListReleases(context.Background(), "o/r", 10)
		if err != nil {
			t.Fatalf("ListReleases() error = %v", err)
		}
		if len(rels) != 1 {
			t.Fatalf("expected 1 release, got %d", len(rels))
		}
		clock.Advance(time.Minute)
	}

	if n := src.calls.Load(); n != 1 {
		t.Errorf("expected 1 upstream call within TTL, got %d", n)
	}
}

func TestCachedSource_RefetchAfterTTL(t *testing.T) {
	src := &countingSource{releases: sampleReleases}
	cache, clock := newTestCache(src, 5*time.Minute)

	if _, err := cache.ListReleases(context.Background(), "o/r", 10); err != nil {
		t.Fatalf("ListReleases() error = %v", err)
	}
	clock.Advance(5 * time.Minute)
	if _, err := cache.ListReleases(context.Background(), "o/r", 10); err != nil {
		t.Fatalf("ListReleases() error = %v", err)
	}

	if n := src.calls.Load(); n != 2 {
		t.Errorf("expected refetch after TTL, got %d calls", n)
	}
}

func TestCachedSource_KeyedByProjectAndPageSize(t *testing.T) {
	src := &countingSource{releases: sampleReleases}
	cache, _ := newTestCache(src, time.Minute)

	ctx := context.Background()
	_, _ = cache.ListReleases(ctx, "o/one", 10)
	_, _ = cache.ListReleases(ctx, "o/two", 10)
	_, _ = cache.ListReleases(ctx, "o/one", 5)
	_, _ = cache.ListReleases(ctx, "o/one", 10)

	if n := src.calls.Load(); n != 3 {
		t.Errorf("expected 3 distinct fetches, got %d", n)
	}
}

func TestCachedSource_ErrorsAreNotCached(t *testing.T) {
	src := &countingSource{err: &release.TransportError{Project: "o/r", StatusCode: 503, Err: errors.New("down")}}
	cache, _ := newTestCache(src, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := cache.ListReleases(context.Background(), "o/r", 10)
		if !release.IsTransport(err) {
			t.Fatalf("expected transport failure, got %v", err)
		}
	}
	if n := src.calls.Load(); n != 2 {
		t.Errorf("expected failures to be retried on the next call, got %d calls", n)
	}

	src.err = nil
	src.releases = sampleReleases
	rels, err := cache.ListReleases(context.Background(), "o/r", 10)
	if err != nil || len(rels) != 1 {
		t.Errorf("expected recovery after error, got %v, %v", rels, err)
	}
}

func TestCachedSource_ZeroTTLDisables(t *testing.T) {
	src := &countingSource{releases: sampleReleases}
	cache, _ := newTestCache(src, 0)

	for i := 0; i < 3; i++ {
		if _, err := cache.ListReleases(context.Background(), "o/r", 10); err != nil {
			t.Fatalf("ListReleases() error = %v", err)
		}
	}
	if n := src.calls.Load(); n != 3 {
		t.Errorf("expected passthrough with zero TTL, got %d calls", n)
	}
}

func TestCachedSource_ConcurrentMissesCollapse(t *testing.T) {
	src := &countingSource{releases: sampleReleases, gate: make(chan struct{})}
	cache, _ := newTestCache(src, time.Minute)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.ListReleases(context.Background(), "o/r", 10)
			errs <- err
		}()
	}

	// let the callers pile up behind the in-flight fetch
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("ListReleases() error = %v", err)
		}
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("expected a single upstream fetch, got %d", n)
	}
}

func TestCachedSource_CallerCancellation(t *testing.T) {
	src := &countingSource{releases: sampleReleases, gate: make(chan struct{})}
	defer close(src.gate)
	cache, _ := newTestCache(src, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := cache.ListReleases(ctx, "o/r", 10)
	if !release.IsTransport(err) {
		t.Errorf("expected transport failure on caller timeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestCachedSource_ReturnsCopies(t *testing.T) {
	src := &countingSource{releases: []release.Release{{Tag: "obs-plugin-v1.0"}}}
	cache, _ := newTestCache(src, time.Minute)

	first, _ := cache.ListReleases(context.Background(), "o/r", 10)
	first[0].Tag = "mutated"

	second, _ := cache.ListReleases(context.Background(), "o/r", 10)
	if second[0].Tag != "obs-plugin-v1.0" {
		t.Errorf("cache entry was mutated through a returned slice: %q", second[0].Tag)
	}
}

func TestCachedSource_Purge(t *testing.T) {
	src := &countingSource{releases: sampleReleases}
	cache, _ := newTestCache(src, time.Minute)

	_, _ = cache.ListReleases(context.Background(), "o/r", 10)
	cache.Purge()
	_, _ = cache.ListReleases(context.Background(), "o/r", 10)

	if n := src.calls.Load(); n != 2 {
		t.Errorf("expected refetch after purge, got %d calls", n)
	}
}
