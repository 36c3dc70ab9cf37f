package upstream

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/leoprim/ranked-tracker-web/internal/release"
	"github.com/leoprim/ranked-tracker-web/pkg/logger"
	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	releases []release.Release
	expires  time.Time
}

// CachedSource memoizes successful listings of another Source for a fixed
// window. Failures are never cached. A TTL of zero disables the memo.
type CachedSource struct {
	next release.Source
	ttl  time.Duration
	now  func() time.Time
	log  *logger.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewCachedSource wraps next with a time-boxed memo keyed by project
func NewCachedSource(next release.Source, ttl time.Duration, log *logger.Logger) *CachedSource {
	if log == nil {
		log = logger.NewLogger("cache")
	}
	return &CachedSource{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		log:     log,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(project string, pageSize int) string {
	return fmt.Sprintf("%s?per_page=%d", project, pageSize)
}

// ListReleases serves from the memo when fresh, otherwise fetches once for
// all concurrent callers of the same key.
func (c *CachedSource) ListReleases(ctx context.Context, project string, pageSize int) ([]release.Release, error) {
	if c.ttl <= 0 {
		return c.next.ListReleases(ctx, project, pageSize)
	}

	key := cacheKey(project, pageSize)
	if rels, ok := c.lookup(key); ok {
		c.log.WithFields(logger.Fields{"key": key}).Debug("Release cache hit")
		return rels, nil
	}

	// The shared fetch must not die with whichever caller started it; the
	// source applies its own timeout.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if rels, ok := c.lookup(key); ok {
			return rels, nil
		}
		rels, err := c.next.ListReleases(fetchCtx, project, pageSize)
		if err != nil {
			return nil, err
		}
		c.store(key, rels)
		return rels, nil
	})

	select {
	case <-ctx.Done():
		return nil, &release.TransportError{Project: project, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]release.Release)), nil
	}
}

// Purge drops every memoized listing
func (c *CachedSource) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func (c *CachedSource) lookup(key string) ([]release.Release, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.expires) {
		return nil, false
	}
	return slices.Clone(entry.releases), true
}

func (c *CachedSource) store(key string, rels []release.Release) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// drop whatever expired meanwhile so the map stays bounded by live keys
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}

	c.entries[key] = cacheEntry{
		releases: slices.Clone(rels),
		expires:  now.Add(c.ttl),
	}
}
