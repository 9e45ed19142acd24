package ukcp

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yegors/flightboard/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// FailureBackoff is the minimum wait after a failed fetch before trying again.
// It never exceeds the cache TTL.
const FailureBackoff = 30 * time.Second

// Snapshot is an immutable callsign index taken from one successful fetch
type Snapshot struct {
	byCallsign map[string]Assignment
	labels     Labels
	fetchedAt  time.Time
}

// Len returns the number of assignments in the snapshot
func (s Snapshot) Len() int {
	return len(s.byCallsign)
}

// FetchedAt is when the data was retrieved, zero if never
func (s Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// Lookup returns the translated stand label for a callsign at an airport.
// A record for a different airport is not trusted.
func (s Snapshot) Lookup(callsign, icao string) (string, bool) {
	a, ok := s.byCallsign[callsign]
	if !ok || !strings.EqualFold(a.Airport, icao) {
		return "", false
	}
	return s.labels.Label(a.StandID), true
}

// Assignment returns the raw record for a callsign
func (s Snapshot) Assignment(callsign string) (Assignment, bool) {
	a, ok := s.byCallsign[callsign]
	return a, ok
}

// Cache holds the last good assignment list with a time-to-live
type Cache struct {
	fetcher Fetcher
	labels  Labels
	ttl     time.Duration
	now     func() time.Time
	logger  *logger.Logger

	group singleflight.Group

	mu          sync.RWMutex
	snapshot    Snapshot
	lastFailure time.Time
}

// NewCache creates a cache around a fetcher. A nil clock means time.Now.
func NewCache(fetcher Fetcher, labels Labels, ttl time.Duration, now func() time.Time, log *logger.Logger) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		fetcher:  fetcher,
		labels:   labels,
		ttl:      ttl,
		now:      now,
		logger:   log.Named("ukcp-cache"),
		snapshot: Snapshot{labels: labels},
	}
}

// Current returns the cached snapshot without refreshing
func (c *Cache) Current() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// IsExpired reports whether the cached data is older than the TTL
func (c *Cache) IsExpired() bool {
	s := c.Current()
	return s.fetchedAt.IsZero() || c.now().Sub(s.fetchedAt) > c.ttl
}

// shouldFetch reports whether the data is expired and no recent fetch failed
func (c *Cache) shouldFetch() bool {
	if !c.IsExpired() {
		return false
	}
	c.mu.RLock()
	failed := c.lastFailure
	c.mu.RUnlock()
	return failed.IsZero() || c.now().Sub(failed) >= min(FailureBackoff, c.ttl)
}

// GetOrRefresh returns fresh data when the cache is expired and the fetch succeeds,
// otherwise the last good snapshot. Concurrent callers share one fetch, and a
// failed fetch is not retried until FailureBackoff has passed.
func (c *Cache) GetOrRefresh(ctx context.Context) Snapshot {
	if !c.shouldFetch() {
		return c.Current()
	}

	v, _, _ := c.group.Do("refresh", func() (any, error) {
		// Another caller may have refreshed while we waited
		if !c.shouldFetch() {
			return c.Current(), nil
		}

		assignments, err := c.fetcher.FetchAssignments(ctx)
		if err != nil {
			c.mu.Lock()
			c.lastFailure = c.now()
			c.mu.Unlock()

			last := c.Current()
			c.logger.Warn("Stand assignment fetch failed, serving last good data",
				logger.Error(err),
				logger.Int("cached", last.Len()),
				logger.Time("fetched_at", last.fetchedAt))
			return last, nil
		}

		next := Snapshot{
			byCallsign: make(map[string]Assignment, len(assignments)),
			labels:     c.labels,
			fetchedAt:  c.now(),
		}
		for _, a := range assignments {
			next.byCallsign[a.Callsign] = a
		}

		c.mu.Lock()
		c.snapshot = next
		c.lastFailure = time.Time{}
		c.mu.Unlock()

		c.logger.Info("Stand assignments refreshed", logger.Int("count", len(assignments)))
		return next, nil
	})
	return v.(Snapshot)
}

// Labels translates numeric stand IDs to display labels
type Labels map[int]string

// Label returns the translated label or the raw ID as text
func (l Labels) Label(id int) string {
	if label, ok := l[id]; ok && label != "" {
		return label
	}
	return strconv.Itoa(id)
}
