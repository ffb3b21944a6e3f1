package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RanolP/imakaraokay/internal/domain"
	"github.com/RanolP/imakaraokay/internal/metrics"
	"github.com/RanolP/imakaraokay/internal/textnorm"
)

const defaultCacheMaxEntries = 400

type cachedResponse struct {
	payload   []byte
	updatedAt time.Time
	expiresAt time.Time
}

// responseCache keeps encoded aggregates so hits never share slices with
// callers.
type responseCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]*cachedResponse
	now        func() time.Time
}

func newResponseCache(ttl time.Duration, maxEntries int) *responseCache {
	if maxEntries <= 0 {
		maxEntries = defaultCacheMaxEntries
	}
	return &responseCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]*cachedResponse),
		now:        time.Now,
	}
}

func (c *responseCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.payload, true
}

func (c *responseCache) set(key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &cachedResponse{
		payload:   payload,
		updatedAt: now,
		expiresAt: now.Add(c.ttl),
	}
	c.trimLocked(now)
}

func (c *responseCache) trimLocked(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	type pair struct {
		key   string
		entry *cachedResponse
	}
	items := make([]pair, 0, len(c.entries))
	for key, entry := range c.entries {
		items = append(items, pair{key: key, entry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].entry.updatedAt.Before(items[j].entry.updatedAt)
	})
	for i := 0; i < len(items)-c.maxEntries; i++ {
		delete(c.entries, items[i].key)
	}
}

// cacheKey identifies one exact query of one kind. Queries that normalize to
// the same text share an entry.
func cacheKey(kind string, query domain.Query) string {
	return strings.Join([]string{
		"k=" + kind,
		"q=" + textnorm.Normalize(query.Text),
		"l=" + strconv.Itoa(query.MaxResults),
	}, "|")
}

func (e *Engine) cacheLookup(ctx context.Context, key string, dst any) bool {
	if e.cache == nil {
		return false
	}
	if e.redisCache != nil {
		payload, found, err := e.redisCache.Get(ctx, key)
		if err != nil {
			e.logger.WarnContext(ctx, "redis cache read failed", slog.String("error", err.Error()))
		}
		if found && json.Unmarshal(payload, dst) == nil {
			metrics.CacheHitsTotal.Inc()
			e.cache.set(key, payload)
			return true
		}
	}

	payload, ok := e.cache.get(key)
	if !ok || json.Unmarshal(payload, dst) != nil {
		metrics.CacheMissesTotal.Inc()
		return false
	}
	metrics.CacheHitsTotal.Inc()
	return true
}

func (e *Engine) cacheStore(ctx context.Context, key string, value any) {
	if e.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if e.redisCache != nil {
		if err := e.redisCache.Set(ctx, key, payload, e.cache.ttl); err != nil {
			e.logger.WarnContext(ctx, "redis cache write failed", slog.String("error", err.Error()))
		}
	}
	e.cache.set(key, payload)
}
