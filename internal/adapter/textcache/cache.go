package textcache

import (
	"sync"

	"github.com/couchcryptid/water-risk-etl/internal/domain"
	"github.com/couchcryptid/water-risk-etl/internal/observability"
)

// CachedExtractor wraps a TextExtractor with an in-memory LRU cache keyed on
// the report text. Extraction is pure, so a hit returns exactly what the
// wrapped extractor would.
type CachedExtractor struct {
	inner   domain.TextExtractor
	cache   *lruCache
	metrics *observability.Metrics
}

// New creates a cache decorator around an extractor. maxEntries must be positive.
func New(inner domain.TextExtractor, maxEntries int, metrics *observability.Metrics) *CachedExtractor {
	if maxEntries < 1 {
		maxEntries = 1
	}
	metrics.ExtractCacheEnabled.Set(1)
	return &CachedExtractor{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedExtractor) Extract(text string) domain.Extraction {
	if ext, ok := c.cache.get(text); ok {
		c.metrics.ExtractCache.WithLabelValues("hit").Inc()
		return ext
	}
	c.metrics.ExtractCache.WithLabelValues("miss").Inc()

	ext := c.inner.Extract(text)
	c.cache.put(text, ext)
	return ext
}

// Len returns the number of cached reports.
func (c *CachedExtractor) Len() int {
	return c.cache.len()
}

// lruCache is a mutex-guarded LRU list over a map.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key        string
	value      domain.Extraction
	prev, next *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry, maxEntries),
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) get(key string) (domain.Extraction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Extraction{}, false
	}
	c.touch(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Extraction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.touch(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	for len(c.entries) > c.maxEntries {
		c.evictOldest()
	}
}

func (c *lruCache) touch(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache) pushFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *lruCache) evictOldest() {
	oldest := c.tail
	if oldest == nil {
		return
	}
	c.unlink(oldest)
	delete(c.entries, oldest.key)
}
