package resolve

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"
)

// Cache remembers successful LLM mappings so repeated or edited messages do
// not burn another completion call. Entries expire after a TTL and the least
// recently used entry is evicted when the cache is at capacity. The key mixes
// the normalized input with a hash of the candidate subset, so a changed
// customer list never serves a stale mapping.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	data    map[string]cacheEntry
}

type cacheEntry struct {
	record   string
	stored   time.Time
	accessed time.Time
}

func NewCache(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		data:    make(map[string]cacheEntry),
	}
}

func cacheKey(text string, candidates []string) string {
	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Strings(sorted)

	sum := md5.Sum([]byte(strings.Join(sorted, "\x00")))
	return strings.ToLower(strings.TrimSpace(text)) + ":" + hex.EncodeToString(sum[:])[:8]
}

func (c *Cache) Get(text string, candidates []string) (string, bool) {
	key := cacheKey(text, candidates)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return "", false
	}
	if time.Since(entry.stored) > c.ttl {
		delete(c.data, key)
		return "", false
	}

	entry.accessed = time.Now()
	c.data[key] = entry
	return entry.record, true
}

func (c *Cache) Set(text string, candidates []string, record string) {
	key := cacheKey(text, candidates)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.data) >= c.maxSize {
		if _, exists := c.data[key]; !exists {
			c.evictOldest()
		}
	}

	now := time.Now()
	c.data[key] = cacheEntry{record: record, stored: now, accessed: now}
}

// evictOldest drops the least recently accessed entry. Caller holds the lock.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	first := true
	for key, entry := range c.data {
		if first || entry.accessed.Before(oldest) {
			oldestKey, oldest = key, entry.accessed
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.data, oldestKey)
	}
}

// Sweep removes expired entries; called periodically by the owner.
func (c *Cache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.Sub(entry.stored) > c.ttl {
			delete(c.data, key)
		}
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
