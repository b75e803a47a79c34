package bloghost

import (
	"sync"
)

// PageCache is the fast, non-durable tier: rendered page output keyed by
// resource path. Entries live until an invalidation purges them; there is no
// TTL. The durable tier (the html_cache table on Store) is reserved for
// expensive derived resources like the syndication feed.
type PageCache struct {
	mu    sync.RWMutex
	pages map[string][]byte
}

// NewPageCache creates an empty page cache.
func NewPageCache() *PageCache {
	return &PageCache{pages: make(map[string][]byte)}
}

// Get returns the cached body for path, if any.
func (c *PageCache) Get(path string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	body, ok := c.pages[path]
	return body, ok
}

// Set stores a rendered body under path.
func (c *PageCache) Set(path string, body []byte) {
	c.mu.Lock()
	c.pages[path] = body
	c.mu.Unlock()
}

// Delete purges a single path.
func (c *PageCache) Delete(path string) {
	c.mu.Lock()
	delete(c.pages, path)
	c.mu.Unlock()
}

// Len reports how many paths are cached.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}
