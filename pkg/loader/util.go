package loader

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// CacheKey identifies a file's content within a loader cache.
func CacheKey(file SourceFile) string {
	return file.ID + ":" + file.Path
}

// Cache memoizes loaded file contents. Concurrent loads of the same key
// share one call; failed loads are not cached.
type Cache struct {
	mu    sync.RWMutex
	items map[string][]byte
	group singleflight.Group
}

func NewCache() *Cache {
	return &Cache{items: make(map[string][]byte)}
}

// Load returns the cached content for key or calls fn to produce it.
func (c *Cache) Load(key string, fn func() ([]byte, error)) ([]byte, error) {
	c.mu.RLock()
	if cached, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		if cached, ok := c.items[key]; ok {
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()

		data, err := fn()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.items[key] = data
		c.mu.Unlock()

		return data, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
