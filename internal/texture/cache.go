package texture

import (
	"image"
	"sync"

	"go.uber.org/zap"
)

// Resolver resolves a texture name to a decoded image, or nil.
type Resolver interface {
	Resolve(texName string) *image.NRGBA
}

// Cache is a concurrency-safe texture cache.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*image.NRGBA // nil value: load attempted and failed
	index *Index
	log   *zap.Logger
}

// NewCache creates a new texture cache backed by the given index.
func NewCache(index *Index, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		items: make(map[string]*image.NRGBA),
		index: index,
		log:   log,
	}
}

// Resolve loads and caches a texture by name. Returns nil if not found or
// not decodable.
func (c *Cache) Resolve(texName string) *image.NRGBA {
	path, ok := c.index.ResolvePath(texName)
	if !ok {
		return nil
	}

	// Fast path: read lock
	c.mu.RLock()
	img, exists := c.items[path]
	c.mu.RUnlock()
	if exists {
		return img
	}

	// Slow path: load from disk
	img, err := LoadTexture(path)
	if err != nil {
		c.log.Warn("texture not loaded", zap.String("texture", texName), zap.Error(err))
	}

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, exists := c.items[path]; exists {
		return cached
	}
	c.items[path] = img
	return img
}

// Len returns the number of cached entries, failed loads included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
