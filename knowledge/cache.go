package knowledge

import (
	lru "github.com/hashicorp/golang-lru"
)

// BuildCache memoises Build by document fingerprint so that reloading an
// unchanged document reuses the existing base.
type BuildCache struct {
	cache *lru.Cache
}

// NewBuildCache returns a cache holding up to size knowledge bases.
func NewBuildCache(size int) (*BuildCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &BuildCache{cache: cache}, nil
}

// Build returns the cached base for text or builds and caches a new one.
// The boolean reports a cache hit. Failed builds are not cached.
func (c *BuildCache) Build(text string) (*KnowledgeBase, bool, error) {
	fp := Fingerprint(text)
	if v, ok := c.cache.Get(fp); ok {
		return v.(*KnowledgeBase), true, nil
	}
	kb, err := Build(text)
	if err != nil {
		return nil, false, err
	}
	c.cache.Add(fp, kb)
	return kb, false, nil
}

// Len returns the number of cached bases.
func (c *BuildCache) Len() int {
	return c.cache.Len()
}
