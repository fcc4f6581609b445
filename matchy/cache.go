package matchy

import lru "github.com/hashicorp/golang-lru/v2"

// queryCache is a bounded LRU over decoded query results, keyed by the
// raw query string (spec §4.6 "Cache"). It wraps
// hashicorp/golang-lru/v2, which already serializes access behind one
// internal mutex, so there's no second lock here.
//
// A nil *queryCache is a valid, always-miss cache: every method is a
// no-op on a nil receiver. newQueryCache returns nil for capacity <= 0,
// which is how caching gets disabled.
type queryCache struct {
	cache *lru.Cache[string, QueryResult]
}

func newQueryCache(capacity int) *queryCache {
	if capacity <= 0 {
		return nil
	}
	c, err := lru.New[string, QueryResult](capacity)
	if err != nil {
		// The only documented failure is size <= 0, already excluded.
		panic(err)
	}
	return &queryCache{cache: c}
}

func (c *queryCache) get(key string) (QueryResult, bool) {
	if c == nil {
		return QueryResult{}, false
	}
	return c.cache.Get(key)
}

func (c *queryCache) add(key string, val QueryResult) {
	if c == nil {
		return
	}
	c.cache.Add(key, val)
}

func (c *queryCache) purge() {
	if c != nil {
		c.cache.Purge()
	}
}

func (c *queryCache) len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
