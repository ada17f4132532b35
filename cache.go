package loom

import "fmt"

// queryCache deduplicates compiled Queries by their QueryDescription,
// so calling World.Query with an equal description twice returns the
// same *Query instance instead of recompiling it. It is keyed directly
// on QueryDescription.key() rather than wrapping a generic cache meant
// for arbitrary payloads — a World only ever caches one kind of thing.
type queryCache struct {
	byKey       map[string]*Query
	maxCapacity int
}

func newQueryCache(capacity int) *queryCache {
	return &queryCache{
		byKey:       make(map[string]*Query, capacity),
		maxCapacity: capacity,
	}
}

// lookup returns the cached Query for key, if one has been registered.
func (c *queryCache) lookup(key string) (*Query, bool) {
	q, ok := c.byKey[key]
	return q, ok
}

// register memoizes q under key. Once the cache reaches maxCapacity it
// stops accepting new entries — q still works uncached, it simply
// won't be handed back by a later lookup with the same key.
func (c *queryCache) register(key string, q *Query) error {
	if len(c.byKey) >= c.maxCapacity {
		return fmt.Errorf("loom: query cache at maximum capacity (%d)", c.maxCapacity)
	}
	c.byKey[key] = q
	return nil
}

// clear drops every cached Query, for World.Clear. Queries already
// held by a caller keep working; they just stop being the instance a
// future World.Query call with the same description returns.
func (c *queryCache) clear() {
	c.byKey = make(map[string]*Query, c.maxCapacity)
}
