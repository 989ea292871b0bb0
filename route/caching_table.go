package route

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// StaticTable is the simplest Table: a fixed map built once at startup
// from the host process's registered handlers.
type StaticTable map[uint64]Route

func (t StaticTable) GetRoute(routeHash uint64) (Route, bool) {
	rt, ok := t[routeHash]
	return rt, ok
}

// CachingTable wraps a slower Table (one backed by a database-stored
// route configuration, say) with an LRU cache of recent lookups, so a hot
// route_hash doesn't pay the backing lookup cost on every chunk.
type CachingTable struct {
	backing Table
	cache   *lru.Cache[uint64, Route]
}

// NewCachingTable wraps backing with an LRU of the given size.
func NewCachingTable(backing Table, size int) (*CachingTable, error) {
	cache, err := lru.New[uint64, Route](size)
	if err != nil {
		return nil, err
	}
	return &CachingTable{backing: backing, cache: cache}, nil
}

func (t *CachingTable) GetRoute(routeHash uint64) (Route, bool) {
	if rt, ok := t.cache.Get(routeHash); ok {
		return rt, true
	}
	rt, ok := t.backing.GetRoute(routeHash)
	if ok {
		t.cache.Add(routeHash, rt)
	}
	return rt, ok
}
