package directory

import (
	"context"
	"sync"

	"github.com/Baehyeonu/classwatch/internal/store"
)

// nameCache maps display-string variants to resolved participant IDs so
// repeated events for the same noisy name skip the store.
type nameCache struct {
	ids map[string]int64
	mu  sync.RWMutex
}

func newNameCache() *nameCache {
	return &nameCache{
		ids: make(map[string]int64),
	}
}

func (c *nameCache) get(name string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, exists := c.ids[name]
	return id, exists
}

// putAll records every candidate variant against the resolved ID, amortizing
// future lookups for the same raw string.
func (c *nameCache) putAll(candidates []string, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, candidate := range candidates {
		c.ids[candidate] = id
	}
}

func (c *nameCache) remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.ids, name)
}

func (c *nameCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.ids)
}

// AdminCache is a refreshable read-through cache of administrator chat
// handles. An empty cache fails open: until at least one admin is
// registered, everyone is treated as one so no participant gets alerted by
// a half-configured deployment.
type AdminCache struct {
	store   *store.Store
	handles map[string]struct{}
	loaded  bool
	mu      sync.RWMutex
}

func NewAdminCache(s *store.Store) *AdminCache {
	return &AdminCache{
		store:   s,
		handles: make(map[string]struct{}),
	}
}

// Refresh reloads the admin list from the store.
func (a *AdminCache) Refresh(ctx context.Context) error {
	handles, err := a.store.AdminHandles(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.handles)
	for _, handle := range handles {
		a.handles[handle] = struct{}{}
	}
	a.loaded = true
	return nil
}

// EnsureLoaded refreshes once if the cache has never been populated.
func (a *AdminCache) EnsureLoaded(ctx context.Context) error {
	a.mu.RLock()
	loaded := a.loaded
	a.mu.RUnlock()

	if loaded {
		return nil
	}
	return a.Refresh(ctx)
}

func (a *AdminCache) IsAdmin(chatHandle string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.handles) == 0 {
		return true
	}
	_, exists := a.handles[chatHandle]
	return exists
}

// Handles returns a copy of the cached admin handles.
func (a *AdminCache) Handles() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	all := make([]string, 0, len(a.handles))
	for handle := range a.handles {
		all = append(all, handle)
	}
	return all
}
