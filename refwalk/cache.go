package refwalk

import "sync"

// Cache holds materialised, decoded values keyed by uuid for the duration of
// a single walk. It is not shared across walks (spec §4.2, Ordering
// guarantee). The locking shape — a map of per-key mutexes guarding a single
// store fetch per key, independent of the result cache's own lock — is
// adapted from the projection job's queryCache (modernice/goes
// projection/job.go), which solves the identical "coalesce concurrent
// fetches of the same key" problem for event queries.
type Cache struct {
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	mu        sync.RWMutex
	values    map[string]any
	resolving map[string]bool
}

// NewCache returns an empty, ready-to-use Cache.
func NewCache() *Cache {
	return &Cache{
		locks:     make(map[string]*sync.Mutex),
		values:    make(map[string]any),
		resolving: make(map[string]bool),
	}
}

func (c *Cache) lockFor(uuid string) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	l, ok := c.locks[uuid]
	if !ok {
		l = &sync.Mutex{}
		c.locks[uuid] = l
	}
	return l
}

// Get returns the cached value for uuid, if present.
func (c *Cache) Get(uuid string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[uuid]
	return v, ok
}

// Set stores (or re-stores, per spec step 5) the decoded value for uuid.
func (c *Cache) Set(uuid string, value any) {
	c.mu.Lock()
	c.values[uuid] = value
	c.mu.Unlock()
}

// Has reports whether uuid has a cached value.
func (c *Cache) Has(uuid string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.values[uuid]
	return ok
}

// beginResolving marks uuid as currently under resolution, returning false
// if it already was (a cycle). Callers must call endResolving when done,
// including on error paths.
func (c *Cache) beginResolving(uuid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolving[uuid] {
		return false
	}
	c.resolving[uuid] = true
	return true
}

func (c *Cache) endResolving(uuid string) {
	c.mu.Lock()
	delete(c.resolving, uuid)
	c.mu.Unlock()
}
