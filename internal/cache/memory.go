package cache

import (
	"container/list"
	"sync"
	"time"
)

// Memory is an in-memory LRU of encoded audio bounded by total byte size.
// Entries older than the configured TTL are treated as misses.
type Memory struct {
	capacity int64
	size     int64
	ttl      time.Duration

	items    map[string]*list.Element
	eviction *list.List

	mu    sync.Mutex
	stats Stats

	now func() time.Time
}

type entry struct {
	key    string
	value  []byte
	stored time.Time
}

// NewMemory returns a cache holding at most capacity bytes. A zero ttl
// keeps entries until they are evicted.
func NewMemory(capacity int64, ttl time.Duration) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		stats:    Stats{Capacity: capacity},
		now:      time.Now,
	}
}

// Get returns the clip stored under key.
func (c *Memory) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	e := elem.Value.(*entry)
	if c.expired(e) {
		c.remove(elem)
		c.stats.Misses++
		return nil, false
	}

	c.eviction.MoveToFront(elem)
	c.stats.Hits++
	return e.value, true
}

// Put stores value under key, evicting least recently used clips as
// needed.
func (c *Memory) Put(key string, value []byte) error {
	n := int64(len(value))
	if n > c.capacity {
		return ErrItemTooLarge
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry)
		c.size += n - int64(len(e.value))
		e.value = value
		e.stored = c.now()
		c.eviction.MoveToFront(elem)
	} else {
		elem := c.eviction.PushFront(&entry{key: key, value: value, stored: c.now()})
		c.items[key] = elem
		c.size += n
	}

	for c.size > c.capacity && c.eviction.Len() > 1 {
		c.evictOldest()
	}
	return nil
}

// Delete removes key if present.
func (c *Memory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

// Clear empties the cache. Counters are kept.
func (c *Memory) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.size = 0
}

// Len returns the number of cached clips.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Size returns the cached bytes.
func (c *Memory) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns a snapshot of the counters.
func (c *Memory) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.size
	s.Items = int64(len(c.items))
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Prune drops expired clips and returns how many were removed.
func (c *Memory) Prune() int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	pruned := 0
	for elem := c.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*entry)) {
			c.remove(elem)
			pruned++
		}
		elem = prev
	}
	return pruned
}

func (c *Memory) expired(e *entry) bool {
	return c.ttl > 0 && c.now().Sub(e.stored) > c.ttl
}

// must be called with c.mu held
func (c *Memory) evictOldest() {
	if elem := c.eviction.Back(); elem != nil {
		c.remove(elem)
		c.stats.Evictions++
		c.stats.LastEvict = c.now()
	}
}

// must be called with c.mu held
func (c *Memory) remove(elem *list.Element) {
	c.eviction.Remove(elem)
	e := elem.Value.(*entry)
	delete(c.items, e.key)
	c.size -= int64(len(e.value))
}
