package cache

import (
	"container/heap"
	"container/list"
	"hash/maphash"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// Options configures an LRU.
type Options struct {
	// Shards is the number of independently locked segments. Values below
	// one mean one. Capped at the capacity.
	Shards int

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// LRU is a capacity-bounded cache with optional per-entry expiry.
// It is safe for concurrent use. Capacity applies to the whole cache:
// shards only split the locks, and eviction picks the least recently
// used entry across every shard.
type LRU[K comparable, V any] struct {
	shards   []*shard[K, V]
	seed     maphash.Seed
	capacity int
	now      func() time.Time

	// insertMu serialises insertions of new keys so the size check and
	// the eviction it triggers are atomic with respect to other inserts.
	insertMu sync.Mutex
	size     atomic.Int64

	// tick orders accesses across shards.
	tick atomic.Uint64

	hits        atomic.Uint64
	misses      atomic.Uint64
	staleHits   atomic.Uint64
	evictions   atomic.Uint64
	expirations atomic.Uint64
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	seq       uint64
	expiresAt time.Time // zero means no expiry
	elem      *list.Element
	heapIndex int // -1 when not in the expiry heap
}

func (e *entry[K, V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

type shard[K comparable, V any] struct {
	mu     sync.Mutex
	items  map[K]*entry[K, V]
	order  *list.List // front is most recently used
	expiry expiryHeap[K, V]
	size   *atomic.Int64
}

// New creates an LRU holding at most capacity entries.
// A non-positive capacity is treated as one.
func New[K comparable, V any](capacity int, opts Options) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	n := opts.Shards
	if n < 1 {
		n = 1
	}
	if n > capacity {
		n = capacity
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	c := &LRU[K, V]{
		shards:   make([]*shard[K, V], n),
		seed:     maphash.MakeSeed(),
		capacity: capacity,
		now:      now,
	}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{
			items: make(map[K]*entry[K, V], capacity/n),
			order: list.New(),
			size:  &c.size,
		}
	}
	return c
}

func (c *LRU[K, V]) shardFor(key K) *shard[K, V] {
	if len(c.shards) == 1 {
		return c.shards[0]
	}
	return c.shards[maphash.Comparable(c.seed, key)%uint64(len(c.shards))]
}

// Get returns the value for key if present and unexpired, marking it as
// most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	now := c.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok || e.expired(now) {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	e.seq = c.tick.Add(1)
	s.order.MoveToFront(e.elem)
	c.hits.Add(1)
	return e.value, true
}

// GetStale returns the value for key even if it has expired. The second
// result reports whether the value was expired. Recency is not updated.
func (c *LRU[K, V]) GetStale(key K) (value V, stale, ok bool) {
	s := c.shardFor(key)
	now := c.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.items[key]
	if !found {
		var zero V
		return zero, false, false
	}
	stale = e.expired(now)
	if stale {
		c.staleHits.Add(1)
	}
	return e.value, stale, true
}

// Put inserts or replaces key. A ttl of zero or less means no expiry.
// Inserting a new key into a full cache evicts exactly one entry first:
// the soonest expired one if any, otherwise the least recently used.
func (c *LRU[K, V]) Put(key K, value V, ttl time.Duration) {
	s := c.shardFor(key)
	now := c.now()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	if c.replace(s, key, value, expiresAt) {
		return
	}

	c.insertMu.Lock()
	defer c.insertMu.Unlock()

	if c.replace(s, key, value, expiresAt) {
		return
	}
	if c.size.Load() >= int64(c.capacity) {
		c.evictGlobal(now)
	}

	s.mu.Lock()
	e := &entry[K, V]{key: key, value: value, seq: c.tick.Add(1), heapIndex: -1}
	e.elem = s.order.PushFront(e)
	s.items[key] = e
	s.setExpiry(e, expiresAt)
	c.size.Add(1)
	s.mu.Unlock()
}

// replace updates key in place when it is already present.
func (c *LRU[K, V]) replace(s *shard[K, V], key K, value V, expiresAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		return false
	}
	e.value = value
	e.seq = c.tick.Add(1)
	s.setExpiry(e, expiresAt)
	s.order.MoveToFront(e.elem)
	return true
}

// Delete removes key. It reports whether the key was present.
func (c *LRU[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		return false
	}
	s.remove(e)
	return true
}

// Purge removes every entry.
func (c *LRU[K, V]) Purge() {
	for _, s := range c.shards {
		s.mu.Lock()
		c.size.Add(-int64(len(s.items)))
		s.items = make(map[K]*entry[K, V], len(s.items))
		s.order.Init()
		s.expiry = nil
		s.mu.Unlock()
	}
}

// EvictIfNeeded evicts entries while the cache holds more than its
// capacity and returns how many were evicted.
func (c *LRU[K, V]) EvictIfNeeded() int {
	c.insertMu.Lock()
	defer c.insertMu.Unlock()

	now := c.now()
	evicted := 0
	for c.size.Load() > int64(c.capacity) && c.evictGlobal(now) {
		evicted++
	}
	return evicted
}

// RemoveExpired drops every expired entry and returns how many.
func (c *LRU[K, V]) RemoveExpired() int {
	now := c.now()
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for len(s.expiry) > 0 && s.expiry[0].expired(now) {
			s.remove(s.expiry[0])
			removed++
		}
		s.mu.Unlock()
	}
	c.expirations.Add(uint64(removed))
	return removed
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *LRU[K, V]) Len() int {
	return int(c.size.Load())
}

// Capacity returns the configured capacity.
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the cache counters.
func (c *LRU[K, V]) Stats() domain.CacheStats {
	st := domain.CacheStats{
		Entries:     c.Len(),
		Capacity:    c.capacity,
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		StaleHits:   c.staleHits.Load(),
		Evictions:   c.evictions.Load(),
		Expirations: c.expirations.Load(),
	}
	if total := st.Hits + st.Misses; total > 0 {
		st.HitRate = float64(st.Hits) / float64(total)
	}
	return st
}

// evictGlobal removes one entry from the whole cache: the soonest expired
// entry of any shard, otherwise the least recently used one. Caller holds
// insertMu. It reports whether an entry was removed.
func (c *LRU[K, V]) evictGlobal(now time.Time) bool {
	var (
		expiredShard *shard[K, V]
		expiredAt    time.Time
		lruShard     *shard[K, V]
		lruSeq       uint64
	)
	for _, s := range c.shards {
		s.mu.Lock()
		if len(s.expiry) > 0 && s.expiry[0].expired(now) {
			if at := s.expiry[0].expiresAt; expiredShard == nil || at.Before(expiredAt) {
				expiredShard, expiredAt = s, at
			}
		}
		if back := s.order.Back(); back != nil {
			if seq := back.Value.(*entry[K, V]).seq; lruShard == nil || seq < lruSeq {
				lruShard, lruSeq = s, seq
			}
		}
		s.mu.Unlock()
	}

	if expiredShard != nil && c.evictExpired(expiredShard, now) {
		return true
	}
	return lruShard != nil && c.evictTail(lruShard)
}

func (c *LRU[K, V]) evictExpired(s *shard[K, V], now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.expiry) == 0 || !s.expiry[0].expired(now) {
		return false
	}
	s.remove(s.expiry[0])
	c.expirations.Add(1)
	return true
}

func (c *LRU[K, V]) evictTail(s *shard[K, V]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	back := s.order.Back()
	if back == nil {
		return false
	}
	s.remove(back.Value.(*entry[K, V]))
	c.evictions.Add(1)
	return true
}

func (s *shard[K, V]) remove(e *entry[K, V]) {
	s.order.Remove(e.elem)
	if e.heapIndex >= 0 {
		heap.Remove(&s.expiry, e.heapIndex)
	}
	delete(s.items, e.key)
	s.size.Add(-1)
}

func (s *shard[K, V]) setExpiry(e *entry[K, V], expiresAt time.Time) {
	e.expiresAt = expiresAt
	switch {
	case expiresAt.IsZero() && e.heapIndex >= 0:
		heap.Remove(&s.expiry, e.heapIndex)
	case expiresAt.IsZero():
	case e.heapIndex >= 0:
		heap.Fix(&s.expiry, e.heapIndex)
	default:
		heap.Push(&s.expiry, e)
	}
}

// expiryHeap orders entries with an expiry by soonest expiresAt.
type expiryHeap[K comparable, V any] []*entry[K, V]

func (h expiryHeap[K, V]) Len() int { return len(h) }

func (h expiryHeap[K, V]) Less(i, j int) bool {
	return h[i].expiresAt.Before(h[j].expiresAt)
}

func (h expiryHeap[K, V]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *expiryHeap[K, V]) Push(x any) {
	e := x.(*entry[K, V])
	e.heapIndex = len(*h)
	*h = append(*h, e)
}

func (h *expiryHeap[K, V]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.heapIndex = -1
	*h = old[:n-1]
	return e
}
