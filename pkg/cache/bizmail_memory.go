// Package cache provides the key/value stores behind the analysis and
// generation caches: an in-process LRU, Redis, and a two-tier combination.
package cache

import (
	"context"
	"sync"
	"time"
)

// lruNode is a node of the doubly linked recency list.
type lruNode struct {
	key   string
	value string

	expiresAt time.Time
	prev      *lruNode
	next      *lruNode
}

// MemoryCache is an in-process cache with TTL and O(1) LRU eviction.
// Expired entries are dropped lazily on access or eviction.
type MemoryCache struct {
	mu       sync.Mutex
	nodes    map[string]*lruNode
	head     *lruNode // most recently used (dummy)
	tail     *lruNode // least recently used (dummy)
	maxItems int
	now      func() time.Time

	hits   int64
	misses int64
}

// DefaultMaxItems bounds a MemoryCache built without an explicit size.
const DefaultMaxItems = 10000

func NewMemoryCache(maxItems int) *MemoryCache {
	return newMemoryCache(maxItems, time.Now)
}

func newMemoryCache(maxItems int, now func() time.Time) *MemoryCache {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	head, tail := &lruNode{}, &lruNode{}
	head.next = tail
	tail.prev = head

	return &MemoryCache{
		nodes:    make(map[string]*lruNode),
		head:     head,
		tail:     tail,
		maxItems: maxItems,
		now:      now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.nodes[key]
	if !ok {
		c.misses++
		return "", false, nil
	}
	if !c.now().Before(node.expiresAt) {
		c.remove(node)
		c.misses++
		return "", false, nil
	}

	c.hits++
	c.moveToFront(node)
	return node.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if node, ok := c.nodes[key]; ok {
		node.value = value
		node.expiresAt = expiresAt
		c.moveToFront(node)
		return nil
	}

	if len(c.nodes) >= c.maxItems {
		c.evict()
	}

	node := &lruNode{key: key, value: value, expiresAt: expiresAt}
	c.nodes[key] = node
	c.pushFront(node)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.nodes)
}

// Stats returns hit and miss counters.
func (c *MemoryCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// evict drops the least recently used entry.
func (c *MemoryCache) evict() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.remove(oldest)
}

func (c *MemoryCache) pushFront(node *lruNode) {
	node.prev = c.head
	node.next = c.head.next
	c.head.next.prev = node
	c.head.next = node
}

func (c *MemoryCache) unlink(node *lruNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
	node.prev, node.next = nil, nil
}

func (c *MemoryCache) moveToFront(node *lruNode) {
	c.unlink(node)
	c.pushFront(node)
}

func (c *MemoryCache) remove(node *lruNode) {
	c.unlink(node)
	delete(c.nodes, node.key)
}
