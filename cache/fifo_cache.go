// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"sync"
)

// FetchFunc fetches the value for a missing key.
type FetchFunc[K comparable, V any] func(key K) (V, error)

// FIFOCache is a thread-safe FIFO cache with single-flight fetching. The
// pipeline uses it to share one state snapshot per block height across
// workers; snapshots are immutable so eviction order only needs to be
// cheap, not clever.
type FIFOCache[K comparable, V any] struct {
	lk       sync.RWMutex
	cache    map[K]V
	queue    []K
	capacity int

	inflight   map[K]*call[V]
	inflightLk sync.Mutex
}

type call[V any] struct {
	wg  sync.WaitGroup
	val V
	err error
}

// NewFIFOCache creates a FIFO cache holding at most capacity entries.
func NewFIFOCache[K comparable, V any](capacity int) *FIFOCache[K, V] {
	return &FIFOCache[K, V]{
		cache:    make(map[K]V),
		queue:    make([]K, 0, capacity),
		capacity: capacity,
		inflight: make(map[K]*call[V]),
	}
}

// Get retrieves a value from the cache or fetches it if not present. If
// multiple goroutines call Get for the same key concurrently, only one
// fetch occurs.
func (c *FIFOCache[K, V]) Get(key K, fetchFunc FetchFunc[K, V]) (V, error) {
	c.lk.RLock()
	if val, ok := c.cache[key]; ok {
		c.lk.RUnlock()
		return val, nil
	}
	c.lk.RUnlock()

	c.inflightLk.Lock()
	if cl, ok := c.inflight[key]; ok {
		// Another goroutine is already fetching this key.
		c.inflightLk.Unlock()
		cl.wg.Wait()
		return cl.val, cl.err
	}

	cl := &call[V]{}
	cl.wg.Add(1)
	c.inflight[key] = cl
	c.inflightLk.Unlock()

	val, err := fetchFunc(key)
	cl.val = val
	cl.err = err

	if err == nil {
		c.lk.Lock()
		c.set(key, val)
		c.lk.Unlock()
	}

	c.inflightLk.Lock()
	delete(c.inflight, key)
	c.inflightLk.Unlock()

	cl.wg.Done()

	return val, err
}

// set adds a key-value pair to the cache. Caller must hold the write lock.
func (c *FIFOCache[K, V]) set(key K, val V) {
	if _, exists := c.cache[key]; exists {
		c.cache[key] = val
		return
	}

	if len(c.queue) >= c.capacity {
		oldest := c.queue[0]
		c.queue = c.queue[1:]
		delete(c.cache, oldest)
	}

	c.cache[key] = val
	c.queue = append(c.queue, key)
}

// Len returns the current number of items in the cache.
func (c *FIFOCache[K, V]) Len() int {
	c.lk.RLock()
	defer c.lk.RUnlock()
	return len(c.cache)
}
