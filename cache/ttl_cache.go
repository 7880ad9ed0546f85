// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type ttlItem[V any] struct {
	value     V
	timestamp time.Time
}

// TTLCache is a cache with per-key TTL tracking and single-flight fetch.
// The engine uses it to serve repeated verdict reports for a recently
// evaluated block without recomputing.
type TTLCache[K comparable, V any] struct {
	data    map[K]ttlItem[V]
	ttl     time.Duration
	lock    sync.RWMutex
	sfGroup singleflight.Group
}

func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data: make(map[K]ttlItem[V]),
		ttl:  ttl,
	}
}

// Get returns the cached value if fresh, otherwise fetches it with
// fetchFunc. Concurrent fetches for the same key are deduplicated. If
// [invalidate] is true the value is cleared before fetching, instead of
// overwritten after, so other readers never observe the stale value.
// Errors are never cached.
func (c *TTLCache[K, V]) Get(key K, fetchFunc func(K) (V, error), invalidate bool) (V, error) {
	if invalidate {
		c.lock.Lock()
		delete(c.data, key)
		c.lock.Unlock()
	} else {
		c.lock.RLock()
		item, exists := c.data[key]
		c.lock.RUnlock()
		if exists && time.Since(item.timestamp) < c.ttl {
			return item.value, nil
		}
	}

	keyStr := keyToString(key)

	v, err, _ := c.sfGroup.Do(keyStr, func() (interface{}, error) {
		newValue, fetchErr := fetchFunc(key)
		if fetchErr != nil {
			return *new(V), fetchErr
		}

		c.lock.Lock()
		c.data[key] = ttlItem[V]{
			value:     newValue,
			timestamp: time.Now(),
		}
		c.lock.Unlock()

		return newValue, nil
	})

	if err != nil {
		return *new(V), err
	}

	return v.(V), nil
}

// keyToString allows both fmt.Stringer and primitive key types.
func keyToString[K comparable](key K) string {
	if s, ok := any(key).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", key)
}
