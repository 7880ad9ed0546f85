// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTLCacheSingleKey(t *testing.T) {
	tests := []struct {
		name           string
		skipCache      bool
		waitBeforeNext time.Duration
		expectedCount  int
	}{
		{
			name:          "fresh cache, fetch",
			expectedCount: 1,
		},
		{
			name:          "use cache, no fetch",
			expectedCount: 1,
		},
		{
			name:          "invalidate, fetch",
			skipCache:     true,
			expectedCount: 2,
		},
		{
			name:           "ttl expired, fetch",
			waitBeforeNext: 150 * time.Millisecond,
			expectedCount:  3,
		},
	}
	cache := NewTTLCache[string, int](100 * time.Millisecond)
	fetchCount := 0
	fetchFunc := func(_ string) (int, error) {
		fetchCount++
		return 42, nil
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			if tt.waitBeforeNext > 0 {
				time.Sleep(tt.waitBeforeNext)
			}

			val, err := cache.Get("test", fetchFunc, tt.skipCache)
			require.NoError(err)
			require.Equal(42, val)
			require.Equal(tt.expectedCount, fetchCount)
		})
	}
}

func TestTTLCacheErrorNotCached(t *testing.T) {
	require := require.New(t)

	cache := NewTTLCache[string, int](time.Minute)
	fetchCount := 0

	_, err := cache.Get("key", func(_ string) (int, error) {
		fetchCount++
		return 0, errors.New("transient")
	}, false)
	require.Error(err)

	val, err := cache.Get("key", func(_ string) (int, error) {
		fetchCount++
		return 7, nil
	}, false)
	require.NoError(err)
	require.Equal(7, val)
	require.Equal(2, fetchCount)
}

func TestTTLCacheConcurrentSingleFlight(t *testing.T) {
	require := require.New(t)

	cache := NewTTLCache[string, int](time.Minute)
	var mu sync.Mutex
	fetchCount := 0
	fetchFunc := func(_ string) (int, error) {
		mu.Lock()
		fetchCount++
		mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		return 1, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err := cache.Get("key", fetchFunc, false)
			require.NoError(err)
			require.Equal(1, val)
		}()
	}
	wg.Wait()
	require.Equal(1, fetchCount)
}
