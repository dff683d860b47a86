// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permcache_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/netrack/internal/iam/permcache"
)

// fakeDirectory is an in-memory Directory with call accounting.
type fakeDirectory struct {
	mu      sync.Mutex
	grants  map[string][]string
	failing bool
	calls   map[string]int

	// gate, when non-nil, blocks every fetch until released. Used to pile up
	// concurrent callers behind a single in-flight query.
	gate chan struct{}
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		grants: map[string][]string{
			"admin":    {"device.create", "device.delete", "device.read", "device.update"},
			"viewer":   {"device.read", "subnet.read"},
			"operator": {"device.read", "device.update"},
		},
		calls: make(map[string]int),
	}
}

func (directory *fakeDirectory) PermissionNamesByRole(_ context.Context, roleName string) ([]string, error) {
	directory.mu.Lock()
	directory.calls[roleName]++
	failing := directory.failing
	gate := directory.gate
	names := directory.grants[roleName]
	directory.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if failing {
		return nil, errors.New("connection refused")
	}
	return names, nil
}

func (directory *fakeDirectory) callCount(roleName string) int {
	directory.mu.Lock()
	defer directory.mu.Unlock()
	return directory.calls[roleName]
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

/*
TestCache_ServesFreshEntryWithoutQuery verifies that a second lookup inside
the TTL window is answered from memory.
*/
func TestCache_ServesFreshEntryWithoutQuery(t *testing.T) {
	directory := newFakeDirectory()
	cache := permcache.NewCache(directory, quietLogger(), permcache.Config{})

	// 1. First lookup pays one directory query
	names := cache.PermissionNames(context.Background(), "viewer")
	assert.Equal(t, []string{"device.read", "subnet.read"}, names)
	assert.Equal(t, 1, directory.callCount("viewer"))

	// 2. Second lookup is served from memory
	names = cache.PermissionNames(context.Background(), "viewer")
	assert.Equal(t, []string{"device.read", "subnet.read"}, names)
	assert.Equal(t, 1, directory.callCount("viewer"))
}

/*
TestCache_ExpiredEntryIsRefetched verifies that an entry older than the TTL
triggers a fresh directory query.
*/
func TestCache_ExpiredEntryIsRefetched(t *testing.T) {
	directory := newFakeDirectory()

	currentTime := time.Now()
	cache := permcache.NewCache(directory, quietLogger(), permcache.Config{
		TTL: 5 * time.Minute,
		Now: func() time.Time { return currentTime },
	})

	// 1. Populate the entry
	cache.PermissionNames(context.Background(), "admin")
	require.Equal(t, 1, directory.callCount("admin"))

	// 2. Just inside the TTL: still cached
	currentTime = currentTime.Add(5*time.Minute - time.Second)
	cache.PermissionNames(context.Background(), "admin")
	assert.Equal(t, 1, directory.callCount("admin"))

	// 3. Past the TTL: refetched
	currentTime = currentTime.Add(2 * time.Second)
	cache.PermissionNames(context.Background(), "admin")
	assert.Equal(t, 2, directory.callCount("admin"))
}

/*
TestCache_ConcurrentMissesCollapseToOneQuery verifies the singleflight
contract: many goroutines missing on the same role cause exactly one
directory query, and all of them receive the result.
*/
func TestCache_ConcurrentMissesCollapseToOneQuery(t *testing.T) {
	directory := newFakeDirectory()
	directory.gate = make(chan struct{})

	cache := permcache.NewCache(directory, quietLogger(), permcache.Config{})

	const workers = 32
	var started, finished sync.WaitGroup
	var nonEmpty atomic.Int64

	started.Add(workers)
	finished.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer finished.Done()
			started.Done()
			names := cache.PermissionNames(context.Background(), "operator")
			if len(names) == 2 {
				nonEmpty.Add(1)
			}
		}()
	}

	// 1. Let every goroutine reach the cache, then release the single fetch
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(directory.gate)
	finished.Wait()

	// 2. All callers got the resolved set from at most one query
	assert.Equal(t, int64(workers), nonEmpty.Load())
	assert.Equal(t, 1, directory.callCount("operator"))
}

/*
TestCache_DirectoryFailureFailsClosed verifies that a directory outage yields
an empty permission set, is not cached, and recovers on the next request.
*/
func TestCache_DirectoryFailureFailsClosed(t *testing.T) {
	directory := newFakeDirectory()
	directory.failing = true

	cache := permcache.NewCache(directory, quietLogger(), permcache.Config{})

	// 1. Outage: empty set, never nil
	names := cache.PermissionNames(context.Background(), "admin")
	require.NotNil(t, names)
	assert.Empty(t, names)
	assert.Equal(t, 1, directory.callCount("admin"))

	// 2. The failure was not cached: the next call retries the directory
	directory.mu.Lock()
	directory.failing = false
	directory.mu.Unlock()

	names = cache.PermissionNames(context.Background(), "admin")
	assert.Len(t, names, 4)
	assert.Equal(t, 2, directory.callCount("admin"))
}

/*
TestCache_EvictsOldestWhenOverCapacity verifies the bounded-size contract:
exceeding MaxEntries evicts the oldest entries first.
*/
func TestCache_EvictsOldestWhenOverCapacity(t *testing.T) {
	directory := newFakeDirectory()

	currentTime := time.Now()
	cache := permcache.NewCache(directory, quietLogger(), permcache.Config{
		MaxEntries: 5,
		Now:        func() time.Time { return currentTime },
	})

	// 1. Fill past capacity with distinct roles, each older than the next
	for i := 0; i < 6; i++ {
		roleName := fmt.Sprintf("role-%d", i)
		directory.mu.Lock()
		directory.grants[roleName] = []string{"device.read"}
		directory.mu.Unlock()

		cache.PermissionNames(context.Background(), roleName)
		currentTime = currentTime.Add(time.Second)
	}

	// 2. The cache shrank back under its bound
	assert.LessOrEqual(t, cache.Len(), 5)

	// 3. The oldest entry was the victim: looking it up queries again
	cache.PermissionNames(context.Background(), "role-0")
	assert.Equal(t, 2, directory.callCount("role-0"))
}

/*
TestCache_InvalidateDropsEntry verifies that invalidation forces the next
lookup back to the directory.
*/
func TestCache_InvalidateDropsEntry(t *testing.T) {
	directory := newFakeDirectory()
	cache := permcache.NewCache(directory, quietLogger(), permcache.Config{})

	// 1. Populate, then invalidate
	cache.PermissionNames(context.Background(), "viewer")
	cache.Invalidate("viewer")

	// 2. Next lookup pays a query
	cache.PermissionNames(context.Background(), "viewer")
	assert.Equal(t, 2, directory.callCount("viewer"))

	// 3. InvalidateAll clears everything
	cache.PermissionNames(context.Background(), "admin")
	cache.InvalidateAll()
	assert.Equal(t, 0, cache.Len())
}

/*
TestCache_ReturnsDefensiveCopies verifies that mutating a returned slice
never corrupts the cached entry.
*/
func TestCache_ReturnsDefensiveCopies(t *testing.T) {
	directory := newFakeDirectory()
	cache := permcache.NewCache(directory, quietLogger(), permcache.Config{})

	first := cache.PermissionNames(context.Background(), "viewer")
	require.Len(t, first, 2)

	// 1. Corrupt the caller's copy
	first[0] = "device.delete"

	// 2. The cache still serves the original set
	second := cache.PermissionNames(context.Background(), "viewer")
	assert.Equal(t, []string{"device.read", "subnet.read"}, second)
	assert.Equal(t, 1, directory.callCount("viewer"))
}

/*
TestCache_RefreshReplacesEntry verifies that Refresh fetches eagerly and that
a failing refresh keeps the previous entry intact.
*/
func TestCache_RefreshReplacesEntry(t *testing.T) {
	directory := newFakeDirectory()
	cache := permcache.NewCache(directory, quietLogger(), permcache.Config{})

	// 1. Populate, then change the underlying grants and refresh
	cache.PermissionNames(context.Background(), "operator")
	directory.mu.Lock()
	directory.grants["operator"] = []string{"device.read"}
	directory.mu.Unlock()

	require.NoError(t, cache.Refresh(context.Background(), "operator"))
	assert.Equal(t, []string{"device.read"}, cache.PermissionNames(context.Background(), "operator"))

	// 2. A failing refresh reports the error and keeps the cached entry
	directory.mu.Lock()
	directory.failing = true
	directory.mu.Unlock()

	assert.Error(t, cache.Refresh(context.Background(), "operator"))
	assert.Equal(t, []string{"device.read"}, cache.PermissionNames(context.Background(), "operator"))
}
