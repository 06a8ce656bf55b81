package filedaemon

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSetEntryInsertsAtVersionOne(t *testing.T) {
	s := NewStore()
	entry, version := s.SetEntry("/a", []byte("hello"), Game)
	assert.Equal(t, uint64(1), version)
	snap := entry.Snapshot()
	assert.Equal(t, []byte("hello"), snap.Content)
	assert.Equal(t, Game, snap.Priority)
	assert.Equal(t, 5, snap.SizeBytes)
}

func TestStoreSetEntryUpdateIncrementsVersion(t *testing.T) {
	s := NewStore()
	s.SetEntry("/a", []byte("v1"), Game)
	_, v2 := s.SetEntry("/a", []byte("v2-longer"), SystemFast)

	assert.Equal(t, uint64(2), v2)

	entry, ok := s.TryGet("/a")
	require.True(t, ok)
	snap := entry.Snapshot()
	assert.Equal(t, []byte("v2-longer"), snap.Content)
	assert.Equal(t, SystemFast, snap.Priority, "write may retarget priority")
	assert.Equal(t, len(snap.Content), snap.SizeBytes)
}

func TestStoreTryGetTouchesLastAccess(t *testing.T) {
	s := NewStore()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	s.SetEntry("/a", []byte("x"), Game)

	later := fixed.Add(time.Hour)
	s.now = func() time.Time { return later }
	entry, ok := s.TryGet("/a")
	require.True(t, ok)
	assert.Equal(t, later, entry.Snapshot().LastAccess)
}

func TestStorePruneStaleRespectsDirtiness(t *testing.T) {
	s := NewStore()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	s.SetEntry("/dirty", []byte("x"), Game)
	s.SetEntry("/clean", []byte("y"), Game)

	later := fixed.Add(time.Hour)
	s.now = func() time.Time { return later }

	isDirty := func(path string) bool { return path == "/dirty" }
	s.PruneStale(30*time.Minute, isDirty)

	_, dirtyStillThere := s.TryGet("/dirty")
	_, cleanGone := s.TryGet("/clean")
	assert.True(t, dirtyStillThere, "dirty entries must never be pruned")
	assert.False(t, cleanGone, "stale clean entries are pruned")
}

func TestStorePruneStaleKeepsFreshEntries(t *testing.T) {
	s := NewStore()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	s.SetEntry("/fresh", []byte("x"), Game)

	s.now = func() time.Time { return fixed.Add(time.Minute) }
	s.PruneStale(30*time.Minute, func(string) bool { return false })

	_, ok := s.TryGet("/fresh")
	assert.True(t, ok)
}

func TestStoreConcurrentWritesYieldTwoVersionIncrements(t *testing.T) {
	s := NewStore()
	s.SetEntry("/a", []byte("seed"), Game)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SetEntry("/a", []byte{byte(i)}, Game)
		}(i)
	}
	wg.Wait()

	entry, ok := s.TryGet("/a")
	require.True(t, ok)
	assert.Equal(t, uint64(3), entry.Snapshot().Version)
}

func TestStoreSizeInvariantHoldsAfterUpdate(t *testing.T) {
	s := NewStore()
	s.SetEntry("/a", []byte("1234567890"), Game)
	entry, _ := s.TryGet("/a")
	snap := entry.Snapshot()
	assert.Equal(t, len(snap.Content), snap.SizeBytes)
}
