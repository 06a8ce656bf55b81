// Package safemap provides a sharded, concurrent map keyed by path — the
// shape every File Daemon tier's entry store and dirty-set need.
package safemap

import (
	"runtime"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
	"github.com/zeebo/xxh3"
)

// PathMap is a thread-safe map from a file path to V, sharded across
// runtime.NumCPU() shards and hashed with xxh3.
type PathMap[V any] struct {
	internal *csmap.CsMap[string, V]
}

// New creates an empty PathMap.
func New[V any]() *PathMap[V] {
	numShards := uint64(runtime.NumCPU())
	return &PathMap[V]{
		internal: csmap.Create(
			csmap.WithShardCount[string, V](numShards),
			csmap.WithCustomHasher[string, V](func(key string) uint64 {
				return xxh3.HashString(key)
			}),
		),
	}
}

// Set inserts or overwrites the value for path.
func (m *PathMap[V]) Set(path string, value V) {
	m.internal.Store(path, value)
}

// Get retrieves the value for path. ok is false if path is absent.
func (m *PathMap[V]) Get(path string) (value V, ok bool) {
	return m.internal.Load(path)
}

// GetOrSet returns the existing value for path if present, otherwise
// stores and returns value. loaded reports which case occurred.
func (m *PathMap[V]) GetOrSet(path string, value V) (actual V, loaded bool) {
	actual, loaded = m.internal.Load(path)
	if !loaded {
		m.internal.Store(path, value)
		actual = value
	}
	return actual, loaded
}

// Del removes path from the map. A no-op if path is absent.
func (m *PathMap[V]) Del(path string) {
	m.internal.Delete(path)
}

// GetAndDel removes path and returns the value it held, if any.
func (m *PathMap[V]) GetAndDel(path string) (value V, ok bool) {
	value, ok = m.internal.Load(path)
	if ok {
		m.internal.Delete(path)
	}
	return value, ok
}

// Len returns the number of entries currently stored.
func (m *PathMap[V]) Len() int {
	return m.internal.Count()
}

// ForEach visits every (path, value) pair. Iteration stops early if fn
// returns false. A path deleted or inserted concurrently with ForEach may
// or may not be observed, but each visited entry is consistent.
func (m *PathMap[V]) ForEach(fn func(path string, value V) bool) {
	m.internal.Range(func(path string, value V) (stop bool) {
		return !fn(path, value)
	})
}

// Paths returns a snapshot of every key currently stored.
func (m *PathMap[V]) Paths() []string {
	out := make([]string, 0, m.Len())
	m.ForEach(func(path string, _ V) bool {
		out = append(out, path)
		return true
	})
	return out
}
