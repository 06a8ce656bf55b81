package filedaemon

import (
	"time"

	"github.com/fluffybytesoftware/fluffymud/internal/utils/safemap"
)

// Store is a single tier's concurrent path→Entry map: get, insert/update,
// and age-based pruning. Safe for any number of concurrent readers and
// writers; SetEntry is linearizable per path.
type Store struct {
	entries *safemap.PathMap[*Entry]
	now     func() time.Time
}

// NewStore constructs an empty entry store.
func NewStore() *Store {
	return &Store{
		entries: safemap.New[*Entry](),
		now:     time.Now,
	}
}

// TryGet returns the entry for path, if present, touching its last_access.
func (s *Store) TryGet(path string) (*Entry, bool) {
	e, ok := s.entries.Get(path)
	if !ok {
		return nil, false
	}
	e.touch(s.now())
	return e, true
}

// Peek returns the entry for path without touching last_access — used by
// the flush queue and pruner, which must not count internal bookkeeping
// access as the caller activity that pruning measures.
func (s *Store) Peek(path string) (*Entry, bool) {
	return s.entries.Get(path)
}

// SetEntry inserts or updates the entry for path. If path is absent, a new
// entry is created at version 1. If present, content, priority, version,
// and last_access are updated in place — readers observe the update
// atomically with respect to version. SetEntry never marks anything dirty:
// the store does not know about flush queues, and the caller marks the
// path in its tier's queue (see Daemon.Write for that wiring).
func (s *Store) SetEntry(path string, content []byte, priority Priority) (entry *Entry, version uint64) {
	now := s.now()
	if existing, ok := s.entries.Get(path); ok {
		v := existing.update(content, priority, now)
		return existing, v
	}
	e := newEntry(path, content, priority, now)
	actual, loaded := s.entries.GetOrSet(path, e)
	if loaded {
		// Lost a race with a concurrent first-insert; fold our write into
		// the winner instead of orphaning it.
		v := actual.update(content, priority, now)
		return actual, v
	}
	return e, e.version
}

// PruneStale removes every entry whose last_access precedes
// now-maxAge, provided isDirty reports the path is not currently pending
// in any tier's flush queue — removing a dirty entry would orphan a
// pending write.
func (s *Store) PruneStale(maxAge time.Duration, isDirty func(path string) bool) {
	horizon := s.now().Add(-maxAge)
	var stale []string
	s.entries.ForEach(func(path string, e *Entry) bool {
		snap := e.Snapshot()
		if snap.LastAccess.Before(horizon) && !isDirty(path) {
			stale = append(stale, path)
		}
		return true
	})
	for _, path := range stale {
		s.entries.Del(path)
	}
}

// Len reports how many entries the store currently holds.
func (s *Store) Len() int {
	return s.entries.Len()
}
