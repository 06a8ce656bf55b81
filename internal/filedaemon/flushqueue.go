package filedaemon

import (
	"sync/atomic"

	"github.com/fluffybytesoftware/fluffymud/internal/utils/safemap"
	"github.com/fluffybytesoftware/fluffymud/logging"
)

// Filesystem is the whole-file read/write surface the flush queue writes
// back through. A read of a missing path returns ferrors.NotFound (bare or
// wrapped; callers match it with errors.Is); implementations must not
// treat "not found" as a fatal condition.
type Filesystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, content []byte) error
}

// dirtyMark is the empty value stored per dirty path; only the key's
// presence in the dirty set matters. Cross-tier exclusivity is enforced by
// Daemon.Write, not here.
type dirtyMark struct{}

// FlushQueue holds one tier's dirty-path set plus an aggregate pending-byte
// counter, and knows how to write dirty entries back through store.
type FlushQueue struct {
	priority Priority
	store    *Store
	fs       Filesystem

	dirty        *safemap.PathMap[dirtyMark]
	pendingBytes atomic.Int64
}

// NewFlushQueue constructs the flush queue for one tier, backed by store
// for content resolution and fs for durable writes.
func NewFlushQueue(priority Priority, store *Store, fs Filesystem) *FlushQueue {
	return &FlushQueue{
		priority: priority,
		store:    store,
		fs:       fs,
		dirty:    safemap.New[dirtyMark](),
	}
}

// markDirtyLocal adds path to this tier's dirty set, incrementing the
// byte counter only on the absent-to-present transition. Returns true if
// this call performed the transition.
func (q *FlushQueue) markDirtyLocal(path string, sizeBytes int) bool {
	_, loaded := q.dirty.GetOrSet(path, dirtyMark{})
	if loaded {
		return false
	}
	q.pendingBytes.Add(int64(sizeBytes))
	return true
}

// IsDirty reports whether path is pending in this tier's dirty set.
func (q *FlushQueue) IsDirty(path string) bool {
	_, ok := q.dirty.Get(path)
	return ok
}

// DirtyPaths returns a snapshot of the tier's dirty-path set.
func (q *FlushQueue) DirtyPaths() []string {
	return q.dirty.Paths()
}

// PendingBytes returns the queue's advisory pending-byte counter. It is a
// heuristic: it does not adjust when a dirty path's size changes, nor when
// a single path is retired without a wholesale flush (spec's accepted
// approximation).
func (q *FlushQueue) PendingBytes() int64 {
	return q.pendingBytes.Load()
}

// CheckFlush runs the internal flusher if the pending-byte counter has
// crossed threshold, then resets the counter. A no-op on an empty dirty
// set.
func (q *FlushQueue) CheckFlush(threshold int64) {
	if q.dirty.Len() == 0 {
		return
	}
	if q.pendingBytes.Load() < threshold {
		return
	}
	q.flush()
	q.pendingBytes.Store(0)
}

// FlushAll unconditionally flushes this tier and resets its counter,
// regardless of threshold. Used at shutdown and daemon stop.
func (q *FlushQueue) FlushAll() {
	q.flush()
	q.pendingBytes.Store(0)
}

// flush is the internal flusher: for each path in a snapshot of the dirty
// set, resolve the entry, skip if absent, write its content, and retire
// the path only if its version has not advanced since the write began.
func (q *FlushQueue) flush() {
	for _, path := range q.dirty.Paths() {
		entry, ok := q.store.Peek(path)
		if !ok {
			q.dirty.Del(path)
			continue
		}

		snap := entry.Snapshot()
		versionAtStart := snap.Version

		if len(snap.Content) == 0 {
			// Zero-byte files are written and retired (decision recorded
			// in DESIGN.md): leaving an entry dirty forever for lack of a
			// write is a leak, not a feature.
			if err := q.fs.WriteFile(path, nil); err != nil {
				logging.L.Error(err).WithField("path", path).WithMessage("flush of empty file failed").Write()
				continue
			}
			q.retireIfUnchanged(path, versionAtStart)
			continue
		}

		if err := q.fs.WriteFile(path, snap.Content); err != nil {
			logging.L.Error(err).WithField("path", path).WithField("tier", q.priority.String()).
				WithMessage("flush write failed, path remains dirty for retry").Write()
			continue
		}

		q.retireIfUnchanged(path, versionAtStart)
	}
}

// retireIfUnchanged removes path from the dirty set only if the entry's
// current version still matches versionAtStart — the version-guarded
// retirement that is the flush protocol's central correctness property.
// If a write happened during the flush, the path is left dirty so the
// next cycle picks up the newer content.
func (q *FlushQueue) retireIfUnchanged(path string, versionAtStart uint64) {
	entry, ok := q.store.Peek(path)
	if !ok {
		q.dirty.Del(path)
		return
	}
	if entry.Snapshot().Version == versionAtStart {
		q.dirty.Del(path)
	}
}

// CalculateDirtyBytes returns the exact pending-byte total for this tier
// by summing current entry sizes — authoritative, used for diagnostics
// and to correct counter drift.
func (q *FlushQueue) CalculateDirtyBytes() int64 {
	var total int64
	for _, path := range q.dirty.Paths() {
		if entry, ok := q.store.Peek(path); ok {
			total += int64(entry.sizeBytes())
		}
	}
	return total
}

// evict removes path from this tier's dirty set and subtracts its last
// known size from the pending-byte counter, used when Daemon.Write moves a
// path to a different tier (cross-tier exclusivity).
func (q *FlushQueue) evict(path string, sizeBytes int) {
	if _, ok := q.dirty.GetAndDel(path); ok {
		q.pendingBytes.Add(-int64(sizeBytes))
		if q.pendingBytes.Load() < 0 {
			q.pendingBytes.Store(0)
		}
	}
}
