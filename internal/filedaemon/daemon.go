// Package filedaemon implements the tick-driven, prioritized, write-back
// file cache: the File Daemon core described by the driver's spec. It is
// a singleton service per process, constructed once and driven through
// Start/Stop around a shared shutdown.Signal.
package filedaemon

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/fluffybytesoftware/fluffymud/internal/filedaemon/ferrors"
	"github.com/fluffybytesoftware/fluffymud/internal/shutdown"
	"github.com/fluffybytesoftware/fluffymud/logging"
)

// State is the daemon's closed set of lifecycle states.
type State int

const (
	Stopped State = iota
	Starting
	Running
	Stopping
	Error
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// tier bundles one priority's independent store, flush queue, and
// heartbeat.
type tier struct {
	priority  Priority
	store     *Store
	queue     *FlushQueue
	heartbeat *Heartbeat
}

// Daemon is the File Daemon: the public read/write API, priority
// dispatch, shutdown registration, and the state machine described in
// spec §4.4. The daemon's own state transitions are single-threaded by
// convention — callers must serialize concurrent Start/Stop calls
// themselves, per the concurrency model in spec §5.
type Daemon struct {
	cfg Config
	fs  Filesystem

	mu            sync.Mutex
	state         State
	tiers         [numTiers]*tier
	lastStartTime time.Time

	sig        *shutdown.Signal
	unregister func()
}

// New constructs a stopped Daemon. fs is the whole-file filesystem the
// flush queues write through; a nil fs defaults to OSFilesystem{}.
func New(cfg Config, fs Filesystem) *Daemon {
	if fs == nil {
		fs = OSFilesystem{}
	}
	return &Daemon{
		cfg:   cfg.withDefaults(),
		fs:    fs,
		state: Stopped,
	}
}

// State returns the daemon's current lifecycle state.
func (d *Daemon) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start transitions Stopped|Error → Starting → Running: it builds the
// three tiers' stores, flush queues, and heartbeats, starts the
// heartbeats, and registers the shutdown callback on sig. If sig has
// already fired, Start refuses and returns ferrors.Cancelled.
func (d *Daemon) Start(sig *shutdown.Signal) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Stopped && d.state != Error {
		return ferrors.Wrap("daemon.Start", ferrors.InvariantViolation)
	}
	if sig.Requested() {
		return ferrors.Wrap("daemon.Start", ferrors.Cancelled)
	}

	d.state = Starting
	d.sig = sig

	for p := Priority(0); int(p) < numTiers; p++ {
		store := NewStore()
		queue := NewFlushQueue(p, store, d.fs)
		t := &tier{priority: p, store: store, queue: queue}

		hb, err := NewHeartbeat(d.cfg.intervalFor(p), d.heartbeatCallback(t))
		if err != nil {
			d.state = Error
			return ferrors.Wrap("daemon.Start", err)
		}
		t.heartbeat = hb
		d.tiers[p] = t
	}

	// Heartbeats are ended only through Stop (from Stop or onShutdown), so
	// a shutdown drains every tier before any final tick runs.
	for _, t := range d.tiers {
		t.heartbeat.Start(context.Background())
	}

	d.unregister = sig.Register(d.onShutdown)
	d.lastStartTime = time.Now().UTC()
	d.state = Running
	return nil
}

// heartbeatCallback builds the per-tick work for one tier: prune stale
// clean entries, then check whether the tier has crossed its flush
// threshold.
func (d *Daemon) heartbeatCallback(t *tier) OnTick {
	return func(tick uint64) {
		t.store.PruneStale(d.cfg.PruneHorizon, t.queue.IsDirty)
		t.queue.CheckFlush(d.cfg.FlushThresholdBytes)
	}
}

// onShutdown is registered on the process-wide shutdown signal: it drains
// every tier before the heartbeats' final ticks run, then stops the
// heartbeats (waiting for those final ticks) and marks the daemon Stopped.
func (d *Daemon) onShutdown() {
	d.mu.Lock()
	if d.state != Running {
		d.mu.Unlock()
		return
	}
	d.state = Stopping
	tiers := d.tiers
	d.mu.Unlock()

	for _, t := range tiers {
		t.queue.FlushAll()
	}
	for _, t := range tiers {
		t.heartbeat.Stop()
	}

	d.mu.Lock()
	d.state = Stopped
	d.mu.Unlock()
}

// Stop transitions Running → Stopping → Stopped: flushes every tier,
// stops all heartbeats (waiting for their final ticks), and unregisters
// from the shutdown signal.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if d.state != Running {
		d.mu.Unlock()
		return ferrors.Wrap("daemon.Stop", ferrors.InvariantViolation)
	}
	d.state = Stopping
	tiers := d.tiers
	unregister := d.unregister
	d.mu.Unlock()

	for _, t := range tiers {
		t.queue.FlushAll()
	}
	for _, t := range tiers {
		t.heartbeat.Stop()
	}
	if unregister != nil {
		unregister()
	}

	d.mu.Lock()
	d.state = Stopped
	d.mu.Unlock()
	return nil
}

// Read serves path at priority: a cache hit returns its content; a miss
// reads through the filesystem, inserts the result marked clean (no
// flush-queue entry), and returns it. A missing file returns (nil, nil),
// never an error. Read aborts if the shutdown signal has already fired
// and no cached entry can serve the request.
func (d *Daemon) Read(path string, priority Priority) ([]byte, error) {
	if !priority.Valid() {
		return nil, ferrors.Wrap("daemon.Read", ferrors.InvariantViolation)
	}

	t := d.tierFor(priority)
	if t == nil {
		return nil, ferrors.Wrap("daemon.Read", ferrors.InvariantViolation)
	}

	if entry, ok := t.store.TryGet(path); ok {
		return entry.Snapshot().Content, nil
	}

	if d.sig != nil && d.sig.Requested() {
		logging.L.Warn().WithField("path", path).WithMessage("read miss aborted by shutdown").Write()
		return nil, ferrors.Wrap("daemon.Read", ferrors.Cancelled)
	}

	content, err := d.fs.ReadFile(path)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		logging.L.Error(err).WithField("path", path).WithMessage("filesystem read failed").Write()
		return nil, ferrors.Wrap("daemon.Read", err)
	}

	// A read-populated entry is clean: inserted into the store but never
	// marked dirty, so it carries no flush-queue obligation (spec §4.4).
	t.store.SetEntry(path, content, priority)
	return content, nil
}

// Write updates the entry for path at priority and marks it dirty in that
// tier's flush queue. Refused silently (logged, no error side effect
// beyond the log) once shutdown has been requested.
func (d *Daemon) Write(path string, content []byte, priority Priority) error {
	if !priority.Valid() {
		return ferrors.Wrap("daemon.Write", ferrors.InvariantViolation)
	}
	if d.sig != nil && d.sig.Requested() {
		logging.L.Warn().WithField("path", path).WithMessage("write refused: shutdown in progress").Write()
		return nil
	}

	t := d.tierFor(priority)
	if t == nil {
		return ferrors.Wrap("daemon.Write", ferrors.InvariantViolation)
	}

	// Enforce cross-tier path uniqueness: a path retargeted to a new
	// priority is evicted from every other tier's dirty set first, so it
	// is dirty in at most one tier — the one matching its current
	// priority (spec §9, cross-tier path uniqueness).
	for _, other := range d.tiers {
		if other == nil || other.priority == priority {
			continue
		}
		if entry, ok := other.store.Peek(path); ok {
			other.queue.evict(path, entry.sizeBytes())
		}
	}

	entry, _ := t.store.SetEntry(path, content, priority)
	t.queue.markDirtyLocal(path, entry.sizeBytes())
	return nil
}

// SizeUp returns the exact pending-byte total across every tier.
func (d *Daemon) SizeUp() int64 {
	var total int64
	for _, t := range d.tiers {
		if t != nil {
			total += t.queue.CalculateDirtyBytes()
		}
	}
	return total
}

// FilesWaitingToWrite returns the union of every tier's dirty paths.
func (d *Daemon) FilesWaitingToWrite() []string {
	var out []string
	for _, t := range d.tiers {
		if t != nil {
			out = append(out, t.queue.DirtyPaths()...)
		}
	}
	return out
}

func (d *Daemon) tierFor(p Priority) *tier {
	if !p.Valid() {
		return nil
	}
	return d.tiers[p]
}

func isNotFound(err error) bool {
	return errors.Is(err, ferrors.NotFound)
}
