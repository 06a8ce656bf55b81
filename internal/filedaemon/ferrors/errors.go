// Package ferrors defines the File Daemon's error taxonomy.
//
// NotFound, TransientIO and CallbackFailure stay inside the daemon: a
// missing file becomes a nil result, a failed write is logged and retried
// on the next flush, and a panicking callback is logged. Cancelled and
// InvariantViolation are returned, wrapped by Wrap, from the daemon's
// Start, Stop, Read and Write. The kinds are sentinels so callers can
// classify with errors.Is; Wrap attaches operation context and a stack
// trace.
package ferrors

import (
	"github.com/cockroachdb/errors"
)

var (
	// NotFound indicates a filesystem read encountered a missing path.
	// Surfaced to the caller as a nil result, never as a returned error.
	NotFound = errors.New("file daemon: path not found")

	// TransientIO indicates a filesystem write failed. The affected path
	// remains dirty for retry on the next flush cycle; never fatal.
	TransientIO = errors.New("file daemon: transient i/o failure")

	// Cancelled indicates the shutdown signal was observed during a
	// suspending operation.
	Cancelled = errors.New("file daemon: operation cancelled by shutdown")

	// InvariantViolation indicates programmer error: an uninitialized
	// tier, or a priority value outside the closed enumeration.
	InvariantViolation = errors.New("file daemon: invariant violation")

	// CallbackFailure indicates a heartbeat callback raised an error.
	CallbackFailure = errors.New("file daemon: heartbeat callback failure")
)

// OpError wraps an underlying error with the operation that produced it,
// in the idiom of a Go error chain: Unwrap exposes the sentinel kind above
// so errors.Is(err, ferrors.TransientIO) keeps working through the wrap.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Wrap attaches op context and a stack trace to err. Returns nil if err is
// nil, so call sites can write `return ferrors.Wrap("read", err)` unconditionally.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: errors.WithStack(err)}
}
