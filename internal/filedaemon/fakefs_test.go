package filedaemon

import (
	"sync"

	"github.com/fluffybytesoftware/fluffymud/internal/filedaemon/ferrors"
)

// fakeFS is an in-memory Filesystem for tests: it records every write,
// can inject a read-miss or a write failure per path, and can block a
// write until the test signals it to proceed (for version-guard races).
type fakeFS struct {
	mu        sync.Mutex
	files     map[string][]byte
	writes    []string
	failWrite map[string]bool

	// blockWrite, if set, pauses WriteFile for this path until released
	// is closed, letting a test interleave a concurrent write.
	blockWrite   string
	released     chan struct{}
	writeEntered chan struct{}
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		files:     make(map[string][]byte),
		failWrite: make(map[string]bool),
	}
}

func (f *fakeFS) ReadFile(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.files[path]
	if !ok {
		return nil, ferrors.NotFound
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}

func (f *fakeFS) WriteFile(path string, content []byte) error {
	f.mu.Lock()
	blocked := f.blockWrite == path
	released := f.released
	entered := f.writeEntered
	if blocked {
		f.blockWrite = ""
	}
	f.mu.Unlock()

	if blocked {
		if entered != nil {
			close(entered)
		}
		<-released
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite[path] {
		return ferrors.TransientIO
	}
	cp := make([]byte, len(content))
	copy(cp, content)
	f.files[path] = cp
	f.writes = append(f.writes, path)
	return nil
}

func (f *fakeFS) seed(path string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
}

func (f *fakeFS) get(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.files[path]
	return b, ok
}

func (f *fakeFS) setFailWrite(path string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrite[path] = fail
}

func (f *fakeFS) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

// armBlockingWrite configures the next WriteFile to path to block until
// unblock() is called; entered() signals once the write has begun.
func (f *fakeFS) armBlockingWrite(path string) (entered <-chan struct{}, unblock func()) {
	e := make(chan struct{})
	r := make(chan struct{})
	f.mu.Lock()
	f.blockWrite = path
	f.writeEntered = e
	f.released = r
	f.mu.Unlock()
	return e, func() { close(r) }
}
