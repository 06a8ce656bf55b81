package filedaemon

import (
	"os"
	"path/filepath"

	"github.com/fluffybytesoftware/fluffymud/internal/filedaemon/ferrors"
)

// OSFilesystem is the host-filesystem Filesystem, implementing the two
// whole-file operations the core calls: a read that reports "not found"
// without raising, and a whole-file replace write.
type OSFilesystem struct{}

// ReadFile reads path in full. A missing path returns ferrors.NotFound,
// not a raw os error, so callers can treat it uniformly regardless of
// platform-specific os.IsNotExist quirks.
func (OSFilesystem) ReadFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.NotFound
		}
		return nil, ferrors.Wrap("read "+path, err)
	}
	return b, nil
}

// WriteFile replaces path's contents in full, creating parent directories
// and the file itself as needed.
func (OSFilesystem) WriteFile(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ferrors.Wrap("mkdir "+dir, err)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return ferrors.Wrap("write "+path, err)
	}
	return nil
}
