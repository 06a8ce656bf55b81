// Package config loads the File Daemon's configuration file: a single
// [filedaemon] section of flat key/value lines. It is deliberately narrow —
// five scalar options, no section plugins, no schema reflection — because
// that is all the driver's file cache takes.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alexflint/go-filemutex"

	"github.com/fluffybytesoftware/fluffymud/internal/filedaemon"
)

const sectionHeader = "[filedaemon]"

// fileLocks serializes same-process callers on a path before any of them
// touch the cross-process file lock, so a hot reload loop doesn't contend
// the OS lock against itself.
var fileLocks = NewFileMutexManager()

// Load reads path as a File Daemon config file. A missing file yields
// filedaemon.DefaultConfig, not an error: the daemon must be able to start
// unconfigured. The read is guarded by an inter-process file lock (path with
// a ".lock" suffix) so a concurrent writer — another instance, an editor's
// atomic rename — cannot be observed mid-write.
func Load(path string) (filedaemon.Config, error) {
	lock := fileLocks.getLock(path)
	lock.Lock()
	defer func() {
		lock.Unlock()
		fileLocks.releaseLock(path)
	}()
	return load(path)
}

func load(path string) (filedaemon.Config, error) {
	lock, err := filemutex.New(path + ".lock")
	if err != nil {
		return filedaemon.Config{}, fmt.Errorf("config: acquire lock for %s: %w", path, err)
	}
	defer lock.Close()

	if err := lock.Lock(); err != nil {
		return filedaemon.Config{}, fmt.Errorf("config: lock %s: %w", path, err)
	}
	defer lock.Unlock()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return filedaemon.DefaultConfig(), nil
	}
	if err != nil {
		return filedaemon.Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	values, err := parse(f)
	if err != nil {
		return filedaemon.Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return applyTo(filedaemon.DefaultConfig(), values), nil
}

// parse extracts the flat key/value pairs of the [filedaemon] section,
// ignoring blank lines, "#"/";" comments, and any other section.
func parse(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)
	inSection := false

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inSection = line == sectionHeader
			continue
		}
		if !inSection {
			continue
		}

		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("malformed line %q: expected key = value", line)
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// applyTo overlays parsed values onto base, leaving any key that is absent
// or fails to parse at base's value.
func applyTo(base filedaemon.Config, values map[string]string) filedaemon.Config {
	if v, ok := values["flush_threshold_bytes"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			base.FlushThresholdBytes = n
		}
	}
	if v, ok := values["system_fast_interval"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			base.SystemFastInterval = d
		}
	}
	if v, ok := values["system_slow_interval"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			base.SystemSlowInterval = d
		}
	}
	if v, ok := values["game_interval"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			base.GameInterval = d
		}
	}
	if v, ok := values["prune_horizon"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			base.PruneHorizon = d
		}
	}
	return base
}
