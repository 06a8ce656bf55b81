package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluffybytesoftware/fluffymud/internal/filedaemon"
)

func TestWatcherCreatesFileOnFirstWatch(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "filedaemon.conf")

	w, err := NewWatcher(func(filedaemon.Config) {})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(testFile))
	_, err = os.Stat(testFile)
	assert.NoError(t, err)
}

func TestWatcherReloadsOnModification(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "filedaemon.conf")

	var mu sync.Mutex
	var got filedaemon.Config
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)

	w, err := NewWatcher(func(cfg filedaemon.Config) {
		mu.Lock()
		got = cfg
		mu.Unlock()
		wg.Done()
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(testFile))

	content := "[filedaemon]\nflush_threshold_bytes = 2048\n"
	require.NoError(t, os.WriteFile(testFile, []byte(content), 0o644))

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-ctx.Done():
		t.Fatal("timeout waiting for watcher callback")
	case <-done:
		mu.Lock()
		assert.Equal(t, int64(2048), got.FlushThresholdBytes)
		mu.Unlock()
	}
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "filedaemon.conf")

	var mu sync.Mutex
	callCount := 0
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)

	w, err := NewWatcher(func(filedaemon.Config) {
		mu.Lock()
		callCount++
		mu.Unlock()
		wg.Done()
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(testFile))

	for i := 0; i < 5; i++ {
		content := "[filedaemon]\nprune_horizon = 1h\n"
		require.NoError(t, os.WriteFile(testFile, []byte(content), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-ctx.Done():
		t.Fatal("timeout waiting for watcher callback")
	case <-done:
		mu.Lock()
		assert.Equal(t, 1, callCount, "rapid writes must collapse into a single debounced reload")
		mu.Unlock()
	}
}

func TestWatcherSecondWatchIsNoOp(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "filedaemon.conf")

	w, err := NewWatcher(func(filedaemon.Config) {})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(testFile))
	require.NoError(t, w.Watch(testFile))
}
