package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForPath(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestStartWatcher_RequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}

func TestStartWatcher_InitialScanEmitsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "event-1.json")
	require.NoError(t, os.WriteFile(existing, []byte(`{"type":"parcel"}`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	paths, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, InitialScan: true})
	require.NoError(t, err)

	waitForPath(t, paths, existing)
}

func TestStartWatcher_EmitsNewFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	paths, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}})
	require.NoError(t, err)

	created := filepath.Join(dir, "event-2.json")
	require.NoError(t, os.WriteFile(created, []byte(`{"type":"parcel"}`), 0o644))

	waitForPath(t, paths, created)
}

func TestStartWatcher_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	paths, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	wanted := filepath.Join(dir, "event-3.json")
	require.NoError(t, os.WriteFile(wanted, []byte(`{}`), 0o644))

	// Only the json file comes through.
	waitForPath(t, paths, wanted)
}

func TestStartWatcher_DebouncedBurstDeliversEveryFile(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	paths, _, err := StartWatcher(ctx, WatchConfig{
		Roots:    []string{dir},
		Debounce: time.Millisecond,
	})
	require.NoError(t, err)

	const n = 400
	want := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, fmt.Sprintf("event-%03d.json", i))
		want[p] = struct{}{}
		require.NoError(t, os.WriteFile(p, []byte(`{}`), 0o644))
	}

	deadline := time.After(10 * time.Second)
	for len(want) > 0 {
		select {
		case got := <-paths:
			delete(want, got)
		case <-deadline:
			t.Fatalf("timed out with %d paths undelivered", len(want))
		}
	}
}

func TestStartWatcher_InitialScanLargerThanBuffer(t *testing.T) {
	dir := t.TempDir()
	const n = 300 // more than the emit channel buffers
	want := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, fmt.Sprintf("spooled-%03d.json", i))
		want[p] = struct{}{}
		require.NoError(t, os.WriteFile(p, []byte(`{}`), 0o644))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	paths, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, InitialScan: true})
	require.NoError(t, err)

	deadline := time.After(10 * time.Second)
	for len(want) > 0 {
		select {
		case got := <-paths:
			delete(want, got)
		case <-deadline:
			t.Fatalf("timed out with %d paths undelivered", len(want))
		}
	}
}
