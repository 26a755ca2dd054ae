package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/insession/internal/watcher"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dbPath string) <-chan struct{} {
	t.Helper()
	w, err := watcher.New(watcher.Config{DBPath: dbPath, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	changes, err := w.Start()
	require.NoError(t, err)
	return changes
}

func TestWatcher_DebouncesBurstOfWrites(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "insession.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("seed"), 0o644))
	changes := startWatcher(t, dbPath)

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(dbPath, []byte(fmt.Sprintf("v%d", i)), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}

	select {
	case <-changes:
		t.Fatal("burst should coalesce into one notification")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_WALWritesCount(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "insession.db")
	changes := startWatcher(t, dbPath)

	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("frame"), 0o644))

	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("expected a change notification for the WAL file")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	changes := startWatcher(t, filepath.Join(dir, "insession.db"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case <-changes:
		t.Fatal("unexpected notification for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
