package watch_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"labelwatch/internal/config"
	"labelwatch/internal/errors"
	"labelwatch/internal/label"
	"labelwatch/internal/watch"
	"labelwatch/pkg/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, values map[string]string) (*config.Store, *config.Configuration) {
	t.Helper()
	store := config.NewStore(filepath.Join(t.TempDir(), "labelwatch", "config.yaml"))
	for key, value := range values {
		require.NoError(t, store.Update(config.DefaultSection, key, value))
	}
	cfg, err := store.Load()
	require.NoError(t, err)
	return store, cfg
}

func waitRunning(t *testing.T, d *watch.Daemon) {
	t.Helper()
	require.Eventually(t, func() bool { return d.Status().Running }, 3*time.Second, 10*time.Millisecond)
	// Allow fsnotify to initialize watches
	time.Sleep(100 * time.Millisecond)
}

func TestResolveWatchDir(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(home, "Downloads"), 0755))

	dir, err := watch.ResolveWatchDir(config.New(), home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Downloads"), dir)

	abs := t.TempDir()
	cfg := config.New()
	cfg.Set(config.DefaultSection, config.KeyFileDirectory, abs)
	dir, err = watch.ResolveWatchDir(cfg, home)
	require.NoError(t, err)
	assert.Equal(t, abs, dir)

	cfg.Set(config.DefaultSection, config.KeyFileDirectory, "Missing")
	_, err = watch.ResolveWatchDir(cfg, home)
	require.Error(t, err)
	assert.True(t, errors.IsFileNotFound(err))

	testutils.WriteLabelFile(t, home, "plain", "")
	cfg.Set(config.DefaultSection, config.KeyFileDirectory, "plain")
	_, err = watch.ResolveWatchDir(cfg, home)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidPath, errors.KindOf(err))
}

func TestDaemonPrintsLabelFiles(t *testing.T) {
	watchDir := t.TempDir()
	store, cfg := newTestStore(t, map[string]string{
		config.KeyPrinter1:     "CardPrinter",
		config.KeyPrinter2:     "FormPrinter",
		config.KeySettleMillis: "50",
	})
	rec := testutils.NewRecordingPrinter()
	daemon := watch.NewDaemon(watchDir, store, cfg, rec)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- daemon.Run(ctx) }()
	waitRunning(t, daemon)

	status := daemon.Status()
	assert.Equal(t, []string{watchDir}, status.WatchDirectories)
	assert.Equal(t, filepath.Join(filepath.Dir(store.Path()), watch.LockFileName), status.LockFilePath)

	// Non-label files are ignored
	notes := testutils.WriteLabelFile(t, watchDir, "notes.txt", "hello")

	path := testutils.WriteLabelFile(t, watchDir, "order.zpl", "CARD DATA\n"+label.Delimiter+"\nFORM DATA")
	calls := rec.WaitForCalls(2, 5*time.Second)
	require.Len(t, calls, 2)
	assert.Equal(t, "CardPrinter", calls[0].Printer)
	assert.Equal(t, "CARD DATA", string(calls[0].Content))
	assert.Equal(t, "FormPrinter", calls[1].Printer)
	assert.Equal(t, "FORM DATA", string(calls[1].Content))

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, 3*time.Second, 10*time.Millisecond, "source file should be deleted")

	_, err := os.Stat(notes)
	assert.NoError(t, err)

	// Live configuration edits apply to the next job
	require.NoError(t, store.Update(config.DefaultSection, config.KeyDeleteFiles, "false"))
	single := testutils.WriteLabelFile(t, watchDir, "single.lbl", "SINGLE LABEL")
	calls = rec.WaitForCalls(3, 5*time.Second)
	require.Len(t, calls, 3)
	assert.Equal(t, single, calls[2].Path)
	assert.Equal(t, "", calls[2].Printer)

	require.Eventually(t, func() bool { return daemon.Status().Router.Processed == 2 }, 3*time.Second, 10*time.Millisecond)
	_, err = os.Stat(single)
	assert.NoError(t, err, "source file should remain after delete_files=false")

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
	assert.False(t, daemon.Status().Running)

	entries, err := os.ReadDir(watchDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".first")
		assert.NotContains(t, e.Name(), ".second")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	watchDir := t.TempDir()
	store, cfg := newTestStore(t, nil)

	first := watch.NewDaemon(watchDir, store, cfg, testutils.NewRecordingPrinter())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- first.Run(ctx) }()
	waitRunning(t, first)

	second := watch.NewDaemon(watchDir, store, cfg, testutils.NewRecordingPrinter())
	err := second.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}

	// The lock is released on shutdown
	third := watch.NewDaemon(watchDir, store, cfg, testutils.NewRecordingPrinter())
	ctx3, cancel3 := context.WithCancel(context.Background())
	errCh3 := make(chan error, 1)
	go func() { errCh3 <- third.Run(ctx3) }()
	waitRunning(t, third)
	cancel3()
	assert.NoError(t, <-errCh3)
}

func TestDaemonMissingDirectory(t *testing.T) {
	store, cfg := newTestStore(t, nil)
	daemon := watch.NewDaemon(filepath.Join(t.TempDir(), "missing"), store, cfg, testutils.NewRecordingPrinter())

	err := daemon.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsFileNotFound(err))
	assert.False(t, daemon.Status().Running)
}

func TestDaemonPrintsEveryFileInBurst(t *testing.T) {
	watchDir := t.TempDir()
	store, cfg := newTestStore(t, map[string]string{
		config.KeySettleMillis: "50",
	})
	rec := testutils.NewRecordingPrinter()
	rec.SetDelay(20 * time.Millisecond)
	daemon := watch.NewDaemon(watchDir, store, cfg, rec)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- daemon.Run(ctx) }()
	waitRunning(t, daemon)

	total := 2*watch.EventBuffer - 4
	want := make(map[string]bool, total)
	for i := 0; i < total; i++ {
		path := testutils.WriteLabelFile(t, watchDir, fmt.Sprintf("burst-%02d.zpl", i), fmt.Sprintf("LABEL %d", i))
		want[path] = true
	}

	calls := rec.WaitForCalls(total, 20*time.Second)
	require.Len(t, calls, total, "every label file in the burst must print")
	for _, c := range calls {
		assert.True(t, want[c.Path], "unexpected print of %s", c.Path)
		delete(want, c.Path)
	}
	assert.Empty(t, want, "files never printed")

	require.Eventually(t, func() bool {
		entries, err := os.ReadDir(watchDir)
		return err == nil && len(entries) == 0
	}, 5*time.Second, 20*time.Millisecond, "every source file should be deleted")

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
