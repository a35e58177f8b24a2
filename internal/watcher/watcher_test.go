package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/gatesmith/internal/logging"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(99), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestEventTypeOf(t *testing.T) {
	assert.Equal(t, EventTypeCreated, eventTypeOf(fsnotify.Create))
	assert.Equal(t, EventTypeCreated, eventTypeOf(fsnotify.Create|fsnotify.Write))
	assert.Equal(t, EventTypeModified, eventTypeOf(fsnotify.Write))
	assert.Equal(t, EventTypeDeleted, eventTypeOf(fsnotify.Remove))
	assert.Equal(t, EventTypeRenamed, eventTypeOf(fsnotify.Rename))
	assert.Equal(t, EventTypeModified, eventTypeOf(fsnotify.Chmod))
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.NotNil(t, watcher.logger)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	assert.NoError(t, watcher.AddPath(dir))

	assert.Error(t, watcher.AddPath(filepath.Join(dir, "missing")))

	file := filepath.Join(dir, "nethergate.gate")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, watcher.AddPath(file))
}

func TestFilters(t *testing.T) {
	gates := GateFilter("gate")
	dotted := GateFilter(".gate")

	tests := []struct {
		path   string
		gate   bool
		hidden bool
		backup bool
	}{
		{path: "gates/nethergate.gate", gate: true, hidden: true, backup: true},
		{path: "gates/water.gate~", gate: false, hidden: true, backup: false},
		{path: "gates/.water.gate.swp", gate: false, hidden: false, backup: true},
		{path: "gates/.#water.gate", gate: true, hidden: false, backup: true},
		{path: "gates/notes.txt", gate: false, hidden: true, backup: true},
		{path: "gates/old.bak", gate: false, hidden: true, backup: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.gate, gates(tt.path))
			assert.Equal(t, tt.gate, dotted(tt.path))
			assert.Equal(t, tt.hidden, NoHiddenFilter(tt.path))
			assert.Equal(t, tt.backup, NoBackupFilter(tt.path))
		})
	}
}

func TestFileWatcher_Accepts(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.True(t, watcher.accepts("anything"))

	watcher.AddFilter(GateFilter(".gate"))
	watcher.AddFilter(NoHiddenFilter)

	assert.True(t, watcher.accepts("gates/water.gate"))
	assert.False(t, watcher.accepts("gates/.water.gate"))
	assert.False(t, watcher.accepts("gates/water.txt"))
}

func TestDebouncer(t *testing.T) {
	debouncer := &Debouncer{
		delay:   50 * time.Millisecond,
		events:  make(chan ChangeEvent, 100),
		output:  make(chan []ChangeEvent, 10),
		pending: make([]ChangeEvent, 0),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go debouncer.start(ctx)

	debouncer.events <- ChangeEvent{Path: "b.gate", Type: EventTypeCreated}
	debouncer.events <- ChangeEvent{Path: "a.gate", Type: EventTypeModified}
	debouncer.events <- ChangeEvent{Path: "b.gate", Type: EventTypeModified}

	select {
	case batch := <-debouncer.output:
		require.Len(t, batch, 2)
		assert.Equal(t, "a.gate", batch[0].Path)
		assert.Equal(t, "b.gate", batch[1].Path)
		assert.Equal(t, EventTypeModified, batch[1].Type, "last event per path wins")
	case <-time.After(2 * time.Second):
		t.Fatal("no debounced batch")
	}
}

func TestFileWatcher_DeliversGateChanges(t *testing.T) {
	rec := logging.NewRecorder()
	watcher, err := NewFileWatcher(50*time.Millisecond, rec)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, watcher.AddPath(dir))
	watcher.AddFilter(GateFilter(".gate"))

	var mu sync.Mutex
	var seen []string
	done := make(chan struct{}, 1)
	watcher.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		for _, e := range events {
			seen = append(seen, filepath.Base(e.Path))
		}
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
		return errors.New("reload failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- watcher.Run(ctx) }()

	// Give the watch loop a moment to start.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "water.gate"), []byte("x"), 0o644))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}

	cancel()
	require.NoError(t, <-runErr)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, "water.gate")
	assert.NotContains(t, seen, "notes.txt")

	assert.Eventually(t, func() bool {
		return len(rec.AtLevel(logging.LevelError)) > 0
	}, time.Second, 10*time.Millisecond, "handler errors are logged")
}

func TestFileWatcher_RunWithoutHandlers(t *testing.T) {
	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.ErrorIs(t, watcher.Run(context.Background()), ErrNoHandlers)
}
