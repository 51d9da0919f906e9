package prefab

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitEvent(t *testing.T, w *Watcher) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-w.Events:
		return ev, ok
	case <-time.After(2 * time.Second):
		return Event{}, false
	}
}

func TestWatcherClassifiesSpecAndScript(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	// The unwatched extension goes first: if the filter leaked it would
	// surface as the first received event.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crate.yaml"), []byte("name: crate\n"), 0o644))

	ev, ok := waitEvent(t, w)
	require.True(t, ok, "expected a spec event")
	assert.Equal(t, KindSpec, ev.Kind)
	assert.Equal(t, "crate.yaml", filepath.Base(ev.Path))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "crate.tengo"), []byte("update := func(e, s, d) {}\n"), 0o644))
	ev, ok = waitEvent(t, w)
	require.True(t, ok, "expected a script event")
	assert.Equal(t, KindScript, ev.Kind)
	assert.Equal(t, "crate.tengo", filepath.Base(ev.Path))
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "crate.yaml")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("name: crate\n"), 0o644))
	}

	_, ok := waitEvent(t, w)
	require.True(t, ok)

	select {
	case ev := <-w.Events:
		t.Fatalf("burst produced a second event: %+v", ev)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcherCloseEndsStream(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	_, ok := waitEvent(t, w)
	assert.False(t, ok, "events channel closes after Close")
	assert.NoError(t, w.Close(), "double close is safe")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "spec", KindSpec.String())
	assert.Equal(t, "script", KindScript.String())
}
