package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcherMissingFile(t *testing.T) {
	assert.Nil(t, NewFileWatcher(filepath.Join(t.TempDir(), "nope"), time.Second))
}

func TestFileWatcherFiresOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shapes: []\n"), 0o644))

	w := NewFileWatcher(path, 5*time.Millisecond)
	require.NotNil(t, w)

	fired := make(chan struct{}, 4)
	w.OnChange(func() { fired <- struct{}{} })
	w.Start()
	t.Cleanup(w.Stop)

	later := w.Baseline().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not fire")
	}
	assert.Equal(t, later.Unix(), w.Baseline().Unix())
}

func TestWatchSceneReloads(t *testing.T) {
	_, scenePath := writeFixtures(t)
	vp := newFakeViewport()
	s := NewState(vp, nil)
	require.NoError(t, s.LoadScene(scenePath))

	reloaded := make(chan struct{}, 4)
	s.On(EventSceneLoaded, func(interface{}) { reloaded <- struct{}{} })

	w := s.WatchScene(NewFileWatcher(scenePath, 5*time.Millisecond))
	require.NotNil(t, w)
	t.Cleanup(w.Stop)

	require.NoError(t, os.WriteFile(scenePath, []byte("image: base.png\nshapes:\n  - id: only\n    kind: dot\n"), 0o644))
	later := w.Baseline().Add(time.Minute)
	require.NoError(t, os.Chtimes(scenePath, later, later))

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("scene was not reloaded")
	}
	assert.Equal(t, 1, vp.ctrl.Len())
	assert.Nil(t, s.WatchScene(nil))
}
