package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrandolf/pystrip/internal/sink"
	"github.com/jrandolf/pystrip/internal/source"
	"github.com/jrandolf/pystrip/internal/testutil"
	"github.com/jrandolf/pystrip/internal/unit"
)

func TestNewRequiresSink(t *testing.T) {
	_, err := New(Config{Paths: []string{t.TempDir()}})
	assert.Error(t, err)
}

func TestNewRejectsUnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, []string{"notes.txt"}, map[string]string{"notes.txt": "hi"})

	_, err := New(Config{Paths: paths, Sink: &sink.Memory{}})
	var unsupported *source.ErrUnsupportedFileType
	assert.ErrorAs(t, err, &unsupported)
}

func TestNewMissingPath(t *testing.T) {
	_, err := New(Config{Paths: []string{filepath.Join(t.TempDir(), "missing")}, Sink: &sink.Memory{}})
	assert.Error(t, err)
}

func TestHandle(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, []string{"a.py"}, map[string]string{"a.py": "x = 1  # one\n# two\n"})

	out := &sink.Memory{}
	w, err := New(Config{Paths: []string{dir}, Sink: out, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Handle(context.Background(), paths[0]))
	assert.Equal(t, "x = 1\n", out.Last())
}

func TestRunCopiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	out := &sink.Memory{}

	w, err := New(Config{
		Paths:    []string{dir},
		Mode:     unit.ModeAll,
		Debounce: 20 * time.Millisecond,
		Sink:     out,
		Logger:   testutil.NewTestLogger(t),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("# nope"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mod.py"), []byte("'''doc'''\ny = 2  # c\n"), 0o644))

	assert.Eventually(t, func() bool {
		return out.Last() == "\ny = 2\n"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	for _, text := range out.Texts() {
		assert.NotContains(t, text, "nope")
	}
}

func TestWantsNamedFileOnly(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, []string{"a.py", "b.py"}, map[string]string{"a.py": "a", "b.py": "b"})

	w, err := New(Config{Paths: paths[:1], Sink: &sink.Memory{}})
	require.NoError(t, err)
	defer w.Close()

	assert.True(t, w.wants(paths[0]))
	assert.False(t, w.wants(paths[1]))
}

func TestScheduleSupersededTimerDoesNotFire(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{Paths: []string{dir}, Sink: &sink.Memory{}, Debounce: 10 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "a.py")
	w.schedule(path)

	// Let the first timer fire while it cannot take the lock, then replace it
	w.mu.Lock()
	time.Sleep(50 * time.Millisecond)
	w.scheduleLocked(path)
	w.mu.Unlock()

	select {
	case got := <-w.ready:
		assert.Equal(t, path, got)
	case <-time.After(time.Second):
		t.Fatal("debounced path was never ready")
	}

	select {
	case got := <-w.ready:
		t.Fatalf("path handled twice: %s", got)
	case <-time.After(100 * time.Millisecond):
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Empty(t, w.pending)
}
