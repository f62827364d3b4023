package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrandolf/pystrip/internal/cli/config"
	"github.com/jrandolf/pystrip/internal/runner"
	"github.com/jrandolf/pystrip/internal/testutil"
	"github.com/jrandolf/pystrip/internal/unit"
)

const sample = `"""Tool."""
import sys  # argv

# entry
print(sys.argv)
`

const sampleNotebook = `{
 "cells": [
  {"cell_type": "code", "metadata": {}, "outputs": [], "source": ["# one\n", "a = 1"]},
  {"cell_type": "code", "metadata": {}, "outputs": [], "source": ["b = 2  # two"]}
 ],
 "metadata": {},
 "nbformat": 4,
 "nbformat_minor": 5
}`

// execute runs cmd with args and a context carrying cfg and a test logger.
func execute(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	ctx := config.WithConfig(context.Background(), cfg)
	ctx = config.WithLogger(ctx, testutil.NewTestLogger(t))
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("", nil, t.TempDir())
	require.NoError(t, err)
	return cfg
}

func TestNewStripCommand(t *testing.T) {
	cmd := NewStripCommand()

	assert.Equal(t, "strip [files...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Example)

	for _, flag := range []string{"keep-docstrings", "cells", "staged", "force", "cache-only", "dry-run", "formatter"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestStripCommand(t *testing.T) {
	dir := t.TempDir()
	testutil.InitRepo(t, dir)
	paths := testutil.WriteFiles(t, dir, []string{"tool.py"}, map[string]string{"tool.py": sample})
	t.Chdir(dir)

	out, _, err := execute(t, NewStripCommand(), defaultConfig(t), "tool.py")
	require.NoError(t, err)

	assert.Equal(t, "\nimport sys\n\nprint(sys.argv)\n", testutil.ReadFile(t, paths[0]))
	assert.Contains(t, out, "stripped: tool.py")
	assert.Contains(t, out, "Processed 1 file(s)")

	// The cache at the repository root now knows the file
	_, err = os.Stat(filepath.Join(dir, ".pystrip-cache.json"))
	require.NoError(t, err)

	out, _, err = execute(t, NewStripCommand(), defaultConfig(t), "tool.py")
	require.NoError(t, err)
	assert.Contains(t, out, string(runner.StatusSkippedUpToDate))
}

func TestStripCommandKeepDocstrings(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, []string{"tool.py"}, map[string]string{"tool.py": sample})
	t.Chdir(dir)

	cfg := defaultConfig(t)
	cfg.KeepDocstrings = true

	_, _, err := execute(t, NewStripCommand(), cfg, paths[0])
	require.NoError(t, err)
	assert.Equal(t, "\"\"\"Tool.\"\"\"\nimport sys\n\nprint(sys.argv)\n", testutil.ReadFile(t, paths[0]))
}

func TestStripCommandDryRun(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, []string{"tool.py"}, map[string]string{"tool.py": sample})
	t.Chdir(dir)

	out, _, err := execute(t, NewStripCommand(), defaultConfig(t), "--dry-run", paths[0])
	require.NoError(t, err)
	assert.Contains(t, out, "Would process 1 file(s)")
	assert.Equal(t, sample, testutil.ReadFile(t, paths[0]))
}

func TestStripCommandNoFiles(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := execute(t, NewStripCommand(), defaultConfig(t))
	assert.ErrorIs(t, err, errNoFiles)
}

func TestStripCommandUnsupportedOnly(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, []string{"README.md"}, map[string]string{"README.md": "# Title"})
	t.Chdir(dir)

	// Skipped files count as handled, as with files that are up to date
	out, _, err := execute(t, NewStripCommand(), defaultConfig(t), "README.md")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped (unsupported): README.md")
}

func TestCopyCommandStdout(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, []string{"nb.ipynb"}, map[string]string{"nb.ipynb": sampleNotebook})
	t.Chdir(dir)

	out, _, err := execute(t, NewCopyCommand(), defaultConfig(t), "--stdout", "nb.ipynb")
	require.NoError(t, err)

	assert.Equal(t, unit.Join([]string{"a = 1", "b = 2"})+"\n", out)
	assert.Equal(t, sampleNotebook, testutil.ReadFile(t, paths[0]))
}

func TestCopyCommandCells(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, []string{"nb.ipynb"}, map[string]string{"nb.ipynb": sampleNotebook})
	t.Chdir(dir)

	out, _, err := execute(t, NewCopyCommand(), defaultConfig(t), "--stdout", "--cells", "1", "nb.ipynb")
	require.NoError(t, err)
	assert.Equal(t, "b = 2\n", out)
}

func TestCopyCommandReportsFailedFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, []string{"good.py", "broken.ipynb"}, map[string]string{
		"good.py":      "x = 1  # one",
		"broken.ipynb": "{not json",
	})
	t.Chdir(dir)

	out, errOut, err := execute(t, NewCopyCommand(), defaultConfig(t), "--stdout", "good.py", "broken.ipynb")
	require.NoError(t, err)

	assert.Equal(t, "x = 1\n", out)
	assert.Contains(t, errOut, "Skipped ")
	assert.Contains(t, errOut, "broken.ipynb")
	assert.Contains(t, errOut, "failed to parse notebook")
}

func TestCopyCommandRequiresArgs(t *testing.T) {
	_, _, err := execute(t, NewCopyCommand(), defaultConfig(t))
	assert.Error(t, err)
}

func TestCopyCommandNothingEligible(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, []string{"a.txt"}, map[string]string{"a.txt": "x"})
	t.Chdir(dir)

	_, _, err := execute(t, NewCopyCommand(), defaultConfig(t), "--stdout", "a.txt")
	assert.ErrorIs(t, err, runner.ErrNothingToCopy)
}

func TestWatchCommandStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	cmd := NewWatchCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--stdout", dir})

	ctx, cancel := context.WithCancel(context.Background())
	ctx = config.WithConfig(ctx, defaultConfig(t))
	ctx = config.WithLogger(ctx, testutil.NewTestLogger(t))

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchCommandMissingPath(t *testing.T) {
	_, _, err := execute(t, NewWatchCommand(), defaultConfig(t), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestNewVersionCommand(t *testing.T) {
	out, _, err := execute(t, NewVersionCommand("1.2.3", "abc"), defaultConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "pystrip v1.2.3")
	assert.Contains(t, out, "commit abc")
}
