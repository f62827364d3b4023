// Package commands implements the pystrip subcommands.
package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jrandolf/pystrip/internal/cli/config"
	"github.com/jrandolf/pystrip/internal/sink"
	"github.com/jrandolf/pystrip/internal/source"
)

// errNoFiles is returned when a command needs file arguments and got none.
var errNoFiles = errors.New("no files provided")

// absPaths converts input paths to absolute paths up front so cache keys
// and reports do not depend on how each path was spelled.
func absPaths(paths []string) ([]string, error) {
	files := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", p, err)
		}
		files = append(files, abs)
	}
	return files, nil
}

func sourceOptions(cfg *config.Config, cells []int) source.Options {
	return source.Options{Cells: cells, Extensions: cfg.Extensions}
}

// outputSink picks stdout or the clipboard.
func outputSink(cmd *cobra.Command, stdout bool) sink.Sink {
	if stdout {
		return sink.Writer{W: cmd.OutOrStdout()}
	}
	return sink.Clipboard{}
}

func workingDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// addModeFlags registers flags shared by every command that transforms text.
func addModeFlags(cmd *cobra.Command, cells *[]int) {
	cmd.Flags().Bool("keep-docstrings", false, "Remove comments only and keep docstrings")
	cmd.Flags().IntSliceVar(cells, "cells", nil, "Notebook cell indices to transform (default: all code cells)")
}
