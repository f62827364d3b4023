package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jrandolf/pystrip/internal/cli/config"
	"github.com/jrandolf/pystrip/internal/watch"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Cells  []int
	Stdout bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Copy code without comments every time a file is saved",
		Long: `Watch files or directories and, each time a Python file or notebook is
saved, copy its comment-free text to the clipboard.

Directories are watched without recursion. Files are never modified.`,
		Example: `  # Watch the current directory
  pystrip watch

  # Watch one notebook and print each result
  pystrip watch --stdout analysis.ipynb`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts)
		},
	}

	addModeFlags(cmd, &opts.Cells)
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before a changed file is copied")
	cmd.Flags().BoolVar(&opts.Stdout, "stdout", false, "Write to stdout instead of the clipboard")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, opts *WatchOptions) error {
	cfg := config.FromContext(cmd.Context())
	logger := config.Logger(cmd.Context())

	if len(args) == 0 {
		args = []string{"."}
	}

	w, err := watch.New(watch.Config{
		Paths:    args,
		Mode:     cfg.Mode(),
		Source:   sourceOptions(cfg, opts.Cells),
		Banner:   cfg.Banner,
		Debounce: cfg.Debounce,
		Sink:     outputSink(cmd, opts.Stdout),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching for changes", "paths", args, "mode", cfg.Mode().String())
	return w.Run(ctx)
}
