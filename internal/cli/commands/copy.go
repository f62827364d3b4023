package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrandolf/pystrip/internal/cli/config"
	"github.com/jrandolf/pystrip/internal/runner"
)

// CopyOptions holds options for the copy command.
type CopyOptions struct {
	Cells  []int
	Stdout bool
}

// NewCopyCommand creates the copy command.
func NewCopyCommand() *cobra.Command {
	opts := &CopyOptions{}
	cmd := &cobra.Command{
		Use:   "copy <files...>",
		Short: "Copy code without comments, leaving files untouched",
		Long: `Copy the comment-free text of files or notebook cells to the clipboard.

Nothing on disk is modified. When several units are copied (several files,
or several notebook cells) they are joined in order with a banner line
between them.`,
		Example: `  # Copy a module without comments or docstrings
  pystrip copy app.py

  # Copy selected notebook cells, keeping docstrings
  pystrip copy --keep-docstrings --cells 2,4 analysis.ipynb

  # Print instead of copying
  pystrip copy --stdout app.py | less`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd, args, opts)
		},
	}

	addModeFlags(cmd, &opts.Cells)
	cmd.Flags().BoolVar(&opts.Stdout, "stdout", false, "Write to stdout instead of the clipboard")

	return cmd
}

func runCopy(cmd *cobra.Command, args []string, opts *CopyOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := config.Logger(ctx)

	files, err := absPaths(args)
	if err != nil {
		return err
	}

	out := outputSink(cmd, opts.Stdout)
	report, err := runner.New(runner.Config{
		Mode:        cfg.Mode(),
		Source:      sourceOptions(cfg, opts.Cells),
		Concurrency: cfg.Concurrency,
		Banner:      cfg.Banner,
		Logger:      logger,
	}).Copy(ctx, files, out)
	if report != nil {
		for _, f := range report.Files {
			if f.Status == runner.StatusFailed {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %s: %v\n", f.Path, f.Err)
			}
		}
	}
	if err != nil {
		return err
	}

	if !opts.Stdout {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Copied %d unit(s) from %d file(s) to the %s\n", report.Units(), report.Processed(), out.Name())
	}
	return nil
}
