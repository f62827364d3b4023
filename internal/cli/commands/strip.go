package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrandolf/pystrip/internal/cache"
	"github.com/jrandolf/pystrip/internal/cli/config"
	"github.com/jrandolf/pystrip/internal/cli/output"
	"github.com/jrandolf/pystrip/internal/gitutil"
	"github.com/jrandolf/pystrip/internal/runner"
)

// StripOptions holds options for the strip command.
type StripOptions struct {
	Staged    bool
	Force     bool
	CacheOnly bool
	DryRun    bool
	Cells     []int
}

// NewStripCommand creates the strip command.
func NewStripCommand() *cobra.Command {
	opts := &StripOptions{}
	cmd := &cobra.Command{
		Use:   "strip [files...]",
		Short: "Remove comments from files in place",
		Long: `Remove comments and docstrings from Python files and notebooks in place.

Whole-line comments are dropped, trailing comments are cut, and triple-quoted
blocks that start a line are deleted. Use --keep-docstrings to leave those
blocks alone.

Inside a git repository, files ignored by git are skipped and a cache at the
repository root remembers which files are already clean.`,
		Example: `  # Strip a file
  pystrip strip app.py

  # Strip only comments, keep docstrings
  pystrip strip --keep-docstrings app.py

  # Strip cells 1 and 3 of a notebook
  pystrip strip --cells 1,3 analysis.ipynb

  # Strip everything staged in git
  pystrip strip --staged`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStrip(cmd, args, opts)
		},
	}

	addModeFlags(cmd, &opts.Cells)
	cmd.Flags().BoolVar(&opts.Staged, "staged", false, "Process only staged files from git")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Force reprocessing of all files, ignoring cache")
	cmd.Flags().BoolVar(&opts.CacheOnly, "cache-only", false, "Mark files as cached without processing (useful for initialization)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report what would change without writing files")
	cmd.Flags().String("formatter", "", "Command run on each rewritten file, e.g. \"ruff format\"")

	return cmd
}

func runStrip(cmd *cobra.Command, args []string, opts *StripOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := config.Logger(ctx)
	cwd := workingDir()

	var files []string
	var err error
	if opts.Staged {
		files, err = gitutil.StagedFiles(ctx, cwd)
		if err != nil {
			return err
		}
		logger.Info("found staged files", "count", len(files))
	} else {
		if len(args) == 0 {
			return fmt.Errorf("%w: use --staged or pass file paths", errNoFiles)
		}
		if files, err = absPaths(args); err != nil {
			return err
		}
	}

	rcfg := runner.Config{
		Mode:        cfg.Mode(),
		Source:      sourceOptions(cfg, opts.Cells),
		Concurrency: cfg.Concurrency,
		Force:       opts.Force,
		CacheOnly:   opts.CacheOnly,
		DryRun:      opts.DryRun,
		Formatter:   cfg.FormatterCommand(),
		Banner:      cfg.Banner,
		Logger:      logger,
	}

	base := cwd
	if root, err := gitutil.FindRoot(cwd); err == nil {
		c, err := cache.Load(root, cfg.CacheFile)
		if err != nil {
			return fmt.Errorf("failed to load cache: %w", err)
		}
		rcfg.Cache = c
		rcfg.Ignored = gitutil.IsIgnored
		base = root
	} else {
		logger.Debug("not in a git repository; cache and gitignore checks disabled")
	}

	report, err := runner.New(rcfg).Strip(ctx, files)
	if report != nil {
		out := cmd.OutOrStdout()
		output.Summary(out, report, base, output.IsTerminal(out))
	}
	return err
}
