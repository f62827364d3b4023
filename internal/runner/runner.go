// Package runner strips or copies a set of files, one invocation at a time.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jrandolf/pystrip/internal/cache"
	"github.com/jrandolf/pystrip/internal/sink"
	"github.com/jrandolf/pystrip/internal/source"
	"github.com/jrandolf/pystrip/internal/unit"
)

var (
	// ErrNothingProcessed is returned when no file was processed or skipped.
	ErrNothingProcessed = errors.New("no files were successfully processed")
	// ErrNothingCached is returned when cache-only mode marked no file.
	ErrNothingCached = errors.New("no files were successfully cached")
	// ErrNothingToCopy is returned when copy mode found no eligible unit.
	ErrNothingToCopy = errors.New("no eligible units to copy")
)

// IgnoreFunc reports whether a file should be left alone entirely.
type IgnoreFunc func(ctx context.Context, path string) bool

// Config holds everything a Runner needs.
type Config struct {
	Mode   unit.Mode
	Source source.Options
	// Concurrency bounds how many files, and how many units per file, are
	// transformed at once. Zero means GOMAXPROCS.
	Concurrency int
	// Force ignores the cache when deciding what to process.
	Force bool
	// CacheOnly marks files as processed without touching them.
	CacheOnly bool
	// DryRun transforms files without writing them or the cache.
	DryRun bool
	// Formatter, when set, is run with the file path appended after each
	// file is rewritten.
	Formatter []string
	// Banner separates units in copy mode. Empty means unit.Banner.
	Banner string

	Cache   *cache.FileCache
	Ignored IgnoreFunc
	Logger  *slog.Logger
}

// Runner applies a Config to lists of files.
type Runner struct {
	cfg Config
}

// New creates a Runner.
func New(cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Banner == "" {
		cfg.Banner = unit.Banner
	}
	return &Runner{cfg: cfg}
}

func (r *Runner) concurrency() int {
	if r.cfg.Concurrency > 0 {
		return r.cfg.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// skippable reports errors that mean "not ours" rather than "broken".
func skippable(err error) bool {
	var unsupported *source.ErrUnsupportedFileType
	return errors.As(err, &unsupported) ||
		errors.Is(err, source.ErrNotPython) ||
		errors.Is(err, source.ErrNoUnits)
}

// forEach runs fn for every file with bounded concurrency, collecting one
// report per file in input order. Per-file failures live in the reports;
// the returned error is only ever ctx's.
func (r *Runner) forEach(ctx context.Context, files []string, fn func(ctx context.Context, i int, path string) FileReport) ([]FileReport, error) {
	reports := make([]FileReport, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())

	for i, file := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			reports[i] = fn(gctx, i, file)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

// open reads path and transforms its units, classifying failures.
func (r *Runner) open(ctx context.Context, path string) (source.Document, []unit.Result, FileReport) {
	report := FileReport{Path: path}

	doc, err := source.Open(path, r.cfg.Source)
	if err != nil {
		report.Err = err
		if skippable(err) {
			report.Status = StatusSkippedUnsupported
		} else {
			report.Status = StatusFailed
		}
		return nil, nil, report
	}

	results, err := unit.TransformConcurrent(ctx, r.cfg.Mode, doc.Units(), r.concurrency())
	if err != nil {
		report.Status = StatusFailed
		report.Err = err
		return nil, nil, report
	}

	report.Units = len(results)
	for _, res := range results {
		report.LinesRemoved += res.LinesRemoved
	}
	return doc, results, report
}

// Strip rewrites files in place.
func (r *Runner) Strip(ctx context.Context, files []string) (*Report, error) {
	if r.cfg.CacheOnly {
		return r.markCached(ctx, files)
	}

	reports, err := r.forEach(ctx, files, func(ctx context.Context, _ int, path string) FileReport {
		return r.stripFile(ctx, path)
	})
	if err != nil {
		return nil, err
	}

	report := &Report{Files: reports, DryRun: r.cfg.DryRun}
	r.updateCache(report)

	if report.Processed() == 0 && report.Skipped() == 0 {
		return report, ErrNothingProcessed
	}
	return report, nil
}

func (r *Runner) stripFile(ctx context.Context, path string) FileReport {
	log := r.cfg.Logger.With("file", path)

	if r.cfg.Ignored != nil && r.cfg.Ignored(ctx, path) {
		log.Debug("skipping gitignored file")
		return FileReport{Path: path, Status: StatusSkippedIgnored}
	}

	if r.cfg.Cache != nil && !r.cfg.Force {
		shouldProcess, err := r.cfg.Cache.ShouldProcess(path)
		if err != nil {
			// On cache check failure, process anyway
			log.Warn("failed to check cache", "error", err)
			shouldProcess = true
		}
		if !shouldProcess {
			log.Debug("skipping unchanged file")
			return FileReport{Path: path, Status: StatusSkippedUpToDate}
		}
	}

	doc, results, report := r.open(ctx, path)
	if doc == nil {
		if report.Status == StatusFailed {
			log.Warn("failed to process file", "error", report.Err)
		} else {
			log.Debug("skipping file", "reason", report.Err)
		}
		return report
	}

	changed := false
	for _, res := range results {
		changed = changed || res.Changed
	}
	if !changed {
		report.Status = StatusUnchanged
		return report
	}

	report.Status = StatusStripped
	if r.cfg.DryRun {
		log.Info("would remove comments", "units", report.Units, "lines_removed", report.LinesRemoved)
		return report
	}

	if err := doc.Replace(results); err != nil {
		return r.fail(log, report, err)
	}
	if err := source.Write(doc); err != nil {
		return r.fail(log, report, err)
	}

	if err := r.format(ctx, path); err != nil {
		// Formatting is a nicety; the comments are already gone
		log.Warn("formatter failed", "error", err)
	}

	log.Info("removed comments", "units", report.Units, "lines_removed", report.LinesRemoved)
	return report
}

func (r *Runner) fail(log *slog.Logger, report FileReport, err error) FileReport {
	log.Warn("failed to process file", "error", err)
	report.Status = StatusFailed
	report.Err = err
	return report
}

// updateCache records processed files. Save failures are warnings: the
// worst case is redundant work on the next run.
func (r *Runner) updateCache(report *Report) {
	if r.cfg.Cache == nil || r.cfg.DryRun {
		return
	}

	for _, f := range report.Files {
		if f.Status != StatusStripped && f.Status != StatusUnchanged {
			continue
		}
		if err := r.cfg.Cache.MarkProcessed(f.Path); err != nil {
			r.cfg.Logger.Warn("failed to update cache", "file", f.Path, "error", err)
		}
	}

	if err := r.cfg.Cache.Save(); err != nil {
		r.cfg.Logger.Warn("failed to save cache", "error", err)
	}
}

// markCached records files as processed without reading them, for
// initializing the cache on an already clean tree.
func (r *Runner) markCached(ctx context.Context, files []string) (*Report, error) {
	if r.cfg.Cache == nil {
		return nil, fmt.Errorf("cache-only mode requires a git repository")
	}

	report := &Report{Files: make([]FileReport, 0, len(files))}
	cached := 0

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if r.cfg.Ignored != nil && r.cfg.Ignored(ctx, file) {
			report.Files = append(report.Files, FileReport{Path: file, Status: StatusSkippedIgnored})
			continue
		}

		if err := r.cfg.Cache.MarkProcessed(file); err != nil {
			r.cfg.Logger.Warn("failed to mark file as cached", "file", file, "error", err)
			report.Files = append(report.Files, FileReport{Path: file, Status: StatusFailed, Err: err})
			continue
		}

		report.Files = append(report.Files, FileReport{Path: file, Status: StatusCached})
		cached++
	}

	if cached == 0 {
		return report, ErrNothingCached
	}

	if err := r.cfg.Cache.Save(); err != nil {
		return report, fmt.Errorf("failed to save cache: %w", err)
	}
	return report, nil
}

// Copy transforms files without modifying them and sends every unit's text,
// joined with the banner in selection order, to out.
func (r *Runner) Copy(ctx context.Context, files []string, out sink.Sink) (*Report, error) {
	// Each goroutine owns one slot, so no locking is needed
	texts := make([][]string, len(files))

	reports, err := r.forEach(ctx, files, func(ctx context.Context, i int, path string) FileReport {
		doc, results, report := r.open(ctx, path)
		if doc == nil {
			if report.Status == StatusFailed {
				r.cfg.Logger.Warn("failed to copy file", "file", path, "error", report.Err)
			} else {
				r.cfg.Logger.Debug("not copying file", "file", path, "status", report.Status, "error", report.Err)
			}
			return report
		}
		texts[i] = unit.Texts(results)
		report.Status = StatusCopied
		return report
	})
	if err != nil {
		return nil, err
	}

	var all []string
	for _, t := range texts {
		all = append(all, t...)
	}

	report := &Report{Files: reports}
	if len(all) == 0 {
		return report, ErrNothingToCopy
	}

	if err := out.WriteText(unit.JoinWith(all, r.cfg.Banner)); err != nil {
		return report, err
	}
	r.cfg.Logger.Debug("copied units", "sink", out.Name(), "units", len(all))
	return report, nil
}
