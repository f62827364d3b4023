// Package unit applies the comment transforms to independently addressable
// pieces of text: a whole document, or one cell of a notebook.
package unit

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jrandolf/pystrip/internal/strip"
)

// Banner separates consecutive units when several are joined into one text.
const Banner = "\n\n# ---- New Cell ----\n\n"

// Mode selects which transform is applied to each unit.
type Mode int

const (
	// ModeAll removes comments and docstring blocks.
	ModeAll Mode = iota
	// ModeHashOnly removes comments and keeps docstrings.
	ModeHashOnly
)

// ModeFor returns ModeHashOnly when docstrings should be kept.
func ModeFor(keepDocstrings bool) Mode {
	if keepDocstrings {
		return ModeHashOnly
	}
	return ModeAll
}

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeHashOnly:
		return "hash-only"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Apply runs the transform for m over text.
func (m Mode) Apply(text string) string {
	if m == ModeHashOnly {
		return strip.RemoveHashCommentsOnly(text)
	}
	return strip.RemoveComments(text)
}

// Unit is one piece of text to transform, keyed by an ID its source
// understands.
type Unit struct {
	ID   string
	Text string
}

// Result is the transformed text for the unit with the same ID.
type Result struct {
	ID           string
	Text         string
	Changed      bool
	LinesRemoved int
}

func transformOne(mode Mode, u Unit) Result {
	out := mode.Apply(u.Text)
	return Result{
		ID:           u.ID,
		Text:         out,
		Changed:      out != u.Text,
		LinesRemoved: strip.LineCount(u.Text) - strip.LineCount(out),
	}
}

// Transform applies mode to every unit and returns results in input order.
func Transform(mode Mode, units []Unit) []Result {
	results := make([]Result, len(units))
	for i, u := range units {
		results[i] = transformOne(mode, u)
	}
	return results
}

// TransformConcurrent is Transform spread over at most limit goroutines.
// A limit below one means no limit. The only error is ctx's.
func TransformConcurrent(ctx context.Context, mode Mode, units []Unit, limit int) ([]Result, error) {
	results := make([]Result, len(units))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = transformOne(mode, u)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Join concatenates texts with Banner between consecutive entries.
func Join(texts []string) string {
	return JoinWith(texts, Banner)
}

// JoinWith concatenates texts with sep between consecutive entries.
func JoinWith(texts []string, sep string) string {
	return strings.Join(texts, sep)
}

// Texts returns the text of each result, in order.
func Texts(results []Result) []string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return texts
}
