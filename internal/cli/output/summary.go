// Package output renders run reports for the terminal or for pipes.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/jrandolf/pystrip/internal/runner"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Summary writes report to w: a table on a terminal, plain lines otherwise.
// Paths are shown relative to base when possible.
func Summary(w io.Writer, report *runner.Report, base string, tty bool) {
	if tty {
		summaryTable(w, report, base)
	} else {
		summaryLines(w, report, base)
	}

	verb := "Processed"
	if report.DryRun {
		verb = "Would process"
	}
	_, _ = fmt.Fprintf(w, "\n%s %d file(s), %d unit(s), removed %d line(s); %d skipped, %d failed\n",
		verb, report.Processed(), report.Units(), report.LinesRemoved(), report.Skipped(), report.Failed())
}

func summaryTable(w io.Writer, report *runner.Report, base string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Status", "Units", "Lines removed"})

	for _, f := range report.Files {
		t.AppendRow(table.Row{displayPath(f.Path, base), styleStatus(f.Status), f.Units, f.LinesRemoved})
	}

	t.Render()
}

func summaryLines(w io.Writer, report *runner.Report, base string) {
	for _, f := range report.Files {
		line := fmt.Sprintf("%s: %s", f.Status, displayPath(f.Path, base))
		if f.Status == runner.StatusFailed && f.Err != nil {
			line += fmt.Sprintf(" (%v)", f.Err)
		}
		_, _ = fmt.Fprintln(w, line)
	}
}

func styleStatus(s runner.Status) string {
	switch {
	case s == runner.StatusFailed:
		return failStyle.Render(string(s))
	case s.Skipped():
		return skipStyle.Render(string(s))
	default:
		return okStyle.Render(string(s))
	}
}

func displayPath(path, base string) string {
	if base == "" {
		return path
	}
	if rel, err := filepath.Rel(base, path); err == nil && filepath.IsLocal(rel) {
		return rel
	}
	return path
}
