// Package source turns files on disk into units for transformation and
// writes transformed units back.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jrandolf/pystrip/internal/unit"
)

// DefaultExtensions are the file extensions read as plain Python source.
var DefaultExtensions = []string{".py", ".pyw", ".pyi"}

const notebookExt = ".ipynb"

var (
	// ErrNotPython is returned for a notebook whose kernel language is not Python.
	ErrNotPython = errors.New("not a python document")
	// ErrNoUnits is returned when a document has nothing eligible to transform.
	ErrNoUnits = errors.New("no eligible units")
	// ErrCellSelection is returned when a selected cell does not exist or is
	// not a code cell.
	ErrCellSelection = errors.New("invalid cell selection")
)

// ErrUnsupportedFileType is returned when a file type is not supported
type ErrUnsupportedFileType struct {
	Extension string
}

func (e *ErrUnsupportedFileType) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Extension)
}

// Options controls how documents are opened.
type Options struct {
	// Cells selects notebook cells by index. Empty selects every code cell.
	Cells []int
	// Extensions overrides DefaultExtensions for plain files.
	Extensions []string
}

func (o Options) extensions() []string {
	if len(o.Extensions) == 0 {
		return DefaultExtensions
	}
	return o.Extensions
}

func (o Options) hasExtension(ext string) bool {
	return slices.ContainsFunc(o.extensions(), func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

// Document is one file split into units.
type Document interface {
	Path() string
	// Units returns the selected units in selection order.
	Units() []unit.Unit
	// Replace swaps in the full text of each unit named by a result.
	Replace(results []unit.Result) error
	// Bytes serializes the document with any replacements applied.
	Bytes() ([]byte, error)
}

// Eligible reports whether path would be opened as a document.
func Eligible(path string, opts Options) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == notebookExt || opts.hasExtension(ext)
}

// Open reads path and returns it as a Document.
func Open(path string, opts Options) (Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != notebookExt && !opts.hasExtension(ext) {
		return nil, &ErrUnsupportedFileType{Extension: filepath.Ext(path)}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if ext == notebookExt {
		return parseNotebook(path, content, opts.Cells)
	}
	return newPlainFile(path, string(content)), nil
}

// Write writes doc back to its path, keeping the existing file mode.
func Write(doc Document) error {
	data, err := doc.Bytes()
	if err != nil {
		return err
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(doc.Path()); err == nil {
		perm = info.Mode().Perm()
	}

	if err := os.WriteFile(doc.Path(), data, perm); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
