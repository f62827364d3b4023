package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jrandolf/pystrip/internal/unit"
)

// Notebook is a Jupyter notebook. Each selected code cell is a unit whose ID
// is the cell's index in the notebook.
//
// Fields other than the source of replaced cells are carried through
// untouched, so metadata and outputs survive a round trip.
type Notebook struct {
	path     string
	fields   map[string]json.RawMessage
	cells    []map[string]json.RawMessage
	selected []int
}

type notebookMetadata struct {
	Kernelspec *struct {
		Language string `json:"language"`
	} `json:"kernelspec"`
	LanguageInfo *struct {
		Name string `json:"name"`
	} `json:"language_info"`
}

func parseNotebook(path string, content []byte, selection []int) (*Notebook, error) {
	nb := &Notebook{path: path}

	if err := json.Unmarshal(content, &nb.fields); err != nil {
		return nil, fmt.Errorf("failed to parse notebook: %w", err)
	}
	if raw, ok := nb.fields["cells"]; ok {
		if err := json.Unmarshal(raw, &nb.cells); err != nil {
			return nil, fmt.Errorf("failed to parse notebook cells: %w", err)
		}
	}

	if lang := nb.language(); lang != "" && !strings.HasPrefix(strings.ToLower(lang), "python") {
		return nil, fmt.Errorf("%w: notebook language is %s", ErrNotPython, lang)
	}

	if err := nb.selectCells(selection); err != nil {
		return nil, err
	}
	return nb, nil
}

// language returns the kernel language, falling back to language_info. An
// empty result means the notebook does not say, which is treated as Python.
func (nb *Notebook) language() string {
	raw, ok := nb.fields["metadata"]
	if !ok {
		return ""
	}

	var meta notebookMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return ""
	}

	if meta.Kernelspec != nil && meta.Kernelspec.Language != "" {
		return meta.Kernelspec.Language
	}
	if meta.LanguageInfo != nil {
		return meta.LanguageInfo.Name
	}
	return ""
}

func (nb *Notebook) selectCells(selection []int) error {
	if len(selection) == 0 {
		for i := range nb.cells {
			if nb.isCode(i) {
				nb.selected = append(nb.selected, i)
			}
		}
		if len(nb.selected) == 0 {
			return fmt.Errorf("%w: notebook has no code cells", ErrNoUnits)
		}
		return nil
	}

	for _, i := range selection {
		if i < 0 || i >= len(nb.cells) {
			return fmt.Errorf("%w: cell %d out of range (notebook has %d cells)", ErrCellSelection, i, len(nb.cells))
		}
		if !nb.isCode(i) {
			return fmt.Errorf("%w: cell %d is not a code cell", ErrCellSelection, i)
		}
		if !slices.Contains(nb.selected, i) {
			nb.selected = append(nb.selected, i)
		}
	}
	return nil
}

func (nb *Notebook) isCode(i int) bool {
	var cellType string
	if err := json.Unmarshal(nb.cells[i]["cell_type"], &cellType); err != nil {
		return false
	}
	return cellType == "code"
}

// source accepts both forms nbformat allows: a single string or a list of
// line strings.
func (nb *Notebook) source(i int) string {
	raw, ok := nb.cells[i]["source"]
	if !ok {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}
	return ""
}

func (nb *Notebook) Path() string { return nb.path }

func (nb *Notebook) Units() []unit.Unit {
	units := make([]unit.Unit, len(nb.selected))
	for n, i := range nb.selected {
		units[n] = unit.Unit{ID: strconv.Itoa(i), Text: nb.source(i)}
	}
	return units
}

func (nb *Notebook) Replace(results []unit.Result) error {
	for _, r := range results {
		i, err := strconv.Atoi(r.ID)
		if err != nil || !slices.Contains(nb.selected, i) {
			return fmt.Errorf("unknown unit %q for %s", r.ID, nb.path)
		}

		raw, err := marshalJSON(sourceLines(r.Text), "")
		if err != nil {
			return fmt.Errorf("failed to encode cell %d: %w", i, err)
		}
		nb.cells[i]["source"] = raw
	}
	return nil
}

// Bytes encodes the notebook the way Jupyter writes it: sorted keys,
// one-space indentation, no HTML escaping and a trailing newline.
func (nb *Notebook) Bytes() ([]byte, error) {
	if nb.cells != nil {
		raw, err := marshalJSON(nb.cells, "")
		if err != nil {
			return nil, fmt.Errorf("failed to encode cells: %w", err)
		}
		nb.fields["cells"] = raw
	}

	out, err := marshalJSON(nb.fields, " ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode notebook: %w", err)
	}
	return append(out, '\n'), nil
}

// sourceLines splits text into the nbformat line list, where every line but
// the last keeps its newline.
func sourceLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func marshalJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
