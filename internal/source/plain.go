package source

import (
	"fmt"

	"github.com/jrandolf/pystrip/internal/unit"
)

// PlainFile is a Python source file; the whole file is a single unit whose
// ID is the file path.
type PlainFile struct {
	path string
	text string
}

func newPlainFile(path, text string) *PlainFile {
	return &PlainFile{path: path, text: text}
}

func (p *PlainFile) Path() string { return p.path }

func (p *PlainFile) Units() []unit.Unit {
	return []unit.Unit{{ID: p.path, Text: p.text}}
}

func (p *PlainFile) Replace(results []unit.Result) error {
	for _, r := range results {
		if r.ID != p.path {
			return fmt.Errorf("unknown unit %q for %s", r.ID, p.path)
		}
		p.text = r.Text
	}
	return nil
}

func (p *PlainFile) Bytes() ([]byte, error) {
	return []byte(p.text), nil
}
