// Package sink delivers transformed text somewhere other than the source
// file.
package sink

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
)

// Sink receives transformed text.
type Sink interface {
	WriteText(text string) error
	Name() string
}

// Clipboard writes text to the system clipboard.
type Clipboard struct{}

func (Clipboard) WriteText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

func (Clipboard) Name() string { return "clipboard" }

// Writer writes text to an io.Writer, ending it with a newline.
type Writer struct {
	W io.Writer
}

func (w Writer) WriteText(text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w.W, text)
	return err
}

func (w Writer) Name() string { return "stdout" }

// Memory keeps every text it receives.
type Memory struct {
	mu    sync.Mutex
	texts []string
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *Memory) Name() string { return "memory" }

// Texts returns a copy of everything written so far.
func (m *Memory) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Last returns the most recent text, or "" if none.
func (m *Memory) Last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}
