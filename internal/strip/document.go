// Package strip removes comments and docstrings from Python source text.
//
// Everything here is a pure function of its input: no I/O, no shared state,
// and every string is a valid input. Callers may run any number of
// transformations in parallel.
package strip

import (
	"regexp"
	"strings"
)

// docstringBlock matches a triple-quoted block that opens a line, with
// optional indentation, up to the nearest identical closing marker. The
// indentation is captured so the replacement leaves it in place.
var docstringBlock = regexp.MustCompile(`(?ms)^([ \t]*)(?:""".*?"""|'''.*?''')`)

// RemoveComments removes docstring blocks, whole-line comments and trailing
// comments from text.
func RemoveComments(text string) string {
	return RemoveHashCommentsOnly(RemoveDocstrings(text))
}

// RemoveDocstrings deletes every triple-quoted block that starts a line.
// Triple-quoted strings used mid-line, such as `x = """..."""`, are left
// alone.
func RemoveDocstrings(text string) string {
	return docstringBlock.ReplaceAllString(text, "${1}")
}

// RemoveHashCommentsOnly drops lines that are entirely a comment and strips
// trailing comments from the rest. Docstrings are kept.
func RemoveHashCommentsOnly(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		// Dropped outright, not replaced with an empty line
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		kept = append(kept, StripTrailingComment(line))
	}

	return strings.Join(kept, "\n")
}

// LineCount returns the number of '\n'-separated lines in text. The empty
// string counts as one empty line, matching strings.Split.
func LineCount(text string) int {
	return strings.Count(text, "\n") + 1
}
