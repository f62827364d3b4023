package strip

import (
	"strings"
	"unicode"
)

// StripTrailingComment removes a same-line comment from a single line of
// Python source. Quote state is tracked for this line only, so a '#' inside
// a string that opened on an earlier line is not recognised as quoted.
//
// Single and double quote runs are tracked independently: a '"' inside a
// single-quoted run still toggles the double-quote flag. An escape is
// detected by looking exactly one character back, which means `\\'` is
// treated as an escaped quote.
func StripTrailingComment(line string) string {
	inSingle := false
	inDouble := false

	// Byte indexing is safe here: every byte we compare against is ASCII and
	// never appears inside a multi-byte UTF-8 sequence.
	for i := 0; i < len(line); i++ {
		ch := line[i]
		escaped := i > 0 && line[i-1] == '\\'

		if ch == '\'' && !escaped {
			inSingle = !inSingle
		} else if ch == '"' && !escaped {
			inDouble = !inDouble
		}

		if ch == '#' && !inSingle && !inDouble {
			return strings.TrimRightFunc(line[:i], unicode.IsSpace)
		}
	}

	return line
}
