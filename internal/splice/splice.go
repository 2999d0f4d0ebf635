package splice

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
)

var ErrSpanOutOfRange = errors.New("selection out of range")

// Span is a half-open selection over zero-based line/column coordinates.
// Columns count UTF-16 code units, the way editor positions do.
type Span struct {
	Text        string `json:"text"`
	StartLine   int    `json:"start_line"`
	StartColumn int    `json:"start_column"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
}

// Validate reports whether s addresses lines and columns that exist in text.
func (s Span) Validate(text string) error {
	lines := strings.Split(text, "\n")
	switch {
	case s.StartLine < 0 || s.StartColumn < 0 || s.EndLine < 0 || s.EndColumn < 0:
		return fmt.Errorf("%w: negative coordinate", ErrSpanOutOfRange)
	case s.StartLine > s.EndLine || (s.StartLine == s.EndLine && s.StartColumn > s.EndColumn):
		return fmt.Errorf("%w: start after end", ErrSpanOutOfRange)
	case s.EndLine >= len(lines):
		return fmt.Errorf("%w: end line %d of %d", ErrSpanOutOfRange, s.EndLine, len(lines))
	case s.StartColumn > unitLen(lines[s.StartLine]):
		return fmt.Errorf("%w: start column %d past end of line %d", ErrSpanOutOfRange, s.StartColumn, s.StartLine)
	case s.EndColumn > unitLen(lines[s.EndLine]):
		return fmt.Errorf("%w: end column %d past end of line %d", ErrSpanOutOfRange, s.EndColumn, s.EndLine)
	}
	return nil
}

// Splice replaces span in original with replacement and returns the whole
// new text. The replacement takes the place of one line slot: lines before
// StartLine, then prefix+replacement+suffix, then lines after EndLine.
// Line breaks inside replacement are kept as they are.
//
// span must lie within original; see Validate.
func Splice(original string, span Span, replacement string) string {
	lines := strings.Split(original, "\n")

	out := make([]string, 0, len(lines)-(span.EndLine-span.StartLine))
	out = append(out, lines[:span.StartLine]...)

	start := lines[span.StartLine]
	end := lines[span.EndLine]
	out = append(out, start[:byteOffset(start, span.StartColumn)]+replacement+end[byteOffset(end, span.EndColumn):])

	out = append(out, lines[span.EndLine+1:]...)
	return strings.Join(out, "\n")
}

// byteOffset converts a UTF-16 column into a byte offset, clamped to the
// line length. A column inside a surrogate pair resolves to the end of that
// character.
func byteOffset(line string, col int) int {
	if col <= 0 {
		return 0
	}
	n := 0
	for i, r := range line {
		if n >= col {
			return i
		}
		n += runeUnits(r)
	}
	return len(line)
}

// unitLen is the length of line in UTF-16 code units.
func unitLen(line string) int {
	n := 0
	for _, r := range line {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
