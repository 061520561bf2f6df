package extract

import (
	"strings"
	"unicode/utf8"
)

// maxFragmentRunes bounds the values kept for substring matching. Longer values
// are only matched line by line.
const maxFragmentRunes = 200

// Coverage records the text already captured into record fields so the
// classifier can leave those lines out of unmatched.
type Coverage struct {
	lines     map[string]bool
	fragments []string
}

// NewCoverage indexes values once. Every trimmed line of every value goes into
// a set; short single-line values are also kept for substring checks, since a
// name or phone may sit inside a longer source line.
func NewCoverage(values ...string) *Coverage {
	cv := &Coverage{lines: make(map[string]bool)}
	for _, v := range values {
		cv.Add(v)
	}
	return cv
}

// Add indexes one more value. Empty values are ignored.
func (cv *Coverage) Add(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if !strings.Contains(value, "\n") {
		cv.lines[value] = true
		if utf8.RuneCountInString(value) <= maxFragmentRunes {
			cv.fragments = append(cv.fragments, value)
		}
		return
	}
	for _, line := range strings.Split(value, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			cv.lines[line] = true
		}
	}
}

// Covers reports whether the trimmed line was captured by some value. A nil
// Coverage covers nothing.
func (cv *Coverage) Covers(line string) bool {
	if cv == nil {
		return false
	}
	if cv.lines[line] {
		return true
	}
	// A fragment can only contain the line if it is at least as long.
	for _, f := range cv.fragments {
		if len(f) >= len(line) && strings.Contains(f, line) {
			return true
		}
	}
	return false
}
