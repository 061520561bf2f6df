package extract

import (
	"regexp"
	"strings"
	"sync"

	"github.com/coolbeans/exhibit/pkg/ruleset"
)

// labelSeparatorPattern matches the optional ":" or "-" after a label.
var labelSeparatorPattern = regexp.MustCompile(`^[ \t]*[:\-–—]?[ \t]*`)

// Extractor pulls label-anchored values out of text. It is bound to the stop set
// of one compiled ruleset and is safe for concurrent use.
type Extractor struct {
	labels   map[string]*regexp.Regexp
	stop     *regexp.Regexp
	maxRunes int

	mu    sync.RWMutex
	extra map[string]*regexp.Regexp
}

// NewExtractor creates an extractor for a compiled ruleset.
func NewExtractor(rs *ruleset.Ruleset) *Extractor {
	c := rs.Compiled()
	return &Extractor{
		labels:   c.Labels,
		stop:     c.Stop,
		maxRunes: rs.MaxValueRunes,
		extra:    make(map[string]*regexp.Regexp),
	}
}

// Value returns the text following the first case-insensitive occurrence of
// label, up to the nearest stop keyword or the end of the line. A label alone
// on its line takes its value from the next line. One trailing period is
// dropped. A missing label yields "".
func (e *Extractor) Value(text, label string) string {
	if label == "" || text == "" {
		return ""
	}
	loc := e.labelPattern(label).FindStringIndex(text)
	if loc == nil {
		return ""
	}

	rest := text[loc[1]:]
	rest = rest[len(labelSeparatorPattern.FindString(rest)):]

	if strings.HasPrefix(rest, "\n") {
		rest = rest[1:]
	}
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}

	rest = clipRunes(rest, e.maxRunes)
	if m := e.stop.FindStringIndex(rest); m != nil {
		rest = rest[:m[0]]
	}
	return cleanValue(rest)
}

func (e *Extractor) labelPattern(label string) *regexp.Regexp {
	if re, ok := e.labels[label]; ok {
		return re
	}

	e.mu.RLock()
	re, ok := e.extra[label]
	e.mu.RUnlock()
	if ok {
		return re
	}

	re = regexp.MustCompile(`(?i)` + ruleset.LiteralPattern(label))
	e.mu.Lock()
	e.extra[label] = re
	e.mu.Unlock()
	return re
}

// ExtractValue extracts the value of label from text using the default
// ruleset's stop set.
func ExtractValue(text, label string) string {
	return defaultParser().extractor.Value(text, label)
}

// cleanValue trims whitespace and strips a single trailing period.
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}

// clipRunes returns at most n runes of s; n <= 0 means no limit.
func clipRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
