package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/coolbeans/exhibit/pkg/ruleset"
)

// bulletPattern matches list bullets at the start of a line.
var bulletPattern = regexp.MustCompile(`^[\s•●▪◦·*\-–—]+`)

// Lines holds the three line collections. A source line lands in at most one.
type Lines struct {
	Shifts    []string
	Events    []string
	Unmatched []string
}

// Classifier buckets document lines into shifts, events and unmatched.
type Classifier struct {
	rs *ruleset.Ruleset
	c  *ruleset.Compiled
}

// NewClassifier creates a classifier for a compiled ruleset.
func NewClassifier(rs *ruleset.Ruleset) *Classifier {
	return &Classifier{rs: rs, c: rs.Compiled()}
}

// Classify scans text line by line. Shifts are taken first, then events; the
// remaining lines become unmatched unless a known keyword appears in them or
// covered already holds them. covered may be nil.
func (cl *Classifier) Classify(text string, covered *Coverage) Lines {
	out := Lines{Shifts: []string{}, Events: []string{}, Unmatched: []string{}}
	if text == "" {
		return out
	}

	lines := strings.Split(text, "\n")
	used := make(map[int]bool)

	out.Shifts = cl.shifts(text, lines, used)

	for i, line := range lines {
		if used[i] {
			continue
		}
		if event, ok := cl.event(line); ok {
			out.Events = append(out.Events, event)
			used[i] = true
		}
	}

	for i, line := range lines {
		if len(out.Unmatched) >= cl.rs.Unmatched.Max {
			break
		}
		if used[i] {
			continue
		}
		if cl.unmatched(line, covered) {
			out.Unmatched = append(out.Unmatched, strings.TrimSpace(line))
		}
	}
	return out
}

// shifts collects the contiguous run of date-like lines after the shift marker.
// Text following the marker on its own line is the first candidate. The run
// ends at the first line that fails the test or at a section heading.
func (cl *Classifier) shifts(text string, lines []string, used map[int]bool) []string {
	shifts := []string{}
	if cl.c.ShiftMarker == nil {
		return shifts
	}
	loc := cl.c.ShiftMarker.FindStringIndex(text)
	if loc == nil {
		return shifts
	}

	first := strings.Count(text[:loc[0]], "\n")
	lineEnd := strings.IndexByte(text[loc[1]:], '\n')
	var remainder string
	if lineEnd < 0 {
		remainder = text[loc[1]:]
	} else {
		remainder = text[loc[1] : loc[1]+lineEnd]
	}

	type candidate struct {
		index int
		text  string
	}
	candidates := []candidate{{first, valueSeparatorPattern.ReplaceAllString(remainder, "")}}
	for i := first + 1; i < len(lines); i++ {
		candidates = append(candidates, candidate{i, lines[i]})
	}

	started := false
	for _, cand := range candidates {
		line := strings.TrimSpace(cand.text)
		if line == "" && !started {
			continue
		}
		if cl.c.Sections != nil && cl.c.Sections.MatchString(line) {
			break
		}
		if !cl.isShift(line) {
			break
		}
		started = true
		shifts = append(shifts, line)
		used[cand.index] = true
	}
	return shifts
}

func (cl *Classifier) isShift(line string) bool {
	return utf8.RuneCountInString(line) > cl.rs.Shifts.MinRunes &&
		strings.ContainsAny(line, cl.rs.Shifts.DateSeparators)
}

// event reports whether line announces an event and returns it cleaned.
func (cl *Classifier) event(line string) (string, bool) {
	line = strings.TrimSpace(bulletPattern.ReplaceAllString(line, ""))
	n := utf8.RuneCountInString(line)
	if n < cl.rs.Events.MinRunes || n > cl.rs.Events.MaxRunes {
		return "", false
	}

	lower := strings.ToLower(line)
	if !containsAny(lower, cl.c.EventKeywords) || containsAny(lower, cl.c.EventExclusions) {
		return "", false
	}
	return cleanValue(line), true
}

func (cl *Classifier) unmatched(line string, covered *Coverage) bool {
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) < cl.rs.Unmatched.MinRunes {
		return false
	}
	if containsAny(strings.ToLower(line), cl.c.KnownKeywords) {
		return false
	}
	return !covered.Covers(line)
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
