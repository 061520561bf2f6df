package ruleset

import (
	"fmt"
	"sort"
)

// Match is a ruleset scored against a document.
type Match struct {
	Ruleset    *Ruleset
	Score      int
	MaxScore   int
	Confidence float64
	Matched    int
}

// String returns a human-readable summary of the match.
func (m Match) String() string {
	return fmt.Sprintf("%s: %.1f%% confidence (score: %d/%d, %d indicators matched)",
		m.Ruleset.ID, m.Confidence*100, m.Score, m.MaxScore, m.Matched)
}

// Detector picks the ruleset whose indicators best fit a document.
type Detector struct {
	registry Registry
}

// NewDetector creates a detector over the rulesets of a registry.
func NewDetector(registry Registry) *Detector {
	return &Detector{registry: registry}
}

// Detect scores every registered ruleset and returns the matches with a non-zero
// score, best first. Ties break on indicator count, then id.
func (d *Detector) Detect(text string) []Match {
	var matches []Match
	for _, rs := range d.registry.List() {
		m := Evaluate(rs, text)
		if m.Score > 0 {
			matches = append(matches, m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		if matches[i].Matched != matches[j].Matched {
			return matches[i].Matched > matches[j].Matched
		}
		return matches[i].Ruleset.ID < matches[j].Ruleset.ID
	})
	return matches
}

// DetectBest returns the best ruleset for text, falling back to the registered
// default (or the embedded one) when nothing scores.
func (d *Detector) DetectBest(text string) *Ruleset {
	if matches := d.Detect(text); len(matches) > 0 {
		return matches[0].Ruleset
	}
	if rs, ok := d.registry.Get(DefaultID); ok {
		return rs
	}
	return Default()
}

// Evaluate scores a single compiled ruleset against text.
func Evaluate(rs *Ruleset, text string) Match {
	m := Match{Ruleset: rs}
	c := rs.Compiled()
	if c == nil {
		return m
	}
	for i, ind := range rs.Detection.Indicators {
		m.MaxScore += ind.Weight
		if c.Indicators[i].MatchString(text) {
			m.Score += ind.Weight
			m.Matched++
		}
	}
	if m.MaxScore > 0 {
		m.Confidence = float64(m.Score) / float64(m.MaxScore)
	}
	return m
}
