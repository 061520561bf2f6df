package ruleset

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultID is the id of the embedded ruleset.
const DefaultID = "gallery-intake"

//go:embed rules/default.yaml
var defaultYAML []byte

var (
	defaultOnce sync.Once
	defaultSet  *Ruleset
)

// Parse decodes, validates and compiles a YAML ruleset document.
func Parse(data []byte) (*Ruleset, error) {
	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ruleset: %w", err)
	}
	if err := rs.Compile(); err != nil {
		return nil, fmt.Errorf("compiling ruleset %q: %w", rs.ID, err)
	}
	return &rs, nil
}

// Default returns the compiled embedded ruleset. The returned value is shared and
// must not be modified.
func Default() *Ruleset {
	defaultOnce.Do(func() {
		rs, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("ruleset: embedded default is broken: %v", err))
		}
		defaultSet = rs
	})
	return defaultSet
}

// DefaultYAML returns a copy of the embedded ruleset source, used as a starting
// point for custom rulesets.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultYAML))
	copy(out, defaultYAML)
	return out
}

// Marshal encodes a ruleset back to YAML.
func Marshal(rs *Ruleset) ([]byte, error) {
	data, err := yaml.Marshal(rs)
	if err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	return data, nil
}
