// Package ruleset holds the label, marker and keyword tables that drive exhibition
// intake parsing. A ruleset is plain YAML data; the extraction engine never embeds
// literals of its own.
package ruleset

import (
	"fmt"
	"regexp"
	"strings"
)

// InstagramScope selects how artist instagram handles are associated with artists.
type InstagramScope string

const (
	// ScopeBlock takes the first handle inside each artist's own block.
	ScopeBlock InstagramScope = "block"

	// ScopeDocument collects handles across the whole document and assigns the Nth
	// handle to the Nth accepted artist.
	ScopeDocument InstagramScope = "document"
)

// Default limits applied when a ruleset leaves them unset.
const (
	DefaultMaxValueRunes     = 2000
	DefaultEventMinRunes     = 4
	DefaultEventMaxRunes     = 99
	DefaultShiftMinRunes     = 3
	DefaultUnmatchedMinRunes = 5
	DefaultUnmatchedMax      = 12
)

// Field names understood by the extraction engine.
const (
	FieldTitleHeb  = "title_heb"
	FieldTitleEng  = "title_eng"
	FieldOpenDate  = "open_date"
	FieldCloseDate = "close_date"

	FieldNameHeb   = "name_heb"
	FieldNameEng   = "name_eng"
	FieldPhone     = "phone"
	FieldEmail     = "email"
	FieldInstagram = "instagram"
	FieldWebsite   = "website"

	FieldDetailsHeb       = "details_heb"
	FieldAccessibilityHeb = "accessibility_heb"
	FieldDetailsEng       = "details_eng"
	FieldAccessibilityEng = "accessibility_eng"
)

var (
	exhibitionFieldNames = []string{FieldTitleHeb, FieldTitleEng, FieldOpenDate, FieldCloseDate}
	curatorFieldNames    = []string{FieldNameHeb, FieldNameEng, FieldPhone, FieldEmail, FieldInstagram, FieldWebsite}
	artistFieldNames     = []string{FieldNameHeb, FieldNameEng, FieldPhone, FieldEmail}
	imageFieldNames      = []string{FieldDetailsHeb, FieldAccessibilityHeb, FieldDetailsEng, FieldAccessibilityEng}
)

// Ruleset is one complete description of an intake form layout.
type Ruleset struct {
	// Metadata
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Detection scores how well a document matches this ruleset.
	Detection DetectionConfig `yaml:"detection" json:"detection"`

	// Label tables, one per entity. Labels are literals.
	ExhibitionFields []FieldRule `yaml:"exhibition_fields" json:"exhibition_fields"`
	CuratorFields    []FieldRule `yaml:"curator_fields" json:"curator_fields"`
	ArtistFields     []FieldRule `yaml:"artist_fields" json:"artist_fields"`

	// StopKeywords end a label value. Every label, heading and marker is added
	// automatically at compile time.
	StopKeywords []string `yaml:"stop_keywords" json:"stop_keywords"`

	// SectionHeadings are literal headings that close artist and image blocks and
	// shift runs.
	SectionHeadings []string `yaml:"section_headings" json:"section_headings"`

	// Block markers are regular expressions.
	ArtistMarker string           `yaml:"artist_marker" json:"artist_marker"`
	ImageMarker  string           `yaml:"image_marker" json:"image_marker"`
	ImageFields  []ImageFieldRule `yaml:"image_fields" json:"image_fields"`

	PressRelease PressReleaseConfig `yaml:"press_release" json:"press_release"`
	Events       EventConfig        `yaml:"events" json:"events"`
	Shifts       ShiftConfig        `yaml:"shifts" json:"shifts"`
	Unmatched    UnmatchedConfig    `yaml:"unmatched" json:"unmatched"`

	InstagramScope InstagramScope `yaml:"instagram_scope" json:"instagram_scope"`
	CuratorGender  string         `yaml:"curator_gender" json:"curator_gender"`
	MaxValueRunes  int            `yaml:"max_value_runes" json:"max_value_runes"`

	// Compiled patterns (populated by Compile)
	compiled *Compiled
}

// DetectionConfig lists weighted indicators for ruleset detection.
type DetectionConfig struct {
	Indicators []Indicator `yaml:"indicators" json:"indicators"`
}

// Indicator is a pattern whose presence suggests a document uses this ruleset.
type Indicator struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Weight  int    `yaml:"weight" json:"weight"`
}

// FieldRule binds a record field to the label that introduces it.
type FieldRule struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label"`
}

// ImageFieldRule describes one lettered sub-field of an image block. The first
// rule usually has no marker: its value starts at the block start.
type ImageFieldRule struct {
	Name    string `yaml:"name" json:"name"`
	Marker  string `yaml:"marker,omitempty" json:"marker,omitempty"`
	Residue string `yaml:"residue,omitempty" json:"residue,omitempty"`
}

// PressReleaseConfig locates the two press release bodies.
type PressReleaseConfig struct {
	FullMarker       string   `yaml:"full_marker" json:"full_marker"`
	ShortMarker      string   `yaml:"short_marker" json:"short_marker"`
	ImagesMarker     string   `yaml:"images_marker" json:"images_marker"`
	FullBoilerplate  []string `yaml:"full_boilerplate" json:"full_boilerplate"`
	ShortBoilerplate []string `yaml:"short_boilerplate" json:"short_boilerplate"`
}

// EventConfig drives event line classification.
type EventConfig struct {
	Keywords   []string `yaml:"keywords" json:"keywords"`
	Exclusions []string `yaml:"exclusions" json:"exclusions"`
	MinRunes   int      `yaml:"min_runes" json:"min_runes"`
	MaxRunes   int      `yaml:"max_runes" json:"max_runes"`

	// OpeningKeyword marks the opening event; CMS output lists it separately.
	OpeningKeyword string `yaml:"opening_keyword" json:"opening_keyword"`
}

// ShiftConfig drives shift line collection.
type ShiftConfig struct {
	Marker         string `yaml:"marker" json:"marker"`
	MinRunes       int    `yaml:"min_runes" json:"min_runes"`
	DateSeparators string `yaml:"date_separators" json:"date_separators"`
}

// UnmatchedConfig drives the leftover bucket.
type UnmatchedConfig struct {
	KnownKeywords []string `yaml:"known_keywords" json:"known_keywords"`
	MinRunes      int      `yaml:"min_runes" json:"min_runes"`
	Max           int      `yaml:"max" json:"max"`
}

// Compiled holds every pattern of a ruleset in ready-to-match form.
type Compiled struct {
	Indicators []*regexp.Regexp

	Labels map[string]*regexp.Regexp
	Stop   *regexp.Regexp

	ArtistMarker *regexp.Regexp
	ImageMarker  *regexp.Regexp

	// ImageMarkers and ImageResidues are indexed like Ruleset.ImageFields; nil
	// entries mean "no marker" / "no residue".
	ImageMarkers  []*regexp.Regexp
	ImageResidues []*regexp.Regexp

	Sections *regexp.Regexp

	FullMarker       *regexp.Regexp
	ShortMarker      *regexp.Regexp
	ImagesMarker     *regexp.Regexp
	FullBoilerplate  []*regexp.Regexp
	ShortBoilerplate []*regexp.Regexp

	ShiftMarker *regexp.Regexp

	EventKeywords   []string
	EventExclusions []string
	KnownKeywords   []string
}

// Validate checks that the ruleset has all required fields.
func (rs *Ruleset) Validate() error {
	if rs.ID == "" {
		return fmt.Errorf("ruleset id is required")
	}
	if rs.Name == "" {
		return fmt.Errorf("ruleset name is required")
	}
	if rs.Version == "" {
		return fmt.Errorf("ruleset version is required")
	}
	if rs.ArtistMarker == "" {
		return fmt.Errorf("artist_marker is required")
	}
	if rs.ImageMarker == "" {
		return fmt.Errorf("image_marker is required")
	}
	if len(rs.ExhibitionFields) == 0 {
		return fmt.Errorf("at least one exhibition field is needed")
	}
	if err := checkFields("exhibition", rs.ExhibitionFields, exhibitionFieldNames); err != nil {
		return err
	}
	if err := checkFields("curator", rs.CuratorFields, curatorFieldNames); err != nil {
		return err
	}
	if err := checkFields("artist", rs.ArtistFields, artistFieldNames); err != nil {
		return err
	}
	for i, f := range rs.ImageFields {
		if !contains(imageFieldNames, f.Name) {
			return fmt.Errorf("image field %d: unknown name %q", i, f.Name)
		}
		if i > 0 && f.Marker == "" {
			return fmt.Errorf("image field %q: marker is required after the first field", f.Name)
		}
	}
	switch rs.InstagramScope {
	case "", ScopeBlock, ScopeDocument:
	default:
		return fmt.Errorf("instagram_scope must be %q or %q, got %q", ScopeBlock, ScopeDocument, rs.InstagramScope)
	}
	switch rs.CuratorGender {
	case "", "female", "male":
	default:
		return fmt.Errorf("curator_gender must be \"female\" or \"male\", got %q", rs.CuratorGender)
	}
	if rs.Events.MaxRunes != 0 && rs.Events.MaxRunes < rs.Events.MinRunes {
		return fmt.Errorf("events max_runes %d is below min_runes %d", rs.Events.MaxRunes, rs.Events.MinRunes)
	}
	if rs.MaxValueRunes < 0 || rs.Unmatched.Max < 0 {
		return fmt.Errorf("limits cannot be negative")
	}
	return nil
}

func checkFields(entity string, rules []FieldRule, known []string) error {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if !contains(known, r.Name) {
			return fmt.Errorf("%s field %d: unknown name %q", entity, i, r.Name)
		}
		if r.Label == "" {
			return fmt.Errorf("%s field %q: label is required", entity, r.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("%s field %q declared twice", entity, r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// applyDefaults fills zero limits with package defaults.
func (rs *Ruleset) applyDefaults() {
	if rs.InstagramScope == "" {
		rs.InstagramScope = ScopeBlock
	}
	if rs.CuratorGender == "" {
		rs.CuratorGender = "female"
	}
	if rs.MaxValueRunes == 0 {
		rs.MaxValueRunes = DefaultMaxValueRunes
	}
	if rs.Events.MinRunes == 0 {
		rs.Events.MinRunes = DefaultEventMinRunes
	}
	if rs.Events.MaxRunes == 0 {
		rs.Events.MaxRunes = DefaultEventMaxRunes
	}
	if rs.Shifts.MinRunes == 0 {
		rs.Shifts.MinRunes = DefaultShiftMinRunes
	}
	if rs.Shifts.DateSeparators == "" {
		rs.Shifts.DateSeparators = "./"
	}
	if rs.Unmatched.MinRunes == 0 {
		rs.Unmatched.MinRunes = DefaultUnmatchedMinRunes
	}
	if rs.Unmatched.Max == 0 {
		rs.Unmatched.Max = DefaultUnmatchedMax
	}
}

// Compile compiles all patterns in the ruleset.
// Returns an error if any pattern fails to compile.
func (rs *Ruleset) Compile() error {
	rs.applyDefaults()
	c := &Compiled{Labels: make(map[string]*regexp.Regexp)}

	for i, ind := range rs.Detection.Indicators {
		re, err := regexp.Compile(ind.Pattern)
		if err != nil {
			return fmt.Errorf("compiling indicator %d pattern %q: %w", i, ind.Pattern, err)
		}
		c.Indicators = append(c.Indicators, re)
	}

	var err error
	if c.ArtistMarker, err = regexp.Compile(rs.ArtistMarker); err != nil {
		return fmt.Errorf("compiling artist_marker: %w", err)
	}
	if c.ImageMarker, err = regexp.Compile(rs.ImageMarker); err != nil {
		return fmt.Errorf("compiling image_marker: %w", err)
	}

	// Stop alternatives: explicit keywords, every label, every heading and both
	// block markers.
	stops := make([]string, 0, len(rs.StopKeywords)+16)
	for _, kw := range rs.StopKeywords {
		stops = append(stops, LiteralPattern(kw))
	}
	for _, table := range [][]FieldRule{rs.ExhibitionFields, rs.CuratorFields, rs.ArtistFields} {
		for _, f := range table {
			lp := LiteralPattern(f.Label)
			stops = append(stops, lp)
			if _, ok := c.Labels[f.Label]; !ok {
				c.Labels[f.Label] = regexp.MustCompile(`(?i)` + lp)
			}
		}
	}
	for _, h := range rs.SectionHeadings {
		stops = append(stops, LiteralPattern(h))
	}
	stops = append(stops, rs.ArtistMarker, rs.ImageMarker)
	if c.Stop, err = regexp.Compile(`(?i)(?:` + strings.Join(stops, "|") + `)`); err != nil {
		return fmt.Errorf("compiling stop set: %w", err)
	}

	headings := make([]string, 0, len(rs.SectionHeadings))
	for _, h := range rs.SectionHeadings {
		headings = append(headings, LiteralPattern(h))
	}
	if len(headings) > 0 {
		c.Sections = regexp.MustCompile(`(?i)(?:` + strings.Join(headings, "|") + `)`)
	}

	for _, f := range rs.ImageFields {
		var marker, residue *regexp.Regexp
		if f.Marker != "" {
			if marker, err = regexp.Compile(f.Marker); err != nil {
				return fmt.Errorf("compiling image field %s marker: %w", f.Name, err)
			}
		}
		if f.Residue != "" {
			if residue, err = regexp.Compile(`^\s*(?:` + f.Residue + `)`); err != nil {
				return fmt.Errorf("compiling image field %s residue: %w", f.Name, err)
			}
		}
		c.ImageMarkers = append(c.ImageMarkers, marker)
		c.ImageResidues = append(c.ImageResidues, residue)
	}

	pr := rs.PressRelease
	if c.FullMarker, err = compileOptional(pr.FullMarker); err != nil {
		return fmt.Errorf("compiling press_release full_marker: %w", err)
	}
	if c.ShortMarker, err = compileOptional(pr.ShortMarker); err != nil {
		return fmt.Errorf("compiling press_release short_marker: %w", err)
	}
	if c.ImagesMarker, err = compileOptional(pr.ImagesMarker); err != nil {
		return fmt.Errorf("compiling press_release images_marker: %w", err)
	}
	c.FullBoilerplate = compileLiterals(pr.FullBoilerplate)
	c.ShortBoilerplate = compileLiterals(pr.ShortBoilerplate)

	if c.ShiftMarker, err = compileOptional(rs.Shifts.Marker); err != nil {
		return fmt.Errorf("compiling shifts marker: %w", err)
	}

	c.EventKeywords = lowerAll(rs.Events.Keywords)
	c.EventExclusions = lowerAll(rs.Events.Exclusions)
	c.KnownKeywords = lowerAll(rs.Unmatched.KnownKeywords)

	rs.compiled = c
	return nil
}

// IsCompiled returns true if the ruleset has been compiled.
func (rs *Ruleset) IsCompiled() bool {
	return rs.compiled != nil
}

// Compiled returns the compiled patterns, or nil before Compile.
func (rs *Ruleset) Compiled() *Compiled {
	return rs.compiled
}

// Label returns the label configured for a field, or "".
func Label(rules []FieldRule, name string) string {
	for _, r := range rules {
		if r.Name == name {
			return r.Label
		}
	}
	return ""
}

// LiteralPattern turns a literal phrase into a regular expression that tolerates
// any run of whitespace between words and any dash variant for a standalone dash.
func LiteralPattern(literal string) string {
	words := strings.Fields(literal)
	var b strings.Builder
	for i, w := range words {
		dash := isDash(w)
		if i > 0 {
			if dash || isDash(words[i-1]) {
				b.WriteString(`\s*`)
			} else {
				b.WriteString(`\s+`)
			}
		}
		if dash {
			b.WriteString(`[-–—]`)
		} else {
			b.WriteString(regexp.QuoteMeta(w))
		}
	}
	return b.String()
}

func isDash(s string) bool {
	return s == "-" || s == "–" || s == "—"
}

func compileOptional(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

func compileLiterals(literals []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(literals))
	for _, l := range literals {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, regexp.MustCompile(LiteralPattern(l)))
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
