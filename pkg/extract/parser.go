package extract

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/coolbeans/exhibit/pkg/ruleset"
)

// Parser turns intake form text into exhibition records. A Parser holds only
// its compiled ruleset and is safe for concurrent use.
type Parser struct {
	rs         *ruleset.Ruleset
	extractor  *Extractor
	classifier *Classifier
}

// NewParser creates a parser for rs. A nil ruleset selects the embedded
// default; an uncompiled ruleset is compiled first.
func NewParser(rs *ruleset.Ruleset) (*Parser, error) {
	if rs == nil {
		rs = ruleset.Default()
	}
	if !rs.IsCompiled() {
		if err := rs.Validate(); err != nil {
			return nil, fmt.Errorf("validating ruleset %s: %w", rs.ID, err)
		}
		if err := rs.Compile(); err != nil {
			return nil, fmt.Errorf("compiling ruleset %s: %w", rs.ID, err)
		}
	}
	return &Parser{
		rs:         rs,
		extractor:  NewExtractor(rs),
		classifier: NewClassifier(rs),
	}, nil
}

// Ruleset returns the ruleset the parser was built with.
func (p *Parser) Ruleset() *ruleset.Ruleset {
	return p.rs
}

// Parse extracts a record from text. It never fails: anything it cannot find
// is left empty.
func (p *Parser) Parse(text string) *ExhibitionRecord {
	text = Normalize(text)
	rec := newRecord()
	if text == "" {
		rec.Curator.Gender = Gender(p.rs.CuratorGender)
		return rec
	}

	c := p.rs.Compiled()
	covered := NewCoverage()
	field := func(scope string, rules []ruleset.FieldRule, name string) string {
		value := p.extractor.Value(scope, ruleset.Label(rules, name))
		covered.Add(value)
		return value
	}

	ex := p.rs.ExhibitionFields
	rec.Exhibition = Exhibition{
		TitleHeb:  field(text, ex, ruleset.FieldTitleHeb),
		TitleEng:  field(text, ex, ruleset.FieldTitleEng),
		OpenDate:  field(text, ex, ruleset.FieldOpenDate),
		CloseDate: field(text, ex, ruleset.FieldCloseDate),
	}

	// Curator labels repeat inside artist blocks, so the curator is read from
	// the front matter only.
	front := frontMatter(text, c.ArtistMarker)
	cf := p.rs.CuratorFields
	rec.Curator = Curator{
		NameHeb:   field(front, cf, ruleset.FieldNameHeb),
		NameEng:   field(front, cf, ruleset.FieldNameEng),
		Gender:    Gender(p.rs.CuratorGender),
		Phone:     field(front, cf, ruleset.FieldPhone),
		Email:     field(front, cf, ruleset.FieldEmail),
		Instagram: field(front, cf, ruleset.FieldInstagram),
		Website:   field(front, cf, ruleset.FieldWebsite),
	}
	if handles := Handles(rec.Curator.Instagram); len(handles) > 0 {
		rec.Curator.Instagram = handles[0]
	}

	rec.Artists = p.buildArtists(text)
	for _, a := range rec.Artists {
		for _, v := range []string{a.NameHeb, a.NameEng, a.Phone, a.Email} {
			covered.Add(v)
		}
	}

	rec.PressRelease = p.buildPressRelease(text)
	covered.Add(rec.PressRelease.Full)
	covered.Add(rec.PressRelease.Short)

	rec.Images = p.buildImages(text)
	for _, img := range rec.Images {
		for _, v := range []string{img.DetailsHeb, img.AccessibilityHeb, img.DetailsEng, img.AccessibilityEng} {
			covered.Add(v)
		}
	}

	lines := p.classifier.Classify(text, covered)
	rec.Shifts = lines.Shifts
	rec.Events = lines.Events
	rec.Unmatched = lines.Unmatched
	return rec
}

// frontMatter returns the text before the first match of marker.
func frontMatter(text string, marker *regexp.Regexp) string {
	return cutAt(text, marker)
}

var (
	defaultOnce sync.Once
	defaultP    *Parser
)

func defaultParser() *Parser {
	defaultOnce.Do(func() {
		p, err := NewParser(ruleset.Default())
		if err != nil {
			panic(fmt.Sprintf("extract: default ruleset: %v", err))
		}
		defaultP = p
	})
	return defaultP
}

// Parse extracts a record from text with the default ruleset.
func Parse(text string) *ExhibitionRecord {
	return defaultParser().Parse(text)
}
