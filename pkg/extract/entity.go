package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/coolbeans/exhibit/pkg/ruleset"
)

var (
	// urlPattern matches the first raw link in a block.
	urlPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

	// handlePattern matches an @handle that is not the domain part of an e-mail.
	handlePattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9_.@])(@[A-Za-z0-9_][A-Za-z0-9_.]*)`)

	// valueSeparatorPattern matches separators left at the start of a span.
	valueSeparatorPattern = regexp.MustCompile(`^[\s:\-–—]+`)
)

// buildArtists turns artist blocks into artists. Blocks without any name are
// dropped; surviving artists keep their block position as id.
func (p *Parser) buildArtists(text string) []Artist {
	c := p.rs.Compiled()
	artists := []Artist{}
	for _, block := range SplitBlocks(text, c.ArtistMarker) {
		body := cutAt(block.Text, c.Sections)

		a := Artist{ID: strconv.Itoa(block.Index)}
		for _, rule := range p.rs.ArtistFields {
			value := p.extractor.Value(body, rule.Label)
			switch rule.Name {
			case ruleset.FieldNameHeb:
				a.NameHeb = value
			case ruleset.FieldNameEng:
				a.NameEng = value
			case ruleset.FieldPhone:
				a.Phone = value
			case ruleset.FieldEmail:
				a.Email = value
			}
		}
		if a.NameHeb == "" && a.NameEng == "" {
			continue
		}

		a.Website = FirstURL(body)
		if p.rs.InstagramScope == ruleset.ScopeBlock {
			if handles := Handles(body); len(handles) > 0 {
				a.Instagram = handles[0]
			}
		}
		artists = append(artists, a)
	}

	if p.rs.InstagramScope == ruleset.ScopeDocument {
		for i, handle := range Handles(text) {
			if i >= len(artists) {
				break
			}
			artists[i].Instagram = handle
		}
	}
	return artists
}

// buildImages turns image blocks into image descriptions. Every block yields an
// entry, numbered from 1.
func (p *Parser) buildImages(text string) []ImageDescription {
	c := p.rs.Compiled()
	images := []ImageDescription{}
	for i, block := range SplitBlocks(text, c.ImageMarker) {
		body := cutAt(block.Text, c.Sections)
		fields := p.imageFields(body)
		images = append(images, ImageDescription{
			ID:               strconv.Itoa(i + 1),
			DetailsHeb:       fields[ruleset.FieldDetailsHeb],
			AccessibilityHeb: fields[ruleset.FieldAccessibilityHeb],
			DetailsEng:       fields[ruleset.FieldDetailsEng],
			AccessibilityEng: fields[ruleset.FieldAccessibilityEng],
		})
	}
	return images
}

// imageFields splits an image block on its lettered sub-markers. A field runs
// from the end of its marker to the start of the next sub-marker found later in
// the block; the unmarked first field runs from the block start.
func (p *Parser) imageFields(body string) map[string]string {
	c := p.rs.Compiled()
	rules := p.rs.ImageFields

	starts := make([][]int, len(rules))
	for i, marker := range c.ImageMarkers {
		if marker != nil {
			starts[i] = marker.FindStringIndex(body)
		}
	}

	nextBoundary := func(after int) int {
		end := len(body)
		for _, loc := range starts {
			if loc != nil && loc[0] > after && loc[0] < end {
				end = loc[0]
			}
		}
		return end
	}

	fields := make(map[string]string, len(rules))
	for i, rule := range rules {
		var from, to int
		switch {
		case c.ImageMarkers[i] == nil:
			from, to = 0, nextBoundary(-1)
		case starts[i] != nil:
			from, to = starts[i][1], nextBoundary(starts[i][0])
		default:
			continue
		}

		value := body[from:to]
		if residue := c.ImageResidues[i]; residue != nil {
			value = value[len(residue.FindString(value)):]
		}
		value = valueSeparatorPattern.ReplaceAllString(value, "")
		fields[rule.Name] = strings.TrimSpace(value)
	}
	return fields
}

// FirstURL returns the first http(s) link in text without trailing punctuation.
func FirstURL(text string) string {
	return strings.TrimRight(urlPattern.FindString(text), `.,;:!?)]}'"`)
}

// Handles returns every @handle in text in order of appearance. Addresses such as
// name@example.com are not handles.
func Handles(text string) []string {
	var out []string
	for _, m := range handlePattern.FindAllStringSubmatch(text, -1) {
		if h := strings.TrimRight(m[1], "."); len(h) > 1 {
			out = append(out, h)
		}
	}
	return out
}
