package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// buildPressRelease extracts the full and short press texts.
func (p *Parser) buildPressRelease(text string) PressRelease {
	c := p.rs.Compiled()

	var pr PressRelease
	if body, ok := between(text, c.FullMarker, c.ShortMarker); ok {
		pr.Full = stripBoilerplate(body, c.FullBoilerplate)
	}
	if body, ok := between(text, c.ShortMarker, c.ImagesMarker, c.ImageMarker); ok {
		pr.Short = stripBoilerplate(body, c.ShortBoilerplate)
	}
	return pr
}

// between returns the text after the first match of open up to the earliest
// following match of any of the closing patterns, or the end of text. ok is
// false when open is absent.
func between(text string, open *regexp.Regexp, closers ...*regexp.Regexp) (string, bool) {
	if open == nil {
		return "", false
	}
	loc := open.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	rest := text[loc[1]:]
	end := len(rest)
	for _, closer := range closers {
		if closer == nil {
			continue
		}
		if m := closer.FindStringIndex(rest); m != nil && m[0] < end {
			end = m[0]
		}
	}
	return rest[:end], true
}

// stripBoilerplate removes known instruction sentences and tidies the result.
// Only a separator on the marker's own line is dropped, so a body that opens
// with a "-" bullet keeps it.
func stripBoilerplate(body string, boilerplate []*regexp.Regexp) string {
	body = body[len(labelSeparatorPattern.FindString(body)):]
	for _, re := range boilerplate {
		body = removeBracketed(body, re)
	}
	return strings.TrimSpace(body)
}

// removeBracketed deletes every match of re. A match that is the sole content
// of a pair of parentheses takes the parentheses with it; other brackets in
// the text are left alone.
func removeBracketed(body string, re *regexp.Regexp) string {
	matches := re.FindAllStringIndex(body, -1)
	if matches == nil {
		return body
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		open := len(strings.TrimRightFunc(body[:start], unicode.IsSpace))
		closeAt := len(body) - len(strings.TrimLeftFunc(body[end:], unicode.IsSpace))
		if open > last && body[open-1] == '(' && closeAt < len(body) && body[closeAt] == ')' {
			start, end = open-1, closeAt+1
		}
		b.WriteString(body[last:start])
		last = end
	}
	b.WriteString(body[last:])
	return b.String()
}
