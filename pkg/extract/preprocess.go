package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// invisibleReplacer drops directional marks and byte order marks that word
// processors sprinkle through right-to-left text, and turns non-breaking
// spaces into plain ones.
var invisibleReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\ufeff", "",
	"\u200e", "", // LRM
	"\u200f", "", // RLM
	"\u202a", "",
	"\u202b", "",
	"\u202c", "",
	"\u202d", "",
	"\u202e", "",
	"\u2066", "",
	"\u2067", "",
	"\u2068", "",
	"\u2069", "",
	"\u00a0", " ",
	"\u202f", " ",
)

// Normalize prepares raw form text for extraction. Line endings become "\n",
// invisible bidi controls are removed and the text is put in NFC so that
// Hebrew letters with points compare equal to the ruleset's literals.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = invisibleReplacer.Replace(text)
	return norm.NFC.String(text)
}
