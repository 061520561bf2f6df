package intake

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// blockElements start a new line in the converted text.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true,
}

// skippedElements contribute no text.
var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true, "template": true,
}

// readHTML converts an HTML document to lines of text.
func readHTML(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	w := &htmlWriter{}
	w.walk(doc)
	w.flush()
	return joinLines(w.lines), nil
}

type htmlWriter struct {
	lines   []string
	current strings.Builder
	pre     int
}

func (w *htmlWriter) flush() {
	if w.current.Len() > 0 {
		w.lines = append(w.lines, strings.TrimSpace(w.current.String()))
	}
	w.current.Reset()
}

func (w *htmlWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		switch n.Data {
		case "br":
			w.flush()
			return
		case "td", "th":
			if w.current.Len() > 0 {
				w.current.WriteByte('\t')
			}
		case "pre":
			w.pre++
			defer func() { w.pre-- }()
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		w.flush()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	if block {
		w.flush()
	}
}

func (w *htmlWriter) text(s string) {
	if w.pre > 0 {
		parts := strings.Split(s, "\n")
		for i, part := range parts {
			if i > 0 {
				w.flush()
			}
			w.current.WriteString(part)
		}
		return
	}

	collapsed := strings.Join(strings.Fields(s), " ")
	if collapsed == "" {
		if s != "" && w.current.Len() > 0 {
			w.current.WriteByte(' ')
		}
		return
	}
	if startsWithSpace(s) && w.current.Len() > 0 {
		w.current.WriteByte(' ')
	}
	w.current.WriteString(collapsed)
	if endsWithSpace(s) {
		w.current.WriteByte(' ')
	}
}

func startsWithSpace(s string) bool {
	return strings.TrimLeft(s, " \t\r\n\f") != s
}

func endsWithSpace(s string) bool {
	return strings.TrimRight(s, " \t\r\n\f") != s
}
