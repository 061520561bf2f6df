package intake

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	odtNamespace  = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"
)

// openPart returns the named member of an office zip archive.
func openPart(data []byte, name string) (io.ReadCloser, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("opening %s: %w", name, err)
			}
			return rc, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
}

// readDocx extracts paragraph text from word/document.xml. Each w:p becomes
// one line; w:tab and w:br map to a tab and a newline.
func readDocx(ctx context.Context, data []byte) (string, error) {
	rc, err := openPart(data, "word/document.xml")
	if err != nil {
		return "", err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var lines []string
	var current strings.Builder
	inText := false

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decoding document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				current.Reset()
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				lines = append(lines, current.String())
				current.Reset()
			}
		}
	}
	return joinLines(lines), nil
}

// readODT extracts text:p and text:h content from content.xml. Nested
// paragraphs (frames, notes) are folded into their outer paragraph.
func readODT(ctx context.Context, data []byte) (string, error) {
	rc, err := openPart(data, "content.xml")
	if err != nil {
		return "", err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var lines []string
	var current strings.Builder
	depth := 0

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decoding content.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != odtNamespace {
				continue
			}
			switch t.Name.Local {
			case "p", "h":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "line-break":
				current.WriteByte('\n')
			case "tab":
				current.WriteByte('\t')
			case "s":
				current.WriteString(strings.Repeat(" ", spaceCount(t)))
			}
		case xml.CharData:
			if depth > 0 {
				current.Write(t)
			}
		case xml.EndElement:
			if t.Name.Space != odtNamespace {
				continue
			}
			if (t.Name.Local == "p" || t.Name.Local == "h") && depth > 0 {
				depth--
				if depth == 0 {
					lines = append(lines, current.String())
				}
			}
		}
	}
	return joinLines(lines), nil
}

// spaceCount reads the text:c attribute of a text:s element.
func spaceCount(el xml.StartElement) int {
	for _, attr := range el.Attr {
		if attr.Name.Local == "c" {
			if n, err := strconv.Atoi(attr.Value); err == nil && n > 0 && n < 1000 {
				return n
			}
		}
	}
	return 1
}
