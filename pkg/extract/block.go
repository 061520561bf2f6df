package extract

import (
	"regexp"
	"strconv"
)

// Block is one repeating sub-block of a document, such as a numbered artist.
type Block struct {
	// Index is the 1-based position of the block in the document.
	Index int

	// Number is the marker's own digit group. A marker without one continues
	// the previous block's number.
	Number int

	// Text runs from the end of the marker to the next marker or end of text.
	Text string
}

// SplitBlocks cuts text on every match of marker. The text before the first
// marker is discarded; the number of blocks equals the number of markers.
func SplitBlocks(text string, marker *regexp.Regexp) []Block {
	matches := marker.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	blocks := make([]Block, 0, len(matches))
	number := 0
	for i, match := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		number = markerNumber(text[match[0]:match[1]], number)
		blocks = append(blocks, Block{
			Index:  i + 1,
			Number: number,
			Text:   text[match[1]:end],
		})
	}
	return blocks
}

// cutAt returns s up to the first match of re, or s unchanged.
func cutAt(s string, re *regexp.Regexp) string {
	if re == nil {
		return s
	}
	if loc := re.FindStringIndex(s); loc != nil {
		return s[:loc[0]]
	}
	return s
}

// markerNumber reads the first digit group of a marker, or returns prev+1.
func markerNumber(marker string, prev int) int {
	if digits := digitsPattern.FindString(marker); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			return n
		}
	}
	return prev + 1
}

var digitsPattern = regexp.MustCompile(`\d+`)
