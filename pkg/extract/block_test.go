package extract

import (
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitBlocks(t *testing.T) {
	marker := regexp.MustCompile(`Artist(?:\s+(\d+))?`)

	tests := []struct {
		name string
		text string
		want []Block
	}{
		{
			name: "front matter dropped",
			text: "intro Artist 3 one Artist two Artist 7 three",
			want: []Block{
				{Index: 1, Number: 3, Text: " one "},
				{Index: 2, Number: 4, Text: " two "},
				{Index: 3, Number: 7, Text: " three"},
			},
		},
		{
			name: "trailing empty block",
			text: "Artist 1 a Artist 2",
			want: []Block{
				{Index: 1, Number: 1, Text: " a "},
				{Index: 2, Number: 2, Text: ""},
			},
		},
		{
			name: "no marker",
			text: "nothing to split",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SplitBlocks(tt.text, marker)); diff != "" {
				t.Errorf("SplitBlocks() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
