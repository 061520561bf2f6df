// Package extract turns a pasted or converted exhibition intake form into an
// ExhibitionRecord. Extraction is total: missing labels, markers and sections
// degrade to empty values, never to errors.
package extract

import (
	"fmt"
	"strings"
)

// Gender of the curator, used only by consumers that inflect Hebrew titles.
type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

// ParseGender accepts "female", "male" or "" (female).
func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case "", GenderFemale:
		return GenderFemale, nil
	case GenderMale:
		return GenderMale, nil
	default:
		return "", fmt.Errorf("unknown gender %q", s)
	}
}

// ExhibitionRecord is the structured result of one parse call.
type ExhibitionRecord struct {
	Exhibition   Exhibition         `json:"exhibition"`
	Curator      Curator            `json:"curator"`
	Artists      []Artist           `json:"artists"`
	PressRelease PressRelease       `json:"pressRelease"`
	Images       []ImageDescription `json:"images"`
	Shifts       []string           `json:"shifts"`
	Events       []string           `json:"events"`
	Unmatched    []string           `json:"unmatched"`
}

// Exhibition holds the top-level exhibition fields.
type Exhibition struct {
	TitleHeb  string `json:"titleHeb"`
	TitleEng  string `json:"titleEng"`
	OpenDate  string `json:"openDate"`
	CloseDate string `json:"closeDate"`
}

// Curator holds the curator's details.
type Curator struct {
	NameHeb   string `json:"nameHeb"`
	NameEng   string `json:"nameEng"`
	Gender    Gender `json:"gender"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Instagram string `json:"instagram"`
	Website   string `json:"website"`
}

// Artist is one numbered artist block.
type Artist struct {
	ID        string `json:"id"`
	NameHeb   string `json:"nameHeb"`
	NameEng   string `json:"nameEng"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Website   string `json:"website"`
	Instagram string `json:"instagram"`
}

// PressRelease holds the full and short press texts.
type PressRelease struct {
	Full  string `json:"full"`
	Short string `json:"short"`
}

// ImageDescription is one numbered image entry.
type ImageDescription struct {
	ID               string `json:"id"`
	DetailsHeb       string `json:"detailsHeb"`
	AccessibilityHeb string `json:"accessibilityHeb"`
	DetailsEng       string `json:"detailsEng"`
	AccessibilityEng string `json:"accessibilityEng"`
}

// newRecord returns a record with every collection non-nil so that JSON output
// always carries arrays.
func newRecord() *ExhibitionRecord {
	return &ExhibitionRecord{
		Artists:   []Artist{},
		Images:    []ImageDescription{},
		Shifts:    []string{},
		Events:    []string{},
		Unmatched: []string{},
	}
}
