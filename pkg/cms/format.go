// Package cms formats an exhibition record into the copy-ready fields of the
// gallery's website CMS.
package cms

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/coolbeans/exhibit/pkg/extract"
)

var (
	digitGroupPattern = regexp.MustCompile(`\d+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	nonSlugPattern    = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// CleanText trims whitespace and strips one trailing period.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}

// DateWithDots writes a date with dots: 01/02/2024 becomes 01.02.2024. A
// trailing dot is dropped.
func DateWithDots(date string) string {
	date = strings.ReplaceAll(date, "/", ".")
	return strings.TrimSuffix(date, ".")
}

// CatalogOrder turns a day-month-year date into the YYMMDD sort key used by the
// catalog. Dates with fewer than three digit groups yield "".
func CatalogOrder(date string) string {
	parts := digitGroupPattern.FindAllString(date, 3)
	if len(parts) < 3 {
		return ""
	}
	day := padTwo(parts[0])
	month := padTwo(parts[1])
	year := parts[2]
	if len(year) == 4 {
		year = year[2:]
	} else {
		year = padTwo(year)
	}
	return year + month + day
}

func padTwo(s string) string {
	if len(s) < 2 {
		return strings.Repeat("0", 2-len(s)) + s
	}
	return s
}

// Slug builds the URL suffix from the English title. Characters outside
// [A-Za-z0-9_-] are dropped.
func Slug(titleEng string) string {
	s := strings.ToLower(strings.TrimSpace(titleEng))
	s = whitespacePattern.ReplaceAllString(s, "-")
	return nonSlugPattern.ReplaceAllString(s, "")
}

// ArtistNames joins the Hebrew artist names with " | ".
func ArtistNames(artists []extract.Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, CleanText(a.NameHeb))
	}
	return strings.Join(names, " | ")
}

// ArtistNamesEng joins the upper-cased English artist names with " | ".
func ArtistNamesEng(artists []extract.Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, strings.ToUpper(CleanText(a.NameEng)))
	}
	return strings.Join(names, " | ")
}

// CuratorRole returns the Hebrew curator title for gender.
func CuratorRole(gender extract.Gender) string {
	if gender == extract.GenderMale {
		return "אוצר"
	}
	return "אוצרת"
}

// artistContact renders one artist's contact line for the extra info group.
func artistContact(a extract.Artist) string {
	return fmt.Sprintf("%s - %s - %s", a.NameHeb, a.Instagram, a.Website)
}
