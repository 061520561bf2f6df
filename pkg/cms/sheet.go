package cms

import (
	"fmt"
	"strings"

	"github.com/coolbeans/exhibit/pkg/extract"
	"github.com/coolbeans/exhibit/pkg/ruleset"
)

// Placeholders shown when a group has nothing to copy.
const (
	NoEventsPlaceholder = "להפריד את המידע עם קו | כזה לפי הצורך"
	NoShiftsPlaceholder = "לא נמצאו נתוני משמרות"
)

// Field is one copy-ready CMS value.
type Field struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// Group is one CMS screen.
type Group struct {
	Number      int     `json:"number"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
}

// Sheet is the full set of CMS fields for one exhibition.
type Sheet struct {
	Gender extract.Gender `json:"gender"`
	Groups []Group        `json:"groups"`
}

// Builder formats records. The opening keyword separates the opening event from
// the special events.
type Builder struct {
	openingKeyword string
}

// NewBuilder creates a builder that takes its opening keyword from rs. A nil
// ruleset selects the default.
func NewBuilder(rs *ruleset.Ruleset) *Builder {
	if rs == nil {
		rs = ruleset.Default()
	}
	return &Builder{openingKeyword: rs.Events.OpeningKeyword}
}

// Build formats rec with the default ruleset.
func Build(rec *extract.ExhibitionRecord, gender extract.Gender) *Sheet {
	return NewBuilder(nil).Build(rec, gender)
}

// Build formats rec into CMS groups. gender selects the Hebrew curator title;
// an empty gender falls back to the record's own.
func (b *Builder) Build(rec *extract.ExhibitionRecord, gender extract.Gender) *Sheet {
	if gender == "" {
		gender = rec.Curator.Gender
	}
	if gender == "" {
		gender = extract.GenderFemale
	}

	ex := rec.Exhibition
	openDate := DateWithDots(ex.OpenDate)
	closeDate := DateWithDots(ex.CloseDate)
	dates := openDate + "-" + closeDate
	role := CuratorRole(gender)

	sheet := &Sheet{Gender: gender}
	sheet.Groups = append(sheet.Groups, Group{
		Number:      1,
		Title:       "הגדרות בסיסיות",
		Description: "הגדרות בסיסיות של דף התערוכה",
		Fields: []Field{
			{Label: "Slug", Value: Slug(ex.TitleEng), Description: "סיומת מקוצרת של הלינק (באנגלית)"},
			{Label: "כותרת לגוגל", Value: ex.TitleHeb, Description: "שם התערוכה כפי שיוצג בתוצאות החיפוש"},
			{Label: "סדר בקטלוג", Value: CatalogOrder(ex.OpenDate), Description: "פורמט תאריכי YYMMDD"},
		},
	})

	sheet.Groups = append(sheet.Groups, Group{
		Number:      2,
		Title:       "כותרות ותצוגה",
		Description: "כותרות ותצוגה חזותית בגלריה",
		Fields: []Field{
			{Label: "כיתוב בגלריה", Value: fmt.Sprintf("%s | %s: %s | %s", ex.TitleHeb, role, rec.Curator.NameHeb, openDate)},
			{Label: "כותרת גדולה", Value: ex.TitleHeb},
			{Label: "כותרת קטנה", Value: ex.TitleEng},
			{Label: "תאריכים", Value: dates},
		},
	})

	sheet.Groups = append(sheet.Groups, Group{
		Number:      3,
		Title:       "תוכן",
		Description: "פרטי אמנים, אוצרים ואירוע פתיחה",
		Fields: []Field{
			{Label: "שם | שם בעברית (אמנים)", Value: ArtistNames(rec.Artists)},
			{Label: "Name | Name in English (Artists)", Value: ArtistNamesEng(rec.Artists)},
			{Label: "שם האוצר (עברית)", Value: fmt.Sprintf("%s: %s", role, CleanText(rec.Curator.NameHeb))},
			{Label: "Curator Name (English)", Value: "Curator: " + CleanText(rec.Curator.NameEng)},
			{Label: "אירוע פתיחה (עברית)", Value: "אירוע פתיחה: " + openDate},
			{Label: "Opening Event (English)", Value: "Opening event: " + openDate},
		},
	})

	sheet.Groups = append(sheet.Groups, Group{
		Number:      4,
		Title:       "אירועים מיוחדים",
		Description: "אירועים מיוחדים, שיחי גלריה ומידע נוסף",
		Fields:      []Field{{Label: "אירועים מיוחדים", Value: b.specialEvents(rec.Events)}},
	})

	images := Group{Number: 5, Title: "פרטי דימויים לנגישות", Fields: []Field{}}
	for _, img := range rec.Images {
		images.Fields = append(images.Fields, Field{
			Label: "דימוי " + img.ID,
			Value: CleanText(img.DetailsHeb) + "\n" + CleanText(img.AccessibilityHeb),
		})
		if img.DetailsEng != "" {
			images.Fields = append(images.Fields, Field{
				Label: "Image " + img.ID,
				Value: CleanText(img.DetailsEng) + "\n" + CleanText(img.AccessibilityEng),
			})
		}
	}
	sheet.Groups = append(sheet.Groups, images)

	shifts := NoShiftsPlaceholder
	if len(rec.Shifts) > 0 {
		shifts = strings.Join(rec.Shifts, "\n")
	}
	extra := Group{
		Number: 6,
		Title:  "נתונים נוספים ומשמרות",
		Fields: []Field{{Label: "משמרות", Value: shifts}},
	}
	for _, a := range rec.Artists {
		extra.Fields = append(extra.Fields, Field{Label: "אמן.ית " + a.ID, Value: artistContact(a)})
	}
	sheet.Groups = append(sheet.Groups, extra)

	sheet.Groups = append(sheet.Groups, Group{
		Number: 7,
		Title:  "טקסטים להודעה לעיתונות",
		Fields: []Field{
			{Label: "הודעה לעיתונות", Value: rec.PressRelease.Full},
			{Label: "טקסט מקוצר", Value: rec.PressRelease.Short},
		},
	})

	return sheet
}

func (b *Builder) specialEvents(events []string) string {
	var special []string
	for _, e := range events {
		if b.openingKeyword != "" && strings.Contains(e, b.openingKeyword) {
			continue
		}
		special = append(special, e)
	}
	if len(special) == 0 {
		return NoEventsPlaceholder
	}
	return strings.Join(special, "\n")
}

// Group returns the group with the given number, or nil.
func (s *Sheet) Group(number int) *Group {
	for i := range s.Groups {
		if s.Groups[i].Number == number {
			return &s.Groups[i]
		}
	}
	return nil
}

// Value returns the value of the first field labelled label in any group.
func (s *Sheet) Value(label string) string {
	for _, g := range s.Groups {
		for _, f := range g.Fields {
			if f.Label == label {
				return f.Value
			}
		}
	}
	return ""
}

// Text renders the sheet for a terminal. Multi-line values start on the line
// below their label.
func (s *Sheet) Text() string {
	var b strings.Builder
	for i, g := range s.Groups {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "== %d. %s ==\n", g.Number, g.Title)
		for _, f := range g.Fields {
			if strings.Contains(f.Value, "\n") {
				fmt.Fprintf(&b, "%s:\n%s\n", f.Label, f.Value)
			} else {
				fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
			}
		}
	}
	return b.String()
}
