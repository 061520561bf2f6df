package cms

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/coolbeans/exhibit/pkg/extract"
)

func TestDateWithDots(t *testing.T) {
	tests := map[string]string{
		"01/02/2024":  "01.02.2024",
		"1.2.2024.":   "1.2.2024",
		"":            "",
		"2 במרץ 2024": "2 במרץ 2024",
	}
	for in, want := range tests {
		if got := DateWithDots(in); got != want {
			t.Errorf("DateWithDots(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCatalogOrder(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "01/02/2024", want: "240201"},
		{in: "1.2.24", want: "240201"},
		{in: "5.11.7", want: "071105"},
		{in: "1.2", want: ""},
		{in: "", want: ""},
		{in: "יום ג׳ 3.4.2025 בשעה 19:00", want: "250403"},
	}
	for _, tt := range tests {
		if got := CatalogOrder(tt.in); got != tt.want {
			t.Errorf("CatalogOrder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Full Moon":          "full-moon",
		"  Night   Shift!  ": "night-shift",
		"ירח Moon":           "-moon",
		"":                   "",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestArtistNames(t *testing.T) {
	artists := []extract.Artist{
		{NameHeb: "יעל כהן.", NameEng: "Yael Cohen"},
		{NameHeb: "נועם בר", NameEng: " Noam Bar. "},
	}
	if got := ArtistNames(artists); got != "יעל כהן | נועם בר" {
		t.Errorf("ArtistNames() = %q", got)
	}
	if got := ArtistNamesEng(artists); got != "YAEL COHEN | NOAM BAR" {
		t.Errorf("ArtistNamesEng() = %q", got)
	}
	if got := ArtistNames(nil); got != "" {
		t.Errorf("ArtistNames(nil) = %q, want empty", got)
	}
}

func TestCuratorRole(t *testing.T) {
	if got := CuratorRole(extract.GenderFemale); got != "אוצרת" {
		t.Errorf("CuratorRole(female) = %q", got)
	}
	if got := CuratorRole(extract.GenderMale); got != "אוצר" {
		t.Errorf("CuratorRole(male) = %q", got)
	}
}

func sampleRecord() *extract.ExhibitionRecord {
	return &extract.ExhibitionRecord{
		Exhibition: extract.Exhibition{
			TitleHeb:  "ירח מלא",
			TitleEng:  "Full Moon",
			OpenDate:  "01/02/2024",
			CloseDate: "15/03/2024",
		},
		Curator: extract.Curator{NameHeb: "דנה לוי", NameEng: "Dana Levi", Gender: extract.GenderFemale},
		Artists: []extract.Artist{
			{ID: "1", NameHeb: "יעל כהן", NameEng: "Yael Cohen", Instagram: "@yael", Website: "https://yael.example.com"},
		},
		Images: []extract.ImageDescription{
			{ID: "1", DetailsHeb: "צילום.", AccessibilityHeb: "ירח", DetailsEng: "Photo", AccessibilityEng: "Moon"},
			{ID: "2", DetailsHeb: "פסל"},
		},
		PressRelease: extract.PressRelease{Full: "גוף", Short: "קצר"},
		Events:       []string{"ערב פתיחה חגיגי", "שיח גלריה"},
	}
}

func TestBuild(t *testing.T) {
	sheet := Build(sampleRecord(), extract.GenderMale)

	if len(sheet.Groups) != 7 {
		t.Fatalf("len(Groups) = %d, want 7", len(sheet.Groups))
	}

	tests := []struct {
		label string
		want  string
	}{
		{label: "Slug", want: "full-moon"},
		{label: "סדר בקטלוג", want: "240201"},
		{label: "כיתוב בגלריה", want: "ירח מלא | אוצר: דנה לוי | 01.02.2024"},
		{label: "תאריכים", want: "01.02.2024-15.03.2024"},
		{label: "שם האוצר (עברית)", want: "אוצר: דנה לוי"},
		{label: "Curator Name (English)", want: "Curator: Dana Levi"},
		{label: "Opening Event (English)", want: "Opening event: 01.02.2024"},
		{label: "אירועים מיוחדים", want: "שיח גלריה"},
		{label: "משמרות", want: NoShiftsPlaceholder},
		{label: "אמן.ית 1", want: "יעל כהן - @yael - https://yael.example.com"},
		{label: "הודעה לעיתונות", want: "גוף"},
	}
	for _, tt := range tests {
		if got := sheet.Value(tt.label); got != tt.want {
			t.Errorf("Value(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}

	images := sheet.Group(5)
	if images == nil {
		t.Fatal("Group(5) = nil")
	}
	want := []Field{
		{Label: "דימוי 1", Value: "צילום\nירח"},
		{Label: "Image 1", Value: "Photo\nMoon"},
		{Label: "דימוי 2", Value: "פסל\n"},
	}
	if diff := cmp.Diff(want, images.Fields); diff != "" {
		t.Errorf("image fields mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDefaults(t *testing.T) {
	rec := sampleRecord()
	rec.Events = []string{"פתיחה ביום חמישי"}

	sheet := Build(rec, "")
	if sheet.Gender != extract.GenderFemale {
		t.Errorf("Gender = %q, want female", sheet.Gender)
	}
	if got := sheet.Value("שם האוצר (עברית)"); got != "אוצרת: דנה לוי" {
		t.Errorf("curator line = %q", got)
	}
	if got := sheet.Value("אירועים מיוחדים"); got != NoEventsPlaceholder {
		t.Errorf("special events = %q, want placeholder", got)
	}
	if sheet.Group(42) != nil {
		t.Error("Group(42) should be nil")
	}
}

func TestSheetText(t *testing.T) {
	text := Build(sampleRecord(), extract.GenderFemale).Text()

	for _, want := range []string{
		"== 1. הגדרות בסיסיות ==\n",
		"Slug: full-moon\n",
		"דימוי 1:\nצילום\nירח\n",
		"== 7. טקסטים להודעה לעיתונות ==\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Text() missing %q", want)
		}
	}
}
