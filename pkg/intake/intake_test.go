package intake

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/coolbeans/exhibit/pkg/extract"
)

const docxXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>שם התערוכה - עברית: ירח</w:t></w:r></w:p>
<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>
<w:p/>
<w:p><w:r><w:t xml:space="preserve">last </w:t></w:r></w:p>
</w:body>
</w:document>`

const odtXML = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
<office:body><office:text>
<text:h text:outline-level="1">כותרת</text:h>
<text:p>a<text:s text:c="2"/>b<text:line-break/>c<text:span>d</text:span></text:p>
</office:text></office:body>
</office:document-content>`

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"form.docx", FormatDocx},
		{"FORM.DOCX", FormatDocx},
		{"form.odt", FormatODT},
		{"page.htm", FormatHTML},
		{"page.html", FormatHTML},
		{"notes.txt", FormatText},
		{"notes.md", FormatText},
	}
	for _, tt := range tests {
		got, err := Detect(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := Detect("scan.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadDocx(t *testing.T) {
	data := zipArchive(t, map[string]string{"word/document.xml": docxXML})

	doc, err := Read(context.Background(), "form.docx", bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, FormatDocx, doc.Format)
	assert.Equal(t, "form.docx", doc.Name)
	assert.Equal(t, "שם התערוכה - עברית: ירח\na\tb\nc\n\nlast", doc.Text)

	rec := extract.Parse(doc.Text)
	assert.Equal(t, "ירח", rec.Exhibition.TitleHeb)
}

func TestReadODT(t *testing.T) {
	data := zipArchive(t, map[string]string{"content.xml": odtXML})

	doc, err := Read(context.Background(), "form.odt", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "כותרת\na  b\ncd", doc.Text)
}

func TestReadMissingPart(t *testing.T) {
	data := zipArchive(t, map[string]string{"other.xml": "<x/>"})

	_, err := Read(context.Background(), "form.docx", bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrMissingPart)

	_, err = Read(context.Background(), "form.odt", strings.NewReader("not a zip"))
	assert.Error(t, err)
}

func TestReadHTML(t *testing.T) {
	page := `<html><head><title>T</title><style>p{}</style></head><body>
<h1>כותרת</h1>
<p>שורה   ראשונה<br>שנייה</p>
<script>x()</script>
<ul><li>אחד</li><li>שתיים</li></ul>
<table><tr><td>a</td><td>b</td></tr></table>
</body></html>`

	doc, err := Read(context.Background(), "form.html", strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "כותרת\nשורה ראשונה\nשנייה\nאחד\nשתיים\na\tb", doc.Text)
}

func TestReadTextEncodings(t *testing.T) {
	windows1255, err := charmap.Windows1255.NewEncoder().String("שלום עולם")
	require.NoError(t, err)
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("שלום עולם")
	require.NoError(t, err)

	tests := []struct {
		name string
		data string
	}{
		{"utf-8", "שלום עולם"},
		{"utf-8 with bom", "\xEF\xBB\xBFשלום עולם"},
		{"utf-16 with bom", utf16},
		{"windows-1255", windows1255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Read(context.Background(), "form.txt", strings.NewReader(tt.data))
			require.NoError(t, err)
			assert.Equal(t, "שלום עולם", doc.Text)
		})
	}
}

func TestReadLimits(t *testing.T) {
	r := NewReader(WithMaxBytes(4))

	_, err := r.Read(context.Background(), "form.txt", strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrTooLarge)

	doc, err := r.Read(context.Background(), "form.txt", strings.NewReader("hey"))
	require.NoError(t, err)
	assert.Equal(t, "hey", doc.Text)
}

func TestReadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Read(ctx, "form.txt", strings.NewReader("text"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "submission.docx")
	require.NoError(t, os.WriteFile(path, zipArchive(t, map[string]string{"word/document.xml": docxXML}), 0o644))

	doc, err := ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "submission.docx", doc.Name)
	assert.True(t, strings.HasPrefix(doc.Text, "שם התערוכה"))

	_, err = NewReader(WithMaxBytes(10)).ReadFile(context.Background(), path)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = ReadFile(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
