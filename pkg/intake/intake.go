// Package intake turns uploaded submission documents into plain text for the
// extraction engine.
//
// Supported formats:
//   - .docx: Microsoft Word (word/document.xml)
//   - .odt:  OpenDocument Text (content.xml)
//   - .html: HTML, block elements become lines
//   - .txt:  plain text in UTF-8, UTF-16 with a byte order mark, or Windows-1255
package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Format is a supported document format.
type Format string

const (
	FormatDocx Format = "docx"
	FormatODT  Format = "odt"
	FormatHTML Format = "html"
	FormatText Format = "txt"
)

// DefaultMaxBytes bounds the size of a document read into memory.
const DefaultMaxBytes = 20 << 20

var (
	// ErrUnsupportedFormat is returned for file extensions no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrTooLarge is returned when a document exceeds the reader's size limit.
	ErrTooLarge = errors.New("document too large")

	// ErrMissingPart is returned when an office archive lacks its content part.
	ErrMissingPart = errors.New("document part not found")
)

// Document is the text content of one uploaded file.
type Document struct {
	Name   string `json:"name"`
	Format Format `json:"format"`
	Text   string `json:"text"`
}

// Detect returns the document format based on file extension.
func Detect(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".docx":
		return FormatDocx, nil
	case ".odt":
		return FormatODT, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".txt", ".text", ".md":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// SupportedExtensions lists the extensions Detect accepts.
func SupportedExtensions() []string {
	return []string{".docx", ".odt", ".html", ".htm", ".txt", ".text", ".md"}
}

// Reader converts documents to text.
type Reader struct {
	maxBytes int64
	logger   *zap.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxBytes sets the size limit. Values <= 0 keep the default.
func WithMaxBytes(n int64) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReader creates a document reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		maxBytes: DefaultMaxBytes,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadFile reads and converts the document at path.
func (r *Reader) ReadFile(ctx context.Context, path string) (*Document, error) {
	if _, err := Detect(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > r.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), r.maxBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return r.Read(ctx, path, f)
}

// Read converts the document read from src. name is used only to detect the
// format and is reported back in the Document.
func (r *Reader) Read(ctx context.Context, name string, src io.Reader) (*Document, error) {
	format, err := Detect(name)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(src, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, r.maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.logger.Debug("converting document",
		zap.String("name", name),
		zap.String("format", string(format)),
		zap.Int("bytes", len(data)))

	var text string
	switch format {
	case FormatDocx:
		text, err = readDocx(ctx, data)
	case FormatODT:
		text, err = readODT(ctx, data)
	case FormatHTML:
		text, err = readHTML(bytes.NewReader(data))
	case FormatText:
		text, err = decodeText(data)
	}
	if err != nil {
		return nil, fmt.Errorf("converting %s (%s): %w", name, format, err)
	}

	return &Document{Name: filepath.Base(name), Format: format, Text: text}, nil
}

var defaultReader = NewReader()

// ReadFile converts the document at path with default limits.
func ReadFile(ctx context.Context, path string) (*Document, error) {
	return defaultReader.ReadFile(ctx, path)
}

// Read converts the document read from src with default limits.
func Read(ctx context.Context, name string, src io.Reader) (*Document, error) {
	return defaultReader.Read(ctx, name, src)
}

// joinLines joins lines with "\n", trimming trailing blanks on each line and
// collapsing runs of blank lines to one.
func joinLines(lines []string) string {
	var b strings.Builder
	blank := true
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
