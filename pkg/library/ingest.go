package library

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/coolbeans/exhibit/pkg/extract"
	"github.com/coolbeans/exhibit/pkg/intake"
)

// IngestFromText parses source text into a record with its counts. A nil
// parser uses the default ruleset.
func IngestFromText(sourceText []byte, parser *extract.Parser) (*IngestResult, error) {
	if len(strings.TrimSpace(string(sourceText))) == 0 {
		return nil, fmt.Errorf("source text is empty")
	}
	if parser == nil {
		var err error
		if parser, err = extract.NewParser(nil); err != nil {
			return nil, err
		}
	}

	rec := parser.Parse(string(sourceText))
	return &IngestResult{
		Record:    rec,
		Counts:    countRecord(rec, len(sourceText)),
		RulesetID: parser.Ruleset().ID,
	}, nil
}

// IngestFromFile converts a document with reader and parses it.
func IngestFromFile(ctx context.Context, reader *intake.Reader, filePath string, parser *extract.Parser) (*IngestResult, []byte, error) {
	if reader == nil {
		reader = intake.NewReader()
	}
	doc, err := reader.ReadFile(ctx, filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	source := []byte(doc.Text)
	result, err := IngestFromText(source, parser)
	if err != nil {
		return nil, nil, err
	}
	return result, source, nil
}

// DeriveRecordID creates a record ID from a file path by lowercasing the
// basename without its extension and replacing spaces with dashes.
func DeriveRecordID(filePath string) string {
	baseName := filepath.Base(filePath)
	if idx := strings.LastIndex(baseName, "."); idx > 0 {
		baseName = baseName[:idx]
	}
	return strings.Join(strings.Fields(strings.ToLower(baseName)), "-")
}

func countRecord(rec *extract.ExhibitionRecord, sourceBytes int) *RecordCounts {
	return &RecordCounts{
		Artists:     len(rec.Artists),
		Images:      len(rec.Images),
		Events:      len(rec.Events),
		Shifts:      len(rec.Shifts),
		Unmatched:   len(rec.Unmatched),
		SourceBytes: sourceBytes,
	}
}
