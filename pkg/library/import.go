package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/coolbeans/exhibit/pkg/extract"
	"github.com/coolbeans/exhibit/pkg/intake"
)

// ImportOptions configures a directory import.
type ImportOptions struct {
	Reader *intake.Reader
	Parser *extract.Parser
	Tags   []string

	// Force re-imports files whose record is already ready.
	Force bool
}

// ImportDirectory converts and ingests every supported document in dirPath.
// Record IDs derive from file names; failures are reported per file.
func ImportDirectory(ctx context.Context, lib *Library, dirPath string, opts ImportOptions) (*ImportReport, error) {
	dirEntries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var matches []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		if _, err := intake.Detect(de.Name()); err == nil {
			matches = append(matches, filepath.Join(dirPath, de.Name()))
		}
	}
	sort.Strings(matches)

	importReport := &ImportReport{
		TotalAttempted: len(matches),
		Entries:        make([]ImportEntryState, 0, len(matches)),
	}

	for _, sourcePath := range matches {
		if err := ctx.Err(); err != nil {
			return importReport, err
		}
		recordID := DeriveRecordID(sourcePath)

		// Check if already ingested
		if existing := lib.Entry(recordID); existing != nil && existing.Status == StatusReady && !opts.Force {
			importReport.Skipped++
			importReport.Entries = append(importReport.Entries, ImportEntryState{
				ID:     recordID,
				Path:   sourcePath,
				Status: "skipped",
			})
			continue
		}

		failed := func(err error) {
			importReport.Failed++
			importReport.Entries = append(importReport.Entries, ImportEntryState{
				ID:     recordID,
				Path:   sourcePath,
				Status: "failed",
				Error:  err.Error(),
			})
		}

		reader := opts.Reader
		if reader == nil {
			reader = intake.NewReader()
		}
		doc, err := reader.ReadFile(ctx, sourcePath)
		if err != nil {
			failed(err)
			continue
		}

		_, err = lib.Add(recordID, []byte(doc.Text), AddOptions{
			SourceName: doc.Name,
			Format:     string(doc.Format),
			Tags:       opts.Tags,
			Parser:     opts.Parser,
			Force:      true,
		})
		if err != nil {
			failed(err)
			continue
		}

		importReport.Succeeded++
		importReport.Entries = append(importReport.Entries, ImportEntryState{
			ID:     recordID,
			Path:   sourcePath,
			Status: "ingested",
		})
	}

	return importReport, nil
}
