package library

import (
	"time"

	"github.com/coolbeans/exhibit/pkg/extract"
)

// RecordStatus represents the state of a record in the library.
type RecordStatus string

const (
	// StatusReady indicates the source was parsed and the record is stored.
	StatusReady RecordStatus = "ready"

	// StatusFailed indicates ingestion failed for this source.
	StatusFailed RecordStatus = "failed"
)

// LibraryManifest is the top-level index of all records in the library.
type LibraryManifest struct {
	Version   string         `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Records   []*RecordEntry `json:"records"`
}

// RecordEntry describes one archived intake form.
type RecordEntry struct {
	ID          string        `json:"id"`
	Name        string        `json:"name,omitempty"`
	SourceName  string        `json:"source_name,omitempty"`
	Format      string        `json:"format,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Status      RecordStatus  `json:"status"`
	IngestedAt  time.Time     `json:"ingested_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	RulesetID   string        `json:"ruleset_id,omitempty"`
	Title       string        `json:"title,omitempty"`
	TitleEng    string        `json:"title_eng,omitempty"`
	Curator     string        `json:"curator,omitempty"`
	OpenDate    string        `json:"open_date,omitempty"`
	Counts      *RecordCounts `json:"counts,omitempty"`
	StorageHash string        `json:"storage_hash"`
	Error       string        `json:"error,omitempty"`
}

// RecordCounts holds per-record extraction counts.
type RecordCounts struct {
	Artists     int `json:"artists"`
	Images      int `json:"images"`
	Events      int `json:"events"`
	Shifts      int `json:"shifts"`
	Unmatched   int `json:"unmatched"`
	SourceBytes int `json:"source_bytes"`
}

// AddOptions configures how a source is added to the library.
type AddOptions struct {
	Name       string
	SourceName string
	Format     string
	Tags       []string

	// Parser parses the source; nil uses the default ruleset.
	Parser *extract.Parser

	// Force overwrites an existing record with the same ID.
	Force bool
}

// LibraryStats aggregates statistics across all records in the library.
type LibraryStats struct {
	TotalRecords   int            `json:"total_records"`
	TotalArtists   int            `json:"total_artists"`
	TotalImages    int            `json:"total_images"`
	TotalEvents    int            `json:"total_events"`
	TotalShifts    int            `json:"total_shifts"`
	TotalUnmatched int            `json:"total_unmatched"`
	ByStatus       map[string]int `json:"by_status"`
	ByRuleset      map[string]int `json:"by_ruleset"`
}

// ImportReport summarizes the results of a directory import.
type ImportReport struct {
	TotalAttempted int                `json:"total_attempted"`
	Succeeded      int                `json:"succeeded"`
	Skipped        int                `json:"skipped"`
	Failed         int                `json:"failed"`
	Entries        []ImportEntryState `json:"entries"`
}

// ImportEntryState records the outcome of importing a single file.
type ImportEntryState struct {
	ID     string `json:"id"`
	Path   string `json:"path"`
	Status string `json:"status"` // "ingested", "skipped", "failed"
	Error  string `json:"error,omitempty"`
}

// IngestResult holds the output of a single ingestion.
type IngestResult struct {
	Record    *extract.ExhibitionRecord
	Counts    *RecordCounts
	RulesetID string
}
