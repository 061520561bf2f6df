// Package library keeps an on-disk archive of parsed intake forms: the source
// text, the extracted record and a manifest indexing both.
package library

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coolbeans/exhibit/pkg/extract"
)

const (
	manifestFileName = "library.json"
	recordsDir       = "records"
	sourceFileName   = "source.txt"
	recordFileName   = "record.json"
	manifestVersion  = "1.0.0"
)

// ErrNotFound is returned for record IDs the library does not hold.
var ErrNotFound = errors.New("record not found")

// Library manages a persistent collection of parsed intake forms.
type Library struct {
	mu       sync.RWMutex
	path     string
	manifest *LibraryManifest
}

// Init creates a new library at the given path.
func Init(libraryPath string) (*Library, error) {
	recordsPath := filepath.Join(libraryPath, recordsDir)
	if err := os.MkdirAll(recordsPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	now := time.Now().UTC()
	lib := &Library{
		path: libraryPath,
		manifest: &LibraryManifest{
			Version:   manifestVersion,
			CreatedAt: now,
			UpdatedAt: now,
			Records:   []*RecordEntry{},
		},
	}

	if err := lib.saveManifest(); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	return lib, nil
}

// Open loads an existing library from disk.
func Open(libraryPath string) (*Library, error) {
	manifestPath := filepath.Join(libraryPath, manifestFileName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read library manifest: %w", err)
	}

	var manifest LibraryManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse library manifest: %w", err)
	}
	if manifest.Records == nil {
		manifest.Records = []*RecordEntry{}
	}

	return &Library{
		path:     libraryPath,
		manifest: &manifest,
	}, nil
}

// Add parses source text and stores it with its record. An empty recordID is
// replaced by a new UUID. Adding an existing ID returns the stored entry unless
// opts.Force is set.
func (lib *Library) Add(recordID string, sourceText []byte, opts AddOptions) (*RecordEntry, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	if recordID == "" {
		recordID = uuid.NewString()
	}

	// Check for existing record
	existing := lib.findRecordUnsafe(recordID)
	if existing != nil && !opts.Force {
		return existing, nil // idempotent: return existing entry
	}

	storageHash := hashRecordID(recordID)
	now := time.Now().UTC()

	result, err := IngestFromText(sourceText, opts.Parser)
	if err != nil {
		// Record failure
		entry := &RecordEntry{
			ID:          recordID,
			Name:        opts.Name,
			SourceName:  opts.SourceName,
			Format:      opts.Format,
			Tags:        opts.Tags,
			Status:      StatusFailed,
			IngestedAt:  now,
			UpdatedAt:   now,
			StorageHash: storageHash,
			Error:       err.Error(),
		}
		lib.upsertEntry(entry)
		if saveErr := lib.saveManifest(); saveErr != nil {
			return nil, fmt.Errorf("ingestion failed (%v) and failed to save manifest: %w", err, saveErr)
		}
		return nil, fmt.Errorf("ingestion failed for %s: %w", recordID, err)
	}

	// Persist source text
	if err := lib.writeRecordFile(storageHash, sourceFileName, sourceText); err != nil {
		return nil, fmt.Errorf("failed to save source: %w", err)
	}

	// Persist the parsed record
	recordData, err := SerializeRecord(result.Record)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record: %w", err)
	}
	if err := lib.writeRecordFile(storageHash, recordFileName, recordData); err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	rec := result.Record
	entry := &RecordEntry{
		ID:          recordID,
		Name:        opts.Name,
		SourceName:  opts.SourceName,
		Format:      opts.Format,
		Tags:        opts.Tags,
		Status:      StatusReady,
		IngestedAt:  now,
		UpdatedAt:   now,
		RulesetID:   result.RulesetID,
		Title:       rec.Exhibition.TitleHeb,
		TitleEng:    rec.Exhibition.TitleEng,
		Curator:     rec.Curator.NameHeb,
		OpenDate:    rec.Exhibition.OpenDate,
		Counts:      result.Counts,
		StorageHash: storageHash,
	}
	if entry.Name == "" {
		entry.Name = firstNonEmpty(rec.Exhibition.TitleEng, rec.Exhibition.TitleHeb, opts.SourceName)
	}

	lib.upsertEntry(entry)

	if err := lib.saveManifest(); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	return entry, nil
}

// Remove deletes a record and its files from the library.
func (lib *Library) Remove(recordID string) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	entry := lib.findRecordUnsafe(recordID)
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, recordID)
	}

	// Remove files
	if err := os.RemoveAll(lib.recordDir(entry.StorageHash)); err != nil {
		return fmt.Errorf("failed to remove record files: %w", err)
	}

	// Remove from manifest
	lib.removeEntry(recordID)

	if err := lib.saveManifest(); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	return nil
}

// Entry returns the manifest entry for a record, or nil.
func (lib *Library) Entry(recordID string) *RecordEntry {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	return lib.findRecordUnsafe(recordID)
}

// Get returns the entry and the stored record for recordID.
func (lib *Library) Get(recordID string) (*RecordEntry, *extract.ExhibitionRecord, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	entry := lib.findRecordUnsafe(recordID)
	if entry == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, recordID)
	}
	if entry.Status != StatusReady {
		return entry, nil, fmt.Errorf("record %s is not ready (status: %s)", recordID, entry.Status)
	}

	data, err := lib.readRecordFile(entry.StorageHash, recordFileName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read record %s: %w", recordID, err)
	}
	rec, err := DeserializeRecord(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode record %s: %w", recordID, err)
	}
	return entry, rec, nil
}

// List returns all record entries, oldest first.
func (lib *Library) List() []*RecordEntry {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	result := make([]*RecordEntry, len(lib.manifest.Records))
	copy(result, lib.manifest.Records)

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].IngestedAt.Equal(result[j].IngestedAt) {
			return result[i].IngestedAt.Before(result[j].IngestedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result
}

// LoadSourceText returns the original source text for a record.
func (lib *Library) LoadSourceText(recordID string) ([]byte, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	entry := lib.findRecordUnsafe(recordID)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, recordID)
	}

	return lib.readRecordFile(entry.StorageHash, sourceFileName)
}

// Stats returns aggregate statistics across all records.
func (lib *Library) Stats() *LibraryStats {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	libraryStats := &LibraryStats{
		ByStatus:  make(map[string]int),
		ByRuleset: make(map[string]int),
	}

	for _, entry := range lib.manifest.Records {
		libraryStats.TotalRecords++
		libraryStats.ByStatus[string(entry.Status)]++

		if entry.RulesetID != "" {
			libraryStats.ByRuleset[entry.RulesetID]++
		}

		if entry.Counts != nil {
			libraryStats.TotalArtists += entry.Counts.Artists
			libraryStats.TotalImages += entry.Counts.Images
			libraryStats.TotalEvents += entry.Counts.Events
			libraryStats.TotalShifts += entry.Counts.Shifts
			libraryStats.TotalUnmatched += entry.Counts.Unmatched
		}
	}

	return libraryStats
}

// Path returns the library's root directory.
func (lib *Library) Path() string {
	return lib.path
}

// --- Internal helpers ---

func (lib *Library) findRecordUnsafe(recordID string) *RecordEntry {
	for _, entry := range lib.manifest.Records {
		if entry.ID == recordID {
			return entry
		}
	}
	return nil
}

func (lib *Library) upsertEntry(entry *RecordEntry) {
	for i, existing := range lib.manifest.Records {
		if existing.ID == entry.ID {
			entry.IngestedAt = existing.IngestedAt
			lib.manifest.Records[i] = entry
			lib.manifest.UpdatedAt = time.Now().UTC()
			return
		}
	}
	lib.manifest.Records = append(lib.manifest.Records, entry)
	lib.manifest.UpdatedAt = time.Now().UTC()
}

func (lib *Library) removeEntry(recordID string) {
	filtered := make([]*RecordEntry, 0, len(lib.manifest.Records))
	for _, entry := range lib.manifest.Records {
		if entry.ID != recordID {
			filtered = append(filtered, entry)
		}
	}
	lib.manifest.Records = filtered
	lib.manifest.UpdatedAt = time.Now().UTC()
}

func (lib *Library) saveManifest() error {
	manifestPath := filepath.Join(lib.path, manifestFileName)
	data, err := json.MarshalIndent(lib.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(manifestPath, data, 0644)
}

func (lib *Library) recordDir(storageHash string) string {
	return filepath.Join(lib.path, recordsDir, storageHash)
}

func (lib *Library) writeRecordFile(storageHash string, fileName string, data []byte) error {
	dirPath := lib.recordDir(storageHash)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dirPath, fileName), data, 0644)
}

func (lib *Library) readRecordFile(storageHash string, fileName string) ([]byte, error) {
	return os.ReadFile(filepath.Join(lib.recordDir(storageHash), fileName))
}

func hashRecordID(recordID string) string {
	hash := sha256.Sum256([]byte(recordID))
	return fmt.Sprintf("%x", hash)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
