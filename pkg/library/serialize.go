package library

import (
	"encoding/json"
	"fmt"

	"github.com/coolbeans/exhibit/pkg/extract"
)

// SerializeRecord converts a record to indented JSON.
func SerializeRecord(rec *extract.ExhibitionRecord) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("record is nil")
	}
	return json.MarshalIndent(rec, "", "  ")
}

// DeserializeRecord decodes a record stored by SerializeRecord.
func DeserializeRecord(data []byte) (*extract.ExhibitionRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data")
	}

	var rec extract.ExhibitionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}
