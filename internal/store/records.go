// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// LoadRecords reads the working records file. The typed core of every
// record is validated here: an unknown status or a missing ID is a hard
// error, not a warning (R2.2). A missing file is an empty collection.
// Duplicate IDs load fine; detecting them is the consistency checker's job.
func LoadRecords(path string) ([]*types.Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading records file: %w", err)
	}

	var records []*types.Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return records, nil
}

// SaveRecords writes the collection sorted by ID, so repeated round trips
// produce identical files (R2.3-R2.4).
func SaveRecords(path string, records []*types.Record) error {
	sorted := append([]*types.Record(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	data, err := yaml.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing records file: %w", err)
	}
	return nil
}

// ReadImportFile reads an external result file: a YAML list of records.
// Imported records may omit colrev_status and origins; import assigns the
// retrieved state and an origin derived from the source file (R3.1-R3.2).
func ReadImportFile(path, sourceFilename string) ([]*types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}

	var records []*types.Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("%s: record without ID", path)
		}
		if r.EntryType == "" {
			return nil, fmt.Errorf("%s: record %s: missing ENTRYTYPE", path, r.ID)
		}
		if r.Status == "" {
			r.Status = types.StatusMdRetrieved
		}
		if len(r.Origins) == 0 {
			r.Origins = []string{sourceFilename + "/" + r.ID}
		}
	}
	return records, nil
}

// MergeRecords adds imported records to the collection. Colliding IDs are
// rejected; resolving them against existing records is the dedupe
// operation's job (R3.3).
func MergeRecords(existing, imported []*types.Record) ([]*types.Record, error) {
	byID := make(map[string]bool, len(existing))
	for _, r := range existing {
		byID[r.ID] = true
	}
	merged := append([]*types.Record(nil), existing...)
	for _, r := range imported {
		if byID[r.ID] {
			return nil, fmt.Errorf("record ID %s already in collection", r.ID)
		}
		byID[r.ID] = true
		merged = append(merged, r)
	}
	return merged, nil
}
