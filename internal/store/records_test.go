// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/review-engine/pkg/types"
)

// --- test helpers ---

func sampleRecord(id string) *types.Record {
	r := &types.Record{
		ID:        id,
		EntryType: "article",
		Status:    types.StatusMdPrepared,
		Origins:   []string{"dblp.bib/" + id},
		Fields: map[string]string{
			"author":  "Rai, Arun",
			"title":   "Editorial",
			"journal": "MIS Quarterly",
			"year":    "2020",
			"volume":  "44",
			"number":  "1",
		},
	}
	r.SetProvenance("title", "manual", "")
	return r
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.yaml")
	records := []*types.Record{sampleRecord("Zobel2021"), sampleRecord("Abel2019")}

	if err := SaveRecords(path, records); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
	loaded, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("len(loaded) = %d, want 2", len(loaded))
	}
	// Saved sorted by ID regardless of input order.
	if loaded[0].ID != "Abel2019" || loaded[1].ID != "Zobel2021" {
		t.Errorf("order = %s, %s; want Abel2019, Zobel2021", loaded[0].ID, loaded[1].ID)
	}
	got := loaded[1]
	if got.Status != types.StatusMdPrepared {
		t.Errorf("status = %s", got.Status)
	}
	if got.Field("journal") != "MIS Quarterly" {
		t.Errorf("journal = %q", got.Field("journal"))
	}
	if len(got.Origins) != 1 || got.Origins[0] != "dblp.bib/Zobel2021" {
		t.Errorf("origins = %v", got.Origins)
	}
	if _, ok := got.Provenance["title"]; !ok {
		t.Error("provenance lost in round trip")
	}
}

func TestSaveRecordsCreatesDataDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "records.yaml")
	if err := SaveRecords(path, []*types.Record{sampleRecord("Smith2020")}); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("records file not created: %v", err)
	}
}

func TestLoadRecordsMissingFileIsEmptyCollection(t *testing.T) {
	records, err := LoadRecords(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadRecords = %v, want nil error", err)
	}
	if records != nil {
		t.Errorf("records = %v, want nil", records)
	}
}

func TestLoadRecordsValidatesStatus(t *testing.T) {
	path := writeFile(t, t.TempDir(), "records.yaml", `
- ID: Smith2020
  ENTRYTYPE: article
  colrev_status: md_bogus
`)
	_, err := LoadRecords(path)
	if err == nil || !strings.Contains(err.Error(), "unknown record status") {
		t.Errorf("LoadRecords = %v, want unknown record status", err)
	}
}

func TestLoadRecordsRejectsMissingID(t *testing.T) {
	path := writeFile(t, t.TempDir(), "records.yaml", `
- ENTRYTYPE: article
  colrev_status: md_imported
`)
	_, err := LoadRecords(path)
	if err == nil || !strings.Contains(err.Error(), "record without ID") {
		t.Errorf("LoadRecords = %v, want record without ID", err)
	}
}

func TestReadImportFileDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dblp.yaml", `
- ID: Smith2020
  ENTRYTYPE: article
  title: On Imports
- ID: Doe2021
  ENTRYTYPE: article
  colrev_status: md_imported
  colrev_origin:
    - other.bib/77
`)
	records, err := ReadImportFile(path, "dblp.bib")
	if err != nil {
		t.Fatalf("ReadImportFile: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	fresh := records[0]
	if fresh.Status != types.StatusMdRetrieved {
		t.Errorf("status = %s, want md_retrieved default", fresh.Status)
	}
	if len(fresh.Origins) != 1 || fresh.Origins[0] != "dblp.bib/Smith2020" {
		t.Errorf("origins = %v, want derived from source", fresh.Origins)
	}

	explicit := records[1]
	if explicit.Status != types.StatusMdImported {
		t.Errorf("explicit status overwritten: %s", explicit.Status)
	}
	if len(explicit.Origins) != 1 || explicit.Origins[0] != "other.bib/77" {
		t.Errorf("explicit origins overwritten: %v", explicit.Origins)
	}
}

func TestReadImportFileRejectsAnonymousRecords(t *testing.T) {
	dir := t.TempDir()

	noID := writeFile(t, dir, "noid.yaml", "- ENTRYTYPE: article\n")
	if _, err := ReadImportFile(noID, "s.bib"); err == nil ||
		!strings.Contains(err.Error(), "record without ID") {
		t.Errorf("missing ID: err = %v", err)
	}

	noType := writeFile(t, dir, "notype.yaml", "- ID: Smith2020\n")
	if _, err := ReadImportFile(noType, "s.bib"); err == nil ||
		!strings.Contains(err.Error(), "missing ENTRYTYPE") {
		t.Errorf("missing ENTRYTYPE: err = %v", err)
	}
}

func TestMergeRecords(t *testing.T) {
	existing := []*types.Record{sampleRecord("Smith2020")}
	imported := []*types.Record{sampleRecord("Doe2021"), sampleRecord("Abel2019")}

	merged, err := MergeRecords(existing, imported)
	if err != nil {
		t.Fatalf("MergeRecords: %v", err)
	}
	if len(merged) != 3 {
		t.Errorf("len(merged) = %d, want 3", len(merged))
	}
	if len(existing) != 1 {
		t.Errorf("existing collection mutated: %d records", len(existing))
	}
}

func TestMergeRecordsRejectsCollidingIDs(t *testing.T) {
	existing := []*types.Record{sampleRecord("Smith2020")}
	imported := []*types.Record{sampleRecord("Smith2020")}

	_, err := MergeRecords(existing, imported)
	want := "record ID Smith2020 already in collection"
	if err == nil || err.Error() != want {
		t.Errorf("MergeRecords = %v, want %q", err, want)
	}
}
