// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"reflect"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"
)

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr bool
	}{
		{"valid", Record{ID: "Smith2020", EntryType: "article", Status: StatusMdImported}, false},
		{"missing ID", Record{EntryType: "article", Status: StatusMdImported}, true},
		{"missing entrytype", Record{ID: "Smith2020", Status: StatusMdImported}, true},
		{"bad status", Record{ID: "Smith2020", EntryType: "article", Status: "md_bogus"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFieldPresent(t *testing.T) {
	r := Record{Fields: map[string]string{
		"title":  "Digital Work",
		"volume": "",
		"number": ValueUnknown,
	}}
	if !r.FieldPresent("title") {
		t.Error("title should be present")
	}
	if r.FieldPresent("volume") {
		t.Error("empty volume should not be present")
	}
	if r.FieldPresent("number") {
		t.Error("UNKNOWN number should not be present")
	}
	if r.FieldPresent("year") {
		t.Error("absent year should not be present")
	}
}

func TestContainer(t *testing.T) {
	journal := Record{Fields: map[string]string{"journal": "MIS Quarterly", "booktitle": "ICIS"}}
	if got := journal.Container(); got != "MIS Quarterly" {
		t.Errorf("Container() = %q, want journal", got)
	}
	proceedings := Record{Fields: map[string]string{"booktitle": "ICIS Proceedings"}}
	if got := proceedings.Container(); got != "ICIS Proceedings" {
		t.Errorf("Container() = %q, want booktitle", got)
	}
	bare := Record{}
	if got := bare.Container(); got != "" {
		t.Errorf("Container() = %q, want empty", got)
	}
}

func TestAddProvenanceNote(t *testing.T) {
	r := &Record{ID: "a", EntryType: "article", Status: StatusMdImported}

	r.AddProvenanceNote("author", "mostly-all-caps", "quality-model")
	if got := r.ProvenanceNote("author"); got != "mostly-all-caps" {
		t.Errorf("note = %q", got)
	}
	if src := r.Provenance["author"].Source; src != "quality-model" {
		t.Errorf("source = %q", src)
	}

	// Codes stay sorted alphabetically, regardless of insertion order.
	r.AddProvenanceNote("author", "incomplete-field", "quality-model")
	if got := r.ProvenanceNote("author"); got != "incomplete-field,mostly-all-caps" {
		t.Errorf("note = %q, want alphabetical join", got)
	}

	// Re-adding an existing code changes nothing.
	r.AddProvenanceNote("author", "mostly-all-caps", "quality-model")
	if got := r.ProvenanceNote("author"); got != "incomplete-field,mostly-all-caps" {
		t.Errorf("note after re-add = %q", got)
	}

	// The original source survives later merges.
	r.SetProvenance("title", "manual", "")
	r.AddProvenanceNote("title", "html-tags", "quality-model")
	if src := r.Provenance["title"].Source; src != "manual" {
		t.Errorf("title source = %q, want manual preserved", src)
	}
}

func TestRemoveProvenanceNote(t *testing.T) {
	r := &Record{ID: "a", EntryType: "article", Status: StatusMdImported}
	r.SetProvenance("author", "quality-model", "incomplete-field,mostly-all-caps")

	r.RemoveProvenanceNote("author", "incomplete-field")
	if got := r.ProvenanceNote("author"); got != "mostly-all-caps" {
		t.Errorf("note = %q", got)
	}

	// Removing the last code keeps the entry with an empty note.
	r.RemoveProvenanceNote("author", "mostly-all-caps")
	if _, ok := r.Provenance["author"]; !ok {
		t.Fatal("entry should survive with empty note")
	}
	if got := r.ProvenanceNote("author"); got != "" {
		t.Errorf("note = %q, want empty", got)
	}

	// No-op on fields without an entry.
	r.RemoveProvenanceNote("year", "missing")
	if _, ok := r.Provenance["year"]; ok {
		t.Error("remove must not create entries")
	}
}

func TestDefectCodes(t *testing.T) {
	r := &Record{ID: "a", EntryType: "article", Status: StatusMdImported}
	if codes := r.DefectCodes(); codes != nil {
		t.Errorf("clean record DefectCodes() = %v, want nil", codes)
	}

	r.SetProvenance("volume", "quality-model", NoteNotMissing)
	r.SetProvenance("author", "quality-model", "mostly-all-caps")
	r.SetProvenance("title", "quality-model", "")

	got := r.DefectCodes()
	want := map[string][]string{"author": {"mostly-all-caps"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DefectCodes() = %v, want %v", got, want)
	}
}

func TestClone(t *testing.T) {
	r := &Record{
		ID:        "a",
		EntryType: "article",
		Status:    StatusMdPrepared,
		Origins:   []string{"pubs.yaml/a"},
		Fields:    map[string]string{"title": "Original"},
	}
	r.SetProvenance("title", "quality-model", "html-tags")

	clone := r.Clone()
	clone.Origins[0] = "other.yaml/a"
	clone.Fields["title"] = "Changed"
	clone.Provenance["title"].Note = "changed"

	if r.Origins[0] != "pubs.yaml/a" {
		t.Error("clone shares origins with original")
	}
	if r.Fields["title"] != "Original" {
		t.Error("clone shares fields with original")
	}
	if r.ProvenanceNote("title") != "html-tags" {
		t.Error("clone shares provenance with original")
	}
}

func TestRecordYAMLInlineFields(t *testing.T) {
	doc := `ID: WagnerParEtAl2022
ENTRYTYPE: article
colrev_status: md_prepared
colrev_origin:
  - pubs.yaml/000042
colrev_masterdata_provenance:
  author:
    source: pubs.yaml/000042
    note: ""
title: Artificial intelligence and the conduct of literature reviews
journal: Journal of Information Technology
year: "2022"
`
	var r Record
	if err := yaml.Unmarshal([]byte(doc), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.ID != "WagnerParEtAl2022" || r.EntryType != "article" {
		t.Errorf("core = %q/%q", r.ID, r.EntryType)
	}
	if r.Status != StatusMdPrepared {
		t.Errorf("status = %q", r.Status)
	}
	if got := r.Field("journal"); got != "Journal of Information Technology" {
		t.Errorf("journal = %q", got)
	}
	if got := r.Field("year"); got != "2022" {
		t.Errorf("year = %q", got)
	}
	if _, ok := r.Fields["ID"]; ok {
		t.Error("typed keys must not leak into the field map")
	}
	if src := r.Provenance["author"].Source; src != "pubs.yaml/000042" {
		t.Errorf("provenance source = %q", src)
	}

	out, err := yaml.Marshal(&r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{"ID: WagnerParEtAl2022", "colrev_status: md_prepared", "journal: Journal of Information Technology"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("marshaled record missing %q:\n%s", want, out)
		}
	}
}
