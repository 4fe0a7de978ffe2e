// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"
)

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses() {
		got, err := ParseStatus(string(s))
		if err != nil {
			t.Errorf("ParseStatus(%q) error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseStatus(%q) = %q", s, got)
		}
	}

	if _, err := ParseStatus("md_bogus"); err == nil {
		t.Error("ParseStatus(md_bogus) should fail")
	} else if !strings.Contains(err.Error(), "unknown record status") {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseStatus(""); err == nil {
		t.Error("ParseStatus(\"\") should fail")
	}
}

func TestAllStatusesVocabulary(t *testing.T) {
	all := AllStatuses()
	if len(all) != 16 {
		t.Fatalf("len(AllStatuses()) = %d, want 16", len(all))
	}
	if all[0] != StatusMdRetrieved {
		t.Errorf("first status = %s, want md_retrieved", all[0])
	}
	if all[len(all)-1] != StatusRevSynthesized {
		t.Errorf("last status = %s, want rev_synthesized", all[len(all)-1])
	}
	for _, s := range all {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("md_bogus").Valid() {
		t.Error("md_bogus should not be valid")
	}
}

func TestStatusExcluded(t *testing.T) {
	excluded := map[Status]bool{
		StatusRevPrescreenExcluded: true,
		StatusRevExcluded:          true,
		StatusPdfNotAvailable:      true,
	}
	for _, s := range AllStatuses() {
		if got := s.Excluded(); got != excluded[s] {
			t.Errorf("%s.Excluded() = %v, want %v", s, got, excluded[s])
		}
	}
}

func TestStatusUnmarshalYAMLBoundary(t *testing.T) {
	var doc struct {
		S Status `yaml:"s"`
	}
	if err := yaml.Unmarshal([]byte("s: md_imported\n"), &doc); err != nil {
		t.Fatalf("unmarshal valid status: %v", err)
	}
	if doc.S != StatusMdImported {
		t.Errorf("S = %q, want md_imported", doc.S)
	}

	err := yaml.Unmarshal([]byte("s: md_bogus\n"), &doc)
	if err == nil {
		t.Fatal("unmarshal should reject md_bogus")
	}
	if !strings.Contains(err.Error(), "unknown record status") {
		t.Errorf("unexpected error: %v", err)
	}
}
