// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures of the review engine:
// bibliographic records, the lifecycle status vocabulary, field provenance,
// defect codes, and project settings.
//
// Implements: prd001-records (R1, R4);
//
//	docs/ARCHITECTURE § Record Model.
package types

import (
	"fmt"

	"go.yaml.in/yaml/v3"
)

// Status is the lifecycle stage of a record. The vocabulary is closed:
// values outside it are rejected at every deserialization boundary (R4.3).
type Status string

const (
	StatusMdRetrieved              Status = "md_retrieved"
	StatusMdImported               Status = "md_imported"
	StatusMdNeedsManualPreparation Status = "md_needs_manual_preparation"
	StatusMdPrepared               Status = "md_prepared"
	StatusMdNeedsManualDedupe      Status = "md_needs_manual_dedupe"
	StatusMdProcessed              Status = "md_processed"
	StatusRevPrescreenExcluded     Status = "rev_prescreen_excluded"
	StatusRevPrescreenIncluded     Status = "rev_prescreen_included"
	StatusPdfNeedsManualRetrieval  Status = "pdf_needs_manual_retrieval"
	StatusPdfImported              Status = "pdf_imported"
	StatusPdfNotAvailable          Status = "pdf_not_available"
	StatusPdfNeedsManualPrep       Status = "pdf_needs_manual_preparation"
	StatusPdfPrepared              Status = "pdf_prepared"
	StatusRevExcluded              Status = "rev_excluded"
	StatusRevIncluded              Status = "rev_included"
	StatusRevSynthesized           Status = "rev_synthesized"
)

// AllStatuses returns the vocabulary in pipeline order. The slice is a copy;
// callers may reorder it.
func AllStatuses() []Status {
	return []Status{
		StatusMdRetrieved,
		StatusMdImported,
		StatusMdNeedsManualPreparation,
		StatusMdPrepared,
		StatusMdNeedsManualDedupe,
		StatusMdProcessed,
		StatusRevPrescreenExcluded,
		StatusRevPrescreenIncluded,
		StatusPdfNeedsManualRetrieval,
		StatusPdfImported,
		StatusPdfNotAvailable,
		StatusPdfNeedsManualPrep,
		StatusPdfPrepared,
		StatusRevExcluded,
		StatusRevIncluded,
		StatusRevSynthesized,
	}
}

var statusSet = func() map[Status]bool {
	set := make(map[Status]bool)
	for _, s := range AllStatuses() {
		set[s] = true
	}
	return set
}()

// ParseStatus validates a wire string against the status vocabulary.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !statusSet[status] {
		return "", fmt.Errorf("unknown record status %q", s)
	}
	return status, nil
}

// Valid reports whether the status is part of the vocabulary.
func (s Status) Valid() bool {
	return statusSet[s]
}

// Excluded reports whether the record has left the review for good:
// prescreen-excluded, screen-excluded, or dropped for lack of a PDF.
func (s Status) Excluded() bool {
	switch s {
	case StatusRevPrescreenExcluded, StatusRevExcluded, StatusPdfNotAvailable:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// UnmarshalYAML enforces the vocabulary when records are read from disk.
func (s *Status) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseStatus(value.Value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
