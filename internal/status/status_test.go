// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package status

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pdiddy/review-engine/internal/state"
	"github.com/pdiddy/review-engine/pkg/types"
)

// --- test helpers ---

func collection(statuses ...types.Status) []*types.Record {
	records := make([]*types.Record, len(statuses))
	for i, s := range statuses {
		records[i] = &types.Record{
			ID:        string(s) + "-" + string(rune('a'+i)),
			EntryType: "article",
			Status:    s,
		}
	}
	return records
}

func TestCollect(t *testing.T) {
	stats := Collect(collection(
		types.StatusMdImported, types.StatusMdImported, types.StatusMdProcessed,
	))
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.Counts[types.StatusMdImported] != 2 {
		t.Errorf("md_imported = %d, want 2", stats.Counts[types.StatusMdImported])
	}
	if stats.Counts[types.StatusMdProcessed] != 1 {
		t.Errorf("md_processed = %d, want 1", stats.Counts[types.StatusMdProcessed])
	}
	if stats.Counts[types.StatusMdPrepared] != 0 {
		t.Errorf("md_prepared = %d, want 0", stats.Counts[types.StatusMdPrepared])
	}
}

func TestAdviseEarliestOperationWins(t *testing.T) {
	// Records upstream block every downstream operation, so a mixed
	// collection advises exactly the earliest runnable step.
	advice := Advise(collection(
		types.StatusMdImported, types.StatusMdImported, types.StatusMdProcessed,
	))
	if len(advice) != 1 {
		t.Fatalf("advice = %+v, want exactly one operation", advice)
	}
	if advice[0].Operation != state.OpPrep || advice[0].Ready != 2 {
		t.Errorf("advice = %+v, want prep with 2 records", advice[0])
	}
}

func TestAdvisePrescreenWhenProcessed(t *testing.T) {
	advice := Advise(collection(
		types.StatusMdProcessed, types.StatusMdProcessed, types.StatusRevPrescreenExcluded,
	))
	if len(advice) != 1 {
		t.Fatalf("advice = %+v", advice)
	}
	if advice[0].Operation != state.OpPrescreen || advice[0].Ready != 2 {
		t.Errorf("advice = %+v, want prescreen with 2 records", advice[0])
	}
}

func TestAdviseEmptyAndFinishedCollections(t *testing.T) {
	if advice := Advise(nil); len(advice) != 0 {
		t.Errorf("advice on empty collection = %+v", advice)
	}
	finished := collection(types.StatusRevSynthesized, types.StatusRevPrescreenExcluded)
	if advice := Advise(finished); len(advice) != 0 {
		t.Errorf("advice on finished collection = %+v", advice)
	}
}

func TestAdviseNeverSuggestsLoad(t *testing.T) {
	advice := Advise(collection(types.StatusMdRetrieved))
	for _, a := range advice {
		if a.Operation == state.OpLoad {
			t.Fatalf("load advised: %+v", advice)
		}
	}
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(&buf, collection(
		types.StatusMdImported, types.StatusMdImported, types.StatusMdProcessed,
	))
	out := buf.String()

	for _, want := range []string{
		"STATUS",
		"RECORDS",
		"md_imported                           2",
		"md_processed                          1",
		"total                                 3",
		"next operations:",
		"prep          2 record(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "md_prepared") {
		t.Errorf("empty states must be omitted:\n%s", out)
	}
}

func TestFormatTableEmptyCollection(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(&buf, nil)
	out := buf.String()

	if !strings.Contains(out, "total                                 0") {
		t.Errorf("missing zero total:\n%s", out)
	}
	if strings.Contains(out, "next operations:") {
		t.Errorf("no operations should be advised:\n%s", out)
	}
}
