// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package check

import (
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/review-engine/internal/state"
	"github.com/pdiddy/review-engine/pkg/types"
)

// --- test helpers ---

func rec(id string, status types.Status, origins ...string) *types.Record {
	return &types.Record{
		ID:        id,
		EntryType: "article",
		Status:    status,
		Origins:   origins,
		Fields:    map[string]string{},
	}
}

func passingInput() Input {
	return Input{
		Current: []*types.Record{
			rec("Smith2020", types.StatusMdImported, "dblp.bib/0001"),
			rec("Doe2021", types.StatusMdImported, "dblp.bib/0002"),
		},
		Sources: []types.Source{{Name: "dblp", Filename: "dblp.bib"}},
	}
}

// run executes the battery non-strict and fails the test on an error.
func run(t *testing.T, in Input) Result {
	t.Helper()
	result, err := Run(in, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result
}

// failuresOf filters the result down to one kind.
func failuresOf(result Result, kind FailureKind) []Failure {
	var out []Failure
	for _, f := range result.Failures {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func TestRunPassesCleanCollection(t *testing.T) {
	result := run(t, passingInput())
	if result.Status != StatusPass {
		t.Errorf("status = %s, want PASS: %v", result.Status, result.Failures)
	}
	if result.Checks != 5 {
		t.Errorf("Checks = %d, want 5 without a prior snapshot", result.Checks)
	}
	if len(result.Failures) != 0 {
		t.Errorf("failures = %v, want none", result.Failures)
	}
}

func TestHistoryChecksNeedPriorSnapshot(t *testing.T) {
	in := passingInput()
	in.Prior = []*types.Record{rec("Smith2020", types.StatusMdImported, "dblp.bib/0001")}
	result := run(t, in)
	if result.Checks != 7 {
		t.Errorf("Checks = %d, want 7 with a prior snapshot", result.Checks)
	}
	if result.Status != StatusPass {
		t.Errorf("status = %s, want PASS: %v", result.Status, result.Failures)
	}
}

func TestCheckSources(t *testing.T) {
	in := passingInput()
	in.Sources = []types.Source{
		{Name: "dblp", Filename: "dblp.bib"},
		{Name: "blank", Filename: "   "},
		{Name: "again", Filename: "dblp.bib"},
	}
	result := run(t, in)

	failures := failuresOf(result, KindSourceError)
	if len(failures) != 2 {
		t.Fatalf("source failures = %v, want 2", failures)
	}
	if !strings.Contains(failures[0].Message, "source 2: empty filename") {
		t.Errorf("failure[0] = %q", failures[0].Message)
	}
	if !strings.Contains(failures[1].Message, `"dblp.bib" declared twice`) {
		t.Errorf("failure[1] = %q", failures[1].Message)
	}
}

func TestCheckDuplicateIDs(t *testing.T) {
	in := passingInput()
	in.Current = append(in.Current, rec("Smith2020", types.StatusMdImported, "dblp.bib/0003"))
	result := run(t, in)

	failures := failuresOf(result, KindDuplicateID)
	if len(failures) != 1 {
		t.Fatalf("duplicate-id failures = %v, want 1", failures)
	}
	want := "record ID Smith2020 appears 2 times"
	if failures[0].Message != want {
		t.Errorf("message = %q, want %q", failures[0].Message, want)
	}
}

func TestCheckOrigins(t *testing.T) {
	tests := []struct {
		name    string
		record  *types.Record
		message string
	}{
		{
			"no origin",
			rec("Orphan2020", types.StatusMdImported),
			"record Orphan2020 has no origin",
		},
		{
			"malformed origin",
			rec("Flat2020", types.StatusMdImported, "dblp.bib"),
			`origin "dblp.bib" not in <source>/<entry> form`,
		},
		{
			"undeclared source",
			rec("Stray2020", types.StatusMdImported, "scopus.bib/0009"),
			`references undeclared source "scopus.bib"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := passingInput()
			in.Current = append(in.Current, tt.record)
			result := run(t, in)

			failures := failuresOf(result, KindOriginError)
			if len(failures) != 1 {
				t.Fatalf("origin failures = %v, want 1", failures)
			}
			if !strings.Contains(failures[0].Message, tt.message) {
				t.Errorf("message = %q, want substring %q", failures[0].Message, tt.message)
			}
		})
	}
}

func TestCheckOriginsSharedOrigin(t *testing.T) {
	in := passingInput()
	in.Current[1].Origins = []string{"dblp.bib/0001"}
	result := run(t, in)

	failures := failuresOf(result, KindOriginError)
	if len(failures) != 1 {
		t.Fatalf("origin failures = %v, want 1", failures)
	}
	want := `origin "dblp.bib/0001" claimed by records Smith2020 and Doe2021`
	if failures[0].Message != want {
		t.Errorf("message = %q, want %q", failures[0].Message, want)
	}
	if len(failures[0].IDs) != 2 {
		t.Errorf("IDs = %v, want both claimants", failures[0].IDs)
	}
}

func TestCheckFieldProvenance(t *testing.T) {
	in := passingInput()

	// Absence excused as missing or not-missing is legal.
	in.Current[0].SetProvenance("volume", "quality-model", types.NoteMissing)
	in.Current[0].SetProvenance("number", "manual", types.NoteNotMissing)

	// A defect note on an absent field and an unknown token are not.
	in.Current[1].SetProvenance("author", "quality-model", "mostly-all-caps")
	in.Current[1].SetProvenance("title", "quality-model", "made-up-code")
	in.Current[1].SetField("title", "On Testing")

	result := run(t, in)
	failures := failuresOf(result, KindFieldError)
	if len(failures) != 2 {
		t.Fatalf("field failures = %v, want 2", failures)
	}
	if !strings.Contains(failures[0].Message, "provenance entry for absent field author") {
		t.Errorf("failure[0] = %q", failures[0].Message)
	}
	if !strings.Contains(failures[1].Message, `unknown defect code "made-up-code" on field title`) {
		t.Errorf("failure[1] = %q", failures[1].Message)
	}
}

func TestCheckPersistedIDs(t *testing.T) {
	prior := rec("Old2020", types.StatusRevIncluded, "dblp.bib/0001")

	t.Run("unlogged rename of propagated record", func(t *testing.T) {
		in := passingInput()
		in.Prior = []*types.Record{prior}
		in.Current[0].ID = "New2020"
		in.Current[0].Status = types.StatusRevIncluded
		result := run(t, in)

		failures := failuresOf(result, KindPropagatedID)
		if len(failures) != 1 {
			t.Fatalf("propagated-id failures = %v, want 1", failures)
		}
		f := failures[0]
		if f.OldID != "Old2020" || f.NewID != "New2020" {
			t.Errorf("rename = %s -> %s, want Old2020 -> New2020", f.OldID, f.NewID)
		}
	})

	t.Run("logged rename is exempt", func(t *testing.T) {
		in := passingInput()
		in.Prior = []*types.Record{prior}
		in.Current[0].ID = "New2020"
		in.Current[0].Status = types.StatusRevIncluded
		in.Renames = []types.IDRename{{OldID: "Old2020", NewID: "New2020"}}
		result := run(t, in)

		if failures := failuresOf(result, KindPropagatedID); len(failures) != 0 {
			t.Errorf("propagated-id failures = %v, want none", failures)
		}
	})

	t.Run("pre-processed records may be renamed freely", func(t *testing.T) {
		in := passingInput()
		in.Prior = []*types.Record{rec("Old2020", types.StatusMdPrepared, "dblp.bib/0001")}
		in.Current[0].ID = "New2020"
		result := run(t, in)

		if failures := failuresOf(result, KindPropagatedID); len(failures) != 0 {
			t.Errorf("propagated-id failures = %v, want none", failures)
		}
	})
}

func TestCheckStatusTransitions(t *testing.T) {
	tests := []struct {
		name      string
		prior     types.Status
		current   types.Status
		overrides []types.StatusOverride
		want      int
	}{
		{"single edge", types.StatusMdImported, types.StatusMdPrepared, nil, 0},
		{"unchanged", types.StatusMdImported, types.StatusMdImported, nil, 0},
		{"skipped stage", types.StatusMdImported, types.StatusRevIncluded, nil, 1},
		{"backwards", types.StatusMdProcessed, types.StatusMdImported, nil, 1},
		{
			"overridden skip", types.StatusMdImported, types.StatusRevIncluded,
			[]types.StatusOverride{{
				RecordID: "Smith2020",
				From:     types.StatusMdImported,
				To:       types.StatusRevIncluded,
			}},
			0,
		},
		{
			"override for another record does not excuse", types.StatusMdImported, types.StatusRevIncluded,
			[]types.StatusOverride{{
				RecordID: "Doe2021",
				From:     types.StatusMdImported,
				To:       types.StatusRevIncluded,
			}},
			1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := passingInput()
			in.Prior = []*types.Record{rec("Smith2020", tt.prior, "dblp.bib/0001")}
			in.Current[0].Status = tt.current
			in.Overrides = tt.overrides
			result := run(t, in)

			failures := failuresOf(result, KindTransitionError)
			if len(failures) != tt.want {
				t.Fatalf("transition failures = %v, want %d", failures, tt.want)
			}
			if tt.want == 1 {
				f := failures[0]
				if f.From != tt.prior || f.To != tt.current {
					t.Errorf("failure carries %s -> %s, want %s -> %s", f.From, f.To, tt.prior, tt.current)
				}
			}
		})
	}
}

func TestCheckScreen(t *testing.T) {
	criteria := map[string]types.ScreenCriterion{
		"out_of_scope": {Explanation: "Not about digital work", Type: types.CriterionExclusion},
	}
	tests := []struct {
		name     string
		status   types.Status
		cited    string
		failures int
		message  string
	}{
		{"excluded citing declared criterion", types.StatusRevExcluded, "out_of_scope", 0, ""},
		{"excluded citing decision form", types.StatusRevExcluded, "out_of_scope=out", 0, ""},
		{
			"excluded without citation", types.StatusRevExcluded, "", 1,
			"excluded in screen without citing a criterion",
		},
		{
			"excluded citing undeclared criterion", types.StatusRevExcluded, "wrong_method", 1,
			`cites undeclared screen criterion "wrong_method"`,
		},
		{
			"included citing criteria", types.StatusRevIncluded, "out_of_scope", 1,
			"included in screen but cites criteria",
		},
		{
			"synthesized citing criteria", types.StatusRevSynthesized, "out_of_scope", 1,
			"included in screen but cites criteria",
		},
		{"included clean", types.StatusRevIncluded, "", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := passingInput()
			in.Criteria = criteria
			in.Current[0].Status = tt.status
			if tt.cited != "" {
				in.Current[0].SetField(types.FieldScreeningCriteria, tt.cited)
			}
			result := run(t, in)

			failures := failuresOf(result, KindScreenError)
			if len(failures) != tt.failures {
				t.Fatalf("screen failures = %v, want %d", failures, tt.failures)
			}
			if tt.failures == 1 && !strings.Contains(failures[0].Message, tt.message) {
				t.Errorf("message = %q, want substring %q", failures[0].Message, tt.message)
			}
		})
	}
}

func TestStrictModeReturnsTransitionError(t *testing.T) {
	in := passingInput()
	in.Prior = []*types.Record{rec("Smith2020", types.StatusMdImported, "dblp.bib/0001")}
	in.Current[0].Status = types.StatusRevIncluded

	result, err := Run(in, Options{Strict: true})
	var te *state.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("Run strict = %v, want *state.TransitionError", err)
	}
	if te.ID != "Smith2020" || te.From != types.StatusMdImported || te.To != types.StatusRevIncluded {
		t.Errorf("error = %+v", te)
	}
	// The result still carries the full report.
	if result.Status != StatusFail || len(result.Failures) == 0 {
		t.Errorf("strict run lost its report: %+v", result)
	}
}

func TestFailuresReportedInBatteryOrderThenByID(t *testing.T) {
	in := passingInput()
	// One failure each in sources, duplicate-ids, and origins, plus two
	// origin failures on distinct records to exercise the ID sort.
	in.Sources = append(in.Sources, types.Source{Filename: "dblp.bib"})
	in.Current = append(in.Current,
		rec("Doe2021", types.StatusMdImported, "dblp.bib/0004"),
		rec("Zed2022", types.StatusMdImported, "web.bib/0001"),
		rec("Abel2019", types.StatusMdImported, "web.bib/0002"),
	)
	result := run(t, in)

	if result.Status != StatusFail {
		t.Fatal("expected FAIL")
	}
	var kinds []FailureKind
	for _, f := range result.Failures {
		kinds = append(kinds, f.Kind)
	}
	want := []FailureKind{KindSourceError, KindDuplicateID, KindOriginError, KindOriginError}
	if len(kinds) != len(want) {
		t.Fatalf("failures = %v, want kinds %v", result.Failures, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", kinds, want)
		}
	}
	if got := result.Failures[2].IDs[0]; got != "Abel2019" {
		t.Errorf("origin failures not sorted by ID: first is %s", got)
	}
}

func TestChecksDoNotMutateInput(t *testing.T) {
	in := passingInput()
	in.Current[0].SetProvenance("volume", "quality-model", types.NoteMissing)
	in.Prior = []*types.Record{rec("Smith2020", types.StatusMdImported, "dblp.bib/0001")}

	before := in.Current[0].Clone()
	run(t, in)

	after := in.Current[0]
	if after.ID != before.ID || after.Status != before.Status {
		t.Error("record identity mutated")
	}
	if len(after.Fields) != len(before.Fields) || len(after.Provenance) != len(before.Provenance) {
		t.Error("record contents mutated")
	}
}
