// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package check implements the consistency battery run over the working
// snapshot before it is committed: source declarations, record identity,
// origins, field provenance, status transitions, and screen invariants.
// Checks are independent and read-only; every violation is reported, not
// just the first.
//
// Implements: prd005-consistency (R1-R2);
//
//	docs/ARCHITECTURE § Consistency Checks.
package check

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/review-engine/internal/state"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Input bundles everything one battery run inspects. Snapshots are record
// lists, not maps, so duplicate IDs stay observable.
type Input struct {
	Prior     []*types.Record
	Current   []*types.Record
	Sources   []types.Source
	Criteria  map[string]types.ScreenCriterion
	Overrides []types.StatusOverride
	Renames   []types.IDRename
}

// FailureKind names the invariant family a failure belongs to.
type FailureKind string

const (
	KindSourceError     FailureKind = "source-error"
	KindDuplicateID     FailureKind = "duplicate-id"
	KindPropagatedID    FailureKind = "propagated-id-change"
	KindOriginError     FailureKind = "origin-error"
	KindFieldError      FailureKind = "field-error"
	KindTransitionError FailureKind = "status-transition-error"
	KindScreenError     FailureKind = "screen-error"
)

// Failure describes one violated invariant. From/To and OldID/NewID carry
// the structured detail for transition and identity failures so callers can
// act on them without parsing messages.
type Failure struct {
	Kind    FailureKind  `json:"kind" yaml:"kind"`
	IDs     []string     `json:"record_ids,omitempty" yaml:"record_ids,omitempty"`
	Message string       `json:"message" yaml:"message"`
	From    types.Status `json:"from,omitempty" yaml:"from,omitempty"`
	To      types.Status `json:"to,omitempty" yaml:"to,omitempty"`
	OldID   string       `json:"old_id,omitempty" yaml:"old_id,omitempty"`
	NewID   string       `json:"new_id,omitempty" yaml:"new_id,omitempty"`
}

// ResultStatus is the overall verdict of a battery run.
type ResultStatus string

const (
	StatusPass ResultStatus = "PASS"
	StatusFail ResultStatus = "FAIL"
)

// Result aggregates the outcome of a battery run.
type Result struct {
	Status   ResultStatus `json:"status" yaml:"status"`
	Checks   int          `json:"checks" yaml:"checks"`
	Failures []Failure    `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Options tune a battery run.
type Options struct {
	// Strict aborts the run with a *state.TransitionError on the first
	// invalid status transition instead of merely accumulating it.
	Strict bool
}

// battery lists the checks in reporting order. History checks need a prior
// snapshot and are skipped on the first run.
var battery = []struct {
	name    string
	history bool
	fn      func(Input) []Failure
}{
	{"sources", false, checkSources},
	{"duplicate-ids", false, checkDuplicateIDs},
	{"persisted-ids", true, checkPersistedIDs},
	{"origins", false, checkOrigins},
	{"field-provenance", false, checkFieldProvenance},
	{"status-transitions", true, checkStatusTransitions},
	{"screen", false, checkScreen},
}

// Run executes the battery. Checks run concurrently and never mutate their
// input; failures accumulate across all of them and are reported in battery
// order, then by record ID (R1.2-R1.4, R1.6).
func Run(in Input, opts Options) (Result, error) {
	type indexed struct {
		check    int
		failures []Failure
	}

	var (
		mu        sync.Mutex
		collected []indexed
	)

	var wg sync.WaitGroup
	ran := 0
	for i, c := range battery {
		if c.history && len(in.Prior) == 0 {
			continue
		}
		ran++
		wg.Add(1)
		go func(idx int, fn func(Input) []Failure) {
			defer wg.Done()
			failures := fn(in)
			if len(failures) == 0 {
				return
			}
			mu.Lock()
			collected = append(collected, indexed{check: idx, failures: failures})
			mu.Unlock()
		}(i, c.fn)
	}
	wg.Wait()

	sort.Slice(collected, func(i, j int) bool { return collected[i].check < collected[j].check })
	var failures []Failure
	for _, c := range collected {
		sortFailures(c.failures)
		failures = append(failures, c.failures...)
	}

	result := Result{Status: StatusPass, Checks: ran}
	if len(failures) > 0 {
		result.Status = StatusFail
		result.Failures = failures
	}
	if opts.Strict {
		for _, f := range failures {
			if f.Kind == KindTransitionError && len(f.IDs) > 0 {
				return result, &state.TransitionError{ID: f.IDs[0], From: f.From, To: f.To}
			}
		}
	}
	return result, nil
}

func sortFailures(fs []Failure) {
	sort.Slice(fs, func(i, j int) bool {
		a, b := firstID(fs[i]), firstID(fs[j])
		if a != b {
			return a < b
		}
		return fs[i].Message < fs[j].Message
	})
}

func firstID(f Failure) string {
	if len(f.IDs) == 0 {
		return ""
	}
	return f.IDs[0]
}

// checkSources verifies the declared search sources: every source names a
// result file, and no file is claimed twice (R2.1).
func checkSources(in Input) []Failure {
	var failures []Failure
	seen := make(map[string]bool)
	for i, src := range in.Sources {
		if strings.TrimSpace(src.Filename) == "" {
			failures = append(failures, Failure{
				Kind:    KindSourceError,
				Message: fmt.Sprintf("source %d: empty filename", i+1),
			})
			continue
		}
		if seen[src.Filename] {
			failures = append(failures, Failure{
				Kind:    KindSourceError,
				Message: fmt.Sprintf("source filename %q declared twice", src.Filename),
			})
			continue
		}
		seen[src.Filename] = true
	}
	return failures
}

// checkDuplicateIDs reports record IDs appearing more than once (R2.2).
func checkDuplicateIDs(in Input) []Failure {
	counts := make(map[string]int)
	var order []string
	for _, r := range in.Current {
		if counts[r.ID] == 0 {
			order = append(order, r.ID)
		}
		counts[r.ID]++
	}
	var failures []Failure
	for _, id := range order {
		if counts[id] > 1 {
			failures = append(failures, Failure{
				Kind:    KindDuplicateID,
				IDs:     []string{id},
				Message: fmt.Sprintf("record ID %s appears %d times", id, counts[id]),
			})
		}
	}
	return failures
}

// propagated reports whether a record's state binds its ID: from
// md_processed on, external artifacts may reference it.
func propagated(s types.Status) bool {
	switch s {
	case types.StatusMdRetrieved, types.StatusMdImported,
		types.StatusMdNeedsManualPreparation, types.StatusMdPrepared,
		types.StatusMdNeedsManualDedupe:
		return false
	}
	return true
}

// checkPersistedIDs matches records across snapshots by origin and reports
// ID changes on propagated records that lack a logged rename (R2.3).
func checkPersistedIDs(in Input) []Failure {
	renamed := make(map[string]string)
	for _, ren := range in.Renames {
		renamed[ren.OldID] = ren.NewID
	}
	priorByOrigin := make(map[string]*types.Record)
	for _, r := range in.Prior {
		for _, o := range r.Origins {
			priorByOrigin[o] = r
		}
	}
	var failures []Failure
	reported := make(map[string]bool)
	for _, cur := range in.Current {
		for _, o := range cur.Origins {
			prev, ok := priorByOrigin[o]
			if !ok || prev.ID == cur.ID || !propagated(prev.Status) {
				continue
			}
			if renamed[prev.ID] == cur.ID {
				continue
			}
			key := prev.ID + "\x00" + cur.ID
			if reported[key] {
				continue
			}
			reported[key] = true
			failures = append(failures, Failure{
				Kind:    KindPropagatedID,
				IDs:     []string{prev.ID, cur.ID},
				OldID:   prev.ID,
				NewID:   cur.ID,
				Message: fmt.Sprintf("propagated record %s renamed to %s without a logged rename", prev.ID, cur.ID),
			})
		}
	}
	return failures
}

// checkOrigins verifies that every record traces back to declared sources:
// a non-empty origin list, origins in <source>/<entry> form resolving to a
// declared source file, and no origin claimed by two records (R2.4).
func checkOrigins(in Input) []Failure {
	declared := make(map[string]bool)
	for _, src := range in.Sources {
		if src.Filename != "" {
			declared[src.Filename] = true
		}
	}
	var failures []Failure
	seen := make(map[string]string)
	for _, r := range in.Current {
		if len(r.Origins) == 0 {
			failures = append(failures, Failure{
				Kind:    KindOriginError,
				IDs:     []string{r.ID},
				Message: fmt.Sprintf("record %s has no origin", r.ID),
			})
			continue
		}
		for _, origin := range r.Origins {
			source, entry, ok := strings.Cut(origin, "/")
			if !ok || source == "" || entry == "" {
				failures = append(failures, Failure{
					Kind:    KindOriginError,
					IDs:     []string{r.ID},
					Message: fmt.Sprintf("record %s: origin %q not in <source>/<entry> form", r.ID, origin),
				})
				continue
			}
			if !declared[source] {
				failures = append(failures, Failure{
					Kind:    KindOriginError,
					IDs:     []string{r.ID},
					Message: fmt.Sprintf("record %s: origin %q references undeclared source %q", r.ID, origin, source),
				})
			}
			if prevID, dup := seen[origin]; dup && prevID != r.ID {
				failures = append(failures, Failure{
					Kind:    KindOriginError,
					IDs:     []string{prevID, r.ID},
					Message: fmt.Sprintf("origin %q claimed by records %s and %s", origin, prevID, r.ID),
				})
			} else {
				seen[origin] = r.ID
			}
		}
	}
	return failures
}

// checkFieldProvenance verifies that provenance entries describe the record:
// entries for absent fields must be excused as missing, and every note token
// must be in the defect vocabulary (R2.5).
func checkFieldProvenance(in Input) []Failure {
	var failures []Failure
	for _, r := range in.Current {
		fields := make([]string, 0, len(r.Provenance))
		for field := range r.Provenance {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			note := r.Provenance[field].Note
			_, present := r.Fields[field]
			// "not-missing" contains "missing"; both excuse absence.
			if !present && !strings.Contains(note, types.NoteMissing) {
				failures = append(failures, Failure{
					Kind:    KindFieldError,
					IDs:     []string{r.ID},
					Message: fmt.Sprintf("record %s: provenance entry for absent field %s", r.ID, field),
				})
			}
			for _, token := range strings.Split(note, ",") {
				token = strings.TrimSpace(token)
				if token == "" {
					continue
				}
				if !types.KnownNoteToken(token) {
					failures = append(failures, Failure{
						Kind:    KindFieldError,
						IDs:     []string{r.ID},
						Message: fmt.Sprintf("record %s: unknown defect code %q on field %s", r.ID, token, field),
					})
				}
			}
		}
	}
	return failures
}

// checkStatusTransitions matches records across snapshots by ID and requires
// every status change to be a single edge of the lifecycle graph, unless an
// override was logged for exactly that change (R2.6).
func checkStatusTransitions(in Input) []Failure {
	overridden := make(map[string]bool)
	for _, o := range in.Overrides {
		overridden[overrideKey(o.RecordID, o.From, o.To)] = true
	}
	priorByID := make(map[string]*types.Record, len(in.Prior))
	for _, r := range in.Prior {
		priorByID[r.ID] = r
	}
	var failures []Failure
	for _, cur := range in.Current {
		prev, ok := priorByID[cur.ID]
		if !ok || prev.Status == cur.Status {
			continue
		}
		if state.IsValidTransition(prev.Status, cur.Status) {
			continue
		}
		if overridden[overrideKey(cur.ID, prev.Status, cur.Status)] {
			continue
		}
		failures = append(failures, Failure{
			Kind:    KindTransitionError,
			IDs:     []string{cur.ID},
			From:    prev.Status,
			To:      cur.Status,
			Message: fmt.Sprintf("record %s: invalid status transition %s -> %s", cur.ID, prev.Status, cur.Status),
		})
	}
	return failures
}

func overrideKey(id string, from, to types.Status) string {
	return id + "\x00" + string(from) + "\x00" + string(to)
}

// checkScreen enforces the screen invariants: excluded records cite at least
// one declared criterion, included and synthesized records cite none (R2.7).
func checkScreen(in Input) []Failure {
	var failures []Failure
	for _, r := range in.Current {
		cited := citedCriteria(r.Field(types.FieldScreeningCriteria))
		switch r.Status {
		case types.StatusRevExcluded:
			if len(cited) == 0 {
				failures = append(failures, Failure{
					Kind:    KindScreenError,
					IDs:     []string{r.ID},
					Message: fmt.Sprintf("record %s: excluded in screen without citing a criterion", r.ID),
				})
				continue
			}
			for _, name := range cited {
				if _, ok := in.Criteria[name]; !ok {
					failures = append(failures, Failure{
						Kind:    KindScreenError,
						IDs:     []string{r.ID},
						Message: fmt.Sprintf("record %s: cites undeclared screen criterion %q", r.ID, name),
					})
				}
			}
		case types.StatusRevIncluded, types.StatusRevSynthesized:
			if len(cited) > 0 {
				failures = append(failures, Failure{
					Kind:    KindScreenError,
					IDs:     []string{r.ID},
					Message: fmt.Sprintf("record %s: included in screen but cites criteria", r.ID),
				})
			}
		}
	}
	return failures
}

// citedCriteria parses "name;name" citations, tolerating the
// "name=decision" form some tools write.
func citedCriteria(value string) []string {
	if value == "" || value == types.ValueUnknown {
		return nil
	}
	var names []string
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, _, _ := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
