// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state implements the record lifecycle: the fixed transition table,
// the operations that drive records along it, and the precondition checks
// operations run before acting on a collection.
//
// Implements: prd004-lifecycle (R1-R3);
//
//	docs/ARCHITECTURE § Lifecycle.
package state

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Operation identifies one pipeline work step. Every status change belongs
// to exactly one operation.
type Operation string

const (
	OpLoad       Operation = "load"
	OpPrep       Operation = "prep"
	OpPrepMan    Operation = "prep_man"
	OpDedupe     Operation = "dedupe"
	OpDedupeMan  Operation = "dedupe_man"
	OpPrescreen  Operation = "prescreen"
	OpPDFGet     Operation = "pdf_get"
	OpPDFGetMan  Operation = "pdf_get_man"
	OpPDFPrep    Operation = "pdf_prep"
	OpPDFPrepMan Operation = "pdf_prep_man"
	OpScreen     Operation = "screen"
	OpData       Operation = "data"
)

// Operations returns the operation vocabulary in pipeline order.
func Operations() []Operation {
	return []Operation{
		OpLoad, OpPrep, OpPrepMan, OpDedupe, OpDedupeMan, OpPrescreen,
		OpPDFGet, OpPDFGetMan, OpPDFPrep, OpPDFPrepMan, OpScreen, OpData,
	}
}

// Transition is one edge of the lifecycle graph.
type Transition struct {
	Operation Operation
	From      types.Status
	To        types.Status
}

// transitions is the fixed adjacency table. States without outgoing edges
// (rev_synthesized, rev_prescreen_excluded, pdf_not_available, rev_excluded)
// are terminal (R1.2, R2.1).
var transitions = []Transition{
	{OpLoad, types.StatusMdRetrieved, types.StatusMdImported},
	{OpPrep, types.StatusMdImported, types.StatusMdPrepared},
	{OpPrep, types.StatusMdImported, types.StatusMdNeedsManualPreparation},
	{OpPrepMan, types.StatusMdNeedsManualPreparation, types.StatusMdPrepared},
	{OpDedupe, types.StatusMdPrepared, types.StatusMdProcessed},
	{OpDedupe, types.StatusMdPrepared, types.StatusMdNeedsManualDedupe},
	{OpDedupeMan, types.StatusMdNeedsManualDedupe, types.StatusMdProcessed},
	{OpPrescreen, types.StatusMdProcessed, types.StatusRevPrescreenExcluded},
	{OpPrescreen, types.StatusMdProcessed, types.StatusRevPrescreenIncluded},
	{OpPDFGet, types.StatusRevPrescreenIncluded, types.StatusPdfImported},
	{OpPDFGet, types.StatusRevPrescreenIncluded, types.StatusPdfNeedsManualRetrieval},
	{OpPDFGetMan, types.StatusPdfNeedsManualRetrieval, types.StatusPdfImported},
	{OpPDFGetMan, types.StatusPdfNeedsManualRetrieval, types.StatusPdfNotAvailable},
	{OpPDFPrep, types.StatusPdfImported, types.StatusPdfPrepared},
	{OpPDFPrep, types.StatusPdfImported, types.StatusPdfNeedsManualPrep},
	{OpPDFPrepMan, types.StatusPdfNeedsManualPrep, types.StatusPdfPrepared},
	{OpScreen, types.StatusPdfPrepared, types.StatusRevIncluded},
	{OpScreen, types.StatusPdfPrepared, types.StatusRevExcluded},
	{OpData, types.StatusRevIncluded, types.StatusRevSynthesized},
}

// Transitions returns a copy of the adjacency table.
func Transitions() []Transition {
	return append([]Transition(nil), transitions...)
}

// IsValidTransition reports whether from -> to is a single edge of the
// lifecycle graph.
func IsValidTransition(from, to types.Status) bool {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// AllowedNext returns the states reachable from a status in one step, in
// table order.
func AllowedNext(from types.Status) []types.Status {
	var next []types.Status
	for _, t := range transitions {
		if t.From == from {
			next = append(next, t.To)
		}
	}
	return next
}

// IsTerminal reports whether a status has no outgoing edges.
func IsTerminal(s types.Status) bool {
	return len(AllowedNext(s)) == 0
}

// TransitionOperation returns the operation owning the from -> to edge.
func TransitionOperation(from, to types.Status) (Operation, bool) {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return t.Operation, true
		}
	}
	return "", false
}

// OperationSources returns the states an operation consumes.
func OperationSources(op Operation) []types.Status {
	var sources []types.Status
	seen := make(map[types.Status]bool)
	for _, t := range transitions {
		if t.Operation == op && !seen[t.From] {
			seen[t.From] = true
			sources = append(sources, t.From)
		}
	}
	return sources
}

// PrecedingStates returns every state from which the given state is
// reachable, computed as a fixed point over the reversed edges. The state
// itself is not included.
func PrecedingStates(s types.Status) map[types.Status]bool {
	preceding := make(map[types.Status]bool)
	for added := true; added; {
		added = false
		for _, t := range transitions {
			if (t.To == s || preceding[t.To]) && !preceding[t.From] {
				preceding[t.From] = true
				added = true
			}
		}
	}
	return preceding
}

// RequestKind tags how a status change was initiated. Manual overrides are
// an explicit variant, not a flag: they always carry a reason and are logged
// by the caller (R2.4).
type RequestKind string

const (
	Automatic      RequestKind = "automatic"
	ManualOverride RequestKind = "manual-override"
)

// Request asks the state machine to validate one status change.
type Request struct {
	RecordID string
	From     types.Status
	To       types.Status
	Kind     RequestKind
	Reason   string
}

// TransitionError reports a status change with no edge in the table.
type TransitionError struct {
	ID   string
	From types.Status
	To   types.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("record %s: invalid status transition %s -> %s", e.ID, e.From, e.To)
}

// Validate returns nil when the request may proceed. Automatic requests must
// match an edge; manual overrides pass any change but must carry a reason.
// Keeping the same status is always allowed.
func Validate(req Request) error {
	if !req.From.Valid() {
		return fmt.Errorf("record %s: unknown status %q", req.RecordID, string(req.From))
	}
	if !req.To.Valid() {
		return fmt.Errorf("record %s: unknown status %q", req.RecordID, string(req.To))
	}
	switch req.Kind {
	case ManualOverride:
		if req.Reason == "" {
			return fmt.Errorf("record %s: manual override requires a reason", req.RecordID)
		}
		return nil
	case Automatic, "":
		if req.From == req.To {
			return nil
		}
		if IsValidTransition(req.From, req.To) {
			return nil
		}
		return &TransitionError{ID: req.RecordID, From: req.From, To: req.To}
	default:
		return fmt.Errorf("record %s: unknown request kind %q", req.RecordID, string(req.Kind))
	}
}

// ErrNoRecords is returned when an operation other than load runs over an
// empty collection.
var ErrNoRecords = fmt.Errorf("no records in collection")

// PreconditionError reports records sitting in states that precede an
// operation's source state. The operation must wait for the earlier stages
// to finish.
type PreconditionError struct {
	Operation Operation
	Blocking  []types.Status
}

func (e *PreconditionError) Error() string {
	names := make([]string, len(e.Blocking))
	for i, s := range e.Blocking {
		names[i] = string(s)
	}
	return fmt.Sprintf("operation %s blocked: records in preceding states [%s]",
		e.Operation, strings.Join(names, ", "))
}

var statusOrder = func() map[types.Status]int {
	order := make(map[types.Status]int)
	for i, s := range types.AllStatuses() {
		order[s] = i
	}
	return order
}()

// CheckPrecondition verifies that an operation can run over the collection:
// no record may remain in a state preceding the operation's source state
// (R3.2). Load is exempt; it is the entry operation.
func CheckPrecondition(op Operation, records []*types.Record) error {
	sources := OperationSources(op)
	if len(sources) == 0 {
		return fmt.Errorf("unknown operation %q", string(op))
	}
	if len(records) == 0 {
		if op == OpLoad {
			return nil
		}
		return ErrNoRecords
	}
	if op == OpLoad {
		return nil
	}
	required := PrecedingStates(sources[0])
	seen := make(map[types.Status]bool)
	var blocking []types.Status
	for _, r := range records {
		if required[r.Status] && !seen[r.Status] {
			seen[r.Status] = true
			blocking = append(blocking, r.Status)
		}
	}
	if len(blocking) == 0 {
		return nil
	}
	sort.Slice(blocking, func(i, j int) bool {
		return statusOrder[blocking[i]] < statusOrder[blocking[j]]
	})
	return &PreconditionError{Operation: op, Blocking: blocking}
}
