// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package status reports collection progress: record counts per lifecycle
// state and the operations that can run next.
// Implements: prd004-lifecycle (R4);
//
//	docs/ARCHITECTURE § Status.
package status

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/review-engine/internal/state"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Stats aggregates the collection by lifecycle state.
type Stats struct {
	Counts map[types.Status]int `json:"counts" yaml:"counts"`
	Total  int                  `json:"total" yaml:"total"`
}

// Collect tallies records per status.
func Collect(records []*types.Record) Stats {
	s := Stats{Counts: make(map[types.Status]int)}
	for _, r := range records {
		s.Counts[r.Status]++
		s.Total++
	}
	return s
}

// Advice names an operation that can run now and how many records it would
// consume.
type Advice struct {
	Operation state.Operation `json:"operation" yaml:"operation"`
	Ready     int             `json:"ready" yaml:"ready"`
}

// Advise lists operations whose source states hold records and whose
// preconditions pass, in pipeline order (R4.2). Load is always available
// and never advised.
func Advise(records []*types.Record) []Advice {
	stats := Collect(records)
	var advice []Advice
	for _, op := range state.Operations() {
		if op == state.OpLoad {
			continue
		}
		ready := 0
		for _, src := range state.OperationSources(op) {
			ready += stats.Counts[src]
		}
		if ready == 0 {
			continue
		}
		if err := state.CheckPrecondition(op, records); err != nil {
			continue
		}
		advice = append(advice, Advice{Operation: op, Ready: ready})
	}
	return advice
}

// FormatTable writes the per-state tally in pipeline order followed by the
// operations that can run next. States with no records are omitted.
func FormatTable(w io.Writer, records []*types.Record) {
	stats := Collect(records)
	fmt.Fprintf(w, "%-36s  %s\n", "STATUS", "RECORDS")
	fmt.Fprintln(w, strings.Repeat("-", 46))
	for _, st := range types.AllStatuses() {
		n := stats.Counts[st]
		if n == 0 {
			continue
		}
		fmt.Fprintf(w, "%-36s  %d\n", string(st), n)
	}
	fmt.Fprintln(w, strings.Repeat("-", 46))
	fmt.Fprintf(w, "%-36s  %d\n", "total", stats.Total)

	advice := Advise(records)
	if len(advice) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "next operations:")
	for _, a := range advice {
		fmt.Fprintf(w, "  %-12s  %d record(s)\n", string(a.Operation), a.Ready)
	}
}
