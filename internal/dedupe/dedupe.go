// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe reports likely duplicate record pairs. Candidates are
// blocked by first-author surname, bounded by a year window, scored with the
// similarity blend, and listed with their per-field contributions. Merging
// remains a manual decision.
// Implements: prd008-dedupe (R1-R4);
//
//	docs/ARCHITECTURE § Dedupe.
package dedupe

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/review-engine/pkg/similarity"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Pair is a candidate duplicate at or above the decision threshold.
type Pair struct {
	IDA        string               `json:"id_a" yaml:"id_a"`
	IDB        string               `json:"id_b" yaml:"id_b"`
	Score      float64              `json:"score" yaml:"score"`
	SameSource bool                 `json:"same_source" yaml:"same_source"`
	Breakdown  similarity.Breakdown `json:"breakdown" yaml:"breakdown"`
}

// Find blocks the collection by first-author surname, scores pairs whose
// years lie within the window, and returns those at or above the threshold,
// highest score first (R1-R2). Pairs sharing no block are never compared;
// that trade is what keeps the candidate set quadratic only per block.
func Find(records []*types.Record, scorer *similarity.Scorer, threshold float64, yearWindow int) []Pair {
	blocks := make(map[string][]*types.Record)
	var keys []string
	for _, r := range records {
		key := blockKey(r)
		if _, ok := blocks[key]; !ok {
			keys = append(keys, key)
		}
		blocks[key] = append(blocks[key], r)
	}
	sort.Strings(keys)

	var pairs []Pair
	for _, key := range keys {
		block := blocks[key]
		for i := 0; i < len(block); i++ {
			for j := i + 1; j < len(block); j++ {
				a, b := block[i], block[j]
				if !withinYearWindow(a, b, yearWindow) {
					continue
				}
				breakdown := scorer.Explain(a, b)
				if breakdown.Total < threshold {
					continue
				}
				pairs = append(pairs, Pair{
					IDA:        a.ID,
					IDB:        b.ID,
					Score:      breakdown.Total,
					SameSource: shareSource(a, b),
					Breakdown:  breakdown,
				})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		if pairs[i].IDA != pairs[j].IDA {
			return pairs[i].IDA < pairs[j].IDA
		}
		return pairs[i].IDB < pairs[j].IDB
	})
	return pairs
}

// blockKey is the normalized first-author surname (R1.1). Records without
// an author share one block.
func blockKey(r *types.Record) string {
	if !r.FieldPresent(types.FieldAuthor) {
		return ""
	}
	first := r.Field(types.FieldAuthor)
	if idx := strings.Index(first, " and "); idx >= 0 {
		first = first[:idx]
	}
	surname, _, _ := strings.Cut(first, ",")
	return similarity.Normalize(surname)
}

// withinYearWindow permits pairs whose years differ by at most window.
// Unparseable or missing years never disqualify a pair.
func withinYearWindow(a, b *types.Record, window int) bool {
	ya, okA := recordYear(a)
	yb, okB := recordYear(b)
	if !okA || !okB {
		return true
	}
	diff := ya - yb
	if diff < 0 {
		diff = -diff
	}
	return diff <= window
}

func recordYear(r *types.Record) (int, bool) {
	if !r.FieldPresent(types.FieldYear) {
		return 0, false
	}
	year, err := strconv.Atoi(r.Field(types.FieldYear))
	if err != nil {
		return 0, false
	}
	return year, true
}

// shareSource reports whether two records trace back to the same search
// source file.
func shareSource(a, b *types.Record) bool {
	sources := make(map[string]bool)
	for _, o := range a.Origins {
		source, _, ok := strings.Cut(o, "/")
		if ok {
			sources[source] = true
		}
	}
	for _, o := range b.Origins {
		source, _, ok := strings.Cut(o, "/")
		if ok && sources[source] {
			return true
		}
	}
	return false
}

// FormatPairs writes the candidate listing with per-field contributions.
// The same-source policy decides whether shared-source pairs are dropped
// (prevent), flagged (warn), or listed plainly (apply) (R3-R4).
func FormatPairs(w io.Writer, pairs []Pair, policy types.SameSourcePolicy) int {
	shown := 0
	for _, p := range pairs {
		if p.SameSource && policy == types.SameSourcePrevent {
			continue
		}
		shown++
		flag := ""
		if p.SameSource && policy == types.SameSourceWarn {
			flag = "  [same source]"
		}
		fmt.Fprintf(w, "%.3f  %s ~ %s%s\n", p.Score, p.IDA, p.IDB, flag)
		for _, f := range p.Breakdown.Fields {
			if !f.Compared {
				continue
			}
			fmt.Fprintf(w, "       %-9s  %.3f  (weight %.2f)\n", f.Field, f.Similarity, f.Weight)
		}
	}
	if shown == 0 {
		fmt.Fprintln(w, "no duplicate candidates")
		return 0
	}
	fmt.Fprintf(w, "\n%d candidate pair(s)\n", shown)
	return shown
}
