// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prescreen applies the declared scope rules to processed records,
// splitting them into prescreen-included and prescreen-excluded.
// Implements: prd007-prescreen (R1);
//
//	docs/ARCHITECTURE § Prescreen.
package prescreen

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// defaultComplementaryKeywords match editorial and front-matter entries by
// exact lowercase title.
var defaultComplementaryKeywords = []string{
	"about the authors", "about our authors", "editorial", "editorial board",
	"call for papers", "title page", "front matter", "back matter",
	"table of contents", "copyright notice", "author index", "subject index",
	"issue information",
}

// rule inspects one record and returns an exclusion reason when it is out
// of scope.
type rule func(r *types.Record) (string, bool)

// Summary counts prescreen outcomes across a collection.
type Summary struct {
	Included int
	Excluded int
	Skipped  int
}

// Total returns the number of records seen.
func (s Summary) Total() int {
	return s.Included + s.Excluded + s.Skipped
}

// Apply runs the scope rules over the collection in place. Only records in
// md_processed are decided; everything else is skipped (R1.5). Excluded
// records move to rev_prescreen_excluded and keep their reasons in the
// prescreen_exclusion field; the rest move to rev_prescreen_included (R1.6).
func Apply(records []*types.Record, cfg types.PrescreenConfig, w io.Writer) Summary {
	rules := buildRules(cfg)

	var summary Summary
	for _, r := range records {
		if r.Status != types.StatusMdProcessed {
			summary.Skipped++
			continue
		}
		var reasons []string
		for _, rl := range rules {
			if reason, excluded := rl(r); excluded {
				reasons = append(reasons, reason)
			}
		}
		if len(reasons) > 0 {
			r.Status = types.StatusRevPrescreenExcluded
			r.SetField(types.FieldPrescreenExclusion, strings.Join(reasons, ";"))
			fmt.Fprintf(w, "excluded %s: %s\n", r.ID, strings.Join(reasons, "; "))
			summary.Excluded++
			continue
		}
		r.Status = types.StatusRevPrescreenIncluded
		fmt.Fprintf(w, "included %s\n", r.ID)
		summary.Included++
	}

	fmt.Fprintf(w, "\nincluded: %d, excluded: %d, skipped: %d\n",
		summary.Included, summary.Excluded, summary.Skipped)
	return summary
}

func buildRules(cfg types.PrescreenConfig) []rule {
	var rules []rule

	if len(cfg.EntryTypes) > 0 {
		allowed := make(map[string]bool, len(cfg.EntryTypes))
		for _, t := range cfg.EntryTypes {
			allowed[strings.ToLower(t)] = true
		}
		rules = append(rules, func(r *types.Record) (string, bool) {
			if allowed[strings.ToLower(r.EntryType)] {
				return "", false
			}
			return "entrytype not in scope", true
		})
	}

	if cfg.YearFrom > 0 {
		from := cfg.YearFrom
		rules = append(rules, func(r *types.Record) (string, bool) {
			year, ok := recordYear(r)
			if !ok || year >= from {
				return "", false
			}
			return fmt.Sprintf("published before %d", from), true
		})
	}

	if cfg.YearTo > 0 {
		to := cfg.YearTo
		rules = append(rules, func(r *types.Record) (string, bool) {
			year, ok := recordYear(r)
			if !ok || year <= to {
				return "", false
			}
			return fmt.Sprintf("published after %d", to), true
		})
	}

	if len(cfg.OutletInclude) > 0 {
		include := cfg.OutletInclude
		rules = append(rules, func(r *types.Record) (string, bool) {
			if matchesOutlet(r.Container(), include) {
				return "", false
			}
			return "outlet not in included set", true
		})
	}

	if len(cfg.OutletExclude) > 0 {
		exclude := cfg.OutletExclude
		rules = append(rules, func(r *types.Record) (string, bool) {
			if matchesOutlet(r.Container(), exclude) {
				return "outlet in excluded set", true
			}
			return "", false
		})
	}

	if cfg.ExcludeComplementary {
		keywords := cfg.ComplementaryKeywords
		if len(keywords) == 0 {
			keywords = defaultComplementaryKeywords
		}
		matches := make(map[string]bool, len(keywords))
		for _, k := range keywords {
			matches[strings.ToLower(k)] = true
		}
		rules = append(rules, func(r *types.Record) (string, bool) {
			if !r.FieldPresent(types.FieldTitle) {
				return "", false
			}
			if matches[strings.ToLower(strings.TrimSpace(r.Field(types.FieldTitle)))] {
				return "complementary material", true
			}
			return "", false
		})
	}

	return rules
}

// recordYear parses the year field; non-numeric years (e.g. forthcoming)
// fall outside the time scope rules.
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

func matchesOutlet(container string, outlets []string) bool {
	if container == "" {
		return false
	}
	for _, o := range outlets {
		if strings.EqualFold(container, o) {
			return true
		}
	}
	return false
}
