// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality implements the field rule library and the quality model
// that annotates bibliographic records with defect codes. Rules never change
// field values; their only output is the record's provenance notes, which
// downstream operations read to gate preparation.
//
// Implements: prd002-quality (R1-R7);
//
//	docs/ARCHITECTURE § Quality Model.
package quality

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/pdiddy/review-engine/pkg/types"
)

// provenanceSource tags provenance entries created by the quality model.
const provenanceSource = "quality-model"

// checker inspects one quality concern and maintains the defect codes it
// owns in the record's provenance: adding them when the condition holds and
// removing them when it no longer does, so evaluation is idempotent (R1.3).
type checker interface {
	run(r *types.Record)
}

// Model applies the field rule library to records.
type Model struct {
	cfg      types.QualityConfig
	checkers []checker
	ignored  map[string]bool
}

// New assembles the rule registry in its fixed evaluation order. Zero config
// values fall back to the defaults.
func New(cfg types.QualityConfig) *Model {
	if cfg.CapsRatio <= 0 {
		cfg.CapsRatio = 0.8
	}
	if cfg.AbbreviationMaxLen <= 0 {
		cfg.AbbreviationMaxLen = 6
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	allowlist := make(map[string]bool, len(cfg.ContainerAllowlist))
	for _, c := range cfg.ContainerAllowlist {
		allowlist[normalizeAllowlist(c)] = true
	}
	ignored := make(map[string]bool, len(cfg.IgnoreDefects))
	for _, code := range cfg.IgnoreDefects {
		ignored[code] = true
	}
	return &Model{
		cfg: cfg,
		checkers: []checker{
			requiredFieldsChecker{},
			inconsistentFieldsChecker{},
			mostlyAllCapsChecker{ratio: cfg.CapsRatio, abbrevMax: cfg.AbbreviationMaxLen},
			incompleteFieldChecker{},
			erroneousSymbolChecker{},
			erroneousTitleChecker{},
			nameSeparatorsChecker{},
			nameTitlesChecker{},
			nameAbbreviatedChecker{},
			erroneousTermChecker{},
			thesisAuthorsChecker{},
			containerAbbreviatedChecker{maxLen: cfg.AbbreviationMaxLen, allowlist: allowlist},
			inconsistentContentChecker{},
			identicalValuesChecker{},
			yearFormatChecker{},
			languageFormatChecker{},
		},
		ignored: ignored,
	}
}

// UnknownEntryTypeError reports a record whose ENTRYTYPE is outside the
// vocabulary. This is data corruption, not a quality defect (R1.6).
type UnknownEntryTypeError struct {
	ID        string
	EntryType string
}

func (e *UnknownEntryTypeError) Error() string {
	return fmt.Sprintf("record %s: unknown ENTRYTYPE %q", e.ID, e.EntryType)
}

// Evaluate runs every rule against the record and maintains its provenance
// notes in place. Records already excluded in the prescreen are left alone
// (R1.5).
func (m *Model) Evaluate(r *types.Record) error {
	if r.Status == types.StatusRevPrescreenExcluded {
		return nil
	}
	if _, ok := requiredFields[r.EntryType]; !ok {
		return &UnknownEntryTypeError{ID: r.ID, EntryType: r.EntryType}
	}
	for _, c := range m.checkers {
		c.run(r)
	}
	m.applyIgnored(r)
	return nil
}

func (m *Model) applyIgnored(r *types.Record) {
	if len(m.ignored) == 0 {
		return
	}
	for field := range r.Provenance {
		for code := range m.ignored {
			r.RemoveProvenanceNote(field, code)
		}
	}
}

// HasQualityDefects reports whether any provenance note carries an
// annotation. The not-missing sentinel is an excuse, not a defect (R1.7).
func HasQualityDefects(r *types.Record) bool {
	for _, entry := range r.Provenance {
		if entry.Note != "" && entry.Note != types.NoteNotMissing {
			return true
		}
	}
	return false
}

// Summary counts evaluation outcomes across a collection.
type Summary struct {
	Evaluated int
	Defective int
	Skipped   int
	Failed    int
}

// Total returns the number of records seen.
func (s Summary) Total() int {
	return s.Evaluated + s.Skipped + s.Failed
}

// EvaluateAll fans the collection out to a worker pool and annotates records
// in place. Each worker owns the records it receives, so no locking is
// needed; progress is reported to w as records finish.
func (m *Model) EvaluateAll(records []*types.Record, w io.Writer) (Summary, error) {
	type result struct {
		id      string
		err     error
		skipped bool
		defects int
	}

	jobs := make(chan *types.Record)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < m.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				if r.Status == types.StatusRevPrescreenExcluded {
					results <- result{id: r.ID, skipped: true}
					continue
				}
				if err := m.Evaluate(r); err != nil {
					results <- result{id: r.ID, err: err}
					continue
				}
				results <- result{id: r.ID, defects: countDefects(r)}
			}
		}()
	}

	go func() {
		for _, r := range records {
			jobs <- r
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var summary Summary
	var errs []error
	for res := range results {
		switch {
		case res.err != nil:
			summary.Failed++
			fmt.Fprintf(w, "failed   %s: %v\n", res.id, res.err)
			errs = append(errs, res.err)
		case res.skipped:
			summary.Skipped++
			fmt.Fprintf(w, "skipped  %s\n", res.id)
		case res.defects > 0:
			summary.Evaluated++
			summary.Defective++
			fmt.Fprintf(w, "flagged  %s (%d defects)\n", res.id, res.defects)
		default:
			summary.Evaluated++
		}
	}
	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return summary, errors.Join(errs...)
	}
	return summary, nil
}

func countDefects(r *types.Record) int {
	n := 0
	for _, codes := range r.DefectCodes() {
		n += len(codes)
	}
	return n
}
