// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"strings"
	"unicode"

	"github.com/pdiddy/review-engine/pkg/types"
)

var containerFields = []string{types.FieldJournal, types.FieldBooktitle}

func normalizeAllowlist(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// containerAbbreviatedChecker flags short all-uppercase container titles
// ("SAMJ", "SOS") that need expansion before the record is citable (R4.2).
// Known-good short titles can be allowlisted.
type containerAbbreviatedChecker struct {
	maxLen    int
	allowlist map[string]bool
}

func (c containerAbbreviatedChecker) run(r *types.Record) {
	for _, field := range containerFields {
		if !r.FieldPresent(field) {
			continue
		}
		value := r.Field(field)
		if abbreviatedContainer(value, c.maxLen) && !c.allowlist[normalizeAllowlist(value)] {
			r.AddProvenanceNote(field, types.DefectContainerTitleAbbreviated, provenanceSource)
		} else {
			r.RemoveProvenanceNote(field, types.DefectContainerTitleAbbreviated)
		}
	}
}

// abbreviatedContainer: shorter than maxLen with at least one letter and no
// lowercase letters.
func abbreviatedContainer(value string, maxLen int) bool {
	runes := []rune(value)
	if len(runes) >= maxLen {
		return false
	}
	hasLetter := false
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			continue
		}
		hasLetter = true
		if unicode.IsLower(r) {
			return false
		}
	}
	return hasLetter
}

// journalConflictTerms mark event publications mis-typed as journals.
var journalConflictTerms = []string{"conference", "workshop", "symposium"}

// inconsistentContentChecker flags venue fields whose text contradicts the
// field itself: a journal naming a conference, a booktitle naming a journal
// (R4.3).
type inconsistentContentChecker struct{}

func (inconsistentContentChecker) run(r *types.Record) {
	if r.FieldPresent(types.FieldJournal) {
		lower := strings.ToLower(r.Field(types.FieldJournal))
		conflict := false
		for _, term := range journalConflictTerms {
			if strings.Contains(lower, term) {
				conflict = true
				break
			}
		}
		if conflict {
			r.AddProvenanceNote(types.FieldJournal, types.DefectInconsistentContent, provenanceSource)
		} else {
			r.RemoveProvenanceNote(types.FieldJournal, types.DefectInconsistentContent)
		}
	}
	if r.FieldPresent(types.FieldBooktitle) {
		lower := strings.ToLower(r.Field(types.FieldBooktitle))
		if strings.Contains(lower, "journal") {
			r.AddProvenanceNote(types.FieldBooktitle, types.DefectInconsistentContent, provenanceSource)
		} else {
			r.RemoveProvenanceNote(types.FieldBooktitle, types.DefectInconsistentContent)
		}
	}
}

// identicalValuesChecker flags titles that merely repeat the container
// title, a common import artifact (R3.5). The note goes on the title.
type identicalValuesChecker struct{}

func (identicalValuesChecker) run(r *types.Record) {
	if !r.FieldPresent(types.FieldTitle) {
		return
	}
	title := r.Field(types.FieldTitle)
	identical := (r.FieldPresent(types.FieldJournal) && strings.EqualFold(title, r.Field(types.FieldJournal))) ||
		(r.FieldPresent(types.FieldBooktitle) && strings.EqualFold(title, r.Field(types.FieldBooktitle)))
	if identical {
		r.AddProvenanceNote(types.FieldTitle, types.DefectIdenticalValuesTitleContainer, provenanceSource)
		return
	}
	r.RemoveProvenanceNote(types.FieldTitle, types.DefectIdenticalValuesTitleContainer)
}
