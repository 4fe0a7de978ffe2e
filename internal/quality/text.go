// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/review-engine/pkg/types"
)

// capsFields are checked for all-uppercase values.
var capsFields = []string{
	types.FieldAuthor, types.FieldTitle, types.FieldEditor,
	types.FieldJournal, types.FieldBooktitle,
}

// mostlyAllCapsChecker flags fields whose letters are predominantly
// uppercase (R2.1, R3.1, R4.1). Short container titles are exempt; they are
// the abbreviation rule's concern.
type mostlyAllCapsChecker struct {
	ratio     float64
	abbrevMax int
}

func (c mostlyAllCapsChecker) run(r *types.Record) {
	for _, field := range capsFields {
		if !r.FieldPresent(field) {
			continue
		}
		value := r.Field(field)
		if (field == types.FieldJournal || field == types.FieldBooktitle) &&
			len([]rune(value)) < c.abbrevMax {
			r.RemoveProvenanceNote(field, types.DefectMostlyAllCaps)
			continue
		}
		if field == types.FieldAuthor || field == types.FieldEditor {
			value = strings.ReplaceAll(value, " and ", " ")
		}
		if upperLetterRatio(value) >= c.ratio {
			r.AddProvenanceNote(field, types.DefectMostlyAllCaps, provenanceSource)
		} else {
			r.RemoveProvenanceNote(field, types.DefectMostlyAllCaps)
		}
	}
}

// upperLetterRatio is the share of uppercase letters among letters. Values
// without letters score 0.
func upperLetterRatio(s string) float64 {
	letters, uppers := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(uppers) / float64(letters)
}

// incompleteFieldsChecked are scanned for truncation markers.
var incompleteFieldsChecked = []string{
	types.FieldAuthor, types.FieldTitle,
	types.FieldJournal, types.FieldBooktitle,
}

// incompleteFieldChecker flags values cut off mid-content (R2.2, R3.4).
type incompleteFieldChecker struct{}

func (incompleteFieldChecker) run(r *types.Record) {
	for _, field := range incompleteFieldsChecked {
		if !r.FieldPresent(field) {
			continue
		}
		if incompleteValue(field, r.Field(field)) {
			r.AddProvenanceNote(field, types.DefectIncompleteField, provenanceSource)
		} else {
			r.RemoveProvenanceNote(field, types.DefectIncompleteField)
		}
	}
}

// incompleteValue reports trailing ellipses; author lists are additionally
// incomplete when they end on "et al." or a dangling comma.
func incompleteValue(field, value string) bool {
	trimmed := strings.TrimSpace(value)
	if strings.HasSuffix(trimmed, "...") || strings.HasSuffix(trimmed, "…") {
		return true
	}
	if field != types.FieldAuthor {
		return false
	}
	return strings.HasSuffix(trimmed, "et al.") || strings.HasSuffix(trimmed, ",")
}

// symbolFields are scanned for encoding damage.
var symbolFields = []string{
	types.FieldAuthor, types.FieldTitle, types.FieldEditor,
	types.FieldJournal, types.FieldBooktitle, types.FieldPublisher,
}

// erroneousSymbols are replacement and rights markers that indicate encoding
// damage rather than content.
var erroneousSymbols = map[rune]bool{
	'�': true, // replacement character
	'™': true,
	'®': true,
	'©': true,
	'℗': true,
}

// erroneousSymbolChecker flags fields carrying broken or non-content
// characters (R3.2).
type erroneousSymbolChecker struct{}

func (erroneousSymbolChecker) run(r *types.Record) {
	for _, field := range symbolFields {
		if !r.FieldPresent(field) {
			continue
		}
		if hasErroneousSymbol(r.Field(field)) {
			r.AddProvenanceNote(field, types.DefectErroneousSymbolInField, provenanceSource)
		} else {
			r.RemoveProvenanceNote(field, types.DefectErroneousSymbolInField)
		}
	}
}

func hasErroneousSymbol(value string) bool {
	for _, r := range value {
		if erroneousSymbols[r] || unicode.IsControl(r) {
			return true
		}
	}
	return false
}

// leetPattern matches digits sandwiched inside a lowercase word, the
// signature of OCR confusion like "0th3r". Uppercase forms ("COVID-19",
// "B2B") are legitimate.
var leetPattern = regexp.MustCompile(`[a-z][0-9]+[a-z]`)

// erroneousTitleChecker flags titles carrying markup underscores or OCR
// digit substitutions (R3.3).
type erroneousTitleChecker struct{}

func (erroneousTitleChecker) run(r *types.Record) {
	if !r.FieldPresent(types.FieldTitle) {
		return
	}
	title := r.Field(types.FieldTitle)
	if strings.Contains(title, "_") || leetPattern.MatchString(title) {
		r.AddProvenanceNote(types.FieldTitle, types.DefectErroneousTitleField, provenanceSource)
		return
	}
	r.RemoveProvenanceNote(types.FieldTitle, types.DefectErroneousTitleField)
}
