// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Defect codes the quality model attaches to provenance notes. The set is
// closed: the consistency checker rejects notes carrying codes outside it
// (prd002-quality R1.2, prd005-consistency R2.5).
const (
	DefectMostlyAllCaps                 = "mostly-all-caps"
	DefectIncompleteField               = "incomplete-field"
	DefectNameFormatSeparators          = "name-format-separators"
	DefectNameFormatTitles              = "name-format-titles"
	DefectNameAbbreviated               = "name-abbreviated"
	DefectErroneousTermInField          = "erroneous-term-in-field"
	DefectErroneousSymbolInField        = "erroneous-symbol-in-field"
	DefectErroneousTitleField           = "erroneous-title-field"
	DefectContainerTitleAbbreviated     = "container-title-abbreviated"
	DefectInconsistentContent           = "inconsistent-content"
	DefectInconsistentWithEntryType     = "inconsistent-with-entrytype"
	DefectIdenticalValuesTitleContainer = "identical-values-between-title-and-container"
	DefectThesisWithMultipleAuthors     = "thesis-with-multiple-authors"
	DefectYearFormat                    = "year-format"
	DefectLanguageFormatError           = "language-format-error"
)

var defectCodes = map[string]bool{
	DefectMostlyAllCaps:                 true,
	DefectIncompleteField:               true,
	DefectNameFormatSeparators:          true,
	DefectNameFormatTitles:              true,
	DefectNameAbbreviated:               true,
	DefectErroneousTermInField:          true,
	DefectErroneousSymbolInField:        true,
	DefectErroneousTitleField:           true,
	DefectContainerTitleAbbreviated:     true,
	DefectInconsistentContent:           true,
	DefectInconsistentWithEntryType:     true,
	DefectIdenticalValuesTitleContainer: true,
	DefectThesisWithMultipleAuthors:     true,
	DefectYearFormat:                    true,
	DefectLanguageFormatError:           true,
}

// KnownDefectCode reports whether a note token is part of the defect
// vocabulary. The missing/not-missing sentinels are valid note tokens but
// not defects.
func KnownDefectCode(code string) bool {
	return defectCodes[code]
}

// KnownNoteToken reports whether a note token is acceptable in a provenance
// note: a defect code or one of the sentinels.
func KnownNoteToken(token string) bool {
	return token == NoteMissing || token == NoteNotMissing || defectCodes[token]
}
