package quality

import (
	"strings"
	"unicode"

	"github.com/pdiddy/review-engine/pkg/types"
)

// nameFields are the person-name list fields.
var nameFields = []string{types.FieldAuthor, types.FieldEditor}

// nameHonorifics never belong in a name field.
var nameHonorifics = map[string]bool{
	"md":   true,
	"phd":  true,
	"prof": true,
	"dr":   true,
}

// nameParticles are surname prefixes that legitimately start lowercase.
var nameParticles = map[string]bool{
	"van": true, "von": true, "der": true, "den": true, "de": true,
	"del": true, "della": true, "di": true, "da": true, "du": true,
	"la": true, "le": true, "ter": true, "ten": true, "zu": true,
}

// erroneousNameTerms flag institutional text in person-name fields.
var erroneousNameTerms = []string{
	"university", "institute", "department", "school of", "faculty of",
	"center for", "centre for", "association", "conference", "gmbh", "http",
}

// nameSeparatorsChecker flags name lists that violate the "Family, Given
// and Family, Given" form (R2.3).
type nameSeparatorsChecker struct{}

func (nameSeparatorsChecker) run(r *types.Record) {
	for _, field := range nameFields {
		if !r.FieldPresent(field) {
			continue
		}
		if malformedNameList(r.Field(field)) {
			r.AddProvenanceNote(field, types.DefectNameFormatSeparators, provenanceSource)
		} else {
			r.RemoveProvenanceNote(field, types.DefectNameFormatSeparators)
		}
	}
}

// malformedNameList reports semicolon separators, multi-name entries with a
// comma-less name, and name parts starting lowercase. The literal "others"
// is valid; so are surname particles like "van" or "de".
func malformedNameList(value string) bool {
	if strings.Contains(value, ";") {
		return true
	}
	parts := strings.Split(value, " and ")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return true
		}
		if part == "others" {
			continue
		}
		segments := strings.Split(part, ",")
		if len(segments) == 1 && len(parts) > 1 {
			return true
		}
		for _, seg := range segments {
			seg = strings.TrimSpace(seg)
			if seg == "" {
				continue
			}
			first := []rune(seg)[0]
			if !unicode.IsLower(first) {
				continue
			}
			if !nameParticles[firstWord(seg)] {
				return true
			}
		}
	}
	return false
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// nameTitlesChecker flags honorifics carried into name fields (R2.4).
type nameTitlesChecker struct{}

func (nameTitlesChecker) run(r *types.Record) {
	for _, field := range nameFields {
		if !r.FieldPresent(field) {
			continue
		}
		if containsHonorific(r.Field(field)) {
			r.AddProvenanceNote(field, types.DefectNameFormatTitles, provenanceSource)
		} else {
			r.RemoveProvenanceNote(field, types.DefectNameFormatTitles)
		}
	}
}

func containsHonorific(value string) bool {
	tokens := strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == ','
	})
	for _, token := range tokens {
		token = strings.TrimSuffix(strings.ToLower(token), ".")
		if nameHonorifics[token] {
			return true
		}
	}
	return false
}

// nameAbbreviatedChecker flags lists truncated with the BibTeX "and others"
// form (R2.5). Truncation markers like "et al." are the incomplete-field
// rule's concern.
type nameAbbreviatedChecker struct{}

func (nameAbbreviatedChecker) run(r *types.Record) {
	for _, field := range nameFields {
		if !r.FieldPresent(field) {
			continue
		}
		if strings.HasSuffix(strings.TrimSpace(r.Field(field)), "and others") {
			r.AddProvenanceNote(field, types.DefectNameAbbreviated, provenanceSource)
		} else {
			r.RemoveProvenanceNote(field, types.DefectNameAbbreviated)
		}
	}
}

// erroneousTermChecker flags institutional terms in person-name fields
// (R2.6).
type erroneousTermChecker struct{}

func (erroneousTermChecker) run(r *types.Record) {
	for _, field := range nameFields {
		if !r.FieldPresent(field) {
			continue
		}
		lower := strings.ToLower(r.Field(field))
		flagged := false
		for _, term := range erroneousNameTerms {
			if strings.Contains(lower, term) {
				flagged = true
				break
			}
		}
		if flagged {
			r.AddProvenanceNote(field, types.DefectErroneousTermInField, provenanceSource)
		} else {
			r.RemoveProvenanceNote(field, types.DefectErroneousTermInField)
		}
	}
}

var thesisEntryTypes = map[string]bool{
	"thesis":       true,
	"phdthesis":    true,
	"masterthesis": true,
}

// thesisAuthorsChecker flags theses attributed to more than one author
// (R6.4).
type thesisAuthorsChecker struct{}

func (thesisAuthorsChecker) run(r *types.Record) {
	if !r.FieldPresent(types.FieldAuthor) {
		return
	}
	if thesisEntryTypes[r.EntryType] && strings.Contains(r.Field(types.FieldAuthor), " and ") {
		r.AddProvenanceNote(types.FieldAuthor, types.DefectThesisWithMultipleAuthors, provenanceSource)
		return
	}
	r.RemoveProvenanceNote(types.FieldAuthor, types.DefectThesisWithMultipleAuthors)
}
