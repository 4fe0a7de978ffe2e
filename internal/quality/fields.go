package quality

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/pdiddy/review-engine/pkg/types"
)

// requiredFields maps each ENTRYTYPE to the masterdata fields it must carry.
// The map doubles as the ENTRYTYPE vocabulary: records typed outside it are
// rejected before any rule runs (R6.1).
var requiredFields = map[string][]string{
	"article":       {types.FieldAuthor, types.FieldTitle, types.FieldJournal, types.FieldYear, types.FieldVolume, types.FieldNumber},
	"inproceedings": {types.FieldAuthor, types.FieldTitle, types.FieldBooktitle, types.FieldYear},
	"incollection":  {types.FieldAuthor, types.FieldTitle, types.FieldBooktitle, types.FieldPublisher, types.FieldYear},
	"inbook":        {types.FieldAuthor, types.FieldTitle, types.FieldChapter, types.FieldPublisher, types.FieldYear},
	"book":          {types.FieldAuthor, types.FieldTitle, types.FieldPublisher, types.FieldYear},
	"proceedings":   {types.FieldBooktitle, types.FieldEditor, types.FieldYear},
	"phdthesis":     {types.FieldAuthor, types.FieldTitle, types.FieldSchool, types.FieldYear},
	"masterthesis":  {types.FieldAuthor, types.FieldTitle, types.FieldSchool, types.FieldYear},
	"thesis":        {types.FieldAuthor, types.FieldTitle, types.FieldSchool, types.FieldYear},
	"techreport":    {types.FieldAuthor, types.FieldTitle, types.FieldInstitution, types.FieldYear},
	"unpublished":   {types.FieldAuthor, types.FieldTitle, types.FieldYear},
	"misc":          {types.FieldAuthor, types.FieldTitle, types.FieldYear},
	"online":        {types.FieldAuthor, types.FieldTitle, types.FieldURL},
	"software":      {types.FieldAuthor, types.FieldTitle, types.FieldURL},
}

// inconsistentFields lists fields that contradict an ENTRYTYPE when present.
// These are fixed lists, not complements of the required sets (R6.2).
var inconsistentFields = map[string][]string{
	"article":       {types.FieldBooktitle},
	"inproceedings": {types.FieldIssue, types.FieldNumber, types.FieldJournal},
	"incollection":  {},
	"inbook":        {types.FieldJournal},
	"book":          {types.FieldJournal},
	"proceedings":   {},
	"phdthesis":     {types.FieldVolume, types.FieldIssue, types.FieldNumber, types.FieldJournal, types.FieldBooktitle},
	"masterthesis":  {types.FieldVolume, types.FieldIssue, types.FieldNumber, types.FieldJournal, types.FieldBooktitle},
	"thesis":        {types.FieldVolume, types.FieldIssue, types.FieldNumber, types.FieldJournal, types.FieldBooktitle},
	"techreport":    {types.FieldVolume, types.FieldIssue, types.FieldNumber, types.FieldJournal, types.FieldBooktitle},
	"unpublished":   {types.FieldVolume, types.FieldIssue, types.FieldNumber, types.FieldJournal, types.FieldBooktitle},
	"misc":          {types.FieldJournal, types.FieldBooktitle},
	"online":        {types.FieldJournal, types.FieldBooktitle},
	"software":      {types.FieldJournal, types.FieldBooktitle},
}

// KnownEntryTypes returns the ENTRYTYPE vocabulary, sorted.
func KnownEntryTypes() []string {
	entryTypes := make([]string, 0, len(requiredFields))
	for t := range requiredFields {
		entryTypes = append(entryTypes, t)
	}
	sort.Strings(entryTypes)
	return entryTypes
}

// yearForthcoming is the one non-numeric year value the model accepts.
const yearForthcoming = "forthcoming"

// requiredFieldsChecker maintains the missing sentinel: absent or UNKNOWN
// required fields are noted missing unless explicitly excused, and
// forthcoming articles get volume and number excused (R6.3, R5.2).
type requiredFieldsChecker struct{}

func (requiredFieldsChecker) run(r *types.Record) {
	var missing []string
	for _, field := range requiredFields[r.EntryType] {
		if r.FieldPresent(field) {
			r.RemoveProvenanceNote(field, types.NoteMissing)
			continue
		}
		if strings.Contains(r.ProvenanceNote(field), types.NoteNotMissing) {
			continue
		}
		missing = append(missing, field)
	}
	if r.Field(types.FieldYear) == yearForthcoming {
		kept := missing[:0]
		for _, field := range missing {
			if field == types.FieldVolume || field == types.FieldNumber {
				r.SetProvenance(field, provenanceSource, types.NoteNotMissing)
				continue
			}
			kept = append(kept, field)
		}
		missing = kept
	}
	for _, field := range missing {
		r.AddProvenanceNote(field, types.NoteMissing, provenanceSource)
	}
}

// inconsistentFieldsChecker flags present fields that contradict the
// record's ENTRYTYPE.
type inconsistentFieldsChecker struct{}

func (inconsistentFieldsChecker) run(r *types.Record) {
	inconsistent := make(map[string]bool)
	for _, field := range inconsistentFields[r.EntryType] {
		inconsistent[field] = true
	}
	for field := range r.Fields {
		if inconsistent[field] && r.FieldPresent(field) {
			r.AddProvenanceNote(field, types.DefectInconsistentWithEntryType, provenanceSource)
		} else {
			r.RemoveProvenanceNote(field, types.DefectInconsistentWithEntryType)
		}
	}
}

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// yearFormatChecker accepts four-digit years and the forthcoming marker.
type yearFormatChecker struct{}

func (yearFormatChecker) run(r *types.Record) {
	if !r.FieldPresent(types.FieldYear) {
		return
	}
	year := r.Field(types.FieldYear)
	if yearPattern.MatchString(year) || year == yearForthcoming {
		r.RemoveProvenanceNote(types.FieldYear, types.DefectYearFormat)
		return
	}
	r.AddProvenanceNote(types.FieldYear, types.DefectYearFormat, provenanceSource)
}

// languageFormatChecker requires ISO 639-3 codes: exactly three letters that
// parse as a known language tag (R5.3).
type languageFormatChecker struct{}

func (languageFormatChecker) run(r *types.Record) {
	if !r.FieldPresent(types.FieldLanguage) {
		return
	}
	if validLanguageCode(r.Field(types.FieldLanguage)) {
		r.RemoveProvenanceNote(types.FieldLanguage, types.DefectLanguageFormatError)
		return
	}
	r.AddProvenanceNote(types.FieldLanguage, types.DefectLanguageFormatError, provenanceSource)
}

func validLanguageCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	_, err := language.Parse(strings.ToLower(code))
	return err == nil
}
