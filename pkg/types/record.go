// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"sort"
	"strings"
)

// Bibliographic field names used across the pipeline. Records may carry
// arbitrary additional fields; these are the ones operations inspect.
const (
	FieldAuthor      = "author"
	FieldTitle       = "title"
	FieldEditor      = "editor"
	FieldJournal     = "journal"
	FieldBooktitle   = "booktitle"
	FieldYear        = "year"
	FieldVolume      = "volume"
	FieldNumber      = "number"
	FieldIssue       = "issue"
	FieldPages       = "pages"
	FieldPublisher   = "publisher"
	FieldChapter     = "chapter"
	FieldSchool      = "school"
	FieldInstitution = "institution"
	FieldURL         = "url"
	FieldDOI         = "doi"
	FieldLanguage    = "language"
	FieldAbstract    = "abstract"

	// FieldScreeningCriteria cites the screen criteria applied to a record.
	FieldScreeningCriteria = "screening_criteria"
	// FieldPrescreenExclusion records why the prescreen dropped a record.
	FieldPrescreenExclusion = "prescreen_exclusion"
)

// ValueUnknown marks a field whose value could not be determined. Fields
// set to it count as absent everywhere except the raw serialization (R1.5).
const ValueUnknown = "UNKNOWN"

// Provenance note sentinels. NoteMissing marks a required field that is
// absent; NoteNotMissing records that its absence is expected and excused.
const (
	NoteMissing    = "missing"
	NoteNotMissing = "not-missing"
)

// ProvenanceEntry tracks which process last touched a masterdata field and
// the quality annotations attached to it. Note holds defect codes and
// sentinels, comma-joined in alphabetical order (R1.3).
type ProvenanceEntry struct {
	Source string `yaml:"source"`
	Note   string `yaml:"note"`
}

// Record is one bibliographic entity tracked through the review. The typed
// core (ID, entry type, status) is validated at every boundary; all
// bibliographic content lives in the open field map (R1.1, R1.4).
type Record struct {
	ID         string                      `yaml:"ID"`
	EntryType  string                      `yaml:"ENTRYTYPE"`
	Status     Status                      `yaml:"colrev_status"`
	Origins    []string                    `yaml:"colrev_origin,omitempty"`
	Provenance map[string]*ProvenanceEntry `yaml:"colrev_masterdata_provenance,omitempty"`
	Fields     map[string]string           `yaml:",inline"`
}

// Validate checks the typed core. It does not inspect bibliographic fields;
// those are the quality model's concern.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record without ID")
	}
	if r.EntryType == "" {
		return fmt.Errorf("record %s: missing ENTRYTYPE", r.ID)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("record %s: unknown status %q", r.ID, string(r.Status))
	}
	return nil
}

// Field returns the value of a bibliographic field, or "" when absent.
func (r *Record) Field(key string) string {
	return r.Fields[key]
}

// FieldPresent reports whether the field carries a usable value: present,
// non-empty, and not the UNKNOWN sentinel.
func (r *Record) FieldPresent(key string) bool {
	v, ok := r.Fields[key]
	return ok && v != "" && v != ValueUnknown
}

// SetField stores a bibliographic field value, allocating the map on first
// use so zero-value records stay usable.
func (r *Record) SetField(key, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[key] = value
}

// Container returns the publication venue: the journal when present, the
// booktitle otherwise, "" when the record has neither.
func (r *Record) Container() string {
	if r.FieldPresent(FieldJournal) {
		return r.Fields[FieldJournal]
	}
	if r.FieldPresent(FieldBooktitle) {
		return r.Fields[FieldBooktitle]
	}
	return ""
}

// Clone returns a deep copy. Operations that must not mutate their input
// (checker, dedupe) work on clones.
func (r *Record) Clone() *Record {
	clone := &Record{
		ID:        r.ID,
		EntryType: r.EntryType,
		Status:    r.Status,
	}
	if r.Origins != nil {
		clone.Origins = append([]string(nil), r.Origins...)
	}
	if r.Fields != nil {
		clone.Fields = make(map[string]string, len(r.Fields))
		for k, v := range r.Fields {
			clone.Fields[k] = v
		}
	}
	if r.Provenance != nil {
		clone.Provenance = make(map[string]*ProvenanceEntry, len(r.Provenance))
		for k, v := range r.Provenance {
			entry := *v
			clone.Provenance[k] = &entry
		}
	}
	return clone
}

// ProvenanceNote returns the note attached to a field, or "" when the field
// has no provenance entry.
func (r *Record) ProvenanceNote(field string) string {
	entry, ok := r.Provenance[field]
	if !ok {
		return ""
	}
	return entry.Note
}

// SetProvenance replaces the provenance entry for a field.
func (r *Record) SetProvenance(field, source, note string) {
	if r.Provenance == nil {
		r.Provenance = make(map[string]*ProvenanceEntry)
	}
	r.Provenance[field] = &ProvenanceEntry{Source: source, Note: note}
}

// AddProvenanceNote merges a defect code into the field's note, creating the
// entry with the given source when the field has none. Existing sources are
// preserved. Codes are kept comma-joined in alphabetical order, so repeated
// evaluation is a no-op (R1.3).
func (r *Record) AddProvenanceNote(field, code, source string) {
	if r.Provenance == nil {
		r.Provenance = make(map[string]*ProvenanceEntry)
	}
	entry, ok := r.Provenance[field]
	if !ok {
		r.Provenance[field] = &ProvenanceEntry{Source: source, Note: code}
		return
	}
	codes := splitNote(entry.Note)
	for _, c := range codes {
		if c == code {
			return
		}
	}
	codes = append(codes, code)
	sort.Strings(codes)
	entry.Note = strings.Join(codes, ",")
}

// DefectCodes returns the annotations per field, excluding the not-missing
// excuse. A nil result means the record is clean.
func (r *Record) DefectCodes() map[string][]string {
	var out map[string][]string
	for field, entry := range r.Provenance {
		var codes []string
		for _, c := range splitNote(entry.Note) {
			if c != NoteNotMissing {
				codes = append(codes, c)
			}
		}
		if len(codes) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string][]string)
		}
		out[field] = codes
	}
	return out
}

// RemoveProvenanceNote drops a defect code from the field's note. The entry
// itself is kept (possibly with an empty note) so the source tag survives.
// Removing from a field without an entry is a no-op.
func (r *Record) RemoveProvenanceNote(field, code string) {
	entry, ok := r.Provenance[field]
	if !ok {
		return
	}
	codes := splitNote(entry.Note)
	kept := codes[:0]
	for _, c := range codes {
		if c != code {
			kept = append(kept, c)
		}
	}
	entry.Note = strings.Join(kept, ",")
}

func splitNote(note string) []string {
	if note == "" {
		return nil
	}
	parts := strings.Split(note, ",")
	codes := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}
