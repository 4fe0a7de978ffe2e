package store

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
// Implements: prd001-records R3.4.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title,omitempty"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Publisher      string    `yaml:"publisher,omitempty"`
	Volume         string    `yaml:"volume,omitempty"`
	Issue          string    `yaml:"issue,omitempty"`
	Page           string    `yaml:"page,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// cslTypes maps ENTRYTYPEs onto CSL item types. Unmapped entry types fall
// back to "document".
var cslTypes = map[string]string{
	"article":       "article-journal",
	"inproceedings": "paper-conference",
	"proceedings":   "book",
	"incollection":  "chapter",
	"inbook":        "chapter",
	"book":          "book",
	"phdthesis":     "thesis",
	"masterthesis":  "thesis",
	"thesis":        "thesis",
	"techreport":    "report",
	"unpublished":   "manuscript",
	"misc":          "document",
	"online":        "webpage",
	"software":      "software",
}

// ExportCSL writes the records as a CSL-YAML list to w.
func ExportCSL(w io.Writer, records []*types.Record) error {
	items := make([]CSLItem, len(records))
	for i, r := range records {
		items[i] = toCSLItem(r)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// ExportYAML writes the records in the working-file layout to w.
func ExportYAML(w io.Writer, records []*types.Record) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(records)
}

// toCSLItem converts a record to a CSLItem.
func toCSLItem(r *types.Record) CSLItem {
	cslType, ok := cslTypes[r.EntryType]
	if !ok {
		cslType = "document"
	}
	item := CSLItem{
		ID:             r.ID,
		Type:           cslType,
		Title:          exportValue(r, types.FieldTitle),
		ContainerTitle: r.Container(),
		Publisher:      exportValue(r, types.FieldPublisher),
		Volume:         exportValue(r, types.FieldVolume),
		Issue:          exportValue(r, types.FieldNumber),
		Page:           strings.ReplaceAll(exportValue(r, types.FieldPages), "--", "-"),
		DOI:            exportValue(r, types.FieldDOI),
		URL:            exportValue(r, types.FieldURL),
	}

	for _, name := range splitNameList(exportValue(r, types.FieldAuthor)) {
		item.Author = append(item.Author, parseBibName(name))
	}

	if year, err := strconv.Atoi(exportValue(r, types.FieldYear)); err == nil {
		item.Issued = &CSLDate{DateParts: [][]int{{year}}}
	}

	return item
}

func exportValue(r *types.Record, field string) string {
	if !r.FieldPresent(field) {
		return ""
	}
	return r.Field(field)
}

func splitNameList(value string) []string {
	if value == "" {
		return nil
	}
	var names []string
	for _, name := range strings.Split(value, " and ") {
		name = strings.TrimSpace(name)
		if name != "" && name != "others" {
			names = append(names, name)
		}
	}
	return names
}

// parseBibName splits a "Family, Given" name into CSL family/given parts.
// Names without a comma use the literal field; guessing their structure
// produces worse citations than none.
func parseBibName(name string) CSLName {
	family, given, ok := strings.Cut(name, ",")
	if !ok {
		return CSLName{Literal: name}
	}
	return CSLName{
		Family: strings.TrimSpace(family),
		Given:  strings.TrimSpace(given),
	}
}

// FormatRecordsTable writes a fixed-width listing of the collection to w.
func FormatRecordsTable(w io.Writer, records []*types.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no records")
		return
	}
	fmt.Fprintf(w, "%-28s  %-14s  %-28s  %s\n", "ID", "ENTRYTYPE", "STATUS", "TITLE")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range records {
		fmt.Fprintf(w, "%-28s  %-14s  %-28s  %s\n",
			truncate(r.ID, 28), truncate(r.EntryType, 14),
			truncate(string(r.Status), 28), truncate(r.Field(types.FieldTitle), 34))
	}
	fmt.Fprintf(w, "\n%d record(s)\n", len(records))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
