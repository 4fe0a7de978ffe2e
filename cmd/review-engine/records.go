// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/state"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage the record collection (list, import, export, set-status)",
	Long: `Records manages the working collection. Use subcommands to list records,
import search results, export to CSL or YAML, or change a record's status.`,
}

// --- list subcommand ---

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the collection with statuses",
	RunE:  runRecordsList,
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	records, err := loadCollection()
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	store.FormatRecordsTable(os.Stdout, records)
	return nil
}

// --- import subcommand ---

var recordsImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import search results into the collection",
	Long: `Import reads a YAML result file, assigns origins and the retrieved
status, and merges the entries into the collection. Entries whose IDs
already exist in the collection are rejected.`,
	RunE: runRecordsImport,
}

func runRecordsImport(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one result file to import")
	}
	path := args[0]

	sourceName, _ := cmd.Flags().GetString("source")
	if sourceName == "" {
		sourceName = filepath.Base(path)
	}
	if !sourceDeclared(sourceName) {
		fmt.Fprintf(os.Stderr, "warning: source %s is not declared in settings; check will flag its origins\n", sourceName)
	}

	imported, err := store.ReadImportFile(path, sourceName)
	if err != nil {
		return err
	}

	existing, err := loadCollection()
	if err != nil {
		return err
	}
	merged, err := store.MergeRecords(existing, imported)
	if err != nil {
		return err
	}
	if err := saveCollection(merged); err != nil {
		return err
	}

	fmt.Printf("imported %d record(s) from %s\n", len(imported), path)
	return nil
}

func sourceDeclared(filename string) bool {
	for _, s := range settings.Sources {
		if s.Filename == filename {
			return true
		}
	}
	return false
}

// --- export subcommand ---

var recordsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the collection to CSL or YAML",
	Long: `Export writes the collection to stdout or --output in CSL-YAML (for
reference managers) or raw YAML.`,
	RunE: runRecordsExport,
}

func runRecordsExport(cmd *cobra.Command, args []string) error {
	records, err := loadCollection()
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	w := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "csl", "":
		return store.ExportCSL(w, records)
	case "yaml":
		return store.ExportYAML(w, records)
	default:
		return fmt.Errorf("unsupported format %q: use csl or yaml", format)
	}
}

// --- set-status subcommand ---

var recordsSetStatusCmd = &cobra.Command{
	Use:   "set-status [id] [status]",
	Short: "Change one record's status, logging an override when off-graph",
	Long: `Set-status validates the change against the transition table. Changes
with no table edge are manual overrides: they require --reason and are
recorded in the audit trail so the next check exempts them.`,
	RunE: runRecordsSetStatus,
}

func runRecordsSetStatus(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("provide a record ID and a target status")
	}
	target, err := types.ParseStatus(args[1])
	if err != nil {
		return err
	}

	records, err := loadCollection()
	if err != nil {
		return err
	}
	var rec *types.Record
	for _, r := range records {
		if r.ID == args[0] {
			rec = r
			break
		}
	}
	if rec == nil {
		return fmt.Errorf("record %s not found", args[0])
	}

	reason, _ := cmd.Flags().GetString("reason")
	req := state.Request{RecordID: rec.ID, From: rec.Status, To: target, Kind: state.Automatic}
	if rec.Status != target && !state.IsValidTransition(rec.Status, target) {
		req.Kind = state.ManualOverride
		req.Reason = reason
	}
	if err := state.Validate(req); err != nil {
		return err
	}

	if req.Kind == state.ManualOverride {
		db, err := store.Open(settings.Store.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		override := types.StatusOverride{
			RecordID:  rec.ID,
			From:      rec.Status,
			To:        target,
			Operation: "set-status",
			Reason:    reason,
			CreatedAt: time.Now().UTC(),
		}
		if err := db.LogOverride(context.Background(), override); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "override logged: %s %s -> %s (%s)\n", rec.ID, rec.Status, target, reason)
	}

	rec.Status = target
	return saveCollection(records)
}

// --- shared helpers ---

func loadCollection() ([]*types.Record, error) {
	return store.LoadRecords(settings.Store.RecordsFile)
}

func saveCollection(records []*types.Record) error {
	return store.SaveRecords(settings.Store.RecordsFile, records)
}

func init() {
	recordsListCmd.Flags().Bool("json", false, "output records as JSON")

	recordsImportCmd.Flags().String("source", "", "source filename recorded in origins (default: base name of the file)")

	recordsExportCmd.Flags().String("format", "csl", "export format: csl or yaml")
	recordsExportCmd.Flags().String("output", "", "write to file instead of stdout")

	recordsSetStatusCmd.Flags().String("reason", "", "justification, required for off-graph changes")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsImportCmd)
	recordsCmd.AddCommand(recordsExportCmd)
	recordsCmd.AddCommand(recordsSetStatusCmd)

	rootCmd.AddCommand(recordsCmd)
}
