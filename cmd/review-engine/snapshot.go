// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/check"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save and inspect consistency-gated snapshots",
	Long: `Snapshot persists the collection to the snapshot database. Saving is
gated on the consistency battery; earlier snapshots become the baseline
for the next run's history checks.`,
}

// --- save subcommand ---

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Check the collection and save a snapshot",
	Long: `Save runs the consistency battery and, when it passes, stores the
collection as a new snapshot. With --force, transition and identity
failures are recorded in the audit trail (requiring --reason) and the
snapshot is saved anyway; other failure kinds always block.`,
	RunE: runSnapshotSave,
}

func runSnapshotSave(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	result, records, err := runBattery(ctx, false)
	if err != nil {
		return err
	}

	label, _ := cmd.Flags().GetString("label")
	force, _ := cmd.Flags().GetBool("force")
	reason, _ := cmd.Flags().GetString("reason")

	db, err := store.Open(settings.Store.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if result.Status == check.StatusFail {
		formatCheckResult(os.Stdout, result)
		if !force {
			return fmt.Errorf("collection failed %d check(s); fix them or pass --force", len(result.Failures))
		}
		if reason == "" {
			return fmt.Errorf("--force requires --reason")
		}
		if err := logForcedFailures(ctx, db, result.Failures, reason); err != nil {
			return err
		}
	}

	snap, err := db.SaveSnapshot(ctx, label, records)
	if err != nil {
		return err
	}
	fmt.Printf("snapshot %s saved (%d records)\n", snap.ID, snap.RecordCount)
	return nil
}

// logForcedFailures writes audit entries for the failures --force waives.
// Only transition and propagated-ID failures can be waived; anything else
// aborts the save.
func logForcedFailures(ctx context.Context, db *store.Store, failures []check.Failure, reason string) error {
	now := time.Now().UTC()
	for _, f := range failures {
		switch f.Kind {
		case check.KindTransitionError:
			id := ""
			if len(f.IDs) > 0 {
				id = f.IDs[0]
			}
			override := types.StatusOverride{
				RecordID:  id,
				From:      f.From,
				To:        f.To,
				Operation: "snapshot",
				Reason:    reason,
				CreatedAt: now,
			}
			if err := db.LogOverride(ctx, override); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "override logged: %s %s -> %s\n", id, f.From, f.To)
		case check.KindPropagatedID:
			rename := types.IDRename{
				OldID:     f.OldID,
				NewID:     f.NewID,
				Reason:    reason,
				CreatedAt: now,
			}
			if err := db.LogRename(ctx, rename); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "rename logged: %s -> %s\n", f.OldID, f.NewID)
		default:
			return fmt.Errorf("cannot force past %s: %s", f.Kind, f.Message)
		}
	}
	return nil
}

// --- list subcommand ---

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots",
	RunE:  runSnapshotList,
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(settings.Store.DBPath); err != nil {
		fmt.Println("no snapshots")
		return nil
	}
	db, err := store.Open(settings.Store.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	snaps, err := db.ListSnapshots(context.Background())
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("no snapshots")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-25s  %-7s  %s\n", "ID", "TAKEN", "RECORDS", "LABEL")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, s := range snaps {
		fmt.Fprintf(os.Stdout, "%-36s  %-25s  %-7d  %s\n",
			s.ID, s.TakenAt.Format(time.RFC3339), s.RecordCount, s.Label)
	}
	fmt.Fprintf(os.Stdout, "\n%d snapshot(s)\n", len(snaps))
	return nil
}

// --- show subcommand ---

var snapshotShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a snapshot's records (latest when no ID is given)",
	RunE:  runSnapshotShow,
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(settings.Store.DBPath); err != nil {
		return fmt.Errorf("no snapshot database at %s", settings.Store.DBPath)
	}
	db, err := store.Open(settings.Store.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	var (
		snap    store.Snapshot
		records []*types.Record
	)
	if len(args) == 0 {
		snap, records, err = db.LatestSnapshot(ctx)
	} else {
		snap, records, err = db.LoadSnapshot(ctx, args[0])
	}
	if err != nil {
		return err
	}

	fmt.Printf("snapshot %s (%s, label %q)\n\n", snap.ID, snap.TakenAt.Format(time.RFC3339), snap.Label)
	store.FormatRecordsTable(os.Stdout, records)
	return nil
}

func init() {
	snapshotSaveCmd.Flags().String("label", "", "label stored with the snapshot")
	snapshotSaveCmd.Flags().Bool("force", false, "save despite transition or identity failures, logging them")
	snapshotSaveCmd.Flags().String("reason", "", "justification recorded with forced failures")

	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)

	rootCmd.AddCommand(snapshotCmd)
}
