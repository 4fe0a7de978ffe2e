// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/check"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the consistency battery over the collection",
	Long: `Check verifies structural invariants (declared sources, unique IDs,
origin coverage, field provenance, screen criteria) and, once a snapshot
exists, history invariants against it (persisted IDs, legal status
transitions). All checks run; failures are reported together.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Bool("strict", false, "abort on the first invalid status transition")
	checkCmd.Flags().Bool("json", false, "output the result as JSON")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")
	result, _, err := runBattery(context.Background(), strict)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		formatCheckResult(os.Stdout, result)
	}

	if result.Status == check.StatusFail {
		return fmt.Errorf("%d check failure(s)", len(result.Failures))
	}
	return nil
}

// runBattery assembles the check input from the collection, the settings,
// and the latest snapshot when one exists, then runs the battery. The
// records are returned so callers can snapshot exactly what was checked.
func runBattery(ctx context.Context, strict bool) (check.Result, []*types.Record, error) {
	records, err := loadCollection()
	if err != nil {
		return check.Result{}, nil, err
	}

	in := check.Input{
		Current:  records,
		Sources:  settings.Sources,
		Criteria: settings.Screen.Criteria,
	}

	if _, statErr := os.Stat(settings.Store.DBPath); statErr == nil {
		db, err := store.Open(settings.Store.DBPath)
		if err != nil {
			return check.Result{}, nil, err
		}
		defer db.Close()

		_, prior, err := db.LatestSnapshot(ctx)
		if err != nil && !errors.Is(err, store.ErrNoSnapshots) {
			return check.Result{}, nil, err
		}
		in.Prior = prior

		if in.Overrides, err = db.Overrides(ctx); err != nil {
			return check.Result{}, nil, err
		}
		if in.Renames, err = db.Renames(ctx); err != nil {
			return check.Result{}, nil, err
		}
	}

	result, err := check.Run(in, check.Options{Strict: strict})
	return result, records, err
}

func formatCheckResult(w io.Writer, result check.Result) {
	for _, f := range result.Failures {
		fmt.Fprintf(w, "%-24s  %s\n", string(f.Kind), f.Message)
	}
	if len(result.Failures) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%s (%d checks)\n", result.Status, result.Checks)
}
