package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/quality"
	"github.com/pdiddy/review-engine/internal/state"
)

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Evaluate metadata quality and update field provenance",
	Long: `Quality runs the field rule library over every record, writing defect
codes into masterdata provenance notes. Re-evaluation removes codes whose
conditions no longer hold, so the command is safe to repeat. Records
excluded in the prescreen are skipped.`,
	RunE: runQuality,
}

func init() {
	qualityCmd.Flags().Bool("allow-defects", false, "exit zero even when records carry defects")
	qualityCmd.Flags().Bool("force", false, "run even when earlier stages have pending records")

	rootCmd.AddCommand(qualityCmd)
}

func runQuality(cmd *cobra.Command, args []string) error {
	records, err := loadCollection()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return state.ErrNoRecords
	}

	force, _ := cmd.Flags().GetBool("force")
	if !force {
		if err := state.CheckPrecondition(state.OpPrep, records); err != nil {
			return err
		}
	}

	model := quality.New(settings.Quality)
	summary, evalErr := model.EvaluateAll(records, os.Stdout)

	// Records evaluated before a failure keep their annotations.
	if err := saveCollection(records); err != nil {
		return err
	}

	fmt.Printf("\nevaluated: %d, defective: %d, skipped: %d, failed: %d\n",
		summary.Evaluated, summary.Defective, summary.Skipped, summary.Failed)

	if evalErr != nil {
		return fmt.Errorf("%d record(s) failed evaluation: %w", summary.Failed, evalErr)
	}
	allowDefects, _ := cmd.Flags().GetBool("allow-defects")
	if summary.Defective > 0 && !allowDefects {
		return fmt.Errorf("%d record(s) carry quality defects; fix them or pass --allow-defects", summary.Defective)
	}
	return nil
}
