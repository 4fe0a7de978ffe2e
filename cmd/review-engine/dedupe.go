package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/dedupe"
	"github.com/pdiddy/review-engine/internal/state"
	"github.com/pdiddy/review-engine/pkg/similarity"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Report likely duplicate record pairs",
	Long: `Dedupe scores prepared records pairwise within author/year blocks and
reports pairs at or above the similarity threshold, with per-field score
contributions. Nothing is merged; the report is the input to a manual
merge decision.`,
	RunE: runDedupe,
}

func init() {
	dedupeCmd.Flags().Float64("threshold", 0, "report pairs at or above this score (0 = settings value)")
	dedupeCmd.Flags().Bool("force", false, "run even when earlier stages have pending records")
	dedupeCmd.Flags().Bool("json", false, "output pairs as JSON")

	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, args []string) error {
	records, err := loadCollection()
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if !force {
		if err := state.CheckPrecondition(state.OpDedupe, records); err != nil {
			return err
		}
	}

	threshold, _ := cmd.Flags().GetFloat64("threshold")
	if threshold == 0 {
		threshold = settings.Similarity.Threshold
	}

	scorer := similarity.New(similarity.FromConfig(settings.Similarity))
	pairs := dedupe.Find(records, scorer, threshold, settings.Dedupe.YearWindow)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pairs)
	}

	dedupe.FormatPairs(os.Stdout, pairs, settings.Dedupe.SameSourcePolicy)
	return nil
}
