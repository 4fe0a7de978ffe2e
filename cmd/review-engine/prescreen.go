package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/prescreen"
	"github.com/pdiddy/review-engine/internal/state"
)

var prescreenCmd = &cobra.Command{
	Use:   "prescreen",
	Short: "Apply scope rules to processed records",
	Long: `Prescreen decides inclusion for records that completed preparation,
applying the scope rules declared in settings (entry types, year range,
outlets, complementary material). Excluded records carry their reasons in
the prescreen_exclusion field; records in other states are left alone.`,
	RunE: runPrescreen,
}

func init() {
	prescreenCmd.Flags().Bool("force", false, "run even when earlier stages have pending records")

	rootCmd.AddCommand(prescreenCmd)
}

func runPrescreen(cmd *cobra.Command, args []string) error {
	records, err := loadCollection()
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if !force {
		if err := state.CheckPrecondition(state.OpPrescreen, records); err != nil {
			return err
		}
	}

	prescreen.Apply(records, settings.Prescreen, os.Stdout)
	return saveCollection(records)
}
