package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show collection progress and next operations",
	Long: `Status tallies the collection by lifecycle state and lists the
operations whose preconditions currently pass.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "output stats as JSON")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	records, err := loadCollection()
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		out := struct {
			Stats  status.Stats    `json:"stats"`
			Advice []status.Advice `json:"next_operations,omitempty"`
		}{status.Collect(records), status.Advise(records)}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	status.FormatTable(os.Stdout, records)
	return nil
}
