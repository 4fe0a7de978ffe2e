// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the review-engine CLI.
// Implements: prd001-records, prd002-quality, prd004-lifecycle,
//             prd005-consistency, prd006-snapshots, prd007-prescreen,
//             prd008-dedupe (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/review-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// settings holds the project configuration loaded at startup. Commands read
// it instead of touching viper directly.
var settings = types.DefaultSettings()

// rootCmd is the base command for the review-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "review-engine",
	Short: "Record integrity for literature reviews",
	Long: `review-engine keeps a literature review's record collection honest. It
imports search results into a status-tracked collection, evaluates metadata
quality against a field rule library, reports likely duplicates, applies
prescreening scope rules, and verifies cross-snapshot consistency before a
snapshot of the collection is saved.

Each stage is a subcommand: records, quality, dedupe, prescreen, check,
snapshot, and status. Project settings live in review-engine.yaml.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./review-engine.yaml or ~/.config/review-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("review-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "review-engine"))
		}
	}

	viper.SetEnvPrefix("REVIEW_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadSettings unmarshals the config file over the defaults, so absent keys
// keep their default values.
func loadSettings() error {
	if err := viper.Unmarshal(&settings); err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
