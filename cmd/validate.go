package cmd

import (
	"os"

	"github.com/roomstack/sheetsync/internal"
	"github.com/roomstack/sheetsync/internal/exporter"
	"github.com/roomstack/sheetsync/internal/registry"
	"github.com/roomstack/sheetsync/internal/source"
	"github.com/roomstack/sheetsync/internal/util"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a schema version and its source rows without touching the database",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger(cmd)
		defer util.RecoverPanic(log)

		schemaDir := mustFlagString(cmd, "schema-dir", true)
		sourceDir := mustFlagString(cmd, "source-dir", true)
		exp := exporter.New(log,
			registry.NewFileRegistry(log, schemaDir),
			source.NewDirSource(log, sourceDir),
			syncConfig(log),
		)
		res := exp.Run(cmd.Context(), nil, nil, internal.SyncRequest{
			Version:  mustFlagString(cmd, "version", false),
			Strategy: internal.StrategyIncremental,
			DryRun:   true,
		})
		printResult(res)
		if !res.Success {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("version", "", "the schema version to validate (default latest)")
}
