package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/roomstack/sheetsync/internal/registry"
	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the available schema versions",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger(cmd)
		schemaDir := mustFlagString(cmd, "schema-dir", true)
		reg := registry.NewFileRegistry(log, schemaDir)
		versions, err := reg.Versions()
		if err != nil {
			log.Error("%s", err)
			os.Exit(1)
		}
		if len(versions) == 0 {
			fmt.Println("no schema versions found")
			return
		}
		for i, version := range versions {
			if i == len(versions)-1 {
				color.Green("%s (latest)", version)
			} else {
				fmt.Println(version)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}
