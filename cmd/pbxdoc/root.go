package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pbxdoc",
	Short: "Generate wiki documentation from a PBX configuration database",
	Long: `pbxdoc reads a PBX configuration database (live over SSH, or a
local SQLite snapshot) and renders every configured module - inbound routes,
extensions, IVRs, queues, ring groups and the rest - as cross-linked wiki
text.

Quick start:
  pbxdoc generate   # Write the documentation to a file
  pbxdoc serve      # Serve it over HTTP, regenerating on config changes

Inspection:
  pbxdoc modules    # List known modules and their record counts
  pbxdoc validate   # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "pbxdoc.yaml", "config file path")
}
