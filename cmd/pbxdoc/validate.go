package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pbxtools/pbxdoc/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		fmt.Println("Configuration valid")
		fmt.Printf("  Database driver: %s\n", cfg.Database.Driver)
		if cfg.PBX.Host != "" {
			fmt.Printf("  PBX host:        %s\n", cfg.PBX.Host)
		}
		fmt.Printf("  Page scraping:   %t\n", cfg.PBX.ScrapePages)
		fmt.Printf("  Output:          %s\n", cfg.Output.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
