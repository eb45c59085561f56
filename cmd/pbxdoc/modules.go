package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pbxtools/pbxdoc/config"
	"github.com/pbxtools/pbxdoc/ports"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List known modules and their record counts",
	Long: `Connect to the configuration database and print every registered
module, how many records it holds, and whether it appears in the generated
document (some modules exist only as cross-reference targets).`,
	RunE: runModules,
}

func init() {
	rootCmd.AddCommand(modulesCmd)
}

func runModules(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	rt, err := buildRuntime(cmd.Context(), cfg, ports.ProgressSink{}, logger, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODULE\tDESCRIPTION\tRECORDS\tDOCUMENTED")
	for _, m := range rt.svc.Modules(cmd.Context()) {
		documented := "yes"
		if !m.Documented {
			documented = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", m.Name, m.Description, m.Records, documented)
	}
	return w.Flush()
}
