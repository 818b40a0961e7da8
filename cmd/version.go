package cmd

import (
	"fmt"

	"github.com/penwern/geomodel-harvest/pkg/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display version, build time, and commit information for gmharvest.`,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Version:    %s\n", version.Version())
		fmt.Fprintf(out, "Commit:     %s\n", version.Commit())
		fmt.Fprintf(out, "Built:      %s\n", version.BuildTime())
		fmt.Fprintf(out, "Identifier: %s\n", version.Identifier())
	},
}
