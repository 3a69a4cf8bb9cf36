package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is injected at build time with
// -ldflags "-X github.com/timvw/vlm-bench/cmd.Version=v1.2.3".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vlm-bench version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
