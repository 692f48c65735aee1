package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version, gitHash, and buildTime are populated via -ldflags at build time,
// the same injection point packetd's common.BuildInfo uses.
var (
	version   = "dev"
	gitHash   = "none"
	buildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mxresolved %s (commit %s, built %s)\n", version, gitHash, buildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
