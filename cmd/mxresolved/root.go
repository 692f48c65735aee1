// Package main is the mxresolved entrypoint: a cobra CLI wiring config,
// logging, metrics, the resolver adapter, and the orchestrator dispatch
// loop behind a "serve" subcommand, in the shape packetd's cmd package
// wires its own agent/log/watch subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mxresolved",
	Short: "MX/DNS resolution core for mail transfer agents",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "mxresolved.yaml", "Configuration file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
