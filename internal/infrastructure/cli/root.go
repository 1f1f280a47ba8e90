// Package cli implements the crewsched command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crewsched/internal/infrastructure/wiring"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "crewsched",
	Version: Version,
	Short:   "Crew scheduling conflict detection and resolution",
	Long: `Crewsched keeps field crews schedulable across divisions.
It answers three questions:
1. Is this assignment safe to make?
2. Where is the schedule already broken?
3. What is the cheapest way to fix it?`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

// buildServices wires the application services for the current directory.
func buildServices() (*wiring.AppServices, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return wiring.BuildAppServices(cwd)
}
