package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <fixture.json>",
	Short: "Load projects, phases, employees, and assignments from JSON",
	Long: `Import validates a JSON fixture against the schedule schema and
loads it into the database in one transaction.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	services, err := buildServices()
	if err != nil {
		return err
	}
	defer services.Close()

	if err := services.Store.ImportFile(cmd.Context(), args[0]); err != nil {
		return err
	}
	services.Conflicts.InvalidateScan()
	fmt.Printf("Imported %s\n", args[0])
	return nil
}

func init() {
	RootCmd.AddCommand(importCmd)
}
