package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
)

var (
	validatePhase    string
	validateEmployee string
	validateDate     string
	validateHours    float64
	validateJSON     bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a proposed assignment before committing it",
	Long: `Validate runs a proposed assignment through every conflict check:
availability, double booking, weekly hours, division, role, and
division capacity. Blocking conflicts mean the assignment should not
be made; warnings are advisory.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	date, err := time.Parse("2006-01-02", validateDate)
	if err != nil {
		return fmt.Errorf("parse --date: %w", err)
	}

	services, err := buildServices()
	if err != nil {
		return err
	}
	defer services.Close()

	result, err := services.Schedule.ValidateAssignment(cmd.Context(), validatePhase, validateEmployee, date, validateHours)
	if err != nil {
		return err
	}

	if validateJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if result.IsValid && len(result.Warnings) == 0 {
		fmt.Println("OK: no conflicts detected")
		return nil
	}
	if !result.IsValid {
		fmt.Printf("BLOCKED: %d conflict(s)\n", len(result.Conflicts))
		printConflicts(result.Conflicts)
	}
	if len(result.Warnings) > 0 {
		fmt.Printf("Warnings: %d\n", len(result.Warnings))
		printConflicts(result.Warnings)
	}
	return nil
}

func printConflicts(conflicts []conflict.Conflict) {
	for _, c := range conflicts {
		fmt.Printf("  [%s] %s: %s\n", c.Severity, c.Type, c.Message)
	}
}

func init() {
	validateCmd.Flags().StringVar(&validatePhase, "phase", "", "Phase ID to assign to")
	validateCmd.Flags().StringVar(&validateEmployee, "employee", "", "Employee ID to assign")
	validateCmd.Flags().StringVar(&validateDate, "date", "", "Assignment date (YYYY-MM-DD)")
	validateCmd.Flags().Float64Var(&validateHours, "hours", 8, "Hours to allocate")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
	validateCmd.MarkFlagRequired("phase")
	validateCmd.MarkFlagRequired("employee")
	validateCmd.MarkFlagRequired("date")
	RootCmd.AddCommand(validateCmd)
}
