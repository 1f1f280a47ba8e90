package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Sweep the whole schedule for conflicts",
	Long: `Scan runs every conflict check over all active projects: staffing
per phase, division capacity over the next 30 days, and per-employee
booking, hours, availability, and role checks.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	services, err := buildServices()
	if err != nil {
		return err
	}
	defer services.Close()

	conflicts, err := services.Conflicts.ScanAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if scanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(conflicts)
	}

	if len(conflicts) == 0 {
		fmt.Println("No conflicts detected")
		return nil
	}

	bySeverity := map[conflict.Severity][]conflict.Conflict{}
	for _, c := range conflicts {
		bySeverity[c.Severity] = append(bySeverity[c.Severity], c)
	}
	order := []conflict.Severity{
		conflict.SeverityCritical, conflict.SeverityHigh,
		conflict.SeverityMedium, conflict.SeverityLow,
	}
	fmt.Printf("%d conflict(s) detected\n", len(conflicts))
	for _, sev := range order {
		group := bySeverity[sev]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		for _, c := range group {
			fmt.Printf("  [%s] %s %s: %s\n", c.Severity, c.ID[:8], c.Type, c.Message)
		}
	}
	return nil
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(scanCmd)
}
