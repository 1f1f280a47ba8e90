package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	criticalPathProject string
	criticalPathJSON    bool

	phaseShiftEnd string

	phaseDepsList string
)

var criticalPathCmd = &cobra.Command{
	Use:   "critical-path",
	Short: "Compute the critical path through a project's phases",
	Long: `Critical-path runs the forward and backward pass over a project's
dependency graph. Phases with zero slack cannot slip without moving
the project end date.`,
	RunE: runCriticalPath,
}

var phaseCmd = &cobra.Command{
	Use:   "phase",
	Short: "Manage individual phases",
}

var phaseStatusCmd = &cobra.Command{
	Use:   "status <phase-id> <event>",
	Short: "Transition a phase (start, complete, delay, block, unblock, reopen)",
	Args:  cobra.ExactArgs(2),
	RunE:  runPhaseStatus,
}

var phaseShiftCmd = &cobra.Command{
	Use:   "shift <phase-id>",
	Short: "Move a phase's end date and cascade dependent phases",
	Args:  cobra.ExactArgs(1),
	RunE:  runPhaseShift,
}

var phaseDepsCmd = &cobra.Command{
	Use:   "deps <phase-id>",
	Short: "Replace a phase's dependencies after cycle validation",
	Args:  cobra.ExactArgs(1),
	RunE:  runPhaseDeps,
}

func runCriticalPath(cmd *cobra.Command, args []string) error {
	services, err := buildServices()
	if err != nil {
		return err
	}
	defer services.Close()

	nodes, err := services.Schedule.CriticalPath(cmd.Context(), criticalPathProject)
	if err != nil {
		return fmt.Errorf("critical path: %w", err)
	}

	if criticalPathJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(nodes)
	}

	fmt.Printf("Critical path for project %s\n", criticalPathProject)
	for _, n := range nodes {
		marker := " "
		if n.OnCriticalPath {
			marker = "*"
		}
		fmt.Printf("%s %-24s ES=%5.1f EF=%5.1f LS=%5.1f LF=%5.1f slack=%5.1f\n",
			marker, n.Phase.Name, n.EarliestStart, n.EarliestFinish,
			n.LatestStart, n.LatestFinish, n.Slack)
	}
	fmt.Println("\n* = on critical path")
	return nil
}

func runPhaseStatus(cmd *cobra.Command, args []string) error {
	services, err := buildServices()
	if err != nil {
		return err
	}
	defer services.Close()

	if err := services.Schedule.TransitionPhase(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	services.Conflicts.InvalidateScan()
	fmt.Printf("Phase %s: %s applied\n", args[0], args[1])
	return nil
}

func runPhaseShift(cmd *cobra.Command, args []string) error {
	newEnd, err := time.Parse("2006-01-02", phaseShiftEnd)
	if err != nil {
		return fmt.Errorf("parse --end: %w", err)
	}

	services, err := buildServices()
	if err != nil {
		return err
	}
	defer services.Close()

	adjustments, err := services.Schedule.AdjustDependentDates(cmd.Context(), args[0], newEnd)
	if err != nil {
		return err
	}
	services.Conflicts.InvalidateScan()

	if len(adjustments) == 0 {
		fmt.Println("No dependent phases needed adjusting")
		return nil
	}
	fmt.Printf("%d dependent phase(s) adjusted:\n", len(adjustments))
	for _, a := range adjustments {
		fmt.Printf("  %s: %s - %s\n", a.PhaseID,
			a.NewStart.Format("2006-01-02"), a.NewEnd.Format("2006-01-02"))
	}
	return nil
}

func runPhaseDeps(cmd *cobra.Command, args []string) error {
	services, err := buildServices()
	if err != nil {
		return err
	}
	defer services.Close()

	var deps []string
	if phaseDepsList != "" {
		for _, d := range strings.Split(phaseDepsList, ",") {
			if d = strings.TrimSpace(d); d != "" {
				deps = append(deps, d)
			}
		}
	}

	if err := services.Schedule.UpdateDependencies(cmd.Context(), args[0], deps); err != nil {
		return err
	}
	services.Conflicts.InvalidateScan()
	fmt.Printf("Phase %s now depends on %d phase(s)\n", args[0], len(deps))
	return nil
}

func init() {
	criticalPathCmd.Flags().StringVar(&criticalPathProject, "project", "", "Project ID")
	criticalPathCmd.Flags().BoolVar(&criticalPathJSON, "json", false, "Output in JSON format")
	criticalPathCmd.MarkFlagRequired("project")

	phaseShiftCmd.Flags().StringVar(&phaseShiftEnd, "end", "", "New end date (YYYY-MM-DD)")
	phaseShiftCmd.MarkFlagRequired("end")

	phaseDepsCmd.Flags().StringVar(&phaseDepsList, "on", "", "Comma-separated dependency phase IDs (empty clears)")

	phaseCmd.AddCommand(phaseStatusCmd)
	phaseCmd.AddCommand(phaseShiftCmd)
	phaseCmd.AddCommand(phaseDepsCmd)

	RootCmd.AddCommand(criticalPathCmd)
	RootCmd.AddCommand(phaseCmd)
}
