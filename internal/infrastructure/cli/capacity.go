package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crewsched/internal/domain/capacity"
	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

var (
	capacityDivision string
	capacityFrom     string
	capacityTo       string
	capacityForecast bool
	capacityCritical bool
	capacityJSON     bool
)

var capacityCmd = &cobra.Command{
	Use:   "capacity",
	Short: "Show division capacity, forecasts, and critical periods",
	Long: `Capacity compares available labor hours against required and
assigned hours for one division over a date window. --forecast breaks
the window into calendar months; --critical lists only months at or
above the configured utilization threshold.`,
	RunE: runCapacity,
}

func runCapacity(cmd *cobra.Command, args []string) error {
	division := schedule.Division(capacityDivision)
	from, err := time.Parse("2006-01-02", capacityFrom)
	if err != nil {
		return fmt.Errorf("parse --from: %w", err)
	}
	to, err := time.Parse("2006-01-02", capacityTo)
	if err != nil {
		return fmt.Errorf("parse --to: %w", err)
	}

	services, err := buildServices()
	if err != nil {
		return err
	}
	defer services.Close()

	ctx := cmd.Context()
	var windows []capacity.DivisionCapacity
	switch {
	case capacityCritical:
		windows, err = services.Capacity.CriticalPeriods(ctx, division, from, to, services.CriticalThresholdPct)
	case capacityForecast:
		windows, err = services.Capacity.Forecast(ctx, division, from, to)
	default:
		var window capacity.DivisionCapacity
		window, err = services.Capacity.DivisionCapacity(ctx, division, from, to)
		windows = []capacity.DivisionCapacity{window}
	}
	if err != nil {
		return err
	}

	if capacityJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(windows)
	}

	if capacityCritical && len(windows) == 0 {
		fmt.Printf("No critical periods for %s (threshold %.0f%%)\n", division, services.CriticalThresholdPct)
		return nil
	}

	for _, w := range windows {
		fmt.Printf("%s  %s - %s\n", w.Division,
			w.PeriodStart.Format("2006-01-02"), w.PeriodEnd.Format("2006-01-02"))
		fmt.Printf("  available %.0fh  required %.0fh  assigned %.0fh\n",
			w.AvailableHours, w.RequiredHours, w.AssignedHours)
		fmt.Printf("  utilization %.1f%%", w.UtilizationPct)
		if w.Deficit > 0 {
			fmt.Printf("  deficit %.0fh", w.Deficit)
		}
		fmt.Println()
	}
	return nil
}

func init() {
	capacityCmd.Flags().StringVar(&capacityDivision, "division", "", "Division (e.g. plumbing_multifamily)")
	capacityCmd.Flags().StringVar(&capacityFrom, "from", "", "Window start (YYYY-MM-DD)")
	capacityCmd.Flags().StringVar(&capacityTo, "to", "", "Window end (YYYY-MM-DD)")
	capacityCmd.Flags().BoolVar(&capacityForecast, "forecast", false, "Break the window into calendar months")
	capacityCmd.Flags().BoolVar(&capacityCritical, "critical", false, "Only show months at or above the critical threshold")
	capacityCmd.Flags().BoolVar(&capacityJSON, "json", false, "Output in JSON format")
	capacityCmd.MarkFlagRequired("division")
	capacityCmd.MarkFlagRequired("from")
	capacityCmd.MarkFlagRequired("to")
	RootCmd.AddCommand(capacityCmd)
}
