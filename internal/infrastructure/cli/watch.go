package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crewsched/internal/infrastructure/watch"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-scan for conflicts whenever the schedule data changes",
	Long: `Watch monitors the database file for external writes and re-runs
the conflict sweep when it settles, printing newly detected conflicts.
Configured webhooks fire on each sweep that finds conflicts.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	services, err := buildServices()
	if err != nil {
		return err
	}
	defer services.Close()

	ctx := cmd.Context()
	rescan := make(chan struct{}, 1)

	watcher, err := watch.NewDataWatcher([]string{services.DatabasePath}, watchInterval, func(string) {
		services.Conflicts.InvalidateScan()
		select {
		case rescan <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() { errc <- watcher.Run(ctx) }()

	fmt.Printf("Watching %s (ctrl-c to stop)\n", services.DatabasePath)
	scan := func() {
		conflicts, err := services.Conflicts.ScanAll(ctx)
		if err != nil {
			fmt.Printf("%s scan failed: %v\n", time.Now().Format(time.TimeOnly), err)
			return
		}
		fmt.Printf("%s %d conflict(s)\n", time.Now().Format(time.TimeOnly), len(conflicts))
		printConflicts(conflicts)
	}
	scan()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case <-rescan:
			scan()
		}
	}
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "settle", 0, "Debounce window for change bursts (default 500ms)")
	RootCmd.AddCommand(watchCmd)
}
