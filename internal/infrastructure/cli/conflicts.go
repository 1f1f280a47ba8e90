package cli

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crewsched/internal/infrastructure/tui"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Browse conflicts and apply resolutions interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := buildServices()
		if err != nil {
			return err
		}
		defer services.Close()

		return tui.Run(services.Conflicts, services.Resolution)
	},
}

func init() {
	RootCmd.AddCommand(conflictsCmd)
}
