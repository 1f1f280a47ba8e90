package cli

import (
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/felixgeelhaar/crewsched/internal/infrastructure/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the scheduling engine to MCP clients over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		server, err := mcpserver.NewServer(cwd)
		if err != nil {
			return err
		}
		return server.ServeStdio(cmd.Context())
	},
}

func init() {
	RootCmd.AddCommand(mcpCmd)
}
