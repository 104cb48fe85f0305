package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adx-tools/adx/internal/mcp"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var (
		filePath string
		lenient  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an interchange file over MCP stdio",
		Long: `Serve loads an interchange file and exposes it to MCP clients over
stdio. Clients get tools to query address context, list functions, and
read document metadata. The file is read once at startup; edits made
while the server runs are not visible to it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filePath == "" {
				return fmt.Errorf("--file is required")
			}

			srv, err := mcp.NewServer(filePath, decodeMode(lenient), log)
			if err != nil {
				return err
			}

			log.Info().Str("file", filePath).Msg("starting MCP server on stdio")
			return srv.Serve()
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Interchange file to serve")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Ignore unknown top-level keys in the file")

	return cmd
}
