package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adx-tools/adx/internal/host/sqlitedb"
	"github.com/adx-tools/adx/pkg/types"
)

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "adx %s\n", Version)
			if BuildTime != "" {
				fmt.Fprintf(out, "built:          %s\n", BuildTime)
			}
			fmt.Fprintf(out, "schema version: %d\n", types.CurrentSchemaVersion)
			fmt.Fprintf(out, "sqlite driver:  %s (%s)\n", sqlitedb.DriverName, sqlitedb.BuildMode)
		},
	}
}
