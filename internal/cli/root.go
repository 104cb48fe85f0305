package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/adx-tools/adx/internal/config"
	"github.com/adx-tools/adx/internal/logging"
)

// Build metadata, set via -ldflags at release time.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// runtime state shared by subcommands, populated in PersistentPreRunE
var (
	cfg config.Config
	log zerolog.Logger
)

// NewRootCmd builds the adx command tree.
func NewRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:   "adx",
		Short: "Exchange binary-analysis data between disassembly tools",
		Long: `adx moves analysis data (functions, symbol names, comments, structure
layouts) between disassembly tools through a versioned JSON interchange
format.

Each tool exports what it knows about a binary into an interchange
document; importing merges that document into another tool's database
without destroying work an analyst already did there: auto-generated
names lose to imported ones, user-assigned names win and conflicts are
reported instead of overwritten.

Offline, the same document can be inspected (query), edited
(add-function, add-comment), rebased (convert), or served to MCP
clients (serve) without either tool running.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			explicit := cmd.Flags().Changed("config")
			path := configPath
			if !explicit {
				path = config.DefaultPath()
			}

			var err error
			cfg, err = config.Load(path, explicit)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			log = logging.NewWithComponent(logging.Config{Level: cfg.LogLevel}, "adx")
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.adx/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newAddFunctionCmd())
	rootCmd.AddCommand(newAddVariableCmd())
	rootCmd.AddCommand(newAddCommentCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context so long-running commands can shut down cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
