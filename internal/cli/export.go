package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeebo/xxh3"

	"github.com/adx-tools/adx/internal/exporter"
	"github.com/adx-tools/adx/internal/host"
	"github.com/adx-tools/adx/internal/host/sqlitedb"
	"github.com/adx-tools/adx/internal/query"
)

// newExportCmd creates the export command.
func newExportCmd() *cobra.Command {
	var (
		dbPath     string
		outPath    string
		sourceBase string
		baseAddr   string
		binaryPath string
		binaryID   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an analysis database to an interchange file",
		Long: `Export walks a SQLite analysis database and writes every function
start, symbol name, comment, and structure definition into a canonical
interchange document.

The document's base_address defaults to the database's stored image
base; --base rebases all exported addresses onto a different origin.

Examples:
  # Export with the stored image base
  adx export --db game.sqlite --out game.json

  # Rebase onto 0 and stamp the binary hash
  adx export --db game.sqlite --out game.json --base 0 --binary game.elf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" || outPath == "" {
				return fmt.Errorf("--db and --out are required")
			}

			db, err := sqlitedb.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			ctx := cmd.Context()
			opts := exporter.Options{}

			if sourceBase != "" {
				if opts.SourceBase, err = query.ParseAddress(sourceBase); err != nil {
					return err
				}
			} else if stored, err := db.GetMeta(ctx, sqlitedb.MetaBaseAddress); err == nil {
				if opts.SourceBase, err = query.ParseAddress(stored); err != nil {
					return fmt.Errorf("stored base_address is invalid: %w", err)
				}
			} else if !errors.Is(err, host.ErrNotFound) {
				return err
			}

			opts.CanonicalBase = opts.SourceBase
			if baseAddr != "" {
				if opts.CanonicalBase, err = query.ParseAddress(baseAddr); err != nil {
					return err
				}
			}

			opts.BinaryID, err = resolveBinaryID(cmd, db, binaryID, binaryPath)
			if err != nil {
				return err
			}

			model, report, err := exporter.New(db).Export(ctx, opts)
			if err != nil {
				return err
			}
			for _, skipped := range report.Skipped {
				log.Warn().
					Str("category", skipped.Category).
					Str("address", query.FormatAddress(skipped.Address)).
					Str("reason", skipped.Message).
					Msg("entry not exportable, skipped")
			}

			if err := writeModel(outPath, model); err != nil {
				return err
			}

			log.Info().
				Str("out", outPath).
				Int("functions", len(model.Functions)).
				Int("names", len(model.Names)).
				Int("comments", len(model.Comments)).
				Int("structures", len(model.Structures)).
				Int("skipped", len(report.Skipped)).
				Msg("export complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite analysis database to export from")
	cmd.Flags().StringVar(&outPath, "out", "", "Output interchange file")
	cmd.Flags().StringVar(&sourceBase, "source-base", "", "Image base of the database addresses (default: stored base)")
	cmd.Flags().StringVar(&baseAddr, "base", "", "base_address for the document (default: source base)")
	cmd.Flags().StringVar(&binaryPath, "binary", "", "Binary file to hash into binary_identifier")
	cmd.Flags().StringVar(&binaryID, "binary-id", "", "Explicit binary_identifier (overrides --binary)")

	return cmd
}

// resolveBinaryID picks the identifier: explicit flag, hashed binary, then
// whatever the database has stored.
func resolveBinaryID(cmd *cobra.Command, db *sqlitedb.DB, explicit, binaryPath string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if binaryPath != "" {
		data, err := os.ReadFile(binaryPath)
		if err != nil {
			return "", fmt.Errorf("failed to read binary %s: %w", binaryPath, err)
		}
		return fmt.Sprintf("xxh3:%016x", xxh3.Hash(data)), nil
	}
	stored, err := db.GetMeta(cmd.Context(), sqlitedb.MetaBinaryID)
	if errors.Is(err, host.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return stored, nil
}
