package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adx-tools/adx/internal/host"
	"github.com/adx-tools/adx/internal/host/sqlitedb"
	"github.com/adx-tools/adx/internal/importer"
	"github.com/adx-tools/adx/internal/query"
	"github.com/adx-tools/adx/pkg/types"
)

// newImportCmd creates the import command.
func newImportCmd() *cobra.Command {
	var (
		dbPath      string
		inPath      string
		baseAddr    string
		policy      string
		concat      bool
		lenient     bool
		summaryJSON bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Merge an interchange file into a SQLite analysis database",
		Long: `Import decodes an interchange document, rebases every address from
the document's base_address onto the database's image base, and merges
functions, names, comments, and structures into the database.

Conflicts with user-assigned names and differing comments are recorded
in the run summary instead of being silently resolved; use --policy to
choose skip or overwrite behavior.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" || inPath == "" {
				return fmt.Errorf("--db and --in are required")
			}

			model, err := readModel(inPath, decodeMode(lenient))
			if err != nil {
				return err
			}

			db, err := sqlitedb.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			ctx := cmd.Context()
			opts := importer.Options{
				Policy:         policyOrDefault(policy),
				ConcatComments: concat || cfg.ConcatComments,
			}

			if baseAddr != "" {
				if opts.DestinationBase, err = query.ParseAddress(baseAddr); err != nil {
					return err
				}
			} else if stored, err := db.GetMeta(ctx, sqlitedb.MetaBaseAddress); err == nil {
				if opts.DestinationBase, err = query.ParseAddress(stored); err != nil {
					return fmt.Errorf("stored base_address is invalid: %w", err)
				}
			} else if !errors.Is(err, host.ErrNotFound) {
				return err
			}

			warnBinaryMismatch(ctx, db, model)

			summary, err := importer.New(db).Import(ctx, model, opts)
			if err != nil {
				if summary != nil && summaryJSON {
					printSummaryJSON(cmd, summary)
				}
				return err
			}

			if summaryJSON {
				printSummaryJSON(cmd, summary)
			} else {
				printSummary(cmd, summary)
			}

			log.Info().
				Str("run_id", summary.RunID).
				Int("conflicts", summary.TotalConflicts()).
				Int("failed", summary.TotalFailed()).
				Msg("import complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite analysis database to merge into")
	cmd.Flags().StringVar(&inPath, "in", "", "Interchange file to import")
	cmd.Flags().StringVar(&baseAddr, "base", "", "Image base of the database (default: stored base)")
	cmd.Flags().StringVar(&policy, "policy", "", "Conflict policy: skip, overwrite, or report")
	cmd.Flags().BoolVar(&concat, "concat-comments", false, "Concatenate differing comments instead of reporting")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Ignore unknown top-level keys in the input")
	cmd.Flags().BoolVar(&summaryJSON, "summary-json", false, "Print the run summary as JSON")

	return cmd
}

func policyOrDefault(flag string) types.Policy {
	if flag != "" {
		return types.Policy(flag)
	}
	if cfg.Policy != "" {
		return cfg.Policy
	}
	return types.PolicyReport
}

// warnBinaryMismatch compares the document's binary_identifier against the
// database's stored one. A mismatch is advisory only.
func warnBinaryMismatch(ctx context.Context, db *sqlitedb.DB, model *types.RecordModel) {
	if model.BinaryID == "" {
		return
	}
	stored, err := db.GetMeta(ctx, sqlitedb.MetaBinaryID)
	if err != nil || stored == "" {
		return
	}
	if stored != model.BinaryID {
		log.Warn().
			Str("document", model.BinaryID).
			Str("database", stored).
			Msg("binary identifier mismatch, metadata may be from a different binary")
	}
}

func printSummary(cmd *cobra.Command, s *types.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s finished in %s\n", s.RunID, s.Duration)
	fmt.Fprintf(out, "functions: %d created, %d already present, %d skipped, %d failed\n",
		s.Functions.Created, s.Functions.AlreadyPresent, s.Functions.Skipped, s.Functions.Failed)
	fmt.Fprintf(out, "names:     %d applied, %d overwritten, %d conflicts, %d skipped, %d failed\n",
		s.Names.Applied, s.Names.Overwritten, s.Names.Conflicts, s.Names.Skipped, s.Names.Failed)
	fmt.Fprintf(out, "comments:  %d applied, %d overwritten, %d concatenated, %d conflicts, %d skipped, %d failed\n",
		s.Comments.Applied, s.Comments.Overwritten, s.Comments.Concatenated, s.Comments.Conflicts, s.Comments.Skipped, s.Comments.Failed)
	fmt.Fprintf(out, "structs:   %d created, %d members added, %d matched, %d conflicts, %d skipped, %d failed\n",
		s.Structures.Created, s.Structures.MembersAdded, s.Structures.Matched, s.Structures.Conflicts, s.Structures.Skipped, s.Structures.Failed)
	for _, c := range s.Conflicts {
		fmt.Fprintf(out, "conflict [%s] %s: existing %q, incoming %q\n", c.Kind, conflictSubject(c), c.Existing, c.Incoming)
	}
	for _, e := range s.Errors {
		fmt.Fprintf(out, "error [%s] %s: %s\n", e.Category, query.FormatAddress(e.Address), e.Message)
	}
}

func conflictSubject(c types.Conflict) string {
	if c.StructID != "" {
		return fmt.Sprintf("%s+%#x", c.StructID, c.Offset)
	}
	return query.FormatAddress(c.Address)
}

func printSummaryJSON(cmd *cobra.Command, s *types.Summary) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		log.Error().Err(err).Msg("failed to encode summary")
	}
}
