package cli

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/adx-tools/adx/internal/query"
	"github.com/adx-tools/adx/internal/rebase"
	"github.com/adx-tools/adx/pkg/types"
)

// newConvertCmd creates the convert command.
func newConvertCmd() *cobra.Command {
	var (
		outPath  string
		outDir   string
		baseAddr string
		lenient  bool
	)

	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Re-encode interchange files into canonical form",
		Long: `Convert decodes each input file and writes it back out in canonical
encoding: sorted keys, stable key order, stable indentation. Two
semantically equal documents always convert to identical bytes.

With --rebase every address is shifted onto the given base_address.
Multiple inputs are converted concurrently; use --out-dir to collect
the results, or --out for a single input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath != "" && len(args) > 1 {
				return fmt.Errorf("--out only applies to a single input, use --out-dir")
			}
			if outPath != "" && outDir != "" {
				return fmt.Errorf("--out and --out-dir are mutually exclusive")
			}

			var newBase uint64
			var doRebase bool
			if baseAddr != "" {
				b, err := query.ParseAddress(baseAddr)
				if err != nil {
					return err
				}
				newBase, doRebase = b, true
			}

			mode := decodeMode(lenient)
			g, _ := errgroup.WithContext(cmd.Context())
			g.SetLimit(runtime.NumCPU())

			for _, in := range args {
				in := in
				g.Go(func() error {
					model, err := readModel(in, mode)
					if err != nil {
						return fmt.Errorf("%s: %w", in, err)
					}
					if doRebase {
						if model, err = rebaseModel(model, newBase); err != nil {
							return fmt.Errorf("%s: %w", in, err)
						}
					}
					out := convertTarget(in, outPath, outDir)
					if err := writeModel(out, model); err != nil {
						return fmt.Errorf("%s: %w", in, err)
					}
					log.Debug().Str("in", in).Str("out", out).Msg("converted")
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			log.Info().Int("files", len(args)).Msg("convert complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Output file (single input only, default: rewrite in place)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for converted files (default: rewrite in place)")
	cmd.Flags().StringVar(&baseAddr, "rebase", "", "Shift all addresses onto this base_address")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Ignore unknown top-level keys in inputs")

	return cmd
}

func convertTarget(in, outPath, outDir string) string {
	if outPath != "" {
		return outPath
	}
	if outDir != "" {
		return filepath.Join(outDir, filepath.Base(in))
	}
	return in
}

// rebaseModel shifts every address in the document onto newBase. The whole
// document converts or none of it does.
func rebaseModel(m *types.RecordModel, newBase uint64) (*types.RecordModel, error) {
	norm := rebase.New(m.BaseAddress, newBase)

	out := types.NewRecordModel(m.BinaryID, newBase)

	for _, addr := range m.Functions {
		shifted, err := norm.ToCanonical(addr)
		if err != nil {
			return nil, err
		}
		out.AddFunction(shifted)
	}
	for addr, name := range m.Names {
		shifted, err := norm.ToCanonical(addr)
		if err != nil {
			return nil, err
		}
		out.Names[shifted] = name
	}
	for addr, comment := range m.Comments {
		shifted, err := norm.ToCanonical(addr)
		if err != nil {
			return nil, err
		}
		out.Comments[shifted] = comment
	}
	for id, members := range m.Structures {
		dup := make([]types.StructMember, len(members))
		copy(dup, members)
		out.Structures[id] = dup
	}
	return out, nil
}
