package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adx-tools/adx/internal/query"
)

// newQueryCmd creates the query command.
func newQueryCmd() *cobra.Command {
	var (
		before  int
		after   int
		around  int
		asJSON  bool
		lenient bool
	)

	cmd := &cobra.Command{
		Use:   "query FILE ADDRESS",
		Short: "Show the analysis data at and around an address",
		Long: `Query looks up an address in an interchange file and prints the
function, name, and comment data bound there, plus a configurable
window of neighboring entries. Addresses are hex (0x1000) or decimal.

An address with no data prints no_entry but still shows its neighbors,
so the window tells you where the address falls in the layout.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := query.ParseAddress(args[1])
			if err != nil {
				return err
			}

			model, err := readModel(args[0], decodeMode(lenient))
			if err != nil {
				return err
			}

			if around > 0 {
				before, after = around, around
			}

			result := query.NewIndex(model).Context(addr, before, after)

			if asJSON {
				return printResultJSON(cmd, result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), query.RenderHuman(result))
			return nil
		},
	}

	cmd.Flags().IntVarP(&before, "before", "B", 0, "Entries to show before the address")
	cmd.Flags().IntVarP(&after, "after", "A", 0, "Entries to show after the address")
	cmd.Flags().IntVarP(&around, "context", "C", 0, "Entries to show on both sides (overrides -B/-A)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Ignore unknown top-level keys in the input")

	return cmd
}

func printResultJSON(cmd *cobra.Command, r query.Result) error {
	type jsonEntry struct {
		Address string `json:"address"`
		Name    string `json:"name,omitempty"`
		Func    bool   `json:"function,omitempty"`
		Comment string `json:"comment,omitempty"`
		NoEntry bool   `json:"no_entry,omitempty"`
	}
	conv := func(e query.Entry) jsonEntry {
		return jsonEntry{
			Address: query.FormatAddress(e.Address),
			Name:    e.Name,
			Func:    e.Function,
			Comment: e.Comment,
			NoEntry: e.IsEmpty(),
		}
	}

	payload := struct {
		Address string      `json:"address"`
		Before  []jsonEntry `json:"before"`
		Current jsonEntry   `json:"current"`
		After   []jsonEntry `json:"after"`
	}{
		Address: query.FormatAddress(r.Address),
		Before:  []jsonEntry{},
		Current: conv(r.Current),
		After:   []jsonEntry{},
	}
	for _, e := range r.Before {
		payload.Before = append(payload.Before, conv(e))
	}
	for _, e := range r.After {
		payload.After = append(payload.After, conv(e))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
