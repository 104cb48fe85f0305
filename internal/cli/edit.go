package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adx-tools/adx/internal/query"
	"github.com/adx-tools/adx/pkg/types"
)

// editModel runs one in-place mutation of an interchange file: decode,
// apply, re-encode canonically. Edits always decode leniently so a file
// with extra keys can still be touched; unknown keys are dropped on the
// rewrite.
func editModel(path string, apply func(*types.RecordModel) error) error {
	model, err := readModel(path, decodeMode(true))
	if err != nil {
		return err
	}
	if err := apply(model); err != nil {
		return err
	}
	return writeModel(path, model)
}

// newAddFunctionCmd creates the add-function command.
func newAddFunctionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-function FILE ADDRESS [NAME]",
		Short: "Add a function start to an interchange file",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := query.ParseAddress(args[1])
			if err != nil {
				return err
			}
			return editModel(args[0], func(m *types.RecordModel) error {
				if m.HasFunction(addr) {
					return fmt.Errorf("function already present at %s", query.FormatAddress(addr))
				}
				m.AddFunction(addr)
				if len(args) == 3 {
					m.Names[addr] = args[2]
				}
				log.Info().Str("address", query.FormatAddress(addr)).Msg("function added")
				return nil
			})
		},
	}
	return cmd
}

// newAddVariableCmd creates the add-variable command.
func newAddVariableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-variable FILE ADDRESS NAME",
		Short: "Bind a name to an address in an interchange file",
		Long: `Add-variable binds a symbol name to an address. The address does not
have to be a function start; data symbols and labels live here too.
An existing name at the address is replaced.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := query.ParseAddress(args[1])
			if err != nil {
				return err
			}
			if args[2] == "" {
				return fmt.Errorf("name must not be empty")
			}
			return editModel(args[0], func(m *types.RecordModel) error {
				m.Names[addr] = args[2]
				log.Info().Str("address", query.FormatAddress(addr)).Str("name", args[2]).Msg("name bound")
				return nil
			})
		},
	}
	return cmd
}

// newAddCommentCmd creates the add-comment command.
func newAddCommentCmd() *cobra.Command {
	var appendTo bool

	cmd := &cobra.Command{
		Use:   "add-comment FILE ADDRESS COMMENT",
		Short: "Attach a comment to an address in an interchange file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := query.ParseAddress(args[1])
			if err != nil {
				return err
			}
			if args[2] == "" {
				return fmt.Errorf("comment must not be empty")
			}
			return editModel(args[0], func(m *types.RecordModel) error {
				existing, ok := m.Comments[addr]
				switch {
				case ok && appendTo && existing != args[2]:
					m.Comments[addr] = existing + "\n" + args[2]
				case ok && !appendTo && existing != args[2]:
					return fmt.Errorf("comment already present at %s, use --append to extend it", query.FormatAddress(addr))
				default:
					m.Comments[addr] = args[2]
				}
				log.Info().Str("address", query.FormatAddress(addr)).Msg("comment attached")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&appendTo, "append", false, "Append to an existing comment instead of failing")
	return cmd
}
