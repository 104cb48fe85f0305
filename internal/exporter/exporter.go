package exporter

import (
	"context"
	"errors"
	"fmt"

	"github.com/adx-tools/adx/internal/host"
	"github.com/adx-tools/adx/internal/rebase"
	"github.com/adx-tools/adx/pkg/types"
)

// Options configures one export run.
type Options struct {
	// SourceBase is the image base the source database's addresses are
	// relative to (the tool-local numbering).
	SourceBase uint64
	// CanonicalBase becomes the document's base_address; every exported
	// address is rebased onto it.
	CanonicalBase uint64
	// BinaryID identifies the analyzed binary, advisory only.
	BinaryID string
}

// Report collects per-entry export problems. An address that cannot be
// rebased is skipped and recorded here; it never aborts the run.
type Report struct {
	Skipped []types.EntryError
}

func (r *Report) skip(category string, addr uint64, err error) {
	r.Skipped = append(r.Skipped, types.EntryError{
		Category: category,
		Address:  addr,
		Message:  err.Error(),
	})
}

// Exporter walks a source database and populates a record model. It only
// reads; the source is never mutated.
type Exporter struct {
	db host.Database
}

// New creates an Exporter over the given source database.
func New(db host.Database) *Exporter {
	return &Exporter{db: db}
}

// Export produces a fresh record model from the source database. Every
// category is enumerated; categories with no entries come out empty, not
// absent, so importers never distinguish "no data" from "missing".
func (e *Exporter) Export(ctx context.Context, opts Options) (*types.RecordModel, *Report, error) {
	model := types.NewRecordModel(opts.BinaryID, opts.CanonicalBase)
	report := &Report{}
	norm := rebase.New(opts.SourceBase, opts.CanonicalBase)

	if err := e.exportFunctions(ctx, norm, model, report); err != nil {
		return nil, nil, err
	}
	if err := e.exportNamesAndComments(ctx, norm, model, report); err != nil {
		return nil, nil, err
	}
	if err := e.exportStructures(ctx, model); err != nil {
		return nil, nil, err
	}
	return model, report, nil
}

func (e *Exporter) exportFunctions(ctx context.Context, norm rebase.Normalizer, model *types.RecordModel, report *Report) error {
	addrs, err := e.db.ListFunctions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list functions: %w", err)
	}
	for _, addr := range addrs {
		canonical, err := norm.ToCanonical(addr)
		if err != nil {
			report.skip("functions", addr, err)
			continue
		}
		model.AddFunction(canonical)
	}
	return nil
}

// exportNamesAndComments queries the name and comment at every candidate
// address: all function starts, plus everything an AddressSource adapter
// can enumerate beyond them.
func (e *Exporter) exportNamesAndComments(ctx context.Context, norm rebase.Normalizer, model *types.RecordModel, report *Report) error {
	addrs, err := e.candidateAddresses(ctx)
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		canonical, rebaseErr := norm.ToCanonical(addr)

		if name, err := e.db.GetName(ctx, addr); err == nil {
			if rebaseErr != nil {
				report.skip("names", addr, rebaseErr)
			} else {
				model.Names[canonical] = name.Value
			}
		} else if !errors.Is(err, host.ErrNotFound) {
			return fmt.Errorf("failed to get name at 0x%x: %w", addr, err)
		}

		if text, err := e.db.GetComment(ctx, addr); err == nil {
			if rebaseErr != nil {
				report.skip("comments", addr, rebaseErr)
			} else {
				model.Comments[canonical] = text
			}
		} else if !errors.Is(err, host.ErrNotFound) {
			return fmt.Errorf("failed to get comment at 0x%x: %w", addr, err)
		}
	}
	return nil
}

// AddressSource is an optional host capability: adapters that can enumerate
// every named or commented address implement it so the export covers data
// bound outside function starts.
type AddressSource interface {
	ListNamedAddresses(ctx context.Context) ([]uint64, error)
	ListCommentedAddresses(ctx context.Context) ([]uint64, error)
}

func (e *Exporter) candidateAddresses(ctx context.Context) ([]uint64, error) {
	seen := map[uint64]struct{}{}

	funcs, err := e.db.ListFunctions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list functions: %w", err)
	}
	for _, addr := range funcs {
		seen[addr] = struct{}{}
	}

	if src, ok := e.db.(AddressSource); ok {
		named, err := src.ListNamedAddresses(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list named addresses: %w", err)
		}
		for _, addr := range named {
			seen[addr] = struct{}{}
		}
		commented, err := src.ListCommentedAddresses(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list commented addresses: %w", err)
		}
		for _, addr := range commented {
			seen[addr] = struct{}{}
		}
	}

	addrs := make([]uint64, 0, len(seen))
	for addr := range seen {
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func (e *Exporter) exportStructures(ctx context.Context, model *types.RecordModel) error {
	ids, err := e.db.ListStructures(ctx)
	if err != nil {
		return fmt.Errorf("failed to list structures: %w", err)
	}
	for _, id := range ids {
		members, err := e.db.GetStructure(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get structure %q: %w", id, err)
		}
		model.Structures[id] = members
	}
	return nil
}
