package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adx-tools/adx/internal/host"
	"github.com/adx-tools/adx/internal/rebase"
	"github.com/adx-tools/adx/pkg/types"
)

// Options configures one import run.
type Options struct {
	// DestinationBase is the image base of the destination database;
	// canonical document addresses are rebased onto it.
	DestinationBase uint64
	// Policy decides the fate of entries colliding with destination user
	// data. Defaults to types.PolicyReport.
	Policy types.Policy
	// ConcatComments appends an imported comment below a differing existing
	// one instead of treating the pair as a conflict.
	ConcatComments bool
}

// Importer applies a decoded record model to a destination database,
// category by category, collecting per-entry failures and conflicts into a
// summary instead of aborting on them.
type Importer struct {
	db host.Database
}

// New creates an Importer over the given destination database.
func New(db host.Database) *Importer {
	return &Importer{db: db}
}

// Import runs the merge: Validating, then functions, names, comments, and
// structures in order. A summary accompanies every run that got as far as
// building one; on a fatal validation error it comes back in StageFailed
// with zero mutations applied. Per-entry failures never abort the run.
func (imp *Importer) Import(ctx context.Context, model *types.RecordModel, opts Options) (*types.Summary, error) {
	if opts.Policy == "" {
		opts.Policy = types.PolicyReport
	}
	if !types.ValidPolicy(opts.Policy) {
		return nil, fmt.Errorf("invalid conflict policy %q", opts.Policy)
	}
	if model == nil {
		return nil, &types.MalformedDataError{Field: "model", Reason: "nil record model"}
	}

	start := time.Now()
	summary := &types.Summary{
		RunID:    uuid.NewString(),
		BinaryID: model.BinaryID,
		Stage:    types.StageLoaded,
	}

	summary.Stage = types.StageValidating
	badStructs, err := validate(model, summary)
	if err != nil {
		summary.Stage = types.StageFailed
		summary.Duration = time.Since(start)
		return summary, err
	}

	norm := rebase.New(opts.DestinationBase, model.BaseAddress)

	summary.Stage = types.StageApplyingFunctions
	imp.applyFunctions(ctx, model, norm, summary)

	summary.Stage = types.StageApplyingNames
	imp.applyNames(ctx, model, norm, opts, summary)

	summary.Stage = types.StageApplyingComments
	imp.applyComments(ctx, model, norm, opts, summary)

	summary.Stage = types.StageApplyingStructures
	imp.applyStructures(ctx, model, opts, summary, badStructs)

	summary.Stage = types.StageSummarized
	summary.Duration = time.Since(start)
	return summary, nil
}

// validate rejects a structurally broken model outright and flags individual
// structures with duplicate member offsets so the structure pass skips them.
func validate(model *types.RecordModel, summary *types.Summary) (map[string]bool, error) {
	if model.SchemaVersion != types.CurrentSchemaVersion {
		return nil, &types.SchemaError{Reason: fmt.Sprintf("unsupported schema_version %d", model.SchemaVersion)}
	}
	if model.Functions == nil || model.Names == nil || model.Comments == nil || model.Structures == nil {
		return nil, &types.MalformedDataError{Field: "model", Reason: "nil category container"}
	}

	bad := map[string]bool{}
	for _, id := range model.SortedStructureIDs() {
		seen := map[uint64]struct{}{}
		for _, member := range model.Structures[id] {
			if _, dup := seen[member.Offset]; dup {
				bad[id] = true
				summary.Structures.Failed++
				summary.Errors = append(summary.Errors, types.EntryError{
					Category: "structures",
					StructID: id,
					Message:  fmt.Sprintf("duplicate member offset %d", member.Offset),
				})
				break
			}
			seen[member.Offset] = struct{}{}
		}
	}
	return bad, nil
}

func (imp *Importer) applyFunctions(ctx context.Context, model *types.RecordModel, norm rebase.Normalizer, summary *types.Summary) {
	for _, canonical := range model.Functions {
		local, err := norm.ToLocal(canonical)
		if err != nil {
			summary.Functions.Skipped++
			summary.Errors = append(summary.Errors, entryError("functions", canonical, err))
			continue
		}

		err = imp.db.CreateFunction(ctx, local)
		switch {
		case err == nil:
			summary.Functions.Created++
		case errors.Is(err, host.ErrAlreadyExists):
			// Idempotent: re-importing never duplicates or deletes.
			summary.Functions.AlreadyPresent++
		default:
			summary.Functions.Failed++
			summary.Errors = append(summary.Errors,
				entryError("functions", local, &types.HostMutationError{Op: "create_function", Address: local, Err: err}))
		}
	}
}

func (imp *Importer) applyNames(ctx context.Context, model *types.RecordModel, norm rebase.Normalizer, opts Options, summary *types.Summary) {
	for _, canonical := range model.SortedNameAddrs() {
		incoming := model.Names[canonical]

		local, err := norm.ToLocal(canonical)
		if err != nil {
			summary.Names.Skipped++
			summary.Errors = append(summary.Errors, entryError("names", canonical, err))
			continue
		}

		existing, err := imp.db.GetName(ctx, local)
		if err != nil && !errors.Is(err, host.ErrNotFound) {
			summary.Names.Failed++
			summary.Errors = append(summary.Errors,
				entryError("names", local, &types.HostMutationError{Op: "get_name", Address: local, Err: err}))
			continue
		}

		switch {
		case existing == nil:
			imp.setName(ctx, local, incoming, summary, &summary.Names.Applied)
		case existing.Value == incoming:
			// Already holds the imported name; nothing to do.
			summary.Names.Applied++
		case !existing.UserAssigned:
			// Auto-generated names always lose to imported ones.
			imp.setName(ctx, local, incoming, summary, &summary.Names.Overwritten)
		case opts.Policy == types.PolicyOverwrite:
			imp.setName(ctx, local, incoming, summary, &summary.Names.Overwritten)
		case opts.Policy == types.PolicySkip:
			summary.Names.Skipped++
		default: // PolicyReport: user names win, conflict recorded.
			summary.Names.Conflicts++
			summary.Conflicts = append(summary.Conflicts, types.Conflict{
				Kind:     types.NameConflict,
				Address:  local,
				Existing: existing.Value,
				Incoming: incoming,
			})
		}
	}
}

// setName applies a name as user-assigned (it represents analyst work from
// the source tool) and bumps counter on success.
func (imp *Importer) setName(ctx context.Context, addr uint64, name string, summary *types.Summary, counter *int) {
	if err := imp.db.SetName(ctx, addr, name, true); err != nil {
		summary.Names.Failed++
		summary.Errors = append(summary.Errors,
			entryError("names", addr, &types.HostMutationError{Op: "set_name", Address: addr, Err: err}))
		return
	}
	*counter++
}

func (imp *Importer) applyComments(ctx context.Context, model *types.RecordModel, norm rebase.Normalizer, opts Options, summary *types.Summary) {
	for _, canonical := range model.SortedCommentAddrs() {
		incoming := model.Comments[canonical]

		local, err := norm.ToLocal(canonical)
		if err != nil {
			summary.Comments.Skipped++
			summary.Errors = append(summary.Errors, entryError("comments", canonical, err))
			continue
		}

		existing, err := imp.db.GetComment(ctx, local)
		if err != nil && !errors.Is(err, host.ErrNotFound) {
			summary.Comments.Failed++
			summary.Errors = append(summary.Errors,
				entryError("comments", local, &types.HostMutationError{Op: "get_comment", Address: local, Err: err}))
			continue
		}
		hasExisting := err == nil

		switch {
		case !hasExisting:
			imp.setComment(ctx, local, incoming, summary, &summary.Comments.Applied)
		case existing == incoming:
			summary.Comments.Applied++
		case opts.ConcatComments:
			if containsComment(existing, incoming) {
				// A previous concat already carried this text; keep the run
				// idempotent.
				summary.Comments.Applied++
				continue
			}
			imp.setComment(ctx, local, existing+"\n"+incoming, summary, &summary.Comments.Concatenated)
		case opts.Policy == types.PolicyOverwrite:
			imp.setComment(ctx, local, incoming, summary, &summary.Comments.Overwritten)
		case opts.Policy == types.PolicySkip:
			summary.Comments.Skipped++
		default: // PolicyReport: destination comments get user-name protection.
			summary.Comments.Conflicts++
			summary.Conflicts = append(summary.Conflicts, types.Conflict{
				Kind:     types.CommentConflict,
				Address:  local,
				Existing: existing,
				Incoming: incoming,
			})
		}
	}
}

func (imp *Importer) setComment(ctx context.Context, addr uint64, text string, summary *types.Summary, counter *int) {
	if err := imp.db.SetComment(ctx, addr, text); err != nil {
		summary.Comments.Failed++
		summary.Errors = append(summary.Errors,
			entryError("comments", addr, &types.HostMutationError{Op: "set_comment", Address: addr, Err: err}))
		return
	}
	*counter++
}

func (imp *Importer) applyStructures(ctx context.Context, model *types.RecordModel, opts Options, summary *types.Summary, badStructs map[string]bool) {
	for _, id := range model.SortedStructureIDs() {
		if badStructs[id] {
			continue // already counted during validation
		}
		incoming := model.Structures[id]

		existing, err := imp.db.GetStructure(ctx, id)
		if errors.Is(err, host.ErrNotFound) {
			if err := imp.db.CreateStructure(ctx, id, incoming); err != nil {
				summary.Structures.Failed++
				summary.Errors = append(summary.Errors, types.EntryError{
					Category: "structures",
					StructID: id,
					Message:  (&types.HostMutationError{Op: "create_structure", Err: err}).Error(),
				})
				continue
			}
			summary.Structures.Created++
			continue
		}
		if err != nil {
			summary.Structures.Failed++
			summary.Errors = append(summary.Errors, types.EntryError{
				Category: "structures",
				StructID: id,
				Message:  (&types.HostMutationError{Op: "get_structure", Err: err}).Error(),
			})
			continue
		}

		imp.mergeMembers(ctx, id, existing, incoming, summary)
	}
}

// mergeMembers compares member lists by (offset, size, type_name): matching
// members are left alone, members at new offsets are appended, and
// colliding-but-differing members are reported and skipped. The destination
// structure is never destructively resized or retyped.
func (imp *Importer) mergeMembers(ctx context.Context, id string, existing, incoming []types.StructMember, summary *types.Summary) {
	byOffset := make(map[uint64]types.StructMember, len(existing))
	for _, member := range existing {
		byOffset[member.Offset] = member
	}

	for _, member := range incoming {
		current, occupied := byOffset[member.Offset]
		switch {
		case !occupied:
			if err := imp.db.AppendMember(ctx, id, member); err != nil {
				summary.Structures.Failed++
				summary.Errors = append(summary.Errors, types.EntryError{
					Category: "structures",
					StructID: id,
					Message:  (&types.HostMutationError{Op: "append_member", Address: member.Offset, Err: err}).Error(),
				})
				continue
			}
			byOffset[member.Offset] = member
			summary.Structures.MembersAdded++
		case current.Size == member.Size && current.TypeName == member.TypeName:
			summary.Structures.Matched++
		default:
			summary.Structures.Conflicts++
			summary.Conflicts = append(summary.Conflicts, types.Conflict{
				Kind:     types.StructConflict,
				StructID: id,
				Offset:   member.Offset,
				Existing: memberString(current),
				Incoming: memberString(member),
			})
		}
	}
}

func memberString(m types.StructMember) string {
	return fmt.Sprintf("%s %s (offset %d, size %d)", m.TypeName, m.MemberName, m.Offset, m.Size)
}

func entryError(category string, addr uint64, err error) types.EntryError {
	return types.EntryError{Category: category, Address: addr, Message: err.Error()}
}

// containsComment reports whether existing already carries incoming as a
// newline-delimited segment, so repeated concat imports stay idempotent.
func containsComment(existing, incoming string) bool {
	return strings.Contains("\n"+existing+"\n", "\n"+incoming+"\n")
}
