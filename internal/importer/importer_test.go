package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adx-tools/adx/internal/host"
	"github.com/adx-tools/adx/internal/host/memdb"
	"github.com/adx-tools/adx/pkg/types"
)

func importInto(t *testing.T, db *memdb.DB, model *types.RecordModel, opts Options) *types.Summary {
	t.Helper()
	summary, err := New(db).Import(context.Background(), model, opts)
	require.NoError(t, err)
	require.Equal(t, types.StageSummarized, summary.Stage)
	return summary
}

func TestImportWorkedExample(t *testing.T) {
	// {"functions":[1193046],"names":{"1193046":"scene_switch_to_map_area_slot"},...}
	model := types.NewRecordModel("demo", 0)
	model.AddFunction(1193046)
	model.Names[1193046] = "scene_switch_to_map_area_slot"

	db := memdb.New()
	ctx := context.Background()

	first := importInto(t, db, model, Options{})
	assert.Equal(t, 1, first.Functions.Created)
	assert.Equal(t, 0, first.Functions.AlreadyPresent)
	assert.Equal(t, 1, first.Names.Applied)
	assert.True(t, db.HasFunction(1193046))

	name, err := db.GetName(ctx, 1193046)
	require.NoError(t, err)
	assert.Equal(t, "scene_switch_to_map_area_slot", name.Value)

	// Second run: same already_present count, nothing newly created.
	second := importInto(t, db, model, Options{})
	assert.Equal(t, 0, second.Functions.Created)
	assert.Equal(t, 1, second.Functions.AlreadyPresent)
	assert.Equal(t, 1, second.Names.Applied)
	assert.Zero(t, second.TotalConflicts())
}

func TestImportRebasesAddresses(t *testing.T) {
	model := types.NewRecordModel("", 0x1000)
	model.AddFunction(0x1100)
	model.Names[0x1100] = "entry"

	db := memdb.New()
	importInto(t, db, model, Options{DestinationBase: 0x400000})

	assert.True(t, db.HasFunction(0x400100))
	name, err := db.GetName(context.Background(), 0x400100)
	require.NoError(t, err)
	assert.Equal(t, "entry", name.Value)
}

func TestImportSkipsUnderflowingAddresses(t *testing.T) {
	model := types.NewRecordModel("", 0x1000)
	model.AddFunction(0x500) // below the canonical base, cannot rebase to base 0
	model.AddFunction(0x1100)

	db := memdb.New()
	summary := importInto(t, db, model, Options{DestinationBase: 0})

	assert.Equal(t, 1, summary.Functions.Created)
	assert.Equal(t, 1, summary.Functions.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "functions", summary.Errors[0].Category)
	assert.True(t, db.HasFunction(0x100))
}

func TestUserNameProtected(t *testing.T) {
	ctx := context.Background()
	db := memdb.New()
	require.NoError(t, db.SetName(ctx, 0x2000, "carefully_chosen_name", true))

	model := types.NewRecordModel("", 0)
	model.Names[0x2000] = "imported_name"

	summary := importInto(t, db, model, Options{})
	assert.Equal(t, 1, summary.Names.Conflicts)
	require.Len(t, summary.Conflicts, 1)
	assert.Equal(t, types.NameConflict, summary.Conflicts[0].Kind)
	assert.Equal(t, "carefully_chosen_name", summary.Conflicts[0].Existing)
	assert.Equal(t, "imported_name", summary.Conflicts[0].Incoming)

	name, err := db.GetName(ctx, 0x2000)
	require.NoError(t, err)
	assert.Equal(t, "carefully_chosen_name", name.Value)
}

func TestAutoNameOverwritten(t *testing.T) {
	ctx := context.Background()
	db := memdb.New()
	require.NoError(t, db.SetName(ctx, 0x2000, "sub_2000", false))

	model := types.NewRecordModel("", 0)
	model.Names[0x2000] = "imported_name"

	summary := importInto(t, db, model, Options{})
	assert.Equal(t, 1, summary.Names.Overwritten)
	assert.Zero(t, summary.Names.Conflicts)

	name, err := db.GetName(ctx, 0x2000)
	require.NoError(t, err)
	assert.Equal(t, "imported_name", name.Value)
	assert.True(t, name.UserAssigned)
}

func TestNamePolicyOverwriteAndSkip(t *testing.T) {
	ctx := context.Background()

	model := types.NewRecordModel("", 0)
	model.Names[0x10] = "incoming"

	t.Run("overwrite", func(t *testing.T) {
		db := memdb.New()
		require.NoError(t, db.SetName(ctx, 0x10, "user_name", true))

		summary := importInto(t, db, model, Options{Policy: types.PolicyOverwrite})
		assert.Equal(t, 1, summary.Names.Overwritten)

		name, err := db.GetName(ctx, 0x10)
		require.NoError(t, err)
		assert.Equal(t, "incoming", name.Value)
	})

	t.Run("skip", func(t *testing.T) {
		db := memdb.New()
		require.NoError(t, db.SetName(ctx, 0x10, "user_name", true))

		summary := importInto(t, db, model, Options{Policy: types.PolicySkip})
		assert.Equal(t, 1, summary.Names.Skipped)
		assert.Zero(t, summary.TotalConflicts())

		name, err := db.GetName(ctx, 0x10)
		require.NoError(t, err)
		assert.Equal(t, "user_name", name.Value)
	})
}

func TestCommentConflictReported(t *testing.T) {
	ctx := context.Background()
	db := memdb.New()
	require.NoError(t, db.SetComment(ctx, 0x30, "existing note"))

	model := types.NewRecordModel("", 0)
	model.Comments[0x30] = "imported note"

	summary := importInto(t, db, model, Options{})
	assert.Equal(t, 1, summary.Comments.Conflicts)

	text, err := db.GetComment(ctx, 0x30)
	require.NoError(t, err)
	assert.Equal(t, "existing note", text)
}

func TestCommentConcatIdempotent(t *testing.T) {
	ctx := context.Background()
	db := memdb.New()
	require.NoError(t, db.SetComment(ctx, 0x30, "existing note"))

	model := types.NewRecordModel("", 0)
	model.Comments[0x30] = "imported note"

	summary := importInto(t, db, model, Options{ConcatComments: true})
	assert.Equal(t, 1, summary.Comments.Concatenated)

	text, err := db.GetComment(ctx, 0x30)
	require.NoError(t, err)
	assert.Equal(t, "existing note\nimported note", text)

	// Re-importing must not append the same text again.
	again := importInto(t, db, model, Options{ConcatComments: true})
	assert.Equal(t, 0, again.Comments.Concatenated)
	assert.Equal(t, 1, again.Comments.Applied)

	text, err = db.GetComment(ctx, 0x30)
	require.NoError(t, err)
	assert.Equal(t, "existing note\nimported note", text)
}

func TestStructCreateAndSupersetMerge(t *testing.T) {
	ctx := context.Background()
	db := memdb.New()

	model := types.NewRecordModel("", 0)
	model.Structures["SaveHeader"] = []types.StructMember{
		{Offset: 0, Size: 4, TypeName: "uint32_t", MemberName: "magic"},
		{Offset: 4, Size: 2, TypeName: "uint16_t", MemberName: "slot"},
	}

	summary := importInto(t, db, model, Options{})
	assert.Equal(t, 1, summary.Structures.Created)

	// Superset import adds only the new member.
	superset := types.NewRecordModel("", 0)
	superset.Structures["SaveHeader"] = []types.StructMember{
		{Offset: 0, Size: 4, TypeName: "uint32_t", MemberName: "magic"},
		{Offset: 4, Size: 2, TypeName: "uint16_t", MemberName: "slot"},
		{Offset: 6, Size: 2, TypeName: "uint16_t", MemberName: "checksum"},
	}

	second := importInto(t, db, superset, Options{})
	assert.Equal(t, 2, second.Structures.Matched)
	assert.Equal(t, 1, second.Structures.MembersAdded)
	assert.Zero(t, second.Structures.Conflicts)

	members, err := db.GetStructure(ctx, "SaveHeader")
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, uint64(6), members[2].Offset)
}

func TestStructMemberConflictSkipped(t *testing.T) {
	ctx := context.Background()
	db := memdb.New()
	require.NoError(t, db.CreateStructure(ctx, "Header", []types.StructMember{
		{Offset: 0, Size: 4, TypeName: "uint32_t", MemberName: "magic"},
	}))

	model := types.NewRecordModel("", 0)
	model.Structures["Header"] = []types.StructMember{
		{Offset: 0, Size: 8, TypeName: "uint64_t", MemberName: "magic"},
	}

	summary := importInto(t, db, model, Options{})
	assert.Equal(t, 1, summary.Structures.Conflicts)
	require.Len(t, summary.Conflicts, 1)
	assert.Equal(t, types.StructConflict, summary.Conflicts[0].Kind)
	assert.Equal(t, "Header", summary.Conflicts[0].StructID)

	// Existing member untouched.
	members, err := db.GetStructure(ctx, "Header")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, uint64(4), members[0].Size)
}

func TestStructDuplicateOffsetsRejected(t *testing.T) {
	db := memdb.New()

	model := types.NewRecordModel("", 0)
	model.Structures["Broken"] = []types.StructMember{
		{Offset: 0, Size: 4, TypeName: "uint32_t", MemberName: "a"},
		{Offset: 0, Size: 8, TypeName: "uint64_t", MemberName: "b"},
	}
	model.Structures["Fine"] = []types.StructMember{
		{Offset: 0, Size: 4, TypeName: "uint32_t", MemberName: "x"},
	}

	summary := importInto(t, db, model, Options{})
	assert.Equal(t, 1, summary.Structures.Failed)
	assert.Equal(t, 1, summary.Structures.Created)

	// The broken structure must not have been created at all.
	_, err := db.GetStructure(context.Background(), "Broken")
	assert.ErrorIs(t, err, host.ErrNotFound)
}

func TestUnsupportedSchemaVersionFatal(t *testing.T) {
	model := types.NewRecordModel("", 0)
	model.SchemaVersion = 2
	model.AddFunction(0x10)

	db := memdb.New()
	summary, err := New(db).Import(context.Background(), model, Options{})
	require.Error(t, err)

	var schemaErr *types.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
	assert.False(t, db.HasFunction(0x10), "nothing may be applied on fatal validation")

	// The summary still comes back, marked failed, so callers can report it.
	require.NotNil(t, summary)
	assert.Equal(t, types.StageFailed, summary.Stage)
}

// nameRejectingDB refuses every SetName, standing in for a host tool whose
// symbol table is locked.
type nameRejectingDB struct {
	*memdb.DB
}

func (db *nameRejectingDB) SetName(context.Context, uint64, string, bool) error {
	return errors.New("symbol table is read-only")
}

func TestHostMutationFailureIsolated(t *testing.T) {
	model := types.NewRecordModel("", 0)
	model.AddFunction(0x10)
	model.Names[0x10] = "main"
	model.Comments[0x20] = "dispatch loop"

	inner := memdb.New()
	db := &nameRejectingDB{DB: inner}
	ctx := context.Background()

	summary, err := New(db).Import(ctx, model, Options{})
	require.NoError(t, err)
	require.Equal(t, types.StageSummarized, summary.Stage)

	// The rejected name is counted and reported, nothing more.
	assert.Equal(t, 1, summary.Names.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "names", summary.Errors[0].Category)
	assert.Contains(t, summary.Errors[0].Message, "symbol table is read-only")

	// Earlier and later categories still apply.
	assert.Equal(t, 1, summary.Functions.Created)
	assert.Equal(t, 1, summary.Comments.Applied)
	assert.True(t, inner.HasFunction(0x10))

	text, err := inner.GetComment(ctx, 0x20)
	require.NoError(t, err)
	assert.Equal(t, "dispatch loop", text)

	_, err = inner.GetName(ctx, 0x10)
	assert.ErrorIs(t, err, host.ErrNotFound)
}

func TestInvalidPolicyRejected(t *testing.T) {
	model := types.NewRecordModel("", 0)
	_, err := New(memdb.New()).Import(context.Background(), model, Options{Policy: "merge"})
	assert.Error(t, err)
}

func TestIdempotentFullImport(t *testing.T) {
	model := types.NewRecordModel("bin", 0x1000)
	model.AddFunction(0x1000)
	model.AddFunction(0x1040)
	model.Names[0x1000] = "main"
	model.Comments[0x1040] = "helper"
	model.Structures["Vec2"] = []types.StructMember{
		{Offset: 0, Size: 4, TypeName: "float", MemberName: "x"},
		{Offset: 4, Size: 4, TypeName: "float", MemberName: "y"},
	}

	db := memdb.New()
	importInto(t, db, model, Options{DestinationBase: 0x1000})
	second := importInto(t, db, model, Options{DestinationBase: 0x1000})

	assert.Zero(t, second.Functions.Created)
	assert.Equal(t, 2, second.Functions.AlreadyPresent)
	assert.Zero(t, second.Structures.MembersAdded)
	assert.Equal(t, 2, second.Structures.Matched)
	assert.Zero(t, second.TotalConflicts())
	assert.Zero(t, second.TotalFailed())

	members, err := db.GetStructure(context.Background(), "Vec2")
	require.NoError(t, err)
	assert.Len(t, members, 2)
}
