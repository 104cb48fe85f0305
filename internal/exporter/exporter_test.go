package exporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adx-tools/adx/internal/host/memdb"
	"github.com/adx-tools/adx/pkg/types"
)

func TestExportEmptyDatabase(t *testing.T) {
	model, report, err := New(memdb.New()).Export(context.Background(), Options{BinaryID: "empty"})
	require.NoError(t, err)

	// Empty categories are emitted as empty containers, never nil.
	assert.NotNil(t, model.Functions)
	assert.NotNil(t, model.Names)
	assert.NotNil(t, model.Comments)
	assert.NotNil(t, model.Structures)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, "empty", model.BinaryID)
	assert.Equal(t, types.CurrentSchemaVersion, model.SchemaVersion)
}

func TestExportRebasesOntoCanonicalBase(t *testing.T) {
	ctx := context.Background()
	db := memdb.New()
	require.NoError(t, db.CreateFunction(ctx, 0x401000))
	require.NoError(t, db.SetName(ctx, 0x401000, "main", true))
	require.NoError(t, db.SetName(ctx, 0x402000, "g_state", false))
	require.NoError(t, db.SetComment(ctx, 0x401004, "init happens here"))

	model, report, err := New(db).Export(ctx, Options{
		SourceBase:    0x400000,
		CanonicalBase: 0x1000,
		BinaryID:      "bin",
	})
	require.NoError(t, err)
	assert.Empty(t, report.Skipped)

	assert.Equal(t, []uint64{0x2000}, model.Functions)
	assert.Equal(t, "main", model.Names[0x2000])
	assert.Equal(t, "g_state", model.Names[0x3000])
	assert.Equal(t, "init happens here", model.Comments[0x2004])
	assert.Equal(t, uint64(0x1000), model.BaseAddress)
}

func TestExportStructures(t *testing.T) {
	ctx := context.Background()
	db := memdb.New()
	members := []types.StructMember{
		{Offset: 0, Size: 4, TypeName: "uint32_t", MemberName: "id"},
		{Offset: 4, Size: 4, TypeName: "float", MemberName: "weight"},
	}
	require.NoError(t, db.CreateStructure(ctx, "Node", members))

	model, _, err := New(db).Export(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, members, model.Structures["Node"])
}

func TestExportSkipsUnrebasableAddresses(t *testing.T) {
	ctx := context.Background()
	db := memdb.New()
	require.NoError(t, db.CreateFunction(ctx, 0x100)) // below source base
	require.NoError(t, db.CreateFunction(ctx, 0x5000))

	model, report, err := New(db).Export(ctx, Options{SourceBase: 0x4000, CanonicalBase: 0})
	require.NoError(t, err)

	assert.Equal(t, []uint64{0x1000}, model.Functions)
	require.NotEmpty(t, report.Skipped)
	assert.Equal(t, "functions", report.Skipped[0].Category)
}

func TestExportDoesNotMutateSource(t *testing.T) {
	ctx := context.Background()
	db := memdb.New()
	require.NoError(t, db.CreateFunction(ctx, 0x10))
	require.NoError(t, db.SetComment(ctx, 0x10, "note"))

	_, _, err := New(db).Export(ctx, Options{})
	require.NoError(t, err)

	funcs, err := db.ListFunctions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0x10}, funcs)

	text, err := db.GetComment(ctx, 0x10)
	require.NoError(t, err)
	assert.Equal(t, "note", text)
}
