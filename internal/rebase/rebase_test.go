package rebase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adx-tools/adx/pkg/types"
)

func TestToCanonical(t *testing.T) {
	tests := []struct {
		name          string
		toolBase      uint64
		canonicalBase uint64
		local         uint64
		want          uint64
	}{
		{"identity", 0x1000, 0x1000, 0x1234, 0x1234},
		{"rebase up", 0x1000, 0x4000, 0x1100, 0x4100},
		{"rebase down", 0x4000, 0x1000, 0x4100, 0x1100},
		{"zero bases", 0, 0, 42, 42},
		{"to zero base", 0x400000, 0, 0x401000, 0x1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.toolBase, tt.canonicalBase).ToCanonical(tt.local)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	n := New(0x140000000, 0x1000)
	for _, addr := range []uint64{0x140000000, 0x140001234, 0x1fffffffff} {
		canonical, err := n.ToCanonical(addr)
		require.NoError(t, err)
		local, err := n.ToLocal(canonical)
		require.NoError(t, err)
		assert.Equal(t, addr, local)
	}
}

func TestUnderflow(t *testing.T) {
	n := New(0x4000, 0x1000)

	// 0x2000 - 0x4000 + 0x1000 would be negative.
	_, err := n.ToCanonical(0x2000)
	require.Error(t, err)

	var rangeErr *types.AddressRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, uint64(0x2000), rangeErr.Address)
}

func TestOverflow(t *testing.T) {
	n := New(0, math.MaxUint64)
	_, err := n.ToCanonical(1)

	var rangeErr *types.AddressRangeError
	require.ErrorAs(t, err, &rangeErr)
}
