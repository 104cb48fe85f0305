// Package rebase converts addresses between a tool's in-memory numbering and
// the interchange document's canonical numbering. Pure integer arithmetic:
// canonical = local - toolBase + canonicalBase, inverse on import. Addresses
// are opaque byte offsets; no rounding, no alignment assumptions.
package rebase

import (
	"math"

	"github.com/adx-tools/adx/pkg/types"
)

// Normalizer rebases addresses between a tool-local base and the canonical
// base declared by an interchange document.
type Normalizer struct {
	ToolBase      uint64
	CanonicalBase uint64
}

// New returns a Normalizer for the given bases.
func New(toolBase, canonicalBase uint64) Normalizer {
	return Normalizer{ToolBase: toolBase, CanonicalBase: canonicalBase}
}

// ToCanonical maps a tool-local address into canonical numbering.
func (n Normalizer) ToCanonical(local uint64) (uint64, error) {
	return shift(local, n.ToolBase, n.CanonicalBase)
}

// ToLocal maps a canonical address back into tool-local numbering.
func (n Normalizer) ToLocal(canonical uint64) (uint64, error) {
	return shift(canonical, n.CanonicalBase, n.ToolBase)
}

// shift computes addr - from + to, failing when the result would fall
// outside [0, MaxUint64].
func shift(addr, from, to uint64) (uint64, error) {
	if to >= from {
		delta := to - from
		if addr > math.MaxUint64-delta {
			return 0, &types.AddressRangeError{Address: addr, Base: to}
		}
		return addr + delta, nil
	}
	delta := from - to
	if addr < delta {
		return 0, &types.AddressRangeError{Address: addr, Base: to}
	}
	return addr - delta, nil
}
