package types

import (
	"fmt"
	"sort"
)

// CurrentSchemaVersion is the interchange document layout version this
// build reads and writes.
const CurrentSchemaVersion = 1

// StructMember describes one member of a structure definition.
type StructMember struct {
	Offset     uint64
	Size       uint64
	TypeName   string
	MemberName string
}

// RecordModel is the interchange unit: address-keyed analysis data plus
// metadata identifying the binary it was extracted from. All addresses are
// relative to BaseAddress. A model is built fresh per export run and is the
// sole input to one import run; it carries no identity across runs.
type RecordModel struct {
	SchemaVersion int
	BinaryID      string
	BaseAddress   uint64

	// Functions holds recognized function start addresses, sorted ascending,
	// no duplicates.
	Functions []uint64

	// Names maps an address to its display name. Keys need not be function
	// starts. Values are opaque strings; embedded signature conventions are
	// a consumer concern, not validated here.
	Names map[uint64]string

	// Comments maps an address to a free-text annotation. One comment per
	// address; multi-line content keeps embedded newlines.
	Comments map[uint64]string

	// Structures maps a structure identifier to its member list.
	// Independent of the address space.
	Structures map[string][]StructMember
}

// NewRecordModel returns an empty model with non-nil containers so that a
// category with no data is "empty", never "absent".
func NewRecordModel(binaryID string, baseAddress uint64) *RecordModel {
	return &RecordModel{
		SchemaVersion: CurrentSchemaVersion,
		BinaryID:      binaryID,
		BaseAddress:   baseAddress,
		Functions:     []uint64{},
		Names:         map[uint64]string{},
		Comments:      map[uint64]string{},
		Structures:    map[string][]StructMember{},
	}
}

// AddFunction records a function start, keeping Functions sorted and
// duplicate-free.
func (m *RecordModel) AddFunction(addr uint64) {
	i := sort.Search(len(m.Functions), func(i int) bool { return m.Functions[i] >= addr })
	if i < len(m.Functions) && m.Functions[i] == addr {
		return
	}
	m.Functions = append(m.Functions, 0)
	copy(m.Functions[i+1:], m.Functions[i:])
	m.Functions[i] = addr
}

// HasFunction reports whether addr is a recorded function start.
func (m *RecordModel) HasFunction(addr uint64) bool {
	i := sort.Search(len(m.Functions), func(i int) bool { return m.Functions[i] >= addr })
	return i < len(m.Functions) && m.Functions[i] == addr
}

// Validate checks model invariants: sorted duplicate-free functions, non-nil
// containers, and unique member offsets within each structure.
func (m *RecordModel) Validate() error {
	if m.SchemaVersion != CurrentSchemaVersion {
		return &SchemaError{Reason: fmt.Sprintf("unsupported schema_version %d", m.SchemaVersion)}
	}
	if m.Functions == nil || m.Names == nil || m.Comments == nil || m.Structures == nil {
		return &MalformedDataError{Field: "model", Reason: "nil category container"}
	}
	for i := 1; i < len(m.Functions); i++ {
		if m.Functions[i] <= m.Functions[i-1] {
			return &MalformedDataError{Field: "functions", Reason: "entries must be sorted and unique"}
		}
	}
	for id, members := range m.Structures {
		seen := make(map[uint64]struct{}, len(members))
		for _, member := range members {
			if _, dup := seen[member.Offset]; dup {
				return &MalformedDataError{
					Field:  "structures." + id,
					Reason: fmt.Sprintf("duplicate member offset %d", member.Offset),
				}
			}
			seen[member.Offset] = struct{}{}
		}
	}
	return nil
}

// SortedNameAddrs returns the keys of Names in ascending order.
func (m *RecordModel) SortedNameAddrs() []uint64 {
	return sortedAddrKeys(m.Names)
}

// SortedCommentAddrs returns the keys of Comments in ascending order.
func (m *RecordModel) SortedCommentAddrs() []uint64 {
	return sortedAddrKeys(m.Comments)
}

// SortedStructureIDs returns the structure identifiers in lexical order.
func (m *RecordModel) SortedStructureIDs() []string {
	ids := make([]string, 0, len(m.Structures))
	for id := range m.Structures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedAddrKeys(values map[uint64]string) []uint64 {
	addrs := make([]uint64, 0, len(values))
	for addr := range values {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}
