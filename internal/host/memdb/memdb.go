// Package memdb is an in-memory host.Database adapter. It backs unit tests
// that need a scratch destination without a real disassembler attached.
package memdb

import (
	"context"
	"sort"

	"github.com/adx-tools/adx/internal/host"
	"github.com/adx-tools/adx/pkg/types"
)

// DB is an in-memory analysis database.
type DB struct {
	functions  map[uint64]struct{}
	names      map[uint64]host.Name
	comments   map[uint64]string
	structures map[string][]types.StructMember
}

// New returns an empty in-memory database.
func New() *DB {
	return &DB{
		functions:  map[uint64]struct{}{},
		names:      map[uint64]host.Name{},
		comments:   map[uint64]string{},
		structures: map[string][]types.StructMember{},
	}
}

func (db *DB) ListFunctions(_ context.Context) ([]uint64, error) {
	addrs := make([]uint64, 0, len(db.functions))
	for addr := range db.functions {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs, nil
}

func (db *DB) CreateFunction(_ context.Context, addr uint64) error {
	if _, ok := db.functions[addr]; ok {
		return host.ErrAlreadyExists
	}
	db.functions[addr] = struct{}{}
	return nil
}

// HasFunction reports whether addr is a function start. Test helper.
func (db *DB) HasFunction(addr uint64) bool {
	_, ok := db.functions[addr]
	return ok
}

func (db *DB) GetName(_ context.Context, addr uint64) (*host.Name, error) {
	name, ok := db.names[addr]
	if !ok {
		return nil, host.ErrNotFound
	}
	return &name, nil
}

func (db *DB) SetName(_ context.Context, addr uint64, name string, userAssigned bool) error {
	db.names[addr] = host.Name{Value: name, UserAssigned: userAssigned}
	return nil
}

func (db *DB) GetComment(_ context.Context, addr uint64) (string, error) {
	text, ok := db.comments[addr]
	if !ok {
		return "", host.ErrNotFound
	}
	return text, nil
}

func (db *DB) SetComment(_ context.Context, addr uint64, text string) error {
	db.comments[addr] = text
	return nil
}

func (db *DB) ListStructures(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(db.structures))
	for id := range db.structures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (db *DB) GetStructure(_ context.Context, id string) ([]types.StructMember, error) {
	members, ok := db.structures[id]
	if !ok {
		return nil, host.ErrNotFound
	}
	out := make([]types.StructMember, len(members))
	copy(out, members)
	return out, nil
}

func (db *DB) CreateStructure(_ context.Context, id string, members []types.StructMember) error {
	if _, ok := db.structures[id]; ok {
		return host.ErrAlreadyExists
	}
	stored := make([]types.StructMember, len(members))
	copy(stored, members)
	sortMembers(stored)
	db.structures[id] = stored
	return nil
}

func (db *DB) AppendMember(_ context.Context, id string, member types.StructMember) error {
	members, ok := db.structures[id]
	if !ok {
		return host.ErrNotFound
	}
	for _, existing := range members {
		if existing.Offset == member.Offset {
			return host.ErrAlreadyExists
		}
	}
	members = append(members, member)
	sortMembers(members)
	db.structures[id] = members
	return nil
}

// ListNamedAddresses returns every address with a name binding, ascending.
func (db *DB) ListNamedAddresses(_ context.Context) ([]uint64, error) {
	addrs := make([]uint64, 0, len(db.names))
	for addr := range db.names {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs, nil
}

// ListCommentedAddresses returns every address with a comment, ascending.
func (db *DB) ListCommentedAddresses(_ context.Context) ([]uint64, error) {
	addrs := make([]uint64, 0, len(db.comments))
	for addr := range db.comments {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs, nil
}

func (db *DB) Close() error {
	return nil
}

func sortMembers(members []types.StructMember) {
	sort.Slice(members, func(i, j int) bool { return members[i].Offset < members[j].Offset })
}
