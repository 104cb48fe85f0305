package host

import (
	"context"
	"errors"

	"github.com/adx-tools/adx/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity.
	ErrAlreadyExists = errors.New("already exists")
)

// Name is a symbol binding at an address. UserAssigned distinguishes names an
// analyst set by hand from auto-generated defaults; the merge engine protects
// the former and overwrites the latter.
type Name struct {
	Value        string
	UserAssigned bool
}

// Database is the capability set the exporter and importer need from a host
// disassembly tool's analysis database. Implementations adapt one concrete
// tool (or a standalone store); the core never depends on a specific tool.
//
// All addresses are tool-local. Implementations are used from a single
// goroutine for the duration of an export or import run.
type Database interface {
	// ListFunctions returns every recognized function start, ascending.
	ListFunctions(ctx context.Context) ([]uint64, error)
	// CreateFunction marks addr as a function start. Creating a function
	// that already exists returns ErrAlreadyExists.
	CreateFunction(ctx context.Context, addr uint64) error

	// GetName returns the name bound at addr, or ErrNotFound.
	GetName(ctx context.Context, addr uint64) (*Name, error)
	// SetName binds a name at addr, replacing any existing binding.
	SetName(ctx context.Context, addr uint64, name string, userAssigned bool) error

	// GetComment returns the comment at addr, or ErrNotFound.
	GetComment(ctx context.Context, addr uint64) (string, error)
	// SetComment stores a comment at addr, replacing any existing one.
	SetComment(ctx context.Context, addr uint64, text string) error

	// ListStructures returns every structure identifier, lexically ascending.
	ListStructures(ctx context.Context) ([]string, error)
	// GetStructure returns the members of a structure ordered by offset, or
	// ErrNotFound.
	GetStructure(ctx context.Context, id string) ([]types.StructMember, error)
	// CreateStructure defines a new structure with the given members.
	// Returns ErrAlreadyExists if id is taken.
	CreateStructure(ctx context.Context, id string, members []types.StructMember) error
	// AppendMember adds one member to an existing structure. The host may
	// reject members whose offset collides with an existing member.
	AppendMember(ctx context.Context, id string, member types.StructMember) error

	// Close releases the underlying store.
	Close() error
}
