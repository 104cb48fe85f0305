package types

import "fmt"

// SchemaError indicates an unrecognized schema version or a missing required
// top-level key. Fatal: nothing is applied to any destination.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "schema error: " + e.Reason
}

// MalformedDataError indicates a value with the wrong shape or type, such as
// a non-integer offset or a negative address. Fatal at decode time.
type MalformedDataError struct {
	Field  string
	Reason string
}

func (e *MalformedDataError) Error() string {
	if e.Field == "" {
		return "malformed data: " + e.Reason
	}
	return fmt.Sprintf("malformed data in %q: %s", e.Field, e.Reason)
}

// AddressRangeError indicates an address that cannot be expressed relative
// to the requested base. Per-entry: the entry is skipped, the run continues.
type AddressRangeError struct {
	Address uint64
	Base    uint64
}

func (e *AddressRangeError) Error() string {
	return fmt.Sprintf("address 0x%x not expressible relative to base 0x%x", e.Address, e.Base)
}

// HostMutationError indicates the destination tool rejected a mutation.
// Per-entry: the entry is skipped and reported.
type HostMutationError struct {
	Op      string
	Address uint64
	Err     error
}

func (e *HostMutationError) Error() string {
	return fmt.Sprintf("host rejected %s at 0x%x: %v", e.Op, e.Address, e.Err)
}

func (e *HostMutationError) Unwrap() error {
	return e.Err
}
