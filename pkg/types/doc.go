// Package types defines the shared data model for the adx interchange
// format: the record model carried between disassembly tools, the error
// taxonomy for decode and merge failures, and the per-run import summary.
//
// The package is dependency-free so both internal packages and external
// consumers can import it without pulling in the rest of the stack.
//
// # Record Model
//
// A RecordModel is a versioned container of address-keyed maps (functions,
// names, comments) plus structure definitions and metadata identifying the
// source binary. All addresses are relative to BaseAddress; the rebase
// package converts between tool-local and canonical numbering.
//
// Name strings are opaque. Some tools embed a full function signature in the
// name; this package stores such names verbatim and never parses them.
//
// # Errors
//
// Decode-time errors (SchemaError, MalformedDataError) are fatal: a run
// aborts before any destination mutation. Apply-time errors
// (AddressRangeError, HostMutationError) and conflicts are per-entry and
// accumulate into the Summary.
package types
