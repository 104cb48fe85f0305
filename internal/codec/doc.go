// Package codec serializes record models to and from the on-disk JSON
// interchange format.
//
// Encoding is canonical: top-level keys in schema order, address keys as
// sorted decimal strings, functions ascending, fixed indentation. Encoding
// the same model twice produces byte-identical output, which keeps
// round-trip tests and file diffs reliable.
//
// Decoding is all-or-nothing. A document with an unrecognized
// schema_version or a missing required key fails with types.SchemaError; a
// value with the wrong shape fails with types.MalformedDataError. Strict
// mode additionally rejects unknown top-level keys; Lenient mode ignores
// them.
package codec
