// Package sqlitedb provides a SQLite-backed host.Database: a standalone
// analysis store the adx CLI can export from and import into without a live
// disassembler attached.
//
// # Database Schema
//
// Tables:
//   - meta: binary identifier and base address for the stored analysis
//   - functions: recognized function starts
//   - names: symbol names with a user-assigned flag
//   - comments: address-level comments
//   - structures / struct_members: structure definitions, one row per
//     (structure, offset)
//
// # Drivers
//
// Two SQLite drivers are available behind build tags: the default purego
// build uses modernc.org/sqlite (no C toolchain required); building with
// the sqlite_cgo tag selects github.com/mattn/go-sqlite3.
//
// # Addresses
//
// Addresses are uint64 and stored as the int64 bit pattern; ordering is
// done in Go so addresses above 1<<63 sort correctly.
package sqlitedb
