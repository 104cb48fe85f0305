// Package host defines the collaborator interface between the adx core and
// a disassembly tool's analysis database.
//
// The exporter only reads through Database; the importer mutates only
// through it. Two adapters ship with adx: memdb (in-memory, for tests and
// offline runs) and sqlitedb (a standalone SQLite-backed analysis store).
// Plugins embedding adx inside a disassembler supply their own adapter over
// the tool's native API.
package host
