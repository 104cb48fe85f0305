// Package exporter walks a source analysis database and populates a record
// model: function starts, symbol names, comments, and structure
// definitions, all rebased onto the document's canonical base address.
//
// The exporter is read-only over its host.Database. Addresses that cannot
// be expressed relative to the canonical base are skipped and collected in
// the Report; they never abort the run.
package exporter
