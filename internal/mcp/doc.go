// Package mcp serves a decoded interchange document over the Model Context
// Protocol so MCP clients (editors, AI assistants) can inspect analysis
// data without either disassembly tool running.
//
// The server is read-only: edits go through the CLI commands, which rewrite
// the file canonically. Three tools are exposed:
//
//   - query_address: the analysis data at and around one address
//   - list_functions: function starts with their names
//   - get_metadata: document version, binary identifier, category counts
//
// Stdout is reserved for the protocol; logs go to stderr.
package mcp
