// Package query answers address-context questions over a record model:
// given an address, what analysis data sits at and around it. It powers the
// CLI query command and the MCP inspection tools.
package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/adx-tools/adx/pkg/types"
)

// Entry is the analysis data bound at one address. Zero-value string fields
// mean the category has nothing at this address.
type Entry struct {
	Address  uint64 `json:"-"`
	Name     string `json:"name,omitempty"`
	Function bool   `json:"function,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// IsEmpty reports whether no category has data at this address.
func (e Entry) IsEmpty() bool {
	return e.Name == "" && !e.Function && e.Comment == ""
}

// Result is one context window around a queried address.
type Result struct {
	Address uint64
	Before  []Entry
	Current Entry
	After   []Entry
}

// Index is a merged, sorted view of every address a record model knows
// something about.
type Index struct {
	addrs   []uint64
	entries map[uint64]Entry
}

// NewIndex builds the merged address index for one model.
func NewIndex(m *types.RecordModel) *Index {
	seen := map[uint64]struct{}{}
	for _, addr := range m.Functions {
		seen[addr] = struct{}{}
	}
	for addr := range m.Names {
		seen[addr] = struct{}{}
	}
	for addr := range m.Comments {
		seen[addr] = struct{}{}
	}

	addrs := make([]uint64, 0, len(seen))
	for addr := range seen {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	entries := make(map[uint64]Entry, len(addrs))
	for _, addr := range addrs {
		entries[addr] = Entry{
			Address:  addr,
			Name:     m.Names[addr],
			Function: m.HasFunction(addr),
			Comment:  m.Comments[addr],
		}
	}
	return &Index{addrs: addrs, entries: entries}
}

// Len returns the number of indexed addresses.
func (ix *Index) Len() int {
	return len(ix.addrs)
}

// Context returns the entry at addr plus up to before/after neighboring
// entries. When addr itself holds no data the window brackets where it
// would sit and Current is an empty entry at addr.
func (ix *Index) Context(addr uint64, before, after int) Result {
	idx := sort.Search(len(ix.addrs), func(i int) bool { return ix.addrs[i] >= addr })

	result := Result{Address: addr}

	var afterStart int
	if idx < len(ix.addrs) && ix.addrs[idx] == addr {
		result.Current = ix.entries[addr]
		afterStart = idx + 1
	} else {
		result.Current = Entry{Address: addr}
		afterStart = idx
	}

	beforeStart := idx - before
	if beforeStart < 0 {
		beforeStart = 0
	}
	for _, a := range ix.addrs[beforeStart:idx] {
		result.Before = append(result.Before, ix.entries[a])
	}

	afterEnd := afterStart + after
	if afterEnd > len(ix.addrs) {
		afterEnd = len(ix.addrs)
	}
	for _, a := range ix.addrs[afterStart:afterEnd] {
		result.After = append(result.After, ix.entries[a])
	}
	return result
}

// ParseAddress accepts a hex (0x...) or decimal address string.
func ParseAddress(value string) (uint64, error) {
	addr, err := strconv.ParseUint(value, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("address must be hex (0x...) or decimal: %q", value)
	}
	return addr, nil
}

// FormatAddress renders an address the way the CLI prints them.
func FormatAddress(addr uint64) string {
	return fmt.Sprintf("0x%x", addr)
}

// FormatEntry renders one entry as a single human-readable line.
func FormatEntry(e Entry) string {
	parts := []string{FormatAddress(e.Address)}
	if e.Name != "" {
		parts = append(parts, "name="+e.Name)
	}
	if e.Function {
		parts = append(parts, "function")
	}
	if e.Comment != "" {
		parts = append(parts, fmt.Sprintf("comment=%q", e.Comment))
	}
	if len(parts) == 1 {
		parts = append(parts, "no_entry")
	}
	return strings.Join(parts, " ")
}

// RenderHuman renders a result as a grep-style context block, the queried
// address marked with ">".
func RenderHuman(r Result) string {
	var lines []string
	for _, e := range r.Before {
		lines = append(lines, "  "+FormatEntry(e))
	}
	lines = append(lines, "> "+FormatEntry(r.Current))
	for _, e := range r.After {
		lines = append(lines, "  "+FormatEntry(e))
	}
	return strings.Join(lines, "\n")
}
