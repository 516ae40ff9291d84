package tabular

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Table is a decoded rectangular dataset: a header row followed by data rows.
type Table struct {
	Header []string
	Rows   [][]string
	// HeaderOffset is the number of input records skipped before the header.
	HeaderOffset int
}

// Column returns the index of the named header cell, ignoring case and
// surrounding whitespace, or -1 when absent.
func (t Table) Column(name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, cell := range t.Header {
		if strings.ToLower(strings.TrimSpace(cell)) == want {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed value at row/col, or "" for short rows.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// FromRecords splits raw records into header and data rows. Blank records
// before the header and after the last data row are dropped; blank records in
// between are kept so every row stays at its input position.
func FromRecords(records [][]string) Table {
	var table Table
	for table.HeaderOffset < len(records) && blank(records[table.HeaderOffset]) {
		table.HeaderOffset++
	}
	if table.HeaderOffset == len(records) {
		return table
	}
	table.Header = records[table.HeaderOffset]

	rows := records[table.HeaderOffset+1:]
	end := len(rows)
	for end > 0 && blank(rows[end-1]) {
		end--
	}
	if end > 0 {
		table.Rows = rows[:end]
	}
	return table
}

// Line returns the 1-based input line of data row i.
func (t Table) Line(row int) int {
	return t.HeaderOffset + row + 2
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Decoder captures a single input format (CSV, XLSX, etc.).
type Decoder interface {
	Name() string
	Extensions() []string
	Decode(r io.Reader) (Table, error)
}

// Registry keeps a mapping from format names and file extensions to decoders.
type Registry struct {
	decoders   map[string]Decoder
	extensions map[string]Decoder
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: map[string]Decoder{}, extensions: map[string]Decoder{}}
}

// Register adds or replaces a decoder implementation.
func (r *Registry) Register(decoder Decoder) {
	if r.decoders == nil {
		r.decoders = map[string]Decoder{}
	}
	if r.extensions == nil {
		r.extensions = map[string]Decoder{}
	}
	r.decoders[decoder.Name()] = decoder
	for _, ext := range decoder.Extensions() {
		r.extensions[strings.ToLower(ext)] = decoder
	}
}

// Resolve returns a decoder by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Decoder, error) {
	if decoder, ok := r.decoders[name]; ok {
		return decoder, nil
	}
	return nil, fmt.Errorf("decoder %s is not registered", name)
}

// ResolveFile picks a decoder from the file extension.
func (r *Registry) ResolveFile(filename string) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if decoder, ok := r.extensions[ext]; ok {
		return decoder, nil
	}
	return nil, fmt.Errorf("no decoder for %q files", ext)
}
