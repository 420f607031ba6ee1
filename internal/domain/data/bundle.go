package data

import (
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/crypto/blake2b"
)

// Table is a named, immutable dataset: column names plus row values.
// Tables are shared by reference across registry views and must not be
// mutated after construction.
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewTable constructs a table and validates row widths against the columns.
func NewTable(name string, columns []string, rows [][]any) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("table %s: row %d has %d values, want %d", name, i, len(row), len(columns))
		}
	}
	return &Table{Name: name, Columns: columns, Rows: rows}, nil
}

// ColumnIndex returns the position of a column, or -1 if absent.
func (t *Table) ColumnIndex(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Len returns the row count.
func (t *Table) Len() int { return len(t.Rows) }

// Bundle is an immutable snapshot of loaded datasets. It is produced by a
// Resolver and consumed exactly once by registry construction.
type Bundle struct {
	tables   map[string]*Table
	loadedAt time.Time
	digest   string
}

// NewBundle builds a bundle from tables. Duplicate table names are rejected.
func NewBundle(tables ...*Table) (*Bundle, error) {
	b := &Bundle{
		tables:   make(map[string]*Table, len(tables)),
		loadedAt: time.Now(),
	}
	for _, t := range tables {
		if _, dup := b.tables[t.Name]; dup {
			return nil, fmt.Errorf("duplicate table %s in bundle", t.Name)
		}
		b.tables[t.Name] = t
	}
	b.digest = fingerprint(b.tables)
	return b, nil
}

// Empty reports whether the bundle holds no tables. Empty bundles are
// ignored by the lifecycle watch loop.
func (b *Bundle) Empty() bool {
	return b == nil || len(b.tables) == 0
}

// Table returns the named table.
func (b *Bundle) Table(name string) (*Table, bool) {
	t, ok := b.tables[name]
	return t, ok
}

// Names returns all table names in sorted order.
func (b *Bundle) Names() []string {
	names := make([]string, 0, len(b.tables))
	for name := range b.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadedAt returns the time the bundle was assembled.
func (b *Bundle) LoadedAt() time.Time { return b.loadedAt }

// Fingerprint returns a stable blake2b digest over the bundle contents,
// used by the lock-file and diagnostics surfaces.
func (b *Bundle) Fingerprint() string { return b.digest }

func fingerprint(tables map[string]*Table) string {
	h, err := blake2b.New256(nil)
	if err != nil {
		return ""
	}
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		payload, err := sonic.Marshal(tables[name])
		if err != nil {
			continue
		}
		h.Write([]byte(name))
		h.Write(payload)
	}
	return hex.EncodeToString(h.Sum(nil))
}
