package domain

import (
	"fmt"
	"strings"
)

// COPY text format delimiters.
const (
	ColumnSeparator = '\t'
	RecordSeparator = '\n'
	NullValue       = `\N`
)

// Column is one column definition of the destination table.
type Column struct {
	Name        string
	Type        string
	Constraints string
}

// TableSchema describes the destination table for one run: the fixed
// measurement columns followed by a value/unit pair per phenomenon. CREATE,
// COPY and row encoding all iterate the same column slice, so their orders
// cannot diverge.
type TableSchema struct {
	table     string
	columns   []Column
	phenomena Phenomena
}

// NewTableSchema builds the schema for table from the discovered phenomena.
// table must already be a safe SQL identifier.
func NewTableSchema(table string, srid int, phenomena Phenomena) TableSchema {
	cols := make([]Column, 0, 5+2*len(phenomena))
	cols = append(cols,
		Column{Name: "id", Type: "char(24)", Constraints: "primary key"},
		Column{Name: "geom", Type: fmt.Sprintf("geometry(Point,%d)", srid), Constraints: "not null"},
		Column{Name: "time", Type: "timestamp", Constraints: "not null"},
		Column{Name: "sensor", Type: "char(24)", Constraints: "not null"},
		Column{Name: "track", Type: "char(24)", Constraints: "not null"},
	)
	for _, p := range phenomena {
		cols = append(cols,
			Column{Name: p, Type: "double precision"},
			Column{Name: UnitColumnName(p), Type: "char(16)"},
		)
	}
	return TableSchema{table: table, columns: cols, phenomena: phenomena}
}

// Table returns the destination table name.
func (s TableSchema) Table() string { return s.table }

// Phenomena returns the phenomenon columns the schema was built from.
func (s TableSchema) Phenomena() Phenomena { return s.phenomena }

// Columns returns the column names in table order.
func (s TableSchema) Columns() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// DropCommand returns the statement removing a previous run's table.
func (s TableSchema) DropCommand() string {
	return "DROP TABLE IF EXISTS " + s.table
}

// CreateCommand returns the CREATE TABLE statement.
func (s TableSchema) CreateCommand() string {
	defs := make([]string, len(s.columns))
	for i, c := range s.columns {
		def := c.Name + " " + c.Type
		if c.Constraints != "" {
			def += " " + c.Constraints
		}
		defs[i] = def
	}
	return "CREATE TABLE " + s.table + " (" + strings.Join(defs, ", ") + ")"
}

// CopyCommand returns the COPY statement that reads rows from the client.
func (s TableSchema) CopyCommand() string {
	return "COPY " + s.table + "(" + strings.Join(s.Columns(), ", ") + ") FROM STDIN"
}

// AppendRow appends r to dst as one COPY text record in column order.
// Fields are not escaped.
func (s TableSchema) AppendRow(dst []byte, r Row) []byte {
	dst = append(dst, r.ID...)
	dst = append(dst, ColumnSeparator)
	dst = append(dst, r.Geom...)
	dst = append(dst, ColumnSeparator)
	dst = append(dst, r.Time...)
	dst = append(dst, ColumnSeparator)
	dst = append(dst, r.Sensor...)
	dst = append(dst, ColumnSeparator)
	dst = append(dst, r.Track...)

	for _, c := range s.columns[5:] {
		dst = append(dst, ColumnSeparator)
		if v, ok := r.Values[c.Name]; ok {
			dst = append(dst, v...)
		} else {
			dst = append(dst, NullValue...)
		}
	}
	return append(dst, RecordSeparator)
}
