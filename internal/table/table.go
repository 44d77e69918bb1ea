// Package table holds the in-memory result table passed between the
// connectors, the join engine and the materializer.
package table

import "fmt"

// Column is a qualified output column. Name is always "Table.Field" so
// same-named fields from different tables stay distinguishable after a
// join.
type Column struct {
	Name string
	Kind string
}

type Table struct {
	Columns []Column
	Rows    [][]any
}

func New(columns []Column) Table {
	return Table{Columns: columns, Rows: make([][]any, 0)}
}

func (t Table) RowCount() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the qualified column name, or an
// error naming the missing column.
func (t Table) ColumnIndex(name string) (int, error) {
	for i, col := range t.Columns {
		if col.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column %q not present in result table", name)
}

// Project returns a new table restricted to the named columns, in the
// given order.
func (t Table) Project(names []string) (Table, error) {
	indexes := make([]int, 0, len(names))
	columns := make([]Column, 0, len(names))
	for _, name := range names {
		idx, err := t.ColumnIndex(name)
		if err != nil {
			return Table{}, err
		}
		indexes = append(indexes, idx)
		columns = append(columns, t.Columns[idx])
	}

	projected := Table{Columns: columns, Rows: make([][]any, 0, len(t.Rows))}
	for _, row := range t.Rows {
		out := make([]any, len(indexes))
		for i, idx := range indexes {
			out[i] = row[idx]
		}
		projected.Rows = append(projected.Rows, out)
	}
	return projected, nil
}

// Truncate limits the table to at most n rows. n <= 0 leaves the table
// unchanged.
func (t Table) Truncate(n int) Table {
	if n <= 0 || len(t.Rows) <= n {
		return t
	}
	return Table{Columns: t.Columns, Rows: t.Rows[:n]}
}
