package connect

import (
	"context"
	"database/sql"

	"github.com/crossquery/crossquery/internal/dialect"
	"github.com/crossquery/crossquery/internal/qerror"
	"github.com/crossquery/crossquery/internal/querydef"
	"github.com/crossquery/crossquery/internal/table"
)

// RunSQL executes one rendered sub-query statement and labels the
// result columns with the qualified field names, which the driver
// cannot report itself.
func RunSQL(ctx context.Context, db *sql.DB, stmt dialect.Statement, fields []querydef.FieldRef) (table.Table, error) {
	rows, err := db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return table.Table{}, qerror.Wrap(qerror.KindExecution, err, "backend rejected statement")
	}
	defer func() { _ = rows.Close() }()

	driverColumns, err := rows.Columns()
	if err != nil {
		return table.Table{}, qerror.Wrap(qerror.KindExecution, err, "read result columns")
	}
	if len(driverColumns) != len(fields) {
		return table.Table{}, qerror.New(qerror.KindExecution,
			"backend returned %d columns, expected %d", len(driverColumns), len(fields))
	}

	columns := make([]table.Column, len(fields))
	for i, field := range fields {
		columns[i] = table.Column{Name: field.QualifiedName(), Kind: string(field.Kind)}
	}
	result := table.New(columns)

	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return table.Table{}, qerror.Wrap(qerror.KindExecution, err, "scan row")
		}
		result.Rows = append(result.Rows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return table.Table{}, qerror.Wrap(qerror.KindExecution, err, "iterate rows")
	}
	return result, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
