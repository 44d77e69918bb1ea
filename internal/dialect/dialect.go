// Package dialect renders single-source SELECT statements for each
// supported backend family. Row-limit syntax is the part that differs
// per family and must be exact; everything else is shared ANSI shape.
package dialect

import (
	"fmt"

	"github.com/crossquery/crossquery/internal/qerror"
)

type Family string

const (
	FamilySQLServer Family = "sqlserver"
	FamilyAccess    Family = "access"
	FamilyDB2       Family = "db2"
	FamilyPostgres  Family = "postgres"
	FamilyMySQL     Family = "mysql"
	FamilySQLite    Family = "sqlite"
	FamilyDuckDB    Family = "duckdb"
	FamilyCSV       Family = "csv"
	FamilyParquet   Family = "parquet"
)

func (f Family) Valid() bool {
	switch f {
	case FamilySQLServer, FamilyAccess, FamilyDB2, FamilyPostgres,
		FamilyMySQL, FamilySQLite, FamilyDuckDB, FamilyCSV, FamilyParquet:
		return true
	}
	return false
}

// IsFile reports whether the family is a file-based source with no SQL
// engine behind it.
func (f Family) IsFile() bool {
	return f == FamilyCSV || f == FamilyParquet
}

type limitStyle int

const (
	limitNone limitStyle = iota
	// limitTop inserts TOP <n> immediately after SELECT.
	limitTop
	// limitTrailing appends LIMIT <n> after the full statement. DB2
	// belongs here even though it also accepts FETCH FIRST; the driver
	// stack in the field only tolerates LIMIT, so FETCH is never
	// emitted for that family.
	limitTrailing
)

func (f Family) limitStyle() (limitStyle, error) {
	switch f {
	case FamilySQLServer, FamilyAccess:
		return limitTop, nil
	case FamilyDB2, FamilyPostgres, FamilyMySQL, FamilySQLite, FamilyDuckDB:
		return limitTrailing, nil
	case FamilyCSV, FamilyParquet:
		return limitNone, fmt.Errorf("file family %q does not take SQL", f)
	default:
		return limitNone, qerror.New(qerror.KindValidation, "unknown backend family %q", f)
	}
}

// placeholderNumbered reports whether the family binds with $1..$n
// instead of positional ?.
func (f Family) placeholderNumbered() bool {
	return f == FamilyPostgres
}

// DriverName maps a SQL family to its database/sql driver.
func (f Family) DriverName() (string, error) {
	switch f {
	case FamilyPostgres:
		return "pgx", nil
	case FamilyMySQL:
		return "mysql", nil
	case FamilySQLite:
		return "sqlite3", nil
	case FamilyDuckDB:
		return "duckdb", nil
	case FamilySQLServer, FamilyAccess, FamilyDB2:
		// ODBC-backed families are registered by the embedding
		// application; the engine only needs the positional binding
		// and limit rules above.
		return "odbc", nil
	default:
		return "", qerror.New(qerror.KindValidation, "family %q has no SQL driver", f)
	}
}
