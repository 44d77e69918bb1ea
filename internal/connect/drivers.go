package connect

// Drivers for the SQL backend families. ODBC-backed families (SQL
// Server, Access, DB2) are registered by the embedding application.
import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)
