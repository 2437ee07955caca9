package dialect

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/roomstack/sheetsync/internal"
)

// Dialect abstracts backend-specific SQL generation plus the insert execution
// path, which differs per backend in how generated identity values are
// returned.
type Dialect interface {
	// Name returns the driver name this dialect was selected for.
	Name() string

	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string

	// Placeholder returns the bind placeholder for the zero-based index.
	Placeholder(index int) string

	// TableExistsQuery returns a query with one bind (table name) scanning a
	// count which is non-zero when the table exists.
	TableExistsQuery() string

	// ColumnsQuery returns a query with one bind (table name) returning one
	// column_name row per live column.
	ColumnsQuery() string

	// CountQuery returns a query counting the rows of the table.
	CountQuery(table string) string

	// SelectBatchQuery returns a keyset pagination query with one bind (the
	// last id seen) selecting id plus the given columns in ascending id
	// order, at most limit rows.
	SelectBatchQuery(table string, columns []string, limit int) string

	CreateTableSQL(table string, columns []internal.Column) string
	DropTableSQL(table string) string

	// TableCommentSQL and ColumnCommentSQL return the comment statement or
	// the empty string when the backend has no comment support.
	TableCommentSQL(table, comment string) string
	ColumnCommentSQL(table string, column internal.Column) string

	// UniqueIndexExistsQuery returns a query with two binds (table name,
	// index name) scanning a count.
	UniqueIndexExistsQuery() string
	CreateUniqueIndexSQL(table, column, indexName string) string

	// ForeignKeyExistsQuery returns a query with one bind (constraint name)
	// scanning a count.
	ForeignKeyExistsQuery() string
	AddForeignKeySQL(rel internal.Relationship) string

	// UpdateSQL returns an update statement binding the column values in
	// order followed by the target id.
	UpdateSQL(table string, columns []string) string

	// Insert writes the rows in one multi-row statement and returns the
	// generated identity values in insertion order.
	Insert(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) ([]int64, error)
}

// GetDialect returns the Dialect implementation for the driver name.
func GetDialect(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "postgresql", "pgx":
		return &postgresDialect{}, nil
	case "mysql":
		return &mysqlDialect{}, nil
	case "sqlserver", "mssql":
		return &sqlserverDialect{}, nil
	}
	return nil, errors.Newf("unsupported driver: %s", driver)
}

var _ Dialect = (*postgresDialect)(nil)
var _ Dialect = (*mysqlDialect)(nil)
var _ Dialect = (*sqlserverDialect)(nil)

func escapeComment(comment string) string {
	return strings.ReplaceAll(comment, "'", "''")
}
