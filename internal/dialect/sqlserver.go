package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roomstack/sheetsync/internal"
)

type sqlserverDialect struct{}

func (d *sqlserverDialect) Name() string {
	return "sqlserver"
}

func (d *sqlserverDialect) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d *sqlserverDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

func (d *sqlserverDialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = 'dbo' AND TABLE_NAME = @p1`
}

func (d *sqlserverDialect) ColumnsQuery() string {
	return `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = 'dbo' AND TABLE_NAME = @p1`
}

func (d *sqlserverDialect) CountQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteIdentifier(table))
}

func (d *sqlserverDialect) SelectBatchQuery(table string, columns []string, limit int) string {
	return fmt.Sprintf("SELECT TOP (%d) id, %s FROM %s WHERE id > @p1 ORDER BY id ASC",
		limit, joinQuoted(d, columns), d.QuoteIdentifier(table))
}

func (d *sqlserverDialect) CreateTableSQL(table string, columns []internal.Column) string {
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, "id BIGINT IDENTITY(1,1) PRIMARY KEY")
	for _, col := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", d.QuoteIdentifier(col.Name), col.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.QuoteIdentifier(table), strings.Join(defs, ", "))
}

func (d *sqlserverDialect) DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdentifier(table))
}

// Comments are stored as extended properties on SQL Server and need the
// sp_addextendedproperty procedure rather than a plain statement, so the
// exporter skips them for this backend.
func (d *sqlserverDialect) TableCommentSQL(table, comment string) string {
	return ""
}

func (d *sqlserverDialect) ColumnCommentSQL(table string, column internal.Column) string {
	return ""
}

func (d *sqlserverDialect) UniqueIndexExistsQuery() string {
	return `SELECT COUNT(*) FROM sys.indexes WHERE object_id = OBJECT_ID(@p1) AND name = @p2`
}

func (d *sqlserverDialect) CreateUniqueIndexSQL(table, column, indexName string) string {
	return fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)",
		d.QuoteIdentifier(indexName), d.QuoteIdentifier(table), d.QuoteIdentifier(column))
}

func (d *sqlserverDialect) ForeignKeyExistsQuery() string {
	return `SELECT COUNT(*) FROM sys.foreign_keys WHERE name = @p1`
}

func (d *sqlserverDialect) AddForeignKeySQL(rel internal.Relationship) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.QuoteIdentifier(rel.SourceTable), d.QuoteIdentifier(rel.ConstraintName()),
		d.QuoteIdentifier(rel.SourceDBField), d.QuoteIdentifier(rel.TargetTable),
		d.QuoteIdentifier(rel.TargetDBField))
}

func (d *sqlserverDialect) UpdateSQL(table string, columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s = %s", d.QuoteIdentifier(col), d.Placeholder(i))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = %s",
		d.QuoteIdentifier(table), strings.Join(parts, ", "), d.Placeholder(len(columns)))
}

func (d *sqlserverDialect) Insert(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) ([]int64, error) {
	query, args := multiRowInsert(d, table, columns, rows, "OUTPUT INSERTED.id")
	res, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	ids := make([]int64, 0, len(rows))
	for res.Next() {
		var id int64
		if err := res.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, res.Err()
}
