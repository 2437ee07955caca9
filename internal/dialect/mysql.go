package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/roomstack/sheetsync/internal"
)

type mysqlDialect struct{}

func (d *mysqlDialect) Name() string {
	return "mysql"
}

func (d *mysqlDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *mysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *mysqlDialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`
}

func (d *mysqlDialect) ColumnsQuery() string {
	return `SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ?`
}

func (d *mysqlDialect) CountQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteIdentifier(table))
}

func (d *mysqlDialect) SelectBatchQuery(table string, columns []string, limit int) string {
	return fmt.Sprintf("SELECT id, %s FROM %s WHERE id > ? ORDER BY id ASC LIMIT %d",
		joinQuoted(d, columns), d.QuoteIdentifier(table), limit)
}

func (d *mysqlDialect) CreateTableSQL(table string, columns []internal.Column) string {
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, "id BIGINT AUTO_INCREMENT PRIMARY KEY")
	for _, col := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", d.QuoteIdentifier(col.Name), col.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.QuoteIdentifier(table), strings.Join(defs, ", "))
}

func (d *mysqlDialect) DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdentifier(table))
}

func (d *mysqlDialect) TableCommentSQL(table, comment string) string {
	return fmt.Sprintf("ALTER TABLE %s COMMENT = '%s'", d.QuoteIdentifier(table), escapeComment(comment))
}

func (d *mysqlDialect) ColumnCommentSQL(table string, column internal.Column) string {
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s COMMENT '%s'",
		d.QuoteIdentifier(table), d.QuoteIdentifier(column.Name), column.Type, escapeComment(column.Comment))
}

func (d *mysqlDialect) UniqueIndexExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.statistics WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?`
}

func (d *mysqlDialect) CreateUniqueIndexSQL(table, column, indexName string) string {
	return fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)",
		d.QuoteIdentifier(indexName), d.QuoteIdentifier(table), d.QuoteIdentifier(column))
}

func (d *mysqlDialect) ForeignKeyExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.table_constraints WHERE constraint_schema = DATABASE() AND constraint_type = 'FOREIGN KEY' AND constraint_name = ?`
}

func (d *mysqlDialect) AddForeignKeySQL(rel internal.Relationship) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.QuoteIdentifier(rel.SourceTable), d.QuoteIdentifier(rel.ConstraintName()),
		d.QuoteIdentifier(rel.SourceDBField), d.QuoteIdentifier(rel.TargetTable),
		d.QuoteIdentifier(rel.TargetDBField))
}

func (d *mysqlDialect) UpdateSQL(table string, columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s = ?", d.QuoteIdentifier(col))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = ?",
		d.QuoteIdentifier(table), strings.Join(parts, ", "))
}

// Insert relies on the connection's innodb autoinc lock mode assigning a
// contiguous ascending id range to a single multi-row insert, which lets the
// generated ids be derived from LastInsertId plus RowsAffected.
func (d *mysqlDialect) Insert(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) ([]int64, error) {
	query, args := multiRowInsert(d, table, columns, rows, "")
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	first, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if count != int64(len(rows)) {
		return nil, errors.Newf("expected %d rows inserted, got %d", len(rows), count)
	}
	ids := make([]int64, 0, count)
	for i := int64(0); i < count; i++ {
		ids = append(ids, first+i)
	}
	return ids, nil
}
