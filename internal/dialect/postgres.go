package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roomstack/sheetsync/internal"
)

type postgresDialect struct{}

func (d *postgresDialect) Name() string {
	return "postgres"
}

func (d *postgresDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *postgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *postgresDialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1`
}

func (d *postgresDialect) ColumnsQuery() string {
	return `SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1`
}

func (d *postgresDialect) CountQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteIdentifier(table))
}

func (d *postgresDialect) SelectBatchQuery(table string, columns []string, limit int) string {
	return fmt.Sprintf("SELECT id, %s FROM %s WHERE id > $1 ORDER BY id ASC LIMIT %d",
		joinQuoted(d, columns), d.QuoteIdentifier(table), limit)
}

func (d *postgresDialect) CreateTableSQL(table string, columns []internal.Column) string {
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, "id SERIAL PRIMARY KEY")
	for _, col := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", d.QuoteIdentifier(col.Name), col.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.QuoteIdentifier(table), strings.Join(defs, ", "))
}

func (d *postgresDialect) DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", d.QuoteIdentifier(table))
}

func (d *postgresDialect) TableCommentSQL(table, comment string) string {
	return fmt.Sprintf("COMMENT ON TABLE %s IS '%s'", d.QuoteIdentifier(table), escapeComment(comment))
}

func (d *postgresDialect) ColumnCommentSQL(table string, column internal.Column) string {
	return fmt.Sprintf("COMMENT ON COLUMN %s.%s IS '%s'",
		d.QuoteIdentifier(table), d.QuoteIdentifier(column.Name), escapeComment(column.Comment))
}

func (d *postgresDialect) UniqueIndexExistsQuery() string {
	return `SELECT COUNT(*) FROM pg_indexes WHERE tablename = $1 AND indexname = $2`
}

func (d *postgresDialect) CreateUniqueIndexSQL(table, column, indexName string) string {
	return fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)",
		d.QuoteIdentifier(indexName), d.QuoteIdentifier(table), d.QuoteIdentifier(column))
}

func (d *postgresDialect) ForeignKeyExistsQuery() string {
	return `SELECT COUNT(*) FROM pg_constraint WHERE conname = $1`
}

func (d *postgresDialect) AddForeignKeySQL(rel internal.Relationship) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.QuoteIdentifier(rel.SourceTable), d.QuoteIdentifier(rel.ConstraintName()),
		d.QuoteIdentifier(rel.SourceDBField), d.QuoteIdentifier(rel.TargetTable),
		d.QuoteIdentifier(rel.TargetDBField))
}

func (d *postgresDialect) UpdateSQL(table string, columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s = %s", d.QuoteIdentifier(col), d.Placeholder(i))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = %s",
		d.QuoteIdentifier(table), strings.Join(parts, ", "), d.Placeholder(len(columns)))
}

func (d *postgresDialect) Insert(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) ([]int64, error) {
	query, args := multiRowInsert(d, table, columns, rows, "")
	query += " RETURNING id"
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

func joinQuoted(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = d.QuoteIdentifier(name)
	}
	return strings.Join(quoted, ", ")
}

// multiRowInsert builds one multi-row insert statement. The output clause,
// when non-empty, is placed between the column list and VALUES as required
// by T-SQL.
func multiRowInsert(d Dialect, table string, columns []string, rows [][]any, output string) (string, []any) {
	args := make([]any, 0, len(rows)*len(columns))
	tuples := make([]string, 0, len(rows))
	idx := 0
	for _, row := range rows {
		holders := make([]string, len(columns))
		for i := range columns {
			holders[i] = d.Placeholder(idx)
			idx++
		}
		args = append(args, row...)
		tuples = append(tuples, "("+strings.Join(holders, ",")+")")
	}
	var clause string
	if output != "" {
		clause = " " + output
	}
	query := fmt.Sprintf("INSERT INTO %s (%s)%s VALUES %s",
		d.QuoteIdentifier(table), joinQuoted(d, columns), clause, strings.Join(tuples, ","))
	return query, args
}
