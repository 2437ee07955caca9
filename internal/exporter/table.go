package exporter

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roomstack/sheetsync/internal"
	"github.com/roomstack/sheetsync/internal/dialect"
	"github.com/roomstack/sheetsync/internal/diff"
)

// syncRun carries the per-run state shared by every table: the open
// transaction, the dialect and the diff calculator bound to that
// transaction.
type syncRun struct {
	exporter *Exporter
	tx       *sql.Tx
	dialect  dialect.Dialect
	calc     *diff.Calculator
	strategy internal.Strategy
}

// syncTable runs the per-table state machine. A returned validation error is
// fatal for the whole run; any other error is a database error. Both cause
// the caller to roll back.
func (r *syncRun) syncTable(ctx context.Context, node internal.TableMapping, columns []internal.Column, rows []internal.Row) (*internal.TableSyncDetail, *internal.ValidationError, error) {
	log := r.exporter.logger
	tableName := node.TableName
	detail := &internal.TableSyncDetail{TableName: tableName}

	res, err := r.calc.Calculate(ctx, tableName, columns, rows)
	if err != nil {
		return nil, nil, err
	}

	toInsert := res.ToInsert
	toUpdate := res.ToUpdate
	needCreate := res.IsNewTable
	switch {
	case res.IsSchemaChanged:
		log.Info("schema changed for %s, rebuilding", tableName)
		if _, err := r.tx.ExecContext(ctx, r.dialect.DropTableSQL(tableName)); err != nil {
			return nil, nil, err
		}
		needCreate = true
	case !res.IsNewTable && r.strategy == internal.StrategyOverwrite:
		if _, err := r.tx.ExecContext(ctx, r.dialect.DropTableSQL(tableName)); err != nil {
			return nil, nil, err
		}
		needCreate = true
	}

	if needCreate {
		if _, err := r.tx.ExecContext(ctx, r.dialect.CreateTableSQL(tableName, columns)); err != nil {
			return nil, nil, err
		}
		toInsert = rows
		toUpdate = nil
	} else {
		log.Info("%s: insert %d, update %d", tableName, len(toInsert), len(toUpdate))
	}

	if err := r.ensureUniqueIndexes(ctx, tableName, columns); err != nil {
		return nil, nil, err
	}
	if err := r.writeComments(ctx, node, columns); err != nil {
		return nil, nil, err
	}

	if verr, err := r.insertRows(ctx, tableName, columns, toInsert, detail); verr != nil || err != nil {
		return nil, verr, err
	}
	if verr, err := r.updateRows(ctx, tableName, columns, toUpdate, detail); verr != nil || err != nil {
		return nil, verr, err
	}

	detail.InsertCount = len(detail.InsertIDs)
	detail.UpdateCount = len(detail.UpdateIDs)
	detail.Checksum = rowsChecksum(rows, columns)
	return detail, nil, nil
}

// ensureUniqueIndexes creates the configured unique indexes for dimension
// tables when missing, so they are valid foreign key targets. Creation is
// existence-checked to stay idempotent across runs.
func (r *syncRun) ensureUniqueIndexes(ctx context.Context, tableName string, columns []internal.Column) error {
	keys := r.exporter.config.UniqueKeys[tableName]
	for _, key := range keys {
		var found bool
		for _, col := range columns {
			if col.Name == key {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		indexName := fmt.Sprintf("idx_unique_%s_%s", tableName, key)
		var count int
		if err := r.tx.QueryRowContext(ctx, r.dialect.UniqueIndexExistsQuery(), tableName, indexName).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if _, err := r.tx.ExecContext(ctx, r.dialect.CreateUniqueIndexSQL(tableName, key, indexName)); err != nil {
			return err
		}
		r.exporter.logger.Info("ensured unique index %s", indexName)
	}
	return nil
}

// writeComments rewrites the table and column comments on every run so the
// descriptions track the current mapping. Backends without comment support
// return empty statements, which are skipped.
func (r *syncRun) writeComments(ctx context.Context, node internal.TableMapping, columns []internal.Column) error {
	if comment := node.Comment(); comment != "" {
		if query := r.dialect.TableCommentSQL(node.TableName, comment); query != "" {
			if _, err := r.tx.ExecContext(ctx, query); err != nil {
				return err
			}
		}
	}
	for _, col := range columns {
		if col.Comment == "" {
			continue
		}
		if query := r.dialect.ColumnCommentSQL(node.TableName, col); query != "" {
			if _, err := r.tx.ExecContext(ctx, query); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *syncRun) insertRows(ctx context.Context, tableName string, columns []internal.Column, rows []internal.Row, detail *internal.TableSyncDetail) (*internal.ValidationError, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	batchSize := r.exporter.config.InsertBatchSize
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := make([][]any, 0, end-start)
		for i, row := range rows[start:end] {
			values := make([]any, len(columns))
			for j, col := range columns {
				val, verr := r.exporter.buildValue(tableName, col, rowValue(row, col), start+i+1, row)
				if verr != nil {
					return verr, nil
				}
				values[j] = val
			}
			batch = append(batch, values)
		}
		ids, err := r.dialect.Insert(ctx, r.tx, tableName, names, batch)
		if err != nil {
			return nil, err
		}
		detail.InsertIDs = append(detail.InsertIDs, ids...)
	}
	return nil, nil
}

func (r *syncRun) updateRows(ctx context.Context, tableName string, columns []internal.Column, updates []internal.RowUpdate, detail *internal.TableSyncDetail) (*internal.ValidationError, error) {
	if len(updates) == 0 {
		return nil, nil
	}
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	query := r.dialect.UpdateSQL(tableName, names)
	for i, update := range updates {
		args := make([]any, 0, len(columns)+1)
		for _, col := range columns {
			val, verr := r.exporter.buildValue(tableName, col, rowValue(update.Data, col), i+1, update.Data)
			if verr != nil {
				return verr, nil
			}
			args = append(args, val)
		}
		args = append(args, update.ID)
		if _, err := r.tx.ExecContext(ctx, query, args...); err != nil {
			return nil, err
		}
		detail.UpdateIDs = append(detail.UpdateIDs, update.ID)
	}
	return nil, nil
}
