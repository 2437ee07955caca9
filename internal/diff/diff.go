package diff

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/roomstack/sheetsync/internal"
	"github.com/roomstack/sheetsync/internal/dialect"
	"github.com/roomstack/sheetsync/internal/normalize"
	"github.com/roomstack/sheetsync/internal/util"
	"github.com/shopmonkeyus/go-common/logger"
)

// Querier is the subset of database/sql needed by the calculator, satisfied
// by both *sql.DB and *sql.Tx so the diff can run inside the exporter's
// transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Calculator classifies a logical table against its live counterpart and
// computes the insert and update sets for an incremental run. Live rows are
// streamed in bounded batches so memory stays proportional to one batch.
type Calculator struct {
	logger    logger.Logger
	db        Querier
	dialect   dialect.Dialect
	batchSize int
}

// NewCalculator returns a Calculator reading live rows in batches of
// batchSize.
func NewCalculator(logger logger.Logger, db Querier, d dialect.Dialect, batchSize int) *Calculator {
	if batchSize <= 0 {
		batchSize = internal.DefaultScanBatchSize
	}
	return &Calculator{
		logger:    logger.WithPrefix("[diff]"),
		db:        db,
		dialect:   d,
		batchSize: batchSize,
	}
}

// Calculate runs the diff for one table. Incoming rows are compared against
// live rows in lockstep by position, live rows ordered by ascending id. A
// live row with no incoming counterpart is left untouched; incoming rows
// beyond the live row count become inserts.
func (c *Calculator) Calculate(ctx context.Context, tableName string, columns []internal.Column, incoming []internal.Row) (*internal.DiffResult, error) {
	exists, err := c.tableExists(ctx, tableName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &internal.DiffResult{IsNewTable: true, ToInsert: incoming}, nil
	}

	liveColumns, err := c.liveColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	for _, col := range columns {
		if !util.SliceContains(liveColumns, col.Name) {
			count, err := c.rowCount(ctx, tableName)
			if err != nil {
				return nil, err
			}
			c.logger.Info("schema changed for %s: column %s missing live", tableName, col.Name)
			return &internal.DiffResult{IsSchemaChanged: true, ToInsert: incoming, DBCount: count}, nil
		}
	}

	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	query := c.dialect.SelectBatchQuery(tableName, names, c.batchSize)

	var toUpdate []internal.RowUpdate
	var liveIndex int
	var lastID int64
	var liveSample, incomingSample []string
	for {
		batch, err := c.readBatch(ctx, query, lastID, names)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		for _, live := range batch {
			lastID = live.id
			if liveIndex == 0 {
				liveSample = normalize.SignatureParts(live.data, columns)
				if len(incoming) > 0 {
					incomingSample = normalize.SignatureParts(incoming[0], columns)
				}
			}
			if liveIndex >= len(incoming) {
				liveIndex++
				continue
			}
			if normalize.Signature(live.data, columns) != normalize.Signature(incoming[liveIndex], columns) {
				toUpdate = append(toUpdate, internal.RowUpdate{ID: live.id, Data: incoming[liveIndex]})
			}
			liveIndex++
		}
		if len(batch) < c.batchSize {
			break
		}
	}

	var toInsert []internal.Row
	if liveIndex < len(incoming) {
		toInsert = incoming[liveIndex:]
	}

	c.reportMassMismatch(tableName, liveIndex, len(incoming), len(toInsert), len(toUpdate), liveSample, incomingSample)

	return &internal.DiffResult{ToInsert: toInsert, ToUpdate: toUpdate, DBCount: liveIndex}, nil
}

// reportMassMismatch surfaces sample signatures when most rows are classified
// as changed while the live table is non-empty, which usually means the
// incoming row order no longer lines up with the live order.
func (c *Calculator) reportMassMismatch(tableName string, liveCount, incomingCount, insertCount, updateCount int, liveSample, incomingSample []string) {
	if liveCount == 0 || float64(insertCount+updateCount) <= float64(incomingCount)*0.8 {
		return
	}
	c.logger.Warn("mass mismatch on %s: live %d, incoming %d, planned %d updates and %d inserts",
		tableName, liveCount, incomingCount, updateCount, insertCount)
	c.logger.Warn("live sample: %s", util.JSONStringify(liveSample))
	c.logger.Warn("incoming sample: %s", util.JSONStringify(incomingSample))
}

func (c *Calculator) tableExists(ctx context.Context, tableName string) (bool, error) {
	var count int
	if err := c.db.QueryRowContext(ctx, c.dialect.TableExistsQuery(), tableName).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *Calculator) liveColumns(ctx context.Context, tableName string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, c.dialect.ColumnsQuery(), tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (c *Calculator) rowCount(ctx context.Context, tableName string) (int, error) {
	var count int
	if err := c.db.QueryRowContext(ctx, c.dialect.CountQuery(tableName)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func toInt64(val any) (int64, error) {
	switch v := val.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	}
	return 0, errors.Newf("unexpected id type %T", val)
}

type liveRow struct {
	id   int64
	data internal.Row
}

func (c *Calculator) readBatch(ctx context.Context, query string, lastID int64, names []string) ([]liveRow, error) {
	rows, err := c.db.QueryContext(ctx, query, lastID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var batch []liveRow
	for rows.Next() {
		values := make([]any, len(names)+1)
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		id, err := toInt64(values[0])
		if err != nil {
			return nil, err
		}
		data := make(internal.Row, len(names))
		for i, name := range names {
			data[name] = values[i+1]
		}
		batch = append(batch, liveRow{id: id, data: data})
	}
	return batch, rows.Err()
}
