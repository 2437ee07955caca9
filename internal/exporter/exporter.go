package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/roomstack/sheetsync/internal"
	"github.com/roomstack/sheetsync/internal/dialect"
	"github.com/roomstack/sheetsync/internal/diff"
	"github.com/roomstack/sheetsync/internal/masker"
	"github.com/roomstack/sheetsync/internal/normalize"
	"github.com/roomstack/sheetsync/internal/util"
	"github.com/roomstack/sheetsync/internal/validate"
	"github.com/shopmonkeyus/go-common/logger"
)

// Exporter synchronizes parsed spreadsheet rows into the relational store
// under a versioned schema mapping. All table data operations for one run
// happen inside a single transaction; foreign keys are applied afterwards
// with per-relationship fault isolation.
type Exporter struct {
	logger   logger.Logger
	registry internal.MappingRegistry
	source   internal.RowSource
	config   *internal.SyncConfig
	masker   *masker.Masker
}

// New returns an Exporter over the given mapping registry and row source.
func New(log logger.Logger, registry internal.MappingRegistry, source internal.RowSource, config *internal.SyncConfig) *Exporter {
	if config == nil {
		config = internal.DefaultSyncConfig()
	}
	return &Exporter{
		logger:   log.WithPrefix("[export]"),
		registry: registry,
		source:   source,
		config:   config,
		masker:   masker.New(log, config.MaskRules),
	}
}

// Run executes one synchronization run and always returns a structured
// result, never a bare error: failures are classified per the error taxonomy
// so the caller can distinguish actionable input problems from
// infrastructure failures.
func (e *Exporter) Run(ctx context.Context, db *sql.DB, d dialect.Dialect, req internal.SyncRequest) *internal.SyncResult {
	result := &internal.SyncResult{
		SessionID: uuid.New().String(),
		Version:   req.Version,
	}
	if !req.Strategy.Valid() {
		result.Error = fmt.Sprintf("invalid strategy: %s", req.Strategy)
		result.ErrorType = internal.ErrorTypeLoad
		return result
	}

	mapping, err := e.registry.Load(req.Version)
	if err != nil {
		result.Error = fmt.Sprintf("schema mapping load failed: %s", err)
		result.ErrorType = internal.ErrorTypeLoad
		return result
	}
	result.Version = mapping.Version

	tableRows, err := e.source.Rows(mapping.Version, mapping)
	if err != nil {
		result.Error = fmt.Sprintf("source rows load failed: %s", err)
		result.ErrorType = internal.ErrorTypeLoad
		return result
	}

	if req.DryRun {
		return e.dryRun(result, mapping, tableRows, req)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		result.Error = err.Error()
		result.ErrorType = internal.ErrorTypeDatabase
		return result
	}

	run := &syncRun{
		exporter: e,
		tx:       tx,
		dialect:  d,
		calc:     diff.NewCalculator(e.logger, tx, d, e.config.ScanBatchSize),
		strategy: req.Strategy,
	}

	for _, node := range mapping.Nodes {
		columns := node.EnabledColumns()
		if len(columns) == 0 {
			e.logger.Warn("skipping %s: no enabled columns", node.TableName)
			continue
		}
		detail, verr, err := run.syncTable(ctx, node, columns, tableRows[node.TableName])
		if verr != nil {
			tx.Rollback()
			e.logger.Error("validation failed: %s", verr)
			result.Error = fmt.Sprintf("data validation failed for %s", verr.Table)
			result.ErrorType = internal.ErrorTypeValidation
			result.Details = verr
			return result
		}
		if err != nil {
			tx.Rollback()
			result.Error = err.Error()
			result.ErrorType = internal.ErrorTypeDatabase
			return result
		}
		result.DetailsReport = append(result.DetailsReport, *detail)
	}

	if err := tx.Commit(); err != nil {
		result.Error = err.Error()
		result.ErrorType = internal.ErrorTypeDatabase
		return result
	}
	e.logger.Info("committed %d tables", len(result.DetailsReport))

	e.applyRelationships(ctx, db, d, mapping.Relationships)

	result.Success = true
	result.Stats = e.buildStats(result.DetailsReport, len(mapping.Relationships), req.Strategy)
	return result
}

func (e *Exporter) buildStats(details []internal.TableSyncDetail, relationships int, strategy internal.Strategy) *internal.SyncStats {
	stats := &internal.SyncStats{
		Relationships: relationships,
		Strategy:      string(strategy),
	}
	for _, detail := range details {
		if detail.InsertCount > 0 || detail.UpdateCount > 0 {
			stats.Tables++
		}
		stats.Rows += detail.InsertCount + detail.UpdateCount
	}
	return stats
}

// dryRun validates every cell of every table without opening a database
// connection, reporting the first unrecoverable value.
func (e *Exporter) dryRun(result *internal.SyncResult, mapping *internal.Mapping, tableRows map[string][]internal.Row, req internal.SyncRequest) *internal.SyncResult {
	stats := &internal.SyncStats{Strategy: string(req.Strategy), Relationships: len(mapping.Relationships)}
	for _, node := range mapping.Nodes {
		columns := node.EnabledColumns()
		if len(columns) == 0 {
			continue
		}
		rows := tableRows[node.TableName]
		for i, row := range rows {
			for _, col := range columns {
				if _, verr := e.buildValue(node.TableName, col, rowValue(row, col), i+1, row); verr != nil {
					result.Error = fmt.Sprintf("data validation failed for %s", node.TableName)
					result.ErrorType = internal.ErrorTypeValidation
					result.Details = verr
					return result
				}
			}
		}
		stats.Tables++
		stats.Rows += len(rows)
		result.DetailsReport = append(result.DetailsReport, internal.TableSyncDetail{
			TableName: node.TableName,
			Checksum:  rowsChecksum(rows, columns),
		})
	}
	result.Success = true
	result.Stats = stats
	return result
}

// applyRelationships runs after commit. Each relationship failure is logged
// and skipped so referential-integrity problems never roll back committed
// data.
func (e *Exporter) applyRelationships(ctx context.Context, db *sql.DB, d dialect.Dialect, relationships []internal.Relationship) {
	for _, rel := range relationships {
		name := rel.ConstraintName()
		var count int
		if err := db.QueryRowContext(ctx, d.ForeignKeyExistsQuery(), name).Scan(&count); err != nil {
			e.logger.Warn("foreign key %s existence check failed: %s", name, err)
			continue
		}
		if count > 0 {
			continue
		}
		if _, err := db.ExecContext(ctx, d.AddForeignKeySQL(rel)); err != nil {
			e.logger.Warn("foreign key %s failed: %s", name, err)
			continue
		}
		e.logger.Info("added foreign key %s", name)
	}
}

func rowValue(row internal.Row, col internal.Column) any {
	if val, ok := row[col.OriginalName]; ok {
		return val
	}
	return row[col.Name]
}

func rowsChecksum(rows []internal.Row, columns []internal.Column) string {
	sigs := make([]any, 0, len(rows))
	for _, row := range rows {
		sigs = append(sigs, normalize.Signature(row, columns))
	}
	return util.Hash(sigs...)
}

// buildValue runs the validate, sanitize, re-validate, mask pipeline for one
// cell. The returned validation error carries the original offending value
// and the full row for diagnosis.
func (e *Exporter) buildValue(tableName string, col internal.Column, val any, rowNumber int, row internal.Row) (any, *internal.ValidationError) {
	if t, ok := val.(time.Time); ok {
		val = normalize.Value(t, col.Type)
	}
	if err := validate.Value(val, col.Type); err != nil {
		original := val
		val = validate.Recover(val, col.Type)
		if err := validate.Value(val, col.Type); err != nil {
			return nil, &internal.ValidationError{
				Table:      tableName,
				RowNumber:  rowNumber,
				Column:     col.OriginalName,
				TargetType: col.Type,
				Value:      normalize.Stringify(original),
				Reason:     err.Error(),
				Row:        row,
			}
		}
	}
	if val == nil || val == "" {
		return nil, nil
	}
	return e.masker.Mask(val, tableName, col.Name), nil
}
