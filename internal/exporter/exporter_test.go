package exporter

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/roomstack/sheetsync/internal"
	"github.com/roomstack/sheetsync/internal/dialect"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/stretchr/testify/assert"
)

type fakeRegistry struct {
	mapping *internal.Mapping
	err     error
}

func (r *fakeRegistry) Versions() ([]string, error) {
	return []string{r.mapping.Version}, nil
}

func (r *fakeRegistry) Latest() (string, error) {
	return r.mapping.Version, nil
}

func (r *fakeRegistry) Load(version string) (*internal.Mapping, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.mapping, nil
}

type fakeSource struct {
	rows map[string][]internal.Row
	err  error
}

func (s *fakeSource) Rows(version string, mapping *internal.Mapping) (map[string][]internal.Row, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func tenantsMapping() *internal.Mapping {
	return &internal.Mapping{
		Version: "20240101120000",
		Nodes: []internal.TableMapping{
			{
				TableName:    "tenants",
				OriginalName: "住户名单",
				Columns: []internal.ColumnMapping{
					{OriginalName: "name", DBField: "name", SQLType: "VARCHAR(50)", Enabled: true},
					{OriginalName: "phone", DBField: "phone", SQLType: "VARCHAR(20)", Enabled: true},
				},
			},
		},
	}
}

func maskedConfig() *internal.SyncConfig {
	cfg := internal.DefaultSyncConfig()
	cfg.MaskRules["tenants"] = map[string]internal.MaskKind{
		"name":  internal.MaskName,
		"phone": internal.MaskPhone,
	}
	return cfg
}

func TestRunOverwriteWithMasking(t *testing.T) {
	rows := map[string][]internal.Row{
		"tenants": {{"name": "张三丰", "phone": "13812345678"}},
	}
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()
	e := New(logger.NewTestLogger(), &fakeRegistry{mapping: tenantsMapping()}, &fakeSource{rows: rows}, maskedConfig())
	d, err := dialect.GetDialect("postgres")
	assert.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1`).
		WithArgs("tenants").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`CREATE TABLE "tenants" (id SERIAL PRIMARY KEY, "name" VARCHAR(50), "phone" VARCHAR(20))`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`COMMENT ON TABLE "tenants" IS '住户名单'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`COMMENT ON COLUMN "tenants"."name" IS 'name'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`COMMENT ON COLUMN "tenants"."phone" IS 'phone'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "tenants" ("name", "phone") VALUES ($1,$2) RETURNING id`).
		WithArgs("张*丰", "138****5678").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	res := e.Run(context.Background(), db, d, internal.SyncRequest{
		Version:  "20240101120000",
		Strategy: internal.StrategyOverwrite,
	})
	assert.True(t, res.Success, "unexpected error: %s", res.Error)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, 1, res.Stats.Tables)
	assert.Equal(t, 1, res.Stats.Rows)
	assert.Len(t, res.DetailsReport, 1)
	assert.Equal(t, []int64{1}, res.DetailsReport[0].InsertIDs)
	assert.NotEmpty(t, res.DetailsReport[0].Checksum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunValidationAbortRollsBack(t *testing.T) {
	mapping := &internal.Mapping{
		Version: "20240101120000",
		Nodes: []internal.TableMapping{
			{
				TableName: "payments",
				Columns: []internal.ColumnMapping{
					{OriginalName: "amount", DBField: "amount", SQLType: "INT", Enabled: true},
				},
			},
		},
	}
	rows := map[string][]internal.Row{
		"payments": {{"amount": "not-a-number"}},
	}
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()
	e := New(logger.NewTestLogger(), &fakeRegistry{mapping: mapping}, &fakeSource{rows: rows}, nil)
	d, err := dialect.GetDialect("postgres")
	assert.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1`).
		WithArgs("payments").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`CREATE TABLE "payments" (id SERIAL PRIMARY KEY, "amount" INT)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`COMMENT ON COLUMN "payments"."amount" IS 'amount'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	res := e.Run(context.Background(), db, d, internal.SyncRequest{
		Version:  "20240101120000",
		Strategy: internal.StrategyIncremental,
	})
	assert.False(t, res.Success)
	assert.Equal(t, internal.ErrorTypeValidation, res.ErrorType)
	verr, ok := res.Details.(*internal.ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "payments", verr.Table)
	assert.Equal(t, 1, verr.RowNumber)
	assert.Equal(t, "amount", verr.Column)
	assert.Equal(t, "not-a-number", verr.Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunIncrementalInsertAndUpdate(t *testing.T) {
	rows := map[string][]internal.Row{
		"tenants": {
			{"name": "张三丰", "phone": "13812345678"},
			{"name": "李四", "phone": "13900001111"},
		},
	}
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()
	e := New(logger.NewTestLogger(), &fakeRegistry{mapping: tenantsMapping()}, &fakeSource{rows: rows}, maskedConfig())
	d, err := dialect.GetDialect("postgres")
	assert.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1`).
		WithArgs("tenants").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1`).
		WithArgs("tenants").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id").AddRow("name").AddRow("phone"))
	mock.ExpectQuery(`SELECT id, "name", "phone" FROM "tenants" WHERE id > $1 ORDER BY id ASC LIMIT 10000`).
		WithArgs(int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone"}).AddRow(int64(7), "张*丰", "改了"))
	mock.ExpectExec(`COMMENT ON TABLE "tenants" IS '住户名单'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`COMMENT ON COLUMN "tenants"."name" IS 'name'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`COMMENT ON COLUMN "tenants"."phone" IS 'phone'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "tenants" ("name", "phone") VALUES ($1,$2) RETURNING id`).
		WithArgs("李*", "139****1111").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))
	mock.ExpectExec(`UPDATE "tenants" SET "name" = $1, "phone" = $2 WHERE id = $3`).
		WithArgs("张*丰", "138****5678", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res := e.Run(context.Background(), db, d, internal.SyncRequest{
		Version:  "20240101120000",
		Strategy: internal.StrategyIncremental,
	})
	assert.True(t, res.Success, "unexpected error: %s", res.Error)
	assert.Equal(t, 2, res.Stats.Rows)
	assert.Equal(t, []int64{8}, res.DetailsReport[0].InsertIDs)
	assert.Equal(t, []int64{7}, res.DetailsReport[0].UpdateIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunDryRun(t *testing.T) {
	rows := map[string][]internal.Row{
		"tenants": {{"name": "张三丰", "phone": "13812345678"}},
	}
	e := New(logger.NewTestLogger(), &fakeRegistry{mapping: tenantsMapping()}, &fakeSource{rows: rows}, maskedConfig())

	res := e.Run(context.Background(), nil, nil, internal.SyncRequest{
		Version:  "20240101120000",
		Strategy: internal.StrategyIncremental,
		DryRun:   true,
	})
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Stats.Tables)
	assert.Equal(t, 1, res.Stats.Rows)
}

func TestRunInvalidStrategy(t *testing.T) {
	e := New(logger.NewTestLogger(), &fakeRegistry{mapping: tenantsMapping()}, &fakeSource{}, nil)
	res := e.Run(context.Background(), nil, nil, internal.SyncRequest{Strategy: "sideways"})
	assert.False(t, res.Success)
	assert.Equal(t, internal.ErrorTypeLoad, res.ErrorType)
}
