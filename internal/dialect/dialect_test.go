package dialect

import (
	"testing"

	"github.com/roomstack/sheetsync/internal"
	"github.com/stretchr/testify/assert"
)

var testColumns = []internal.Column{
	{Name: "name", Type: "VARCHAR(50)", Comment: "姓名"},
	{Name: "amount", Type: "DECIMAL(10,2)", Comment: "金额"},
}

func TestGetDialect(t *testing.T) {
	for _, driver := range []string{"postgres", "postgresql", "pgx", "mysql", "sqlserver", "mssql"} {
		d, err := GetDialect(driver)
		assert.NoError(t, err)
		assert.NotNil(t, d)
	}
	_, err := GetDialect("oracle")
	assert.Error(t, err)
}

func TestPostgresSQL(t *testing.T) {
	d, err := GetDialect("postgres")
	assert.NoError(t, err)
	assert.Equal(t, `CREATE TABLE "tenants" (id SERIAL PRIMARY KEY, "name" VARCHAR(50), "amount" DECIMAL(10,2))`,
		d.CreateTableSQL("tenants", testColumns))
	assert.Equal(t, `DROP TABLE IF EXISTS "tenants" CASCADE`, d.DropTableSQL("tenants"))
	assert.Equal(t, `SELECT id, "name", "amount" FROM "tenants" WHERE id > $1 ORDER BY id ASC LIMIT 10000`,
		d.SelectBatchQuery("tenants", []string{"name", "amount"}, 10000))
	assert.Equal(t, `UPDATE "tenants" SET "name" = $1, "amount" = $2 WHERE id = $3`,
		d.UpdateSQL("tenants", []string{"name", "amount"}))
	assert.Equal(t, `COMMENT ON TABLE "tenants" IS '住户''名单'`, d.TableCommentSQL("tenants", "住户'名单"))
	assert.Equal(t, `COMMENT ON COLUMN "tenants"."name" IS '姓名'`, d.ColumnCommentSQL("tenants", testColumns[0]))
	assert.Equal(t, `CREATE UNIQUE INDEX "idx_unique_dim_room_type_room_code" ON "dim_room_type" ("room_code")`,
		d.CreateUniqueIndexSQL("dim_room_type", "room_code", "idx_unique_dim_room_type_room_code"))
	rel := internal.Relationship{SourceTable: "rooms", SourceDBField: "room_code", TargetTable: "dim_room_type", TargetDBField: "room_code"}
	assert.Equal(t, `ALTER TABLE "rooms" ADD CONSTRAINT "fk_rooms_room_code" FOREIGN KEY ("room_code") REFERENCES "dim_room_type" ("room_code")`,
		d.AddForeignKeySQL(rel))
}

func TestMySQLSQL(t *testing.T) {
	d, err := GetDialect("mysql")
	assert.NoError(t, err)
	assert.Equal(t, "CREATE TABLE `tenants` (id BIGINT AUTO_INCREMENT PRIMARY KEY, `name` VARCHAR(50), `amount` DECIMAL(10,2))",
		d.CreateTableSQL("tenants", testColumns))
	assert.Equal(t, "DROP TABLE IF EXISTS `tenants`", d.DropTableSQL("tenants"))
	assert.Equal(t, "SELECT id, `name` FROM `tenants` WHERE id > ? ORDER BY id ASC LIMIT 500",
		d.SelectBatchQuery("tenants", []string{"name"}, 500))
	assert.Equal(t, "UPDATE `tenants` SET `name` = ? WHERE id = ?", d.UpdateSQL("tenants", []string{"name"}))
	assert.Equal(t, "ALTER TABLE `tenants` COMMENT = '住户名单'", d.TableCommentSQL("tenants", "住户名单"))
	assert.Equal(t, "ALTER TABLE `tenants` MODIFY COLUMN `name` VARCHAR(50) COMMENT '姓名'",
		d.ColumnCommentSQL("tenants", testColumns[0]))
}

func TestSQLServerSQL(t *testing.T) {
	d, err := GetDialect("sqlserver")
	assert.NoError(t, err)
	assert.Equal(t, "CREATE TABLE [tenants] (id BIGINT IDENTITY(1,1) PRIMARY KEY, [name] VARCHAR(50), [amount] DECIMAL(10,2))",
		d.CreateTableSQL("tenants", testColumns))
	assert.Equal(t, "SELECT TOP (1000) id, [name] FROM [tenants] WHERE id > @p1 ORDER BY id ASC",
		d.SelectBatchQuery("tenants", []string{"name"}, 1000))
	assert.Equal(t, "UPDATE [tenants] SET [name] = @p1 WHERE id = @p2", d.UpdateSQL("tenants", []string{"name"}))
	assert.Empty(t, d.TableCommentSQL("tenants", "住户名单"))
	assert.Empty(t, d.ColumnCommentSQL("tenants", testColumns[0]))
}

func TestMultiRowInsert(t *testing.T) {
	pg, _ := GetDialect("postgres")
	query, args := multiRowInsert(pg, "tenants", []string{"name", "amount"}, [][]any{{"a", 1}, {"b", 2}}, "")
	assert.Equal(t, `INSERT INTO "tenants" ("name", "amount") VALUES ($1,$2),($3,$4)`, query)
	assert.Equal(t, []any{"a", 1, "b", 2}, args)

	ms, _ := GetDialect("sqlserver")
	query, args = multiRowInsert(ms, "tenants", []string{"name"}, [][]any{{"a"}}, "OUTPUT INSERTED.id")
	assert.Equal(t, "INSERT INTO [tenants] ([name]) OUTPUT INSERTED.id VALUES (@p1)", query)
	assert.Equal(t, []any{"a"}, args)
}
