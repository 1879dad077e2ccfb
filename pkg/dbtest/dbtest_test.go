package dbtest_test

import (
	"context"
	"embed"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/demiplane/demiplane/pkg/dbquery"
	"github.com/demiplane/demiplane/pkg/dbquery/postgres"
	"github.com/demiplane/demiplane/pkg/dbschema"
	"github.com/demiplane/demiplane/pkg/dbtest"
)

//go:embed migrations/*.sql
var migrations embed.FS

func TestMain(m *testing.M) {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	dbtest.BootOnce(&testing.T{}, dbtest.WithMigrations(sub))
	code := m.Run()
	_ = dbtest.ShutdownNow()
	os.Exit(code)
}

func widgetsTable() *dbschema.Table {
	t := dbschema.NewTable("widgets")
	dbschema.WithPrimaryKey(dbschema.WithDefault(dbschema.AddField[int64](t, "id", "BIGSERIAL"), "nextval"))
	dbschema.AddField[string](t, "sku", "TEXT").Attributes["faker"] = "word"
	dbschema.AddField[string](t, "label", "TEXT").Attributes["faker"] = "sentence"
	dbschema.WithNullable(dbschema.AddField[int32](t, "quantity", "INTEGER"), false)
	dbschema.WithNullable(dbschema.AddField[float64](t, "price", "DOUBLE PRECISION"), false)
	dbschema.WithNullable(dbschema.AddField[bool](t, "active", "BOOLEAN"), false)
	return t
}

// TestFixtureRoundTripsThroughRealPostgres inserts a faker-populated
// Record via dbquery's InsertBuilder and reads it back via a SELECT,
// checking that the sku and label columns survive the wire round trip
// byte-for-byte — the scenario lib_test.go's TestGetUserGenericFactory
// exercises by hand, generalized onto dbschema.Record and the compiler
// instead of a one-off insertSQL helper.
func TestFixtureRoundTripsThroughRealPostgres(t *testing.T) {
	sbx := dbtest.NewSandbox(t)
	dbtest.SeedFaker(42)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, sbx.DSN)
	require.NoError(t, err)
	defer pool.Close()
	exec := postgres.NewExecutor(pool)
	dialect := postgres.Dialect{}

	table := widgetsTable()
	rec := dbtest.NewFixture(table)

	idCol := dbschema.NewDynamicColumn(table.Name(), "id")
	insertStmt := dbquery.FromRecord(rec).Returning(idCol)
	cq, err := dbquery.Compile(insertStmt, dialect)
	require.NoError(t, err)

	inserted, err := exec.Execute(ctx, cq)
	require.NoError(t, err)
	require.Equal(t, 1, inserted.Rows())

	id, err := postgres.Get[int64](inserted, 0, 0)
	require.NoError(t, err)

	sku, _ := dbschema.Get[string](mustField(t, rec, "sku"))
	label, _ := dbschema.Get[string](mustField(t, rec, "label"))

	skuCol := dbschema.NewDynamicColumn(table.Name(), "sku")
	labelCol := dbschema.NewDynamicColumn(table.Name(), "label")
	idWhereCol := dbschema.NewDynamicColumn(table.Name(), "id")
	selectStmt := dbquery.Select(dbquery.Dyn(skuCol), dbquery.Dyn(labelCol)).
		From(table.Name()).
		Where(dbquery.Eq(dbquery.Dyn(idWhereCol), dbquery.Lit(id)))
	selectCQ, err := dbquery.Compile(selectStmt, dialect)
	require.NoError(t, err)

	result, err := exec.Execute(ctx, selectCQ)
	require.NoError(t, err)
	require.Equal(t, 1, result.Rows())

	gotSku, err := postgres.Get[string](result, 0, 0)
	require.NoError(t, err)
	gotLabel, err := postgres.Get[string](result, 0, 1)
	require.NoError(t, err)

	require.Equal(t, sku, gotSku)
	require.Equal(t, label, gotLabel)
}

func gadgetsTable() *dbschema.Table {
	t := dbschema.NewTable("gadgets")
	dbschema.WithPrimaryKey(dbschema.WithDefault(dbschema.AddField[int64](t, "id", "BIGSERIAL"), "nextval"))
	dbschema.WithUnique(dbschema.AddField[string](t, "slug", "TEXT")).Attributes["faker"] = "word"
	dbschema.WithNullable(dbschema.AddField[int32](t, "weight_grams", "INTEGER"), false)
	return t
}

// TestCreateTableStandsUpSchemaFromDbschemaTable exercises
// Sandbox.CreateTable against a table never declared in a migration
// file, then round-trips a fixture through it — proving the table DDL
// derived from a dbschema.Table actually matches what the fixture and
// query builder expect to write to and read from.
func TestCreateTableStandsUpSchemaFromDbschemaTable(t *testing.T) {
	sbx := dbtest.NewSandbox(t)
	dbtest.SeedFaker(7)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	table := gadgetsTable()
	require.NoError(t, sbx.CreateTable(ctx, table))

	pool, err := pgxpool.New(ctx, sbx.DSN)
	require.NoError(t, err)
	defer pool.Close()
	exec := postgres.NewExecutor(pool)
	dialect := postgres.Dialect{}

	rec := dbtest.NewFixture(table)
	idCol := dbschema.NewDynamicColumn(table.Name(), "id")
	insertStmt := dbquery.FromRecord(rec).Returning(idCol)
	cq, err := dbquery.Compile(insertStmt, dialect)
	require.NoError(t, err)

	inserted, err := exec.Execute(ctx, cq)
	require.NoError(t, err)
	require.Equal(t, 1, inserted.Rows())

	require.NoError(t, sbx.DropTable(ctx, table))
}

func mustField(t *testing.T, rec *dbschema.Record, name string) *dbschema.Field {
	t.Helper()
	f, err := rec.Field(name)
	require.NoError(t, err)
	return f
}
