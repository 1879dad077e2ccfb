package dbschema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/demiplane/demiplane/pkg/dbschema"
	"github.com/demiplane/demiplane/pkg/nexus"
	"github.com/demiplane/demiplane/pkg/outcome"
)

func usersTable() *dbschema.Table {
	t := dbschema.NewTable("users")
	dbschema.WithPrimaryKey(dbschema.AddField[int64](t, "id", "INTEGER"))
	dbschema.AddField[string](t, "name", "TEXT")
	dbschema.AddField[int64](t, "age", "INTEGER")
	dbschema.AddField[bool](t, "active", "BOOLEAN")
	return t
}

func TestRecordFieldCountMatchesSchema(t *testing.T) {
	tbl := usersTable()
	r := dbschema.NewRecord(tbl)
	require.Equal(t, tbl.FieldCount(), r.FieldCount())

	for i := 0; i < r.FieldCount(); i++ {
		f, err := r.At(i)
		require.NoError(t, err)
		require.Equal(t, tbl.Fields()[i], f.Schema())
	}
}

func TestRecordOrderingMatchesDeclaration(t *testing.T) {
	tbl := usersTable()
	r := dbschema.NewRecord(tbl)
	var names []string
	for _, f := range r.Fields() {
		names = append(names, f.Schema().Name)
	}
	require.Equal(t, []string{"id", "name", "age", "active"}, names)
}

func TestFieldSetGetTryGet(t *testing.T) {
	tbl := usersTable()
	r := dbschema.NewRecord(tbl)

	name, err := r.Field("name")
	require.NoError(t, err)
	dbschema.Set(name, "Alice")

	got, err := dbschema.Get[string](name)
	require.NoError(t, err)
	require.Equal(t, "Alice", got)

	_, err = dbschema.Get[int64](name)
	require.True(t, outcome.Is(err, outcome.TypeMismatch))

	age, err := r.Field("age")
	require.NoError(t, err)
	require.True(t, age.IsNull())
	_, ok := dbschema.TryGet[int64](age)
	require.False(t, ok)
}

func TestFieldUnknownNameFails(t *testing.T) {
	tbl := usersTable()
	r := dbschema.NewRecord(tbl)
	_, err := r.Field("nope")
	require.True(t, outcome.Is(err, outcome.KeyNotFound))
}

func TestFieldOutOfRangeFails(t *testing.T) {
	tbl := usersTable()
	r := dbschema.NewRecord(tbl)
	_, err := r.At(100)
	require.True(t, outcome.Is(err, outcome.OutOfRange))
}

func TestColumnTypeMismatchRejected(t *testing.T) {
	tbl := usersTable()
	_, err := dbschema.Column[int64](tbl, "name")
	require.True(t, outcome.Is(err, outcome.TypeMismatch))

	col, err := dbschema.Column[string](tbl, "name")
	require.NoError(t, err)
	require.Equal(t, "name", col.Name())
}

func TestValidateForInsertRejectsNonNullableNull(t *testing.T) {
	tbl := usersTable()
	r := dbschema.NewRecord(tbl)
	err := r.ValidateForInsert()
	require.True(t, outcome.Is(err, outcome.NullValue))

	idField, _ := r.Field("id")
	dbschema.Set(idField, int64(1))
	require.NoError(t, r.ValidateForInsert())
}

func TestPrimaryKeyValues(t *testing.T) {
	tbl := usersTable()
	r := dbschema.NewRecord(tbl)
	idField, _ := r.Field("id")
	dbschema.Set(idField, int64(7))

	cols, vals, err := r.PrimaryKeyValues()
	require.NoError(t, err)
	require.Equal(t, []string{"id"}, cols)
	got, err := dbschema.As[int64](vals[0])
	require.NoError(t, err)
	require.EqualValues(t, 7, got)
}

type person struct {
	ID    int64  `db:"id,pk"`
	Email string `db:"email,unique"`
	Ghost string `db:"-"`
}

func (person) TableName() string { return "people" }

func TestEntityOfBuildsFromTags(t *testing.T) {
	n := nexus.New()
	defer n.Stop()

	tbl, err := dbschema.EntityOf[person](n)
	require.NoError(t, err)
	require.Equal(t, "people", tbl.Name())

	idCol, ok := tbl.Field("id")
	require.True(t, ok)
	require.True(t, idCol.PrimaryKey)

	emailCol, ok := tbl.Field("email")
	require.True(t, ok)
	require.True(t, emailCol.Unique)

	_, ok = tbl.Field("Ghost")
	require.False(t, ok)

	again, err := dbschema.EntityOf[person](n)
	require.NoError(t, err)
	require.Same(t, tbl, again)
}
