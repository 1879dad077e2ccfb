package dbquery_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/demiplane/demiplane/pkg/dbquery"
	"github.com/demiplane/demiplane/pkg/dbquery/postgres"
	"github.com/demiplane/demiplane/pkg/dbschema"
	"github.com/demiplane/demiplane/pkg/outcome"
)

func TestLibraryCachesCompiledQuery(t *testing.T) {
	tbl := usersTable()
	id := dbschema.MustColumn[int64](tbl, "id")

	var builds int32
	lib := dbquery.NewLibrary(postgres.Dialect{})
	lib.Register("by_id", func() any {
		atomic.AddInt32(&builds, 1)
		return dbquery.Select(dbquery.C(id)).From("users").Where(dbquery.Eq(dbquery.C(id), dbquery.Lit(int64(1))))
	})

	cq1, err := lib.Get("by_id")
	require.NoError(t, err)
	cq2, err := lib.Get("by_id")
	require.NoError(t, err)
	require.Equal(t, cq1.SQL, cq2.SQL)
	require.EqualValues(t, 1, builds)
	require.Equal(t, 1, lib.Size())

	lib.Invalidate("by_id")
	_, err = lib.Get("by_id")
	require.NoError(t, err)
	require.EqualValues(t, 2, builds)
}

func TestLibraryUnregisteredNameFails(t *testing.T) {
	lib := dbquery.NewLibrary(postgres.Dialect{})
	_, err := lib.Get("nope")
	require.True(t, outcome.Is(err, outcome.NotRegistered))
}
