package dbschema

import (
	"context"
	"database/sql"

	"github.com/demiplane/demiplane/pkg/outcome"
)

// IntrospectTable reflects a live PostgreSQL table into a *Table,
// querying pg_catalog directly for the columns and primary-key facets
// dbschema's model actually needs. conn may be any
// *sql.DB/*sql.Conn/*sql.Tx — anything with QueryContext.
func IntrospectTable(ctx context.Context, conn queryer, schema, table string) (*Table, error) {
	const colsQuery = `
SELECT a.attname,
       pg_catalog.format_type(a.atttypid, a.atttypmod) AS typ,
       a.attnotnull
FROM pg_catalog.pg_attribute a
JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1 AND c.relname = $2 AND a.attnum > 0 AND NOT a.attisdropped
ORDER BY a.attnum`

	rows, err := conn.QueryContext(ctx, colsQuery, schema, table)
	if err != nil {
		return nil, outcome.Wrap(outcome.ProtocolError, err, "introspecting columns of %s.%s", schema, table)
	}
	defer rows.Close()

	t := NewTable(table)
	found := false
	for rows.Next() {
		found = true
		var name, typ string
		var notNull bool
		if err := rows.Scan(&name, &typ, &notNull); err != nil {
			return nil, outcome.Wrap(outcome.ProtocolError, err, "scanning column row")
		}
		fs := t.AddDynamicField(name, typ)
		fs.Nullable = !notNull
	}
	if err := rows.Err(); err != nil {
		return nil, outcome.Wrap(outcome.ProtocolError, err, "iterating column rows")
	}
	if !found {
		return nil, outcome.New(outcome.SchemaMismatch, "table %s.%s has no columns (does it exist?)", schema, table)
	}

	const pkQuery = `
SELECT a.attname
FROM pg_catalog.pg_index i
JOIN pg_catalog.pg_class c ON c.oid = i.indrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
JOIN pg_catalog.pg_attribute a ON a.attrelid = c.oid AND a.attnum = ANY(i.indkey)
WHERE n.nspname = $1 AND c.relname = $2 AND i.indisprimary`

	pkRows, err := conn.QueryContext(ctx, pkQuery, schema, table)
	if err != nil {
		return nil, outcome.Wrap(outcome.ProtocolError, err, "introspecting primary key of %s.%s", schema, table)
	}
	defer pkRows.Close()

	for pkRows.Next() {
		var col string
		if err := pkRows.Scan(&col); err != nil {
			return nil, outcome.Wrap(outcome.ProtocolError, err, "scanning pk row")
		}
		if fs, ok := t.Field(col); ok {
			WithPrimaryKey(fs)
		}
	}
	if err := pkRows.Err(); err != nil {
		return nil, outcome.Wrap(outcome.ProtocolError, err, "iterating pk rows")
	}

	return t, nil
}

// queryer is the minimal surface IntrospectTable needs, satisfied by
// *sql.DB, *sql.Conn and *sql.Tx alike.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
