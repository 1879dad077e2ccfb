package dbtest

import (
	"context"
	"fmt"
	"strings"

	"github.com/demiplane/demiplane/pkg/dbschema"
)

// CreateTable issues a CREATE TABLE built directly from table's
// FieldSchemas into the sandbox's own schema (already first on its
// connection's search_path), so a test can stand a table up straight
// from the same dbschema.Table declaration dbtest.NewFixture and the
// query builder use, instead of keeping a parallel .sql migration file
// in sync with it by hand. Column types come from each FieldSchema's
// SQLType verbatim; PrimaryKey/Nullable/Unique/Default/ForeignKey
// become the matching column constraints, and Indexed columns get a
// following CREATE INDEX.
func (sbx *Sandbox) CreateTable(ctx context.Context, table *dbschema.Table) error {
	var cols, pk []string
	for _, fs := range table.Fields() {
		cols = append(cols, columnDDL(fs))
		if fs.PrimaryKey {
			pk = append(pk, quoteIdent(fs.Name))
		}
	}
	if len(pk) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pk, ", ")))
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table.Name()), strings.Join(cols, ", "))
	if _, err := sbx.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("dbtest: creating table %q: %w", table.Name(), err)
	}

	for _, fs := range table.Fields() {
		if !fs.Indexed || fs.PrimaryKey {
			continue
		}
		idx := fmt.Sprintf("CREATE INDEX ON %s (%s)", quoteIdent(table.Name()), quoteIdent(fs.Name))
		if _, err := sbx.DB.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("dbtest: indexing %s.%s: %w", table.Name(), fs.Name, err)
		}
	}
	return nil
}

// DropTable drops table from the sandbox's schema, for a test that
// wants to recreate it mid-run rather than relying solely on the
// sandbox's own per-test schema teardown.
func (sbx *Sandbox) DropTable(ctx context.Context, table *dbschema.Table) error {
	ddl := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(table.Name()))
	if _, err := sbx.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("dbtest: dropping table %q: %w", table.Name(), err)
	}
	return nil
}

func columnDDL(fs *dbschema.FieldSchema) string {
	parts := []string{quoteIdent(fs.Name), fs.SQLType}
	if fs.PrimaryKey || !fs.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if fs.Unique && !fs.PrimaryKey {
		parts = append(parts, "UNIQUE")
	}
	if fs.Default != "" {
		parts = append(parts, "DEFAULT "+fs.Default)
	}
	if fs.ForeignKey {
		parts = append(parts, fmt.Sprintf("REFERENCES %s (%s)", quoteIdent(fs.ForeignTable), quoteIdent(fs.ForeignColumn)))
	}
	return strings.Join(parts, " ")
}

// quoteIdent double-quotes ident the same way postgres.Dialect.QuoteIdent
// does; duplicated here rather than imported so pkg/dbtest doesn't pull
// in pkg/dbquery/postgres just for one string helper.
func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
