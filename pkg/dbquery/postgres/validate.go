package postgres

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/demiplane/demiplane/pkg/outcome"
)

// ValidateStructure parses sql with PostgreSQL's own grammar (via
// libpg_query) and reports a ShapeMismatch if it doesn't parse. This is
// a debug-time sanity net, not part of the hot execution path: the
// compiler only ever emits SQL it built itself, so a parse failure here
// means a bug in pkg/dbquery's compiler, not a data problem. Unlike the
// dropped pkg/pg_lineage package, this never rewrites or inspects
// foreign SQL text — it only asks "does this parse", on queries this
// module itself produced.
func ValidateStructure(sql string) error {
	if _, err := pg_query.Parse(sql); err != nil {
		return outcome.Wrap(outcome.ShapeMismatch, err, "compiled SQL failed to parse")
	}
	return nil
}
