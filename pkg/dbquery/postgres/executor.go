package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/demiplane/demiplane/pkg/dbquery"
	"github.com/demiplane/demiplane/pkg/dbschema"
	"github.com/demiplane/demiplane/pkg/outcome"
)

// Executor runs a pkg/dbquery.CompiledQuery (or raw SQL text, for the
// library's debug path) against a live PostgreSQL connection pool and
// decodes the wire-format result into a ResultBlock, using pgx/v5's
// RawValues()/FieldDescriptions() surface to read the binary rows
// directly.
type Executor struct {
	pool *pgxpool.Pool
}

// NewExecutor wraps an already-connected pool. Pool lifecycle (Connect,
// Close) is the caller's responsibility — an Executor never owns it.
func NewExecutor(pool *pgxpool.Pool) *Executor {
	return &Executor{pool: pool}
}

// Execute runs a compiled query's SQL against a raw connection using
// PostgreSQL's binary extended query protocol directly: every bound
// parameter is encoded to wire format by OID via EncodeParams and sent
// through pgconn.ExecParams, the same shape as libpq's PQexecParams,
// rather than handed to pool.Query as native Go values for pgx's own
// driver-level codec to encode. Every returned column is decoded back
// through the OID decode table.
func (e *Executor) Execute(ctx context.Context, cq dbquery.CompiledQuery) (*ResultBlock, error) {
	oids, formats, raw, err := EncodeParams(cq.Params)
	if err != nil {
		return nil, err
	}
	return e.queryParams(ctx, cq.SQL, oids, formats, raw)
}

// ExecuteSQL runs raw SQL text with positional args, for the Library's
// debug/ad hoc path where no CompiledQuery (and so no dbschema.FieldValue
// parameters to OID-encode) was produced; args are arbitrary Go values
// pgx's own query path encodes itself.
func (e *Executor) ExecuteSQL(ctx context.Context, sql string, args ...any) (*ResultBlock, error) {
	rows, err := e.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	rb := newResultBlock(names)

	for rows.Next() {
		raw := rows.RawValues()
		row := make([]dbschema.FieldValue, len(fields))
		for i, f := range fields {
			v, err := DecodeColumn(f.DataTypeOID, raw[i], raw[i] == nil)
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		rb.appendRow(row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err)
	}
	return rb, nil
}

// queryParams acquires a pool connection and runs sql through
// pgconn.ExecParams with explicit per-parameter OIDs/formats/wire
// bytes and an all-binary result format, decoding rows through the same
// OID decode table RawValues()-based reads use.
func (e *Executor) queryParams(ctx context.Context, sql string, oids []uint32, formats []int16, values [][]byte) (*ResultBlock, error) {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, outcome.Wrap(outcome.ConnectionClosed, err, "acquiring connection")
	}
	defer conn.Release()

	resultFormats := []int16{pgtype.BinaryFormatCode}
	rr := conn.Conn().PgConn().ExecParams(ctx, sql, values, oids, formats, resultFormats)

	fields := rr.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	rb := newResultBlock(names)

	for rr.NextRow() {
		vals := rr.Values()
		row := make([]dbschema.FieldValue, len(fields))
		for i, f := range fields {
			v, err := DecodeColumn(f.DataTypeOID, vals[i], vals[i] == nil)
			if err != nil {
				_, _ = rr.Close()
				return nil, err
			}
			row[i] = v
		}
		rb.appendRow(row)
	}
	if _, err := rr.Close(); err != nil {
		return nil, mapPgError(err)
	}
	return rb, nil
}

// mapPgError lifts a pgx/pgconn failure into an outcome error. For a
// server error it copies SQLSTATE/message/position into an ErrorContext
// and renders them into the error message; the ErrorContext value itself
// is not attached to the returned error, which wraps the original
// *pgconn.PgError instead.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if ok := asPgError(err, &pgErr); ok {
		ec := ErrorContext{SQLState: pgErr.Code, Message: pgErr.Message, Position: int(pgErr.Position)}
		return outcome.Wrap(outcome.ServerError, err, "postgres error %s: %s (position %d)",
			ec.SQLState, ec.Message, ec.Position)
	}
	if err == pgx.ErrNoRows {
		return outcome.Wrap(outcome.ProtocolError, err, "no rows")
	}
	return outcome.Wrap(outcome.ProtocolError, err, "executing query")
}

func asPgError(err error, target **pgconn.PgError) bool {
	for err != nil {
		if pe, ok := err.(*pgconn.PgError); ok {
			*target = pe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
