// Package handle gives API responses an opaque per-row identifier: a
// base64 encoding of a table name plus its primary-key columns and
// values, so a client can round-trip "the row I was just shown" back
// into a lookup query without ever seeing or constructing raw SQL.
//
// The wire format is table|col=kind:val,col=kind:val, base64-encoded. The
// encoding is FieldValue-kind-aware rather than a plain fmt.Sprintf
// stringification, so a handle survives the round trip without losing
// int32-vs-int64-vs-string type information.
package handle

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/demiplane/demiplane/pkg/dbschema"
	"github.com/demiplane/demiplane/pkg/outcome"
)

// Encode renders table's primary key (cols, vals in matching order) as
// a base64 string of the form "table|col=kind:val,col=kind:val".
func Encode(table string, cols []string, vals []dbschema.FieldValue) (string, error) {
	if len(cols) != len(vals) {
		return "", outcome.New(outcome.ShapeMismatch, "handle: %d columns but %d values", len(cols), len(vals))
	}
	pairs := make([]string, len(cols))
	for i, col := range cols {
		enc, err := encodeValue(vals[i])
		if err != nil {
			return "", err
		}
		pairs[i] = col + "=" + enc
	}
	raw := table + "|" + strings.Join(pairs, ",")
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

// EncodeRecord is the typed-model entry point: it reads rec's primary
// key straight from its Table schema instead of requiring the caller to
// assemble parallel column/value slices by hand.
func EncodeRecord(rec *dbschema.Record) (string, error) {
	cols, vals, err := rec.PrimaryKeyValues()
	if err != nil {
		return "", err
	}
	return Encode(rec.Table().Name(), cols, vals)
}

// Decoded is a parsed handle: the table name plus its primary key as an
// ordered list of (column, value) pairs, typed values intact.
type Decoded struct {
	Table  string
	Cols   []string
	Values []dbschema.FieldValue
}

// Decode parses a handle produced by Encode/EncodeRecord. It does not
// need a Table schema to do so: the kind tag embedded by encodeValue is
// enough to reconstruct each FieldValue's arm on its own.
func Decode(h string) (Decoded, error) {
	raw, err := base64.RawURLEncoding.DecodeString(h)
	if err != nil {
		return Decoded{}, outcome.Wrap(outcome.DecodeError, err, "handle: invalid base64")
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return Decoded{}, outcome.New(outcome.DecodeError, "handle: malformed payload")
	}
	table := parts[0]
	d := Decoded{Table: table}
	if parts[1] == "" {
		return Decoded{}, outcome.New(outcome.DecodeError, "handle: table %q has no primary key fields", table)
	}
	for _, kv := range strings.Split(parts[1], ",") {
		pair := strings.SplitN(kv, "=", 2)
		if len(pair) != 2 {
			return Decoded{}, outcome.New(outcome.DecodeError, "handle: malformed key/value %q", kv)
		}
		v, err := decodeValue(pair[1])
		if err != nil {
			return Decoded{}, err
		}
		d.Cols = append(d.Cols, pair[0])
		d.Values = append(d.Values, v)
	}
	return d, nil
}

// encodeValue renders v as "kind:text", the kind tag letting Decode
// rebuild the correct FieldValue arm without consulting a schema.
func encodeValue(v dbschema.FieldValue) (string, error) {
	if v.IsNull() {
		return "null:", nil
	}
	switch v.Kind() {
	case dbschema.KindBool:
		b, _ := dbschema.As[bool](v)
		return "bool:" + strconv.FormatBool(b), nil
	case dbschema.KindInt32:
		n, _ := dbschema.As[int32](v)
		return "i32:" + strconv.FormatInt(int64(n), 10), nil
	case dbschema.KindInt64:
		n, _ := dbschema.As[int64](v)
		return "i64:" + strconv.FormatInt(n, 10), nil
	case dbschema.KindFloat64:
		f, _ := dbschema.As[float64](v)
		return "f64:" + strconv.FormatFloat(f, 'g', -1, 64), nil
	case dbschema.KindString:
		s, _ := dbschema.As[string](v)
		return "str:" + base64.RawURLEncoding.EncodeToString([]byte(s)), nil
	case dbschema.KindBytes:
		by, _ := dbschema.As[[]byte](v)
		return "bin:" + base64.RawURLEncoding.EncodeToString(by), nil
	default:
		return "", outcome.New(outcome.TypeMismatch, "handle: unsupported field kind %s", v.Kind())
	}
}

func decodeValue(enc string) (dbschema.FieldValue, error) {
	kind, text, ok := strings.Cut(enc, ":")
	if !ok {
		return dbschema.FieldValue{}, outcome.New(outcome.DecodeError, "handle: malformed value %q", enc)
	}
	switch kind {
	case "null":
		return dbschema.Null(), nil
	case "bool":
		b, err := strconv.ParseBool(text)
		if err != nil {
			return dbschema.FieldValue{}, outcome.Wrap(outcome.DecodeError, err, "handle: bad bool %q", text)
		}
		return dbschema.ValueOf(b), nil
	case "i32":
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return dbschema.FieldValue{}, outcome.Wrap(outcome.DecodeError, err, "handle: bad int32 %q", text)
		}
		return dbschema.ValueOf(int32(n)), nil
	case "i64":
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return dbschema.FieldValue{}, outcome.Wrap(outcome.DecodeError, err, "handle: bad int64 %q", text)
		}
		return dbschema.ValueOf(n), nil
	case "f64":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return dbschema.FieldValue{}, outcome.Wrap(outcome.DecodeError, err, "handle: bad float64 %q", text)
		}
		return dbschema.ValueOf(f), nil
	case "str":
		b, err := base64.RawURLEncoding.DecodeString(text)
		if err != nil {
			return dbschema.FieldValue{}, outcome.Wrap(outcome.DecodeError, err, "handle: bad string payload")
		}
		return dbschema.ValueOf(string(b)), nil
	case "bin":
		b, err := base64.RawURLEncoding.DecodeString(text)
		if err != nil {
			return dbschema.FieldValue{}, outcome.Wrap(outcome.DecodeError, err, "handle: bad bytes payload")
		}
		return dbschema.ValueOf(b), nil
	default:
		return dbschema.FieldValue{}, outcome.New(outcome.DecodeError, "handle: unknown kind tag %q", kind)
	}
}
