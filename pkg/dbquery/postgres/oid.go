package postgres

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/demiplane/demiplane/pkg/dbschema"
	"github.com/demiplane/demiplane/pkg/outcome"
)

// decodeFunc converts a column's raw binary-format wire bytes into a
// dbschema.FieldValue. SQL NULL is signalled by DecodeColumn's isNull
// argument and handled there before a decodeFunc ever runs.
type decodeFunc func(raw []byte) (dbschema.FieldValue, error)

// oidDecoders is the binary-format decode table keyed by PostgreSQL
// OID. UUID and NUMERIC are included alongside the core scalar types
// (BOOL/INT2/4/8/FLOAT4/8/TEXT/VARCHAR/BYTEA): both are common enough
// primary-key/money column types that dropping them would make the
// executor unusable against a typical schema, and both map cleanly
// onto dbschema's closed FieldValue variant via their canonical string
// form.
var oidDecoders = map[uint32]decodeFunc{
	pgtype.BoolOID:    decodeBool,
	pgtype.Int2OID:    decodeInt2,
	pgtype.Int4OID:    decodeInt4,
	pgtype.Int8OID:    decodeInt8,
	pgtype.Float4OID:  decodeFloat4,
	pgtype.Float8OID:  decodeFloat8,
	pgtype.TextOID:    decodeText,
	pgtype.VarcharOID: decodeText,
	pgtype.ByteaOID:   decodeBytea,
	pgtype.UUIDOID:    decodeUUID,
	pgtype.NumericOID: decodeNumeric,
}

// DecodeColumn decodes one binary-format column value by OID, failing
// with DecodeError on an unsupported OID or a malformed wire value.
func DecodeColumn(oid uint32, raw []byte, isNull bool) (dbschema.FieldValue, error) {
	if isNull {
		return dbschema.Null(), nil
	}
	fn, ok := oidDecoders[oid]
	if !ok {
		return dbschema.FieldValue{}, outcome.New(outcome.DecodeError, "no binary decoder registered for OID %d", oid)
	}
	v, err := fn(raw)
	if err != nil {
		return dbschema.FieldValue{}, outcome.Wrap(outcome.DecodeError, err, "decoding OID %d", oid)
	}
	return v, nil
}

func decodeBool(raw []byte) (dbschema.FieldValue, error) {
	if len(raw) != 1 {
		return dbschema.FieldValue{}, outcome.New(outcome.DecodeError, "bool: want 1 byte, got %d", len(raw))
	}
	return dbschema.ValueOf(raw[0] != 0), nil
}

func decodeInt2(raw []byte) (dbschema.FieldValue, error) {
	if len(raw) != 2 {
		return dbschema.FieldValue{}, outcome.New(outcome.DecodeError, "int2: want 2 bytes, got %d", len(raw))
	}
	return dbschema.ValueOf(int32(int16(binary.BigEndian.Uint16(raw)))), nil
}

func decodeInt4(raw []byte) (dbschema.FieldValue, error) {
	if len(raw) != 4 {
		return dbschema.FieldValue{}, outcome.New(outcome.DecodeError, "int4: want 4 bytes, got %d", len(raw))
	}
	return dbschema.ValueOf(int32(binary.BigEndian.Uint32(raw))), nil
}

func decodeInt8(raw []byte) (dbschema.FieldValue, error) {
	if len(raw) != 8 {
		return dbschema.FieldValue{}, outcome.New(outcome.DecodeError, "int8: want 8 bytes, got %d", len(raw))
	}
	return dbschema.ValueOf(int64(binary.BigEndian.Uint64(raw))), nil
}

func decodeFloat4(raw []byte) (dbschema.FieldValue, error) {
	if len(raw) != 4 {
		return dbschema.FieldValue{}, outcome.New(outcome.DecodeError, "float4: want 4 bytes, got %d", len(raw))
	}
	bits := binary.BigEndian.Uint32(raw)
	return dbschema.ValueOf(float64(math.Float32frombits(bits))), nil
}

func decodeFloat8(raw []byte) (dbschema.FieldValue, error) {
	if len(raw) != 8 {
		return dbschema.FieldValue{}, outcome.New(outcome.DecodeError, "float8: want 8 bytes, got %d", len(raw))
	}
	bits := binary.BigEndian.Uint64(raw)
	return dbschema.ValueOf(math.Float64frombits(bits)), nil
}

func decodeText(raw []byte) (dbschema.FieldValue, error) {
	return dbschema.ValueOf(string(raw)), nil
}

func decodeBytea(raw []byte) (dbschema.FieldValue, error) {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return dbschema.ValueOf(cp), nil
}

func decodeUUID(raw []byte) (dbschema.FieldValue, error) {
	if len(raw) != 16 {
		return dbschema.FieldValue{}, outcome.New(outcome.DecodeError, "uuid: want 16 bytes, got %d", len(raw))
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return dbschema.FieldValue{}, err
	}
	return dbschema.ValueOf(id.String()), nil
}

// oidForKind is the reverse of oidDecoders: the OID a bound parameter's
// FieldKind maps onto when the executor encodes it to wire format.
var oidForKind = map[dbschema.FieldKind]uint32{
	dbschema.KindBool:    pgtype.BoolOID,
	dbschema.KindInt32:   pgtype.Int4OID,
	dbschema.KindInt64:   pgtype.Int8OID,
	dbschema.KindFloat64: pgtype.Float8OID,
	dbschema.KindString:  pgtype.TextOID,
	dbschema.KindBytes:   pgtype.ByteaOID,
}

// paramTypeMap is the codec table EncodeParam borrows from pgx to turn
// a native Go value into PostgreSQL's binary wire representation for a
// given OID — the same table pgx itself consults internally, used here
// directly instead of through pool.Query's argument-encoding path.
var paramTypeMap = pgtype.NewMap()

// EncodeParam renders v into PostgreSQL's binary wire format for the
// OID its FieldKind maps to, the mirror image of DecodeColumn. A null
// FieldValue encodes to a nil byte slice with OID 0, which
// pgconn.ExecParams treats as an untyped SQL NULL the server infers
// from context.
func EncodeParam(v dbschema.FieldValue) (oid uint32, format int16, raw []byte, err error) {
	if v.IsNull() {
		return 0, pgtype.BinaryFormatCode, nil, nil
	}
	oid, ok := oidForKind[v.Kind()]
	if !ok {
		return 0, 0, nil, outcome.New(outcome.EncodeError, "no binary encoder for field kind %s", v.Kind())
	}
	raw, err = paramTypeMap.Encode(oid, pgtype.BinaryFormatCode, nativeArg(v), nil)
	if err != nil {
		return 0, 0, nil, outcome.Wrap(outcome.EncodeError, err, "encoding OID %d", oid)
	}
	return oid, pgtype.BinaryFormatCode, raw, nil
}

// EncodeParams encodes values in order, returning the parallel
// paramOIDs/paramFormats/paramValues slices pgconn.ExecParams expects.
func EncodeParams(values []dbschema.FieldValue) (oids []uint32, formats []int16, raw [][]byte, err error) {
	oids = make([]uint32, len(values))
	formats = make([]int16, len(values))
	raw = make([][]byte, len(values))
	for i, v := range values {
		oids[i], formats[i], raw[i], err = EncodeParam(v)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return oids, formats, raw, nil
}

// nativeArg converts a dbschema.FieldValue into the Go value pgx's
// pgtype codecs expect as input for the matching OID.
func nativeArg(v dbschema.FieldValue) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case dbschema.KindBool:
		b, _ := dbschema.As[bool](v)
		return b
	case dbschema.KindInt32:
		n, _ := dbschema.As[int32](v)
		return n
	case dbschema.KindInt64:
		n, _ := dbschema.As[int64](v)
		return n
	case dbschema.KindFloat64:
		f, _ := dbschema.As[float64](v)
		return f
	case dbschema.KindString:
		s, _ := dbschema.As[string](v)
		return s
	case dbschema.KindBytes:
		by, _ := dbschema.As[[]byte](v)
		return by
	default:
		return nil
	}
}

// numericNaNSign and numericNegSign are the sign-field values
// PostgreSQL's binary NUMERIC wire format reserves.
const (
	numericNegSign = 0x4000
	numericNaNSign = 0xC000
)

// decodeNumeric decodes PostgreSQL's binary NUMERIC wire format — a
// base-10000 digit-group encoding (ndigits, weight, sign, dscale,
// followed by ndigits big-endian uint16 digit groups) — into a decimal
// string, then parses it through shopspring/decimal for a canonical,
// locale-independent textual form.
func decodeNumeric(raw []byte) (dbschema.FieldValue, error) {
	if len(raw) < 8 {
		return dbschema.FieldValue{}, outcome.New(outcome.DecodeError, "numeric: header truncated (%d bytes)", len(raw))
	}
	ndigits := int(binary.BigEndian.Uint16(raw[0:2]))
	weight := int(int16(binary.BigEndian.Uint16(raw[2:4])))
	sign := binary.BigEndian.Uint16(raw[4:6])
	dscale := int(binary.BigEndian.Uint16(raw[6:8]))

	if sign == numericNaNSign {
		return dbschema.ValueOf("NaN"), nil
	}
	if len(raw) < 8+ndigits*2 {
		return dbschema.FieldValue{}, outcome.New(outcome.DecodeError, "numeric: digit data truncated")
	}

	var intPart, fracPart strings.Builder
	// A weight below -1 means the first stored group sits further right
	// than the first fractional group (e.g. 0.00001); emit the skipped
	// all-zero fractional groups first.
	for i := weight + 1; i < 0; i++ {
		fracPart.WriteString("0000")
	}
	for i := 0; i < ndigits; i++ {
		digit := binary.BigEndian.Uint16(raw[8+i*2 : 10+i*2])
		group := fmt.Sprintf("%04d", digit)
		if i <= weight {
			intPart.WriteString(group)
		} else {
			fracPart.WriteString(group)
		}
	}
	// Pad trailing all-zero integer groups that were not stored (e.g.
	// 10000 is one digit group with weight 1). A purely fractional value
	// (weight < 0) has no integer groups and renders as "0" below.
	for i := ndigits; i <= weight; i++ {
		intPart.WriteString("0000")
	}

	intStr := strings.TrimLeft(intPart.String(), "0")
	if intStr == "" {
		intStr = "0"
	}
	fracStr := fracPart.String()
	for len(fracStr) < dscale {
		fracStr += "0"
	}
	fracStr = fracStr[:min(len(fracStr), dscale)]

	text := intStr
	if dscale > 0 {
		text += "." + fracStr
	}
	if sign == numericNegSign {
		text = "-" + text
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return dbschema.FieldValue{}, err
	}
	return dbschema.ValueOf(d.String()), nil
}
