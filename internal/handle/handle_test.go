package handle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demiplane/demiplane/internal/handle"
	"github.com/demiplane/demiplane/pkg/dbschema"
)

func actorTable() *dbschema.Table {
	t := dbschema.NewTable("actor")
	dbschema.WithPrimaryKey(dbschema.AddField[int64](t, "actor_id", "BIGINT"))
	dbschema.AddField[string](t, "name", "TEXT")
	return t
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	enc, err := handle.Encode("actor", []string{"actor_id"}, []dbschema.FieldValue{dbschema.ValueOf(int64(5))})
	require.NoError(t, err)
	assert.NotEmpty(t, enc)

	dec, err := handle.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, "actor", dec.Table)
	assert.Equal(t, []string{"actor_id"}, dec.Cols)
	require.Len(t, dec.Values, 1)
	v, err := dbschema.As[int64](dec.Values[0])
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
}

func TestEncodeDecodeCompositeKey(t *testing.T) {
	cols := []string{"a", "b"}
	vals := []dbschema.FieldValue{dbschema.ValueOf("x"), dbschema.ValueOf(int32(9))}
	enc, err := handle.Encode("pair_table", cols, vals)
	require.NoError(t, err)

	dec, err := handle.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, cols, dec.Cols)
	a, _ := dbschema.As[string](dec.Values[0])
	b, _ := dbschema.As[int32](dec.Values[1])
	assert.Equal(t, "x", a)
	assert.Equal(t, int32(9), b)
}

func TestEncodeRecord(t *testing.T) {
	tbl := actorTable()
	rec := dbschema.NewRecord(tbl)
	idField, err := rec.Field("actor_id")
	require.NoError(t, err)
	dbschema.Set(idField, int64(42))

	enc, err := handle.EncodeRecord(rec)
	require.NoError(t, err)

	dec, err := handle.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, "actor", dec.Table)
	v, err := dbschema.As[int64](dec.Values[0])
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

func TestEncodeRecordNullPrimaryKeyFails(t *testing.T) {
	tbl := actorTable()
	rec := dbschema.NewRecord(tbl)
	_, err := handle.EncodeRecord(rec)
	assert.Error(t, err)
}

func TestDecodeRejectsMalformedHandle(t *testing.T) {
	_, err := handle.Decode("not-valid-base64!!!")
	assert.Error(t, err)
}

func TestDecodeMismatchedColsValuesIsImpossibleAtEncode(t *testing.T) {
	_, err := handle.Encode("t", []string{"a", "b"}, []dbschema.FieldValue{dbschema.ValueOf(int32(1))})
	assert.Error(t, err)
}
