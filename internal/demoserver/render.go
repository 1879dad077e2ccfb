package demoserver

import (
	"encoding/base64"

	"github.com/demiplane/demiplane/pkg/dbschema"
	"github.com/demiplane/demiplane/pkg/dbquery/postgres"
)

// fieldValueToAny unwraps v to the Go value its arm carries, nil for
// the null arm and a base64 string for bytes so the result survives a
// json.Marshal unchanged.
func fieldValueToAny(v dbschema.FieldValue) any {
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
		return base64.StdEncoding.EncodeToString(by)
	default:
		return nil
	}
}

// rowsToMaps renders every row of rb as a column-name-keyed map, the
// shape the demo API's JSON responses use.
func rowsToMaps(rb *postgres.ResultBlock) ([]map[string]any, error) {
	cols := rb.ColumnNames()
	out := make([]map[string]any, rb.Rows())
	for r := 0; r < rb.Rows(); r++ {
		row := make(map[string]any, len(cols))
		for c, name := range cols {
			v, err := rb.Value(r, c)
			if err != nil {
				return nil, err
			}
			row[name] = fieldValueToAny(v)
		}
		out[r] = row
	}
	return out, nil
}
