package dbschema

import (
	"hash/fnv"
	"reflect"
	"strings"

	"github.com/demiplane/demiplane/pkg/nexus"
	"github.com/demiplane/demiplane/pkg/outcome"
)

// EntityOf reflects over T's `db:"..."` struct tags and builds a Table,
// the Go-idiomatic replacement for the original's compile-time entity
// macro (there is no Go analogue of a C++ code-generating macro). The
// result is memoized in n under the Immortal lifetime, one build per Go
// type regardless of how many callers ask — the same "build once, many
// readers" problem pkg/nexus's factory slots already solve, so EntityOf
// is just a Spawn over a Table-valued slot keyed by T's type identity.
//
// Tag grammar, generalized from pkg/fixgres_demo's ad hoc `db:"name,pk,autoinc"`
// convention: `db:"column_name[,pk][,unique][,indexed][,notnull]"`. A
// column name of "-" (`db:"-"`) skips the field; other options are
// ignored. A missing tag uses the Go field name, lower-cased.
func EntityOf[T any](n *nexus.Nexus) (*Table, error) {
	var zero T
	typ := reflect.TypeOf(zero)
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, outcome.New(outcome.SchemaMismatch, "EntityOf requires a struct type, got %s", typ.Kind())
	}

	id := typeID(typ)
	if t, err := nexus.Spawn[*Table](n, id); err == nil {
		return t, nil
	}

	nexus.RegisterFactory[*Table](n, id, nexus.Immortal, func() (*Table, error) {
		return buildEntityTable(typ)
	})
	return nexus.Spawn[*Table](n, id)
}

func typeID(typ reflect.Type) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(typ.PkgPath() + "." + typ.Name()))
	return h.Sum32()
}

func buildEntityTable(typ reflect.Type) (*Table, error) {
	name := tableNameOf(typ)
	t := NewTable(name)

	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("db")
		parts := strings.Split(tag, ",")
		colName := parts[0]
		opts := parts[1:]
		if colName == "-" {
			continue
		}
		if colName == "" {
			colName = strings.ToLower(f.Name)
		}

		fs := t.AddDynamicField(colName, sqlTypeFor(f.Type))
		fs.GoType = f.Type
		for _, opt := range opts {
			switch strings.TrimSpace(opt) {
			case "pk":
				WithPrimaryKey(fs)
			case "unique":
				WithUnique(fs)
			case "indexed":
				WithIndexed(fs)
			case "notnull":
				WithNullable(fs, false)
			}
		}
	}
	return t, nil
}

// tableNameOf honors a `TableName() string` method (pkg/fixgres_demo's
// convention) and otherwise lower-cases the struct name.
func tableNameOf(typ reflect.Type) string {
	if m, ok := typ.MethodByName("TableName"); ok && m.Type.NumIn() == 1 && m.Type.NumOut() == 1 {
		v := reflect.New(typ).Elem()
		out := v.Method(m.Index).Call(nil)
		if len(out) == 1 {
			if s, ok := out[0].Interface().(string); ok && s != "" {
				return s
			}
		}
	}
	return strings.ToLower(typ.Name())
}

func sqlTypeFor(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Bool:
		return "BOOLEAN"
	case reflect.Int32:
		return "INTEGER"
	case reflect.Int, reflect.Int64:
		return "BIGINT"
	case reflect.Float32, reflect.Float64:
		return "DOUBLE PRECISION"
	case reflect.String:
		return "TEXT"
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "BYTEA"
		}
		return "TEXT"
	default:
		return "TEXT"
	}
}

// ColumnsAndValues renders a struct's tagged fields into (names, values)
// suitable for an INSERT -- the same shape pkg/fixgres_demo's ad hoc
// helper produced. Unlike buildEntityTable it skips fields with no `db`
// tag, and it skips a "-" column name and any field whose tag contains
// "autoinc".
func ColumnsAndValues(v any) (cols []string, vals []any) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	return columnsAndValues(rv)
}

func columnsAndValues(v reflect.Value) (cols []string, vals []any) {
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" {
			continue
		}
		parts := strings.Split(tag, ",")
		col := parts[0]
		if col == "-" {
			continue
		}
		if strings.Contains(tag, "autoinc") {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, v.Field(i).Interface())
	}
	return cols, vals
}
