package dbschema

import (
	"fmt"

	"github.com/demiplane/demiplane/pkg/outcome"
)

// FieldKind tags the arm of FieldValue currently populated. The zero
// value is KindNull so a zero-value Field reads as NULL: NULL is a
// sentinel variant arm, never a typed value.
type FieldKind int

const (
	KindNull FieldKind = iota
	KindBool
	KindInt32
	KindInt64
	KindFloat64
	KindString
	KindBytes
)

func (k FieldKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// FieldScalar enumerates the host types a FieldValue may carry. This is
// a closed variant set; adding a new arm here means adding a case to
// every switch in this file and in the postgres dialect's type
// mapping.
type FieldScalar interface {
	bool | int32 | int64 | float64 | string | []byte
}

// FieldValue is the closed tagged union backing a Field's cell value.
// String and byte-slice arms are Go's native owned values; the C++
// owned/view distinction the original models with std::string vs
// std::string_view collapses in Go, where strings are already
// immutable and slices already carry their own capacity.
type FieldValue struct {
	kind FieldKind
	b    bool
	i32  int32
	i64  int64
	f64  float64
	s    string
	by   []byte
}

// Null returns the null-valued FieldValue.
func Null() FieldValue { return FieldValue{kind: KindNull} }

// IsNull reports whether v holds the null arm.
func (v FieldValue) IsNull() bool { return v.kind == KindNull }

// Kind returns v's active arm.
func (v FieldValue) Kind() FieldKind { return v.kind }

// ValueOf builds a FieldValue from a concrete scalar.
func ValueOf[T FieldScalar](val T) FieldValue {
	switch x := any(val).(type) {
	case bool:
		return FieldValue{kind: KindBool, b: x}
	case int32:
		return FieldValue{kind: KindInt32, i32: x}
	case int64:
		return FieldValue{kind: KindInt64, i64: x}
	case float64:
		return FieldValue{kind: KindFloat64, f64: x}
	case string:
		return FieldValue{kind: KindString, s: x}
	case []byte:
		return FieldValue{kind: KindBytes, by: x}
	default:
		panic(fmt.Sprintf("dbschema: unreachable FieldScalar arm %T", val))
	}
}

// As extracts the concrete scalar stored in v, failing with TypeMismatch
// on an arm mismatch and NullValue when v is null.
func As[T FieldScalar](v FieldValue) (T, error) {
	var zero T
	if v.kind == KindNull {
		return zero, outcome.New(outcome.NullValue, "field value is null")
	}
	switch any(zero).(type) {
	case bool:
		if v.kind != KindBool {
			return zero, outcome.New(outcome.TypeMismatch, "field holds %s, not bool", v.kind)
		}
		return any(v.b).(T), nil
	case int32:
		if v.kind != KindInt32 {
			return zero, outcome.New(outcome.TypeMismatch, "field holds %s, not int32", v.kind)
		}
		return any(v.i32).(T), nil
	case int64:
		if v.kind != KindInt64 {
			return zero, outcome.New(outcome.TypeMismatch, "field holds %s, not int64", v.kind)
		}
		return any(v.i64).(T), nil
	case float64:
		if v.kind != KindFloat64 {
			return zero, outcome.New(outcome.TypeMismatch, "field holds %s, not float64", v.kind)
		}
		return any(v.f64).(T), nil
	case string:
		if v.kind != KindString {
			return zero, outcome.New(outcome.TypeMismatch, "field holds %s, not string", v.kind)
		}
		return any(v.s).(T), nil
	case []byte:
		if v.kind != KindBytes {
			return zero, outcome.New(outcome.TypeMismatch, "field holds %s, not bytes", v.kind)
		}
		return any(v.by).(T), nil
	default:
		panic(fmt.Sprintf("dbschema: unreachable FieldScalar arm %T", zero))
	}
}

// Field is a single cell: a value plus a reference to the schema that
// describes it. The schema pointer is non-owning and borrowed from the
// enclosing Record's Table.
type Field struct {
	schema *FieldSchema
	value  FieldValue
}

// NewField builds a Field initialized to null for the given schema.
func NewField(schema *FieldSchema) Field {
	return Field{schema: schema, value: Null()}
}

// Schema returns the FieldSchema describing this cell.
func (f *Field) Schema() *FieldSchema { return f.schema }

// Value returns the current FieldValue.
func (f *Field) Value() FieldValue { return f.value }

// SetValue overwrites the cell's value wholesale.
func (f *Field) SetValue(v FieldValue) { f.value = v }

// Set stores v, tagging the variant arm.
func Set[T FieldScalar](f *Field, v T) {
	f.value = ValueOf(v)
}

// SetNull clears the cell to the null arm.
func (f *Field) SetNull() { f.value = Null() }

// IsNull reports whether the cell currently holds null.
func (f *Field) IsNull() bool { return f.value.IsNull() }

// Get extracts the field's value as T, failing with TypeMismatch on a
// wrong-arm access and NullValue on a null field.
func Get[T FieldScalar](f *Field) (T, error) {
	return As[T](f.value)
}

// TryGet returns the field's value as T, or the zero value and false on
// either a type mismatch or a null field — a non-error-returning
// alternative to Get.
func TryGet[T FieldScalar](f *Field) (T, bool) {
	v, err := As[T](f.value)
	if err != nil {
		return v, false
	}
	return v, true
}
