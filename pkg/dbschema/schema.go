package dbschema

import "reflect"

// FieldSchema is one column's metadata: name, SQL type text, the Go type
// mapped onto it, constraint flags and FK target. Owned by the
// enclosing Table; treated as immutable once the Table is built.
type FieldSchema struct {
	Name          string
	SQLType       string
	GoType        reflect.Type // nil ("void") means unconstrained
	Nullable      bool
	PrimaryKey    bool
	ForeignKey    bool
	Unique        bool
	Indexed       bool
	ForeignTable  string
	ForeignColumn string
	Default       string
	MaxLength     int
	Attributes    map[string]string
}

// typeOf returns the reflect.Type for a FieldScalar instantiation, used
// to compare a column's declared Go type against the schema's.
func typeOf[T FieldScalar]() reflect.Type {
	var zero T
	return reflect.TypeOf(zero)
}

// accepts reports whether fs's GoType is unset or matches T: every
// TableColumn[T]'s FieldSchema.GoType either equals T's reflect.Type or
// is unset, and a mismatch is rejected when the column is created.
func accepts[T FieldScalar](fs *FieldSchema) bool {
	if fs.GoType == nil {
		return true
	}
	return fs.GoType == typeOf[T]()
}
