package table

// RowRef is a read-only view of one row bound to its table's schema.
// Values are resolved by name through the schema index or by ordinal.
type RowRef struct {
	schema *Schema
	values []Value
	index  int
}

// NewRowRef binds values to a schema. index is the row ordinal reported by
// Index.
func NewRowRef(schema *Schema, values []Value, index int) RowRef {
	return RowRef{schema: schema, values: values, index: index}
}

// Schema returns the schema the row is bound to.
func (r RowRef) Schema() *Schema {
	return r.schema
}

// Index returns the ordinal of the row in its table.
func (r RowRef) Index() int {
	return r.index
}

// Len returns the number of values in the row.
func (r RowRef) Len() int {
	return len(r.values)
}

// At returns the value at ordinal i.
func (r RowRef) At(i int) Value {
	return r.values[i]
}

// Get returns the value of the named column.
func (r RowRef) Get(name string) (Value, error) {
	i, err := r.schema.Lookup(name)
	if err != nil {
		return Null(), err
	}
	return r.values[i], nil
}

// Value returns the value of the named column, or null if there is no such
// column.
func (r RowRef) Value(name string) Value {
	i := r.schema.Index(name)
	if i < 0 {
		return Null()
	}
	return r.values[i]
}

// Values returns a copy of the row values.
func (r RowRef) Values() []Value {
	out := make([]Value, len(r.values))
	for i, v := range r.values {
		out[i] = v.clone()
	}
	return out
}

// Field returns the named column of a row converted to T.
func Field[T any](r RowRef, name string) (T, error) {
	v, err := r.Get(name)
	if err != nil {
		var zero T
		return zero, err
	}
	out, err := As[T](v)
	if err != nil {
		if tm, ok := err.(*TypeMismatchError); ok {
			tm.Column = name
		}
		return out, err
	}
	return out, nil
}
