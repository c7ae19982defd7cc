// Package record maps user-defined record types to table rows and back
// through explicit field descriptors.
package record

import (
	"fmt"
	"time"

	"github.com/razeghi71/dqflow/table"
)

// Field maps one member of T to a column. Get reads the member when T is
// turned into a row; Set writes it when a row is turned back into T. Either
// may be nil for one-way mappings.
type Field[T any] struct {
	Name     string
	Kind     table.Kind
	Optional bool // a missing column leaves the member at its zero value
	Get      func(*T) table.Value
	Set      func(*T, table.Value) error
}

// Mapping is an ordered set of fields describing T as a table row.
type Mapping[T any] struct {
	fields []Field[T]
	schema *table.Schema
}

// NewMapping builds a mapping; field names must be unique.
func NewMapping[T any](fields ...Field[T]) (*Mapping[T], error) {
	cols := make([]table.Column, len(fields))
	for i, f := range fields {
		cols[i] = table.Col(f.Name, f.Kind)
	}
	schema, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	return &Mapping[T]{fields: fields, schema: schema}, nil
}

// MustMapping is like NewMapping but panics on error.
func MustMapping[T any](fields ...Field[T]) *Mapping[T] {
	m, err := NewMapping(fields...)
	if err != nil {
		panic(err)
	}
	return m
}

// Schema returns the table schema produced by Table.
func (m *Mapping[T]) Schema() *table.Schema {
	return m.schema
}

// Table turns items into a table with one column per field.
func (m *Mapping[T]) Table(items []T) (*table.Table, error) {
	t := table.NewTable(m.schema)
	t.Rows = make([]table.Row, 0, len(items))
	for i := range items {
		vals := make([]table.Value, len(m.fields))
		for j, f := range m.fields {
			if f.Get == nil {
				return nil, fmt.Errorf("field %q has no getter", f.Name)
			}
			vals[j] = f.Get(&items[i])
		}
		if err := t.Append(vals); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return t, nil
}

// Records turns the rows of t into values of T. Every settable field is
// matched to a column by name before any row is read; a missing required
// column or an incompatible column kind fails with SchemaMismatchError.
func (m *Mapping[T]) Records(t *table.Table) ([]T, error) {
	type binding struct {
		field Field[T]
		col   int
	}
	var bindings []binding
	for _, f := range m.fields {
		if f.Set == nil {
			continue
		}
		col := t.Schema.Index(f.Name)
		if col < 0 {
			if f.Optional {
				continue
			}
			return nil, &SchemaMismatchError{Field: f.Name, Reason: "no matching column"}
		}
		ck := t.Schema.Column(col).Kind
		if !compatible(f.Kind, ck) {
			return nil, &SchemaMismatchError{
				Field:  f.Name,
				Column: f.Name,
				Reason: fmt.Sprintf("column kind %s does not fit field kind %s", ck, f.Kind),
			}
		}
		bindings = append(bindings, binding{field: f, col: col})
	}

	out := make([]T, len(t.Rows))
	for i, row := range t.Rows {
		for _, b := range bindings {
			if err := b.field.Set(&out[i], row.Values[b.col]); err != nil {
				return nil, fmt.Errorf("row %d: field %q: %w", i, b.field.Name, err)
			}
		}
	}
	return out, nil
}

// compatible reports whether a column of kind col can feed a field of kind
// field. Any columns are checked value by value when set.
func compatible(field, col table.Kind) bool {
	switch {
	case field == table.KindAny, col == table.KindAny, field == col:
		return true
	case field == table.KindFloat && col == table.KindInt:
		return true
	}
	return false
}

// Optional marks a field as optional.
func Optional[T any](f Field[T]) Field[T] {
	f.Optional = true
	return f
}

// Value maps a table.Value member of any kind.
func Value[T any](name string, kind table.Kind, member func(*T) *table.Value) Field[T] {
	return Field[T]{
		Name: name,
		Kind: kind,
		Get:  func(x *T) table.Value { return *member(x) },
		Set: func(x *T, v table.Value) error {
			*member(x) = v
			return nil
		},
	}
}

// String maps a string member.
func String[T any](name string, member func(*T) *string) Field[T] {
	return typed(name, table.KindString, member, table.StrVal)
}

// Int maps an int member.
func Int[T any](name string, member func(*T) *int) Field[T] {
	return typed(name, table.KindInt, member, func(v int) table.Value { return table.IntVal(int64(v)) })
}

// Int64 maps an int64 member.
func Int64[T any](name string, member func(*T) *int64) Field[T] {
	return typed(name, table.KindInt, member, table.IntVal)
}

// Float64 maps a float64 member; int columns widen.
func Float64[T any](name string, member func(*T) *float64) Field[T] {
	return typed(name, table.KindFloat, member, table.FloatVal)
}

// Bool maps a bool member.
func Bool[T any](name string, member func(*T) *bool) Field[T] {
	return typed(name, table.KindBool, member, table.BoolVal)
}

// Time maps a time.Time member. The zero time is written as null.
func Time[T any](name string, member func(*T) *time.Time) Field[T] {
	return typed(name, table.KindTime, member, func(v time.Time) table.Value {
		if v.IsZero() {
			return table.Null()
		}
		return table.TimeVal(v)
	})
}

// Strings maps a []string member to a list column.
func Strings[T any](name string, member func(*T) *[]string) Field[T] {
	return Field[T]{
		Name: name,
		Kind: table.KindList,
		Get: func(x *T) table.Value {
			v, _ := table.ValueOf(*member(x))
			return v
		},
		Set: func(x *T, v table.Value) error {
			list, err := table.As[[]table.Value](v)
			if err != nil {
				return err
			}
			out := make([]string, len(list))
			for i, e := range list {
				out[i] = e.AsString()
			}
			*member(x) = out
			return nil
		},
	}
}

func typed[T, V any](name string, kind table.Kind, member func(*T) *V, wrap func(V) table.Value) Field[T] {
	return Field[T]{
		Name: name,
		Kind: kind,
		Get:  func(x *T) table.Value { return wrap(*member(x)) },
		Set: func(x *T, v table.Value) error {
			out, err := table.As[V](v)
			if err != nil {
				return err
			}
			*member(x) = out
			return nil
		},
	}
}
