package table

import (
	"fmt"
	"strings"
	"time"
)

// ValueType represents the runtime type of a Value.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBool
	TypeTime
	TypeList // sequence-valued cell, see Unfold
)

var typeNames = [...]string{
	TypeNull:   "null",
	TypeInt:    "int",
	TypeFloat:  "float",
	TypeString: "string",
	TypeBool:   "bool",
	TypeTime:   "time",
	TypeList:   "list",
}

func (t ValueType) String() string {
	if int(t) >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// Value is a dynamically-typed cell in a table.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Time  time.Time
	List  []Value
}

// Null returns a null value.
func Null() Value {
	return Value{Type: TypeNull}
}

// IntVal creates an integer value.
func IntVal(v int64) Value {
	return Value{Type: TypeInt, Int: v}
}

// FloatVal creates a float value.
func FloatVal(v float64) Value {
	return Value{Type: TypeFloat, Float: v}
}

// StrVal creates a string value.
func StrVal(v string) Value {
	return Value{Type: TypeString, Str: v}
}

// BoolVal creates a boolean value.
func BoolVal(v bool) Value {
	return Value{Type: TypeBool, Bool: v}
}

// TimeVal creates a date/time value.
func TimeVal(v time.Time) Value {
	return Value{Type: TypeTime, Time: v}
}

// ListVal creates a sequence value.
func ListVal(vs ...Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{Type: TypeList, List: vs}
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// AsFloat attempts to coerce to float64 for arithmetic.
func (v Value) AsFloat() (float64, bool) {
	switch v.Type {
	case TypeInt:
		return float64(v.Int), true
	case TypeFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// IsNumeric reports whether the value is an int or a float.
func (v Value) IsNumeric() bool {
	return v.Type == TypeInt || v.Type == TypeFloat
}

// AsString returns the string representation.
func (v Value) AsString() string {
	switch v.Type {
	case TypeNull:
		return "null"
	case TypeInt:
		return fmt.Sprintf("%d", v.Int)
	case TypeFloat:
		return fmt.Sprintf("%g", v.Float)
	case TypeString:
		return v.Str
	case TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeTime:
		return v.Time.Format(time.RFC3339)
	case TypeList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.AsString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "?"
	}
}

// AsBool coerces to boolean for logical operations.
func (v Value) AsBool() (bool, bool) {
	switch v.Type {
	case TypeBool:
		return v.Bool, true
	case TypeNull:
		return false, true
	default:
		return false, false
	}
}

// Interface returns the value as a plain Go value: nil, int64, float64,
// string, bool, time.Time or []any.
func (v Value) Interface() any {
	switch v.Type {
	case TypeInt:
		return v.Int
	case TypeFloat:
		return v.Float
	case TypeString:
		return v.Str
	case TypeBool:
		return v.Bool
	case TypeTime:
		return v.Time
	case TypeList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// clone copies list storage so the result shares nothing mutable with v.
func (v Value) clone() Value {
	if v.Type != TypeList {
		return v
	}
	list := make([]Value, len(v.List))
	for i, e := range v.List {
		list[i] = e.clone()
	}
	v.List = list
	return v
}

// Row is a single row in a table, values aligned with the schema columns.
type Row struct {
	Values []Value
}

// Table is the core data structure: schema + rows.
type Table struct {
	Schema *Schema
	Rows   []Row
}

// NewTable creates an empty table with the given schema.
func NewTable(schema *Schema) *Table {
	if schema == nil {
		schema = emptySchema
	}
	return &Table{
		Schema: schema,
		Rows:   nil,
	}
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return t.Schema.Names()
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColIndex returns the index of a column by name, or -1.
func (t *Table) ColIndex(name string) int {
	return t.Schema.Index(name)
}

// AddRow appends a row to the table without checking it.
func (t *Table) AddRow(values []Value) {
	t.Rows = append(t.Rows, Row{Values: values})
}

// Append appends a row after checking it against the schema.
func (t *Table) Append(values []Value) error {
	if err := t.checkRow(values); err != nil {
		return err
	}
	t.AddRow(values)
	return nil
}

// Get returns the value at a given row and column name.
func (t *Table) Get(row int, col string) Value {
	idx := t.ColIndex(col)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return Null()
	}
	return t.Rows[row].Values[idx]
}

// Row returns a read-only view of the i-th row.
func (t *Table) Row(i int) RowRef {
	return RowRef{schema: t.Schema, values: t.Rows[i].Values, index: i}
}

// Validate checks that every row matches the schema: one value per column
// and each value accepted by its column kind.
func (t *Table) Validate() error {
	for i, r := range t.Rows {
		if err := t.checkRow(r.Values); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

func (t *Table) checkRow(values []Value) error {
	if len(values) != t.Schema.Len() {
		return fmt.Errorf("row has %d values, schema has %d columns", len(values), t.Schema.Len())
	}
	for i, v := range values {
		col := t.Schema.Column(i)
		if !col.Kind.Accepts(v.Type) {
			return &TypeMismatchError{Op: "row", Column: col.Name, Want: col.Kind.String(), Got: v.Type.String()}
		}
	}
	return nil
}

// Clone creates a deep copy of the table. The schema is shared since it is
// immutable.
func (t *Table) Clone() *Table {
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		vals := make([]Value, len(r.Values))
		for j, v := range r.Values {
			vals[j] = v.clone()
		}
		rows[i] = Row{Values: vals}
	}
	return &Table{Schema: t.Schema, Rows: rows}
}

// String returns a compact representation of the table.
func (t *Table) String() string {
	cols := t.Columns()
	if len(t.Rows) == 0 {
		return "[" + strings.Join(cols, ", ") + "] (0 rows)"
	}

	var sb strings.Builder
	sb.WriteString("[ ")
	for i, r := range t.Rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{")
		for j, v := range r.Values {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(cols[j])
			sb.WriteString(":")
			sb.WriteString(v.AsString())
		}
		sb.WriteString("}")
	}
	sb.WriteString(" ]")
	return sb.String()
}
