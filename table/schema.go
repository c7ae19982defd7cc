package table

import (
	"fmt"
	"strings"
)

// Kind is the declared value kind of a column.
type Kind int

const (
	KindAny Kind = iota // heterogeneous, accepts every value type
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
	KindList
)

var kindNames = [...]string{
	KindAny:    "any",
	KindString: "string",
	KindInt:    "int",
	KindFloat:  "float",
	KindBool:   "bool",
	KindTime:   "time",
	KindList:   "list",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a kind name back into a Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), nil
		}
	}
	return KindAny, fmt.Errorf("unknown column kind %q", s)
}

// Accepts reports whether a value of type t may be stored in a column of
// this kind. Null is accepted everywhere, ints widen into float columns.
func (k Kind) Accepts(t ValueType) bool {
	if t == TypeNull || k == KindAny {
		return true
	}
	switch k {
	case KindString:
		return t == TypeString
	case KindInt:
		return t == TypeInt
	case KindFloat:
		return t == TypeFloat || t == TypeInt
	case KindBool:
		return t == TypeBool
	case KindTime:
		return t == TypeTime
	case KindList:
		return t == TypeList
	}
	return false
}

// IsNumeric reports whether the kind holds only numbers.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// KindOf returns the narrowest kind holding values of type t.
func KindOf(t ValueType) Kind {
	switch t {
	case TypeInt:
		return KindInt
	case TypeFloat:
		return KindFloat
	case TypeString:
		return KindString
	case TypeBool:
		return KindBool
	case TypeTime:
		return KindTime
	case TypeList:
		return KindList
	default:
		return KindAny
	}
}

// KindInferrer derives a column kind from the values observed in it.
// Mixed int and float values infer float; any other mix infers any.
type KindInferrer struct {
	kind Kind
	seen bool
}

// Observe records one value.
func (ki *KindInferrer) Observe(v Value) {
	if v.IsNull() {
		return
	}
	k := KindOf(v.Type)
	if !ki.seen {
		ki.kind, ki.seen = k, true
		return
	}
	if ki.kind == k || ki.kind == KindAny {
		return
	}
	if ki.kind.IsNumeric() && k.IsNumeric() {
		ki.kind = KindFloat
		return
	}
	ki.kind = KindAny
}

// Kind returns the inferred kind; any when no value was observed.
func (ki *KindInferrer) Kind() Kind {
	if !ki.seen {
		return KindAny
	}
	return ki.kind
}

// Column describes one column of a table.
type Column struct {
	Name string
	Kind Kind
}

// Col is shorthand for a Column literal.
func Col(name string, kind Kind) Column {
	return Column{Name: name, Kind: kind}
}

// AnyCols returns any-kinded columns with the given names.
func AnyCols(names ...string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Kind: KindAny}
	}
	return cols
}

// Schema is an ordered, immutable list of uniquely named columns with a
// name to ordinal index built once.
type Schema struct {
	cols  []Column
	index map[string]int
}

var emptySchema = &Schema{index: map[string]int{}}

// NewSchema builds a schema, failing on duplicate column names.
func NewSchema(cols ...Column) (*Schema, error) {
	s := &Schema{
		cols:  make([]Column, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	copy(s.cols, cols)
	for i, c := range s.cols {
		if _, dup := s.index[c.Name]; dup {
			return nil, &DuplicateColumnError{Column: c.Name}
		}
		s.index[c.Name] = i
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(cols ...Column) *Schema {
	s, err := NewSchema(cols...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.cols)
}

// Column returns the i-th column.
func (s *Schema) Column(i int) Column {
	return s.cols[i]
}

// Columns returns a copy of the column list.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.cols))
	for i, c := range s.cols {
		names[i] = c.Name
	}
	return names
}

// Index returns the ordinal of a column by name, or -1.
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Lookup returns the ordinal of a column or an UnknownColumnError.
func (s *Schema) Lookup(name string) (int, error) {
	i, ok := s.index[name]
	if !ok {
		return -1, &UnknownColumnError{Column: name}
	}
	return i, nil
}

// LookupAll resolves several column names at once.
func (s *Schema) LookupAll(names []string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j, err := s.Lookup(n)
		if err != nil {
			return nil, err
		}
		idx[i] = j
	}
	return idx, nil
}

// Has reports whether the schema has a column with the given name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *Schema) String() string {
	parts := make([]string, len(s.cols))
	for i, c := range s.cols {
		parts[i] = c.Name + " " + c.Kind.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
