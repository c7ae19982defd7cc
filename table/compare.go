package table

import (
	"cmp"
	"strings"
)

// Compare orders two values for sorting. Nulls sort last. Values of
// different types order by type: numbers, then strings, bools, times and
// lists. Within a type, numbers compare numerically across int and float,
// times chronologically, false before true and lists element by element.
func Compare(a, b Value) int {
	// Nulls sort last
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return 1
	}
	if b.IsNull() {
		return -1
	}

	if ra, rb := typeRank(a.Type), typeRank(b.Type); ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch a.Type {
	case TypeInt, TypeFloat:
		if a.Type == TypeInt && b.Type == TypeInt {
			return cmpInt(a.Int, b.Int)
		}
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return cmp.Compare(af, bf)
	case TypeString:
		return strings.Compare(a.Str, b.Str)
	case TypeBool:
		switch {
		case a.Bool == b.Bool:
			return 0
		case !a.Bool:
			return -1
		default:
			return 1
		}
	case TypeTime:
		return a.Time.Compare(b.Time)
	case TypeList:
		for i := 0; i < len(a.List) && i < len(b.List); i++ {
			if c := Compare(a.List[i], b.List[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(a.List), len(b.List))
	}
	return 0
}

func typeRank(t ValueType) int {
	switch t {
	case TypeInt, TypeFloat:
		return 0
	case TypeString:
		return 1
	case TypeBool:
		return 2
	case TypeTime:
		return 3
	case TypeList:
		return 4
	}
	return 5
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Equal reports whether two values are equal under the same rules the
// expression evaluator uses for ==: numbers compare across int and float,
// other types only equal values of the same type. Nulls are equal to each
// other.
func Equal(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.IsNumeric() && b.IsNumeric() {
		if a.Type == TypeInt && b.Type == TypeInt {
			return a.Int == b.Int
		}
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return af == bf
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeString:
		return a.Str == b.Str
	case TypeBool:
		return a.Bool == b.Bool
	case TypeTime:
		return a.Time.Equal(b.Time)
	case TypeList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	}
	return false
}
