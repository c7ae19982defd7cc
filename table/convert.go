package table

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// As converts a value to the Go type T. Supported targets are Value, any,
// string, int, int64, float64, bool, time.Time and []Value. Null converts to
// the zero value of T. Ints widen to float64; any other conversion between
// types fails with a TypeMismatchError.
func As[T any](v Value) (T, error) {
	var zero T
	if v.IsNull() {
		return zero, nil
	}
	mismatch := func() (T, error) {
		return zero, &TypeMismatchError{Op: "convert", Want: fmt.Sprintf("%T", zero), Got: v.Type.String()}
	}

	switch p := any(&zero).(type) {
	case *Value:
		*p = v
	case *any:
		*p = v.Interface()
	case *string:
		if v.Type != TypeString {
			return mismatch()
		}
		*p = v.Str
	case *int64:
		if v.Type != TypeInt {
			return mismatch()
		}
		*p = v.Int
	case *int:
		if v.Type != TypeInt || v.Int > math.MaxInt || v.Int < math.MinInt {
			return mismatch()
		}
		*p = int(v.Int)
	case *float64:
		f, ok := v.AsFloat()
		if !ok {
			return mismatch()
		}
		*p = f
	case *bool:
		if v.Type != TypeBool {
			return mismatch()
		}
		*p = v.Bool
	case *time.Time:
		if v.Type != TypeTime {
			return mismatch()
		}
		*p = v.Time
	case *[]Value:
		if v.Type != TypeList {
			return mismatch()
		}
		*p = v.List
	default:
		return zero, fmt.Errorf("convert: unsupported target type %T", zero)
	}
	return zero, nil
}

// ValueOf converts a plain Go value into a Value.
func ValueOf(x any) (Value, error) {
	switch val := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return val, nil
	case int:
		return IntVal(int64(val)), nil
	case int8:
		return IntVal(int64(val)), nil
	case int16:
		return IntVal(int64(val)), nil
	case int32:
		return IntVal(int64(val)), nil
	case int64:
		return IntVal(val), nil
	case uint8:
		return IntVal(int64(val)), nil
	case uint16:
		return IntVal(int64(val)), nil
	case uint32:
		return IntVal(int64(val)), nil
	case uint64:
		if val > math.MaxInt64 {
			return FloatVal(float64(val)), nil
		}
		return IntVal(int64(val)), nil
	case float32:
		return FloatVal(float64(val)), nil
	case float64:
		return FloatVal(val), nil
	case string:
		return StrVal(val), nil
	case []byte:
		return StrVal(string(val)), nil
	case bool:
		return BoolVal(val), nil
	case time.Time:
		return TimeVal(val), nil
	case []Value:
		return ListVal(val...), nil
	case []string:
		list := make([]Value, len(val))
		for i, s := range val {
			list[i] = StrVal(s)
		}
		return ListVal(list...), nil
	case []any:
		list := make([]Value, len(val))
		for i, e := range val {
			ev, err := ValueOf(e)
			if err != nil {
				return Null(), err
			}
			list[i] = ev
		}
		return ListVal(list...), nil
	default:
		return Null(), fmt.Errorf("cannot convert %T to a table value", x)
	}
}

var timeFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
}

// ParseTime parses the date and date/time layouts accepted in data files and
// expressions.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Coerce converts a string read from an any-kinded (loose) column to the type
// of the other operand when it parses as one. Strings compared with times are
// always parsed, so date literals work against time columns.
func Coerce(left, right Value, leftLoose, rightLoose bool) (Value, Value) {
	if left.Type == TypeString && right.Type != TypeString {
		if v, ok := parseAs(left.Str, right.Type, leftLoose); ok {
			left = v
		}
	} else if right.Type == TypeString && left.Type != TypeString {
		if v, ok := parseAs(right.Str, left.Type, rightLoose); ok {
			right = v
		}
	}
	return left, right
}

// Coercions lists the values a string may become under Coerce, in addition
// to itself.
func Coercions(s string, loose bool) []Value {
	var out []Value
	if tm, ok := ParseTime(s); ok {
		out = append(out, TimeVal(tm))
	}
	if !loose {
		return out
	}
	if v, ok := parseAs(s, TypeInt, true); ok {
		out = append(out, v)
	}
	if v, ok := parseAs(s, TypeBool, true); ok {
		out = append(out, v)
	}
	return out
}

// Comparable reports whether columns of kinds a and b can ever hold values
// that compare with each other.
func Comparable(a, b Kind) bool {
	switch {
	case a == KindAny || b == KindAny || a == b:
		return true
	case numericKind(a) && numericKind(b):
		return true
	case a == KindString && b == KindTime, a == KindTime && b == KindString:
		return true
	}
	return false
}

func numericKind(k Kind) bool {
	return k == KindInt || k == KindFloat
}

func parseAs(s string, t ValueType, loose bool) (Value, bool) {
	if t == TypeTime {
		if tm, ok := ParseTime(s); ok {
			return TimeVal(tm), true
		}
		return Null(), false
	}
	if !loose {
		return Null(), false
	}
	switch t {
	case TypeInt, TypeFloat:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntVal(i), true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return FloatVal(f), true
		}
	case TypeBool:
		if b, err := strconv.ParseBool(s); err == nil {
			return BoolVal(b), true
		}
	}
	return Null(), false
}
