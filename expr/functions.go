package expr

import (
	"fmt"
	"strings"
	"time"

	"github.com/razeghi71/dqflow/ast"
	"github.com/razeghi71/dqflow/table"
)

// evalFunc dispatches function calls to the appropriate implementation.
func evalFunc(e *ast.FuncCallExpr, ctx *evalContext) (table.Value, error) {
	switch strings.ToLower(e.Name) {
	case "upper":
		return callString(e, ctx, strings.ToUpper)
	case "lower":
		return callString(e, ctx, strings.ToLower)
	case "trim":
		return callString(e, ctx, strings.TrimSpace)
	case "len":
		return callLen(e.Args, ctx)
	case "substr":
		return callSubstr(e.Args, ctx)
	case "contains":
		return callMatch(e, ctx, strings.Contains)
	case "startswith":
		return callMatch(e, ctx, strings.HasPrefix)
	case "endswith":
		return callMatch(e, ctx, strings.HasSuffix)
	case "coalesce":
		return callCoalesce(e.Args, ctx)
	case "if", "iif":
		return callIf(e.Args, ctx)
	case "year":
		return callDatePart(e.Args, ctx, "year")
	case "month":
		return callDatePart(e.Args, ctx, "month")
	case "day":
		return callDatePart(e.Args, ctx, "day")

	// Summaries are computed by aggregate, never per row.
	case "count", "sum", "avg", "min", "max":
		return table.Null(), fmt.Errorf("aggregate function %q can only be used inside 'aggregate'", e.Name)

	default:
		return table.Null(), fmt.Errorf("unknown function %q", e.Name)
	}
}

func evalArgs(name string, args []ast.Expr, ctx *evalContext, want int) ([]table.Value, error) {
	if len(args) != want {
		return nil, fmt.Errorf("%s() takes %d argument(s), got %d", name, want, len(args))
	}
	vals := make([]table.Value, len(args))
	for i, a := range args {
		v, err := eval(a, ctx)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func callString(e *ast.FuncCallExpr, ctx *evalContext, fn func(string) string) (table.Value, error) {
	vals, err := evalArgs(e.Name, e.Args, ctx, 1)
	if err != nil {
		return table.Null(), err
	}
	if vals[0].IsNull() {
		return table.Null(), nil
	}
	return table.StrVal(fn(vals[0].AsString())), nil
}

func callMatch(e *ast.FuncCallExpr, ctx *evalContext, fn func(s, sub string) bool) (table.Value, error) {
	vals, err := evalArgs(e.Name, e.Args, ctx, 2)
	if err != nil {
		return table.Null(), err
	}
	if vals[0].IsNull() || vals[1].IsNull() {
		return table.Null(), nil
	}
	return table.BoolVal(fn(vals[0].AsString(), vals[1].AsString())), nil
}

func callLen(args []ast.Expr, ctx *evalContext) (table.Value, error) {
	vals, err := evalArgs("len", args, ctx, 1)
	if err != nil {
		return table.Null(), err
	}
	v := vals[0]
	switch v.Type {
	case table.TypeNull:
		return table.Null(), nil
	case table.TypeList:
		return table.IntVal(int64(len(v.List))), nil
	default:
		return table.IntVal(int64(len(v.AsString()))), nil
	}
}

func callSubstr(args []ast.Expr, ctx *evalContext) (table.Value, error) {
	if len(args) != 3 {
		return table.Null(), fmt.Errorf("substr() takes 3 arguments (string, start, length), got %d", len(args))
	}
	vals, err := evalArgs("substr", args, ctx, 3)
	if err != nil {
		return table.Null(), err
	}
	if vals[0].IsNull() {
		return table.Null(), nil
	}
	s := vals[0].AsString()

	startF, ok := vals[1].AsFloat()
	if !ok {
		return table.Null(), fmt.Errorf("substr: start must be a number")
	}
	lenF, ok := vals[2].AsFloat()
	if !ok {
		return table.Null(), fmt.Errorf("substr: length must be a number")
	}

	start := int(startF)
	length := int(lenF)
	if start < 0 {
		start = 0
	}
	if start >= len(s) {
		return table.StrVal(""), nil
	}
	end := start + length
	if end > len(s) {
		end = len(s)
	}
	return table.StrVal(s[start:end]), nil
}

func callCoalesce(args []ast.Expr, ctx *evalContext) (table.Value, error) {
	if len(args) == 0 {
		return table.Null(), fmt.Errorf("coalesce() requires at least 1 argument")
	}
	for _, arg := range args {
		v, err := eval(arg, ctx)
		if err != nil {
			return table.Null(), err
		}
		if !v.IsNull() {
			return v, nil
		}
	}
	return table.Null(), nil
}

func callIf(args []ast.Expr, ctx *evalContext) (table.Value, error) {
	if len(args) != 3 {
		return table.Null(), fmt.Errorf("if() takes 3 arguments (condition, then, else), got %d", len(args))
	}
	cond, err := eval(args[0], ctx)
	if err != nil {
		return table.Null(), err
	}
	b, ok := cond.AsBool()
	if !ok {
		return table.Null(), &table.TypeMismatchError{Op: "if", Column: columnName(args[0]), Want: "bool", Got: cond.Type.String()}
	}
	if b {
		return eval(args[1], ctx)
	}
	return eval(args[2], ctx)
}

func callDatePart(args []ast.Expr, ctx *evalContext, part string) (table.Value, error) {
	vals, err := evalArgs(part, args, ctx, 1)
	if err != nil {
		return table.Null(), err
	}
	v := vals[0]

	var t time.Time
	switch v.Type {
	case table.TypeNull:
		return table.Null(), nil
	case table.TypeTime:
		t = v.Time
	default:
		parsed, ok := table.ParseTime(v.AsString())
		if !ok {
			return table.Null(), fmt.Errorf("%s(): cannot parse %q as a date", part, v.AsString())
		}
		t = parsed
	}

	switch part {
	case "year":
		return table.IntVal(int64(t.Year())), nil
	case "month":
		return table.IntVal(int64(t.Month())), nil
	default:
		return table.IntVal(int64(t.Day())), nil
	}
}
