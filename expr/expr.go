package expr

import (
	"fmt"
	"math"
	"strings"

	"github.com/razeghi71/dqflow/ast"
	"github.com/razeghi71/dqflow/parser"
	"github.com/razeghi71/dqflow/table"
)

// Program is an expression bound to one schema. Column references are
// resolved to ordinals when the program is compiled, not per row.
type Program struct {
	root   ast.Expr
	schema *table.Schema
	slots  map[*ast.ColumnExpr]int
}

// Compile binds an expression to a schema. A reference to a column missing
// from the schema fails with an UnknownColumnError.
func Compile(e ast.Expr, schema *table.Schema) (*Program, error) {
	p := &Program{root: e, schema: schema, slots: make(map[*ast.ColumnExpr]int)}
	if err := p.bind(e); err != nil {
		return nil, err
	}
	return p, nil
}

// CompileString parses and binds a textual expression.
func CompileString(src string, schema *table.Schema) (*Program, error) {
	e, err := parser.ParseExpr(src)
	if err != nil {
		return nil, err
	}
	return Compile(e, schema)
}

func (p *Program) bind(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.ColumnExpr:
		idx, err := p.schema.Lookup(n.Name)
		if err != nil {
			return err
		}
		p.slots[n] = idx
	case *ast.BinaryExpr:
		if err := p.bind(n.Left); err != nil {
			return err
		}
		return p.bind(n.Right)
	case *ast.UnaryExpr:
		return p.bind(n.Operand)
	case *ast.IsNullExpr:
		return p.bind(n.Operand)
	case *ast.FuncCallExpr:
		for _, arg := range n.Args {
			if err := p.bind(arg); err != nil {
				return err
			}
		}
	}
	return nil
}

// Eval evaluates the program against one row of the bound schema.
func (p *Program) Eval(row []table.Value) (table.Value, error) {
	ctx := &evalContext{prog: p, row: row}
	return eval(p.root, ctx)
}

// Test evaluates the program as a predicate. Null counts as false; any other
// non-boolean result is a TypeMismatchError.
func (p *Program) Test(row []table.Value) (bool, error) {
	v, err := p.Eval(row)
	if err != nil {
		return false, err
	}
	b, ok := v.AsBool()
	if !ok {
		return false, &table.TypeMismatchError{Op: "predicate", Want: "bool", Got: v.Type.String()}
	}
	return b, nil
}

// evalContext provides column lookup for expression evaluation.
type evalContext struct {
	prog *Program
	row  []table.Value
}

// loose reports whether e reads a column declared as any; such operands are
// coerced before a type mismatch is reported.
func (ctx *evalContext) loose(e ast.Expr) bool {
	c, ok := e.(*ast.ColumnExpr)
	if !ok {
		return false
	}
	return ctx.prog.schema.Column(ctx.prog.slots[c]).Kind == table.KindAny
}

func eval(expr ast.Expr, ctx *evalContext) (table.Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return evalLiteral(e), nil
	case *ast.ColumnExpr:
		return evalColumn(e, ctx)
	case *ast.BinaryExpr:
		return evalBinary(e, ctx)
	case *ast.UnaryExpr:
		return evalUnary(e, ctx)
	case *ast.FuncCallExpr:
		return evalFunc(e, ctx)
	case *ast.IsNullExpr:
		return evalIsNull(e, ctx)
	default:
		return table.Null(), fmt.Errorf("unknown expression type %T", expr)
	}
}

func evalLiteral(e *ast.LiteralExpr) table.Value {
	switch e.Kind {
	case "int":
		return table.IntVal(e.Int)
	case "float":
		return table.FloatVal(e.Float)
	case "string":
		return table.StrVal(e.Str)
	case "bool":
		return table.BoolVal(e.Bool)
	default:
		return table.Null()
	}
}

func evalColumn(e *ast.ColumnExpr, ctx *evalContext) (table.Value, error) {
	idx, ok := ctx.prog.slots[e]
	if !ok {
		return table.Null(), &table.UnknownColumnError{Column: e.Name}
	}
	return ctx.row[idx], nil
}

// columnName names the column an operand reads, for error reports.
func columnName(exprs ...ast.Expr) string {
	for _, e := range exprs {
		if c, ok := e.(*ast.ColumnExpr); ok {
			return c.Name
		}
	}
	return ""
}

func evalBinary(e *ast.BinaryExpr, ctx *evalContext) (table.Value, error) {
	left, err := eval(e.Left, ctx)
	if err != nil {
		return table.Null(), err
	}
	right, err := eval(e.Right, ctx)
	if err != nil {
		return table.Null(), err
	}

	switch e.Op {
	case "+", "-", "*", "/":
		// Null propagation for arithmetic
		if left.IsNull() || right.IsNull() {
			return table.Null(), nil
		}
		left, right = table.Coerce(left, right, ctx.loose(e.Left), ctx.loose(e.Right))
		v, err := evalArith(e.Op, left, right)
		if err != nil {
			return v, withColumn(err, columnName(e.Left, e.Right))
		}
		return v, nil
	case "==", "!=", "<", ">", "<=", ">=":
		left, right = table.Coerce(left, right, ctx.loose(e.Left), ctx.loose(e.Right))
		v, err := evalComparison(e.Op, left, right)
		if err != nil {
			return v, withColumn(err, columnName(e.Left, e.Right))
		}
		return v, nil
	case "and":
		return evalLogicalAnd(left, right)
	case "or":
		return evalLogicalOr(left, right)
	default:
		return table.Null(), fmt.Errorf("unknown operator %q", e.Op)
	}
}

func withColumn(err error, col string) error {
	if tm, ok := err.(*table.TypeMismatchError); ok && tm.Column == "" {
		tm.Column = col
	}
	return err
}

func evalArith(op string, left, right table.Value) (table.Value, error) {
	// + concatenates as soon as one side is a string
	if op == "+" && (left.Type == table.TypeString || right.Type == table.TypeString) {
		return table.StrVal(left.AsString() + right.AsString()), nil
	}

	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	if !lok || !rok {
		got := left.Type
		if lok {
			got = right.Type
		}
		return table.Null(), &table.TypeMismatchError{Op: op, Want: "number", Got: got.String()}
	}

	if left.Type == table.TypeInt && right.Type == table.TypeInt {
		if v, ok := intArith(op, left.Int, right.Int); ok {
			return table.IntVal(v), nil
		}
	}

	var result float64
	switch op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return table.Null(), nil // division by zero returns null
		}
		result = lf / rf
	}
	return table.FloatVal(result), nil
}

// intArith computes op exactly on two ints. It reports false when the result
// overflows int64 or, for "/", is not whole; the caller then falls back to
// float arithmetic.
func intArith(op string, a, b int64) (int64, bool) {
	switch op {
	case "+":
		return table.AddInt(a, b)
	case "-":
		return table.SubInt(a, b)
	case "*":
		return table.MulInt(a, b)
	case "/":
		if b == 0 || a%b != 0 || (a == math.MinInt64 && b == -1) {
			return 0, false
		}
		return a / b, true
	}
	return 0, false
}

func evalComparison(op string, left, right table.Value) (table.Value, error) {
	// Null comparisons: null == null is true, null == anything is false
	if left.IsNull() && right.IsNull() {
		switch op {
		case "==":
			return table.BoolVal(true), nil
		case "!=":
			return table.BoolVal(false), nil
		default:
			return table.Null(), nil
		}
	}
	if left.IsNull() || right.IsNull() {
		switch op {
		case "==":
			return table.BoolVal(false), nil
		case "!=":
			return table.BoolVal(true), nil
		default:
			return table.Null(), nil
		}
	}

	// String comparison
	if left.Type == table.TypeString && right.Type == table.TypeString {
		cmp := strings.Compare(left.Str, right.Str)
		return table.BoolVal(cmpResult(op, cmp)), nil
	}

	// Bool comparison
	if left.Type == table.TypeBool && right.Type == table.TypeBool {
		switch op {
		case "==":
			return table.BoolVal(left.Bool == right.Bool), nil
		case "!=":
			return table.BoolVal(left.Bool != right.Bool), nil
		default:
			return table.Null(), &table.TypeMismatchError{Op: op, Want: "ordered value", Got: "bool"}
		}
	}

	// Time comparison
	if left.Type == table.TypeTime && right.Type == table.TypeTime {
		return table.BoolVal(cmpResult(op, left.Time.Compare(right.Time))), nil
	}

	// Numeric comparison
	if left.IsNumeric() && right.IsNumeric() {
		return table.BoolVal(cmpResult(op, table.Compare(left, right))), nil
	}

	return table.Null(), &table.TypeMismatchError{Op: op, Want: left.Type.String(), Got: right.Type.String()}
}

func cmpResult(op string, cmp int) bool {
	switch op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func evalLogicalAnd(left, right table.Value) (table.Value, error) {
	lb, lok := left.AsBool()
	rb, rok := right.AsBool()
	if !lok || !rok {
		return table.Null(), &table.TypeMismatchError{Op: "and", Want: "bool", Got: nonBool(left, right)}
	}
	return table.BoolVal(lb && rb), nil
}

func evalLogicalOr(left, right table.Value) (table.Value, error) {
	lb, lok := left.AsBool()
	rb, rok := right.AsBool()
	if !lok || !rok {
		return table.Null(), &table.TypeMismatchError{Op: "or", Want: "bool", Got: nonBool(left, right)}
	}
	return table.BoolVal(lb || rb), nil
}

func nonBool(vs ...table.Value) string {
	for _, v := range vs {
		if _, ok := v.AsBool(); !ok {
			return v.Type.String()
		}
	}
	return "bool"
}

func evalUnary(e *ast.UnaryExpr, ctx *evalContext) (table.Value, error) {
	operand, err := eval(e.Operand, ctx)
	if err != nil {
		return table.Null(), err
	}

	switch e.Op {
	case "not":
		b, ok := operand.AsBool()
		if !ok {
			return table.Null(), &table.TypeMismatchError{Op: "not", Column: columnName(e.Operand), Want: "bool", Got: operand.Type.String()}
		}
		return table.BoolVal(!b), nil
	case "-":
		if operand.IsNull() {
			return table.Null(), nil
		}
		switch operand.Type {
		case table.TypeInt:
			if operand.Int == math.MinInt64 {
				return table.FloatVal(-float64(operand.Int)), nil
			}
			return table.IntVal(-operand.Int), nil
		case table.TypeFloat:
			return table.FloatVal(-operand.Float), nil
		default:
			return table.Null(), &table.TypeMismatchError{Op: "-", Column: columnName(e.Operand), Want: "number", Got: operand.Type.String()}
		}
	default:
		return table.Null(), fmt.Errorf("unknown unary operator %q", e.Op)
	}
}

func evalIsNull(e *ast.IsNullExpr, ctx *evalContext) (table.Value, error) {
	operand, err := eval(e.Operand, ctx)
	if err != nil {
		return table.Null(), err
	}
	isNull := operand.IsNull()
	if e.Negated {
		isNull = !isNull
	}
	return table.BoolVal(isNull), nil
}
