package ast

import (
	"strconv"
	"strings"
)

// Format renders an expression back to source form. Every binary
// expression is parenthesized, so the output is unambiguous rather than
// minimal.
func Format(e Expr) string {
	var sb strings.Builder
	format(&sb, e)
	return sb.String()
}

func format(sb *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *LiteralExpr:
		switch n.Kind {
		case "int":
			sb.WriteString(strconv.FormatInt(n.Int, 10))
		case "float":
			sb.WriteString(strconv.FormatFloat(n.Float, 'g', -1, 64))
		case "string":
			sb.WriteByte('\'')
			sb.WriteString(strings.ReplaceAll(n.Str, "'", "\\'"))
			sb.WriteByte('\'')
		case "bool":
			sb.WriteString(strconv.FormatBool(n.Bool))
		default:
			sb.WriteString("null")
		}
	case *ColumnExpr:
		sb.WriteByte('[')
		sb.WriteString(n.Name)
		sb.WriteByte(']')
	case *BinaryExpr:
		sb.WriteByte('(')
		format(sb, n.Left)
		sb.WriteByte(' ')
		sb.WriteString(n.Op)
		sb.WriteByte(' ')
		format(sb, n.Right)
		sb.WriteByte(')')
	case *UnaryExpr:
		sb.WriteString(n.Op)
		if n.Op == "not" {
			sb.WriteByte(' ')
		}
		format(sb, n.Operand)
	case *FuncCallExpr:
		sb.WriteString(n.Name)
		sb.WriteByte('(')
		for i, arg := range n.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, arg)
		}
		sb.WriteByte(')')
	case *IsNullExpr:
		format(sb, n.Operand)
		if n.Negated {
			sb.WriteString(" is not null")
		} else {
			sb.WriteString(" is null")
		}
	}
}
