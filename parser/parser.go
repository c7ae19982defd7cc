// Package parser turns pipe queries and standalone expressions into ast
// trees.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/razeghi71/dqflow/ast"
	"github.com/razeghi71/dqflow/lexer"
)

type parser struct {
	toks []lexer.Token
	pos  int
}

func newParser(input string) (*parser, error) {
	toks, err := lexer.Lex(input)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}
	return &parser{toks: toks}, nil
}

// Parse parses "source | op | op ...".
func Parse(input string) (*ast.Query, error) {
	p, err := newParser(input)
	if err != nil {
		return nil, err
	}
	src, err := p.source()
	if err != nil {
		return nil, err
	}
	q := &ast.Query{Source: src}
	for p.accept(lexer.TokenPipe) {
		op, err := p.op()
		if err != nil {
			return nil, err
		}
		q.Ops = append(q.Ops, op)
	}
	return q, p.end()
}

// ParseExpr parses a standalone expression such as a filter predicate
// ("[Freight] > 1500") or a computed column formula ("[Name] + '_' + [Id]").
func ParseExpr(input string) (ast.Expr, error) {
	p, err := newParser(input)
	if err != nil {
		return nil, err
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	return e, p.end()
}

func (p *parser) peek() lexer.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return lexer.Token{Type: lexer.TokenEOF}
}

func (p *parser) next() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return tok
}

func (p *parser) accept(tt lexer.TokenType) bool {
	if p.peek().Type == tt {
		p.pos++
		return true
	}
	return false
}

// acceptWord consumes a bare identifier spelled w. Words like "on" and "by"
// are not reserved, so they stay usable as column names elsewhere.
func (p *parser) acceptWord(w string) bool {
	if tok := p.peek(); tok.Type == lexer.TokenIdent && tok.Val == w {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	tok := p.next()
	if tok.Type != tt {
		return tok, unexpected(tok, "expected "+tt.String())
	}
	return tok, nil
}

func (p *parser) end() error {
	if tok := p.peek(); tok.Type != lexer.TokenEOF {
		return unexpected(tok, "unexpected token")
	}
	return nil
}

func unexpected(tok lexer.Token, what string) error {
	return fmt.Errorf("%s, got %s (%q) at position %d", what, tok.Type, tok.Val, tok.Pos)
}

// source reads a file name. Unquoted paths arrive as identifiers joined by
// '/' and '.' tokens, e.g. "path/to/users.csv".
func (p *parser) source() (*ast.SourceOp, error) {
	tok := p.next()
	if tok.Type == lexer.TokenString {
		return &ast.SourceOp{Filename: tok.Val}, nil
	}
	if !tok.IsIdent() {
		return nil, unexpected(tok, "expected filename")
	}
	var sb strings.Builder
	sb.WriteString(tok.Val)
	for t := p.peek().Type; t == lexer.TokenDot || t == lexer.TokenSlash; t = p.peek().Type {
		sep := p.next()
		part := p.next()
		if part.Type != lexer.TokenIdent && part.Type != lexer.TokenInt {
			return nil, unexpected(part, fmt.Sprintf("expected path component after %q", sep.Val))
		}
		sb.WriteString(sep.Val)
		sb.WriteString(part.Val)
	}
	return &ast.SourceOp{Filename: sb.String()}, nil
}

type opParser func(p *parser, name string) (ast.Op, error)

var opParsers = map[string]opParser{
	"head": func(p *parser, _ string) (ast.Op, error) {
		n, err := p.integer()
		return &ast.HeadOp{N: n}, err
	},
	"tail": func(p *parser, _ string) (ast.Op, error) {
		n, err := p.integer()
		return &ast.TailOp{N: n}, err
	},
	"sorta": func(p *parser, _ string) (ast.Op, error) {
		cols, err := p.columns(1)
		return &ast.SortAscOp{Columns: cols}, err
	},
	"sortd": func(p *parser, _ string) (ast.Op, error) {
		cols, err := p.columns(1)
		return &ast.SortDescOp{Columns: cols}, err
	},
	"select": func(p *parser, _ string) (ast.Op, error) {
		cols, err := p.columns(1)
		return &ast.SelectOp{Columns: cols}, err
	},
	"remove": func(p *parser, _ string) (ast.Op, error) {
		cols, err := p.columns(1)
		return &ast.RemoveOp{Columns: cols}, err
	},
	"distinct": func(p *parser, _ string) (ast.Op, error) {
		cols, err := p.columns(0)
		return &ast.DistinctOp{Columns: cols}, err
	},
	"filter": func(p *parser, _ string) (ast.Op, error) {
		if _, err := p.expect(lexer.TokenLBrace); err != nil {
			return nil, err
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		_, err = p.expect(lexer.TokenRBrace)
		return &ast.FilterOp{Expr: e}, err
	},
	"transform": func(p *parser, _ string) (ast.Op, error) {
		as, err := p.assignments()
		return &ast.TransformOp{Assignments: as}, err
	},
	"update": func(p *parser, _ string) (ast.Op, error) {
		as, err := p.assignments()
		return &ast.UpdateOp{Assignments: as}, err
	},
	"aggregate": (*parser).aggregate,
	"top":       (*parser).top,
	"unfold": func(p *parser, _ string) (ast.Op, error) {
		col, err := p.column("column")
		return &ast.UnfoldOp{Column: col}, err
	},
	"join":     (*parser).join,
	"leftjoin": (*parser).join,
	"rename":   (*parser).rename,
	"debug":    func(*parser, string) (ast.Op, error) { return &ast.DebugOp{}, nil },
	"count":    func(*parser, string) (ast.Op, error) { return &ast.CountOp{}, nil },
}

func (p *parser) op() (ast.Op, error) {
	tok := p.next()
	if tok.Type != lexer.TokenIdent {
		return nil, unexpected(tok, "expected operation name")
	}
	parse, ok := opParsers[tok.Val]
	if !ok {
		return nil, fmt.Errorf("unknown operation %q at position %d", tok.Val, tok.Pos)
	}
	op, err := parse(p, tok.Val)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tok.Val, err)
	}
	return op, nil
}

var summaryFuncs = map[string]bool{"sum": true, "count": true, "avg": true, "min": true, "max": true}

// aggregate parses "aggregate col... { out = func(col), n = count() }".
func (p *parser) aggregate(string) (ast.Op, error) {
	op := &ast.AggregateOp{GroupBy: p.columnList()}
	if _, err := p.expect(lexer.TokenLBrace); err != nil {
		return nil, err
	}
	for p.peek().Type != lexer.TokenRBrace {
		s, err := p.summary()
		if err != nil {
			return nil, err
		}
		op.Summaries = append(op.Summaries, s)
		if !p.accept(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(lexer.TokenRBrace); err != nil {
		return nil, err
	}
	if len(op.GroupBy) == 0 && len(op.Summaries) == 0 {
		return nil, fmt.Errorf("expected group columns or summaries")
	}
	return op, nil
}

func (p *parser) summary() (ast.Summary, error) {
	out, err := p.column("output column")
	if err != nil {
		return ast.Summary{}, err
	}
	if _, err := p.expect(lexer.TokenEquals); err != nil {
		return ast.Summary{}, fmt.Errorf("after %q: %w", out, err)
	}
	fn := p.next()
	name := strings.ToLower(fn.Val)
	if fn.Type != lexer.TokenIdent || !summaryFuncs[name] {
		return ast.Summary{}, fmt.Errorf("unknown summary function %q at position %d", fn.Val, fn.Pos)
	}
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return ast.Summary{}, err
	}
	s := ast.Summary{Output: out, Func: name}
	switch {
	case p.peek().IsIdent():
		s.Column = p.next().Val
	case name != "count":
		return ast.Summary{}, fmt.Errorf("%s() requires a column", name)
	}
	_, err = p.expect(lexer.TokenRParen)
	return s, err
}

// top parses "top N column [by col...]".
func (p *parser) top(string) (ast.Op, error) {
	n, err := p.integer()
	if err != nil {
		return nil, err
	}
	col, err := p.column("ranking column")
	if err != nil {
		return nil, err
	}
	op := &ast.TopOp{N: n, Column: col}
	if p.acceptWord("by") {
		if op.Partition, err = p.columns(1); err != nil {
			return nil, fmt.Errorf("partition after 'by': %w", err)
		}
	}
	return op, nil
}

// join parses "join file on key [rightKey]"; a single key names the column
// on both sides.
func (p *parser) join(name string) (ast.Op, error) {
	src, err := p.source()
	if err != nil {
		return nil, err
	}
	if !p.acceptWord("on") {
		return nil, unexpected(p.peek(), "expected 'on'")
	}
	keys := p.columnList()
	if len(keys) != 1 && len(keys) != 2 {
		return nil, fmt.Errorf("expected one or two key columns, got %d", len(keys))
	}
	return &ast.JoinOp{
		Source:   src,
		LeftKey:  keys[0],
		RightKey: keys[len(keys)-1],
		Left:     name == "leftjoin",
	}, nil
}

func (p *parser) rename(string) (ast.Op, error) {
	op := &ast.RenameOp{}
	for p.peek().IsIdent() {
		old := p.next().Val
		renamed, err := p.column("new column name")
		if err != nil {
			return nil, err
		}
		op.Pairs = append(op.Pairs, ast.RenamePair{Old: old, New: renamed})
	}
	if len(op.Pairs) == 0 {
		return nil, fmt.Errorf("expected at least one old/new pair")
	}
	return op, nil
}

func (p *parser) integer() (int, error) {
	tok, err := p.expect(lexer.TokenInt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok.Val)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", tok.Val, err)
	}
	return n, nil
}

func (p *parser) column(what string) (string, error) {
	tok := p.next()
	if !tok.IsIdent() {
		return "", unexpected(tok, "expected "+what)
	}
	return tok.Val, nil
}

// columnList reads column names up to the first non-identifier.
func (p *parser) columnList() []string {
	var cols []string
	for p.peek().IsIdent() {
		cols = append(cols, p.next().Val)
	}
	return cols
}

func (p *parser) columns(atLeast int) ([]string, error) {
	cols := p.columnList()
	if len(cols) < atLeast {
		return nil, fmt.Errorf("expected at least %d column(s)", atLeast)
	}
	return cols, nil
}

// assignments parses "col = expr, col = expr ...".
func (p *parser) assignments() ([]ast.Assignment, error) {
	var as []ast.Assignment
	for {
		col, err := p.column("column name in assignment")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenEquals); err != nil {
			return nil, fmt.Errorf("after column %q: %w", col, err)
		}
		e, err := p.expr()
		if err != nil {
			return nil, fmt.Errorf("in assignment for %q: %w", col, err)
		}
		as = append(as, ast.Assignment{Column: col, Expr: e})
		if !p.accept(lexer.TokenComma) {
			return as, nil
		}
	}
}

type binaryOp struct {
	name string
	prec int
}

const (
	precOr = iota + 1
	precAnd
	precCompare
	precAdd
	precMul
)

// Inside expressions a single '=' compares, as in spreadsheet criteria.
var binaryOps = map[lexer.TokenType]binaryOp{
	lexer.TokenOr:     {"or", precOr},
	lexer.TokenAnd:    {"and", precAnd},
	lexer.TokenEq:     {"==", precCompare},
	lexer.TokenEquals: {"==", precCompare},
	lexer.TokenNeq:    {"!=", precCompare},
	lexer.TokenLt:     {"<", precCompare},
	lexer.TokenGt:     {">", precCompare},
	lexer.TokenLte:    {"<=", precCompare},
	lexer.TokenGte:    {">=", precCompare},
	lexer.TokenPlus:   {"+", precAdd},
	lexer.TokenMinus:  {"-", precAdd},
	lexer.TokenStar:   {"*", precMul},
	lexer.TokenSlash:  {"/", precMul},
}

func (p *parser) expr() (ast.Expr, error) {
	return p.binary(precOr)
}

// binary climbs precedence levels; operators are left-associative. A
// trailing "is [not] null" applies to everything parsed at this level.
func (p *parser) binary(minPrec int) (ast.Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := binaryOps[p.peek().Type]
		if !ok || op.prec < minPrec {
			break
		}
		p.next()
		right, err := p.binary(op.prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op.name, Left: left, Right: right}
	}
	if !p.accept(lexer.TokenIs) {
		return left, nil
	}
	negated := p.accept(lexer.TokenNot)
	if _, err := p.expect(lexer.TokenNull); err != nil {
		if negated {
			return nil, fmt.Errorf("expected 'null' after 'is not'")
		}
		return nil, fmt.Errorf("expected 'null' after 'is'")
	}
	return &ast.IsNullExpr{Operand: left, Negated: negated}, nil
}

func (p *parser) unary() (ast.Expr, error) {
	var op string
	switch {
	case p.accept(lexer.TokenNot):
		op = "not"
	case p.accept(lexer.TokenMinus):
		op = "-"
	default:
		return p.operand()
	}
	e, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &ast.UnaryExpr{Op: op, Operand: e}, nil
}

func (p *parser) operand() (ast.Expr, error) {
	tok := p.next()
	switch tok.Type {
	case lexer.TokenInt:
		v, err := strconv.ParseInt(tok.Val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", tok.Val, err)
		}
		return &ast.LiteralExpr{Kind: "int", Int: v}, nil
	case lexer.TokenFloat:
		v, err := strconv.ParseFloat(tok.Val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", tok.Val, err)
		}
		return &ast.LiteralExpr{Kind: "float", Float: v}, nil
	case lexer.TokenString:
		return &ast.LiteralExpr{Kind: "string", Str: tok.Val}, nil
	case lexer.TokenTrue, lexer.TokenFalse:
		return &ast.LiteralExpr{Kind: "bool", Bool: tok.Type == lexer.TokenTrue}, nil
	case lexer.TokenNull:
		return &ast.LiteralExpr{Kind: "null"}, nil
	case lexer.TokenBacktickIdent, lexer.TokenBracketIdent:
		return &ast.ColumnExpr{Name: tok.Val}, nil
	case lexer.TokenIdent:
		if p.accept(lexer.TokenLParen) {
			return p.call(strings.ToLower(tok.Val))
		}
		return &ast.ColumnExpr{Name: tok.Val}, nil
	case lexer.TokenLParen:
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		_, err = p.expect(lexer.TokenRParen)
		return e, err
	}
	return nil, unexpected(tok, "unexpected token in expression")
}

// call parses the arguments of name( ... ); the '(' is already consumed.
func (p *parser) call(name string) (ast.Expr, error) {
	fc := &ast.FuncCallExpr{Name: name}
	for p.peek().Type != lexer.TokenRParen {
		arg, err := p.expr()
		if err != nil {
			return nil, fmt.Errorf("in function %s: %w", name, err)
		}
		fc.Args = append(fc.Args, arg)
		if !p.accept(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, fmt.Errorf("in function %s: %w", name, err)
	}
	return fc, nil
}
