// Package ast holds the parsed form of pipe queries and expressions.
package ast

// Expr is a node of an expression tree: filter predicates and computed
// column formulas.
type Expr interface {
	exprNode()
}

type (
	// LiteralExpr is a constant. Kind is one of "int", "float", "string",
	// "bool" or "null" and selects which value field is meaningful.
	LiteralExpr struct {
		Kind  string
		Int   int64
		Float float64
		Str   string
		Bool  bool
	}

	ColumnExpr struct {
		Name string
	}

	// BinaryExpr applies Op (arithmetic, comparison, "and", "or").
	BinaryExpr struct {
		Op          string
		Left, Right Expr
	}

	// UnaryExpr is "not x" or "-x".
	UnaryExpr struct {
		Op      string
		Operand Expr
	}

	// FuncCallExpr calls a scalar function; Name is lower case.
	FuncCallExpr struct {
		Name string
		Args []Expr
	}

	// IsNullExpr is "x is null", or "x is not null" when Negated.
	IsNullExpr struct {
		Operand Expr
		Negated bool
	}
)

func (*LiteralExpr) exprNode()  {}
func (*ColumnExpr) exprNode()   {}
func (*BinaryExpr) exprNode()   {}
func (*UnaryExpr) exprNode()    {}
func (*FuncCallExpr) exprNode() {}
func (*IsNullExpr) exprNode()   {}

// Query is a source followed by the piped operations, in order.
type Query struct {
	Source *SourceOp
	Ops    []Op
}

// Op is one stage of a query.
type Op interface {
	opNode()
}

// Assignment is a "col = expr" item of transform and update.
type Assignment struct {
	Column string
	Expr   Expr
}

// Summary is one "out = func(column)" item of aggregate. Func is one of
// sum, count, avg, min or max; Column is empty for count().
type Summary struct {
	Output string
	Func   string
	Column string
}

type RenamePair struct {
	Old, New string
}

type (
	// SourceOp names a file, or a table when reading from a database.
	SourceOp struct {
		Filename string
	}

	HeadOp struct{ N int }
	TailOp struct{ N int }

	SortAscOp  struct{ Columns []string }
	SortDescOp struct{ Columns []string }
	SelectOp   struct{ Columns []string }
	RemoveOp   struct{ Columns []string }

	// DistinctOp drops repeated rows, comparing only Columns when given.
	DistinctOp struct{ Columns []string }

	FilterOp struct{ Expr Expr }

	// TransformOp appends computed columns.
	TransformOp struct{ Assignments []Assignment }

	// UpdateOp overwrites existing columns with computed values.
	UpdateOp struct{ Assignments []Assignment }

	AggregateOp struct {
		GroupBy   []string
		Summaries []Summary
	}

	// TopOp keeps the N rows with the largest Column, per Partition group
	// when one is given.
	TopOp struct {
		N         int
		Column    string
		Partition []string
	}

	// UnfoldOp turns each element of a list column into its own row.
	UnfoldOp struct{ Column string }

	// JoinOp matches LeftKey against RightKey of Source. Left keeps
	// unmatched rows.
	JoinOp struct {
		Source   *SourceOp
		LeftKey  string
		RightKey string
		Left     bool
	}

	RenameOp struct{ Pairs []RenamePair }

	DebugOp struct{}
	CountOp struct{}
)

func (*SourceOp) opNode()    {}
func (*HeadOp) opNode()      {}
func (*TailOp) opNode()      {}
func (*SortAscOp) opNode()   {}
func (*SortDescOp) opNode()  {}
func (*SelectOp) opNode()    {}
func (*RemoveOp) opNode()    {}
func (*DistinctOp) opNode()  {}
func (*FilterOp) opNode()    {}
func (*TransformOp) opNode() {}
func (*UpdateOp) opNode()    {}
func (*AggregateOp) opNode() {}
func (*TopOp) opNode()       {}
func (*UnfoldOp) opNode()    {}
func (*JoinOp) opNode()      {}
func (*RenameOp) opNode()    {}
func (*DebugOp) opNode()     {}
func (*CountOp) opNode()     {}
