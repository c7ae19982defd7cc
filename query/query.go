// Package query turns a parsed pipe query into a flow.
package query

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/razeghi71/dqflow/ast"
	"github.com/razeghi71/dqflow/flow"
	"github.com/razeghi71/dqflow/ops"
	"github.com/razeghi71/dqflow/parser"
)

// Opener starts a flow at the file a query names.
type Opener func(filename string) *flow.Flow

// Options configures Build. Zero values open files by extension and log
// nothing.
type Options struct {
	Open   Opener
	Logger *zap.Logger
}

// Compile parses and builds a query such as
// "users.csv | filter { age > 30 } | select name age".
func Compile(src string, opts Options) (*flow.Flow, error) {
	q, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return Build(q, opts)
}

// Build translates every stage of q into a flow operator.
func Build(q *ast.Query, opts Options) (*flow.Flow, error) {
	if opts.Open == nil {
		opts.Open = flow.FromFile
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	f := opts.Open(q.Source.Filename)
	for _, op := range q.Ops {
		var err error
		f, err = apply(f, op, opts)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func apply(f *flow.Flow, op ast.Op, opts Options) (*flow.Flow, error) {
	switch o := op.(type) {
	case *ast.HeadOp:
		return f.Head(o.N), nil
	case *ast.TailOp:
		return f.Tail(o.N), nil
	case *ast.SortAscOp:
		return f.SortBy(o.Columns...), nil
	case *ast.SortDescOp:
		return f.SortByDescending(o.Columns...), nil
	case *ast.SelectOp:
		return f.Select(o.Columns...), nil
	case *ast.FilterOp:
		return f.FilterExpr(o.Expr), nil
	case *ast.TransformOp:
		for _, a := range o.Assignments {
			f = f.SetColumnExpr(a.Column, a.Expr)
		}
		return f, nil
	case *ast.UpdateOp:
		for _, a := range o.Assignments {
			f = f.ProcessColumnExpr(a.Column, a.Expr)
		}
		return f, nil
	case *ast.AggregateOp:
		g := flow.GroupBy(o.GroupBy...)
		for _, s := range o.Summaries {
			spec, err := summarySpec(s)
			if err != nil {
				return nil, err
			}
			g = g.Summary(spec)
		}
		return f.Aggregate(g), nil
	case *ast.TopOp:
		return f.Top(o.N, o.Column, o.Partition...), nil
	case *ast.UnfoldOp:
		return f.Unfold(o.Column), nil
	case *ast.JoinOp:
		right := opts.Open(o.Source.Filename)
		if o.Left {
			return f.LeftJoin(right, o.LeftKey, o.RightKey), nil
		}
		return f.Join(right, o.LeftKey, o.RightKey), nil
	case *ast.DebugOp:
		return f.Debug(flow.LogTable(opts.Logger)), nil
	case *ast.CountOp:
		return f.Count(), nil
	case *ast.DistinctOp:
		return f.Distinct(o.Columns...), nil
	case *ast.RenameOp:
		for _, p := range o.Pairs {
			f = f.RenameColumn(p.Old, p.New)
		}
		return f, nil
	case *ast.RemoveOp:
		return f.RemoveColumns(o.Columns...), nil
	default:
		return nil, fmt.Errorf("unknown operation type %T", op)
	}
}

func summarySpec(s ast.Summary) (ops.AggregationSpec, error) {
	if s.Func == "count" && s.Column == "" {
		return ops.AggregationSpec{Kind: ops.CountRows, Output: s.Output}, nil
	}
	kind, err := ops.ParseAggregationKind(s.Func)
	if err != nil {
		return ops.AggregationSpec{}, err
	}
	return ops.AggregationSpec{Column: s.Column, Kind: kind, Output: s.Output}, nil
}
