// Package flow builds lazily evaluated table pipelines. Operator calls only
// grow an immutable node graph; nothing runs until a sink is executed.
package flow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/razeghi71/dqflow/ast"
	"github.com/razeghi71/dqflow/expr"
	"github.com/razeghi71/dqflow/ops"
	"github.com/razeghi71/dqflow/parser"
	"github.com/razeghi71/dqflow/table"
)

// Flow is a handle on a node of the graph. Every operator method returns a
// new Flow and leaves the receiver untouched, so one Flow may feed any
// number of downstream chains.
type Flow struct {
	n *node
}

// ID returns the id of the node the flow ends in.
func (f *Flow) ID() ID {
	return f.n.id
}

// Dot renders the graph leading to this flow in graphviz format.
func (f *Flow) Dot(name string) []byte {
	return dot(name, sorted(f.n))
}

func (f *Flow) then(kind NodeKind, label string, fn func(in *table.Table) (*table.Table, error)) *Flow {
	apply := func(_ context.Context, in []*table.Table) (*table.Table, error) {
		return fn(in[0])
	}
	return &Flow{n: newNode(kind, label, apply, f.n)}
}

func (f *Flow) fail(kind NodeKind, label string, err error) *Flow {
	n := newNode(kind, label, nil, f.n)
	n.err = err
	return &Flow{n: n}
}

// Select keeps the named columns in the given order.
func (f *Flow) Select(cols ...string) *Flow {
	return f.then(KindSelect, strings.Join(cols, ","), func(in *table.Table) (*table.Table, error) {
		return ops.Select(in, cols...)
	})
}

// SelectColumns is an alias of Select.
func (f *Flow) SelectColumns(cols ...string) *Flow {
	return f.Select(cols...)
}

// RemoveColumn drops one column.
func (f *Flow) RemoveColumn(col string) *Flow {
	return f.RemoveColumns(col)
}

// RemoveColumns drops the named columns.
func (f *Flow) RemoveColumns(cols ...string) *Flow {
	return f.then(KindRemove, strings.Join(cols, ","), func(in *table.Table) (*table.Table, error) {
		return ops.RemoveColumns(in, cols...)
	})
}

// RenameColumn renames one column.
func (f *Flow) RenameColumn(oldName, newName string) *Flow {
	return f.renameColumns([]ops.Rename{{Old: oldName, New: newName}})
}

// RenameColumns applies an old name to new name mapping.
func (f *Flow) RenameColumns(mapping map[string]string) *Flow {
	olds := make([]string, 0, len(mapping))
	for old := range mapping {
		olds = append(olds, old)
	}
	sort.Strings(olds)
	pairs := make([]ops.Rename, len(olds))
	for i, old := range olds {
		pairs[i] = ops.Rename{Old: old, New: mapping[old]}
	}
	return f.renameColumns(pairs)
}

func (f *Flow) renameColumns(pairs []ops.Rename) *Flow {
	labels := make([]string, len(pairs))
	for i, p := range pairs {
		labels[i] = p.Old + "->" + p.New
	}
	return f.then(KindRename, strings.Join(labels, ","), func(in *table.Table) (*table.Table, error) {
		return ops.RenameColumns(in, pairs...)
	})
}

// Filter keeps the rows for which a textual predicate holds, for example
// "[Freight] > 1500 and ShipCountry = 'France'".
func (f *Flow) Filter(predicate string) *Flow {
	e, err := parser.ParseExpr(predicate)
	if err != nil {
		return f.fail(KindFilter, predicate, err)
	}
	return f.filterExpr(predicate, e)
}

// FilterExpr keeps the rows for which a parsed predicate holds.
func (f *Flow) FilterExpr(e ast.Expr) *Flow {
	return f.filterExpr(ast.Format(e), e)
}

func (f *Flow) filterExpr(label string, e ast.Expr) *Flow {
	return f.then(KindFilter, label, func(in *table.Table) (*table.Table, error) {
		prog, err := expr.Compile(e, in.Schema)
		if err != nil {
			return nil, err
		}
		return ops.Filter(in, func(r table.RowRef) (bool, error) {
			return prog.Test(in.Rows[r.Index()].Values)
		})
	})
}

// FilterFunc keeps the rows for which pred returns true.
func (f *Flow) FilterFunc(pred ops.Predicate) *Flow {
	return f.then(KindFilter, "func", func(in *table.Table) (*table.Table, error) {
		return ops.Filter(in, pred)
	})
}

// FilterColumn keeps the rows whose value in col, converted to T, satisfies
// pred. Rows with a null in col are dropped.
func FilterColumn[T any](f *Flow, col string, pred func(T) bool) *Flow {
	return f.then(KindFilter, col, func(in *table.Table) (*table.Table, error) {
		idx, err := in.Schema.Lookup(col)
		if err != nil {
			return nil, err
		}
		return ops.Filter(in, func(r table.RowRef) (bool, error) {
			v := r.At(idx)
			if v.IsNull() {
				return false, nil
			}
			x, err := table.As[T](v)
			if err != nil {
				return false, columnError(err, col)
			}
			return pred(x), nil
		})
	})
}

// AddColumn appends a column computed by a textual expression such as
// "[Name] + '_' + [RegionId]". The column kind is inferred from the results.
func (f *Flow) AddColumn(name, expression string) *Flow {
	return f.parsed(KindAddColumn, name, expression, f.AddColumnExpr)
}

// AddColumnExpr appends a column computed by a parsed expression.
func (f *Flow) AddColumnExpr(name string, e ast.Expr) *Flow {
	return f.compute(KindAddColumn, name, e, func(in *table.Table, fn ops.RowFunc) (*table.Table, error) {
		return ops.AddColumn(in, table.Col(name, table.KindAny), fn)
	})
}

// AddColumnFunc appends a column of the declared kind computed per row.
func (f *Flow) AddColumnFunc(name string, kind table.Kind, fn ops.RowFunc) *Flow {
	return f.then(KindAddColumn, name, func(in *table.Table) (*table.Table, error) {
		return ops.AddColumn(in, table.Col(name, kind), fn)
	})
}

// ProcessColumn replaces the values of an existing column with a textual
// expression over the row; the expression may reference the column itself.
func (f *Flow) ProcessColumn(name, expression string) *Flow {
	return f.parsed(KindProcessColumn, name, expression, f.ProcessColumnExpr)
}

// ProcessColumnExpr replaces the values of a column with a parsed
// expression.
func (f *Flow) ProcessColumnExpr(name string, e ast.Expr) *Flow {
	return f.compute(KindProcessColumn, name, e, func(in *table.Table, fn ops.RowFunc) (*table.Table, error) {
		return ops.ProcessColumn(in, table.Col(name, table.KindAny), fn)
	})
}

// ProcessColumnFunc replaces the values of a column with fn applied to each
// old value. The column takes the declared kind.
func (f *Flow) ProcessColumnFunc(name string, kind table.Kind, fn func(table.Value) (table.Value, error)) *Flow {
	return f.then(KindProcessColumn, name, func(in *table.Table) (*table.Table, error) {
		idx, err := in.Schema.Lookup(name)
		if err != nil {
			return nil, err
		}
		return ops.ProcessColumn(in, table.Col(name, kind), func(r table.RowRef) (table.Value, error) {
			return fn(r.At(idx))
		})
	})
}

// ProcessColumn replaces the values of col with fn applied to each value
// converted to T. Nulls stay null; the new kind is inferred from R.
func ProcessColumn[T, R any](f *Flow, col string, fn func(T) (R, error)) *Flow {
	return f.ProcessColumnFunc(col, table.KindAny, func(v table.Value) (table.Value, error) {
		if v.IsNull() {
			return v, nil
		}
		x, err := table.As[T](v)
		if err != nil {
			return table.Null(), columnError(err, col)
		}
		out, err := fn(x)
		if err != nil {
			return table.Null(), err
		}
		return table.ValueOf(out)
	})
}

// SetColumn replaces col with the expression result when the column
// exists, and appends it otherwise.
func (f *Flow) SetColumn(name, expression string) *Flow {
	return f.parsed(KindAddColumn, name, expression, f.SetColumnExpr)
}

// SetColumnExpr is SetColumn for a parsed expression.
func (f *Flow) SetColumnExpr(name string, e ast.Expr) *Flow {
	return f.compute(KindAddColumn, name, e, func(in *table.Table, fn ops.RowFunc) (*table.Table, error) {
		if in.Schema.Has(name) {
			return ops.ProcessColumn(in, table.Col(name, table.KindAny), fn)
		}
		return ops.AddColumn(in, table.Col(name, table.KindAny), fn)
	})
}

func (f *Flow) parsed(kind NodeKind, name, expression string, build func(string, ast.Expr) *Flow) *Flow {
	e, err := parser.ParseExpr(expression)
	if err != nil {
		return f.fail(kind, name+"="+expression, err)
	}
	return build(name, e)
}

// compute adds a node that compiles e once against its input schema and
// hands the resulting row function to op.
func (f *Flow) compute(kind NodeKind, name string, e ast.Expr, op func(*table.Table, ops.RowFunc) (*table.Table, error)) *Flow {
	return f.then(kind, name+"="+ast.Format(e), func(in *table.Table) (*table.Table, error) {
		prog, err := expr.Compile(e, in.Schema)
		if err != nil {
			return nil, err
		}
		return op(in, func(r table.RowRef) (table.Value, error) {
			return prog.Eval(in.Rows[r.Index()].Values)
		})
	})
}

// Sort orders rows by the keys in priority order. The sort is stable.
func (f *Flow) Sort(keys ...ops.SortKey) *Flow {
	labels := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = k.Column
		if k.Descending {
			labels[i] += " desc"
		}
	}
	return f.then(KindSort, strings.Join(labels, ","), func(in *table.Table) (*table.Table, error) {
		return ops.Sort(in, keys...)
	})
}

// SortBy sorts ascending by the given columns.
func (f *Flow) SortBy(cols ...string) *Flow {
	return f.Sort(ops.Asc(cols...)...)
}

// SortByDescending sorts descending by the given columns.
func (f *Flow) SortByDescending(cols ...string) *Flow {
	return f.Sort(ops.Desc(cols...)...)
}

// Join inner-joins right on leftKey == rightKey.
func (f *Flow) Join(right *Flow, leftKey, rightKey string) *Flow {
	return f.join(right, leftKey, rightKey, ops.InnerJoin)
}

// LeftJoin keeps every row of f, padding unmatched rows with nulls.
func (f *Flow) LeftJoin(right *Flow, leftKey, rightKey string) *Flow {
	return f.join(right, leftKey, rightKey, ops.LeftJoin)
}

func (f *Flow) join(right *Flow, leftKey, rightKey string, how ops.JoinType) *Flow {
	label := fmt.Sprintf("%s %s=%s", how, leftKey, rightKey)
	apply := func(_ context.Context, in []*table.Table) (*table.Table, error) {
		return ops.Join(in[0], in[1], leftKey, rightKey, how)
	}
	return &Flow{n: newNode(KindJoin, label, apply, f.n, right.n)}
}

// Aggregate computes the grouping's summaries, one row per group.
func (f *Flow) Aggregate(g Grouping) *Flow {
	specs := g.specs
	return f.then(KindAggregate, g.String(), func(in *table.Table) (*table.Table, error) {
		return ops.Aggregate(in, g.columns, specs)
	})
}

// Count replaces the table with a single "count" column holding its row
// count.
func (f *Flow) Count() *Flow {
	return f.Aggregate(GroupBy().CountRows("count"))
}

// Top keeps the n rows with the largest values of col, per partition when
// partition columns are given.
func (f *Flow) Top(n int, col string, partition ...string) *Flow {
	label := fmt.Sprintf("%d %s", n, col)
	if len(partition) > 0 {
		label += " by " + strings.Join(partition, ",")
	}
	return f.then(KindTop, label, func(in *table.Table) (*table.Table, error) {
		return ops.Top(in, n, col, partition...)
	})
}

// Unfold emits one row per element of the list held in col.
func (f *Flow) Unfold(col string) *Flow {
	return f.then(KindUnfold, col, func(in *table.Table) (*table.Table, error) {
		return ops.Unfold(in, col)
	})
}

// Head keeps the first n rows.
func (f *Flow) Head(n int) *Flow {
	return f.then(KindHead, fmt.Sprint(n), func(in *table.Table) (*table.Table, error) {
		return ops.Head(in, n), nil
	})
}

// Tail keeps the last n rows.
func (f *Flow) Tail(n int) *Flow {
	return f.then(KindTail, fmt.Sprint(n), func(in *table.Table) (*table.Table, error) {
		return ops.Tail(in, n), nil
	})
}

// Distinct drops rows repeating an earlier row's values in cols, or in all
// columns when none are given.
func (f *Flow) Distinct(cols ...string) *Flow {
	return f.then(KindDistinct, strings.Join(cols, ","), func(in *table.Table) (*table.Table, error) {
		return ops.Distinct(in, cols...)
	})
}

func columnError(err error, col string) error {
	if tm, ok := err.(*table.TypeMismatchError); ok && tm.Column == "" {
		tm.Column = col
	}
	return err
}
