package ops

import (
	"fmt"
	"sort"

	"github.com/razeghi71/dqflow/table"
)

// AggregationKind is the summary computed by an AggregationSpec.
type AggregationKind int

const (
	Sum AggregationKind = iota
	Count
	Average
	Min
	Max
	CountRows
)

var aggregationNames = [...]string{
	Sum:       "sum",
	Count:     "count",
	Average:   "avg",
	Min:       "min",
	Max:       "max",
	CountRows: "countrows",
}

func (k AggregationKind) String() string {
	if int(k) >= 0 && int(k) < len(aggregationNames) {
		return aggregationNames[k]
	}
	return fmt.Sprintf("AggregationKind(%d)", int(k))
}

// ParseAggregationKind maps a summary function name to its kind.
func ParseAggregationKind(name string) (AggregationKind, error) {
	for i, n := range aggregationNames {
		if n == name {
			return AggregationKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown aggregation %q", name)
}

// AggregationSpec computes one output column per group. Column is ignored
// by CountRows.
type AggregationSpec struct {
	Column string
	Kind   AggregationKind
	Output string
}

// Aggregate partitions rows by the group columns and emits one row per
// group: the group values followed by one column per spec. Groups appear in
// first-seen order. Without group columns the whole table is one group, so
// exactly one row is produced even for an empty table.
func Aggregate(t *table.Table, groupBy []string, specs []AggregationSpec) (*table.Table, error) {
	groupIdx, err := t.Schema.LookupAll(groupBy)
	if err != nil {
		return nil, err
	}

	srcIdx := make([]int, len(specs))
	for i, s := range specs {
		if s.Kind == CountRows {
			srcIdx[i] = -1
			continue
		}
		idx, err := t.Schema.Lookup(s.Column)
		if err != nil {
			return nil, err
		}
		kind := t.Schema.Column(idx).Kind
		if (s.Kind == Sum || s.Kind == Average) && kind != table.KindAny && !kind.IsNumeric() {
			return nil, &table.TypeMismatchError{Op: s.Kind.String(), Column: s.Column, Want: "number", Got: kind.String()}
		}
		srcIdx[i] = idx
	}

	groups := newKeyIndex()
	var accs [][]accumulator
	newGroup := func() {
		row := make([]accumulator, len(specs))
		for i, s := range specs {
			row[i] = accumulator{kind: s.Kind, column: s.Column, allInt: true}
		}
		accs = append(accs, row)
	}
	if len(groupIdx) == 0 {
		groups.insert(nil)
		newGroup()
	}

	for _, row := range t.Rows {
		id, added := groups.insert(keyOf(row.Values, groupIdx))
		if added {
			newGroup()
		}
		for i := range specs {
			v := table.Null()
			if srcIdx[i] >= 0 {
				v = row.Values[srcIdx[i]]
			}
			if err := accs[id][i].add(v); err != nil {
				return nil, err
			}
		}
	}

	out := make([][]table.Value, groups.len())
	for id, key := range groups.keys {
		vals := make([]table.Value, 0, len(key)+len(specs))
		vals = append(vals, key...)
		for i := range specs {
			vals = append(vals, accs[id][i].result())
		}
		out[id] = vals
	}

	cols := make([]table.Column, 0, len(groupIdx)+len(specs))
	for _, idx := range groupIdx {
		cols = append(cols, t.Schema.Column(idx))
	}
	for i, s := range specs {
		cols = append(cols, table.Col(s.Output, outputKind(t, s, srcIdx[i], out, len(groupIdx)+i)))
	}
	schema, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}

	result := table.NewTable(schema)
	for _, vals := range out {
		result.AddRow(vals)
	}
	return result, nil
}

func outputKind(t *table.Table, s AggregationSpec, src int, rows [][]table.Value, col int) table.Kind {
	switch s.Kind {
	case Count, CountRows:
		return table.KindInt
	case Average:
		return table.KindFloat
	}
	if k := t.Schema.Column(src).Kind; k != table.KindAny {
		return k
	}
	var ki table.KindInferrer
	for _, r := range rows {
		ki.Observe(r[col])
	}
	return ki.Kind()
}

// accumulator folds one column of one group.
type accumulator struct {
	kind   AggregationKind
	column string

	n        int64
	intSum   int64
	floatSum float64
	allInt   bool
	best     table.Value
}

func (a *accumulator) add(v table.Value) error {
	if a.kind == CountRows {
		a.n++
		return nil
	}
	if v.IsNull() {
		return nil
	}

	switch a.kind {
	case Count:
		a.n++
	case Sum, Average:
		f, ok := v.AsFloat()
		if !ok {
			return &table.TypeMismatchError{Op: a.kind.String(), Column: a.column, Want: "number", Got: v.Type.String()}
		}
		a.n++
		a.floatSum += f
		if v.Type != table.TypeInt {
			a.allInt = false
		} else if sum, ok := table.AddInt(a.intSum, v.Int); ok {
			a.intSum = sum
		} else {
			// past int64: the float sum takes over
			a.allInt = false
		}
	case Min:
		if a.n == 0 || table.Compare(v, a.best) < 0 {
			a.best = v
		}
		a.n++
	case Max:
		if a.n == 0 || table.Compare(v, a.best) > 0 {
			a.best = v
		}
		a.n++
	}
	return nil
}

func (a *accumulator) result() table.Value {
	switch a.kind {
	case Count, CountRows:
		return table.IntVal(a.n)
	}
	if a.n == 0 {
		return table.Null()
	}
	switch a.kind {
	case Sum:
		if a.allInt {
			return table.IntVal(a.intSum)
		}
		return table.FloatVal(a.floatSum)
	case Average:
		return table.FloatVal(a.floatSum / float64(a.n))
	default:
		return a.best
	}
}

// Top returns the n rows with the largest values in col, per partition when
// partition columns are given. Ties keep their original order and nulls rank
// below every value. Partitions appear in first-seen order, rows within a
// partition in rank order.
func Top(t *table.Table, n int, col string, partition ...string) (*table.Table, error) {
	ci, err := t.Schema.Lookup(col)
	if err != nil {
		return nil, err
	}
	partIdx, err := t.Schema.LookupAll(partition)
	if err != nil {
		return nil, err
	}

	parts := newKeyIndex()
	var members [][]int
	for r, row := range t.Rows {
		id, added := parts.insert(keyOf(row.Values, partIdx))
		if added {
			members = append(members, nil)
		}
		members[id] = append(members[id], r)
	}

	result := table.NewTable(t.Schema)
	if n <= 0 {
		return result, nil
	}
	for _, rows := range members {
		ranked := make([]int, len(rows))
		copy(ranked, rows)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranksAbove(t.Rows[ranked[i]].Values[ci], t.Rows[ranked[j]].Values[ci])
		})
		for _, r := range ranked[:clamp(n, len(ranked))] {
			result.AddRow(t.Rows[r].Values)
		}
	}
	return result, nil
}

func ranksAbove(a, b table.Value) bool {
	if a.IsNull() {
		return false
	}
	if b.IsNull() {
		return true
	}
	return table.Compare(a, b) > 0
}
