// Package ops implements the table operators. Every operator returns a
// fresh table and leaves its inputs untouched.
package ops

import (
	"fmt"
	"sort"

	"github.com/razeghi71/dqflow/table"
)

// RowFunc computes a value from one row.
type RowFunc func(r table.RowRef) (table.Value, error)

// Predicate decides whether a row is kept.
type Predicate func(r table.RowRef) (bool, error)

// Select keeps the named columns in the requested order.
func Select(t *table.Table, cols ...string) (*table.Table, error) {
	indices, err := t.Schema.LookupAll(cols)
	if err != nil {
		return nil, err
	}
	return project(t, indices)
}

// RemoveColumns drops the named columns.
func RemoveColumns(t *table.Table, cols ...string) (*table.Table, error) {
	removeSet := make(map[int]bool, len(cols))
	for _, c := range cols {
		idx, err := t.Schema.Lookup(c)
		if err != nil {
			return nil, err
		}
		removeSet[idx] = true
	}

	keep := make([]int, 0, t.Schema.Len()-len(removeSet))
	for i := 0; i < t.Schema.Len(); i++ {
		if !removeSet[i] {
			keep = append(keep, i)
		}
	}
	return project(t, keep)
}

func project(t *table.Table, indices []int) (*table.Table, error) {
	cols := make([]table.Column, len(indices))
	for i, idx := range indices {
		cols[i] = t.Schema.Column(idx)
	}
	schema, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}

	result := table.NewTable(schema)
	result.Rows = make([]table.Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		vals := make([]table.Value, len(indices))
		for i, idx := range indices {
			vals[i] = row.Values[idx]
		}
		result.AddRow(vals)
	}
	return result, nil
}

// Rename is one old to new column name mapping.
type Rename struct {
	Old string
	New string
}

// RenameColumns applies all mappings at once, so {a:b, b:a} swaps two
// columns. Columns keep their position and values.
func RenameColumns(t *table.Table, pairs ...Rename) (*table.Table, error) {
	cols := t.Schema.Columns()
	renamed := make(map[int]bool, len(pairs))
	for _, p := range pairs {
		idx, err := t.Schema.Lookup(p.Old)
		if err != nil {
			return nil, err
		}
		if renamed[idx] {
			return nil, fmt.Errorf("rename: column %q renamed twice", p.Old)
		}
		renamed[idx] = true
		cols[idx].Name = p.New
	}

	schema, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	result := table.NewTable(schema)
	result.Rows = t.Rows[:len(t.Rows):len(t.Rows)]
	return result, nil
}

// AddColumn appends a column computed per row. A column declared any takes
// the kind inferred from the computed values; otherwise every value must fit
// the declared kind.
func AddColumn(t *table.Table, col table.Column, fn RowFunc) (*table.Table, error) {
	if t.Schema.Has(col.Name) {
		return nil, &table.DuplicateColumnError{Column: col.Name}
	}

	computed, kind, err := compute(t, col, fn, "add column")
	if err != nil {
		return nil, err
	}

	cols := append(t.Schema.Columns(), table.Col(col.Name, kind))
	schema, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}

	result := table.NewTable(schema)
	result.Rows = make([]table.Row, 0, len(t.Rows))
	for i, row := range t.Rows {
		vals := make([]table.Value, len(row.Values)+1)
		copy(vals, row.Values)
		vals[len(row.Values)] = computed[i]
		result.AddRow(vals)
	}
	return result, nil
}

// ProcessColumn replaces the values of an existing column. The column keeps
// its position; its kind becomes the declared kind, or the inferred one when
// declared any.
func ProcessColumn(t *table.Table, col table.Column, fn RowFunc) (*table.Table, error) {
	idx, err := t.Schema.Lookup(col.Name)
	if err != nil {
		return nil, err
	}

	computed, kind, err := compute(t, col, fn, "process column")
	if err != nil {
		return nil, err
	}

	cols := t.Schema.Columns()
	cols[idx].Kind = kind
	schema, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}

	result := table.NewTable(schema)
	result.Rows = make([]table.Row, 0, len(t.Rows))
	for i, row := range t.Rows {
		vals := make([]table.Value, len(row.Values))
		copy(vals, row.Values)
		vals[idx] = computed[i]
		result.AddRow(vals)
	}
	return result, nil
}

func compute(t *table.Table, col table.Column, fn RowFunc, op string) ([]table.Value, table.Kind, error) {
	out := make([]table.Value, len(t.Rows))
	var ki table.KindInferrer
	for i := range t.Rows {
		v, err := fn(t.Row(i))
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", i, err)
		}
		if col.Kind != table.KindAny && !col.Kind.Accepts(v.Type) {
			return nil, 0, &table.TypeMismatchError{Op: op, Column: col.Name, Want: col.Kind.String(), Got: v.Type.String()}
		}
		ki.Observe(v)
		out[i] = v
	}
	if col.Kind != table.KindAny {
		return out, col.Kind, nil
	}
	return out, ki.Kind(), nil
}

// Filter keeps the rows for which pred holds, in their original order.
func Filter(t *table.Table, pred Predicate) (*table.Table, error) {
	result := table.NewTable(t.Schema)
	for i, row := range t.Rows {
		ok, err := pred(t.Row(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if ok {
			result.AddRow(row.Values)
		}
	}
	return result, nil
}

// SortKey is one sort column and its direction.
type SortKey struct {
	Column     string
	Descending bool
}

// Asc returns ascending sort keys for the given columns.
func Asc(cols ...string) []SortKey {
	keys := make([]SortKey, len(cols))
	for i, c := range cols {
		keys[i] = SortKey{Column: c}
	}
	return keys
}

// Desc returns descending sort keys for the given columns.
func Desc(cols ...string) []SortKey {
	keys := make([]SortKey, len(cols))
	for i, c := range cols {
		keys[i] = SortKey{Column: c, Descending: true}
	}
	return keys
}

// Sort orders rows by the keys in priority order. The sort is stable and
// nulls sort last in either direction.
func Sort(t *table.Table, keys ...SortKey) (*table.Table, error) {
	indices := make([]int, len(keys))
	for i, k := range keys {
		idx, err := t.Schema.Lookup(k.Column)
		if err != nil {
			return nil, err
		}
		indices[i] = idx
	}

	result := table.NewTable(t.Schema)
	result.Rows = make([]table.Row, len(t.Rows))
	copy(result.Rows, t.Rows)
	sort.SliceStable(result.Rows, func(i, j int) bool {
		for k, idx := range indices {
			a := result.Rows[i].Values[idx]
			b := result.Rows[j].Values[idx]
			cmp := table.Compare(a, b)
			if cmp == 0 {
				continue
			}
			if keys[k].Descending && !a.IsNull() && !b.IsNull() {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return result, nil
}

// Head returns the first n rows.
func Head(t *table.Table, n int) *table.Table {
	n = clamp(n, len(t.Rows))
	result := table.NewTable(t.Schema)
	result.Rows = t.Rows[:n:n]
	return result
}

// Tail returns the last n rows.
func Tail(t *table.Table, n int) *table.Table {
	n = clamp(n, len(t.Rows))
	result := table.NewTable(t.Schema)
	result.Rows = t.Rows[len(t.Rows)-n : len(t.Rows) : len(t.Rows)]
	return result
}

func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}

// Distinct keeps the first row of each distinct combination of the named
// columns, or of whole rows when no columns are given.
func Distinct(t *table.Table, cols ...string) (*table.Table, error) {
	var indices []int
	if len(cols) > 0 {
		var err error
		if indices, err = t.Schema.LookupAll(cols); err != nil {
			return nil, err
		}
	} else {
		indices = make([]int, t.Schema.Len())
		for i := range indices {
			indices[i] = i
		}
	}

	seen := newKeyIndex()
	result := table.NewTable(t.Schema)
	for _, row := range t.Rows {
		if _, added := seen.insert(keyOf(row.Values, indices)); added {
			result.AddRow(row.Values)
		}
	}
	return result, nil
}
