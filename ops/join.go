package ops

import (
	"slices"

	"github.com/razeghi71/dqflow/table"
)

// JoinType selects inner or left outer join semantics.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
)

func (j JoinType) String() string {
	if j == LeftJoin {
		return "left"
	}
	return "inner"
}

// Join pairs every left row with every right row whose key compares equal
// under the same rules as a filter's ==: numbers match across int and float,
// and strings from an any-kinded key are parsed to the other side's type.
// Keys whose declared kinds can never compare are a TypeMismatchError.
// Output columns are the left columns followed by the right columns; the
// right key is dropped when both keys share a name. Any other shared name is
// a DuplicateColumnError. Rows come out in left order, matches in right
// order. Null keys never match; a left join pads unmatched left rows with
// nulls.
func Join(left, right *table.Table, leftKey, rightKey string, how JoinType) (*table.Table, error) {
	li, err := left.Schema.Lookup(leftKey)
	if err != nil {
		return nil, err
	}
	ri, err := right.Schema.Lookup(rightKey)
	if err != nil {
		return nil, err
	}
	lk, rk := left.Schema.Column(li).Kind, right.Schema.Column(ri).Kind
	if !table.Comparable(lk, rk) {
		return nil, &table.TypeMismatchError{Op: "join", Column: leftKey, Want: lk.String(), Got: rk.String()}
	}

	// Right columns carried into the output.
	dropRight := leftKey == rightKey
	cols := left.Schema.Columns()
	var rightIdx []int
	for i, c := range right.Schema.Columns() {
		if dropRight && i == ri {
			continue
		}
		if left.Schema.Has(c.Name) {
			return nil, &table.DuplicateColumnError{Column: c.Name}
		}
		cols = append(cols, c)
		rightIdx = append(rightIdx, i)
	}
	schema, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}

	matches := matchRows(
		joinSide{t: left, col: li, loose: lk == table.KindAny},
		joinSide{t: right, col: ri, loose: rk == table.KindAny},
	)

	result := table.NewTable(schema)
	width := left.Schema.Len() + len(rightIdx)
	for l, row := range left.Rows {
		if len(matches[l]) == 0 {
			if how != LeftJoin {
				continue
			}
			vals := make([]table.Value, width)
			copy(vals, row.Values)
			for i := left.Schema.Len(); i < width; i++ {
				vals[i] = table.Null()
			}
			result.AddRow(vals)
			continue
		}
		for _, r := range matches[l] {
			vals := make([]table.Value, 0, width)
			vals = append(vals, row.Values...)
			for _, idx := range rightIdx {
				vals = append(vals, right.Rows[r].Values[idx])
			}
			result.AddRow(vals)
		}
	}
	return result, nil
}

// joinSide is one table of a join and its key column. Strings of a loose
// (any-kinded) key coerce to numbers and bools as well as times.
type joinSide struct {
	t     *table.Table
	col   int
	loose bool
}

func (s joinSide) key(row int) table.Value {
	return s.t.Rows[row].Values[s.col]
}

// hashes returns every bucket a key may match in: its own and one per
// value its string form coerces to.
func (s joinSide) hashes(v table.Value) []uint64 {
	hs := []uint64{hashKey([]table.Value{v})}
	if v.Type == table.TypeString {
		for _, c := range table.Coercions(v.Str, s.loose) {
			hs = append(hs, hashKey([]table.Value{c}))
		}
	}
	return hs
}

func keysMatch(l, r table.Value, lLoose, rLoose bool) bool {
	if l.IsNull() || r.IsNull() {
		return false
	}
	l, r = table.Coerce(l, r, lLoose, rLoose)
	return table.Equal(l, r)
}

// matchRows returns, for each left row, the matching right row ordinals in
// right order. The hash index is built on the smaller side; candidates from
// the looked-up buckets are confirmed with keysMatch.
func matchRows(left, right joinSide) [][]int {
	matches := make([][]int, len(left.t.Rows))

	build, scan := right, left
	buildLeft := len(left.t.Rows) < len(right.t.Rows)
	if buildLeft {
		build, scan = left, right
	}

	buckets := make(map[uint64][]int)
	for i := range build.t.Rows {
		v := build.key(i)
		if v.IsNull() {
			continue
		}
		for _, h := range build.hashes(v) {
			buckets[h] = append(buckets[h], i)
		}
	}

	var candidates []int
	for p := range scan.t.Rows {
		v := scan.key(p)
		if v.IsNull() {
			continue
		}
		candidates = candidates[:0]
		for _, h := range scan.hashes(v) {
			candidates = append(candidates, buckets[h]...)
		}
		slices.Sort(candidates)
		candidates = slices.Compact(candidates)
		for _, b := range candidates {
			if buildLeft {
				if keysMatch(build.key(b), v, left.loose, right.loose) {
					matches[b] = append(matches[b], p)
				}
			} else if keysMatch(v, build.key(b), left.loose, right.loose) {
				matches[p] = append(matches[p], b)
			}
		}
	}
	return matches
}
