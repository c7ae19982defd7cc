package ops

import (
	"slices"

	"github.com/razeghi71/dqflow/table"
)

// Unfold replaces each row holding a list in col with one row per element,
// copying the other values. An empty list drops the row; null and scalar
// cells pass through unchanged. The column kind is inferred from the
// resulting cells.
func Unfold(t *table.Table, col string) (*table.Table, error) {
	ci, err := t.Schema.Lookup(col)
	if err != nil {
		return nil, err
	}

	var rows []table.Row
	var ki table.KindInferrer
	for _, row := range t.Rows {
		cell := row.Values[ci]
		if cell.Type != table.TypeList {
			ki.Observe(cell)
			rows = append(rows, table.Row{Values: slices.Clone(row.Values)})
			continue
		}
		for _, elem := range cell.List {
			vals := make([]table.Value, len(row.Values))
			copy(vals, row.Values)
			vals[ci] = elem
			ki.Observe(elem)
			rows = append(rows, table.Row{Values: vals})
		}
	}

	cols := t.Schema.Columns()
	cols[ci].Kind = ki.Kind()
	schema, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	result := table.NewTable(schema)
	result.Rows = rows
	return result, nil
}
