package exporter

import (
	"io"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"

	"github.com/razeghi71/dqflow/table"
)

// ParquetFile writes the table as a parquet file.
func ParquetFile(filename string, t *table.Table) error {
	return create(filename, func(w io.Writer) error { return WriteParquet(w, t) })
}

// WriteParquet writes the table as parquet with one optional leaf per
// column. Leaves are ordered by name, as parquet groups are. Any and list
// columns are stored as text.
func WriteParquet(w io.Writer, t *table.Table) error {
	cols := t.Schema.Columns()
	group := make(parquet.Group, len(cols))
	for _, c := range cols {
		group[c.Name] = parquet.Optional(parquetNode(c.Kind))
	}
	schema := parquet.NewSchema("table", group)

	// leaf ordinal -> table column ordinal
	leaves := schema.Columns()
	colOf := make([]int, len(leaves))
	for i, path := range leaves {
		colOf[i] = t.Schema.Index(path[0])
	}

	pw := parquet.NewWriter(w, schema)
	rows := make([]parquet.Row, len(t.Rows))
	for r, row := range t.Rows {
		prow := make(parquet.Row, len(leaves))
		for leaf, ci := range colOf {
			prow[leaf] = parquetValueOf(cols[ci].Kind, row.Values[ci], leaf)
		}
		rows[r] = prow
	}
	if _, err := pw.WriteRows(rows); err != nil {
		return errors.Wrap(err, "cannot write parquet rows")
	}
	return pw.Close()
}

func parquetNode(k table.Kind) parquet.Node {
	switch k {
	case table.KindInt:
		return parquet.Int(64)
	case table.KindFloat:
		return parquet.Leaf(parquet.DoubleType)
	case table.KindBool:
		return parquet.Leaf(parquet.BooleanType)
	case table.KindTime:
		return parquet.Timestamp(parquet.Nanosecond)
	default:
		return parquet.String()
	}
}

func parquetValueOf(k table.Kind, v table.Value, leaf int) parquet.Value {
	if v.IsNull() {
		return parquet.NullValue().Level(0, 0, leaf)
	}
	var pv parquet.Value
	switch k {
	case table.KindInt:
		pv = parquet.Int64Value(v.Int)
	case table.KindFloat:
		f, _ := v.AsFloat()
		pv = parquet.DoubleValue(f)
	case table.KindBool:
		pv = parquet.BooleanValue(v.Bool)
	case table.KindTime:
		pv = parquet.Int64Value(v.Time.UnixNano())
	default:
		pv = parquet.ByteArrayValue([]byte(v.AsString()))
	}
	return pv.Level(0, 1, leaf)
}
