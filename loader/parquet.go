package loader

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"

	"github.com/razeghi71/dqflow/table"
)

// ParquetFile reads a parquet file. Each leaf column becomes a table column
// named by its dotted path; repeated leaves load as lists.
func ParquetFile(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", filename)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot stat %s", filename)
	}
	t, err := ReadParquet(f, st.Size())
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return t, nil
}

// ReadParquet reads parquet data of the given size.
func ReadParquet(r io.ReaderAt, size int64) (*table.Table, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open parquet data")
	}

	schema := pf.Schema()
	paths := schema.Columns()
	names := make([]string, len(paths))
	leaves := make([]parquet.LeafColumn, len(paths))
	for i, p := range paths {
		names[i] = strings.Join(p, ".")
		leaf, ok := schema.Lookup(p...)
		if !ok {
			return nil, errors.Errorf("column %q missing from schema", names[i])
		}
		leaves[i] = leaf
	}

	var rows [][]table.Value
	buf := make([]parquet.Row, 128)
	for _, rg := range pf.RowGroups() {
		rr := rg.Rows()
		for {
			n, err := rr.ReadRows(buf)
			for _, row := range buf[:n] {
				rows = append(rows, parquetRow(row, leaves))
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rr.Close()
				return nil, errors.Wrap(err, "error reading parquet rows")
			}
		}
		if err := rr.Close(); err != nil {
			return nil, errors.Wrap(err, "error closing row group")
		}
	}

	return build(names, rows)
}

func parquetRow(row parquet.Row, leaves []parquet.LeafColumn) []table.Value {
	vals := make([]table.Value, len(leaves))
	for _, v := range row {
		c := v.Column()
		if c < 0 || c >= len(leaves) || v.IsNull() {
			continue
		}
		x := parquetValue(v, leaves[c].Node)
		if leaves[c].MaxRepetitionLevel > 0 {
			if vals[c].Type != table.TypeList {
				vals[c] = table.ListVal()
			}
			vals[c].List = append(vals[c].List, x)
			continue
		}
		vals[c] = x
	}
	return vals
}

func parquetValue(v parquet.Value, node parquet.Node) table.Value {
	switch v.Kind() {
	case parquet.Boolean:
		return table.BoolVal(v.Boolean())
	case parquet.Int32:
		return table.IntVal(int64(v.Int32()))
	case parquet.Int64:
		if unit, ok := timestampUnit(node); ok {
			return table.TimeVal(time.Unix(0, v.Int64()*int64(unit)).UTC())
		}
		return table.IntVal(v.Int64())
	case parquet.Float:
		return table.FloatVal(float64(v.Float()))
	case parquet.Double:
		return table.FloatVal(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return table.StrVal(string(v.ByteArray()))
	default:
		return table.StrVal(v.String())
	}
}

func timestampUnit(node parquet.Node) (time.Duration, bool) {
	lt := node.Type().LogicalType()
	if lt == nil || lt.Timestamp == nil {
		return 0, false
	}
	switch {
	case lt.Timestamp.Unit.Millis != nil:
		return time.Millisecond, true
	case lt.Timestamp.Unit.Micros != nil:
		return time.Microsecond, true
	default:
		return time.Nanosecond, true
	}
}
