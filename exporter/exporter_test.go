package exporter_test

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/razeghi71/dqflow/exporter"
	"github.com/razeghi71/dqflow/loader"
	"github.com/razeghi71/dqflow/table"
)

func productsTable() *table.Table {
	schema := table.MustSchema(
		table.Col("ProductName", table.KindString),
		table.Col("UnitsInStock", table.KindInt),
		table.Col("UnitPrice", table.KindFloat),
		table.Col("Discontinued", table.KindBool),
	)
	t := table.NewTable(schema)
	t.AddRow([]table.Value{table.StrVal("Chai"), table.IntVal(39), table.FloatVal(18), table.BoolVal(false)})
	t.AddRow([]table.Value{table.StrVal("Chang"), table.IntVal(17), table.FloatVal(19.5), table.BoolVal(true)})
	t.AddRow([]table.Value{table.StrVal("Aniseed Syrup"), table.Null(), table.FloatVal(10.25), table.BoolVal(false)})
	return t
}

func TestJSONKeepsColumnOrder(t *testing.T) {
	out, err := exporter.JSON(productsTable())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(out),
		`[{"ProductName":"Chai","UnitsInStock":39,"UnitPrice":18,"Discontinued":false}`))
	require.Contains(t, string(out), `"UnitsInStock":null`)
}

func TestJSONSpecialValues(t *testing.T) {
	schema := table.MustSchema(table.AnyCols("v")...)
	tbl := table.NewTable(schema)
	tbl.AddRow([]table.Value{table.FloatVal(math.NaN())})
	tbl.AddRow([]table.Value{table.ListVal(table.IntVal(1), table.StrVal("x"))})
	tbl.AddRow([]table.Value{table.TimeVal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))})

	out, err := exporter.JSON(tbl)
	require.NoError(t, err)
	require.Equal(t, `[{"v":null},{"v":[1,"x"]},{"v":"2024-03-15T00:00:00Z"}]`, string(out))
}

func TestEmptyTableJSON(t *testing.T) {
	out, err := exporter.JSON(table.NewTable(nil))
	require.NoError(t, err)
	require.Equal(t, "[]", string(out))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, exporter.WriteCSV(&buf, productsTable()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, "ProductName,UnitsInStock,UnitPrice,Discontinued", lines[0])
	require.Equal(t, "Chai,39,18,false", lines[1])
	require.Equal(t, "Aniseed Syrup,,10.25,false", lines[3])
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := productsTable()

	for _, ext := range []string{".csv", ".json", ".xlsx", ".avro", ".parquet"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "products"+ext)
			require.NoError(t, exporter.Save(path, want))

			got, err := loader.Load(path)
			require.NoError(t, err)
			require.Equal(t, want.Len(), got.Len())

			for _, col := range want.Columns() {
				require.True(t, got.Schema.Has(col), "missing column %s", col)
				for i := 0; i < want.Len(); i++ {
					w, g := want.Get(i, col), got.Get(i, col)
					require.True(t, table.Equal(w, g), "%s row %d: want %v, got %v", col, i, w, g)
				}
			}
		})
	}
}

func TestSaveUnsupported(t *testing.T) {
	err := exporter.Save(filepath.Join(t.TempDir(), "out.txt"), productsTable())
	require.Error(t, err)
}

func TestExcelSheetName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.xlsx")
	require.NoError(t, exporter.ExcelFile(path, "Products", productsTable()))

	got, err := loader.ExcelFile(path, "Products")
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())

	_, err = loader.ExcelFile(path, "Sheet1")
	require.Error(t, err)
}

func TestAvroSanitizesNames(t *testing.T) {
	schema := table.MustSchema(
		table.Col("unit price", table.KindFloat),
		table.Col("1st", table.KindString),
		table.Col("tags", table.KindList),
	)
	tbl := table.NewTable(schema)
	tbl.AddRow([]table.Value{table.FloatVal(1.5), table.StrVal("a"), table.ListVal(table.StrVal("x"), table.StrVal("y"))})

	var buf bytes.Buffer
	require.NoError(t, exporter.WriteAvro(&buf, tbl))

	got, err := loader.ReadAvro(&buf)
	require.NoError(t, err)
	require.Equal(t, []string{"unit_price", "_1st", "tags"}, got.Columns())
	require.Equal(t, table.FloatVal(1.5), got.Get(0, "unit_price"))
	require.Len(t, got.Get(0, "tags").List, 2)
}

func TestParquetTimeColumn(t *testing.T) {
	when := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	schema := table.MustSchema(table.Col("at", table.KindTime), table.Col("n", table.KindInt))
	tbl := table.NewTable(schema)
	tbl.AddRow([]table.Value{table.TimeVal(when), table.IntVal(1)})
	tbl.AddRow([]table.Value{table.Null(), table.IntVal(2)})

	path := filepath.Join(t.TempDir(), "events.parquet")
	require.NoError(t, exporter.ParquetFile(path, tbl))

	st, err := os.Stat(path)
	require.NoError(t, err)
	require.Positive(t, st.Size())

	got, err := loader.ParquetFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	require.True(t, got.Get(0, "at").Time.Equal(when))
	require.True(t, got.Get(1, "at").IsNull())
}
