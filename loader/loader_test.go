package loader

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/razeghi71/dqflow/table"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	input := "name, age ,city,score\nAlice,30,NY,1.5\nBob,25,,2\nCharlie,,LA,true\n"
	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, []string{"name", "age", "city", "score"}, tbl.Columns())
	require.Equal(t, 3, tbl.Len())
	require.Equal(t, table.KindString, tbl.Schema.Column(0).Kind)
	require.Equal(t, table.KindInt, tbl.Schema.Column(1).Kind)
	require.Equal(t, table.KindAny, tbl.Schema.Column(3).Kind)

	require.Equal(t, table.IntVal(30), tbl.Get(0, "age"))
	require.True(t, tbl.Get(1, "city").IsNull())
	require.True(t, tbl.Get(2, "age").IsNull())
	require.Equal(t, table.BoolVal(true), tbl.Get(2, "score"))
}

func TestReadCSVShortRecordsPadWithNull(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("a,b,c\n1,2\n"))
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	require.True(t, tbl.Get(0, "c").IsNull())
}

func TestReadCSVEmpty(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, 0, tbl.Len())
}

func TestParseValue(t *testing.T) {
	require.Equal(t, table.IntVal(-7), parseValue("-7"))
	require.Equal(t, table.FloatVal(2.5), parseValue("2.5"))
	require.Equal(t, table.BoolVal(false), parseValue("FALSE"))
	require.Equal(t, table.StrVal("hello"), parseValue("hello"))
	require.True(t, parseValue("").IsNull())
	require.True(t, parseValue("null").IsNull())
	require.Equal(t, table.TypeTime, parseValue("2024-03-15").Type)
}

func TestLoadByExtension(t *testing.T) {
	path := writeFile(t, "users.csv", "name,age\nAlice,30\n")
	tbl, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	_, err = Load(writeFile(t, "users.txt", "x"))
	require.Error(t, err)
}

func TestReadJSONRootElement(t *testing.T) {
	doc := `{"meta": {"count": 2}, "Customers": [
		{"Id": 1, "Name": "Alfreds", "Tags": ["a", "b"]},
		{"Id": 2, "Name": "Ana", "Extra": {"x": 1}}
	]}`
	tbl, err := ReadJSON([]byte(doc), "Customers")
	require.NoError(t, err)

	require.Equal(t, []string{"Id", "Name", "Tags", "Extra"}, tbl.Columns())
	require.Equal(t, table.IntVal(2), tbl.Get(1, "Id"))
	require.Equal(t, table.TypeList, tbl.Get(0, "Tags").Type)
	require.Len(t, tbl.Get(0, "Tags").List, 2)
	require.True(t, tbl.Get(1, "Tags").IsNull())
	require.Equal(t, table.StrVal(`{"x":1}`), tbl.Get(1, "Extra"))
}

func TestReadJSONNestedRoot(t *testing.T) {
	tbl, err := ReadJSON([]byte(`{"data": {"items": {"a": 1.5}}}`), "data.items")
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	require.Equal(t, table.FloatVal(1.5), tbl.Get(0, "a"))
}

func TestReadJSONErrors(t *testing.T) {
	_, err := ReadJSON([]byte(`{"a": []}`), "missing")
	require.Error(t, err)

	_, err = ReadJSON([]byte(`[1, 2]`), "")
	require.Error(t, err)

	_, err = ReadJSON([]byte(`{"a":`), "")
	require.Error(t, err)
}

func TestReadJSONLines(t *testing.T) {
	input := "{\"name\": \"Alice\", \"age\": 30}\n\n{\"name\": \"Bob\", \"city\": \"LA\"}\n"
	tbl, err := ReadJSONLines(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []string{"name", "age", "city"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())
	require.True(t, tbl.Get(0, "city").IsNull())
	require.True(t, tbl.Get(1, "age").IsNull())

	_, err = ReadJSONLines(strings.NewReader("{\"a\": 1}\n[1]\n"))
	require.Error(t, err)
}

func TestSQL(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `CREATE TABLE orders (id INTEGER, product TEXT, freight REAL, note TEXT)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO orders VALUES (1, 'Chai', 32.5, NULL), (2, 'Chang', 11.0, 'rush')`)
	require.NoError(t, err)

	tbl, err := SQL(ctx, db, `SELECT id, product, freight, note FROM orders WHERE id >= ? ORDER BY id`, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"id", "product", "freight", "note"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())
	require.Equal(t, table.IntVal(1), tbl.Get(0, "id"))
	require.Equal(t, table.StrVal("Chang"), tbl.Get(1, "product"))
	require.Equal(t, table.FloatVal(32.5), tbl.Get(0, "freight"))
	require.True(t, tbl.Get(0, "note").IsNull())

	_, err = SQL(ctx, db, `SELECT * FROM missing`)
	require.Error(t, err)
}

func TestSQLValue(t *testing.T) {
	require.Equal(t, table.IntVal(12), sqlValue([]byte("12")))
	require.Equal(t, table.StrVal("abc"), sqlValue([]byte("abc")))
	require.True(t, sqlValue(nil).IsNull())
	require.Equal(t, table.IntVal(3), sqlValue(int32(3)))
}
