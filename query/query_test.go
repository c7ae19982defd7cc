package query

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/razeghi71/dqflow/flow"
	"github.com/razeghi71/dqflow/table"
)

func usersTable() *table.Table {
	t := table.NewTable(table.MustSchema(
		table.Col("name", table.KindString),
		table.Col("age", table.KindInt),
		table.Col("city", table.KindString),
	))
	t.AddRow([]table.Value{table.StrVal("Alice"), table.IntVal(30), table.StrVal("NY")})
	t.AddRow([]table.Value{table.StrVal("Bob"), table.IntVal(25), table.StrVal("LA")})
	t.AddRow([]table.Value{table.StrVal("Charlie"), table.IntVal(35), table.StrVal("NY")})
	t.AddRow([]table.Value{table.StrVal("Diana"), table.IntVal(28), table.StrVal("SF")})
	t.AddRow([]table.Value{table.StrVal("Eve"), table.IntVal(22), table.StrVal("LA")})
	t.AddRow([]table.Value{table.StrVal("Frank"), table.IntVal(40), table.StrVal("NY")})
	return t
}

func citiesTable() *table.Table {
	t := table.NewTable(table.MustSchema(
		table.Col("city", table.KindString),
		table.Col("state", table.KindString),
	))
	t.AddRow([]table.Value{table.StrVal("NY"), table.StrVal("New York")})
	t.AddRow([]table.Value{table.StrVal("LA"), table.StrVal("California")})
	return t
}

func opener(files map[string]*table.Table) Opener {
	return func(name string) *flow.Flow {
		return flow.FromTable(files[name])
	}
}

func runQueryWith(t *testing.T, opts Options, input *table.Table, query string) (*table.Table, error) {
	t.Helper()
	if opts.Open == nil {
		opts.Open = opener(map[string]*table.Table{"test.csv": input, "cities.csv": citiesTable()})
	}
	f, err := Compile("test.csv | "+query, opts)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return f.ToTable().Execute()
}

func runQuery(t *testing.T, input *table.Table, query string) *table.Table {
	t.Helper()
	result, err := runQueryWith(t, Options{}, input, query)
	if err != nil {
		t.Fatalf("exec error: %v", err)
	}
	return result
}

func TestHead(t *testing.T) {
	result := runQuery(t, usersTable(), "head 3")
	if len(result.Rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(result.Rows))
	}
	if result.Rows[0].Values[0].Str != "Alice" {
		t.Errorf("expected first row to be Alice")
	}
}

func TestTail(t *testing.T) {
	result := runQuery(t, usersTable(), "tail 2")
	if result.Rows[0].Values[0].Str != "Eve" {
		t.Errorf("expected first row to be Eve, got %s", result.Rows[0].Values[0].Str)
	}
}

func TestSortAscDesc(t *testing.T) {
	result := runQuery(t, usersTable(), "sorta age")
	if result.Rows[0].Values[1].Int != 22 || result.Rows[5].Values[1].Int != 40 {
		t.Errorf("unexpected ascending order: %v", result)
	}
	result = runQuery(t, usersTable(), "sortd age")
	if result.Rows[0].Values[1].Int != 40 {
		t.Errorf("expected first age to be 40, got %d", result.Rows[0].Values[1].Int)
	}
}

func TestSelect(t *testing.T) {
	result := runQuery(t, usersTable(), "select name city")
	cols := result.Columns()
	if len(cols) != 2 || cols[0] != "name" || cols[1] != "city" {
		t.Errorf("unexpected columns: %v", cols)
	}
}

func TestFilterAnd(t *testing.T) {
	result := runQuery(t, usersTable(), `filter { age > 25 and city == "NY" }`)
	if len(result.Rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(result.Rows))
	}
}

func TestCount(t *testing.T) {
	result := runQuery(t, usersTable(), "count")
	if len(result.Rows) != 1 || result.Schema.Len() != 1 {
		t.Fatal("count should return 1x1 table")
	}
	if result.Rows[0].Values[0].Int != 6 {
		t.Errorf("expected 6, got %d", result.Rows[0].Values[0].Int)
	}
}

func TestDistinct(t *testing.T) {
	result := runQuery(t, usersTable(), "distinct city")
	if len(result.Rows) != 3 {
		t.Errorf("expected 3 distinct cities, got %d", len(result.Rows))
	}
}

func TestTransform(t *testing.T) {
	result := runQuery(t, usersTable(), "transform doubled = age * 2, age = age + 1")
	cols := result.Columns()
	if len(cols) != 4 || cols[3] != "doubled" {
		t.Fatalf("expected doubled as 4th column, got %v", cols)
	}
	// Alice: age=30, doubled=60, then age replaced by 31
	if result.Rows[0].Values[3].Int != 60 || result.Rows[0].Values[1].Int != 31 {
		t.Errorf("unexpected Alice row: %v", result.Rows[0].Values)
	}
}

func TestUpdateRequiresColumn(t *testing.T) {
	result := runQuery(t, usersTable(), "update name = upper(name)")
	if result.Rows[1].Values[0].Str != "BOB" {
		t.Errorf("expected BOB, got %s", result.Rows[1].Values[0].Str)
	}

	_, err := runQueryWith(t, Options{}, usersTable(), "update missing = 1")
	var uce *table.UnknownColumnError
	if !errors.As(err, &uce) {
		t.Errorf("expected UnknownColumnError, got %v", err)
	}
}

func TestAggregate(t *testing.T) {
	result := runQuery(t, usersTable(), "aggregate city { total = sum(age), n = count(), oldest = max(age) }")
	if got := result.Columns(); len(got) != 4 {
		t.Fatalf("expected 4 columns, got %v", got)
	}
	// first-seen group order: NY, LA, SF
	ny := result.Rows[0].Values
	if ny[0].Str != "NY" || ny[1].Int != 105 || ny[2].Int != 3 || ny[3].Int != 40 {
		t.Errorf("unexpected NY group: %v", ny)
	}
	if len(result.Rows) != 3 || result.Rows[2].Values[0].Str != "SF" {
		t.Errorf("unexpected groups: %v", result)
	}
}

func TestAggregateAverageOverText(t *testing.T) {
	_, err := runQueryWith(t, Options{}, usersTable(), "aggregate city { a = avg(name) }")
	var tme *table.TypeMismatchError
	if !errors.As(err, &tme) {
		t.Errorf("expected TypeMismatchError, got %v", err)
	}
}

func TestTop(t *testing.T) {
	result := runQuery(t, usersTable(), "top 1 age by city")
	if len(result.Rows) != 3 {
		t.Fatalf("expected one row per city, got %d", len(result.Rows))
	}
	if result.Rows[0].Values[0].Str != "Frank" || result.Rows[1].Values[0].Str != "Bob" {
		t.Errorf("unexpected top rows: %v", result)
	}
}

func TestJoin(t *testing.T) {
	result := runQuery(t, usersTable(), "join cities.csv on city | select name state")
	if len(result.Rows) != 5 {
		t.Fatalf("expected 5 joined rows, got %d", len(result.Rows))
	}
	if result.Rows[1].Values[1].Str != "California" {
		t.Errorf("expected Bob in California, got %v", result.Rows[1].Values)
	}

	result = runQuery(t, usersTable(), "leftjoin cities.csv on city city")
	if len(result.Rows) != 6 || !result.Get(3, "state").IsNull() {
		t.Errorf("expected Diana with null state, got %v", result)
	}
}

func TestRenameRemove(t *testing.T) {
	result := runQuery(t, usersTable(), "rename name first_name | remove city")
	cols := result.Columns()
	if len(cols) != 2 || cols[0] != "first_name" {
		t.Errorf("unexpected columns: %v", cols)
	}
}

func TestUnfold(t *testing.T) {
	input := table.NewTable(table.MustSchema(table.Col("id", table.KindInt), table.Col("tags", table.KindList)))
	input.AddRow([]table.Value{table.IntVal(1), table.ListVal(table.StrVal("a"), table.StrVal("b"))})
	input.AddRow([]table.Value{table.IntVal(2), table.ListVal()})
	result := runQuery(t, input, "unfold tags")
	if len(result.Rows) != 2 || result.Rows[1].Values[1].Str != "b" {
		t.Errorf("unexpected unfold result: %v", result)
	}
}

func TestDebugLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	result, err := runQueryWith(t, Options{Logger: zap.New(core)}, usersTable(), "filter { age > 30 } | debug | head 1")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(result.Rows))
	}
	entries := logs.FilterMessage("debug").All()
	if len(entries) != 1 || entries[0].ContextMap()["rows"] != int64(2) {
		t.Errorf("expected one debug entry with 2 rows, got %v", entries)
	}
}
