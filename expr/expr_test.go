package expr

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/razeghi71/dqflow/ast"
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

func evalOn(t *testing.T, tbl *table.Table, row int, src string) table.Value {
	t.Helper()
	p, err := CompileString(src, tbl.Schema)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	v, err := p.Eval(tbl.Rows[row].Values)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v
}

func evalErr(t *testing.T, tbl *table.Table, src string) error {
	t.Helper()
	p, err := CompileString(src, tbl.Schema)
	if err != nil {
		return err
	}
	for _, r := range tbl.Rows {
		if _, err := p.Eval(r.Values); err != nil {
			return err
		}
	}
	return nil
}

func countMatches(t *testing.T, tbl *table.Table, src string) int {
	t.Helper()
	p, err := CompileString(src, tbl.Schema)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	n := 0
	for _, r := range tbl.Rows {
		ok, err := p.Test(r.Values)
		if err != nil {
			t.Fatalf("test %q: %v", src, err)
		}
		if ok {
			n++
		}
	}
	return n
}

func TestFilterPredicate(t *testing.T) {
	if n := countMatches(t, usersTable(), "age > 30"); n != 2 {
		t.Errorf("expected 2 rows (Charlie, Frank), got %d", n)
	}
}

func TestFilterAnd(t *testing.T) {
	if n := countMatches(t, usersTable(), `age > 25 and city == "NY"`); n != 3 {
		t.Errorf("expected 3 rows, got %d", n)
	}
}

func TestCriteriaSyntax(t *testing.T) {
	if n := countMatches(t, usersTable(), "[age] >= 28 && [city] <> 'LA'"); n != 4 {
		t.Errorf("expected 4 rows, got %d", n)
	}
	if n := countMatches(t, usersTable(), "[city] = 'SF' || [name] = 'Eve'"); n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}
}

func TestUnknownColumnAtCompile(t *testing.T) {
	_, err := CompileString("[Missing] > 1", usersTable().Schema)
	var unk *table.UnknownColumnError
	if !errors.As(err, &unk) {
		t.Fatalf("expected UnknownColumnError, got %v", err)
	}
	if unk.Column != "Missing" {
		t.Errorf("expected column Missing, got %q", unk.Column)
	}
}

func TestPrecedence(t *testing.T) {
	tbl := table.NewTable(table.MustSchema(table.Col("x", table.KindInt)))
	tbl.AddRow([]table.Value{table.IntVal(5)})

	// x + 3 * 2 should be 5 + 6 = 11 (not 16)
	e := &ast.BinaryExpr{
		Op:   "+",
		Left: &ast.ColumnExpr{Name: "x"},
		Right: &ast.BinaryExpr{
			Op:    "*",
			Left:  &ast.LiteralExpr{Kind: "int", Int: 3},
			Right: &ast.LiteralExpr{Kind: "int", Int: 2},
		},
	}
	p, err := Compile(e, tbl.Schema)
	if err != nil {
		t.Fatal(err)
	}
	val, err := p.Eval(tbl.Rows[0].Values)
	if err != nil {
		t.Fatal(err)
	}
	if val.Int != 11 {
		t.Errorf("expected 11, got %d", val.Int)
	}
}

func TestStringConcatenation(t *testing.T) {
	tbl := table.NewTable(table.MustSchema(
		table.Col("ProductName", table.KindString),
		table.Col("RegionId", table.KindInt),
	))
	tbl.AddRow([]table.Value{table.StrVal("Chai"), table.IntVal(3)})

	v := evalOn(t, tbl, 0, "[ProductName] + '_' + [RegionId]")
	if v.Str != "Chai_3" {
		t.Errorf("expected Chai_3, got %q", v.AsString())
	}
}

func TestNullArithmetic(t *testing.T) {
	tbl := table.NewTable(table.MustSchema(table.AnyCols("a", "b")...))
	tbl.AddRow([]table.Value{table.IntVal(10), table.Null()})

	if v := evalOn(t, tbl, 0, "a * b"); !v.IsNull() {
		t.Errorf("expected null from 10 * null, got %v", v.AsString())
	}
}

func TestDivisionByZero(t *testing.T) {
	tbl := table.NewTable(table.MustSchema(table.Col("a", table.KindInt)))
	tbl.AddRow([]table.Value{table.IntVal(10)})
	if v := evalOn(t, tbl, 0, "a / 0"); !v.IsNull() {
		t.Errorf("expected null, got %v", v.AsString())
	}
	if v := evalOn(t, tbl, 0, "a / 4"); v.Type != table.TypeFloat || v.Float != 2.5 {
		t.Errorf("expected 2.5, got %v", v.AsString())
	}
}

func TestIntArithmeticIsExact(t *testing.T) {
	tbl := table.NewTable(table.MustSchema(
		table.Col("big", table.KindInt),
		table.Col("max", table.KindInt),
		table.Col("min", table.KindInt),
	))
	tbl.AddRow([]table.Value{table.IntVal(9007199254740993), table.IntVal(math.MaxInt64), table.IntVal(math.MinInt64)})

	tests := []struct {
		src  string
		want int64
	}{
		{"big + 0", 9007199254740993},
		{"big * 1", 9007199254740993},
		{"max - 1", math.MaxInt64 - 1},
		{"min + 1", math.MinInt64 + 1},
		{"big / 3", 3002399751580331},
	}
	for _, tc := range tests {
		v := evalOn(t, tbl, 0, tc.src)
		if v.Type != table.TypeInt || v.Int != tc.want {
			t.Errorf("%s = %s (%s), want %d", tc.src, v.AsString(), v.Type, tc.want)
		}
	}
}

func TestIntOverflowBecomesFloat(t *testing.T) {
	tbl := table.NewTable(table.MustSchema(
		table.Col("max", table.KindInt),
		table.Col("min", table.KindInt),
	))
	tbl.AddRow([]table.Value{table.IntVal(math.MaxInt64), table.IntVal(math.MinInt64)})

	tests := map[string]float64{
		"max + 1":  float64(math.MaxInt64) + 1,
		"min - 1":  float64(math.MinInt64) - 1,
		"max * 2":  float64(math.MaxInt64) * 2,
		"min / -1": -float64(math.MinInt64),
		"-min":     -float64(math.MinInt64),
	}
	for src, want := range tests {
		v := evalOn(t, tbl, 0, src)
		if v.Type != table.TypeFloat || v.Float != want {
			t.Errorf("%s = %s (%s), want float %g", src, v.AsString(), v.Type, want)
		}
	}
}

func TestLooseColumnCoercion(t *testing.T) {
	tbl := table.NewTable(table.MustSchema(table.AnyCols("amount")...))
	tbl.AddRow([]table.Value{table.StrVal("1500")})
	tbl.AddRow([]table.Value{table.StrVal("99.5")})

	if n := countMatches(t, tbl, "amount > 100"); n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
}

func TestTimeComparison(t *testing.T) {
	tbl := table.NewTable(table.MustSchema(table.Col("at", table.KindTime)))
	tbl.AddRow([]table.Value{table.TimeVal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))})
	tbl.AddRow([]table.Value{table.TimeVal(time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC))})

	if n := countMatches(t, tbl, "at >= '2024-01-01'"); n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
}

func TestCoalesce(t *testing.T) {
	tbl := table.NewTable(table.MustSchema(table.AnyCols("a", "b")...))
	tbl.AddRow([]table.Value{table.Null(), table.IntVal(42)})

	if v := evalOn(t, tbl, 0, "coalesce(a, b)"); v.Int != 42 {
		t.Errorf("expected 42, got %v", v.AsString())
	}
}

func TestIsNull(t *testing.T) {
	tbl := table.NewTable(table.MustSchema(table.AnyCols("a")...))
	tbl.AddRow([]table.Value{table.Null()})
	tbl.AddRow([]table.Value{table.IntVal(1)})

	if n := countMatches(t, tbl, "a is null"); n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
	if n := countMatches(t, tbl, "a is not null"); n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
}

func TestNullPredicateIsFalse(t *testing.T) {
	tbl := table.NewTable(table.MustSchema(table.AnyCols("a")...))
	tbl.AddRow([]table.Value{table.Null()})
	if n := countMatches(t, tbl, "a > 1"); n != 0 {
		t.Errorf("expected null comparison to drop row, got %d", n)
	}
}

func TestIfFunction(t *testing.T) {
	tbl := usersTable()
	// Alice(30) -> young, Charlie(35) -> old
	if v := evalOn(t, tbl, 0, `if(age > 30, "old", "young")`); v.Str != "young" {
		t.Errorf("expected 'young' for Alice, got %q", v.Str)
	}
	if v := evalOn(t, tbl, 2, `iif(age > 30, "old", "young")`); v.Str != "old" {
		t.Errorf("expected 'old' for Charlie, got %q", v.Str)
	}
}

func TestStringFunctions(t *testing.T) {
	tbl := usersTable()
	if v := evalOn(t, tbl, 0, "upper(city)"); v.Str != "NY" {
		t.Errorf("expected 'NY', got %q", v.Str)
	}
	if v := evalOn(t, tbl, 0, "lower(name)"); v.Str != "alice" {
		t.Errorf("expected 'alice', got %q", v.Str)
	}
	if v := evalOn(t, tbl, 2, "substr(name, 0, 4)"); v.Str != "Char" {
		t.Errorf("expected 'Char', got %q", v.Str)
	}
	if v := evalOn(t, tbl, 2, "startswith(name, 'Ch') and contains(name, 'rl')"); !v.Bool {
		t.Errorf("expected true, got %v", v.AsString())
	}
	if v := evalOn(t, tbl, 0, "upper(age)"); v.Str != "30" {
		t.Errorf("expected '30', got %q", v.Str)
	}
}

func TestLenOfList(t *testing.T) {
	tbl := table.NewTable(table.MustSchema(table.Col("tags", table.KindList)))
	tbl.AddRow([]table.Value{table.ListVal(table.StrVal("a"), table.StrVal("b"))})
	if v := evalOn(t, tbl, 0, "len(tags)"); v.Int != 2 {
		t.Errorf("expected 2, got %v", v.AsString())
	}
}

func salesTable() *table.Table {
	t := table.NewTable(table.MustSchema(
		table.Col("date", table.KindString),
		table.Col("quantity", table.KindInt),
		table.Col("at", table.KindTime),
	))
	at := time.Date(2023, 7, 4, 12, 0, 0, 0, time.UTC)
	t.AddRow([]table.Value{table.StrVal("2024-01-15"), table.IntVal(10), table.TimeVal(at)})
	t.AddRow([]table.Value{table.StrVal("2024-02-20"), table.IntVal(5), table.Null()})
	return t
}

func TestDatePart(t *testing.T) {
	tbl := salesTable()
	if v := evalOn(t, tbl, 0, "year(date)"); v.Int != 2024 {
		t.Errorf("expected year 2024, got %d", v.Int)
	}
	if v := evalOn(t, tbl, 0, "month(date)"); v.Int != 1 {
		t.Errorf("expected month 1, got %d", v.Int)
	}
	if v := evalOn(t, tbl, 0, "day(date)"); v.Int != 15 {
		t.Errorf("expected day 15, got %d", v.Int)
	}
	if v := evalOn(t, tbl, 0, "month(at)"); v.Int != 7 {
		t.Errorf("expected month 7 from time column, got %d", v.Int)
	}
	if v := evalOn(t, tbl, 1, "year(at)"); !v.IsNull() {
		t.Errorf("expected null for year(null), got %v", v.AsString())
	}
}

func TestDatePartErrors(t *testing.T) {
	if err := evalErr(t, salesTable(), "year(quantity)"); err == nil {
		t.Error("expected error for year() on int column")
	}
	if err := evalErr(t, salesTable(), "year(year(date))"); err == nil {
		t.Error("expected error for year() on int result of year()")
	}
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		src    string
		column string
	}{
		{"name * 2", "name"},
		{"age - name", "age"},
		{"age > name", "age"},
		{"age and city", ""},
	}
	for _, tt := range tests {
		err := evalErr(t, usersTable(), tt.src)
		var tm *table.TypeMismatchError
		if !errors.As(err, &tm) {
			t.Errorf("%s: expected TypeMismatchError, got %v", tt.src, err)
			continue
		}
		if tm.Column != tt.column {
			t.Errorf("%s: expected column %q, got %q", tt.src, tt.column, tm.Column)
		}
	}
}

func TestPredicateMustBeBool(t *testing.T) {
	p, err := CompileString("age + 1", usersTable().Schema)
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Test(usersTable().Rows[0].Values)
	var tm *table.TypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
}

func TestAggregateFunctionRejected(t *testing.T) {
	if err := evalErr(t, usersTable(), "sum(age)"); err == nil {
		t.Fatal("expected error for aggregate function in row expression")
	}
}
