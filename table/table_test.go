package table

import (
	"errors"
	"testing"
	"time"
)

func regionsTable() *Table {
	t := NewTable(MustSchema(Col("Id", KindInt), Col("Name", KindString)))
	t.AddRow([]Value{IntVal(1), StrVal("Northwest")})
	t.AddRow([]Value{IntVal(2), StrVal("Northeast")})
	t.AddRow([]Value{IntVal(3), StrVal("Central")})
	return t
}

func TestNewSchemaDuplicate(t *testing.T) {
	_, err := NewSchema(Col("a", KindInt), Col("a", KindString))
	var dup *DuplicateColumnError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateColumnError, got %v", err)
	}
	if dup.Column != "a" {
		t.Errorf("expected column 'a', got %q", dup.Column)
	}
}

func TestSchemaLookup(t *testing.T) {
	s := MustSchema(AnyCols("x", "y", "z")...)
	if s.Index("y") != 1 {
		t.Errorf("expected index 1, got %d", s.Index("y"))
	}
	if s.Index("nope") != -1 {
		t.Errorf("expected -1 for missing column")
	}
	_, err := s.Lookup("nope")
	var unk *UnknownColumnError
	if !errors.As(err, &unk) {
		t.Fatalf("expected UnknownColumnError, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tbl := regionsTable()
	if err := tbl.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tbl.AddRow([]Value{StrVal("4"), StrVal("Southwest")})
	err := tbl.Validate()
	var tm *TypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if tm.Column != "Id" {
		t.Errorf("expected column Id, got %q", tm.Column)
	}
}

func TestAppendChecksWidth(t *testing.T) {
	tbl := regionsTable()
	if err := tbl.Append([]Value{IntVal(4)}); err == nil {
		t.Fatal("expected error for short row")
	}
	if err := tbl.Append([]Value{IntVal(4), Null()}); err != nil {
		t.Fatalf("null should be accepted: %v", err)
	}
}

func TestKindAccepts(t *testing.T) {
	if !KindFloat.Accepts(TypeInt) {
		t.Error("float column should accept ints")
	}
	if KindInt.Accepts(TypeFloat) {
		t.Error("int column should reject floats")
	}
	if !KindAny.Accepts(TypeList) {
		t.Error("any column should accept everything")
	}
}

func TestKindInferrer(t *testing.T) {
	var ki KindInferrer
	ki.Observe(IntVal(1))
	ki.Observe(Null())
	ki.Observe(FloatVal(2.5))
	if ki.Kind() != KindFloat {
		t.Errorf("expected float, got %s", ki.Kind())
	}
	ki.Observe(StrVal("x"))
	if ki.Kind() != KindAny {
		t.Errorf("expected any, got %s", ki.Kind())
	}

	var empty KindInferrer
	if empty.Kind() != KindAny {
		t.Errorf("expected any for no values, got %s", empty.Kind())
	}
}

func TestCloneIsDeep(t *testing.T) {
	tbl := NewTable(MustSchema(Col("tags", KindList)))
	tbl.AddRow([]Value{ListVal(StrVal("a"), StrVal("b"))})

	c := tbl.Clone()
	c.Rows[0].Values[0].List[0] = StrVal("changed")
	if tbl.Rows[0].Values[0].List[0].Str != "a" {
		t.Errorf("clone shares list storage with original")
	}
}

func TestCompare(t *testing.T) {
	if Compare(IntVal(2), FloatVal(2.5)) >= 0 {
		t.Error("expected 2 < 2.5")
	}
	if Compare(Null(), IntVal(1)) <= 0 {
		t.Error("expected nulls to sort last")
	}
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	if Compare(TimeVal(t1), TimeVal(t2)) >= 0 {
		t.Error("expected earlier time first")
	}
	if Compare(StrVal("a"), StrVal("b")) >= 0 {
		t.Error("expected a < b")
	}
}

func TestCompareMixedTypesIsTransitive(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ordered := []Value{
		IntVal(-3), FloatVal(2.5), IntVal(10),
		StrVal("10"), StrVal("9"), StrVal("a"),
		BoolVal(false), BoolVal(true),
		TimeVal(at),
		ListVal(IntVal(1)), ListVal(IntVal(1), IntVal(2)), ListVal(StrVal("a")),
		Null(),
	}
	for i := range ordered {
		for j := range ordered {
			got := Compare(ordered[i], ordered[j])
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			if got != want {
				t.Errorf("Compare(%s, %s) = %d, want %d", ordered[i].AsString(), ordered[j].AsString(), got, want)
			}
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal(IntVal(1), FloatVal(1)) {
		t.Error("expected 1 == 1.0")
	}
	if Equal(StrVal("1"), IntVal(1)) {
		t.Error("string and int should not be equal")
	}
	if !Equal(Null(), Null()) {
		t.Error("expected null == null")
	}
}

func TestAs(t *testing.T) {
	f, err := As[float64](IntVal(3))
	if err != nil || f != 3 {
		t.Errorf("expected 3.0, got %v (%v)", f, err)
	}
	s, err := As[string](Null())
	if err != nil || s != "" {
		t.Errorf("expected zero value for null, got %q (%v)", s, err)
	}
	_, err = As[int](StrVal("x"))
	var tm *TypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
}

func TestRowRefField(t *testing.T) {
	tbl := regionsTable()
	r := tbl.Row(1)
	name, err := Field[string](r, "Name")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Northeast" {
		t.Errorf("expected Northeast, got %q", name)
	}
	if _, err := Field[string](r, "Id"); err == nil {
		t.Error("expected mismatch reading int column as string")
	}
	if _, err := r.Get("Missing"); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestValueOf(t *testing.T) {
	v, err := ValueOf([]any{"a", 1, nil})
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != TypeList || len(v.List) != 3 {
		t.Fatalf("expected 3-element list, got %v", v.AsString())
	}
	if v.List[1].Type != TypeInt || !v.List[2].IsNull() {
		t.Errorf("unexpected element types: %v", v.AsString())
	}
	if _, err := ValueOf(struct{}{}); err == nil {
		t.Error("expected error for unsupported type")
	}
}
