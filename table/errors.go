package table

import "fmt"

// UnknownColumnError reports a reference to a column absent from the schema.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

// DuplicateColumnError reports a column name collision caused by an add,
// rename or join.
type DuplicateColumnError struct {
	Column string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("column %q already exists", e.Column)
}

// TypeMismatchError reports a value whose kind is incompatible with what an
// operation requires.
type TypeMismatchError struct {
	Op     string // operation or operator, e.g. "sum", ">", "row"
	Column string // offending column, empty for literals
	Want   string
	Got    string
}

func (e *TypeMismatchError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: column %q: expected %s, got %s", e.Op, e.Column, e.Want, e.Got)
	}
	return fmt.Sprintf("%s: expected %s, got %s", e.Op, e.Want, e.Got)
}
