package record

import "fmt"

// SchemaMismatchError reports a record field that the table cannot fill.
type SchemaMismatchError struct {
	Field  string
	Column string // empty when no column matched
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}
