package flow

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/razeghi71/dqflow/table"
)

// DebugEvent is handed to a Debug hook. Table is a private copy; changes to
// it do not reach the flow.
type DebugEvent struct {
	NodeID ID
	Label  string // name of the inspected node
	Table  *table.Table
}

// PrintColumns writes the column names and kinds, one per line.
func (e *DebugEvent) PrintColumns(w io.Writer) error {
	for _, c := range e.Table.Schema.Columns() {
		if _, err := fmt.Fprintf(w, "%s %s\n", c.Name, c.Kind); err != nil {
			return err
		}
	}
	return nil
}

// PrintTable writes the table as aligned text.
func (e *DebugEvent) PrintTable(w io.Writer) error {
	return table.Fprint(w, e.Table)
}

// Debug forwards its input unchanged after calling hook with a copy of it.
// The event is labelled with the name of the node being inspected.
func (f *Flow) Debug(hook func(*DebugEvent)) *Flow {
	label := f.n.Name()
	var n *node
	n = f.then(KindDebug, label, func(in *table.Table) (*table.Table, error) {
		hook(&DebugEvent{NodeID: n.id, Label: label, Table: in.Clone()})
		return in, nil
	}).n
	return &Flow{n: n}
}

// LogTable returns a Debug hook logging the table's schema and row count.
func LogTable(logger *zap.Logger) func(*DebugEvent) {
	return func(e *DebugEvent) {
		cols := make([]string, 0, e.Table.Schema.Len())
		for _, c := range e.Table.Schema.Columns() {
			cols = append(cols, c.Name+":"+c.Kind.String())
		}
		logger.Info("debug",
			zap.Int64("node", int64(e.NodeID)),
			zap.String("label", e.Label),
			zap.String("columns", strings.Join(cols, " ")),
			zap.Int("rows", e.Table.Len()),
		)
	}
}
