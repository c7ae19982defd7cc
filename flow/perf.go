package flow

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/razeghi71/dqflow/table"
)

// PerformanceRecord is the measurement of one evaluated node.
type PerformanceRecord struct {
	NodeID  ID
	Kind    NodeKind
	Label   string
	Elapsed time.Duration
	RowsIn  int
	RowsOut int
}

// PerformanceLog holds the node measurements of one execution in
// evaluation order.
type PerformanceLog struct {
	RunID   uuid.UUID
	Records []PerformanceRecord
	Total   time.Duration
}

var perfSchema = table.MustSchema(
	table.Col("Node", table.KindInt),
	table.Col("Kind", table.KindString),
	table.Col("Label", table.KindString),
	table.Col("ElapsedMs", table.KindFloat),
	table.Col("RowsIn", table.KindInt),
	table.Col("RowsOut", table.KindInt),
)

// Table returns the log as a table so it can be fed into a flow.
func (l *PerformanceLog) Table() *table.Table {
	t := table.NewTable(perfSchema)
	for _, r := range l.Records {
		t.AddRow([]table.Value{
			table.IntVal(int64(r.NodeID)),
			table.StrVal(string(r.Kind)),
			table.StrVal(r.Label),
			table.FloatVal(float64(r.Elapsed) / float64(time.Millisecond)),
			table.IntVal(int64(r.RowsIn)),
			table.IntVal(int64(r.RowsOut)),
		})
	}
	return t
}

func (l *PerformanceLog) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s: %d nodes in %s\n", l.RunID, len(l.Records), l.Total)
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tLABEL\tELAPSED\tROWS IN\tROWS OUT")
	for _, r := range l.Records {
		fmt.Fprintf(tw, "%s%d\t%s\t%s\t%s\t%s\n",
			r.Kind, r.NodeID, r.Label, r.Elapsed,
			humanize.Comma(int64(r.RowsIn)), humanize.Comma(int64(r.RowsOut)))
	}
	tw.Flush()
	return sb.String()
}
