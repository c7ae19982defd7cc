package flow

import (
	"strings"

	"github.com/razeghi71/dqflow/ops"
)

// Grouping describes an aggregation: the group columns and the summaries
// computed for each group.
//
//	flow.GroupBy("ProductName").Sum("Freight", "Total").CountRows("Orders")
type Grouping struct {
	columns []string
	specs   []ops.AggregationSpec
}

// GroupBy starts a grouping on the given columns. No columns aggregates the
// whole table into one row.
func GroupBy(cols ...string) Grouping {
	return Grouping{columns: cols}
}

// Summary adds an arbitrary aggregation.
func (g Grouping) Summary(spec ops.AggregationSpec) Grouping {
	specs := make([]ops.AggregationSpec, len(g.specs), len(g.specs)+1)
	copy(specs, g.specs)
	g.specs = append(specs, spec)
	return g
}

func (g Grouping) Sum(col, output string) Grouping {
	return g.Summary(ops.AggregationSpec{Column: col, Kind: ops.Sum, Output: output})
}

// Count counts non-null values of col.
func (g Grouping) Count(col, output string) Grouping {
	return g.Summary(ops.AggregationSpec{Column: col, Kind: ops.Count, Output: output})
}

func (g Grouping) Average(col, output string) Grouping {
	return g.Summary(ops.AggregationSpec{Column: col, Kind: ops.Average, Output: output})
}

func (g Grouping) Min(col, output string) Grouping {
	return g.Summary(ops.AggregationSpec{Column: col, Kind: ops.Min, Output: output})
}

func (g Grouping) Max(col, output string) Grouping {
	return g.Summary(ops.AggregationSpec{Column: col, Kind: ops.Max, Output: output})
}

// CountRows counts the rows of each group.
func (g Grouping) CountRows(output string) Grouping {
	return g.Summary(ops.AggregationSpec{Kind: ops.CountRows, Output: output})
}

func (g Grouping) String() string {
	parts := make([]string, len(g.specs))
	for i, s := range g.specs {
		parts[i] = s.Output + "=" + s.Kind.String() + "(" + s.Column + ")"
	}
	out := strings.Join(parts, ",")
	if len(g.columns) > 0 {
		out += " by " + strings.Join(g.columns, ",")
	}
	return out
}
