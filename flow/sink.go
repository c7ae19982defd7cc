package flow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/razeghi71/dqflow/exporter"
	"github.com/razeghi71/dqflow/record"
	"github.com/razeghi71/dqflow/table"
)

// Sink is a terminal step producing a result of type R. Nothing is
// evaluated until Execute is called; every call re-runs the whole flow.
type Sink[R any] struct {
	flow *Flow
	name string
	push func(ctx context.Context, t *table.Table) (R, error)
}

// To ends the flow in a custom target.
func To[R any](f *Flow, name string, push func(ctx context.Context, t *table.Table) (R, error)) *Sink[R] {
	return &Sink[R]{flow: f, name: name, push: push}
}

// Execute evaluates the flow and pushes the final table into the sink. Any
// error aborts the execution; no partial result is returned.
func (s *Sink[R]) Execute(opts ...Option) (R, error) {
	var zero R
	o := newOptions(opts)
	r := newRun(s.flow.n, o)

	start := time.Now()
	r.log.Info("executing flow",
		zap.String("sink", s.name),
		zap.Int("nodes", len(r.order)),
		zap.Stringer("mode", o.mode),
		zap.Bool("parallel", o.parallel),
	)

	t, err := r.materialize(s.flow.n)
	if err != nil {
		r.log.Info("flow failed", zap.Error(err))
		return zero, err
	}
	out, err := s.push(o.ctx, t)
	if err != nil {
		err = &SinkWriteError{Sink: s.name, Err: err}
		r.log.Info("flow failed", zap.Error(err))
		return zero, err
	}

	total := time.Since(start)
	r.log.Info("flow executed", zap.Int("rows", t.Len()), zap.Duration("elapsed", total))
	if o.perf != nil {
		o.perf(r.performanceLog(total))
	}
	return out, nil
}

// ToTable returns the final table.
func (f *Flow) ToTable() *Sink[*table.Table] {
	return To(f, "table", func(_ context.Context, t *table.Table) (*table.Table, error) {
		return t, nil
	})
}

// ToRecords converts the final table into records. A record field without
// a matching column fails the execution before any row is converted.
func ToRecords[T any](f *Flow, m *record.Mapping[T]) *Sink[[]T] {
	return To(f, "records", func(_ context.Context, t *table.Table) ([]T, error) {
		return m.Records(t)
	})
}

// ToJSONString renders the final table as a JSON array of objects.
func (f *Flow) ToJSONString() *Sink[string] {
	return To(f, "json", func(_ context.Context, t *table.Table) (string, error) {
		b, err := exporter.JSON(t)
		return string(b), err
	})
}

func toFile(f *Flow, path string, write func(string, *table.Table) error) *Sink[string] {
	return To(f, path, func(_ context.Context, t *table.Table) (string, error) {
		if err := write(path, t); err != nil {
			return "", err
		}
		return path, nil
	})
}

// ToFile writes the final table to path in the format its extension names
// and returns the path.
func (f *Flow) ToFile(path string) *Sink[string] {
	return toFile(f, path, exporter.Save)
}

// ToJSONFile writes the table as a JSON array of objects.
func (f *Flow) ToJSONFile(path string) *Sink[string] {
	return toFile(f, path, exporter.JSONFile)
}

// ToCSVFile writes the table as CSV with a header record.
func (f *Flow) ToCSVFile(path string) *Sink[string] {
	return toFile(f, path, exporter.CSVFile)
}

// ToExcelFile writes an xlsx workbook with the table on the named sheet.
func (f *Flow) ToExcelFile(path, sheet string) *Sink[string] {
	return toFile(f, path, func(p string, t *table.Table) error {
		return exporter.ExcelFile(p, sheet, t)
	})
}

// ToAvroFile writes the table as an Avro object container file.
func (f *Flow) ToAvroFile(path string) *Sink[string] {
	return toFile(f, path, exporter.AvroFile)
}

// ToParquetFile writes the table as a Parquet file.
func (f *Flow) ToParquetFile(path string) *Sink[string] {
	return toFile(f, path, exporter.ParquetFile)
}
