package flow

import (
	"context"
	"database/sql"

	"github.com/razeghi71/dqflow/loader"
	"github.com/razeghi71/dqflow/record"
	"github.com/razeghi71/dqflow/table"
)

// Source supplies the first table of a flow. Pull is called once per
// execution that reaches the source.
type Source interface {
	Pull(ctx context.Context) (*table.Table, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*table.Table, error)

func (fn SourceFunc) Pull(ctx context.Context) (*table.Table, error) {
	return fn(ctx)
}

// From starts a flow at a custom source. name identifies the source in
// errors and in the graph.
func From(name string, src Source) *Flow {
	apply := func(ctx context.Context, _ []*table.Table) (*table.Table, error) {
		t, err := src.Pull(ctx)
		if err != nil {
			return nil, &SourceReadError{Source: name, Err: err}
		}
		return t, nil
	}
	return &Flow{n: newNode(KindSource, name, apply)}
}

func fromFile(path string, read func(string) (*table.Table, error)) *Flow {
	return From(path, SourceFunc(func(context.Context) (*table.Table, error) {
		return read(path)
	}))
}

// FromTable starts a flow at an in-memory table. Each execution works on a
// fresh copy.
func FromTable(t *table.Table) *Flow {
	return From("table", SourceFunc(func(context.Context) (*table.Table, error) {
		return t.Clone(), nil
	}))
}

// FromObjects starts a flow at a slice of records described by m.
func FromObjects[T any](items []T, m *record.Mapping[T]) *Flow {
	return From("objects", SourceFunc(func(context.Context) (*table.Table, error) {
		return m.Table(items)
	}))
}

// FromFile reads a file whose format is chosen by extension.
func FromFile(path string) *Flow {
	return fromFile(path, loader.Load)
}

// FromCSV reads a CSV file with a header row.
func FromCSV(path string) *Flow {
	return fromFile(path, loader.CSVFile)
}

// FromJSONFile reads a JSON file; root is a dotted path to the records
// inside the document, empty for the document itself.
func FromJSONFile(path, root string) *Flow {
	return fromFile(path, func(p string) (*table.Table, error) {
		return loader.JSONFile(p, root)
	})
}

// FromJSON reads JSON text; see FromJSONFile for root.
func FromJSON(data []byte, root string) *Flow {
	return From("json", SourceFunc(func(context.Context) (*table.Table, error) {
		return loader.ReadJSON(data, root)
	}))
}

// FromJSONURL fetches a JSON document over HTTP on every execution; see
// FromJSONFile for root.
func FromJSONURL(url, root string) *Flow {
	return From(url, SourceFunc(func(ctx context.Context) (*table.Table, error) {
		return loader.JSONURL(ctx, url, root)
	}))
}

// FromJSONLines reads newline-delimited JSON, one record per line.
func FromJSONLines(path string) *Flow {
	return fromFile(path, loader.JSONLinesFile)
}

// FromExcel reads one worksheet; an empty sheet selects the first one.
func FromExcel(path, sheet string) *Flow {
	return fromFile(path, func(p string) (*table.Table, error) {
		return loader.ExcelFile(p, sheet)
	})
}

// FromAvro reads an Avro object container file.
func FromAvro(path string) *Flow {
	return fromFile(path, loader.AvroFile)
}

// FromParquet reads a Parquet file.
func FromParquet(path string) *Flow {
	return fromFile(path, loader.ParquetFile)
}

// FromSQL runs query against db on every execution.
func FromSQL(db *sql.DB, query string, args ...any) *Flow {
	return From(query, SourceFunc(func(ctx context.Context) (*table.Table, error) {
		return loader.SQL(ctx, db, query, args...)
	}))
}
