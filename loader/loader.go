// Package loader reads tables from files, byte slices and databases.
// Column kinds are inferred from the loaded values.
package loader

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/razeghi71/dqflow/table"
)

// Load reads a file and returns a Table, choosing the format by extension.
func Load(filename string) (*table.Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return CSVFile(filename)
	case ".json":
		return JSONFile(filename, "")
	case ".jsonl":
		return JSONLinesFile(filename)
	case ".avro":
		return AvroFile(filename)
	case ".parquet":
		return ParquetFile(filename)
	case ".xlsx":
		return ExcelFile(filename, "")
	default:
		return nil, errors.Errorf("unsupported file format %q (supported: .csv, .json, .jsonl, .avro, .parquet, .xlsx)", ext)
	}
}

// CSVFile reads a CSV file whose first record is the header.
func CSVFile(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", filename)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return t, nil
}

// ReadCSV reads CSV data whose first record is the header.
func ReadCSV(r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	// Read header
	header, err := reader.Read()
	if err == io.EOF {
		return table.NewTable(nil), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "cannot read CSV header")
	}

	var rows [][]table.Value
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "error reading CSV row")
		}
		rows = append(rows, parseRecord(record, len(header)))
	}

	return build(trimAll(header), rows)
}

func trimAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.TrimSpace(n)
	}
	return out
}

// parseRecord converts text cells, padding short records with nulls.
func parseRecord(record []string, width int) []table.Value {
	vals := make([]table.Value, width)
	for i := range vals {
		if i < len(record) {
			vals[i] = parseValue(strings.TrimSpace(record[i]))
		} else {
			vals[i] = table.Null()
		}
	}
	return vals
}

// parseValue infers the type of a text cell value.
func parseValue(s string) table.Value {
	if s == "" || strings.EqualFold(s, "null") {
		return table.Null()
	}

	// Try integer
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return table.IntVal(v)
	}

	// Try float
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return table.FloatVal(v)
	}

	// Try boolean
	lower := strings.ToLower(s)
	if lower == "true" {
		return table.BoolVal(true)
	}
	if lower == "false" {
		return table.BoolVal(false)
	}

	if t, ok := table.ParseTime(s); ok {
		return table.TimeVal(t)
	}

	return table.StrVal(s)
}

// build assembles a table from column names and rows, inferring each
// column's kind from its values.
func build(names []string, rows [][]table.Value) (*table.Table, error) {
	kinds := make([]table.KindInferrer, len(names))
	for _, row := range rows {
		for i, v := range row {
			kinds[i].Observe(v)
		}
	}

	cols := make([]table.Column, len(names))
	for i, n := range names {
		cols[i] = table.Col(n, kinds[i].Kind())
	}
	schema, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}

	t := table.NewTable(schema)
	t.Rows = make([]table.Row, len(rows))
	for i, vals := range rows {
		t.Rows[i] = table.Row{Values: vals}
	}
	return t, nil
}
