// Package exporter writes tables out as JSON, CSV, xlsx, Avro and parquet.
package exporter

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/razeghi71/dqflow/table"
)

// Save writes a table to a file, choosing the format by extension.
func Save(filename string, t *table.Table) error {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return CSVFile(filename, t)
	case ".json":
		return JSONFile(filename, t)
	case ".xlsx":
		return ExcelFile(filename, "", t)
	case ".avro":
		return AvroFile(filename, t)
	case ".parquet":
		return ParquetFile(filename, t)
	default:
		return errors.Errorf("unsupported output format %q (supported: .csv, .json, .xlsx, .avro, .parquet)", ext)
	}
}

// create opens filename for writing and hands a buffered writer to fn.
func create(filename string, fn func(w io.Writer) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "cannot create %s", filename)
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", filename)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", filename)
	}
	return f.Close()
}

// JSON renders the table as an array of objects whose keys follow the
// column order.
func JSON(t *table.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JSONFile writes the table as a JSON array of objects.
func JSONFile(filename string, t *table.Table) error {
	return create(filename, func(w io.Writer) error { return WriteJSON(w, t) })
}

// WriteJSON writes the table as a JSON array of objects.
func WriteJSON(w io.Writer, t *table.Table) error {
	keys := make([][]byte, t.Schema.Len())
	for i, name := range t.Columns() {
		k, err := json.Marshal(name)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for r, row := range t.Rows {
		if r > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for i, v := range row.Values {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(keys[i])
			buf.WriteByte(':')
			appendJSON(&buf, v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')

	_, err := w.Write(buf.Bytes())
	return err
}

func appendJSON(buf *bytes.Buffer, v table.Value) {
	switch v.Type {
	case table.TypeInt:
		buf.WriteString(strconv.FormatInt(v.Int, 10))
	case table.TypeFloat:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			buf.WriteString("null")
			return
		}
		buf.WriteString(strconv.FormatFloat(v.Float, 'g', -1, 64))
	case table.TypeString:
		b, _ := json.Marshal(v.Str)
		buf.Write(b)
	case table.TypeBool:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case table.TypeTime:
		buf.WriteByte('"')
		buf.WriteString(v.Time.Format(time.RFC3339Nano))
		buf.WriteByte('"')
	case table.TypeList:
		buf.WriteByte('[')
		for i, e := range v.List {
			if i > 0 {
				buf.WriteByte(',')
			}
			appendJSON(buf, e)
		}
		buf.WriteByte(']')
	default:
		buf.WriteString("null")
	}
}

// CSVFile writes the table as CSV with a header record.
func CSVFile(filename string, t *table.Table) error {
	return create(filename, func(w io.Writer) error { return WriteCSV(w, t) })
}

// WriteCSV writes the table as CSV with a header record. Nulls are written
// as empty fields.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	record := make([]string, t.Schema.Len())
	for _, row := range t.Rows {
		for i, v := range row.Values {
			record[i] = text(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// text is the plain text form of a value; null is empty.
func text(v table.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.AsString()
}
