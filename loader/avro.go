package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	goavro "github.com/linkedin/goavro/v2"
	"github.com/pkg/errors"

	"github.com/razeghi71/dqflow/table"
)

// AvroFile reads an Avro object container file.
func AvroFile(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", filename)
	}
	defer f.Close()

	t, err := ReadAvro(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return t, nil
}

// ReadAvro reads Avro OCF data. Columns follow the record schema's fields.
func ReadAvro(r io.Reader) (*table.Table, error) {
	ocfr, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read Avro OCF")
	}

	// Extract column names from the schema
	var schemaDef struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(ocfr.Codec().Schema()), &schemaDef); err != nil {
		return nil, errors.Wrap(err, "cannot parse Avro schema")
	}

	columns := make([]string, len(schemaDef.Fields))
	for i, field := range schemaDef.Fields {
		columns[i] = field.Name
	}

	var rows [][]table.Value
	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			return nil, errors.Wrap(err, "error reading Avro record")
		}

		rec, ok := datum.(map[string]any)
		if !ok {
			return nil, errors.Errorf("unexpected Avro record type %T", datum)
		}

		vals := make([]table.Value, len(columns))
		for i, col := range columns {
			vals[i] = avroValue(rec[col])
		}
		rows = append(rows, vals)
	}

	if err := ocfr.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading Avro file")
	}

	return build(columns, rows)
}

func avroValue(v any) table.Value {
	switch val := v.(type) {
	case nil:
		return table.Null()
	case int32:
		return table.IntVal(int64(val))
	case int64:
		return table.IntVal(val)
	case float32:
		return table.FloatVal(float64(val))
	case float64:
		return table.FloatVal(val)
	case string:
		return table.StrVal(val)
	case bool:
		return table.BoolVal(val)
	case []byte:
		return table.StrVal(string(val))
	case time.Time:
		return table.TimeVal(val)
	case []any:
		list := make([]table.Value, len(val))
		for i, e := range val {
			list[i] = avroValue(e)
		}
		return table.ListVal(list...)
	case map[string]any:
		// Avro unions decode as {"type": value} - extract the value
		for _, inner := range val {
			return avroValue(inner)
		}
		return table.Null()
	default:
		return table.StrVal(fmt.Sprintf("%v", val))
	}
}
