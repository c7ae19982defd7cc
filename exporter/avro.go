package exporter

import (
	"encoding/json"
	"io"
	"strings"

	goavro "github.com/linkedin/goavro/v2"
	"github.com/pkg/errors"

	"github.com/razeghi71/dqflow/table"
)

// AvroFile writes the table as an Avro object container file.
func AvroFile(filename string, t *table.Table) error {
	return create(filename, func(w io.Writer) error { return WriteAvro(w, t) })
}

// WriteAvro writes the table as Avro OCF. Every field is a nullable union;
// time and any columns are written as strings, lists as string arrays.
// Column names are mapped to valid Avro names.
func WriteAvro(w io.Writer, t *table.Table) error {
	cols := t.Schema.Columns()
	names := make([]string, len(cols))
	types := make([]string, len(cols))
	seen := make(map[string]bool, len(cols))
	fields := make([]map[string]any, len(cols))
	for i, c := range cols {
		names[i] = avroName(c.Name)
		if seen[names[i]] {
			return errors.Errorf("column %q maps to duplicate Avro field %q", c.Name, names[i])
		}
		seen[names[i]] = true
		types[i] = avroType(c.Kind)

		var typ any = types[i]
		if types[i] == "array" {
			typ = map[string]any{"type": "array", "items": "string"}
		}
		fields[i] = map[string]any{
			"name":    names[i],
			"type":    []any{"null", typ},
			"default": nil,
		}
	}
	schema, err := json.Marshal(map[string]any{
		"type":   "record",
		"name":   "Row",
		"fields": fields,
	})
	if err != nil {
		return err
	}

	ocfw, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Schema:          string(schema),
		CompressionName: goavro.CompressionSnappyLabel,
	})
	if err != nil {
		return errors.Wrap(err, "cannot create Avro writer")
	}

	records := make([]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(cols))
		for i, v := range row.Values {
			rec[names[i]] = avroDatum(types[i], v)
		}
		records = append(records, rec)
	}
	if err := ocfw.Append(records); err != nil {
		return errors.Wrap(err, "cannot append Avro records")
	}
	return nil
}

func avroType(k table.Kind) string {
	switch k {
	case table.KindInt:
		return "long"
	case table.KindFloat:
		return "double"
	case table.KindBool:
		return "boolean"
	case table.KindList:
		return "array"
	default:
		return "string"
	}
}

func avroDatum(typ string, v table.Value) any {
	if v.IsNull() {
		return nil
	}
	switch typ {
	case "long":
		return goavro.Union(typ, v.Int)
	case "double":
		f, _ := v.AsFloat()
		return goavro.Union(typ, f)
	case "boolean":
		return goavro.Union(typ, v.Bool)
	case "array":
		items := make([]any, len(v.List))
		for i, e := range v.List {
			items[i] = text(e)
		}
		return goavro.Union(typ, items)
	default:
		return goavro.Union(typ, v.AsString())
	}
}

// avroName replaces characters Avro does not allow in names.
func avroName(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
