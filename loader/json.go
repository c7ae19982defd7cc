package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/razeghi71/dqflow/table"
)

// JSONURL fetches a JSON document with a GET request; see JSONFile for root.
// A non-2xx response is an error.
func JSONURL(ctx context.Context, url, root string) (*table.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot request %s", url)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot fetch %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("fetching %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", url)
	}
	t, err := ReadJSON(data, root)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", url)
	}
	return t, nil
}

// object is a decoded JSON object that remembers its key order.
type object struct {
	keys   []string
	values map[string]any
}

// JSONFile reads a JSON document. root is a dotted path to the element
// holding the records, e.g. "Customers" or "data.items"; empty means the
// document itself. The element may be an array of objects or one object.
func JSONFile(filename, root string) (*table.Table, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", filename)
	}
	t, err := ReadJSON(data, root)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return t, nil
}

// ReadJSON decodes a JSON document; see JSONFile for root.
func ReadJSON(data []byte, root string) (*table.Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	doc, err := decodeValue(dec)
	if err != nil {
		return nil, errors.Wrap(err, "cannot parse JSON")
	}

	if root != "" {
		for _, part := range strings.Split(root, ".") {
			obj, ok := doc.(*object)
			if !ok {
				return nil, errors.Errorf("root element %q: %q is not inside an object", root, part)
			}
			v, ok := obj.values[part]
			if !ok {
				return nil, errors.Errorf("root element %q: key %q not found", root, part)
			}
			doc = v
		}
	}

	switch v := doc.(type) {
	case []any:
		records := make([]*object, 0, len(v))
		for i, elem := range v {
			obj, ok := elem.(*object)
			if !ok {
				return nil, errors.Errorf("element %d is not an object (expected array of objects)", i)
			}
			records = append(records, obj)
		}
		return buildTableFromRecords(records)
	case *object:
		return buildTableFromRecords([]*object{v})
	default:
		return nil, errors.New("expected an array of objects or an object")
	}
}

// JSONLinesFile reads one JSON object per line.
func JSONLinesFile(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", filename)
	}
	defer f.Close()

	t, err := ReadJSONLines(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return t, nil
}

// ReadJSONLines reads one JSON object per line; blank lines are skipped.
func ReadJSONLines(r io.Reader) (*table.Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var records []*object
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()
		v, err := decodeValue(dec)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid JSON on line %d", lineNum)
		}
		obj, ok := v.(*object)
		if !ok {
			return nil, errors.Errorf("line %d is not a JSON object", lineNum)
		}
		records = append(records, obj)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return buildTableFromRecords(records)
}

// decodeValue reads one JSON value, keeping object key order.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &object{values: make(map[string]any)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, errors.Errorf("unexpected object key %v", keyTok)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := obj.values[key]; !dup {
					obj.keys = append(obj.keys, key)
				}
				obj.values[key] = v
			}
			if _, err := dec.Token(); err != nil { // '}'
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil { // ']'
				return nil, err
			}
			return arr, nil
		default:
			return nil, errors.Errorf("unexpected delimiter %v", t)
		}
	default:
		return tok, nil
	}
}

func buildTableFromRecords(records []*object) (*table.Table, error) {
	colSet := make(map[string]bool)
	var columns []string
	for _, rec := range records {
		for _, k := range rec.keys {
			if !colSet[k] {
				colSet[k] = true
				columns = append(columns, k)
			}
		}
	}

	rows := make([][]table.Value, len(records))
	for r, rec := range records {
		vals := make([]table.Value, len(columns))
		for i, col := range columns {
			v, ok := rec.values[col]
			if !ok {
				vals[i] = table.Null()
				continue
			}
			vals[i] = jsonValue(v)
		}
		rows[r] = vals
	}

	return build(columns, rows)
}

func jsonValue(v any) table.Value {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return table.IntVal(i)
		}
		f, _ := val.Float64()
		return table.FloatVal(f)
	case string:
		return table.StrVal(val)
	case bool:
		return table.BoolVal(val)
	case nil:
		return table.Null()
	case []any:
		list := make([]table.Value, len(val))
		for i, e := range val {
			list[i] = jsonValue(e)
		}
		return table.ListVal(list...)
	case *object:
		// Nested objects are kept as their JSON text
		return table.StrVal(string(val.marshal()))
	default:
		return table.StrVal("")
	}
}

func (o *object) marshal() []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(marshalAny(o.values[k]))
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func marshalAny(v any) []byte {
	switch val := v.(type) {
	case *object:
		return val.marshal()
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(marshalAny(e))
		}
		buf.WriteByte(']')
		return buf.Bytes()
	default:
		b, _ := json.Marshal(val)
		return b
	}
}
