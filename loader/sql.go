package loader

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/razeghi71/dqflow/table"
)

// SQL runs a query and loads its result set. Drivers are registered by the
// caller (or by the CLI) through a blank import.
func SQL(ctx context.Context, db *sql.DB, query string, args ...any) (*table.Table, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "columns")
	}

	var data [][]table.Value
	for rows.Next() {
		// Create scan targets
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for j := range values {
			ptrs[j] = &values[j]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}

		vals := make([]table.Value, len(cols))
		for j, v := range values {
			vals[j] = sqlValue(v)
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate")
	}

	return build(cols, data)
}

func sqlValue(v any) table.Value {
	switch val := v.(type) {
	case nil:
		return table.Null()
	case int64:
		return table.IntVal(val)
	case int32:
		return table.IntVal(int64(val))
	case int:
		return table.IntVal(int64(val))
	case float64:
		return table.FloatVal(val)
	case float32:
		return table.FloatVal(float64(val))
	case bool:
		return table.BoolVal(val)
	case time.Time:
		return table.TimeVal(val)
	case string:
		return table.StrVal(val)
	case []byte:
		// MySQL returns most column types as text
		return parseValue(string(val))
	default:
		return table.StrVal(fmt.Sprintf("%v", val))
	}
}
