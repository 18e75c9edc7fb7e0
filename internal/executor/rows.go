package executor

import (
	"database/sql"
	"time"
)

// scanResultSet drains rows into a ResultSet, converting driver values to
// the engine's scalar vocabulary: string, int64, float64, nil.
func scanResultSet(rows *sql.Rows) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, &EngineError{Code: ErrCodeScanFailed, Message: "read columns", Err: err}
	}

	result := &ResultSet{
		Columns: columns,
		Rows:    [][]any{},
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &EngineError{Code: ErrCodeScanFailed, Message: "scan row", Err: err}
		}

		row := make([]any, len(columns))
		for i, v := range values {
			row[i] = normalizeScalar(v)
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, &EngineError{Code: ErrCodeScanFailed, Message: "iterate rows", Err: err}
	}

	return result, nil
}

// normalizeScalar maps driver types onto the wire scalar set. BLOB columns
// do not occur in this dataset; raw bytes are surfaced as strings so a
// stray one degrades visibly instead of panicking a caller.
func normalizeScalar(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return val
	}
}
