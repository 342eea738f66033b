package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// QueryResult is a rectangular result set with every value rendered as text.
type QueryResult struct {
	Columns []string
	Rows    [][]string
}

// ReadParquet loads one stored day file through an in-memory DuckDB instance
// and returns up to limit rows (0 means no limit). Time columns come back in
// the file's millisecond-timestamp encoding.
func (s *Store) ReadParquet(ctx context.Context, id Identity, day time.Time, limit int) (*QueryResult, error) {
	path := s.BuildPath(id, day)

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer db.Close()

	query := "SELECT * FROM read_parquet(?)"
	args := []any{path}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: columns}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make([]string, len(columns))
		for i, v := range values {
			record[i] = renderValue(v)
		}
		result.Rows = append(result.Rows, record)
	}
	return result, rows.Err()
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
