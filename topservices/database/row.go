package database

import (
	"database/sql"

	"github.com/spf13/cast"
)

// Row is one result row keyed by column name. Text columns are returned as
// string, never as []byte.
type Row map[string]any

func (row Row) String(column string) string {
	return cast.ToString(row[column])
}

func (row Row) Int64(column string) int64 {
	return cast.ToInt64(row[column])
}

func (row Row) Float64(column string) float64 {
	return cast.ToFloat64(row[column])
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			if raw, ok := values[i].([]byte); ok {
				row[column] = string(raw)
				continue
			}

			row[column] = values[i]
		}

		result = append(result, row)
	}

	return result, rows.Err()
}
