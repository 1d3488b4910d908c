package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/asaidimu/filterable/pkg/logger"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Executor runs composed queries against a SQLite database.
type Executor struct {
	db     *sql.DB
	logger logger.Logger
}

// NewExecutor creates a new Executor instance.
func NewExecutor(db *sql.DB, log logger.Logger) *Executor {
	return &Executor{
		db:     db,
		logger: log,
	}
}

// Query runs q and reads every row it returns.
func (e *Executor) Query(ctx context.Context, q Query) ([]Row, error) {
	sqlQuery, queryParams, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL query: %w", err)
	}

	log := e.logger.WithContext(ctx)
	log.Debug().
		Str("table", q.Table()).
		Str("sql", sqlQuery).
		Interface("params", queryParams).
		Msg("executing query")

	rows, err := e.db.QueryContext(ctx, sqlQuery, queryParams...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	results, err := readRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from database: %w", err)
	}

	log.Debug().
		Str("table", q.Table()).
		Int("rows", len(results)).
		Msg("query finished")

	return results, nil
}

// Count returns the number of rows q matches.
func (e *Executor) Count(ctx context.Context, q Query) (int64, error) {
	sqlQuery, queryParams, err := sq.Select("COUNT(*)").FromSelect(q.Builder(), `"filtered"`).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate SQL count query: %w", err)
	}

	log := e.logger.WithContext(ctx)
	log.Debug().
		Str("table", q.Table()).
		Str("sql", sqlQuery).
		Interface("params", queryParams).
		Msg("executing count")

	var count int64
	if err := e.db.QueryRowContext(ctx, sqlQuery, queryParams...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to execute count query: %w", err)
	}

	return count, nil
}

// readRows reads all rows from a sql.Rows result and converts them into a slice of Row maps.
func readRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	var results []Row
	for rows.Next() {
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = convertValue(columnTypes[i].DatabaseTypeName(), values[i])
		}
		results = append(results, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}

	return results, nil
}

func convertValue(typeName string, val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case int64:
		// SQLite stores booleans as INTEGER (0 or 1)
		if typeName == "BOOLEAN" {
			return v != 0
		}
		return v
	case []byte:
		if typeName == "TEXT" {
			return string(v)
		}
		return v
	default:
		return val
	}
}
