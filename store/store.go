// Package store executes SQL statement text against a relational database
// and returns results as plain strings.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrExecution is returned when the database rejects a statement
var ErrExecution = errors.New("statement execution failed")

// Executor runs statement text. Implementations are used by one worker at a time.
type Executor interface {
	Query(ctx context.Context, statement string) (*Table, error)
	Exec(ctx context.Context, statement string) (int64, error)
	Close() error
}

// Table is a query result: column names followed by stringified rows
type Table struct {
	Columns []string
	Rows    [][]string
}

// SQLite is an Executor over a single sqlite connection
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database file at path.
// The handle is limited to one connection.
func Open(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Query runs a statement that returns rows
func (s *SQLite) Query(ctx context.Context, statement string) (*Table, error) {
	rows, err := s.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}

	table := &Table{Columns: columns}
	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExecution, err)
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = stringify(v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}

	return table, nil
}

// Exec runs a statement that modifies data and returns the affected row count
func (s *SQLite) Exec(ctx context.Context, statement string) (int64, error) {
	result, err := s.db.ExecContext(ctx, statement)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	return rowsAffected(result)
}

func rowsAffected(result sql.Result) (int64, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %v", ErrExecution, err)
	}
	return affected, nil
}

// Close releases the connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
