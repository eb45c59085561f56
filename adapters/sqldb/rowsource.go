// Package sqldb provides the database-backed RowSource. It is written
// against database/sql, so any driver works; the sqlite driver is imported
// for local snapshots and tests, and production MySQL databases are reached
// through the sshtunnel adapter with a MySQL driver registered by the caller.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pbxtools/pbxdoc/ports"
)

// RowSource implements ports.RowSource over a SQL database.
type RowSource struct {
	db *sql.DB
}

// Open opens a SQLite database file as a row source.
func Open(path string) (*RowSource, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &RowSource{db: db}, nil
}

// New wraps an existing database handle.
func New(db *sql.DB) *RowSource {
	return &RowSource{db: db}
}

// Close closes the database connection.
func (s *RowSource) Close() error {
	return s.db.Close()
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ident validates a table or field name before it is spliced into SQL text.
// Identifiers cannot travel as bound parameters, so this narrow allow-list
// is the injection boundary; a violation is an error, never an empty match.
func ident(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("%q: %w", name, ports.ErrBadIdentifier)
	}
	return name, nil
}

// Get fetches one row by primary key. Returns (nil, nil) when absent.
func (s *RowSource) Get(ctx context.Context, table, pkField string, pk any) (ports.Row, error) {
	t, err := ident(table)
	if err != nil {
		return nil, err
	}
	f, err := ident(pkField)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE %s = ? LIMIT 1", t, f), pk)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// Select fetches every row matching the query. Criterion values are bound as
// parameters.
func (s *RowSource) Select(ctx context.Context, q ports.Query) ([]ports.Row, error) {
	t, err := ident(q.Table)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	var args []any
	fmt.Fprintf(&b, "SELECT * FROM %s", t)

	for i, c := range q.Where {
		f, err := ident(c.Field)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, "%s %s ?", f, c.Op)
		args = append(args, c.Value)
	}

	for i, k := range q.Order {
		f, err := ident(k.Field)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(f)
		if k.Desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// Count returns the table's row count.
func (s *RowSource) Count(ctx context.Context, table string) (int, error) {
	t, err := ident(table)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// scanRows materializes every result row as a field-name map, preserving the
// source's row order.
func scanRows(rows *sql.Rows) ([]ports.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []ports.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(ports.Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
