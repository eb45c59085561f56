// Package ports defines interfaces (contracts) between the core and its
// collaborators. These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"fmt"
)

// Row is one raw record from a backing source, keyed by field name.
// Values are text, bytes, or integers as delivered by the source.
type Row map[string]any

// -----------------------------------------------------------------------------
// Row Source
// -----------------------------------------------------------------------------

// Op is a comparison operator in a query condition.
type Op string

const (
	OpEq   Op = "="
	OpNeq  Op = "<>"
	OpLt   Op = "<"
	OpLte  Op = "<="
	OpGt   Op = ">"
	OpGte  Op = ">="
	OpLike Op = "LIKE"
)

// Cond is one conjunct of a query's WHERE clause. The value is carried
// verbatim and must be bound as a parameter by the row source, never
// interpolated into the query text.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// OrderKey is one key of a query's ordering.
type OrderKey struct {
	Field string
	Desc  bool
}

// Query is a declarative fetch request against one table.
type Query struct {
	Table string
	Where []Cond
	Order []OrderKey
}

// ErrBadIdentifier reports a table or field name containing characters
// outside the allowed identifier set. Surfaced as an error rather than
// silently matching nothing.
var ErrBadIdentifier = errors.New("identifier contains disallowed characters")

// RowSource fetches raw rows from the PBX's relational store.
type RowSource interface {
	// Get fetches exactly one row by primary key. Returns (nil, nil) when
	// no row has that key.
	Get(ctx context.Context, table, pkField string, pk any) (Row, error)

	// Select fetches every row matching the query, in the query's order.
	Select(ctx context.Context, q Query) ([]Row, error)

	// Count returns the number of rows in a table.
	Count(ctx context.Context, table string) (int, error)
}

// -----------------------------------------------------------------------------
// Page Source
// -----------------------------------------------------------------------------

// PageLocation addresses a value inside scraped admin-page markup: the text
// content of the first element with the given tag carrying attr=value.
type PageLocation struct {
	Tag   string
	Attr  string
	Value string
}

func (l PageLocation) String() string {
	return fmt.Sprintf("%s[%s=%q]", l.Tag, l.Attr, l.Value)
}

// Page is one fetched admin page.
type Page interface {
	// Text returns the text content at the location, or an error when no
	// element matches.
	Text(loc PageLocation) (string, error)

	// TableAfter locates the heading element whose text equals heading and
	// returns the cell texts of the table that follows it, one slice per
	// body row.
	TableAfter(heading string) ([][]string, error)
}

// PageSource fetches server-rendered admin pages. Implementations may cache;
// fetching may fail on network or authentication errors.
type PageSource interface {
	Fetch(ctx context.Context, params map[string]string) (Page, error)

	// URL returns the browsable admin-page URL for the given params.
	URL(params map[string]string) string
}

// -----------------------------------------------------------------------------
// Progress Sink
// -----------------------------------------------------------------------------

// ProgressSink receives coarse progress callbacks during a generation run.
// Any of the three callbacks may be nil; the zero value is a valid no-op sink.
type ProgressSink struct {
	Percent func(pct int)
	Status  func(line string)
	Subtask func(line string)
}

func (p ProgressSink) ReportPercent(pct int) {
	if p.Percent != nil {
		p.Percent(pct)
	}
}

func (p ProgressSink) ReportStatus(line string) {
	if p.Status != nil {
		p.Status(line)
	}
}

func (p ProgressSink) ReportSubtask(line string) {
	if p.Subtask != nil {
		p.Subtask(line)
	}
}
