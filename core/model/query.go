package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/pbxtools/pbxdoc/ports"
)

// Collection is a stateless, reusable query handle for one module: a schema
// bound to no row.
type Collection struct {
	schema *Schema
	pc     *Context
}

// Schema returns the collection's schema.
func (c *Collection) Schema() *Schema { return c.schema }

// String renders the collection handle; with no instanced fields the schema
// description stands in for a record label.
func (c *Collection) String() string {
	return "Module: " + c.schema.Description
}

// Get fetches exactly one record by primary key. Returns (nil, nil) when no
// record has that key.
func (c *Collection) Get(ctx context.Context, pk any) (*Record, error) {
	if c.schema.PageRows != nil {
		return c.getScraped(ctx, pk)
	}
	row, err := c.pc.Rows.Get(ctx, c.schema.Table, c.schema.PKField, pk)
	if err != nil {
		return nil, fmt.Errorf("get %s[%v]: %w", c.schema.Name, pk, err)
	}
	return FromRow(ctx, c.pc, c.schema, row)
}

// getScraped scans the scraped collection for a matching key. Slow, but
// page-scraped modules are tiny and rarely dereferenced.
func (c *Collection) getScraped(ctx context.Context, pk any) (*Record, error) {
	recs, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	want := rawString(pk)
	for _, r := range recs {
		if r.keyText() == want {
			return r, nil
		}
	}
	return nil, nil
}

// All fetches every record, ordered by the schema's default ordering.
// Records materialize in the exact order the backing source returns rows.
func (c *Collection) All(ctx context.Context) ([]*Record, error) {
	c.pc.Progress.ReportStatus("Processing module: " + c.schema.Description)

	var rows []ports.Row
	var err error
	if c.schema.PageRows != nil {
		rows, err = c.schema.PageRows(ctx, c.pc)
	} else {
		var order []ports.OrderKey
		order, err = c.schema.OrderKeys()
		if err != nil {
			return nil, err
		}
		rows, err = c.pc.Rows.Select(ctx, ports.Query{Table: c.schema.Table, Order: order})
	}
	if err != nil {
		return nil, fmt.Errorf("all %s: %w", c.schema.Name, err)
	}

	recs := make([]*Record, 0, len(rows))
	for _, row := range rows {
		rec, err := FromRow(ctx, c.pc, c.schema, row)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
		c.pc.Progress.ReportSubtask("\tProcessed: " + rec.String())
	}
	return recs, nil
}

// Criterion is one filter conjunct. Key is a field name optionally suffixed
// with a double-underscore operator: eq, neq, lt, lte, gt, gte, like.
// A bare field name means equality.
type Criterion struct {
	Key   string
	Value any
}

var criterionOps = map[string]ports.Op{
	"eq":   ports.OpEq,
	"neq":  ports.OpNeq,
	"lt":   ports.OpLt,
	"lte":  ports.OpLte,
	"gt":   ports.OpGt,
	"gte":  ports.OpGte,
	"like": ports.OpLike,
}

func (cr Criterion) cond() (ports.Cond, error) {
	field, opName := cr.Key, "eq"
	if i := strings.Index(cr.Key, "__"); i >= 0 {
		field, opName = cr.Key[:i], cr.Key[i+2:]
	}
	op, ok := criterionOps[opName]
	if !ok {
		return ports.Cond{}, fmt.Errorf("criterion %q: unknown operator %q", cr.Key, opName)
	}
	if !ValidIdentifier(field) {
		return ports.Cond{}, fmt.Errorf("criterion %q: %w", cr.Key, ports.ErrBadIdentifier)
	}
	return ports.Cond{Field: field, Op: op, Value: cr.Value}, nil
}

// Where builds a filter criterion; sugar for composing Filter calls.
func Where(key string, value any) Criterion {
	return Criterion{Key: key, Value: value}
}

// Filter fetches records matching all criteria (logical AND), ordered by the
// schema's default ordering. Criterion values travel as bound parameters.
func (c *Collection) Filter(ctx context.Context, crits ...Criterion) ([]*Record, error) {
	if c.schema.PageRows != nil {
		return nil, fmt.Errorf("filter %s: page-scraped modules are not filterable", c.schema.Name)
	}
	order, err := c.schema.OrderKeys()
	if err != nil {
		return nil, err
	}
	q := ports.Query{Table: c.schema.Table, Order: order}
	for _, cr := range crits {
		cond, err := cr.cond()
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", c.schema.Name, err)
		}
		q.Where = append(q.Where, cond)
	}
	rows, err := c.pc.Rows.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", c.schema.Name, err)
	}
	recs := make([]*Record, 0, len(rows))
	for _, row := range rows {
		rec, err := FromRow(ctx, c.pc, c.schema, row)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Count returns the number of records without materializing field data.
// Backend failures degrade to 0 so that a partially reachable PBX still
// documents what it can.
func (c *Collection) Count(ctx context.Context) int {
	if c.schema.PageRows != nil {
		rows, err := c.schema.PageRows(ctx, c.pc)
		if err != nil {
			return 0
		}
		return len(rows)
	}
	n, err := c.pc.Rows.Count(ctx, c.schema.Table)
	if err != nil {
		return 0
	}
	return n
}
