package model

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pbxtools/pbxdoc/ports"
)

// fakeRows is an in-memory RowSource for tests.
type fakeRows struct {
	tables map[string][]ports.Row
	err    error
}

func (f *fakeRows) Get(_ context.Context, table, pkField string, pk any) (ports.Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, row := range f.tables[table] {
		if fmt.Sprint(row[pkField]) == fmt.Sprint(pk) {
			return cloneRow(row), nil
		}
	}
	return nil, nil
}

func (f *fakeRows) Select(_ context.Context, q ports.Query) ([]ports.Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []ports.Row
	for _, row := range f.tables[q.Table] {
		if matchAll(row, q.Where) {
			out = append(out, cloneRow(row))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range q.Order {
			a, b := fmt.Sprint(out[i][k.Field]), fmt.Sprint(out[j][k.Field])
			if a == b {
				continue
			}
			less := compareRaw(a, b)
			if k.Desc {
				return !less
			}
			return less
		}
		return false
	})
	return out, nil
}

func (f *fakeRows) Count(_ context.Context, table string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.tables[table]), nil
}

func cloneRow(row ports.Row) ports.Row {
	out := make(ports.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func matchAll(row ports.Row, conds []ports.Cond) bool {
	for _, c := range conds {
		have, want := fmt.Sprint(row[c.Field]), fmt.Sprint(c.Value)
		var ok bool
		switch c.Op {
		case ports.OpEq:
			ok = have == want
		case ports.OpNeq:
			ok = have != want
		case ports.OpLt:
			ok = compareRaw(have, want)
		case ports.OpLte:
			ok = have == want || compareRaw(have, want)
		case ports.OpGt:
			ok = have != want && !compareRaw(have, want)
		case ports.OpGte:
			ok = !compareRaw(have, want)
		case ports.OpLike:
			ok = strings.Contains(have, strings.Trim(want, "%"))
		}
		if !ok {
			return false
		}
	}
	return true
}

// compareRaw orders numerically when both sides parse as integers.
func compareRaw(a, b string) bool {
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return an < bn
	}
	return a < b
}

// fakeSchemas is an in-memory SchemaSource for tests.
type fakeSchemas struct {
	order []string
	m     map[string]*Schema
}

func (f *fakeSchemas) Lookup(name string) *Schema { return f.m[name] }
func (f *fakeSchemas) Names() []string            { return f.order }

// fakePage serves canned text per location.
type fakePage struct {
	text map[string]string
}

func (p *fakePage) Text(loc ports.PageLocation) (string, error) {
	if v, ok := p.text[loc.Value]; ok {
		return v, nil
	}
	return "", fmt.Errorf("no element at %s", loc)
}

func (p *fakePage) TableAfter(string) ([][]string, error) {
	return nil, fmt.Errorf("no tables")
}

// fakePages serves one page for every fetch, or a fixed error.
type fakePages struct {
	page *fakePage
	err  error
}

func (f *fakePages) Fetch(context.Context, map[string]string) (ports.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakePages) URL(params map[string]string) string {
	return "http://pbx/admin/config.php?display=" + params["display"]
}

func newTestContext(t *testing.T, rows *fakeRows, schemas ...*Schema) *Context {
	t.Helper()
	src := &fakeSchemas{m: make(map[string]*Schema)}
	for _, s := range schemas {
		if err := s.Finalize(); err != nil {
			t.Fatalf("finalize %s: %v", s.Name, err)
		}
		src.m[s.Name] = s
		src.order = append(src.order, s.Name)
	}
	return &Context{
		Schemas: src,
		Rows:    rows,
		Log:     zerolog.Nop(),
	}
}

// extensionSchema is a minimal cross-reference target used by several tests.
func extensionSchema() *Schema {
	return &Schema{
		Name:        "Extension",
		Description: "Extensions",
		ItemName:    "Extension",
		Table:       "users",
		PKField:     "extension",
		Repr:        "{name} <{extension}>",
		Layout:      LayoutList,
		Fields: []*Definition{
			String("extension", "extension"),
			String("name", "name"),
		},
	}
}
