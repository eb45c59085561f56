package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pbxtools/pbxdoc/core/model"
	"github.com/pbxtools/pbxdoc/ports"
)

func TestNew_RegistersWholeCatalog(t *testing.T) {
	reg, err := New()
	if err != nil {
		t.Fatalf("catalog must register cleanly: %v", err)
	}

	names := reg.Names()
	if len(names) != len(Schemas()) {
		t.Fatalf("registered %d modules, declared %d", len(names), len(Schemas()))
	}
	for _, name := range []string{
		"InboundRoute", "Queue", "Extension", "Blacklist", "IVR", "IVREntry",
		"RingGroup", "TimeCondition", "TimeGroup", "Announcement", "Recording",
		"FeatureCode",
	} {
		if reg.Lookup(name) == nil {
			t.Errorf("module %s not registered", name)
		}
	}
}

func TestCatalog_DestPatternsCapture(t *testing.T) {
	reg, err := New()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range reg.DestPatterns() {
		if p.Regex.NumSubexp() < 1 {
			t.Errorf("%s: destination regex %q has no capture group", p.Module, p.Regex)
		}
	}
}

func TestCatalog_ExtensionDestRegex(t *testing.T) {
	reg, err := New()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range reg.DestPatterns() {
		if p.Module != "Extension" {
			continue
		}
		m := p.Regex.FindStringSubmatch("from-did-direct,201,1")
		if m == nil || m[1] != "201" {
			t.Errorf("got %v", m)
		}
		return
	}
	t.Fatal("Extension has no destination pattern")
}

// scrapedPage serves a fixed blacklist table.
type scrapedPage struct{}

func (scrapedPage) Text(loc ports.PageLocation) (string, error) {
	return "", fmt.Errorf("no element at %s", loc)
}

func (scrapedPage) TableAfter(heading string) ([][]string, error) {
	if heading != "Blacklist entries" {
		return nil, fmt.Errorf("no table after %q", heading)
	}
	return [][]string{
		{"5550100", "spam"},
		{"5550111", "robocaller"},
		{"trailer"}, // malformed row, skipped
	}, nil
}

type scrapedPages struct{ err error }

func (p scrapedPages) Fetch(context.Context, map[string]string) (ports.Page, error) {
	if p.err != nil {
		return nil, p.err
	}
	return scrapedPage{}, nil
}

func (scrapedPages) URL(map[string]string) string { return "" }

func TestBlacklistRows(t *testing.T) {
	pc := &model.Context{Pages: scrapedPages{}, Log: zerolog.Nop()}
	rows, err := blacklistRows(context.Background(), pc)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0]["number"] != "5550100" || rows[0]["description"] != "spam" {
		t.Errorf("got %v", rows[0])
	}
}

func TestBlacklistRows_NoPageSource(t *testing.T) {
	pc := &model.Context{Log: zerolog.Nop()}
	rows, err := blacklistRows(context.Background(), pc)
	if err != nil {
		t.Fatal(err)
	}
	if rows != nil {
		t.Errorf("expected no rows without a page source, got %v", rows)
	}
}

// memRows backs the label tests with canned tables.
type memRows struct {
	tables map[string][]ports.Row
}

func (m *memRows) Get(_ context.Context, table, pkField string, pk any) (ports.Row, error) {
	for _, row := range m.tables[table] {
		if fmt.Sprint(row[pkField]) == fmt.Sprint(pk) {
			return row, nil
		}
	}
	return nil, nil
}

func (m *memRows) Select(_ context.Context, q ports.Query) ([]ports.Row, error) {
	return m.tables[q.Table], nil
}

func (m *memRows) Count(_ context.Context, table string) (int, error) {
	return len(m.tables[table]), nil
}

func catalogContext(t *testing.T, tables map[string][]ports.Row) *model.Context {
	t.Helper()
	reg, err := New()
	if err != nil {
		t.Fatal(err)
	}
	return &model.Context{
		Schemas: reg,
		Rows:    &memRows{tables: tables},
		Log:     zerolog.Nop(),
	}
}

func TestDirectoryEntryLabel_UserType(t *testing.T) {
	pc := catalogContext(t, map[string][]ports.Row{
		"users": {{"extension": "201", "name": "Front Desk"}},
	})
	rec, err := model.FromRow(context.Background(), pc, pc.Schemas.Lookup("DirectoryEntry"),
		ports.Row{"id": 1, "name": "stale name", "audio": "vm", "type": "user", "foreign_id": 201, "dial": ""})
	if err != nil {
		t.Fatal(err)
	}
	label, err := rec.Label(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if label != "Front Desk (Voicemail Greeting): 201" {
		t.Errorf("got %q", label)
	}
}

func TestDirectoryEntryLabel_CustomWithRecording(t *testing.T) {
	pc := catalogContext(t, map[string][]ports.Row{
		"recordings": {{"id": 7, "displayname": "Welcome"}},
	})
	rec, err := model.FromRow(context.Background(), pc, pc.Schemas.Lookup("DirectoryEntry"),
		ports.Row{"id": 2, "name": "Night Bell", "audio": "7", "type": "custom", "dial": "5550100"})
	if err != nil {
		t.Fatal(err)
	}
	label, err := rec.Label(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if label != "Night Bell (Recording: Welcome): 5550100" {
		t.Errorf("got %q", label)
	}
}
