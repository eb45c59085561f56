package render

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pbxtools/pbxdoc/core/model"
	"github.com/pbxtools/pbxdoc/core/registry"
	"github.com/pbxtools/pbxdoc/ports"
)

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
	var out []ports.Row
	for _, row := range m.tables[q.Table] {
		keep := true
		for _, c := range q.Where {
			if fmt.Sprint(row[c.Field]) != fmt.Sprint(c.Value) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memRows) Count(_ context.Context, table string) (int, error) {
	return len(m.tables[table]), nil
}

func testContext(t *testing.T, tables map[string][]ports.Row, schemas ...*model.Schema) *model.Context {
	t.Helper()
	reg := registry.New()
	reg.MustRegister(schemas...)
	return &model.Context{
		Schemas: reg,
		Rows:    &memRows{tables: tables},
		Log:     zerolog.Nop(),
	}
}

func TestCapFirst(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"ring strategy", "Ring strategy"},
		{"CID", "CID"},
	}
	for _, tt := range tests {
		if got := CapFirst(tt.in); got != tt.want {
			t.Errorf("CapFirst(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSection_LayoutNoneRendersNothing(t *testing.T) {
	pc := testContext(t, nil, &model.Schema{
		Name:    "FeatureCode",
		Table:   "featurecodes",
		PKField: "modulename",
		Layout:  model.LayoutNone,
		Fields:  []*model.Definition{model.String("modulename", "")},
	})
	got, err := Section(context.Background(), pc.Collection("FeatureCode"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("got %q", got)
	}
}

func TestSection_EmptyModuleRendersNothing(t *testing.T) {
	pc := testContext(t, nil, &model.Schema{
		Name:        "Extension",
		Description: "Extensions",
		ItemName:    "Extension",
		Table:       "users",
		PKField:     "extension",
		Repr:        "{extension}",
		Layout:      model.LayoutList,
		Fields:      []*model.Definition{model.String("extension", "extension")},
	})
	got, err := Section(context.Background(), pc.Collection("Extension"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("got %q", got)
	}
}

func TestListSection(t *testing.T) {
	pc := testContext(t, map[string][]ports.Row{
		"users": {
			{"extension": "201", "name": "Front Desk", "voicemail": "novm"},
			{"extension": "202", "name": "Back Office", "voicemail": nil},
		},
	}, &model.Schema{
		Name:        "Extension",
		Description: "Extensions",
		ItemName:    "Extension",
		Table:       "users",
		PKField:     "extension",
		Repr:        "{name} <{extension}>",
		Layout:      model.LayoutList,
		Fields: []*model.Definition{
			model.String("extension", "extension"),
			model.String("name", "name"),
			model.String("voicemail", "voicemail"),
		},
	})

	got, err := Section(context.Background(), pc.Collection("Extension"))
	if err != nil {
		t.Fatal(err)
	}

	wantLines := []string{
		"== Extensions ==",
		"=== <div id='Extension-201'>Extension: Front Desk <201></div> ===",
		"* Extension: '''201'''",
		"* Name: '''Front Desk'''",
		"* Voicemail: '''novm'''",
		"=== <div id='Extension-202'>Extension: Back Office <202></div> ===",
	}
	for _, want := range wantLines {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
	// The absent voicemail value greys out instead of vanishing.
	if !strings.Contains(got, "* Voicemail: '''<span style='color:#AAAAAA'>(empty)</span>'''") {
		t.Errorf("null field not greyed out:\n%s", got)
	}
}

func TestListSection_ChildRecordsNest(t *testing.T) {
	entries := &model.Schema{
		Name:     "IVREntry",
		Table:    "ivr_dests",
		PKField:  "ivr_id",
		Ordering: "ivr_id,selection",
		Repr:     "{selection}",
		Fields: []*model.Definition{
			model.String("ivr_id", ""),
			model.String("selection", "selection"),
		},
	}
	parent := &model.Schema{
		Name:        "IVR",
		Description: "IVRs",
		ItemName:    "IVR",
		Table:       "ivr",
		PKField:     "ivr_id",
		Repr:        "{displayname}",
		Layout:      model.LayoutList,
		Fields: []*model.Definition{
			model.String("ivr_id", ""),
			model.String("displayname", "name"),
			model.ManyToMany("entries", "IVR entries", "IVREntry", "ivr_id"),
		},
	}
	pc := testContext(t, map[string][]ports.Row{
		"ivr":       {{"ivr_id": "3", "displayname": "Main menu"}},
		"ivr_dests": {{"ivr_id": "3", "selection": "1"}, {"ivr_id": "3", "selection": "2"}},
	}, entries, parent)

	got, err := Section(context.Background(), pc.Collection("IVR"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "* IVR entries:\n** 1\n** 2") {
		t.Errorf("children not nested:\n%s", got)
	}
}

func TestTableSection(t *testing.T) {
	pc := testContext(t, map[string][]ports.Row{
		"blacklist": {
			{"number": "5550100", "description": "spam"},
			{"number": "5550111", "description": "robocaller"},
		},
	}, &model.Schema{
		Name:        "Blacklist",
		Description: "Blacklist",
		ItemName:    "Blacklist",
		Table:       "blacklist",
		PKField:     "number",
		Repr:        "{description}",
		Layout:      model.LayoutTable,
		Fields: []*model.Definition{
			model.String("number", "Number/CID"),
			model.String("description", "description"),
		},
	})

	got, err := Section(context.Background(), pc.Collection("Blacklist"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"== Blacklist ==",
		`{| border="1" cellspacing="0" cellpadding="2"`,
		"!Number/CID",
		"!Description",
		"|5550100\n|spam\n|----",
		"|5550111\n|robocaller\n|----",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "|}") {
		t.Errorf("table not closed:\n%s", got)
	}
}
