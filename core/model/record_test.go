package model

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pbxtools/pbxdoc/ports"
)

func TestFromRow_NilRowIsNilRecord(t *testing.T) {
	pc := newTestContext(t, &fakeRows{tables: nil}, extensionSchema())
	rec, err := FromRow(context.Background(), pc, pc.Schemas.Lookup("Extension"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %v", rec)
	}
}

func TestFromRow_AbsentFieldIsNoValue(t *testing.T) {
	pc := newTestContext(t, &fakeRows{tables: nil}, extensionSchema())
	rec, err := FromRow(context.Background(), pc, pc.Schemas.Lookup("Extension"),
		ports.Row{"extension": "201"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inst := rec.Field("name")
	if inst == nil {
		t.Fatal("every declared field must have an instance")
	}
	if !inst.IsNull() {
		t.Errorf("absent field should be null, got %v", inst.Value())
	}
	text, err := inst.Render(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("null field renders %q", text)
	}
}

func TestFromRow_NormalizeErrorNamesModule(t *testing.T) {
	s := &Schema{
		Name:    "Queue",
		PKField: "extension",
		Fields: []*Definition{
			String("extension", "queue number"),
			Int("maxwait", "max wait time"),
		},
	}
	pc := newTestContext(t, &fakeRows{tables: nil}, s)

	_, err := FromRow(context.Background(), pc, s, ports.Row{"extension": "600", "maxwait": "soon"})
	if err == nil {
		t.Fatal("expected error")
	}
	var mv *MalformedValueError
	if !errors.As(err, &mv) {
		t.Fatalf("expected MalformedValueError, got %v", err)
	}
}

func TestFromRow_ManyToManyFallsBackToOwnKey(t *testing.T) {
	entries := &Schema{
		Name:     "IVREntry",
		Table:    "ivr_dests",
		PKField:  "ivr_id",
		Ordering: "ivr_id,selection",
		Repr:     "{selection}",
		Fields: []*Definition{
			String("ivr_id", ""),
			String("selection", "selection"),
		},
	}
	parent := &Schema{
		Name:    "IVR",
		Table:   "ivr",
		PKField: "ivr_id",
		Repr:    "{displayname}",
		Fields: []*Definition{
			String("ivr_id", ""),
			String("displayname", "name"),
			ManyToMany("entries", "entries", "IVREntry", "ivr_id"),
		},
	}
	rows := &fakeRows{tables: map[string][]ports.Row{
		"ivr_dests": {
			{"ivr_id": "3", "selection": "1"},
			{"ivr_id": "3", "selection": "2"},
			{"ivr_id": "4", "selection": "9"},
		},
	}}
	pc := newTestContext(t, rows, entries, parent)

	// The row carries no "entries" value; the record's own key drives the join.
	rec, err := FromRow(context.Background(), pc, parent, ports.Row{"ivr_id": "3", "displayname": "Main menu"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	children, ok := rec.Field("entries").Value().([]*Record)
	if !ok {
		t.Fatalf("entries value is %T", rec.Field("entries").Value())
	}
	if len(children) != 2 {
		t.Fatalf("got %d children, want 2", len(children))
	}
}

func TestFromRow_PageFetchFailureLeavesFieldEmpty(t *testing.T) {
	s := &Schema{
		Name:    "Queue",
		Table:   "queues_config",
		PKField: "extension",
		Repr:    "{descr}",
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "queues", "extdisplay": get("extension")}
		},
		Fields: []*Definition{
			String("extension", "queue number"),
			String("descr", "name"),
			String("members", "static agents").At(ports.PageLocation{Tag: "textarea", Attr: "id", Value: "members"}),
		},
	}
	pc := newTestContext(t, &fakeRows{tables: nil}, s)
	pc.Pages = &fakePages{err: fmt.Errorf("connection refused")}

	rec, err := FromRow(context.Background(), pc, s, ports.Row{"extension": "600", "descr": "Support"})
	if err != nil {
		t.Fatalf("fetch failure must not fail the record: %v", err)
	}
	if !rec.Field("members").IsNull() {
		t.Errorf("page field should degrade to no value")
	}
	if rec.Field("descr").Value() != "Support" {
		t.Errorf("database fields must survive a page failure")
	}
}

func TestFromRow_PageFieldPopulated(t *testing.T) {
	s := &Schema{
		Name:    "Queue",
		Table:   "queues_config",
		PKField: "extension",
		Repr:    "{descr}",
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "queues", "extdisplay": get("extension")}
		},
		Fields: []*Definition{
			String("extension", "queue number"),
			String("descr", "name"),
			String("members", "static agents").At(ports.PageLocation{Tag: "textarea", Attr: "id", Value: "members"}),
		},
	}
	pc := newTestContext(t, &fakeRows{tables: nil}, s)
	pc.Pages = &fakePages{page: &fakePage{text: map[string]string{"members": "Local/201@from-queue"}}}

	rec, err := FromRow(context.Background(), pc, s, ports.Row{"extension": "600", "descr": "Support"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Field("members").Value(); got != "Local/201@from-queue" {
		t.Errorf("got %v", got)
	}
}

func TestRecord_UID(t *testing.T) {
	pc := newTestContext(t, &fakeRows{tables: nil}, extensionSchema())
	rec, err := FromRow(context.Background(), pc, pc.Schemas.Lookup("Extension"),
		ports.Row{"extension": "201", "name": "Front Desk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.UID(); got != "Extension-201" {
		t.Errorf("got %q", got)
	}
}

func TestRecord_LabelTemplate(t *testing.T) {
	pc := newTestContext(t, &fakeRows{tables: nil}, extensionSchema())
	rec, _ := FromRow(context.Background(), pc, pc.Schemas.Lookup("Extension"),
		ports.Row{"extension": "201", "name": "Front Desk"})

	label, err := rec.Label(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != "Front Desk <201>" {
		t.Errorf("got %q", label)
	}
}

func TestRecord_LabelUnresolvedPlaceholder(t *testing.T) {
	s := &Schema{
		Name:    "Announcement",
		Table:   "announcement",
		PKField: "announcement_id",
		Repr:    "{description}", // not a declared field
		Fields: []*Definition{
			String("announcement_id", ""),
		},
	}
	pc := newTestContext(t, &fakeRows{tables: nil}, s)
	rec, _ := FromRow(context.Background(), pc, s, ports.Row{"announcement_id": "1"})

	_, err := rec.Label(context.Background())
	var ue *UnresolvedTemplateFieldError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnresolvedTemplateFieldError, got %v", err)
	}
	if ue.Placeholder != "description" {
		t.Errorf("error names placeholder %q", ue.Placeholder)
	}
}

func TestRecord_ConfigURL(t *testing.T) {
	s := extensionSchema()
	s.ConfigParams = func(get func(string) string) map[string]string {
		return map[string]string{"display": "extensions", "extdisplay": get("extension")}
	}
	pc := newTestContext(t, &fakeRows{tables: nil}, s)
	pc.Pages = &fakePages{page: &fakePage{}}

	rec, _ := FromRow(context.Background(), pc, s, ports.Row{"extension": "201", "name": "Front Desk"})
	if got := rec.ConfigURL(); got != "http://pbx/admin/config.php?display=extensions" {
		t.Errorf("got %q", got)
	}
}

func TestRecord_ConfigURLWithoutPageSource(t *testing.T) {
	s := extensionSchema()
	s.ConfigParams = func(get func(string) string) map[string]string {
		return map[string]string{"display": "extensions"}
	}
	pc := newTestContext(t, &fakeRows{tables: nil}, s)

	rec, _ := FromRow(context.Background(), pc, s, ports.Row{"extension": "201"})
	if got := rec.ConfigURL(); got != "" {
		t.Errorf("got %q", got)
	}
}
