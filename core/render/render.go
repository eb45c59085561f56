// Package render turns materialized module records into wiki markup.
// Two layouts exist: a list layout with one subsection per record, and a
// table layout with one row per record.
package render

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pbxtools/pbxdoc/core/model"
)

const (
	noneMarker  = "<span style='color:#AAAAAA'>(none)</span>"
	emptyMarker = "<span style='color:#AAAAAA'>(empty)</span>"
)

// CapFirst upper-cases the first rune, leaving the rest untouched.
func CapFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// Section renders one module's document section. Modules with no records
// render as the empty string; modules with LayoutNone never render standalone.
func Section(ctx context.Context, col *model.Collection) (string, error) {
	schema := col.Schema()
	if schema.Layout == model.LayoutNone {
		return "", nil
	}
	recs, err := col.All(ctx)
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return "", nil
	}
	switch schema.Layout {
	case model.LayoutTable:
		return tableSection(ctx, schema, recs)
	default:
		return listSection(ctx, schema, recs)
	}
}

// listSection renders one titled subsection per record, one bullet per
// described field. Child-record lists nest one level deeper.
func listSection(ctx context.Context, schema *model.Schema, recs []*model.Record) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", schema.Description)

	for _, rec := range recs {
		label, err := rec.Label(ctx)
		if err != nil {
			return "", err
		}
		title := fmt.Sprintf("%s: %s", schema.ItemName, label)
		if url := rec.ConfigURL(); url != "" {
			title = fmt.Sprintf("[%s %s]", url, title)
		}
		fmt.Fprintf(&b, "=== <div id='%s'>%s</div> ===\n", rec.UID(), title)

		for _, inst := range rec.Fields() {
			desc := inst.Definition().Description
			switch v := inst.Value().(type) {
			case []*model.Record:
				if len(v) == 0 {
					fmt.Fprintf(&b, "* %s: %s\n", CapFirst(desc), noneMarker)
					continue
				}
				fmt.Fprintf(&b, "* %s:\n", CapFirst(desc))
				for _, child := range v {
					childLabel, err := child.Label(ctx)
					if err != nil {
						return "", err
					}
					fmt.Fprintf(&b, "** %s\n", childLabel)
				}
			case []string:
				if len(v) == 0 {
					fmt.Fprintf(&b, "* %s: %s\n", CapFirst(desc), noneMarker)
					continue
				}
				if err := writeLine(ctx, &b, inst); err != nil {
					return "", err
				}
			default:
				if err := writeLine(ctx, &b, inst); err != nil {
					return "", err
				}
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// writeLine renders one "* Description: '''value'''" bullet, skipping fields
// with no description and greying out empty values.
func writeLine(ctx context.Context, b *strings.Builder, inst *model.Instance) error {
	desc := inst.Definition().Description
	if desc == "" {
		return nil
	}
	text, err := inst.Render(ctx)
	if err != nil {
		return err
	}
	if text == "" {
		text = emptyMarker
	}
	fmt.Fprintf(b, "* %s: '''%s'''\n", CapFirst(desc), text)
	return nil
}

// tableSection renders all records as one bordered table; columns are the
// described fields in schema order.
func tableSection(ctx context.Context, schema *model.Schema, recs []*model.Record) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", schema.Description)
	b.WriteString("{| border=\"1\" cellspacing=\"0\" cellpadding=\"2\"\n")

	for _, def := range schema.Fields {
		if def.Description != "" {
			fmt.Fprintf(&b, "!%s\n", CapFirst(def.Description))
		}
	}
	b.WriteString("|----\n")

	for _, rec := range recs {
		for _, inst := range rec.Fields() {
			if inst.Definition().Description == "" {
				continue
			}
			text, err := inst.Render(ctx)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "|%s\n", text)
		}
		b.WriteString("|----\n")
	}
	b.WriteString("|}")
	return b.String(), nil
}
