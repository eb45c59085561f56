package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/pbxtools/pbxdoc/ports"
)

// Record is one materialized configuration entity: a schema bound to one
// row's populated fields. Immutable after construction. Every declared field
// has an instance; missing raw data populates an explicit "no value"
// instance, never an absent entry.
type Record struct {
	schema *Schema
	pc     *Context
	fields map[string]*Instance
}

// FromRow materializes a record from one raw row. A nil row yields a nil
// record ("no such record", distinct from an empty one).
//
// Population order: page-located fields are read from the scraped admin page
// first (a fetch failure defaults the field to no value rather than aborting
// the record); a many-to-many field absent from the row falls back to the
// record's own primary-key value as its lookup key; any other absent or nil
// raw value becomes a "no value" instance.
func FromRow(ctx context.Context, pc *Context, s *Schema, row ports.Row) (*Record, error) {
	if row == nil {
		return nil, nil
	}

	if s.PageBacked() && s.ConfigParams != nil && pc.Pages != nil {
		params := s.ConfigParams(func(f string) string { return rawString(row[f]) })
		page, err := pc.Pages.Fetch(ctx, params)
		for _, def := range s.Fields {
			if def.Page == nil {
				continue
			}
			if err != nil {
				row[def.Name] = nil
				continue
			}
			text, terr := page.Text(*def.Page)
			if terr != nil {
				row[def.Name] = nil
				continue
			}
			row[def.Name] = text
		}
		if err != nil {
			pc.Log.Warn().Err(err).Str("module", s.Name).Msg("admin page fetch failed; page fields left empty")
		}
	}

	r := &Record{schema: s, pc: pc, fields: make(map[string]*Instance, len(s.Fields))}
	for _, def := range s.Fields {
		raw, present := row[def.Name]
		if !present {
			if _, m2m := def.Kind.(*ManyToManyKind); m2m {
				raw, present = row[s.PKField], true
			}
		}
		if !present || raw == nil {
			r.fields[def.Name] = &Instance{def: def, pc: pc}
			continue
		}
		v, err := def.Kind.Normalize(ctx, pc, def, raw)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", s.Name, err)
		}
		r.fields[def.Name] = &Instance{def: def, pc: pc, value: v}
	}
	return r, nil
}

// Schema returns the record's schema.
func (r *Record) Schema() *Schema { return r.schema }

// Context returns the owning PBX context.
func (r *Record) Context() *Context { return r.pc }

// Field returns the instance for name, or nil when the schema does not
// declare it.
func (r *Record) Field(name string) *Instance {
	return r.fields[name]
}

// Fields returns the record's instances in schema declaration order.
func (r *Record) Fields() []*Instance {
	out := make([]*Instance, 0, len(r.schema.Fields))
	for _, def := range r.schema.Fields {
		out = append(out, r.fields[def.Name])
	}
	return out
}

// keyText is the rendered primary key value.
func (r *Record) keyText() string {
	inst := r.fields[r.schema.PKField]
	if inst == nil {
		return ""
	}
	text, err := inst.Render(context.Background())
	if err != nil {
		return ""
	}
	return text
}

// UID is the record's stable identity, used as a cross-reference anchor.
func (r *Record) UID() string {
	return fmt.Sprintf("%s-%s", r.schema.Name, r.keyText())
}

// Label renders the record's one-line text representation from the schema's
// repr template (or custom repr function). A placeholder naming an
// uninstanced field is an error.
func (r *Record) Label(ctx context.Context) (string, error) {
	if r.schema.ReprFunc != nil {
		return r.schema.ReprFunc(ctx, r)
	}
	out := r.schema.Repr
	for _, m := range reprPlaceholder.FindAllStringSubmatch(r.schema.Repr, -1) {
		name := m[1]
		inst, ok := r.fields[name]
		if !ok {
			return "", &UnresolvedTemplateFieldError{Module: r.schema.Name, Placeholder: name}
		}
		text, err := inst.Render(ctx)
		if err != nil {
			return "", err
		}
		out = strings.Replace(out, m[0], text, 1)
	}
	return out, nil
}

// String implements fmt.Stringer for logs; rendering errors surface inline.
func (r *Record) String() string {
	label, err := r.Label(context.Background())
	if err != nil {
		return fmt.Sprintf("%s(!%v)", r.schema.Name, err)
	}
	return label
}

// ConfigURL returns the browsable admin-page URL for this record, or "" when
// the module has no admin page or no page source is wired.
func (r *Record) ConfigURL() string {
	if r.schema.ConfigParams == nil || r.pc.Pages == nil {
		return ""
	}
	params := r.schema.ConfigParams(func(f string) string {
		inst := r.fields[f]
		if inst == nil {
			return ""
		}
		text, err := inst.Render(context.Background())
		if err != nil {
			return ""
		}
		return text
	})
	return r.pc.Pages.URL(params)
}
