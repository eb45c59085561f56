package model

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pbxtools/pbxdoc/ports"
)

// Layout selects how a module is laid out in the generated document.
type Layout int

const (
	// LayoutNone marks modules that only appear through cross-references.
	LayoutNone Layout = iota
	// LayoutList renders one subsection per record.
	LayoutList
	// LayoutTable renders all records as one table.
	LayoutTable
)

// Schema is the static declaration of one configuration module. Immutable
// after registration.
type Schema struct {
	// Name identifies the module in the registry and in UIDs.
	Name string

	// Description is the plural display name ("Inbound Routes").
	Description string

	// ItemName is the singular display name ("Inbound Route").
	ItemName string

	// Table is the backing database table. Empty for page-scraped modules.
	Table string

	// PKField names the primary key field.
	PKField string

	// Ordering is the default ordering spec: comma-separated field names,
	// each optionally suffixed with "+" (ascending) or "-" (descending).
	// Empty means primary key ascending.
	Ordering string

	// Repr is the one-line label template; {field} placeholders are
	// substituted with the rendered field text.
	Repr string

	// ReprFunc overrides template-based labeling when set.
	ReprFunc func(ctx context.Context, r *Record) (string, error)

	// DestRegex recognizes this module inside routing-target strings; the
	// first capture group is the referenced primary key. Empty when the
	// module is never a routing target.
	DestRegex string

	// Layout selects the document layout for this module.
	Layout Layout

	// ConfigParams builds the admin-page query parameters for one record;
	// get returns a field's raw value as text. Nil when the module has no
	// admin page.
	ConfigParams func(get func(field string) string) map[string]string

	// PageRows materializes rows by scraping markup instead of querying the
	// database. Set only for modules with no relational backing.
	PageRows func(ctx context.Context, pc *Context) ([]ports.Row, error)

	// Fields declares the module's fields in document order.
	Fields []*Definition

	index      map[string]*Definition
	pageBacked bool
}

var reprPlaceholder = regexp.MustCompile(`\{([\w-]*)\}`)

// Finalize validates the declaration and builds the field index. Called by
// the registry on Register; not intended for direct use.
func (s *Schema) Finalize() error {
	if s.Name == "" {
		return fmt.Errorf("schema has no name")
	}
	if s.PKField == "" {
		return fmt.Errorf("schema %s: no primary key field", s.Name)
	}
	s.index = make(map[string]*Definition, len(s.Fields))
	for _, def := range s.Fields {
		if _, dup := s.index[def.Name]; dup {
			return fmt.Errorf("schema %s: duplicate field %q", s.Name, def.Name)
		}
		s.index[def.Name] = def
		if def.Page != nil {
			s.pageBacked = true
		}
	}
	if s.PageRows == nil {
		if _, ok := s.index[s.PKField]; !ok {
			return fmt.Errorf("schema %s: primary key %q not declared", s.Name, s.PKField)
		}
	}
	if _, err := s.OrderKeys(); err != nil {
		return err
	}
	return nil
}

// Field returns the definition for name, or nil when undeclared.
func (s *Schema) Field(name string) *Definition {
	return s.index[name]
}

// PageBacked reports whether any field reads its value from scraped markup.
func (s *Schema) PageBacked() bool { return s.pageBacked }

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s is safe to use as a table or field name
// inside a fetch request.
func ValidIdentifier(s string) bool {
	return identPattern.MatchString(s)
}

// OrderKeys parses the schema's ordering spec into ordered keys, defaulting
// to primary key ascending.
func (s *Schema) OrderKeys() ([]ports.OrderKey, error) {
	spec := s.Ordering
	if spec == "" {
		spec = s.PKField
	}
	return parseOrdering(spec)
}

func parseOrdering(spec string) ([]ports.OrderKey, error) {
	parts := strings.Split(spec, ",")
	keys := make([]ports.OrderKey, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		key := ports.OrderKey{Field: p}
		switch {
		case strings.HasSuffix(p, "-"):
			key = ports.OrderKey{Field: p[:len(p)-1], Desc: true}
		case strings.HasSuffix(p, "+"):
			key = ports.OrderKey{Field: p[:len(p)-1]}
		}
		if !ValidIdentifier(key.Field) {
			return nil, fmt.Errorf("ordering key %q: %w", p, ports.ErrBadIdentifier)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
