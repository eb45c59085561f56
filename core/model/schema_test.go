package model

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/pbxtools/pbxdoc/ports"
)

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want []ports.OrderKey
	}{
		{"bare field ascends", "extension", []ports.OrderKey{{Field: "extension"}}},
		{"plus suffix ascends", "extension+", []ports.OrderKey{{Field: "extension"}}},
		{"minus suffix descends", "extension-", []ports.OrderKey{{Field: "extension", Desc: true}}},
		{"comma separated keys", "modulename,description-",
			[]ports.OrderKey{{Field: "modulename"}, {Field: "description", Desc: true}}},
		{"spaces around keys", "a , b", []ports.OrderKey{{Field: "a"}, {Field: "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOrdering(tt.spec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseOrdering_BadIdentifier(t *testing.T) {
	for _, spec := range []string{"extension;drop", "a b", "1abc", ""} {
		if _, err := parseOrdering(spec); !errors.Is(err, ports.ErrBadIdentifier) {
			t.Errorf("spec %q: expected ErrBadIdentifier, got %v", spec, err)
		}
	}
}

func TestSchema_OrderKeysDefaultsToPrimaryKey(t *testing.T) {
	s := extensionSchema()
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}
	keys, err := s.OrderKeys()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(keys, []ports.OrderKey{{Field: "extension"}}) {
		t.Errorf("got %#v", keys)
	}
}

func TestFinalize_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		schema *Schema
	}{
		{"missing name", &Schema{PKField: "id"}},
		{"missing primary key", &Schema{Name: "X"}},
		{"duplicate field", &Schema{
			Name:    "X",
			PKField: "id",
			Fields:  []*Definition{String("id", ""), String("id", "")},
		}},
		{"undeclared primary key", &Schema{
			Name:    "X",
			PKField: "id",
			Fields:  []*Definition{String("name", "")},
		}},
		{"bad ordering", &Schema{
			Name:     "X",
			PKField:  "id",
			Ordering: "id;--",
			Fields:   []*Definition{String("id", "")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.schema.Finalize(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFinalize_PageRowsSchemaNeedsNoDeclaredKey(t *testing.T) {
	s := &Schema{
		Name:    "Blacklist",
		PKField: "number",
		PageRows: func(ctx context.Context, pc *Context) ([]ports.Row, error) {
			return nil, nil
		},
		Fields: []*Definition{String("description", "description")},
	}
	// A page-backed schema is not required to declare its key as a field.
	if err := s.Finalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
