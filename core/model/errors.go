package model

import "fmt"

// MalformedValueError reports raw data that cannot be normalized to its
// declared field kind. Fatal for the record being materialized.
type MalformedValueError struct {
	Field string
	Kind  string
	Raw   any
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("field %q: cannot normalize %v as %s", e.Field, e.Raw, e.Kind)
}

// UnknownEnumError reports an enum key with no entry in the field's label
// table. Fatal for the record being materialized.
type UnknownEnumError struct {
	Field string
	Key   string
}

func (e *UnknownEnumError) Error() string {
	return fmt.Sprintf("field %q: unknown enum value %q", e.Field, e.Key)
}

// UnresolvedTemplateFieldError reports a repr template placeholder that names
// a field absent from the record instance.
type UnresolvedTemplateFieldError struct {
	Module      string
	Placeholder string
}

func (e *UnresolvedTemplateFieldError) Error() string {
	return fmt.Sprintf("module %s: repr template references uninstanced field %q", e.Module, e.Placeholder)
}
