package model

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pbxtools/pbxdoc/ports"
)

// Kind describes how one field kind turns a raw source value into a typed
// value and back into text. Normalize and Render are pure functions of their
// inputs; kinds that cross module boundaries additionally read the owning
// Context.
type Kind interface {
	Name() string
	Normalize(ctx context.Context, pc *Context, def *Definition, raw any) (any, error)
	Render(ctx context.Context, pc *Context, def *Definition, v any) (string, error)
}

// Definition is the static, schema-level description of one field.
// Immutable once declared.
type Definition struct {
	Name        string
	Description string
	Kind        Kind
	Page        *ports.PageLocation
}

// At attaches a page-location descriptor: the raw value is read from scraped
// admin-page markup instead of the database row. Returns the definition for
// declaration chaining.
func (d *Definition) At(loc ports.PageLocation) *Definition {
	d.Page = &loc
	return d
}

// Instance is a Definition bound to one record's value. The value is nil
// when the source had no data for this field. Instances are never mutated
// after population.
type Instance struct {
	def   *Definition
	pc    *Context
	value any
}

// Definition returns the static definition this instance was populated from.
func (i *Instance) Definition() *Definition { return i.def }

// Value returns the normalized value, or nil for "no value".
func (i *Instance) Value() any { return i.value }

// IsNull reports whether the field was populated with no value.
func (i *Instance) IsNull() bool { return i.value == nil }

// Render returns the field's text form. Cross-referencing kinds re-run their
// lookup on every call; nothing is cached on the instance.
func (i *Instance) Render(ctx context.Context) (string, error) {
	return i.def.Kind.Render(ctx, i.pc, i.def, i.value)
}

// Resolve reports how a foreign-key field dereferences, distinguishing an
// intentional special value from a lookup that genuinely failed. Returns the
// zero Resolution for non-reference kinds.
func (i *Instance) Resolve(ctx context.Context) Resolution {
	fk, ok := i.def.Kind.(*ForeignKeyKind)
	if !ok || i.value == nil {
		return Resolution{}
	}
	return fk.Resolve(ctx, i.pc, i.value)
}

// ResolutionState classifies the outcome of a cross-module dereference.
type ResolutionState int

const (
	// ResolutionNone means the field does not reference anything.
	ResolutionNone ResolutionState = iota
	// ResolutionRecord means the target record was found.
	ResolutionRecord
	// ResolutionSpecial means the raw value matched a configured literal.
	ResolutionSpecial
	// ResolutionMissing means the lookup failed; rendering degrades to a
	// fallback label instead of propagating.
	ResolutionMissing
)

// Resolution is the typed result of a cross-module dereference.
type Resolution struct {
	State  ResolutionState
	Record *Record
	Label  string
}

// rawString coerces a raw source value to text. Byte sequences are decoded
// as UTF-8.
func rawString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		if utf8.Valid(v) {
			return string(v)
		}
		return strings.ToValidUTF8(string(v), "�")
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// -----------------------------------------------------------------------------
// Integer
// -----------------------------------------------------------------------------

// IntValue is a normalized integer. The PBX stores the literal "disabled" in
// some numeric columns; that becomes the Disabled sentinel.
type IntValue struct {
	N        int64
	Disabled bool
}

// IntKind normalizes integer columns.
type IntKind struct{}

func (IntKind) Name() string { return "int" }

func (IntKind) Normalize(_ context.Context, _ *Context, def *Definition, raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return IntValue{N: int64(v)}, nil
	case int64:
		return IntValue{N: v}, nil
	}
	s := rawString(raw)
	if s == "" {
		return nil, nil
	}
	if s == "disabled" {
		return IntValue{Disabled: true}, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, &MalformedValueError{Field: def.Name, Kind: "int", Raw: raw}
	}
	return IntValue{N: n}, nil
}

func (IntKind) Render(_ context.Context, _ *Context, _ *Definition, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	iv := v.(IntValue)
	if iv.Disabled {
		return "Disabled", nil
	}
	return strconv.FormatInt(iv.N, 10), nil
}

// -----------------------------------------------------------------------------
// String
// -----------------------------------------------------------------------------

// StringKind normalizes text columns; byte sequences are decoded as UTF-8.
type StringKind struct{}

func (StringKind) Name() string { return "string" }

func (StringKind) Normalize(_ context.Context, _ *Context, _ *Definition, raw any) (any, error) {
	return rawString(raw), nil
}

func (StringKind) Render(_ context.Context, _ *Context, _ *Definition, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	return v.(string), nil
}

// -----------------------------------------------------------------------------
// Enum
// -----------------------------------------------------------------------------

// EnumValue is one entry of an enum label table.
type EnumValue struct {
	Key   string
	Label string
}

// EnumKind maps raw keys through an ordered label table.
type EnumKind struct {
	Values []EnumValue
}

func (EnumKind) Name() string { return "enum" }

func (k EnumKind) Normalize(_ context.Context, _ *Context, def *Definition, raw any) (any, error) {
	key := rawString(raw)
	for _, ev := range k.Values {
		if ev.Key == key {
			return key, nil
		}
	}
	return nil, &UnknownEnumError{Field: def.Name, Key: key}
}

func (k EnumKind) Render(_ context.Context, _ *Context, def *Definition, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	key := v.(string)
	for _, ev := range k.Values {
		if ev.Key == key {
			return ev.Label, nil
		}
	}
	return "", &UnknownEnumError{Field: def.Name, Key: key}
}

// -----------------------------------------------------------------------------
// List
// -----------------------------------------------------------------------------

// ListKind splits text on a separator into an ordered sequence. Order is
// preserved and duplicates are allowed.
type ListKind struct {
	Separator string
}

func (ListKind) Name() string { return "list" }

func (k ListKind) Normalize(_ context.Context, _ *Context, _ *Definition, raw any) (any, error) {
	return strings.Split(rawString(raw), k.Separator), nil
}

func (ListKind) Render(_ context.Context, _ *Context, _ *Definition, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	return strings.Join(v.([]string), " "), nil
}

// -----------------------------------------------------------------------------
// Boolean
// -----------------------------------------------------------------------------

// BoolKind is true only when the raw token equals the configured true token;
// every other token, including the empty string, is false.
type BoolKind struct {
	FalseToken string
	TrueToken  string
}

func (BoolKind) Name() string { return "bool" }

func (k BoolKind) Normalize(_ context.Context, _ *Context, _ *Definition, raw any) (any, error) {
	return rawString(raw) == k.TrueToken, nil
}

func (BoolKind) Render(_ context.Context, _ *Context, _ *Definition, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	if v.(bool) {
		return "True", nil
	}
	return "False", nil
}

// -----------------------------------------------------------------------------
// Foreign key
// -----------------------------------------------------------------------------

// ForeignKeyKind holds a raw key into another module. Values present in the
// Special map render as that literal label without a lookup; everything else
// dereferences by the target's primary key on every render.
type ForeignKeyKind struct {
	Module  string
	Special map[string]string
}

func (ForeignKeyKind) Name() string { return "fk" }

func (k *ForeignKeyKind) Normalize(_ context.Context, _ *Context, _ *Definition, raw any) (any, error) {
	return rawString(raw), nil
}

// Resolve dereferences the key. Lookup failures come back as
// ResolutionMissing so callers can tell a configured special value apart
// from a genuinely absent target.
func (k *ForeignKeyKind) Resolve(ctx context.Context, pc *Context, v any) Resolution {
	key := v.(string)
	if label, ok := k.Special[key]; ok {
		return Resolution{State: ResolutionSpecial, Label: label}
	}
	col := pc.Collection(k.Module)
	if col == nil {
		return Resolution{State: ResolutionMissing, Label: "None"}
	}
	rec, err := col.Get(ctx, key)
	if err != nil || rec == nil {
		return Resolution{State: ResolutionMissing, Label: "None"}
	}
	return Resolution{State: ResolutionRecord, Record: rec}
}

func (k *ForeignKeyKind) Render(ctx context.Context, pc *Context, _ *Definition, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	res := k.Resolve(ctx, pc, v)
	switch res.State {
	case ResolutionRecord:
		label, err := res.Record.Label(ctx)
		if err != nil {
			return "None", nil
		}
		return Link(res.Record.UID(), label), nil
	case ResolutionSpecial, ResolutionMissing:
		return res.Label, nil
	}
	return "", nil
}

// -----------------------------------------------------------------------------
// Many-to-many
// -----------------------------------------------------------------------------

// ManyToManyKind resolves child records at population time: the raw value
// (normally the parent's own primary key) is matched against Key on the
// target module.
type ManyToManyKind struct {
	Module string
	Key    string
}

func (ManyToManyKind) Name() string { return "m2m" }

func (k *ManyToManyKind) Normalize(ctx context.Context, pc *Context, def *Definition, raw any) (any, error) {
	col := pc.Collection(k.Module)
	if col == nil {
		return nil, &MalformedValueError{Field: def.Name, Kind: "m2m", Raw: k.Module}
	}
	children, err := col.Filter(ctx, Criterion{Key: k.Key, Value: rawString(raw)})
	if err != nil {
		return nil, err
	}
	return children, nil
}

func (ManyToManyKind) Render(ctx context.Context, _ *Context, _ *Definition, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	var parts []string
	for _, rec := range v.([]*Record) {
		label, err := rec.Label(ctx)
		if err != nil {
			return "", err
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", "), nil
}

// -----------------------------------------------------------------------------
// Routing destination
// -----------------------------------------------------------------------------

// DestinationKind holds a free-text routing target, interpreted lazily by the
// Context's destination resolver.
type DestinationKind struct{}

func (DestinationKind) Name() string { return "dest" }

func (DestinationKind) Normalize(_ context.Context, _ *Context, _ *Definition, raw any) (any, error) {
	return rawString(raw), nil
}

func (DestinationKind) Render(ctx context.Context, pc *Context, _ *Definition, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	s := v.(string)
	if s == "" {
		return "", nil
	}
	if pc.Dest == nil {
		return ErrorMarker("ERROR: Unknown destination '" + s + "'"), nil
	}
	return pc.Dest.Resolve(ctx, pc, s)
}

// -----------------------------------------------------------------------------
// Declaration constructors
// -----------------------------------------------------------------------------

// Int declares an integer field.
func Int(name, desc string) *Definition {
	return &Definition{Name: name, Description: desc, Kind: IntKind{}}
}

// String declares a text field.
func String(name, desc string) *Definition {
	return &Definition{Name: name, Description: desc, Kind: StringKind{}}
}

// Enum declares an enumerated field with an ordered label table.
func Enum(name, desc string, values ...EnumValue) *Definition {
	return &Definition{Name: name, Description: desc, Kind: EnumKind{Values: values}}
}

// List declares a separator-split list field.
func List(name, sep, desc string) *Definition {
	return &Definition{Name: name, Description: desc, Kind: ListKind{Separator: sep}}
}

// Bool declares a boolean field with its (false, true) token pair.
func Bool(name, desc, falseTok, trueTok string) *Definition {
	return &Definition{Name: name, Description: desc, Kind: BoolKind{FalseToken: falseTok, TrueToken: trueTok}}
}

// ForeignKey declares a reference into another module. Raw values present in
// special render as that label without dereferencing.
func ForeignKey(name, desc, module string, special map[string]string) *Definition {
	return &Definition{Name: name, Description: desc, Kind: &ForeignKeyKind{Module: module, Special: special}}
}

// ManyToMany declares a child-record list resolved by filtering module on key.
func ManyToMany(name, desc, module, key string) *Definition {
	return &Definition{Name: name, Description: desc, Kind: &ManyToManyKind{Module: module, Key: key}}
}

// Destination declares a free-text call routing target.
func Destination(name, desc string) *Definition {
	return &Definition{Name: name, Description: desc, Kind: DestinationKind{}}
}
