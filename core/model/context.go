package model

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pbxtools/pbxdoc/ports"
)

// SchemaSource is read access to the registered schema catalog. Implemented
// by registry.Registry; declared here so the model does not depend on it.
type SchemaSource interface {
	// Lookup returns the schema for name, or nil when unknown.
	Lookup(name string) *Schema

	// Names returns all registered module names in registration order.
	Names() []string
}

// DestResolver interprets free-text routing targets. Implemented by
// dest.Engine and injected at wiring time.
type DestResolver interface {
	Resolve(ctx context.Context, pc *Context, raw string) (string, error)
}

// Context bundles everything a record needs to populate and render its
// fields: the schema catalog and the injected collaborators. It is read-only
// once wired and shared by every collection and record.
type Context struct {
	Schemas  SchemaSource
	Rows     ports.RowSource
	Pages    ports.PageSource
	Progress ports.ProgressSink
	Dest     DestResolver
	Log      zerolog.Logger
}

// Collection returns a query handle for the named module, or nil when the
// module is unknown. Callers must handle absence.
func (c *Context) Collection(name string) *Collection {
	s := c.Schemas.Lookup(name)
	if s == nil {
		return nil
	}
	return &Collection{schema: s, pc: c}
}

// Collections returns query handles for every registered module in
// registration order.
func (c *Context) Collections() []*Collection {
	names := c.Schemas.Names()
	cols := make([]*Collection, 0, len(names))
	for _, n := range names {
		cols = append(cols, c.Collection(n))
	}
	return cols
}
