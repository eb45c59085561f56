// Package registry holds the process-wide catalog of module schemas and the
// routing-regex table used for destination resolution. It is populated once
// at startup and read-only afterwards.
package registry

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/pbxtools/pbxdoc/core/model"
)

// DestPattern recognizes one module inside routing-target strings. The
// regex's first capture group is the referenced primary key.
type DestPattern struct {
	Regex  *regexp.Regexp
	Module string
}

// Registry maps module names to schemas and routing regexes to their owning
// module. Implements model.SchemaSource.
type Registry struct {
	mu       sync.RWMutex
	schemas  map[string]*model.Schema
	order    []string
	patterns []DestPattern
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{schemas: make(map[string]*model.Schema)}
}

// ConflictError reports a duplicate module name or routing regex at
// registration time. Always fatal; registration conflicts are configuration
// errors, never silently resolved.
type ConflictError struct {
	Module string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("register %s: %s", e.Module, e.Reason)
}

// Register adds a schema to the catalog. Called once per module at startup;
// rejects duplicate module names and destination regexes already owned by
// another module.
func (r *Registry) Register(s *model.Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := s.Finalize(); err != nil {
		return err
	}
	if _, exists := r.schemas[s.Name]; exists {
		return &ConflictError{Module: s.Name, Reason: "module name already registered"}
	}
	var pat *regexp.Regexp
	if s.DestRegex != "" {
		for _, p := range r.patterns {
			if p.Regex.String() == s.DestRegex {
				return &ConflictError{
					Module: s.Name,
					Reason: fmt.Sprintf("destination regex %q already owned by %s", s.DestRegex, p.Module),
				}
			}
		}
		var err error
		pat, err = regexp.Compile(s.DestRegex)
		if err != nil {
			return &ConflictError{Module: s.Name, Reason: fmt.Sprintf("bad destination regex: %v", err)}
		}
	}

	r.schemas[s.Name] = s
	r.order = append(r.order, s.Name)
	if pat != nil {
		r.patterns = append(r.patterns, DestPattern{Regex: pat, Module: s.Name})
	}
	return nil
}

// MustRegister registers a batch of schemas and panics on conflict. Intended
// for the static catalog at process start, where a conflict is unrecoverable.
func (r *Registry) MustRegister(schemas ...*model.Schema) {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the schema for name, or nil when unknown.
func (r *Registry) Lookup(name string) *model.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemas[name]
}

// Names returns all module names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// DestPatterns returns the routing-regex table in registration order.
// Evaluation order is significant: the destination engine tests these
// top-to-bottom.
func (r *Registry) DestPatterns() []DestPattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DestPattern, len(r.patterns))
	copy(out, r.patterns)
	return out
}
