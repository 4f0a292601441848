// Package types is the value-conversion collaborator of the dispatcher: it
// turns rich local values into wire-safe representations and back, keyed by
// type name. The dispatcher consumes it as an opaque capability — custom
// converters, aliases, and reference types (whose wire form is an object id)
// are all registered here and resolved per argument or return value.
package types

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicate reports a name that already has an alias or converter.
var ErrDuplicate = errors.New("type name already registered")

// Converter translates between local and wire representations of one type.
type Converter interface {
	Marshal(v any) (any, error)
	Unmarshal(wire any) (any, error)
}

// ConverterFuncs adapts a pair of functions into a Converter. Either func
// may be nil, in which case values pass through unchanged in that direction.
type ConverterFuncs struct {
	MarshalFunc   func(v any) (any, error)
	UnmarshalFunc func(wire any) (any, error)
}

func (c ConverterFuncs) Marshal(v any) (any, error) {
	if c.MarshalFunc == nil {
		return v, nil
	}
	return c.MarshalFunc(v)
}

func (c ConverterFuncs) Unmarshal(wire any) (any, error) {
	if c.UnmarshalFunc == nil {
		return wire, nil
	}
	return c.UnmarshalFunc(wire)
}

// Registry converts values to and from wire-safe representations given a
// type name. Implementations must be safe for concurrent use after the
// write-once registration phase.
type Registry interface {
	Marshal(typeName string, v any) (any, error)
	Unmarshal(typeName string, wire any) (any, error)
	RegisterAlias(alias, target string) error
	RegisterConverter(name string, c Converter) error
}

// NewRegistry returns the default converter-table registry. Type names with
// no registered converter pass values through unchanged — primitives and
// plain JSON-shaped values need no conversion.
func NewRegistry() Registry {
	return &registry{
		aliases:    make(map[string]string),
		converters: make(map[string]Converter),
	}
}

type registry struct {
	mu         sync.RWMutex
	aliases    map[string]string
	converters map[string]Converter
}

func (r *registry) RegisterAlias(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.aliases[alias]; ok {
		return fmt.Errorf("%w: alias %q", ErrDuplicate, alias)
	}
	if _, ok := r.converters[alias]; ok {
		return fmt.Errorf("%w: %q has a converter", ErrDuplicate, alias)
	}
	r.aliases[alias] = target
	return nil
}

func (r *registry) RegisterConverter(name string, c Converter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.converters[name]; ok {
		return fmt.Errorf("%w: converter %q", ErrDuplicate, name)
	}
	if _, ok := r.aliases[name]; ok {
		return fmt.Errorf("%w: %q is an alias", ErrDuplicate, name)
	}
	r.converters[name] = c
	return nil
}

func (r *registry) Marshal(typeName string, v any) (any, error) {
	c := r.resolve(typeName)
	if c == nil {
		return v, nil
	}
	return c.Marshal(v)
}

func (r *registry) Unmarshal(typeName string, wire any) (any, error) {
	c := r.resolve(typeName)
	if c == nil {
		return wire, nil
	}
	return c.Unmarshal(wire)
}

// resolve follows the alias chain to a converter, or nil for pass-through.
func (r *registry) resolve(typeName string) Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := 0
	for {
		if c, ok := r.converters[typeName]; ok {
			return c
		}
		target, ok := r.aliases[typeName]
		if !ok {
			return nil
		}
		typeName = target
		// Alias cycles cannot be registered (each alias name is write-once
		// and must not collide), but cap the walk anyway.
		if seen++; seen > len(r.aliases) {
			return nil
		}
	}
}
