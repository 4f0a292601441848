// Package schema holds the typed shape of everything a service exposes over
// the bridge: definitions produced by the (external) interface parser, and
// the implementation tables that bind those definitions to local code.
//
// Bindings are explicit string-keyed tables validated once at registration.
// There is no reflection-style lookup at call time: a missing binding fails
// the service's registration, not the first remote call that hits it.
package schema

import "context"

// ReturnKind classifies what a callable produces.
type ReturnKind int

const (
	ReturnVoid       ReturnKind = iota // no response is sent
	ReturnPromise                      // exactly one deferred result
	ReturnObservable                   // zero or more values, then completion or error
)

func (k ReturnKind) String() string {
	switch k {
	case ReturnVoid:
		return "void"
	case ReturnPromise:
		return "promise"
	case ReturnObservable:
		return "observable"
	}
	return "unknown"
}

// Signature is the typed shape of one callable: ordered argument type names
// and the return descriptor. Elem names the element type T of promise<T> or
// observable<T>; it is empty for void.
type Signature struct {
	Args   []string
	Return ReturnKind
	Elem   string
}

// DefinitionKind tags the definition variants.
type DefinitionKind int

const (
	DefAlias DefinitionKind = iota
	DefFunction
	DefInterface
)

// Method pairs a method name with its signature.
type Method struct {
	Name string
	Sig  Signature
}

// Definition is one parsed schema entry. Which fields are meaningful depends
// on Kind:
//
//   - DefAlias:     Name, Target
//   - DefFunction:  Name, Sig
//   - DefInterface: Name, Constructor, Statics, Methods
type Definition struct {
	Kind        DefinitionKind
	Name        string
	Target      string
	Sig         Signature
	Constructor Signature
	Statics     []Method
	Methods     []Method
}

// Alias builds an alias definition.
func Alias(name, target string) Definition {
	return Definition{Kind: DefAlias, Name: name, Target: target}
}

// Function builds a function definition.
func Function(name string, sig Signature) Definition {
	return Definition{Kind: DefFunction, Name: name, Sig: sig}
}

// Interface builds an interface definition.
func Interface(name string, ctor Signature, statics, methods []Method) Definition {
	return Definition{Kind: DefInterface, Name: name, Constructor: ctor, Statics: statics, Methods: methods}
}

// Callable invokes a registered local function with unmarshalled arguments.
type Callable func(ctx context.Context, args []any) (any, error)

// Constructor builds a new local instance from constructor arguments. Any
// local implementation style (plain function, struct literal, factory) is
// normalized behind this shape once at registration.
type Constructor func(ctx context.Context, args []any) (any, error)

// MethodFunc invokes a named method on a local instance.
type MethodFunc func(ctx context.Context, recv any, args []any) (any, error)

// Implementation binds definition names to local code. Keys are bare names:
// function name for Functions, interface name for Constructors, interface
// name then method name for Statics and Methods.
type Implementation struct {
	Functions    map[string]Callable
	Constructors map[string]Constructor
	Statics      map[string]map[string]Callable
	Methods      map[string]map[string]MethodFunc
}

// Function looks up the local callable for a function definition.
func (im Implementation) Function(name string) (Callable, bool) {
	fn, ok := im.Functions[name]
	return fn, ok
}

// Constructor looks up the local factory for an interface definition.
func (im Implementation) Constructor(iface string) (Constructor, bool) {
	ctor, ok := im.Constructors[iface]
	return ctor, ok
}

// Static looks up the local callable for a static method.
func (im Implementation) Static(iface, method string) (Callable, bool) {
	fn, ok := im.Statics[iface][method]
	return fn, ok
}

// Method looks up the local invoker for an instance method.
func (im Implementation) Method(iface, method string) (MethodFunc, bool) {
	fn, ok := im.Methods[iface][method]
	return fn, ok
}

// Service pairs a named, parsed schema with its local implementation.
// Immutable after registration.
type Service struct {
	Name        string
	Definitions []Definition
	Impl        Implementation
}
