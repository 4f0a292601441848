// Package dispatch is the protocol engine of the bridge: it builds the
// write-once function and interface tables from service descriptors, routes
// inbound requests against them, invokes local code, and converts the result
// — void, promise, or stream — into outbound messages.
package dispatch

import (
	"fmt"

	"go.uber.org/zap"

	"bridge-rpc/objects"
	"bridge-rpc/schema"
	"bridge-rpc/types"
)

// FunctionEntry binds a qualified function name to its local callable and
// typed signature. Registered at startup, immutable afterwards.
type FunctionEntry struct {
	Name string
	Fn   schema.Callable
	Sig  schema.Signature
}

// MethodEntry binds one instance method of a registered interface.
type MethodEntry struct {
	Name string
	Fn   schema.MethodFunc
	Sig  schema.Signature
}

// InterfaceEntry binds an interface name to its constructor and instance
// method table. Static methods are registered as plain functions under
// "{interfaceName}/{methodName}" and do not appear here.
type InterfaceEntry struct {
	Name    string
	New     schema.Constructor
	CtorSig schema.Signature
	Methods map[string]*MethodEntry
}

// ServiceRegistry holds the lookup tables the dispatcher resolves requests
// against. Registration happens once at startup; after that the tables are
// read-only and safe for unsynchronized concurrent reads.
type ServiceRegistry struct {
	functions  map[string]*FunctionEntry
	interfaces map[string]*InterfaceEntry
	names      []string
	types      types.Registry
	objects    *objects.Registry
	logger     *zap.Logger
}

func NewServiceRegistry(tr types.Registry, or *objects.Registry, logger *zap.Logger) *ServiceRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceRegistry{
		functions:  make(map[string]*FunctionEntry),
		interfaces: make(map[string]*InterfaceEntry),
		types:      tr,
		objects:    or,
		logger:     logger,
	}
}

// RegisterService processes one service descriptor: aliases go to the type
// registry, functions and interface statics into the function table,
// interfaces into the interface table plus a reference type whose wire form
// is the object id.
//
// A failure aborts this service's registration and is returned to the
// caller; services registered earlier remain usable. Partial tables from the
// failed service are possible and harmless — every entry that made it in is
// individually valid.
func (r *ServiceRegistry) RegisterService(svc schema.Service) error {
	for _, def := range svc.Definitions {
		var err error
		switch def.Kind {
		case schema.DefAlias:
			err = r.registerAlias(def)
		case schema.DefFunction:
			err = r.registerFunction(svc, def)
		case schema.DefInterface:
			err = r.registerInterface(svc, def)
		default:
			err = fmt.Errorf("unsupported definition kind %d", def.Kind)
		}
		if err != nil {
			r.logger.Error("service registration aborted",
				zap.String("service", svc.Name),
				zap.String("definition", def.Name),
				zap.Error(err))
			return fmt.Errorf("register service %q: %w", svc.Name, err)
		}
	}
	r.names = append(r.names, svc.Name)
	r.logger.Info("service registered",
		zap.String("service", svc.Name),
		zap.Int("definitions", len(svc.Definitions)))
	return nil
}

// ServiceNames returns the names of successfully registered services, in
// registration order.
func (r *ServiceRegistry) ServiceNames() []string {
	return r.names
}

// LookupFunction resolves a qualified function name.
func (r *ServiceRegistry) LookupFunction(name string) (*FunctionEntry, error) {
	entry, ok := r.functions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return entry, nil
}

// LookupInterface resolves an interface name.
func (r *ServiceRegistry) LookupInterface(name string) (*InterfaceEntry, error) {
	entry, ok := r.interfaces[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterface, name)
	}
	return entry, nil
}

func (r *ServiceRegistry) registerAlias(def schema.Definition) error {
	if err := r.types.RegisterAlias(def.Name, def.Target); err != nil {
		return fmt.Errorf("%w: alias %q: %v", ErrDuplicateRegistration, def.Name, err)
	}
	return nil
}

func (r *ServiceRegistry) registerFunction(svc schema.Service, def schema.Definition) error {
	fn, ok := svc.Impl.Function(def.Name)
	if !ok {
		return fmt.Errorf("function %q has no local implementation", def.Name)
	}
	return r.addFunction(svc.Name+"/"+def.Name, fn, def.Sig)
}

func (r *ServiceRegistry) registerInterface(svc schema.Service, def schema.Definition) error {
	if _, ok := r.interfaces[def.Name]; ok {
		return fmt.Errorf("%w: interface %q", ErrDuplicateRegistration, def.Name)
	}
	ctor, ok := svc.Impl.Constructor(def.Name)
	if !ok {
		return fmt.Errorf("interface %q has no constructor implementation", def.Name)
	}

	methods := make(map[string]*MethodEntry, len(def.Methods))
	for _, m := range def.Methods {
		fn, ok := svc.Impl.Method(def.Name, m.Name)
		if !ok {
			return fmt.Errorf("method %q.%q has no local implementation", def.Name, m.Name)
		}
		methods[m.Name] = &MethodEntry{Name: m.Name, Fn: fn, Sig: m.Sig}
	}

	// The interface name becomes a reference type: its wire representation
	// is the object id resolved through the object registry.
	if err := r.types.RegisterConverter(def.Name, &referenceConverter{iface: def.Name, objects: r.objects}); err != nil {
		return fmt.Errorf("%w: reference type %q: %v", ErrDuplicateRegistration, def.Name, err)
	}

	r.interfaces[def.Name] = &InterfaceEntry{
		Name:    def.Name,
		New:     ctor,
		CtorSig: def.Constructor,
		Methods: methods,
	}

	// Statics dispatch like free functions, qualified by the interface name.
	for _, m := range def.Statics {
		fn, ok := svc.Impl.Static(def.Name, m.Name)
		if !ok {
			return fmt.Errorf("static %q.%q has no local implementation", def.Name, m.Name)
		}
		if err := r.addFunction(def.Name+"/"+m.Name, fn, m.Sig); err != nil {
			return err
		}
	}
	return nil
}

func (r *ServiceRegistry) addFunction(key string, fn schema.Callable, sig schema.Signature) error {
	if _, ok := r.functions[key]; ok {
		return fmt.Errorf("%w: function %q", ErrDuplicateRegistration, key)
	}
	r.functions[key] = &FunctionEntry{Name: key, Fn: fn, Sig: sig}
	return nil
}
