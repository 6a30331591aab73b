package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"rodigy/internal/model"
	"rodigy/internal/optimid"
)

var (
	ErrOptimizerExists  = errors.New("optimizer already registered")
	ErrUnknownOptimizer = errors.New("unknown optimizer")
)

// Optimizer is a constructed optimizer instance. The registry treats it as
// opaque; the update rule lives in the implementation.
type Optimizer interface {
	Name() string
	Hyperparameters() model.Params
	Parameters() []model.Parameter
}

// Constructor builds an optimizer over params with the given keyword
// arguments.
type Constructor func(params []model.Parameter, config model.Params) (Optimizer, error)

type Spec struct {
	Name        string
	Summary     string
	Type        reflect.Type
	Signature   Signature
	Constructor Constructor
}

// AcceptsLR reports whether the constructor takes a learning rate.
func (s Spec) AcceptsLR() bool {
	return s.Signature.Accepts("lr")
}

type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
	types map[reflect.Type]string
}

func New() *Registry {
	return &Registry{
		specs: make(map[string]Spec),
		types: make(map[reflect.Type]string),
	}
}

// Register adds spec under its normalized name.
func (r *Registry) Register(spec Spec) error {
	name := optimid.Normalize(spec.Name)
	if name == "" {
		return errors.New("optimizer name is required")
	}
	if spec.Constructor == nil {
		return errors.New("optimizer constructor is required")
	}
	spec.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[name]; exists {
		return fmt.Errorf("%w: %s", ErrOptimizerExists, name)
	}
	r.specs[name] = spec
	if spec.Type != nil {
		r.types[derefType(spec.Type)] = name
	}
	return nil
}

// Resolve matches name case-insensitively, honoring aliases.
func (r *Registry) Resolve(name string) (Spec, error) {
	normalized := optimid.Normalize(name)

	r.mu.RLock()
	spec, ok := r.specs[normalized]
	r.mu.RUnlock()

	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownOptimizer, name)
	}
	return spec, nil
}

// ResolveType derives the optimizer name from the declared name of t,
// lower-cased, and resolves it.
func (r *Registry) ResolveType(t reflect.Type) (Spec, error) {
	if t == nil {
		return Spec{}, fmt.Errorf("%w: nil type", ErrUnknownOptimizer)
	}
	t = derefType(t)

	r.mu.RLock()
	name, ok := r.types[t]
	r.mu.RUnlock()
	if ok {
		return r.Resolve(name)
	}

	derived := TypeName(t)
	if derived == "" {
		return Spec{}, fmt.Errorf("%w: unnamed type %s", ErrUnknownOptimizer, t)
	}
	return r.Resolve(derived)
}

// Lookup returns the spec registered under the exact canonical name.
func (r *Registry) Lookup(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[name]
	return spec, ok
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TypeName is the registry name a type reference maps to.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return strings.ToLower(derefType(t).Name())
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
