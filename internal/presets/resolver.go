package presets

import (
	"context"
	"fmt"
	"reflect"

	"rodigy/internal/model"
	"rodigy/internal/registry"
)

type refKind int

const (
	refUnset refKind = iota
	refName
	refType
	refInline
)

// Ref identifies where a configuration comes from: a registered optimizer
// addressed by name or by type, or a caller-supplied configuration set.
// The zero Ref is not a valid reference.
type Ref struct {
	kind refKind
	name string
	typ  reflect.Type
	set  *model.ConfigurationSet
}

func ByName(name string) Ref { return Ref{kind: refName, name: name} }

func ByType(t reflect.Type) Ref {
	if t == nil {
		return Ref{}
	}
	return Ref{kind: refType, typ: t}
}

// ByValue derives the optimizer from the dynamic type of v.
func ByValue(v any) Ref { return ByType(reflect.TypeOf(v)) }

// Inline resolves against set directly without touching the store.
func Inline(set *model.ConfigurationSet) Ref {
	if set == nil {
		return Ref{}
	}
	return Ref{kind: refInline, set: set}
}

func (r Ref) IsInline() bool { return r.kind == refInline }

func (r Ref) String() string {
	switch r.kind {
	case refName:
		return r.name
	case refType:
		return r.typ.String()
	case refInline:
		return "inline"
	default:
		return "<unset>"
	}
}

type Resolver struct {
	store *Store
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Optimizer resolves a name or type reference to its registry entry.
func (r *Resolver) Optimizer(ref Ref) (registry.Spec, error) {
	reg := r.store.Registry()
	switch ref.kind {
	case refName:
		return reg.Resolve(ref.name)
	case refType:
		return reg.ResolveType(ref.typ)
	case refInline:
		return registry.Spec{}, fmt.Errorf("%w: inline configuration sets do not name an optimizer", ErrUnsupportedReference)
	default:
		return registry.Spec{}, ErrUnsupportedReference
	}
}

// Resolve returns a private copy of the named configuration.
func (r *Resolver) Resolve(ctx context.Context, ref Ref, configName string) (model.Params, error) {
	configName, err := validName(configName)
	if err != nil {
		return nil, err
	}
	set, scope, err := r.set(ctx, ref)
	if err != nil {
		return nil, err
	}
	params, ok := set.Get(configName)
	if !ok {
		return nil, fmt.Errorf("%w: %q for optimizer %q", ErrConfigurationNotFound, configName, scope)
	}
	normalized, err := model.NormalizeParams(params)
	if err != nil {
		return nil, fmt.Errorf("configuration %q for optimizer %q: %w", configName, scope, err)
	}
	return normalized, nil
}

func (r *Resolver) set(ctx context.Context, ref Ref) (*model.ConfigurationSet, string, error) {
	if ref.kind == refInline {
		return ref.set, ref.String(), nil
	}
	spec, err := r.Optimizer(ref)
	if err != nil {
		return nil, "", err
	}
	set, err := r.store.get(ctx, spec.Name)
	if err != nil {
		return nil, "", err
	}
	return set, spec.Name, nil
}
