package registry

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"rodigy/internal/model"
)

var ErrInvalidArguments = errors.New("invalid optimizer arguments")

type Kind int

const (
	KindFloat Kind = iota
	KindBool
	KindString
	KindTuple
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindTuple:
		return "tuple"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Arg declares one keyword argument of an optimizer constructor.
type Arg struct {
	Name     string
	Kind     Kind
	Default  any
	Choices  []string
	TupleLen int
}

type Signature []Arg

func (s Signature) Accepts(name string) bool {
	_, ok := s.lookup(name)
	return ok
}

func (s Signature) lookup(name string) (Arg, bool) {
	for _, arg := range s {
		if arg.Name == name {
			return arg, true
		}
	}
	return Arg{}, false
}

// Bind checks config against the signature and fills in defaults.
func (s Signature) Bind(config model.Params) (model.Params, error) {
	bound := make(model.Params, len(s))
	for _, arg := range s {
		if arg.Default != nil {
			bound[arg.Name] = arg.Default
		}
	}

	keys := make([]string, 0, len(config))
	for key := range config {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		arg, ok := s.lookup(key)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected keyword argument %q", ErrInvalidArguments, key)
		}
		if err := arg.check(config[key]); err != nil {
			return nil, err
		}
		bound[key] = config[key]
	}
	return bound.Clone(), nil
}

func (a Arg) check(value any) error {
	switch a.Kind {
	case KindFloat:
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidArguments, a.Name, value)
		}
	case KindBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s must be a bool, got %T", ErrInvalidArguments, a.Name, value)
		}
	case KindString:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidArguments, a.Name, value)
		}
		if len(a.Choices) > 0 && !slices.Contains(a.Choices, str) {
			return fmt.Errorf("%w: %s must be one of %v, got %q", ErrInvalidArguments, a.Name, a.Choices, str)
		}
	case KindTuple:
		tuple, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%w: %s must be a tuple, got %T", ErrInvalidArguments, a.Name, value)
		}
		if a.TupleLen > 0 && len(tuple) != a.TupleLen {
			return fmt.Errorf("%w: %s must have %d elements, got %d", ErrInvalidArguments, a.Name, a.TupleLen, len(tuple))
		}
		for i, elem := range tuple {
			if _, ok := elem.(float64); !ok {
				return fmt.Errorf("%w: %s[%d] must be a number, got %T", ErrInvalidArguments, a.Name, i, elem)
			}
		}
	}
	return nil
}
