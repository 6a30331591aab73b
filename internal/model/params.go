package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/exp/constraints"
)

var ErrMalformedConfiguration = errors.New("malformed configuration")

// Params maps hyperparameter names to scalars (float64, bool, string) or
// tuples of scalars ([]any).
type Params map[string]any

// NormalizeParams validates raw and converts Go-typed values into the
// canonical value kinds. Integers and float32 become float64, numeric slices
// and arrays become []any.
func NormalizeParams(raw map[string]any) (Params, error) {
	out := make(Params, len(raw))
	for key, value := range raw {
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: empty parameter name", ErrMalformedConfiguration)
		}
		normalized, err := normalizeValue(value)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %q: %v", ErrMalformedConfiguration, key, err)
		}
		out[key] = normalized
	}
	return out, nil
}

// ParamsFromAny accepts anything decoded from JSON or YAML and reports
// ErrMalformedConfiguration unless it is a mapping of valid values.
func ParamsFromAny(v any) (Params, error) {
	switch m := v.(type) {
	case Params:
		return NormalizeParams(m)
	case map[string]any:
		return NormalizeParams(m)
	default:
		return nil, fmt.Errorf("%w: expected mapping, got %T", ErrMalformedConfiguration, v)
	}
}

func normalizeValue(v any) (any, error) {
	if scalar, ok, err := normalizeScalar(v); ok || err != nil {
		return scalar, err
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		tuple := make([]any, rv.Len())
		for i := range tuple {
			elem, ok, err := normalizeScalar(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("tuple element %d has unsupported type %T", i, rv.Index(i).Interface())
			}
			tuple[i] = elem
		}
		return tuple, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func normalizeScalar(v any) (any, bool, error) {
	scalar, ok, err := convertScalar(v)
	if f, isFloat := scalar.(float64); isFloat && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return nil, false, fmt.Errorf("non-finite number %v", f)
	}
	return scalar, ok, err
}

func convertScalar(v any) (any, bool, error) {
	switch x := v.(type) {
	case bool:
		return x, true, nil
	case string:
		return x, true, nil
	case float64:
		return x, true, nil
	case float32:
		return toFloat(x), true, nil
	case int:
		return toFloat(x), true, nil
	case int8:
		return toFloat(x), true, nil
	case int16:
		return toFloat(x), true, nil
	case int32:
		return toFloat(x), true, nil
	case int64:
		return toFloat(x), true, nil
	case uint:
		return toFloat(x), true, nil
	case uint8:
		return toFloat(x), true, nil
	case uint16:
		return toFloat(x), true, nil
	case uint32:
		return toFloat(x), true, nil
	case uint64:
		return toFloat(x), true, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, false, err
		}
		return f, true, nil
	case nil:
		return nil, false, errors.New("null value")
	default:
		return nil, false, nil
	}
}

func toFloat[T constraints.Integer | constraints.Float](v T) float64 {
	return float64(v)
}

// Clone returns a deep copy; tuples are copied too.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for key, value := range p {
		if tuple, ok := value.([]any); ok {
			value = append([]any(nil), tuple...)
		}
		out[key] = value
	}
	return out
}

// Merge returns a copy of p with every key of overrides applied on top.
func (p Params) Merge(overrides Params) Params {
	out := p.Clone()
	if out == nil {
		out = make(Params, len(overrides))
	}
	for key, value := range overrides.Clone() {
		out[key] = value
	}
	return out
}

// Keys returns the parameter names sorted.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Float returns the numeric value stored under key.
func (p Params) Float(key string) (float64, bool) {
	f, ok := p[key].(float64)
	return f, ok
}
