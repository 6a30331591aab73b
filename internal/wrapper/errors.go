package wrapper

import (
	"errors"
	"fmt"
)

var ErrExternalConstruction = errors.New("optimizer construction failed")

// ConstructionError carries a failure raised by an optimizer constructor
// together with the optimizer and configuration it was called for.
type ConstructionError struct {
	Optimizer  string
	ConfigName string
	Err        error
}

func (e *ConstructionError) Error() string {
	config := e.ConfigName
	if config == "" {
		config = "none"
	}
	return fmt.Sprintf("%s: optimizer %q config %q: %v", ErrExternalConstruction, e.Optimizer, config, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

func (e *ConstructionError) Is(target error) bool { return target == ErrExternalConstruction }
