package presets

import (
	"errors"

	"rodigy/internal/model"
	"rodigy/internal/registry"
)

var (
	ErrConfigurationNotFound = errors.New("configuration not found")
	ErrConfigurationExists   = errors.New("configuration already exists")
	ErrUnsupportedReference  = errors.New("unsupported optimizer reference")

	ErrUnknownOptimizer       = registry.ErrUnknownOptimizer
	ErrMalformedConfiguration = model.ErrMalformedConfiguration
)
