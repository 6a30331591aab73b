package presets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rodigy/internal/model"
	"rodigy/internal/registry"
	"rodigy/internal/storage"
)

// Store manages named configuration presets per optimizer on top of a
// storage backend. Optimizer names are canonicalized through the registry so
// "AdaBelief" and "adabelief" address the same record. Until an optimizer is
// first mutated its bundled defaults stand in for the stored set.
type Store struct {
	backend  storage.Store
	registry *registry.Registry
	logger   *slog.Logger
}

func NewStore(backend storage.Store, reg *registry.Registry, logger *slog.Logger) *Store {
	if reg == nil {
		reg = registry.Builtin()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, registry: reg, logger: logger}
}

func (s *Store) Registry() *registry.Registry { return s.registry }

func (s *Store) canonical(optimizer string) (string, error) {
	spec, err := s.registry.Resolve(optimizer)
	if err != nil {
		return "", err
	}
	return spec.Name, nil
}

// Get returns a private copy of the optimizer's configuration set.
func (s *Store) Get(ctx context.Context, optimizer string) (*model.ConfigurationSet, error) {
	name, err := s.canonical(optimizer)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, name)
}

func (s *Store) get(ctx context.Context, optimizer string) (*model.ConfigurationSet, error) {
	set, ok, err := s.backend.GetConfigurations(ctx, optimizer)
	if err != nil {
		return nil, fmt.Errorf("load configurations for %s: %w", optimizer, err)
	}
	if ok {
		return set, nil
	}
	return s.seed(optimizer)
}

func (s *Store) seed(optimizer string) (*model.ConfigurationSet, error) {
	set, ok, err := Defaults(optimizer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return model.NewConfigurationSet(), nil
	}
	return set, nil
}

// Add stores a new named configuration. The name must not exist yet.
func (s *Store) Add(ctx context.Context, optimizer, configName string, params model.Params) error {
	name, err := s.canonical(optimizer)
	if err != nil {
		return err
	}
	configName, err = validName(configName)
	if err != nil {
		return err
	}
	normalized, err := model.NormalizeParams(params)
	if err != nil {
		return fmt.Errorf("configuration %q: %w", configName, err)
	}

	err = s.update(ctx, name, func(current *model.ConfigurationSet) error {
		if current.Has(configName) {
			return fmt.Errorf("%w: %q for optimizer %q", ErrConfigurationExists, configName, name)
		}
		current.Put(configName, normalized)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("configuration added", "optimizer", name, "config", configName)
	return nil
}

// Set merges each update into the existing configuration of the same name,
// overriding keys it names and keeping the rest. Every name must already
// exist; if one does not, nothing is written.
func (s *Store) Set(ctx context.Context, optimizer string, updates *model.ConfigurationSet) error {
	name, err := s.canonical(optimizer)
	if err != nil {
		return err
	}
	raw := updates.Names()
	names := make([]string, len(raw))
	normalized := make([]model.Params, len(raw))
	for i, configName := range raw {
		if names[i], err = validName(configName); err != nil {
			return err
		}
		params, _ := updates.Get(configName)
		if normalized[i], err = model.NormalizeParams(params); err != nil {
			return fmt.Errorf("configuration %q: %w", names[i], err)
		}
	}

	err = s.update(ctx, name, func(current *model.ConfigurationSet) error {
		for _, configName := range names {
			if !current.Has(configName) {
				return fmt.Errorf("%w: %q for optimizer %q", ErrConfigurationNotFound, configName, name)
			}
		}
		for i, configName := range names {
			existing, _ := current.Get(configName)
			current.Put(configName, existing.Merge(normalized[i]))
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("configurations updated", "optimizer", name, "configs", names)
	return nil
}

func (s *Store) Remove(ctx context.Context, optimizer, configName string) error {
	name, err := s.canonical(optimizer)
	if err != nil {
		return err
	}
	configName, err = validName(configName)
	if err != nil {
		return err
	}
	err = s.update(ctx, name, func(current *model.ConfigurationSet) error {
		if !current.Delete(configName) {
			return fmt.Errorf("%w: %q for optimizer %q", ErrConfigurationNotFound, configName, name)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("configuration removed", "optimizer", name, "config", configName)
	return nil
}

func (s *Store) update(ctx context.Context, optimizer string, fn func(*model.ConfigurationSet) error) error {
	return s.backend.UpdateConfigurations(ctx, optimizer, func(current *model.ConfigurationSet, found bool) (*model.ConfigurationSet, error) {
		if !found {
			seeded, err := s.seed(optimizer)
			if err != nil {
				return nil, err
			}
			current = seeded
		}
		if err := fn(current); err != nil {
			return nil, err
		}
		return current, nil
	})
}

func validName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: configuration name is empty", ErrMalformedConfiguration)
	}
	return trimmed, nil
}
