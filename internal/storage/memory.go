package storage

import (
	"context"
	"errors"
	"sync"

	"rodigy/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

// MemoryStore keeps records in process memory. Every read and write goes
// through a deep copy so callers never share state with the store.
type MemoryStore struct {
	mu             sync.RWMutex
	initialized    bool
	configurations map[string]*model.ConfigurationSet
	history        map[string][]model.HistoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.configurations = make(map[string]*model.ConfigurationSet)
	s.history = make(map[string][]model.HistoryEntry)
	return nil
}

func (s *MemoryStore) GetConfigurations(_ context.Context, optimizer string) (*model.ConfigurationSet, bool, error) {
	if err := validateKey(optimizer); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.configurations[optimizer]
	if !ok {
		return nil, false, nil
	}
	return set.Clone(), true, nil
}

func (s *MemoryStore) UpdateConfigurations(_ context.Context, optimizer string, fn ConfigurationUpdate) error {
	if err := validateKey(optimizer); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	current, found := s.configurations[optimizer]
	if found {
		current = current.Clone()
	} else {
		current = model.NewConfigurationSet()
	}
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	if next == nil {
		next = model.NewConfigurationSet()
	}
	s.configurations[optimizer] = next.Clone()
	return nil
}

func (s *MemoryStore) GetHistory(_ context.Context, optimizer string) ([]model.HistoryEntry, bool, error) {
	if err := validateKey(optimizer); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.history[optimizer]
	if !ok {
		return nil, false, nil
	}
	return model.CloneEntries(entries), true, nil
}

func (s *MemoryStore) UpdateHistory(_ context.Context, optimizer string, fn HistoryUpdate) error {
	if err := validateKey(optimizer); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	next, err := fn(model.CloneEntries(s.history[optimizer]))
	if err != nil {
		return err
	}
	s.history[optimizer] = model.CloneEntries(next)
	return nil
}

func (s *MemoryStore) DeleteHistory(_ context.Context, optimizer string) error {
	if err := validateKey(optimizer); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.history, optimizer)
	return nil
}
