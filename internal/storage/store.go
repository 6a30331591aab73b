package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rodigy/internal/model"
)

// ConfigurationUpdate receives a private copy of the stored set (empty and
// found=false when nothing is stored yet) and returns the set to persist.
// Returning an error aborts the update and leaves the record unchanged.
type ConfigurationUpdate func(current *model.ConfigurationSet, found bool) (*model.ConfigurationSet, error)

// HistoryUpdate receives a private copy of the stored entries and returns the
// entries to persist.
type HistoryUpdate func(current []model.HistoryEntry) ([]model.HistoryEntry, error)

// Store persists configuration sets and history logs, one record per
// optimizer. Updates are read-modify-write cycles that replace the whole
// record and are serialized across processes.
type Store interface {
	Init(ctx context.Context) error
	GetConfigurations(ctx context.Context, optimizer string) (*model.ConfigurationSet, bool, error)
	UpdateConfigurations(ctx context.Context, optimizer string, fn ConfigurationUpdate) error
	GetHistory(ctx context.Context, optimizer string) ([]model.HistoryEntry, bool, error)
	UpdateHistory(ctx context.Context, optimizer string, fn HistoryUpdate) error
	DeleteHistory(ctx context.Context, optimizer string) error
}

var ErrInvalidKey = errors.New("invalid optimizer key")

func validateKey(optimizer string) error {
	if strings.TrimSpace(optimizer) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.ContainsAny(optimizer, `/\`) || strings.Contains(optimizer, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, optimizer)
	}
	return nil
}
