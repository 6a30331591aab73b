package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rodigy/internal/model"
	"rodigy/internal/optimid"
	"rodigy/internal/storage"
)

// Manager appends, filters and prunes per-optimizer usage logs.
type Manager struct {
	backend storage.Store
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func NewManager(backend storage.Store, opts ...Option) *Manager {
	m := &Manager{
		backend: backend,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record appends an entry stamped with the current UTC time. A clock that
// reads earlier than the newest entry is clamped so the log stays ordered.
func (m *Manager) Record(ctx context.Context, optimizer string, configName *string, params model.Params, caller model.CallerInfo) (model.HistoryEntry, error) {
	key := optimid.Normalize(optimizer)
	if caller.File == "" {
		caller = model.UnknownCallerInfo()
	}
	entry := model.HistoryEntry{
		ID:         m.newID(),
		Optimizer:  key,
		ConfigName: configName,
		Parameters: params.Clone(),
		Caller:     caller,
	}
	if entry.Parameters == nil {
		entry.Parameters = model.Params{}
	}
	if configName != nil {
		entry.ConfigName = model.StringPtr(*configName)
	}

	err := m.backend.UpdateHistory(ctx, key, func(current []model.HistoryEntry) ([]model.HistoryEntry, error) {
		entry.Timestamp = m.now().UTC()
		if n := len(current); n > 0 && entry.Timestamp.Before(current[n-1].Timestamp) {
			entry.Timestamp = current[n-1].Timestamp
		}
		return append(current, entry), nil
	})
	if err != nil {
		return model.HistoryEntry{}, fmt.Errorf("record history for %s: %w", key, err)
	}
	m.logger.Debug("history recorded", "optimizer", key, "config", entry.Config(), "id", entry.ID)
	return entry.Clone(), nil
}

// Show returns entries in chronological order. With a TTL only entries no
// older than the window are returned; the stored log is left untouched.
func (m *Manager) Show(ctx context.Context, optimizer string, ttl *TTL) ([]model.HistoryEntry, error) {
	key := optimid.Normalize(optimizer)
	entries, _, err := m.backend.GetHistory(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", key, err)
	}
	if ttl == nil {
		if entries == nil {
			entries = []model.HistoryEntry{}
		}
		return entries, nil
	}
	cutoff := m.now().UTC().Add(-ttl.Duration())
	return retain(entries, cutoff), nil
}

// Prune drops entries older than ttl from the stored log and reports how
// many were removed.
func (m *Manager) Prune(ctx context.Context, optimizer string, ttl TTL) (int, error) {
	key := optimid.Normalize(optimizer)
	removed := 0
	err := m.backend.UpdateHistory(ctx, key, func(current []model.HistoryEntry) ([]model.HistoryEntry, error) {
		kept := retain(current, m.now().UTC().Add(-ttl.Duration()))
		removed = len(current) - len(kept)
		return kept, nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune history for %s: %w", key, err)
	}
	if removed > 0 {
		m.logger.Info("history pruned", "optimizer", key, "removed", removed, "ttl", ttl.String())
	}
	return removed, nil
}

func (m *Manager) Clear(ctx context.Context, optimizer string) error {
	key := optimid.Normalize(optimizer)
	err := m.backend.DeleteHistory(ctx, key)
	if errors.Is(err, storage.ErrInvalidKey) {
		// no log can be stored under such a key
		return nil
	}
	if err != nil {
		return fmt.Errorf("clear history for %s: %w", key, err)
	}
	m.logger.Debug("history cleared", "optimizer", key)
	return nil
}

func retain(entries []model.HistoryEntry, cutoff time.Time) []model.HistoryEntry {
	kept := make([]model.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.Timestamp.Before(cutoff) {
			kept = append(kept, entry)
		}
	}
	return kept
}
