package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"rodigy/internal/model"
)

const (
	configDirName  = "config"
	historyDirName = "history"
	lockFileName   = ".rodigy.lock"
)

// FileStore keeps one JSON document per optimizer and kind under a data
// directory:
//
//	<dir>/config/<optimizer>.json
//	<dir>/history/<optimizer>_history.json
//
// Writes land in a temp file that is renamed over the target, so readers
// never observe a partial document. Updates hold an exclusive advisory lock
// on <dir>/.rodigy.lock for the whole read-modify-write cycle.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Init(_ context.Context) error {
	if s.dir == "" {
		return errors.New("file store directory is required")
	}
	for _, sub := range []string{configDirName, historyDirName} {
		if err := os.MkdirAll(filepath.Join(s.dir, sub), 0o755); err != nil {
			return fmt.Errorf("create %s dir: %w", sub, err)
		}
	}
	return nil
}

func (s *FileStore) configPath(optimizer string) string {
	return filepath.Join(s.dir, configDirName, optimizer+".json")
}

func (s *FileStore) historyPath(optimizer string) string {
	return filepath.Join(s.dir, historyDirName, optimizer+"_history.json")
}

func (s *FileStore) GetConfigurations(_ context.Context, optimizer string) (*model.ConfigurationSet, bool, error) {
	if err := validateKey(optimizer); err != nil {
		return nil, false, err
	}
	return s.readConfigurations(optimizer)
}

func (s *FileStore) readConfigurations(optimizer string) (*model.ConfigurationSet, bool, error) {
	data, err := os.ReadFile(s.configPath(optimizer))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	record, err := DecodeConfigurations(data)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", s.configPath(optimizer), err)
	}
	return record.Configurations, true, nil
}

func (s *FileStore) UpdateConfigurations(ctx context.Context, optimizer string, fn ConfigurationUpdate) error {
	if err := validateKey(optimizer); err != nil {
		return err
	}
	return s.withLock(ctx, func() error {
		current, found, err := s.readConfigurations(optimizer)
		if err != nil {
			return err
		}
		if !found {
			current = model.NewConfigurationSet()
		}
		next, err := fn(current, found)
		if err != nil {
			return err
		}
		data, err := EncodeConfigurations(optimizer, next)
		if err != nil {
			return err
		}
		return writeFileAtomic(s.configPath(optimizer), data)
	})
}

func (s *FileStore) GetHistory(_ context.Context, optimizer string) ([]model.HistoryEntry, bool, error) {
	if err := validateKey(optimizer); err != nil {
		return nil, false, err
	}
	return s.readHistory(optimizer)
}

func (s *FileStore) readHistory(optimizer string) ([]model.HistoryEntry, bool, error) {
	data, err := os.ReadFile(s.historyPath(optimizer))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	record, err := DecodeHistory(data)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", s.historyPath(optimizer), err)
	}
	return record.Entries, true, nil
}

func (s *FileStore) UpdateHistory(ctx context.Context, optimizer string, fn HistoryUpdate) error {
	if err := validateKey(optimizer); err != nil {
		return err
	}
	return s.withLock(ctx, func() error {
		current, _, err := s.readHistory(optimizer)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		data, err := EncodeHistory(optimizer, next)
		if err != nil {
			return err
		}
		return writeFileAtomic(s.historyPath(optimizer), data)
	})
}

func (s *FileStore) DeleteHistory(ctx context.Context, optimizer string) error {
	if err := validateKey(optimizer); err != nil {
		return err
	}
	return s.withLock(ctx, func() error {
		err := os.Remove(s.historyPath(optimizer))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	})
}

func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.Init(ctx); err != nil {
		return err
	}
	unlock, err := lockFile(filepath.Join(s.dir, lockFileName))
	if err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	defer unlock()
	return fn()
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
