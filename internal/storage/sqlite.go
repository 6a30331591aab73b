//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"rodigy/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one row per optimizer in each of the configurations and
// history tables. Updates run in an immediate transaction so concurrent
// processes serialize on the database write lock.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dsn(s.path))
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

func (s *SQLiteStore) GetConfigurations(ctx context.Context, optimizer string) (*model.ConfigurationSet, bool, error) {
	if err := validateKey(optimizer); err != nil {
		return nil, false, err
	}
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	return readConfigurations(ctx, db, optimizer)
}

func (s *SQLiteStore) UpdateConfigurations(ctx context.Context, optimizer string, fn ConfigurationUpdate) error {
	if err := validateKey(optimizer); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		current, found, err := readConfigurations(ctx, tx, optimizer)
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
		payload, err := EncodeConfigurations(optimizer, next)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO configurations (optimizer, schema_version, codec_version, payload)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(optimizer) DO UPDATE SET
				schema_version = excluded.schema_version,
				codec_version = excluded.codec_version,
				payload = excluded.payload
		`, optimizer, CurrentSchemaVersion, CurrentCodecVersion, payload)
		return err
	})
}

func (s *SQLiteStore) GetHistory(ctx context.Context, optimizer string) ([]model.HistoryEntry, bool, error) {
	if err := validateKey(optimizer); err != nil {
		return nil, false, err
	}
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	return readHistory(ctx, db, optimizer)
}

func (s *SQLiteStore) UpdateHistory(ctx context.Context, optimizer string, fn HistoryUpdate) error {
	if err := validateKey(optimizer); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		current, _, err := readHistory(ctx, tx, optimizer)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		payload, err := EncodeHistory(optimizer, next)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO history (optimizer, schema_version, codec_version, payload)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(optimizer) DO UPDATE SET
				schema_version = excluded.schema_version,
				codec_version = excluded.codec_version,
				payload = excluded.payload
		`, optimizer, CurrentSchemaVersion, CurrentCodecVersion, payload)
		return err
	})
}

func (s *SQLiteStore) DeleteHistory(ctx context.Context, optimizer string) error {
	if err := validateKey(optimizer); err != nil {
		return err
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM history WHERE optimizer = ?`, optimizer)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readConfigurations(ctx context.Context, q queryer, optimizer string) (*model.ConfigurationSet, bool, error) {
	var payload []byte
	err := q.QueryRowContext(ctx, `SELECT payload FROM configurations WHERE optimizer = ?`, optimizer).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	record, err := DecodeConfigurations(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode configurations %s: %w", optimizer, err)
	}
	return record.Configurations, true, nil
}

func readHistory(ctx context.Context, q queryer, optimizer string) ([]model.HistoryEntry, bool, error) {
	var payload []byte
	err := q.QueryRowContext(ctx, `SELECT payload FROM history WHERE optimizer = ?`, optimizer).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	record, err := DecodeHistory(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode history %s: %w", optimizer, err)
	}
	return record.Entries, true, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS configurations (
			optimizer TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS history (
			optimizer TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
