package storage

import (
	"fmt"
	"path/filepath"
)

const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
)

func DefaultStoreKind() string {
	return KindFile
}

// NewStore builds the backend named by kind. dataDir roots the file backend;
// sqlitePath defaults to rodigy.db inside dataDir.
func NewStore(kind, dataDir, sqlitePath string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindFile:
		return NewFileStore(dataDir), nil
	case KindSQLite:
		if sqlitePath == "" {
			sqlitePath = filepath.Join(dataDir, "rodigy.db")
		}
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
