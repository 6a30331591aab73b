//go:build !unix

package storage

import "sync"

// Without advisory file locks only writers inside this process are serialized.
var processLock sync.Mutex

func lockFile(_ string) (func(), error) {
	processLock.Lock()
	return processLock.Unlock, nil
}
