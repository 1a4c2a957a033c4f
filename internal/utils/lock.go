package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"
)

// CatalogLock manages a file-based lock on a catalog output root. The lock
// file sits next to the root, outside the served tree.
type CatalogLock struct {
	lock *flock.Flock
	path string
}

// NewCatalogLock creates a new lock for the given catalog root.
func NewCatalogLock(root string) (*CatalogLock, error) {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute catalog root: %w", err)
	}
	absPath = filepath.Clean(absPath)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("could not create parent of catalog root %s: %w", absPath, err)
	}
	lockPath := absPath + lockFileSuffix
	return &CatalogLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Path returns the lock file location.
func (l *CatalogLock) Path() string { return l.path }

// Lock acquires the catalog lock, waiting if necessary.
// It will print a message if it has to wait.
func (l *CatalogLock) Lock() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}

	if !locked {
		fmt.Fprintf(os.Stderr, "Another uwcatalog process is writing this catalog root, waiting for it to finish...\n")
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

// TryLock acquires the lock only if it is free.
func (l *CatalogLock) TryLock() (bool, error) {
	return l.lock.TryLock()
}

// Unlock releases the catalog lock.
func (l *CatalogLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		// Suppress error if the lock file doesn't exist, as it means we don't hold the lock.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
