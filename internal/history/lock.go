package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrBookLocked indicates another process is importing into the same book.
var ErrBookLocked = errors.New("book is locked by another import")

// BookLock is an advisory, exclusive lock serializing runs against one book.
type BookLock struct {
	file *os.File
}

// AcquireBookLock takes the lock for book without waiting. It returns
// ErrBookLocked when another process holds it.
func AcquireBookLock(workDir, book string) (*BookLock, error) {
	dir := filepath.Join(workDir, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", Dir, err)
	}

	lockPath := filepath.Join(dir, book+".lock")
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open book lock: %w", err)
	}

	if err := lockFileExclusiveNonBlocking(lockFile); err != nil {
		lockFile.Close()
		if isWouldBlockError(err) {
			return nil, fmt.Errorf("%s: %w", book, ErrBookLocked)
		}
		return nil, fmt.Errorf("failed to acquire book lock: %w", err)
	}

	return &BookLock{file: lockFile}, nil
}

// Release drops the lock. It is safe to call on a nil lock.
func (l *BookLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
