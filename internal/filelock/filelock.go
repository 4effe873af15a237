// Package filelock serializes writers of a workbook or cache entry and
// replaces files atomically, so a reader never observes a half-written
// workbook.
package filelock

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/minio/highwayhash"
)

// LockSuffix ends every lock file name.
const LockSuffix = ".lock"

// Dir holds the lock files. They live outside the folders being written so
// that locking a user's workbook leaves nothing next to it.
var Dir = filepath.Join(os.TempDir(), "cellfind-locks")

// lockKey is fixed so every process maps a target to the same lock file.
var lockKey = []byte("cellfind lock path\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")

// FileLock wraps a flock file lock for coordinating access to files.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a new file lock for the given lock file path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// PathFor names the lock file for target: its base name plus a hash of the
// absolute path, inside Dir.
func PathFor(target string) string {
	abs := absPath(target)
	sum := highwayhash.Sum64([]byte(abs), lockKey)
	return filepath.Join(Dir, fmt.Sprintf("%s-%016x%s", filepath.Base(abs), sum, LockSuffix))
}

// For returns the lock guarding target.
func For(target string) *FileLock {
	return NewFileLock(PathFor(target))
}

// Lock acquires an exclusive lock, blocking until it is available. The lock
// file's directory is created on demand.
func (fl *FileLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(fl.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory for %s: %w", fl.path, err)
	}
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// Unlock releases the lock. The lock file stays on disk; removing it would
// let a waiter and a newcomer lock different inodes.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// AtomicWriteFunc streams the new content produced by write into a temp file
// and renames it over path. Parent directories are created. An existing
// file's permission bits are kept; new files get 0644. If any step fails the
// original file is left untouched.
func AtomicWriteFunc(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	perm := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if err := write(tempFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}

// LockAndWrite holds path's lock for the duration of an AtomicWriteFunc.
func LockAndWrite(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	lock := For(path)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	return AtomicWriteFunc(path, write)
}
