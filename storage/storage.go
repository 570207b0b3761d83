// Package storage implements the file access used by the tokenizer tools: reading corpora and input
// text, reading and writing ids lists, and saving/loading persisted models.
//
// Writes are atomic: the content is written to a temporary file next to the target, and then moved in
// place while holding a "<path>.lock" file lock, so concurrent writers (other processes included)
// never leave a partially written file behind.
package storage

import (
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/edsrzf/mmap-go"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultDirCreationPerm is used when creating the directory of a written file.
var DefaultDirCreationPerm = os.FileMode(0755)

// DefaultFileCreationPerm is used for written files.
var DefaultFileCreationPerm = os.FileMode(0644)

// ReadText returns the contents of the file at path, memory-mapping it to avoid an extra copy
// of large corpora while reading.
func ReadText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %q", path)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return "", errors.Wrapf(err, "failed to stat %q", path)
	}
	if info.Size() == 0 {
		// Empty files can't be mapped.
		return "", nil
	}
	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return "", errors.Wrapf(err, "failed to mmap %q", path)
	}
	text := string(mapped)
	if err := mapped.Unmap(); err != nil {
		klog.Warningf("Failed to unmap %q: %v", path, err)
	}
	return text, nil
}

// WriteFile atomically writes data to path, creating its directory if needed.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for file %q", path)
	}

	lockPath := path + ".lock"
	var mainErr error
	errLock := execOnFileLock(lockPath, func() {
		tmpPath := path + "." + uuid.NewString() + ".tmp"
		if err := os.WriteFile(tmpPath, data, DefaultFileCreationPerm); err != nil {
			mainErr = errors.Wrapf(err, "failed to write temporary file %q", tmpPath)
			if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
				klog.Warningf("Failed removing temporary file %q: %v", tmpPath, err)
			}
			return
		}
		if err := os.Rename(tmpPath, path); err != nil {
			mainErr = errors.Wrapf(err, "failed to move temporary file %q to %q", tmpPath, path)
			if err := os.Remove(tmpPath); err != nil {
				klog.Warningf("Failed removing temporary file %q: %v", tmpPath, err)
			}
			return
		}
		// The target is in place, the lock file is no longer needed.
		if err := os.Remove(lockPath); err != nil {
			klog.Warningf("Failed removing lock file %q: %v", lockPath, err)
		}
	})
	if mainErr != nil {
		return mainErr
	}
	if errLock != nil {
		return errors.WithMessagef(errLock, "while locking %q to write %q", lockPath, path)
	}
	return nil
}

// lockRetryPeriod is the base period between attempts to acquire a busy lock: the actual wait is
// randomized between 1x and 2x this value.
var lockRetryPeriod = 100 * time.Millisecond

// execOnFileLock opens the lockPath file (or creates if it doesn't yet exist), locks it, and executes fn.
// If lockPath is already locked, it polls until it acquires the lock.
func execOnFileLock(lockPath string, fn func()) (err error) {
	fileLock := flock.New(lockPath)
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return errors.Wrapf(err, "while trying to lock %q", lockPath)
		}
		if locked {
			break
		}
		time.Sleep(lockRetryPeriod + time.Duration(rand.Int63n(int64(lockRetryPeriod))))
	}

	// Unlock in a deferred function, so it happens even if fn panics.
	defer func() {
		unlockErr := fileLock.Unlock()
		if unlockErr != nil {
			if err == nil {
				err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
			} else {
				klog.Errorf("Error unlocking file %q: %v", lockPath, unlockErr)
			}
		}
	}()
	fn()
	return
}
