package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/bradfortner/convergence-queue/internal/domain"
)

// FileStore keeps the queue in a single JSON file, the same encoding the
// jukebox has always used for its paid playlist. Writes go to a temp file in
// the same directory followed by a rename, so a reader racing a writer sees
// either the previous content or the new content, never a partial file.
//
// Transient I/O failures (the file briefly locked or busy) are retried a
// bounded number of times with a short delay. Once retries are exhausted the
// operation fails with domain.ErrStoreUnavailable and the caller must assume
// the write did not happen.
type FileStore struct {
	path       string
	retries    int
	retryDelay time.Duration
	logger     *zap.Logger
	onRetry    RetryHook
}

// RetryHook is invoked once per retried attempt, for metrics.
type RetryHook func()

func NewFileStore(path string, retries int, retryDelay time.Duration, logger *zap.Logger) *FileStore {
	if retries < 1 {
		retries = 1
	}
	return &FileStore{
		path:       path,
		retries:    retries,
		retryDelay: retryDelay,
		logger:     logger,
		onRetry:    func() {},
	}
}

// SetRetryHook installs a callback invoked on every retried attempt.
// Must be called before the store is shared across goroutines.
func (fs *FileStore) SetRetryHook(h RetryHook) {
	if h != nil {
		fs.onRetry = h
	}
}

// Read loads the current queue. A missing file is the empty queue, not an
// error — first run starts empty.
func (fs *FileStore) Read(ctx context.Context) (domain.Snapshot, error) {
	var lastErr error
	for attempt := 0; attempt < fs.retries; attempt++ {
		if attempt > 0 {
			fs.onRetry()
			if err := sleepCtx(ctx, fs.retryDelay); err != nil {
				return nil, err
			}
		}

		data, err := os.ReadFile(fs.path)
		if errors.Is(err, os.ErrNotExist) {
			return domain.Snapshot{}, nil
		}
		if err != nil {
			lastErr = err
			continue
		}

		var snapshot domain.Snapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			// The rename publish means a corrupt file is an operator
			// problem, not a torn write; retrying will not fix it.
			return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrStoreUnavailable, fs.path, err)
		}
		if snapshot == nil {
			snapshot = domain.Snapshot{}
		}
		return snapshot, nil
	}
	return nil, fmt.Errorf("%w: read %s after %d attempts: %v",
		domain.ErrStoreUnavailable, fs.path, fs.retries, lastErr)
}

// Write durably replaces the queue content. The snapshot is marshalled to a
// temp file first and renamed over the target, which is atomic on POSIX and
// NTFS alike.
func (fs *FileStore) Write(ctx context.Context, snapshot domain.Snapshot) error {
	data, err := json.Marshal(snapshot.Clone())
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < fs.retries; attempt++ {
		if attempt > 0 {
			fs.onRetry()
			if err := sleepCtx(ctx, fs.retryDelay); err != nil {
				return err
			}
		}

		if err := fs.publish(data); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	fs.logger.Error("queue write failed, retries exhausted",
		zap.String("path", fs.path), zap.Error(lastErr))
	return fmt.Errorf("%w: write %s after %d attempts: %v",
		domain.ErrStoreUnavailable, fs.path, fs.retries, lastErr)
}

// publish performs one atomic write attempt: temp file, sync, rename.
func (fs *FileStore) publish(data []byte) error {
	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish %s: %w", fs.path, err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// compile-time check that FileStore implements Store
var _ Store = (*FileStore)(nil)
