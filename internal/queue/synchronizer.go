package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/bradfortner/convergence-queue/internal/domain"
	"github.com/bradfortner/convergence-queue/internal/presentation"
	"github.com/bradfortner/convergence-queue/internal/store"
)

// Synchronizer owns all access to the durable queue store. Every mutation is
// a read-latest, apply, write-latest sequence: the snapshot the mutation runs
// against is fetched immediately before it, and the result is written
// immediately after, with no suspension point in the gap.
//
// This discipline is what keeps concurrently-added requests alive. The two
// bug classes it exists to rule out:
//
//  1. Two writers each computing from an independently-aged in-memory copy,
//     where the second write silently discards the first writer's append.
//  2. The engine capturing the queue before a song starts and using that
//     stale copy to remove the song minutes later, dropping everything
//     requested while it played.
//
// Any snapshot held across a long operation is display-only. The removal
// after playback goes back through Apply, which re-reads first.
//
// Within the process, Apply calls are additionally serialized by a mutex, so
// concurrent submitters queue up rather than racing each other's writes —
// the single-owner version of the same pattern. The mutex is only ever held
// across one read-apply-write, never across playback.
type Synchronizer struct {
	mu       sync.Mutex
	store    store.Store
	notifier presentation.Notifier
	logger   *zap.Logger
}

func NewSynchronizer(st store.Store, notifier presentation.Notifier, logger *zap.Logger) *Synchronizer {
	if notifier == nil {
		notifier = presentation.Nop{}
	}
	return &Synchronizer{store: st, notifier: notifier, logger: logger}
}

// Apply runs one synchronized mutation and returns the snapshot that was
// durably written. On a read or write failure the mutation is not applied
// and the caller must not assume anything about durable state beyond what
// its next fresh read tells it.
func (s *Synchronizer) Apply(ctx context.Context, m Mutation) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Read(ctx)
	if err != nil {
		s.logger.Debug("synchronized read failed", zap.Error(err))
		return nil, err
	}

	updated := m(current)

	if err := s.store.Write(ctx, updated); err != nil {
		s.logger.Debug("synchronized write failed", zap.Error(err))
		return nil, err
	}

	s.notifier.OnQueueChanged(updated.Clone())
	return updated, nil
}

// Current returns the latest durable snapshot without writing. The result is
// a point-in-time copy for display or head inspection; it must never be the
// basis of a later write.
func (s *Synchronizer) Current(ctx context.Context) (domain.Snapshot, error) {
	return s.store.Read(ctx)
}
