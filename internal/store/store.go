package store

import (
	"context"

	"github.com/bradfortner/convergence-queue/internal/domain"
)

// Store persists the paid-request queue. It is the single source of truth
// shared between the submission side and the engine; both always go through
// the synchronizer, never through a Store directly.
//
// Read returns the complete current snapshot (empty on first run).
// Write replaces the durable content in its entirety — callers always supply
// the full desired queue, never a delta. Implementations must guarantee that
// a concurrent reader observes either the fully-old or fully-new content,
// never a mix.
type Store interface {
	Read(ctx context.Context) (domain.Snapshot, error)
	Write(ctx context.Context, snapshot domain.Snapshot) error
}
