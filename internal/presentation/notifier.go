// Package presentation delivers read-only queue snapshots to whoever renders
// them. Notifiers never mutate the queue; they are told about every
// successful synchronized write, after the fact.
package presentation

import (
	"sync"

	"go.uber.org/zap"

	"github.com/bradfortner/convergence-queue/internal/domain"
)

// Notifier receives the queue content after each successful write.
// Implementations must not block for long: they run on the writer's goroutine.
type Notifier interface {
	OnQueueChanged(snapshot domain.Snapshot)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) OnQueueChanged(domain.Snapshot) {}

// Multi fans one notification out to several notifiers in order.
type Multi []Notifier

func (m Multi) OnQueueChanged(snapshot domain.Snapshot) {
	for _, n := range m {
		n.OnQueueChanged(snapshot)
	}
}

// LogNotifier emits a debug log line per queue change.
type LogNotifier struct {
	Logger *zap.Logger
}

func (l LogNotifier) OnQueueChanged(snapshot domain.Snapshot) {
	l.Logger.Debug("queue changed", zap.Int("depth", len(snapshot)), zap.Any("queue", snapshot))
}

// SnapshotCache retains the most recent snapshot for readers that want the
// current queue without touching the store, e.g. the HTTP layer's queue view
// between polls.
type SnapshotCache struct {
	mu   sync.RWMutex
	last domain.Snapshot
}

func (c *SnapshotCache) OnQueueChanged(snapshot domain.Snapshot) {
	c.mu.Lock()
	c.last = snapshot.Clone()
	c.mu.Unlock()
}

// Last returns the most recently published snapshot, or an empty one if no
// write has happened yet.
func (c *SnapshotCache) Last() domain.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last.Clone()
}

// FuncNotifier adapts a plain function to the Notifier interface.
type FuncNotifier func(domain.Snapshot)

func (f FuncNotifier) OnQueueChanged(snapshot domain.Snapshot) { f(snapshot) }
