package store

import (
	"context"
	"sync"

	"github.com/bradfortner/convergence-queue/internal/domain"
)

// MockStore is a hand-written, in-memory implementation of Store used in
// unit tests. No mock-generation library needed.
//
// The hooks let a test interleave a concurrent mutation at an exact point:
// BeforeWrite fires between the caller's read and write (the window the
// synchronizer is designed to keep free of suspension points), AfterRead
// fires just after a read returns.
type MockStore struct {
	mu       sync.Mutex
	snapshot domain.Snapshot

	reads  int
	writes int

	// Optional error overrides — set in tests to simulate failure paths.
	ReadErr  error
	WriteErr error

	// Optional interleaving hooks (called without the lock held).
	AfterRead   func(domain.Snapshot)
	BeforeWrite func(domain.Snapshot)
}

func NewMockStore(initial domain.Snapshot) *MockStore {
	return &MockStore{snapshot: initial.Clone()}
}

func (m *MockStore) Read(_ context.Context) (domain.Snapshot, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	m.mu.Lock()
	snap := m.snapshot.Clone()
	m.reads++
	m.mu.Unlock()

	if m.AfterRead != nil {
		m.AfterRead(snap)
	}
	return snap, nil
}

func (m *MockStore) Write(_ context.Context, snapshot domain.Snapshot) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	if m.BeforeWrite != nil {
		m.BeforeWrite(snapshot.Clone())
	}
	m.mu.Lock()
	m.snapshot = snapshot.Clone()
	m.writes++
	m.mu.Unlock()
	return nil
}

// Content returns the current durable content, for assertions.
func (m *MockStore) Content() domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot.Clone()
}

// Counts returns how many reads and writes have been served.
func (m *MockStore) Counts() (reads, writes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads, m.writes
}

// compile-time check that MockStore implements Store
var _ Store = (*MockStore)(nil)
