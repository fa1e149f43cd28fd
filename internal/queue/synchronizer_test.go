package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/bradfortner/convergence-queue/internal/domain"
	"github.com/bradfortner/convergence-queue/internal/presentation"
	"github.com/bradfortner/convergence-queue/internal/queue"
	"github.com/bradfortner/convergence-queue/internal/store"
)

func newSynchronizer(initial domain.Snapshot) (*queue.Synchronizer, *store.MockStore) {
	st := store.NewMockStore(initial)
	return queue.NewSynchronizer(st, nil, zap.NewNop()), st
}

func TestSynchronizer_Append(t *testing.T) {
	sy, st := newSynchronizer(domain.Snapshot{24})
	ctx := context.Background()

	updated, err := sy.Apply(ctx, queue.Append(26))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Equal(domain.Snapshot{24, 26}) {
		t.Fatalf("expected [24 26], got %v", updated)
	}
	if !st.Content().Equal(domain.Snapshot{24, 26}) {
		t.Fatalf("durable content %v", st.Content())
	}
}

func TestSynchronizer_AppendKeepsDuplicates(t *testing.T) {
	sy, st := newSynchronizer(domain.Snapshot{24})

	_, _ = sy.Apply(context.Background(), queue.Append(24))
	if !st.Content().Equal(domain.Snapshot{24, 24}) {
		t.Fatalf("two requests for the same song must both queue, got %v", st.Content())
	}
}

func TestSynchronizer_RemoveFirstTargetsIdentifier(t *testing.T) {
	// The head changed while the caller was away; removal must target the
	// processed identifier, not whatever sits at index 0 now.
	sy, st := newSynchronizer(domain.Snapshot{26, 24, 28})

	updated, err := sy.Apply(context.Background(), queue.RemoveFirst(24))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Equal(domain.Snapshot{26, 28}) {
		t.Fatalf("expected [26 28], got %v", updated)
	}
	if !st.Content().Equal(domain.Snapshot{26, 28}) {
		t.Fatalf("durable content %v", st.Content())
	}
}

func TestSynchronizer_EmptyPopIsNoOp(t *testing.T) {
	sy, st := newSynchronizer(domain.Snapshot{})

	updated, err := sy.Apply(context.Background(), queue.RemoveFirst(24))
	if err != nil {
		t.Fatalf("removing from an empty queue must not error: %v", err)
	}
	if len(updated) != 0 {
		t.Fatalf("expected empty result, got %v", updated)
	}

	_, writes := st.Counts()
	if writes != 1 {
		t.Fatalf("expected the no-op write to still happen, writes=%d", writes)
	}
	if len(st.Content()) != 0 {
		t.Fatalf("content changed: %v", st.Content())
	}
}

// TestSynchronizer_MutationSeesConcurrentWrite is the lost-update
// regression: a write lands after this Apply's caller last looked at the
// queue but before Apply runs. Because Apply reads fresh, the concurrent
// append survives the removal.
func TestSynchronizer_MutationSeesConcurrentWrite(t *testing.T) {
	st := store.NewMockStore(domain.Snapshot{24})
	sy := queue.NewSynchronizer(st, nil, zap.NewNop())
	ctx := context.Background()

	// Stale view of the world: the caller believes the queue is [24].
	// Meanwhile two requests land durably.
	_, _ = sy.Apply(ctx, queue.Append(26))
	_, _ = sy.Apply(ctx, queue.Append(28))

	updated, err := sy.Apply(ctx, queue.RemoveFirst(24))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Equal(domain.Snapshot{26, 28}) {
		t.Fatalf("concurrent appends lost: got %v, want [26 28]", updated)
	}
}

func TestSynchronizer_ConcurrentAppendsAllSurvive(t *testing.T) {
	sy, st := newSynchronizer(domain.Snapshot{})
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := sy.Apply(ctx, queue.Append(domain.SongID(id))); err != nil {
				t.Errorf("append %d: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	content := st.Content()
	if len(content) != n {
		t.Fatalf("expected %d queued requests, got %d: %v", n, len(content), content)
	}

	seen := make(map[domain.SongID]bool, n)
	for _, id := range content {
		if seen[id] {
			t.Fatalf("duplicate entry %d", id)
		}
		seen[id] = true
	}
}

func TestSynchronizer_NotifierSeesEveryWrite(t *testing.T) {
	st := store.NewMockStore(domain.Snapshot{})
	var got []domain.Snapshot
	notifier := presentation.FuncNotifier(func(s domain.Snapshot) {
		got = append(got, s)
	})
	sy := queue.NewSynchronizer(st, notifier, zap.NewNop())
	ctx := context.Background()

	_, _ = sy.Apply(ctx, queue.Append(1))
	_, _ = sy.Apply(ctx, queue.Append(2))
	_, _ = sy.Apply(ctx, queue.RemoveFirst(1))

	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(got))
	}
	if !got[2].Equal(domain.Snapshot{2}) {
		t.Fatalf("final notification %v, want [2]", got[2])
	}
}

func TestSynchronizer_FailuresPropagateAndSkipNotify(t *testing.T) {
	st := store.NewMockStore(domain.Snapshot{1})
	notified := 0
	sy := queue.NewSynchronizer(st, presentation.FuncNotifier(func(domain.Snapshot) {
		notified++
	}), zap.NewNop())
	ctx := context.Background()

	st.ReadErr = errors.New("disk on fire")
	if _, err := sy.Apply(ctx, queue.Append(2)); err == nil {
		t.Fatal("expected read error to propagate")
	}

	st.ReadErr = nil
	st.WriteErr = errors.New("disk still on fire")
	if _, err := sy.Apply(ctx, queue.Append(2)); err == nil {
		t.Fatal("expected write error to propagate")
	}

	if notified != 0 {
		t.Fatalf("notifier must only fire on successful writes, fired %d times", notified)
	}
	if !st.Content().Equal(domain.Snapshot{1}) {
		t.Fatalf("content changed despite failures: %v", st.Content())
	}
}

func TestSynchronizer_CurrentDoesNotWrite(t *testing.T) {
	sy, st := newSynchronizer(domain.Snapshot{5})

	snap, err := sy.Current(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Equal(domain.Snapshot{5}) {
		t.Fatalf("expected [5], got %v", snap)
	}

	_, writes := st.Counts()
	if writes != 0 {
		t.Fatalf("Current must not write, writes=%d", writes)
	}
}
