package engine_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bradfortner/convergence-queue/internal/catalog"
	"github.com/bradfortner/convergence-queue/internal/domain"
	"github.com/bradfortner/convergence-queue/internal/engine"
	"github.com/bradfortner/convergence-queue/internal/playback"
	"github.com/bradfortner/convergence-queue/internal/playlog"
	"github.com/bradfortner/convergence-queue/internal/queue"
	"github.com/bradfortner/convergence-queue/internal/rotation"
	"github.com/bradfortner/convergence-queue/internal/store"
)

const waitFor = 2 * time.Second

func testCatalog(t *testing.T, ids ...domain.SongID) *catalog.Catalog {
	t.Helper()
	songs := make([]domain.Song, len(ids))
	for i, id := range ids {
		songs[i] = domain.Song{
			ID: id, Title: "Song", Artist: "Artist",
			Location: "/music/song.mp3",
		}
	}
	cat, err := catalog.New(songs)
	if err != nil {
		t.Fatal(err)
	}
	return cat
}

type fixture struct {
	store  *store.MockStore
	sync   *queue.Synchronizer
	player *playback.MockPlayer
	engine *engine.Engine
	cancel context.CancelFunc
	done   chan struct{}
}

// startEngine runs an engine against a mock store and a blocking mock
// player. rot may be nil.
func startEngine(t *testing.T, initial domain.Snapshot, rot *rotation.Rotation, ids ...domain.SongID) *fixture {
	t.Helper()

	st := store.NewMockStore(initial)
	sy := queue.NewSynchronizer(st, nil, zap.NewNop())
	player := playback.NewMockPlayer()
	eng := engine.New(sy, testCatalog(t, ids...), player, rot,
		playlog.New("", zap.NewNop()),
		5*time.Millisecond, "", zap.NewNop(), engine.MetricHooks{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		eng.Run(ctx)
	}()

	f := &fixture{store: st, sync: sy, player: player, engine: eng, cancel: cancel, done: done}
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(waitFor):
			t.Error("engine did not stop")
		}
	})
	return f
}

func (f *fixture) awaitStart(t *testing.T) domain.SongID {
	t.Helper()
	select {
	case id := <-f.player.Started():
		return id
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for playback to start")
		return 0
	}
}

func (f *fixture) awaitContent(t *testing.T, want domain.Snapshot) {
	t.Helper()
	deadline := time.Now().Add(waitFor)
	for time.Now().Before(deadline) {
		if f.store.Content().Equal(want) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("store never reached %v, last content %v", want, f.store.Content())
}

func TestEngine_DrainsInFIFOOrder(t *testing.T) {
	f := startEngine(t, domain.Snapshot{1, 2, 3}, nil, 1, 2, 3)

	for _, want := range []domain.SongID{1, 2, 3} {
		if got := f.awaitStart(t); got != want {
			t.Fatalf("expected song %d, got %d", want, got)
		}
		f.player.Release()
	}
	f.awaitContent(t, domain.Snapshot{})
}

// TestEngine_RequestsDuringPlaybackSurvive is the historical bug this design
// exists to prevent: requests submitted while a song plays must still be
// queued once that song is reconciled away.
func TestEngine_RequestsDuringPlaybackSurvive(t *testing.T) {
	f := startEngine(t, domain.Snapshot{24}, nil, 24, 26, 28)
	ctx := context.Background()

	if got := f.awaitStart(t); got != 24 {
		t.Fatalf("expected 24 first, got %d", got)
	}

	// Song 24 is playing. Two requests land durably.
	if _, err := f.sync.Apply(ctx, queue.Append(26)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.sync.Apply(ctx, queue.Append(28)); err != nil {
		t.Fatal(err)
	}

	// 24 has not been removed yet; the queue holds all three.
	if got := f.store.Content(); !got.Equal(domain.Snapshot{24, 26, 28}) {
		t.Fatalf("during playback expected [24 26 28], got %v", got)
	}

	f.player.Release()

	// Reconciliation removes exactly 24, from a fresh read.
	f.awaitContent(t, domain.Snapshot{26, 28})

	if got := f.awaitStart(t); got != 26 {
		t.Fatalf("expected 26 next, got %d", got)
	}
	f.player.Release()
	if got := f.awaitStart(t); got != 28 {
		t.Fatalf("expected 28 last, got %d", got)
	}
	f.player.Release()
	f.awaitContent(t, domain.Snapshot{})
}

func TestEngine_RemovesEachRequestAtMostOnce(t *testing.T) {
	// Two requests for the same song: finishing the first play must leave
	// the second request queued.
	f := startEngine(t, domain.Snapshot{24, 24}, nil, 24)

	if got := f.awaitStart(t); got != 24 {
		t.Fatalf("expected 24, got %d", got)
	}
	f.player.Release()
	f.awaitContent(t, domain.Snapshot{24})

	if got := f.awaitStart(t); got != 24 {
		t.Fatalf("expected the second 24, got %d", got)
	}
	f.player.Release()
	f.awaitContent(t, domain.Snapshot{})
}

func TestEngine_FailedPlaybackDropsRequest(t *testing.T) {
	f := startEngine(t, domain.Snapshot{24, 26}, nil, 24, 26)
	f.player.SetResult(24, playback.Result{Outcome: playback.OutcomeFailed, Reason: "decoder blew up"})

	if got := f.awaitStart(t); got != 24 {
		t.Fatalf("expected 24, got %d", got)
	}
	f.player.Release()

	// The failed song is removed, not retried; the loop moves on.
	if got := f.awaitStart(t); got != 26 {
		t.Fatalf("expected 26 after the failure, got %d", got)
	}
	f.player.Release()
	f.awaitContent(t, domain.Snapshot{})
}

func TestEngine_DropsHeadMissingFromCatalog(t *testing.T) {
	// 99 is not in the catalog: it can never play, so the engine must
	// remove it rather than wedge the queue head.
	f := startEngine(t, domain.Snapshot{99, 24}, nil, 24)

	if got := f.awaitStart(t); got != 24 {
		t.Fatalf("expected 24 after dropping 99, got %d", got)
	}
	f.player.Release()
	f.awaitContent(t, domain.Snapshot{})
}

func TestEngine_SkipStillReconciles(t *testing.T) {
	f := startEngine(t, domain.Snapshot{24}, nil, 24)

	if got := f.awaitStart(t); got != 24 {
		t.Fatalf("expected 24, got %d", got)
	}
	if err := f.engine.Skip(); err != nil {
		t.Fatalf("skip: %v", err)
	}

	// No Release: the skip cancels playback. The song still leaves the queue.
	f.awaitContent(t, domain.Snapshot{})
}

func TestEngine_SkipWithNothingPlaying(t *testing.T) {
	f := startEngine(t, domain.Snapshot{}, nil, 24)

	if err := f.engine.Skip(); err != domain.ErrNothingPlaying {
		t.Fatalf("expected ErrNothingPlaying, got %v", err)
	}
}

func TestEngine_RotationFillsIdleAndYieldsToRequests(t *testing.T) {
	rot := rotation.New([]domain.SongID{7})
	f := startEngine(t, domain.Snapshot{}, rot, 7, 24)
	ctx := context.Background()

	// Queue is empty: a rotation song starts.
	if got := f.awaitStart(t); got != 7 {
		t.Fatalf("expected rotation song 7, got %d", got)
	}

	// A paid request arrives mid-rotation-song.
	if _, err := f.sync.Apply(ctx, queue.Append(24)); err != nil {
		t.Fatal(err)
	}
	f.player.Release()

	// Paid requests always win over the next rotation pick.
	if got := f.awaitStart(t); got != 24 {
		t.Fatalf("expected paid request 24 after rotation song, got %d", got)
	}
	f.player.Release()
	f.awaitContent(t, domain.Snapshot{})

	// Rotation songs never touch the durable queue: the only writes are the
	// append of 24 and its reconciliation.
	if _, writes := f.store.Counts(); writes != 2 {
		t.Fatalf("expected exactly 2 writes, got %d", writes)
	}
}

func TestEngine_NowPlaying(t *testing.T) {
	f := startEngine(t, domain.Snapshot{24}, nil, 24)

	if got := f.awaitStart(t); got != 24 {
		t.Fatalf("expected 24, got %d", got)
	}

	np, ok := f.engine.NowPlaying()
	if !ok {
		t.Fatal("expected a now-playing song")
	}
	if np.Song.ID != 24 || np.Source != domain.SourcePaid {
		t.Fatalf("unexpected now-playing %+v", np)
	}

	f.player.Release()
	f.awaitContent(t, domain.Snapshot{})

	deadline := time.Now().Add(waitFor)
	for {
		if _, ok := f.engine.NowPlaying(); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("now-playing never cleared")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEngine_ShutdownLeavesInterruptedSongQueued(t *testing.T) {
	f := startEngine(t, domain.Snapshot{24}, nil, 24)

	if got := f.awaitStart(t); got != 24 {
		t.Fatalf("expected 24, got %d", got)
	}

	f.cancel()
	select {
	case <-f.done:
	case <-time.After(waitFor):
		t.Fatal("engine did not stop")
	}

	// The cut-off song plays again next boot instead of being dropped.
	if got := f.store.Content(); !got.Equal(domain.Snapshot{24}) {
		t.Fatalf("expected [24] preserved across shutdown, got %v", got)
	}
}
