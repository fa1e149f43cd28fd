// Package engine runs the jukebox's single consumer loop: it drains the
// durable paid-request queue one song at a time and falls back to the
// rotation playlist when no requests wait.
package engine

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bradfortner/convergence-queue/internal/catalog"
	"github.com/bradfortner/convergence-queue/internal/domain"
	"github.com/bradfortner/convergence-queue/internal/playback"
	"github.com/bradfortner/convergence-queue/internal/playlog"
	"github.com/bradfortner/convergence-queue/internal/queue"
	"github.com/bradfortner/convergence-queue/internal/rotation"
)

// State is the engine's position in its cycle, exported for observability.
type State string

const (
	StateIdle        State = "idle"
	StateHasWork     State = "has_work"
	StateProcessing  State = "processing"
	StateReconciling State = "reconciling"
)

// StateNames lists every state, for gauge registration.
var StateNames = []string{
	string(StateIdle), string(StateHasWork),
	string(StateProcessing), string(StateReconciling),
}

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the engine constructor signature clean.
type MetricHooks struct {
	OnState  func(state string)
	OnPlayed func(source domain.PlaySource, outcome playback.Outcome, elapsed time.Duration)
}

func (h *MetricHooks) fillNops() {
	if h.OnState == nil {
		h.OnState = func(string) {}
	}
	if h.OnPlayed == nil {
		h.OnPlayed = func(domain.PlaySource, playback.Outcome, time.Duration) {}
	}
}

// Engine is the one long-running consumer of the paid queue. Exactly one
// engine may run against a given store: head-removal is not conflict-free
// across two simultaneous consumers.
//
// The cycle is IDLE → HAS_WORK → PROCESSING → RECONCILING → IDLE. The only
// long suspension point is PROCESSING, while a song plays. Nothing read
// before that suspension is ever used as the basis of a write after it: the
// removal of the just-played song goes through the synchronizer, which reads
// the store fresh, so requests that arrived during the song survive.
type Engine struct {
	sync     *queue.Synchronizer
	catalog  *catalog.Catalog
	player   playback.Player
	rotation *rotation.Rotation // nil disables the rotation fallback
	history  *playlog.Logger
	hooks    MetricHooks
	logger   *zap.Logger

	pollInterval   time.Duration
	nowPlayingFile string

	mu      sync.RWMutex
	current *domain.NowPlaying
	skip    context.CancelFunc
}

func New(
	sy *queue.Synchronizer,
	cat *catalog.Catalog,
	player playback.Player,
	rot *rotation.Rotation,
	history *playlog.Logger,
	pollInterval time.Duration,
	nowPlayingFile string,
	logger *zap.Logger,
	hooks MetricHooks,
) *Engine {
	hooks.fillNops()
	return &Engine{
		sync:           sy,
		catalog:        cat,
		player:         player,
		rotation:       rot,
		history:        history,
		hooks:          hooks,
		logger:         logger,
		pollInterval:   pollInterval,
		nowPlayingFile: nowPlayingFile,
	}
}

// Run blocks until ctx is cancelled. Paid requests always win: the queue is
// re-read before every song, and only one rotation song plays per empty
// check, so a request submitted during a rotation song plays next.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("engine started", zap.Duration("poll_interval", e.pollInterval))

	for {
		if ctx.Err() != nil {
			e.logger.Info("engine stopping")
			return
		}
		e.setState(StateIdle)

		snapshot, err := e.sync.Current(ctx)
		if err != nil {
			e.logger.Error("queue read failed, retrying next cycle", zap.Error(err))
			if !e.sleep(ctx) {
				return
			}
			continue
		}

		head, ok := snapshot.Head()
		if !ok {
			if e.playRotation(ctx) {
				continue // a request may have arrived during the rotation song
			}
			if !e.sleep(ctx) {
				return
			}
			continue
		}

		e.setState(StateHasWork)
		e.playPaid(ctx, head)
	}
}

// NowPlaying reports the song currently being played, if any.
func (e *Engine) NowPlaying() (domain.NowPlaying, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return domain.NowPlaying{}, false
	}
	return *e.current, true
}

// Skip ends the current song early. The engine treats a skipped song like a
// finished one: it still reconciles and removes it from the queue.
func (e *Engine) Skip() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.skip == nil {
		return domain.ErrNothingPlaying
	}
	e.skip()
	return nil
}

// playPaid plays the queue head and then reconciles it away.
func (e *Engine) playPaid(ctx context.Context, head domain.SongID) {
	song, err := e.catalog.Resolve(head)
	if err != nil {
		// A stale ID (catalog shrank since the request) can never play;
		// remove it so it cannot wedge the queue.
		e.logger.Warn("queue head not in catalog, dropping",
			zap.Int("song_id", int(head)), zap.Error(err))
		e.setState(StateReconciling)
		e.reconcile(ctx, head)
		return
	}

	result, elapsed := e.play(ctx, song, domain.SourcePaid)

	if ctx.Err() != nil && result.Outcome == playback.OutcomeSkipped {
		// Shutdown cut the song off. Leave it queued; it plays again on
		// the next boot rather than being half-delivered and dropped.
		return
	}

	e.hooks.OnPlayed(domain.SourcePaid, result.Outcome, elapsed)
	e.logOutcome(song, domain.SourcePaid, result, elapsed)

	// The snapshot that produced head is dead now — minutes old. The removal
	// runs against a fresh read, preserving anything added during playback.
	e.setState(StateReconciling)
	e.reconcile(ctx, head)
}

// playRotation plays one background song. Reports false when rotation is
// disabled or empty, telling the caller to fall back to plain polling.
func (e *Engine) playRotation(ctx context.Context) bool {
	if e.rotation == nil {
		return false
	}
	id, ok := e.rotation.Next()
	if !ok {
		return false
	}

	song, err := e.catalog.Resolve(id)
	if err != nil {
		e.logger.Warn("rotation song not in catalog, skipping",
			zap.Int("song_id", int(id)), zap.Error(err))
		return true
	}

	result, elapsed := e.play(ctx, song, domain.SourceRotation)
	if ctx.Err() != nil && result.Outcome == playback.OutcomeSkipped {
		return true
	}

	e.hooks.OnPlayed(domain.SourceRotation, result.Outcome, elapsed)
	e.logOutcome(song, domain.SourceRotation, result, elapsed)
	return true
}

// play is the single long suspension point: it blocks for the length of the
// song. Now-playing state is published before the player starts and cleared
// when it returns.
func (e *Engine) play(ctx context.Context, song domain.Song, source domain.PlaySource) (playback.Result, time.Duration) {
	playCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	e.current = &domain.NowPlaying{Song: song, Source: source, StartedAt: time.Now().UTC()}
	e.skip = cancel
	e.mu.Unlock()

	e.writeNowPlayingFile(song.Location)
	e.setState(StateProcessing)

	start := time.Now()
	result := e.player.Play(playCtx, song)
	elapsed := time.Since(start)

	e.mu.Lock()
	e.current = nil
	e.skip = nil
	e.mu.Unlock()

	return result, elapsed
}

// reconcile removes the just-played song from a freshly-read snapshot.
// Failure is logged, not fatal: the loop never trusts its own in-memory
// state across a failed write, it simply re-reads next cycle.
func (e *Engine) reconcile(ctx context.Context, head domain.SongID) {
	updated, err := e.sync.Apply(ctx, queue.RemoveFirst(head))
	if err != nil {
		e.logger.Error("reconciliation failed, will re-read next cycle",
			zap.Int("song_id", int(head)), zap.Error(err))
		return
	}
	e.logger.Info("request reconciled",
		zap.Int("song_id", int(head)),
		zap.Int("queue_depth", len(updated)),
	)
}

func (e *Engine) logOutcome(song domain.Song, source domain.PlaySource, result playback.Result, elapsed time.Duration) {
	log := e.logger.With(
		zap.Int("song_id", int(song.ID)),
		zap.String("title", song.Title),
		zap.String("artist", song.Artist),
		zap.String("source", string(source)),
		zap.Duration("elapsed", elapsed),
	)

	switch result.Outcome {
	case playback.OutcomeSucceeded:
		log.Info("song played")
		e.history.Record(playlog.Entry{
			Artist: song.Artist, Title: song.Title,
			Source: source, PlayedAt: time.Now().UTC(),
		})
	case playback.OutcomeSkipped:
		log.Info("song skipped", zap.String("reason", result.Reason))
	case playback.OutcomeFailed:
		// Failed songs are dropped, not retried: a broken file would
		// otherwise wedge the head of the queue forever.
		log.Warn("playback failed, request dropped", zap.String("reason", result.Reason))
	}
}

func (e *Engine) writeNowPlayingFile(location string) {
	if e.nowPlayingFile == "" {
		return
	}
	if err := os.WriteFile(e.nowPlayingFile, []byte(location), 0o644); err != nil {
		e.logger.Warn("now-playing file write failed",
			zap.String("path", e.nowPlayingFile), zap.Error(err))
	}
}

func (e *Engine) setState(s State) {
	e.hooks.OnState(string(s))
}

// sleep waits one poll interval; false means ctx was cancelled.
func (e *Engine) sleep(ctx context.Context) bool {
	timer := time.NewTimer(e.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		e.logger.Info("engine stopping")
		return false
	case <-timer.C:
		return true
	}
}
