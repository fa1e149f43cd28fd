package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bradfortner/convergence-queue/internal/catalog"
	"github.com/bradfortner/convergence-queue/internal/domain"
	"github.com/bradfortner/convergence-queue/internal/queue"
	"github.com/bradfortner/convergence-queue/internal/ratelimiter"
)

// NowPlayingSource is anything that reports the current playback state.
// The engine implements it; tests substitute a stub.
type NowPlayingSource interface {
	NowPlaying() (domain.NowPlaying, bool)
}

// QueuedSong is one pending request resolved against the catalog for display.
type QueuedSong struct {
	Position int         `json:"position"`
	Song     domain.Song `json:"song"`
}

// RequestService is the submission side of the paid queue. Every Submit is
// its own fresh read/apply/write cycle through the synchronizer, so
// concurrent submitters need no shared lock; the durable store is the
// serialization point.
type RequestService struct {
	sync    *queue.Synchronizer
	catalog *catalog.Catalog
	limiter *ratelimiter.SubmitLimiter
	playing NowPlayingSource
	logger  *zap.Logger

	// Metric hooks — injected by main so the service stays metrics-agnostic.
	onAccepted func()
	onRejected func(reason string)
}

func NewRequestService(
	sync *queue.Synchronizer,
	cat *catalog.Catalog,
	limiter *ratelimiter.SubmitLimiter,
	playing NowPlayingSource,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		sync:       sync,
		catalog:    cat,
		limiter:    limiter,
		playing:    playing,
		logger:     logger,
		onAccepted: func() {},
		onRejected: func(string) {},
	}
}

// SetMetricHooks installs the accepted/rejected callbacks (nil = no-op).
// Call before the service is shared across goroutines.
func (s *RequestService) SetMetricHooks(onAccepted func(), onRejected func(reason string)) {
	if onAccepted != nil {
		s.onAccepted = onAccepted
	}
	if onRejected != nil {
		s.onRejected = onRejected
	}
}

// Submit validates and durably appends one song request.
//
// The append goes through the synchronizer: read the latest queue, add the
// song at the tail, write the whole queue back, with no suspension point in
// between. A request that fails the durable write is reported to the caller
// — a paying requester is never silently dropped.
func (s *RequestService) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.Receipt, error) {
	if err := req.Validate(); err != nil {
		s.onRejected("invalid")
		return nil, err
	}

	song, err := s.catalog.Resolve(req.SongID)
	if err != nil {
		s.onRejected("unknown_song")
		return nil, err
	}

	if err := s.limiter.Allow(); err != nil {
		s.onRejected("rate_limited")
		return nil, err
	}

	updated, err := s.sync.Apply(ctx, queue.Append(req.SongID))
	if err != nil {
		s.onRejected("store")
		return nil, fmt.Errorf("append request: %w", err)
	}

	s.onAccepted()
	s.logger.Info("song request accepted",
		zap.Int("song_id", int(req.SongID)),
		zap.String("title", song.Title),
		zap.Int("queue_depth", len(updated)),
	)

	return &domain.Receipt{
		RequestID: uuid.New().String(),
		Song:      song,
		Position:  len(updated),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Queue returns the pending requests resolved against the catalog, in play
// order. It reads the store fresh so the GUI always renders durable truth.
// Entries whose ID no longer resolves are listed with just the ID so the
// display degrades instead of erroring.
func (s *RequestService) Queue(ctx context.Context) ([]QueuedSong, error) {
	snapshot, err := s.sync.Current(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]QueuedSong, len(snapshot))
	for i, id := range snapshot {
		song, err := s.catalog.Resolve(id)
		if err != nil {
			song = domain.Song{ID: id, Title: fmt.Sprintf("unknown song %d", id)}
		}
		out[i] = QueuedSong{Position: i + 1, Song: song}
	}
	return out, nil
}

// NowPlaying reports the current playback state.
func (s *RequestService) NowPlaying() (domain.NowPlaying, error) {
	if s.playing == nil {
		return domain.NowPlaying{}, domain.ErrNothingPlaying
	}
	np, ok := s.playing.NowPlaying()
	if !ok {
		return domain.NowPlaying{}, domain.ErrNothingPlaying
	}
	return np, nil
}

// Catalog returns the full song list for the selection screen.
func (s *RequestService) Catalog() []domain.Song {
	return s.catalog.Songs()
}
