package playback

import (
	"context"
	"sync"

	"github.com/bradfortner/convergence-queue/internal/domain"
)

// MockPlayer is a hand-written Player for tests. Each Play blocks until the
// test releases it, so a test can do work "while the song plays" — exactly
// the window the queue synchronization is designed to survive.
type MockPlayer struct {
	mu      sync.Mutex
	results map[domain.SongID]Result
	played  []domain.SongID

	started chan domain.SongID
	release chan struct{}
}

// NewMockPlayer returns a player whose Play calls announce themselves on
// Started() and then block until Release() is called once per play.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{
		results: make(map[domain.SongID]Result),
		started: make(chan domain.SongID, 64),
		release: make(chan struct{}, 64),
	}
}

// SetResult scripts the outcome for a song. Unscripted songs succeed.
func (m *MockPlayer) SetResult(id domain.SongID, r Result) {
	m.mu.Lock()
	m.results[id] = r
	m.mu.Unlock()
}

// Started yields the ID of each song as its playback begins.
func (m *MockPlayer) Started() <-chan domain.SongID { return m.started }

// Release lets the currently blocked Play call finish.
func (m *MockPlayer) Release() { m.release <- struct{}{} }

// Played returns the IDs played so far, in order of start.
func (m *MockPlayer) Played() []domain.SongID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SongID, len(m.played))
	copy(out, m.played)
	return out
}

func (m *MockPlayer) Play(ctx context.Context, song domain.Song) Result {
	m.mu.Lock()
	m.played = append(m.played, song.ID)
	result, scripted := m.results[song.ID]
	m.mu.Unlock()

	m.started <- song.ID

	select {
	case <-m.release:
	case <-ctx.Done():
		return Result{Outcome: OutcomeSkipped, Reason: ctx.Err().Error()}
	}

	if !scripted {
		return Result{Outcome: OutcomeSucceeded}
	}
	return result
}

// compile-time check that MockPlayer implements Player
var _ Player = (*MockPlayer)(nil)
