// Package rotation supplies the background playlist the engine falls back to
// when no paid requests are waiting. The jukebox behavior: shuffle the whole
// catalog once, then cycle — each played song moves to the back of the line,
// so every song plays before any repeats.
package rotation

import (
	"math/rand"
	"sync"

	"github.com/bradfortner/convergence-queue/internal/domain"
)

// Rotation is a shuffled move-to-end cycle over catalog IDs.
// Safe for concurrent use, though only the engine advances it.
type Rotation struct {
	mu    sync.Mutex
	order []domain.SongID
}

// New shuffles ids into a fresh rotation. An empty id list yields a rotation
// whose Next always reports false.
func New(ids []domain.SongID) *Rotation {
	order := make([]domain.SongID, len(ids))
	copy(order, ids)
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return &Rotation{order: order}
}

// Next returns the next rotation song and moves it to the end of the cycle.
func (r *Rotation) Next() (domain.SongID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return 0, false
	}
	head := r.order[0]
	copy(r.order, r.order[1:])
	r.order[len(r.order)-1] = head
	return head, true
}

// Len reports the rotation size.
func (r *Rotation) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Upcoming returns the next n songs in cycle order without advancing.
func (r *Rotation) Upcoming(n int) []domain.SongID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > len(r.order) {
		n = len(r.order)
	}
	out := make([]domain.SongID, n)
	copy(out, r.order[:n])
	return out
}
