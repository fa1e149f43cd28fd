package playback

import (
	"context"

	"github.com/bradfortner/convergence-queue/internal/domain"
)

// Outcome is how a playback attempt ended.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Result carries the outcome and, for failures, the reason.
type Result struct {
	Outcome Outcome
	Reason  string
}

// Player plays one song to completion. Play blocks for the duration of the
// song — minutes, typically — and is the engine's single long suspension
// point. Cancelling ctx stops playback early; the player reports Skipped.
//
// Mocking this interface in tests gives full control over playback timing
// without real audio.
type Player interface {
	Play(ctx context.Context, song domain.Song) Result
}
