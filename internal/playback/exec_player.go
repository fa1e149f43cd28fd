package playback

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"github.com/bradfortner/convergence-queue/internal/domain"
)

// ExecPlayer plays a song by running an external player process (the jukebox
// traditionally drives VLC) and waiting for it to exit. The song's file
// location is appended to the configured argument list.
type ExecPlayer struct {
	command string
	args    []string
	logger  *zap.Logger
}

func NewExecPlayer(command string, args []string, logger *zap.Logger) *ExecPlayer {
	return &ExecPlayer{command: command, args: args, logger: logger}
}

// Play blocks until the player process exits or ctx is cancelled.
// A missing song file is a failure before the process even starts; a
// cancelled ctx kills the process and reports Skipped.
func (p *ExecPlayer) Play(ctx context.Context, song domain.Song) Result {
	if _, err := os.Stat(song.Location); err != nil {
		return Result{Outcome: OutcomeFailed, Reason: "missing file: " + song.Location}
	}

	args := append(append([]string{}, p.args...), song.Location)
	cmd := exec.CommandContext(ctx, p.command, args...)

	p.logger.Info("playback starting",
		zap.Int("song_id", int(song.ID)),
		zap.String("title", song.Title),
		zap.String("location", song.Location),
	)

	err := cmd.Run()
	if ctx.Err() != nil {
		return Result{Outcome: OutcomeSkipped, Reason: ctx.Err().Error()}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{Outcome: OutcomeFailed, Reason: "player exited: " + exitErr.String()}
		}
		return Result{Outcome: OutcomeFailed, Reason: err.Error()}
	}
	return Result{Outcome: OutcomeSucceeded}
}

// compile-time check that ExecPlayer implements Player
var _ Player = (*ExecPlayer)(nil)
