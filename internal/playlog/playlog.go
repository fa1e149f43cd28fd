// Package playlog appends one line per completed play to the jukebox's play
// history file, the format operators have always grepped:
//
//	2026-08-30 21:04:00, Artist - Title, Played paid,
//
// Recording is best-effort: a failed append is logged and swallowed so the
// engine never stops over history bookkeeping.
package playlog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bradfortner/convergence-queue/internal/domain"
)

// Entry is one completed play.
type Entry struct {
	Artist   string
	Title    string
	Source   domain.PlaySource
	PlayedAt time.Time
}

// Logger appends play history entries to a file. An empty path disables it.
type Logger struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

func New(path string, logger *zap.Logger) *Logger {
	return &Logger{path: path, logger: logger}
}

// Record appends one history line. Timestamps are rounded to the second.
func (l *Logger) Record(e Entry) {
	if l.path == "" {
		return
	}

	line := fmt.Sprintf("%s, %s - %s, Played %s,\n",
		e.PlayedAt.Round(time.Second).Format("2006-01-02 15:04:05"),
		e.Artist, e.Title, e.Source)

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.logger.Warn("play log open failed", zap.String("path", l.path), zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		l.logger.Warn("play log write failed", zap.String("path", l.path), zap.Error(err))
	}
}
