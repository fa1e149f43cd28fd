package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bradfortner/convergence-queue/internal/domain"
	"github.com/bradfortner/convergence-queue/internal/service"
)

// Skipper ends the current song early. Implemented by the engine.
type Skipper interface {
	Skip() error
}

// PlayerHandler exposes read-only playback state and the skip control.
type PlayerHandler struct {
	svc     *service.RequestService
	skipper Skipper
	logger  *zap.Logger
}

func NewPlayerHandler(svc *service.RequestService, skipper Skipper, logger *zap.Logger) *PlayerHandler {
	return &PlayerHandler{svc: svc, skipper: skipper, logger: logger}
}

// NowPlaying handles GET /api/v1/now-playing.
// 204 when nothing is playing.
func (h *PlayerHandler) NowPlaying(w http.ResponseWriter, r *http.Request) {
	np, err := h.svc.NowPlaying()
	if err != nil {
		if errors.Is(err, domain.ErrNothingPlaying) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, np)
}

// Skip handles POST /api/v1/skip. The skipped song is still removed from the
// queue, same as a song that finished.
func (h *PlayerHandler) Skip(w http.ResponseWriter, r *http.Request) {
	if err := h.skipper.Skip(); err != nil {
		mapError(w, err)
		return
	}
	h.logger.Info("skip requested")
	w.WriteHeader(http.StatusAccepted)
}
