package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/bradfortner/convergence-queue/internal/api/middleware"
	"github.com/bradfortner/convergence-queue/internal/domain"
	"github.com/bradfortner/convergence-queue/internal/service"
)

// RequestHandler exposes the paid-queue submission and viewing endpoints.
// This is the surface the selection GUI talks to; the GUI owns all rendering
// and user-facing retry behavior.
type RequestHandler struct {
	svc    *service.RequestService
	logger *zap.Logger
}

func NewRequestHandler(svc *service.RequestService, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{svc: svc, logger: logger}
}

// Submit handles POST /api/v1/requests.
// 201 with a receipt on success; 404 unknown song; 429 over the submission
// rate; 503 when the durable write failed and the request was not taken.
func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	receipt, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		h.logger.Warn("song request rejected",
			zap.String("request_id", apimw.GetRequestID(r.Context())),
			zap.Int("song_id", int(req.SongID)),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, receipt)
}

// Queue handles GET /api/v1/queue: the pending requests in play order.
func (h *RequestHandler) Queue(w http.ResponseWriter, r *http.Request) {
	pending, err := h.svc.Queue(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"depth": len(pending),
		"queue": pending,
	})
}

// Catalog handles GET /api/v1/catalog: the full song list for the
// selection screen.
func (h *RequestHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	songs := h.svc.Catalog()
	respondJSON(w, http.StatusOK, map[string]any{
		"total": len(songs),
		"songs": songs,
	})
}
