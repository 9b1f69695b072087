package api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ayusman/goldenreps/internal/capture"
	"github.com/ayusman/goldenreps/internal/session"
)

// Controller is the part of session.Controller the API drives.
type Controller interface {
	Start(ctx context.Context) (session.Status, error)
	Stop(ctx context.Context) (session.Summary, error)
	Reset() session.Status
	Status() session.Status
}

// SessionHandler exposes start, stop, reset and status of the live session.
type SessionHandler struct {
	ctl    Controller
	logger *zap.Logger
}

func NewSessionHandler(ctl Controller, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{ctl: ctl, logger: logger}
}

// Status handles GET /api/session.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctl.Status())
}

// Start handles POST /api/session/start.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctl.Start(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, st)
	case errors.Is(err, session.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, "Session already running")
	case errors.Is(err, capture.ErrCameraUnavailable):
		h.logger.Warn("camera unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Camera unavailable")
	default:
		h.logger.Error("failed to start session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to start session")
	}
}

// Stop handles POST /api/session/stop. A session that stopped but could
// not be fully persisted still reports its summary.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ctl.Stop(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, summary)
	case errors.Is(err, session.ErrNotRunning):
		writeError(w, http.StatusConflict, "No session running")
	default:
		h.logger.Error("session stopped with errors", zap.Error(err))
		writeJSON(w, http.StatusOK, summary)
	}
}

// Reset handles POST /api/session/reset.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctl.Reset())
}
