package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/goldenreps/internal/store"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// History reads recorded sessions.
type History interface {
	List(ctx context.Context, limit int) ([]*store.Session, error)
	Get(ctx context.Context, id string) (*store.Session, error)
}

// BestReader reads the stored best session.
type BestReader interface {
	BestSession(ctx context.Context) (int, error)
}

// HistoryHandler serves session history and the best session.
type HistoryHandler struct {
	history History
	best    BestReader
}

func NewHistoryHandler(history History, best BestReader) *HistoryHandler {
	return &HistoryHandler{history: history, best: best}
}

type listSessionsResponse struct {
	Sessions []*store.Session `json:"sessions"`
	Best     int              `json:"best"`
}

// List handles GET /api/sessions?limit=N.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	sessions, err := h.history.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	resp := listSessionsResponse{Sessions: make([]*store.Session, 0, len(sessions))}
	resp.Sessions = append(resp.Sessions, sessions...)

	if h.best != nil {
		best, err := h.best.BestSession(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read best session")
			return
		}
		resp.Best = best
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/sessions/{id}.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := h.history.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, sess)
}
