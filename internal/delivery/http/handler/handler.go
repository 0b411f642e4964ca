package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/user/connections-scraper/internal/delivery/http/response"
	"github.com/user/connections-scraper/internal/entity"
)

// ProgressSource is satisfied by usecase.Progress.
type ProgressSource interface {
	Snapshot() entity.RunProgress
}

type Handler struct {
	progress ProgressSource
	now      func() time.Time
}

func NewHandler(progress ProgressSource) *Handler {
	return &Handler{
		progress: progress,
		now:      time.Now,
	}
}

func (h *Handler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	p := h.progress.Snapshot()

	end := h.now()
	if p.FinishedAt != nil {
		end = *p.FinishedAt
	}

	resp := response.ProgressResponse{
		Phase:            p.Phase,
		ScrollIterations: p.ScrollIterations,
		PageHeight:       p.PageHeight,
		RowsSaved:        p.RowsSaved,
		StartedAt:        p.StartedAt,
		FinishedAt:       p.FinishedAt,
		ElapsedSeconds:   end.Sub(p.StartedAt).Seconds(),
		Error:            p.Error,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}
