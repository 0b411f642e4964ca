package response

import "time"

// ProgressResponse is a DTO for the run state, mirroring entity.RunProgress.
type ProgressResponse struct {
	Phase            string     `json:"phase"` // "starting", "login", ..., "done", "failed"
	ScrollIterations int        `json:"scroll_iterations"`
	PageHeight       int64      `json:"page_height"`
	RowsSaved        int        `json:"rows_saved"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	ElapsedSeconds   float64    `json:"elapsed_seconds"`
	Error            string     `json:"error,omitempty"`
}
