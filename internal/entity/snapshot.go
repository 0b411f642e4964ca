package entity

import "time"

// Snapshot is a static HTML capture of a page at one point in time.
type Snapshot struct {
	HTML       string
	URL        string
	CapturedAt time.Time
}

// ConsoleEntry is a single browser console or log-domain event.
type ConsoleEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Source    string    `json:"source"` // "console-api" for console.* calls, log domain source otherwise
	Text      string    `json:"text"`
}

// SyncResult is everything a browser session hands back to the orchestration.
type SyncResult struct {
	Profile     Snapshot
	Connections Snapshot
	Console     []ConsoleEntry
}

// RunProgress is the observable state of a scrape run.
type RunProgress struct {
	Phase            string
	ScrollIterations int
	PageHeight       int64
	RowsSaved        int
	StartedAt        time.Time
	FinishedAt       *time.Time
	Error            string
}
