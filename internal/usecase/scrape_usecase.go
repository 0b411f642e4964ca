package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/user/connections-scraper/internal/entity"
	"github.com/user/connections-scraper/internal/extractor"
	"github.com/user/connections-scraper/internal/repository"
	"github.com/user/connections-scraper/pkg/metrics"
)

// ScrapeConfig tunes the orchestration.
type ScrapeConfig struct {
	LogPath     string
	SnapshotTTL time.Duration
}

// RunSummary reports what a run produced.
type RunSummary struct {
	ProfileRecords    int
	ConnectionRecords int
	ConsoleEntries    int
}

// Scraper wires synchronizer, extractor and storage into one sequential run.
type Scraper struct {
	sync      PageSynchronizer
	extractor *extractor.Extractor
	writer    *ConnectionWriter
	snapshots repository.SnapshotRepository // optional
	cfg       ScrapeConfig
	progress  *Progress
}

// NewScraper creates a new Scraper. snapshots may be nil to disable archiving.
func NewScraper(
	sync PageSynchronizer,
	ext *extractor.Extractor,
	writer *ConnectionWriter,
	snapshots repository.SnapshotRepository,
	cfg ScrapeConfig,
	progress *Progress,
) *Scraper {
	if progress == nil {
		progress = NewProgress()
	}
	return &Scraper{
		sync:      sync,
		extractor: ext,
		writer:    writer,
		snapshots: snapshots,
		cfg:       cfg,
		progress:  progress,
	}
}

// Run performs one scrape. Any failure ends the run; nothing is retried.
func (s *Scraper) Run(ctx context.Context, creds Credentials) (summary RunSummary, err error) {
	defer func() { s.progress.Finish(err) }()

	start := time.Now()
	result, err := s.sync.Sync(ctx, creds)
	metrics.PhaseDuration.WithLabelValues("sync").Observe(time.Since(start).Seconds())
	if err != nil {
		return summary, fmt.Errorf("synchronize pages: %w", err)
	}
	summary.ConsoleEntries = len(result.Console)

	if err := WriteConsoleLog(s.cfg.LogPath, result.Console); err != nil {
		return summary, fmt.Errorf("write browser log: %w", err)
	}
	s.archive(ctx, result.Profile, result.Connections)

	s.progress.SetPhase(PhaseExtract)
	start = time.Now()
	profile, err := s.extractor.OwnProfile(result.Profile.HTML, result.Profile.URL)
	if err != nil {
		return summary, fmt.Errorf("extract own profile: %w", err)
	}
	metrics.RecordsExtractedTotal.WithLabelValues("profile").Add(float64(len(profile)))
	connections, err := s.extractor.Connections(result.Connections.HTML)
	if err != nil {
		return summary, fmt.Errorf("extract connections: %w", err)
	}
	metrics.RecordsExtractedTotal.WithLabelValues("connections").Add(float64(len(connections)))
	metrics.PhaseDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
	slog.Info("Extracted records", "profile", len(profile), "connections", len(connections))

	s.progress.SetPhase(PhasePersist)
	start = time.Now()
	if err := s.writer.Save(ctx, profile); err != nil {
		return summary, fmt.Errorf("save own profile: %w", err)
	}
	summary.ProfileRecords = len(profile)
	if err := s.writer.Save(ctx, connections); err != nil {
		return summary, fmt.Errorf("save connections: %w", err)
	}
	summary.ConnectionRecords = len(connections)
	metrics.PhaseDuration.WithLabelValues("persist").Observe(time.Since(start).Seconds())

	slog.Info("Scrape finished",
		"profile_records", summary.ProfileRecords,
		"connection_records", summary.ConnectionRecords,
		"duration_ms", time.Since(s.progress.Snapshot().StartedAt).Milliseconds(),
	)
	return summary, nil
}

// archive keeps the raw captures around for debugging. Failures are not fatal.
func (s *Scraper) archive(ctx context.Context, snapshots ...entity.Snapshot) {
	if s.snapshots == nil {
		return
	}
	for _, snap := range snapshots {
		if err := s.snapshots.Save(ctx, snap, s.cfg.SnapshotTTL); err != nil {
			slog.Warn("Failed to archive snapshot", "url", snap.URL, "error", err)
		}
	}
}

// WriteConsoleLog writes entries to path as JSON lines, replacing any previous file.
func WriteConsoleLog(path string, entries []entity.ConsoleEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// RemoveStale deletes output files left by a previous run. Missing files are fine.
func RemoveStale(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := os.Remove(p)
		switch {
		case err == nil:
			slog.Info("Removed previous output", "path", p)
		case !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}
