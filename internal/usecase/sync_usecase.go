package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/user/connections-scraper/internal/entity"
	"github.com/user/connections-scraper/internal/extractor"
	"github.com/user/connections-scraper/internal/repository"
	"github.com/user/connections-scraper/pkg/metrics"
	"github.com/user/connections-scraper/pkg/utils"
)

const (
	loginPath       = "/uas/login"
	connectionsPath = "/mynetwork/invite-connect/connections/"
)

// Credentials are the account the session signs in with.
type Credentials struct {
	Username string
	Password string
}

// SyncConfig tunes the page synchronizer.
type SyncConfig struct {
	BaseURL             string
	Wait                time.Duration // blind wait after each navigation step
	ScrollMaxIterations int
	Predicate           PlateauPredicate
}

// PageSynchronizer produces the page snapshots a run extracts records from.
type PageSynchronizer interface {
	Sync(ctx context.Context, creds Credentials) (*entity.SyncResult, error)
}

// Synchronizer drives one browser session through login, the member's own profile
// and the fully scrolled connections list. It waits with fixed sleeps rather than
// readiness signals.
type Synchronizer struct {
	launcher repository.BrowserLauncher
	cfg      SyncConfig
	progress *Progress
	sleep    Sleeper
	now      func() time.Time
}

// NewSynchronizer creates a new Synchronizer.
func NewSynchronizer(launcher repository.BrowserLauncher, cfg SyncConfig, progress *Progress) *Synchronizer {
	if progress == nil {
		progress = NewProgress()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Synchronizer{
		launcher: launcher,
		cfg:      cfg,
		progress: progress,
		sleep:    SleepContext,
		now:      time.Now,
	}
}

// Sync runs the whole browser session. The browser is closed on every return path.
func (s *Synchronizer) Sync(ctx context.Context, creds Credentials) (*entity.SyncResult, error) {
	browser, err := s.launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			slog.Warn("Failed to close browser cleanly", "error", err)
		}
	}()

	s.progress.SetPhase(PhaseLogin)
	profileURL, err := s.login(ctx, browser, creds)
	if err != nil {
		return nil, err
	}

	s.progress.SetPhase(PhaseProfile)
	profile, err := s.capture(ctx, browser, profileURL)
	if err != nil {
		return nil, fmt.Errorf("capture own profile: %w", err)
	}
	profile.URL = profileURL
	slog.Info("Captured own profile", "url", profileURL)

	s.progress.SetPhase(PhaseConnections)
	if err := s.visit(ctx, browser, s.cfg.BaseURL+connectionsPath); err != nil {
		return nil, err
	}

	s.progress.SetPhase(PhaseScroll)
	stats, err := ScrollToEnd(ctx, browser, ScrollConfig{
		Interval:      s.cfg.Wait / 2,
		MaxIterations: s.cfg.ScrollMaxIterations,
		Predicate:     s.cfg.Predicate,
		OnIteration:   s.progress.ScrollIteration,
	}, s.sleep)
	metrics.ScrollIterationsTotal.Add(float64(stats.Iterations))
	if err != nil {
		return nil, fmt.Errorf("scroll connections list: %w", err)
	}
	slog.Info("Connections list fully loaded", "iterations", stats.Iterations, "height", stats.FinalHeight)

	if err := s.sleep(ctx, s.cfg.Wait); err != nil {
		return nil, err
	}
	console := browser.DrainConsole()
	connections, err := s.snapshot(browser)
	if err != nil {
		return nil, fmt.Errorf("capture connections list: %w", err)
	}

	return &entity.SyncResult{
		Profile:     profile,
		Connections: connections,
		Console:     console,
	}, nil
}

// login submits the credentials and derives the member's profile URL from the
// navigation home link.
func (s *Synchronizer) login(ctx context.Context, browser repository.Browser, creds Credentials) (string, error) {
	if err := s.visit(ctx, browser, s.cfg.BaseURL+loginPath); err != nil {
		return "", err
	}
	if err := browser.Fill(extractor.UsernameSelector, creds.Username); err != nil {
		return "", fmt.Errorf("fill username: %w", err)
	}
	if err := browser.Fill(extractor.PasswordSelector, creds.Password); err != nil {
		return "", fmt.Errorf("fill password: %w", err)
	}
	if err := browser.Click(extractor.SubmitSelector); err != nil {
		return "", fmt.Errorf("submit login form: %w", err)
	}
	if err := s.sleep(ctx, s.cfg.Wait); err != nil {
		return "", err
	}

	html, err := browser.HTML()
	if err != nil {
		return "", err
	}
	href, err := extractor.HomeLinkHref(html)
	if err != nil {
		return "", fmt.Errorf("find profile link after login: %w", err)
	}
	profileURL, err := utils.ProfileURLFromHref(s.cfg.BaseURL, href)
	if err != nil {
		return "", err
	}
	slog.Info("Logged in", "profile_url", profileURL)
	return profileURL, nil
}

func (s *Synchronizer) visit(ctx context.Context, browser repository.Browser, url string) error {
	slog.Debug("Navigating", "url", url)
	if err := browser.Navigate(url); err != nil {
		return err
	}
	return s.sleep(ctx, s.cfg.Wait)
}

func (s *Synchronizer) capture(ctx context.Context, browser repository.Browser, url string) (entity.Snapshot, error) {
	if err := s.visit(ctx, browser, url); err != nil {
		return entity.Snapshot{}, err
	}
	return s.snapshot(browser)
}

func (s *Synchronizer) snapshot(browser repository.Browser) (entity.Snapshot, error) {
	html, err := browser.HTML()
	if err != nil {
		return entity.Snapshot{}, err
	}
	location, err := browser.URL()
	if err != nil {
		return entity.Snapshot{}, err
	}
	return entity.Snapshot{HTML: html, URL: location, CapturedAt: s.now()}, nil
}
