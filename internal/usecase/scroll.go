package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/connections-scraper/internal/repository"
)

const (
	initialScrollTarget = 1000
	scrollStep          = 10000
)

// HeightProbe is the part of a browser the scroll loop needs.
type HeightProbe interface {
	ScrollTo(y int64) error
	ScrollHeight() (int64, error)
	Maximize() error
}

// ScrollDecision is what the loop does after a height measurement.
type ScrollDecision int

const (
	ScrollContinue ScrollDecision = iota
	// ScrollMaximize maximizes the window, then keeps scrolling.
	ScrollMaximize
	ScrollStop
)

// ScrollState is the input of a PlateauPredicate.
type ScrollState struct {
	Iteration  int
	Current    int64 // height recorded at the end of the previous iteration
	Measured   int64 // height just read from the page
	ReachedEnd bool  // a plateau has been seen before
}

// PlateauPredicate decides whether the page finished loading.
type PlateauPredicate func(ScrollState) ScrollDecision

// TwoPlateaus ignores the first time two consecutive readings are equal, using it to
// maximize the window (which can change layout and load more), and stops on the next.
// The reached-end mark is never cleared, even if the height grows again in between.
func TwoPlateaus(s ScrollState) ScrollDecision {
	if s.Current == s.Measured && s.Current != 0 {
		if s.ReachedEnd {
			return ScrollStop
		}
		return ScrollMaximize
	}
	return ScrollContinue
}

// ScrollConfig tunes ScrollToEnd.
type ScrollConfig struct {
	Interval      time.Duration // pause after each scroll
	MaxIterations int
	Predicate     PlateauPredicate // TwoPlateaus when nil
	OnIteration   func(iteration int, height int64)
}

// ScrollStats summarises a finished scroll loop.
type ScrollStats struct {
	Iterations  int
	Maximized   int
	FinalHeight int64
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ScrollToEnd scrolls until the predicate reports the page height has settled. Each
// iteration scrolls to the target, reads the real height, and pushes the target a
// fixed step past it to trigger the next lazy load.
func ScrollToEnd(ctx context.Context, probe HeightProbe, cfg ScrollConfig, sleep Sleeper) (ScrollStats, error) {
	predicate := cfg.Predicate
	if predicate == nil {
		predicate = TwoPlateaus
	}
	if sleep == nil {
		sleep = SleepContext
	}

	var stats ScrollStats
	current, target := int64(0), int64(initialScrollTarget)
	reachedEnd := false

	for i := 1; i <= cfg.MaxIterations; i++ {
		if err := probe.ScrollTo(target); err != nil {
			return stats, fmt.Errorf("scroll to %d: %w", target, err)
		}
		measured, err := probe.ScrollHeight()
		if err != nil {
			return stats, err
		}
		stats.Iterations = i
		stats.FinalHeight = measured
		if cfg.OnIteration != nil {
			cfg.OnIteration(i, measured)
		}

		switch predicate(ScrollState{Iteration: i, Current: current, Measured: measured, ReachedEnd: reachedEnd}) {
		case ScrollStop:
			slog.Debug("Page height settled", "iterations", i, "height", measured)
			return stats, nil
		case ScrollMaximize:
			slog.Debug("Page height plateaued, maximizing window", "height", measured)
			if err := probe.Maximize(); err != nil {
				return stats, fmt.Errorf("maximize window: %w", err)
			}
			reachedEnd = true
			stats.Maximized++
		}

		current = measured
		if err := sleep(ctx, cfg.Interval); err != nil {
			return stats, err
		}
		target = measured + scrollStep
	}
	return stats, fmt.Errorf("%w after %d iterations (height %d)", repository.ErrScrollNotConverged, cfg.MaxIterations, stats.FinalHeight)
}
