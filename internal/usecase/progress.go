package usecase

import (
	"sync"
	"time"

	"github.com/user/connections-scraper/internal/entity"
)

// Run phases reported through Progress.
const (
	PhaseStarting    = "starting"
	PhaseLogin       = "login"
	PhaseProfile     = "profile"
	PhaseConnections = "connections"
	PhaseScroll      = "scroll"
	PhaseExtract     = "extract"
	PhasePersist     = "persist"
	PhaseDone        = "done"
	PhaseFailed      = "failed"
)

// Progress tracks a run so the status server can report it while the scrape blocks.
type Progress struct {
	mu    sync.RWMutex
	state entity.RunProgress
	now   func() time.Time
}

// NewProgress creates a tracker in the starting phase.
func NewProgress() *Progress {
	p := &Progress{now: time.Now}
	p.state = entity.RunProgress{Phase: PhaseStarting, StartedAt: p.now()}
	return p
}

func (p *Progress) SetPhase(phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Phase = phase
}

func (p *Progress) ScrollIteration(iteration int, height int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.ScrollIterations = iteration
	p.state.PageHeight = height
}

func (p *Progress) RowSaved() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.RowsSaved++
}

// Finish marks the run done, or failed when err is non-nil.
func (p *Progress) Finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	finished := p.now()
	p.state.FinishedAt = &finished
	if err != nil {
		p.state.Phase = PhaseFailed
		p.state.Error = err.Error()
		return
	}
	p.state.Phase = PhaseDone
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() entity.RunProgress {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}
