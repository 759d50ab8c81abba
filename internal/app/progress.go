package app

import (
	"sync"
	"time"

	"github.com/example/ouro/internal/models"
	"github.com/example/ouro/internal/ports/secondary"
)

// ProgressReporter announces phase transitions for one update run and,
// once started, re-emits the current state on a fixed interval so long
// phases stay visible. Repeated reports of the same phase are
// suppressed; terminal phases stop the reporter.
type ProgressReporter struct {
	mu         sync.Mutex
	notifier   secondary.Notifier
	updateID   string
	codename   string
	current    models.UpdatePhase
	percent    int
	reported   bool
	lastReport time.Time
	stopped    bool

	done     chan struct{}
	stopOnce sync.Once
}

// NewProgressReporter creates a reporter for one update.
func NewProgressReporter(notifier secondary.Notifier, updateID, codename string) *ProgressReporter {
	return &ProgressReporter{
		notifier: notifier,
		updateID: updateID,
		codename: codename,
		done:     make(chan struct{}),
	}
}

// StartPeriodic launches the background re-emission loop. A tick is
// skipped when an explicit report went out within the last interval.
// The loop ends at the first terminal phase or when Stop is called.
func (p *ProgressReporter) StartPeriodic(interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				if !p.reemit(interval) {
					return
				}
			}
		}
	}()
}

// Stop ends the periodic loop and drops any later reports.
func (p *ProgressReporter) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.stopOnce.Do(func() { close(p.done) })
}

func (p *ProgressReporter) reemit(interval time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return false
	}
	if !p.reported || time.Since(p.lastReport) < interval {
		return true
	}
	p.notifier.Progress(p.updateID, p.codename, p.current.DisplayName(), p.percent)
	p.lastReport = time.Now()
	return true
}

// Transition reports entry into a phase. Re-reporting the current phase
// is a no-op, as is any report after a terminal phase.
func (p *ProgressReporter) Transition(phase models.UpdatePhase) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || phase == p.current {
		return
	}
	p.current = phase

	if percent, ok := phase.Percent(); ok {
		p.notifier.Progress(p.updateID, p.codename, phase.DisplayName(), percent)
		p.percent = percent
		p.reported = true
		p.lastReport = time.Now()
	}
	if phase.Terminal() {
		p.stopped = true
	}
}

// TaskProgress nudges the percent between the implementing and
// validating anchors as tasks finish. Outside the implementing phase it
// is a no-op.
func (p *ProgressReporter) TaskProgress(completed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.current != models.PhaseImplementing || total <= 0 {
		return
	}
	base, _ := models.PhaseImplementing.Percent()
	ceiling, _ := models.PhaseValidating.Percent()
	percent := base + (ceiling-base)*completed/total
	if percent >= ceiling {
		percent = ceiling - 1
	}
	p.notifier.Progress(p.updateID, p.codename, models.PhaseImplementing.DisplayName(), percent)
	p.percent = percent
	p.lastReport = time.Now()
}

// Fail reports the failed phase with a reason and stops the reporter.
func (p *ProgressReporter) Fail(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.current = models.PhaseFailed
	p.stopped = true
	p.notifier.Error(p.updateID, reason)
}

// Current returns the phase last reported.
func (p *ProgressReporter) Current() models.UpdatePhase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}
