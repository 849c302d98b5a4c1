// Package worker orchestrates a full run: focus the target window,
// calibrate the sidebar, then walk the contact list. Exactly one run is
// active at a time; a second start is rejected, not queued.
package worker

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"autoa/internal/config"
	"autoa/internal/cycle"
	"autoa/internal/domain"
	"autoa/internal/eventbus"
	"autoa/internal/vision"
)

// Progress milestones. Calibration is cheap next to contact walking, so the
// bulk of the bar is spent inside the cycle.
const (
	progressFocused     = 5
	progressCalibrating = 15
	progressCalibrated  = 25
	progressCycleSpan   = 70
)

// Windows is the window-management slice the runner needs.
type Windows interface {
	Running(hint string) bool
	Focus(hint string) bool
}

// Calibrator prepares the sidebar layout before cycling.
type Calibrator interface {
	SidebarRegion() domain.Region
	ScrollToTop(region domain.Region)
	Calibrate(sections []domain.SidebarSection) []domain.SectionReport
}

// CycleRunner walks the contact list once.
type CycleRunner interface {
	Cycle(gate cycle.Gate, limit int, message string, dryRun bool) domain.CycleResult
}

// Locator finds templates on screen.
type Locator interface {
	LocateOne(name string, region *domain.Region, confidence float64) (domain.Box, bool)
}

// Clicker is the single input action the runner itself performs.
type Clicker interface {
	Click(x, y int) error
}

// TemplateStore reports which template files are missing on disk.
type TemplateStore interface {
	Missing() []string
}

// RunParams are the user-supplied knobs for one run.
type RunParams struct {
	Limit        int
	Message      string
	DelaySeconds float64
	DryRun       bool
}

// Runner owns run lifecycle and emits every run event on the bus.
type Runner struct {
	bus        eventbus.EventBus
	cfg        *config.Config
	windows    Windows
	calibrator Calibrator
	locator    Locator
	input      Clicker
	store      TemplateStore
	probe      vision.Prober

	// NewCycle builds the contact walker bound to the calibrated sidebar.
	NewCycle func(sidebar domain.Region) CycleRunner
	// Crops saves debug captures of matched regions; nil disables them.
	Crops interface {
		DebugCrop(label string, box domain.Box)
	}

	mu      sync.Mutex
	state   *RunState
	handled int
	limit   int

	rng   *rand.Rand
	sleep func(time.Duration)
}

// NewRunner wires a runner. It subscribes to contact events to keep the
// progress bar moving during the cycle.
func NewRunner(bus eventbus.EventBus, cfg *config.Config, windows Windows, calibrator Calibrator, locator Locator, input Clicker, store TemplateStore, probe vision.Prober) *Runner {
	r := &Runner{
		bus:        bus,
		cfg:        cfg,
		windows:    windows,
		calibrator: calibrator,
		locator:    locator,
		input:      input,
		store:      store,
		probe:      probe,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      time.Sleep,
	}
	bus.Subscribe(domain.EventContactHandled, func(eventbus.DomainEvent) {
		r.bumpProgress()
	})
	return r
}

func (r *Runner) logf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	log.Print(line)
	r.bus.Publish(eventbus.LogAppendedEvent{Line: line})
}

func (r *Runner) step(label string) {
	r.logf("step: %s", label)
	r.bus.Publish(eventbus.StepChangedEvent{Label: label})
}

func (r *Runner) progress(pct float64) {
	r.bus.Publish(eventbus.ProgressUpdatedEvent{Percent: pct})
}

// Active reports whether a run is in flight.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != nil
}

// Pause suspends the active run, if any, at its next checkpoint.
func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != nil {
		r.state.Pause()
	}
}

// Resume releases a paused run.
func (r *Runner) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != nil {
		r.state.Resume()
	}
}

// Cancel stops the active run at its next checkpoint.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != nil {
		r.state.Cancel()
	}
}

// Paused reports whether the active run is paused.
func (r *Runner) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != nil && r.state.Paused()
}

// Start validates params and launches the run goroutine. A second start
// while a run is active is rejected.
func (r *Runner) Start(params RunParams) error {
	if r.NewCycle == nil {
		return fmt.Errorf("runner has no cycle factory")
	}
	if params.Limit <= 0 {
		return fmt.Errorf("contact limit must be positive")
	}
	if !params.DryRun && params.Message == "" {
		return fmt.Errorf("live runs need a message")
	}
	if missing := r.store.Missing(); len(missing) > 0 && !params.DryRun {
		return fmt.Errorf("missing templates block live runs: %v", missing)
	}

	r.mu.Lock()
	if r.state != nil {
		r.mu.Unlock()
		return fmt.Errorf("a run is already active")
	}
	state := NewRunState()
	r.state = state
	r.handled = 0
	r.limit = params.Limit
	r.mu.Unlock()

	go r.run(params, state)
	return nil
}

func (r *Runner) bumpProgress() {
	r.mu.Lock()
	if r.state == nil {
		r.mu.Unlock()
		return
	}
	r.handled++
	pct := float64(progressCalibrated) + progressCycleSpan*float64(r.handled)/float64(r.limit)
	r.mu.Unlock()
	if pct > 95 {
		pct = 95
	}
	r.progress(pct)
}

func (r *Runner) finish(ev eventbus.RunFinishedEvent) {
	r.mu.Lock()
	r.state = nil
	r.mu.Unlock()
	r.logf("run %s: %d sent, %d failed", ev.Status, len(ev.Result.Processed), len(ev.Result.Failed))
	r.bus.Publish(ev)
}

func (r *Runner) run(params RunParams, state *RunState) {
	r.bus.Publish(eventbus.RunStartedEvent{DryRun: params.DryRun})
	r.progress(0)

	// Everything before this point must not synthesize any input: an
	// unfocused target means clicks would land in some other app.
	r.step("focusing " + r.cfg.AppTitle)
	if !r.windows.Focus(r.cfg.AppTitle) {
		r.finish(eventbus.RunFinishedEvent{
			Status: domain.RunAborted,
			Reason: fmt.Sprintf("window %q not found or not focusable", r.cfg.AppTitle),
		})
		return
	}
	r.progress(progressFocused)

	if err := state.Checkpoint(); err != nil {
		r.finish(eventbus.RunFinishedEvent{Status: domain.RunCancelled})
		return
	}

	r.step("calibrating sidebar sections")
	r.progress(progressCalibrating)
	sidebar := r.calibrator.SidebarRegion()
	r.calibrator.ScrollToTop(sidebar)
	reports := r.calibrator.Calibrate(r.cfg.SidebarSections())
	for _, rep := range reports {
		if !rep.Located {
			r.finish(eventbus.RunFinishedEvent{
				Status:   domain.RunAborted,
				Sections: reports,
				Reason:   fmt.Sprintf("section %q: %s", rep.Name, rep.Warning),
			})
			return
		}
		if !rep.Satisfied {
			r.logf("section %q calibration incomplete: %s", rep.Name, rep.Warning)
		}
	}
	r.progress(progressCalibrated)

	if err := state.Checkpoint(); err != nil {
		r.finish(eventbus.RunFinishedEvent{Status: domain.RunCancelled, Sections: reports})
		return
	}

	// The friend header anchors every row estimate; without it there is
	// nothing to cycle over.
	header, ok := r.locator.LocateOne(vision.TplFriendHeader, &sidebar, r.cfg.Vision.Confidence)
	if !ok {
		r.finish(eventbus.RunFinishedEvent{
			Status:   domain.RunAborted,
			Sections: reports,
			Reason:   fmt.Sprintf("template %q not found in the sidebar", vision.TplFriendHeader),
		})
		return
	}
	if r.Crops != nil {
		r.Crops.DebugCrop("friend-header", header)
	}

	// Click the estimated first row so the list has wheel focus before
	// any scrolling happens.
	cx, _ := header.Center()
	x := cx + r.cfg.Geometry.FirstRowOffsetX
	y := header.Top + header.Height + r.cfg.Geometry.FirstRowOffsetY
	if err := r.input.Click(x, y); err != nil {
		r.logf("focus first row: %v", err)
	}
	r.sleep(time.Duration(r.cfg.Run.PauseMillis) * time.Millisecond)

	r.step("walking contacts")
	cycler := r.NewCycle(sidebar)
	result := cycler.Cycle(state, params.Limit, params.Message, params.DryRun)

	status := domain.RunCompleted
	if state.Cancelled() {
		status = domain.RunCancelled
	} else {
		r.progress(100)
	}
	r.finish(eventbus.RunFinishedEvent{Status: status, Result: result, Sections: reports})
}

// ThrottleDelay samples the per-contact pause: the configured base delay
// plus a uniform jitter inside the throttle window.
func (r *Runner) ThrottleDelay(base float64) time.Duration {
	window := r.cfg.Run.ThrottleMax - r.cfg.Run.ThrottleMin
	jitter := r.cfg.Run.ThrottleMin
	if window > 0 {
		jitter += r.rng.Float64() * window
	}
	return time.Duration((base + jitter) * float64(time.Second))
}

// Checks runs the startup environment checks and publishes the results.
func (r *Runner) Checks() []domain.CheckResult {
	var results []domain.CheckResult

	w, h := r.probe.Size()
	results = append(results, domain.CheckResult{
		Name:   "screen",
		OK:     w >= 1024 && h >= 768,
		Detail: fmt.Sprintf("%dx%d", w, h),
	})

	running := r.windows.Running(r.cfg.AppTitle)
	detail := "running"
	if !running {
		detail = "not running"
	}
	results = append(results, domain.CheckResult{
		Name:   "target app",
		OK:     running,
		Detail: detail,
	})

	missing := r.store.Missing()
	tplDetail := "all present"
	if len(missing) > 0 {
		tplDetail = fmt.Sprintf("missing %v", missing)
	}
	results = append(results, domain.CheckResult{
		Name:    "templates",
		OK:      len(missing) == 0,
		Detail:  tplDetail,
		Blocker: true,
	})

	err := os.MkdirAll(r.cfg.Reports, 0755)
	results = append(results, domain.CheckResult{
		Name:   "reports dir",
		OK:     err == nil,
		Detail: r.cfg.Reports,
	})

	r.bus.Publish(eventbus.ChecksCompletedEvent{Results: results})
	return results
}
