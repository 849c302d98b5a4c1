// Package calibrate drives collapsible sidebar sections into a desired
// expanded/collapsed layout before a run. Calibration is declarative: each
// section names a header template and a target state, and the calibrator
// clicks fold arrows until the screen agrees or it runs out of attempts.
package calibrate

import (
	"fmt"
	"log"
	"sort"
	"time"

	"autoa/internal/config"
	"autoa/internal/domain"
	"autoa/internal/eventbus"
	"autoa/internal/vision"
)

// maxToggleAttempts bounds the detect/click cycles per header. Two would be
// enough for a well-behaved arrow; the third absorbs one missed animation.
const maxToggleAttempts = 3

const (
	scrollToTopSweeps = 6
	scrollToTopStep   = 20
)

// Locator finds templates on screen.
type Locator interface {
	LocateOne(name string, region *domain.Region, confidence float64) (domain.Box, bool)
	LocateAll(name string, region *domain.Region, confidence float64) []domain.Box
}

// ArrowFinder classifies a section's fold state and returns the arrow box.
type ArrowFinder interface {
	LocateArrow(anchor domain.Box) (domain.Box, domain.SectionState)
	DetectState(anchor domain.Box) domain.SectionState
}

// Input is the synthetic input slice the calibrator needs.
type Input interface {
	Click(x, y int) error
	MoveTo(x, y int) error
	Scroll(amount int) error
}

// Sizer reports the screen dimensions.
type Sizer interface {
	Size() (int, int)
}

// Calibrator brings every configured section into its desired state.
type Calibrator struct {
	locator Locator
	arrows  ArrowFinder
	input   Input
	sizer   Sizer
	bus     eventbus.EventBus

	geo        config.GeometrySettings
	confidence float64
	settle     time.Duration
	pause      time.Duration

	sleep func(time.Duration)
}

// NewCalibrator wires a calibrator from its collaborators and configuration.
func NewCalibrator(locator Locator, arrows ArrowFinder, input Input, sizer Sizer, cfg *config.Config, bus eventbus.EventBus) *Calibrator {
	return &Calibrator{
		locator:    locator,
		arrows:     arrows,
		input:      input,
		sizer:      sizer,
		bus:        bus,
		geo:        cfg.Geometry,
		confidence: cfg.Vision.Confidence,
		settle:     time.Duration(cfg.Run.SettleMillis) * time.Millisecond,
		pause:      time.Duration(cfg.Run.PauseMillis) * time.Millisecond,
		sleep:      time.Sleep,
	}
}

func (c *Calibrator) logf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	log.Print(line)
	if c.bus != nil {
		c.bus.Publish(eventbus.LogAppendedEvent{Line: line})
	}
}

// SidebarRegion returns the screen strip that contains the contact sidebar.
// The friend-list anchor bounds it on the right when it can be found; the
// bottom margin keeps the taskbar out of every search.
func (c *Calibrator) SidebarRegion() domain.Region {
	screenW, screenH := c.sizer.Size()

	width := c.geo.SidebarDefaultWidth
	if anchor, ok := c.locator.LocateOne(vision.TplFriendList, nil, c.confidence); ok {
		width = anchor.Left + anchor.Width + c.geo.SidebarExtraWidth
	}

	height := screenH - c.geo.SidebarBottomMargin
	if height < c.geo.SidebarMinHeight {
		height = c.geo.SidebarMinHeight
	}

	return domain.Region{Width: width, Height: height}.Clipped(screenW, screenH)
}

// ScrollToTop rewinds the sidebar list so calibration and cycling always
// start from the first row. The pointer has to hover the list for the wheel
// events to reach it.
func (c *Calibrator) ScrollToTop(region domain.Region) {
	cx := region.Left + region.Width/2
	cy := region.Top + region.Height/2
	if err := c.input.MoveTo(cx, cy); err != nil {
		c.logf("scroll to top: move: %v", err)
		return
	}
	for i := 0; i < scrollToTopSweeps; i++ {
		if err := c.input.Scroll(scrollToTopStep); err != nil {
			c.logf("scroll to top: %v", err)
			return
		}
		c.sleep(c.pause)
	}
}

// Calibrate processes the sections in order and returns one report per
// section. Order matters: toggling an earlier section moves later headers,
// so every section re-locates its headers on its own pass.
func (c *Calibrator) Calibrate(sections []domain.SidebarSection) []domain.SectionReport {
	sidebar := c.SidebarRegion()
	reports := make([]domain.SectionReport, 0, len(sections))
	for _, section := range sections {
		report := c.calibrateSection(section, sidebar)
		if c.bus != nil {
			c.bus.Publish(eventbus.SectionReportEvent{Report: report})
		}
		reports = append(reports, report)
	}
	return reports
}

func (c *Calibrator) calibrateSection(section domain.SidebarSection, sidebar domain.Region) domain.SectionReport {
	report := domain.SectionReport{Name: section.Name}

	headers := c.locator.LocateAll(section.HeaderTemplate, &sidebar, c.confidence)
	if len(headers) == 0 {
		report.Warning = fmt.Sprintf("header %q not found", section.HeaderTemplate)
		c.logf("calibrate %s: %s", section.Name, report.Warning)
		return report
	}
	report.Located = true

	// Top to bottom so a toggle only ever moves headers we have not
	// visited yet.
	sort.Slice(headers, func(i, j int) bool { return headers[i].Top < headers[j].Top })

	report.Satisfied = true
	for _, header := range headers {
		clicks, ok := c.driveHeader(header, section.Desired)
		report.Clicks += clicks
		if ok && clicks == 0 {
			report.Skipped++
		}
		if !ok {
			report.Satisfied = false
			report.Warning = fmt.Sprintf("header at %s did not reach %s", header, section.Desired)
			c.logf("calibrate %s: %s", section.Name, report.Warning)
		}
	}

	c.logf("calibrate %s: %d header(s), %d click(s), %d already in state",
		section.Name, len(headers), report.Clicks, report.Skipped)
	return report
}

// driveHeader toggles one header toward the desired state and reports the
// number of clicks spent and whether the state was reached.
func (c *Calibrator) driveHeader(header domain.Box, desired domain.SectionState) (int, bool) {
	clicks := 0
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		arrow, state := c.arrows.LocateArrow(header)
		if state == desired {
			return clicks, true
		}
		if arrow.Empty() {
			// No plausible arrow. Click where the arrow sits on a
			// stock layout and let the re-detect confirm.
			arrow = c.estimatedArrow(header)
		}
		x, y := arrow.Center()
		if err := c.input.Click(x, y); err != nil {
			c.logf("calibrate: click arrow at (%d,%d): %v", x, y, err)
			return clicks, false
		}
		clicks++
		c.sleep(c.settle)
	}

	// One settle-and-recheck before giving up; slow animation is the usual
	// reason the loop above sees a stale state.
	c.sleep(c.settle)
	return clicks, c.arrows.DetectState(header) == desired
}

// estimatedArrow places a synthetic arrow box just inside the header's right
// edge, vertically centered.
func (c *Calibrator) estimatedArrow(header domain.Box) domain.Box {
	size := c.geo.ArrowEstimateSize
	return domain.Box{
		Left:   header.Left + header.Width - c.geo.ArrowEstimateInset,
		Top:    header.Top + header.Height/2 - size/2,
		Width:  size,
		Height: size,
	}
}
