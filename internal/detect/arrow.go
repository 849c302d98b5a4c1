// Package detect decides whether a sidebar section is expanded or collapsed
// by finding its fold arrow near the section header.
package detect

import (
	"autoa/internal/config"
	"autoa/internal/domain"
	"autoa/internal/vision"
)

// Locator is the slice of the template locator the detector needs. The
// fast variant keeps every ladder rung cheap; Correlate is the expensive
// last resort, run once per template after the ladder is exhausted.
type Locator interface {
	LocateAllFast(name string, region *domain.Region, confidence float64) []domain.Box
	Correlate(name string, region *domain.Region) (domain.Box, bool)
}

// Detector classifies section fold state from the pixels around a header.
type Detector struct {
	locator Locator
	geo     config.GeometrySettings
	ladder  []float64
}

// NewDetector builds a detector. The ladder holds the confidences to try,
// highest first; an empty ladder falls back to a single conservative pass.
func NewDetector(locator Locator, geo config.GeometrySettings, ladder []float64) *Detector {
	if len(ladder) == 0 {
		ladder = []float64{0.85}
	}
	return &Detector{locator: locator, geo: geo, ladder: ladder}
}

// arrowRegion is the strip right of the header where the fold arrow lives.
func (d *Detector) arrowRegion(anchor domain.Box) domain.Region {
	return domain.Region{
		Left:   anchor.Left - d.geo.ArrowPadLeft,
		Top:    anchor.Top - d.geo.ArrowPadTop,
		Width:  anchor.Width + d.geo.ArrowExtendRight,
		Height: anchor.Height + d.geo.ArrowPadBottom,
	}
}

// plausible rejects hits too far from the header to be its own arrow.
// Wide searches can pick up the arrow of a neighbouring section.
func (d *Detector) plausible(anchor, hit domain.Box) bool {
	dx := hit.Left - anchor.Left
	if dx < 0 {
		dx = -dx
	}
	dy := hit.Top - anchor.Top
	if dy < 0 {
		dy = -dy
	}
	return dx <= d.geo.MaxArrowDX && dy <= d.geo.MaxArrowDY
}

// DetectState reports the fold state of the section whose header sits at
// anchor. The hide arrow means the section is expanded, the show arrow
// collapsed. Unknown means no plausible arrow was found at any confidence.
func (d *Detector) DetectState(anchor domain.Box) domain.SectionState {
	_, state := d.locateArrow(anchor)
	return state
}

// LocateArrow returns the arrow box alongside the state so a caller can
// click the arrow it just classified.
func (d *Detector) LocateArrow(anchor domain.Box) (domain.Box, domain.SectionState) {
	return d.locateArrow(anchor)
}

func (d *Detector) locateArrow(anchor domain.Box) (domain.Box, domain.SectionState) {
	templates := []struct {
		tpl   string
		state domain.SectionState
	}{
		{vision.TplHideArrow, domain.StateExpanded},
		{vision.TplShowArrow, domain.StateCollapsed},
	}

	region := d.arrowRegion(anchor)
	for _, conf := range d.ladder {
		for _, probe := range templates {
			for _, hit := range d.locator.LocateAllFast(probe.tpl, &region, conf) {
				if d.plausible(anchor, hit) {
					return hit, probe.state
				}
			}
		}
	}

	// One correlation pass per template, only now that the whole ladder
	// came up empty.
	for _, probe := range templates {
		if hit, ok := d.locator.Correlate(probe.tpl, &region); ok && d.plausible(anchor, hit) {
			return hit, probe.state
		}
	}
	return domain.Box{}, domain.StateUnknown
}
