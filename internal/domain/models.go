package domain

import "fmt"

// Box is a bounding rectangle in absolute screen coordinates.
// Boxes are produced by the template locator and never mutated afterwards.
type Box struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// Center returns the screen coordinates of the box center.
func (b Box) Center() (int, int) {
	return b.Left + b.Width/2, b.Top + b.Height/2
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

func (b Box) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", b.Left, b.Top, b.Width, b.Height)
}

// Region is a search constraint for locate operations.
// A nil *Region means whole-screen search.
type Region struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// RegionFromBox returns the region covering exactly the given box.
func RegionFromBox(b Box) Region {
	return Region{Left: b.Left, Top: b.Top, Width: b.Width, Height: b.Height}
}

// Expanded grows the region by dx horizontally and dy vertically on every
// side, then clips it to the screen bounds. The result never has negative
// size; a fully clipped region comes back with zero area and callers treat
// that as "no region".
func (r Region) Expanded(dx, dy, screenW, screenH int) Region {
	grown := Region{
		Left:   r.Left - dx,
		Top:    r.Top - dy,
		Width:  r.Width + dx*2,
		Height: r.Height + dy*2,
	}
	return grown.Clipped(screenW, screenH)
}

// Clipped constrains the region to [0,0,screenW,screenH].
func (r Region) Clipped(screenW, screenH int) Region {
	left := max(r.Left, 0)
	top := max(r.Top, 0)
	right := min(r.Left+r.Width, screenW)
	bottom := min(r.Top+r.Height, screenH)
	return Region{
		Left:   left,
		Top:    top,
		Width:  max(right-left, 0),
		Height: max(bottom-top, 0),
	}
}

// Empty reports whether the region has no searchable area.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// SectionState classifies a collapsible sidebar section.
type SectionState int

const (
	// StateUnknown means neither arrow template matched near the anchor.
	// It is an expected outcome, not an error.
	StateUnknown SectionState = iota
	StateExpanded
	StateCollapsed
)

func (s SectionState) String() string {
	switch s {
	case StateExpanded:
		return "expanded"
	case StateCollapsed:
		return "collapsed"
	default:
		return "unknown"
	}
}

// SidebarSection describes one collapsible section to calibrate. Order in a
// section list matters: toggling an earlier section shifts the vertical
// position of later ones.
type SidebarSection struct {
	Name           string
	HeaderTemplate string
	Desired        SectionState
}

// CycleResult summarizes one friend-cycling run. It is immutable once the
// run completes.
type CycleResult struct {
	Processed  []string
	Failed     []string
	ReachedEnd bool
}

// RunStatus is the terminal state of a worker run.
type RunStatus int

const (
	RunCompleted RunStatus = iota
	RunAborted
	RunCancelled
)

func (s RunStatus) String() string {
	switch s {
	case RunCompleted:
		return "completed"
	case RunAborted:
		return "aborted"
	case RunCancelled:
		return "cancelled"
	}
	return "unknown"
}

// SectionReport is the per-section outcome of a calibration pass.
type SectionReport struct {
	Name      string
	Located   bool // header template found at least once
	Satisfied bool // every located header ended in the desired state
	Clicks    int
	Skipped   int // headers already in the desired state
	Warning   string
}
