package screen

import (
	"log"
	"time"

	"github.com/go-vgo/robotgo"

	"autoa/internal/domain"
)

// Windows locates and activates the target application window by title hint.
// The only state it keeps is the last matched pid.
type Windows struct {
	lastPid int
}

// NewWindows creates a window controller.
func NewWindows() *Windows {
	return &Windows{}
}

// findPid returns the pid of the first process matching the hint.
func (w *Windows) findPid(hint string) (int, bool) {
	ids, err := robotgo.FindIds(hint)
	if err != nil || len(ids) == 0 {
		return 0, false
	}
	w.lastPid = ids[0]
	return ids[0], true
}

// Running reports whether a process matching the hint exists.
func (w *Windows) Running(hint string) bool {
	_, ok := w.findPid(hint)
	return ok
}

// Focus restores and activates the target window, then clicks its center to
// make sure keyboard focus landed. Returns false when the window cannot be
// found or activated.
func (w *Windows) Focus(hint string) bool {
	pid, ok := w.findPid(hint)
	if !ok {
		log.Printf("window %q not found", hint)
		return false
	}

	if err := robotgo.ActivePid(pid); err != nil {
		log.Printf("activating window %q failed: %v", hint, err)
		return false
	}
	time.Sleep(500 * time.Millisecond)

	if box, ok := w.Region(hint); ok {
		cx, cy := box.Center()
		robotgo.Move(cx, cy)
		robotgo.Click()
		time.Sleep(300 * time.Millisecond)
	}
	return true
}

// Reassert re-activates the target window without the confirmation click.
// Best effort: a failure here is tolerated by callers.
func (w *Windows) Reassert(hint string) bool {
	pid, ok := w.findPid(hint)
	if !ok {
		return false
	}
	if err := robotgo.ActivePid(pid); err != nil {
		return false
	}
	time.Sleep(200 * time.Millisecond)
	return true
}

// Region returns the bounds of the target window.
func (w *Windows) Region(hint string) (domain.Box, bool) {
	pid, ok := w.findPid(hint)
	if !ok {
		return domain.Box{}, false
	}
	x, y, width, height := robotgo.GetBounds(pid)
	if width <= 0 || height <= 0 {
		return domain.Box{}, false
	}
	return domain.Box{Left: x, Top: y, Width: width, Height: height}, true
}
