package screen

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"

	"autoa/internal/domain"
)

// Probe wraps raw screen capture. It keeps no state: the screen content is
// assumed to change between calls, so captures are never cached.
type Probe struct{}

// NewProbe creates a screen probe.
func NewProbe() *Probe {
	return &Probe{}
}

// Size returns the primary screen dimensions in pixels.
func (p *Probe) Size() (int, int) {
	return robotgo.GetScreenSize()
}

// Capture grabs the given region of the screen, or the whole screen when
// region is nil. A zero-area region is treated as "no region".
func (p *Probe) Capture(region *domain.Region) (image.Image, error) {
	var img image.Image
	if region != nil && !region.Empty() {
		img = robotgo.CaptureImg(region.Left, region.Top, region.Width, region.Height)
	} else {
		img = robotgo.CaptureImg()
	}
	if img == nil {
		return nil, fmt.Errorf("screen capture failed")
	}
	return img, nil
}
