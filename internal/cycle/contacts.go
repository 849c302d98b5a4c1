package cycle

import (
	"fmt"
	"hash/fnv"
	"image"
	"strings"

	"github.com/nfnt/resize"

	"autoa/internal/config"
	"autoa/internal/domain"
	"autoa/internal/vision"
)

// Row is one visible contact row: a stable identity, its click point, and
// the screen strip it was read from.
type Row struct {
	Name string
	X    int
	Y    int
	Box  domain.Box
}

// ContactList exposes the scrollable contact sidebar to the cycler. A
// cursor position of [0,100] is reported when the implementation can read
// one; ok=false means termination falls back to stagnation detection.
type ContactList interface {
	VisibleRows() ([]Row, error)
	ScrollPage() error
	Cursor() (float64, bool)
	CanScroll() bool
}

// Scroller is the input slice the vision list needs.
type Scroller interface {
	MoveTo(x, y int) error
	Scroll(amount int) error
}

// HeaderLocator finds the friend section header that anchors the row grid.
type HeaderLocator interface {
	LocateOne(name string, region *domain.Region, confidence float64) (domain.Box, bool)
}

const (
	// Fingerprint thumbnails are tiny on purpose: enough signal to tell
	// rows apart, small enough to shrug off sub-pixel scroll drift.
	fingerprintW = 16
	fingerprintH = 4

	fingerprintPrefix = "row-"

	scrollPageStep = -10 // wheel down
)

// IsFingerprint reports whether name has the synthetic row-identity form
// the vision list produces. Recipient lists must carry these names; the
// pixel reader never sees display names.
func IsFingerprint(name string) bool {
	return strings.HasPrefix(name, fingerprintPrefix)
}

// VisionList reads contact rows straight off the pixels. Row identity is a
// fingerprint of the row's appearance, so the same contact scrolled back
// into view dedups correctly, while two contacts with identical rendering
// would collide. Names are synthetic, not display names.
type VisionList struct {
	probe   vision.Prober
	locator HeaderLocator
	input   Scroller

	sidebar    domain.Region
	geo        config.GeometrySettings
	confidence float64
}

// NewVisionList builds a contact list bounded by the given sidebar region.
func NewVisionList(probe vision.Prober, locator HeaderLocator, input Scroller, sidebar domain.Region, geo config.GeometrySettings, confidence float64) *VisionList {
	return &VisionList{
		probe:      probe,
		locator:    locator,
		input:      input,
		sidebar:    sidebar,
		geo:        geo,
		confidence: confidence,
	}
}

// VisibleRows locates the friend header and slices the area below it into
// stride-sized rows. Rows past the end of the list render as a flat fill
// and are dropped.
func (v *VisionList) VisibleRows() ([]Row, error) {
	header, ok := v.locator.LocateOne(vision.TplFriendHeader, &v.sidebar, v.confidence)
	if !ok {
		return nil, fmt.Errorf("friend header not found")
	}

	top := header.Top + header.Height + v.geo.FirstRowOffsetY
	bottom := v.sidebar.Top + v.sidebar.Height
	stride := v.geo.RowStride
	if stride <= 0 {
		return nil, fmt.Errorf("row stride must be positive")
	}

	area := domain.Region{
		Left:   header.Left,
		Top:    top,
		Width:  v.sidebar.Width - (header.Left - v.sidebar.Left),
		Height: bottom - top,
	}
	screenW, screenH := v.probe.Size()
	area = area.Clipped(screenW, screenH)
	if area.Empty() {
		return nil, nil
	}

	img, err := v.probe.Capture(&area)
	if err != nil {
		return nil, fmt.Errorf("capture row area: %w", err)
	}

	clickX, _ := header.Center()
	clickX += v.geo.FirstRowOffsetX

	var rows []Row
	for y := 0; y+stride <= area.Height; y += stride {
		crop := cropRow(img, y, stride)
		if crop == nil || flatFill(crop) {
			break
		}
		rows = append(rows, Row{
			Name: fingerprint(crop),
			X:    clickX,
			Y:    area.Top + y + stride/2,
			Box:  domain.Box{Left: area.Left, Top: area.Top + y, Width: area.Width, Height: stride},
		})
	}
	return rows, nil
}

// ScrollPage advances the list by one wheel page. The pointer must hover
// the list for the wheel events to land there.
func (v *VisionList) ScrollPage() error {
	cx := v.sidebar.Left + v.sidebar.Width/2
	cy := v.sidebar.Top + v.sidebar.Height/2
	if err := v.input.MoveTo(cx, cy); err != nil {
		return err
	}
	return v.input.Scroll(scrollPageStep)
}

// Cursor is unavailable to the pixel reader; the cycler falls back to
// stagnation detection.
func (v *VisionList) Cursor() (float64, bool) { return 0, false }

// CanScroll is always true for the live list; stagnation ends the run.
func (v *VisionList) CanScroll() bool { return true }

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// cropRow cuts one row strip out of the captured area. The offset is
// relative to the capture, whose bounds may not start at the origin.
func cropRow(img image.Image, y, h int) image.Image {
	si, ok := img.(subImager)
	if !ok {
		return nil
	}
	b := img.Bounds()
	r := image.Rect(b.Min.X, b.Min.Y+y, b.Max.X, b.Min.Y+y+h)
	crop := si.SubImage(r)
	if crop.Bounds().Empty() {
		return nil
	}
	return crop
}

// flatFill reports whether the crop is a near-uniform fill, which is what
// the empty space after the last contact row looks like.
func flatFill(img image.Image) bool {
	thumb := resize.Resize(fingerprintW, fingerprintH, img, resize.Bicubic)
	b := thumb.Bounds()
	r0, g0, b0, _ := thumb.At(b.Min.X, b.Min.Y).RGBA()
	const tol = 1500
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := thumb.At(x, y).RGBA()
			if absDiff(r, r0) > tol || absDiff(g, g0) > tol || absDiff(bb, b0) > tol {
				return false
			}
		}
	}
	return true
}

func absDiff(x, y uint32) uint32 {
	if x > y {
		return x - y
	}
	return y - x
}

// fingerprint reduces a row crop to a stable synthetic name. Downsampling
// first makes the hash insensitive to single-pixel noise.
func fingerprint(img image.Image) string {
	thumb := resize.Resize(fingerprintW, fingerprintH, img, resize.Bicubic)
	h := fnv.New64a()
	b := thumb.Bounds()
	var buf [3]byte
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := thumb.At(x, y).RGBA()
			// Quantize to 6 bits per channel so bicubic rounding noise
			// cannot flip the hash.
			buf[0] = byte(r >> 10)
			buf[1] = byte(g >> 10)
			buf[2] = byte(bb >> 10)
			h.Write(buf[:])
		}
	}
	return fmt.Sprintf("%s%016x", fingerprintPrefix, h.Sum64())
}
