// Package report writes diagnostic artifacts: full-screen captures on
// demand and, in debug mode, crops of every region a run acted on.
package report

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/nfnt/resize"
	"github.com/vcaesar/imgo"

	"autoa/internal/domain"
	"autoa/internal/eventbus"
	"autoa/internal/vision"
)

const (
	thumbWidth = 320
	cropMargin = 12
)

// Reporter saves captures under the reports directory.
type Reporter struct {
	dir   string
	probe vision.Prober
	bus   eventbus.EventBus
	debug bool

	now func() time.Time
}

// NewReporter creates a reporter writing into dir. debug enables per-match
// crop saving.
func NewReporter(dir string, probe vision.Prober, bus eventbus.EventBus, debug bool) *Reporter {
	return &Reporter{dir: dir, probe: probe, bus: bus, debug: debug, now: time.Now}
}

func (r *Reporter) stamp() string {
	return r.now().Format("20060102-150405")
}

// Screenshot captures the whole screen and writes it plus a small thumbnail
// next to it. The full image path is returned.
func (r *Reporter) Screenshot() (string, error) {
	img, err := r.probe.Capture(nil)
	if err != nil {
		return "", fmt.Errorf("capture screen: %w", err)
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	stamp := r.stamp()
	path := filepath.Join(r.dir, fmt.Sprintf("screenshot-%s.png", stamp))
	if err := imgo.Save(path, img); err != nil {
		return "", fmt.Errorf("save screenshot: %w", err)
	}

	thumb := resize.Resize(thumbWidth, 0, img, resize.Bicubic)
	thumbPath := filepath.Join(r.dir, fmt.Sprintf("screenshot-%s-thumb.png", stamp))
	if err := imgo.Save(thumbPath, thumb); err != nil {
		return "", fmt.Errorf("save thumbnail: %w", err)
	}

	if r.bus != nil {
		r.bus.Publish(eventbus.ScreenshotSavedEvent{Path: path})
	}
	return path, nil
}

// DebugCrop saves the pixels under box plus a small context margin, labeled
// with what matched there.
// It is a no-op outside debug mode and never fails a run.
func (r *Reporter) DebugCrop(label string, box domain.Box) {
	if !r.debug || box.Empty() {
		return
	}
	w, h := r.probe.Size()
	region := domain.RegionFromBox(box).Expanded(cropMargin, cropMargin, w, h)
	if region.Empty() {
		return
	}
	img, err := r.probe.Capture(&region)
	if err != nil {
		return
	}
	r.saveCrop(label, img)
}

func (r *Reporter) saveCrop(label string, img image.Image) {
	dir := filepath.Join(r.dir, "debug")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", label, r.stamp()))
	_ = imgo.Save(path, img)
}
