package report

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoa/internal/domain"
)

type fakeProbe struct {
	img *image.RGBA
}

func (f *fakeProbe) Size() (int, int) {
	b := f.img.Bounds()
	return b.Dx(), b.Dy()
}

func (f *fakeProbe) Capture(region *domain.Region) (image.Image, error) {
	if region == nil || region.Empty() {
		return f.img, nil
	}
	r := image.Rect(region.Left, region.Top, region.Left+region.Width, region.Top+region.Height)
	return f.img.SubImage(r), nil
}

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func newTestReporter(t *testing.T, debug bool) (*Reporter, string) {
	t.Helper()
	dir := t.TempDir()
	r := NewReporter(dir, &fakeProbe{img: testImage()}, nil, debug)
	r.now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	}
	return r, dir
}

func TestScreenshotWritesTimestampedFiles(t *testing.T) {
	r, dir := newTestReporter(t, false)

	path, err := r.Screenshot()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "screenshot-20250615-103000.png"), path)

	_, err = os.Stat(path)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "screenshot-20250615-103000-thumb.png"))
	assert.NoError(t, err)
}

func TestDebugCropDisabledWritesNothing(t *testing.T) {
	r, dir := newTestReporter(t, false)

	r.DebugCrop("friend-header", domain.Box{Left: 10, Top: 10, Width: 50, Height: 20})
	_, err := os.Stat(filepath.Join(dir, "debug"))
	assert.True(t, os.IsNotExist(err))
}

func TestDebugCropWritesLabeledFile(t *testing.T) {
	r, dir := newTestReporter(t, true)

	r.DebugCrop("friend-header", domain.Box{Left: 10, Top: 10, Width: 50, Height: 20})
	entries, err := os.ReadDir(filepath.Join(dir, "debug"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "friend-header-")
}

func TestDebugCropIgnoresEmptyBox(t *testing.T) {
	r, dir := newTestReporter(t, true)

	r.DebugCrop("anything", domain.Box{})
	_, err := os.Stat(filepath.Join(dir, "debug"))
	assert.True(t, os.IsNotExist(err))
}
