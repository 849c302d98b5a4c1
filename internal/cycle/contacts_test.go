package cycle

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoa/internal/config"
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

type fixedHeader struct {
	box   domain.Box
	found bool
}

func (h *fixedHeader) LocateOne(name string, region *domain.Region, confidence float64) (domain.Box, bool) {
	return h.box, h.found
}

type countingScroller struct {
	moves   int
	scrolls []int
}

func (s *countingScroller) MoveTo(x, y int) error {
	s.moves++
	return nil
}

func (s *countingScroller) Scroll(amount int) error {
	s.scrolls = append(s.scrolls, amount)
	return nil
}

// rowScreen paints a 300x400 screen: flat background, a header box, and n
// visually distinct contact rows below it.
func rowScreen(n int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 300, 400))
	bg := color.RGBA{245, 245, 245, 255}
	for y := 0; y < 400; y++ {
		for x := 0; x < 300; x++ {
			img.SetRGBA(x, y, bg)
		}
	}
	for i := 0; i < n; i++ {
		top := 90 + i*50
		seed := uint32(i + 1)
		for y := top; y < top+50; y++ {
			for x := 10; x < 300; x++ {
				seed = seed*1664525 + 1013904223
				img.SetRGBA(x, y, color.RGBA{R: uint8(seed >> 24), G: uint8(seed >> 16), B: uint8(seed), A: 255})
			}
		}
	}
	return img
}

func newTestList(img *image.RGBA, headerFound bool) (*VisionList, *countingScroller) {
	probe := &fakeProbe{img: img}
	header := &fixedHeader{
		box:   domain.Box{Left: 10, Top: 50, Width: 100, Height: 20},
		found: headerFound,
	}
	scroller := &countingScroller{}
	sidebar := domain.Region{Left: 0, Top: 0, Width: 300, Height: 400}
	geo := config.DefaultConfig().Geometry
	return NewVisionList(probe, header, scroller, sidebar, geo, 0.88), scroller
}

func TestVisibleRowsSlicesBelowHeader(t *testing.T) {
	list, _ := newTestList(rowScreen(3), true)

	rows, err := list.VisibleRows()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	geo := config.DefaultConfig().Geometry
	// Click X: header center plus the first-row offset.
	assert.Equal(t, 10+100/2+geo.FirstRowOffsetX, rows[0].X)
	// Rows start below the header and step by the stride.
	assert.Equal(t, 90+25, rows[0].Y)
	assert.Equal(t, 140+25, rows[1].Y)
	assert.Equal(t, 190+25, rows[2].Y)
	// Each row strip records where it was read from.
	assert.Equal(t, domain.Box{Left: 10, Top: 90, Width: 290, Height: 50}, rows[0].Box)
}

func TestVisibleRowsNamesAreStableAndDistinct(t *testing.T) {
	list, _ := newTestList(rowScreen(3), true)

	first, err := list.VisibleRows()
	require.NoError(t, err)
	second, err := list.VisibleRows()
	require.NoError(t, err)

	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name, "row %d fingerprint changed", i)
	}
	assert.NotEqual(t, first[0].Name, first[1].Name)
	assert.NotEqual(t, first[1].Name, first[2].Name)
}

func TestRowNamesAreFingerprints(t *testing.T) {
	// Recipient allow-lists key on these names, so the form is contract.
	list, _ := newTestList(rowScreen(2), true)

	rows, err := list.VisibleRows()
	require.NoError(t, err)
	for _, row := range rows {
		assert.True(t, IsFingerprint(row.Name), "row name %q", row.Name)
	}
	assert.False(t, IsFingerprint("Alice"))
}

func TestVisibleRowsStopsAtFlatFill(t *testing.T) {
	list, _ := newTestList(rowScreen(2), true)

	rows, err := list.VisibleRows()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestVisibleRowsErrorsWithoutHeader(t *testing.T) {
	list, _ := newTestList(rowScreen(2), false)
	_, err := list.VisibleRows()
	assert.Error(t, err)
}

func TestScrollPageHoversListFirst(t *testing.T) {
	list, scroller := newTestList(rowScreen(1), true)

	require.NoError(t, list.ScrollPage())
	assert.Equal(t, 1, scroller.moves)
	require.Len(t, scroller.scrolls, 1)
	assert.Negative(t, scroller.scrolls[0], "page scroll must move down")
}

func TestVisionListHasNoCursor(t *testing.T) {
	list, _ := newTestList(rowScreen(1), true)
	_, ok := list.Cursor()
	assert.False(t, ok)
	assert.True(t, list.CanScroll())
}
