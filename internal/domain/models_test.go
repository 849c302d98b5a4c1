package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoxCenter(t *testing.T) {
	b := Box{Left: 10, Top: 20, Width: 30, Height: 40}
	x, y := b.Center()
	assert.Equal(t, 25, x)
	assert.Equal(t, 40, y)
}

func TestBoxEmpty(t *testing.T) {
	assert.True(t, Box{}.Empty())
	assert.True(t, Box{Width: 10}.Empty())
	assert.False(t, Box{Width: 1, Height: 1}.Empty())
}

func TestRegionClippedNeverNegative(t *testing.T) {
	r := Region{Left: -50, Top: -20, Width: 100, Height: 50}
	c := r.Clipped(1920, 1080)
	assert.Equal(t, Region{Left: 0, Top: 0, Width: 50, Height: 30}, c)

	// Fully off-screen clips to zero area, not negative.
	r = Region{Left: 2000, Top: 1200, Width: 100, Height: 100}
	c = r.Clipped(1920, 1080)
	assert.True(t, c.Empty())
	assert.GreaterOrEqual(t, c.Width, 0)
	assert.GreaterOrEqual(t, c.Height, 0)
}

func TestRegionExpanded(t *testing.T) {
	r := Region{Left: 100, Top: 100, Width: 50, Height: 20}
	e := r.Expanded(10, 5, 1920, 1080)
	assert.Equal(t, Region{Left: 90, Top: 95, Width: 70, Height: 30}, e)

	// Expansion at the screen edge clips instead of going negative.
	r = Region{Left: 5, Top: 5, Width: 50, Height: 20}
	e = r.Expanded(10, 10, 1920, 1080)
	assert.Equal(t, 0, e.Left)
	assert.Equal(t, 0, e.Top)
}

func TestRegionFromBox(t *testing.T) {
	b := Box{Left: 1, Top: 2, Width: 3, Height: 4}
	assert.Equal(t, Region{Left: 1, Top: 2, Width: 3, Height: 4}, RegionFromBox(b))
}

func TestSectionStateString(t *testing.T) {
	assert.Equal(t, "expanded", StateExpanded.String())
	assert.Equal(t, "collapsed", StateCollapsed.String())
	assert.Equal(t, "unknown", StateUnknown.String())
}

func TestRunStatusString(t *testing.T) {
	assert.Equal(t, "completed", RunCompleted.String())
	assert.Equal(t, "aborted", RunAborted.String())
	assert.Equal(t, "cancelled", RunCancelled.String())
}
