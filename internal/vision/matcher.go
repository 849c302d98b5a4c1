package vision

import (
	"image"
	"image/color"
	"math"
)

// defaultColorTolerance is the per-pixel RGB difference (16-bit components,
// summed over channels) below which two pixels count as matching.
const defaultColorTolerance uint32 = 20000

func absDiff(x, y uint32) uint32 {
	if x > y {
		return x - y
	}
	return y - x
}

// toGray converts an image to zero-origin 8-bit grayscale. The correlation
// code indexes Pix directly and relies on a (0,0) origin.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}
	return gray
}

// matchAt compares the template against the screen at offset (x, y) with a
// mismatch budget derived from the confidence: a confidence of 0.88 allows
// up to 12% of the template pixels to differ by more than the tolerance.
func matchAt(screen, tpl image.Image, x, y int, confidence float64, tolerance uint32) bool {
	tb := tpl.Bounds()
	total := tb.Dx() * tb.Dy()
	if total == 0 {
		return false
	}
	budget := int(float64(total) * (1 - confidence))

	sb := screen.Bounds()
	mismatches := 0
	for ty := 0; ty < tb.Dy(); ty++ {
		for tx := 0; tx < tb.Dx(); tx++ {
			r1, g1, b1, _ := screen.At(sb.Min.X+x+tx, sb.Min.Y+y+ty).RGBA()
			r2, g2, b2, _ := tpl.At(tb.Min.X+tx, tb.Min.Y+ty).RGBA()
			if absDiff(r1, r2)+absDiff(g1, g2)+absDiff(b1, b2) > tolerance {
				mismatches++
				if mismatches > budget {
					return false
				}
			}
		}
	}
	return true
}

// matchRegion scans the screen image for template occurrences and returns
// their top-left offsets in screen-image coordinates, row-major (on-screen
// order, top to bottom). After a hit the scan skips the template width so
// overlapping duplicates of the same occurrence are not reported.
func matchRegion(screen, tpl image.Image, confidence float64, tolerance uint32, limit int) []image.Point {
	sb := screen.Bounds()
	tb := tpl.Bounds()
	if tb.Empty() || sb.Dx() < tb.Dx() || sb.Dy() < tb.Dy() {
		return nil
	}

	var hits []image.Point
	maxX := sb.Dx() - tb.Dx()
	maxY := sb.Dy() - tb.Dy()
	for y := 0; y <= maxY; y++ {
		for x := 0; x <= maxX; x++ {
			if matchAt(screen, tpl, x, y, confidence, tolerance) {
				hits = append(hits, image.Point{X: x, Y: y})
				if limit > 0 && len(hits) >= limit {
					return hits
				}
				x += tb.Dx() - 1
			}
		}
	}
	return hits
}

// correlate computes the zero-mean normalized cross-correlation of the
// template against the screen at offset (x, y). Both images are grayscale.
func correlate(screen, tpl *image.Gray, x, y int, tplMean, tplNorm float64) float64 {
	tb := tpl.Bounds()
	w, h := tb.Dx(), tb.Dy()
	n := float64(w * h)

	var sum float64
	for ty := 0; ty < h; ty++ {
		row := screen.Pix[(y+ty)*screen.Stride+x : (y+ty)*screen.Stride+x+w]
		for tx := 0; tx < w; tx++ {
			sum += float64(row[tx])
		}
	}
	screenMean := sum / n

	var cross, screenVar float64
	for ty := 0; ty < h; ty++ {
		srow := screen.Pix[(y+ty)*screen.Stride+x : (y+ty)*screen.Stride+x+w]
		trow := tpl.Pix[ty*tpl.Stride : ty*tpl.Stride+w]
		for tx := 0; tx < w; tx++ {
			sd := float64(srow[tx]) - screenMean
			td := float64(trow[tx]) - tplMean
			cross += sd * td
			screenVar += sd * sd
		}
	}

	denom := math.Sqrt(screenVar) * tplNorm
	if denom == 0 {
		return 0
	}
	return cross / denom
}

// bestCorrelation runs a brute-force grayscale template correlation over the
// screen image and returns the best-scoring offset. This is the single most
// expensive path in the locator and only runs after every faster strategy
// has failed.
func bestCorrelation(screen, tpl *image.Gray) (image.Point, float64) {
	sb := screen.Bounds()
	tb := tpl.Bounds()
	if tb.Empty() || sb.Dx() < tb.Dx() || sb.Dy() < tb.Dy() {
		return image.Point{}, -1
	}

	w, h := tb.Dx(), tb.Dy()
	n := float64(w * h)
	var sum float64
	for ty := 0; ty < h; ty++ {
		row := tpl.Pix[ty*tpl.Stride : ty*tpl.Stride+w]
		for tx := 0; tx < w; tx++ {
			sum += float64(row[tx])
		}
	}
	tplMean := sum / n

	var tplVar float64
	for ty := 0; ty < h; ty++ {
		row := tpl.Pix[ty*tpl.Stride : ty*tpl.Stride+w]
		for tx := 0; tx < w; tx++ {
			d := float64(row[tx]) - tplMean
			tplVar += d * d
		}
	}
	tplNorm := math.Sqrt(tplVar)
	if tplNorm == 0 {
		return image.Point{}, -1
	}

	best := image.Point{}
	bestScore := -1.0
	for y := 0; y <= sb.Dy()-h; y++ {
		for x := 0; x <= sb.Dx()-w; x++ {
			score := correlate(screen, tpl, x, y, tplMean, tplNorm)
			if score > bestScore {
				bestScore = score
				best = image.Point{X: x, Y: y}
			}
		}
	}
	return best, bestScore
}
