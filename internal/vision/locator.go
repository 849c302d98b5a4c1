package vision

import (
	"image"
	"log"

	"autoa/internal/domain"
)

// Prober supplies screen pixels. Satisfied by screen.Probe; tests use a
// static in-memory screen.
type Prober interface {
	Size() (int, int)
	Capture(region *domain.Region) (image.Image, error)
}

// Options tunes the locator ladder.
type Options struct {
	DefaultConfidence float64 // used when a call passes no usable confidence
	FallbackThreshold float64 // grayscale correlation acceptance, last resort
	ColorTolerance    uint32  // per-pixel channel-sum difference tolerance
}

// strategy is one rung of the fallback ladder: a confidence and a color
// mode. The ladder is data so the relaxation policy is testable on its own.
type strategy struct {
	confidence float64
	grayscale  bool
}

// Locator finds template occurrences on the live screen. It holds no cache:
// every locate call captures fresh pixels, and it is safe to call in a tight
// loop. Failures of any kind — capture errors, unreadable templates, absent
// files — surface as misses, never as errors.
type Locator struct {
	probe Prober
	store *Store
	opts  Options
}

// NewLocator creates a locator over the given probe and template store.
func NewLocator(probe Prober, store *Store, opts Options) *Locator {
	if opts.DefaultConfidence == 0 {
		opts.DefaultConfidence = 0.88
	}
	if opts.FallbackThreshold == 0 {
		opts.FallbackThreshold = 0.55
	}
	if opts.ColorTolerance == 0 {
		opts.ColorTolerance = defaultColorTolerance
	}
	opts.DefaultConfidence = clampConfidence(opts.DefaultConfidence)
	return &Locator{probe: probe, store: store, opts: opts}
}

// clampConfidence keeps confidences inside the band the matcher accepts.
func clampConfidence(v float64) float64 {
	if v < 0.55 {
		return 0.55
	}
	if v > 0.98 {
		return 0.98
	}
	return v
}

// ladder returns the strategies to try in order: requested confidence in
// color then grayscale, then the default confidence in both modes. Each
// confidence strictly relaxes the previous one.
func (l *Locator) ladder(confidence float64) []strategy {
	c := clampConfidence(confidence)
	out := []strategy{{c, false}, {c, true}}
	if l.opts.DefaultConfidence < c {
		out = append(out,
			strategy{l.opts.DefaultConfidence, false},
			strategy{l.opts.DefaultConfidence, true},
		)
	}
	return out
}

// LocateOne returns the first match of the named template inside region
// (nil means whole screen), or ok=false when nothing matched anywhere on
// the ladder, including the correlation fallback.
func (l *Locator) LocateOne(name string, region *domain.Region, confidence float64) (domain.Box, bool) {
	boxes := l.locate(name, region, confidence, 1, true)
	if len(boxes) == 0 {
		return domain.Box{}, false
	}
	return boxes[0], true
}

// LocateAll returns every match of the named template inside region, in
// on-screen order (top to bottom, left to right). When the multi-match scan
// yields nothing but a single-match call at the same parameters succeeds, a
// one-element result is synthesized.
func (l *Locator) LocateAll(name string, region *domain.Region, confidence float64) []domain.Box {
	boxes := l.locate(name, region, confidence, 0, true)
	if len(boxes) > 0 {
		return boxes
	}
	if box, ok := l.LocateOne(name, region, confidence); ok {
		return []domain.Box{box}
	}
	return nil
}

// LocateAllFast runs only the confidence ladder, skipping the correlation
// fallback and the single-match retry. Callers driving their own
// descending-confidence ladder use it to keep every rung cheap and run
// Correlate once at the end.
func (l *Locator) LocateAllFast(name string, region *domain.Region, confidence float64) []domain.Box {
	return l.locate(name, region, confidence, 0, false)
}

// Correlate runs just the brute-force grayscale correlation against the
// region, accepted at the fallback threshold. It is the most expensive
// pass the locator has and is meant to run once, after cheaper attempts
// are exhausted.
func (l *Locator) Correlate(name string, region *domain.Region) (domain.Box, bool) {
	tpl, err := l.store.Load(name)
	if err != nil {
		log.Printf("correlate %s: %v", name, err)
		return domain.Box{}, false
	}
	search, ok := l.searchRegion(region)
	if !ok {
		return domain.Box{}, false
	}
	boxes := l.correlationPass(tpl, toGray(tpl), search)
	if len(boxes) == 0 {
		return domain.Box{}, false
	}
	return boxes[0], true
}

// locate runs the ladder and, when fallback is set, the correlation pass.
// limit 0 means all matches; the fallback always contributes at most one.
func (l *Locator) locate(name string, region *domain.Region, confidence float64, limit int, fallback bool) []domain.Box {
	tpl, err := l.store.Load(name)
	if err != nil {
		log.Printf("locate %s: %v", name, err)
		return nil
	}

	search, ok := l.searchRegion(region)
	if !ok {
		return nil
	}

	var grayTpl *image.Gray
	for _, s := range l.ladder(confidence) {
		screen, err := l.probe.Capture(&search)
		if err != nil {
			continue
		}
		needle := tpl
		if s.grayscale {
			if grayTpl == nil {
				grayTpl = toGray(tpl)
			}
			needle = grayTpl
			screen = toGray(screen)
		}
		hits := matchRegion(screen, needle, s.confidence, l.opts.ColorTolerance, limit)
		if len(hits) > 0 {
			return l.toBoxes(hits, search, tpl)
		}
	}

	if !fallback {
		return nil
	}
	if grayTpl == nil {
		grayTpl = toGray(tpl)
	}
	return l.correlationPass(tpl, grayTpl, search)
}

// correlationPass is the last resort: one capture, brute-force grayscale
// correlation at a materially lower acceptance threshold, to recover
// near-misses from anti-aliasing or theme differences.
func (l *Locator) correlationPass(tpl image.Image, grayTpl *image.Gray, search domain.Region) []domain.Box {
	screen, err := l.probe.Capture(&search)
	if err != nil {
		return nil
	}
	pt, score := bestCorrelation(toGray(screen), grayTpl)
	if score >= l.opts.FallbackThreshold {
		return l.toBoxes([]image.Point{pt}, search, tpl)
	}
	return nil
}

// searchRegion resolves the requested region against the screen bounds.
// A clipped-to-zero region means "skip", reported as ok=false.
func (l *Locator) searchRegion(region *domain.Region) (domain.Region, bool) {
	w, h := l.probe.Size()
	if region == nil {
		return domain.Region{Width: w, Height: h}, true
	}
	clipped := region.Clipped(w, h)
	if clipped.Empty() {
		return domain.Region{}, false
	}
	return clipped, true
}

// toBoxes converts region-relative match points to screen-coordinate boxes.
func (l *Locator) toBoxes(pts []image.Point, search domain.Region, tpl image.Image) []domain.Box {
	tb := tpl.Bounds()
	boxes := make([]domain.Box, 0, len(pts))
	for _, pt := range pts {
		boxes = append(boxes, domain.Box{
			Left:   search.Left + pt.X,
			Top:    search.Top + pt.Y,
			Width:  tb.Dx(),
			Height: tb.Dy(),
		})
	}
	return boxes
}
