// Package cycle walks the contact list top to bottom, opening each contact
// once and handing it to the messenger. It owns the pagination state
// machine: dedup across scroll pages, end-of-list detection, and the
// stagnation cutoff that stops runs on lists without a readable scrollbar.
package cycle

import (
	"fmt"
	"log"
	"time"

	"autoa/internal/domain"
	"autoa/internal/eventbus"
)

// stagnationCutoff is how many consecutive pages may yield nothing new
// before the run stops. One stale page happens on slow redraws; three in a
// row means the list is no longer moving.
const stagnationCutoff = 3

// Gate lets the worker pause and cancel a run between row actions.
// Checkpoint blocks while paused and returns an error once cancelled.
type Gate interface {
	Checkpoint() error
}

// Messenger delivers one message to the contact at a click point.
type Messenger interface {
	Open(x, y int) error
	Send(message string, dryRun bool) error
}

// Cycler drives one pass over the contact list.
type Cycler struct {
	list      ContactList
	messenger Messenger
	bus       eventbus.EventBus

	// Filter restricts processing to approved row names; nil allows all.
	// Filtered rows still count as seen for pagination purposes.
	Filter func(name string) bool

	// Delay returns the pause inserted after each processed contact.
	Delay func() time.Duration

	// Crops, when set, receives the row strip of every contact about to
	// be handled.
	Crops interface {
		DebugCrop(label string, box domain.Box)
	}

	settle time.Duration
	sleep  func(time.Duration)
}

// NewCycler wires a cycler. settle is the wait after each scroll page.
func NewCycler(list ContactList, messenger Messenger, bus eventbus.EventBus, settle time.Duration) *Cycler {
	return &Cycler{
		list:      list,
		messenger: messenger,
		bus:       bus,
		settle:    settle,
		sleep:     time.Sleep,
	}
}

func (c *Cycler) logf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	log.Print(line)
	if c.bus != nil {
		c.bus.Publish(eventbus.LogAppendedEvent{Line: line})
	}
}

// Cycle processes contacts until limit names have been delivered, and
// returns the partial result on cancellation. Failed contacts do not count
// against the limit. ReachedEnd is set only when the scroll cursor reports
// the bottom; stagnation, an empty page, and missing scroll capability all
// stop the run with the flag unset.
func (c *Cycler) Cycle(gate Gate, limit int, message string, dryRun bool) domain.CycleResult {
	var result domain.CycleResult
	seen := make(map[string]struct{})
	visited := make(map[float64]struct{})
	stagnant := 0

	for {
		if gate != nil {
			if err := gate.Checkpoint(); err != nil {
				return result
			}
		}

		rows, err := c.list.VisibleRows()
		if err != nil {
			c.logf("cycle: read rows: %v", err)
			return result
		}

		newNames := 0
		for _, row := range rows {
			if limit > 0 && len(result.Processed) >= limit {
				return result
			}
			if _, dup := seen[row.Name]; dup {
				continue
			}
			seen[row.Name] = struct{}{}
			newNames++
			if c.Filter != nil && !c.Filter(row.Name) {
				continue
			}

			if gate != nil {
				if err := gate.Checkpoint(); err != nil {
					return result
				}
			}
			if err := c.handle(row, message, dryRun); err != nil {
				c.logf("cycle: %s: %v", row.Name, err)
				result.Failed = append(result.Failed, row.Name)
			} else {
				result.Processed = append(result.Processed, row.Name)
			}
			if c.Delay != nil {
				c.sleep(c.Delay())
			}
		}

		if len(rows) == 0 {
			c.logf("cycle: no visible contacts, stopping")
			return result
		}

		progressed := newNames > 0
		if cursor, ok := c.list.Cursor(); ok {
			if cursor >= 100 {
				result.ReachedEnd = true
				return result
			}
			if _, before := visited[cursor]; !before {
				progressed = true
			}
			visited[cursor] = struct{}{}
		}

		if progressed {
			stagnant = 0
		} else {
			stagnant++
			if stagnant >= stagnationCutoff {
				c.logf("cycle: no new contacts after %d pages, stopping", stagnant)
				return result
			}
		}

		// No scroll capability is a plain stop: the list may extend
		// past the visible rows, so the end was not provably reached.
		if !c.list.CanScroll() {
			return result
		}
		if err := c.list.ScrollPage(); err != nil {
			c.logf("cycle: scroll: %v", err)
			return result
		}
		c.sleep(c.settle)

		// Re-read the cursor right after scrolling so a page that
		// lands on the bottom ends the run without another pass.
		if cursor, ok := c.list.Cursor(); ok && cursor >= 100 {
			result.ReachedEnd = true
			return result
		}
	}
}

func (c *Cycler) handle(row Row, message string, dryRun bool) error {
	if c.Crops != nil {
		c.Crops.DebugCrop(row.Name, row.Box)
	}
	err := c.messenger.Open(row.X, row.Y)
	if err == nil && message != "" {
		err = c.messenger.Send(message, dryRun)
	}
	if c.bus != nil {
		c.bus.Publish(eventbus.ContactHandledEvent{Name: row.Name, Success: err == nil})
	}
	return err
}
