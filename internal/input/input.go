package input

import (
	"fmt"
	"log"
	"time"

	"github.com/go-vgo/robotgo"
)

// Driver synthesizes mouse and keyboard input. Every operation is
// best-effort: a failed click or keystroke is logged and reported as an
// error, never allowed to panic through to a state machine.
type Driver struct {
	MoveDuration time.Duration // cursor glide before a positioned click
}

// NewDriver creates an input driver.
func NewDriver() *Driver {
	return &Driver{MoveDuration: 150 * time.Millisecond}
}

// guard converts a robotgo panic into an error so one bad injection cannot
// take the worker down.
func guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("input %s panicked: %v", op, r)
			err = fmt.Errorf("input %s failed: %v", op, r)
		}
	}()
	return fn()
}

// Click moves to (x, y) and clicks the left button.
func (d *Driver) Click(x, y int) error {
	return guard("click", func() error {
		robotgo.MoveSmooth(x, y)
		robotgo.Click()
		return nil
	})
}

// MoveTo glides the cursor to (x, y).
func (d *Driver) MoveTo(x, y int) error {
	return guard("move", func() error {
		robotgo.MoveSmooth(x, y)
		return nil
	})
}

// Scroll scrolls vertically; positive amounts scroll up, negative down.
func (d *Driver) Scroll(amount int) error {
	return guard("scroll", func() error {
		robotgo.Scroll(0, amount)
		return nil
	})
}

// PressKey taps a single named key ("enter", "down", "delete", ...).
func (d *Driver) PressKey(name string) error {
	return guard("key "+name, func() error {
		return robotgo.KeyTap(name)
	})
}

// Hotkey taps a key with modifiers held, e.g. Hotkey("v", "ctrl").
func (d *Driver) Hotkey(key string, mods ...string) error {
	return guard("hotkey "+key, func() error {
		args := make([]interface{}, len(mods))
		for i, m := range mods {
			args[i] = m
		}
		return robotgo.KeyTap(key, args...)
	})
}

// CopyText puts s on the system clipboard.
func (d *Driver) CopyText(s string) error {
	return guard("copy", func() error {
		return robotgo.WriteAll(s)
	})
}

// PasteViaHotkey dispatches the platform paste chord.
func (d *Driver) PasteViaHotkey() error {
	return d.Hotkey("v", "ctrl")
}
