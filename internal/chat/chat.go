// Package chat opens a conversation for a contact row and delivers one
// message through the app's input field. Text goes through the clipboard:
// paste is the only input path that survives non-ASCII content.
package chat

import (
	"fmt"
	"time"

	"autoa/internal/config"
	"autoa/internal/domain"
	"autoa/internal/vision"
)

const (
	// The chat-open button is small and visually busy; detecting it needs
	// high confidence, confirming its absence a slightly lower one.
	openButtonConfidence   = 0.95
	confirmOpenConfidence  = 0.90
	inputFieldClickOffsetX = 50
)

// Locator finds templates on screen.
type Locator interface {
	LocateOne(name string, region *domain.Region, confidence float64) (domain.Box, bool)
}

// Input is the synthetic input slice the messenger needs.
type Input interface {
	Click(x, y int) error
	CopyText(s string) error
	PasteViaHotkey() error
	PressKey(name string) error
	Hotkey(key string, mods ...string) error
}

// Focuser re-asserts foreground focus on the target app.
type Focuser interface {
	Reassert(hint string) bool
}

// Messenger opens chats and sends messages.
type Messenger struct {
	locator Locator
	input   Input
	focus   Focuser

	appTitle   string
	confidence float64
	settle     time.Duration
	pause      time.Duration

	sleep func(time.Duration)
}

// NewMessenger wires a messenger from its collaborators and configuration.
func NewMessenger(locator Locator, input Input, focus Focuser, cfg *config.Config) *Messenger {
	return &Messenger{
		locator:    locator,
		input:      input,
		focus:      focus,
		appTitle:   cfg.AppTitle,
		confidence: cfg.Vision.Confidence,
		settle:     time.Duration(cfg.Run.SettleMillis) * time.Millisecond,
		pause:      time.Duration(cfg.Run.PauseMillis) * time.Millisecond,
		sleep:      time.Sleep,
	}
}

// Open clicks the contact row at (x, y) and confirms a chat pane appeared.
// Some rows need a second click on their chat-open button before the pane
// shows up.
func (m *Messenger) Open(x, y int) error {
	if m.focus != nil {
		m.focus.Reassert(m.appTitle)
	}
	if err := m.input.Click(x, y); err != nil {
		return fmt.Errorf("click contact row: %w", err)
	}
	m.sleep(m.settle)

	if btn, ok := m.locator.LocateOne(vision.TplChatOpen, nil, openButtonConfidence); ok {
		bx, by := btn.Center()
		if err := m.input.Click(bx, by); err != nil {
			return fmt.Errorf("click chat-open button: %w", err)
		}
		m.sleep(m.settle)
	}

	if _, ok := m.locator.LocateOne(vision.TplMessageInput, nil, m.confidence); ok {
		return nil
	}
	m.sleep(m.pause)
	if _, ok := m.locator.LocateOne(vision.TplMessageInput, nil, confirmOpenConfidence); ok {
		return nil
	}
	return fmt.Errorf("chat pane did not open")
}

// Send types message into the open chat. In a dry run the text is typed and
// then wiped without pressing enter, exercising the full input path.
func (m *Messenger) Send(message string, dryRun bool) error {
	anchor, ok := m.locator.LocateOne(vision.TplMessageInput, nil, m.confidence)
	if !ok {
		return fmt.Errorf("message input not found")
	}

	_, cy := anchor.Center()
	x := anchor.Left + anchor.Width + inputFieldClickOffsetX
	if err := m.input.Click(x, cy); err != nil {
		return fmt.Errorf("focus message input: %w", err)
	}
	m.sleep(m.pause)

	if err := m.input.CopyText(message); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	if err := m.input.PasteViaHotkey(); err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	m.sleep(m.pause)

	if dryRun {
		if err := m.input.Hotkey("a", "ctrl"); err != nil {
			return err
		}
		return m.input.PressKey("delete")
	}
	return m.input.PressKey("enter")
}
