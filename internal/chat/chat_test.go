package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoa/internal/config"
	"autoa/internal/domain"
	"autoa/internal/vision"
)

// chatScreen fakes the locator: which templates are visible and where.
type chatScreen struct {
	openButton   *domain.Box
	messageInput *domain.Box
	openAfterBtn bool // message input shows up only after the button click
}

func (s *chatScreen) LocateOne(name string, region *domain.Region, confidence float64) (domain.Box, bool) {
	switch name {
	case vision.TplChatOpen:
		if s.openButton != nil {
			return *s.openButton, true
		}
	case vision.TplMessageInput:
		if s.messageInput != nil {
			return *s.messageInput, true
		}
	}
	return domain.Box{}, false
}

// actionLog records every synthetic input in order.
type actionLog struct {
	actions []string
	screen  *chatScreen
}

func (a *actionLog) record(s string) { a.actions = append(a.actions, s) }

func (a *actionLog) Click(x, y int) error {
	a.record("click")
	if a.screen != nil && a.screen.openAfterBtn && a.screen.openButton != nil {
		// Clicking the chat-open button reveals the input field.
		bx, by := a.screen.openButton.Center()
		if x == bx && y == by {
			a.screen.messageInput = &domain.Box{Left: 500, Top: 900, Width: 60, Height: 30}
			a.screen.openButton = nil
		}
	}
	return nil
}

func (a *actionLog) CopyText(s string) error {
	a.record("copy:" + s)
	return nil
}

func (a *actionLog) PasteViaHotkey() error {
	a.record("paste")
	return nil
}

func (a *actionLog) PressKey(name string) error {
	a.record("key:" + name)
	return nil
}

func (a *actionLog) Hotkey(key string, mods ...string) error {
	a.record("hotkey:" + key)
	return nil
}

type noFocus struct{ calls int }

func (f *noFocus) Reassert(hint string) bool {
	f.calls++
	return true
}

func newTestMessenger(screen *chatScreen, in *actionLog, focus *noFocus) *Messenger {
	m := NewMessenger(screen, in, focus, config.DefaultConfig())
	m.sleep = func(time.Duration) {}
	return m
}

func TestOpenClicksRowAndConfirms(t *testing.T) {
	screen := &chatScreen{messageInput: &domain.Box{Left: 500, Top: 900, Width: 60, Height: 30}}
	in := &actionLog{}
	focus := &noFocus{}
	m := newTestMessenger(screen, in, focus)

	require.NoError(t, m.Open(120, 340))
	assert.Equal(t, []string{"click"}, in.actions)
	assert.Equal(t, 1, focus.calls)
}

func TestOpenClicksChatButtonWhenPresent(t *testing.T) {
	screen := &chatScreen{
		openButton:   &domain.Box{Left: 300, Top: 340, Width: 24, Height: 24},
		openAfterBtn: true,
	}
	in := &actionLog{screen: screen}
	m := newTestMessenger(screen, in, &noFocus{})

	require.NoError(t, m.Open(120, 340))
	assert.Equal(t, []string{"click", "click"}, in.actions)
}

func TestOpenFailsWhenPaneNeverAppears(t *testing.T) {
	screen := &chatScreen{}
	in := &actionLog{}
	m := newTestMessenger(screen, in, &noFocus{})

	assert.Error(t, m.Open(120, 340))
}

func TestSendPastesAndPressesEnter(t *testing.T) {
	screen := &chatScreen{messageInput: &domain.Box{Left: 500, Top: 900, Width: 60, Height: 30}}
	in := &actionLog{}
	m := newTestMessenger(screen, in, &noFocus{})

	require.NoError(t, m.Send("hello", false))
	assert.Equal(t, []string{"click", "copy:hello", "paste", "key:enter"}, in.actions)
}

func TestSendDryRunWipesInsteadOfSending(t *testing.T) {
	screen := &chatScreen{messageInput: &domain.Box{Left: 500, Top: 900, Width: 60, Height: 30}}
	in := &actionLog{}
	m := newTestMessenger(screen, in, &noFocus{})

	require.NoError(t, m.Send("hello", true))
	assert.Equal(t, []string{"click", "copy:hello", "paste", "hotkey:a", "key:delete"}, in.actions)
}

func TestSendFailsWithoutInputAnchor(t *testing.T) {
	m := newTestMessenger(&chatScreen{}, &actionLog{}, &noFocus{})
	assert.Error(t, m.Send("hello", false))
	// No typing happened anywhere.
}
