package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoa/internal/config"
	"autoa/internal/domain"
	"autoa/internal/eventbus"
	"autoa/internal/worker"
)

type fakeRunner struct {
	started   []worker.RunParams
	startErr  error
	active    bool
	paused    bool
	cancelled bool
}

func (r *fakeRunner) Start(p worker.RunParams) error {
	if r.startErr != nil {
		return r.startErr
	}
	r.started = append(r.started, p)
	r.active = true
	return nil
}

func (r *fakeRunner) Pause()       { r.paused = true }
func (r *fakeRunner) Resume()      { r.paused = false }
func (r *fakeRunner) Cancel()      { r.cancelled = true }
func (r *fakeRunner) Active() bool { return r.active }
func (r *fakeRunner) Paused() bool { return r.paused }

type fakeShot struct{ calls int }

func (s *fakeShot) Screenshot() (string, error) {
	s.calls++
	return "reports/screenshot-x.png", nil
}

func newTestModel() (*Model, *fakeRunner) {
	runner := &fakeRunner{}
	m := NewModel(eventbus.New(), config.DefaultConfig(), runner, &fakeShot{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, runner
}

func TestStartRunParsesFields(t *testing.T) {
	m, runner := newTestModel()
	m.inputs[focusCount].SetValue("7")
	m.inputs[focusDelay].SetValue("1.5")
	m.inputs[focusMessage].SetValue("hello")

	m.startRun()
	require.Len(t, runner.started, 1)
	p := runner.started[0]
	assert.Equal(t, 7, p.Limit)
	assert.Equal(t, 1.5, p.DelaySeconds)
	assert.Equal(t, "hello", p.Message)
	assert.True(t, p.DryRun) // default config starts in dry-run
}

func TestStartRunRejectsBadCount(t *testing.T) {
	m, runner := newTestModel()
	m.inputs[focusCount].SetValue("zero")

	m.startRun()
	assert.Empty(t, runner.started)
	require.NotEmpty(t, m.logLines)
	assert.Contains(t, m.logLines[len(m.logLines)-1], "positive number")
}

func TestStartRunSurfacesRunnerError(t *testing.T) {
	m, runner := newTestModel()
	runner.startErr = errors.New("a run is already active")

	m.startRun()
	require.NotEmpty(t, m.logLines)
	assert.Contains(t, m.logLines[len(m.logLines)-1], "already active")
}

func TestDryRunToggleBlockedWhileRunning(t *testing.T) {
	m, _ := newTestModel()
	assert.True(t, m.dryRun)

	m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.False(t, m.dryRun)

	m.running = true
	m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.False(t, m.dryRun)
}

func TestPauseKeyTogglesRunner(t *testing.T) {
	m, runner := newTestModel()

	m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.True(t, runner.paused)

	m.paused = true
	m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.False(t, runner.paused)
}

func TestRunFinishedEventResetsState(t *testing.T) {
	m, _ := newTestModel()
	m.running = true
	m.step = "walking contacts"

	m.handleEvent(eventbus.RunFinishedEvent{
		Status: domain.RunAborted,
		Reason: "window not found",
	})
	assert.False(t, m.running)
	assert.Equal(t, "idle", m.step)
	assert.Contains(t, m.logLines[len(m.logLines)-1], "aborted")
	assert.Contains(t, m.logLines[len(m.logLines)-1], "window not found")
}

func TestLogEventsAccumulateAndCap(t *testing.T) {
	m, _ := newTestModel()
	for i := 0; i < maxLogLines+50; i++ {
		m.handleEvent(eventbus.LogAppendedEvent{Line: "line"})
	}
	assert.Len(t, m.logLines, maxLogLines)
}

func TestViewRendersKeyHints(t *testing.T) {
	m, _ := newTestModel()
	view := m.View()
	assert.True(t, strings.Contains(view, "ctrl+r"))
	assert.True(t, strings.Contains(view, "dry-run"))
}
